package gds

import (
	"fmt"
	"image/color"

	"github.com/flavioheleno/gds/image4bit"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

// Color is a pixel value in the native encoding of a device's Mode.
//
// For Mono it is 0 or 1, for 4 bits Grayscale 0-15, for RGB565 the packed
// 16 bits word and so on. Use Format.Gray or Format.RGB to build one.
type Color int

const (
	// Black is the zero value in every mode.
	Black Color = 0
	// White is the lit pixel of a Mono device.
	White Color = 1
	// XOR flips the bits already in the framebuffer. Only depth 1 writers
	// honor it, other depths ignore the write.
	XOR Color = -1
)

// Mode is the color interpretation of a pixel's bits. Modes are ordered from
// the poorest to the richest.
type Mode uint8

// Supported color modes.
const (
	Mono Mode = iota
	Grayscale
	RGB332
	RGB444
	RGB555
	RGB565
	RGB666
	RGB888
)

var modeNames = [...]string{"Mono", "Grayscale", "RGB332", "RGB444", "RGB555", "RGB565", "RGB666", "RGB888"}

func (m Mode) String() string {
	if int(m) < len(modeNames) {
		return modeNames[m]
	}
	return fmt.Sprintf("Mode(%d)", m)
}

// Depth returns the storage depth the mode naturally lives in.
func (m Mode) Depth() int {
	switch m {
	case Mono:
		return 1
	case Grayscale:
		return 4
	case RGB332:
		return 8
	case RGB444, RGB555, RGB565:
		return 16
	default:
		return 24
	}
}

// Gray converts an 8 bits intensity into the mode by keeping the top bits of
// the level for every channel. 4 bits Grayscale keeps the top nibble.
//
// For instance RGB565 of 200 (0b11001000) is 11001|110010|11001 = 0xCE59.
func (m Mode) Gray(level uint8) Color {
	l := int(level)
	switch m {
	case Mono:
		return Color(l >> 7)
	case Grayscale:
		return Color(l >> 4)
	case RGB332:
		return Color(l>>5<<5 | l>>5<<2 | l>>6)
	case RGB444:
		return Color(l>>4<<8 | l>>4<<4 | l>>4)
	case RGB555:
		return Color(l>>3<<10 | l>>3<<5 | l>>3)
	case RGB565:
		return Color(l>>3<<11 | l>>2<<5 | l>>3)
	case RGB666:
		return Color(l>>2<<12 | l>>2<<6 | l>>2)
	default:
		return Color(l<<16 | l<<8 | l)
	}
}

// RGB converts an 8:8:8 color into the mode by truncation. Mono and
// Grayscale go through Luma first.
func (m Mode) RGB(r, g, b uint8) Color {
	R, G, B := int(r), int(g), int(b)
	switch m {
	case Mono, Grayscale:
		return m.Gray(Luma(r, g, b))
	case RGB332:
		return Color(R>>5<<5 | G>>5<<2 | B>>6)
	case RGB444:
		return Color(R>>4<<8 | G>>4<<4 | B>>4)
	case RGB555:
		return Color(R>>3<<10 | G>>3<<5 | B>>3)
	case RGB565:
		return Color(R>>3<<11 | G>>2<<5 | B>>3)
	case RGB666:
		return Color(R>>2<<12 | G>>2<<6 | B>>2)
	default:
		return Color(R<<16 | G<<8 | B)
	}
}

// RGBA expands c back to 8 bits per channel by bit replication.
func (m Mode) RGBA(c Color) color.RGBA {
	v := uint32(c)
	var r, g, b uint8
	switch m {
	case Mono:
		r = expand(v, 1)
		g, b = r, r
	case Grayscale:
		r = expand(v, 4)
		g, b = r, r
	case RGB332:
		r, g, b = expand(v>>5, 3), expand(v>>2, 3), expand(v, 2)
	case RGB444:
		r, g, b = expand(v>>8, 4), expand(v>>4, 4), expand(v, 4)
	case RGB555:
		r, g, b = expand(v>>10, 5), expand(v>>5, 5), expand(v, 5)
	case RGB565:
		r, g, b = expand(v>>11, 5), expand(v>>5, 6), expand(v, 5)
	case RGB666:
		r, g, b = expand(v>>12, 6), expand(v>>6, 6), expand(v, 6)
	default:
		r, g, b = uint8(v>>16), uint8(v>>8), uint8(v)
	}
	return color.RGBA{R: r, G: g, B: b, A: 0xFF}
}

// Luma is the integer grayscale of an 8:8:8 color (0.30R + 0.59G + 0.11B).
func Luma(r, g, b uint8) uint8 {
	return uint8((30*int(r) + 59*int(g) + 11*int(b)) / 100)
}

// expand replicates the low n bits of v until 8 bits are filled.
func expand(v uint32, n uint) uint8 {
	v &= 1<<n - 1
	var out uint32
	reps := (8 + n - 1) / n
	for i := uint(0); i < reps; i++ {
		out = out<<n | v
	}
	return uint8(out >> (reps*n - 8))
}

// Framing is how depth 1 pixels are gathered in a byte.
type Framing uint8

const (
	// Vertical packs 8 vertically stacked pixels of one column per byte.
	Vertical Framing = iota
	// Horizontal packs 8 horizontally adjacent pixels per byte.
	Horizontal
)

// Format describes how pixels are laid out in a framebuffer. Framing and MSB
// only matter at depth 1.
type Format struct {
	Depth   int
	Mode    Mode
	Framing Framing
	// MSB is set when the first pixel of a byte is its most significant bit.
	MSB bool
}

// Formats used by the drivers.
var (
	FormatMono           = Format{Depth: 1, Mode: Mono, Framing: Vertical}
	FormatMonoMSB        = Format{Depth: 1, Mode: Mono, Framing: Vertical, MSB: true}
	FormatMonoHorizontal = Format{Depth: 1, Mode: Mono, Framing: Horizontal, MSB: true}
	FormatGray4          = Format{Depth: 4, Mode: Grayscale}
	FormatGray8          = Format{Depth: 8, Mode: Grayscale}
	FormatRGB332         = Format{Depth: 8, Mode: RGB332}
	FormatRGB444         = Format{Depth: 16, Mode: RGB444}
	FormatRGB555         = Format{Depth: 16, Mode: RGB555}
	FormatRGB565         = Format{Depth: 16, Mode: RGB565}
	FormatRGB666         = Format{Depth: 24, Mode: RGB666}
	FormatRGB888         = Format{Depth: 24, Mode: RGB888}
)

func (f Format) String() string {
	if f.Depth != 1 {
		return fmt.Sprintf("%s/%d", f.Mode, f.Depth)
	}
	s := "Mono/1/V"
	if f.Framing == Horizontal {
		s = "Mono/1/H"
	}
	if f.MSB {
		return s + "/MSB"
	}
	return s
}

// Valid reports whether f is one of the layouts the pixel writers know.
func (f Format) Valid() bool {
	switch f.Depth {
	case 1:
		return f.Mode == Mono
	case 4:
		return f.Mode == Grayscale
	case 8:
		return f.Mode == Grayscale || f.Mode == RGB332
	case 16:
		return f.Mode == RGB444 || f.Mode == RGB555 || f.Mode == RGB565
	case 24:
		return f.Mode == RGB666 || f.Mode == RGB888
	}
	return false
}

// Size returns the framebuffer size in bytes for a w x h panel. Vertical
// framing rounds the height up to a full byte row.
func (f Format) Size(w, h int) int {
	switch f.Depth {
	case 1:
		if f.Framing == Vertical {
			return w * ((h + 7) / 8)
		}
		return (w*h + 7) / 8
	case 4:
		return (w*h + 1) / 2
	default:
		return w * h * f.Depth / 8
	}
}

// Offset returns the index of the byte holding pixel (x, y) of a framebuffer
// of width w, and the bit shift of the pixel inside it. The shift is only
// meaningful below 8 bits per pixel.
func (f Format) Offset(w, x, y int) (int, uint) {
	switch f.Depth {
	case 1:
		if f.Framing == Vertical {
			bit := uint(y & 7)
			if f.MSB {
				bit = 7 - bit
			}
			return (y>>3)*w + x, bit
		}
		i := y*w + x
		bit := uint(i & 7)
		if f.MSB {
			bit = 7 - bit
		}
		return i >> 3, bit
	case 4:
		i := y*w + x
		return i >> 1, uint(i&1) * 4
	default:
		return (y*w + x) * f.Depth / 8, 0
	}
}

// pixelWriter stores c at (x, y) without any bounds check.
type pixelWriter func(fb []byte, w, x, y int, c Color)

// pixelReader reads back what a pixelWriter stored.
type pixelReader func(fb []byte, w, x, y int) Color

// writer resolves the writer for f once so the hot path never switches on
// the depth again.
func (f Format) writer() pixelWriter {
	switch f.Depth {
	case 1:
		return func(fb []byte, w, x, y int, c Color) {
			i, s := f.Offset(w, x, y)
			switch {
			case c == XOR:
				fb[i] ^= 1 << s
			case c == Black:
				fb[i] &^= 1 << s
			default:
				fb[i] |= 1 << s
			}
		}
	case 4:
		return func(fb []byte, w, x, y int, c Color) {
			if c == XOR {
				return
			}
			i, s := f.Offset(w, x, y)
			fb[i] = fb[i]&^(0x0F<<s) | byte(c&0x0F)<<s
		}
	case 8:
		return func(fb []byte, w, x, y int, c Color) {
			if c == XOR {
				return
			}
			fb[y*w+x] = byte(c)
		}
	case 16:
		return func(fb []byte, w, x, y int, c Color) {
			if c == XOR {
				return
			}
			i := (y*w + x) * 2
			fb[i] = byte(c >> 8)
			fb[i+1] = byte(c)
		}
	case 24:
		return func(fb []byte, w, x, y int, c Color) {
			if c == XOR {
				return
			}
			i := (y*w + x) * 3
			if f.Mode == RGB666 {
				c = c<<4&0x3F0000 | c<<2&0x3F00 | c&0x3F
			}
			fb[i] = byte(c >> 16)
			fb[i+1] = byte(c >> 8)
			fb[i+2] = byte(c)
		}
	}
	return func([]byte, int, int, int, Color) {}
}

func (f Format) reader() pixelReader {
	switch f.Depth {
	case 1:
		return func(fb []byte, w, x, y int) Color {
			i, s := f.Offset(w, x, y)
			return Color(fb[i] >> s & 1)
		}
	case 4:
		return func(fb []byte, w, x, y int) Color {
			i, s := f.Offset(w, x, y)
			return Color(fb[i] >> s & 0x0F)
		}
	case 8:
		return func(fb []byte, w, x, y int) Color {
			return Color(fb[y*w+x])
		}
	case 16:
		return func(fb []byte, w, x, y int) Color {
			i := (y*w + x) * 2
			return Color(fb[i])<<8 | Color(fb[i+1])
		}
	case 24:
		return func(fb []byte, w, x, y int) Color {
			i := (y*w + x) * 3
			if f.Mode == RGB666 {
				return Color(fb[i]&0x3F)<<12 | Color(fb[i+1]&0x3F)<<6 | Color(fb[i+2]&0x3F)
			}
			return Color(fb[i])<<16 | Color(fb[i+1])<<8 | Color(fb[i+2])
		}
	}
	return func([]byte, int, int, int) Color { return Black }
}

// Set stores c at (x, y) in fb, a framebuffer of width w.
func (f Format) Set(fb []byte, w, x, y int, c Color) {
	f.writer()(fb, w, x, y, c)
}

// Get reads the pixel at (x, y) in fb, a framebuffer of width w.
func (f Format) Get(fb []byte, w, x, y int) Color {
	return f.reader()(fb, w, x, y)
}

// Pattern returns the byte sequence that fills a whole framebuffer with c, or
// nil when c cannot be bulk filled.
func (f Format) Pattern(c Color) []byte {
	if c == XOR {
		return nil
	}
	switch f.Depth {
	case 1:
		if c == Black {
			return []byte{0x00}
		}
		return []byte{0xFF}
	case 4:
		n := byte(c & 0x0F)
		return []byte{n | n<<4}
	case 8:
		return []byte{byte(c)}
	case 16:
		return []byte{byte(c >> 8), byte(c)}
	case 24:
		if f.Mode == RGB666 {
			c = c<<4&0x3F0000 | c<<2&0x3F00 | c&0x3F
		}
		return []byte{byte(c >> 16), byte(c >> 8), byte(c)}
	}
	return nil
}

// Gray converts an 8 bits intensity into f. 8 bits Grayscale keeps the level
// as is.
func (f Format) Gray(level uint8) Color {
	if f.Mode == Grayscale && f.Depth == 8 {
		return Color(level)
	}
	return f.Mode.Gray(level)
}

// RGB converts an 8:8:8 color into f.
func (f Format) RGB(r, g, b uint8) Color {
	if f.Mode == Grayscale && f.Depth == 8 {
		return Color(Luma(r, g, b))
	}
	return f.Mode.RGB(r, g, b)
}

// Convert quantizes any color into f.
func (f Format) Convert(c color.Color) Color {
	switch v := c.(type) {
	case image1bit.Bit:
		if f.Mode == Mono {
			if v {
				return White
			}
			return Black
		}
	case image4bit.Gray4:
		if f.Mode == Grayscale && f.Depth == 4 {
			return Color(v.Y & 0x0F)
		}
	}
	r, g, b, _ := c.RGBA()
	return f.RGB(uint8(r>>8), uint8(g>>8), uint8(b>>8))
}

// Color returns c as a color.Color of f's Model.
func (f Format) Color(c Color) color.Color {
	switch {
	case f.Mode == Mono:
		return image1bit.Bit(c != Black)
	case f.Mode == Grayscale && f.Depth == 4:
		return image4bit.Gray4{Y: uint8(c & 0x0F)}
	case f.Mode == Grayscale:
		return color.Gray{Y: uint8(c)}
	}
	return f.Mode.RGBA(c)
}

// Model returns the color model of f.
func (f Format) Model() color.Model {
	switch {
	case f.Mode == Mono:
		return image1bit.BitModel
	case f.Mode == Grayscale && f.Depth == 4:
		return image4bit.Gray4Model
	}
	return color.ModelFunc(func(c color.Color) color.Color {
		return f.Color(f.Convert(c))
	})
}
