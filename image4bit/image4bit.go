package image4bit

import (
	"image"
	"image/color"
)

// Gray4 is a 16 levels gray. Only the low nibble of Y is significant.
type Gray4 struct {
	Y uint8
}

// RGBA implements color.Color. Each level is replicated over the 16 bits.
func (c Gray4) RGBA() (r, g, b, a uint32) {
	y := uint32(c.Y&0x0F) * 0x1111
	return y, y, y, 0xFFFF
}

// toGray4 keeps the top nibble of the integer luma
// (30R + 59G + 11B) / 100 computed on 8 bits channels.
func toGray4(c color.Color) color.Color {
	if g, ok := c.(Gray4); ok {
		return g
	}
	r, g, b, _ := c.RGBA()
	y := (30*(r>>8) + 59*(g>>8) + 11*(b>>8)) / 100
	return Gray4{Y: uint8(y >> 4)}
}

// Gray4Model converts colors to Gray4.
var Gray4Model = color.ModelFunc(toGray4)

// HorizontalNibble is an in-memory image of Gray4 pixels, two per byte,
// the even column in the low nibble.
type HorizontalNibble struct {
	Pix    []byte
	Stride int // bytes per row
	Rect   image.Rectangle
}

// NewHorizontalNibble allocates an image covering r. It panics when the
// width of r is odd.
func NewHorizontalNibble(r image.Rectangle) *HorizontalNibble {
	w, h := r.Dx(), r.Dy()
	if w < 0 || h < 0 {
		return &HorizontalNibble{Rect: r}
	}
	if w&1 != 0 {
		panic("image4bit: width must be even")
	}
	return &HorizontalNibble{Pix: make([]byte, w/2*h), Stride: w / 2, Rect: r}
}

// ColorModel implements image.Image.
func (p *HorizontalNibble) ColorModel() color.Model { return Gray4Model }

// Bounds implements image.Image.
func (p *HorizontalNibble) Bounds() image.Rectangle { return p.Rect }

// At implements image.Image.
func (p *HorizontalNibble) At(x, y int) color.Color { return p.Gray4At(x, y) }

// Gray4At returns the pixel at (x, y), zero outside the bounds.
func (p *HorizontalNibble) Gray4At(x, y int) Gray4 {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return Gray4{}
	}
	i, shift := p.pixOffset(x, y)
	return Gray4{Y: p.Pix[i] >> shift & 0x0F}
}

// Set implements draw.Image.
func (p *HorizontalNibble) Set(x, y int, c color.Color) {
	p.SetGray4(x, y, Gray4Model.Convert(c).(Gray4))
}

// SetGray4 stores c at (x, y) without color conversion. Points outside the
// bounds are ignored.
func (p *HorizontalNibble) SetGray4(x, y int, c Gray4) {
	if !(image.Point{X: x, Y: y}.In(p.Rect)) {
		return
	}
	i, shift := p.pixOffset(x, y)
	p.Pix[i] = p.Pix[i]&^(0x0F<<shift) | (c.Y&0x0F)<<shift
}

// SubImage returns the part of p visible through r, sharing its pixels.
// r.Min.X is rounded down to an even column.
func (p *HorizontalNibble) SubImage(r image.Rectangle) image.Image {
	r = r.Intersect(p.Rect)
	if r.Empty() {
		return &HorizontalNibble{}
	}
	r.Min.X -= (r.Min.X - p.Rect.Min.X) & 1
	i, _ := p.pixOffset(r.Min.X, r.Min.Y)
	return &HorizontalNibble{Pix: p.Pix[i:], Stride: p.Stride, Rect: r}
}

// pixOffset returns the byte holding (x, y) and the shift of its nibble.
func (p *HorizontalNibble) pixOffset(x, y int) (int, uint) {
	dx := x - p.Rect.Min.X
	return (y-p.Rect.Min.Y)*p.Stride + dx/2, uint(dx&1) * 4
}
