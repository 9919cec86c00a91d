package ssd132x

import "github.com/flavioheleno/gds"

// Mono is the SSD1326 in monochrome mode. A byte holds 8 horizontal pixels,
// leftmost in the most significant bit.
type Mono struct {
	*Controller
}

// WritePixel implements gds.PixelWriter.
func (m *Mono) WritePixel(d *gds.Device, x, y int, c gds.Color) {
	fb := d.Framebuffer()
	i := (y*d.Width() + x) >> 3
	bit := byte(0x80) >> (x & 7)
	switch c {
	case gds.XOR:
		fb[i] ^= bit
	case gds.Black:
		fb[i] &^= bit
	default:
		fb[i] |= bit
	}
}

// ClearWindow implements gds.WindowClearer: whole bytes of a row are set at
// once, the unaligned ends pixel by pixel.
func (m *Mono) ClearWindow(d *gds.Device, x1, y1, x2, y2 int, c gds.Color) {
	fb := d.Framebuffer()
	stride := d.Width() >> 3
	v := byte(0xFF)
	if c == gds.Black {
		v = 0
	}
	for y := y1; y <= y2; y++ {
		x := x1
		for ; (x&7 != 0 || c == gds.XOR) && x <= x2; x++ {
			m.WritePixel(d, x, y, c)
		}
		n := (x2 - x + 1) >> 3
		row := fb[y*stride+x>>3:]
		for i := 0; i < n; i++ {
			row[i] = v
		}
		for x += n * 8; x <= x2; x++ {
			m.WritePixel(d, x, y, c)
		}
	}
}

// DrawBitmapCBR implements gds.BitmapDrawer. Each source column lands on a
// single bit of successive rows.
func (m *Mono) DrawBitmapCBR(d *gds.Device, data []byte, w, h int, c gds.Color) {
	stride := h / 8
	fb := d.Framebuffer()
	dw := d.Width()
	w, h = min(w, dw), min(h, d.Height())
	for x := 0; x < w; x++ {
		bit := byte(0x80) >> (x & 7)
		for y := 0; y < h; y++ {
			i := (y*dw + x) >> 3
			on := data[x*stride+y>>3]&(0x80>>(y&7)) != 0
			switch {
			case c == gds.XOR:
				if on {
					fb[i] ^= bit
				}
			case on && c != gds.Black:
				fb[i] |= bit
			default:
				fb[i] &^= bit
			}
		}
	}
}
