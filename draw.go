package gds

import (
	"errors"
	"fmt"
	"math/bits"
)

// ErrShortBitmap is returned when a bitmap holds fewer bytes than its size
// requires.
var ErrShortBitmap = errors.New("gds: bitmap too short")

// DrawPixel sets (x, y) to c. Points outside the panel are dropped and
// reported according to the clip mode. It does nothing once the Device is
// closed.
func (d *Device) DrawPixel(x, y int, c Color) {
	if d.fb == nil {
		return
	}
	if x < 0 || y < 0 || x >= d.rect.Dx() || y >= d.rect.Dy() {
		d.clipped(x, y)
		return
	}
	d.setPixel(d.fb, d.rect.Dx(), x, y, c)
	d.dirty = true
}

// DrawPixelFast sets (x, y) to c without any bounds check. It panics or
// corrupts the frame when (x, y) is outside the panel.
func (d *Device) DrawPixelFast(x, y int, c Color) {
	if d.fb == nil {
		return
	}
	d.setPixel(d.fb, d.rect.Dx(), x, y, c)
	d.dirty = true
}

func (d *Device) clipped(x, y int) {
	switch d.clip {
	case ClipWarn:
		d.log.Warn("gds: pixel clipped", "x", x, "y", y, "width", d.rect.Dx(), "height", d.rect.Dy())
	case ClipPanic:
		panic(fmt.Sprintf("gds: pixel (%d,%d) outside %dx%d", x, y, d.rect.Dx(), d.rect.Dy()))
	}
	if d.onClip != nil {
		d.onClip(x, y)
	}
}

// plot is the silently clipped pixel writer used by shapes and images.
func (d *Device) plot(x, y int, c Color) {
	if d.fb == nil || x < 0 || y < 0 || x >= d.rect.Dx() || y >= d.rect.Dy() {
		return
	}
	d.setPixel(d.fb, d.rect.Dx(), x, y, c)
}

// DrawHLine draws w pixels from (x, y) to the right.
func (d *Device) DrawHLine(x, y, w int, c Color) {
	d.dirty = true
	if d.fb == nil || y < 0 || y >= d.rect.Dy() || w <= 0 {
		return
	}
	x1, x2 := max(x, 0), min(x+w-1, d.rect.Dx()-1)
	for ; x1 <= x2; x1++ {
		d.setPixel(d.fb, d.rect.Dx(), x1, y, c)
	}
}

// DrawVLine draws h pixels from (x, y) downwards.
func (d *Device) DrawVLine(x, y, h int, c Color) {
	d.dirty = true
	if d.fb == nil || x < 0 || x >= d.rect.Dx() || h <= 0 {
		return
	}
	y1, y2 := max(y, 0), min(y+h-1, d.rect.Dy()-1)
	for ; y1 <= y2; y1++ {
		d.setPixel(d.fb, d.rect.Dx(), x, y1, c)
	}
}

// DrawLine draws from (x0, y0) to (x1, y1), both ends included.
func (d *Device) DrawLine(x0, y0, x1, y1 int, c Color) {
	switch {
	case x0 == x1:
		d.DrawVLine(x0, min(y0, y1), abs(y1-y0)+1, c)
		return
	case y0 == y1:
		d.DrawHLine(min(x0, x1), y0, abs(x1-x0)+1, c)
		return
	}
	d.dirty = true
	dx, dy := abs(x1-x0), abs(y1-y0)
	if dx >= dy {
		// Wide: one pixel per column.
		if x0 > x1 {
			x0, y0, x1, y1 = x1, y1, x0, y0
		}
		step := 1
		if y1 < y0 {
			step = -1
		}
		err := dx / 2
		for x, y := x0, y0; x <= x1; x++ {
			d.plot(x, y, c)
			if err -= dy; err < 0 {
				y += step
				err += dx
			}
		}
		return
	}
	// Tall: one pixel per row.
	if y0 > y1 {
		x0, y0, x1, y1 = x1, y1, x0, y0
	}
	step := 1
	if x1 < x0 {
		step = -1
	}
	err := dy / 2
	for x, y := x0, y0; y <= y1; y++ {
		d.plot(x, y, c)
		if err -= dx; err < 0 {
			x += step
			err += dy
		}
	}
}

// DrawBox draws the rectangle with corners (x1, y1) and (x2, y2), included,
// either filled or as an outline.
func (d *Device) DrawBox(x1, y1, x2, y2 int, c Color, filled bool) {
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	if filled {
		for y := y1; y <= y2; y++ {
			d.DrawHLine(x1, y, x2-x1+1, c)
		}
		return
	}
	d.DrawHLine(x1, y1, x2-x1+1, c)
	if y2 > y1 {
		d.DrawHLine(x1, y2, x2-x1+1, c)
	}
	if y2-y1 > 1 {
		d.DrawVLine(x1, y1+1, y2-y1-1, c)
		if x2 > x1 {
			d.DrawVLine(x2, y1+1, y2-y1-1, c)
		}
	}
}

// DrawBitmapCBR draws a 1 bit bitmap stored column by column, h/8 bytes per
// column, most significant bit on top, from the top left corner. Set bits
// take c, clear bits Black. Zero w or h means the panel size. h is rounded
// down to whole bytes.
func (d *Device) DrawBitmapCBR(data []byte, w, h int, c Color) error {
	if d.fb == nil {
		return ErrNotReady
	}
	if w <= 0 {
		w = d.rect.Dx()
	}
	if h <= 0 {
		h = d.rect.Dy()
	}
	h &^= 7
	if need := w * h / 8; len(data) < need {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrShortBitmap, len(data), w, h)
	}
	d.dirty = true
	if d.bitmap != nil {
		d.bitmap.DrawBitmapCBR(d, data, w, h, c)
		return nil
	}
	stride := h / 8
	cw, ch := min(w, d.rect.Dx()), min(h, d.rect.Dy())
	if d.format.Depth == 1 && d.format.Framing == Vertical && c != XOR {
		// Source bytes map onto framebuffer bytes; only the bit order may
		// differ.
		for x := 0; x < cw; x++ {
			for p := 0; p < ch/8; p++ {
				b := data[x*stride+p]
				if !d.format.MSB {
					b = bits.Reverse8(b)
				}
				if c == Black {
					b = 0
				}
				d.fb[p*d.rect.Dx()+x] = b
			}
			for y := ch &^ 7; y < ch; y++ {
				d.bitmapPixel(data, stride, x, y, c)
			}
		}
		return nil
	}
	for x := 0; x < cw; x++ {
		for y := 0; y < ch; y++ {
			d.bitmapPixel(data, stride, x, y, c)
		}
	}
	return nil
}

func (d *Device) bitmapPixel(data []byte, stride, x, y int, c Color) {
	if data[x*stride+y/8]&(0x80>>(y&7)) != 0 {
		d.setPixel(d.fb, d.rect.Dx(), x, y, c)
	} else if c != XOR {
		d.setPixel(d.fb, d.rect.Dx(), x, y, Black)
	}
}

// DrawRGB16 draws a w x h image of 16 bits pixels encoded in src (RGB565,
// RGB555 or RGB444) at (x, y).
func (d *Device) DrawRGB16(x, y, w, h int, src Mode, img []uint16) error {
	if d.fb == nil {
		return ErrNotReady
	}
	switch src {
	case RGB565, RGB555, RGB444:
	default:
		return fmt.Errorf("gds: %s is not a 16 bits mode", src)
	}
	if len(img) < w*h {
		return fmt.Errorf("%w: %d pixels for %dx%d", ErrShortBitmap, len(img), w, h)
	}
	d.dirty = true
	same := d.format.Mode == src && d.format.Depth == 16
	for r := 0; r < h; r++ {
		for col := 0; col < w; col++ {
			v := Color(img[r*w+col])
			if !same {
				rgba := src.RGBA(v)
				v = d.format.RGB(rgba.R, rgba.G, rgba.B)
			}
			d.plot(x+col, y+r, v)
		}
	}
	return nil
}

// DrawRGB draws a w x h image of 8:8:8 triplets at (x, y).
func (d *Device) DrawRGB(x, y, w, h int, img []byte) error {
	if d.fb == nil {
		return ErrNotReady
	}
	if len(img) < w*h*3 {
		return fmt.Errorf("%w: %d bytes for %dx%d", ErrShortBitmap, len(img), w, h)
	}
	d.dirty = true
	if d.rgb != nil {
		d.rgb.DrawRGB(d, x, y, w, h, img)
		return nil
	}
	for r := 0; r < h; r++ {
		for col := 0; col < w; col++ {
			i := (r*w + col) * 3
			d.plot(x+col, y+r, d.format.RGB(img[i], img[i+1], img[i+2]))
		}
	}
	return nil
}

func abs(v int) int {
	if v < 0 {
		return -v
	}
	return v
}
