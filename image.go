package gds

import (
	"image"
	"image/draw"

	xdraw "golang.org/x/image/draw"
)

// Fit tells DrawImage where to place an image and whether to shrink it.
type Fit uint8

const (
	FitLeft    Fit = 0
	FitTop     Fit = 0
	FitCenterX Fit = 0x01
	FitCenterY Fit = 0x02
	FitRight   Fit = 0x04
	FitBottom  Fit = 0x08
	FitCenter      = FitCenterX | FitCenterY
	// FitScale shrinks the image by the smallest power of two, up to 8,
	// that makes it fit the space right and below (x, y).
	FitScale Fit = 0x10
)

// MaxScale is the largest FitScale divisor.
const MaxScale = 8

// DrawImage draws img with its top left corner at (x, y), adjusted by fit.
// Pixels are converted to the device mode and clipped.
func (d *Device) DrawImage(img image.Image, x, y int, fit Fit) {
	b := img.Bounds()
	if b.Empty() {
		return
	}
	var src image.Image = img
	if fit&FitScale != 0 {
		if s := scaleFor(b.Dx(), b.Dy(), d.rect.Dx()-x, d.rect.Dy()-y); s > 1 {
			dst := image.NewRGBA(image.Rect(0, 0, max(b.Dx()/s, 1), max(b.Dy()/s, 1)))
			xdraw.ApproxBiLinear.Scale(dst, dst.Bounds(), img, b, xdraw.Src, nil)
			src = dst
		}
	}
	sb := src.Bounds()
	w, h := sb.Dx(), sb.Dy()
	switch {
	case fit&FitRight != 0:
		x = d.rect.Dx() - w
	case fit&FitCenterX != 0:
		x += (d.rect.Dx() - x - w) / 2
	}
	switch {
	case fit&FitBottom != 0:
		y = d.rect.Dy() - h
	case fit&FitCenterY != 0:
		y += (d.rect.Dy() - y - h) / 2
	}
	draw.Draw(d, image.Rect(x, y, x+w, y+h), src, sb.Min, draw.Src)
	d.dirty = true
}

// scaleFor returns the power of two divisor that fits a w x h image in
// aw x ah, capped at MaxScale. 1 means no scaling.
func scaleFor(w, h, aw, ah int) int {
	s := 1
	for s < MaxScale && (w > aw*s || h > ah*s) {
		s <<= 1
	}
	return s
}
