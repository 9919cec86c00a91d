package gds

// Clear fills the whole framebuffer with c. A controller window clearer,
// when present, is preferred like in ClearWindow.
func (d *Device) Clear(c Color) {
	if d.fb == nil {
		return
	}
	if d.clearWin != nil {
		d.clearWin.ClearWindow(d, 0, 0, d.rect.Dx()-1, d.rect.Dy()-1, c)
		d.dirty = true
		return
	}
	if p := d.format.Pattern(c); p != nil {
		fill(d.fb, p)
		d.dirty = true
		return
	}
	d.fillPixels(0, 0, d.rect.Dx()-1, d.rect.Dy()-1, c)
	d.dirty = true
}

// ClearWindow fills the inclusive rectangle (x1, y1)-(x2, y2) with c. The
// corners may come in any order and are clipped to the panel.
func (d *Device) ClearWindow(x1, y1, x2, y2 int, c Color) {
	if d.fb == nil {
		return
	}
	d.dirty = true
	if x1 > x2 {
		x1, x2 = x2, x1
	}
	if y1 > y2 {
		y1, y2 = y2, y1
	}
	x1, y1 = max(x1, 0), max(y1, 0)
	x2, y2 = min(x2, d.rect.Dx()-1), min(y2, d.rect.Dy()-1)
	if x1 > x2 || y1 > y2 {
		return
	}
	if d.clearWin != nil {
		d.clearWin.ClearWindow(d, x1, y1, x2, y2, c)
		return
	}
	w, h := d.rect.Dx(), d.rect.Dy()
	p := d.format.Pattern(c)
	if p == nil {
		d.fillPixels(x1, y1, x2, y2, c)
		return
	}
	if x1 == 0 && y1 == 0 && x2 == w-1 && y2 == h-1 {
		fill(d.fb, p)
		return
	}
	switch d.format.Depth {
	case 1:
		if d.format.Framing != Vertical {
			d.fillPixels(x1, y1, x2, y2, c)
			return
		}
		// Whole 8 rows pages are set a byte at a time.
		r := y1
		for ; r <= y2 && r&7 != 0; r++ {
			d.fillPixels(x1, r, x2, r, c)
		}
		for ; r+7 <= y2; r += 8 {
			i := (r>>3)*w + x1
			fill(d.fb[i:i+x2-x1+1], p)
		}
		if r <= y2 {
			d.fillPixels(x1, r, x2, y2, c)
		}
	case 4:
		for y := y1; y <= y2; y++ {
			lo, hi := y*w+x1, y*w+x2
			if lo&1 != 0 {
				d.setPixel(d.fb, w, x1, y, c)
				lo++
			}
			if hi&1 == 0 {
				d.setPixel(d.fb, w, x2, y, c)
				hi--
			}
			if hi > lo {
				fill(d.fb[lo>>1:hi>>1+1], p)
			}
		}
	case 8, 16, 24:
		n := d.format.Depth / 8
		for y := y1; y <= y2; y++ {
			i := (y*w + x1) * n
			fill(d.fb[i:i+(x2-x1+1)*n], p)
		}
	default:
		d.log.Warn("gds: no bulk clear for format", "format", d.format.String())
		d.fillPixels(x1, y1, x2, y2, c)
	}
}

// ClearExt clears the whole panel, or the given window when full is false,
// and Updates when commit is set.
func (d *Device) ClearExt(full, commit bool, x1, y1, x2, y2 int) error {
	if full {
		d.Clear(Black)
	} else {
		d.ClearWindow(x1, y1, x2, y2, Black)
	}
	if commit {
		return d.Update()
	}
	return nil
}

func (d *Device) fillPixels(x1, y1, x2, y2 int, c Color) {
	w := d.rect.Dx()
	for y := y1; y <= y2; y++ {
		for x := x1; x <= x2; x++ {
			d.setPixel(d.fb, w, x, y, c)
		}
	}
}

// fill repeats pattern over dst. A trailing partial pattern is truncated.
func fill(dst, pattern []byte) {
	if len(dst) == 0 {
		return
	}
	n := copy(dst, pattern)
	for n < len(dst) {
		n += copy(dst[n:], dst[:n])
	}
}
