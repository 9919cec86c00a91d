package gdstest

import (
	"math/rand/v2"

	"github.com/flavioheleno/gds"
)

// Scribble runs between 1 and 8 random drawing calls on d: pixels, lines,
// boxes and window clears, some of them partly outside the panel. Colors
// are any value of the device depth.
func Scribble(d *gds.Device, r *rand.Rand) {
	w, h := d.Width(), d.Height()
	color := func() gds.Color {
		return gds.Color(r.Uint32() & (1<<d.Depth() - 1))
	}
	// x and y may overshoot the panel by a few pixels.
	x := func() int { return r.IntN(w+8) - 4 }
	y := func() int { return r.IntN(h+8) - 4 }
	for n := 1 + r.IntN(8); n > 0; n-- {
		switch r.IntN(10) {
		case 0, 1, 2:
			d.DrawPixel(r.IntN(w), r.IntN(h), color())
		case 3, 4:
			d.DrawLine(x(), y(), x(), y(), color())
		case 5:
			d.DrawHLine(x(), y(), r.IntN(w), color())
		case 6:
			d.DrawVLine(x(), y(), r.IntN(h), color())
		case 7:
			d.DrawBox(x(), y(), x(), y(), color(), r.IntN(2) == 0)
		case 8:
			d.ClearWindow(x(), y(), x(), y(), color())
		case 9:
			// A short run of neighbours, as text rendering does.
			px, py := r.IntN(w), r.IntN(h)
			for i := 0; i < 6; i++ {
				d.DrawPixel(min(px+i, w-1), py, color())
			}
		}
	}
}
