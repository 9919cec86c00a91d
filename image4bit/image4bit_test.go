package image4bit

import (
	"image"
	"image/color"
	"image/draw"
	"testing"
)

func TestGray4(t *testing.T) {
	for _, tt := range []struct {
		in   color.Color
		y    uint8
		rgba uint32
	}{
		{Gray4{Y: 0}, 0, 0x0000},
		{Gray4{Y: 5}, 5, 0x5555},
		{Gray4{Y: 0x5F}, 15, 0xFFFF},
		{color.Black, 0, 0x0000},
		{color.White, 15, 0xFFFF},
		{color.RGBA{0x88, 0x88, 0x88, 0xFF}, 8, 0x8888},
		{color.RGBA{0xFF, 0x00, 0x00, 0xFF}, 4, 0x4444},
		{color.RGBA{0x00, 0xFF, 0x00, 0xFF}, 9, 0x9999},
		{color.RGBA{0x00, 0x00, 0xFF, 0xFF}, 1, 0x1111},
	} {
		g := Gray4Model.Convert(tt.in).(Gray4)
		if g.Y&0x0F != tt.y {
			t.Errorf("Convert(%v) = %d, want %d", tt.in, g.Y, tt.y)
		}
		r, gr, b, a := g.RGBA()
		if r != tt.rgba || gr != tt.rgba || b != tt.rgba || a != 0xFFFF {
			t.Errorf("Convert(%v).RGBA() = %x %x %x %x, want %x", tt.in, r, gr, b, a, tt.rgba)
		}
	}
}

func TestNewHorizontalNibble(t *testing.T) {
	for _, tt := range []struct {
		r      image.Rectangle
		stride int
		n      int
	}{
		{image.Rect(0, 0, 256, 64), 128, 8192},
		{image.Rect(0, 0, 2, 2), 1, 2},
		{image.Rect(10, 20, 14, 22), 2, 4},
		{image.Rect(5, 5, 5, 5), 0, 0},
	} {
		img := NewHorizontalNibble(tt.r)
		if img.Bounds() != tt.r || img.Stride != tt.stride || len(img.Pix) != tt.n {
			t.Errorf("NewHorizontalNibble(%v) = %v stride %d len %d, want stride %d len %d",
				tt.r, img.Bounds(), img.Stride, len(img.Pix), tt.stride, tt.n)
		}
		if img.ColorModel() != Gray4Model {
			t.Errorf("ColorModel() is not Gray4Model")
		}
	}

	defer func() {
		if recover() == nil {
			t.Error("odd width did not panic")
		}
	}()
	NewHorizontalNibble(image.Rect(0, 0, 5, 2))
}

func TestPacking(t *testing.T) {
	img := NewHorizontalNibble(image.Rect(0, 0, 8, 2))
	img.SetGray4(0, 0, Gray4{Y: 5})
	img.SetGray4(1, 0, Gray4{Y: 10})
	img.SetGray4(2, 0, Gray4{Y: 3})
	img.SetGray4(3, 0, Gray4{Y: 12})
	img.SetGray4(1, 1, Gray4{Y: 0xF7})

	// Even x in the low nibble.
	want := []byte{0xA5, 0xC3, 0, 0, 0x70, 0, 0, 0}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Errorf("Pix[%d] = %#02x, want %#02x", i, img.Pix[i], b)
		}
	}

	for _, tt := range []struct {
		x, y   int
		offset int
		shift  uint
	}{
		{0, 0, 0, 0},
		{1, 0, 0, 4},
		{3, 0, 1, 4},
		{0, 1, 4, 0},
		{7, 1, 7, 4},
	} {
		if o, s := img.pixOffset(tt.x, tt.y); o != tt.offset || s != tt.shift {
			t.Errorf("pixOffset(%d, %d) = %d, %d, want %d, %d", tt.x, tt.y, o, s, tt.offset, tt.shift)
		}
	}
}

func TestSetAt(t *testing.T) {
	img := NewHorizontalNibble(image.Rect(100, 50, 116, 52))
	for x := 100; x < 116; x++ {
		img.Set(x, 51, Gray4{Y: uint8(x - 100)})
	}
	for x := 100; x < 116; x++ {
		if g, ok := img.At(x, 51).(Gray4); !ok || g.Y != uint8(x-100) {
			t.Errorf("At(%d, 51) = %v, want %d", x, img.At(x, 51), x-100)
		}
	}
	img.Set(100, 50, color.White)
	if img.Pix[0] != 0x0F {
		t.Errorf("Pix[0] = %#02x, want 0x0f", img.Pix[0])
	}

	// Outside the bounds, reads are zero and writes are dropped.
	before := append([]byte(nil), img.Pix...)
	for _, p := range []image.Point{{99, 50}, {100, 49}, {116, 50}, {100, 52}} {
		img.SetGray4(p.X, p.Y, Gray4{Y: 15})
		if g := img.Gray4At(p.X, p.Y); g.Y != 0 {
			t.Errorf("Gray4At(%v) = %d, want 0", p, g.Y)
		}
	}
	for i := range before {
		if before[i] != img.Pix[i] {
			t.Fatalf("out of bounds write changed Pix[%d]", i)
		}
	}
}

func TestDraw(t *testing.T) {
	img := NewHorizontalNibble(image.Rect(0, 0, 4, 2))
	draw.Draw(img, image.Rect(1, 0, 3, 2), image.NewUniform(color.White), image.Point{}, draw.Src)
	want := []byte{0xF0, 0x0F, 0xF0, 0x0F}
	for i, b := range want {
		if img.Pix[i] != b {
			t.Errorf("Pix[%d] = %#02x, want %#02x", i, img.Pix[i], b)
		}
	}
}

func TestSubImage(t *testing.T) {
	img := NewHorizontalNibble(image.Rect(0, 0, 8, 4))
	img.SetGray4(4, 2, Gray4{Y: 6})

	sub := img.SubImage(image.Rect(3, 1, 8, 4)).(*HorizontalNibble)
	if want := image.Rect(2, 1, 8, 4); sub.Rect != want {
		t.Fatalf("Rect = %v, want %v", sub.Rect, want)
	}
	if got := sub.Gray4At(4, 2).Y; got != 6 {
		t.Errorf("Gray4At(4, 2).Y = %d, want 6", got)
	}
	sub.SetGray4(5, 3, Gray4{Y: 9})
	if got := img.Gray4At(5, 3).Y; got != 9 {
		t.Errorf("shared pixel = %d, want 9", got)
	}
	if empty := img.SubImage(image.Rect(20, 20, 30, 30)); !empty.Bounds().Empty() {
		t.Errorf("SubImage outside bounds = %v, want empty", empty.Bounds())
	}
}
