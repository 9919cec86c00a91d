package gds

import (
	"fmt"
	"image"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"
)

// MaxLines is the number of text lines a Device tracks.
const MaxLines = 8

// Align is the horizontal placement of a text line.
type Align uint8

const (
	AlignLeft Align = iota
	AlignCenter
	AlignRight
)

// TextAttr modifies how TextLine renders.
type TextAttr uint8

const (
	// TextClear blanks the whole line first.
	TextClear TextAttr = 1 << iota
	// TextClearEOL blanks from the end of the text to the end of the line.
	TextClearEOL
	// TextUpdate Updates the device afterwards.
	TextUpdate
)

type textLine struct {
	space int
	face  font.Face
}

// SetLineFont assigns face to line n (1 based). A line sits right below the
// configured lines before it, each followed by its spacing, so lines may be
// set in any order. A nil face selects basicfont.Face7x13.
func (d *Device) SetLineFont(n int, face font.Face, space int) error {
	if n < 1 || n > MaxLines {
		return fmt.Errorf("gds: text line %d out of 1..%d", n, MaxLines)
	}
	if face == nil {
		face = basicfont.Face7x13
	}
	d.lines[n-1] = textLine{space: space, face: face}
	return nil
}

// lineY is the top row of line n.
func (d *Device) lineY(n int) int {
	y := 0
	for _, l := range d.lines[:n-1] {
		if l.face != nil {
			y += lineHeight(l.face) + l.space
		}
	}
	return y
}

// LineBounds returns the area of line n.
func (d *Device) LineBounds(n int) image.Rectangle {
	if n < 1 || n > MaxLines || d.lines[n-1].face == nil {
		return image.Rectangle{}
	}
	y := d.lineY(n)
	return image.Rect(0, y, d.rect.Dx(), y+lineHeight(d.lines[n-1].face)).Intersect(d.rect)
}

// TextLine renders text on line n with color c. A line without a face gets
// the default one, stacked under the previous line. It returns the width of
// the rendered text in pixels.
func (d *Device) TextLine(n int, align Align, attr TextAttr, text string, c Color) (int, error) {
	if n < 1 || n > MaxLines {
		return 0, fmt.Errorf("gds: text line %d out of 1..%d", n, MaxLines)
	}
	if d.lines[n-1].face == nil {
		if err := d.SetLineFont(n, nil, 0); err != nil {
			return 0, err
		}
	}
	l := d.lines[n-1]
	lb := d.LineBounds(n)
	if attr&TextClear != 0 && !lb.Empty() {
		d.ClearWindow(lb.Min.X, lb.Min.Y, lb.Max.X-1, lb.Max.Y-1, Black)
	}
	w := font.MeasureString(l.face, text).Ceil()
	x := 0
	switch align {
	case AlignCenter:
		x = (d.rect.Dx() - w) / 2
	case AlignRight:
		x = d.rect.Dx() - w
	}
	if attr&TextClearEOL != 0 && !lb.Empty() && x+w < d.rect.Dx() {
		d.ClearWindow(max(x+w, 0), lb.Min.Y, lb.Max.X-1, lb.Max.Y-1, Black)
	}
	dr := font.Drawer{
		Dst:  d,
		Src:  image.NewUniform(d.format.Color(c)),
		Face: l.face,
		Dot:  fixed.P(x, d.lineY(n)+l.face.Metrics().Ascent.Ceil()),
	}
	dr.DrawString(text)
	d.dirty = true
	if attr&TextUpdate != 0 {
		return w, d.Update()
	}
	return w, nil
}

func lineHeight(f font.Face) int {
	m := f.Metrics()
	if h := m.Height.Ceil(); h > 0 {
		return h
	}
	return (m.Ascent + m.Descent).Ceil()
}
