package gds

// Controller is the per-chip half of a Device: its pixel format, register
// bring-up and diff and transfer routine. A controller may implement any of
// the optional interfaces below; the Device resolves them once in New and
// falls back to the generic routines for the others.
type Controller interface {
	String() string
	// Format is the framebuffer layout the controller works on.
	Format() Format
	// Init allocates the controller's own buffers through d.Alloc and
	// programs its registers. The framebuffer already exists.
	Init(d *Device) error
	// Update sends the framebuffer to the panel.
	Update(d *Device) error
}

// Validator rejects geometries the controller cannot drive.
type Validator interface {
	Validate(w, h int) error
}

// Sizer overrides the framebuffer size computed by Format.Size.
type Sizer interface {
	FramebufferSize(w, h int) int
}

// PixelWriter replaces the generic unchecked pixel writer.
type PixelWriter interface {
	WritePixel(d *Device, x, y int, c Color)
}

// WindowClearer replaces the generic ClearWindow. Coordinates are ordered
// and clipped.
type WindowClearer interface {
	ClearWindow(d *Device, x1, y1, x2, y2 int, c Color)
}

// BitmapDrawer replaces the generic DrawBitmapCBR. data holds at least
// w*h/8 bytes and h is a multiple of 8; the override clips to the panel.
type BitmapDrawer interface {
	DrawBitmapCBR(d *Device, data []byte, w, h int, c Color)
}

// RGBDrawer replaces the generic DrawRGB for 8:8:8 sources.
type RGBDrawer interface {
	DrawRGB(d *Device, x, y, w, h int, img []byte)
}

// Layouter writes orientation bits.
type Layouter interface {
	SetLayout(d *Device, l Layout) error
}

// Contraster writes the controller's contrast register.
type Contraster interface {
	SetContrast(d *Device, level uint8) error
}

// Switcher turns the panel on and off without touching its RAM.
type Switcher interface {
	DisplayOn(d *Device) error
	DisplayOff(d *Device) error
}

// Invalidator forgets what the panel shows so the next Update is full.
type Invalidator interface {
	Invalidate()
}

// Layout is the panel orientation.
type Layout struct {
	HFlip  bool
	VFlip  bool
	Rotate bool
}
