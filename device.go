package gds

import (
	"errors"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log/slog"
	"time"

	"github.com/flavioheleno/gds/image4bit"
	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/display"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"
)

var (
	// ErrHalted is returned by operations on a halted Device.
	ErrHalted = errors.New("gds: halted")
	// ErrNotReady is returned by Update before Init completed, and by the
	// operations needing the framebuffer after Close.
	ErrNotReady = errors.New("gds: not initialized")
	// ErrUnsupported is returned by SetLayout when the controller has no
	// orientation control.
	ErrUnsupported = errors.New("gds: not supported by controller")
	// ErrBufferSize is returned by Write when the frame size does not match.
	ErrBufferSize = errors.New("gds: invalid buffer size")
)

// sleep is replaced in tests.
var sleep = time.Sleep

// ClipMode is what happens when DrawPixel is called outside the panel.
type ClipMode uint8

const (
	// ClipSilent drops the pixel.
	ClipSilent ClipMode = iota
	// ClipWarn drops the pixel and logs it.
	ClipWarn
	// ClipPanic panics.
	ClipPanic
)

// Opts is the configuration of a Device.
type Opts struct {
	W, H   int
	Layout Layout

	// Alloc places the framebuffer. Controllers place their own buffers.
	Alloc     AllocPolicy
	Allocator Allocator // default: &Heap{}

	Clip ClipMode
	// OnClip, when set, is called once per clipped DrawPixel.
	OnClip func(x, y int)

	// Optional pins.
	Reset         gpio.PinOut
	Backlight     gpio.PinOut
	BacklightFreq physic.Frequency // default: 5kHz

	Logger *slog.Logger // default: slog.Default()
}

// Device is a display: a framebuffer, the controller that knows how to ship
// it and the drawing routines working on it.
//
// A Device is not safe for concurrent use.
type Device struct {
	bus  Bus
	ctrl Controller
	log  *slog.Logger

	rect   image.Rectangle
	format Format
	alloc  Allocator
	policy AllocPolicy

	fb    []byte
	owned []allocation

	dirty  bool
	ready  bool
	halted bool
	layout Layout

	setPixel pixelWriter
	getPixel pixelReader
	clearWin WindowClearer
	bitmap   BitmapDrawer
	rgb      RGBDrawer
	layouter Layouter
	contrast Contraster
	switcher Switcher

	clip   ClipMode
	onClip func(x, y int)

	rst       gpio.PinOut
	backlight gpio.PinOut
	blFreq    physic.Frequency

	lines [MaxLines]textLine
}

// New binds ctrl to bus, resets the panel, initializes it and sends a first
// full frame.
func New(bus Bus, ctrl Controller, opts *Opts) (*Device, error) {
	if bus == nil || ctrl == nil {
		return nil, errors.New("gds: bus and controller are required")
	}
	if opts == nil {
		opts = &Opts{}
	}
	if opts.W <= 0 || opts.H <= 0 {
		return nil, fmt.Errorf("gds: invalid geometry %dx%d", opts.W, opts.H)
	}
	f := ctrl.Format()
	if !f.Valid() {
		return nil, fmt.Errorf("%s: unsupported format %s", ctrl, f)
	}
	if v, ok := ctrl.(Validator); ok {
		if err := v.Validate(opts.W, opts.H); err != nil {
			return nil, err
		}
	}
	d := &Device{
		bus:       bus,
		ctrl:      ctrl,
		log:       opts.Logger,
		rect:      image.Rect(0, 0, opts.W, opts.H),
		format:    f,
		alloc:     opts.Allocator,
		policy:    opts.Alloc,
		layout:    opts.Layout,
		clip:      opts.Clip,
		onClip:    opts.OnClip,
		rst:       opts.Reset,
		backlight: opts.Backlight,
		blFreq:    opts.BacklightFreq,
	}
	if d.log == nil {
		d.log = slog.Default()
	}
	if d.alloc == nil {
		d.alloc = &Heap{}
	}
	if d.blFreq == 0 {
		d.blFreq = 5 * physic.KiloHertz
	}
	d.resolve()
	if err := d.Reset(); err != nil {
		return nil, err
	}
	if err := d.init(); err != nil {
		return nil, err
	}
	return d, nil
}

// resolve picks the controller overrides once.
func (d *Device) resolve() {
	d.getPixel = d.format.reader()
	if pw, ok := d.ctrl.(PixelWriter); ok {
		d.setPixel = func(_ []byte, _, x, y int, c Color) { pw.WritePixel(d, x, y, c) }
	} else {
		d.setPixel = d.format.writer()
	}
	d.clearWin, _ = d.ctrl.(WindowClearer)
	d.bitmap, _ = d.ctrl.(BitmapDrawer)
	d.rgb, _ = d.ctrl.(RGBDrawer)
	d.layouter, _ = d.ctrl.(Layouter)
	d.contrast, _ = d.ctrl.(Contraster)
	d.switcher, _ = d.ctrl.(Switcher)
}

// init allocates the framebuffer, runs the controller bring-up and the first
// full Update. Everything is released on failure.
func (d *Device) init() error {
	size := d.format.Size(d.rect.Dx(), d.rect.Dy())
	if s, ok := d.ctrl.(Sizer); ok {
		size = s.FramebufferSize(d.rect.Dx(), d.rect.Dy())
	}
	fb, err := d.Alloc(size, d.Placement())
	if err != nil {
		return fmt.Errorf("%s: framebuffer: %w", d.ctrl, err)
	}
	d.fb = fb
	if err := d.ctrl.Init(d); err != nil {
		d.release()
		return fmt.Errorf("%s: init: %w", d.ctrl, err)
	}
	d.ready = true
	d.dirty = true
	if err := d.Update(); err != nil {
		d.ready = false
		d.release()
		return fmt.Errorf("%s: first update: %w", d.ctrl, err)
	}
	d.log.Debug("gds: device ready", "driver", d.ctrl.String(), "bus", d.bus.Interface().String(), "size", d.rect.Size(), "format", d.format.String(), "bytes", len(d.fb))
	return nil
}

// Placement returns the pool the framebuffer goes to.
func (d *Device) Placement() Pool {
	switch d.policy {
	case AllocDMA:
		return PoolDMA
	case AllocDMAIfSPI:
		if d.bus.Interface() == SPI {
			return PoolDMA
		}
	}
	return PoolGeneral
}

// DMAPool returns PoolDMA on SPI and PoolGeneral otherwise. Controllers use
// it for buffers that only help when streamed.
func (d *Device) DMAPool() Pool {
	if d.bus.Interface() == SPI {
		return PoolDMA
	}
	return PoolGeneral
}

// Alloc takes n bytes from p. The buffer belongs to the Device and is freed
// by Close or a failed Init.
func (d *Device) Alloc(n int, p Pool) ([]byte, error) {
	b, err := d.alloc.Alloc(n, p)
	if err != nil {
		return nil, err
	}
	d.owned = append(d.owned, allocation{buf: b, pool: p})
	return b, nil
}

func (d *Device) release() {
	for _, a := range d.owned {
		d.alloc.Free(a.buf, a.pool)
	}
	d.owned = nil
	d.fb = nil
}

// Reset pulses the reset pin, if any.
func (d *Device) Reset() error {
	if d.rst == nil {
		return nil
	}
	if err := d.rst.Out(gpio.Low); err != nil {
		return fmt.Errorf("gds: failed to pull RST low: %w", err)
	}
	sleep(100 * time.Millisecond)
	if err := d.rst.Out(gpio.High); err != nil {
		return fmt.Errorf("gds: failed to pull RST high: %w", err)
	}
	sleep(100 * time.Millisecond)
	return nil
}

// Close frees every buffer. Afterwards drawing is a no-op, reads return
// Black and the other operations return ErrNotReady.
func (d *Device) Close() error {
	d.ready = false
	d.release()
	return nil
}

// Update sends the framebuffer if anything was drawn since the last
// successful Update. On failure the Device stays dirty and the next Update
// is a full one.
func (d *Device) Update() error {
	if !d.ready {
		return ErrNotReady
	}
	if d.halted {
		return ErrHalted
	}
	if !d.dirty {
		return nil
	}
	if err := d.ctrl.Update(d); err != nil {
		if inv, ok := d.ctrl.(Invalidator); ok {
			inv.Invalidate()
		}
		return err
	}
	d.dirty = false
	return nil
}

// MarkDirty forces the next Update to run the controller's diff.
func (d *Device) MarkDirty() { d.dirty = true }

// Dirty reports whether something was drawn since the last Update.
func (d *Device) Dirty() bool { return d.dirty }

// Halted reports whether Halt was called without a DisplayOn since.
func (d *Device) Halted() bool { return d.halted }

// Bus returns the bus the Device writes to.
func (d *Device) Bus() Bus { return d.bus }

// Controller returns the controller driving the panel.
func (d *Device) Controller() Controller { return d.ctrl }

// Framebuffer returns the current frame. Callers writing to it directly must
// call MarkDirty.
func (d *Device) Framebuffer() []byte { return d.fb }

// Logger returns the Device logger.
func (d *Device) Logger() *slog.Logger { return d.log }

// Width returns the panel width in pixels.
func (d *Device) Width() int { return d.rect.Dx() }

// Height returns the panel height in pixels.
func (d *Device) Height() int { return d.rect.Dy() }

// Depth returns the bits per pixel of the framebuffer.
func (d *Device) Depth() int { return d.format.Depth }

// Mode returns the color mode.
func (d *Device) Mode() Mode { return d.format.Mode }

// Format returns the framebuffer layout.
func (d *Device) Format() Format { return d.format }

// Layout returns the current orientation.
func (d *Device) Layout() Layout { return d.layout }

// Bounds implements display.Drawer.
func (d *Device) Bounds() image.Rectangle { return d.rect }

// ColorModel implements display.Drawer.
func (d *Device) ColorModel() color.Model { return d.format.Model() }

// At returns the color of the pixel at (x, y) in the framebuffer.
func (d *Device) At(x, y int) color.Color {
	if d.fb == nil || !(image.Point{X: x, Y: y}.In(d.rect)) {
		return d.format.Color(Black)
	}
	return d.format.Color(d.getPixel(d.fb, d.rect.Dx(), x, y))
}

// Set converts c and stores it at (x, y). Points outside the panel are
// ignored, which lets Device serve as a draw.Image.
func (d *Device) Set(x, y int, c color.Color) {
	if d.fb == nil || !(image.Point{X: x, Y: y}.In(d.rect)) {
		return
	}
	d.setPixel(d.fb, d.rect.Dx(), x, y, d.format.Convert(c))
	d.dirty = true
}

// Pixel reads back the native value at (x, y).
func (d *Device) Pixel(x, y int) Color {
	if d.fb == nil || !(image.Point{X: x, Y: y}.In(d.rect)) {
		return Black
	}
	return d.getPixel(d.fb, d.rect.Dx(), x, y)
}

func (d *Device) String() string {
	return fmt.Sprintf("gds.Device{%s, %dx%d, %s}", d.ctrl, d.rect.Dx(), d.rect.Dy(), d.bus.Interface())
}

// Write copies a raw full frame in the device format and Updates.
func (d *Device) Write(pixels []byte) (int, error) {
	if d.fb == nil {
		return 0, ErrNotReady
	}
	if d.halted {
		return 0, ErrHalted
	}
	if len(pixels) != len(d.fb) {
		return 0, ErrBufferSize
	}
	copy(d.fb, pixels)
	d.dirty = true
	if err := d.Update(); err != nil {
		return 0, err
	}
	return len(pixels), nil
}

// Draw implements display.Drawer. src is rendered into the framebuffer, then
// the Device is Updated.
func (d *Device) Draw(r image.Rectangle, src image.Image, sp image.Point) error {
	if d.fb == nil {
		return ErrNotReady
	}
	if d.halted {
		return ErrHalted
	}
	r = r.Intersect(d.rect)
	if r.Empty() {
		return nil
	}
	if pix := d.fullFrame(r, src, sp); pix != nil {
		copy(d.fb, pix)
	} else {
		draw.Draw(d, r, src, sp, draw.Src)
	}
	d.dirty = true
	return d.Update()
}

// fullFrame returns src's pixels when they already are a whole frame in the
// device layout.
func (d *Device) fullFrame(r image.Rectangle, src image.Image, sp image.Point) []byte {
	if r != d.rect || sp != (image.Point{}) {
		return nil
	}
	var pix []byte
	switch img := src.(type) {
	case *image1bit.VerticalLSB:
		if d.format != FormatMono || img.Rect != d.rect {
			return nil
		}
		pix = img.Pix
	case *image4bit.HorizontalNibble:
		if d.format != FormatGray4 || img.Rect != d.rect {
			return nil
		}
		pix = img.Pix
	}
	if len(pix) != len(d.fb) {
		return nil
	}
	return pix
}

// SetContrast sets the contrast through the controller, or the backlight
// duty when the controller has no contrast register.
func (d *Device) SetContrast(level uint8) error {
	if d.halted {
		return ErrHalted
	}
	if d.contrast != nil {
		return d.contrast.SetContrast(d, level)
	}
	return d.SetBacklight(level)
}

// SetBacklight sets the backlight PWM duty, 0 being off. It is a no-op
// without a backlight pin.
func (d *Device) SetBacklight(level uint8) error {
	if d.backlight == nil {
		return nil
	}
	duty := gpio.Duty(int64(level) * int64(gpio.DutyMax) / 255)
	if err := d.backlight.PWM(duty, d.blFreq); err != nil {
		return fmt.Errorf("gds: backlight: %w", err)
	}
	return nil
}

// SetLayout changes the orientation. The panel RAM is read differently
// afterwards, so the next Update sends the full frame. Controllers without
// orientation control return ErrUnsupported and keep their layout.
func (d *Device) SetLayout(l Layout) error {
	if d.halted {
		return ErrHalted
	}
	if d.layouter == nil {
		return fmt.Errorf("%w: %s cannot change layout", ErrUnsupported, d.ctrl)
	}
	if err := d.layouter.SetLayout(d, l); err != nil {
		return err
	}
	d.layout = l
	if inv, ok := d.ctrl.(Invalidator); ok {
		inv.Invalidate()
	}
	d.dirty = true
	return nil
}

// DisplayOn wakes the panel, also after Halt.
func (d *Device) DisplayOn() error {
	if d.switcher == nil {
		d.halted = false
		return nil
	}
	if err := d.switcher.DisplayOn(d); err != nil {
		return err
	}
	d.halted = false
	return nil
}

// DisplayOff blanks the panel, keeping its RAM.
func (d *Device) DisplayOff() error {
	if d.switcher == nil {
		return nil
	}
	return d.switcher.DisplayOff(d)
}

// Halt implements conn.Resource. It blanks the panel and refuses drawing
// transfers until DisplayOn.
func (d *Device) Halt() error {
	d.halted = true
	if d.switcher == nil {
		return nil
	}
	return d.switcher.DisplayOff(d)
}

var (
	_ display.Drawer = (*Device)(nil)
	_ draw.Image     = (*Device)(nil)
	_ conn.Resource  = (*Device)(nil)
)
