package ssd1322

import (
	"errors"
	"fmt"
	"strings"

	"github.com/flavioheleno/gds"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// RAMWidth is the number of pixels of a RAM row. Smaller panels are wired to
// its center.
const RAMWidth = 480

// Opts is the configuration for the SSD1322 display.
type Opts struct {
	gds.Opts

	// PageBudget bounds the bytes of a page transfer. Zero means
	// gds.PageBudget.
	PageBudget int
}

// Controller is the SSD1322 half of a gds.Device.
type Controller struct {
	budget int

	offset  int // first RAM column, in 4 pixels units
	lines   int
	remap   byte
	shadow  *gds.Shadow
	scratch []byte
}

// Dev is a SSD1322 display: a gds.Device plus the controller specific
// features.
type Dev struct {
	*gds.Device
	c *Controller
}

// NewSPI creates a new SSD1322 device connected via SPI.
//
// The SPI port is configured for 10MHz, Mode0 (CPOL=0, CPHA=0), 8-bit transfers.
// The dc (Data/Command) GPIO pin must be provided and configured as an output.
//
// opts can be nil to use defaults (256x64 display).
func NewSPI(p spi.Port, dc gpio.PinOut, opts *Opts) (*Dev, error) {
	bus, err := gds.NewSPI(p, dc, 10*physic.MegaHertz)
	if err != nil {
		return nil, err
	}
	return New(bus, opts)
}

// New creates a SSD1322 device on bus.
func New(bus gds.Bus, opts *Opts) (*Dev, error) {
	o := Opts{}
	if opts != nil {
		o = *opts
	}
	if o.W == 0 && o.H == 0 {
		o.W, o.H = 256, 64
	}
	c := NewController(o.PageBudget)
	d, err := gds.New(bus, c, &o.Opts)
	if err != nil {
		return nil, err
	}
	return &Dev{Device: d, c: c}, nil
}

// NewController returns a controller sending pages of at most budget bytes.
func NewController(budget int) *Controller {
	if budget <= 0 {
		budget = gds.PageBudget
	}
	return &Controller{budget: budget}
}

// Detect returns a Controller when cfg names a SSD1322.
func Detect(cfg gds.Config) (gds.Controller, bool) {
	if !strings.Contains(cfg.Driver, "SSD1322") {
		return nil, false
	}
	return NewController(0), true
}

func (c *Controller) String() string { return "SSD1322" }

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format { return gds.FormatGray4 }

// Validate implements gds.Validator.
func (c *Controller) Validate(w, h int) error {
	if w <= 0 || w%4 != 0 || w > RAMWidth {
		return errors.New("ssd1322: width must be a multiple of 4 and between 4 and 480")
	}
	if h <= 0 || h > 128 {
		return errors.New("ssd1322: height must be between 1 and 128")
	}
	return nil
}

// Offset returns the first RAM column used by the panel.
func (c *Controller) Offset() int { return c.offset }

// PageLines returns the number of lines per page.
func (c *Controller) PageLines() int { return c.lines }

// Init implements gds.Controller.
func (c *Controller) Init(d *gds.Device) error {
	w, h := d.Width(), d.Height()
	c.offset = (RAMWidth - w) / 4 / 2
	c.lines = gds.PageLines(h, w/2, c.budget, gds.MaxPageLines)

	var err error
	if c.shadow, err = gds.AllocShadow(d, gds.PoolGeneral, 0xFF); err != nil {
		return err
	}
	if c.scratch, err = d.Alloc(c.lines*w/2, gds.PoolDMA); err != nil {
		return err
	}
	d.Logger().Info("ssd1322: initialized", "offset", c.offset, "page", c.lines, "scratch", len(c.scratch))

	bus := d.Bus()
	if err := send(bus, []step{
		{0xFD, []byte{0x12}}, // Unlock command codes
		{0xAE, nil},          // Display OFF
		{0xA5, nil},          // Entire display ON
		{0xA2, []byte{0x00}}, // Display offset
		{0xA1, []byte{0x00}}, // Start line
	}); err != nil {
		return err
	}
	if err := c.SetLayout(d, d.Layout()); err != nil {
		return err
	}
	return send(bus, []step{
		{0xB3, []byte{0x91}},        // Clock divider and oscillator frequency
		{0xCA, []byte{byte(h - 1)}}, // MUX ratio
		{0xAB, []byte{0x01}},        // Function selection (enable internal VDD)
		{0xB4, []byte{0xA0, 0xFD}},  // VSL (display enhancement)
		{0xC1, []byte{0xFF}},        // Contrast (max)
		{0xC7, []byte{0x0F}},        // Master contrast
		{0xB9, nil},                 // Use default grayscale table
		{0xB1, []byte{0xE2}},        // Phase length
		{0xD1, []byte{0x82, 0x20}},  // Display enhancements
		{0xBB, []byte{0x1F}},        // Pre-charge voltage
		{0xB6, []byte{0x08}},        // Second pre-charge period
		{0xBE, []byte{0x07}},        // VCOMH voltage
		{0xA6, nil},                 // Normal display mode
		{0xA9, nil},                 // Exit partial display mode
		{0xAF, nil},                 // Display ON
	})
}

// step is a command and its data arguments.
type step struct {
	cmd  byte
	args []byte
}

func send(bus gds.Bus, steps []step) error {
	for _, s := range steps {
		if err := gds.CommandData(bus, s.cmd, s.args...); err != nil {
			return err
		}
	}
	return nil
}

// Update implements gds.Controller. Pages holding a change are sent whole,
// 16 bits words swapped on the way to the scratch buffer.
func (c *Controller) Update(d *gds.Device) error {
	bus := d.Bus()
	fb := d.Framebuffer()
	line := d.Width() / 2
	page := c.lines * line
	burst := gds.NewBurst(bus, c.scratch, gds.SwapWords)
	column := false
	for r := 0; r < d.Height(); r += c.lines {
		lo := r * line
		if !c.shadow.Changed(fb, lo, lo+page) {
			continue
		}
		if !column {
			// RAM is by columns of 4 pixels.
			if err := gds.CommandData(bus, 0x15, byte(c.offset), byte(c.offset+d.Width()/4-1)); err != nil {
				return err
			}
			column = true
		}
		if err := gds.CommandData(bus, 0x75, byte(r), byte(r+c.lines-1)); err != nil {
			return err
		}
		if err := bus.WriteCommand(0x5C); err != nil {
			return err
		}
		if err := burst.Write(c.shadow.Buf[lo : lo+page]); err != nil {
			return err
		}
		if err := burst.Flush(); err != nil {
			return err
		}
	}
	c.shadow.Done()
	return nil
}

// SetLayout implements gds.Layouter. Nibble remap is on unless HFlip, COM
// remap follows VFlip. The second byte keeps dual COM mode.
func (c *Controller) SetLayout(d *gds.Device, l gds.Layout) error {
	c.remap |= 1 << 1
	if l.HFlip {
		c.remap &^= 1 << 1
	}
	c.remap &^= 1 << 4
	if l.VFlip {
		c.remap |= 1 << 4
	}
	return gds.CommandData(d.Bus(), 0xA0, c.remap, 0x11)
}

// SetContrast implements gds.Contraster.
func (c *Controller) SetContrast(d *gds.Device, level uint8) error {
	return gds.CommandData(d.Bus(), 0xC1, level)
}

// DisplayOn implements gds.Switcher.
func (c *Controller) DisplayOn(d *gds.Device) error { return d.Bus().WriteCommand(0xAF) }

// DisplayOff implements gds.Switcher.
func (c *Controller) DisplayOff(d *gds.Device) error { return d.Bus().WriteCommand(0xAE) }

// Invalidate implements gds.Invalidator.
func (c *Controller) Invalidate() {
	if c.shadow != nil {
		c.shadow.Invalidate()
	}
}

// Invert inverts the display colors (black becomes white and vice versa).
func (d *Dev) Invert(invert bool) error {
	if err := d.check(); err != nil {
		return err
	}
	mode := byte(0xA6) // Normal display
	if invert {
		mode = 0xA7 // Inverted display
	}
	return d.Bus().WriteCommand(mode)
}

// ScrollSpeed defines the horizontal scroll frame rate.
type ScrollSpeed byte

const (
	// Scroll frame rates (in display refresh cycles)
	Speed6Frames   ScrollSpeed = 0x00
	Speed10Frames  ScrollSpeed = 0x01
	Speed100Frames ScrollSpeed = 0x02
	Speed200Frames ScrollSpeed = 0x03
)

// ScrollHorizontal starts horizontal scrolling on the display.
// startRow and endRow specify the scroll region (must be >= 0 and < height).
// If right is true, scrolls right; otherwise scrolls left.
func (d *Dev) ScrollHorizontal(startRow, endRow byte, speed ScrollSpeed, right bool) error {
	if err := d.check(); err != nil {
		return err
	}
	if int(startRow) >= d.Height() || int(endRow) >= d.Height() {
		return errors.New("ssd1322: scroll row out of range")
	}
	scrollCmd := byte(0x26) // Left
	if right {
		scrollCmd = 0x27 // Right
	}
	return gds.Commands(d.Bus(),
		scrollCmd,
		0x00,        // Dummy byte (always 0x00)
		startRow,    // Start row
		byte(speed), // Scroll speed
		endRow,      // End row
		0x00, 0x00,  // Dummy bytes
		0x2F, // Activate scroll
	)
}

// StopScroll stops all scrolling. The panel RAM was shifted, so the next
// Update resends the whole frame.
func (d *Dev) StopScroll() error {
	if err := d.check(); err != nil {
		return err
	}
	if err := d.Bus().WriteCommand(0x2E); err != nil {
		return err
	}
	d.c.Invalidate()
	d.MarkDirty()
	return nil
}

func (d *Dev) check() error {
	if d.Device == nil {
		return fmt.Errorf("ssd1322: %w", gds.ErrNotReady)
	}
	if d.Halted() {
		return fmt.Errorf("ssd1322: %w", gds.ErrHalted)
	}
	return nil
}
