// Package ssd132x drives SSD1326 and SSD1327 grayscale OLED controllers.
//
// Both run in 4 bits grayscale, sent by pages of whole lines. The SSD1326
// also has a monochrome mode using horizontal framing, selected with a
// depth of 1 ("SSD1326:1" in a configuration string).
package ssd132x

import (
	"fmt"
	"strings"

	"github.com/flavioheleno/gds"
)

// Model is the controller variant.
type Model uint8

const (
	SSD1326 Model = iota
	SSD1327
)

func (m Model) String() string {
	if m == SSD1326 {
		return "SSD1326"
	}
	return "SSD1327"
}

// ColumnTolerance applies to the monochrome mode, see ssd1306.
const ColumnTolerance = 4

// Remap register bits.
const (
	remapColumn   = 1 << 0
	remapNibble   = 1 << 1
	remapCOM      = 1 << 4
	remapMono     = 1 << 4
	remapCOMSplit = 1 << 6
)

// Opts selects the variant.
type Opts struct {
	Model Model
	// Depth is 4 (default) or 1. 1 is only available on SSD1326.
	Depth int
	// PageBudget bounds the bytes of a grayscale page. Zero means
	// gds.PageBudget.
	PageBudget int
}

// Controller is the SSD132x half of a gds.Device.
type Controller struct {
	model  Model
	depth  int
	budget int

	remap   byte
	lines   int
	shadow  *gds.Shadow
	scratch []byte
}

// NewController validates o. At depth 1 the result is a *Mono.
func NewController(o Opts) (gds.Controller, error) {
	if o.Depth == 0 {
		o.Depth = 4
	}
	if o.Depth != 4 && !(o.Depth == 1 && o.Model == SSD1326) {
		return nil, fmt.Errorf("ssd132x: %s does not support depth %d", o.Model, o.Depth)
	}
	if o.PageBudget <= 0 {
		o.PageBudget = gds.PageBudget
	}
	c := &Controller{model: o.Model, depth: o.Depth, budget: o.PageBudget}
	if c.depth == 1 {
		return &Mono{Controller: c}, nil
	}
	return c, nil
}

// New returns a ready device. The default size is 128x128 for SSD1327 and
// 256x32 for SSD1326.
func New(bus gds.Bus, o Opts, opts *gds.Opts) (*gds.Device, error) {
	c, err := NewController(o)
	if err != nil {
		return nil, err
	}
	g := gds.Opts{}
	if opts != nil {
		g = *opts
	}
	if g.W == 0 && g.H == 0 {
		g.W, g.H = 128, 128
		if o.Model == SSD1326 {
			g.W, g.H = 256, 32
		}
	}
	return gds.New(bus, c, &g)
}

// Detect returns a Controller when cfg names a SSD1326 or SSD1327. The
// depth suffix selects the SSD1326 monochrome mode.
func Detect(cfg gds.Config) (gds.Controller, bool) {
	var m Model
	switch {
	case strings.Contains(cfg.Driver, "SSD1326"):
		m = SSD1326
	case strings.Contains(cfg.Driver, "SSD1327"):
		m = SSD1327
	default:
		return nil, false
	}
	depth := 4
	if cfg.Depth == 1 && m == SSD1326 {
		depth = 1
	}
	c, err := NewController(Opts{Model: m, Depth: depth})
	if err != nil {
		return nil, false
	}
	return c, true
}

func (c *Controller) String() string {
	if c.depth == 1 {
		return c.model.String() + ":1"
	}
	return c.model.String()
}

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format {
	if c.depth == 1 {
		return gds.FormatMonoHorizontal
	}
	return gds.FormatGray4
}

// Validate implements gds.Validator.
func (c *Controller) Validate(w, h int) error {
	if w > 256 || h > 128 {
		return fmt.Errorf("ssd132x: unsupported size %dx%d", w, h)
	}
	if c.depth == 1 && w%8 != 0 {
		return fmt.Errorf("ssd132x: monochrome width %d is not a multiple of 8", w)
	}
	if w%2 != 0 {
		return fmt.Errorf("ssd132x: width %d is odd", w)
	}
	return nil
}

// PageLines returns the number of lines sent per grayscale page.
func (c *Controller) PageLines() int { return c.lines }

// Init implements gds.Controller.
func (c *Controller) Init(d *gds.Device) error {
	w, h := d.Width(), d.Height()
	c.lines = gds.PageLines(h, w/2, c.budget, gds.MaxPageLines)

	var err error
	if c.depth == 1 {
		c.shadow, err = gds.AllocShadow(d, d.DMAPool(), 0xFF)
	} else {
		c.shadow, err = gds.AllocShadow(d, gds.PoolGeneral, 0xFF)
		if err == nil && d.Bus().Interface() == gds.SPI {
			c.scratch, err = d.Alloc(c.lines*w/2, gds.PoolDMA)
		}
	}
	if err != nil {
		return err
	}
	d.Logger().Info("ssd132x: initialized", "model", c.model.String(), "depth", c.depth, "page", c.lines, "scratch", len(c.scratch))

	bus := d.Bus()
	if err := gds.Commands(bus,
		0xAE,
		0xA5,
		0xA8, byte(h-1), // MUX ratio
		0xA2, 0x00, // Display offset
		0xA1, 0x00, // Start line
	); err != nil {
		return err
	}
	if err := c.SetContrast(d, 0x7F); err != nil {
		return err
	}
	c.remap = remapCOMSplit
	if c.depth == 1 {
		c.remap |= remapMono
	}
	if err := c.SetLayout(d, d.Layout()); err != nil {
		return err
	}
	return gds.Commands(bus,
		0xA6,       // Normal display
		0xB3, 0x80, // Clock divider
		0xA4,
		0xAF,
	)
}

// Update implements gds.Controller.
func (c *Controller) Update(d *gds.Device) error {
	var err error
	if c.depth == 1 {
		err = c.update1(d)
	} else {
		err = c.update4(d)
	}
	if err != nil {
		return err
	}
	c.shadow.Done()
	return nil
}

// update4 sends every page holding a change, whole lines at a time.
func (c *Controller) update4(d *gds.Device) error {
	bus := d.Bus()
	fb := d.Framebuffer()
	line := d.Width() / 2
	page := c.lines * line
	burst := gds.NewBurst(bus, c.scratch, nil)
	column := false
	for r := 0; r < d.Height(); r += c.lines {
		lo := r * line
		if !c.shadow.Changed(fb, lo, lo+page) {
			continue
		}
		if !column {
			if err := gds.Commands(bus, 0x15, 0, byte(line-1)); err != nil {
				return err
			}
			column = true
		}
		if err := gds.Commands(bus, 0x75, byte(r), byte(r+c.lines-1)); err != nil {
			return err
		}
		if err := burst.Write(c.shadow.Buf[lo : lo+page]); err != nil {
			return err
		}
		if err := burst.Flush(); err != nil {
			return err
		}
	}
	return nil
}

// update1 sends the changed bytes of every row, like the SSD1306 does per
// page.
func (c *Controller) update1(d *gds.Device) error {
	bus := d.Bus()
	fb := d.Framebuffer()
	w, h := d.Width()/8, d.Height()
	var win gds.Window
	next := -1
	for r := 0; r < h; r++ {
		lo := r * w
		first, last := c.shadow.Span(fb, lo, lo+w)
		if first < 0 {
			continue
		}
		first, last, kept := win.Reuse(first, last, ColumnTolerance)
		if !kept {
			if err := gds.Commands(bus, 0x15, byte(first), byte(last)); err != nil {
				return err
			}
		}
		if r != next {
			if err := gds.Commands(bus, 0x75, byte(r), byte(h-1)); err != nil {
				return err
			}
		}
		next = r + 1
		if err := bus.WriteData(c.shadow.Buf[lo+first : lo+last+1]); err != nil {
			return err
		}
	}
	return nil
}

// SetLayout implements gds.Layouter. HFlip remaps columns and nibbles,
// VFlip remaps COM lines. On SSD1326 bit 4 selects the monochrome mode so
// VFlip is not available.
func (c *Controller) SetLayout(d *gds.Device, l gds.Layout) error {
	c.remap &^= remapColumn | remapNibble
	if l.HFlip {
		c.remap |= remapColumn | remapNibble
	}
	if c.model == SSD1327 {
		c.remap &^= remapCOM
		if l.VFlip {
			c.remap |= remapCOM
		}
	} else if l.VFlip {
		d.Logger().Warn("ssd132x: VFlip not supported on SSD1326")
	}
	return gds.Commands(d.Bus(), 0xA0, c.remap)
}

// SetContrast implements gds.Contraster.
func (c *Controller) SetContrast(d *gds.Device, level uint8) error {
	return gds.Commands(d.Bus(), 0x81, level)
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
