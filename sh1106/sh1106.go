// Package sh1106 drives SH1106 monochrome OLED controllers.
//
// The SH1106 has a 132 columns RAM usually wired to a 128 columns panel,
// centered, and only supports page addressing.
package sh1106

import (
	"fmt"
	"strings"

	"github.com/flavioheleno/gds"
)

// RAMWidth is the number of columns of the controller RAM.
const RAMWidth = 132

// Controller is the SH1106 half of a gds.Device.
type Controller struct {
	shadow *gds.Shadow
}

// New returns a ready 128x64 device, or the size in opts.
func New(bus gds.Bus, opts *gds.Opts) (*gds.Device, error) {
	o := gds.Opts{}
	if opts != nil {
		o = *opts
	}
	if o.W == 0 && o.H == 0 {
		o.W, o.H = 128, 64
	}
	return gds.New(bus, &Controller{}, &o)
}

// Detect returns a Controller when cfg names a SH1106.
func Detect(cfg gds.Config) (gds.Controller, bool) {
	if !strings.Contains(cfg.Driver, "SH1106") {
		return nil, false
	}
	return &Controller{}, true
}

func (c *Controller) String() string { return "SH1106" }

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format { return gds.FormatMono }

// Validate implements gds.Validator.
func (c *Controller) Validate(w, h int) error {
	if w > RAMWidth || h > 64 || h%8 != 0 {
		return fmt.Errorf("sh1106: unsupported size %dx%d", w, h)
	}
	return nil
}

// Init implements gds.Controller.
func (c *Controller) Init(d *gds.Device) error {
	s, err := gds.AllocShadow(d, d.DMAPool(), 0xFF)
	if err != nil {
		return err
	}
	c.shadow = s

	bus := d.Bus()
	if err := gds.Commands(bus,
		0xAE,       // Display OFF
		0xA5,       // Entire display ON
		0xAD, 0x8B, // DC-DC on
		0xDA, 0x10, // COM pins, alternative
		0xA8, byte(d.Height()-1),
		0xD3, 0x00,
		0x40,
	); err != nil {
		return err
	}
	if err := c.SetContrast(d, 0x7F); err != nil {
		return err
	}
	if err := c.SetLayout(d, d.Layout()); err != nil {
		return err
	}
	if err := gds.Commands(bus, 0xA6, 0xD5, 0x80, 0xA4, 0xAF); err != nil {
		return err
	}
	d.Logger().Info("sh1106: initialized", "width", d.Width(), "height", d.Height(), "offset", c.offset(d))
	return nil
}

func (c *Controller) offset(d *gds.Device) int {
	if d.Width() != RAMWidth {
		return 2
	}
	return 0
}

// Update implements gds.Controller. Every page with a change gets its own
// column and page selection followed by the changed bytes.
func (c *Controller) Update(d *gds.Device) error {
	bus := d.Bus()
	fb := d.Framebuffer()
	w := d.Width()
	off := c.offset(d)
	for p := 0; p < d.Height()/8; p++ {
		lo := p * w
		first, last := c.shadow.Span(fb, lo, lo+w)
		if first < 0 {
			continue
		}
		col := first + off
		if err := gds.Commands(bus, 0x10|byte(col>>4), byte(col&0x0F), 0xB0|byte(p)); err != nil {
			return err
		}
		if err := bus.WriteData(c.shadow.Buf[lo+first : lo+last+1]); err != nil {
			return err
		}
	}
	c.shadow.Done()
	return nil
}

// SetLayout implements gds.Layouter.
func (c *Controller) SetLayout(d *gds.Device, l gds.Layout) error {
	seg, com := byte(0xA0), byte(0xC0)
	if l.HFlip {
		seg = 0xA1
	}
	if l.VFlip {
		com = 0xC8
	}
	return gds.Commands(d.Bus(), seg, com)
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
