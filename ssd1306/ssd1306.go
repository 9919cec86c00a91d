// Package ssd1306 drives SSD1306 monochrome OLED controllers over SPI or I²C.
//
// The framebuffer uses vertical framing: one byte holds 8 stacked pixels of
// a column, least significant bit on top. Updates only send the changed
// columns of each 8 rows page.
package ssd1306

import (
	"fmt"
	"strings"

	"github.com/flavioheleno/gds"
)

// ColumnTolerance is how far, in columns, a change may sit inside the last
// programmed column window before the window is reprogrammed.
const ColumnTolerance = 4

// Controller is the SSD1306 half of a gds.Device.
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

// Detect returns a Controller when cfg names a SSD1306.
func Detect(cfg gds.Config) (gds.Controller, bool) {
	if !strings.Contains(cfg.Driver, "SSD1306") {
		return nil, false
	}
	return &Controller{}, true
}

func (c *Controller) String() string { return "SSD1306" }

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format { return gds.FormatMono }

// Validate implements gds.Validator.
func (c *Controller) Validate(w, h int) error {
	if w > 128 || h > 64 || h%8 != 0 {
		return fmt.Errorf("ssd1306: unsupported size %dx%d (up to 128x64, height multiple of 8)", w, h)
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

	h := d.Height()
	// COM pins: alternative configuration on 64 rows panels, no remap.
	com := byte(0x02)
	if h == 64 {
		com |= 0x10
	}
	bus := d.Bus()
	if err := gds.Commands(bus,
		0xAE,       // Display OFF
		0xA5,       // Entire display ON, ignoring RAM
		0x8D, 0x14, // Charge pump
		0xDA, com, // COM pins
		0xA8, byte(h-1), // MUX ratio
		0xD3, 0x00, // Display offset
		0x40, // Start line
	); err != nil {
		return err
	}
	if err := c.SetContrast(d, 0x7F); err != nil {
		return err
	}
	if err := c.SetLayout(d, d.Layout()); err != nil {
		return err
	}
	if err := gds.Commands(bus,
		0xA6,       // Normal display
		0xD5, 0x80, // Clock divider
		0x20, 0x00, // Horizontal addressing
		0xA4, // Resume to RAM content
		0xAF, // Display ON
	); err != nil {
		return err
	}
	d.Logger().Info("ssd1306: initialized", "width", d.Width(), "height", h, "bus", bus.Interface().String())
	return nil
}

// Update implements gds.Controller. Each page sends its changed columns;
// the column window is kept when close enough and the page is only selected
// when auto-increment does not already point to it.
func (c *Controller) Update(d *gds.Device) error {
	bus := d.Bus()
	fb := d.Framebuffer()
	w, pages := d.Width(), d.Height()/8
	var win gds.Window
	next := -1
	for p := 0; p < pages; p++ {
		lo := p * w
		first, last := c.shadow.Span(fb, lo, lo+w)
		if first < 0 {
			continue
		}
		first, last, kept := win.Reuse(first, last, ColumnTolerance)
		if !kept {
			if err := gds.Commands(bus, 0x21, byte(first), byte(last)); err != nil {
				return err
			}
		}
		if p != next {
			if err := gds.Commands(bus, 0x22, byte(p), byte(pages-1)); err != nil {
				return err
			}
		}
		next = p + 1
		if err := bus.WriteData(c.shadow.Buf[lo+first : lo+last+1]); err != nil {
			return err
		}
	}
	c.shadow.Done()
	return nil
}

// SetLayout implements gds.Layouter. Rotation is not supported.
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
