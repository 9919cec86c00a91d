// Package ssd1675 drives SSD1675 monochrome e-paper controllers over SPI.
//
// The panel RAM runs across the glass: the framebuffer stores 8 stacked
// pixels per byte, most significant bit on top, and the controller is set
// to scan it so that it lands upright. Every Update refreshes the whole
// panel and waits for the BUSY line to drop.
package ssd1675

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/flavioheleno/gds"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpioreg"
)

const (
	// ReadyTimeout bounds the wait for the BUSY line.
	ReadyTimeout = 4 * time.Second
	// ReadyPoll is the BUSY line polling period.
	ReadyPoll = 100 * time.Millisecond
	// BlindWait is the refresh time assumed without a BUSY line.
	BlindWait = 2 * time.Second
)

// sleep is replaced in tests.
var sleep = time.Sleep

// LUT is the full refresh waveform: 70 bytes of phases, then the gate and
// source voltages, dummy line period and gate line width.
var LUT = [76]byte{
	0x80, 0x60, 0x40, 0x00, 0x00, 0x00, 0x00, // BB
	0x10, 0x60, 0x20, 0x00, 0x00, 0x00, 0x00, // BW
	0x80, 0x60, 0x40, 0x00, 0x00, 0x00, 0x00, // WB
	0x10, 0x60, 0x20, 0x00, 0x00, 0x00, 0x00, // WW
	0x00, 0x00, 0x00, 0x00, 0x00, 0x00, 0x00, // VCOM
	0x03, 0x03, 0x00, 0x00, 0x02,
	0x09, 0x09, 0x00, 0x00, 0x02,
	0x03, 0x03, 0x00, 0x00, 0x02,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x00, 0x00, 0x00, 0x00, 0x00,
	0x15, 0x41, 0xA8, 0x32, 0x30, 0x0A,
}

// Controller is the SSD1675 half of a gds.Device.
type Controller struct {
	ready   gpio.PinIn
	scratch []byte
}

// NewController returns a controller polling ready, which may be nil.
func NewController(ready gpio.PinIn) *Controller {
	return &Controller{ready: ready}
}

// New returns a ready device. opts must carry the panel size.
func New(bus gds.Bus, ready gpio.PinIn, opts *gds.Opts) (*gds.Device, error) {
	return gds.New(bus, NewController(ready), opts)
}

// Detect returns a Controller when cfg names a SSD1675. The BUSY pin is
// looked up in the gpio registry from the "ready" entry.
func Detect(cfg gds.Config) (gds.Controller, bool) {
	if !strings.Contains(cfg.Driver, "SSD1675") {
		return nil, false
	}
	var ready gpio.PinIn
	if cfg.Ready >= 0 {
		if p := gpioreg.ByName(strconv.Itoa(cfg.Ready)); p != nil {
			ready = p
		}
	}
	return NewController(ready), true
}

func (c *Controller) String() string { return "SSD1675" }

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format { return gds.FormatMonoMSB }

// FramebufferSize implements gds.Sizer. The height is padded to whole bytes.
func (c *Controller) FramebufferSize(w, h int) int {
	return w * ((h + 7) / 8)
}

// WaitReady blocks until the panel reports it is idle. Without a BUSY line
// it waits BlindWait. A panel still busy after ReadyTimeout is logged and
// otherwise ignored.
func (c *Controller) WaitReady(d *gds.Device) {
	if c.ready == nil {
		sleep(BlindWait)
		return
	}
	for left := ReadyTimeout; c.ready.Read() == gpio.High; left -= ReadyPoll {
		if left <= 0 {
			d.Logger().Warn("ssd1675: panel still busy", "timeout", ReadyTimeout)
			return
		}
		sleep(ReadyPoll)
	}
}

// Init implements gds.Controller.
func (c *Controller) Init(d *gds.Device) error {
	if c.ready != nil {
		if err := c.ready.In(gpio.PullUp, gpio.NoEdge); err != nil {
			return fmt.Errorf("ready pin: %w", err)
		}
	}
	var err error
	if c.scratch, err = d.Alloc(min(len(d.Framebuffer()), gds.WindowBudget), d.DMAPool()); err != nil {
		return err
	}
	d.Logger().Info("ssd1675: initialized", "ready", c.ready != nil, "bytes", len(d.Framebuffer()))

	bus := d.Bus()
	sleep(BlindWait)
	if err := bus.WriteCommand(0x12); err != nil { // soft reset
		return err
	}
	c.WaitReady(d)

	w := d.Width() - 1
	rows := (d.Height()+7)/8 - 1
	steps := []struct {
		cmd  byte
		args []byte
	}{
		{0x74, []byte{0x54}}, // analog block
		{0x7E, []byte{0x3B}}, // digital block
		{0x3C, []byte{0x03}}, // border
		{0x2C, []byte{0x55}}, // VCOM
		{0x03, LUT[70:71]},   // gate voltage
		{0x04, LUT[71:74]},   // source voltage
		{0x3A, LUT[74:75]},   // dummy line
		{0x3B, LUT[75:76]},   // gate line width
		{0x32, LUT[:70]},
		{0x01, []byte{byte(w), byte(w >> 8), 0x00}}, // gate lines
		{0x11, []byte{0x05}},                        // X increment, Y decrement
		{0x44, []byte{0x00, byte(rows)}},
		{0x4E, []byte{0x00}},
		{0x45, []byte{byte(w), byte(w >> 8), 0x00, 0x00}},
		{0x4F, []byte{byte(w), byte(w >> 8)}},
	}
	for _, s := range steps {
		if err := gds.CommandData(bus, s.cmd, s.args...); err != nil {
			return err
		}
	}
	c.WaitReady(d)
	return nil
}

// Update implements gds.Controller. The panel stores white as 1.
func (c *Controller) Update(d *gds.Device) error {
	bus := d.Bus()
	if err := bus.WriteCommand(0x24); err != nil {
		return err
	}
	burst := gds.NewBurst(bus, c.scratch, gds.Invert)
	if err := burst.Write(d.Framebuffer()); err != nil {
		return err
	}
	if err := burst.Flush(); err != nil {
		return err
	}
	if err := gds.CommandData(bus, 0x22, 0xC7); err != nil {
		return err
	}
	if err := bus.WriteCommand(0x20); err != nil {
		return err
	}
	c.WaitReady(d)
	return nil
}
