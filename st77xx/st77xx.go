// Package st77xx drives ST7735 and ST7789 color TFT controllers over SPI.
//
// Pixels are 16 bits RGB565 by default or 18 bits RGB666 (":18"), stored on
// 3 bytes. Updates grow a rectangular window over consecutive changed rows
// until it is worth a transfer, then send it through a DMA scratch buffer.
package st77xx

import (
	"fmt"
	"strings"

	"github.com/flavioheleno/gds"
)

// Model is the controller variant.
type Model uint8

const (
	ST7735 Model = iota
	ST7789
)

func (m Model) String() string {
	if m == ST7789 {
		return "ST7789"
	}
	return "ST7735"
}

// ST7789RAMHeight is the number of lines of the ST7789 RAM. Shorter panels
// need an offset once flipped.
const ST7789RAMHeight = 320

// Commands.
const (
	cmdSleepOut = 0x11
	cmdInvOff   = 0x20
	cmdInvOn    = 0x21
	cmdDispOff  = 0x28
	cmdDispOn   = 0x29
	cmdCASET    = 0x2A
	cmdRASET    = 0x2B
	cmdRAMWR    = 0x2C
	cmdMADCTL   = 0x36
	cmdCOLMOD   = 0x3A
	cmdWRDISBV  = 0x51
)

// MADCTL bits.
const (
	madMY  = 1 << 7
	madMX  = 1 << 6
	madMV  = 1 << 5
	madBGR = 1 << 3
)

// Opts selects the variant.
type Opts struct {
	Model Model
	// Depth is 16 (default) or 18.
	Depth int
	// WindowBudget is the transfer size a window must reach before it is
	// sent. Zero means gds.WindowBudget.
	WindowBudget int
}

// Controller is the ST77xx half of a gds.Device.
type Controller struct {
	model  Model
	depth  int
	budget int

	madctl  byte
	offW    int
	offH    int
	lines   int
	shadow  *gds.Shadow
	scratch []byte
}

// NewController validates o.
func NewController(o Opts) (*Controller, error) {
	if o.Depth == 0 {
		o.Depth = 16
	}
	if o.Depth != 16 && o.Depth != 18 {
		return nil, fmt.Errorf("st77xx: unsupported depth %d", o.Depth)
	}
	if o.WindowBudget <= 0 {
		o.WindowBudget = gds.WindowBudget
	}
	return &Controller{model: o.Model, depth: o.Depth, budget: o.WindowBudget}, nil
}

// New returns a ready device. The default size is 128x160 for ST7735 and
// 240x320 for ST7789.
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
		g.W, g.H = 128, 160
		if o.Model == ST7789 {
			g.W, g.H = 240, 320
		}
	}
	return gds.New(bus, c, &g)
}

// Detect returns a Controller when cfg names a ST7735 or ST7789. A ":18"
// suffix selects RGB666.
func Detect(cfg gds.Config) (gds.Controller, bool) {
	var m Model
	switch {
	case strings.Contains(cfg.Driver, "ST7735"):
		m = ST7735
	case strings.Contains(cfg.Driver, "ST7789"):
		m = ST7789
	default:
		return nil, false
	}
	depth := 16
	if cfg.Depth == 18 {
		depth = 18
	}
	c, err := NewController(Opts{Model: m, Depth: depth})
	if err != nil {
		return nil, false
	}
	return c, true
}

func (c *Controller) String() string {
	if c.depth == 18 {
		return c.model.String() + ":18"
	}
	return c.model.String()
}

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format {
	if c.depth == 18 {
		return gds.FormatRGB666
	}
	return gds.FormatRGB565
}

func (c *Controller) bytesPerPixel() int {
	if c.depth == 18 {
		return 3
	}
	return 2
}

// Validate implements gds.Validator.
func (c *Controller) Validate(w, h int) error {
	if w > 320 || h > 320 || w%2 != 0 {
		return fmt.Errorf("st77xx: unsupported size %dx%d (even width, up to 320x320)", w, h)
	}
	return nil
}

// Offset returns the RAM offset of the panel.
func (c *Controller) Offset() (w, h int) { return c.offW, c.offH }

// Init implements gds.Controller.
func (c *Controller) Init(d *gds.Device) error {
	bpp := c.bytesPerPixel()
	c.lines = min(gds.MaxPageLines, c.budget/(d.Width()*bpp))

	var err error
	if c.shadow, err = gds.AllocShadow(d, gds.PoolGeneral, 0xFF); err != nil {
		return err
	}
	if c.scratch, err = d.Alloc((c.lines+1)*d.Width()*bpp, gds.PoolDMA); err != nil {
		return err
	}
	d.Logger().Info("st77xx: initialized", "model", c.model.String(), "depth", c.depth, "page", c.lines, "scratch", len(c.scratch))

	bus := d.Bus()
	if err := bus.WriteCommand(cmdSleepOut); err != nil {
		return err
	}
	c.madctl = madBGR
	if err := gds.CommandData(bus, cmdMADCTL, c.madctl); err != nil {
		return err
	}
	if err := c.contrast(d, 0x7F); err != nil {
		return err
	}
	if err := c.SetLayout(d, d.Layout()); err != nil {
		return err
	}
	colmod := byte(0x55)
	switch {
	case c.model == ST7789 && c.depth == 18:
		colmod = 0x66
	case c.model == ST7735 && c.depth == 18:
		colmod = 0x06
	case c.model == ST7735:
		colmod = 0x05
	}
	if err := gds.CommandData(bus, cmdCOLMOD, colmod); err != nil {
		return err
	}
	inv := byte(cmdInvOn)
	if c.model == ST7735 {
		inv = cmdInvOff
	}
	return gds.Commands(bus, inv, cmdDispOn)
}

// windowBytes is the transfer size of a window of cols compare units by
// rows lines.
func (c *Controller) windowBytes(cols, rows int) int {
	if c.depth == 18 {
		// 2 bytes units, 3 bytes pixels.
		return (cols*2 + 2) / 3 * rows * 3
	}
	return cols * rows * 4
}

// Update implements gds.Controller. Rows are compared in units of 4 bytes
// (2 bytes at 18 bits). Changed units widen the pending window, which is
// sent once its size reaches the budget or the last row is scanned.
func (c *Controller) Update(d *gds.Device) error {
	fb := d.Framebuffer()
	w, h := d.Width(), d.Height()
	bpp := c.bytesPerPixel()
	line := w * bpp
	unit := 4
	if c.depth == 18 {
		unit = 2
	}
	units := line / unit
	scratch := c.scratch[:min(len(c.scratch), c.budget)]

	firstCol, lastCol, firstRow, lastRow := units, 0, -1, 0
	for r := 0; r < h; r++ {
		if first, last := c.shadow.Span(fb, r*line, (r+1)*line); first >= 0 {
			firstCol = min(firstCol, first/unit)
			lastCol = max(lastCol, last/unit)
			if firstRow < 0 {
				firstRow = r
			}
			lastRow = r
		}
		if firstRow < 0 || (c.windowBytes(lastCol-firstCol+1, r-firstRow+1) < c.budget && r != h-1) {
			continue
		}
		var x0, x1 int
		if c.depth == 18 {
			x0, x1 = firstCol*2/3, (lastCol*2+1)/3
		} else {
			x0, x1 = firstCol*2, lastCol*2+1
		}
		if err := c.sendWindow(d, scratch, x0, x1, firstRow, lastRow); err != nil {
			return err
		}
		firstCol, lastCol, firstRow = units, 0, -1
	}
	c.shadow.Done()
	return nil
}

// sendWindow programs the window (x0, y0)-(x1, y1) and streams it from the
// shadow.
func (c *Controller) sendWindow(d *gds.Device, scratch []byte, x0, x1, y0, y1 int) error {
	bus := d.Bus()
	if err := gds.CommandData(bus, cmdRASET, bounds(y0+c.offH, y1+c.offH)...); err != nil {
		return err
	}
	if err := gds.CommandData(bus, cmdCASET, bounds(x0+c.offW, x1+c.offW)...); err != nil {
		return err
	}
	if err := bus.WriteCommand(cmdRAMWR); err != nil {
		return err
	}
	bpp := c.bytesPerPixel()
	chunk := (x1 - x0 + 1) * bpp
	burst := gds.NewBurst(bus, scratch, nil)
	for y := y0; y <= y1; y++ {
		i := (y*d.Width() + x0) * bpp
		if err := burst.Write(c.shadow.Buf[i : i+chunk]); err != nil {
			return err
		}
	}
	return burst.Flush()
}

// bounds encodes a start and end address as two big endian words.
func bounds(start, end int) []byte {
	return []byte{byte(start >> 8), byte(start), byte(end >> 8), byte(end)}
}

// SetLayout implements gds.Layouter. On ST7789 the RAM offset follows the
// flip so the panel stays anchored.
func (c *Controller) SetLayout(d *gds.Device, l gds.Layout) error {
	c.madctl &^= madMY | madMX | madMV
	if l.HFlip {
		c.madctl |= madMY
	}
	if l.VFlip {
		c.madctl |= madMX
	}
	if l.Rotate {
		c.madctl |= madMV
	}
	if err := gds.CommandData(d.Bus(), cmdMADCTL, c.madctl); err != nil {
		return err
	}
	if c.model == ST7789 {
		c.offW, c.offH = 0, 0
		if l.HFlip {
			if l.Rotate {
				c.offW = ST7789RAMHeight - d.Width()
			} else {
				c.offH = ST7789RAMHeight - d.Height()
			}
		}
	}
	return nil
}

// contrast drives the ST7789 brightness register and the backlight.
func (c *Controller) contrast(d *gds.Device, level uint8) error {
	if c.model == ST7789 {
		if err := gds.CommandData(d.Bus(), cmdWRDISBV, level); err != nil {
			return err
		}
	}
	return d.SetBacklight(level)
}

// SetContrast implements gds.Contraster.
func (c *Controller) SetContrast(d *gds.Device, level uint8) error {
	return c.contrast(d, level)
}

// DisplayOn implements gds.Switcher.
func (c *Controller) DisplayOn(d *gds.Device) error { return d.Bus().WriteCommand(cmdDispOn) }

// DisplayOff implements gds.Switcher.
func (c *Controller) DisplayOff(d *gds.Device) error { return d.Bus().WriteCommand(cmdDispOff) }

// Invalidate implements gds.Invalidator.
func (c *Controller) Invalidate() {
	if c.shadow != nil {
		c.shadow.Invalidate()
	}
}
