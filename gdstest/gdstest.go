// Package gdstest provides fakes to test gds devices and controllers
// without hardware.
package gdstest

import (
	"bytes"
	"errors"
	"fmt"

	"github.com/flavioheleno/gds"
)

// ErrInjected is returned by a Bus once FailAfter writes went through.
var ErrInjected = errors.New("gdstest: injected bus failure")

// Op is one recorded bus write.
type Op struct {
	Cmd  bool
	Data []byte
}

func (o Op) String() string {
	if o.Cmd {
		return fmt.Sprintf("C %#02x", o.Data[0])
	}
	return fmt.Sprintf("D % x", o.Data)
}

// Bus records every write. The zero value is an SPI bus.
type Bus struct {
	Kind gds.Interface
	Ops  []Op
	// FailAfter, when positive, makes every write after the first FailAfter
	// ones return ErrInjected.
	FailAfter int

	writes int
}

// WriteCommand implements gds.Bus.
func (b *Bus) WriteCommand(c byte) error {
	if err := b.tick(); err != nil {
		return err
	}
	b.Ops = append(b.Ops, Op{Cmd: true, Data: []byte{c}})
	return nil
}

// WriteData implements gds.Bus.
func (b *Bus) WriteData(p []byte) error {
	if err := b.tick(); err != nil {
		return err
	}
	b.Ops = append(b.Ops, Op{Data: bytes.Clone(p)})
	return nil
}

// Interface implements gds.Bus.
func (b *Bus) Interface() gds.Interface { return b.Kind }

func (b *Bus) tick() error {
	b.writes++
	if b.FailAfter > 0 && b.writes > b.FailAfter {
		return ErrInjected
	}
	return nil
}

// Reset forgets the recorded writes and the failure counter.
func (b *Bus) Reset() {
	b.Ops = nil
	b.writes = 0
	b.FailAfter = 0
}

// Commands returns every command byte, in order.
func (b *Bus) Commands() []byte {
	var out []byte
	for _, o := range b.Ops {
		if o.Cmd {
			out = append(out, o.Data[0])
		}
	}
	return out
}

// DataWrites returns the data blocks, in order.
func (b *Bus) DataWrites() [][]byte {
	var out [][]byte
	for _, o := range b.Ops {
		if !o.Cmd {
			out = append(out, o.Data)
		}
	}
	return out
}

// Data returns every data byte, concatenated.
func (b *Bus) Data() []byte {
	return bytes.Join(b.DataWrites(), nil)
}

// Count returns the number of commands matching cmd.
func (b *Bus) Count(cmd byte) int {
	n := 0
	for _, o := range b.Ops {
		if o.Cmd && o.Data[0] == cmd {
			n++
		}
	}
	return n
}

// Args returns the data written right after each occurrence of cmd, up to
// the next command. It is empty for a command without data.
func (b *Bus) Args(cmd byte) [][]byte {
	var out [][]byte
	for i, o := range b.Ops {
		if !o.Cmd || o.Data[0] != cmd {
			continue
		}
		var args []byte
		for _, n := range b.Ops[i+1:] {
			if n.Cmd {
				break
			}
			args = append(args, n.Data...)
		}
		out = append(out, args)
	}
	return out
}

// Controller is a full frame controller: every Update that sees a change
// sends the whole framebuffer as one data block after command 0x5C.
type Controller struct {
	Fmt gds.Format
	// Shadow enables diffing against a shadow buffer.
	Shadow bool
	// InitErr is returned by Init.
	InitErr error
	// Scratch is the size of an extra buffer taken from the DMA pool.
	Scratch int

	Inits, Updates int
	Layouts        []gds.Layout
	shadow         *gds.Shadow
}

func (c *Controller) String() string { return "fake" }

// Format implements gds.Controller.
func (c *Controller) Format() gds.Format { return c.Fmt }

// Init implements gds.Controller.
func (c *Controller) Init(d *gds.Device) error {
	c.Inits++
	if c.Shadow {
		s, err := gds.AllocShadow(d, d.DMAPool(), 0xFF)
		if err != nil {
			return err
		}
		c.shadow = s
	}
	if c.Scratch > 0 {
		if _, err := d.Alloc(c.Scratch, gds.PoolDMA); err != nil {
			return err
		}
	}
	if c.InitErr != nil {
		return c.InitErr
	}
	return d.Bus().WriteCommand(0xAF)
}

// Update implements gds.Controller.
func (c *Controller) Update(d *gds.Device) error {
	c.Updates++
	fb := d.Framebuffer()
	if c.shadow != nil {
		changed := c.shadow.Changed(fb, 0, len(fb))
		c.shadow.Done()
		if !changed {
			return nil
		}
	}
	if err := d.Bus().WriteCommand(0x5C); err != nil {
		return err
	}
	return d.Bus().WriteData(fb)
}

// SetLayout implements gds.Layouter.
func (c *Controller) SetLayout(d *gds.Device, l gds.Layout) error {
	c.Layouts = append(c.Layouts, l)
	return d.Bus().WriteCommand(0xA0)
}

// Invalidate implements gds.Invalidator.
func (c *Controller) Invalidate() {
	if c.shadow != nil {
		c.shadow.Invalidate()
	}
}

// ShadowBuf returns the shadow buffer, nil without one.
func (c *Controller) ShadowBuf() []byte {
	if c.shadow == nil {
		return nil
	}
	return c.shadow.Buf
}
