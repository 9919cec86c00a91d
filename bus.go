package gds

import (
	"fmt"

	"periph.io/x/conn/v3"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/i2c"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/conn/v3/spi"
)

// Interface is the kind of bus a display is wired to.
type Interface uint8

const (
	SPI Interface = iota
	I2C
)

func (i Interface) String() string {
	if i == I2C {
		return "I2C"
	}
	return "SPI"
}

// Bus moves command and data bytes to a display controller.
type Bus interface {
	// WriteCommand sends one command byte.
	WriteCommand(c byte) error
	// WriteData sends a block of data bytes.
	WriteData(p []byte) error
	// Interface reports the bus kind.
	Interface() Interface
}

// SPIBus drives a 4-wire SPI display: the D/C pin selects command or data.
type SPIBus struct {
	c   conn.Conn
	dc  gpio.PinOut
	max int
}

// NewSPI connects to p at f in Mode0, 8 bits words. dc is the Data/Command
// pin. A zero f means 10MHz.
func NewSPI(p spi.Port, dc gpio.PinOut, f physic.Frequency) (*SPIBus, error) {
	if f == 0 {
		f = 10 * physic.MegaHertz
	}
	c, err := p.Connect(f, spi.Mode0, 8)
	if err != nil {
		return nil, fmt.Errorf("gds: spi connect: %w", err)
	}
	return NewSPIConn(c, dc), nil
}

// NewSPIConn wraps an already connected SPI conn.
func NewSPIConn(c conn.Conn, dc gpio.PinOut) *SPIBus {
	b := &SPIBus{c: c, dc: dc}
	if l, ok := c.(conn.Limits); ok {
		b.max = l.MaxTxSize()
	}
	return b
}

// WriteCommand implements Bus.
func (b *SPIBus) WriteCommand(c byte) error {
	if err := b.dc.Out(gpio.Low); err != nil {
		return err
	}
	return b.c.Tx([]byte{c}, nil)
}

// WriteData implements Bus. Blocks larger than the port's transfer limit are
// split.
func (b *SPIBus) WriteData(p []byte) error {
	if err := b.dc.Out(gpio.High); err != nil {
		return err
	}
	for len(p) > 0 {
		n := len(p)
		if b.max > 0 && n > b.max {
			n = b.max
		}
		if err := b.c.Tx(p[:n], nil); err != nil {
			return err
		}
		p = p[n:]
	}
	return nil
}

// Interface implements Bus.
func (b *SPIBus) Interface() Interface { return SPI }

func (b *SPIBus) String() string {
	return fmt.Sprintf("SPI(%s)", b.c)
}

// I2CBus drives a display over I²C. Every transfer starts with a control
// byte: 0x00 for a command, 0x40 for data.
type I2CBus struct {
	c conn.Conn
}

// DefaultI2CAddr is the usual address of SSD13xx modules.
const DefaultI2CAddr = 0x3C

// NewI2C returns a Bus talking to addr on b. A zero addr means
// DefaultI2CAddr.
func NewI2C(b i2c.Bus, addr uint16) *I2CBus {
	if addr == 0 {
		addr = DefaultI2CAddr
	}
	return &I2CBus{c: &i2c.Dev{Bus: b, Addr: addr}}
}

// WriteCommand implements Bus.
func (b *I2CBus) WriteCommand(c byte) error {
	return b.c.Tx([]byte{0x00, c}, nil)
}

// WriteData implements Bus.
func (b *I2CBus) WriteData(p []byte) error {
	buf := make([]byte, len(p)+1)
	buf[0] = 0x40
	copy(buf[1:], p)
	return b.c.Tx(buf, nil)
}

// Interface implements Bus.
func (b *I2CBus) Interface() Interface { return I2C }

func (b *I2CBus) String() string {
	return fmt.Sprintf("I2C(%s)", b.c)
}

// Commands sends every byte of cmds as its own command.
func Commands(b Bus, cmds ...byte) error {
	for _, c := range cmds {
		if err := b.WriteCommand(c); err != nil {
			return err
		}
	}
	return nil
}

// CommandData sends cmd followed by args as a data block.
func CommandData(b Bus, cmd byte, args ...byte) error {
	if err := b.WriteCommand(cmd); err != nil {
		return err
	}
	if len(args) == 0 {
		return nil
	}
	return b.WriteData(args)
}
