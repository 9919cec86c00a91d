package gds

import (
	"errors"
	"fmt"
	"strconv"
	"strings"

	"periph.io/x/conn/v3/physic"
)

// Config is a parsed display configuration string such as
//
//	SPI,driver=SSD1327:4,width=128,height=128,cs=18,speed=16000000,rst=25,HFlip
//
// Entries are comma separated. Bare words select the bus (SPI, I2C) or set
// a layout flag (HFlip, VFlip, Rotate). Keys are case-insensitive. Pins that
// are not given are -1.
type Config struct {
	Interface Interface
	// Driver is the controller name, upper case, without its ":N" suffix.
	Driver string
	// Depth is the ":N" suffix of the driver, 0 when absent.
	Depth int

	Width, Height int
	Address       uint16
	Speed         physic.Frequency

	CS, RST, DC, Backlight, Ready int

	Layout Layout
	// Params holds every key=value entry, keys lower cased.
	Params map[string]string
}

// ParseConfig parses s.
func ParseConfig(s string) (Config, error) {
	cfg := Config{CS: -1, RST: -1, DC: -1, Backlight: -1, Ready: -1, Params: map[string]string{}}
	for _, tok := range strings.Split(s, ",") {
		tok = strings.TrimSpace(tok)
		if tok == "" {
			continue
		}
		k, v, kv := strings.Cut(tok, "=")
		if !kv {
			switch strings.ToLower(tok) {
			case "spi":
				cfg.Interface = SPI
			case "i2c":
				cfg.Interface = I2C
			case "hflip":
				cfg.Layout.HFlip = true
			case "vflip":
				cfg.Layout.VFlip = true
			case "rotate":
				cfg.Layout.Rotate = true
			default:
				return cfg, fmt.Errorf("gds: config: unknown flag %q", tok)
			}
			continue
		}
		k, v = strings.ToLower(strings.TrimSpace(k)), strings.TrimSpace(v)
		cfg.Params[k] = v
		var err error
		switch k {
		case "driver":
			name, depth, ok := strings.Cut(v, ":")
			cfg.Driver = strings.ToUpper(name)
			if ok {
				cfg.Depth, err = strconv.Atoi(depth)
			}
		case "width":
			cfg.Width, err = strconv.Atoi(v)
		case "height":
			cfg.Height, err = strconv.Atoi(v)
		case "address":
			var a uint64
			a, err = strconv.ParseUint(v, 0, 16)
			cfg.Address = uint16(a)
		case "speed":
			var hz int64
			hz, err = strconv.ParseInt(v, 10, 64)
			cfg.Speed = physic.Frequency(hz) * physic.Hertz
		case "cs":
			cfg.CS, err = strconv.Atoi(v)
		case "rst":
			cfg.RST, err = strconv.Atoi(v)
		case "dc":
			cfg.DC, err = strconv.Atoi(v)
		case "back", "backlight":
			cfg.Backlight, err = strconv.Atoi(v)
		case "ready":
			cfg.Ready, err = strconv.Atoi(v)
		}
		if err != nil {
			return cfg, fmt.Errorf("gds: config: %s: %w", k, err)
		}
	}
	if cfg.Driver == "" {
		return cfg, errors.New("gds: config: missing driver")
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return cfg, fmt.Errorf("gds: config: invalid size %dx%d", cfg.Width, cfg.Height)
	}
	return cfg, nil
}

// Opts returns the Device options carried by the configuration. Pins are
// left to the caller.
func (c Config) Opts() Opts {
	return Opts{W: c.Width, H: c.Height, Layout: c.Layout}
}
