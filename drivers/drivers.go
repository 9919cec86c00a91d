// Package drivers selects a display controller from a gds.Config.
package drivers

import (
	"fmt"

	"github.com/flavioheleno/gds"
	"github.com/flavioheleno/gds/sh1106"
	"github.com/flavioheleno/gds/ssd1306"
	"github.com/flavioheleno/gds/ssd132x"
	"github.com/flavioheleno/gds/ssd1322"
	"github.com/flavioheleno/gds/ssd1675"
	"github.com/flavioheleno/gds/st77xx"
)

// Detector recognizes its own driver name in cfg and returns a controller
// for it.
type Detector func(cfg gds.Config) (gds.Controller, bool)

// Detectors is tried in order by Detect.
var Detectors = []Detector{
	sh1106.Detect,
	ssd1306.Detect,
	ssd132x.Detect,
	ssd1322.Detect,
	st77xx.Detect,
	ssd1675.Detect,
}

// Detect returns the controller of the first detector matching cfg.
func Detect(cfg gds.Config) (gds.Controller, error) {
	for _, d := range Detectors {
		if c, ok := d(cfg); ok {
			return c, nil
		}
	}
	return nil, fmt.Errorf("drivers: unknown driver %q", cfg.Driver)
}

// Open detects the controller named by cfg and brings up a Device on bus.
// Geometry and layout come from cfg; the rest from opts, which may be nil.
func Open(cfg gds.Config, bus gds.Bus, opts *gds.Opts) (*gds.Device, error) {
	c, err := Detect(cfg)
	if err != nil {
		return nil, err
	}
	o := gds.Opts{}
	if opts != nil {
		o = *opts
	}
	o.W, o.H, o.Layout = cfg.Width, cfg.Height, cfg.Layout
	d, err := gds.New(bus, c, &o)
	if err != nil {
		return nil, err
	}
	d.Logger().Info("drivers: display ready", "driver", c.String(), "size", d.Bounds().Size(), "bus", bus.Interface().String())
	return d, nil
}
