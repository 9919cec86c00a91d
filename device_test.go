package gds_test

import (
	"image"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"periph.io/x/conn/v3/gpio"
	"periph.io/x/conn/v3/gpio/gpiotest"
	"periph.io/x/conn/v3/physic"
	"periph.io/x/devices/v3/ssd1306/image1bit"

	"github.com/flavioheleno/gds"
	"github.com/flavioheleno/gds/gdstest"
	"github.com/flavioheleno/gds/image4bit"
)

var quiet = slog.New(slog.NewTextHandler(io.Discard, nil))

func newDevice(t *testing.T, f gds.Format, w, h int) (*gds.Device, *gdstest.Bus, *gdstest.Controller) {
	t.Helper()
	bus := &gdstest.Bus{}
	c := &gdstest.Controller{Fmt: f, Shadow: true}
	d, err := gds.New(bus, c, &gds.Opts{W: w, H: h, Logger: quiet})
	require.NoError(t, err)
	return d, bus, c
}

func TestNewSendsFirstFrame(t *testing.T) {
	d, bus, c := newDevice(t, gds.FormatMono, 128, 64)
	assert.Equal(t, 1, c.Inits)
	assert.Equal(t, 1, c.Updates)
	assert.Equal(t, []byte{0xAF, 0x5C}, bus.Commands())
	assert.Len(t, bus.Args(0x5C)[0], 1024)
	assert.False(t, d.Dirty())
	assert.Equal(t, image.Rect(0, 0, 128, 64), d.Bounds())
	assert.Equal(t, 1, d.Depth())
	assert.Equal(t, gds.Mono, d.Mode())
	assert.Equal(t, "gds.Device{fake, 128x64, SPI}", d.String())
}

func TestNewRejects(t *testing.T) {
	_, err := gds.New(&gdstest.Bus{}, &gdstest.Controller{Fmt: gds.FormatMono}, &gds.Opts{W: 0, H: 64})
	assert.Error(t, err)
	_, err = gds.New(&gdstest.Bus{}, &gdstest.Controller{Fmt: gds.Format{Depth: 3}}, &gds.Opts{W: 8, H: 8})
	assert.Error(t, err)
	_, err = gds.New(nil, &gdstest.Controller{Fmt: gds.FormatMono}, &gds.Opts{W: 8, H: 8})
	assert.Error(t, err)
}

func TestUpdateIsGatedByDirty(t *testing.T) {
	d, bus, c := newDevice(t, gds.FormatMono, 128, 64)
	bus.Reset()

	require.NoError(t, d.Update())
	assert.Equal(t, 1, c.Updates, "clean device must not reach the controller")
	assert.Empty(t, bus.Ops)

	d.MarkDirty()
	require.NoError(t, d.Update())
	assert.Equal(t, 2, c.Updates)
	assert.Empty(t, bus.Ops, "unchanged frame must not be sent")
	assert.False(t, d.Dirty())
}

func TestShadowFollowsFramebuffer(t *testing.T) {
	d, _, c := newDevice(t, gds.FormatGray4, 64, 32)
	d.DrawLine(0, 0, 63, 31, 0x0F)
	d.DrawBox(10, 10, 20, 20, 0x07, true)
	require.NoError(t, d.Update())
	assert.Equal(t, d.Framebuffer(), c.ShadowBuf())
}

func TestLayoutForcesFullFrame(t *testing.T) {
	d, bus, c := newDevice(t, gds.FormatMono, 128, 64)
	bus.Reset()

	require.NoError(t, d.SetLayout(gds.Layout{HFlip: true}))
	assert.Equal(t, []gds.Layout{{HFlip: true}}, c.Layouts)
	assert.Equal(t, gds.Layout{HFlip: true}, d.Layout())
	assert.True(t, d.Dirty())

	require.NoError(t, d.Update())
	assert.Equal(t, []byte{0xA0, 0x5C}, bus.Commands())
}

func TestFailedUpdateRetransmits(t *testing.T) {
	d, bus, _ := newDevice(t, gds.FormatMono, 128, 64)
	bus.Reset()

	d.DrawPixel(1, 1, gds.White)
	bus.FailAfter = 1
	err := d.Update()
	require.ErrorIs(t, err, gdstest.ErrInjected)
	assert.True(t, d.Dirty())

	bus.Reset()
	require.NoError(t, d.Update())
	assert.Equal(t, []byte{0x5C}, bus.Commands())
	assert.Len(t, bus.DataWrites()[0], 1024)
}

func TestAllocationFailureReleasesEverything(t *testing.T) {
	tests := []struct {
		name string
		heap *gds.Heap
		ctrl *gdstest.Controller
		want error
	}{
		{
			name: "framebuffer",
			heap: &gds.Heap{GeneralLimit: 512},
			ctrl: &gdstest.Controller{Fmt: gds.FormatMono},
			want: gds.ErrNoMemory,
		},
		{
			name: "shadow",
			heap: &gds.Heap{DMALimit: 512},
			ctrl: &gdstest.Controller{Fmt: gds.FormatMono, Shadow: true},
			want: gds.ErrNoMemory,
		},
		{
			name: "scratch",
			heap: &gds.Heap{DMALimit: 1500},
			ctrl: &gdstest.Controller{Fmt: gds.FormatMono, Shadow: true, Scratch: 1024},
			want: gds.ErrNoMemory,
		},
		{
			name: "register bring-up",
			heap: &gds.Heap{},
			ctrl: &gdstest.Controller{Fmt: gds.FormatMono, Shadow: true, InitErr: gdstest.ErrInjected},
			want: gdstest.ErrInjected,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			d, err := gds.New(&gdstest.Bus{}, tt.ctrl, &gds.Opts{W: 128, H: 64, Allocator: tt.heap, Logger: quiet})
			require.ErrorIs(t, err, tt.want)
			assert.Nil(t, d)
			assert.Zero(t, tt.heap.InUse(gds.PoolGeneral))
			assert.Zero(t, tt.heap.InUse(gds.PoolDMA))
		})
	}
}

func TestFirstUpdateFailureReleasesEverything(t *testing.T) {
	heap := &gds.Heap{}
	bus := &gdstest.Bus{FailAfter: 1}
	_, err := gds.New(bus, &gdstest.Controller{Fmt: gds.FormatMono, Shadow: true}, &gds.Opts{W: 128, H: 64, Allocator: heap, Logger: quiet})
	require.ErrorIs(t, err, gdstest.ErrInjected)
	assert.Zero(t, heap.InUse(gds.PoolGeneral))
	assert.Zero(t, heap.InUse(gds.PoolDMA))
}

func TestPlacement(t *testing.T) {
	tests := []struct {
		policy gds.AllocPolicy
		kind   gds.Interface
		want   gds.Pool
	}{
		{gds.AllocGeneral, gds.SPI, gds.PoolGeneral},
		{gds.AllocDMA, gds.I2C, gds.PoolDMA},
		{gds.AllocDMAIfSPI, gds.SPI, gds.PoolDMA},
		{gds.AllocDMAIfSPI, gds.I2C, gds.PoolGeneral},
	}
	for _, tt := range tests {
		heap := &gds.Heap{}
		d, err := gds.New(&gdstest.Bus{Kind: tt.kind}, &gdstest.Controller{Fmt: gds.FormatMono}, &gds.Opts{W: 64, H: 32, Alloc: tt.policy, Allocator: heap, Logger: quiet})
		require.NoError(t, err)
		assert.Equal(t, tt.want, d.Placement())
		assert.Equal(t, 256, heap.InUse(tt.want))
		require.NoError(t, d.Close())
		assert.Zero(t, heap.InUse(tt.want))
	}
}

func TestCloseAndHalt(t *testing.T) {
	d, _, _ := newDevice(t, gds.FormatMono, 32, 16)
	require.NoError(t, d.Halt())
	assert.True(t, d.Halted())
	assert.ErrorIs(t, d.Update(), gds.ErrHalted)
	_, err := d.Write(make([]byte, len(d.Framebuffer())))
	assert.ErrorIs(t, err, gds.ErrHalted)
	require.NoError(t, d.DisplayOn())
	assert.False(t, d.Halted())
	require.NoError(t, d.Close())
	assert.ErrorIs(t, d.Update(), gds.ErrNotReady)
}

func TestClosedDeviceIgnoresDrawing(t *testing.T) {
	d, _, _ := newDevice(t, gds.FormatGray4, 32, 16)
	d.DrawPixel(1, 1, 0x0F)
	require.NoError(t, d.Close())

	assert.NotPanics(t, func() {
		d.DrawPixel(1, 1, 0x0F)
		d.DrawPixelFast(2, 2, 0x0F)
		d.DrawLine(0, 0, 31, 15, 0x0F)
		d.DrawBox(0, 0, 10, 10, 0x0F, true)
		d.Clear(0x05)
		d.ClearWindow(0, 0, 4, 4, 0x05)
		d.Set(3, 3, image4bit.Gray4{Y: 9})
		d.DrawImage(image.NewGray(image.Rect(0, 0, 4, 4)), 0, 0, gds.FitLeft)
	})
	assert.Equal(t, gds.Black, d.Pixel(1, 1))
	r, g, b, _ := d.At(1, 1).RGBA()
	assert.Zero(t, r|g|b)
	assert.Nil(t, d.Framebuffer())

	assert.ErrorIs(t, d.DrawBitmapCBR(make([]byte, 64), 16, 16, gds.White), gds.ErrNotReady)
	assert.ErrorIs(t, d.DrawRGB(0, 0, 1, 1, []byte{1, 2, 3}), gds.ErrNotReady)
	assert.ErrorIs(t, d.DrawRGB16(0, 0, 1, 1, gds.RGB565, []uint16{1}), gds.ErrNotReady)
	_, err := d.Write(make([]byte, 256))
	assert.ErrorIs(t, err, gds.ErrNotReady)
	assert.ErrorIs(t, d.Draw(d.Bounds(), image.NewGray(d.Bounds()), image.Point{}), gds.ErrNotReady)
	_, err = d.TextLine(1, gds.AlignLeft, gds.TextUpdate, "x", gds.White)
	assert.ErrorIs(t, err, gds.ErrNotReady)
}

// fixedController drives a panel without orientation control.
type fixedController struct{ gds.Controller }

func TestSetLayoutWithoutLayouter(t *testing.T) {
	bus := &gdstest.Bus{}
	c := &gdstest.Controller{Fmt: gds.FormatMono}
	d, err := gds.New(bus, fixedController{c}, &gds.Opts{W: 32, H: 16, Layout: gds.Layout{VFlip: true}, Logger: quiet})
	require.NoError(t, err)
	bus.Reset()

	err = d.SetLayout(gds.Layout{HFlip: true})
	assert.ErrorIs(t, err, gds.ErrUnsupported)
	assert.Equal(t, gds.Layout{VFlip: true}, d.Layout(), "layout is kept")
	assert.False(t, d.Dirty())
	assert.Empty(t, c.Layouts)
	assert.Empty(t, bus.Ops)
}

func TestWrite(t *testing.T) {
	d, bus, _ := newDevice(t, gds.FormatGray4, 16, 4)
	bus.Reset()
	_, err := d.Write(make([]byte, 3))
	assert.ErrorIs(t, err, gds.ErrBufferSize)

	frame := make([]byte, 32)
	for i := range frame {
		frame[i] = byte(i)
	}
	n, err := d.Write(frame)
	require.NoError(t, err)
	assert.Equal(t, 32, n)
	assert.Equal(t, frame, bus.Args(0x5C)[0])
}

func TestDrawFastPath(t *testing.T) {
	d, bus, _ := newDevice(t, gds.FormatMono, 16, 8)
	bus.Reset()
	img := image1bit.NewVerticalLSB(d.Bounds())
	img.SetBit(3, 2, image1bit.On)
	require.NoError(t, d.Draw(d.Bounds(), img, image.Point{}))
	assert.Equal(t, img.Pix, d.Framebuffer())
	assert.Equal(t, gds.White, d.Pixel(3, 2))
	assert.Equal(t, 1, bus.Count(0x5C))

	g, _, _ := newDevice(t, gds.FormatGray4, 16, 8)
	nib := image4bit.NewHorizontalNibble(g.Bounds())
	nib.SetGray4(5, 5, image4bit.Gray4{Y: 11})
	require.NoError(t, g.Draw(g.Bounds(), nib, image.Point{}))
	assert.Equal(t, gds.Color(11), g.Pixel(5, 5))
}

func TestDrawConverts(t *testing.T) {
	d, _, _ := newDevice(t, gds.FormatRGB565, 8, 8)
	src := image.NewRGBA(image.Rect(0, 0, 4, 4))
	for i := 0; i < len(src.Pix); i += 4 {
		src.Pix[i], src.Pix[i+3] = 0xFF, 0xFF
	}
	require.NoError(t, d.Draw(image.Rect(2, 2, 6, 6), src, image.Point{}))
	assert.Equal(t, gds.Color(0xF800), d.Pixel(2, 2))
	assert.Equal(t, gds.Color(0xF800), d.Pixel(5, 5))
	assert.Equal(t, gds.Black, d.Pixel(6, 6))
	r, _, _, _ := d.At(3, 3).RGBA()
	assert.Equal(t, uint32(0xFFFF), r)
}

func TestClipHook(t *testing.T) {
	var got []image.Point
	d, err := gds.New(&gdstest.Bus{}, &gdstest.Controller{Fmt: gds.FormatMono}, &gds.Opts{
		W: 128, H: 64, Logger: quiet,
		OnClip: func(x, y int) { got = append(got, image.Pt(x, y)) },
	})
	require.NoError(t, err)
	before := append([]byte(nil), d.Framebuffer()...)

	assert.NotPanics(t, func() {
		d.DrawPixel(-5, 10, gds.White)
		d.DrawPixel(128+5, 10, gds.White)
	})
	assert.Equal(t, []image.Point{{-5, 10}, {133, 10}}, got)
	assert.Equal(t, before, d.Framebuffer())

	d.DrawLine(-10, 0, 200, 0, gds.White)
	assert.Len(t, got, 2, "shapes clip silently")
	assert.Equal(t, gds.White, d.Pixel(127, 0))
}

func TestClipPanic(t *testing.T) {
	d, err := gds.New(&gdstest.Bus{}, &gdstest.Controller{Fmt: gds.FormatMono}, &gds.Opts{W: 16, H: 8, Clip: gds.ClipPanic, Logger: quiet})
	require.NoError(t, err)
	assert.Panics(t, func() { d.DrawPixel(16, 0, gds.White) })
}

func TestResetAndBacklight(t *testing.T) {
	var slept []time.Duration
	defer gds.SetSleep(func(d time.Duration) { slept = append(slept, d) })()

	rst := &gpiotest.Pin{N: "RST"}
	bl := &gpiotest.Pin{N: "BL"}
	d, err := gds.New(&gdstest.Bus{}, &gdstest.Controller{Fmt: gds.FormatMono}, &gds.Opts{W: 16, H: 8, Reset: rst, Backlight: bl, Logger: quiet})
	require.NoError(t, err)
	assert.Equal(t, gpio.High, rst.L)
	assert.Equal(t, []time.Duration{100 * time.Millisecond, 100 * time.Millisecond}, slept)

	// Without a contrast register the backlight takes the level.
	require.NoError(t, d.SetContrast(255))
	assert.Equal(t, gpio.DutyMax, bl.D)
	assert.Equal(t, 5*physic.KiloHertz, bl.F)
	require.NoError(t, d.SetBacklight(0))
	assert.Equal(t, gpio.Duty(0), bl.D)
}

func TestAllocatorLimits(t *testing.T) {
	h := &gds.Heap{GeneralLimit: 10}
	b, err := h.Alloc(8, gds.PoolGeneral)
	require.NoError(t, err)
	_, err = h.Alloc(3, gds.PoolGeneral)
	require.ErrorIs(t, err, gds.ErrNoMemory)
	_, err = h.Alloc(1000, gds.PoolDMA)
	require.NoError(t, err, "unlimited pool")
	h.Free(b, gds.PoolGeneral)
	assert.Zero(t, h.InUse(gds.PoolGeneral))
	assert.Equal(t, 1000, h.InUse(gds.PoolDMA))
}
