// Package ssd1322 controls a SSD1322 OLED display via SPI.
//
// The SSD1322 is a 4-bit grayscale OLED controller supporting up to 480×128
// pixels. A Dev is a gds.Device, so it implements the display.Drawer
// interface from periph.io, plus the controller specific commands.
//
// # Display Characteristics
//
// - 4-bit grayscale with 16 intensity levels (0-15)
// - Support for various resolutions (typically 256×64 or 128×64)
// - Hardware scrolling support (horizontal only)
// - Adjustable contrast (0-255)
// - Display inversion
// - 480-column internal RAM with automatic centering for smaller displays
//
// # Hardware Connection
//
// Connect the SSD1322 display to your system via SPI:
//
//	Display Pin → System Pin
//	GND         → GND
//	VCC         → 3.3V (or 5V depending on display)
//	SCL/CLK     → SPI Clock (SCLK)
//	SDA/MOSI    → SPI Data (MOSI)
//	DC          → GPIO (any available pin)
//	CS          → SPI Chip Select (or GND if always selected)
//	RES         → Optional: GPIO for hardware reset
//
// # Basic Usage
//
//	host.Init()
//	spiBus, _ := spireg.Open("")
//	dcPin := gpioreg.ByName("GPIO25")
//
//	dev, _ := ssd1322.NewSPI(spiBus, dcPin, &ssd1322.Opts{
//		Opts: gds.Opts{W: 256, H: 64, Reset: gpioreg.ByName("GPIO24")},
//	})
//	defer dev.Halt()
//
//	img := image4bit.NewHorizontalNibble(dev.Bounds())
//	for y := 0; y < 64; y++ {
//		for x := 0; x < 256; x++ {
//			img.SetGray4(x, y, image4bit.Gray4{Y: byte(x / 16)})
//		}
//	}
//	dev.Draw(dev.Bounds(), img, image.Point{})
//
// The reset pin is optional. When given, it is pulsed low for 100ms before
// the bring-up.
//
// # Updates
//
// The framebuffer is sent in pages of up to 8 lines, sized so that a page
// stays under Opts.PageBudget bytes. Only pages that differ from what the
// panel last received are sent. Write copies a raw frame (two pixels per
// byte, even pixel in the low nibble) and Updates:
//
//	pixels := make([]byte, 256*64/2)
//	dev.Write(pixels)
//
// # Hardware Scrolling
//
//	dev.ScrollHorizontal(0, 63, ssd1322.Speed10Frames, false)
//	time.Sleep(5 * time.Second)
//	dev.StopScroll()
//
// Scrolling shifts the panel RAM, so StopScroll makes the next Update resend
// the whole frame.
//
// # Datasheet
//
// https://www.displayfuture.com/Display/datasheet/controller/SSD1322.pdf
package ssd1322
