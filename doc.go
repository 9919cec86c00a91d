// Package gds is a graphic display system for small raster panels:
// monochrome and grayscale OLEDs, color TFTs and e-paper, wired over SPI or
// I²C.
//
// A Device owns a framebuffer in the pixel Format of its Controller and
// offers drawing primitives on it: pixels, lines, boxes, column-by-row
// bitmaps, RGB images, scaled images and text lines. It implements
// draw.Image and periph's display.Drawer, so image/draw and
// golang.org/x/image/font render straight into it.
//
// Nothing reaches the panel until Update. Update is a no-op unless something
// was drawn since the last one; otherwise the Controller compares the
// framebuffer against its shadow copy and sends only what changed, in the
// addressing its chip understands. Controller packages live next to this
// one: sh1106, ssd1306, ssd132x, ssd1322, st77xx and ssd1675. The drivers
// package picks one from a configuration string:
//
//	cfg, _ := gds.ParseConfig("SPI,driver=SSD1327,width=128,height=128,HFlip")
//	bus, _ := gds.NewSPI(port, dc, cfg.Speed)
//	dev, _ := drivers.Open(cfg, bus, nil)
//	dev.DrawBox(0, 0, 127, 127, dev.Format().Gray(255), false)
//	dev.TextLine(1, gds.AlignCenter, gds.TextClear, "hello", dev.Format().Gray(255))
//	dev.Update()
//
// Buffers come from an Allocator with two pools, general and DMA capable.
// A failed bring-up returns every buffer it took.
//
// A Device is driven by one goroutine at a time.
package gds
