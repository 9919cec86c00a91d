// Package image4bit provides a 4-bit grayscale image format matching the
// framebuffer layout of gds grayscale devices.
//
// Pixels are stored in horizontal nibble packing where each byte contains 2
// pixels, the left one in the low nibble.
//
// Memory layout example for a 4-pixel row:
//
//	Pixels: 0  1  2  3
//	Values: 5  10 3  12
//	Bytes:  0xA5     0xC3
//	        (0xA5 = low nibble: 5, high nibble: A=10)
//	        (0xC3 = low nibble: 3, high nibble: C=12)
//
// An image whose bounds match a grayscale device can be handed to
// Device.Draw, which then copies Pix as is.
//
// Example usage:
//
//	img := image4bit.NewHorizontalNibble(image.Rect(0, 0, 256, 64))
//	img.SetGray4(10, 20, image4bit.Gray4{Y: 8})
//	draw.Draw(img, img.Bounds(), image.NewUniform(image4bit.Gray4{Y: 15}), image.Point{}, draw.Src)
package image4bit
