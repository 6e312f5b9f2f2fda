// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

package pageview

import (
	"bytes"
	"image"
	"image/color"
	"io"

	"github.com/fogleman/gg"
)

var (
	pixelOn  = color.NRGBA{R: 0x9B, G: 0xDF, B: 0xFF, A: 255} // the blueish white of the usual OLED modules
	pixelOff = color.NRGBA{A: 255}
)

// Pixel reports whether the pixel at (x, y) is lit, with the panel turned
// on. The origin is the top-left corner.
func (e *Emulator) Pixel(x, y int) bool {
	if !e.on || x < 0 || x >= width || y < 0 || y >= height {
		return false
	}
	return e.gddram[(y/8)*width+x]&(1<<uint(y%8)) != 0
}

// Render writes the frame to the configured writer as ANSI-colored
// blocks, one per pixel.
func (e *Emulator) Render() error {
	var buf bytes.Buffer
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := pixelOff
			if e.Pixel(x, y) {
				c = pixelOn
			}
			_, _ = io.WriteString(&buf, e.palette.Block(c))
		}
		_, _ = buf.WriteString("\033[0m\n")
	}
	_, err := buf.WriteTo(e.w)
	return err
}

// Image returns the frame as an image, one image pixel per panel pixel.
func (e *Emulator) Image() image.Image {
	img := image.NewNRGBA(image.Rect(0, 0, width, height))
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			c := pixelOff
			if e.Pixel(x, y) {
				c = pixelOn
			}
			img.SetNRGBA(x, y, c)
		}
	}
	return img
}

// SavePNG writes the frame to a PNG file, scaled up by the given integer
// factor.
func (e *Emulator) SavePNG(path string, scale int) error {
	if scale < 1 {
		scale = 1
	}
	dc := gg.NewContext(width*scale, height*scale)
	dc.SetColor(pixelOff)
	dc.Clear()
	dc.SetColor(pixelOn)
	for y := 0; y < height; y++ {
		for x := 0; x < width; x++ {
			if e.Pixel(x, y) {
				dc.DrawRectangle(float64(x*scale), float64(y*scale), float64(scale), float64(scale))
			}
		}
	}
	dc.Fill()
	return dc.SavePNG(path)
}
