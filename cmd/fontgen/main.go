// Copyright 2023 Gilles Henrard. All rights reserved.
// Use of this source code is governed under the Apache License, Version 2.0
// that can be found in the LICENSE file.

// fontgen regenerates the glyph table of the ssd1306 package: it renders
// the level's character set from a TTF font into fixed-size cells and
// packs them column-major, one bit per pixel, split into two
// 8-pixel-tall pages per glyph.
//
// By default it renders the embedded Go Regular face and writes the Go
// source to stdout:
//
//	fontgen -font verdana.ttf -o ssd1306/font.go
package main

import (
	"bytes"
	"flag"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"log"
	"os"

	"github.com/golang/freetype/truetype"
	"golang.org/x/image/font"
	"golang.org/x/image/font/gofont/goregular"
	"golang.org/x/image/math/fixed"
)

// The character set of the angle display, in glyph table order.
var charset = []rune("0123456789.+-°")

const (
	cellWidth  = 11
	cellHeight = 16
	cellPages  = cellHeight / 8
)

func main() {
	fontPath := flag.String("font", "", "TTF file to render, embedded Go Regular when empty")
	size := flag.Float64("size", 16, "font size in pixels")
	pkg := flag.String("package", "ssd1306", "package name of the generated file")
	varName := flag.String("var", "verdana16Numbers", "variable name of the generated table")
	out := flag.String("o", "", "output file, stdout when empty")
	flag.Parse()

	ttf := goregular.TTF
	fontName := "Go Regular"
	if *fontPath != "" {
		raw, err := os.ReadFile(*fontPath)
		if err != nil {
			log.Fatal(err)
		}
		ttf = raw
		fontName = *fontPath
	}

	f, err := truetype.Parse(ttf)
	if err != nil {
		log.Fatalf("parsing %s: %v", fontName, err)
	}
	face := truetype.NewFace(f, &truetype.Options{
		Size:    *size,
		DPI:     72,
		Hinting: font.HintingFull,
	})
	defer face.Close()

	var buf bytes.Buffer
	emitHeader(&buf, *pkg, *varName, fontName, *size)
	for _, r := range charset {
		emitGlyph(&buf, r, pack(render(face, r)))
	}
	buf.WriteString("}\n")

	if *out == "" {
		if _, err := buf.WriteTo(os.Stdout); err != nil {
			log.Fatal(err)
		}
		return
	}
	if err := os.WriteFile(*out, buf.Bytes(), 0o644); err != nil {
		log.Fatal(err)
	}
}

// render draws one rune centered in a cell.
func render(face font.Face, r rune) *image.Gray {
	img := image.NewGray(image.Rect(0, 0, cellWidth, cellHeight))
	draw.Draw(img, img.Bounds(), image.NewUniform(color.Gray{}), image.Point{}, draw.Src)

	x := fixed.I(0)
	if adv, ok := face.GlyphAdvance(r); ok && adv < fixed.I(cellWidth) {
		x = (fixed.I(cellWidth) - adv) / 2
	}
	d := font.Drawer{
		Dst:  img,
		Src:  image.NewUniform(color.Gray{Y: 0xFF}),
		Face: face,
		Dot:  fixed.Point26_6{X: x, Y: face.Metrics().Ascent},
	}
	d.DrawString(string(r))
	return img
}

// pack folds the cell into the wire layout: two pages of one byte per
// column, the low bit being the top row of the page.
func pack(img *image.Gray) [cellPages * cellWidth]byte {
	var glyph [cellPages * cellWidth]byte
	for page := 0; page < cellPages; page++ {
		for col := 0; col < cellWidth; col++ {
			var b byte
			for row := 0; row < 8; row++ {
				if img.GrayAt(col, page*8+row).Y >= 0x80 {
					b |= 1 << uint(row)
				}
			}
			glyph[page*cellWidth+col] = b
		}
	}
	return glyph
}

func emitHeader(buf *bytes.Buffer, pkg, varName, fontName string, size float64) {
	fmt.Fprintf(buf, `// Code generated by fontgen (%s at %gpx); DO NOT EDIT.

package %s

const (
	glyphWidth = %d
	glyphPages = %d
	glyphBytes = glyphWidth * glyphPages
	nbGlyphs   = %d
)

// Glyph indexes beyond the digits, which map to themselves.
const (
	indexDot uint8 = iota + 10
	indexPlus
	indexMinus
	indexDegree
)

var %s = [nbGlyphs][glyphBytes]byte{
`, fontName, size, pkg, cellWidth, cellPages, len(charset), varName)
}

func emitGlyph(buf *bytes.Buffer, r rune, glyph [cellPages * cellWidth]byte) {
	fmt.Fprintf(buf, "\t// %q\n\t{\n", r)
	for page := 0; page < cellPages; page++ {
		buf.WriteString("\t\t")
		for col := 0; col < cellWidth; col++ {
			fmt.Fprintf(buf, "0x%02X,", glyph[page*cellWidth+col])
			if col < cellWidth-1 {
				buf.WriteByte(' ')
			}
		}
		buf.WriteByte('\n')
	}
	buf.WriteString("\t},\n")
}
