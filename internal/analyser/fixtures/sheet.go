package fixtures

import (
	"bytes"
	"fmt"
	"image"
	"image/color"
	"image/draw"
	"image/png"

	"golang.org/x/image/font"
	"golang.org/x/image/font/basicfont"
	"golang.org/x/image/math/fixed"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Diagram Sheet
// ============================================================

const sheetMargin = 40

var (
	sheetBackground = color.RGBA{R: 0xff, G: 0xff, B: 0xff, A: 0xff}
	sheetOutline    = color.RGBA{R: 0x33, G: 0x41, B: 0x55, A: 0xff}
	sheetLabel      = color.RGBA{R: 0x1d, G: 0x4e, B: 0xd8, A: 0xff}
)

// SheetSize: размер листа: все позиции плюс поля.
func SheetSize(d models.PartsData) (int, int) {
	width, height := 2*sheetMargin, 2*sheetMargin
	for _, pos := range d.Positions {
		x, y, w, h, ok := pos.Coordinates.Rect()
		if !ok {
			continue
		}
		if right := int(x+w) + sheetMargin; right > width {
			width = right
		}
		if bottom := int(y+h) + sheetMargin; bottom > height {
			height = bottom
		}
	}
	return width, height
}

// RenderSheet рисует PNG-лист диаграммы: контуры позиций и их номера.
func RenderSheet(d models.PartsData) ([]byte, error) {
	width, height := SheetSize(d)
	img := image.NewRGBA(image.Rect(0, 0, width, height))
	draw.Draw(img, img.Bounds(), &image.Uniform{C: sheetBackground}, image.Point{}, draw.Src)

	drawer := &font.Drawer{
		Dst:  img,
		Src:  &image.Uniform{C: sheetLabel},
		Face: basicfont.Face7x13,
	}

	for _, pos := range d.Positions {
		x, y, w, h, ok := pos.Coordinates.Rect()
		if !ok {
			continue
		}
		outline(img, image.Rect(int(x), int(y), int(x+w), int(y+h)), sheetOutline)

		drawer.Dot = fixed.P(int(x)+4, int(y)+14)
		drawer.DrawString(pos.Number)
	}

	var buf bytes.Buffer
	if err := png.Encode(&buf, img); err != nil {
		return nil, fmt.Errorf("encode sheet: %w", err)
	}
	return buf.Bytes(), nil
}

func outline(img *image.RGBA, r image.Rectangle, c color.Color) {
	for x := r.Min.X; x < r.Max.X; x++ {
		img.Set(x, r.Min.Y, c)
		img.Set(x, r.Max.Y-1, c)
	}
	for y := r.Min.Y; y < r.Max.Y; y++ {
		img.Set(r.Min.X, y, c)
		img.Set(r.Max.X-1, y, c)
	}
}
