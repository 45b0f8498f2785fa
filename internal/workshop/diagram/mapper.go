package diagram

import (
	"log"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Coordinate Mapper
// ============================================================

// MinHotspotSize: минимальная сторона кликабельной области в пикселях экрана.
const MinHotspotSize = 5.0

type Size struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Geometry: исходный размер изображения и размер после вёрстки.
// Любой из них может быть ещё неизвестен.
type Geometry struct {
	Original *Size `json:"original"`
	Rendered *Size `json:"rendered"`
}

type Hotspot struct {
	Number string  `json:"number"`
	X      float64 `json:"x"`
	Y      float64 `json:"y"`
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// Scale возвращает коэффициенты масштаба. ok=false: геометрия не готова.
func (g Geometry) Scale() (scaleX, scaleY float64, ok bool) {
	if g.Original == nil || g.Rendered == nil {
		return 0, 0, false
	}
	if g.Original.Width <= 0 || g.Original.Height <= 0 {
		return 0, 0, false
	}
	return g.Rendered.Width / g.Original.Width, g.Rendered.Height / g.Original.Height, true
}

// Ready: можно ли рисовать hotspot'ы.
func (g Geometry) Ready() bool {
	_, _, ok := g.Scale()
	return ok
}

// MapHotspots переносит прямоугольники позиций на отрисованное изображение.
// Пока геометрия не готова: пустой результат.
func MapHotspots(g Geometry, positions []models.Position) []Hotspot {
	scaleX, scaleY, ok := g.Scale()
	if !ok {
		return []Hotspot{}
	}

	out := make([]Hotspot, 0, len(positions))
	for _, pos := range positions {
		if pos.Number == "" {
			continue
		}
		x, y, w, h, ok := pos.Coordinates.Rect()
		if !ok {
			log.Printf("[DIAGRAM] skip position %q: invalid coordinates", pos.Number)
			continue
		}

		spot := Hotspot{
			Number: pos.Number,
			X:      x * scaleX,
			Y:      y * scaleY,
			Width:  w * scaleX,
			Height: h * scaleY,
		}
		if spot.Width < MinHotspotSize || spot.Height < MinHotspotSize {
			continue
		}
		out = append(out, spot)
	}
	return out
}
