package diagram

import (
	"fmt"
	"html"
	"strconv"
	"strings"
)

// ============================================================
// Overlay Renderer
// ============================================================

type Renderer struct {
	Stroke    string
	Highlight string
}

func NewRenderer() *Renderer {
	return &Renderer{
		Stroke:    "#e5e7eb",
		Highlight: "#1d4ed8",
	}
}

// Render собирает SVG-слой hotspot'ов поверх отрисованного изображения.
// Позиции из expanded подсвечиваются.
func (r *Renderer) Render(g Geometry, spots []Hotspot, expanded map[string]bool) (string, error) {
	if !g.Ready() {
		return "", fmt.Errorf("diagram geometry is not ready")
	}

	width, height := g.Rendered.Width, g.Rendered.Height

	var builder strings.Builder
	builder.WriteString(`<?xml version="1.0" encoding="UTF-8"?>` + "\n")
	builder.WriteString(fmt.Sprintf(`<svg xmlns="http://www.w3.org/2000/svg" width="%s" height="%s" viewBox="0 0 %s %s">`,
		formatFloat(width), formatFloat(height), formatFloat(width), formatFloat(height)))
	builder.WriteString("\n")

	for _, spot := range spots {
		stroke := r.Stroke
		if expanded[spot.Number] {
			stroke = r.Highlight
		}
		builder.WriteString("  ")
		builder.WriteString(fmt.Sprintf(`<rect id="pos-%s" data-position="%s" x="%s" y="%s" width="%s" height="%s" fill="transparent" stroke="%s" stroke-width="2"><title>Go to legend section for position %s</title></rect>`,
			html.EscapeString(spot.Number), html.EscapeString(spot.Number),
			formatFloat(spot.X), formatFloat(spot.Y), formatFloat(spot.Width), formatFloat(spot.Height),
			stroke, html.EscapeString(spot.Number)))
		builder.WriteString("\n")
	}

	builder.WriteString(`</svg>`)
	return builder.String(), nil
}

func formatFloat(val float64) string {
	return strconv.FormatFloat(val, 'f', -1, 64)
}
