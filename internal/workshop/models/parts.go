package models

import (
	"encoding/json"
	"strings"
)

// ============================================================
// Parts Diagram
// ============================================================

// PartsData: один диаграммный лист каталога, как его отдаёт /analyse-job.
type PartsData struct {
	Img            string      `json:"img"`
	ImgDescription string      `json:"imgDescription,omitempty"`
	Brand          string      `json:"brand"`
	PartGroups     []PartGroup `json:"partGroups"`
	Positions      []Position  `json:"positions,omitempty"`
}

type PartGroup struct {
	Name           string `json:"name"`
	Number         string `json:"number,omitempty"`
	PositionNumber string `json:"positionNumber,omitempty"`
	Description    string `json:"description,omitempty"`
	Parts          []Part `json:"parts"`
}

// Part: деталь. Number де-факто уникальный ключ.
type Part struct {
	ID             string `json:"id,omitempty"`
	NameID         string `json:"nameId,omitempty"`
	Name           string `json:"name,omitempty"`
	Number         string `json:"number,omitempty"`
	Notice         string `json:"notice,omitempty"`
	Description    string `json:"description,omitempty"`
	PositionNumber string `json:"positionNumber,omitempty"`
	URL            string `json:"url,omitempty"`
}

// Position: прямоугольник позиции в координатах исходного изображения.
type Position struct {
	Number      string      `json:"number"`
	Coordinates Coordinates `json:"coordinates"`
}

// Поля-идентификаторы разбираются мягко: значение не строкового типа даёт
// пустую строку, и такая деталь или позиция просто пропускается.

func (g *PartGroup) UnmarshalJSON(data []byte) error {
	fields := decodeFields(data)
	*g = PartGroup{
		Name:           stringField(fields, "name"),
		Number:         stringField(fields, "number"),
		PositionNumber: stringField(fields, "positionNumber"),
		Description:    stringField(fields, "description"),
	}
	if raw, ok := fields["parts"]; ok {
		if err := json.Unmarshal(raw, &g.Parts); err != nil {
			g.Parts = nil
		}
	}
	return nil
}

func (p *Part) UnmarshalJSON(data []byte) error {
	fields := decodeFields(data)
	*p = Part{
		ID:             stringField(fields, "id"),
		NameID:         stringField(fields, "nameId"),
		Name:           stringField(fields, "name"),
		Number:         stringField(fields, "number"),
		Notice:         stringField(fields, "notice"),
		Description:    stringField(fields, "description"),
		PositionNumber: stringField(fields, "positionNumber"),
		URL:            stringField(fields, "url"),
	}
	return nil
}

func (p *Position) UnmarshalJSON(data []byte) error {
	fields := decodeFields(data)
	*p = Position{Number: stringField(fields, "number")}
	if raw, ok := fields["coordinates"]; ok {
		return p.Coordinates.UnmarshalJSON(raw)
	}
	return nil
}

// decodeFields разбирает объект. Не объект даёт пустой набор полей.
func decodeFields(data []byte) map[string]json.RawMessage {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err != nil {
		return nil
	}
	return fields
}

func stringField(fields map[string]json.RawMessage, key string) string {
	raw, ok := fields[key]
	if !ok {
		return ""
	}
	var s string
	if err := json.Unmarshal(raw, &s); err != nil {
		return ""
	}
	return s
}

// Coordinates: [x, y, width, height]. Нечисловой элемент делает
// координаты пустыми, не ломая разбор остального документа.
type Coordinates []float64

func (c *Coordinates) UnmarshalJSON(data []byte) error {
	var raw []any
	if err := json.Unmarshal(data, &raw); err != nil {
		*c = nil
		return nil
	}

	out := make(Coordinates, 0, len(raw))
	for _, v := range raw {
		f, ok := v.(float64)
		if !ok {
			*c = nil
			return nil
		}
		out = append(out, f)
	}
	*c = out
	return nil
}

// Rect возвращает x, y, width, height, если координаты полные.
func (c Coordinates) Rect() (x, y, w, h float64, ok bool) {
	if len(c) < 4 {
		return 0, 0, 0, 0, false
	}
	return c[0], c[1], c[2], c[3], true
}

// ImageURL дополняет протокол-относительный адрес схемой https.
func (d *PartsData) ImageURL() string {
	if strings.HasPrefix(d.Img, "//") {
		return "https:" + d.Img
	}
	return d.Img
}

// FindPart ищет деталь по номеру во всех группах.
func (d *PartsData) FindPart(number string) (Part, bool) {
	if d == nil || number == "" {
		return Part{}, false
	}
	for _, group := range d.PartGroups {
		for _, part := range group.Parts {
			if part.Number == number {
				return part, true
			}
		}
	}
	return Part{}, false
}
