package diagram

import (
	"sort"
	"sync"

	"golang.org/x/text/collate"
	"golang.org/x/text/language"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Parts by Position
// ============================================================

type PositionParts struct {
	Position string        `json:"position"`
	Parts    []models.Part `json:"parts"`
}

var (
	collatorMu sync.Mutex
	// numeric + без учёта регистра: 1, 1A, 2, 10
	collator = collate.New(language.Und, collate.Numeric, collate.Loose)
)

// ComparePositions сравнивает номера позиций в натуральном порядке.
func ComparePositions(a, b string) int {
	collatorMu.Lock()
	c := collator.CompareString(a, b)
	collatorMu.Unlock()

	if c != 0 {
		return c
	}
	switch {
	case a < b:
		return -1
	case a > b:
		return 1
	}
	return 0
}

// SortPositions сортирует номера позиций на месте.
func SortPositions(keys []string) {
	sort.SliceStable(keys, func(i, j int) bool {
		return ComparePositions(keys[i], keys[j]) < 0
	})
}

// GroupByPosition строит индекс позиция → детали. Детали без positionNumber
// или number в индекс не попадают, порядок деталей внутри позиции сохраняется.
func GroupByPosition(data *models.PartsData) []PositionParts {
	if data == nil {
		return []PositionParts{}
	}

	grouped := map[string][]models.Part{}
	for _, group := range data.PartGroups {
		for _, part := range group.Parts {
			if part.PositionNumber == "" || part.Number == "" {
				continue
			}
			grouped[part.PositionNumber] = append(grouped[part.PositionNumber], part)
		}
	}

	keys := make([]string, 0, len(grouped))
	for key := range grouped {
		keys = append(keys, key)
	}
	SortPositions(keys)

	out := make([]PositionParts, 0, len(keys))
	for _, key := range keys {
		out = append(out, PositionParts{Position: key, Parts: grouped[key]})
	}
	return out
}
