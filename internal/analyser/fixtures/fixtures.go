package fixtures

import (
	_ "embed"
	"encoding/json"
	"fmt"
	"os"
	"strings"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Analysis Fixtures
// ============================================================

// BasePlaceholder в поле img заменяется на публичный адрес сервиса.
const BasePlaceholder = "{base}"

//go:embed default.json
var defaultJSON []byte

type Store struct {
	diagrams []models.PartsData
}

// Default: встроенный набор диаграмм.
func Default() (*Store, error) {
	return parse(defaultJSON)
}

// Load читает набор диаграмм из JSON-файла. Пустой путь: встроенный набор.
func Load(path string) (*Store, error) {
	if path == "" {
		return Default()
	}
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read fixtures: %w", err)
	}
	store, err := parse(data)
	if err != nil {
		return nil, fmt.Errorf("fixtures %s: %w", path, err)
	}
	return store, nil
}

func parse(data []byte) (*Store, error) {
	var diagrams []models.PartsData
	if err := json.Unmarshal(data, &diagrams); err != nil {
		return nil, fmt.Errorf("decode fixtures: %w", err)
	}
	return &Store{diagrams: diagrams}, nil
}

func (s *Store) Len() int {
	return len(s.diagrams)
}

// Diagrams возвращает копию набора с подставленным адресом сервиса.
func (s *Store) Diagrams(baseURL string) []models.PartsData {
	baseURL = strings.TrimRight(baseURL, "/")
	out := make([]models.PartsData, len(s.diagrams))
	for i, d := range s.diagrams {
		d.Img = strings.ReplaceAll(d.Img, BasePlaceholder, baseURL)
		out[i] = d
	}
	return out
}

func (s *Store) Diagram(index int) (models.PartsData, bool) {
	if index < 0 || index >= len(s.diagrams) {
		return models.PartsData{}, false
	}
	return s.diagrams[index], true
}
