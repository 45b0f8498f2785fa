package catalog

import (
	"context"
	"fmt"
	"log"
	"os"
	"path/filepath"
	"strings"
	"sync"

	"github.com/fsnotify/fsnotify"
	"gopkg.in/yaml.v3"
)

// ============================================================
// Search Catalog
// ============================================================

// Part: карточка детали в чате.
type Part struct {
	PartName      string   `json:"partName" yaml:"partName"`
	PartNumber    string   `json:"partNumber" yaml:"partNumber"`
	Price         float64  `json:"price" yaml:"price"`
	Stock         string   `json:"stock" yaml:"stock"`
	Source        string   `json:"source" yaml:"source"`
	Compatibility string   `json:"compatibility" yaml:"compatibility"`
	Keywords      []string `json:"-" yaml:"keywords,omitempty"`
}

// Lookup: ответ внешнего источника (E3Technical, Partlink24).
type Lookup struct {
	Source string `yaml:"source"`
	Query  string `yaml:"query"`
	Notice string `yaml:"notice"`
	Result string `yaml:"result"`
	Part   Part   `yaml:"part"`
}

type Data struct {
	Parts     []Part `yaml:"parts"`
	Technical Lookup `yaml:"technical"`
	OEM       Lookup `yaml:"oem"`
}

type Catalog struct {
	mu   sync.RWMutex
	path string
	data Data
}

// New: каталог со встроенными демо-данными.
func New() *Catalog {
	return &Catalog{data: Default()}
}

// Open читает каталог из YAML. Пустой путь: встроенные данные.
func Open(path string) (*Catalog, error) {
	if path == "" {
		return New(), nil
	}
	data, err := readFile(path)
	if err != nil {
		return nil, err
	}
	return &Catalog{path: path, data: data}, nil
}

func readFile(path string) (Data, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return Data{}, fmt.Errorf("read catalog: %w", err)
	}
	var data Data
	if err := yaml.Unmarshal(raw, &data); err != nil {
		return Data{}, fmt.Errorf("parse catalog %s: %w", path, err)
	}
	if len(data.Parts) == 0 {
		return Data{}, fmt.Errorf("catalog %s has no parts", path)
	}
	return data, nil
}

// Match возвращает детали, ключевые слова которых встречаются в запросе.
func (c *Catalog) Match(query string) []Part {
	q := strings.ToLower(strings.TrimSpace(query))
	if q == "" {
		return nil
	}

	c.mu.RLock()
	defer c.mu.RUnlock()

	for _, part := range c.data.Parts {
		for _, kw := range part.Keywords {
			if kw != "" && strings.Contains(q, strings.ToLower(kw)) {
				// демо-поиск: совпадение по любой детали отдаёт весь набор
				out := make([]Part, len(c.data.Parts))
				copy(out, c.data.Parts)
				return out
			}
		}
	}
	return nil
}

func (c *Catalog) Technical() Lookup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.Technical
}

func (c *Catalog) OEM() Lookup {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.data.OEM
}

// Reload перечитывает файл. При ошибке остаётся прежний каталог.
func (c *Catalog) Reload() error {
	if c.path == "" {
		return nil
	}
	data, err := readFile(c.path)
	if err != nil {
		return err
	}
	c.mu.Lock()
	c.data = data
	c.mu.Unlock()
	return nil
}

// Watch перезагружает каталог при изменении файла до отмены ctx.
func (c *Catalog) Watch(ctx context.Context) error {
	if c.path == "" {
		return nil
	}

	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("create watcher: %w", err)
	}
	// следим за каталогом: редакторы часто пишут через rename
	if err := watcher.Add(filepath.Dir(c.path)); err != nil {
		watcher.Close()
		return fmt.Errorf("watch %s: %w", c.path, err)
	}

	go func() {
		defer watcher.Close()
		target := filepath.Clean(c.path)
		for {
			select {
			case <-ctx.Done():
				return
			case event, ok := <-watcher.Events:
				if !ok {
					return
				}
				if filepath.Clean(event.Name) != target {
					continue
				}
				if !event.Has(fsnotify.Write) && !event.Has(fsnotify.Create) {
					continue
				}
				if err := c.Reload(); err != nil {
					log.Printf("[CATALOG] reload failed, keeping previous: %v", err)
					continue
				}
				log.Printf("[CATALOG] reloaded %s", c.path)
			case err, ok := <-watcher.Errors:
				if !ok {
					return
				}
				log.Printf("[CATALOG] watcher error: %v", err)
			}
		}
	}()
	return nil
}
