package handlers

import (
	"context"
	"fmt"
	"net/http"
	"strings"
	"sync"
	"time"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Health Check Handlers
// ============================================================

// Health проверяет сервисы за шлюзом.
type Health struct {
	client    *http.Client
	upstreams map[string]string // имя -> base URL
}

func NewHealth(client *http.Client, upstreams map[string]string) *Health {
	if client == nil {
		client = &http.Client{Timeout: 3 * time.Second}
	}
	return &Health{client: client, upstreams: upstreams}
}

// LivenessProbe проверяет, что приложение работает
func (h *Health) LivenessProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "alive",
	})
}

// ReadinessProbe опрашивает /health/ready всех upstream-сервисов.
func (h *Health) ReadinessProbe(c fiber.Ctx) error {
	results := h.check(context.Background())

	status := http.StatusOK
	for _, result := range results {
		if result != "ready" {
			status = http.StatusServiceUnavailable
		}
	}

	state := "ready"
	if status != http.StatusOK {
		state = "degraded"
	}
	return c.Status(status).JSON(fiber.Map{
		"status":   state,
		"services": results,
	})
}

// StartupProbe проверяет, что приложение успешно запустилось
func (h *Health) StartupProbe(c fiber.Ctx) error {
	return c.JSON(fiber.Map{
		"status": "started",
	})
}

func (h *Health) check(ctx context.Context) map[string]string {
	var (
		mu      sync.Mutex
		wg      sync.WaitGroup
		results = make(map[string]string, len(h.upstreams))
	)

	for name, baseURL := range h.upstreams {
		wg.Add(1)
		go func(name, baseURL string) {
			defer wg.Done()
			result := h.ping(ctx, strings.TrimRight(baseURL, "/")+"/health/ready")

			mu.Lock()
			results[name] = result
			mu.Unlock()
		}(name, baseURL)
	}
	wg.Wait()
	return results
}

func (h *Health) ping(ctx context.Context, url string) string {
	req, err := http.NewRequestWithContext(ctx, http.MethodGet, url, nil)
	if err != nil {
		return err.Error()
	}
	resp, err := h.client.Do(req)
	if err != nil {
		return "unreachable"
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return fmt.Sprintf("status %d", resp.StatusCode)
	}
	return "ready"
}
