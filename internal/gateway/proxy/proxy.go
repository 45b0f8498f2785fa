package proxy

import (
	"bufio"
	"bytes"
	"io"
	"log"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
)

// ============================================================
// Proxy Handler
// ============================================================

// hop-by-hop заголовки не копируются в ответ клиенту
var skipHeaders = map[string]bool{
	"Connection":        true,
	"Keep-Alive":        true,
	"Transfer-Encoding": true,
	"Content-Length":    true,
	"Upgrade":           true,
}

type Proxy struct {
	client *http.Client
}

func New(client *http.Client) *Proxy {
	if client == nil {
		client = http.DefaultClient
	}
	return &Proxy{client: client}
}

// ProxyTo прокси запрос на фиксированный URL.
func (p *Proxy) ProxyTo(targetURL string) fiber.Handler {
	return func(c fiber.Ctx) error {
		return p.Forward(c, withQuery(c, targetURL))
	}
}

// Mount проксирует всё под prefix на baseURL, сохраняя остаток пути.
// /api/v1/sessions/abc → baseURL + /sessions/abc
func (p *Proxy) Mount(prefix, baseURL string) fiber.Handler {
	baseURL = strings.TrimRight(baseURL, "/")
	return func(c fiber.Ctx) error {
		target := baseURL + strings.TrimPrefix(c.Path(), prefix)
		return p.Forward(c, withQuery(c, target))
	}
}

// Forward проксирует запрос по переданному URL.
func (p *Proxy) Forward(c fiber.Ctx, targetURL string) error {
	log.Printf("[PROXY] %s %s -> %s (%d bytes)", c.Method(), c.Path(), targetURL, len(c.Body()))

	req, err := http.NewRequest(c.Method(), targetURL, bytes.NewReader(c.Body()))
	if err != nil {
		log.Printf("[PROXY] build request error: %v", err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "proxy failed"})
	}

	if contentType := c.Get("Content-Type"); contentType != "" {
		req.Header.Set("Content-Type", contentType)
	}
	if accept := c.Get("Accept"); accept != "" {
		req.Header.Set("Accept", accept)
	}
	if auth := c.Get("Authorization"); auth != "" {
		req.Header.Set("Authorization", auth)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		log.Printf("[PROXY] Error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to reach upstream service"})
	}

	if strings.HasPrefix(resp.Header.Get("Content-Type"), "text/event-stream") {
		return streamResponse(c, resp)
	}

	defer resp.Body.Close()
	return copyResponse(c, resp)
}

func withQuery(c fiber.Ctx, targetURL string) string {
	query := string(c.Request().URI().QueryString())
	if query == "" {
		return targetURL
	}
	return targetURL + "?" + query
}

func copyHeaders(c fiber.Ctx, resp *http.Response) {
	for key, values := range resp.Header {
		if skipHeaders[key] || len(values) == 0 {
			continue
		}
		c.Set(key, values[0])
	}
}

func copyResponse(c fiber.Ctx, resp *http.Response) error {
	data, err := io.ReadAll(resp.Body)
	if err != nil {
		log.Printf("[PROXY] Read response error: %v", err)
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "invalid upstream response"})
	}

	copyHeaders(c, resp)
	c.Status(resp.StatusCode)
	return c.Send(data)
}

// streamResponse пересылает SSE построчно, пока клиент или upstream не отключатся.
func streamResponse(c fiber.Ctx, resp *http.Response) error {
	copyHeaders(c, resp)
	c.Status(resp.StatusCode)

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer resp.Body.Close()

		reader := bufio.NewReader(resp.Body)
		for {
			line, err := reader.ReadBytes('\n')
			if len(line) > 0 {
				if _, werr := w.Write(line); werr != nil {
					return
				}
				if len(bytes.TrimSpace(line)) == 0 {
					if werr := w.Flush(); werr != nil {
						return
					}
				}
			}
			if err != nil {
				w.Flush()
				if err != io.EOF {
					log.Printf("[PROXY] stream closed: %v", err)
				}
				return
			}
		}
	})
}
