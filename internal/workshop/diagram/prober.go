package diagram

import (
	"context"
	"fmt"
	"image"
	_ "image/gif"
	_ "image/jpeg"
	_ "image/png"
	"io"
	"net/http"
	"strings"

	_ "golang.org/x/image/bmp"
	_ "golang.org/x/image/webp"
)

// ============================================================
// Original Size Discovery
// ============================================================

// Prober узнаёт натуральный размер изображения.
type Prober interface {
	Probe(ctx context.Context, imageURL string) (Size, error)
}

type HTTPProber struct {
	client *http.Client
}

func NewHTTPProber(client *http.Client) *HTTPProber {
	if client == nil {
		client = http.DefaultClient
	}
	return &HTTPProber{client: client}
}

// Probe читает только заголовок изображения.
func (p *HTTPProber) Probe(ctx context.Context, imageURL string) (Size, error) {
	if strings.HasPrefix(imageURL, "//") {
		imageURL = "https:" + imageURL
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, imageURL, nil)
	if err != nil {
		return Size{}, fmt.Errorf("build image request: %w", err)
	}

	resp, err := p.client.Do(req)
	if err != nil {
		return Size{}, fmt.Errorf("fetch image: %w", err)
	}
	defer resp.Body.Close()

	if resp.StatusCode >= 300 {
		return Size{}, fmt.Errorf("fetch image: status %d", resp.StatusCode)
	}

	return DecodeSize(resp.Body)
}

// DecodeSize читает размеры из заголовка png/jpeg/gif/webp/bmp.
func DecodeSize(r io.Reader) (Size, error) {
	cfg, format, err := image.DecodeConfig(r)
	if err != nil {
		return Size{}, fmt.Errorf("decode image config: %w", err)
	}
	if cfg.Width <= 0 || cfg.Height <= 0 {
		return Size{}, fmt.Errorf("%s image has zero dimensions", format)
	}
	return Size{Width: float64(cfg.Width), Height: float64(cfg.Height)}, nil
}
