package service

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"net/http"
	"strings"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Analysis Client
// ============================================================

// Analyser подбирает диаграммы деталей по заказ-наряду.
type Analyser interface {
	Analyse(ctx context.Context, job *models.JobDetails) ([]models.PartsData, error)
}

type AnalysisClient struct {
	baseURL string
	client  *http.Client
}

func NewAnalysisClient(baseURL string, client *http.Client) *AnalysisClient {
	if client == nil {
		client = http.DefaultClient
	}
	return &AnalysisClient{baseURL: strings.TrimRight(baseURL, "/"), client: client}
}

// ErrAnalysisResponse: тело ответа сервиса анализа не разбирается.
var ErrAnalysisResponse = errors.New("invalid analysis response")

// AnalysisError: ответ сервиса анализа с кодом не 2xx.
type AnalysisError struct {
	Status int
	Body   string
}

func (e *AnalysisError) Error() string {
	return fmt.Sprintf("failed to analyze job details (status: %d). %s", e.Status, e.Body)
}

// Analyse отправляет заказ-наряд на /analyse-job.
func (a *AnalysisClient) Analyse(ctx context.Context, job *models.JobDetails) ([]models.PartsData, error) {
	payload, err := json.Marshal(job)
	if err != nil {
		return nil, fmt.Errorf("encode job: %w", err)
	}

	req, err := http.NewRequestWithContext(ctx, http.MethodPost, a.baseURL+"/analyse-job", bytes.NewReader(payload))
	if err != nil {
		return nil, fmt.Errorf("build analysis request: %w", err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := a.client.Do(req)
	if err != nil {
		return nil, fmt.Errorf("analysis request: %w", err)
	}
	defer resp.Body.Close()

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("read analysis response: %w", err)
	}

	if resp.StatusCode < 200 || resp.StatusCode >= 300 {
		return nil, &AnalysisError{Status: resp.StatusCode, Body: truncate(string(body), 100)}
	}

	var list []models.PartsData
	if err := json.Unmarshal(body, &list); err != nil {
		return nil, fmt.Errorf("%w: %v", ErrAnalysisResponse, err)
	}
	if list == nil {
		list = []models.PartsData{}
	}
	return list, nil
}

func truncate(s string, n int) string {
	r := []rune(s)
	if len(r) <= n {
		return s
	}
	return string(r[:n])
}
