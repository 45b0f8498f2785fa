package repository

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Page Hand-off Store
// ============================================================

// SaveHandoff сохраняет данные для страницы чата и возвращает токен.
func (r *Repository) SaveHandoff(ctx context.Context, data *models.ChatPageData) (string, error) {
	if data == nil || data.JobDetails == nil {
		return "", fmt.Errorf("handoff without job details")
	}
	payload, err := json.Marshal(data)
	if err != nil {
		return "", fmt.Errorf("encode handoff: %w", err)
	}

	token := uuid.NewString()
	_, err = r.db.ExecContext(ctx, `
        INSERT INTO handoffs (token, job_number, payload)
        VALUES (?, ?, ?)
    `, token, data.JobDetails.JobNumber, string(payload))
	if err != nil {
		return "", fmt.Errorf("insert handoff: %w", err)
	}
	return token, nil
}

// LoadHandoffRaw возвращает сохранённую строку. Неизвестный токен: пустая строка.
func (r *Repository) LoadHandoffRaw(ctx context.Context, token string) (string, error) {
	row := r.db.QueryRowContext(ctx, `SELECT payload FROM handoffs WHERE token = ?`, token)

	var payload string
	if err := row.Scan(&payload); err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return "", nil
		}
		return "", err
	}
	return payload, nil
}

// LoadHandoff читает и разбирает hand-off. Ошибки разбора: models.ErrHandoff*.
func (r *Repository) LoadHandoff(ctx context.Context, token string) (*models.ChatPageData, error) {
	raw, err := r.LoadHandoffRaw(ctx, token)
	if err != nil {
		return nil, fmt.Errorf("load handoff: %w", err)
	}
	return models.ParseHandoff(raw)
}

// PruneHandoffs удаляет hand-off'ы старше ttl.
func (r *Repository) PruneHandoffs(ctx context.Context, ttl time.Duration) (int64, error) {
	cutoff := time.Now().UTC().Add(-ttl).Format("2006-01-02T15:04:05.000Z")
	res, err := r.db.ExecContext(ctx, `DELETE FROM handoffs WHERE created_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune handoffs: %w", err)
	}
	return res.RowsAffected()
}
