package repository

import (
	"context"
	"errors"
	"fmt"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Job Parts List
// ============================================================

var ErrPartNumberRequired = errors.New("part number required")

// AddPart добавляет деталь в заказ-наряд; повторное добавление увеличивает количество.
func (r *Repository) AddPart(ctx context.Context, part models.JobPart) error {
	if part.Number == "" {
		return ErrPartNumberRequired
	}
	_, err := r.db.ExecContext(ctx, `
        INSERT INTO job_parts (job_number, number, name, source, price, quantity)
        VALUES (?, ?, ?, ?, ?, 1)
        ON CONFLICT (job_number, number) DO UPDATE SET quantity = quantity + 1
    `, part.JobNumber, part.Number, part.Name, part.Source, part.Price)
	if err != nil {
		return fmt.Errorf("add job part: %w", err)
	}
	return nil
}

// UpdateQuantity задаёт количество; quantity <= 0 убирает деталь.
func (r *Repository) UpdateQuantity(ctx context.Context, jobNumber, number string, quantity int) error {
	if number == "" {
		return ErrPartNumberRequired
	}
	if quantity <= 0 {
		_, err := r.db.ExecContext(ctx, `DELETE FROM job_parts WHERE job_number = ? AND number = ?`, jobNumber, number)
		if err != nil {
			return fmt.Errorf("remove job part: %w", err)
		}
		return nil
	}

	_, err := r.db.ExecContext(ctx, `
        UPDATE job_parts SET quantity = ? WHERE job_number = ? AND number = ?
    `, quantity, jobNumber, number)
	if err != nil {
		return fmt.Errorf("update job part: %w", err)
	}
	return nil
}

// ListParts возвращает детали в порядке добавления.
func (r *Repository) ListParts(ctx context.Context, jobNumber string) ([]models.JobPart, error) {
	rows, err := r.db.QueryContext(ctx, `
        SELECT job_number, number, name, source, price, quantity
        FROM job_parts
        WHERE job_number = ?
        ORDER BY added_at, rowid
    `, jobNumber)
	if err != nil {
		return nil, fmt.Errorf("list job parts: %w", err)
	}
	defer rows.Close()

	parts := []models.JobPart{}
	for rows.Next() {
		var p models.JobPart
		if err := rows.Scan(&p.JobNumber, &p.Number, &p.Name, &p.Source, &p.Price, &p.Quantity); err != nil {
			return nil, err
		}
		parts = append(parts, p)
	}
	return parts, rows.Err()
}

// Total: сумма по списку деталей.
func Total(parts []models.JobPart) float64 {
	var sum float64
	for _, p := range parts {
		sum += p.Price * float64(p.Quantity)
	}
	return sum
}
