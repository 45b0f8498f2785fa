package service

import (
	"context"
	"fmt"
	"log"

	"jobnpart/internal/workshop/models"
)

// ============================================================
// Job Intake
// ============================================================

// HandoffStore хранит данные, передаваемые со страницы заказ-наряда в чат.
type HandoffStore interface {
	SaveHandoff(ctx context.Context, data *models.ChatPageData) (string, error)
	LoadHandoff(ctx context.Context, token string) (*models.ChatPageData, error)
}

type JobService struct {
	analyser Analyser
	handoffs HandoffStore
}

func NewJobService(analyser Analyser, handoffs HandoffStore) *JobService {
	return &JobService{analyser: analyser, handoffs: handoffs}
}

// Submission: результат приёма заказ-наряда.
type Submission struct {
	Handoff  string               `json:"handoff"`
	Diagrams int                  `json:"diagrams"`
	Data     *models.ChatPageData `json:"data"`
}

// Submit проверяет заказ-наряд, запрашивает анализ и сохраняет hand-off.
// Ошибка валидации возвращается как *models.ValidationError.
func (s *JobService) Submit(ctx context.Context, job *models.JobDetails) (*Submission, error) {
	if job == nil {
		return nil, &models.ValidationError{Fields: map[string]string{"jobDetails": "required"}}
	}
	if err := job.Normalize(); err != nil {
		return nil, err
	}

	log.Printf("[JOBS] analysing job %s (%d work items)", job.JobNumber, len(job.WorkItems))

	diagrams, err := s.analyser.Analyse(ctx, job)
	if err != nil {
		return nil, fmt.Errorf("analyse job %s: %w", job.JobNumber, err)
	}

	data := &models.ChatPageData{JobDetails: job, PartsDataList: diagrams}
	token, err := s.handoffs.SaveHandoff(ctx, data)
	if err != nil {
		return nil, fmt.Errorf("save handoff: %w", err)
	}

	log.Printf("[JOBS] job %s analysed: %d diagrams, handoff=%s", job.JobNumber, len(diagrams), token)
	return &Submission{Handoff: token, Diagrams: len(diagrams), Data: data}, nil
}
