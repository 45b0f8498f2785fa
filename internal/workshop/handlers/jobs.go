package handlers

import (
	"context"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"jobnpart/internal/workshop/models"
	"jobnpart/internal/workshop/service"
)

// ============================================================
// Jobs Handler
// ============================================================

// RawHandoffs отдаёт hand-off в том виде, как он сохранён.
type RawHandoffs interface {
	LoadHandoffRaw(ctx context.Context, token string) (string, error)
}

type JobsHandler struct {
	jobs     *service.JobService
	handoffs RawHandoffs
}

func NewJobsHandler(jobs *service.JobService, handoffs RawHandoffs) *JobsHandler {
	return &JobsHandler{jobs: jobs, handoffs: handoffs}
}

// Submit принимает форму заказ-наряда и возвращает токен hand-off.
func (h *JobsHandler) Submit(c fiber.Ctx) error {
	var job models.JobDetails
	if err := decodeBody(c, &job); err != nil {
		return badRequest(c, err)
	}

	sub, err := h.jobs.Submit(context.Background(), &job)
	if err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(sub)
}

// GetHandoff возвращает сохранённые данные страницы чата без разбора.
func (h *JobsHandler) GetHandoff(c fiber.Ctx) error {
	token := c.Params("token")

	raw, err := h.handoffs.LoadHandoffRaw(context.Background(), token)
	if err != nil {
		return writeError(c, err)
	}
	if raw == "" {
		log.Printf("[JOBS] handoff %s not found", token)
		return writeError(c, models.ErrHandoffMissing)
	}

	c.Set("Content-Type", "application/json")
	return c.SendString(raw)
}
