package handlers

import (
	"encoding/json"
	"errors"
	"log"
	"net/http"

	"github.com/gofiber/fiber/v3"

	"jobnpart/internal/workshop/models"
	"jobnpart/internal/workshop/repository"
	"jobnpart/internal/workshop/service"
)

var (
	errEmptyBody   = errors.New("empty body")
	errInvalidJSON = errors.New("invalid json")
)

// decodeBody разбирает JSON-тело запроса.
func decodeBody(c fiber.Ctx, dst any) error {
	if len(c.Body()) == 0 {
		return errEmptyBody
	}
	if err := json.Unmarshal(c.Body(), dst); err != nil {
		return errInvalidJSON
	}
	return nil
}

func badRequest(c fiber.Ctx, err error) error {
	return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
}

// writeError переводит доменные ошибки в HTTP-ответ.
func writeError(c fiber.Ctx, err error) error {
	var validation *models.ValidationError
	var analysis *service.AnalysisError

	switch {
	case errors.As(err, &validation):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": "validation failed", "fields": validation.Fields})
	case errors.As(err, &analysis):
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": analysis.Error()})
	case errors.Is(err, service.ErrAnalysisResponse):
		return c.Status(http.StatusBadGateway).JSON(fiber.Map{"error": "failed to analyze job details: invalid response"})
	case errors.Is(err, service.ErrSessionNotFound), errors.Is(err, models.ErrHandoffMissing):
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, models.ErrHandoffMalformed):
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrGeometryNotReady):
		return c.Status(http.StatusConflict).JSON(fiber.Map{"error": err.Error()})
	case errors.Is(err, service.ErrNoDiagram),
		errors.Is(err, service.ErrDiagramIndex),
		errors.Is(err, service.ErrInvalidView),
		errors.Is(err, service.ErrInvalidRenderSize),
		errors.Is(err, repository.ErrPartNumberRequired):
		return c.Status(http.StatusBadRequest).JSON(fiber.Map{"error": err.Error()})
	}

	log.Printf("[WORKSHOP] %s %s: %v", c.Method(), c.Path(), err)
	return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": "internal error"})
}
