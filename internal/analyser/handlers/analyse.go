package handlers

import (
	"encoding/json"
	"fmt"
	"log"
	"net/http"
	"strconv"
	"strings"

	"github.com/gofiber/fiber/v3"

	"jobnpart/internal/analyser/fixtures"
	"jobnpart/internal/analyser/models"
	workshop "jobnpart/internal/workshop/models"
)

// ============================================================
// Analyse Handler
// ============================================================

type AnalyseHandler struct {
	store   *fixtures.Store
	baseURL string
}

func NewAnalyseHandler(store *fixtures.Store, baseURL string) *AnalyseHandler {
	return &AnalyseHandler{store: store, baseURL: baseURL}
}

// AnalyseJob проверяет форму заказ-наряда и отдаёт диаграммы из набора.
func (h *AnalyseHandler) AnalyseJob(c fiber.Ctx) error {
	log.Printf("[ANALYSER] analyse-job, Content-Length: %d", len(c.Body()))

	var job workshop.JobDetails
	if err := json.Unmarshal(c.Body(), &job); err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid JSON payload"})
	}

	if missing := missingFields(job); len(missing) > 0 {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{
			"error":   "missing required fields",
			"missing": missing,
		})
	}

	diagrams := h.store.Diagrams(h.baseURL)
	log.Printf("[ANALYSER] job %s: %d work items -> %d diagrams", job.JobNumber, len(job.WorkItems), len(diagrams))
	return c.JSON(diagrams)
}

// HaynesPro: заглушка поиска норм времени по VIN.
func (h *AnalyseHandler) HaynesPro(c fiber.Ctx) error {
	var job models.HaynesProJob
	if err := json.Unmarshal(c.Body(), &job); err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	if strings.TrimSpace(job.VIN) == "" {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": "missing required fields", "missing": []string{"vin"}})
	}
	return c.JSON(repairTimes(job.WorkItems))
}

// HPJobInfo: заглушка поиска норм времени по полному заказ-наряду.
func (h *AnalyseHandler) HPJobInfo(c fiber.Ctx) error {
	var job workshop.JobDetails
	if err := json.Unmarshal(c.Body(), &job); err != nil {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": "invalid JSON payload"})
	}
	if missing := missingFields(job); len(missing) > 0 {
		return c.Status(http.StatusUnprocessableEntity).JSON(fiber.Map{"error": "missing required fields", "missing": missing})
	}
	return c.JSON(repairTimes(job.WorkItems))
}

// DiagramImage отдаёт PNG-лист диаграммы :index.
func (h *AnalyseHandler) DiagramImage(c fiber.Ctx) error {
	name := strings.TrimSuffix(c.Params("name"), ".png")
	index, err := strconv.Atoi(name)
	if err != nil {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "diagram not found"})
	}

	d, ok := h.store.Diagram(index)
	if !ok {
		return c.Status(http.StatusNotFound).JSON(fiber.Map{"error": "diagram not found"})
	}

	data, err := fixtures.RenderSheet(d)
	if err != nil {
		log.Printf("[ANALYSER] render sheet %d: %v", index, err)
		return c.Status(http.StatusInternalServerError).JSON(fiber.Map{"error": err.Error()})
	}

	c.Set("Content-Type", "image/png")
	c.Set("Cache-Control", "public, max-age=3600")
	return c.Send(data)
}

func missingFields(job workshop.JobDetails) []string {
	var missing []string
	if strings.TrimSpace(job.JobNumber) == "" {
		missing = append(missing, "jobNumber")
	}
	if strings.TrimSpace(job.VIN) == "" {
		missing = append(missing, "vin")
	}
	if job.WorkItems == nil {
		missing = append(missing, "workItems")
	}
	return missing
}

func repairTimes(items []workshop.WorkItem) []models.RepairTimeResult {
	results := make([]models.RepairTimeResult, 0, len(items))
	for _, item := range items {
		results = append(results, models.Unresolved(item.Description, fmt.Sprintf(
			"Could not determine a carTypeGroup for '%s'. Skipping Haynes Pro search for this item.", item.Description)))
	}
	return results
}
