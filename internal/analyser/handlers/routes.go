package handlers

import "github.com/gofiber/fiber/v3"

// Register подключает маршруты сервиса анализа.
func Register(app *fiber.App, h *AnalyseHandler) {
	app.Post("/analyse-job", h.AnalyseJob)
	app.Post("/haynes-pro", h.HaynesPro)
	app.Post("/hp-job-info", h.HPJobInfo)
	app.Get("/diagrams/:name", h.DiagramImage)
}
