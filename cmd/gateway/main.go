package main

import (
	"fmt"
	"log"
	"net/http"
	"time"

	"jobnpart/internal/common/config"
	"jobnpart/internal/common/middleware"
	"jobnpart/internal/gateway/handlers"
	"jobnpart/internal/gateway/proxy"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// API Gateway
// ============================================================

func main() {
	cfg := config.Load()

	app := fiber.New(fiber.Config{
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		// /sessions/:id/events: долгий поток, WriteTimeout не задаём
		AppName: "API Gateway",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("gateway"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	health := handlers.NewHealth(nil, map[string]string{
		"workshop": cfg.WorkshopURL,
		"analyser": cfg.AnalysisURL,
	})
	app.Get("/health/live", health.LivenessProbe)
	app.Get("/health/ready", health.ReadinessProbe)
	app.Get("/health/startup", health.StartupProbe)

	// ============================================================
	// Docs
	// ============================================================

	app.Get("/docs", handlers.SwaggerUI("/docs/openapi.yaml", "JobNPart API", handlers.DocTags))
	app.Get("/docs/openapi.yaml", handlers.SwaggerSpec("docs/openapi.yaml"))

	// ============================================================
	// API Routes
	// ============================================================

	api := app.Group("/api/v1")

	api.Get("/", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{
			"message": "JobNPart API v1",
			"status":  "ok",
		})
	})

	// ============================================================
	// Service Routes (Proxy)
	// ============================================================

	p := proxy.New(&http.Client{Timeout: 0})

	// Analyser Service
	api.Post("/analyse-job", p.ProxyTo(cfg.AnalysisURL+"/analyse-job"))
	api.Post("/haynes-pro", p.ProxyTo(cfg.AnalysisURL+"/haynes-pro"))
	api.Post("/hp-job-info", p.ProxyTo(cfg.AnalysisURL+"/hp-job-info"))
	api.Get("/diagrams/:name", p.Mount("/api/v1", cfg.AnalysisURL))

	// Workshop Service
	toWorkshop := p.Mount("/api/v1", cfg.WorkshopURL)
	api.Post("/jobs", toWorkshop)
	api.Get("/handoffs/:token", toWorkshop)
	api.All("/sessions", toWorkshop)
	api.All("/sessions/*", toWorkshop)

	// ============================================================
	// Server Start
	// ============================================================

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting API Gateway on %s (env: %s)", addr, cfg.Environment)
	log.Printf("Proxying workshop routes to %s, analysis to %s", cfg.WorkshopURL, cfg.AnalysisURL)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}
