package main

import (
	"context"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"jobnpart/internal/common/config"
	"jobnpart/internal/common/middleware"
	"jobnpart/internal/workshop/catalog"
	"jobnpart/internal/workshop/chat"
	"jobnpart/internal/workshop/diagram"
	"jobnpart/internal/workshop/events"
	"jobnpart/internal/workshop/handlers"
	"jobnpart/internal/workshop/repository"
	"jobnpart/internal/workshop/service"

	_ "github.com/ncruces/go-sqlite3/driver"
	_ "github.com/ncruces/go-sqlite3/embed"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/fiber/v3/middleware/recover"
)

// ============================================================
// Workshop Service
// ============================================================

func main() {
	cfg := config.Load()
	if os.Getenv("PORT") == "" {
		cfg.Port = "3002"
	}

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	db, err := repository.OpenSQLite(cfg.DBPath)
	if err != nil {
		log.Fatalf("open db: %v", err)
	}
	defer db.Close()

	repo := repository.New(db)
	if err := repo.Init(ctx); err != nil {
		log.Fatalf("init db: %v", err)
	}

	parts, err := catalog.Open(cfg.CatalogPath)
	if err != nil {
		log.Fatalf("open catalog: %v", err)
	}
	if err := parts.Watch(ctx); err != nil {
		log.Printf("[CATALOG] hot reload disabled: %v", err)
	}

	go pruneHandoffs(ctx, repo, cfg.HandoffTTL())

	httpClient := &http.Client{Timeout: time.Duration(cfg.ProbeTimeout) * time.Second}
	hub := events.NewHub(64)
	manager := service.NewWorkspaceManager(repo, service.WorkspaceDeps{
		Parts:        repo,
		Hub:          hub,
		Prober:       diagram.NewHTTPProber(httpClient),
		Catalog:      parts,
		Scheduler:    chat.TimerScheduler{},
		SearchDelay:  cfg.SearchDelay(),
		LookupDelay:  cfg.LookupDelay(),
		ProbeTimeout: time.Duration(cfg.ProbeTimeout) * time.Second,
	})
	defer manager.CloseAll()

	analysis := service.NewAnalysisClient(cfg.AnalysisURL, &http.Client{Timeout: 2 * time.Minute})
	jobs := service.NewJobService(analysis, repo)

	app := fiber.New(fiber.Config{
		ReadTimeout: time.Duration(cfg.ReadTimeout) * time.Second,
		// SSE держит соединение открытым, WriteTimeout не задаём
		AppName: "Workshop Service",
	})

	// ============================================================
	// Global Middleware
	// ============================================================

	app.Use(recover.New())
	app.Use(middleware.Logger("workshop"))
	app.Use(middleware.CORS())

	// ============================================================
	// Health Check Routes
	// ============================================================

	app.Get("/health/live", func(c fiber.Ctx) error {
		return c.JSON(fiber.Map{"status": "alive"})
	})

	app.Get("/health/ready", func(c fiber.Ctx) error {
		if err := db.PingContext(context.Background()); err != nil {
			return c.Status(http.StatusServiceUnavailable).JSON(fiber.Map{"status": "not ready", "error": err.Error()})
		}
		return c.JSON(fiber.Map{"status": "ready"})
	})

	// ============================================================
	// Workshop Routes
	// ============================================================

	handlers.Register(app,
		handlers.NewJobsHandler(jobs, repo),
		handlers.NewSessionHandler(manager),
		handlers.NewStreamHandler(manager, hub),
	)

	// ============================================================
	// Server Start
	// ============================================================

	go func() {
		<-ctx.Done()
		log.Printf("Shutting down Workshop Service")
		if err := app.Shutdown(); err != nil {
			log.Printf("shutdown: %v", err)
		}
	}()

	addr := fmt.Sprintf(":%s", cfg.Port)
	log.Printf("Starting Workshop Service on %s (env: %s)", addr, cfg.Environment)

	if err := app.Listen(addr); err != nil {
		log.Fatalf("Failed to start server: %v", err)
	}
}

// pruneHandoffs раз в час удаляет устаревшие hand-off'ы.
func pruneHandoffs(ctx context.Context, repo *repository.Repository, ttl time.Duration) {
	ticker := time.NewTicker(time.Hour)
	defer ticker.Stop()

	for {
		if n, err := repo.PruneHandoffs(ctx, ttl); err != nil {
			log.Printf("[HANDOFF] prune: %v", err)
		} else if n > 0 {
			log.Printf("[HANDOFF] pruned %d expired handoffs", n)
		}

		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
