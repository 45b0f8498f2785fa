package handlers

import (
	"bufio"
	"fmt"
	"log"
	"time"

	"github.com/gofiber/fiber/v3"

	"jobnpart/internal/workshop/events"
	"jobnpart/internal/workshop/service"
)

// ============================================================
// Event Stream
// ============================================================

type StreamHandler struct {
	manager   *service.WorkspaceManager
	hub       *events.Hub
	heartbeat time.Duration
}

func NewStreamHandler(manager *service.WorkspaceManager, hub *events.Hub) *StreamHandler {
	return &StreamHandler{manager: manager, hub: hub, heartbeat: 30 * time.Second}
}

// Stream отдаёт события сессии как text/event-stream.
// GET /sessions/:id/events
func (h *StreamHandler) Stream(c fiber.Ctx) error {
	id := param(c, "id")
	c.Locals("session", id)
	if _, err := h.manager.Get(id); err != nil {
		return writeError(c, err)
	}

	sub := h.hub.Subscribe(id)

	c.Set("Content-Type", "text/event-stream")
	c.Set("Cache-Control", "no-cache")
	c.Set("Connection", "keep-alive")
	c.Set("X-Accel-Buffering", "no")

	return c.SendStreamWriter(func(w *bufio.Writer) {
		defer h.hub.Unsubscribe(sub.ID)

		fmt.Fprintf(w, "event: connected\ndata: {\"subscriber\":%q}\n\n", sub.ID)
		if err := w.Flush(); err != nil {
			return
		}

		heartbeat := time.NewTicker(h.heartbeat)
		defer heartbeat.Stop()

		for {
			select {
			case event, ok := <-sub.Events:
				if !ok {
					return
				}
				fmt.Fprintf(w, "event: %s\ndata: %s\n\n", event.Type, event.Data)
			case <-heartbeat.C:
				w.WriteString(": keepalive\n\n")
			}
			if err := w.Flush(); err != nil {
				log.Printf("[EVENTS] subscriber %s gone: %v", sub.ID, err)
				return
			}
		}
	})
}
