package handlers

import (
	"github.com/gofiber/fiber/v3"
)

// Register подключает маршруты workshop-сервиса.
func Register(app *fiber.App, jobs *JobsHandler, sessions *SessionHandler, stream *StreamHandler) {
	app.Post("/jobs", jobs.Submit)
	app.Get("/handoffs/:token", jobs.GetHandoff)

	app.Post("/sessions", sessions.Open)
	app.Get("/sessions/:id", sessions.Get)
	app.Delete("/sessions/:id", sessions.Close)
	app.Put("/sessions/:id/view", sessions.SetView)

	// Diagram viewer
	app.Post("/sessions/:id/diagram", sessions.SelectDiagram)
	app.Put("/sessions/:id/diagram/rendered-size", sessions.SetRenderedSize)
	app.Get("/sessions/:id/diagram/hotspots", sessions.Hotspots)
	app.Get("/sessions/:id/diagram/overlay.svg", sessions.Overlay)
	app.Get("/sessions/:id/diagram/legend", sessions.Legend)

	// Part selection
	app.Post("/sessions/:id/legend/:position/toggle", sessions.ToggleExpansion)
	app.Post("/sessions/:id/parts/:number/toggle", sessions.TogglePart)
	app.Post("/sessions/:id/hotspots/:position/select", sessions.SelectHotspot)
	app.Post("/sessions/:id/selection/confirm", sessions.ConfirmSelection)

	// Chat
	app.Get("/sessions/:id/chat", sessions.Chat)
	app.Post("/sessions/:id/chat/messages", sessions.SendMessage)
	app.Post("/sessions/:id/chat/options", sessions.SelectOption)
	app.Post("/sessions/:id/chat/categories", sessions.SelectCategory)
	app.Post("/sessions/:id/chat/parts", sessions.AddChatPart)

	// Job parts
	app.Get("/sessions/:id/job/parts", sessions.JobParts)
	app.Put("/sessions/:id/job/parts/:number", sessions.UpdateQuantity)

	app.Get("/sessions/:id/events", stream.Stream)
}
