package handlers

import (
	"context"
	"errors"
	"net/http"
	"strings"

	"github.com/gofiber/fiber/v3"
	"github.com/gofiber/utils/v2"

	"jobnpart/internal/workshop/catalog"
	"jobnpart/internal/workshop/repository"
	"jobnpart/internal/workshop/service"
)

// ============================================================
// Session Handler
// ============================================================

type SessionHandler struct {
	manager *service.WorkspaceManager
}

func NewSessionHandler(manager *service.WorkspaceManager) *SessionHandler {
	return &SessionHandler{manager: manager}
}

type openRequest struct {
	Handoff string `json:"handoff"`
}

type diagramRequest struct {
	Index *int `json:"index"`
}

type sizeRequest struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

type viewRequest struct {
	View service.View `json:"view"`
}

type textRequest struct {
	Text string `json:"text"`
}

type optionRequest struct {
	Value string `json:"value"`
}

type categoryRequest struct {
	Category string `json:"category"`
}

type partRequest struct {
	Part catalog.Part `json:"part"`
}

type quantityRequest struct {
	Quantity *int `json:"quantity"`
}

// param копирует параметр пути: строка из c.Params живёт только до конца
// обработчика, а id деталей и позиций остаются в состоянии сессии.
func param(c fiber.Ctx, key string) string {
	return utils.CopyString(c.Params(key))
}

// workspace находит сессию по :id и кладёт id в locals для логгера.
func (h *SessionHandler) workspace(c fiber.Ctx) (*service.Workspace, error) {
	id := param(c, "id")
	c.Locals("session", id)
	return h.manager.Get(id)
}

// Open создаёт рабочую сессию по токену hand-off.
func (h *SessionHandler) Open(c fiber.Ctx) error {
	var req openRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if strings.TrimSpace(req.Handoff) == "" {
		return badRequest(c, errors.New("handoff required"))
	}

	w, err := h.manager.Open(context.Background(), req.Handoff)
	if err != nil {
		return writeError(c, err)
	}
	c.Locals("session", w.ID)
	return c.Status(http.StatusCreated).JSON(w.Snapshot())
}

func (h *SessionHandler) Get(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(w.Snapshot())
}

func (h *SessionHandler) Close(c fiber.Ctx) error {
	id := param(c, "id")
	c.Locals("session", id)
	if err := h.manager.Close(id); err != nil {
		return writeError(c, err)
	}
	return c.SendStatus(http.StatusNoContent)
}

func (h *SessionHandler) SetView(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req viewRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := w.SetView(req.View); err != nil {
		return writeError(c, err)
	}
	return c.JSON(w.Snapshot())
}

// ============================================================
// Diagram
// ============================================================

func (h *SessionHandler) SelectDiagram(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req diagramRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if req.Index == nil {
		return badRequest(c, errors.New("index required"))
	}
	if err := w.SelectDiagram(*req.Index); err != nil {
		return writeError(c, err)
	}
	return c.JSON(w.Snapshot())
}

// SetRenderedSize: клиент сообщает размер изображения на экране.
func (h *SessionHandler) SetRenderedSize(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req sizeRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := w.SetRenderedSize(req.Width, req.Height); err != nil {
		return writeError(c, err)
	}
	return c.JSON(w.Hotspots())
}

func (h *SessionHandler) Hotspots(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(w.Hotspots())
}

func (h *SessionHandler) Overlay(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	svg, err := w.Overlay()
	if err != nil {
		return writeError(c, err)
	}
	c.Set("Content-Type", "image/svg+xml")
	return c.SendString(svg)
}

func (h *SessionHandler) Legend(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	legend, err := w.Legend()
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"sections": legend})
}

// ============================================================
// Selection
// ============================================================

func (h *SessionHandler) ToggleExpansion(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	position := param(c, "position")
	expanded, err := w.ToggleExpansion(position)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"position": position, "expanded": expanded})
}

func (h *SessionHandler) TogglePart(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	number := param(c, "number")
	selected, err := w.TogglePart(number)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{
		"number":        number,
		"selected":      selected,
		"selectedParts": w.Snapshot().SelectedParts,
	})
}

func (h *SessionHandler) SelectHotspot(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	matched, err := w.SelectHotspot(param(c, "position"))
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"matched": matched, "session": w.Snapshot()})
}

func (h *SessionHandler) ConfirmSelection(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	ids, err := w.Confirm(context.Background())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"confirmed": ids})
}

// ============================================================
// Chat
// ============================================================

func (h *SessionHandler) Chat(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(w.Chat())
}

func (h *SessionHandler) SendMessage(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req textRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if !w.SendMessage(req.Text) {
		return badRequest(c, errors.New("text required"))
	}
	return c.Status(http.StatusAccepted).JSON(w.Chat())
}

func (h *SessionHandler) SelectOption(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req optionRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if !w.SelectOption(req.Value) {
		return badRequest(c, errors.New("unknown option"))
	}
	return c.JSON(w.Chat())
}

func (h *SessionHandler) SelectCategory(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req categoryRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if strings.TrimSpace(req.Category) == "" {
		return badRequest(c, errors.New("category required"))
	}
	w.SelectCategory(req.Category)
	return c.JSON(w.Chat())
}

// AddChatPart: кнопка «Add to Job» на карточке детали.
func (h *SessionHandler) AddChatPart(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req partRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if err := w.AddChatPart(context.Background(), req.Part); err != nil {
		return writeError(c, err)
	}
	return c.Status(http.StatusCreated).JSON(w.Chat())
}

// ============================================================
// Job parts
// ============================================================

func (h *SessionHandler) JobParts(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	parts, err := w.JobParts(context.Background())
	if err != nil {
		return writeError(c, err)
	}
	return c.JSON(fiber.Map{"parts": parts, "total": repository.Total(parts)})
}

func (h *SessionHandler) UpdateQuantity(c fiber.Ctx) error {
	w, err := h.workspace(c)
	if err != nil {
		return writeError(c, err)
	}

	var req quantityRequest
	if err := decodeBody(c, &req); err != nil {
		return badRequest(c, err)
	}
	if req.Quantity == nil {
		return badRequest(c, errors.New("quantity required"))
	}
	if err := w.UpdatePartQuantity(context.Background(), param(c, "number"), *req.Quantity); err != nil {
		return writeError(c, err)
	}
	return h.JobParts(c)
}
