package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"
	"time"

	"jobnpart/internal/workshop/catalog"
	"jobnpart/internal/workshop/chat"
	"jobnpart/internal/workshop/diagram"
	"jobnpart/internal/workshop/events"
	"jobnpart/internal/workshop/models"
	"jobnpart/internal/workshop/selection"
)

// ============================================================
// Workspace
// ============================================================

type View string

const (
	ViewDiagram View = "diagram"
	ViewChat    View = "chat"
)

var (
	ErrNoDiagram         = errors.New("no diagram selected")
	ErrDiagramIndex      = errors.New("diagram index out of range")
	ErrGeometryNotReady  = errors.New("diagram geometry is not ready")
	ErrInvalidView       = errors.New("unknown view")
	ErrInvalidRenderSize = errors.New("rendered size must not be negative")
)

// JobPartsStore: список деталей заказ-наряда.
type JobPartsStore interface {
	AddPart(ctx context.Context, part models.JobPart) error
	UpdateQuantity(ctx context.Context, jobNumber, number string, quantity int) error
	ListParts(ctx context.Context, jobNumber string) ([]models.JobPart, error)
}

// WorkspaceDeps: общие зависимости всех рабочих сессий.
type WorkspaceDeps struct {
	Parts        JobPartsStore
	Hub          *events.Hub
	Prober       diagram.Prober
	Renderer     *diagram.Renderer
	Catalog      *catalog.Catalog
	Scheduler    chat.Scheduler
	SearchDelay  time.Duration
	LookupDelay  time.Duration
	ProbeTimeout time.Duration
}

// Focus: деталь, выбранная через hotspot.
type Focus struct {
	Position   string `json:"position"`
	PartNumber string `json:"partNumber"`
}

type DiagramSummary struct {
	Index       int    `json:"index"`
	Image       string `json:"image"`
	Description string `json:"description,omitempty"`
	Brand       string `json:"brand,omitempty"`
	Positions   int    `json:"positions"`
}

// Snapshot: состояние рабочей сессии для клиента.
type Snapshot struct {
	ID                string             `json:"id"`
	JobDetails        *models.JobDetails `json:"jobDetails"`
	Diagrams          []DiagramSummary   `json:"diagrams"`
	CurrentDiagram    int                `json:"currentDiagram"`
	View              View               `json:"view"`
	GeometryReady     bool               `json:"geometryReady"`
	Focus             *Focus             `json:"focus,omitempty"`
	SelectedParts     []string           `json:"selectedParts"`
	ExpandedPositions []string           `json:"expandedPositions"`
	Category          string             `json:"category,omitempty"`
}

type HotspotView struct {
	Ready    bool              `json:"ready"`
	ScaleX   float64           `json:"scaleX"`
	ScaleY   float64           `json:"scaleY"`
	Hotspots []diagram.Hotspot `json:"hotspots"`
}

type LegendPart struct {
	models.Part
	Selected bool `json:"selected"`
}

type LegendSection struct {
	Position string       `json:"position"`
	Expanded bool         `json:"expanded"`
	Parts    []LegendPart `json:"parts"`
}

// Workspace: рабочая сессия по одному заказ-наряду. Все операции
// выполняются под mu по очереди, как обработчики событий страницы.
type Workspace struct {
	ID string

	mu   sync.Mutex
	deps *WorkspaceDeps

	ctx    context.Context
	cancel context.CancelFunc

	job      *models.JobDetails
	diagrams []models.PartsData
	current  int
	view     View
	geometry diagram.Geometry
	focus    *Focus
	category string

	selection    *selection.State
	tracker      *diagram.Tracker
	conversation *chat.Conversation

	confirmed []string
}

func newWorkspace(id string, data *models.ChatPageData, deps *WorkspaceDeps) *Workspace {
	ctx, cancel := context.WithCancel(context.Background())
	w := &Workspace{
		ID:       id,
		deps:     deps,
		ctx:      ctx,
		cancel:   cancel,
		job:      data.JobDetails,
		diagrams: data.PartsDataList,
		current:  -1,
		view:     ViewChat,
		tracker:  diagram.NewTracker(),
	}
	w.selection = selection.New(nil, workspaceListener{w})
	w.conversation = chat.New(chat.Config{
		Catalog:     deps.Catalog,
		Scheduler:   deps.Scheduler,
		SearchDelay: deps.SearchDelay,
		LookupDelay: deps.LookupDelay,
		OnUpdate: func() {
			w.publish(events.TypeChatUpdated, map[string]string{"reason": "search_finished"})
		},
		OnCategory: w.categorySelectedLocked,
	})

	w.mu.Lock()
	defer w.mu.Unlock()

	w.conversation.Start(w.job, "")
	if len(w.diagrams) > 0 {
		w.view = ViewDiagram
		w.selectDiagramLocked(0)
	}
	return w
}

// Close останавливает загрузку размеров и ожидающий поиск.
func (w *Workspace) Close() {
	w.mu.Lock()
	defer w.mu.Unlock()

	w.cancel()
	w.tracker.Invalidate()
	w.conversation.Close()
}

func (w *Workspace) JobNumber() string {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.job.JobNumber
}

func (w *Workspace) Snapshot() Snapshot {
	w.mu.Lock()
	defer w.mu.Unlock()

	summaries := make([]DiagramSummary, 0, len(w.diagrams))
	for i := range w.diagrams {
		d := &w.diagrams[i]
		summaries = append(summaries, DiagramSummary{
			Index:       i,
			Image:       d.ImageURL(),
			Description: d.ImgDescription,
			Brand:       d.Brand,
			Positions:   len(d.Positions),
		})
	}

	expanded := make([]string, 0)
	for position := range w.selection.Expanded() {
		expanded = append(expanded, position)
	}
	diagram.SortPositions(expanded)

	var focus *Focus
	if w.focus != nil {
		f := *w.focus
		focus = &f
	}

	return Snapshot{
		ID:                w.ID,
		JobDetails:        w.job,
		Diagrams:          summaries,
		CurrentDiagram:    w.current,
		View:              w.view,
		GeometryReady:     w.geometry.Ready(),
		Focus:             focus,
		SelectedParts:     w.selection.Selected(),
		ExpandedPositions: expanded,
		Category:          w.category,
	}
}

// SetView переключает вкладку диаграмма / чат.
func (w *Workspace) SetView(view View) error {
	if view != ViewDiagram && view != ViewChat {
		return ErrInvalidView
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if view == ViewDiagram && w.current < 0 {
		return ErrNoDiagram
	}
	w.view = view
	return nil
}

// ============================================================
// Diagram viewer
// ============================================================

// SelectDiagram показывает диаграмму index: сбрасывает выбор, раскрытие и
// геометрию и запускает загрузку натурального размера изображения.
func (w *Workspace) SelectDiagram(index int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if index < 0 || index >= len(w.diagrams) {
		return ErrDiagramIndex
	}
	w.view = ViewDiagram
	w.selectDiagramLocked(index)
	return nil
}

func (w *Workspace) selectDiagramLocked(index int) {
	w.current = index
	current := &w.diagrams[index]
	w.selection.Reset(current)
	w.geometry = diagram.Geometry{}

	imageURL := current.ImageURL()
	ticket := w.tracker.Begin(fmt.Sprintf("%d|%s", index, imageURL))
	if imageURL == "" || w.deps.Prober == nil {
		log.Printf("[WORKSPACE] %s: diagram %d has no image to probe", w.ID, index)
		return
	}

	go w.probe(ticket, imageURL)
}

func (w *Workspace) probe(ticket diagram.Ticket, imageURL string) {
	ctx := w.ctx
	if w.deps.ProbeTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, w.deps.ProbeTimeout)
		defer cancel()
	}

	size, err := w.deps.Prober.Probe(ctx, imageURL)
	if err != nil {
		log.Printf("[WORKSPACE] %s: original size of %s: %v", w.ID, imageURL, err)
		return
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if !w.tracker.Accept(ticket) {
		log.Printf("[WORKSPACE] %s: stale image size for %s ignored", w.ID, ticket.Key)
		return
	}
	w.geometry.Original = &size
	w.publish(events.TypeDiagramReady, map[string]any{
		"index":  w.current,
		"width":  size.Width,
		"height": size.Height,
	})
}

// SetRenderedSize фиксирует размер изображения на экране.
func (w *Workspace) SetRenderedSize(width, height float64) error {
	if width < 0 || height < 0 {
		return ErrInvalidRenderSize
	}

	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return ErrNoDiagram
	}
	w.geometry.Rendered = &diagram.Size{Width: width, Height: height}
	return nil
}

func (w *Workspace) Hotspots() HotspotView {
	w.mu.Lock()
	defer w.mu.Unlock()

	view := HotspotView{Hotspots: []diagram.Hotspot{}}
	sx, sy, ok := w.geometry.Scale()
	if !ok || w.current < 0 {
		return view
	}

	view.Ready = true
	view.ScaleX, view.ScaleY = sx, sy
	view.Hotspots = diagram.MapHotspots(w.geometry, w.diagrams[w.current].Positions)
	return view
}

// Overlay: SVG-слой hotspot'ов текущей диаграммы.
func (w *Workspace) Overlay() (string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return "", ErrNoDiagram
	}
	if !w.geometry.Ready() {
		return "", ErrGeometryNotReady
	}

	spots := diagram.MapHotspots(w.geometry, w.diagrams[w.current].Positions)
	return w.deps.Renderer.Render(w.geometry, spots, w.selection.Expanded())
}

// Legend: детали текущей диаграммы по позициям в натуральном порядке.
func (w *Workspace) Legend() ([]LegendSection, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return nil, ErrNoDiagram
	}

	grouped := diagram.GroupByPosition(&w.diagrams[w.current])
	sections := make([]LegendSection, 0, len(grouped))
	for _, group := range grouped {
		section := LegendSection{
			Position: group.Position,
			Expanded: w.selection.IsExpanded(group.Position),
			Parts:    make([]LegendPart, 0, len(group.Parts)),
		}
		for _, part := range group.Parts {
			section.Parts = append(section.Parts, LegendPart{Part: part, Selected: w.selection.IsSelected(part.Number)})
		}
		sections = append(sections, section)
	}
	return sections, nil
}

// ============================================================
// Part selection
// ============================================================

func (w *Workspace) ToggleExpansion(position string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return false, ErrNoDiagram
	}
	return w.selection.ToggleExpansion(position), nil
}

func (w *Workspace) TogglePart(number string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return false, ErrNoDiagram
	}
	return w.selection.ToggleSelection(number), nil
}

// SelectHotspot: нажатие на hotspot позиции.
func (w *Workspace) SelectHotspot(position string) (bool, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return false, ErrNoDiagram
	}
	return w.selection.SelectHotspot(position), nil
}

// Confirm подтверждает выбор и добавляет детали в заказ-наряд.
func (w *Workspace) Confirm(ctx context.Context) ([]string, error) {
	w.mu.Lock()
	defer w.mu.Unlock()

	if w.current < 0 {
		return nil, ErrNoDiagram
	}

	w.confirmed = nil
	ids := w.selection.ConfirmSelection()
	current := &w.diagrams[w.current]

	for _, number := range w.confirmed {
		jobPart := models.JobPart{JobNumber: w.job.JobNumber, Number: number, Name: number, Source: "Parts diagram"}
		if part, ok := current.FindPart(number); ok && part.Name != "" {
			jobPart.Name = part.Name
		}
		if err := w.deps.Parts.AddPart(ctx, jobPart); err != nil {
			return ids, fmt.Errorf("add confirmed part %s: %w", number, err)
		}
	}
	if len(w.confirmed) > 0 {
		w.publish(events.TypeJobPartsUpdated, map[string]any{"added": w.confirmed})
	}
	return ids, nil
}

// workspaceListener получает события выбора. Вызывается под w.mu.
type workspaceListener struct {
	w *Workspace
}

func (l workspaceListener) HotspotSelected(position, partNumber string) {
	w := l.w
	w.focus = &Focus{Position: position, PartNumber: partNumber}
	w.view = ViewChat
	w.conversation.Start(w.job, partNumber)

	log.Printf("[WORKSPACE] %s: focus position=%s part=%s", w.ID, position, partNumber)
	w.publish(events.TypeHotspotFocus, w.focus)
}

func (l workspaceListener) SelectionConfirmed(partNumbers []string) {
	w := l.w
	w.confirmed = partNumbers

	log.Printf("[WORKSPACE] %s: confirmed %d parts", w.ID, len(partNumbers))
	w.publish(events.TypeSelectionConfirmed, map[string]any{"parts": partNumbers})
}

// ============================================================
// Chat
// ============================================================

func (w *Workspace) Chat() chat.Snapshot {
	return w.conversation.Snapshot()
}

func (w *Workspace) SendMessage(text string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conversation.Send(text)
}

func (w *Workspace) SelectOption(value string) bool {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.conversation.SelectOption(value)
}

func (w *Workspace) SelectCategory(category string) {
	w.mu.Lock()
	defer w.mu.Unlock()
	w.conversation.SelectCategory(category)
}

// categorySelectedLocked вызывается из чата под w.mu.
func (w *Workspace) categorySelectedLocked(category string) {
	w.category = category
	w.publish(events.TypeCategorySelected, map[string]string{"category": category})
}

// AddChatPart добавляет деталь из карточки чата в заказ-наряд.
func (w *Workspace) AddChatPart(ctx context.Context, part catalog.Part) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	err := w.deps.Parts.AddPart(ctx, models.JobPart{
		JobNumber: w.job.JobNumber,
		Number:    part.PartNumber,
		Name:      part.PartName,
		Source:    part.Source,
		Price:     part.Price,
	})
	if err != nil {
		return err
	}

	w.conversation.PartAdded(part)
	w.publish(events.TypeJobPartsUpdated, map[string]any{"added": []string{part.PartNumber}})
	return nil
}

// ============================================================
// Job parts
// ============================================================

func (w *Workspace) JobParts(ctx context.Context) ([]models.JobPart, error) {
	return w.deps.Parts.ListParts(ctx, w.JobNumber())
}

func (w *Workspace) UpdatePartQuantity(ctx context.Context, number string, quantity int) error {
	w.mu.Lock()
	defer w.mu.Unlock()

	if err := w.deps.Parts.UpdateQuantity(ctx, w.job.JobNumber, number, quantity); err != nil {
		return err
	}
	w.publish(events.TypeJobPartsUpdated, map[string]any{"number": number, "quantity": quantity})
	return nil
}

func (w *Workspace) publish(eventType string, payload any) {
	if w.deps.Hub == nil {
		return
	}
	w.deps.Hub.Publish(w.ID, events.New(eventType, payload))
}
