package service

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"jobnpart/internal/workshop/catalog"
	"jobnpart/internal/workshop/chat"
	"jobnpart/internal/workshop/diagram"
	"jobnpart/internal/workshop/events"
	"jobnpart/internal/workshop/models"
)

// ============================================================
// fakes
// ============================================================

type memoryHandoffs struct {
	mu   sync.Mutex
	data map[string]*models.ChatPageData
}

func newMemoryHandoffs() *memoryHandoffs {
	return &memoryHandoffs{data: map[string]*models.ChatPageData{}}
}

func (m *memoryHandoffs) SaveHandoff(_ context.Context, data *models.ChatPageData) (string, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	token := "token-" + data.JobDetails.JobNumber
	m.data[token] = data
	return token, nil
}

func (m *memoryHandoffs) LoadHandoff(_ context.Context, token string) (*models.ChatPageData, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	data, ok := m.data[token]
	if !ok {
		return nil, models.ErrHandoffMissing
	}
	return data, nil
}

type memoryParts struct {
	mu    sync.Mutex
	parts []models.JobPart
}

func (m *memoryParts) AddPart(_ context.Context, part models.JobPart) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.parts {
		if m.parts[i].JobNumber == part.JobNumber && m.parts[i].Number == part.Number {
			m.parts[i].Quantity++
			return nil
		}
	}
	part.Quantity = 1
	m.parts = append(m.parts, part)
	return nil
}

func (m *memoryParts) UpdateQuantity(_ context.Context, jobNumber, number string, quantity int) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.parts {
		if m.parts[i].JobNumber == jobNumber && m.parts[i].Number == number {
			if quantity <= 0 {
				m.parts = append(m.parts[:i], m.parts[i+1:]...)
			} else {
				m.parts[i].Quantity = quantity
			}
			return nil
		}
	}
	return nil
}

func (m *memoryParts) ListParts(_ context.Context, jobNumber string) ([]models.JobPart, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := []models.JobPart{}
	for _, p := range m.parts {
		if p.JobNumber == jobNumber {
			out = append(out, p)
		}
	}
	return out, nil
}

// gatedProber отдаёт размер, когда тест откроет ворота для URL.
type gatedProber struct {
	sizes map[string]diagram.Size
	gates map[string]chan struct{}
}

func (p *gatedProber) Probe(ctx context.Context, imageURL string) (diagram.Size, error) {
	if gate, ok := p.gates[imageURL]; ok {
		select {
		case <-gate:
		case <-ctx.Done():
			return diagram.Size{}, ctx.Err()
		}
	}
	return p.sizes[imageURL], nil
}

type idleScheduler struct{}

type idleTask struct{}

func (idleTask) Stop() bool { return true }

func (idleScheduler) After(time.Duration, func()) chat.Task { return idleTask{} }

func testPageData() *models.ChatPageData {
	return &models.ChatPageData{
		JobDetails: &models.JobDetails{
			JobNumber: "J-7",
			VIN:       "TMBJJ7NE",
			Make:      "Skoda",
			Model:     "Octavia",
			Year:      "2019",
			WorkItems: []models.WorkItem{{Description: "Replace front brake pads", Category: "Brakes"}},
		},
		PartsDataList: []models.PartsData{
			{
				Img: "https://img.test/front.png",
				PartGroups: []models.PartGroup{{Parts: []models.Part{
					{Number: "BD-2", Name: "Brake disc", PositionNumber: "10"},
					{Number: "BP-1", Name: "Brake pad set", PositionNumber: "2"},
					{Number: "BC-3", Name: "Caliper", PositionNumber: "1A"},
					{Number: "", Name: "Bolt", PositionNumber: "7"},
				}}},
				Positions: []models.Position{
					{Number: "2", Coordinates: models.Coordinates{100, 100, 50, 50}},
					{Number: "10", Coordinates: models.Coordinates{400, 200, 8, 8}},
				},
			},
			{Img: "//img.test/rear.png"},
		},
	}
}

type fixture struct {
	manager *WorkspaceManager
	parts   *memoryParts
	hub     *events.Hub
	prober  *gatedProber
	token   string
}

func newFixture(t *testing.T, gates map[string]chan struct{}) *fixture {
	t.Helper()

	handoffs := newMemoryHandoffs()
	token, err := handoffs.SaveHandoff(context.Background(), testPageData())
	require.NoError(t, err)

	f := &fixture{
		parts: &memoryParts{},
		hub:   events.NewHub(16),
		prober: &gatedProber{
			sizes: map[string]diagram.Size{
				"https://img.test/front.png": {Width: 1000, Height: 500},
				"https://img.test/rear.png":  {Width: 800, Height: 800},
			},
			gates: gates,
		},
		token: token,
	}
	f.manager = NewWorkspaceManager(handoffs, WorkspaceDeps{
		Parts:        f.parts,
		Hub:          f.hub,
		Prober:       f.prober,
		Catalog:      catalog.New(),
		Scheduler:    idleScheduler{},
		ProbeTimeout: time.Second,
	})
	t.Cleanup(f.manager.CloseAll)
	return f
}

func waitReady(t *testing.T, w *Workspace) {
	t.Helper()
	require.Eventually(t, func() bool { return w.Snapshot().GeometryReady }, time.Second, 5*time.Millisecond)
}

// ============================================================
// Analysis client
// ============================================================

func TestAnalysisClient(t *testing.T) {
	var got models.JobDetails
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "/analyse-job", r.URL.Path)
		assert.Equal(t, http.MethodPost, r.Method)
		body, _ := io.ReadAll(r.Body)
		require.NoError(t, json.Unmarshal(body, &got))
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"img":"//img.test/a.png","positions":[{"number":"1","coordinates":[1,2,3,4]}]}]`)
	}))
	defer srv.Close()

	client := NewAnalysisClient(srv.URL+"/", srv.Client())
	list, err := client.Analyse(context.Background(), testPageData().JobDetails)
	require.NoError(t, err)

	assert.Equal(t, "J-7", got.JobNumber)
	require.Len(t, list, 1)
	assert.Equal(t, "https://img.test/a.png", list[0].ImageURL())
}

func TestAnalysisClientErrorStatus(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusBadGateway)
		io.WriteString(w, strings.Repeat("x", 300))
	}))
	defer srv.Close()

	_, err := NewAnalysisClient(srv.URL, nil).Analyse(context.Background(), &models.JobDetails{})
	require.Error(t, err)

	var analysisErr *AnalysisError
	require.ErrorAs(t, err, &analysisErr)
	assert.Equal(t, http.StatusBadGateway, analysisErr.Status)
	assert.Len(t, analysisErr.Body, 100)
	assert.Contains(t, err.Error(), "status: 502")
}

func TestAnalysisClientMixedTypes(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.Header().Set("Content-Type", "application/json")
		io.WriteString(w, `[{"img":"a.png","partGroups":[{"name":"G","parts":[
			{"number":12345,"positionNumber":"1"},{"number":"BP-1","positionNumber":"1"}]}],
			"positions":[{"number":1,"coordinates":[1,2,3,4]}]}]`)
	}))
	defer srv.Close()

	list, err := NewAnalysisClient(srv.URL, nil).Analyse(context.Background(), &models.JobDetails{})
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, "", list[0].PartGroups[0].Parts[0].Number)
	assert.Equal(t, "BP-1", list[0].PartGroups[0].Parts[1].Number)
	assert.Equal(t, "", list[0].Positions[0].Number)
}

func TestAnalysisClientUndecodableBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		io.WriteString(w, `{"detail":"not a list"}`)
	}))
	defer srv.Close()

	_, err := NewAnalysisClient(srv.URL, nil).Analyse(context.Background(), &models.JobDetails{})
	assert.ErrorIs(t, err, ErrAnalysisResponse)
}

// ============================================================
// Job intake
// ============================================================

type stubAnalyser struct {
	diagrams []models.PartsData
	err      error
	calls    int
}

func (s *stubAnalyser) Analyse(context.Context, *models.JobDetails) ([]models.PartsData, error) {
	s.calls++
	return s.diagrams, s.err
}

func TestJobServiceSubmit(t *testing.T) {
	analyser := &stubAnalyser{diagrams: testPageData().PartsDataList}
	handoffs := newMemoryHandoffs()
	svc := NewJobService(analyser, handoffs)

	job := &models.JobDetails{
		JobNumber: " J-9 ",
		VIN:       "VIN",
		WorkItems: []models.WorkItem{{Description: "  "}, {Description: "Brakes"}},
	}
	sub, err := svc.Submit(context.Background(), job)
	require.NoError(t, err)

	assert.Equal(t, 2, sub.Diagrams)
	data, err := handoffs.LoadHandoff(context.Background(), sub.Handoff)
	require.NoError(t, err)
	assert.Equal(t, "J-9", data.JobDetails.JobNumber)
	assert.Len(t, data.JobDetails.WorkItems, 1)
}

func TestJobServiceSubmitValidation(t *testing.T) {
	analyser := &stubAnalyser{}
	svc := NewJobService(analyser, newMemoryHandoffs())

	_, err := svc.Submit(context.Background(), &models.JobDetails{})

	var verr *models.ValidationError
	require.ErrorAs(t, err, &verr)
	assert.Contains(t, verr.Fields, "jobNumber")
	assert.Contains(t, verr.Fields, "vin")
	assert.Contains(t, verr.Fields, "workItems")
	assert.Zero(t, analyser.calls)
}

// ============================================================
// Workspace
// ============================================================

func TestOpenWorkspace(t *testing.T) {
	f := newFixture(t, nil)

	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)

	snap := w.Snapshot()
	assert.Equal(t, ViewDiagram, snap.View)
	assert.Equal(t, 0, snap.CurrentDiagram)
	require.Len(t, snap.Diagrams, 2)
	assert.Equal(t, "https://img.test/rear.png", snap.Diagrams[1].Image)

	got, err := f.manager.Get(w.ID)
	require.NoError(t, err)
	assert.Same(t, w, got)

	_, err = f.manager.Get("nope")
	assert.ErrorIs(t, err, ErrSessionNotFound)

	_, err = f.manager.Open(context.Background(), "missing")
	assert.ErrorIs(t, err, models.ErrHandoffMissing)
}

func TestOpenWithoutDiagramsShowsChat(t *testing.T) {
	handoffs := newMemoryHandoffs()
	token, _ := handoffs.SaveHandoff(context.Background(), &models.ChatPageData{
		JobDetails:    &models.JobDetails{JobNumber: "J-0"},
		PartsDataList: []models.PartsData{},
	})
	manager := NewWorkspaceManager(handoffs, WorkspaceDeps{Parts: &memoryParts{}, Scheduler: idleScheduler{}})
	defer manager.CloseAll()

	w, err := manager.Open(context.Background(), token)
	require.NoError(t, err)

	snap := w.Snapshot()
	assert.Equal(t, ViewChat, snap.View)
	assert.Equal(t, -1, snap.CurrentDiagram)
	assert.ErrorIs(t, w.SetView(ViewDiagram), ErrNoDiagram)

	_, err = w.SelectHotspot("1")
	assert.ErrorIs(t, err, ErrNoDiagram)
	assert.False(t, w.Hotspots().Ready)
}

func TestHotspotsAfterBothSizesKnown(t *testing.T) {
	f := newFixture(t, nil)
	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)

	assert.False(t, w.Hotspots().Ready)

	require.NoError(t, w.SetRenderedSize(500, 250))
	waitReady(t, w)

	view := w.Hotspots()
	require.True(t, view.Ready)
	assert.Equal(t, 0.5, view.ScaleX)
	assert.Equal(t, 0.5, view.ScaleY)
	// позиция 10 (8x8 → 4x4) слишком мала
	require.Len(t, view.Hotspots, 1)
	assert.Equal(t, diagram.Hotspot{Number: "2", X: 50, Y: 50, Width: 25, Height: 25}, view.Hotspots[0])

	svg, err := w.Overlay()
	require.NoError(t, err)
	assert.Contains(t, svg, `data-position="2"`)

	assert.ErrorIs(t, w.SetRenderedSize(-1, 5), ErrInvalidRenderSize)
}

func TestStaleOriginalSizeIgnored(t *testing.T) {
	front := make(chan struct{})
	rear := make(chan struct{})
	f := newFixture(t, map[string]chan struct{}{
		"https://img.test/front.png": front,
		"https://img.test/rear.png":  rear,
	})

	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)
	require.NoError(t, w.SetRenderedSize(400, 400))

	// переключились до того, как загрузился размер первой диаграммы
	require.NoError(t, w.SelectDiagram(1))
	require.NoError(t, w.SetRenderedSize(400, 400))

	close(rear)
	waitReady(t, w)
	close(front)
	time.Sleep(20 * time.Millisecond)

	view := w.Hotspots()
	assert.Equal(t, 0.5, view.ScaleX, "size of the rear diagram must win")
	assert.Equal(t, 0.5, view.ScaleY)
	assert.Equal(t, 1, w.Snapshot().CurrentDiagram)

	assert.ErrorIs(t, w.SelectDiagram(5), ErrDiagramIndex)
}

func TestLegendAndSelection(t *testing.T) {
	f := newFixture(t, nil)
	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)

	selected, err := w.TogglePart("BP-1")
	require.NoError(t, err)
	assert.True(t, selected)

	expanded, err := w.ToggleExpansion("10")
	require.NoError(t, err)
	assert.True(t, expanded)

	legend, err := w.Legend()
	require.NoError(t, err)

	var positions []string
	for _, s := range legend {
		positions = append(positions, s.Position)
	}
	assert.Equal(t, []string{"1A", "2", "10"}, positions)
	assert.True(t, legend[1].Parts[0].Selected)
	assert.True(t, legend[2].Expanded)

	// смена диаграммы сбрасывает выбор и раскрытие
	require.NoError(t, w.SelectDiagram(1))
	snap := w.Snapshot()
	assert.Empty(t, snap.SelectedParts)
	assert.Empty(t, snap.ExpandedPositions)
}

func TestSelectHotspotFocusesChat(t *testing.T) {
	f := newFixture(t, nil)
	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)
	sub := f.hub.Subscribe(w.ID)

	ok, err := w.SelectHotspot("2")
	require.NoError(t, err)
	require.True(t, ok)

	snap := w.Snapshot()
	assert.Equal(t, ViewChat, snap.View)
	assert.Equal(t, &Focus{Position: "2", PartNumber: "BP-1"}, snap.Focus)
	assert.Equal(t, []string{"2"}, snap.ExpandedPositions)

	var found bool
	for _, m := range w.Chat().Messages {
		if text, isText := m.(chat.Text); isText && text.Content == "I see you're looking for part number: BP-1." {
			found = true
		}
	}
	assert.True(t, found)

	require.Eventually(t, func() bool { return len(sub.Events) > 0 }, time.Second, 5*time.Millisecond)
	var focusSeen bool
	for len(sub.Events) > 0 {
		if ev := <-sub.Events; ev.Type == events.TypeHotspotFocus {
			focusSeen = true
			assert.JSONEq(t, `{"position":"2","partNumber":"BP-1"}`, ev.Data)
		}
	}
	assert.True(t, focusSeen)

	// у первой детали позиции 7 нет номера
	ok, err = w.SelectHotspot("7")
	require.NoError(t, err)
	assert.False(t, ok)
}

func TestConfirmAddsJobParts(t *testing.T) {
	f := newFixture(t, nil)
	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)

	for _, id := range []string{"BP-1", "BD-2", "BP-1", "BD-2", "BC-3"} {
		_, err := w.TogglePart(id)
		require.NoError(t, err)
	}
	_, _ = w.TogglePart("BD-2")

	ids, err := w.Confirm(context.Background())
	require.NoError(t, err)
	assert.Equal(t, []string{"BC-3", "BD-2"}, ids)

	parts, err := w.JobParts(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 2)
	assert.Equal(t, "Caliper", parts[0].Name)
	assert.Equal(t, "J-7", parts[0].JobNumber)

	// выбор сохраняется после подтверждения
	assert.Equal(t, []string{"BC-3", "BD-2"}, w.Snapshot().SelectedParts)

	require.NoError(t, w.UpdatePartQuantity(context.Background(), "BC-3", 0))
	parts, _ = w.JobParts(context.Background())
	assert.Len(t, parts, 1)
}

func TestAddChatPart(t *testing.T) {
	f := newFixture(t, nil)
	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)

	part := catalog.Default().Parts[0]
	require.NoError(t, w.AddChatPart(context.Background(), part))
	require.NoError(t, w.AddChatPart(context.Background(), part))

	parts, err := w.JobParts(context.Background())
	require.NoError(t, err)
	require.Len(t, parts, 1)
	assert.Equal(t, 2, parts[0].Quantity)
	assert.Equal(t, part.Price, parts[0].Price)

	w.SelectCategory("Lighting")
	assert.Equal(t, "Lighting", w.Snapshot().Category)
}

func TestCloseForgetsWorkspace(t *testing.T) {
	f := newFixture(t, map[string]chan struct{}{"https://img.test/front.png": make(chan struct{})})
	w, err := f.manager.Open(context.Background(), f.token)
	require.NoError(t, err)

	require.NoError(t, f.manager.Close(w.ID))
	assert.ErrorIs(t, f.manager.Close(w.ID), ErrSessionNotFound)
	assert.False(t, w.Snapshot().GeometryReady)
}
