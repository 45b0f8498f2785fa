package service

import (
	"context"
	"errors"
	"fmt"
	"log"
	"sync"

	"github.com/google/uuid"

	"jobnpart/internal/workshop/diagram"
)

// ============================================================
// Workspace Manager
// ============================================================

var ErrSessionNotFound = errors.New("session not found")

type WorkspaceManager struct {
	mu         sync.Mutex
	workspaces map[string]*Workspace // id -> workspace

	handoffs HandoffStore
	deps     *WorkspaceDeps
}

func NewWorkspaceManager(handoffs HandoffStore, deps WorkspaceDeps) *WorkspaceManager {
	if deps.Renderer == nil {
		deps.Renderer = diagram.NewRenderer()
	}
	return &WorkspaceManager{
		workspaces: make(map[string]*Workspace),
		handoffs:   handoffs,
		deps:       &deps,
	}
}

// Open создаёт рабочую сессию по токену hand-off. Ошибки чтения hand-off
// возвращаются как есть (models.ErrHandoffMissing, models.ErrHandoffMalformed).
func (m *WorkspaceManager) Open(ctx context.Context, handoff string) (*Workspace, error) {
	data, err := m.handoffs.LoadHandoff(ctx, handoff)
	if err != nil {
		return nil, fmt.Errorf("open workspace: %w", err)
	}

	id := uuid.NewString()
	w := newWorkspace(id, data, m.deps)

	m.mu.Lock()
	m.workspaces[id] = w
	total := len(m.workspaces)
	m.mu.Unlock()

	log.Printf("[WORKSPACE] opened %s for job %s (%d diagrams, total: %d)", id, data.JobDetails.JobNumber, len(data.PartsDataList), total)
	return w, nil
}

func (m *WorkspaceManager) Get(id string) (*Workspace, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	w, ok := m.workspaces[id]
	if !ok {
		return nil, ErrSessionNotFound
	}
	return w, nil
}

// Close закрывает сессию и забывает её.
func (m *WorkspaceManager) Close(id string) error {
	m.mu.Lock()
	w, ok := m.workspaces[id]
	delete(m.workspaces, id)
	m.mu.Unlock()

	if !ok {
		return ErrSessionNotFound
	}
	w.Close()
	return nil
}

// CloseAll: при остановке сервиса.
func (m *WorkspaceManager) CloseAll() {
	m.mu.Lock()
	all := make([]*Workspace, 0, len(m.workspaces))
	for id, w := range m.workspaces {
		all = append(all, w)
		delete(m.workspaces, id)
	}
	m.mu.Unlock()

	for _, w := range all {
		w.Close()
	}
}
