package events

import (
	"encoding/json"
	"log"
	"sync"

	"github.com/google/uuid"
)

// ============================================================
// Session Event Hub
// ============================================================

const (
	TypeDiagramReady       = "diagram_ready"
	TypeHotspotFocus       = "hotspot_focus"
	TypeSelectionConfirmed = "selection_confirmed"
	TypeChatUpdated        = "chat_updated"
	TypeJobPartsUpdated    = "job_parts_updated"
	TypeCategorySelected   = "category_selected"
)

// Event: событие рабочей сессии для подписчиков SSE.
type Event struct {
	Type string `json:"event"`
	Data string `json:"data"`
}

// New собирает событие, сериализуя payload в JSON.
func New(eventType string, payload any) Event {
	data, err := json.Marshal(payload)
	if err != nil {
		log.Printf("[EVENTS] encode %s: %v", eventType, err)
		data = []byte("{}")
	}
	return Event{Type: eventType, Data: string(data)}
}

type Subscriber struct {
	ID        string
	SessionID string
	Events    chan Event
}

type Hub struct {
	mu          sync.RWMutex
	subscribers map[string]*Subscriber
	buffer      int
}

func NewHub(buffer int) *Hub {
	if buffer <= 0 {
		buffer = 64
	}
	return &Hub{subscribers: make(map[string]*Subscriber), buffer: buffer}
}

// Subscribe регистрирует подписчика на события сессии.
func (h *Hub) Subscribe(sessionID string) *Subscriber {
	sub := &Subscriber{
		ID:        uuid.NewString(),
		SessionID: sessionID,
		Events:    make(chan Event, h.buffer),
	}

	h.mu.Lock()
	h.subscribers[sub.ID] = sub
	total := len(h.subscribers)
	h.mu.Unlock()

	log.Printf("[EVENTS] subscribed: id=%s session=%s (total: %d)", sub.ID, sessionID, total)
	return sub
}

func (h *Hub) Unsubscribe(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	if sub, ok := h.subscribers[id]; ok {
		close(sub.Events)
		delete(h.subscribers, id)
		log.Printf("[EVENTS] unsubscribed: id=%s (total: %d)", id, len(h.subscribers))
	}
}

// Publish рассылает событие подписчикам сессии. Переполненный буфер: событие пропускается.
func (h *Hub) Publish(sessionID string, event Event) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	for _, sub := range h.subscribers {
		if sub.SessionID != sessionID {
			continue
		}
		select {
		case sub.Events <- event:
		default:
			log.Printf("[EVENTS] subscriber %s buffer full, skipping %s", sub.ID, event.Type)
		}
	}
}

func (h *Hub) Count(sessionID string) int {
	h.mu.RLock()
	defer h.mu.RUnlock()
	n := 0
	for _, sub := range h.subscribers {
		if sub.SessionID == sessionID {
			n++
		}
	}
	return n
}
