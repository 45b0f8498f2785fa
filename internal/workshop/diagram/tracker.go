package diagram

import "sync"

// ============================================================
// Original Size Tracker
// ============================================================

// Ticket выдаётся на каждую загрузку размеров изображения.
type Ticket struct {
	Key string
	gen uint64
}

// Tracker помнит, какая загрузка относится к текущей диаграмме.
// Результат принимается только по актуальному билету, независимо от
// порядка завершения загрузок.
type Tracker struct {
	mu  sync.Mutex
	key string
	gen uint64
}

func NewTracker() *Tracker {
	return &Tracker{}
}

// Begin делает key текущим и аннулирует все ранее выданные билеты.
func (t *Tracker) Begin(key string) Ticket {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.key = key
	return Ticket{Key: key, gen: t.gen}
}

// Accept сообщает, актуален ли билет.
func (t *Tracker) Accept(ticket Ticket) bool {
	t.mu.Lock()
	defer t.mu.Unlock()

	return ticket.gen == t.gen && ticket.Key == t.key
}

// Invalidate аннулирует текущий билет (например, диаграмма закрыта).
func (t *Tracker) Invalidate() {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.gen++
	t.key = ""
}
