package eventbus

import (
	"context"
	"sync"
)

// Recorder хранит последние события в кольцевом буфере
type Recorder struct {
	mu     sync.Mutex
	events []*Envelope
	next   int
	full   bool
}

// NewRecorder создаёт буфер на size событий
func NewRecorder(size int) *Recorder {
	if size <= 0 {
		size = 1
	}
	return &Recorder{events: make([]*Envelope, size)}
}

// Attach подписывает буфер на события шины по фильтру
func (r *Recorder) Attach(bus EventBus, f Filter) (Subscription, error) {
	return bus.Subscribe(context.Background(), f, r.Record)
}

// Record сохраняет событие, вытесняя самое старое
func (r *Recorder) Record(_ context.Context, ev *Envelope) {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.events[r.next] = ev
	r.next = (r.next + 1) % len(r.events)
	if r.next == 0 {
		r.full = true
	}
}

// Recent возвращает до limit последних событий, от старых к новым.
// limit <= 0 - все сохранённые.
func (r *Recorder) Recent(limit int) []*Envelope {
	r.mu.Lock()
	defer r.mu.Unlock()

	var ordered []*Envelope
	if r.full {
		ordered = append(ordered, r.events[r.next:]...)
	}
	ordered = append(ordered, r.events[:r.next]...)

	if limit > 0 && len(ordered) > limit {
		ordered = ordered[len(ordered)-limit:]
	}
	return ordered
}
