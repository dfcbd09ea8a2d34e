package event

import "sync"

// Ring is a fixed-capacity event log. Appending to a full ring evicts the
// oldest event. A Ring is safe for concurrent use.
type Ring struct {
	mu   sync.RWMutex
	buf  []Event
	head int // index of the oldest event
	size int
}

// NewRing creates a Ring holding at most capacity events. A capacity below
// one falls back to DefaultCapacity.
func NewRing(capacity int) *Ring {
	if capacity < 1 {
		capacity = DefaultCapacity
	}
	return &Ring{buf: make([]Event, capacity)}
}

// Append adds e as the newest event. It never fails.
func (r *Ring) Append(e Event) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if r.size < len(r.buf) {
		r.buf[(r.head+r.size)%len(r.buf)] = e
		r.size++
		return
	}
	r.buf[r.head] = e
	r.head = (r.head + 1) % len(r.buf)
}

// List returns a copy of the retained events, oldest first.
func (r *Ring) List() []Event {
	r.mu.RLock()
	defer r.mu.RUnlock()

	out := make([]Event, r.size)
	for i := 0; i < r.size; i++ {
		out[i] = r.buf[(r.head+i)%len(r.buf)]
	}
	return out
}

// Newest returns the most recently appended event.
func (r *Ring) Newest() (Event, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	if r.size == 0 {
		return Event{}, false
	}
	return r.buf[(r.head+r.size-1)%len(r.buf)], true
}

func (r *Ring) Len() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.size
}

func (r *Ring) Cap() int { return len(r.buf) }
