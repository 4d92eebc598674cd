package events

import "sync"

// registry is the listener bookkeeping shared by both event flavours.
// L is the listener type, T the value type.
type registry[T any, L any] struct {
	mu         sync.RWMutex
	listeners  map[uint64]L
	nextID     uint64
	replayLast bool
	last       T
	hasLast    bool
}

func newRegistry[T any, L any](replayLast bool) registry[T, L] {
	return registry[T, L]{
		listeners:  make(map[uint64]L),
		replayLast: replayLast,
	}
}

// add stores l and returns the value to replay to it, if any
func (r *registry[T, L]) add(l L) (id uint64, replay T, ok bool) {
	r.mu.Lock()
	defer r.mu.Unlock()
	id = r.nextID
	r.nextID++
	r.listeners[id] = l
	if r.replayLast && r.hasLast {
		return id, r.last, true
	}
	return id, replay, false
}

func (r *registry[T, L]) remover(id uint64) func() {
	return func() {
		r.mu.Lock()
		delete(r.listeners, id)
		r.mu.Unlock()
	}
}

// record remembers value and returns the listeners to deliver it to
func (r *registry[T, L]) record(value T) []L {
	r.mu.Lock()
	defer r.mu.Unlock()
	r.last = value
	r.hasLast = true
	out := make([]L, 0, len(r.listeners))
	for _, l := range r.listeners {
		out = append(out, l)
	}
	return out
}

func (r *registry[T, L]) lastValue() (T, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return r.last, r.hasLast
}

func (r *registry[T, L]) count() int {
	r.mu.RLock()
	defer r.mu.RUnlock()
	return len(r.listeners)
}
