package client

import (
	"sync"

	"github.com/luma/meshlink/protocol"
)

// pending is either a *waiter or a *Stream.
type pending interface {
	kind() string
}

// registry tracks outstanding requests by frame id.
type registry struct {
	mu      sync.Mutex
	entries map[protocol.FrameID]pending
}

func newRegistry() *registry {
	return &registry{entries: make(map[protocol.FrameID]pending)}
}

// put registers entry under id, replacing whatever was registered there.
func (r *registry) put(id protocol.FrameID, entry pending) {
	r.mu.Lock()
	r.entries[id] = entry
	r.mu.Unlock()
}

// get looks up id without removing it.
func (r *registry) get(id protocol.FrameID) (pending, bool) {
	r.mu.Lock()
	entry, ok := r.entries[id]
	r.mu.Unlock()

	return entry, ok
}

// removeIf removes id only if it still maps to entry, and reports whether
// it did. Whoever removes a waiter owns its settlement.
func (r *registry) removeIf(id protocol.FrameID, entry pending) bool {
	r.mu.Lock()
	defer r.mu.Unlock()

	if cur, ok := r.entries[id]; !ok || cur != entry {
		return false
	}

	delete(r.entries, id)
	return true
}

func (r *registry) len() int {
	r.mu.Lock()
	defer r.mu.Unlock()

	return len(r.entries)
}

// waiter receives exactly one response.
type waiter struct {
	ch chan protocol.Response
}

func newWaiter() *waiter {
	return &waiter{ch: make(chan protocol.Response, 1)}
}

func (w *waiter) kind() string {
	return "waiter"
}

// settle never blocks, it is only ever called once by whoever removed the
// waiter from the registry.
func (w *waiter) settle(resp protocol.Response) {
	w.ch <- resp
}
