package pipeline

import (
	"fmt"
	"sort"
	"sync"
)

// Hub routes addressed control messages to registered pipelines. Each
// pipeline is registered under its own ID and only receives messages sent
// to that ID; there is no broadcast.
type Hub struct {
	mu     sync.RWMutex
	tables map[string]*Pipeline
}

// NewHub creates an empty hub.
func NewHub() *Hub {
	return &Hub{tables: make(map[string]*Pipeline)}
}

// Register adds p under p.ID(), replacing any pipeline with the same ID.
func (h *Hub) Register(p *Pipeline) {
	h.mu.Lock()
	defer h.mu.Unlock()
	h.tables[p.ID()] = p
}

// Unregister removes the pipeline registered under id.
func (h *Hub) Unregister(id string) {
	h.mu.Lock()
	defer h.mu.Unlock()
	delete(h.tables, id)
}

// Lookup returns the pipeline registered under id.
func (h *Hub) Lookup(id string) (*Pipeline, bool) {
	h.mu.RLock()
	defer h.mu.RUnlock()
	p, ok := h.tables[id]
	return p, ok
}

// IDs returns the registered table IDs in sorted order.
func (h *Hub) IDs() []string {
	h.mu.RLock()
	defer h.mu.RUnlock()
	ids := make([]string, 0, len(h.tables))
	for id := range h.tables {
		ids = append(ids, id)
	}
	sort.Strings(ids)
	return ids
}

// Send delivers msg to the pipeline registered under tableID.
func (h *Hub) Send(tableID string, msg Message) error {
	p, ok := h.Lookup(tableID)
	if !ok {
		return fmt.Errorf("%w: %s", ErrUnknownTable, tableID)
	}
	return p.Handle(msg)
}
