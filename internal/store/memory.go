// Package store provides the persistence collaborators behind the schedule
// orchestrator: an in-process memory store, a SQLite store and an HTTP
// client for a remote eventcal server.
package store

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"eventcal/internal/model"
)

// MemoryStore keeps events in memory in insertion order.
type MemoryStore struct {
	mu     sync.RWMutex
	events []model.Event
}

// NewMemoryStore returns a store seeded with the given events.
func NewMemoryStore(seed ...model.Event) *MemoryStore {
	return &MemoryStore{events: append([]model.Event(nil), seed...)}
}

func (m *MemoryStore) List(_ context.Context) ([]model.Event, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return append([]model.Event{}, m.events...), nil
}

func (m *MemoryStore) Create(_ context.Context, f model.EventForm) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	ev := model.Event{ID: uuid.NewString(), EventForm: f}
	m.events = append(m.events, ev)
	return ev, nil
}

// BulkCreate stores all forms or none.
func (m *MemoryStore) BulkCreate(_ context.Context, forms []model.EventForm) ([]model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]model.Event, 0, len(forms))
	for _, f := range forms {
		out = append(out, model.Event{ID: uuid.NewString(), EventForm: f})
	}
	m.events = append(m.events, out...)
	return out, nil
}

func (m *MemoryStore) Update(_ context.Context, id string, ev model.Event) (model.Event, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID == id {
			ev.ID = id
			m.events[i] = ev
			return ev, nil
		}
	}
	return model.Event{}, model.ErrEventNotFound
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	for i := range m.events {
		if m.events[i].ID == id {
			m.events = append(m.events[:i], m.events[i+1:]...)
			return nil
		}
	}
	return model.ErrEventNotFound
}

func (m *MemoryStore) Close() error { return nil }
