package cache

import (
	"context"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/AI2HU/askdb/internal/models"
)

// Memory is an in-process cache. Entries are lost on restart.
type Memory struct {
	mu      sync.RWMutex
	entries map[string]*models.Entry
	order   []string
	now     func() time.Time
}

// NewMemory creates an empty in-memory cache
func NewMemory() *Memory {
	return &Memory{
		entries: make(map[string]*models.Entry),
		now:     time.Now,
	}
}

// GenerateID returns a random UUID
func (m *Memory) GenerateID(question string) string {
	return uuid.NewString()
}

// Set stores one field of an entry
func (m *Memory) Set(ctx context.Context, id, field string, value any) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	entry, ok := m.entries[id]
	if !ok {
		entry = &models.Entry{ID: id, CreatedAt: now}
	}
	if err := setField(entry, field, value); err != nil {
		return err
	}
	entry.UpdatedAt = now

	if !ok {
		m.entries[id] = entry
		m.order = append(m.order, id)
	}
	return nil
}

// Get returns a copy of an entry
func (m *Memory) Get(ctx context.Context, id string) (*models.Entry, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	entry, ok := m.entries[id]
	if !ok {
		return nil, ErrNotFound
	}
	cp := *entry
	return &cp, nil
}

// GetAll returns the requested fields of every entry in insertion order
func (m *Memory) GetAll(ctx context.Context, fields []string) ([]map[string]any, error) {
	if err := validateFields(fields); err != nil {
		return nil, err
	}

	m.mu.RLock()
	defer m.mu.RUnlock()

	items := make([]map[string]any, 0, len(m.order))
	for _, id := range m.order {
		items = append(items, project(m.entries[id], fields))
	}
	return items, nil
}

// Delete removes an entry
func (m *Memory) Delete(ctx context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.entries[id]; !ok {
		return ErrNotFound
	}
	delete(m.entries, id)
	m.removeFromOrder(map[string]struct{}{id: {}})
	return nil
}

// EvictOlderThan removes entries not updated since t
func (m *Memory) EvictOlderThan(ctx context.Context, t time.Time) (int, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	evicted := make(map[string]struct{})
	for id, entry := range m.entries {
		if entry.UpdatedAt.Before(t) {
			evicted[id] = struct{}{}
			delete(m.entries, id)
		}
	}
	if len(evicted) > 0 {
		m.removeFromOrder(evicted)
	}
	return len(evicted), nil
}

func (m *Memory) removeFromOrder(ids map[string]struct{}) {
	kept := m.order[:0]
	for _, id := range m.order {
		if _, ok := ids[id]; !ok {
			kept = append(kept, id)
		}
	}
	m.order = kept
}

// Close is a no-op
func (m *Memory) Close(ctx context.Context) error {
	return nil
}

// Len returns the number of entries
func (m *Memory) Len() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.entries)
}
