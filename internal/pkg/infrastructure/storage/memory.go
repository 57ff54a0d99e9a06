package storage

import (
	"context"
	"fmt"
	"maps"
	"slices"
	"sync"
)

type inMemory struct {
	mu        sync.RWMutex
	snapshots map[string]map[string][]byte
}

func NewInMemory() Storage {
	return &inMemory{
		snapshots: make(map[string]map[string][]byte),
	}
}

func (m *inMemory) Save(ctx context.Context, kind, id string, body []byte) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[kind]; !ok {
		m.snapshots[kind] = make(map[string][]byte)
	}

	m.snapshots[kind][id] = slices.Clone(body)

	return nil
}

func (m *inMemory) Load(ctx context.Context, kind, id string) ([]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	body, ok := m.snapshots[kind][id]
	if !ok {
		return nil, fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
	}

	return slices.Clone(body), nil
}

func (m *inMemory) Delete(ctx context.Context, kind, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	if _, ok := m.snapshots[kind][id]; !ok {
		return fmt.Errorf("%s/%s: %w", kind, id, ErrNotFound)
	}

	delete(m.snapshots[kind], id)

	return nil
}

func (m *inMemory) List(ctx context.Context, kind string) ([][]byte, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	ids := slices.Sorted(maps.Keys(m.snapshots[kind]))
	bodies := make([][]byte, 0, len(ids))

	for _, id := range ids {
		bodies = append(bodies, slices.Clone(m.snapshots[kind][id]))
	}

	return bodies, nil
}

func (m *inMemory) Close() {}
