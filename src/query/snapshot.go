package query

import (
	"context"
	"encoding/json"
	"errors"
	"sync"
	"time"
)

// ErrNoSnapshot is returned by SnapshotStore.Load when nothing was saved
// for the key.
var ErrNoSnapshot = errors.New("no snapshot")

// SnapshotStore keeps the last good payload per key so that reads can fall
// back to it when the backend is down and the cache is cold.
type SnapshotStore interface {
	Load(ctx context.Context, key string) (data []byte, savedAt time.Time, err error)
	Save(ctx context.Context, key string, data []byte, savedAt time.Time) error
}

type snapshot struct {
	data    []byte
	savedAt time.Time
}

// MemorySnapshots is the SnapshotStore used when no database is configured.
type MemorySnapshots struct {
	mu sync.RWMutex
	m  map[string]snapshot
}

func NewMemorySnapshots() *MemorySnapshots {
	return &MemorySnapshots{m: make(map[string]snapshot)}
}

func (m *MemorySnapshots) Load(_ context.Context, key string) ([]byte, time.Time, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	s, ok := m.m[key]
	if !ok {
		return nil, time.Time{}, ErrNoSnapshot
	}
	return s.data, s.savedAt, nil
}

func (m *MemorySnapshots) Save(_ context.Context, key string, data []byte, savedAt time.Time) error {
	m.mu.Lock()
	m.m[key] = snapshot{data: append([]byte(nil), data...), savedAt: savedAt}
	m.mu.Unlock()
	return nil
}

func encodeSnapshot(v any) ([]byte, error) {
	return json.Marshal(v)
}

func loadSnapshot[T any](ctx context.Context, s *Store, key string) (T, time.Time, error) {
	var out T
	data, savedAt, err := s.snapshots.Load(ctx, key)
	if err != nil {
		return out, time.Time{}, err
	}
	if err := json.Unmarshal(data, &out); err != nil {
		return out, time.Time{}, err
	}
	return out, savedAt, nil
}
