package session

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/spacesedan/sentiscope/internal/models"
)

// ErrNotFound is returned for unknown or expired dataset ids
var ErrNotFound = errors.New("dataset not found or expired")

// Store keeps uploaded datasets between the upload and the analyze trigger
type Store interface {
	Save(ctx context.Context, ds models.Dataset) error
	Load(ctx context.Context, id string) (models.Dataset, error)
	Delete(ctx context.Context, id string) error
}

type memoryEntry struct {
	dataset   models.Dataset
	expiresAt time.Time
}

// MemoryStore is a process-local Store. Expired entries are dropped on access
// and swept on every Save.
type MemoryStore struct {
	mu    sync.Mutex
	items map[string]memoryEntry
	ttl   time.Duration
	now   func() time.Time
}

func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		items: make(map[string]memoryEntry),
		ttl:   ttl,
		now:   time.Now,
	}
}

func (m *MemoryStore) Save(_ context.Context, ds models.Dataset) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	now := m.now()
	for id, entry := range m.items {
		if now.After(entry.expiresAt) {
			delete(m.items, id)
		}
	}

	m.items[ds.ID] = memoryEntry{dataset: ds, expiresAt: now.Add(m.ttl)}
	return nil
}

func (m *MemoryStore) Load(_ context.Context, id string) (models.Dataset, error) {
	m.mu.Lock()
	defer m.mu.Unlock()

	entry, ok := m.items[id]
	if !ok {
		return models.Dataset{}, ErrNotFound
	}
	if m.now().After(entry.expiresAt) {
		delete(m.items, id)
		return models.Dataset{}, ErrNotFound
	}
	return entry.dataset, nil
}

func (m *MemoryStore) Delete(_ context.Context, id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	delete(m.items, id)
	return nil
}
