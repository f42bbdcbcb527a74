package store

import (
	"context"
	"sort"
	"sync"
	"time"
)

// MemoryStore is a concurrency-safe in-memory profile store.
type MemoryStore struct {
	mu sync.RWMutex

	// key: profile id
	data map[string]Profile

	now func() time.Time
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		data: make(map[string]Profile),
		now:  func() time.Time { return time.Now().UTC() },
	}
}

// Get returns the profile stored under id.
func (s *MemoryStore) Get(_ context.Context, id string) (Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	p, ok := s.data[id]
	if !ok {
		return Profile{}, ErrNotFound
	}
	return p, nil
}

// ListAlertable returns every profile with a village, ordered by id.
func (s *MemoryStore) ListAlertable(_ context.Context) ([]Profile, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []Profile
	for _, p := range s.data {
		if p.HasVillage() {
			result = append(result, p)
		}
	}
	sort.Slice(result, func(i, j int) bool { return result[i].ID < result[j].ID })
	return result, nil
}

// Upsert inserts p or merges its non-nil fields into the stored profile.
func (s *MemoryStore) Upsert(_ context.Context, p Profile) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	stored, ok := s.data[p.ID]
	if !ok {
		stored = Profile{ID: p.ID}
	}
	stored = stored.merge(p)
	stored.UpdatedAt = s.now()
	s.data[p.ID] = stored
	return nil
}
