package remote

import (
	"context"
	"strings"
	"sync"
	"time"

	"budgetbox/internal/core"
)

// MemoryStore keeps records in a map keyed by owner-period. It is volatile
// by design: a server restart clears it, and the client's local store
// remains the source of truth. Each server owns its instance; there is no
// package-level state.
type MemoryStore struct {
	mu      sync.Mutex
	records map[string]core.Budget

	now func() time.Time
}

func NewMemoryStore() *MemoryStore {
	return &MemoryStore{
		records: make(map[string]core.Budget),
		now:     time.Now,
	}
}

// Push unconditionally replaces the record under its key. Owner and period
// are required; everything else is taken as-is from the client.
func (s *MemoryStore) Push(_ context.Context, b core.Budget) (core.Budget, error) {
	if strings.TrimSpace(b.Owner) == "" {
		return core.Budget{}, core.ErrMissingOwner
	}
	if strings.TrimSpace(b.Period) == "" {
		return core.Budget{}, core.ErrMissingPeriod
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now().UTC()
	b.UpdatedAt = now
	b.LastSyncAt = &now
	b.SyncStatus = core.StatusSynced

	s.records[b.Key()] = b
	return b, nil
}

func (s *MemoryStore) Fetch(_ context.Context, owner, period string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b, ok := s.records[owner+"-"+period]
	if !ok {
		return core.Budget{}, ErrNotFound
	}
	return b, nil
}

func (s *MemoryStore) FetchLatest(_ context.Context, owner string) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var (
		latest core.Budget
		found  bool
	)
	for _, b := range s.records {
		if b.Owner != owner {
			continue
		}
		if !found || b.UpdatedAt.After(latest.UpdatedAt) {
			latest = b
			found = true
		}
	}
	if !found {
		return core.Budget{}, ErrNotFound
	}
	return latest, nil
}

// Len reports the number of stored records.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.records)
}
