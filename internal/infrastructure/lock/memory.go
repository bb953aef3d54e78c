package lock

import (
	"context"
	"sync"
	"time"
)

type entry struct {
	owner     string
	expiresAt time.Time
}

// MemoryService is the single-instance lock table: a guarded map of
// key -> (owner, expiry). Expired entries are treated as free on acquire
// and removed in bulk by Sweep, so a crashed holder can block a key for at
// most one TTL.
type MemoryService struct {
	mu      sync.Mutex
	entries map[string]entry
	now     func() time.Time
}

func NewMemoryService() *MemoryService {
	return &MemoryService{
		entries: make(map[string]entry),
		now:     time.Now,
	}
}

func (s *MemoryService) TryAcquire(_ context.Context, key, owner string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	if e, ok := s.entries[key]; ok && now.Before(e.expiresAt) {
		return false, nil
	}
	s.entries[key] = entry{owner: owner, expiresAt: now.Add(ttl)}
	return true, nil
}

func (s *MemoryService) Release(_ context.Context, key, owner string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[key]
	if !ok || e.owner != owner {
		return ErrNotHeld
	}
	delete(s.entries, key)
	return nil
}

// Sweep drops every expired entry and returns how many were removed.
// Called periodically by the sweeper job to bound memory growth from
// abandoned attempts.
func (s *MemoryService) Sweep() int {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := s.now()
	removed := 0
	for key, e := range s.entries {
		if !now.Before(e.expiresAt) {
			delete(s.entries, key)
			removed++
		}
	}
	return removed
}

// Len reports the current entry count, expired ones included.
func (s *MemoryService) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
