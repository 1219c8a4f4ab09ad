// Package store provides challenge-persistence backends implementing
// agentauth.ChallengeStore.
package store

import (
	"context"
	"sync"
	"time"

	"github.com/dyshay/agentauth"
)

type entry struct {
	data      agentauth.ChallengeData
	expiresAt time.Time
}

// MemoryStore is an in-memory, TTL-expiring ChallengeStore. Expired
// entries are evicted lazily on Get, and swept periodically in the
// background so a store that's never read doesn't grow unbounded.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]entry

	stopOnce sync.Once
	stop     chan struct{}
}

// NewMemoryStore builds a MemoryStore and starts its background sweep
// goroutine at the given interval. Call Close to stop the sweep.
func NewMemoryStore(sweepInterval time.Duration) *MemoryStore {
	s := &MemoryStore{
		entries: make(map[string]entry),
		stop:    make(chan struct{}),
	}
	go s.sweep(sweepInterval)
	return s
}

func (s *MemoryStore) sweep(interval time.Duration) {
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ticker.C:
			s.evictExpired()
		case <-s.stop:
			return
		}
	}
}

func (s *MemoryStore) evictExpired() {
	now := time.Now()
	s.mu.Lock()
	defer s.mu.Unlock()
	for id, e := range s.entries {
		if now.After(e.expiresAt) || now.Equal(e.expiresAt) {
			delete(s.entries, id)
		}
	}
}

// Close stops the background sweep goroutine. Safe to call more than
// once.
func (s *MemoryStore) Close() {
	s.stopOnce.Do(func() { close(s.stop) })
}

// Set stores data under id with the given TTL.
func (s *MemoryStore) Set(_ context.Context, id string, data agentauth.ChallengeData, ttlMs int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.entries[id] = entry{
		data:      data,
		expiresAt: time.Now().Add(time.Duration(ttlMs) * time.Millisecond),
	}
	return nil
}

// Get retrieves data for id, lazily evicting it if its TTL has passed.
func (s *MemoryStore) Get(_ context.Context, id string) (agentauth.ChallengeData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return agentauth.ChallengeData{}, false, nil
	}
	now := time.Now()
	if now.After(e.expiresAt) || now.Equal(e.expiresAt) {
		delete(s.entries, id)
		return agentauth.ChallengeData{}, false, nil
	}
	return e.data, true, nil
}

// Delete removes id, if present. Deleting a missing id is not an error.
func (s *MemoryStore) Delete(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, id)
	return nil
}

// GetAndDelete fetches and removes id's entry under a single lock
// acquisition, expiring it lazily if its TTL has passed. Of any number
// of callers racing on the same id, exactly one sees (data, true); the
// rest see (ChallengeData{}, false), since the entry is gone from the
// map before the lock is released.
func (s *MemoryStore) GetAndDelete(_ context.Context, id string) (agentauth.ChallengeData, bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[id]
	if !ok {
		return agentauth.ChallengeData{}, false, nil
	}
	delete(s.entries, id)
	now := time.Now()
	if now.After(e.expiresAt) || now.Equal(e.expiresAt) {
		return agentauth.ChallengeData{}, false, nil
	}
	return e.data, true, nil
}
