package cache

import (
	"context"
	"sync"
	"time"

	"github.com/peptiva/backend/internal/domain/shared"
)

// checkoutEntry is a stored checkout record with expiration
type checkoutEntry struct {
	record    shared.CheckoutRecord
	expiresAt time.Time
}

// InMemoryCheckoutStore implements CheckoutRecordStore using an in-memory map.
// This is suitable for single-instance deployments and testing.
type InMemoryCheckoutStore struct {
	mu        sync.RWMutex
	entries   map[string]checkoutEntry
	stopChan  chan struct{}
	wg        sync.WaitGroup
	closeOnce sync.Once
}

// NewInMemoryCheckoutStore creates a new in-memory checkout record store.
// It starts a background goroutine to clean up expired entries.
func NewInMemoryCheckoutStore() *InMemoryCheckoutStore {
	store := &InMemoryCheckoutStore{
		entries:  make(map[string]checkoutEntry),
		stopChan: make(chan struct{}),
	}

	store.wg.Add(1)
	go store.cleanupLoop()

	return store
}

// Put stores a checkout record with a TTL, overwriting any existing record
// under the same idempotency key
func (s *InMemoryCheckoutStore) Put(ctx context.Context, record shared.CheckoutRecord, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.entries[record.IdempotencyKey] = checkoutEntry{
		record:    record,
		expiresAt: time.Now().Add(ttl),
	}
	return nil
}

// Get returns the record for a key, or found=false if absent or expired
func (s *InMemoryCheckoutStore) Get(ctx context.Context, idempotencyKey string) (shared.CheckoutRecord, bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	e, exists := s.entries[idempotencyKey]
	if !exists {
		return shared.CheckoutRecord{}, false, nil
	}
	if time.Now().After(e.expiresAt) {
		// Expired, treat as absent; the cleanup loop removes it later
		return shared.CheckoutRecord{}, false, nil
	}
	return e.record, true, nil
}

// Delete removes the record for a key. Deleting an absent key is not an error.
func (s *InMemoryCheckoutStore) Delete(ctx context.Context, idempotencyKey string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.entries, idempotencyKey)
	return nil
}

// Close stops the cleanup goroutine and releases resources.
// Safe to call multiple times.
func (s *InMemoryCheckoutStore) Close() error {
	s.closeOnce.Do(func() {
		close(s.stopChan)
		s.wg.Wait()
	})
	return nil
}

// cleanupLoop periodically removes expired entries
func (s *InMemoryCheckoutStore) cleanupLoop() {
	defer s.wg.Done()

	ticker := time.NewTicker(5 * time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-s.stopChan:
			return
		case <-ticker.C:
			s.cleanup()
		}
	}
}

// cleanup removes expired entries from the store
func (s *InMemoryCheckoutStore) cleanup() {
	s.mu.Lock()
	defer s.mu.Unlock()

	now := time.Now()
	for key, e := range s.entries {
		if now.After(e.expiresAt) {
			delete(s.entries, key)
		}
	}
}

// Size returns the number of entries in the store (for testing/monitoring)
func (s *InMemoryCheckoutStore) Size() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

// Ensure InMemoryCheckoutStore implements CheckoutRecordStore
var _ shared.CheckoutRecordStore = (*InMemoryCheckoutStore)(nil)
