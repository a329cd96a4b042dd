// Package state provides the versioned aggregate store the engine
// persists through: every record carries a monotonically increasing
// version, and writes must present the version they read or fail, which
// stands in for the transactional guarantees of the host environment.
package state

import (
	"errors"
	"fmt"
	"sort"
	"sync"
)

var (
	// ErrNotFound is returned for absent records.
	ErrNotFound = errors.New("record not found")

	// ErrStaleVersion is returned when a write presents an expected
	// version that no longer matches the stored one. Nothing is changed.
	ErrStaleVersion = errors.New("stale record version")
)

// Store is a bucketed key-value store with optimistic concurrency. A Put
// with expect=0 creates the record; any other expect must equal the
// current version. The returned version is the new one.
type Store interface {
	Get(bucket, key string) (data []byte, version uint64, err error)
	Put(bucket, key string, data []byte, expect uint64) (uint64, error)
	Delete(bucket, key string, expect uint64) error
	Keys(bucket string) ([]string, error)
	Close() error
}

type memoryRecord struct {
	data    []byte
	version uint64
}

// MemoryStore is the in-process Store used by tests and single-process
// deployments.
type MemoryStore struct {
	mu      sync.RWMutex
	buckets map[string]map[string]memoryRecord
}

// NewMemoryStore creates an empty MemoryStore.
func NewMemoryStore() *MemoryStore {
	return &MemoryStore{buckets: make(map[string]map[string]memoryRecord)}
}

// Get returns the record payload and its current version.
func (s *MemoryStore) Get(bucket, key string) ([]byte, uint64, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	rec, ok := s.buckets[bucket][key]
	if !ok {
		return nil, 0, fmt.Errorf("get %s/%s: %w", bucket, key, ErrNotFound)
	}
	out := make([]byte, len(rec.data))
	copy(out, rec.data)
	return out, rec.version, nil
}

// Put writes the record if expect matches the stored version (0 for a new
// record) and returns the incremented version.
func (s *MemoryStore) Put(bucket, key string, data []byte, expect uint64) (uint64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	b := s.buckets[bucket]
	if b == nil {
		b = make(map[string]memoryRecord)
		s.buckets[bucket] = b
	}

	current := b[key].version
	if current != expect {
		return 0, fmt.Errorf("put %s/%s: have v%d, expected v%d: %w", bucket, key, current, expect, ErrStaleVersion)
	}

	stored := make([]byte, len(data))
	copy(stored, data)
	b[key] = memoryRecord{data: stored, version: current + 1}
	return current + 1, nil
}

// Delete removes the record if expect matches its version.
func (s *MemoryStore) Delete(bucket, key string, expect uint64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	rec, ok := s.buckets[bucket][key]
	if !ok {
		return fmt.Errorf("delete %s/%s: %w", bucket, key, ErrNotFound)
	}
	if rec.version != expect {
		return fmt.Errorf("delete %s/%s: have v%d, expected v%d: %w", bucket, key, rec.version, expect, ErrStaleVersion)
	}
	delete(s.buckets[bucket], key)
	return nil
}

// Keys lists the keys in a bucket, sorted.
func (s *MemoryStore) Keys(bucket string) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	b := s.buckets[bucket]
	keys := make([]string, 0, len(b))
	for k := range b {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys, nil
}

// Close is a no-op for the memory store.
func (s *MemoryStore) Close() error { return nil }
