package cache

import (
	"context"
	"strconv"
	"strings"
	"sync"
	"time"
)

type memoryEntry struct {
	value     string
	expiresAt time.Time // zero means no expiry
}

// MemoryStore is an in-process Store for local development and tests.
// Expired entries are invisible to reads and removed by PurgeExpired.
type MemoryStore struct {
	mu      sync.Mutex
	entries map[string]memoryEntry
	prefix  string
	now     func() time.Time
}

func NewMemoryStore(prefix string) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		prefix:  prefix,
		now:     time.Now,
	}
}

// SetClock replaces the time source. Used by tests.
func (s *MemoryStore) SetClock(now func() time.Time) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.now = now
}

func (s *MemoryStore) key(k string) string {
	if s.prefix == "" {
		return k
	}
	return s.prefix + ":" + k
}

func (s *MemoryStore) expired(e memoryEntry) bool {
	return !e.expiresAt.IsZero() && !s.now().Before(e.expiresAt)
}

func (s *MemoryStore) Get(_ context.Context, key string) (string, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	e, ok := s.entries[s.key(key)]
	if !ok || s.expired(e) {
		return "", ErrCacheMiss
	}
	return e.value, nil
}

func (s *MemoryStore) Set(_ context.Context, key, value string, ttl time.Duration) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[s.key(key)] = e
	return nil
}

func (s *MemoryStore) SetNX(_ context.Context, key, value string, ttl time.Duration) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(key)
	if e, ok := s.entries[k]; ok && !s.expired(e) {
		return false, nil
	}

	e := memoryEntry{value: value}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[k] = e
	return true, nil
}

func (s *MemoryStore) Delete(_ context.Context, key string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	delete(s.entries, s.key(key))
	return nil
}

func (s *MemoryStore) DeleteByPrefix(_ context.Context, prefix string) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	full := s.key(prefix)
	var deleted int64
	for k, e := range s.entries {
		if strings.HasPrefix(k, full) {
			if !s.expired(e) {
				deleted++
			}
			delete(s.entries, k)
		}
	}
	return deleted, nil
}

func (s *MemoryStore) IncrWithTTL(_ context.Context, key string, ttl time.Duration) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	k := s.key(key)
	var n int64
	if e, ok := s.entries[k]; ok && !s.expired(e) {
		n, _ = strconv.ParseInt(e.value, 10, 64)
	}
	n++

	e := memoryEntry{value: strconv.FormatInt(n, 10)}
	if ttl > 0 {
		e.expiresAt = s.now().Add(ttl)
	}
	s.entries[k] = e
	return n, nil
}

func (s *MemoryStore) Ping(context.Context) error {
	return nil
}

// PurgeExpired drops expired entries and returns how many were removed.
func (s *MemoryStore) PurgeExpired(context.Context) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	var purged int64
	for k, e := range s.entries {
		if s.expired(e) {
			delete(s.entries, k)
			purged++
		}
	}
	return purged, nil
}

// Len reports the number of stored entries, including expired ones not yet purged.
func (s *MemoryStore) Len() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.entries)
}
