package session

import (
	"context"
	"errors"
	"sync"
	"time"
)

type memoryEntry struct {
	rec      *Record
	deadline time.Time
}

// MemoryStore is a process-local [Store]. It keeps deep copies so callers
// can never mutate stored state through a returned pointer.
type MemoryStore struct {
	mu      sync.RWMutex
	entries map[string]memoryEntry
	ttl     time.Duration
	now     func() time.Time
}

// NewMemoryStore creates an empty [MemoryStore]. A non-positive ttl keeps
// records until they are deleted.
func NewMemoryStore(ttl time.Duration) *MemoryStore {
	return &MemoryStore{
		entries: make(map[string]memoryEntry),
		ttl:     ttl,
		now:     time.Now,
	}
}

// Get returns a copy of the live record bound to sessionID.
func (s *MemoryStore) Get(_ context.Context, sessionID string) (*Record, error) {
	s.mu.RLock()
	entry, ok := s.entries[sessionID]
	s.mu.RUnlock()
	if !ok {
		return nil, ErrNotFound
	}
	if s.expired(entry) {
		s.mu.Lock()
		if current, ok := s.entries[sessionID]; ok && s.expired(current) {
			delete(s.entries, sessionID)
		}
		s.mu.Unlock()
		return nil, ErrNotFound
	}
	return entry.rec.Clone(), nil
}

// Save stores a copy of rec.
func (s *MemoryStore) Save(_ context.Context, rec *Record) error {
	if rec == nil || rec.SessionID == "" {
		return errors.New("record requires a session id")
	}
	s.mu.Lock()
	s.entries[rec.SessionID] = s.entry(rec)
	s.mu.Unlock()
	return nil
}

// Replace stores a copy of rec only while a live record is bound.
func (s *MemoryStore) Replace(_ context.Context, rec *Record) (bool, error) {
	if rec == nil || rec.SessionID == "" {
		return false, errors.New("record requires a session id")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.entries[rec.SessionID]
	if !ok || s.expired(current) {
		return false, nil
	}
	s.entries[rec.SessionID] = s.entry(rec)
	return true, nil
}

// Delete removes the record and reports whether a live one existed.
func (s *MemoryStore) Delete(_ context.Context, sessionID string) (bool, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	entry, ok := s.entries[sessionID]
	if !ok {
		return false, nil
	}
	delete(s.entries, sessionID)
	return !s.expired(entry), nil
}

// Len reports the number of stored records, including expired ones not yet
// evicted.
func (s *MemoryStore) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.entries)
}

func (s *MemoryStore) entry(rec *Record) memoryEntry {
	entry := memoryEntry{rec: rec.Clone()}
	if s.ttl > 0 {
		entry.deadline = s.now().Add(s.ttl)
	}
	return entry
}

func (s *MemoryStore) expired(entry memoryEntry) bool {
	return !entry.deadline.IsZero() && !s.now().Before(entry.deadline)
}
