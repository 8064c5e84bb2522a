// Package memory is an in-process record store for development and tests.
package memory

import (
	"cmp"
	"context"
	"encoding/json"
	"fmt"
	"os"
	"slices"
	"strings"
	"sync"

	"fintrack/internal/core"
)

type Store struct {
	mu    sync.RWMutex
	users map[string]map[string]core.Record
}

func New() *Store {
	return &Store{users: make(map[string]map[string]core.Record)}
}

// NewFromFile seeds a store from a JSON array of records. Records are kept
// as stored, valid or not. Records without a userId belong to defaultUser.
func NewFromFile(path, defaultUser string) (*Store, error) {
	b, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read seed file: %w", err)
	}
	var records []core.Record
	if err := json.Unmarshal(b, &records); err != nil {
		return nil, fmt.Errorf("decode seed file %s: %w", path, err)
	}
	s := New()
	for i, r := range records {
		if strings.TrimSpace(r.UserID) == "" {
			r.UserID = defaultUser
		}
		if r.ID == "" {
			r.ID = fmt.Sprintf("seed-%d", i+1)
		}
		s.put(r)
	}
	return s, nil
}

func (s *Store) put(r core.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.users[r.UserID]
	if !ok {
		m = make(map[string]core.Record)
		s.users[r.UserID] = m
	}
	m[r.ID] = r
}

func (s *Store) InsertRecord(_ context.Context, r core.Record) error {
	if r.UserID == "" || r.ID == "" {
		return fmt.Errorf("insert record: user and id are required")
	}
	s.mu.Lock()
	defer s.mu.Unlock()
	m, ok := s.users[r.UserID]
	if !ok {
		m = make(map[string]core.Record)
		s.users[r.UserID] = m
	}
	if _, exists := m[r.ID]; exists {
		return fmt.Errorf("insert record %s: %w", r.ID, core.ErrDuplicateID)
	}
	m[r.ID] = r
	return nil
}

func (s *Store) UpdateRecord(_ context.Context, r core.Record) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.users[r.UserID]
	old, ok := m[r.ID]
	if !ok {
		return core.ErrNotFound
	}
	if r.CreatedAt.IsZero() {
		r.CreatedAt = old.CreatedAt
	}
	m[r.ID] = r
	return nil
}

func (s *Store) DeleteRecord(_ context.Context, userID, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	m := s.users[userID]
	if _, ok := m[id]; !ok {
		return core.ErrNotFound
	}
	delete(m, id)
	return nil
}

func (s *Store) GetRecord(_ context.Context, userID, id string) (core.Record, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	r, ok := s.users[userID][id]
	if !ok {
		return core.Record{}, core.ErrNotFound
	}
	return r, nil
}

// ListRecords returns the user's records by date then creation time, both
// newest first. Dates are compared as stored text.
func (s *Store) ListRecords(_ context.Context, userID string) ([]core.Record, error) {
	s.mu.RLock()
	out := make([]core.Record, 0, len(s.users[userID]))
	for _, r := range s.users[userID] {
		out = append(out, r)
	}
	s.mu.RUnlock()

	slices.SortFunc(out, func(a, b core.Record) int {
		if c := cmp.Compare(b.Date, a.Date); c != 0 {
			return c
		}
		if c := b.CreatedAt.Compare(a.CreatedAt); c != 0 {
			return c
		}
		return cmp.Compare(a.ID, b.ID)
	})
	return out, nil
}

// ListUsers returns every user holding at least one record, sorted.
func (s *Store) ListUsers(_ context.Context) ([]string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]string, 0, len(s.users))
	for u, m := range s.users {
		if len(m) > 0 {
			out = append(out, u)
		}
	}
	slices.Sort(out)
	return out, nil
}
