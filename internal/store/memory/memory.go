// Package memory provides an in-process record store for local development and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"example.com/ridedash/internal/record"
	"example.com/ridedash/internal/store"
)

// Store keeps records per table in insertion order.
type Store struct {
	mu     sync.RWMutex
	tables map[string][]record.Record
	err    error
}

// New constructs an empty Store.
func New() *Store {
	return &Store{tables: make(map[string][]record.Record)}
}

// Put appends records to a table.
func (s *Store) Put(table string, records ...record.Record) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.tables[table] = append(s.tables[table], records...)
}

// FailWith makes every subsequent Scan fail with err wrapped in store.ErrUnavailable.
// Passing nil restores normal behaviour.
func (s *Store) FailWith(err error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.err = err
}

// Scan implements store.Scanner. Unknown tables scan as empty.
func (s *Store) Scan(ctx context.Context, table string) ([]record.Record, error) {
	if err := ctx.Err(); err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, err)
	}

	s.mu.RLock()
	defer s.mu.RUnlock()

	if s.err != nil {
		return nil, fmt.Errorf("%w: %v", store.ErrUnavailable, s.err)
	}
	items := s.tables[table]
	out := make([]record.Record, len(items))
	copy(out, items)
	return out, nil
}
