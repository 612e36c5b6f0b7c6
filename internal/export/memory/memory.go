// Package memory is an in-process export sink used in tests and when no
// spreadsheet is configured.
package memory

import (
	"context"
	"sync"

	"billing/internal/export"
)

type Store struct {
	mu   sync.Mutex
	rows []export.Row
}

func New() *Store {
	return &Store{}
}

var _ export.RowAppender = (*Store)(nil)

// AppendRow records the row in memory.
func (s *Store) AppendRow(_ context.Context, row export.Row) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.rows = append(s.rows, row)
	return nil
}

// Rows returns a copy of everything appended so far.
func (s *Store) Rows() []export.Row {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]export.Row(nil), s.rows...)
}
