// Package memstore keeps recurring transactions and ledger entries in process
// memory. It backs the bot when no DATABASE_URL is configured and is used by tests.
package memstore

import (
	"context"
	"sort"
	"sync"
	"time"

	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"
)

// RuleStore implements recurring.Repository.
type RuleStore struct {
	mu     sync.Mutex
	nextID int64
	rows   map[int64]*recurring.Transaction
	now    func() time.Time
}

func NewRuleStore() *RuleStore {
	return &RuleStore{rows: make(map[int64]*recurring.Transaction), now: time.Now}
}

func (s *RuleStore) Create(_ context.Context, t *recurring.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.nextID++
	t.ID = s.nextID
	t.CreatedAt = s.now()
	t.UpdatedAt = t.CreatedAt
	s.rows[t.ID] = t.Clone()
	return nil
}

func (s *RuleStore) GetByID(_ context.Context, id int64) (*recurring.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return nil, recurring.ErrNotFound
	}
	return row.Clone(), nil
}

func (s *RuleStore) Update(_ context.Context, t *recurring.Transaction) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[t.ID]
	if !ok {
		return recurring.ErrNotFound
	}
	t.CreatedAt = row.CreatedAt
	t.UpdatedAt = s.now()
	s.rows[t.ID] = t.Clone()
	return nil
}

func (s *RuleStore) Delete(_ context.Context, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.rows[id]; !ok {
		return recurring.ErrNotFound
	}
	delete(s.rows, id)
	return nil
}

func (s *RuleStore) ListAll(_ context.Context) ([]*recurring.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(*recurring.Transaction) bool { return true }), nil
}

func (s *RuleStore) ListDue(_ context.Context, today recurrence.Day) ([]*recurring.Transaction, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	return s.collect(func(t *recurring.Transaction) bool {
		return t.IsEnabled && !t.Completed() && t.NextDueDate <= today
	}), nil
}

func (s *RuleStore) SetEnabled(_ context.Context, id int64, enabled bool) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[id]
	if !ok {
		return recurring.ErrNotFound
	}
	row.IsEnabled = enabled
	row.UpdatedAt = s.now()
	return nil
}

func (s *RuleStore) collect(keep func(*recurring.Transaction) bool) []*recurring.Transaction {
	out := make([]*recurring.Transaction, 0, len(s.rows))
	for _, row := range s.rows {
		if keep(row) {
			out = append(out, row.Clone())
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out
}
