package memstore

import (
	"context"

	"recurring_ledger_bot/internal/domain/ledger"
	"recurring_ledger_bot/internal/domain/recurring"
)

// Booker implements ledger.Booker over a RuleStore and any ledger. The rule
// store's mutex is held across the stale check, the booking and the rule
// write, so the row only advances once the entry exists.
type Booker struct {
	rules  *RuleStore
	ledger ledger.Ledger
}

func NewBooker(rules *RuleStore, l ledger.Ledger) *Booker {
	return &Booker{rules: rules, ledger: l}
}

func (b *Booker) BookOccurrence(ctx context.Context, req ledger.BookingRequest, tr recurring.Transition) (*ledger.Entry, error) {
	s := b.rules
	s.mu.Lock()
	defer s.mu.Unlock()

	row, ok := s.rows[tr.After.ID]
	if !ok {
		return nil, recurring.ErrNotFound
	}
	if row.OccurrenceCount != tr.Before.OccurrenceCount || row.NextDueDate != tr.Before.NextDueDate {
		return nil, recurring.ErrStaleTransaction
	}

	entry, err := b.ledger.BookEntry(ctx, req)
	if err != nil {
		return nil, err
	}

	after := tr.After.Clone()
	after.UpdatedAt = s.now()
	s.rows[after.ID] = after
	return entry, nil
}
