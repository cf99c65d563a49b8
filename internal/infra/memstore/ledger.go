package memstore

import (
	"context"
	"sync"
	"time"

	"recurring_ledger_bot/internal/domain/ledger"

	"github.com/google/uuid"
)

// Ledger implements ledger.Ledger. Bookings are deduplicated on the request's
// idempotency key.
type Ledger struct {
	mu      sync.Mutex
	entries []*ledger.Entry
	byKey   map[string]*ledger.Entry
}

func NewLedger() *Ledger {
	return &Ledger{byKey: make(map[string]*ledger.Entry)}
}

func (l *Ledger) BookEntry(_ context.Context, req ledger.BookingRequest) (*ledger.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	if existing, ok := l.byKey[req.IdempotencyKey()]; ok {
		e := *existing
		return &e, nil
	}
	entry := &ledger.Entry{
		ID:         uuid.NewString(),
		RuleID:     req.RuleID,
		LedgerID:   req.LedgerID,
		EntryDate:  req.DueDate,
		Kind:       req.Kind,
		Amount:     req.Amount,
		CategoryID: req.CategoryID,
		Note:       req.Note,
		CreatedAt:  time.Now(),
	}
	l.entries = append(l.entries, entry)
	l.byKey[req.IdempotencyKey()] = entry
	e := *entry
	return &e, nil
}

func (l *Ledger) ListByRule(_ context.Context, ruleID int64) ([]*ledger.Entry, error) {
	l.mu.Lock()
	defer l.mu.Unlock()

	out := make([]*ledger.Entry, 0)
	for _, e := range l.entries {
		if e.RuleID == ruleID {
			c := *e
			out = append(out, &c)
		}
	}
	return out, nil
}
