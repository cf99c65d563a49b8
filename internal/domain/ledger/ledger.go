// internal/domain/ledger/ledger.go
package ledger

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/shopspring/decimal"
)

// BookingRequest is one occurrence of a recurring transaction to be written to
// the ledger. (RuleID, DueDate) identifies it across retries and restarts.
type BookingRequest struct {
	RuleID     int64
	DueDate    recurrence.Day
	LedgerID   string
	Kind       recurring.Kind
	Amount     decimal.Decimal
	CategoryID sql.NullInt64
	Note       string
}

// IdempotencyKey is the natural key of a booking.
func (r BookingRequest) IdempotencyKey() string {
	return fmt.Sprintf("rule:%d:%s", r.RuleID, r.DueDate)
}

// RequestFor builds the booking for t's current NextDueDate.
func RequestFor(t *recurring.Transaction) BookingRequest {
	note := t.Note
	if note == "" {
		note = t.Name
	}
	return BookingRequest{
		RuleID:     t.ID,
		DueDate:    t.NextDueDate,
		LedgerID:   t.LedgerID,
		Kind:       t.Kind,
		Amount:     t.Amount,
		CategoryID: t.CategoryID,
		Note:       note,
	}
}

// Entry is a booked ledger row.
// Corresponds to the 'ledger_entries' table.
type Entry struct {
	ID         string
	RuleID     int64
	LedgerID   string
	EntryDate  recurrence.Day
	Kind       recurring.Kind
	Amount     decimal.Decimal
	CategoryID sql.NullInt64
	Note       string
	CreatedAt  time.Time
}

// Ledger books entries. BookEntry must be idempotent on (RuleID, DueDate): a
// repeated request returns the entry booked the first time.
type Ledger interface {
	BookEntry(ctx context.Context, req BookingRequest) (*Entry, error)
	ListByRule(ctx context.Context, ruleID int64) ([]*Entry, error)
}

// Booker books an occurrence and stores the advanced rule as one unit: either
// the entry exists and tr.After is persisted, or nothing changed. The rule write
// is conditional on tr.Before; a lost race returns recurring.ErrStaleTransaction
// and books nothing.
type Booker interface {
	BookOccurrence(ctx context.Context, req BookingRequest, tr recurring.Transition) (*Entry, error)
}
