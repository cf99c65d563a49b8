// internal/domain/recurring/transaction.go
package recurring

import (
	"database/sql"
	"time"

	"recurring_ledger_bot/internal/domain/recurrence"

	"github.com/shopspring/decimal"
)

// Kind tells the ledger which side of the balance an entry lands on.
type Kind string

const (
	KindIncome  Kind = "INCOME"
	KindExpense Kind = "EXPENSE"
)

func (k Kind) Valid() bool {
	return k == KindIncome || k == KindExpense
}

// Status is the terminal/non-terminal state of a rule. Pausing is tracked
// separately by IsEnabled.
type Status string

const (
	StatusActive    Status = "ACTIVE"
	StatusCompleted Status = "COMPLETED"
)

// Transaction is a periodic financial obligation together with its scheduling state.
// Corresponds to the 'recurring_transactions' table.
type Transaction struct {
	ID         int64
	Name       string
	Amount     decimal.Decimal
	Kind       Kind
	CategoryID sql.NullInt64
	Note       string
	LedgerID   string

	Rule recurrence.Rule

	NextDueDate      recurrence.Day
	LastExecutedDate *recurrence.Day
	OccurrenceCount  int
	IsEnabled        bool
	AutoExecute      bool
	Status           Status

	CreatedAt time.Time
	UpdatedAt time.Time
}

// Completed reports whether the rule reached a bound and will never fire again.
func (t *Transaction) Completed() bool {
	return t.Status == StatusCompleted
}

// IsDue reports whether the rule should fire its next occurrence on today.
func (t *Transaction) IsDue(today recurrence.Day) bool {
	if t.Completed() || !t.IsEnabled {
		return false
	}
	if t.NextDueDate > today {
		return false
	}
	if t.Rule.ReachedCap(t.OccurrenceCount) {
		return false
	}
	return !t.Rule.HasEnded(t.NextDueDate)
}

// AlreadyFired reports whether the current NextDueDate has been booked.
func (t *Transaction) AlreadyFired() bool {
	return t.LastExecutedDate != nil && *t.LastExecutedDate == t.NextDueDate
}

// Clone returns a deep copy, so a transition never aliases the caller's value.
func (t *Transaction) Clone() *Transaction {
	c := *t
	if t.LastExecutedDate != nil {
		d := *t.LastExecutedDate
		c.LastExecutedDate = &d
	}
	if t.Rule.EndDate != nil {
		d := *t.Rule.EndDate
		c.Rule.EndDate = &d
	}
	return &c
}
