// internal/domain/recurring/transition.go
package recurring

import (
	"errors"

	"recurring_ledger_bot/internal/domain/recurrence"
)

var ErrAlreadyExecuted = errors.New("occurrence already executed")
var ErrCompleted = errors.New("recurring transaction is completed")

// Transition is the result of firing one occurrence. Before is untouched; After
// is what the store must persist once the ledger entry is booked.
type Transition struct {
	Before    *Transaction
	After     *Transaction
	FiredDate recurrence.Day
}

// Completed reports whether the fired occurrence was the last one.
func (tr Transition) Completed() bool {
	return tr.After.Completed()
}

// Fire computes the state after booking t's next occurrence. It does not check
// IsDue; callers decide when an occurrence may fire.
func Fire(t *Transaction) (Transition, error) {
	if t.Completed() {
		return Transition{}, ErrCompleted
	}
	if t.AlreadyFired() {
		return Transition{}, ErrAlreadyExecuted
	}

	fired := t.NextDueDate
	after := t.Clone()
	after.LastExecutedDate = &fired
	after.OccurrenceCount++

	if after.Rule.ReachedCap(after.OccurrenceCount) {
		after.Status = StatusCompleted
		return Transition{Before: t, After: after, FiredDate: fired}, nil
	}

	next := recurrence.Advance(after.Rule, fired)
	if after.Rule.HasEnded(next) {
		after.Status = StatusCompleted
		return Transition{Before: t, After: after, FiredDate: fired}, nil
	}
	after.NextDueDate = next
	return Transition{Before: t, After: after, FiredDate: fired}, nil
}
