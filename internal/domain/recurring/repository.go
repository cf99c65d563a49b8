// internal/domain/recurring/repository.go
package recurring

import (
	"context"
	"errors"

	"recurring_ledger_bot/internal/domain/recurrence"
)

// Errors every Repository implementation reports. ErrStaleTransaction comes
// from the conditional write that stores an executed occurrence.
var (
	ErrNotFound         = errors.New("recurring transaction not found")
	ErrStaleTransaction = errors.New("recurring transaction changed since it was read")
)

// Repository defines the durable store for recurring transactions.
type Repository interface {
	Create(ctx context.Context, t *Transaction) error
	GetByID(ctx context.Context, id int64) (*Transaction, error)
	Update(ctx context.Context, t *Transaction) error // Replaces spec fields and schedule state
	Delete(ctx context.Context, id int64) error
	ListAll(ctx context.Context) ([]*Transaction, error)

	// ListDue returns enabled, non-completed rules with NextDueDate on or before today.
	// Cap and end-date filtering is re-applied by the caller via Transaction.IsDue.
	ListDue(ctx context.Context, today recurrence.Day) ([]*Transaction, error)

	// SetEnabled flips the pause flag without touching the schedule.
	SetEnabled(ctx context.Context, id int64, enabled bool) error
}
