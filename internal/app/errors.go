// internal/app/errors.go
package app

import (
	"errors"
	"fmt"

	"recurring_ledger_bot/internal/domain/recurring"
)

// Application-level errors for the schedule service.
var ErrAlreadyExecuted = recurring.ErrAlreadyExecuted
var ErrRuleCompleted = recurring.ErrCompleted
var ErrRuleNotFound = recurring.ErrNotFound
var ErrNotDue = errors.New("recurring transaction is not due yet")
var ErrRulePaused = errors.New("recurring transaction is paused")

// ValidationError rejects a create or edit request. It never reaches stored state.
type ValidationError struct {
	Field  string
	Reason string
}

func (e *ValidationError) Error() string {
	return fmt.Sprintf("validation failed on %s: %s", e.Field, e.Reason)
}

// PersistenceError wraps a failure of the rule store or the ledger.
type PersistenceError struct {
	Op  string
	Err error
}

func (e *PersistenceError) Error() string {
	return fmt.Sprintf("%s: %v", e.Op, e.Err)
}

func (e *PersistenceError) Unwrap() error {
	return e.Err
}

func persistenceError(op string, err error) error {
	return &PersistenceError{Op: op, Err: err}
}
