// internal/domain/recurring/spec.go
package recurring

import (
	"database/sql"

	"recurring_ledger_bot/internal/domain/recurrence"

	"github.com/shopspring/decimal"
)

// Spec is the user-editable part of a recurring transaction, as submitted on
// create and edit.
type Spec struct {
	Name        string
	Amount      decimal.Decimal
	Kind        Kind
	CategoryID  sql.NullInt64
	Note        string
	LedgerID    string
	Rule        recurrence.Rule
	AutoExecute bool
}

// Apply copies the spec onto t and moves the schedule to nextDue. Progress
// (OccurrenceCount, LastExecutedDate) and Status carry over, so a cap keeps
// counting every firing the rule ever made.
func (s Spec) Apply(t *Transaction, nextDue recurrence.Day) {
	t.Name = s.Name
	t.Amount = s.Amount
	t.Kind = s.Kind
	t.CategoryID = s.CategoryID
	t.Note = s.Note
	t.LedgerID = s.LedgerID
	t.Rule = recurrence.Pin(s.Rule, nextDue)
	t.AutoExecute = s.AutoExecute
	t.NextDueDate = nextDue
}
