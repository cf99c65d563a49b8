package recurring

import (
	"testing"
	"time"

	"recurring_ledger_bot/internal/domain/recurrence"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newRent(rule recurrence.Rule, due recurrence.Day) *Transaction {
	t := &Transaction{ID: 7, IsEnabled: true, AutoExecute: true, Status: StatusActive}
	Spec{
		Name:     "Rent",
		Amount:   decimal.RequireFromString("1250.00"),
		Kind:     KindExpense,
		LedgerID: "personal",
		Rule:     rule,
	}.Apply(t, due)
	return t
}

func TestFire_AdvancesAndRecordsExecution(t *testing.T) {
	start := recurrence.NewDay(2024, time.January, 31)
	tx := newRent(recurrence.Rule{Frequency: recurrence.Monthly, Interval: 1, AnchorDayOfMonth: 31, StartDate: start}, start)

	tr, err := Fire(tx)
	require.NoError(t, err)

	assert.Equal(t, start, tr.FiredDate)
	assert.Equal(t, recurrence.NewDay(2024, time.February, 29), tr.After.NextDueDate)
	require.NotNil(t, tr.After.LastExecutedDate)
	assert.Equal(t, start, *tr.After.LastExecutedDate)
	assert.Equal(t, 1, tr.After.OccurrenceCount)
	assert.False(t, tr.Completed())

	// Before is left as it was.
	assert.Nil(t, tx.LastExecutedDate)
	assert.Equal(t, 0, tx.OccurrenceCount)
	assert.Equal(t, start, tx.NextDueDate)
}

func TestFire_RejectsAlreadyExecutedOccurrence(t *testing.T) {
	start := recurrence.NewDay(2024, time.March, 1)
	tx := newRent(recurrence.Rule{Frequency: recurrence.Daily, Interval: 1, StartDate: start}, start)
	tx.LastExecutedDate = &start

	_, err := Fire(tx)
	assert.ErrorIs(t, err, ErrAlreadyExecuted)
}

func TestFire_CompletesAtMaxOccurrences(t *testing.T) {
	start := recurrence.NewDay(2024, time.March, 1)
	tx := newRent(recurrence.Rule{Frequency: recurrence.Weekly, Interval: 1, StartDate: start, MaxOccurrences: 2}, start)

	tr, err := Fire(tx)
	require.NoError(t, err)
	require.False(t, tr.Completed())

	tr, err = Fire(tr.After)
	require.NoError(t, err)
	assert.True(t, tr.Completed())
	assert.Equal(t, 2, tr.After.OccurrenceCount)
	assert.Equal(t, recurrence.NewDay(2024, time.March, 8), tr.After.NextDueDate, "completed rules keep the last fired date")

	_, err = Fire(tr.After)
	assert.ErrorIs(t, err, ErrCompleted)
}

func TestFire_CompletesWhenNextOccurrencePassesEndDate(t *testing.T) {
	start := recurrence.NewDay(2024, time.January, 10)
	third := recurrence.NewDay(2024, time.March, 10)
	end := third.AddDays(-1)
	tx := newRent(recurrence.Rule{Frequency: recurrence.Monthly, Interval: 1, StartDate: start, EndDate: &end}, start)

	tr, err := Fire(tx)
	require.NoError(t, err)
	require.False(t, tr.Completed())
	assert.Equal(t, recurrence.NewDay(2024, time.February, 10), tr.After.NextDueDate)

	tr, err = Fire(tr.After)
	require.NoError(t, err)
	assert.True(t, tr.Completed())
}

func TestIsDue(t *testing.T) {
	start := recurrence.NewDay(2024, time.May, 1)
	end := recurrence.NewDay(2024, time.May, 31)

	tests := []struct {
		name   string
		mutate func(tx *Transaction)
		today  recurrence.Day
		want   bool
	}{
		{"due today", func(*Transaction) {}, start, true},
		{"overdue", func(*Transaction) {}, start.AddDays(40), true},
		{"not yet", func(*Transaction) {}, start.AddDays(-1), false},
		{"paused", func(tx *Transaction) { tx.IsEnabled = false }, start, false},
		{"completed", func(tx *Transaction) { tx.Status = StatusCompleted }, start, false},
		{"cap reached", func(tx *Transaction) { tx.Rule.MaxOccurrences = 3; tx.OccurrenceCount = 3 }, start, false},
		{"past end date", func(tx *Transaction) { tx.Rule.EndDate = &end; tx.NextDueDate = end.AddDays(1) }, end.AddDays(5), false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			tx := newRent(recurrence.Rule{Frequency: recurrence.Daily, Interval: 1, StartDate: start}, start)
			tt.mutate(tx)
			assert.Equal(t, tt.want, tx.IsDue(tt.today))
		})
	}
}

func TestSpecApply_KeepsProgressAndPinsAnchor(t *testing.T) {
	start := recurrence.NewDay(2024, time.January, 31)
	tx := newRent(recurrence.Rule{Frequency: recurrence.Daily, Interval: 1, StartDate: start}, start)
	fired := start
	tx.LastExecutedDate = &fired
	tx.OccurrenceCount = 5

	next := recurrence.NewDay(2024, time.March, 31)
	Spec{Name: "Rent", Amount: decimal.NewFromInt(900), Kind: KindExpense,
		Rule: recurrence.Rule{Frequency: recurrence.Monthly, Interval: 1, StartDate: start}}.Apply(tx, next)

	require.NotNil(t, tx.LastExecutedDate)
	assert.Equal(t, start, *tx.LastExecutedDate)
	assert.Equal(t, 5, tx.OccurrenceCount)
	assert.Equal(t, StatusActive, tx.Status)
	assert.Equal(t, next, tx.NextDueDate)
	assert.Equal(t, 31, tx.Rule.AnchorDayOfMonth)
	assert.True(t, tx.Amount.Equal(decimal.NewFromInt(900)))
}
