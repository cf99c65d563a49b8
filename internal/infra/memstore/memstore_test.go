package memstore

import (
	"context"
	"errors"
	"testing"
	"time"

	"recurring_ledger_bot/internal/domain/ledger"
	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func weeklyRule() *recurring.Transaction {
	start := recurrence.NewDay(2024, time.April, 1)
	return &recurring.Transaction{
		Name:        "Cleaning",
		Amount:      decimal.NewFromInt(40),
		Kind:        recurring.KindExpense,
		LedgerID:    "personal",
		Rule:        recurrence.Rule{Frequency: recurrence.Weekly, Interval: 1, AnchorDayOfWeek: 1, StartDate: start},
		NextDueDate: start,
		IsEnabled:   true,
		AutoExecute: true,
		Status:      recurring.StatusActive,
	}
}

func TestRuleStore_ReturnsCopies(t *testing.T) {
	ctx := context.Background()
	s := NewRuleStore()
	rule := weeklyRule()
	require.NoError(t, s.Create(ctx, rule))

	got, err := s.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	got.Name = "changed"

	again, err := s.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, "Cleaning", again.Name)
}

func TestBooker_RejectsStaleState(t *testing.T) {
	ctx := context.Background()
	s := NewRuleStore()
	l := NewLedger()
	b := NewBooker(s, l)
	rule := weeklyRule()
	require.NoError(t, s.Create(ctx, rule))

	tr, err := recurring.Fire(rule)
	require.NoError(t, err)
	_, err = b.BookOccurrence(ctx, ledger.RequestFor(rule), tr)
	require.NoError(t, err)
	_, err = b.BookOccurrence(ctx, ledger.RequestFor(rule), tr)
	assert.ErrorIs(t, err, recurring.ErrStaleTransaction)

	saved, err := s.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, recurrence.NewDay(2024, time.April, 8), saved.NextDueDate)
	assert.Equal(t, 1, saved.OccurrenceCount)

	entries, err := l.ListByRule(ctx, rule.ID)
	require.NoError(t, err)
	assert.Len(t, entries, 1)

	require.NoError(t, s.Delete(ctx, rule.ID))
	_, err = b.BookOccurrence(ctx, ledger.RequestFor(rule), tr)
	assert.ErrorIs(t, err, recurring.ErrNotFound)
}

type brokenLedger struct{ *Ledger }

func (brokenLedger) BookEntry(context.Context, ledger.BookingRequest) (*ledger.Entry, error) {
	return nil, errors.New("disk full")
}

func TestBooker_LedgerFailureLeavesRuleUnchanged(t *testing.T) {
	ctx := context.Background()
	s := NewRuleStore()
	b := NewBooker(s, brokenLedger{NewLedger()})
	rule := weeklyRule()
	require.NoError(t, s.Create(ctx, rule))

	tr, err := recurring.Fire(rule)
	require.NoError(t, err)
	_, err = b.BookOccurrence(ctx, ledger.RequestFor(rule), tr)
	require.EqualError(t, err, "disk full")

	saved, err := s.GetByID(ctx, rule.ID)
	require.NoError(t, err)
	assert.Equal(t, rule.NextDueDate, saved.NextDueDate)
	assert.Zero(t, saved.OccurrenceCount)
	assert.Nil(t, saved.LastExecutedDate)
}

func TestRuleStore_ListDue(t *testing.T) {
	ctx := context.Background()
	s := NewRuleStore()

	due := weeklyRule()
	require.NoError(t, s.Create(ctx, due))
	paused := weeklyRule()
	require.NoError(t, s.Create(ctx, paused))
	require.NoError(t, s.SetEnabled(ctx, paused.ID, false))

	list, err := s.ListDue(ctx, recurrence.NewDay(2024, time.April, 1))
	require.NoError(t, err)
	require.Len(t, list, 1)
	assert.Equal(t, due.ID, list[0].ID)

	list, err = s.ListDue(ctx, recurrence.NewDay(2024, time.March, 31))
	require.NoError(t, err)
	assert.Empty(t, list)

	assert.ErrorIs(t, s.Delete(ctx, 99), recurring.ErrNotFound)
}

func TestLedger_DeduplicatesByRuleAndDate(t *testing.T) {
	ctx := context.Background()
	l := NewLedger()
	req := ledger.BookingRequest{
		RuleID:  7,
		DueDate: recurrence.NewDay(2024, time.April, 1),
		Kind:    recurring.KindExpense,
		Amount:  decimal.NewFromInt(40),
	}

	first, err := l.BookEntry(ctx, req)
	require.NoError(t, err)
	second, err := l.BookEntry(ctx, req)
	require.NoError(t, err)
	assert.Equal(t, first.ID, second.ID)

	req.DueDate = req.DueDate.AddDays(7)
	third, err := l.BookEntry(ctx, req)
	require.NoError(t, err)
	assert.NotEqual(t, first.ID, third.ID)

	entries, err := l.ListByRule(ctx, 7)
	require.NoError(t, err)
	assert.Len(t, entries, 2)
}
