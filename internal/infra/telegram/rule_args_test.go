package telegram

import (
	"testing"
	"time"

	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseRuleArgs_Minimal(t *testing.T) {
	spec, err := ParseRuleArgs([]string{"Phone_bill", "expense", "19.99", "monthly", "1", "2024-05-20"}, "personal")
	require.NoError(t, err)

	assert.Equal(t, "Phone bill", spec.Name)
	assert.Equal(t, recurring.KindExpense, spec.Kind)
	assert.Equal(t, "19.99", spec.Amount.String())
	assert.Equal(t, "personal", spec.LedgerID)
	assert.True(t, spec.AutoExecute)
	assert.Equal(t, recurrence.Monthly, spec.Rule.Frequency)
	assert.Equal(t, 1, spec.Rule.Interval)
	assert.Equal(t, recurrence.NewDay(2024, time.May, 20), spec.Rule.StartDate)
	assert.Nil(t, spec.Rule.EndDate)
}

func TestParseRuleArgs_Options(t *testing.T) {
	spec, err := ParseRuleArgs([]string{
		"Salary", "INCOME", "3000", "Biweekly", "1", "2024-01-03",
		"anchor=fri", "until=2024-12-31", "times=10", "note=from_work", "manual",
	}, "personal")
	require.NoError(t, err)

	assert.Equal(t, recurring.KindIncome, spec.Kind)
	assert.Equal(t, 5, spec.Rule.AnchorDayOfWeek)
	require.NotNil(t, spec.Rule.EndDate)
	assert.Equal(t, recurrence.NewDay(2024, time.December, 31), *spec.Rule.EndDate)
	assert.Equal(t, 10, spec.Rule.MaxOccurrences)
	assert.Equal(t, "from work", spec.Note)
	assert.False(t, spec.AutoExecute)
}

func TestParseRuleArgs_AnchorByFrequency(t *testing.T) {
	base := []string{"Rule", "expense", "10", "", "1", "2024-01-01"}
	tests := []struct {
		freq   string
		anchor string
		want   recurrence.Rule
	}{
		{"weekly", "3", recurrence.Rule{AnchorDayOfWeek: 3}},
		{"monthly", "31", recurrence.Rule{AnchorDayOfMonth: 31}},
		{"quarterly", "15", recurrence.Rule{AnchorDayOfMonth: 15}},
		{"yearly", "02-29", recurrence.Rule{AnchorMonthOfYear: 2, AnchorDayOfMonth: 29}},
	}
	for _, tt := range tests {
		t.Run(tt.freq, func(t *testing.T) {
			args := append([]string(nil), base...)
			args[3] = tt.freq
			args = append(args, "anchor="+tt.anchor)

			spec, err := ParseRuleArgs(args, "personal")
			require.NoError(t, err)
			assert.Equal(t, tt.want.AnchorDayOfWeek, spec.Rule.AnchorDayOfWeek)
			assert.Equal(t, tt.want.AnchorDayOfMonth, spec.Rule.AnchorDayOfMonth)
			assert.Equal(t, tt.want.AnchorMonthOfYear, spec.Rule.AnchorMonthOfYear)
		})
	}
}

func TestParseRuleArgs_Errors(t *testing.T) {
	tests := []struct {
		name string
		args []string
		msg  string
	}{
		{"too few", []string{"Rent", "expense", "10"}, "at least 6"},
		{"bad kind", []string{"Rent", "transfer", "10", "monthly", "1", "2024-01-01"}, "kind"},
		{"bad amount", []string{"Rent", "expense", "ten", "monthly", "1", "2024-01-01"}, "amount"},
		{"bad frequency", []string{"Rent", "expense", "10", "hourly", "1", "2024-01-01"}, "frequency"},
		{"bad interval", []string{"Rent", "expense", "10", "monthly", "x", "2024-01-01"}, "interval"},
		{"bad start", []string{"Rent", "expense", "10", "monthly", "1", "01/01/2024"}, "start date"},
		{"daily anchor", []string{"Rent", "expense", "10", "daily", "1", "2024-01-01", "anchor=3"}, "no anchor"},
		{"yearly anchor", []string{"Rent", "expense", "10", "yearly", "1", "2024-01-01", "anchor=29"}, "MM-DD"},
		{"zero times", []string{"Rent", "expense", "10", "monthly", "1", "2024-01-01", "times=0"}, "times"},
		{"unknown option", []string{"Rent", "expense", "10", "monthly", "1", "2024-01-01", "color=red"}, "unknown option"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := ParseRuleArgs(tt.args, "personal")
			require.Error(t, err)
			assert.Contains(t, err.Error(), tt.msg)
		})
	}
}
