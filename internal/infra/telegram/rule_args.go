// internal/infra/telegram/rule_args.go
package telegram

import (
	"fmt"
	"strconv"
	"strings"

	"recurring_ledger_bot/internal/domain/recurrence"
	"recurring_ledger_bot/internal/domain/recurring"

	"github.com/shopspring/decimal"
)

const ruleArgsUsage = "<name> <income|expense> <amount> <frequency> <interval> <start YYYY-MM-DD> " +
	"[anchor=<day>] [until=YYYY-MM-DD] [times=N] [note=<text>] [manual]"

var weekdayNames = map[string]int{
	"mon": 1, "tue": 2, "wed": 3, "thu": 4, "fri": 5, "sat": 6, "sun": 7,
}

// ParseRuleArgs turns /add_rule and /edit_rule arguments into a spec.
// Underscores in the name and note stand for spaces. The anchor is read
// according to the frequency: a weekday (1-7 or mon..sun) for weekly rules,
// a day of month for monthly and quarterly, MM-DD for yearly.
// Range checks are left to the schedule service.
func ParseRuleArgs(args []string, ledgerID string) (recurring.Spec, error) {
	spec := recurring.Spec{LedgerID: ledgerID, AutoExecute: true}
	if len(args) < 6 {
		return spec, fmt.Errorf("expected at least 6 arguments, got %d", len(args))
	}

	spec.Name = strings.ReplaceAll(args[0], "_", " ")

	spec.Kind = recurring.Kind(strings.ToUpper(args[1]))
	if !spec.Kind.Valid() {
		return spec, fmt.Errorf("kind must be income or expense, got %q", args[1])
	}

	amount, err := decimal.NewFromString(args[2])
	if err != nil {
		return spec, fmt.Errorf("amount %q is not a number", args[2])
	}
	spec.Amount = amount

	freq, err := recurrence.ParseFrequency(args[3])
	if err != nil {
		return spec, err
	}
	spec.Rule.Frequency = freq

	spec.Rule.Interval, err = strconv.Atoi(args[4])
	if err != nil {
		return spec, fmt.Errorf("interval %q is not a whole number", args[4])
	}

	spec.Rule.StartDate, err = recurrence.ParseDay(args[5])
	if err != nil {
		return spec, fmt.Errorf("start date %q must be YYYY-MM-DD", args[5])
	}

	for _, opt := range args[6:] {
		if err := applyRuleOption(&spec, opt); err != nil {
			return spec, err
		}
	}
	return spec, nil
}

func applyRuleOption(spec *recurring.Spec, opt string) error {
	if strings.EqualFold(opt, "manual") {
		spec.AutoExecute = false
		return nil
	}

	key, value, ok := strings.Cut(opt, "=")
	if !ok || value == "" {
		return fmt.Errorf("unknown option %q", opt)
	}

	switch strings.ToLower(key) {
	case "anchor":
		return applyAnchor(&spec.Rule, value)
	case "until":
		end, err := recurrence.ParseDay(value)
		if err != nil {
			return fmt.Errorf("until %q must be YYYY-MM-DD", value)
		}
		spec.Rule.EndDate = &end
	case "times":
		n, err := strconv.Atoi(value)
		if err != nil || n < 1 {
			return fmt.Errorf("times %q must be a positive whole number", value)
		}
		spec.Rule.MaxOccurrences = n
	case "note":
		spec.Note = strings.ReplaceAll(value, "_", " ")
	default:
		return fmt.Errorf("unknown option %q", key)
	}
	return nil
}

func applyAnchor(rule *recurrence.Rule, value string) error {
	switch {
	case rule.Frequency.UsesWeekday():
		if n, ok := weekdayNames[strings.ToLower(value)]; ok {
			rule.AnchorDayOfWeek = n
			return nil
		}
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("weekday anchor %q must be 1-7 or mon..sun", value)
		}
		rule.AnchorDayOfWeek = n
	case rule.Frequency == recurrence.Yearly:
		monthStr, dayStr, ok := strings.Cut(value, "-")
		if !ok {
			return fmt.Errorf("yearly anchor %q must be MM-DD", value)
		}
		month, err1 := strconv.Atoi(monthStr)
		day, err2 := strconv.Atoi(dayStr)
		if err1 != nil || err2 != nil {
			return fmt.Errorf("yearly anchor %q must be MM-DD", value)
		}
		rule.AnchorMonthOfYear = month
		rule.AnchorDayOfMonth = day
	case rule.Frequency.UsesMonthDay():
		n, err := strconv.Atoi(value)
		if err != nil {
			return fmt.Errorf("day-of-month anchor %q must be a number", value)
		}
		rule.AnchorDayOfMonth = n
	default:
		return fmt.Errorf("%s rules take no anchor", strings.ToLower(string(rule.Frequency)))
	}
	return nil
}
