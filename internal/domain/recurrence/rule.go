// internal/domain/recurrence/rule.go
package recurrence

import "fmt"

// Rule describes when a recurring transaction repeats. Zero anchors mean "unset";
// EndDate nil means open-ended; MaxOccurrences 0 means uncapped.
type Rule struct {
	Frequency         Frequency
	Interval          int
	AnchorDayOfWeek   int // 1 = Monday .. 7 = Sunday
	AnchorDayOfMonth  int
	AnchorMonthOfYear int
	StartDate         Day
	EndDate           *Day
	MaxOccurrences    int
}

// RuleError reports the first field of a rule that is out of range.
type RuleError struct {
	Field  string
	Reason string
}

func (e *RuleError) Error() string {
	return fmt.Sprintf("invalid %s: %s", e.Field, e.Reason)
}

// Validate checks the structural constraints Seed and Advance rely on.
func (r Rule) Validate() error {
	if !r.Frequency.Valid() {
		return &RuleError{Field: "frequency", Reason: fmt.Sprintf("unknown frequency %q", string(r.Frequency))}
	}
	if r.Interval < 1 {
		return &RuleError{Field: "interval", Reason: "must be at least 1"}
	}
	if r.AnchorDayOfWeek < 0 || r.AnchorDayOfWeek > 7 {
		return &RuleError{Field: "anchor_day_of_week", Reason: "must be between 1 and 7"}
	}
	if r.AnchorDayOfMonth < 0 || r.AnchorDayOfMonth > 31 {
		return &RuleError{Field: "anchor_day_of_month", Reason: "must be between 1 and 31"}
	}
	if r.AnchorMonthOfYear < 0 || r.AnchorMonthOfYear > 12 {
		return &RuleError{Field: "anchor_month_of_year", Reason: "must be between 1 and 12"}
	}
	if r.EndDate != nil && *r.EndDate < r.StartDate {
		return &RuleError{Field: "end_date", Reason: "must not be before start_date"}
	}
	if r.MaxOccurrences < 0 {
		return &RuleError{Field: "max_occurrences", Reason: "must not be negative"}
	}
	return nil
}

// Normalize drops anchors the frequency does not use.
func (r Rule) Normalize() Rule {
	if !r.Frequency.UsesWeekday() {
		r.AnchorDayOfWeek = 0
	}
	if !r.Frequency.UsesMonthDay() {
		r.AnchorDayOfMonth = 0
	}
	if r.Frequency != Yearly {
		r.AnchorMonthOfYear = 0
	}
	return r
}

// HasEnded reports whether d lies after the rule's end date.
func (r Rule) HasEnded(d Day) bool {
	return r.EndDate != nil && d > *r.EndDate
}

// ReachedCap reports whether count firings exhaust MaxOccurrences.
func (r Rule) ReachedCap(count int) bool {
	return r.MaxOccurrences > 0 && count >= r.MaxOccurrences
}
