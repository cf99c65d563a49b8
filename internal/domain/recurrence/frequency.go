// internal/domain/recurrence/frequency.go
package recurrence

import (
	"fmt"
	"strings"
	"time"
)

// Frequency is the unit a rule repeats in. The set is closed; every value maps to
// exactly one cadence below.
type Frequency string

const (
	Daily     Frequency = "DAILY"
	Weekly    Frequency = "WEEKLY"
	Biweekly  Frequency = "BIWEEKLY"
	Monthly   Frequency = "MONTHLY"
	Quarterly Frequency = "QUARTERLY"
	Yearly    Frequency = "YEARLY"
)

// cadence holds the date math for one frequency.
type cadence interface {
	seed(r Rule, ref Day) Day
	advance(r Rule, fired Day) Day
	pin(r Rule, seeded Day) Rule
}

var cadences = map[Frequency]cadence{
	Daily:     dayCadence{},
	Weekly:    weekCadence{weeks: 1},
	Biweekly:  weekCadence{weeks: 2},
	Monthly:   monthCadence{months: 1},
	Quarterly: monthCadence{months: 3},
	Yearly:    yearCadence{},
}

// Frequencies lists all supported frequencies in display order.
func Frequencies() []Frequency {
	return []Frequency{Daily, Weekly, Biweekly, Monthly, Quarterly, Yearly}
}

// ParseFrequency accepts any case and surrounding whitespace.
func ParseFrequency(s string) (Frequency, error) {
	f := Frequency(strings.ToUpper(strings.TrimSpace(s)))
	if !f.Valid() {
		return "", fmt.Errorf("unknown frequency %q", s)
	}
	return f, nil
}

func (f Frequency) Valid() bool {
	_, ok := cadences[f]
	return ok
}

// UsesWeekday reports whether anchorDayOfWeek applies.
func (f Frequency) UsesWeekday() bool {
	return f == Weekly || f == Biweekly
}

// UsesMonthDay reports whether anchorDayOfMonth applies.
func (f Frequency) UsesMonthDay() bool {
	return f == Monthly || f == Quarterly || f == Yearly
}

func (f Frequency) String() string {
	return string(f)
}

type dayCadence struct{}

func (dayCadence) seed(_ Rule, ref Day) Day { return ref }

func (dayCadence) advance(r Rule, fired Day) Day { return fired.AddDays(r.Interval) }

func (dayCadence) pin(r Rule, _ Day) Rule { return r }

type weekCadence struct {
	weeks int
}

func (weekCadence) seed(r Rule, ref Day) Day {
	if r.AnchorDayOfWeek == 0 {
		return ref
	}
	d := ref
	for d.ISOWeekday() != r.AnchorDayOfWeek {
		d = d.AddDays(1)
	}
	return d
}

func (c weekCadence) advance(r Rule, fired Day) Day {
	return fired.AddDays(7 * c.weeks * r.Interval)
}

func (weekCadence) pin(r Rule, seeded Day) Rule {
	if r.AnchorDayOfWeek == 0 {
		r.AnchorDayOfWeek = seeded.ISOWeekday()
	}
	return r
}

type monthCadence struct {
	months int
}

func (monthCadence) seed(r Rule, ref Day) Day {
	return seedMonthDay(r, ref)
}

func (c monthCadence) advance(r Rule, fired Day) Day {
	return addMonths(fired, c.months*r.Interval, anchorOrDay(r, fired))
}

func (monthCadence) pin(r Rule, seeded Day) Rule {
	if r.AnchorDayOfMonth == 0 {
		r.AnchorDayOfMonth = seeded.Date().Day
	}
	return r
}

type yearCadence struct{}

func (yearCadence) seed(r Rule, ref Day) Day {
	if r.AnchorMonthOfYear == 0 {
		return seedMonthDay(r, ref)
	}
	date := ref.Date()
	day := r.AnchorDayOfMonth
	if day == 0 {
		day = date.Day
	}
	candidate := clampedDay(date.Year, monthOf(r.AnchorMonthOfYear), day)
	if candidate < ref {
		candidate = clampedDay(date.Year+1, monthOf(r.AnchorMonthOfYear), day)
	}
	return candidate
}

func (yearCadence) advance(r Rule, fired Day) Day {
	date := fired.Date()
	month := date.Month
	if r.AnchorMonthOfYear != 0 {
		month = monthOf(r.AnchorMonthOfYear)
	}
	return clampedDay(date.Year+r.Interval, month, anchorOrDay(r, fired))
}

func (yearCadence) pin(r Rule, seeded Day) Rule {
	date := seeded.Date()
	if r.AnchorMonthOfYear == 0 {
		r.AnchorMonthOfYear = int(date.Month)
	}
	if r.AnchorDayOfMonth == 0 {
		r.AnchorDayOfMonth = date.Day
	}
	return r
}

// seedMonthDay places the anchor day in ref's month, or the following month when
// that date is already behind ref.
func seedMonthDay(r Rule, ref Day) Day {
	date := ref.Date()
	day := anchorOrDay(r, ref)
	candidate := clampedDay(date.Year, date.Month, day)
	if candidate < ref {
		candidate = clampedDay(date.Year, date.Month+1, day)
	}
	return candidate
}

func addMonths(from Day, months, day int) Day {
	date := from.Date()
	return clampedDay(date.Year, date.Month+monthOf(months), day)
}

func anchorOrDay(r Rule, d Day) int {
	if r.AnchorDayOfMonth != 0 {
		return r.AnchorDayOfMonth
	}
	return d.Date().Day
}

func monthOf(n int) time.Month { return time.Month(n) }
