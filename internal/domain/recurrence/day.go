// internal/domain/recurrence/day.go
package recurrence

import (
	"time"

	"cloud.google.com/go/civil"
)

// Day is a whole calendar day counted from 1970-01-01. It carries no time of day
// and no location.
type Day int

var epoch = civil.Date{Year: 1970, Month: time.January, Day: 1}

// DayOf converts a civil date to a day count.
func DayOf(d civil.Date) Day {
	return Day(d.DaysSince(epoch))
}

// DayOfTime takes the calendar date of t in its own location.
func DayOfTime(t time.Time) Day {
	return DayOf(civil.DateOf(t))
}

// NewDay builds a day from year/month/day. Out-of-range components normalize the
// way time.Date does.
func NewDay(year int, month time.Month, day int) Day {
	return DayOfTime(time.Date(year, month, day, 0, 0, 0, 0, time.UTC))
}

// ParseDay parses a YYYY-MM-DD date.
func ParseDay(s string) (Day, error) {
	d, err := civil.ParseDate(s)
	if err != nil {
		return 0, err
	}
	return DayOf(d), nil
}

// Date returns the civil date for the day.
func (d Day) Date() civil.Date {
	return epoch.AddDays(int(d))
}

// Time returns midnight UTC of the day.
func (d Day) Time() time.Time {
	return d.Date().In(time.UTC)
}

// ISOWeekday returns 1 for Monday through 7 for Sunday.
func (d Day) ISOWeekday() int {
	wd := int(d.Time().Weekday())
	if wd == 0 {
		return 7
	}
	return wd
}

func (d Day) AddDays(n int) Day {
	return d + Day(n)
}

func (d Day) String() string {
	return d.Date().String()
}

// daysIn returns the length of the given month.
func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}

// clampedDay builds the date year/month/day with day clamped to the month length.
// The month may lie outside 1..12; it is normalized first.
func clampedDay(year int, month time.Month, day int) Day {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	y, m := first.Year(), first.Month()
	if n := daysIn(y, m); day > n {
		day = n
	}
	return NewDay(y, m, day)
}
