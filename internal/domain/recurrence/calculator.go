// internal/domain/recurrence/calculator.go
package recurrence

// Seed returns the first occurrence on or after max(StartDate, today+1). Interval
// spacing is not applied to the first occurrence.
// The rule must have passed Validate.
func Seed(r Rule, today Day) Day {
	ref := today.AddDays(1)
	if r.StartDate > ref {
		ref = r.StartDate
	}
	return cadences[r.Frequency].seed(r, ref)
}

// Advance returns the occurrence that follows fired, one interval later.
// Month-based frequencies re-clamp the anchor day to the target month.
func Advance(r Rule, fired Day) Day {
	return cadences[r.Frequency].advance(r, fired)
}

// Pin fills unset anchors from the seeded occurrence so that later advances aim
// at the same weekday or day-of-month instead of drifting after a short month.
func Pin(r Rule, seeded Day) Rule {
	return cadences[r.Frequency].pin(r, seeded)
}
