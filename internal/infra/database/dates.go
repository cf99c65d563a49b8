package database

import (
	"database/sql"

	"recurring_ledger_bot/internal/domain/recurrence"
)

// DATE columns are written as YYYY-MM-DD text so no time zone is involved.
func dayArg(d recurrence.Day) string {
	return d.String()
}

func nullDayArg(d *recurrence.Day) interface{} {
	if d == nil {
		return nil
	}
	return d.String()
}

// Zero means unset for anchors and caps.
func nullIntArg(n int) sql.NullInt64 {
	return sql.NullInt64{Int64: int64(n), Valid: n != 0}
}

func dayFromNull(t sql.NullTime) *recurrence.Day {
	if !t.Valid {
		return nil
	}
	d := recurrence.DayOfTime(t.Time)
	return &d
}
