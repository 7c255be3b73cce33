// Package layout computes the month grid and the per-week event placement
// that the page renderer draws. Everything here is a pure function of
// (year, month, store); callers may recompute on every request.
package layout

import (
	"time"

	"yearcal/internal/datekey"
)

// Cell is one position in a month grid. The zero value is a blank: padding
// before the 1st or after the month's last day.
type Cell struct {
	Day int    `json:"day"`
	Key string `json:"key,omitempty"`
}

// Blank reports whether the cell carries no calendar day.
func (c Cell) Blank() bool {
	return c.Day == 0
}

// Week is seven cells, Monday through Sunday.
type Week [7]Cell

// MonthGrid builds the week-partitioned grid for a month: leading blanks to
// align day 1 to its weekday in a Monday-first week, days 1..n, trailing
// blanks to complete the final week.
func MonthGrid(year int, month time.Month) []Week {
	first := time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
	// Day 0 of the next month is the last day of this one.
	days := time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()

	// time.Weekday has Sunday=0; rotate so Monday=0..Sunday=6.
	lead := (int(first.Weekday()) + 6) % 7

	total := lead + days
	if rem := total % 7; rem != 0 {
		total += 7 - rem
	}

	weeks := make([]Week, total/7)
	for day := 1; day <= days; day++ {
		idx := lead + day - 1
		weeks[idx/7][idx%7] = Cell{
			Day: day,
			Key: datekey.Format(year, month, day),
		}
	}
	return weeks
}
