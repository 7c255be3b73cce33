// Package datekey implements the canonical "YYYY-MM-DD" date identifier.
//
// Keys are fixed-width and field-ordered, so lexicographic string order is
// chronological order. All range checks in the planner compare keys, never
// time.Time instants, which keeps the calendar math free of timezone/DST
// effects.
package datekey

import (
	"fmt"
	"time"
)

// Layout is the time.Parse layout matching the key format.
const Layout = "2006-01-02"

// Format builds the key for a calendar date. Inputs are assumed to be a
// well-formed date with a 4-digit year.
func Format(year int, month time.Month, day int) string {
	return fmt.Sprintf("%04d-%02d-%02d", year, int(month), day)
}

// Of returns the key for the calendar date of t.
func Of(t time.Time) string {
	return Format(t.Year(), t.Month(), t.Day())
}

// Within reports whether key falls inside [start, end], inclusive on both
// ends. Valid only for well-formed keys.
func Within(key, start, end string) bool {
	return start <= key && key <= end
}

// Valid reports whether key has the exact "YYYY-MM-DD" shape and names a real
// calendar date.
func Valid(key string) bool {
	if len(key) != 10 || key[4] != '-' || key[7] != '-' {
		return false
	}
	for i := 0; i < 10; i++ {
		if i == 4 || i == 7 {
			continue
		}
		if key[i] < '0' || key[i] > '9' {
			return false
		}
	}
	// Shape is right; let the time package reject Feb 30 and friends.
	_, err := time.Parse(Layout, key)
	return err == nil
}

// Time parses a key into a UTC midnight time.Time. Used where an external
// format (ICS) needs a real timestamp.
func Time(key string) (time.Time, error) {
	return time.Parse(Layout, key)
}
