// Package model defines the planner's event record.
package model

import (
	"errors"
	"fmt"

	"yearcal/internal/datekey"
)

// Event is a single dated entry of the year plan: a training block, a
// milestone, a trip. Start and End are inclusive date keys ("YYYY-MM-DD").
// Events are loaded once at startup and never mutated during a run.
type Event struct {
	ID      string `yaml:"id" json:"id"`
	Title   string `yaml:"title" json:"title"`
	Start   string `yaml:"start" json:"start"`
	End     string `yaml:"end" json:"end"`
	Color   string `yaml:"color" json:"color"`
	Details string `yaml:"details,omitempty" json:"details,omitempty"`
}

// Validate checks the record once at load time. A start key sorting after
// the end key would silently break every range query, so the store refuses
// to start with such an event.
func (e Event) Validate() error {
	if e.ID == "" {
		return errors.New("missing id")
	}
	if e.Title == "" {
		return errors.New("missing title")
	}
	if !datekey.Valid(e.Start) {
		return fmt.Errorf("start %q is not a valid YYYY-MM-DD key", e.Start)
	}
	if !datekey.Valid(e.End) {
		return fmt.Errorf("end %q is not a valid YYYY-MM-DD key", e.End)
	}
	if e.Start > e.End {
		return fmt.Errorf("start %q is after end %q", e.Start, e.End)
	}
	return nil
}

// MultiDay reports whether the event spans more than one calendar day.
// Multi-day events render as spanning bars, single-day ones as in-cell tiles.
func (e Event) MultiDay() bool {
	return e.Start != e.End
}

// Covers reports whether key falls inside the event's inclusive span.
func (e Event) Covers(key string) bool {
	return datekey.Within(key, e.Start, e.End)
}

// Edge classifies a date's role within an event's span. Presentation uses it
// to decide bar-end rounding and label placement.
type Edge string

const (
	EdgeSingle Edge = "single"
	EdgeStart  Edge = "start"
	EdgeMiddle Edge = "middle"
	EdgeEnd    Edge = "end"
)

// EdgeOn returns the role of key within the event. The caller is expected to
// pass a key the event actually covers; for keys outside the span the result
// is meaningless.
func (e Event) EdgeOn(key string) Edge {
	if e.Start == e.End {
		return EdgeSingle
	}
	switch key {
	case e.Start:
		return EdgeStart
	case e.End:
		return EdgeEnd
	}
	return EdgeMiddle
}
