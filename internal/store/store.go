// Package store holds the immutable, insertion-ordered event collection.
package store

import (
	"fmt"

	"yearcal/internal/model"
)

// Store is a read-only view over the loaded event list. It is safe for
// concurrent use: nothing mutates it after New returns. Insertion order is
// preserved everywhere, so authoring order controls stacking preference on
// ties.
type Store struct {
	events []model.Event
	byID   map[string]int
}

// New validates every event and builds the store. Any malformed record or
// duplicate ID fails the whole load; the caller is expected to refuse to
// start (or keep its previous store) on error.
func New(events []model.Event) (*Store, error) {
	s := &Store{
		events: make([]model.Event, len(events)),
		byID:   make(map[string]int, len(events)),
	}
	copy(s.events, events)

	for i, ev := range s.events {
		if err := ev.Validate(); err != nil {
			return nil, fmt.Errorf("event %d (id=%q): %w", i, ev.ID, err)
		}
		if _, dup := s.byID[ev.ID]; dup {
			return nil, fmt.Errorf("event %d: duplicate id %q", i, ev.ID)
		}
		s.byID[ev.ID] = i
	}
	return s, nil
}

// Len returns the number of events.
func (s *Store) Len() int {
	return len(s.events)
}

// Events returns a copy of the full event list in insertion order.
func (s *Store) Events() []model.Event {
	out := make([]model.Event, len(s.events))
	copy(out, s.events)
	return out
}

// OnDate returns the events whose span covers key, in insertion order.
// No sort is applied.
func (s *Store) OnDate(key string) []model.Event {
	var out []model.Event
	for _, ev := range s.events {
		if ev.Covers(key) {
			out = append(out, ev)
		}
	}
	return out
}

// ByID looks up a single event, typically for click dispatch from the
// rendered page.
func (s *Store) ByID(id string) (model.Event, bool) {
	i, ok := s.byID[id]
	if !ok {
		return model.Event{}, false
	}
	return s.events[i], true
}
