package ics

import (
	"bytes"
	"errors"
	"strings"
	"time"

	ical "github.com/arran4/golang-ical"

	"yearcal/internal/datekey"
	appLog "yearcal/internal/log"
	"yearcal/internal/model"
)

// Parse converts a single ICS payload into plan events.
//
// The planner works on whole calendar days, so each VEVENT collapses to an
// inclusive [start, end] date-key range in local time. Recurring events are
// skipped with a log line — both RRULE masters and their RECURRENCE-ID
// override instances, which share the master's UID: the planner has no
// recurrence rules. Malformed VEVENTs are skipped the same way; one bad
// event does not fail the feed.
func Parse(src Source, body []byte) ([]model.Event, error) {
	if len(body) == 0 {
		return nil, errors.New("empty ICS body")
	}

	cal, err := ical.ParseCalendar(bytes.NewReader(body))
	if err != nil {
		appLog.Error("ics parse failed", err, "id", src.ID, "url", redactURL(src.URL))
		return nil, err
	}

	events := make([]model.Event, 0)
	skippedRecurring := 0

	for _, ve := range cal.Events() {
		// Recurrence masters (RRULE) and moved instances of them
		// (RECURRENCE-ID) are both skipped: the planner has no recurrence,
		// and override instances share their master's UID, which would
		// collide in the store.
		if p := ve.GetProperty(ical.ComponentPropertyRrule); p != nil && p.Value != "" {
			skippedRecurring++
			continue
		}
		if p := ve.GetProperty("RECURRENCE-ID"); p != nil && p.Value != "" {
			skippedRecurring++
			continue
		}

		ev, perr := parseVEvent(src, ve)
		if perr != nil {
			appLog.Error("ics vevent skipped", perr, "id", src.ID)
			continue
		}
		events = append(events, ev)
	}

	if skippedRecurring > 0 {
		appLog.Info("ics recurring events skipped", "id", src.ID, "count", skippedRecurring)
	}
	appLog.Info("ics parse completed", "id", src.ID, "event_count", len(events))
	return events, nil
}

func parseVEvent(src Source, ve *ical.VEvent) (model.Event, error) {
	var out model.Event

	uidProp := ve.GetProperty(ical.ComponentPropertyUniqueId)
	if uidProp == nil || uidProp.Value == "" {
		return out, errors.New("missing UID")
	}
	out.ID = src.ID + "/" + uidProp.Value
	out.Color = src.Color

	if p := ve.GetProperty(ical.ComponentPropertySummary); p != nil {
		out.Title = p.Value
	}
	if out.Title == "" {
		out.Title = "(untitled)"
	}
	if p := ve.GetProperty(ical.ComponentPropertyDescription); p != nil {
		out.Details = p.Value
	}
	if p := ve.GetProperty(ical.ComponentPropertyLocation); p != nil && p.Value != "" {
		if out.Details != "" {
			out.Details += "\n"
		}
		out.Details += p.Value
	}

	start, err := ve.GetStartAt()
	if err != nil {
		return out, err
	}
	end, endErr := ve.GetEndAt()

	allDay := isAllDay(ve)

	// Dates are taken in the timestamp's own location; converting zones
	// would shift all-day events across midnight.
	out.Start = datekey.Of(start)
	out.End = out.Start
	if endErr == nil && end.After(start) {
		// DTEND is exclusive; an event ending at a midnight boundary does
		// not occupy that day.
		if allDay || isMidnight(end) {
			end = end.Add(-time.Second)
		}
		if k := datekey.Of(end); k > out.Start {
			out.End = k
		}
	}

	if err := out.Validate(); err != nil {
		return out, err
	}
	return out, nil
}

// isAllDay detects all-day events from DTSTART: VALUE=DATE or a value
// without a time component.
func isAllDay(ve *ical.VEvent) bool {
	p := ve.GetProperty(ical.ComponentPropertyDtStart)
	if p == nil {
		return false
	}
	if params := p.ICalParameters; params != nil {
		if vs, ok := params["VALUE"]; ok && len(vs) > 0 && strings.EqualFold(vs[0], "DATE") {
			return true
		}
	}
	return !strings.Contains(p.Value, "T")
}

func isMidnight(t time.Time) bool {
	h, m, s := t.Clock()
	return h == 0 && m == 0 && s == 0
}
