package ics

import (
	"time"

	ical "github.com/arran4/golang-ical"

	"yearcal/internal/datekey"
	"yearcal/internal/model"
)

// Export serializes the plan as an ICS feed of all-day VEVENTs. Start/end
// date keys map to DTSTART;VALUE=DATE with the customary exclusive DTEND
// (the day after the plan's inclusive end).
//
// Events with keys that fail to parse are skipped; the store validated them
// at load, so that only happens on a hand-built list.
func Export(name string, events []model.Event) string {
	cal := ical.NewCalendar()
	cal.SetMethod(ical.MethodPublish)
	cal.SetProductId("-//yearcal//calendar//EN")
	if name != "" {
		cal.SetXWRCalName(name)
	}

	now := time.Now().UTC()
	for _, e := range events {
		start, err := datekey.Time(e.Start)
		if err != nil {
			continue
		}
		end, err := datekey.Time(e.End)
		if err != nil {
			continue
		}

		ve := cal.AddEvent(e.ID)
		ve.SetDtStampTime(now)
		ve.SetAllDayStartAt(start)
		ve.SetAllDayEndAt(end.AddDate(0, 0, 1))
		ve.SetSummary(e.Title)
		if e.Details != "" {
			ve.SetDescription(e.Details)
		}
		if e.Color != "" {
			ve.SetColor(e.Color)
		}
	}

	return cal.Serialize()
}
