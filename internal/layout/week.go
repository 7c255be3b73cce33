package layout

import (
	"time"

	"yearcal/internal/model"
	"yearcal/internal/store"
)

// Segment is the portion of a multi-day event visible within one week, with
// its stacking row. StartCol/EndCol are 0..6 (Monday..Sunday). TrueStart and
// TrueEnd distinguish the event's actual global start/end from a week-local
// edge; the renderer uses them for bar rounding and label placement.
type Segment struct {
	Event     model.Event `json:"event"`
	StartCol  int         `json:"start_col"`
	EndCol    int         `json:"end_col"`
	Row       int         `json:"row"`
	TrueStart bool        `json:"true_start"`
	TrueEnd   bool        `json:"true_end"`
}

// WeekLayout is the layout engine's output for one week: row-packed
// spanning segments for multi-day events, plus the single-day events of each
// cell in insertion order. Single-day tiles stack by insertion order inside
// their cell and never enter row packing.
type WeekLayout struct {
	Week      Week             `json:"week"`
	Segments  []Segment        `json:"segments"`
	DayEvents [7][]model.Event `json:"day_events"`
}

// MonthLayout is the full layout-engine output for one month.
type MonthLayout struct {
	Year  int          `json:"year"`
	Month time.Month   `json:"month"`
	Weeks []WeekLayout `json:"weeks"`
}

// LayoutWeek places every event that falls on a non-blank day of the week.
//
// Multi-day events are considered once per week, in the order they are first
// encountered scanning columns left to right (ties within a column follow
// store insertion order). Each gets the smallest row not occupied by an
// already-placed segment with an overlapping column range. Rows are not
// carried across weeks; each week packs independently.
func LayoutWeek(week Week, s *store.Store) WeekLayout {
	out := WeekLayout{Week: week, Segments: []Segment{}}

	seen := make(map[string]bool)
	for col := 0; col < 7; col++ {
		cell := week[col]
		if cell.Blank() {
			continue
		}
		for _, ev := range s.OnDate(cell.Key) {
			if !ev.MultiDay() {
				out.DayEvents[col] = append(out.DayEvents[col], ev)
				continue
			}
			if seen[ev.ID] {
				continue
			}
			seen[ev.ID] = true

			seg := spanSegment(week, ev, col)
			seg.Row = firstFreeRow(out.Segments, seg)
			out.Segments = append(out.Segments, seg)
		}
	}
	return out
}

// spanSegment computes the column range of ev within week, starting from the
// first column it was found on. Blanks occur only at a week's edges, so the
// covered columns form one contiguous range.
func spanSegment(week Week, ev model.Event, firstCol int) Segment {
	seg := Segment{Event: ev, StartCol: firstCol, EndCol: firstCol}
	for col := firstCol + 1; col < 7; col++ {
		if week[col].Blank() {
			continue
		}
		if !ev.Covers(week[col].Key) {
			break
		}
		seg.EndCol = col
	}
	seg.TrueStart = week[seg.StartCol].Key == ev.Start
	seg.TrueEnd = week[seg.EndCol].Key == ev.End
	return seg
}

// firstFreeRow returns the smallest row not used by any placed segment whose
// column range overlaps the candidate's. Greedy first-fit is optimal here:
// the rows used in a week never exceed the maximum number of segments
// crossing any single column.
func firstFreeRow(placed []Segment, cand Segment) int {
	used := make(map[int]bool, len(placed))
	for _, p := range placed {
		if p.StartCol <= cand.EndCol && cand.StartCol <= p.EndCol {
			used[p.Row] = true
		}
	}
	row := 0
	for used[row] {
		row++
	}
	return row
}

// LayoutMonth runs the week layout over every week of the month grid. This
// is the whole layout-engine contract for one month.
func LayoutMonth(year int, month time.Month, s *store.Store) MonthLayout {
	grid := MonthGrid(year, month)
	weeks := make([]WeekLayout, len(grid))
	for i, w := range grid {
		weeks[i] = LayoutWeek(w, s)
	}
	return MonthLayout{Year: year, Month: month, Weeks: weeks}
}
