package web

import (
	"strings"
	"time"

	"yearcal/internal/layout"
	"yearcal/internal/model"
	"yearcal/internal/store"
)

// The view model precomputes all pixel/percent geometry in Go so the
// template stays a dumb loop.

const barRowPx = 24

type pageData struct {
	Title  string
	Year   int
	Months []monthView
}

type monthView struct {
	Name   string
	Number int
	Weeks  []weekView
}

type weekView struct {
	Cells  [7]layout.Cell
	Bars   []barView
	Tiles  [7][]model.Event
	BandPx int // height of the bar band: rows * barRowPx
}

type barView struct {
	ID       string
	Title    string
	Color    string
	LeftPct  float64
	WidthPct float64
	TopPx    int
	Round    string // css modifier classes for end rounding
	Label    bool   // draw the title on this segment
}

func buildPage(title string, year int, st *store.Store) pageData {
	page := pageData{Title: title, Year: year}
	for m := time.January; m <= time.December; m++ {
		page.Months = append(page.Months, buildMonth(layout.LayoutMonth(year, m, st)))
	}
	return page
}

func buildMonth(ml layout.MonthLayout) monthView {
	mv := monthView{Name: ml.Month.String(), Number: int(ml.Month)}
	for _, wl := range ml.Weeks {
		mv.Weeks = append(mv.Weeks, buildWeek(wl))
	}
	return mv
}

func buildWeek(wl layout.WeekLayout) weekView {
	wv := weekView{Cells: wl.Week, Tiles: wl.DayEvents}

	rows := 0
	for _, seg := range wl.Segments {
		if seg.Row+1 > rows {
			rows = seg.Row + 1
		}
		wv.Bars = append(wv.Bars, barView{
			ID:       seg.Event.ID,
			Title:    seg.Event.Title,
			Color:    seg.Event.Color,
			LeftPct:  float64(seg.StartCol) * 100 / 7,
			WidthPct: float64(seg.EndCol-seg.StartCol+1) * 100 / 7,
			TopPx:    seg.Row * barRowPx,
			Round:    roundClasses(wl.Week, seg),
			Label:    seg.TrueStart || seg.StartCol == 0,
		})
	}
	wv.BandPx = rows * barRowPx
	return wv
}

// roundClasses rounds a bar's corners only on the days where the event
// really begins or ends; continuation segments stay square-edged.
func roundClasses(week layout.Week, seg layout.Segment) string {
	var classes []string
	if seg.Event.EdgeOn(week[seg.StartCol].Key) == model.EdgeStart {
		classes = append(classes, "round-start")
	}
	if seg.Event.EdgeOn(week[seg.EndCol].Key) == model.EdgeEnd {
		classes = append(classes, "round-end")
	}
	return strings.Join(classes, " ")
}
