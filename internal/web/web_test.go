package web

import (
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"yearcal/internal/config"
	"yearcal/internal/model"
	"yearcal/internal/store"
)

func testConfig() *config.Config {
	cfg := &config.Config{
		Listen: "127.0.0.1:0",
		Title:  "Training 2026",
		Year:   2026,
	}
	cfg.Normalize()
	return cfg
}

func testStore(t *testing.T) *store.Store {
	t.Helper()
	s, err := store.New([]model.Event{
		{ID: "block", Title: "October block", Start: "2026-10-05", End: "2026-10-20", Color: "#16a34a"},
		{ID: "race", Title: "Race day", Start: "2026-10-17", End: "2026-10-17", Color: "#dc2626", Details: "10k"},
	})
	if err != nil {
		t.Fatal(err)
	}
	return s
}

func newTestServer(t *testing.T, cfg *config.Config) (*Server, *httptest.Server) {
	t.Helper()
	srv, err := NewServer(cfg, testStore(t))
	if err != nil {
		t.Fatal(err)
	}
	ts := httptest.NewServer(srv.Handler())
	t.Cleanup(ts.Close)
	return srv, ts
}

func get(t *testing.T, url string) (*http.Response, string) {
	t.Helper()
	resp, err := http.Get(url)
	if err != nil {
		t.Fatal(err)
	}
	body, err := io.ReadAll(resp.Body)
	resp.Body.Close()
	if err != nil {
		t.Fatal(err)
	}
	return resp, string(body)
}

func TestHealth(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK || body != "OK" {
		t.Errorf("health = %d %q", resp.StatusCode, body)
	}
}

func TestEventsAPI(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/api/events")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("list status = %d", resp.StatusCode)
	}
	var events []model.Event
	if err := json.Unmarshal([]byte(body), &events); err != nil {
		t.Fatal(err)
	}
	if len(events) != 2 || events[0].ID != "block" {
		t.Errorf("events = %+v", events)
	}

	resp, body = get(t, ts.URL+"/api/events/race")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("detail status = %d", resp.StatusCode)
	}
	var ev model.Event
	if err := json.Unmarshal([]byte(body), &ev); err != nil {
		t.Fatal(err)
	}
	if ev.Title != "Race day" || ev.Details != "10k" {
		t.Errorf("detail = %+v", ev)
	}

	resp, _ = get(t, ts.URL+"/api/events/missing")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing event status = %d, want 404", resp.StatusCode)
	}
}

type monthJSON struct {
	Year      int    `json:"year"`
	Month     int    `json:"month"`
	MonthName string `json:"month_name"`
	Weeks     []struct {
		Segments []struct {
			Event     model.Event `json:"event"`
			StartCol  int         `json:"start_col"`
			EndCol    int         `json:"end_col"`
			Row       int         `json:"row"`
			TrueStart bool        `json:"true_start"`
			TrueEnd   bool        `json:"true_end"`
		} `json:"segments"`
		DayEvents [7][]model.Event `json:"day_events"`
	} `json:"weeks"`
}

func TestMonthAPI(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/api/month?year=2026&month=10")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var m monthJSON
	if err := json.Unmarshal([]byte(body), &m); err != nil {
		t.Fatal(err)
	}
	if m.Year != 2026 || m.Month != 10 || m.MonthName != "October" {
		t.Errorf("month header = %+v", m)
	}
	if len(m.Weeks) != 5 {
		t.Fatalf("October 2026 has %d weeks, want 5", len(m.Weeks))
	}

	// The multi-day block spans the full second week; the single-day race
	// sits as a tile on Saturday of the third.
	if len(m.Weeks[1].Segments) != 1 {
		t.Fatalf("week 1 segments = %d, want 1", len(m.Weeks[1].Segments))
	}
	seg := m.Weeks[1].Segments[0]
	if seg.Event.ID != "block" || seg.StartCol != 0 || seg.EndCol != 6 {
		t.Errorf("week 1 segment = %+v", seg)
	}
	tiles := m.Weeks[2].DayEvents[5]
	if len(tiles) != 1 || tiles[0].ID != "race" {
		t.Errorf("week 2 Saturday tiles = %+v", tiles)
	}
}

func TestMonthAPIRejectsBadParams(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	for _, path := range []string{
		"/api/month",
		"/api/month?year=2026",
		"/api/month?year=2026&month=0",
		"/api/month?year=2026&month=13",
		"/api/month?year=banana&month=5",
		"/api/month?year=0&month=5",
	} {
		resp, _ := get(t, ts.URL+path)
		if resp.StatusCode != http.StatusBadRequest {
			t.Errorf("%s status = %d, want 400", path, resp.StatusCode)
		}
	}
}

func TestYearAPI(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/api/year")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	var y struct {
		Title  string      `json:"title"`
		Year   int         `json:"year"`
		Months []monthJSON `json:"months"`
	}
	if err := json.Unmarshal([]byte(body), &y); err != nil {
		t.Fatal(err)
	}
	if y.Year != 2026 || y.Title != "Training 2026" || len(y.Months) != 12 {
		t.Errorf("year = %d title = %q months = %d", y.Year, y.Title, len(y.Months))
	}
}

func TestICSEndpoint(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/calendar.ics")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/calendar") {
		t.Errorf("content type = %q", ct)
	}
	if !strings.Contains(body, "BEGIN:VCALENDAR") || !strings.Contains(body, "SUMMARY:Race day") {
		t.Error("ICS body missing expected content")
	}
}

func TestIndexPage(t *testing.T) {
	_, ts := newTestServer(t, testConfig())

	resp, body := get(t, ts.URL+"/")
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", resp.StatusCode)
	}
	for _, want := range []string{
		`data-ready="true"`,
		"October block",
		"Race day",
		"Training 2026",
	} {
		if !strings.Contains(body, want) {
			t.Errorf("page missing %q", want)
		}
	}

	resp, _ = get(t, ts.URL+"/no-such-page")
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("unknown path status = %d, want 404", resp.StatusCode)
	}
}

func TestBasicAuth(t *testing.T) {
	cfg := testConfig()
	cfg.BasicAuth = &config.BasicAuthConfig{Username: "u", Password: "p"}
	_, ts := newTestServer(t, cfg)

	// /health stays open.
	resp, _ := get(t, ts.URL+"/health")
	if resp.StatusCode != http.StatusOK {
		t.Errorf("health status = %d, want 200", resp.StatusCode)
	}

	resp, _ = get(t, ts.URL+"/api/events")
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("unauthenticated status = %d, want 401", resp.StatusCode)
	}

	req, _ := http.NewRequest(http.MethodGet, ts.URL+"/api/events", nil)
	req.SetBasicAuth("u", "wrong")
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnauthorized {
		t.Errorf("bad password status = %d, want 401", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodGet, ts.URL+"/api/events", nil)
	req.SetBasicAuth("u", "p")
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatal(err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Errorf("authenticated status = %d, want 200", resp.StatusCode)
	}
}

func TestSwapStoreInvalidatesLayouts(t *testing.T) {
	srv, ts := newTestServer(t, testConfig())

	// Prime the layout cache for November (no events there yet).
	resp, body := get(t, ts.URL+"/api/month?year=2026&month=11")
	if resp.StatusCode != http.StatusOK {
		t.Fatal(resp.StatusCode)
	}
	if strings.Contains(body, "november-camp") {
		t.Fatal("unexpected event before swap")
	}

	next, err := store.New([]model.Event{
		{ID: "november-camp", Title: "November camp", Start: "2026-11-09", End: "2026-11-13"},
	})
	if err != nil {
		t.Fatal(err)
	}
	srv.SwapStore(next)

	_, body = get(t, ts.URL+"/api/month?year=2026&month=11")
	if !strings.Contains(body, "november-camp") {
		t.Error("swap did not invalidate the cached layout")
	}
}
