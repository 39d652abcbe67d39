package webapp

import (
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"

	"nfwa/internal"
	"nfwa/internal/storage"
	"nfwa/internal/util"
)

type seededEvent struct {
	nameNo      string
	waEvent     string
	orientation internal.Orientation
	sortKey     int
}

func newTestServer(t *testing.T) *httptest.Server {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "nfwa.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })

	events := map[string]seededEvent{
		"sprint": {"100 meter", "100m", internal.OrientLower, 0},
		"jump":   {"Lengde", "LJ", internal.OrientHigher, 17},
	}
	eventIDs := map[string]int64{}
	for key, ev := range events {
		id, err := db.GetOrCreateEvent(internal.GenderWomen, internal.CanonicalEvent{
			NameNo:      ev.nameNo,
			WAEvent:     util.StrPtr(ev.waEvent),
			Orientation: ev.orientation,
			SortKey:     ev.sortKey,
		})
		if err != nil {
			t.Fatal(err)
		}
		eventIDs[key] = id
	}

	athletes := []struct {
		id          int64
		name        string
		nationality *string
	}{
		{101, "Anne Berg", nil},
		{102, "Ida Holm", nil},
		{103, "Maria Santos", util.StrPtr("POR")},
	}
	for _, a := range athletes {
		if err := db.UpsertAthlete(a.id, internal.GenderWomen, a.name, util.StrPtr("1998-03-01"), a.nationality); err != nil {
			t.Fatal(err)
		}
	}

	results := []struct {
		event   string
		athlete int64
		perf    string
		value   float64
		points  int
		date    string
	}{
		{"sprint", 101, "11.52", 11.52, 1105, "2023-06-10"},
		{"sprint", 102, "11.52", 11.52, 1105, "2023-06-17"},
		{"sprint", 103, "11.80", 11.80, 1048, "2023-07-01"},
		{"jump", 101, "6,12", 6.12, 1012, "2023-06-24"},
	}
	for _, r := range results {
		err := db.UpsertResult(storage.ResultInsert{
			Season:           2023,
			Gender:           internal.GenderWomen,
			Source:           internal.SourceMinfriidrett,
			EventID:          eventIDs[r.event],
			AthleteID:        r.athlete,
			PerformanceRaw:   r.perf,
			PerformanceClean: util.StrPtr(r.perf),
			Value:            util.FloatPtr(r.value),
			WAPoints:         util.IntPtr(r.points),
			ResultDate:       util.StrPtr(r.date),
			SourceURL:        "https://example.org/list",
		})
		if err != nil {
			t.Fatal(err)
		}
	}

	srv := httptest.NewServer(NewServer(db).Router())
	t.Cleanup(srv.Close)
	return srv
}

func getJSON(t *testing.T, srv *httptest.Server, path string, wantStatus int, into any) {
	t.Helper()
	res, err := http.Get(srv.URL + path)
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != wantStatus {
		t.Fatalf("GET %s status = %d, want %d", path, res.StatusCode, wantStatus)
	}
	if into != nil {
		if err := json.NewDecoder(res.Body).Decode(into); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
}

func TestMeta(t *testing.T) {
	srv := newTestServer(t)
	var meta struct {
		Seasons []int    `json:"seasons"`
		Genders []string `json:"genders"`
		TopNs   []int    `json:"top_ns"`
	}
	getJSON(t, srv, "/api/meta", http.StatusOK, &meta)

	if len(meta.Seasons) != 1 || meta.Seasons[0] != 2023 {
		t.Errorf("seasons = %v, want [2023]", meta.Seasons)
	}
	if len(meta.Genders) != 2 {
		t.Errorf("genders = %v", meta.Genders)
	}
	if len(meta.TopNs) == 0 {
		t.Error("top_ns missing")
	}
}

func TestEventsValidatesGender(t *testing.T) {
	srv := newTestServer(t)
	var apiErr struct {
		Error string `json:"error"`
	}
	getJSON(t, srv, "/api/events?gender=Mixed", http.StatusBadRequest, &apiErr)
	if apiErr.Error != "gender må være Women eller Men" {
		t.Errorf("error = %q", apiErr.Error)
	}

	var events []struct {
		EventNo string `json:"event_no"`
	}
	getJSON(t, srv, "/api/events?gender=Women", http.StatusOK, &events)
	if len(events) != 2 || events[0].EventNo != "100 meter" {
		t.Errorf("events = %+v", events)
	}
}

func TestSeasonSummarySortModes(t *testing.T) {
	srv := newTestServer(t)

	var rows []struct {
		EventNo    string   `json:"event_no"`
		AvgPoints  *float64 `json:"avg_points_top_n"`
		EventOrder int      `json:"event_order"`
	}
	getJSON(t, srv, "/api/season_summary?gender=Women&season=2023&top=10&sort=points", http.StatusOK, &rows)
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	// The sprint averages above 1000, the jump sits at 1012 exactly; the
	// sprint top-10 mean is (1105+1105+1048)/3.
	if rows[0].EventNo != "100 meter" {
		t.Errorf("points sort first = %q", rows[0].EventNo)
	}

	getJSON(t, srv, "/api/season_summary?gender=Women&season=2023&sort=event", http.StatusOK, &rows)
	if rows[0].EventNo != "100 meter" || rows[0].EventOrder != 0 {
		t.Errorf("event sort first = %+v", rows[0])
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	getJSON(t, srv, "/api/season_summary?gender=Women&season=2023&sort=bogus", http.StatusBadRequest, &apiErr)
	if apiErr.Error != "sort må være event, points eller performance" {
		t.Errorf("error = %q", apiErr.Error)
	}
}

func TestEventResultsSharedRanks(t *testing.T) {
	srv := newTestServer(t)

	var out struct {
		Total int `json:"total"`
		Rows  []struct {
			Rank        int    `json:"rank"`
			AthleteName string `json:"athlete_name"`
		} `json:"rows"`
	}
	getJSON(t, srv, "/api/event_results?gender=Women&season=2023&event=100+meter&mode=best", http.StatusOK, &out)
	if out.Total != 3 {
		t.Fatalf("total = %d, want 3", out.Total)
	}
	if out.Rows[0].Rank != 1 || out.Rows[1].Rank != 1 {
		t.Errorf("equal marks should share rank 1, got %d and %d", out.Rows[0].Rank, out.Rows[1].Rank)
	}
	if out.Rows[2].Rank != 3 {
		t.Errorf("rank after tie = %d, want 3", out.Rows[2].Rank)
	}

	var apiErr struct {
		Error string `json:"error"`
	}
	getJSON(t, srv, "/api/event_results?gender=Women&season=2023&event=100+meter&mode=fastest", http.StatusBadRequest, &apiErr)
	if apiErr.Error != "mode må være best eller all" {
		t.Errorf("error = %q", apiErr.Error)
	}
}

func TestAthleteEndpoint(t *testing.T) {
	srv := newTestServer(t)

	var out struct {
		AthleteID int64 `json:"athlete_id"`
		Rows      []struct {
			EventNo string `json:"event_no"`
		} `json:"rows"`
	}
	getJSON(t, srv, "/api/athlete?id=101", http.StatusOK, &out)
	if out.AthleteID != 101 || len(out.Rows) != 2 {
		t.Errorf("athlete 101 rows = %d, want 2", len(out.Rows))
	}

	getJSON(t, srv, "/api/athlete?id=999", http.StatusOK, &out)
	if len(out.Rows) != 0 {
		t.Errorf("unknown athlete rows = %d, want 0", len(out.Rows))
	}
}

func TestInspectOverviewAndForeign(t *testing.T) {
	srv := newTestServer(t)

	var o struct {
		TotalResults  int `json:"total_results"`
		TotalAthletes int `json:"total_athletes"`
	}
	getJSON(t, srv, "/api/inspect/overview", http.StatusOK, &o)
	if o.TotalResults != 4 || o.TotalAthletes != 3 {
		t.Errorf("overview = %+v", o)
	}

	var f struct {
		Total int `json:"total"`
		Rows  []struct {
			Nationality string `json:"nationality"`
		} `json:"rows"`
	}
	getJSON(t, srv, "/api/inspect/foreign", http.StatusOK, &f)
	if f.Total != 1 || len(f.Rows) != 1 || f.Rows[0].Nationality != "POR" {
		t.Errorf("foreign = %+v", f)
	}

	var cov []struct {
		Source  string `json:"source"`
		Results int    `json:"results"`
	}
	getJSON(t, srv, "/api/coverage", http.StatusOK, &cov)
	if len(cov) != 1 || cov[0].Source != "minfriidrett" || cov[0].Results != 4 {
		t.Errorf("coverage = %+v", cov)
	}
}

func TestUnknownAPIEndpoint(t *testing.T) {
	srv := newTestServer(t)
	var apiErr struct {
		Error string `json:"error"`
	}
	getJSON(t, srv, "/api/nope", http.StatusNotFound, &apiErr)
	if apiErr.Error != "Ukjent API-endepunkt" {
		t.Errorf("error = %q", apiErr.Error)
	}
}

func TestIndexPage(t *testing.T) {
	srv := newTestServer(t)
	res, err := http.Get(srv.URL + "/")
	if err != nil {
		t.Fatal(err)
	}
	defer res.Body.Close()
	if res.StatusCode != http.StatusOK {
		t.Fatalf("status = %d", res.StatusCode)
	}
	if ct := res.Header.Get("Content-Type"); ct != "text/html; charset=utf-8" {
		t.Errorf("content type = %q", ct)
	}
}
