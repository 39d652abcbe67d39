package ingest

import (
	"os"
	"path/filepath"
	"testing"

	"nfwa/internal"
	"nfwa/internal/config"
	"nfwa/internal/events"
	"nfwa/internal/scoring"
	"nfwa/internal/storage"
	"nfwa/internal/util"
)

type fakeScorer struct {
	points int
	exact  bool
	err    error
}

func (f fakeScorer) Score(gender, waEvent, performance string) (int, bool, error) {
	if f.err != nil {
		return 0, false, f.err
	}
	return f.points, f.exact, nil
}

func newTestService(t *testing.T, scorer scoring.Scorer) *Service {
	t.Helper()
	db, err := storage.Open(filepath.Join(t.TempDir(), "nfwa.db"))
	if err != nil {
		t.Fatalf("open db: %v", err)
	}
	t.Cleanup(func() { _ = db.Close() })

	waEvents := map[internal.Gender]map[string]bool{
		internal.GenderMen:   {"100m": true, "HJ": true, "10 km": true},
		internal.GenderWomen: {"100m": true, "HJ": true, "10 km": true},
	}
	return &Service{
		db:       db,
		cfg:      config.Config{},
		resolver: events.NewResolver(waEvents),
		bridge:   scoring.NewBridge(scorer),
	}
}

func sprintRow() internal.RawResult {
	native := int64(555)
	return internal.RawResult{
		Source:          internal.SourceMinfriidrett,
		SourceURL:       "https://www.minfriidrett.no/statistikk?showclass=11",
		Season:          2024,
		Gender:          internal.GenderMen,
		EventLabel:      "100 meter",
		RankInList:      1,
		PerformanceRaw:  "10,46",
		AthleteName:     "Ola Nordmann",
		AthleteNativeID: &native,
		Club:            util.StrPtr("IL Tyrving"),
	}
}

func TestIngestRowPipeline(t *testing.T) {
	svc := newTestService(t, fakeScorer{points: 1000, exact: true})

	var sum internal.SyncSummary
	if err := svc.ingestRow(sprintRow(), &sum); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sum.RowsSeen != 1 || sum.RowsInserted != 1 || sum.WASuccess != 1 {
		t.Errorf("summary = %+v", sum)
	}

	res, err := svc.db.EventResultsList(2024, internal.GenderMen, "100 meter", "all", 10, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Total != 1 || len(res.Rows) != 1 {
		t.Fatalf("rows = %d total = %d", len(res.Rows), res.Total)
	}
	row := res.Rows[0]
	if row.AthleteID != 555 {
		t.Errorf("athlete id = %d, want native 555", row.AthleteID)
	}
	if row.PerformanceClean == nil || *row.PerformanceClean != "10.46" {
		t.Errorf("performance = %v", row.PerformanceClean)
	}
	if row.Value == nil || *row.Value != 10.46 {
		t.Errorf("value = %v", row.Value)
	}
	if row.WAPoints == nil || *row.WAPoints != 1000 {
		t.Errorf("points = %v", row.WAPoints)
	}
	if row.ClubName == nil || *row.ClubName != "IL Tyrving" {
		t.Errorf("club = %v", row.ClubName)
	}
}

func TestIngestRowIdempotent(t *testing.T) {
	svc := newTestService(t, fakeScorer{points: 1000})

	for i := 0; i < 2; i++ {
		var sum internal.SyncSummary
		if err := svc.ingestRow(sprintRow(), &sum); err != nil {
			t.Fatalf("ingest %d: %v", i, err)
		}
	}
	res, err := svc.db.EventResultsList(2024, internal.GenderMen, "100 meter", "all", 10, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("total = %d, want 1 after re-ingest", res.Total)
	}
}

func TestIngestRowUnknownEvent(t *testing.T) {
	svc := newTestService(t, fakeScorer{points: 1000})

	row := sprintRow()
	row.EventLabel = "Kommentarer til listene"
	var sum internal.SyncSummary
	if err := svc.ingestRow(row, &sum); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sum.RowsInserted != 0 || sum.RowsSkipped != 1 {
		t.Errorf("summary = %+v", sum)
	}
	if sum.UnknownEvents["Kommentarer til listene"] != 1 {
		t.Errorf("unknown events = %v", sum.UnknownEvents)
	}
}

func TestIngestRowHighJumpCentimetres(t *testing.T) {
	svc := newTestService(t, fakeScorer{points: 900})

	row := sprintRow()
	row.EventLabel = "Høyde"
	row.PerformanceRaw = "235"
	var sum internal.SyncSummary
	if err := svc.ingestRow(row, &sum); err != nil {
		t.Fatalf("ingest: %v", err)
	}

	res, err := svc.db.EventResultsList(2024, internal.GenderMen, "Høyde", "all", 10, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Rows) != 1 {
		t.Fatalf("rows = %d", len(res.Rows))
	}
	if res.Rows[0].PerformanceRaw != "2,35" {
		t.Errorf("display raw = %q, want 2,35", res.Rows[0].PerformanceRaw)
	}
	if res.Rows[0].Value == nil || *res.Rows[0].Value != 2.35 {
		t.Errorf("value = %v", res.Rows[0].Value)
	}
}

func TestIngestRowScoringFailure(t *testing.T) {
	svc := newTestService(t, fakeScorer{err: scoring.ErrOutOfRange})

	var sum internal.SyncSummary
	if err := svc.ingestRow(sprintRow(), &sum); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sum.WAFailed != 1 || sum.WASuccess != 0 {
		t.Errorf("summary = %+v", sum)
	}
}

func TestIngestRowVoidMark(t *testing.T) {
	svc := newTestService(t, fakeScorer{points: 1000})

	row := sprintRow()
	row.PerformanceRaw = "DNF"
	var sum internal.SyncSummary
	if err := svc.ingestRow(row, &sum); err != nil {
		t.Fatalf("ingest: %v", err)
	}
	if sum.RowsInserted != 1 || sum.WAMissing != 1 {
		t.Errorf("summary = %+v", sum)
	}
	res, err := svc.db.EventResultsList(2024, internal.GenderMen, "100 meter", "all", 10, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if len(res.Rows) != 1 || res.Rows[0].Value != nil {
		t.Errorf("void mark should keep the row without a value: %+v", res.Rows)
	}
}

func TestSyncOldData(t *testing.T) {
	dataDir := t.TempDir()
	menn := filepath.Join(dataDir, "1998", "menn")
	if err := os.MkdirAll(menn, 0o755); err != nil {
		t.Fatal(err)
	}
	file := "100 METER\nrank_in_list,athlete_name,club_name,birth_date,venue_city,performance_raw\n1,Geir Moen,Moss IL,26.06.69,Oslo,10.35\n"
	if err := os.WriteFile(filepath.Join(menn, "sprint.txt"), []byte(file), 0o644); err != nil {
		t.Fatal(err)
	}

	svc := newTestService(t, fakeScorer{points: 1100})
	svc.cfg.OldDataDir = dataDir

	for i := 0; i < 2; i++ {
		sum, err := svc.SyncOldData([]int{1998})
		if err != nil {
			t.Fatalf("sync %d: %v", i, err)
		}
		if sum.Pages != 1 || sum.RowsInserted != 1 {
			t.Errorf("sync %d summary = %+v", i, sum)
		}
	}

	res, err := svc.db.EventResultsList(1998, internal.GenderMen, "100 meter", "all", 10, 0)
	if err != nil {
		t.Fatalf("query: %v", err)
	}
	if res.Total != 1 {
		t.Errorf("total = %d, want 1", res.Total)
	}
	if res.Rows[0].AthleteID >= 0 {
		t.Errorf("archive athlete must get a derived negative ID, got %d", res.Rows[0].AthleteID)
	}
}

func TestDisplayRawPerformance(t *testing.T) {
	hj := "HJ"
	pv := "PV"
	tests := []struct {
		raw     string
		waEvent *string
		norm    *string
		want    string
	}{
		{"10,46", nil, util.StrPtr("10.46"), "10,46"},
		{"235", &hj, util.StrPtr("2.35"), "2,35"},
		{"600", &pv, util.StrPtr("6.00"), "6,00"},
		{"90", &hj, nil, "90"},
		{"2,35", &hj, nil, "2,35"},
		{"3.12,43", nil, util.StrPtr("3:12:43"), "3.12.43"},
		{"3.12,43", nil, util.StrPtr("3:12.43"), "3.12,43"},
	}
	for _, tc := range tests {
		if got := displayRawPerformance(tc.raw, tc.waEvent, tc.norm); got != tc.want {
			t.Errorf("displayRawPerformance(%q) = %q, want %q", tc.raw, got, tc.want)
		}
	}
}
