package storage

import (
	"path/filepath"
	"testing"

	"nfwa/internal"
	"nfwa/internal/util"
)

func openTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := Open(filepath.Join(t.TempDir(), "nfwa.db"))
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { _ = db.Close() })
	return db
}

func seedResult(t *testing.T, db *DB, athleteID int64, name, perfRaw string, value float64, points *int) {
	t.Helper()
	if err := db.UpsertAthlete(athleteID, internal.GenderWomen, name, util.StrPtr("1995-05-01"), nil); err != nil {
		t.Fatal(err)
	}
	clubID, err := db.GetOrCreateClub(util.StrPtr("IL Trim"))
	if err != nil {
		t.Fatal(err)
	}
	eventID, err := db.GetOrCreateEvent(internal.GenderWomen, internal.CanonicalEvent{
		NameNo:      "100 meter",
		WAEvent:     util.StrPtr("100m"),
		Orientation: internal.OrientLower,
		SortKey:     0,
	})
	if err != nil {
		t.Fatal(err)
	}
	err = db.UpsertResult(ResultInsert{
		Season:           2023,
		Gender:           internal.GenderWomen,
		Source:           internal.SourceMinfriidrett,
		EventID:          eventID,
		AthleteID:        athleteID,
		ClubID:           clubID,
		PerformanceRaw:   perfRaw,
		PerformanceClean: util.StrPtr(perfRaw),
		Value:            &value,
		ResultDate:       util.StrPtr("2023-06-10"),
		WAPoints:         points,
		WAEvent:          util.StrPtr("100m"),
		SourceURL:        "https://example.org/list",
	})
	if err != nil {
		t.Fatal(err)
	}
}

func TestUpsertResultIdempotent(t *testing.T) {
	db := openTestDB(t)

	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))

	meta, err := db.Meta()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Results != 1 {
		t.Fatalf("results=%d, want 1 after repeated upsert", meta.Results)
	}
}

func TestDeleteResultsBySourceURL(t *testing.T) {
	db := openTestDB(t)
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, nil)
	seedResult(t, db, 2, "Anne Hansen", "11.70", 11.70, nil)

	n, err := db.DeleteResultsBySourceURL("https://example.org/list")
	if err != nil {
		t.Fatal(err)
	}
	if n != 2 {
		t.Fatalf("deleted %d rows, want 2", n)
	}
	meta, err := db.Meta()
	if err != nil {
		t.Fatal(err)
	}
	if meta.Results != 0 {
		t.Fatalf("results=%d, want 0", meta.Results)
	}
}

func TestEventResultsRanking(t *testing.T) {
	db := openTestDB(t)
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))
	seedResult(t, db, 2, "Anne Hansen", "11.70", 11.70, util.IntPtr(980))
	seedResult(t, db, 3, "Ingrid Berg", "11.70", 11.70, util.IntPtr(980))
	// a worse second mark for athlete 1 must not appear in best mode
	seedResult(t, db, 1, "Kari Nordmann", "11.90", 11.90, util.IntPtr(940))

	res, err := db.EventResultsList(2023, internal.GenderWomen, "100 meter", "best", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if res.Total != 3 || len(res.Rows) != 3 {
		t.Fatalf("total=%d rows=%d, want 3/3", res.Total, len(res.Rows))
	}
	if res.Rows[0].AthleteName != "Kari Nordmann" || res.Rows[0].Rank != 1 {
		t.Fatalf("unexpected leader: %+v", res.Rows[0])
	}
	// tied marks share the rank
	if res.Rows[1].Rank != 2 || res.Rows[2].Rank != 2 {
		t.Fatalf("tied ranks: %d and %d, want 2 and 2", res.Rows[1].Rank, res.Rows[2].Rank)
	}

	all, err := db.EventResultsList(2023, internal.GenderWomen, "100 meter", "all", 100, 0)
	if err != nil {
		t.Fatal(err)
	}
	if all.Total != 4 {
		t.Fatalf("all total=%d, want 4", all.Total)
	}
}

func TestSeasonSummary(t *testing.T) {
	db := openTestDB(t)
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))
	seedResult(t, db, 2, "Anne Hansen", "11.70", 11.70, util.IntPtr(980))

	rows, err := db.SeasonSummary(2023, internal.GenderWomen, 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d summary rows, want 1", len(rows))
	}
	row := rows[0]
	if row.EventNo != "100 meter" || row.AthletesTotal != 2 || row.ResultsTotal != 2 {
		t.Fatalf("unexpected summary: %+v", row)
	}
	if row.AvgPointsTopN == nil || *row.AvgPointsTopN != 990 {
		t.Fatalf("avg points=%v, want 990", row.AvgPointsTopN)
	}
	if row.AvgPerfTopN == nil || *row.AvgPerfTopN != "11,64" {
		t.Fatalf("avg perf=%v, want 11,64", row.AvgPerfTopN)
	}
}

func TestEventTrend(t *testing.T) {
	db := openTestDB(t)
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))

	rows, err := db.EventTrend(internal.GenderWomen, "100 meter", 10)
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 || rows[0].Season != 2023 {
		t.Fatalf("unexpected trend: %+v", rows)
	}
	if rows, err = db.EventTrend(internal.GenderWomen, "Ukjent", 10); err != nil || rows != nil {
		t.Fatalf("unknown event should be empty, got %v/%v", rows, err)
	}
}

func TestAthleteResults(t *testing.T) {
	db := openTestDB(t)
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))

	career, err := db.AthleteResults(1, nil)
	if err != nil {
		t.Fatal(err)
	}
	if career == nil || career.Name != "Kari Nordmann" || len(career.Results) != 1 {
		t.Fatalf("unexpected career: %+v", career)
	}

	missing, err := db.AthleteResults(999, nil)
	if err != nil {
		t.Fatal(err)
	}
	if missing != nil {
		t.Fatalf("expected nil for unknown athlete")
	}
}

func TestCoverage(t *testing.T) {
	db := openTestDB(t)
	seedResult(t, db, 1, "Kari Nordmann", "11.58", 11.58, util.IntPtr(1000))
	seedResult(t, db, 2, "Anne Hansen", "11.70", 11.70, nil)

	rows, err := db.Coverage()
	if err != nil {
		t.Fatal(err)
	}
	if len(rows) != 1 {
		t.Fatalf("got %d coverage rows, want 1", len(rows))
	}
	if rows[0].Results != 2 || rows[0].Scored != 1 || rows[0].Athletes != 2 {
		t.Fatalf("unexpected coverage: %+v", rows[0])
	}
}
