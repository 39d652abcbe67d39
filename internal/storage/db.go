package storage

import (
	"database/sql"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	_ "modernc.org/sqlite"

	"nfwa/internal"
)

type DB struct {
	conn *sql.DB
}

func Open(path string) (*DB, error) {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return nil, err
	}

	conn, err := sql.Open("sqlite", path)
	if err != nil {
		return nil, err
	}

	if _, err := conn.Exec(`PRAGMA journal_mode = WAL;`); err != nil {
		_ = conn.Close()
		return nil, err
	}
	if _, err := conn.Exec(`PRAGMA foreign_keys = ON;`); err != nil {
		_ = conn.Close()
		return nil, err
	}

	db := &DB{conn: conn}
	if err := db.init(); err != nil {
		_ = conn.Close()
		return nil, err
	}

	return db, nil
}

func (d *DB) Close() error {
	return d.conn.Close()
}

func (d *DB) init() error {
	schema := `
CREATE TABLE IF NOT EXISTS athletes (
  id INTEGER PRIMARY KEY,
  gender TEXT NOT NULL CHECK(gender IN ('Men','Women')),
  name TEXT NOT NULL,
  birth_date TEXT,
  nationality TEXT,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS clubs (
  id INTEGER PRIMARY KEY,
  name TEXT NOT NULL UNIQUE,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS events (
  id INTEGER PRIMARY KEY,
  gender TEXT NOT NULL CHECK(gender IN ('Men','Women')),
  name_no TEXT NOT NULL,
  wa_event TEXT,
  orientation TEXT NOT NULL CHECK(orientation IN ('lower','higher')),
  sort_key INTEGER NOT NULL DEFAULT 10000,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  UNIQUE(gender, name_no)
);

CREATE TABLE IF NOT EXISTS competitions (
  id INTEGER PRIMARY KEY,
  name TEXT,
  city TEXT,
  stadium TEXT,
  created_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP,
  updated_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE TABLE IF NOT EXISTS results (
  id INTEGER PRIMARY KEY,
  season INTEGER NOT NULL,
  gender TEXT NOT NULL CHECK(gender IN ('Men','Women')),
  source TEXT NOT NULL,
  event_id INTEGER NOT NULL REFERENCES events(id),
  athlete_id INTEGER NOT NULL REFERENCES athletes(id),
  club_id INTEGER REFERENCES clubs(id),
  rank_in_list INTEGER,
  performance_raw TEXT NOT NULL,
  performance_clean TEXT,
  value REAL,
  wind REAL,
  placement_raw TEXT,
  competition_id INTEGER REFERENCES competitions(id),
  competition_name TEXT,
  venue_city TEXT,
  stadium TEXT,
  result_date TEXT,
  wa_points INTEGER,
  wa_exact INTEGER CHECK(wa_exact IN (0, 1)),
  wa_event TEXT,
  wa_error TEXT,
  source_url TEXT NOT NULL,
  scraped_at TEXT NOT NULL DEFAULT CURRENT_TIMESTAMP
);

CREATE INDEX IF NOT EXISTS idx_results_athlete ON results(athlete_id, season);
CREATE INDEX IF NOT EXISTS idx_results_event ON results(event_id, season, gender);
CREATE INDEX IF NOT EXISTS idx_results_points ON results(season, gender, event_id, wa_points);
CREATE INDEX IF NOT EXISTS idx_results_source_url ON results(source_url);

CREATE UNIQUE INDEX IF NOT EXISTS uix_results_natural
ON results(
  season,
  gender,
  event_id,
  athlete_id,
  IFNULL(result_date, ''),
  performance_raw,
  IFNULL(competition_id, -1),
  IFNULL(placement_raw, '')
);
`

	_, err := d.conn.Exec(schema)
	return err
}

func (d *DB) UpsertAthlete(id int64, gender internal.Gender, name string, birthDate, nationality *string) error {
	_, err := d.conn.Exec(`
INSERT INTO athletes (id, gender, name, birth_date, nationality)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  gender=excluded.gender,
  name=excluded.name,
  birth_date=COALESCE(excluded.birth_date, athletes.birth_date),
  nationality=COALESCE(excluded.nationality, athletes.nationality),
  updated_at=CURRENT_TIMESTAMP
`, id, string(gender), name, birthDate, nationality)
	return err
}

// GetOrCreateClub returns nil for a blank club name.
func (d *DB) GetOrCreateClub(clubName *string) (*int64, error) {
	if clubName == nil {
		return nil, nil
	}
	name := strings.TrimSpace(*clubName)
	if name == "" {
		return nil, nil
	}
	if _, err := d.conn.Exec(`
INSERT INTO clubs (name) VALUES (?)
ON CONFLICT(name) DO UPDATE SET updated_at=CURRENT_TIMESTAMP
`, name); err != nil {
		return nil, err
	}
	var id int64
	if err := d.conn.QueryRow(`SELECT id FROM clubs WHERE name = ?`, name).Scan(&id); err != nil {
		return nil, err
	}
	return &id, nil
}

func (d *DB) GetOrCreateEvent(gender internal.Gender, ev internal.CanonicalEvent) (int64, error) {
	if _, err := d.conn.Exec(`
INSERT INTO events (gender, name_no, wa_event, orientation, sort_key)
VALUES (?, ?, ?, ?, ?)
ON CONFLICT(gender, name_no) DO UPDATE SET
  wa_event=COALESCE(excluded.wa_event, events.wa_event),
  orientation=excluded.orientation,
  sort_key=excluded.sort_key,
  updated_at=CURRENT_TIMESTAMP
`, string(gender), ev.NameNo, ev.WAEvent, string(ev.Orientation), ev.SortKey); err != nil {
		return 0, err
	}
	var id int64
	err := d.conn.QueryRow(
		`SELECT id FROM events WHERE gender = ? AND name_no = ?`,
		string(gender), ev.NameNo,
	).Scan(&id)
	if err != nil {
		return 0, fmt.Errorf("event %s/%s: %w", gender, ev.NameNo, err)
	}
	return id, nil
}

func (d *DB) UpsertCompetition(id *int64, name, city, stadium *string) (*int64, error) {
	if id == nil {
		return nil, nil
	}
	_, err := d.conn.Exec(`
INSERT INTO competitions (id, name, city, stadium)
VALUES (?, ?, ?, ?)
ON CONFLICT(id) DO UPDATE SET
  name=COALESCE(excluded.name, competitions.name),
  city=COALESCE(excluded.city, competitions.city),
  stadium=COALESCE(excluded.stadium, competitions.stadium),
  updated_at=CURRENT_TIMESTAMP
`, *id, name, city, stadium)
	if err != nil {
		return nil, err
	}
	return id, nil
}

// ResultInsert is one fully resolved row ready for the results table.
type ResultInsert struct {
	Season           int
	Gender           internal.Gender
	Source           internal.SourceID
	EventID          int64
	AthleteID        int64
	ClubID           *int64
	RankInList       *int
	PerformanceRaw   string
	PerformanceClean *string
	Value            *float64
	Wind             *float64
	PlacementRaw     *string
	CompetitionID    *int64
	CompetitionName  *string
	VenueCity        *string
	Stadium          *string
	ResultDate       *string
	WAPoints         *int
	WAExact          *int
	WAEvent          *string
	WAError          *string
	SourceURL        string
}

// UpsertResult inserts a row or refreshes it when the same natural key
// is seen again, so re-ingesting a page never duplicates.
func (d *DB) UpsertResult(r ResultInsert) error {
	_, err := d.conn.Exec(`
INSERT INTO results (
  season, gender, source, event_id, athlete_id, club_id, rank_in_list,
  performance_raw, performance_clean, value, wind, placement_raw,
  competition_id, competition_name, venue_city, stadium, result_date,
  wa_points, wa_exact, wa_event, wa_error, source_url
) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
ON CONFLICT DO UPDATE SET
  source=excluded.source,
  club_id=excluded.club_id,
  rank_in_list=excluded.rank_in_list,
  performance_clean=excluded.performance_clean,
  value=excluded.value,
  wind=excluded.wind,
  competition_name=COALESCE(excluded.competition_name, results.competition_name),
  venue_city=COALESCE(excluded.venue_city, results.venue_city),
  stadium=COALESCE(excluded.stadium, results.stadium),
  wa_points=excluded.wa_points,
  wa_exact=excluded.wa_exact,
  wa_event=excluded.wa_event,
  wa_error=excluded.wa_error,
  source_url=excluded.source_url,
  scraped_at=CURRENT_TIMESTAMP
`,
		r.Season, string(r.Gender), string(r.Source), r.EventID, r.AthleteID, r.ClubID, r.RankInList,
		r.PerformanceRaw, r.PerformanceClean, r.Value, r.Wind, r.PlacementRaw,
		r.CompetitionID, r.CompetitionName, r.VenueCity, r.Stadium, r.ResultDate,
		r.WAPoints, r.WAExact, r.WAEvent, r.WAError, r.SourceURL,
	)
	return err
}

// DeleteResultsBySourceURL clears everything a page produced, making
// the page an idempotent unit of rebuild.
func (d *DB) DeleteResultsBySourceURL(sourceURL string) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM results WHERE source_url = ?`, sourceURL)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteResultsForPage scopes the purge to one gender and season of a
// shared URL; the legacy race-walk export serves both genders from the
// same file.
func (d *DB) DeleteResultsForPage(sourceURL string, gender internal.Gender, season int) (int64, error) {
	res, err := d.conn.Exec(
		`DELETE FROM results WHERE source_url = ? AND gender = ? AND season = ?`,
		sourceURL, string(gender), season,
	)
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}

// DeleteResultsByURLPrefix clears every row whose source URL starts
// with prefix, the rebuild unit for file-based archive seasons.
func (d *DB) DeleteResultsByURLPrefix(prefix string) (int64, error) {
	res, err := d.conn.Exec(`DELETE FROM results WHERE source_url LIKE ?`, prefix+"%")
	if err != nil {
		return 0, err
	}
	return res.RowsAffected()
}
