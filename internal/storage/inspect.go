package storage

import (
	"strconv"
	"strings"

	"nfwa/internal"
)

type SourceBreakdownRow struct {
	Source    string `json:"source_type"`
	Results   int    `json:"results"`
	Athletes  int    `json:"athletes"`
	MinSeason int    `json:"min_season"`
	MaxSeason int    `json:"max_season"`
}

type NationalityCount struct {
	Nationality *string `json:"nationality"`
	Count       int     `json:"count"`
}

type BirthFormatRow struct {
	Source   string `json:"source_type"`
	Format   string `json:"format"`
	Athletes int    `json:"athletes"`
}

type Overview struct {
	TotalResults  int                  `json:"total_results"`
	TotalAthletes int                  `json:"total_athletes"`
	TotalEvents   int                  `json:"total_events"`
	TotalClubs    int                  `json:"total_clubs"`
	SourceTypes   []SourceBreakdownRow `json:"source_types"`
	Nationalities []NationalityCount   `json:"nationalities"`
	BirthFormats  []BirthFormatRow     `json:"birth_formats"`
	ClubWith      int                  `json:"club_with"`
	ClubWithout   int                  `json:"club_without"`
	WindCount     int                  `json:"wind_count"`
}

// Overview summarizes the whole store for the inspection dashboard.
func (d *DB) Overview() (Overview, error) {
	var o Overview
	counts := []struct {
		query string
		dst   *int
	}{
		{`SELECT COUNT(*) FROM results`, &o.TotalResults},
		{`SELECT COUNT(*) FROM athletes`, &o.TotalAthletes},
		{`SELECT COUNT(*) FROM events`, &o.TotalEvents},
		{`SELECT COUNT(*) FROM clubs`, &o.TotalClubs},
		{`SELECT COUNT(*) FROM results WHERE club_id IS NOT NULL`, &o.ClubWith},
		{`SELECT COUNT(*) FROM results WHERE wind IS NOT NULL`, &o.WindCount},
	}
	for _, c := range counts {
		if err := d.conn.QueryRow(c.query).Scan(c.dst); err != nil {
			return o, err
		}
	}
	o.ClubWithout = o.TotalResults - o.ClubWith

	rows, err := d.conn.Query(`
SELECT source, COUNT(*), COUNT(DISTINCT athlete_id), MIN(season), MAX(season)
FROM results GROUP BY source ORDER BY COUNT(*) DESC`)
	if err != nil {
		return o, err
	}
	defer rows.Close()
	for rows.Next() {
		var r SourceBreakdownRow
		if err := rows.Scan(&r.Source, &r.Results, &r.Athletes, &r.MinSeason, &r.MaxSeason); err != nil {
			return o, err
		}
		o.SourceTypes = append(o.SourceTypes, r)
	}
	if err := rows.Err(); err != nil {
		return o, err
	}

	natRows, err := d.conn.Query(`
SELECT nationality, COUNT(*) FROM athletes
GROUP BY nationality ORDER BY COUNT(*) DESC LIMIT 20`)
	if err != nil {
		return o, err
	}
	defer natRows.Close()
	for natRows.Next() {
		var r NationalityCount
		if err := natRows.Scan(&r.Nationality, &r.Count); err != nil {
			return o, err
		}
		o.Nationalities = append(o.Nationalities, r)
	}
	if err := natRows.Err(); err != nil {
		return o, err
	}

	birthRows, err := d.conn.Query(`
SELECT
  r.source,
  CASE
    WHEN a.birth_date IS NULL THEN 'NULL'
    WHEN LENGTH(a.birth_date) = 10 THEN 'YYYY-MM-DD'
    WHEN LENGTH(a.birth_date) = 4 THEN 'YYYY'
    ELSE 'other'
  END AS format,
  COUNT(DISTINCT a.id)
FROM athletes a
JOIN results r ON r.athlete_id = a.id
GROUP BY r.source, format
ORDER BY r.source, format`)
	if err != nil {
		return o, err
	}
	defer birthRows.Close()
	for birthRows.Next() {
		var r BirthFormatRow
		if err := birthRows.Scan(&r.Source, &r.Format, &r.Athletes); err != nil {
			return o, err
		}
		o.BirthFormats = append(o.BirthFormats, r)
	}
	return o, birthRows.Err()
}

type SampleRow struct {
	Season         int      `json:"season"`
	Gender         string   `json:"gender"`
	Event          string   `json:"event"`
	Athlete        string   `json:"athlete"`
	Nationality    *string  `json:"nationality"`
	BirthDate      *string  `json:"birth_date"`
	PerformanceRaw string   `json:"performance_raw"`
	Wind           *float64 `json:"wind"`
	WAPoints       *int     `json:"wa_points"`
	ResultDate     *string  `json:"result_date"`
	Club           *string  `json:"club"`
	Source         string   `json:"source_type"`
	SourceURL      string   `json:"source_url"`
}

type SampleFilter struct {
	Source string
	Season *int
	Gender *internal.Gender
	Limit  int
}

// Samples draws random rows for spot checking, optionally filtered.
func (d *DB) Samples(f SampleFilter) ([]SampleRow, error) {
	var where []string
	var args []any
	if f.Source != "" {
		where = append(where, "r.source = ?")
		args = append(args, f.Source)
	}
	if f.Season != nil {
		where = append(where, "r.season = ?")
		args = append(args, *f.Season)
	}
	if f.Gender != nil {
		where = append(where, "r.gender = ?")
		args = append(args, string(*f.Gender))
	}
	limit := f.Limit
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	args = append(args, limit)

	query := `
SELECT r.season, r.gender, e.name_no, a.name, a.nationality, a.birth_date,
       r.performance_raw, r.wind, r.wa_points, r.result_date, c.name,
       r.source, r.source_url
FROM results r
JOIN events e ON e.id = r.event_id
JOIN athletes a ON a.id = r.athlete_id
LEFT JOIN clubs c ON c.id = r.club_id
`
	if len(where) > 0 {
		query += "WHERE " + strings.Join(where, " AND ") + "\n"
	}
	query += "ORDER BY RANDOM() LIMIT ?"

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SampleRow{}
	for rows.Next() {
		var r SampleRow
		if err := rows.Scan(
			&r.Season, &r.Gender, &r.Event, &r.Athlete, &r.Nationality, &r.BirthDate,
			&r.PerformanceRaw, &r.Wind, &r.WAPoints, &r.ResultDate, &r.Club,
			&r.Source, &r.SourceURL,
		); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type ForeignAthleteRow struct {
	AthleteID   int64   `json:"id"`
	Name        string  `json:"name"`
	Gender      string  `json:"gender"`
	Nationality string  `json:"nationality"`
	BirthDate   *string `json:"birth_date"`
	Results     int     `json:"results_count"`
}

type ForeignAthletes struct {
	Total int                 `json:"total"`
	Rows  []ForeignAthleteRow `json:"rows"`
}

// Foreign lists athletes carrying a non-Norwegian nationality tag.
func (d *DB) Foreign(limit int) (ForeignAthletes, error) {
	out := ForeignAthletes{Rows: []ForeignAthleteRow{}}
	if limit < 1 {
		limit = 1
	}
	if limit > 200 {
		limit = 200
	}
	err := d.conn.QueryRow(
		`SELECT COUNT(*) FROM athletes WHERE nationality IS NOT NULL AND nationality != 'NOR'`,
	).Scan(&out.Total)
	if err != nil {
		return out, err
	}

	rows, err := d.conn.Query(`
SELECT a.id, a.name, a.gender, a.nationality, a.birth_date, COUNT(r.id)
FROM athletes a
LEFT JOIN results r ON r.athlete_id = a.id
WHERE a.nationality IS NOT NULL AND a.nationality != 'NOR'
GROUP BY a.id
ORDER BY a.nationality, a.name
LIMIT ?`, limit)
	if err != nil {
		return out, err
	}
	defer rows.Close()
	for rows.Next() {
		var r ForeignAthleteRow
		if err := rows.Scan(&r.AthleteID, &r.Name, &r.Gender, &r.Nationality, &r.BirthDate, &r.Results); err != nil {
			return out, err
		}
		out.Rows = append(out.Rows, r)
	}
	return out, rows.Err()
}

type SourcePageRow struct {
	Source    string `json:"source_type"`
	Season    int    `json:"season"`
	Gender    string `json:"gender"`
	SourceURL string `json:"source_url"`
	Results   int    `json:"results"`
	ScrapedAt string `json:"scraped_at"`
}

// SourcePages lists every ingested page with its row count and the
// latest scrape time.
func (d *DB) SourcePages() ([]SourcePageRow, error) {
	rows, err := d.conn.Query(`
SELECT source, season, gender, source_url, COUNT(*), MAX(scraped_at)
FROM results
GROUP BY source, season, gender, source_url
ORDER BY source, season, gender, source_url`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := []SourcePageRow{}
	for rows.Next() {
		var r SourcePageRow
		if err := rows.Scan(&r.Source, &r.Season, &r.Gender, &r.SourceURL, &r.Results, &r.ScrapedAt); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type SiteAthleteRow struct {
	Season          int      `json:"season"`
	Gender          string   `json:"gender"`
	BirthDate       *string  `json:"birth_date"`
	EventNo         string   `json:"event_no"`
	WAEvent         *string  `json:"wa_event"`
	PerformanceRaw  string   `json:"performance_raw"`
	Wind            *float64 `json:"wind"`
	WAPoints        *int     `json:"wa_points"`
	ResultDate      *string  `json:"result_date"`
	CompetitionName *string  `json:"competition_name"`
	VenueCity       *string  `json:"venue_city"`
	Stadium         *string  `json:"stadium"`
	ClubName        *string  `json:"club_name"`
}

// SiteAthleteRows groups every result by athlete for the static site's
// offline athlete lookup. Keys are decimal athlete IDs.
func (d *DB) SiteAthleteRows() (map[string][]SiteAthleteRow, error) {
	rows, err := d.conn.Query(`
SELECT
  r.athlete_id, r.season, r.gender, a.birth_date, e.name_no, e.wa_event,
  r.performance_raw, r.wind, r.wa_points, r.result_date,
  r.competition_name, r.venue_city, r.stadium, c.name
FROM results r
JOIN events e ON e.id = r.event_id
JOIN athletes a ON a.id = r.athlete_id
LEFT JOIN clubs c ON c.id = r.club_id
ORDER BY
  r.athlete_id ASC, r.season DESC,
  (r.wa_points IS NULL) ASC, r.wa_points DESC, r.result_date DESC`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string][]SiteAthleteRow{}
	for rows.Next() {
		var id int64
		var r SiteAthleteRow
		if err := rows.Scan(
			&id, &r.Season, &r.Gender, &r.BirthDate, &r.EventNo, &r.WAEvent,
			&r.PerformanceRaw, &r.Wind, &r.WAPoints, &r.ResultDate,
			&r.CompetitionName, &r.VenueCity, &r.Stadium, &r.ClubName,
		); err != nil {
			return nil, err
		}
		key := strconv.FormatInt(id, 10)
		out[key] = append(out[key], r)
	}
	return out, rows.Err()
}
