package storage

import (
	"database/sql"

	"nfwa/internal"
	"nfwa/internal/perf"
)

type EventInfo struct {
	ID          int64                `json:"-"`
	NameNo      string               `json:"event_no"`
	WAEvent     *string              `json:"wa_event"`
	Orientation internal.Orientation `json:"orientation"`
	SortKey     int                  `json:"-"`
}

type Meta struct {
	Seasons  []int          `json:"seasons"`
	Genders  []string       `json:"genders"`
	Athletes int            `json:"athletes"`
	Results  int            `json:"results"`
	Events   int            `json:"events"`
	Sources  map[string]int `json:"sources"`
}

func (d *DB) Meta() (Meta, error) {
	m := Meta{Genders: []string{string(internal.GenderWomen), string(internal.GenderMen)}, Sources: map[string]int{}}

	seasons, err := d.Seasons()
	if err != nil {
		return m, err
	}
	m.Seasons = seasons

	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM athletes`).Scan(&m.Athletes); err != nil {
		return m, err
	}
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM results`).Scan(&m.Results); err != nil {
		return m, err
	}
	if err := d.conn.QueryRow(`SELECT COUNT(*) FROM events`).Scan(&m.Events); err != nil {
		return m, err
	}

	rows, err := d.conn.Query(`SELECT source, COUNT(*) FROM results GROUP BY source`)
	if err != nil {
		return m, err
	}
	defer rows.Close()
	for rows.Next() {
		var source string
		var n int
		if err := rows.Scan(&source, &n); err != nil {
			return m, err
		}
		m.Sources[source] = n
	}
	return m, rows.Err()
}

func (d *DB) Seasons() ([]int, error) {
	rows, err := d.conn.Query(`SELECT DISTINCT season FROM results ORDER BY season`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		out = append(out, s)
	}
	return out, rows.Err()
}

// EventsForGender lists events in the traditional display order.
func (d *DB) EventsForGender(gender internal.Gender) ([]EventInfo, error) {
	rows, err := d.conn.Query(`
SELECT id, name_no, wa_event, orientation, sort_key
FROM events WHERE gender = ?
ORDER BY sort_key, name_no COLLATE NOCASE
`, string(gender))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []EventInfo
	for rows.Next() {
		var e EventInfo
		var orientation string
		if err := rows.Scan(&e.ID, &e.NameNo, &e.WAEvent, &orientation, &e.SortKey); err != nil {
			return nil, err
		}
		e.Orientation = internal.Orientation(orientation)
		out = append(out, e)
	}
	return out, rows.Err()
}

func (d *DB) eventByName(gender internal.Gender, nameNo string) (*EventInfo, error) {
	row := d.conn.QueryRow(`
SELECT id, name_no, wa_event, orientation, sort_key
FROM events WHERE gender = ? AND name_no = ?
`, string(gender), nameNo)
	var e EventInfo
	var orientation string
	if err := row.Scan(&e.ID, &e.NameNo, &e.WAEvent, &orientation, &e.SortKey); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	e.Orientation = internal.Orientation(orientation)
	return &e, nil
}

// sortExpr orders both orientations ascending-is-better.
const sortExpr = `CASE WHEN e.orientation = 'lower' THEN r.value ELSE -r.value END`

const bestCTE = `
WITH best AS (
  SELECT
    r.*,
    ` + sortExpr + ` AS sort_value,
    ROW_NUMBER() OVER (
      PARTITION BY r.season, r.gender, r.event_id, r.athlete_id
      ORDER BY ` + sortExpr + ` ASC, r.result_date DESC
    ) AS rn
  FROM results r
  JOIN events e ON e.id = r.event_id
  WHERE r.season = ? AND r.gender = ? AND r.event_id = ?
)
`

type SummaryRow struct {
	Season          int      `json:"season"`
	Gender          string   `json:"gender"`
	EventNo         string   `json:"event_no"`
	WAEvent         *string  `json:"wa_event"`
	Orientation     string   `json:"orientation"`
	TopN            int      `json:"top_n"`
	AthletesTotal   int      `json:"athletes_total"`
	ResultsTotal    int      `json:"results_total"`
	PointsAvailable int      `json:"points_available"`
	AvgPointsTopN   *float64 `json:"avg_points_top_n"`
	AvgValueTopN    *float64 `json:"avg_value_top_n"`
	AvgPerfTopN     *string  `json:"avg_perf_top_n"`
}

// SeasonSummary aggregates every event of a season: totals plus the
// average of each athlete's best mark among the top n.
func (d *DB) SeasonSummary(season int, gender internal.Gender, topN int) ([]SummaryRow, error) {
	events, err := d.EventsForGender(gender)
	if err != nil {
		return nil, err
	}
	var out []SummaryRow
	for _, ev := range events {
		row, ok, err := d.summaryForEvent(season, gender, ev, topN)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

// EventTrend follows one event across every season it appears in.
func (d *DB) EventTrend(gender internal.Gender, nameNo string, topN int) ([]SummaryRow, error) {
	ev, err := d.eventByName(gender, nameNo)
	if err != nil || ev == nil {
		return nil, err
	}

	rows, err := d.conn.Query(
		`SELECT DISTINCT season FROM results WHERE gender = ? AND event_id = ? ORDER BY season`,
		string(gender), ev.ID,
	)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var seasons []int
	for rows.Next() {
		var s int
		if err := rows.Scan(&s); err != nil {
			return nil, err
		}
		seasons = append(seasons, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	var out []SummaryRow
	for _, season := range seasons {
		row, ok, err := d.summaryForEvent(season, gender, *ev, topN)
		if err != nil {
			return nil, err
		}
		if ok {
			out = append(out, row)
		}
	}
	return out, nil
}

func (d *DB) summaryForEvent(season int, gender internal.Gender, ev EventInfo, topN int) (SummaryRow, bool, error) {
	row := SummaryRow{
		Season:      season,
		Gender:      string(gender),
		EventNo:     ev.NameNo,
		WAEvent:     ev.WAEvent,
		Orientation: string(ev.Orientation),
		TopN:        topN,
	}

	err := d.conn.QueryRow(`
SELECT
  COUNT(*),
  COUNT(DISTINCT athlete_id),
  IFNULL(SUM(CASE WHEN wa_points IS NOT NULL THEN 1 ELSE 0 END), 0)
FROM results
WHERE season = ? AND gender = ? AND event_id = ?
`, season, string(gender), ev.ID).Scan(&row.ResultsTotal, &row.AthletesTotal, &row.PointsAvailable)
	if err != nil {
		return row, false, err
	}
	if row.ResultsTotal == 0 {
		return row, false, nil
	}

	if avg, n, err := d.avgOver(bestCTE+`
SELECT wa_points FROM best
WHERE rn = 1 AND wa_points IS NOT NULL
ORDER BY wa_points DESC LIMIT ?
`, season, gender, ev.ID, topN); err != nil {
		return row, false, err
	} else if n > 0 {
		row.AvgPointsTopN = &avg
	}

	if avg, n, err := d.avgOver(bestCTE+`
SELECT value FROM best
WHERE rn = 1 AND value IS NOT NULL
ORDER BY sort_value ASC LIMIT ?
`, season, gender, ev.ID, topN); err != nil {
		return row, false, err
	} else if n > 0 {
		row.AvgValueTopN = &avg
		display := perf.FormatValue(avg, ev.Orientation, 2)
		row.AvgPerfTopN = &display
	}
	return row, true, nil
}

func (d *DB) avgOver(query string, season int, gender internal.Gender, eventID int64, topN int) (float64, int, error) {
	rows, err := d.conn.Query(query, season, string(gender), eventID, topN)
	if err != nil {
		return 0, 0, err
	}
	defer rows.Close()

	sum := 0.0
	n := 0
	for rows.Next() {
		var v float64
		if err := rows.Scan(&v); err != nil {
			return 0, 0, err
		}
		sum += v
		n++
	}
	if err := rows.Err(); err != nil {
		return 0, 0, err
	}
	if n == 0 {
		return 0, 0, nil
	}
	return sum / float64(n), n, nil
}

type ResultRow struct {
	Season           int      `json:"season"`
	Gender           string   `json:"gender"`
	AthleteID        int64    `json:"athlete_id"`
	AthleteName      string   `json:"athlete_name"`
	BirthDate        *string  `json:"birth_date"`
	ClubName         *string  `json:"club_name"`
	PerformanceRaw   string   `json:"performance_raw"`
	PerformanceClean *string  `json:"performance"`
	Value            *float64 `json:"value"`
	WAPoints         *int     `json:"wa_points"`
	ResultDate       *string  `json:"result_date"`
	CompetitionName  *string  `json:"competition_name"`
	VenueCity        *string  `json:"venue_city"`
	Stadium          *string  `json:"stadium"`
	SourceURL        string   `json:"source_url"`
	Rank             int      `json:"rank"`
}

type EventResults struct {
	Total       int         `json:"total"`
	WAEvent     *string     `json:"wa_event"`
	Orientation string      `json:"orientation"`
	Rows        []ResultRow `json:"rows"`
}

const resultsLimitMax = 2000

// EventResultsList returns the ranked list for one event and season.
// mode "best" keeps each athlete's best mark, "all" keeps everything.
// Equal values share a rank.
func (d *DB) EventResultsList(season int, gender internal.Gender, nameNo, mode string, limit, offset int) (EventResults, error) {
	out := EventResults{Orientation: string(internal.OrientHigher), Rows: []ResultRow{}}

	ev, err := d.eventByName(gender, nameNo)
	if err != nil {
		return out, err
	}
	if ev == nil {
		return out, nil
	}
	out.WAEvent = ev.WAEvent
	out.Orientation = string(ev.Orientation)

	if limit < 1 {
		limit = 1
	}
	if limit > resultsLimitMax {
		limit = resultsLimitMax
	}
	if offset < 0 {
		offset = 0
	}

	selectCols := `
SELECT
  r.season, r.gender, r.athlete_id, a.name, a.birth_date, c.name,
  r.performance_raw, r.performance_clean, r.value, r.wa_points,
  r.result_date, r.competition_name, r.venue_city, r.stadium, r.source_url
`

	var totalQuery, rowQuery string
	if mode == "all" {
		totalQuery = `SELECT COUNT(*) FROM results WHERE season = ? AND gender = ? AND event_id = ?`
		rowQuery = selectCols + `,
  ` + sortExpr + ` AS sort_value
FROM results r
JOIN events e ON e.id = r.event_id
JOIN athletes a ON a.id = r.athlete_id
LEFT JOIN clubs c ON c.id = r.club_id
WHERE r.season = ? AND r.gender = ? AND r.event_id = ?
ORDER BY sort_value ASC, r.wa_points DESC NULLS LAST, r.result_date DESC
LIMIT ? OFFSET ?`
	} else {
		totalQuery = bestResultsCTE + `SELECT COUNT(*) FROM best WHERE rn = 1`
		rowQuery = bestResultsCTE + `
SELECT
  season, gender, athlete_id, athlete_name, birth_date, club_name,
  performance_raw, performance_clean, value, wa_points,
  result_date, competition_name, venue_city, stadium, source_url, sort_value
FROM best
WHERE rn = 1
ORDER BY sort_value ASC, wa_points DESC NULLS LAST, result_date DESC
LIMIT ? OFFSET ?`
	}

	if err := d.conn.QueryRow(totalQuery, season, string(gender), ev.ID).Scan(&out.Total); err != nil {
		return out, err
	}

	rows, err := d.conn.Query(rowQuery, season, string(gender), ev.ID, limit, offset)
	if err != nil {
		return out, err
	}
	defer rows.Close()

	prevValue := 0.0
	prevRank := 0
	pos := offset
	for rows.Next() {
		var r ResultRow
		var sortValue sql.NullFloat64
		if err := rows.Scan(
			&r.Season, &r.Gender, &r.AthleteID, &r.AthleteName, &r.BirthDate, &r.ClubName,
			&r.PerformanceRaw, &r.PerformanceClean, &r.Value, &r.WAPoints,
			&r.ResultDate, &r.CompetitionName, &r.VenueCity, &r.Stadium, &r.SourceURL,
			&sortValue,
		); err != nil {
			return out, err
		}
		pos++
		// equal marks share a rank
		if sortValue.Valid && prevRank > 0 && sortValue.Float64 == prevValue {
			r.Rank = prevRank
		} else {
			r.Rank = pos
			prevRank = pos
		}
		if sortValue.Valid {
			prevValue = sortValue.Float64
		}
		out.Rows = append(out.Rows, r)
	}
	return out, rows.Err()
}

const bestResultsCTE = `
WITH best AS (
  SELECT
    r.season, r.gender, r.athlete_id, a.name AS athlete_name,
    a.birth_date AS birth_date, c.name AS club_name,
    r.performance_raw, r.performance_clean, r.value, r.wa_points,
    r.result_date, r.competition_name, r.venue_city, r.stadium, r.source_url,
    ` + sortExpr + ` AS sort_value,
    ROW_NUMBER() OVER (
      PARTITION BY r.season, r.gender, r.event_id, r.athlete_id
      ORDER BY ` + sortExpr + ` ASC, r.result_date DESC
    ) AS rn
  FROM results r
  JOIN events e ON e.id = r.event_id
  JOIN athletes a ON a.id = r.athlete_id
  LEFT JOIN clubs c ON c.id = r.club_id
  WHERE r.season = ? AND r.gender = ? AND r.event_id = ?
)
`

type AthleteResultRow struct {
	Season          int     `json:"season"`
	Gender          string  `json:"gender"`
	EventNo         string  `json:"event_no"`
	PerformanceRaw  string  `json:"performance_raw"`
	WAPoints        *int    `json:"wa_points"`
	ResultDate      *string `json:"result_date"`
	CompetitionName *string `json:"competition_name"`
	VenueCity       *string `json:"venue_city"`
	Stadium         *string `json:"stadium"`
	ClubName        *string `json:"club_name"`
}

type AthleteCareer struct {
	AthleteID int64              `json:"athlete_id"`
	Name      string             `json:"name"`
	Gender    string             `json:"gender"`
	BirthDate *string            `json:"birth_date"`
	Results   []AthleteResultRow `json:"results"`
}

func (d *DB) AthleteResults(athleteID int64, sinceSeason *int) (*AthleteCareer, error) {
	career := &AthleteCareer{AthleteID: athleteID, Results: []AthleteResultRow{}}
	err := d.conn.QueryRow(
		`SELECT name, gender, birth_date FROM athletes WHERE id = ?`, athleteID,
	).Scan(&career.Name, &career.Gender, &career.BirthDate)
	if err == sql.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, err
	}

	query := `
SELECT
  r.season, r.gender, e.name_no, r.performance_raw, r.wa_points,
  r.result_date, r.competition_name, r.venue_city, r.stadium, c.name
FROM results r
JOIN events e ON e.id = r.event_id
LEFT JOIN clubs c ON c.id = r.club_id
WHERE r.athlete_id = ?
`
	args := []any{athleteID}
	if sinceSeason != nil {
		query += ` AND r.season >= ?`
		args = append(args, *sinceSeason)
	}
	query += ` ORDER BY r.season DESC, r.wa_points DESC NULLS LAST, r.result_date DESC`

	rows, err := d.conn.Query(query, args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	for rows.Next() {
		var r AthleteResultRow
		if err := rows.Scan(
			&r.Season, &r.Gender, &r.EventNo, &r.PerformanceRaw, &r.WAPoints,
			&r.ResultDate, &r.CompetitionName, &r.VenueCity, &r.Stadium, &r.ClubName,
		); err != nil {
			return nil, err
		}
		career.Results = append(career.Results, r)
	}
	return career, rows.Err()
}

type AthleteIndexRow struct {
	AthleteID int64   `json:"athlete_id"`
	Name      string  `json:"name"`
	Gender    string  `json:"gender"`
	BirthDate *string `json:"birth_date"`
	Results   int     `json:"results"`
}

func (d *DB) AthleteIndex() ([]AthleteIndexRow, error) {
	rows, err := d.conn.Query(`
SELECT a.id, a.name, a.gender, a.birth_date, COUNT(r.id)
FROM athletes a
LEFT JOIN results r ON r.athlete_id = a.id
GROUP BY a.id
ORDER BY a.name COLLATE NOCASE
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []AthleteIndexRow
	for rows.Next() {
		var r AthleteIndexRow
		if err := rows.Scan(&r.AthleteID, &r.Name, &r.Gender, &r.BirthDate, &r.Results); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}

type CoverageRow struct {
	Season   int    `json:"season"`
	Gender   string `json:"gender"`
	Source   string `json:"source"`
	Events   int    `json:"events"`
	Results  int    `json:"results"`
	Scored   int    `json:"scored"`
	Failed   int    `json:"failed"`
	Athletes int    `json:"athletes"`
}

// Coverage breaks the store down by season, gender and source, for
// inspection.
func (d *DB) Coverage() ([]CoverageRow, error) {
	rows, err := d.conn.Query(`
SELECT
  season, gender, source,
  COUNT(DISTINCT event_id),
  COUNT(*),
  SUM(CASE WHEN wa_points IS NOT NULL THEN 1 ELSE 0 END),
  SUM(CASE WHEN wa_error IS NOT NULL THEN 1 ELSE 0 END),
  COUNT(DISTINCT athlete_id)
FROM results
GROUP BY season, gender, source
ORDER BY season, gender, source
`)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	var out []CoverageRow
	for rows.Next() {
		var r CoverageRow
		if err := rows.Scan(&r.Season, &r.Gender, &r.Source, &r.Events, &r.Results, &r.Scored, &r.Failed, &r.Athletes); err != nil {
			return nil, err
		}
		out = append(out, r)
	}
	return out, rows.Err()
}
