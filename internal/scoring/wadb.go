package scoring

import (
	"database/sql"
	"fmt"
	"math"
	"strconv"
	"strings"

	_ "modernc.org/sqlite"

	"nfwa/internal"
)

// WADB reads the World Athletics scoring database. The file carries an
// events table (gender, name, orientation, precision) and a scores
// table mapping points to table performances per event.
type WADB struct {
	conn *sql.DB
}

type EventMeta struct {
	Gender      internal.Gender
	Event       string
	Orientation internal.Orientation
	Precision   int
}

func OpenWA(path string) (*WADB, error) {
	conn, err := sql.Open("sqlite", path+"?mode=ro")
	if err != nil {
		return nil, err
	}
	if err := conn.Ping(); err != nil {
		_ = conn.Close()
		return nil, fmt.Errorf("open scoring db: %w", err)
	}
	return &WADB{conn: conn}, nil
}

func (w *WADB) Close() error {
	return w.conn.Close()
}

// EventNames returns the scorable event codes for a gender.
func (w *WADB) EventNames(gender internal.Gender) (map[string]bool, error) {
	rows, err := w.conn.Query(`SELECT name FROM events WHERE gender = ?`, string(gender))
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	out := map[string]bool{}
	for rows.Next() {
		var name string
		if err := rows.Scan(&name); err != nil {
			return nil, err
		}
		out[name] = true
	}
	return out, rows.Err()
}

func (w *WADB) EventMeta(gender internal.Gender, event string) (*EventMeta, error) {
	row := w.conn.QueryRow(
		`SELECT gender, name, orientation, precision FROM events WHERE gender = ? AND name = ?`,
		string(gender), event,
	)
	var m EventMeta
	var g, o string
	if err := row.Scan(&g, &m.Event, &o, &m.Precision); err != nil {
		if err == sql.ErrNoRows {
			return nil, nil
		}
		return nil, err
	}
	m.Gender = internal.Gender(g)
	m.Orientation = internal.Orientation(o)
	return &m, nil
}

// Score implements Scorer. The performance is in the canonical string
// form (colon separated time segments or a decimal), and the returned
// points are the highest table entry the performance reaches.
func (w *WADB) Score(gender, waEvent, performance string) (int, bool, error) {
	meta, err := w.EventMeta(internal.Gender(gender), waEvent)
	if err != nil {
		return 0, false, err
	}
	if meta == nil {
		return 0, false, fmt.Errorf("%w: %s/%s", ErrUnsupportedEvent, gender, waEvent)
	}

	value, ok := parsePerformance(performance)
	if !ok {
		return 0, false, fmt.Errorf("%w: %q", ErrMalformedPerformance, performance)
	}

	cmp := "<="
	if meta.Orientation == internal.OrientLower {
		cmp = ">="
	}
	row := w.conn.QueryRow(
		`SELECT points, performance FROM scores
		 WHERE gender = ? AND event = ? AND performance `+cmp+` ?
		 ORDER BY points DESC LIMIT 1`,
		string(gender), waEvent, value,
	)
	var points int
	var tablePerf float64
	if err := row.Scan(&points, &tablePerf); err != nil {
		if err == sql.ErrNoRows {
			return 0, false, fmt.Errorf("%w: %s %s %q", ErrOutOfRange, gender, waEvent, performance)
		}
		return 0, false, err
	}

	eps := 0.5 * math.Pow10(-meta.Precision)
	exact := math.Abs(tablePerf-value) < eps

	// a mark better than the top table entry cannot be scored either
	if !exact {
		var topPoints int
		err := w.conn.QueryRow(
			`SELECT MAX(points) FROM scores WHERE gender = ? AND event = ?`,
			string(gender), waEvent,
		).Scan(&topPoints)
		if err != nil {
			return 0, false, err
		}
		if points == topPoints {
			return 0, false, fmt.Errorf("%w: %s %s %q", ErrOutOfRange, gender, waEvent, performance)
		}
	}
	return points, exact, nil
}

// parsePerformance folds colon segments into seconds; a plain decimal
// passes through.
func parsePerformance(text string) (float64, bool) {
	text = strings.TrimSpace(strings.ReplaceAll(text, ",", "."))
	if text == "" {
		return 0, false
	}
	total := 0.0
	for _, part := range strings.Split(text, ":") {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, false
		}
		total = total*60 + f
	}
	return total, true
}
