// Package export renders the statistics database into shareable
// artefacts: a static JSON mirror of the web API for publishing, and
// spreadsheet workbooks for offline analysis.
package export

import (
	"crypto/sha1"
	"encoding/hex"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"os"
	"path/filepath"
	"time"

	"nfwa/internal"
	"nfwa/internal/events"
	"nfwa/internal/storage"
	"nfwa/internal/util"
	"nfwa/internal/webapp"
)

// DefaultTopNs are the list depths the static site pre-generates.
var DefaultTopNs = []int{5, 10, 20}

type SiteOptions struct {
	OutDir              string
	TopNs               []int
	IncludeAthleteIndex bool
}

var siteGenders = []internal.Gender{internal.GenderWomen, internal.GenderMen}

// Site writes a static copy of the dashboard under OutDir: the frontend
// assets plus pre-generated JSON for every endpoint, laid out so the
// tree can be published as-is on GitHub Pages.
func Site(db *storage.DB, opts SiteOptions) error {
	topNs := opts.TopNs
	if len(topNs) == 0 {
		topNs = DefaultTopNs
	}

	if err := os.MkdirAll(opts.OutDir, 0o755); err != nil {
		return err
	}
	for _, sub := range []string{"static", "api"} {
		if err := os.RemoveAll(filepath.Join(opts.OutDir, sub)); err != nil {
			return err
		}
	}
	if err := copyAssets(opts.OutDir); err != nil {
		return err
	}
	// Pages serves the tree verbatim when Jekyll is off.
	if err := os.WriteFile(filepath.Join(opts.OutDir, ".nojekyll"), nil, 0o644); err != nil {
		return err
	}

	seasons, err := db.Seasons()
	if err != nil {
		return err
	}

	meta := map[string]any{
		"seasons":      seasons,
		"genders":      []string{string(internal.GenderWomen), string(internal.GenderMen)},
		"top_ns":       topNs,
		"generated_at": time.Now().UTC().Format(time.RFC3339),
	}
	if err := writeJSONFile(filepath.Join(opts.OutDir, "api", "meta.json"), meta); err != nil {
		return err
	}

	type siteEvent struct {
		storage.EventInfo
		EventKey string `json:"event_key"`
	}
	eventsByGender := map[internal.Gender][]siteEvent{}
	for _, gender := range siteGenders {
		evs, err := db.EventsForGender(gender)
		if err != nil {
			return err
		}
		out := make([]siteEvent, 0, len(evs))
		for _, ev := range evs {
			out = append(out, siteEvent{EventInfo: ev, EventKey: EventKey(ev.NameNo)})
		}
		eventsByGender[gender] = out
		path := filepath.Join(opts.OutDir, "api", "events", string(gender)+".json")
		if err := writeJSONFile(path, out); err != nil {
			return err
		}
	}

	for _, season := range seasons {
		for _, gender := range siteGenders {
			for _, topN := range topNs {
				rows, err := db.SeasonSummary(season, gender, topN)
				if err != nil {
					return err
				}
				path := filepath.Join(opts.OutDir, "api", "season_summary",
					fmt.Sprint(season), string(gender), fmt.Sprintf("top%d.json", topN))
				if err := writeJSONFile(path, summaryPayload(rows)); err != nil {
					return err
				}
			}
		}
	}

	for _, gender := range siteGenders {
		for _, ev := range eventsByGender[gender] {
			for _, topN := range topNs {
				rows, err := db.EventTrend(gender, ev.NameNo, topN)
				if err != nil {
					return err
				}
				path := filepath.Join(opts.OutDir, "api", "event_trend",
					string(gender), ev.EventKey, fmt.Sprintf("top%d.json", topN))
				if err := writeJSONFile(path, summaryPayload(rows)); err != nil {
					return err
				}
			}
		}
	}

	for _, season := range seasons {
		for _, gender := range siteGenders {
			for _, ev := range eventsByGender[gender] {
				for _, mode := range []string{"best", "all"} {
					payload, err := eventResultsAll(db, season, gender, ev.NameNo, mode)
					if err != nil {
						return err
					}
					path := filepath.Join(opts.OutDir, "api", "event_results",
						fmt.Sprint(season), string(gender), ev.EventKey, mode+".json")
					if err := writeJSONFile(path, payload); err != nil {
						return err
					}
				}
			}
		}
	}

	if opts.IncludeAthleteIndex {
		byID, err := db.SiteAthleteRows()
		if err != nil {
			return err
		}
		path := filepath.Join(opts.OutDir, "api", "athlete", "index.json")
		if err := writeJSONFile(path, map[string]any{"by_id": byID}); err != nil {
			return err
		}
	}
	return nil
}

// EventKey is the stable path segment for one event: a readable slug
// plus a short hash so renamed diacritics never collide.
func EventKey(eventNo string) string {
	slug := util.Slug(eventNo, 50)
	sum := sha1.Sum([]byte(eventNo))
	return slug + "--" + hex.EncodeToString(sum[:])[:10]
}

type summaryRow struct {
	storage.SummaryRow
	EventOrder int `json:"event_order"`
}

func summaryPayload(rows []storage.SummaryRow) []summaryRow {
	out := make([]summaryRow, 0, len(rows))
	for _, r := range rows {
		if r.AvgPointsTopN != nil {
			v := math.Round(*r.AvgPointsTopN*1000) / 1000
			r.AvgPointsTopN = &v
		}
		if r.AvgValueTopN != nil {
			v := math.Round(*r.AvgValueTopN*1e6) / 1e6
			r.AvgValueTopN = &v
		}
		out = append(out, summaryRow{SummaryRow: r, EventOrder: events.SortIndex(r.EventNo)})
	}
	return out
}

type eventResultsFile struct {
	Season  int    `json:"season"`
	Gender  string `json:"gender"`
	EventNo string `json:"event_no"`
	Mode    string `json:"mode"`
	storage.EventResults
}

const sitePageSize = 2000

// eventResultsAll pages through the store and re-ranks the merged list,
// so ties spanning a page boundary still share a rank.
func eventResultsAll(db *storage.DB, season int, gender internal.Gender, eventNo, mode string) (eventResultsFile, error) {
	out := eventResultsFile{Season: season, Gender: string(gender), EventNo: eventNo, Mode: mode}
	offset := 0
	for {
		page, err := db.EventResultsList(season, gender, eventNo, mode, sitePageSize, offset)
		if err != nil {
			return out, err
		}
		out.Total = page.Total
		out.WAEvent = page.WAEvent
		out.Orientation = page.Orientation
		if out.Rows == nil {
			out.Rows = []storage.ResultRow{}
		}
		out.Rows = append(out.Rows, page.Rows...)
		if len(page.Rows) == 0 || len(out.Rows) >= page.Total {
			break
		}
		offset += len(page.Rows)
	}

	rank := 0
	prevPerf := ""
	for i := range out.Rows {
		perf := ""
		if out.Rows[i].PerformanceClean != nil {
			perf = *out.Rows[i].PerformanceClean
		}
		if i == 0 || perf != prevPerf {
			rank = i + 1
			prevPerf = perf
		}
		out.Rows[i].Rank = rank
	}
	return out, nil
}

func copyAssets(outDir string) error {
	assets := webapp.Assets()
	return fs.WalkDir(assets, ".", func(path string, d fs.DirEntry, err error) error {
		if err != nil || d.IsDir() {
			return err
		}
		data, err := fs.ReadFile(assets, path)
		if err != nil {
			return err
		}
		// index.html sits at the site root, everything else under static/.
		dst := filepath.Join(outDir, "static", path)
		if path == "index.html" || path == "inspect.html" {
			dst = filepath.Join(outDir, path)
		}
		if err := os.MkdirAll(filepath.Dir(dst), 0o755); err != nil {
			return err
		}
		return os.WriteFile(dst, data, 0o644)
	})
}

func writeJSONFile(path string, v any) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	raw, err := json.Marshal(v)
	if err != nil {
		return err
	}
	return os.WriteFile(path, raw, 0o644)
}
