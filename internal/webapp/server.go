package webapp

import (
	"embed"
	"encoding/json"
	"fmt"
	"io/fs"
	"math"
	"net/http"
	"sort"
	"strconv"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/go-chi/cors"

	"nfwa/internal"
	"nfwa/internal/events"
	"nfwa/internal/storage"
)

//go:embed static
var staticFS embed.FS

// Assets exposes the bundled frontend so the static site exporter can
// publish the same pages the live server serves.
func Assets() fs.FS {
	sub, _ := fs.Sub(staticFS, "static")
	return sub
}

// topNs are the per-event list depths the dashboard can average over.
var topNs = []int{5, 10, 20}

type Server struct {
	db *storage.DB
}

func NewServer(db *storage.DB) *Server {
	return &Server{db: db}
}

// Router builds the HTTP surface: the dashboard pages plus the JSON API.
func (s *Server) Router() *chi.Mux {
	r := chi.NewRouter()
	r.Use(middleware.Logger)
	r.Use(middleware.Recoverer)
	r.Use(cors.Handler(cors.Options{
		AllowedOrigins: []string{"*"},
		AllowedMethods: []string{"GET", "OPTIONS"},
		AllowedHeaders: []string{"Accept", "Content-Type"},
		MaxAge:         300,
	}))

	r.Get("/", s.handleIndex)
	r.Get("/index.html", s.handleIndex)
	r.Get("/inspect", s.handleInspectPage)

	static, _ := fs.Sub(staticFS, "static")
	r.Handle("/static/*", http.StripPrefix("/static/", http.FileServer(http.FS(static))))

	r.Route("/api", func(r chi.Router) {
		r.Get("/meta", s.handleMeta)
		r.Get("/events", s.handleEvents)
		r.Get("/event_trend", s.handleEventTrend)
		r.Get("/season_summary", s.handleSeasonSummary)
		r.Get("/athlete", s.handleAthlete)
		r.Get("/event_results", s.handleEventResults)
		r.Get("/coverage", s.handleCoverage)
		r.Get("/inspect/overview", s.handleInspectOverview)
		r.Get("/inspect/samples", s.handleInspectSamples)
		r.Get("/inspect/foreign", s.handleInspectForeign)
		r.Get("/inspect/sources", s.handleInspectSources)
		r.NotFound(func(w http.ResponseWriter, r *http.Request) {
			writeError(w, http.StatusNotFound, "Ukjent API-endepunkt")
		})
	})

	return r
}

func (s *Server) handleIndex(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, "static/index.html")
}

func (s *Server) handleInspectPage(w http.ResponseWriter, r *http.Request) {
	s.servePage(w, "static/inspect.html")
}

func (s *Server) servePage(w http.ResponseWriter, name string) {
	data, err := staticFS.ReadFile(name)
	if err != nil {
		writeError(w, http.StatusNotFound, "Filen finnes ikke")
		return
	}
	w.Header().Set("Content-Type", "text/html; charset=utf-8")
	w.Header().Set("Cache-Control", "no-store")
	w.Write(data)
}

func (s *Server) handleMeta(w http.ResponseWriter, r *http.Request) {
	meta, err := s.db.Meta()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, struct {
		storage.Meta
		TopNs []int `json:"top_ns"`
	}{meta, topNs})
}

func (s *Server) handleEvents(w http.ResponseWriter, r *http.Request) {
	gender, ok := queryGender(w, r)
	if !ok {
		return
	}
	rows, err := s.db.EventsForGender(gender)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []storage.EventInfo{}
	}
	writeJSON(w, rows)
}

// summaryRow adds the display order the frontend sorts event tabs by.
type summaryRow struct {
	storage.SummaryRow
	EventOrder int `json:"event_order"`
}

func (s *Server) handleEventTrend(w http.ResponseWriter, r *http.Request) {
	gender, ok := queryGender(w, r)
	if !ok {
		return
	}
	eventNo, ok := requireQuery(w, r, "event")
	if !ok {
		return
	}
	topN := queryInt(r, "top", 10)

	rows, err := s.db.EventTrend(gender, eventNo, topN)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, summarize(rows))
}

func (s *Server) handleSeasonSummary(w http.ResponseWriter, r *http.Request) {
	gender, ok := queryGender(w, r)
	if !ok {
		return
	}
	season, ok := requireQueryInt(w, r, "season")
	if !ok {
		return
	}
	topN := queryInt(r, "top", 10)
	sortMode := r.URL.Query().Get("sort")
	if sortMode == "" {
		sortMode = "points"
	}

	rows, err := s.db.SeasonSummary(season, gender, topN)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}

	switch sortMode {
	case "points":
		sort.SliceStable(rows, func(i, j int) bool {
			a, b := rows[i].AvgPointsTopN, rows[j].AvgPointsTopN
			if (a == nil) != (b == nil) {
				return a != nil
			}
			if a == nil {
				return false
			}
			return *a > *b
		})
	case "performance":
		// Times sort ascending, distances and heights descending.
		key := func(r storage.SummaryRow) (bool, float64) {
			if r.AvgValueTopN == nil {
				return true, 0
			}
			if r.Orientation == string(internal.OrientLower) {
				return false, *r.AvgValueTopN
			}
			return false, -*r.AvgValueTopN
		}
		sort.SliceStable(rows, func(i, j int) bool {
			aNil, a := key(rows[i])
			bNil, b := key(rows[j])
			if aNil != bNil {
				return !aNil
			}
			return a < b
		})
	case "event":
		sort.SliceStable(rows, func(i, j int) bool {
			a := events.SortIndex(rows[i].EventNo)
			b := events.SortIndex(rows[j].EventNo)
			if a != b {
				return a < b
			}
			return rows[i].EventNo < rows[j].EventNo
		})
	default:
		writeError(w, http.StatusBadRequest, "sort må være event, points eller performance")
		return
	}

	writeJSON(w, summarize(rows))
}

func (s *Server) handleAthlete(w http.ResponseWriter, r *http.Request) {
	id, ok := requireQueryInt(w, r, "id")
	if !ok {
		return
	}
	var since *int
	if v := r.URL.Query().Get("since"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "since må være et årstall")
			return
		}
		since = &n
	}

	career, err := s.db.AthleteResults(int64(id), since)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if career == nil {
		career = &storage.AthleteCareer{AthleteID: int64(id), Results: []storage.AthleteResultRow{}}
	}
	writeJSON(w, struct {
		AthleteID int64                      `json:"athlete_id"`
		Name      string                     `json:"name"`
		BirthDate *string                    `json:"birth_date"`
		Rows      []storage.AthleteResultRow `json:"rows"`
	}{career.AthleteID, career.Name, career.BirthDate, career.Results})
}

func (s *Server) handleEventResults(w http.ResponseWriter, r *http.Request) {
	gender, ok := queryGender(w, r)
	if !ok {
		return
	}
	season, ok := requireQueryInt(w, r, "season")
	if !ok {
		return
	}
	eventNo, ok := requireQuery(w, r, "event")
	if !ok {
		return
	}
	mode := r.URL.Query().Get("mode")
	if mode == "" {
		mode = "best"
	}
	if mode != "best" && mode != "all" {
		writeError(w, http.StatusBadRequest, "mode må være best eller all")
		return
	}
	limit := queryInt(r, "limit", 200)
	offset := queryInt(r, "offset", 0)

	res, err := s.db.EventResultsList(season, gender, eventNo, mode, limit, offset)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, struct {
		Season  int    `json:"season"`
		Gender  string `json:"gender"`
		EventNo string `json:"event_no"`
		Mode    string `json:"mode"`
		Limit   int    `json:"limit"`
		Offset  int    `json:"offset"`
		storage.EventResults
	}{season, string(gender), eventNo, mode, limit, offset, res})
}

func (s *Server) handleCoverage(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.Coverage()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	if rows == nil {
		rows = []storage.CoverageRow{}
	}
	writeJSON(w, rows)
}

func (s *Server) handleInspectOverview(w http.ResponseWriter, r *http.Request) {
	o, err := s.db.Overview()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, o)
}

func (s *Server) handleInspectSamples(w http.ResponseWriter, r *http.Request) {
	f := storage.SampleFilter{
		Source: r.URL.Query().Get("source_type"),
		Limit:  queryInt(r, "limit", 20),
	}
	if v := r.URL.Query().Get("season"); v != "" {
		n, err := strconv.Atoi(v)
		if err != nil {
			writeError(w, http.StatusBadRequest, "season må være et årstall")
			return
		}
		f.Season = &n
	}
	if v := r.URL.Query().Get("gender"); v != "" {
		g := internal.Gender(v)
		if g != internal.GenderWomen && g != internal.GenderMen {
			writeError(w, http.StatusBadRequest, "gender må være Women eller Men")
			return
		}
		f.Gender = &g
	}

	rows, err := s.db.Samples(f)
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, rows)
}

func (s *Server) handleInspectForeign(w http.ResponseWriter, r *http.Request) {
	out, err := s.db.Foreign(queryInt(r, "limit", 50))
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, out)
}

func (s *Server) handleInspectSources(w http.ResponseWriter, r *http.Request) {
	rows, err := s.db.SourcePages()
	if err != nil {
		writeError(w, http.StatusInternalServerError, err.Error())
		return
	}
	writeJSON(w, rows)
}

// summarize decorates summary rows with their display order and keeps
// the averages rounded for the UI.
func summarize(rows []storage.SummaryRow) []summaryRow {
	out := make([]summaryRow, 0, len(rows))
	for _, r := range rows {
		if r.AvgPointsTopN != nil {
			v := math.Round(*r.AvgPointsTopN*1000) / 1000
			r.AvgPointsTopN = &v
		}
		if r.AvgValueTopN != nil {
			v := math.Round(*r.AvgValueTopN*1000) / 1000
			r.AvgValueTopN = &v
		}
		out = append(out, summaryRow{SummaryRow: r, EventOrder: events.SortIndex(r.EventNo)})
	}
	return out
}

func writeJSON(w http.ResponseWriter, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, msg string) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	json.NewEncoder(w).Encode(map[string]string{"error": msg})
}

func queryGender(w http.ResponseWriter, r *http.Request) (internal.Gender, bool) {
	g := internal.Gender(r.URL.Query().Get("gender"))
	if g != internal.GenderWomen && g != internal.GenderMen {
		writeError(w, http.StatusBadRequest, "gender må være Women eller Men")
		return "", false
	}
	return g, true
}

func requireQuery(w http.ResponseWriter, r *http.Request, key string) (string, bool) {
	v := r.URL.Query().Get(key)
	if v == "" {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Mangler parameter: %s", key))
		return "", false
	}
	return v, true
}

func requireQueryInt(w http.ResponseWriter, r *http.Request, key string) (int, bool) {
	v, ok := requireQuery(w, r, key)
	if !ok {
		return 0, false
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		writeError(w, http.StatusBadRequest, fmt.Sprintf("Ugyldig parameter: %s", key))
		return 0, false
	}
	return n, true
}

func queryInt(r *http.Request, key string, def int) int {
	if v := r.URL.Query().Get(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
	}
	return def
}
