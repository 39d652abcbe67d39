package ingest

import (
	"context"
	"errors"
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nfwa/internal"
	"nfwa/internal/athlete"
	"nfwa/internal/config"
	"nfwa/internal/events"
	"nfwa/internal/perf"
	"nfwa/internal/scoring"
	"nfwa/internal/sources"
	"nfwa/internal/storage"
)

// Service runs the sync pipeline: fetch a page, resolve each row's
// event, normalize the mark, attach scoring, and upsert. A page is the
// unit of rebuild; its previous rows are deleted before re-ingest, so
// parser changes never leave stale keys behind.
type Service struct {
	db       *storage.DB
	cfg      config.Config
	fetcher  *sources.Fetcher
	resolver *events.Resolver
	bridge   *scoring.Bridge
}

func NewService(db *storage.DB, wadb *scoring.WADB, cfg config.Config) (*Service, error) {
	waEvents := map[internal.Gender]map[string]bool{}
	for _, g := range []internal.Gender{internal.GenderWomen, internal.GenderMen} {
		names, err := wadb.EventNames(g)
		if err != nil {
			return nil, fmt.Errorf("load scoring events for %s: %w", g, err)
		}
		waEvents[g] = names
	}
	return &Service{
		db:       db,
		cfg:      cfg,
		fetcher:  sources.NewFetcher(cfg),
		resolver: events.NewResolver(waEvents),
		bridge:   scoring.NewBridge(wadb),
	}, nil
}

var syncGenders = []internal.Gender{internal.GenderWomen, internal.GenderMen}

// SyncLandsoversikt ingests the federation season lists. Seasons that
// predate the current site exist only as legacy statistics pages and
// are routed there instead.
func (s *Service) SyncLandsoversikt(ctx context.Context, seasons []int) (internal.SyncSummary, error) {
	var sum internal.SyncSummary
	for _, season := range seasons {
		for _, gender := range syncGenders {
			g := gender
			legacy := sources.FriidrettPagesFor([]int{season}, &g)
			if len(legacy) > 0 {
				if err := s.syncLegacyPages(ctx, legacy, &sum); err != nil {
					return sum, err
				}
				continue
			}

			rows, err := sources.FetchLandsoversikt(ctx, s.fetcher, gender, season)
			if err != nil {
				return sum, err
			}
			if len(rows) == 0 {
				continue
			}
			url := sources.LandsoversiktURL(gender, season)
			if _, err := s.db.DeleteResultsForPage(url, gender, season); err != nil {
				return sum, err
			}
			sum.Pages++
			for _, row := range rows {
				if err := s.ingestRow(row, &sum); err != nil {
					return sum, err
				}
			}
		}
	}
	return sum, nil
}

// syncLegacyPages tolerates per-page failures: the legacy exports are
// inconsistent and a broken page should not sink the whole sync.
func (s *Service) syncLegacyPages(ctx context.Context, pages []sources.FriidrettPage, sum *internal.SyncSummary) error {
	for _, page := range pages {
		rows, err := sources.FetchFriidrettPage(ctx, s.fetcher, page)
		if err != nil {
			fmt.Printf("warning: skipping legacy page %s (%s %d): %v\n", page.URL, page.Gender, page.Season, err)
			continue
		}
		if len(rows) == 0 {
			continue
		}
		if _, err := s.db.DeleteResultsForPage(page.URL, page.Gender, page.Season); err != nil {
			return err
		}
		sum.Pages++
		for _, row := range rows {
			if err := s.ingestRow(row, sum); err != nil {
				return err
			}
		}
	}
	return nil
}

// SyncKondis ingests the road race season lists. gender nil means both.
func (s *Service) SyncKondis(ctx context.Context, seasons []int, gender *internal.Gender) (internal.SyncSummary, error) {
	var sum internal.SyncSummary
	for _, page := range sources.KondisPagesFor(seasons, gender) {
		// disabled pages stay registered so old rows get purged
		if !page.Enabled {
			if _, err := s.db.DeleteResultsBySourceURL(page.URL); err != nil {
				return sum, err
			}
			continue
		}
		rows, err := sources.FetchKondisPage(ctx, s.fetcher, page)
		if err != nil {
			return sum, err
		}
		if len(rows) == 0 {
			continue
		}
		if _, err := s.db.DeleteResultsBySourceURL(page.URL); err != nil {
			return sum, err
		}
		sum.Pages++
		for _, row := range rows {
			if err := s.ingestRow(row, &sum); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}

// SyncOldData ingests the transcribed pre-2000 season files.
func (s *Service) SyncOldData(seasons []int) (internal.SyncSummary, error) {
	var sum internal.SyncSummary
	for _, season := range seasons {
		rows, err := sources.ParseOldDataDir(s.cfg.OldDataDir, season)
		if err != nil {
			return sum, err
		}
		if len(rows) == 0 {
			continue
		}
		if _, err := s.db.DeleteResultsByURLPrefix(fmt.Sprintf("old_data:%d/", season)); err != nil {
			return sum, err
		}
		sum.Pages++
		for _, row := range rows {
			if err := s.ingestRow(row, &sum); err != nil {
				return sum, err
			}
		}
	}
	return sum, nil
}

// SyncAll runs every source for the given seasons.
func (s *Service) SyncAll(ctx context.Context, seasons []int) (internal.SyncSummary, error) {
	var sum internal.SyncSummary

	landSum, err := s.SyncLandsoversikt(ctx, seasons)
	sum.Merge(landSum)
	if err != nil {
		return sum, err
	}

	kondisSum, err := s.SyncKondis(ctx, seasons, nil)
	sum.Merge(kondisSum)
	if err != nil {
		return sum, err
	}

	oldSum, err := s.SyncOldData(seasons)
	sum.Merge(oldSum)
	if err != nil {
		return sum, err
	}
	return sum, nil
}

func (s *Service) ingestRow(row internal.RawResult, sum *internal.SyncSummary) error {
	sum.RowsSeen++

	ev, err := s.resolver.Resolve(row.Gender, row.EventLabel)
	if err != nil {
		if errors.Is(err, events.ErrUnknownEvent) {
			sum.RowsSkipped++
			sum.AddUnknown(row.EventLabel)
			return nil
		}
		return err
	}

	// the road source lists half marathons not present in the scoring
	// tables; the distance hint still matters for time parsing
	hint := ev.WAEvent
	if hint == nil && strings.HasPrefix(strings.ToLower(row.EventLabel), "halvmaraton") {
		hm := "HM"
		hint = &hm
	}
	norm := perf.Normalize(row.PerformanceRaw, ev.Orientation, hint)

	athleteID := athlete.ResolveID(row)
	if err := s.db.UpsertAthlete(athleteID, row.Gender, row.AthleteName, row.BirthDate, row.Nationality); err != nil {
		return err
	}
	clubID, err := s.db.GetOrCreateClub(row.Club)
	if err != nil {
		return err
	}
	eventID, err := s.db.GetOrCreateEvent(row.Gender, ev)
	if err != nil {
		return err
	}
	var competitionID *int64
	if row.CompetitionID != nil {
		competitionID, err = s.db.UpsertCompetition(row.CompetitionID, row.CompetitionName, row.VenueCity, row.Stadium)
		if err != nil {
			return err
		}
	}

	var perfClean *string
	var value *float64
	if norm.State == internal.PerfOK {
		p := norm.Performance
		perfClean = &p
		value = norm.Value
	}

	outcome := s.bridge.Apply(row.Gender, ev.WAEvent, value, norm.Performance)
	switch {
	case ev.WAEvent == nil || value == nil:
		sum.WAMissing++
	case outcome.Error != nil:
		sum.WAFailed++
	default:
		sum.WASuccess++
	}
	var waExact *int
	if outcome.Points != nil {
		exact := 0
		if outcome.Exact {
			exact = 1
		}
		waExact = &exact
	}

	wind := norm.Wind
	if wind == nil {
		wind = row.Wind
	}
	var rank *int
	if row.RankInList > 0 {
		r := row.RankInList
		rank = &r
	}

	if err := s.db.UpsertResult(storage.ResultInsert{
		Season:           row.Season,
		Gender:           row.Gender,
		Source:           row.Source,
		EventID:          eventID,
		AthleteID:        athleteID,
		ClubID:           clubID,
		RankInList:       rank,
		PerformanceRaw:   displayRawPerformance(row.PerformanceRaw, ev.WAEvent, perfClean),
		PerformanceClean: perfClean,
		Value:            value,
		Wind:             wind,
		PlacementRaw:     row.PlacementRaw,
		CompetitionID:    competitionID,
		CompetitionName:  row.CompetitionName,
		VenueCity:        row.VenueCity,
		Stadium:          row.Stadium,
		ResultDate:       row.ResultDate,
		WAPoints:         outcome.Points,
		WAExact:          waExact,
		WAEvent:          ev.WAEvent,
		WAError:          outcome.Error,
		SourceURL:        row.SourceURL,
	}); err != nil {
		return err
	}
	sum.RowsInserted++
	return nil
}

var (
	jumpCmRe        = regexp.MustCompile(`^\d{3,4}$`)
	mixedDotCommaRe = regexp.MustCompile(`^\d+\.\d{1,2},\d{1,2}$`)
)

// displayRawPerformance keeps the stored raw mark readable. Bare
// centimetre vault and high jump marks become metres, and a mixed
// dot-comma mark that normalized to hours keeps the long reading.
func displayRawPerformance(raw string, waEvent, norm *string) string {
	trimmed := strings.TrimSpace(raw)
	if trimmed == "" {
		return raw
	}

	if norm != nil && mixedDotCommaRe.MatchString(trimmed) {
		n := *norm
		if strings.Count(n, ":") >= 2 && !strings.Contains(n, ".") {
			return strings.ReplaceAll(n, ":", ".")
		}
	}

	if waEvent == nil || (*waEvent != "HJ" && *waEvent != "PV") {
		return raw
	}
	if strings.ContainsAny(trimmed, ".,:") || !jumpCmRe.MatchString(trimmed) {
		return raw
	}
	cm, err := strconv.Atoi(trimmed)
	if err != nil {
		return raw
	}
	if *waEvent == "HJ" && (cm < 100 || cm > 280) {
		return raw
	}
	if *waEvent == "PV" && (cm < 100 || cm > 700) {
		return raw
	}
	return strings.ReplaceAll(fmt.Sprintf("%.2f", float64(cm)/100), ".", ",")
}
