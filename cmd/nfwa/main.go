package main

import (
	"context"
	"flag"
	"fmt"
	"net/http"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"strings"
	"syscall"
	"time"

	"nfwa/internal"
	"nfwa/internal/config"
	"nfwa/internal/export"
	"nfwa/internal/ingest"
	"nfwa/internal/scoring"
	"nfwa/internal/storage"
	"nfwa/internal/webapp"
)

func main() {
	cfg, err := config.Load()
	must(err)

	if len(os.Args) < 2 {
		usage()
		os.Exit(1)
	}

	if err := os.MkdirAll(filepath.Dir(cfg.DBPath), 0o755); err != nil {
		must(err)
	}
	db, err := storage.Open(cfg.DBPath)
	must(err)
	defer db.Close()

	currentYear := time.Now().Year()

	cmd := os.Args[1]
	switch cmd {
	case "sync:landsoversikt":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		years := fs.String("years", fmt.Sprintf("%d,%d", currentYear-1, currentYear), "comma-separated seasons")
		_ = fs.Parse(os.Args[2:])
		svc := newIngestService(db, cfg)
		sum, err := svc.SyncLandsoversikt(context.Background(), parseIntList(*years))
		must(err)
		printSummary("landsoversikt", sum)
	case "sync:kondis":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		years := fs.String("years", fmt.Sprintf("%d,%d", currentYear-1, currentYear), "comma-separated seasons")
		gender := fs.String("gender", "Both", "Women|Men|Both")
		_ = fs.Parse(os.Args[2:])
		g, err := parseGender(*gender)
		must(err)
		svc := newIngestService(db, cfg)
		sum, err := svc.SyncKondis(context.Background(), parseIntList(*years), g)
		must(err)
		printSummary("kondis", sum)
	case "sync:olddata":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		years := fs.String("years", "1999", "comma-separated seasons")
		_ = fs.Parse(os.Args[2:])
		svc := newIngestService(db, cfg)
		sum, err := svc.SyncOldData(parseIntList(*years))
		must(err)
		printSummary("olddata", sum)
	case "sync:all":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		years := fs.String("years", fmt.Sprintf("%d,%d", currentYear-1, currentYear), "comma-separated seasons")
		_ = fs.Parse(os.Args[2:])
		svc := newIngestService(db, cfg)
		sum, err := svc.SyncAll(context.Background(), parseIntList(*years))
		must(err)
		printSummary("all", sum)
	case "sync:watch":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		years := fs.String("years", fmt.Sprintf("%d,%d", currentYear-1, currentYear), "comma-separated seasons")
		_ = fs.Parse(os.Args[2:])
		svc := newIngestService(db, cfg)
		must(svc.Watch(context.Background(), parseIntList(*years)))
	case "summary":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		season := fs.Int("season", currentYear, "season")
		gender := fs.String("gender", "Women", "Women|Men")
		topN := fs.Int("top", cfg.SummaryTopN, "list depth for the averages")
		_ = fs.Parse(os.Args[2:])
		g, err := parseGender(*gender)
		must(err)
		if g == nil {
			must(fmt.Errorf("--gender must be Women or Men"))
		}
		rows, err := db.SeasonSummary(*season, *g, *topN)
		must(err)
		fmt.Printf("%-28s %-10s %8s %8s %12s %12s\n",
			"event", "wa_event", "athletes", "results", "avg_points", "avg_perf")
		for _, r := range rows {
			fmt.Printf("%-28s %-10s %8d %8d %12s %12s\n",
				r.EventNo, deref(r.WAEvent), r.AthletesTotal, r.ResultsTotal,
				formatFloat(r.AvgPointsTopN), deref(r.AvgPerfTopN))
		}
	case "athlete":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		id := fs.Int64("id", 0, "athlete id")
		since := fs.Int("since", 0, "first season to include")
		_ = fs.Parse(os.Args[2:])
		if *id == 0 {
			must(fmt.Errorf("--id is required"))
		}
		var sinceSeason *int
		if *since > 0 {
			sinceSeason = since
		}
		career, err := db.AthleteResults(*id, sinceSeason)
		must(err)
		if career == nil {
			must(fmt.Errorf("no athlete with id=%d", *id))
		}
		fmt.Printf("%s (%s) født %s\n", career.Name, career.Gender, deref(career.BirthDate))
		for _, r := range career.Results {
			fmt.Printf("%d  %-24s %-10s %6s  %s %s\n",
				r.Season, r.EventNo, r.PerformanceRaw, formatInt(r.WAPoints),
				deref(r.ResultDate), deref(r.VenueCity))
		}
	case "export:site":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		out := fs.String("out", filepath.Join(cfg.OutDir, "site"), "output directory")
		tops := fs.String("top", "5,10,20", "comma-separated list depths to pre-generate")
		noIndex := fs.Bool("no-athlete-index", false, "skip the athlete lookup file")
		_ = fs.Parse(os.Args[2:])
		err := export.Site(db, export.SiteOptions{
			OutDir:              *out,
			TopNs:               parseIntList(*tops),
			IncludeAthleteIndex: !*noIndex,
		})
		must(err)
		fmt.Printf("site exported to %s\n", *out)
	case "export:xlsx":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		season := fs.Int("season", currentYear, "season")
		topN := fs.Int("top", cfg.SummaryTopN, "list depth for the averages")
		out := fs.String("out", "", "output xlsx path")
		_ = fs.Parse(os.Args[2:])
		path := *out
		if strings.TrimSpace(path) == "" {
			path = filepath.Join(cfg.OutDir, fmt.Sprintf("summary_%d.xlsx", *season))
		}
		must(export.SeasonWorkbook(db, *season, *topN, path))
		fmt.Printf("exported season %d summary to %s\n", *season, path)
	case "serve":
		fs := flag.NewFlagSet(cmd, flag.ExitOnError)
		addr := fs.String("addr", cfg.HTTPAddr, "listen address")
		_ = fs.Parse(os.Args[2:])
		must(serve(db, *addr))
	case "inspect":
		rows, err := db.Coverage()
		must(err)
		fmt.Printf("%-6s %-6s %-14s %7s %8s %7s %7s %9s\n",
			"season", "gender", "source", "events", "results", "scored", "failed", "athletes")
		for _, r := range rows {
			fmt.Printf("%-6d %-6s %-14s %7d %8d %7d %7d %9d\n",
				r.Season, r.Gender, r.Source, r.Events, r.Results, r.Scored, r.Failed, r.Athletes)
		}
	default:
		usage()
		os.Exit(1)
	}
}

func serve(db *storage.DB, addr string) error {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	srv := &http.Server{Addr: addr, Handler: webapp.NewServer(db).Router()}
	errCh := make(chan error, 1)
	go func() {
		fmt.Printf("dashboard listening on http://%s/\n", addr)
		errCh <- srv.ListenAndServe()
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}

func newIngestService(db *storage.DB, cfg config.Config) *ingest.Service {
	wadb, err := scoring.OpenWA(cfg.WADBPath)
	must(err)
	svc, err := ingest.NewService(db, wadb, cfg)
	must(err)
	return svc
}

func parseIntList(s string) []int {
	var out []int
	for _, part := range strings.Split(s, ",") {
		part = strings.TrimSpace(part)
		if part == "" {
			continue
		}
		n, err := strconv.Atoi(part)
		if err != nil {
			must(fmt.Errorf("invalid year %q", part))
		}
		out = append(out, n)
	}
	return out
}

func parseGender(s string) (*internal.Gender, error) {
	switch s {
	case "Both", "":
		return nil, nil
	case string(internal.GenderWomen):
		g := internal.GenderWomen
		return &g, nil
	case string(internal.GenderMen):
		g := internal.GenderMen
		return &g, nil
	default:
		return nil, fmt.Errorf("unsupported gender: %s", s)
	}
}

func printSummary(name string, sum internal.SyncSummary) {
	fmt.Printf("sync %s done pages=%d seen=%d inserted=%d skipped=%d wa_ok=%d wa_failed=%d wa_missing=%d\n",
		name, sum.Pages, sum.RowsSeen, sum.RowsInserted, sum.RowsSkipped,
		sum.WASuccess, sum.WAFailed, sum.WAMissing)
	if len(sum.UnknownEvents) > 0 {
		fmt.Println("unrecognized event labels:")
		for label, n := range sum.UnknownEvents {
			fmt.Printf("  %q x%d\n", label, n)
		}
	}
}

func deref(v *string) string {
	if v == nil {
		return ""
	}
	return *v
}

func formatFloat(v *float64) string {
	if v == nil {
		return ""
	}
	return strconv.FormatFloat(*v, 'f', 1, 64)
}

func formatInt(v *int) string {
	if v == nil {
		return ""
	}
	return strconv.Itoa(*v)
}

func usage() {
	fmt.Println("usage: nfwa <command>")
	fmt.Println("commands:")
	fmt.Println("  sync:landsoversikt --years=2024,2025")
	fmt.Println("  sync:kondis --years=2023,2024 --gender=Women|Men|Both")
	fmt.Println("  sync:olddata --years=1999")
	fmt.Println("  sync:all --years=2024,2025")
	fmt.Println("  sync:watch --years=2024,2025")
	fmt.Println("  summary --season=2025 --gender=Women [--top=10]")
	fmt.Println("  athlete --id=12345 [--since=2024]")
	fmt.Println("  export:site [--out=./out/site] [--top=5,10,20] [--no-athlete-index]")
	fmt.Println("  export:xlsx --season=2025 [--top=10] [--out=./out/summary_2025.xlsx]")
	fmt.Println("  serve [--addr=127.0.0.1:8077]")
	fmt.Println("  inspect")
}

func must(err error) {
	if err == nil {
		return
	}
	fmt.Fprintf(os.Stderr, "error: %v\n", err)
	os.Exit(1)
}
