package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"time"

	"github.com/PuerkitoBio/goquery"

	"nfwa/internal"
	"nfwa/internal/perf"
	"nfwa/internal/util"
)

// KondisPage is one season list on kondis.no. The road race lists are
// hand-maintained pages with wildly varying markup, so each page is
// registered explicitly.
type KondisPage struct {
	Season     int
	Gender     internal.Gender
	EventLabel string
	URL        string
	Enabled    bool
}

func kondisPagesFromPairs(eventLabel, slug string, genders []internal.Gender, seasons []int) []KondisPage {
	var out []KondisPage
	for _, season := range seasons {
		for _, gender := range genders {
			g := "menn"
			if gender == internal.GenderWomen {
				g = "kvinner"
			}
			out = append(out, KondisPage{
				Season:     season,
				Gender:     gender,
				EventLabel: eventLabel,
				URL:        fmt.Sprintf("https://www.kondis.no/statistikk/%s-%s-%d.html", slug, g, season),
				Enabled:    true,
			})
		}
	}
	return out
}

var kondisSeasons = []int{2019, 2020, 2021, 2022, 2023, 2024}

var bothGenders = []internal.Gender{internal.GenderWomen, internal.GenderMen}

// KondisPages lists every registered season page.
func KondisPages() []KondisPage {
	var out []KondisPage
	out = append(out, kondisPagesFromPairs("5 km gateløp", "5km", bothGenders, kondisSeasons)...)
	out = append(out, kondisPagesFromPairs("10 km gateløp", "10km", bothGenders, kondisSeasons)...)
	out = append(out, kondisPagesFromPairs("Halvmaraton", "halvmaraton", bothGenders, kondisSeasons)...)
	out = append(out, kondisPagesFromPairs("Maraton", "maraton", bothGenders, kondisSeasons)...)
	return out
}

// KondisPagesFor filters the registry by season and optional gender.
func KondisPagesFor(seasons []int, gender *internal.Gender) []KondisPage {
	want := map[int]bool{}
	for _, s := range seasons {
		want[s] = true
	}
	var out []KondisPage
	for _, p := range KondisPages() {
		if len(want) > 0 && !want[p.Season] {
			continue
		}
		if gender != nil && p.Gender != *gender {
			continue
		}
		out = append(out, p)
	}
	return out
}

var (
	timeTokenRe  = regexp.MustCompile(`^\d+(?:[:.,]\d{2}){1,3}(?:[A-Za-z]{1,3})?`)
	rankPrefixRe = regexp.MustCompile(`^(\d{1,4}(?:[.,]\d)?\.?)\s+([A-ZÆØÅ].+)$`)
	birthYearRe  = regexp.MustCompile(`\s*-\s*(\d{2,4}|\?)\s*$`)
	footnoteRe   = regexp.MustCompile(`\(\s*\*\s*\)`)
	kondisDateRe = regexp.MustCompile(`(\d{1,2})\s*[.,]\s*([A-Za-zÆØÅæøå]{3,4})\b`)
	textTimeRe   = regexp.MustCompile(`\s(\d+(?:[:.,]\d{2}){1,3})(?:\s|$)`)
	rankTieRe    = regexp.MustCompile(`^(\d{1,4})(?:[.,]\d|\.)$`)
	birthColRe   = regexp.MustCompile(`^-\d{2,4}`)
)

var kondisMonths = map[string]time.Month{
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "mai": 5, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "sept": 9, "okt": 10, "nov": 11, "des": 12,
}

// FetchKondisPage fetches and parses one registered page.
func FetchKondisPage(ctx context.Context, f *Fetcher, page KondisPage) ([]internal.RawResult, error) {
	body, err := f.Fetch(ctx, page.URL)
	if err != nil {
		return nil, err
	}
	return ParseKondisPage(body, page)
}

// ParseKondisPage tries the structured table first and falls back to
// plain text lines; the hand-maintained pages have used both shapes
// over the years.
func ParseKondisPage(htmlBytes []byte, page KondisPage) ([]internal.RawResult, error) {
	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(htmlBytes))
	if err != nil {
		return nil, err
	}

	if out := parseKondisTable(doc, page); len(out) > 0 {
		return out, nil
	}
	return parseKondisText(doc, page), nil
}

// parseKondisTable scores every table by its count of time-like rows
// and parses the winner; layout and navigation tables never qualify.
func parseKondisTable(doc *goquery.Document, page KondisPage) []internal.RawResult {
	var best *goquery.Selection
	bestScore := 0
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		score := 0
		table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
			found := false
			tr.Find("th,td").Each(func(_ int, c *goquery.Selection) {
				if !found && looksLikeTime(util.CollapseSpace(c.Text())) {
					found = true
				}
			})
			if found {
				score++
			}
		})
		if score > bestScore {
			bestScore = score
			best = table
		}
	})
	if best == nil || bestScore < 3 {
		return nil
	}

	autoRank := 0
	var out []internal.RawResult
	best.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, util.CollapseSpace(c.Text()))
		})
		if len(cells) == 0 || allBlank(cells) {
			return
		}
		for _, c := range cells {
			switch strings.ToLower(c) {
			case "navn", "name", "tid", "time":
				return
			}
		}
		autoRank++

		var athleteCell, timeCell string
		var competitionName, venueCity, dateCell *string
		rank := autoRank

		if looksLikeTime(cells[0]) {
			timeCell = cells[0]
			if len(cells) > 1 {
				athleteCell = cells[1]
			}
			switch {
			case len(cells) == 4:
				venueCity = noneIfEmpty(cells[2])
				dateCell = noneIfEmpty(cells[3])
			case len(cells) >= 5:
				competitionName = noneIfEmpty(cells[2])
				venueCity = noneIfEmpty(cells[3])
				dateCell = noneIfEmpty(cells[4])
			}
		} else if m := rankPrefixRe.FindStringSubmatch(cells[0]); m != nil && len(cells) >= 3 && looksLikeTime(cells[1]) {
			// "1 Name" | "17.52" | "Race name"
			if r := parseRankToken(m[1]); r != nil {
				rank = *r
			}
			athleteCell = strings.TrimSpace(m[2])
			timeCell = cells[1]
			competitionName = noneIfEmpty(cells[2])
			if len(cells) > 3 {
				dateCell = noneIfEmpty(cells[3])
			}
		} else {
			if r := parseRankToken(cells[0]); r != nil {
				rank = *r
			}
			// wider tables put club/birth/venue columns between name
			// and time; scan for the time column
			timeIdx := -1
			for idx := 2; idx < len(cells); idx++ {
				if looksLikeTime(cells[idx]) {
					timeIdx = idx
					break
				}
			}
			if timeIdx > 2 {
				preTime := cells[1:timeIdx]
				if len(preTime) >= 2 {
					venueCity = noneIfEmpty(preTime[len(preTime)-1])
					preTime = preTime[:len(preTime)-1]
				}
				athleteCell = joinAthleteParts(preTime)
				timeCell = cells[timeIdx]
			} else {
				if len(cells) > 1 {
					athleteCell = cells[1]
				}
				if len(cells) > 2 {
					timeCell = cells[2]
				}
				if len(cells) > 3 {
					competitionName = noneIfEmpty(cells[3])
				}
				if len(cells) > 4 {
					dateCell = noneIfEmpty(cells[4])
				}
			}
		}

		if row, ok := buildKondisResult(page, rank, athleteCell, timeCell, competitionName, venueCity, dateCell); ok {
			out = append(out, row)
		}
	})
	return out
}

// parseKondisText handles the oldest pages: plain lines, either pipe
// separated or "1 Name, Club -85 31.05 Venue 11.okt".
func parseKondisText(doc *goquery.Document, page KondisPage) []internal.RawResult {
	text := doc.Find("pre").Text()
	if strings.TrimSpace(text) == "" {
		text = doc.Find("body").Text()
	}

	autoRank := 0
	var out []internal.RawResult
	for _, line := range strings.Split(text, "\n") {
		line = util.CollapseSpace(line)
		if line == "" {
			continue
		}
		low := strings.ToLower(line)
		if strings.HasPrefix(low, "andre under") || strings.HasPrefix(low, "utarbeidet av") || strings.HasPrefix(low, "oppdatert") {
			break
		}

		if strings.Contains(line, "|") {
			parts := strings.Split(line, "|")
			for i := range parts {
				parts[i] = strings.TrimSpace(parts[i])
			}
			if len(parts) < 3 || !looksLikeTime(parts[2]) {
				continue
			}
			autoRank++
			rank := autoRank
			if r := parseRankToken(parts[0]); r != nil {
				rank = *r
			}
			var comp, date *string
			if len(parts) > 3 {
				comp = noneIfEmpty(parts[3])
			}
			if len(parts) > 4 {
				date = noneIfEmpty(parts[4])
			}
			if row, ok := buildKondisResult(page, rank, parts[1], parts[2], comp, nil, date); ok {
				out = append(out, row)
			}
			continue
		}

		m := rankPrefixRe.FindStringSubmatch(line)
		if m == nil {
			continue
		}
		rest := m[2]
		timeLoc := textTimeRe.FindStringSubmatchIndex(rest)
		if timeLoc == nil {
			continue
		}
		autoRank++
		rank := autoRank
		if r := parseRankToken(m[1]); r != nil {
			rank = *r
		}
		athleteCell := strings.TrimSpace(rest[:timeLoc[0]])
		timeCell := rest[timeLoc[2]:timeLoc[3]]
		tail := strings.TrimSpace(rest[timeLoc[1]:])

		var venue, date *string
		if dm := kondisDateRe.FindStringIndex(tail); dm != nil {
			d := tail[dm[0]:dm[1]]
			date = &d
			tail = util.CollapseSpace(tail[:dm[0]] + " " + tail[dm[1]:])
		}
		if tail != "" {
			venue = &tail
		}
		if row, ok := buildKondisResult(page, rank, athleteCell, timeCell, nil, venue, date); ok {
			out = append(out, row)
		}
	}
	return out
}

func buildKondisResult(page KondisPage, rank int, athleteCell, timeCell string, competitionName, venueCity, dateCell *string) (internal.RawResult, bool) {
	if !looksLikeTime(timeCell) {
		return internal.RawResult{}, false
	}
	cleaned, ok := perf.Clean(timeCell)
	if !ok {
		return internal.RawResult{}, false
	}
	name, club, birthYear := parseAthleteCell(athleteCell)
	if name == "" {
		return internal.RawResult{}, false
	}

	row := internal.RawResult{
		Source:          internal.SourceKondis,
		SourceURL:       page.URL,
		Season:          page.Season,
		Gender:          page.Gender,
		EventLabel:      page.EventLabel,
		RankInList:      rank,
		PerformanceRaw:  cleaned.Raw,
		AthleteName:     name,
		Club:            club,
		CompetitionName: competitionName,
		VenueCity:       venueCity,
		Wind:            cleaned.Wind,
	}
	if birthYear != nil {
		birth := fmt.Sprintf("%04d-01-01", *birthYear)
		row.BirthDate = &birth
	}
	if dateCell != nil {
		if d, ok := parseKondisDate(*dateCell, page.Season); ok {
			row.ResultDate = &d
		}
	}
	return row, true
}

// parseAthleteCell splits "Name, Club -85" into its parts. A trailing
// "-?" marks an unknown birth year.
func parseAthleteCell(text string) (name string, club *string, birthYear *int) {
	s := util.CollapseSpace(text)
	if s == "" {
		return "", nil, nil
	}
	s = strings.TrimSpace(footnoteRe.ReplaceAllString(s, ""))
	s = strings.TrimSpace(strings.TrimRight(s, "*"))

	if m := birthYearRe.FindStringSubmatch(s); m != nil {
		if m[1] != "?" {
			if yy, err := strconv.Atoi(m[1]); err == nil {
				year := util.PivotYear(yy, 0)
				birthYear = &year
			}
		}
		s = strings.TrimSpace(strings.TrimRight(strings.TrimSpace(s[:len(s)-len(m[0])]), ","))
	}

	name = s
	if idx := strings.Index(s, ","); idx >= 0 {
		name = strings.TrimSpace(s[:idx])
		rest := strings.TrimSpace(s[idx+1:])
		if rest != "" {
			club = &rest
		}
	}
	return name, club, birthYear
}

func parseKondisDate(text string, season int) (string, bool) {
	m := kondisDateRe.FindStringSubmatch(strings.TrimSpace(text))
	if m == nil {
		return "", false
	}
	day, err := strconv.Atoi(m[1])
	if err != nil {
		return "", false
	}
	month, ok := kondisMonths[strings.ToLower(m[2])]
	if !ok {
		return "", false
	}
	if day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", season, month, day), true
}

func parseRankToken(text string) *int {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	if n, err := strconv.Atoi(s); err == nil {
		return &n
	}
	// sub-ranked ties like "36.1" or plain "36." keep the base rank
	if m := rankTieRe.FindStringSubmatch(s); m != nil {
		if n, err := strconv.Atoi(m[1]); err == nil {
			return &n
		}
	}
	return nil
}

func looksLikeTime(text string) bool {
	return timeTokenRe.MatchString(strings.TrimSpace(text))
}

func allBlank(cells []string) bool {
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			return false
		}
	}
	return true
}

func noneIfEmpty(text string) *string {
	s := strings.TrimSpace(text)
	if s == "" {
		return nil
	}
	return &s
}

// joinAthleteParts merges name/club/birth columns back into the
// "Name, Club -85" shape; birth-year cells start with a dash.
func joinAthleteParts(parts []string) string {
	var pieces []string
	for _, p := range parts {
		p = strings.TrimSpace(p)
		if p == "" {
			continue
		}
		stripped := strings.TrimSpace(footnoteRe.ReplaceAllString(p, ""))
		if birthColRe.MatchString(stripped) && len(pieces) > 0 {
			pieces[len(pieces)-1] += " " + p
			continue
		}
		pieces = append(pieces, p)
	}
	return strings.Join(pieces, ", ")
}
