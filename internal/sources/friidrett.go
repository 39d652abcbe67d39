package sources

import (
	"bytes"
	"context"
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"github.com/PuerkitoBio/goquery"
	"github.com/ledongthuc/pdf"

	"nfwa/internal"
	"nfwa/internal/events"
	"nfwa/internal/perf"
	"nfwa/internal/util"
)

// FriidrettPage is one legacy season-statistics page on friidrett.no.
// The pages are exported Word documents grouped by event family, so
// one page carries many events.
type FriidrettPage struct {
	Season int
	Gender internal.Gender
	URL    string
}

var friidrettPages2008 = []FriidrettPage{
	{2008, internal.GenderMen, "https://www.friidrett.no/link/ededda76178747499ab11bea8ebaa930.aspx"},  // sprint
	{2008, internal.GenderMen, "https://www.friidrett.no/link/47d7e60b56c24727b14b0df456ebb049.aspx"},  // distanse
	{2008, internal.GenderMen, "https://www.friidrett.no/link/0329d071badb421ebdbae98d140c7ccf.aspx"},  // hekk
	{2008, internal.GenderMen, "https://www.friidrett.no/link/d00ff6eaace545ffaa3e97f7f2a658be.aspx"},  // hopp
	{2008, internal.GenderMen, "https://www.friidrett.no/link/14ef5ded64ec4edc84de594fc0929cab.aspx"},  // kast
	{2008, internal.GenderMen, "https://www.friidrett.no/link/2b28b7d7700a496794d78ebd385aaacd.aspx"},  // mangekamp
	{2008, internal.GenderWomen, "https://www.friidrett.no/link/3ff25f4a57bb445c9643a678d7dc259e.aspx"},
	{2008, internal.GenderWomen, "https://www.friidrett.no/link/7d498b1130774467a50e2918667213df.aspx"},
	{2008, internal.GenderWomen, "https://www.friidrett.no/link/62dec3aef5414932af0395bf434f4f21.aspx"},
	{2008, internal.GenderWomen, "https://www.friidrett.no/link/1d94cc63d00f48cebe4be05fec33aa9a.aspx"},
	{2008, internal.GenderWomen, "https://www.friidrett.no/link/8a94b13eb9d34f1b8e1864b7b6bb67b9.aspx"},
	{2008, internal.GenderWomen, "https://www.friidrett.no/globalassets/aktivitet/statistikk/arsstatistikker/2008/www.friidrett.no-ksmk08.htm"},
	// race walking is a PDF export
	{2008, internal.GenderMen, "https://www.friidrett.no/globalassets/aktivitet/statistikk/arsstatistikker/2008/www.friidrett.no-kappgangs2008.pdf"},
	{2008, internal.GenderWomen, "https://www.friidrett.no/globalassets/aktivitet/statistikk/arsstatistikker/2008/www.friidrett.no-kappgangs2008.pdf"},
}

var friidrettPages2010 = []FriidrettPage{
	{2010, internal.GenderMen, "https://www.friidrett.no/link/9f75977878cc4932809862cd399e435c.aspx"},
	{2010, internal.GenderMen, "https://www.friidrett.no/link/ef7554091d4f4e3eb3d27159365e2f82.aspx"},
	{2010, internal.GenderMen, "https://www.friidrett.no/link/01774b1d5d9842ddb8622316090d03b7.aspx"},
	{2010, internal.GenderMen, "https://www.friidrett.no/link/580473c8526f4e0d879df48950427fe0.aspx"},
	{2010, internal.GenderMen, "https://www.friidrett.no/link/97eefbd05e3b4b7aad6f13569801a065.aspx"},
	{2010, internal.GenderMen, "https://www.friidrett.no/link/2d3b2204f863462c8b3f79a57010357d.aspx"},
	{2010, internal.GenderWomen, "https://www.friidrett.no/link/e21697d0f7db47fcb77d6825cda87118.aspx"},
	{2010, internal.GenderWomen, "https://www.friidrett.no/link/38589b538d324a7eacfd96e33ac85316.aspx"},
	{2010, internal.GenderWomen, "https://www.friidrett.no/link/3a3ffae3dd724e7f89ebfe9555ef561a.aspx"},
	{2010, internal.GenderWomen, "https://www.friidrett.no/link/24faa01d343a4e25807beddb39f4b73b.aspx"},
	{2010, internal.GenderWomen, "https://www.friidrett.no/link/5be74b7a9c3a4d9089371d20f19fb7d5.aspx"},
	{2010, internal.GenderWomen, "https://www.friidrett.no/link/2f5b992e90744492b8a25ad530088cd2.aspx"},
}

// FriidrettPages lists every registered legacy page.
func FriidrettPages() []FriidrettPage {
	out := make([]FriidrettPage, 0, len(friidrettPages2008)+len(friidrettPages2010))
	out = append(out, friidrettPages2008...)
	out = append(out, friidrettPages2010...)
	return out
}

// FriidrettPagesFor filters the registry by season and optional gender.
func FriidrettPagesFor(seasons []int, gender *internal.Gender) []FriidrettPage {
	want := map[int]bool{}
	for _, s := range seasons {
		want[s] = true
	}
	var out []FriidrettPage
	for _, p := range FriidrettPages() {
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
	windCellRe      = regexp.MustCompile(`^[+\-]?\s*\d+(?:[.,]\d+)?$`)
	placementCellRe = regexp.MustCompile(`^\(?\d+[A-Za-z0-9/.-]*\)?[A-Za-z0-9/.-]*$`)
	fullDateRe      = regexp.MustCompile(`^\d{1,2}\.\d{1,2}\.\d{2}$`)
	rangeDateRe     = regexp.MustCompile(`^(\d{1,2})(?:/\d{1,2})\.(\d{1,2})$`)
	shortDateRe     = regexp.MustCompile(`^(\d{1,2})\.(\d{1,2})$`)
	birthSpaceRe    = regexp.MustCompile(`^(\d{1,2}\.\d{1,2})\s+(\d{2})$`)
	walkHeadingRe   = regexp.MustCompile(`(?i)^kappgang\s+([\d .]+)\s*(km|meter|m)\b`)
	dashNormalizer  = strings.NewReplacer("−", "-", "–", "-", "—", "-")
)

// FetchFriidrettPage fetches and parses one registered page.
func FetchFriidrettPage(ctx context.Context, f *Fetcher, page FriidrettPage) ([]internal.RawResult, error) {
	body, err := f.Fetch(ctx, page.URL)
	if err != nil {
		return nil, err
	}
	return ParseFriidrettPage(body, page)
}

// ParseFriidrettPage parses a legacy statistics page. HTML pages carry
// an h2 heading per event followed by one or more tables; when records
// and results share an event the table with the most result rows wins.
// The race-walk export is a PDF and goes through the text tier.
func ParseFriidrettPage(body []byte, page FriidrettPage) ([]internal.RawResult, error) {
	if bytes.HasPrefix(bytes.TrimSpace(body), []byte("%PDF")) {
		return parseFriidrettPDF(body, page)
	}

	doc, err := goquery.NewDocumentFromReader(bytes.NewReader(body))
	if err != nil {
		return nil, err
	}
	if looksLikeNotFoundPage(doc) {
		return nil, nil
	}

	var out []internal.RawResult
	doc.Find("h2").Each(func(_ int, h2 *goquery.Selection) {
		heading := util.CollapseSpace(h2.Text())
		label, ok := events.CanonicalLegacyLabel(heading, page.Gender)
		if !ok {
			return
		}

		var best []internal.RawResult
		for _, table := range tablesUntilNextHeading(h2) {
			parsed := parseFriidrettTable(table, page, label)
			if len(parsed) > len(best) {
				best = parsed
			}
		}
		out = append(out, best...)
	})
	if len(out) > 0 {
		return out, nil
	}

	// some 2008 pages have no h2 structure: one big table with event
	// headings as single-cell rows
	return parseSectionedPage(doc, page), nil
}

// tablesUntilNextHeading collects the tables between an h2 and the next
// one, looking inside wrapper elements.
func tablesUntilNextHeading(h2 *goquery.Selection) []*goquery.Selection {
	var tables []*goquery.Selection
	h2.NextUntil("h2").Each(func(_ int, sib *goquery.Selection) {
		if goquery.NodeName(sib) == "table" {
			tables = append(tables, sib)
			return
		}
		sib.Find("table").Each(func(_ int, t *goquery.Selection) {
			tables = append(tables, t)
		})
	})
	return tables
}

// lastAthlete carries the previous full row so abbreviated repeats
// ("Karsten" under "Warholm, Karsten, Dimna IL") can be expanded.
type lastAthlete struct {
	name  string
	club  *string
	birth *string
}

func parseFriidrettTable(table *goquery.Selection, page FriidrettPage, label string) []internal.RawResult {
	seen := map[string]bool{}
	var last *lastAthlete
	rank := 0

	var out []internal.RawResult
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, util.CollapseSpace(c.Text()))
		})
		row, ok := parseFriidrettCells(cells, page, label, last)
		if !ok {
			return
		}
		last = &lastAthlete{name: row.AthleteName, club: row.Club, birth: row.BirthDate}

		key := athleteKey(row)
		if seen[key] {
			return
		}
		seen[key] = true
		rank++
		row.RankInList = rank
		out = append(out, row)
	})
	return out
}

// parseSectionedPage handles tables where event headings sit in
// single-cell rows between result blocks; the richest table wins.
func parseSectionedPage(doc *goquery.Document, page FriidrettPage) []internal.RawResult {
	var best []internal.RawResult
	doc.Find("table").Each(func(_ int, table *goquery.Selection) {
		parsed := parseSectionedTable(table, page)
		if len(parsed) > len(best) {
			best = parsed
		}
	})
	return best
}

func parseSectionedTable(table *goquery.Selection, page FriidrettPage) []internal.RawResult {
	seenByEvent := map[string]map[string]bool{}
	rankByEvent := map[string]int{}
	lastByEvent := map[string]*lastAthlete{}
	currentEvent := ""

	var out []internal.RawResult
	table.Find("tr").Each(func(_ int, tr *goquery.Selection) {
		var cells []string
		tr.Find("th,td").Each(func(_ int, c *goquery.Selection) {
			cells = append(cells, util.CollapseSpace(c.Text()))
		})
		if len(cells) == 0 {
			return
		}

		if heading, ok := sectionHeading(cells); ok {
			if label, ok := events.CanonicalLegacyLabel(heading, page.Gender); ok {
				currentEvent = label
			} else {
				currentEvent = ""
			}
			return
		}
		if currentEvent == "" {
			return
		}

		row, ok := parseFriidrettCells(cells, page, currentEvent, lastByEvent[currentEvent])
		if !ok {
			return
		}
		lastByEvent[currentEvent] = &lastAthlete{name: row.AthleteName, club: row.Club, birth: row.BirthDate}

		if seenByEvent[currentEvent] == nil {
			seenByEvent[currentEvent] = map[string]bool{}
		}
		key := athleteKey(row)
		if seenByEvent[currentEvent][key] {
			return
		}
		seenByEvent[currentEvent][key] = true
		rankByEvent[currentEvent]++
		row.RankInList = rankByEvent[currentEvent]
		out = append(out, row)
	})
	return out
}

// parseFriidrettCells turns one table row into a result. The column
// layout drifts across pages, so everything after the performance is
// located by shape: an optional wind column, then athlete, birth,
// placement, competition, venue and date.
func parseFriidrettCells(cells []string, page FriidrettPage, label string, last *lastAthlete) (internal.RawResult, bool) {
	if len(cells) == 0 {
		return internal.RawResult{}, false
	}
	cleaned, ok := perf.Clean(cells[0])
	if !ok || !hasDigitStr(cleaned.Clean) {
		return internal.RawResult{}, false
	}

	hasWind := len(cells) >= 2 && looksLikeWind(cells[1])
	wind := cleaned.Wind
	if hasWind {
		if w := parseWindCell(cells[1]); w != nil {
			wind = w
		}
	}

	idxAth := guessAthleteIndex(cells, hasWind, last)
	if idxAth < 0 || idxAth >= len(cells) {
		return internal.RawResult{}, false
	}

	athleteCell := strings.TrimSpace(cells[idxAth])
	birthRaw := ""
	if len(cells) > idxAth+1 {
		birthRaw = strings.TrimSpace(cells[idxAth+1])
	}

	var name string
	var club, birth *string
	if last != nil && isAbbreviatedRepeat(athleteCell, birthRaw, last) {
		name, club = last.name, last.club
		birth = last.birth
		if b := parseBirthCell(birthRaw); b != nil {
			birth = b
		}
	} else {
		name, club = splitNameAndClub(athleteCell)
		if name == "" {
			return internal.RawResult{}, false
		}
		birth = parseBirthCell(birthRaw)
	}

	placement := extractPlacement(cells, idxAth)
	resultDate, dateIdx := extractResultDate(cells, idxAth, page.Season)
	competition, venue := extractCompAndVenue(cells, idxAth, dateIdx)

	return internal.RawResult{
		Source:          internal.SourceFriidrett,
		SourceURL:       page.URL,
		Season:          page.Season,
		Gender:          page.Gender,
		EventLabel:      label,
		PerformanceRaw:  cleaned.Raw,
		AthleteName:     name,
		Club:            club,
		BirthDate:       birth,
		PlacementRaw:    placement,
		CompetitionName: competition,
		VenueCity:       venue,
		ResultDate:      resultDate,
		Wind:            wind,
	}, true
}

func athleteKey(row internal.RawResult) string {
	birth := ""
	if row.BirthDate != nil {
		birth = *row.BirthDate
	}
	return strings.ToLower(row.AthleteName) + "|" + birth
}

func guessAthleteIndex(cells []string, hasWind bool, last *lastAthlete) int {
	start := 1
	if hasWind {
		start = 2
	}
	for _, cand := range []int{start, start + 1} {
		if cand < len(cells) && isLikelyAthleteCell(cells[cand], last) {
			return cand
		}
	}
	// odd layouts: scan the early columns only, venue and date live at
	// the end
	limit := len(cells)
	if limit > 6 {
		limit = 6
	}
	for cand := 1; cand < limit; cand++ {
		if isLikelyAthleteCell(cells[cand], last) {
			return cand
		}
	}
	return -1
}

func isLikelyAthleteCell(text string, last *lastAthlete) bool {
	s := util.CollapseSpace(text)
	if s == "" || !hasLetter(s) {
		return false
	}
	if looksLikeWind(s) || looksLikePlacement(s) {
		return false
	}
	if strings.Contains(s, ",") {
		return true
	}
	if len(strings.Fields(s)) >= 2 {
		return true
	}
	return last != nil && looksLikeAbbrevName(s)
}

// looksLikeAbbrevName matches a single capitalised word, the form the
// legacy pages use when an athlete repeats on consecutive rows.
func looksLikeAbbrevName(text string) bool {
	s := util.CollapseSpace(text)
	if s == "" || hasDigitStr(s) {
		return false
	}
	fields := strings.Fields(s)
	if len(fields) != 1 {
		return false
	}
	runes := []rune(fields[0])
	for _, r := range runes[1:] {
		if unicode.IsLower(r) {
			return true
		}
	}
	return false
}

func isAbbreviatedRepeat(athleteCell, birthRaw string, last *lastAthlete) bool {
	if last == nil || birthRaw != "" {
		return false
	}
	s := util.CollapseSpace(athleteCell)
	if strings.Contains(s, ",") {
		return false
	}
	return looksLikeAbbrevName(s)
}

func extractPlacement(cells []string, idxAth int) *string {
	if idxAth > 1 && looksLikePlacement(cells[idxAth-1]) {
		return noneIfEmpty(cells[idxAth-1])
	}
	if len(cells) > idxAth+2 && looksLikePlacement(cells[idxAth+2]) {
		return noneIfEmpty(cells[idxAth+2])
	}
	return nil
}

func extractResultDate(cells []string, idxAth, season int) (*string, int) {
	for i := idxAth + 2; i < len(cells); i++ {
		if parsed, ok := parseResultDate(cells[i], season); ok {
			return &parsed, i
		}
	}
	return nil, -1
}

// extractCompAndVenue reads the columns between the birth date and the
// result date: the last non-placement one is the venue, the one before
// it the competition code.
func extractCompAndVenue(cells []string, idxAth, dateIdx int) (*string, *string) {
	if dateIdx < 0 {
		return nil, nil
	}
	var nonPlace []int
	for i := idxAth + 2; i < dateIdx; i++ {
		if noneIfEmpty(cells[i]) == nil || looksLikePlacement(cells[i]) {
			continue
		}
		nonPlace = append(nonPlace, i)
	}
	if len(nonPlace) == 0 {
		return nil, nil
	}
	venueIdx := nonPlace[len(nonPlace)-1]
	venue := cleanVenue(cells[venueIdx])

	var competition *string
	if len(nonPlace) > 1 {
		competition = noneIfEmpty(cells[nonPlace[len(nonPlace)-2]])
	}
	return competition, venue
}

func looksLikeWind(text string) bool {
	s := dashNormalizer.Replace(util.CollapseSpace(text))
	if s == "" || s == "-" {
		return false
	}
	return windCellRe.MatchString(s)
}

func parseWindCell(text string) *float64 {
	s := dashNormalizer.Replace(util.CollapseSpace(text))
	if s == "" || s == "-" {
		return nil
	}
	w, err := strconv.ParseFloat(strings.ReplaceAll(strings.ReplaceAll(s, ",", "."), " ", ""), 64)
	if err != nil {
		return nil
	}
	return &w
}

func looksLikePlacement(text string) bool {
	s := util.CollapseSpace(text)
	if s == "" || looksLikeWind(s) {
		return false
	}
	return placementCellRe.MatchString(s)
}

func splitNameAndClub(text string) (string, *string) {
	s := util.CollapseSpace(text)
	if s == "" || !hasLetter(s) {
		return "", nil
	}
	idx := strings.Index(s, ",")
	if idx < 0 {
		return s, nil
	}
	name := strings.TrimSpace(s[:idx])
	rest := strings.TrimSpace(s[idx+1:])
	if rest == "" {
		return name, nil
	}
	return name, &rest
}

func parseBirthCell(text string) *string {
	s := util.CollapseSpace(text)
	if s == "" {
		return nil
	}
	// some pages write births as "dd.mm yy"
	s = birthSpaceRe.ReplaceAllString(s, "$1.$2")
	if iso, ok := util.ParseDDMMYY(s, 0); ok {
		return &iso
	}
	return nil
}

func parseResultDate(text string, season int) (string, bool) {
	s := strings.TrimSuffix(util.CollapseSpace(text), ".")
	if s == "" {
		return "", false
	}
	if fullDateRe.MatchString(s) {
		return util.ParseDDMMYY(s, 0)
	}
	// competition over two days: "28/29.07" keeps the first day
	if m := rangeDateRe.FindStringSubmatch(s); m != nil {
		return isoDate(season, m[2], m[1])
	}
	if m := shortDateRe.FindStringSubmatch(s); m != nil {
		return isoDate(season, m[2], m[1])
	}
	return "", false
}

func isoDate(year int, monthStr, dayStr string) (string, bool) {
	month, err1 := strconv.Atoi(monthStr)
	day, err2 := strconv.Atoi(dayStr)
	if err1 != nil || err2 != nil || month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

func cleanVenue(text string) *string {
	s := strings.TrimSpace(strings.TrimSuffix(util.CollapseSpace(text), ","))
	if s == "" {
		return nil
	}
	return &s
}

// sectionHeading reports an event heading row: a single populated cell
// with letters in it.
func sectionHeading(cells []string) (string, bool) {
	var nonEmpty []string
	for _, c := range cells {
		if strings.TrimSpace(c) != "" {
			nonEmpty = append(nonEmpty, c)
		}
	}
	if len(nonEmpty) == 1 && hasLetter(nonEmpty[0]) {
		return nonEmpty[0], true
	}
	return "", false
}

func looksLikeNotFoundPage(doc *goquery.Document) bool {
	title := strings.ToLower(util.CollapseSpace(doc.Find("title").Text()))
	if strings.Contains(title, "vi fant ikke siden") {
		return true
	}
	body := strings.ToLower(util.CollapseSpace(doc.Find("body").Text()))
	return strings.Contains(body, "microsoftonline.com") && strings.Contains(body, "oauth2/authorize")
}

// parseFriidrettPDF extracts the race-walk PDF line by line. Event
// headings read "Kappgang 10 000 meter"; result lines carry the mark
// first, then "Name, Club", birth date and tail columns.
func parseFriidrettPDF(body []byte, page FriidrettPage) ([]internal.RawResult, error) {
	r, err := pdf.NewReader(bytes.NewReader(body), int64(len(body)))
	if err != nil {
		return nil, err
	}

	label := ""
	rank := 0
	seen := map[string]bool{}
	var out []internal.RawResult

	for i := 1; i <= r.NumPage(); i++ {
		p := r.Page(i)
		if p.V.IsNull() {
			continue
		}
		text, err := p.GetPlainText(nil)
		if err != nil {
			continue
		}
		for _, line := range strings.Split(text, "\n") {
			line = util.CollapseSpace(line)
			if line == "" {
				continue
			}
			if l, ok := walkHeadingLabel(line); ok {
				label = l
				rank = 0
				seen = map[string]bool{}
				continue
			}
			if label == "" {
				continue
			}
			row, ok := parseWalkLine(line, page, label)
			if !ok {
				continue
			}
			key := athleteKey(row)
			if seen[key] {
				continue
			}
			seen[key] = true
			rank++
			row.RankInList = rank
			out = append(out, row)
		}
	}
	return out, nil
}

func walkHeadingLabel(line string) (string, bool) {
	m := walkHeadingRe.FindStringSubmatch(line)
	if m == nil {
		return "", false
	}
	numStr := strings.ReplaceAll(strings.ReplaceAll(m[1], " ", ""), ".", "")
	num, err := strconv.Atoi(numStr)
	if err != nil {
		return "", false
	}
	if strings.EqualFold(m[2], "km") {
		return fmt.Sprintf("Kappgang %d km", num), true
	}
	return fmt.Sprintf("Kappgang %d meter", num), true
}

// parseWalkLine splits "21.35,00 Erik Tysse, Søfteland TIL 04.12.80 1 Bergen 24.05".
func parseWalkLine(line string, page FriidrettPage, label string) (internal.RawResult, bool) {
	fields := strings.Fields(line)
	if len(fields) < 3 {
		return internal.RawResult{}, false
	}
	if !looksLikeTime(fields[0]) {
		return internal.RawResult{}, false
	}
	cleaned, ok := perf.Clean(fields[0])
	if !ok {
		return internal.RawResult{}, false
	}

	birthIdx := -1
	for i := 2; i < len(fields); i++ {
		if fullDateRe.MatchString(fields[i]) {
			birthIdx = i
			break
		}
	}
	if birthIdx < 0 {
		return internal.RawResult{}, false
	}

	name, club := splitNameAndClub(strings.Join(fields[1:birthIdx], " "))
	if name == "" {
		return internal.RawResult{}, false
	}
	birth := parseBirthCell(fields[birthIdx])

	row := internal.RawResult{
		Source:         internal.SourceFriidrett,
		SourceURL:      page.URL,
		Season:         page.Season,
		Gender:         page.Gender,
		EventLabel:     label,
		PerformanceRaw: cleaned.Raw,
		AthleteName:    name,
		Club:           club,
		BirthDate:      birth,
		Wind:           cleaned.Wind,
	}

	tail := fields[birthIdx+1:]
	if len(tail) > 0 && looksLikePlacement(tail[0]) && !strings.Contains(tail[0], ".") {
		row.PlacementRaw = noneIfEmpty(tail[0])
		tail = tail[1:]
	}
	if len(tail) > 0 {
		if d, ok := parseResultDate(tail[len(tail)-1], page.Season); ok {
			row.ResultDate = &d
			tail = tail[:len(tail)-1]
		}
	}
	if len(tail) > 0 {
		venue := strings.Join(tail, " ")
		row.VenueCity = cleanVenue(venue)
	}
	return row, true
}

func hasLetter(s string) bool {
	for _, r := range s {
		if unicode.IsLetter(r) {
			return true
		}
	}
	return false
}

func hasDigitStr(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= '0' && s[i] <= '9' {
			return true
		}
	}
	return false
}
