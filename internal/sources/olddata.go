package sources

import (
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"regexp"
	"sort"
	"strconv"
	"strings"

	"nfwa/internal"
	"nfwa/internal/perf"
	"nfwa/internal/util"
)

// The pre-2000 seasons exist only as hand-transcribed CSV-style text
// files, one directory per season with menn/ and kvinner/ underneath.
// Each file holds several event sections: an event header, a column
// header and the data rows, separated by blank lines.

var (
	handtidRe     = regexp.MustCompile(`(?i)Manuell\s+tid|Håndtid`)
	timingSplitRe = regexp.MustCompile(`\s*[–—-]\s*(?:Elektronisk|Manuell)`)
	englishNoteRe = regexp.MustCompile(`\s*\((?:High|Pole|Long|Triple|Shot|Discus|Hammer|Javelin|Decathlon|Heptathlon)`)
	oldMeterRe    = regexp.MustCompile(`^(\d+)\s*METER\b`)
	oldHurdleRe   = regexp.MustCompile(`^(\d+)\s*METER\s+HEKK`)
	oldSteepleRe  = regexp.MustCompile(`^(\d+)\s*METER\s+HINDER`)
	combined10Re  = regexp.MustCompile(`^10[\s-]*KAMP`)
	combined7Re   = regexp.MustCompile(`^7[\s-]*KAMP`)
	nationalityRe = regexp.MustCompile(`\s*\(([A-Z]{2,3})\)\s*$`)
	yearOnlyRe    = regexp.MustCompile(`^\d{4}$`)
	kildeURLRe    = regexp.MustCompile(`https?://\S+`)
	rowStartRe    = regexp.MustCompile(`^[\d-]`)
)

var oldHurdleHeights = map[internal.Gender]map[int]string{
	internal.GenderMen:   {110: "106,7cm", 200: "76,2cm", 300: "91,4cm", 400: "91,4cm"},
	internal.GenderWomen: {100: "84,0cm", 200: "76,2cm", 300: "76,2cm", 400: "76,2cm"},
}

var oldSteepleHeights = map[internal.Gender]map[int]string{
	internal.GenderMen:   {2000: "91,4cm", 3000: "91,4cm"},
	internal.GenderWomen: {2000: "76,2cm", 3000: "76,2cm"},
}

var colHeaderWords = map[string]bool{
	"rank_in_list": true, "athlete_name": true, "club_name": true,
	"performance_raw": true, "plassering": true, "utøver": true,
	"klubb": true, "resultat": true, "sted": true, "dato": true,
	"birth_date": true, "birth_year": true, "fødselsår": true,
	"fødselsdato": true, "venue_city": true,
}

// ParseOldDataDir parses every text file for one season. The directory
// layout is <dir>/<season>/{menn,kvinner}/*.txt with an optional
// kilder/ subdirectory naming the transcription source.
func ParseOldDataDir(dir string, season int) ([]internal.RawResult, error) {
	seasonDir := filepath.Join(dir, strconv.Itoa(season))
	if _, err := os.Stat(seasonDir); err != nil {
		if os.IsNotExist(err) {
			return nil, nil
		}
		return nil, err
	}

	var out []internal.RawResult
	for _, sub := range []struct {
		name   string
		gender internal.Gender
	}{{"menn", internal.GenderMen}, {"kvinner", internal.GenderWomen}} {
		genderDir := filepath.Join(seasonDir, sub.name)
		paths, err := filepath.Glob(filepath.Join(genderDir, "*.txt"))
		if err != nil {
			return nil, err
		}
		sort.Strings(paths)
		kildeURL := readKildeURL(genderDir)

		for _, path := range paths {
			data, err := os.ReadFile(path)
			if err != nil {
				return nil, err
			}
			sourceURL := kildeURL
			if sourceURL == "" {
				sourceURL = fmt.Sprintf("old_data:%d/%s/%s", season, sub.name, filepath.Base(path))
			}
			out = append(out, ParseOldDataText(string(data), season, sub.gender, sourceURL)...)
		}
	}
	return out, nil
}

// ParseOldDataText parses one transcription file.
func ParseOldDataText(text string, season int, gender internal.Gender, sourceURL string) []internal.RawResult {
	text = strings.TrimPrefix(text, "\uFEFF")

	var out []internal.RawResult
	prevEvent := ""
	for _, sec := range splitSections(text) {
		eventName, handtid := resolveOldEvent(sec.header, gender, prevEvent)
		if eventName == "" {
			continue
		}
		hasDate := colHeaderHasDate(sec.colHeader)
		out = append(out, parseOldSection(sec.lines, season, gender, eventName, hasDate, sourceURL)...)
		if !handtid {
			prevEvent = eventName
		}
	}
	return out
}

type oldSection struct {
	header    string // empty for a bare column-header section
	colHeader string
	lines     []string
}

func splitSections(text string) []oldSection {
	lines := strings.Split(text, "\n")
	var sections []oldSection

	i := 0
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			i++
			continue
		}
		if isColHeader(line) {
			colHeader := line
			i++
			data, n := collectDataLines(lines, i)
			i += n
			if len(data) > 0 {
				sections = append(sections, oldSection{colHeader: colHeader, lines: data})
			}
			continue
		}
		if isEventHeader(line) {
			header := line
			i++
			for i < len(lines) && strings.TrimSpace(lines[i]) == "" {
				i++
			}
			if i < len(lines) && isColHeader(strings.TrimSpace(lines[i])) {
				colHeader := strings.TrimSpace(lines[i])
				i++
				data, n := collectDataLines(lines, i)
				i += n
				if len(data) > 0 {
					sections = append(sections, oldSection{header: header, colHeader: colHeader, lines: data})
				}
			}
			continue
		}
		i++
	}
	return sections
}

func collectDataLines(lines []string, start int) ([]string, int) {
	var data []string
	i := start
	for i < len(lines) {
		line := strings.TrimSpace(lines[i])
		if line == "" {
			break
		}
		data = append(data, line)
		i++
	}
	return data, i - start
}

func isColHeader(line string) bool {
	low := strings.ToLower(line)
	if strings.Contains(low, "_in_list") {
		return true
	}
	hits := 0
	for _, p := range strings.Split(low, ",") {
		if colHeaderWords[strings.TrimSpace(p)] {
			hits++
		}
	}
	return hits >= 3
}

func isEventHeader(line string) bool {
	if line == "" || isColHeader(line) {
		return false
	}
	// data rows start with a rank and contain commas
	if rowStartRe.MatchString(line) && strings.Contains(line, ",") {
		return false
	}
	return hasLetter(line)
}

func colHeaderHasDate(colHeader string) bool {
	for _, p := range strings.Split(strings.ToLower(colHeader), ",") {
		if strings.TrimSpace(p) == "dato" {
			return true
		}
	}
	return false
}

// resolveOldEvent maps a section header onto the canonical event name.
// An unnamed section directly after 5000 meter is the 10000 meter
// continuation, a quirk of the transcription format.
func resolveOldEvent(header string, gender internal.Gender, prevEvent string) (string, bool) {
	if header == "" {
		if strings.Contains(prevEvent, "5000 meter") {
			return "10000 meter", false
		}
		return "", false
	}
	return parseOldEventHeader(header, gender)
}

func parseOldEventHeader(header string, gender internal.Gender) (string, bool) {
	text := strings.TrimSpace(header)
	handtid := handtidRe.MatchString(text)

	text = strings.TrimSpace(timingSplitRe.Split(text, 2)[0])
	text = strings.TrimSpace(englishNoteRe.Split(text, 2)[0])
	upper := strings.ToUpper(text)

	if m := oldHurdleRe.FindStringSubmatch(upper); m != nil {
		num, _ := strconv.Atoi(m[1])
		if handtid {
			return fmt.Sprintf("%d meter hekk (Håndtid)", num), true
		}
		if height := oldHurdleHeights[gender][num]; height != "" {
			return fmt.Sprintf("%d meter hekk (%s)", num, height), false
		}
		return fmt.Sprintf("%d meter hekk", num), false
	}
	if m := oldSteepleRe.FindStringSubmatch(upper); m != nil {
		num, _ := strconv.Atoi(m[1])
		if height := oldSteepleHeights[gender][num]; height != "" {
			return fmt.Sprintf("%d meter hinder (%s)", num, height), false
		}
		return fmt.Sprintf("%d meter hinder", num), false
	}
	if m := oldMeterRe.FindStringSubmatch(upper); m != nil {
		num, _ := strconv.Atoi(m[1])
		if handtid {
			return fmt.Sprintf("%d meter (Håndtid)", num), true
		}
		return fmt.Sprintf("%d meter", num), false
	}

	men := gender == internal.GenderMen
	switch {
	case strings.HasPrefix(upper, "HØYDE"), strings.HasPrefix(upper, "HOYDE"):
		return "Høyde", false
	case strings.HasPrefix(upper, "STAV"):
		return "Stav", false
	case strings.HasPrefix(upper, "LENGDE"):
		return "Lengde", false
	case strings.HasPrefix(upper, "TRESTEG"):
		return "Tresteg", false
	case strings.HasPrefix(upper, "KULE"):
		return pickByGenderLabel(men, "Kule 7,26kg", "Kule 4,0kg"), false
	case strings.HasPrefix(upper, "DISKOS"):
		return pickByGenderLabel(men, "Diskos 2,0kg", "Diskos 1,0kg"), false
	case strings.HasPrefix(upper, "SLEGGE"):
		return pickByGenderLabel(men, "Slegge 7,26kg/121,5cm", "Slegge 4,0kg/119,5cm"), false
	case strings.HasPrefix(upper, "SPYD"):
		return pickByGenderLabel(men, "Spyd 800gram", "Spyd 600gram"), false
	case combined10Re.MatchString(upper):
		return "10 kamp", false
	case combined7Re.MatchString(upper):
		return "7 kamp", false
	case strings.HasPrefix(upper, "HALVMARATON"):
		return "Halvmaraton", false
	case strings.HasPrefix(upper, "MARATON"):
		return "Maraton", false
	}
	return "", false
}

func pickByGenderLabel(men bool, menName, womenName string) string {
	if men {
		return menName
	}
	return womenName
}

func parseOldSection(dataLines []string, season int, gender internal.Gender, eventName string, hasDate bool, sourceURL string) []internal.RawResult {
	var out []internal.RawResult
	seen := map[string]bool{}
	rank := 0
	prevClean := ""

	for _, line := range dataLines {
		row, ok := parseOldRow(line, hasDate, season)
		if !ok {
			continue
		}
		// rank "-" marks foreign athletes outside the federation list
		if row.rank == "-" {
			continue
		}
		if row.name == "" || !hasLetter(row.name) {
			continue
		}
		cleaned, ok := perf.Clean(row.perf)
		if !ok || !hasDigitStr(cleaned.Clean) {
			continue
		}

		birth := parseOldBirth(row.birth)
		key := strings.ToLower(row.name) + "|" + deref(birth)
		if seen[key] {
			continue
		}
		seen[key] = true

		// competition-style ranking: ties share the rank
		if cleaned.Clean != prevClean {
			rank = len(out) + 1
			prevClean = cleaned.Clean
		}

		out = append(out, internal.RawResult{
			Source:         internal.SourceOldData,
			SourceURL:      sourceURL,
			Season:         season,
			Gender:         gender,
			EventLabel:     eventName,
			RankInList:     rank,
			PerformanceRaw: cleaned.Raw,
			AthleteName:    row.name,
			Club:           noneIfEmpty(row.club),
			BirthDate:      birth,
			Nationality:    row.nationality,
			VenueCity:      noneIfEmpty(row.venue),
			ResultDate:     row.resultDate,
			Wind:           cleaned.Wind,
		})
	}
	return out
}

type oldRow struct {
	rank        string
	name        string
	club        string
	birth       string
	venue       string
	resultDate  *string
	perf        string
	nationality *string
}

// parseOldRow splits one CSV row. Fixed columns from the left are
// rank, name, club and birth; the performance sits last, preceded by
// the date when the column header has one. Anything in between is the
// venue.
func parseOldRow(line string, hasDate bool, season int) (oldRow, bool) {
	shielded := shieldParenCommas(line)
	reader := csv.NewReader(strings.NewReader(shielded))
	reader.FieldsPerRecord = -1
	reader.LazyQuotes = true
	fields, err := reader.Read()
	if err != nil {
		return oldRow{}, false
	}
	for i := range fields {
		fields[i] = strings.TrimSpace(strings.ReplaceAll(fields[i], "\x00", ","))
	}
	if len(fields) < 5 {
		return oldRow{}, false
	}

	name, nationality := splitNationality(fields[1])
	row := oldRow{
		rank:        fields[0],
		name:        name,
		club:        fields[2],
		birth:       fields[3],
		nationality: nationality,
	}

	if hasDate {
		if len(fields) < 6 {
			return oldRow{}, false
		}
		row.perf = fields[len(fields)-1]
		if d, ok := parseOldResultDate(fields[len(fields)-2], season); ok {
			row.resultDate = &d
		}
		row.venue = joinNonEmpty(fields[4 : len(fields)-2])
	} else {
		row.perf = fields[len(fields)-1]
		row.venue = joinNonEmpty(fields[4 : len(fields)-1])
	}
	return row, true
}

// shieldParenCommas hides commas inside parentheses, so wind notes
// like (-0,6) survive the CSV split.
func shieldParenCommas(text string) string {
	var b strings.Builder
	depth := 0
	for _, r := range text {
		switch {
		case r == '(':
			depth++
			b.WriteRune(r)
		case r == ')':
			if depth > 0 {
				depth--
			}
			b.WriteRune(r)
		case r == ',' && depth > 0:
			b.WriteByte(0)
		default:
			b.WriteRune(r)
		}
	}
	return b.String()
}

func splitNationality(name string) (string, *string) {
	if m := nationalityRe.FindStringSubmatch(name); m != nil {
		clean := strings.TrimSpace(name[:len(name)-len(m[0])])
		return clean, &m[1]
	}
	return strings.TrimSpace(name), nil
}

func parseOldBirth(text string) *string {
	s := strings.TrimSpace(text)
	low := strings.ToLower(s)
	if s == "" || low == "ukjent dato" || low == "ukjent" {
		return nil
	}
	if iso, ok := util.ParseDDMMYY(s, 0); ok {
		return &iso
	}
	// a bare year is kept as-is
	if yearOnlyRe.MatchString(s) {
		return &s
	}
	return nil
}

func parseOldResultDate(text string, season int) (string, bool) {
	s := strings.TrimSuffix(strings.TrimSpace(text), ".")
	if s == "" {
		return "", false
	}
	if iso, ok := util.ParseDDMMYY(s, 0); ok {
		return iso, true
	}
	if m := shortDateRe.FindStringSubmatch(s); m != nil {
		return isoDate(season, m[2], m[1])
	}
	return "", false
}

func readKildeURL(genderDir string) string {
	paths, err := filepath.Glob(filepath.Join(genderDir, "kilder", "*_kilde.txt"))
	if err != nil {
		return ""
	}
	sort.Strings(paths)
	for _, path := range paths {
		data, err := os.ReadFile(path)
		if err != nil {
			continue
		}
		if m := kildeURLRe.FindString(strings.TrimPrefix(string(data), "\uFEFF")); m != "" {
			return m
		}
	}
	return ""
}

func joinNonEmpty(fields []string) string {
	var parts []string
	for _, f := range fields {
		if s := strings.TrimSpace(f); s != "" {
			parts = append(parts, s)
		}
	}
	return strings.Join(parts, ", ")
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
