package events

import "regexp"

// eventOrderPatterns fixes the traditional display order of the
// national lists: sprints, middle and long distance, road, hurdles,
// jumps, throws, combined, walks.
var eventOrderPatterns = []struct {
	idx int
	re  *regexp.Regexp
}{
	{0, regexp.MustCompile(`(?i)^100 meter$`)},
	{1, regexp.MustCompile(`(?i)^200 meter$`)},
	{2, regexp.MustCompile(`(?i)^400 meter$`)},
	{3, regexp.MustCompile(`(?i)^800 meter$`)},
	{4, regexp.MustCompile(`(?i)^1500 meter$`)},
	{5, regexp.MustCompile(`(?i)^3000 meter$`)},
	{6, regexp.MustCompile(`(?i)^5000 meter$`)},
	{7, regexp.MustCompile(`(?i)^10000 meter$`)},
	{8, regexp.MustCompile(`(?i)^(?:maraton|marathon)$`)},
	{9, regexp.MustCompile(`(?i)^(?:halvmaraton|halvmarton)$`)},
	{10, regexp.MustCompile(`(?i)^10\s*km gateløp$`)},
	{11, regexp.MustCompile(`(?i)^5\s*km gateløp$`)},
	{12, regexp.MustCompile(`(?i)^3000 meter hinder\b`)},
	{13, regexp.MustCompile(`(?i)^(?:110|100) meter hekk\b`)},
	{14, regexp.MustCompile(`(?i)^400 meter hekk\b`)},
	{15, regexp.MustCompile(`(?i)^høyde$`)},
	{16, regexp.MustCompile(`(?i)^stav$`)},
	{17, regexp.MustCompile(`(?i)^lengde$`)},
	{18, regexp.MustCompile(`(?i)^tresteg$`)},
	{19, regexp.MustCompile(`(?i)^kule\b`)},
	{20, regexp.MustCompile(`(?i)^diskos\b`)},
	{21, regexp.MustCompile(`(?i)^slegge\b`)},
	{22, regexp.MustCompile(`(?i)^spyd\b`)},
	{23, regexp.MustCompile(`(?i)^(?:10|7) kamp\b`)},
	{24, regexp.MustCompile(`(?i)^kappgang 20\s*km\b`)},
	{25, regexp.MustCompile(`(?i)^kappgang (?:35|42|50)\s*km\b`)},
}

const sortKeyUnknown = 10000

// SortIndex returns the display rank of an event label; unknown labels
// sort last, alphabetically.
func SortIndex(name string) int {
	for _, p := range eventOrderPatterns {
		if p.re.MatchString(name) {
			return p.idx
		}
	}
	return sortKeyUnknown
}
