package perf

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	windRe            = regexp.MustCompile(`\(([+-]\d+(?:,\d+)?)\)`)
	parensRe          = regexp.MustCompile(`\([^)]*\)`)
	handTimedRe       = regexp.MustCompile(`^(.+?)\s*[hH]$`)
	trailingLettersRe = regexp.MustCompile(`^(.+?)\s*[A-Za-z]{1,3}$`)
	digitDashRe       = regexp.MustCompile(`(\d)[-–](\d)`)
	multiCommaRe      = regexp.MustCompile(`,{2,}`)
	multiDotRe        = regexp.MustCompile(`\.{2,}`)
	spaceRe           = regexp.MustCompile(`\s+`)
)

// odd minute markers seen in source HTML: 1´11,50 / 1'11,50 / 1′11,50
var minuteMarks = strings.NewReplacer(
	"´", ":",
	"′", ":",
	"’", ":",
	"‘", ":",
	"ʼ", ":",
	"'", ":",
)

// voidTokens are marks that carry no performance: the athlete started
// and failed, did not start, or was disqualified.
var voidTokens = map[string]bool{
	"dns":    true,
	"dnf":    true,
	"dq":     true,
	"dsq":    true,
	"nm":     true,
	"nh":     true,
	"np":     true,
	"brutt":  true,
	"strøket": true,
	"stryk":  true,
	"disk":   true,
}

// IsVoid reports whether a raw mark is a void token rather than a performance.
func IsVoid(raw string) bool {
	t := strings.ToLower(strings.TrimSpace(raw))
	if t == "" {
		return true
	}
	if strings.Trim(t, "-– .") == "" {
		return true
	}
	return voidTokens[t]
}

// Cleaned is a raw mark with annotations stripped off.
type Cleaned struct {
	Raw   string
	Clean string
	Wind  *float64
}

// Clean strips wind annotations, parenthesised notes, hand-time suffixes
// and leading/trailing junk from a raw performance cell. Returns false
// for void or empty marks.
func Clean(rawValue string) (Cleaned, bool) {
	raw := strings.TrimSpace(rawValue)
	if raw == "" || IsVoid(raw) {
		return Cleaned{}, false
	}

	var wind *float64
	if m := windRe.FindStringSubmatch(raw); m != nil {
		if w, err := strconv.ParseFloat(strings.ReplaceAll(m[1], ",", "."), 64); err == nil {
			wind = &w
		}
	}

	clean := strings.TrimSpace(windRe.ReplaceAllString(raw, ""))
	clean = strings.TrimSpace(parensRe.ReplaceAllString(clean, ""))
	clean = minuteMarks.Replace(clean)
	clean = digitDashRe.ReplaceAllString(clean, "$1.$2")

	if m := handTimedRe.FindStringSubmatch(clean); m != nil {
		clean = strings.TrimSpace(m[1])
	}
	if m := trailingLettersRe.FindStringSubmatch(clean); m != nil && hasDigit(m[1]) {
		clean = strings.TrimSpace(m[1])
	}

	for clean != "" && !isDigit(clean[len(clean)-1]) {
		clean = strings.TrimSpace(clean[:len(clean)-1])
	}
	if clean != "" && !isDigit(clean[0]) && hasDigit(clean) {
		for clean != "" && !isDigit(clean[0]) {
			clean = strings.TrimSpace(clean[1:])
		}
	}

	clean = multiCommaRe.ReplaceAllString(clean, ",")
	clean = multiDotRe.ReplaceAllString(clean, ".")
	clean = spaceRe.ReplaceAllString(clean, " ")
	if clean == "" {
		return Cleaned{}, false
	}
	return Cleaned{Raw: raw, Clean: clean, Wind: wind}, true
}

func isDigit(b byte) bool { return b >= '0' && b <= '9' }

func hasDigit(s string) bool {
	for i := 0; i < len(s); i++ {
		if isDigit(s[i]) {
			return true
		}
	}
	return false
}
