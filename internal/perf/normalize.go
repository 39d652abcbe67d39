package perf

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nfwa/internal"
)

// Result is the outcome of normalizing one raw performance cell.
// Value is in canonical units: seconds for lower orientation,
// metres or points for higher.
type Result struct {
	Performance string
	Value       *float64
	Wind        *float64
	State       internal.PerfState
}

var numberRe = regexp.MustCompile(`^[0-9]+(?:[.,][0-9]+)?$`)

// Normalize parses a raw performance cell into a canonical string and a
// sortable value. waEvent is an optional hint used to disambiguate time
// formats; it never changes a mark that is already unambiguous.
func Normalize(raw string, orientation internal.Orientation, waEvent *string) Result {
	if IsVoid(raw) {
		return Result{State: internal.PerfVoid}
	}
	c, ok := Clean(raw)
	if !ok {
		return Result{State: internal.PerfUnparseable}
	}

	text := c.Clean
	if orientation == internal.OrientLower {
		text = normalizeTimeLike(text, waEvent)
	} else if numberRe.MatchString(text) {
		text = strings.ReplaceAll(text, ",", ".")
	}

	value, state := toValue(text, orientation)
	if state != internal.PerfOK {
		return Result{Performance: text, Wind: c.Wind, State: state}
	}

	if orientation == internal.OrientHigher && waEvent != nil {
		value = rebaseCentimetres(value, *waEvent, c.Clean)
	}
	return Result{Performance: canonical(value, orientation), Value: &value, Wind: c.Wind, State: internal.PerfOK}
}

// normalizeTimeLike rewrites the mixed separator styles of the sources
// into h:mm:ss / m:ss.cc form. Mirrors the observed source variants:
// 1,05,71 and 29.11.45 as minute marks, 2.22,28 as minutes with a
// decimal comma, 15.45 as mm.ss for long events.
func normalizeTimeLike(text string, waEvent *string) string {
	text = strings.TrimSpace(text)
	if text == "" || strings.Contains(text, ":") {
		return strings.ReplaceAll(text, ",", ".")
	}

	dots := strings.Count(text, ".")
	commas := strings.Count(text, ",")

	if dots >= 2 && commas == 0 {
		if out, ok := joinSegments(strings.Split(text, "."), waEvent); ok {
			return out
		}
	}
	if dots == 1 && commas == 0 && waEvent != nil {
		parts := strings.Split(text, ".")
		if allDigits(parts) && len(parts[1]) == 2 && minSecLikely(*waEvent) {
			if b, _ := strconv.Atoi(parts[1]); b <= 59 {
				a, _ := strconv.Atoi(parts[0])
				return fmt.Sprintf("%d:%02d", a, b)
			}
		}
	}
	if dots >= 1 && commas == 1 {
		text = strings.ReplaceAll(text, ".", ":")
		return strings.ReplaceAll(text, ",", ".")
	}
	if commas >= 2 && dots == 0 {
		if out, ok := joinSegments(strings.Split(text, ","), waEvent); ok {
			return out
		}
	}
	if commas == 1 && dots == 0 && waEvent != nil {
		parts := strings.Split(text, ",")
		if allDigits(parts) && len(parts[1]) == 2 && minSecLikely(*waEvent) {
			if b, _ := strconv.Atoi(parts[1]); b <= 59 {
				a, _ := strconv.Atoi(parts[0])
				return fmt.Sprintf("%d:%02d", a, b)
			}
		}
	}
	return strings.ReplaceAll(text, ",", ".")
}

// joinSegments assembles three or four numeric segments into a time
// string, deciding between h:mm:ss and m:ss.cc by the event hint.
func joinSegments(raw []string, waEvent *string) (string, bool) {
	parts := make([]string, 0, len(raw))
	for _, p := range raw {
		p = strings.TrimSpace(p)
		if p != "" {
			parts = append(parts, p)
		}
	}
	if !allDigits(parts) {
		return "", false
	}
	nums := make([]int, len(parts))
	for i, p := range parts {
		nums[i], _ = strconv.Atoi(p)
	}
	hours := waEvent != nil && hoursLikely(*waEvent)

	switch len(nums) {
	case 3:
		a, b, c := nums[0], nums[1], nums[2]
		if hours && a <= 9 && b <= 59 && c <= 59 {
			return fmt.Sprintf("%d:%02d:%02d", a, b, c), true
		}
		return fmt.Sprintf("%d:%02d.%02d", a, b, c), true
	case 4:
		a, b, c, d := nums[0], nums[1], nums[2], nums[3]
		return fmt.Sprintf("%d:%02d:%02d.%02d", a, b, c, d), true
	}
	return "", false
}

// toValue folds colon segments into seconds; plain numbers parse as-is.
func toValue(text string, orientation internal.Orientation) (float64, internal.PerfState) {
	text = strings.TrimSpace(text)
	if text == "" {
		return 0, internal.PerfUnparseable
	}
	text = strings.ReplaceAll(text, ",", ".")
	parts := strings.Split(text, ":")
	seconds := 0.0
	for i, part := range parts {
		f, err := strconv.ParseFloat(part, 64)
		if err != nil {
			return 0, internal.PerfUnparseable
		}
		if i > 0 && f >= 60 {
			// a "second" or "minute" segment out of range: the mark
			// admits more than one reading and none is valid
			return 0, internal.PerfAmbiguous
		}
		seconds = seconds*60 + f
	}
	if orientation == internal.OrientLower && seconds <= 0 {
		return 0, internal.PerfUnparseable
	}
	return seconds, internal.PerfOK
}

// rebaseCentimetres converts bare centimetre readings for vertical
// jumps (235 for 2.35) into metres.
func rebaseCentimetres(value float64, waEvent, clean string) float64 {
	if strings.ContainsAny(clean, ".,:") {
		return value
	}
	switch waEvent {
	case "HJ":
		if value >= 100 && value <= 280 {
			return value / 100
		}
	case "PV":
		if value >= 100 && value <= 700 {
			return value / 100
		}
	}
	return value
}

func canonical(value float64, orientation internal.Orientation) string {
	if orientation == internal.OrientLower {
		return formatClock(value, 2)
	}
	return strconv.FormatFloat(value, 'f', 2, 64)
}

func allDigits(parts []string) bool {
	if len(parts) == 0 {
		return false
	}
	for _, p := range parts {
		if p == "" {
			return false
		}
		for i := 0; i < len(p); i++ {
			if !isDigit(p[i]) {
				return false
			}
		}
	}
	return true
}
