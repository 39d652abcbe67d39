package events

import (
	"fmt"
	"math"
	"regexp"
	"strconv"
	"strings"

	"nfwa/internal"
	"nfwa/internal/util"
)

var (
	distMeterRe = regexp.MustCompile(`^(\d+) meter$`)
	distMileRe  = regexp.MustCompile(`(?i)^1 mile$`)
	distMilesRe = regexp.MustCompile(`(?i)^(\d+) miles?$`)
	hurdlesRe   = regexp.MustCompile(`(?i)^(\d+) meter hekk\b`)
	steepleRe   = regexp.MustCompile(`(?i)^(\d+) meter hinder\b`)
	kmRoadRe    = regexp.MustCompile(`(?i)^(\d+)\s*km\b`)
	walkKmRe    = regexp.MustCompile(`(?i)^Kappgang (\d+)\s*km\b`)
	walkMRe     = regexp.MustCompile(`(?i)^Kappgang (\d+) meter$`)
	shotRe      = regexp.MustCompile(`(?i)^Kule \d`)
	discusRe    = regexp.MustCompile(`(?i)^Diskos \d`)
	hammerRe    = regexp.MustCompile(`(?i)^Slegge \d`)
	javelinRe   = regexp.MustCompile(`(?i)^Spyd \d`)
)

// mapToWA maps a canonical label onto a WA scoring code, but only when
// that code exists in the scoring table for the gender. Senior
// implement weights only; hand-timed lists never score.
func mapToWA(name string, gender internal.Gender, waEvents map[string]bool) string {
	name = strings.TrimSpace(name)
	if name == "" || len(waEvents) == 0 {
		return ""
	}
	if strings.Contains(strings.ToLower(name), "håndtid") {
		return ""
	}
	low := strings.ToLower(name)

	if strings.HasPrefix(low, "maraton") || strings.HasPrefix(low, "marathon") {
		return pick(waEvents, "Marathon")
	}
	if strings.Contains(low, "halvmaraton") || strings.Contains(low, "half marathon") {
		return pick(waEvents, "HM")
	}

	// Race walks before the generic km rule; "Kappgang 20 km" is not a
	// road run.
	if m := walkKmRe.FindStringSubmatch(name); m != nil {
		km, _ := strconv.Atoi(m[1])
		if cand := pick(waEvents, fmt.Sprintf("%dkm W", km)); cand != "" {
			return cand
		}
		return pick(waEvents, walkMetersCode(km*1000))
	}
	if m := walkMRe.FindStringSubmatch(name); m != nil {
		meters, _ := strconv.Atoi(m[1])
		return pick(waEvents, walkMetersCode(meters))
	}

	if m := kmRoadRe.FindStringSubmatch(name); m != nil {
		km, _ := strconv.Atoi(m[1])
		return pick(waEvents, fmt.Sprintf("%d km", km))
	}

	if distMileRe.MatchString(name) {
		return pick(waEvents, "Mile")
	}
	if m := distMilesRe.FindStringSubmatch(name); m != nil {
		miles, _ := strconv.Atoi(m[1])
		if miles == 1 {
			return pick(waEvents, "Mile")
		}
		return pick(waEvents, fmt.Sprintf("%d Miles", miles))
	}

	if m := hurdlesRe.FindStringSubmatch(name); m != nil {
		meters, _ := strconv.Atoi(m[1])
		return pick(waEvents, fmt.Sprintf("%dmH", meters))
	}
	if m := steepleRe.FindStringSubmatch(name); m != nil {
		meters, _ := strconv.Atoi(m[1])
		return pick(waEvents, fmt.Sprintf("%dm SC", meters))
	}
	if m := distMeterRe.FindStringSubmatch(name); m != nil {
		meters, _ := strconv.Atoi(m[1])
		return pick(waEvents, fmt.Sprintf("%dm", meters))
	}

	switch low {
	case "lengde":
		return pick(waEvents, "LJ")
	case "tresteg":
		return pick(waEvents, "TJ")
	case "høyde":
		return pick(waEvents, "HJ")
	case "stav":
		return pick(waEvents, "PV")
	}

	if shotRe.MatchString(name) && standardWeight(name, gender, 4.0, 7.26) {
		return pick(waEvents, "SP")
	}
	if discusRe.MatchString(name) && standardWeight(name, gender, 1.0, 2.0) {
		return pick(waEvents, "DT")
	}
	if hammerRe.MatchString(name) && standardWeight(name, gender, 4.0, 7.26) {
		return pick(waEvents, "HT")
	}
	if javelinRe.MatchString(name) && standardWeight(name, gender, 0.6, 0.8) {
		return pick(waEvents, "JT")
	}

	if strings.HasPrefix(low, "7 kamp") && gender == internal.GenderWomen {
		return pick(waEvents, "Hept.")
	}
	if strings.HasPrefix(low, "10 kamp") && gender == internal.GenderMen {
		return pick(waEvents, "Dec.")
	}
	return ""
}

func pick(waEvents map[string]bool, code string) string {
	if waEvents[code] {
		return code
	}
	return ""
}

// walkMetersCode renders a walk distance the way the scoring table
// spells it: thousand separators from 10000m up.
func walkMetersCode(meters int) string {
	if meters >= 10000 {
		return fmt.Sprintf("%d,%03dmW", meters/1000, meters%1000)
	}
	return fmt.Sprintf("%dmW", meters)
}

const weightTolerance = 0.03

func standardWeight(name string, gender internal.Gender, women, men float64) bool {
	parsed := util.ParseWeight(name)
	if parsed.Kg == nil {
		return false
	}
	want := men
	if gender == internal.GenderWomen {
		want = women
	}
	return math.Abs(*parsed.Kg-want) <= weightTolerance
}
