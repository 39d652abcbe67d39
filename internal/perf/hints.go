package perf

import (
	"regexp"
	"strconv"
	"strings"
)

var (
	kmPrefixRe  = regexp.MustCompile(`^(\d+)\s*km\b`)
	kmWalkRe    = regexp.MustCompile(`^(\d+)km\s+W$`)
	meterWalkRe = regexp.MustCompile(`^(\d{1,3}(?:,\d{3})*|\d+)mW$`)
	trackRe     = regexp.MustCompile(`^(\d[\d,]*)m(?:\s+SC)?$`)
)

// hoursLikely reports whether marks for the event commonly exceed an
// hour, so a three-segment mark reads h:mm:ss rather than m:ss.cc.
func hoursLikely(waEvent string) bool {
	switch waEvent {
	case "Marathon", "MarW", "HM", "HMW", "100 km", "100 Miles":
		return true
	}
	if m := kmPrefixRe.FindStringSubmatch(waEvent); m != nil {
		km, _ := strconv.Atoi(m[1])
		return km >= 10
	}
	if m := kmWalkRe.FindStringSubmatch(waEvent); m != nil {
		km, _ := strconv.Atoi(m[1])
		return km >= 10
	}
	if m := meterWalkRe.FindStringSubmatch(waEvent); m != nil {
		meters, _ := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		return meters >= 10000
	}
	return false
}

// minSecLikely reports whether a single-separator mark for the event
// reads minutes:seconds rather than a decimal.
func minSecLikely(waEvent string) bool {
	switch waEvent {
	case "Marathon", "HM", "HMW", "MarW", "Mile", "2 Miles":
		return true
	}
	if kmPrefixRe.MatchString(waEvent) || kmWalkRe.MatchString(waEvent) {
		return true
	}
	if meterWalkRe.MatchString(waEvent) {
		return true
	}
	if m := trackRe.FindStringSubmatch(waEvent); m != nil {
		meters, err := strconv.Atoi(strings.ReplaceAll(m[1], ",", ""))
		if err != nil {
			return false
		}
		return meters >= 600
	}
	return false
}
