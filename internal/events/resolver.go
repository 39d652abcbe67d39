// Package events resolves the free-text Norwegian event labels of the
// sources into canonical events with an optional World Athletics
// scoring code.
package events

import (
	"errors"
	"fmt"
	"strings"

	"nfwa/internal"
	"nfwa/internal/util"
)

var ErrUnknownEvent = errors.New("unknown event label")

// Resolver maps labels against the set of WA scoring codes available
// per gender. Resolution is deterministic: the same label always
// yields the same event, and unrecognized labels fail instead of
// guessing.
type Resolver struct {
	waEvents map[internal.Gender]map[string]bool
}

func NewResolver(waEvents map[internal.Gender]map[string]bool) *Resolver {
	if waEvents == nil {
		waEvents = map[internal.Gender]map[string]bool{}
	}
	return &Resolver{waEvents: waEvents}
}

// Resolve turns a source label into a canonical event. Labels from the
// legacy sources should pass through CanonicalLegacyLabel first.
func (r *Resolver) Resolve(gender internal.Gender, label string) (internal.CanonicalEvent, error) {
	name := util.CollapseSpace(label)
	if name == "" {
		return internal.CanonicalEvent{}, fmt.Errorf("%w: empty label", ErrUnknownEvent)
	}
	if !recognized(name) {
		return internal.CanonicalEvent{}, fmt.Errorf("%w: %q", ErrUnknownEvent, label)
	}

	ev := internal.CanonicalEvent{
		NameNo:      name,
		Orientation: InferOrientation(name),
		SortKey:     SortIndex(name),
	}
	if wa := mapToWA(name, gender, r.waEvents[gender]); wa != "" {
		ev.WAEvent = &wa
	}
	return ev, nil
}

// recognized reports whether a label belongs to one of the event
// families the sources publish. Anything else is a parse artifact and
// must surface as an error rather than become a phantom event.
func recognized(name string) bool {
	low := strings.ToLower(name)
	if distMeterRe.MatchString(name) || hurdlesRe.MatchString(name) || steepleRe.MatchString(name) {
		return true
	}
	if distMileRe.MatchString(name) || distMilesRe.MatchString(name) {
		return true
	}
	if kmRoadRe.MatchString(name) || strings.Contains(low, "maraton") || strings.Contains(low, "marathon") {
		return true
	}
	if strings.HasPrefix(low, "kappgang") {
		return true
	}
	for _, prefix := range fieldPrefixes {
		if strings.HasPrefix(low, prefix) {
			return true
		}
	}
	if strings.Contains(low, "kamp") {
		return true
	}
	if strings.Contains(low, "håndtid") {
		return true
	}
	return false
}

var fieldPrefixes = []string{
	"kule", "diskos", "slegge", "spyd", "vektkast", "supervektkast",
	"lengde", "tresteg", "høyde", "stav",
}

// InferOrientation decides whether lower or higher marks are better,
// from the label alone.
func InferOrientation(name string) internal.Orientation {
	name = strings.TrimSpace(name)
	if name == "" {
		return internal.OrientHigher
	}
	low := strings.ToLower(name)

	if strings.Contains(low, "gateløp") || strings.Contains(low, "landevei") {
		return internal.OrientLower
	}
	if kmRoadRe.MatchString(name) {
		return internal.OrientLower
	}
	if strings.Contains(low, "halvmaraton") || strings.Contains(low, "half marathon") {
		return internal.OrientLower
	}
	if strings.HasPrefix(low, "maraton") || strings.HasPrefix(low, "marathon") {
		return internal.OrientLower
	}
	if strings.HasPrefix(low, "kappgang") {
		return internal.OrientLower
	}
	if strings.Contains(low, " meter") || strings.Contains(low, "mile") {
		return internal.OrientLower
	}
	return internal.OrientHigher
}
