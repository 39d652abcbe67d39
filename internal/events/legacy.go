package events

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"

	"nfwa/internal"
	"nfwa/internal/util"
)

var (
	legacySplitRe = regexp.MustCompile(`\s+[–—-]\s+`)
	legacyMeterRe = regexp.MustCompile(`^([\d ]+)\s*METER\b`)
)

// Hurdle and steeple barrier heights by gender and distance, used to
// reproduce the federation's full event names.
var hurdleHeightCm = map[internal.Gender]map[int]string{
	internal.GenderWomen: {60: "84,0", 100: "84,0", 200: "76,2", 300: "76,2", 400: "76,2"},
	internal.GenderMen:   {110: "106,7", 200: "76,2", 300: "91,4", 400: "91,4"},
}

var steepleHeightCm = map[internal.Gender]map[int]string{
	internal.GenderWomen: {2000: "76,2", 3000: "76,2"},
	internal.GenderMen:   {2000: "91,4", 3000: "91,4"},
}

// CanonicalLegacyLabel rewrites a heading from the legacy statistics
// pages into the event name the federation source uses, so both land
// on the same events row. Returns false for headings that are not
// events (prose, records, relay notes).
func CanonicalLegacyLabel(heading string, gender internal.Gender) (string, bool) {
	text := util.CollapseSpace(heading)
	if text == "" {
		return "", false
	}

	// keep the Norwegian label: left of notes, standards and
	// translations
	base := strings.SplitN(text, "(", 2)[0]
	base = legacySplitRe.Split(base, 2)[0]
	base = strings.SplitN(base, "/", 2)[0]
	base = strings.ToUpper(util.CollapseSpace(base))

	baseNorm := strings.TrimSpace(strings.ReplaceAll(base, "-", " "))
	switch {
	case strings.HasPrefix(baseNorm, "10 KAMP"):
		return "10 kamp", true
	case strings.HasPrefix(baseNorm, "7 KAMP"):
		return "7 kamp", true
	case strings.HasPrefix(baseNorm, "5 KAMP"):
		return "5 kamp", true
	case strings.HasPrefix(baseNorm, "KAST 5 KAMP"):
		return "Kast 5 Kamp (Slegge-Kule-Diskos-Spyd-Vektkast)", true
	}

	switch {
	case strings.HasPrefix(base, "HØYDE"), strings.HasPrefix(base, "HOYDE"):
		return "Høyde", true
	case strings.HasPrefix(base, "STAV"):
		return "Stav", true
	case strings.HasPrefix(base, "LENGDE"):
		return "Lengde", true
	case strings.HasPrefix(base, "TRESTEG"):
		return "Tresteg", true
	}

	men := gender == internal.GenderMen
	switch {
	case strings.HasPrefix(base, "KULE"):
		return pickByGender(men, "Kule 7,26kg", "Kule 4,0kg"), true
	case strings.HasPrefix(base, "DISKOS"):
		return pickByGender(men, "Diskos 2,0kg", "Diskos 1,0kg"), true
	case strings.HasPrefix(base, "SLEGGE"):
		return pickByGender(men, "Slegge 7,26kg/121,5cm", "Slegge 4,0kg/119,5cm"), true
	case strings.HasPrefix(base, "SPYD"):
		return pickByGender(men, "Spyd 800gram", "Spyd 600gram"), true
	case strings.HasPrefix(base, "SUPERVEKTKAST"):
		return pickByGender(men, "SuperVektKast 25,4Kg", "SuperVektKast 15,88Kg"), true
	case strings.HasPrefix(base, "VEKTKAST"):
		return pickByGender(men, "VektKast 15,88Kg", "VektKast 9,08Kg"), true
	}

	if m := legacyMeterRe.FindStringSubmatch(base); m != nil {
		num, err := strconv.Atoi(strings.ReplaceAll(m[1], " ", ""))
		if err != nil {
			return "", false
		}
		if strings.Contains(base, "HEKK") {
			if height := hurdleHeightCm[gender][num]; height != "" {
				return fmt.Sprintf("%d meter hekk (%scm)", num, height), true
			}
			return fmt.Sprintf("%d meter hekk", num), true
		}
		if strings.Contains(base, "HINDER") {
			if height := steepleHeightCm[gender][num]; height != "" {
				return fmt.Sprintf("%d meter hinder (%scm)", num, height), true
			}
			return fmt.Sprintf("%d meter hinder", num), true
		}
		return fmt.Sprintf("%d meter", num), true
	}
	return "", false
}

func pickByGender(men bool, menName, womenName string) string {
	if men {
		return menName
	}
	return womenName
}
