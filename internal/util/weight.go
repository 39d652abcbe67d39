package util

import (
	"regexp"
	"strconv"
	"strings"
)

var weightPattern = regexp.MustCompile(`(?i)(\d+(?:[.,]\d+)?)\s*(kg|gram|g)\b`)

type ParsedWeight struct {
	Kg  *float64
	Raw *string
}

// ParseWeight extracts an implement weight from an event label like
// "Kule 4,00kg" or "Spyd 600 g". The result is always in kilograms.
func ParseWeight(input string) ParsedWeight {
	line := strings.ReplaceAll(input, " ", " ")
	m := weightPattern.FindStringSubmatch(line)
	if m == nil {
		return ParsedWeight{}
	}
	norm := normalizeNumericToken(m[1])
	value, err := strconv.ParseFloat(norm, 64)
	if err != nil {
		return ParsedWeight{}
	}
	if strings.EqualFold(m[2], "g") || strings.EqualFold(m[2], "gram") {
		value /= 1000
	}
	raw := strings.TrimSpace(m[0])
	return ParsedWeight{Kg: &value, Raw: &raw}
}

func normalizeNumericToken(token string) string {
	compact := strings.ReplaceAll(token, " ", "")
	if strings.Contains(compact, ",") && !strings.Contains(compact, ".") {
		return strings.ReplaceAll(compact, ",", ".")
	}
	return compact
}
