package util

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

var norwegianMonths = map[string]int{
	"januar": 1, "februar": 2, "mars": 3, "april": 4,
	"mai": 5, "juni": 6, "juli": 7, "august": 8,
	"september": 9, "oktober": 10, "november": 11, "desember": 12,
	"jan": 1, "feb": 2, "mar": 3, "apr": 4, "jun": 6,
	"jul": 7, "aug": 8, "sep": 9, "okt": 10, "nov": 11, "des": 12,
}

// ParseDDMMYY parses birth dates like "14.03.89" into ISO form. The
// two-digit year pivots on the current year unless pivotYear is set.
func ParseDDMMYY(value string, pivotYear int) (string, bool) {
	text := strings.TrimSpace(value)
	if text == "" {
		return "", false
	}
	parts := strings.Split(text, ".")
	if len(parts) != 3 {
		return "", false
	}
	day, err1 := strconv.Atoi(strings.TrimSpace(parts[0]))
	month, err2 := strconv.Atoi(strings.TrimSpace(parts[1]))
	yy, err3 := strconv.Atoi(strings.TrimSpace(parts[2]))
	if err1 != nil || err2 != nil || err3 != nil {
		return "", false
	}
	year := PivotYear(yy, pivotYear)
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	if _, err := time.Parse("2006-01-02", fmt.Sprintf("%04d-%02d-%02d", year, month, day)); err != nil {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}

// PivotYear expands a two-digit year: at or below the pivot it is
// 2000s, above it 1900s. pivotYear <= 0 uses the current year.
func PivotYear(yy, pivotYear int) int {
	if yy < 0 || yy > 99 {
		return yy
	}
	if pivotYear <= 0 {
		pivotYear = time.Now().Year() % 100
	}
	if yy <= pivotYear {
		return 2000 + yy
	}
	return 1900 + yy
}

// ParseNorwegianDate parses "12. april 2008" or "12 apr 2008" into ISO
// form.
func ParseNorwegianDate(value string) (string, bool) {
	text := strings.ToLower(CollapseSpace(value))
	text = strings.ReplaceAll(text, ".", " ")
	fields := strings.Fields(text)
	if len(fields) < 3 {
		return "", false
	}
	day, err := strconv.Atoi(fields[0])
	if err != nil {
		return "", false
	}
	month, ok := norwegianMonths[fields[1]]
	if !ok {
		return "", false
	}
	year, err := strconv.Atoi(fields[2])
	if err != nil {
		return "", false
	}
	if year < 100 {
		year = PivotYear(year, 0)
	}
	if month < 1 || month > 12 || day < 1 || day > 31 {
		return "", false
	}
	return fmt.Sprintf("%04d-%02d-%02d", year, month, day), true
}
