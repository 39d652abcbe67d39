package util

import (
	"regexp"
	"strings"
)

var (
	reSpaces   = regexp.MustCompile(`\s+`)
	reSlugDrop = regexp.MustCompile(`[^a-z0-9]+`)
)

func CollapseSpace(input string) string {
	s := strings.ReplaceAll(input, " ", " ")
	return strings.TrimSpace(reSpaces.ReplaceAllString(s, " "))
}

// NormalizeLabel lowercases and collapses a free-text event label so
// spelling variants of the same heading compare equal.
func NormalizeLabel(input string) string {
	return strings.ToLower(CollapseSpace(input))
}

// Slug makes a filesystem and URL safe ascii key from a Norwegian
// label. Non-ascii letters are transliterated, everything else
// becomes a hyphen.
func Slug(input string, maxLen int) string {
	s := strings.ToLower(CollapseSpace(input))
	repl := strings.NewReplacer("æ", "ae", "ø", "o", "å", "a", "é", "e", "è", "e", "ü", "u", "ö", "o", "ä", "a")
	s = repl.Replace(s)
	s = reSlugDrop.ReplaceAllString(s, "-")
	s = strings.Trim(s, "-")
	if maxLen > 0 && len(s) > maxLen {
		s = strings.Trim(s[:maxLen], "-")
	}
	if s == "" {
		return "x"
	}
	return s
}

func StrPtr(s string) *string     { return &s }
func IntPtr(n int) *int           { return &n }
func FloatPtr(f float64) *float64 { return &f }
