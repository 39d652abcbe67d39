package util

import "testing"

func TestParseWeight(t *testing.T) {
	cases := []struct {
		name  string
		input string
		want  float64
	}{
		{name: "kg decimal comma", input: "Kule 4,00kg", want: 4},
		{name: "kg decimal dot", input: "Slegge 7.26 kg", want: 7.26},
		{name: "grams", input: "Spyd 600g", want: 0.6},
		{name: "grams spaced", input: "Spyd 800 g", want: 0.8},
		{name: "grams suffixed", input: "Spyd 800gram", want: 0.8},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			parsed := ParseWeight(tc.input)
			if parsed.Kg == nil {
				t.Fatalf("weight is nil")
			}
			if *parsed.Kg != tc.want {
				t.Fatalf("got %v want %v", *parsed.Kg, tc.want)
			}
		})
	}
	if got := ParseWeight("100 meter"); got.Kg != nil {
		t.Fatalf("expected nil weight, got %v", *got.Kg)
	}
}

func TestParseDDMMYY(t *testing.T) {
	cases := []struct {
		input string
		pivot int
		want  string
	}{
		{"14.03.89", 25, "1989-03-14"},
		{"01.01.05", 25, "2005-01-01"},
		{"7.6.99", 25, "1999-06-07"},
	}
	for _, tc := range cases {
		got, ok := ParseDDMMYY(tc.input, tc.pivot)
		if !ok || got != tc.want {
			t.Fatalf("ParseDDMMYY(%q) = %q/%v, want %q", tc.input, got, ok, tc.want)
		}
	}
	if _, ok := ParseDDMMYY("ukjent", 25); ok {
		t.Fatalf("expected parse failure")
	}
}

func TestParseNorwegianDate(t *testing.T) {
	got, ok := ParseNorwegianDate("12. april 2008")
	if !ok || got != "2008-04-12" {
		t.Fatalf("got %q/%v", got, ok)
	}
	got, ok = ParseNorwegianDate("3 okt 2010")
	if !ok || got != "2010-10-03" {
		t.Fatalf("got %q/%v", got, ok)
	}
}

func TestSlug(t *testing.T) {
	if got := Slug("100 meter hekk", 50); got != "100-meter-hekk" {
		t.Fatalf("got %q", got)
	}
	if got := Slug("Høyde", 50); got != "hoyde" {
		t.Fatalf("got %q", got)
	}
}
