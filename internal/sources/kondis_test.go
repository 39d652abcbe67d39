package sources

import (
	"strings"
	"testing"

	"nfwa/internal"
)

const kondisTableFixture = `<html><body>
<table><tr><td>Meny</td><td>Lenker</td></tr></table>
<table>
<tr><th>Plass</th><th>Navn</th><th>Tid</th><th>Løp</th><th>Dato</th></tr>
<tr><td>1</td><td>Kari Nordmann, Tjalve -92</td><td>32.15</td><td>Hytteplanmila</td><td>19.okt</td></tr>
<tr><td>2</td><td>Ola Hansen, Vidar -88 (*)</td><td>32,40</td><td>Sentrumsløpet</td><td>27,apr</td></tr>
<tr><td>3.</td><td>Per Olsen, BFG Bergen -?</td><td>33:05</td><td>Hytteplanmila</td><td>19.okt</td></tr>
</table>
</body></html>`

func TestParseKondisTable(t *testing.T) {
	page := KondisPage{
		Season:     2023,
		Gender:     internal.GenderMen,
		EventLabel: "10 km gateløp",
		URL:        "https://www.kondis.no/statistikk/10km-menn-2023.html",
	}
	rows, err := ParseKondisPage([]byte(kondisTableFixture), page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	r := rows[0]
	if r.Source != internal.SourceKondis {
		t.Errorf("source = %q", r.Source)
	}
	if r.RankInList != 1 || r.AthleteName != "Kari Nordmann" || r.PerformanceRaw != "32.15" {
		t.Errorf("row 0 = %d %q %q", r.RankInList, r.AthleteName, r.PerformanceRaw)
	}
	if r.Club == nil || *r.Club != "Tjalve" {
		t.Errorf("club = %v", r.Club)
	}
	if r.BirthDate == nil || *r.BirthDate != "1992-01-01" {
		t.Errorf("birth = %v", r.BirthDate)
	}
	if r.CompetitionName == nil || *r.CompetitionName != "Hytteplanmila" {
		t.Errorf("competition = %v", r.CompetitionName)
	}
	if r.ResultDate == nil || *r.ResultDate != "2023-10-19" {
		t.Errorf("date = %v", r.ResultDate)
	}

	if rows[1].BirthDate == nil || *rows[1].BirthDate != "1988-01-01" {
		t.Errorf("footnote row birth = %v", rows[1].BirthDate)
	}
	if rows[1].ResultDate == nil || *rows[1].ResultDate != "2023-04-27" {
		t.Errorf("comma date = %v", rows[1].ResultDate)
	}

	r = rows[2]
	if r.RankInList != 3 {
		t.Errorf("dotted rank = %d, want 3", r.RankInList)
	}
	if r.BirthDate != nil {
		t.Errorf("unknown birth = %v, want nil", *r.BirthDate)
	}
	if r.Club == nil || *r.Club != "BFG Bergen" {
		t.Errorf("club = %v", r.Club)
	}
}

const kondisTextFixture = `<html><body><pre>
Menn 10 km 1999

1 Jon Pedersen, Steinkjer FIK -75 30.44 Oslo 16.okt
2 Nils Berg, Gular -? 30.55 Bergen 1,mai
3 | Ola Li, Tyrving -90 | 31.02 | Sentrumsløpet | 26.apr
Utarbeidet av NN
</pre></body></html>`

func TestParseKondisText(t *testing.T) {
	page := KondisPage{
		Season:     1999,
		Gender:     internal.GenderMen,
		EventLabel: "10 km gateløp",
		URL:        "https://www.kondis.no/statistikk/10km-menn-1999.html",
	}
	rows, err := ParseKondisPage([]byte(kondisTextFixture), page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 3 {
		t.Fatalf("rows = %d, want 3", len(rows))
	}

	r := rows[0]
	if r.AthleteName != "Jon Pedersen" || r.PerformanceRaw != "30.44" {
		t.Errorf("row 0 = %q %q", r.AthleteName, r.PerformanceRaw)
	}
	if r.Club == nil || *r.Club != "Steinkjer FIK" {
		t.Errorf("club = %v", r.Club)
	}
	if r.BirthDate == nil || *r.BirthDate != "1975-01-01" {
		t.Errorf("birth = %v", r.BirthDate)
	}
	if r.VenueCity == nil || *r.VenueCity != "Oslo" {
		t.Errorf("venue = %v", r.VenueCity)
	}
	if r.ResultDate == nil || *r.ResultDate != "1999-10-16" {
		t.Errorf("date = %v", r.ResultDate)
	}

	if rows[1].BirthDate != nil {
		t.Errorf("unknown birth = %v", *rows[1].BirthDate)
	}
	if rows[1].ResultDate == nil || *rows[1].ResultDate != "1999-05-01" {
		t.Errorf("date = %v", rows[1].ResultDate)
	}

	r = rows[2]
	if r.RankInList != 3 || r.PerformanceRaw != "31.02" {
		t.Errorf("pipe row = %d %q", r.RankInList, r.PerformanceRaw)
	}
	if r.CompetitionName == nil || *r.CompetitionName != "Sentrumsløpet" {
		t.Errorf("pipe competition = %v", r.CompetitionName)
	}
	if r.ResultDate == nil || *r.ResultDate != "1999-04-26" {
		t.Errorf("pipe date = %v", r.ResultDate)
	}
}

func TestParseAthleteCell(t *testing.T) {
	tests := []struct {
		in    string
		name  string
		club  string
		birth int
	}{
		{"Kari Nordmann, Tjalve -92", "Kari Nordmann", "Tjalve", 1992},
		{"Ola Hansen, Vidar -1988", "Ola Hansen", "Vidar", 1988},
		{"Per Olsen, BFG Bergen -?", "Per Olsen", "BFG Bergen", 0},
		{"Nils Berg (*) , Gular -75", "Nils Berg", "Gular", 1975},
		{"Grete Waitz", "Grete Waitz", "", 0},
	}
	for _, tc := range tests {
		name, club, birth := parseAthleteCell(tc.in)
		if name != tc.name {
			t.Errorf("%q: name = %q, want %q", tc.in, name, tc.name)
		}
		gotClub := ""
		if club != nil {
			gotClub = *club
		}
		if gotClub != tc.club {
			t.Errorf("%q: club = %q, want %q", tc.in, gotClub, tc.club)
		}
		gotBirth := 0
		if birth != nil {
			gotBirth = *birth
		}
		if gotBirth != tc.birth {
			t.Errorf("%q: birth = %d, want %d", tc.in, gotBirth, tc.birth)
		}
	}
}

func TestParseKondisDate(t *testing.T) {
	tests := []struct {
		in     string
		season int
		want   string
	}{
		{"11.okt", 2022, "2022-10-11"},
		{"27,apr", 2021, "2021-04-27"},
		{"1. mai", 2020, "2020-05-01"},
		{"sept", 2020, ""},
		{"40.jan", 2020, ""},
	}
	for _, tc := range tests {
		got, ok := parseKondisDate(tc.in, tc.season)
		if tc.want == "" {
			if ok {
				t.Errorf("%q: parsed %q, want failure", tc.in, got)
			}
			continue
		}
		if !ok || got != tc.want {
			t.Errorf("%q: got %q %v, want %q", tc.in, got, ok, tc.want)
		}
	}
}

func TestParseRankToken(t *testing.T) {
	tests := []struct {
		in   string
		want int
	}{
		{"12", 12},
		{"36.", 36},
		{"36.1", 36},
		{"36,2", 36},
		{"", 0},
		{"abc", 0},
	}
	for _, tc := range tests {
		got := parseRankToken(tc.in)
		if tc.want == 0 {
			if got != nil {
				t.Errorf("%q: got %d, want nil", tc.in, *got)
			}
			continue
		}
		if got == nil || *got != tc.want {
			t.Errorf("%q: got %v, want %d", tc.in, got, tc.want)
		}
	}
}

func TestKondisPages(t *testing.T) {
	all := KondisPages()
	if len(all) != 48 {
		t.Fatalf("pages = %d, want 48", len(all))
	}
	for _, p := range all {
		if p.Gender == internal.GenderWomen && !strings.Contains(p.URL, "kvinner") {
			t.Errorf("women URL %q missing gender slug", p.URL)
		}
	}
	one := KondisPagesFor([]int{2023}, nil)
	if len(one) != 8 {
		t.Fatalf("2023 pages = %d, want 8", len(one))
	}
	g := internal.GenderWomen
	w := KondisPagesFor([]int{2023}, &g)
	if len(w) != 4 {
		t.Fatalf("2023 women pages = %d, want 4", len(w))
	}
}
