package sources

import (
	"testing"

	"nfwa/internal"
)

const friidrettSprintFixture = `<html><head><title>Statistikk 2010</title></head><body>
<h2>100 METER</h2>
<table>
<tr><td>Rekorder</td><td>9.86</td></tr>
</table>
<table>
<tr><td>10.46</td><td>+1.2</td><td>Jaysuma Saidy Ndure, FIK Orion</td><td>01.01.84</td><td>1</td><td>NM</td><td>Sandnes</td><td>24.07</td></tr>
<tr><td>10.60</td><td>0.8</td><td>Tom Hansen, IL Norna</td><td>02.02.85</td><td>2h</td><td></td><td>Oslo</td><td>15.06</td></tr>
<tr><td>10.65</td><td>1.0</td><td>Hansen</td><td></td><td>1</td><td></td><td>Bergen</td><td>28/29.07</td></tr>
</table>
<h2>HØYDE</h2>
<table>
<tr><td>2.20</td><td>Pedersen, Ola, IL Tyrving</td><td>03.03.80</td><td>Oslo</td><td>05.08</td></tr>
</table>
</body></html>`

func TestParseFriidrettPage(t *testing.T) {
	page := FriidrettPage{Season: 2010, Gender: internal.GenderMen, URL: "https://www.friidrett.no/link/x.aspx"}
	rows, err := ParseFriidrettPage([]byte(friidrettSprintFixture), page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}

	var sprint, high []internal.RawResult
	for _, r := range rows {
		switch r.EventLabel {
		case "100 meter":
			sprint = append(sprint, r)
		case "Høyde":
			high = append(high, r)
		default:
			t.Errorf("unexpected event %q", r.EventLabel)
		}
	}

	// the abbreviated repeat row is the same athlete and must be
	// deduplicated, keeping the list best-per-athlete
	if len(sprint) != 2 {
		t.Fatalf("sprint rows = %d, want 2", len(sprint))
	}
	r := sprint[0]
	if r.RankInList != 1 || r.AthleteName != "Jaysuma Saidy Ndure" || r.PerformanceRaw != "10.46" {
		t.Errorf("sprint row 0 = %d %q %q", r.RankInList, r.AthleteName, r.PerformanceRaw)
	}
	if r.Wind == nil || *r.Wind != 1.2 {
		t.Errorf("wind = %v", r.Wind)
	}
	if r.BirthDate == nil || *r.BirthDate != "1984-01-01" {
		t.Errorf("birth = %v", r.BirthDate)
	}
	if r.PlacementRaw == nil || *r.PlacementRaw != "1" {
		t.Errorf("placement = %v", r.PlacementRaw)
	}
	if r.CompetitionName == nil || *r.CompetitionName != "NM" {
		t.Errorf("competition = %v", r.CompetitionName)
	}
	if r.VenueCity == nil || *r.VenueCity != "Sandnes" {
		t.Errorf("venue = %v", r.VenueCity)
	}
	if r.ResultDate == nil || *r.ResultDate != "2010-07-24" {
		t.Errorf("date = %v", r.ResultDate)
	}
	if sprint[1].AthleteName != "Tom Hansen" || sprint[1].RankInList != 2 {
		t.Errorf("sprint row 1 = %q rank %d", sprint[1].AthleteName, sprint[1].RankInList)
	}

	if len(high) != 1 {
		t.Fatalf("high jump rows = %d, want 1", len(high))
	}
	if high[0].AthleteName != "Pedersen" || high[0].PerformanceRaw != "2.20" {
		t.Errorf("high jump row = %q %q", high[0].AthleteName, high[0].PerformanceRaw)
	}
	if high[0].Wind != nil {
		t.Errorf("high jump wind = %v", *high[0].Wind)
	}
	if high[0].ResultDate == nil || *high[0].ResultDate != "2010-08-05" {
		t.Errorf("high jump date = %v", high[0].ResultDate)
	}
}

const friidrettSectionedFixture = `<html><body>
<table>
<tr><td>KULE</td><td></td><td></td><td></td><td></td></tr>
<tr><td>15.20</td><td>Kari Olsen, IL Gular</td><td>04.04.82</td><td>Bergen</td><td>12.06</td></tr>
<tr><td>DISKOS</td><td></td><td></td><td></td><td></td></tr>
<tr><td>50.10</td><td>Kari Olsen, IL Gular</td><td>04.04.82</td><td>Bergen</td><td>13.06</td></tr>
</table>
</body></html>`

func TestParseFriidrettSectioned(t *testing.T) {
	page := FriidrettPage{Season: 2008, Gender: internal.GenderWomen, URL: "https://www.friidrett.no/link/y.aspx"}
	rows, err := ParseFriidrettPage([]byte(friidrettSectionedFixture), page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 2 {
		t.Fatalf("rows = %d, want 2", len(rows))
	}
	if rows[0].EventLabel != "Kule 4,0kg" || rows[0].RankInList != 1 {
		t.Errorf("row 0 = %q rank %d", rows[0].EventLabel, rows[0].RankInList)
	}
	if rows[1].EventLabel != "Diskos 1,0kg" || rows[1].RankInList != 1 {
		t.Errorf("row 1 = %q rank %d", rows[1].EventLabel, rows[1].RankInList)
	}
	if rows[1].ResultDate == nil || *rows[1].ResultDate != "2008-06-13" {
		t.Errorf("row 1 date = %v", rows[1].ResultDate)
	}
}

func TestParseFriidrettNotFound(t *testing.T) {
	page := FriidrettPage{Season: 2008, Gender: internal.GenderMen, URL: "https://www.friidrett.no/link/z.aspx"}
	rows, err := ParseFriidrettPage([]byte(`<html><head><title>Vi fant ikke siden</title></head><body></body></html>`), page)
	if err != nil {
		t.Fatalf("parse: %v", err)
	}
	if len(rows) != 0 {
		t.Fatalf("rows = %d, want 0", len(rows))
	}
}

func TestWalkHeadingLabel(t *testing.T) {
	tests := []struct {
		in   string
		want string
	}{
		{"Kappgang 10 000 meter", "Kappgang 10000 meter"},
		{"KAPPGANG 5000 METER", "Kappgang 5000 meter"},
		{"Kappgang 20 km", "Kappgang 20 km"},
		{"Resultater 2008", ""},
	}
	for _, tc := range tests {
		got, ok := walkHeadingLabel(tc.in)
		if tc.want == "" {
			if ok {
				t.Errorf("%q: got %q, want no match", tc.in, got)
			}
			continue
		}
		if !ok || got != tc.want {
			t.Errorf("%q: got %q %v, want %q", tc.in, got, ok, tc.want)
		}
	}
}

func TestParseWalkLine(t *testing.T) {
	page := FriidrettPage{Season: 2008, Gender: internal.GenderMen, URL: "u"}
	row, ok := parseWalkLine("21.35,00 Erik Tysse, Søfteland TIL 04.12.80 1 Bergen 24.05", page, "Kappgang 5000 meter")
	if !ok {
		t.Fatalf("parse failed")
	}
	if row.AthleteName != "Erik Tysse" || row.PerformanceRaw != "21.35,00" {
		t.Errorf("row = %q %q", row.AthleteName, row.PerformanceRaw)
	}
	if row.Club == nil || *row.Club != "Søfteland TIL" {
		t.Errorf("club = %v", row.Club)
	}
	if row.BirthDate == nil || *row.BirthDate != "1980-12-04" {
		t.Errorf("birth = %v", row.BirthDate)
	}
	if row.PlacementRaw == nil || *row.PlacementRaw != "1" {
		t.Errorf("placement = %v", row.PlacementRaw)
	}
	if row.VenueCity == nil || *row.VenueCity != "Bergen" {
		t.Errorf("venue = %v", row.VenueCity)
	}
	if row.ResultDate == nil || *row.ResultDate != "2008-05-24" {
		t.Errorf("date = %v", row.ResultDate)
	}

	if _, ok := parseWalkLine("Beste norske resultater", page, "Kappgang 5000 meter"); ok {
		t.Errorf("prose line parsed as result")
	}
}

func TestFriidrettPagesFor(t *testing.T) {
	all := FriidrettPages()
	if len(all) != 26 {
		t.Fatalf("pages = %d, want 26", len(all))
	}
	g := internal.GenderWomen
	w := FriidrettPagesFor([]int{2010}, &g)
	if len(w) != 6 {
		t.Fatalf("2010 women pages = %d, want 6", len(w))
	}
}
