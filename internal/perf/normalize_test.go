package perf

import (
	"math"
	"testing"

	"nfwa/internal"
)

func strptr(s string) *string { return &s }

func TestNormalizeTimes(t *testing.T) {
	marathon := strptr("Marathon")
	tenK := strptr("10 km")
	m1500 := strptr("1,500m")

	cases := []struct {
		raw     string
		event   *string
		want    float64
		wantStr string
	}{
		{"1,23,45", nil, 83.45, "1:23.45"},
		{"11,15,59", nil, 675.59, "11:15.59"},
		{"29.11.45", nil, 1751.45, "29:11.45"},
		{"2.22,28", nil, 142.28, "2:22.28"},
		{"2,10,25", marathon, 7825, "2:10:25"},
		{"33.53", tenK, 2033, "33:53"},
		{"4,05,2", m1500, 245.02, "4:05.02"},
		{"10,58", nil, 10.58, "10.58"},
		{"53,27", nil, 53.27, "53.27"},
		{"1´11,50", nil, 71.50, "1:11.50"},
		{"3.33-07", nil, 213.07, "3:33.07"},
		{"10,8h", nil, 10.8, "10.80"},
		{"48.12,47", nil, 2892.47, "48:12.47"},
	}
	for _, tc := range cases {
		got := Normalize(tc.raw, internal.OrientLower, tc.event)
		if got.State != internal.PerfOK || got.Value == nil {
			t.Fatalf("Normalize(%q) state=%s, want ok", tc.raw, got.State)
		}
		if math.Abs(*got.Value-tc.want) > 1e-6 {
			t.Fatalf("Normalize(%q) value=%v, want %v", tc.raw, *got.Value, tc.want)
		}
		if got.Performance != tc.wantStr {
			t.Fatalf("Normalize(%q) performance=%q, want %q", tc.raw, got.Performance, tc.wantStr)
		}
	}
}

func TestNormalizeEquivalentSpellings(t *testing.T) {
	// the same mark in different source spellings must land on the
	// same value
	spellings := []string{"1,23,45", "1.23.45", "1:23.45", "1'23,45"}
	for _, s := range spellings {
		got := Normalize(s, internal.OrientLower, nil)
		if got.State != internal.PerfOK || got.Value == nil {
			t.Fatalf("Normalize(%q) state=%s", s, got.State)
		}
		if math.Abs(*got.Value-83.45) > 1e-6 {
			t.Fatalf("Normalize(%q) = %v, want 83.45", s, *got.Value)
		}
	}
}

func TestNormalizeField(t *testing.T) {
	hj := strptr("HJ")
	pv := strptr("PV")

	cases := []struct {
		raw   string
		event *string
		want  float64
	}{
		{"7,48", nil, 7.48},
		{"68.14", nil, 68.14},
		{"235", hj, 2.35},
		{"1,92", hj, 1.92},
		{"455", pv, 4.55},
		{"5986", nil, 5986}, // combined-events points
	}
	for _, tc := range cases {
		got := Normalize(tc.raw, internal.OrientHigher, tc.event)
		if got.State != internal.PerfOK || got.Value == nil {
			t.Fatalf("Normalize(%q) state=%s, want ok", tc.raw, got.State)
		}
		if math.Abs(*got.Value-tc.want) > 1e-6 {
			t.Fatalf("Normalize(%q) = %v, want %v", tc.raw, *got.Value, tc.want)
		}
	}
}

func TestNormalizeWind(t *testing.T) {
	got := Normalize("11,15 (+1,2)", internal.OrientLower, nil)
	if got.State != internal.PerfOK || got.Value == nil {
		t.Fatalf("state=%s, want ok", got.State)
	}
	if math.Abs(*got.Value-11.15) > 1e-6 {
		t.Fatalf("value=%v, want 11.15", *got.Value)
	}
	if got.Wind == nil || math.Abs(*got.Wind-1.2) > 1e-6 {
		t.Fatalf("wind=%v, want 1.2", got.Wind)
	}
}

func TestNormalizeVoid(t *testing.T) {
	for _, raw := range []string{"DNS", "dnf", "DQ", "NM", "-----", "", "  ", "strøket"} {
		got := Normalize(raw, internal.OrientLower, nil)
		if got.State != internal.PerfVoid {
			t.Fatalf("Normalize(%q) state=%s, want void", raw, got.State)
		}
		if got.Value != nil {
			t.Fatalf("Normalize(%q) value=%v, want nil", raw, *got.Value)
		}
	}
}

func TestNormalizeUnparseable(t *testing.T) {
	got := Normalize("se merknad", internal.OrientLower, nil)
	if got.State != internal.PerfUnparseable {
		t.Fatalf("state=%s, want unparseable", got.State)
	}
}

func TestNormalizeAmbiguous(t *testing.T) {
	// 79 cannot be a seconds segment, and three segments cannot be a
	// plain decimal either
	got := Normalize("1,79,03", internal.OrientLower, nil)
	if got.State != internal.PerfAmbiguous {
		t.Fatalf("state=%s, want ambiguous", got.State)
	}
	if got.Value != nil {
		t.Fatalf("value=%v, want nil", *got.Value)
	}
}

func TestNormalizeDisplayRoundTrip(t *testing.T) {
	for _, v := range []float64{10.58, 83.45, 675.59, 7825, 7.48, 1.92} {
		for _, o := range []internal.Orientation{internal.OrientLower, internal.OrientHigher} {
			if o == internal.OrientLower && v < 2 {
				continue
			}
			display := FormatValue(v, o, 2)
			var hint *string
			if o == internal.OrientLower && v >= 3600 {
				hint = strptr("Marathon")
			}
			got := Normalize(display, o, hint)
			if got.State != internal.PerfOK || got.Value == nil {
				t.Fatalf("round trip %v/%s via %q: state=%s", v, o, display, got.State)
			}
			if math.Abs(*got.Value-v) > 1e-6 {
				t.Fatalf("round trip %v/%s via %q: got %v", v, o, display, *got.Value)
			}
		}
	}
}
