package ucum_test

import (
	"errors"
	"testing"

	"github.com/cockroachdb/apd/v3"

	"github.com/sandrolain/gofhirpath/pkg/ucum"
)

func dec(t *testing.T, s string) *apd.Decimal {
	t.Helper()
	d, _, err := apd.NewFromString(s)
	if err != nil {
		t.Fatalf("NewFromString(%q): %v", s, err)
	}
	return d
}

func TestConvert(t *testing.T) {
	tests := []struct {
		amount   string
		from, to string
		want     string
	}{
		{"75", "kg", "g", "75000"},
		{"500", "g", "kg", "0.5"},
		{"1", "[lb_av]", "g", "453.59237"},
		{"2", "h", "min", "120"},
		{"1", "wk", "d", "7"},
		{"3", "days", "h", "72"},
		{"250", "mL", "L", "0.25"},
		{"50", "%", "1", "0.5"},
		{"12", "cm", "cm", "12"},
	}
	for _, tt := range tests {
		t.Run(tt.amount+" "+tt.from+" to "+tt.to, func(t *testing.T) {
			got, err := ucum.Convert(dec(t, tt.amount), tt.from, tt.to)
			if err != nil {
				t.Fatalf("Convert: %v", err)
			}
			if got.Cmp(dec(t, tt.want)) != 0 {
				t.Errorf("got %s, want %s", got.Text('f'), tt.want)
			}
		})
	}
}

func TestIncompatible(t *testing.T) {
	if ucum.Compatible("kg", "m") {
		t.Error("kg and m reported compatible")
	}
	if !ucum.Compatible("mg", "[oz_av]") {
		t.Error("mg and [oz_av] reported incompatible")
	}
	_, err := ucum.Convert(dec(t, "1"), "kg", "s")
	if !errors.Is(err, ucum.ErrIncompatible) {
		t.Errorf("err = %v, want ErrIncompatible", err)
	}
}

func TestUnknownUnits(t *testing.T) {
	if !ucum.Compatible("{beats}", "{beats}") {
		t.Error("unknown unit not compatible with itself")
	}
	if ucum.Compatible("{beats}", "{steps}") {
		t.Error("distinct unknown units reported compatible")
	}
	if u := ucum.Resolve("{beats}"); u.Known() {
		t.Error("unknown unit reported as known")
	}
	if got := ucum.CanonicalUnit("{beats}"); got != "{beats}" {
		t.Errorf("CanonicalUnit = %q", got)
	}
}

func TestCalendarKeywords(t *testing.T) {
	tests := map[string]string{
		"year": "a", "months": "mo", "week": "wk", "days": "d",
		"hour": "h", "minutes": "min", "second": "s", "milliseconds": "ms",
	}
	for kw, want := range tests {
		got, ok := ucum.CalendarUnit(kw)
		if !ok || got != want {
			t.Errorf("CalendarUnit(%q) = (%q, %v), want %q", kw, got, ok, want)
		}
	}
	if ucum.IsCalendarKeyword("kg") {
		t.Error("kg reported as calendar keyword")
	}
	if got := ucum.Normalize(""); got != "1" {
		t.Errorf("Normalize(\"\") = %q", got)
	}
}
