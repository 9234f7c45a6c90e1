package date

import (
	"testing"
	"time"
)

// TestTime asserts that time() is canonical and gives comparable times.
func TestTime(t *testing.T) {
	d1 := New(2025, 7, 31)
	d2 := New(2025, 7, 31)

	if d1.time() != d2.time() {
		// time.Time values are not comparable in general (timezone pointer);
		// this also checks that the property remains true for canonical days.
		t.Errorf("invalid time() function: same day gives two different times")
	}
}

func TestParseStrict(t *testing.T) {
	testCases := []struct {
		name      string
		in        string
		want      Date
		expectErr bool
	}{
		{"Valid", "2025-01-10", New(2025, time.January, 10), false},
		{"Valid end of month", "2024-02-29", New(2024, time.February, 29), false},
		{"Single digit month", "2025-1-10", Date{}, true},
		{"Single digit day", "2025-01-1", Date{}, true},
		{"Slash separator", "2025/01/10", Date{}, true},
		{"Trailing garbage", "2025-01-10x", Date{}, true},
		{"Not a leap year", "2025-02-29", Date{}, true},
		{"Empty", "", Date{}, true},
		{"Datetime", "2025-01-10T00:00:00Z", Date{}, true},
	}

	for _, tc := range testCases {
		t.Run(tc.name, func(t *testing.T) {
			got, err := Parse(tc.in)
			hasErr := err != nil
			if hasErr != tc.expectErr {
				t.Fatalf("Parse(%q) error = %v, want error: %v", tc.in, err, tc.expectErr)
			}
			if !hasErr && got != tc.want {
				t.Errorf("Parse(%q) = %v, want %v", tc.in, got, tc.want)
			}
		})
	}
}

func TestAddNormalizes(t *testing.T) {
	d := MustParse("2025-01-31").Add(1)
	if d.String() != "2025-02-01" {
		t.Errorf("Add(1) = %s, want 2025-02-01", d)
	}
	d = MustParse("2025-01-01").Add(-1)
	if d.String() != "2024-12-31" {
		t.Errorf("Add(-1) = %s, want 2024-12-31", d)
	}
}

func TestSub(t *testing.T) {
	a, b := MustParse("2025-01-10"), MustParse("2025-01-01")
	if got := a.Sub(b); got != 9 {
		t.Errorf("Sub = %d, want 9", got)
	}
	if got := b.Sub(a); got != -9 {
		t.Errorf("Sub = %d, want -9", got)
	}
}

func TestRange(t *testing.T) {
	r := NewRange(MustParse("2025-01-01"), MustParse("2025-01-05"))

	if !r.Contains(MustParse("2025-01-01")) || !r.Contains(MustParse("2025-01-05")) {
		t.Errorf("Contains must include boundaries")
	}
	if r.Contains(MustParse("2025-01-06")) {
		t.Errorf("Contains must exclude days after To")
	}
	if got := r.Days(); got != 5 {
		t.Errorf("Days = %d, want 5", got)
	}

	var days []string
	for d := range r.All() {
		days = append(days, d.String())
	}
	if len(days) != 5 || days[0] != "2025-01-01" || days[4] != "2025-01-05" {
		t.Errorf("All() yielded %v", days)
	}

	inverted := NewRange(MustParse("2025-01-05"), MustParse("2025-01-01"))
	if inverted.IsValid() || inverted.Days() != 0 {
		t.Errorf("inverted range must be invalid and empty")
	}
}
