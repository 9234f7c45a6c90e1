package tickbook

import (
	"math"
	"testing"

	"github.com/oakledger/tickbook/date"
)

func almost(a, b float64) bool { return math.Abs(a-b) < 1e-9 }

func TestTotalReturn(t *testing.T) {
	tests := []struct {
		name   string
		prices []float64
		want   float64
		ok     bool
	}{
		{"up", []float64{100, 110, 115}, 0.15, true},
		{"down", []float64{100, 80}, -0.20, true},
		{"flat", []float64{50, 50}, 0, true},
		{"single point", []float64{100}, 0, false},
		{"empty", nil, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := totalReturn(tt.prices)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if ok && !almost(got, tt.want) {
				t.Errorf("totalReturn = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestPearson(t *testing.T) {
	x := []float64{0.01, -0.02, 0.03, 0.01, -0.01}

	tests := []struct {
		name string
		y    []float64
		want float64
		ok   bool
	}{
		{"identical", x, 1, true},
		{"inverted", []float64{-0.01, 0.02, -0.03, -0.01, 0.01}, -1, true},
		{"scaled", []float64{0.02, -0.04, 0.06, 0.02, -0.02}, 1, true},
		{"zero variance", []float64{0.01, 0.01, 0.01, 0.01, 0.01}, 0, false},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, ok := pearson(x, tt.y)
			if ok != tt.ok {
				t.Fatalf("ok = %v, want %v", ok, tt.ok)
			}
			if !ok {
				return
			}
			if !almost(got, tt.want) {
				t.Errorf("pearson = %v, want %v", got, tt.want)
			}
			if got > 1 || got < -1 {
				t.Errorf("pearson = %v, out of [-1, 1]", got)
			}
		})
	}
}

func TestPearsonTooShort(t *testing.T) {
	if _, ok := pearson([]float64{1}, []float64{1}); ok {
		t.Error("one pair must not produce a correlation")
	}
	if _, ok := pearson([]float64{1, 2}, []float64{1}); ok {
		t.Error("mismatched lengths must not produce a correlation")
	}
}

func TestDailyReturns(t *testing.T) {
	got := dailyReturns([]float64{100, 110, 99})
	want := []float64{0.10, -0.10}
	if len(got) != len(want) {
		t.Fatalf("got %v, want %v", got, want)
	}
	for i := range want {
		if !almost(got[i], want[i]) {
			t.Errorf("returns[%d] = %v, want %v", i, got[i], want[i])
		}
	}
	if dailyReturns([]float64{100}) != nil {
		t.Error("a single price has no daily returns")
	}
}

func TestAlignSeries(t *testing.T) {
	aDays := []date.Date{d("2025-01-02"), d("2025-01-03"), d("2025-01-06")}
	aPrices := []float64{1, 2, 3}
	bDays := []date.Date{d("2025-01-03"), d("2025-01-06"), d("2025-01-07")}
	bPrices := []float64{10, 20, 30}

	days, a, b := alignSeries(aDays, aPrices, bDays, bPrices)
	if len(days) != 2 || days[0] != d("2025-01-03") || days[1] != d("2025-01-06") {
		t.Fatalf("days = %v, want the two common days", days)
	}
	if a[0] != 2 || a[1] != 3 || b[0] != 10 || b[1] != 20 {
		t.Errorf("aligned prices a=%v b=%v", a, b)
	}

	days, _, _ = alignSeries(aDays, aPrices, nil, nil)
	if len(days) != 0 {
		t.Errorf("empty input must align to nothing, got %v", days)
	}
}
