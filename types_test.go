package tickbook

import "testing"

func TestPercentSignedString(t *testing.T) {
	tests := []struct {
		p    Percent
		want string
	}{
		{5, "+5.00%"},
		{-1.3, "-1.30%"},
		{0, "-"},
		{0.001, "-"}, // rounds to +0.00%, shown as flat
	}
	for _, tt := range tests {
		if got := tt.p.SignedString(); got != tt.want {
			t.Errorf("Percent(%v).SignedString() = %q, want %q", float64(tt.p), got, tt.want)
		}
	}
}

func TestPercentEqual(t *testing.T) {
	if !Percent(1.00001).Equal(1.00002) {
		t.Error("near-identical percentages must compare equal")
	}
	if Percent(1).Equal(1.1) {
		t.Error("distinct percentages must not compare equal")
	}
}

func TestMoneyArithmetic(t *testing.T) {
	a := M(dec("100.50"), "USD")
	b := M(dec("24.50"), "USD")

	if got := a.Add(b); !got.Amount().Equal(dec("125")) || got.Currency() != "USD" {
		t.Errorf("Add = %s %s", got.Amount(), got.Currency())
	}
	if got := a.Sub(b); !got.Amount().Equal(dec("76")) {
		t.Errorf("Sub = %s", got.Amount())
	}
	if !a.IsPositive() || a.IsZero() {
		t.Error("100.50 is positive and not zero")
	}
	if !a.Equal(M(dec("100.5"), "USD")) {
		t.Error("trailing zeros must not affect equality")
	}
	if a.Equal(M(dec("100.5"), "EUR")) {
		t.Error("different currencies are never equal")
	}
}
