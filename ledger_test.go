package tickbook

import (
	"errors"
	"strings"
	"testing"

	"github.com/shopspring/decimal"
)

func TestLedgerUpsertAndRebase(t *testing.T) {
	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2025-01-01"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500")})
	l.Upsert(d("2025-01-02"), dec("10500"), map[string]decimal.Decimal{"SPY": dec("510")})

	if err := l.Rebase("2025-01-01"); err != nil {
		t.Fatal(err)
	}

	rows := l.Rows()
	if got := pctCell(rows[0].PortfolioPct); got != "0.000000" {
		t.Errorf("base row pct = %s, want 0.000000", got)
	}
	if got := pctCell(rows[1].PortfolioPct); got != "0.050000" {
		t.Errorf("second row pct = %s, want 0.050000", got)
	}
	if got := pctCell(rows[1].Pct["SPY"]); got != "0.020000" {
		t.Errorf("second row baseline pct = %s, want 0.020000", got)
	}
	if got := pctCell(rows[1].Diff["SPY"]); got != "0.030000" {
		t.Errorf("second row diff = %s, want 0.030000", got)
	}
}

func TestLedgerUpsertReplacesSameDay(t *testing.T) {
	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2025-01-02"), dec("10000"), nil)
	l.Upsert(d("2025-01-02"), dec("10750"), nil)
	if l.Len() != 1 {
		t.Fatalf("Len = %d, want 1", l.Len())
	}
	if got := l.Rows()[0].PortfolioValue; !got.Equal(dec("10750")) {
		t.Errorf("PortfolioValue = %s, want the replacement 10750", got)
	}
}

func TestLedgerNABeforeBaseRow(t *testing.T) {
	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2024-12-30"), dec("9800"), map[string]decimal.Decimal{"SPY": dec("495")})
	l.Upsert(d("2025-01-02"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500")})
	l.Upsert(d("2025-01-03"), dec("10100"), map[string]decimal.Decimal{"SPY": dec("505")})

	// The base date falls between rows: the base row is the first row
	// on or after it.
	if err := l.Rebase("2025-01-01"); err != nil {
		t.Fatal(err)
	}

	early := l.Rows()[0]
	if early.PortfolioPct.Valid || early.Pct["SPY"].Valid || early.Diff["SPY"].Valid {
		t.Error("rows before the base row must be not applicable, never zero")
	}
	if got := pctCell(l.Rows()[1].PortfolioPct); got != "0.000000" {
		t.Errorf("base row pct = %s, want 0.000000", got)
	}
}

func TestLedgerBaseDateFallsBackToFirstRow(t *testing.T) {
	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2025-01-02"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500")})
	l.Upsert(d("2025-01-03"), dec("10100"), map[string]decimal.Decimal{"SPY": dec("505")})

	for _, baseDate := range []string{"", "not-a-date"} {
		if err := l.Rebase(baseDate); err != nil {
			t.Fatalf("Rebase(%q): %v", baseDate, err)
		}
		if got := pctCell(l.Rows()[0].PortfolioPct); got != "0.000000" {
			t.Errorf("Rebase(%q) base row pct = %s, want 0.000000", baseDate, got)
		}
	}
}

func TestLedgerInvalidBaseAborts(t *testing.T) {
	tests := []struct {
		name   string
		value  string
		prices map[string]decimal.Decimal
	}{
		{"zero portfolio value", "0", map[string]decimal.Decimal{"SPY": dec("500")}},
		{"negative portfolio value", "-5", map[string]decimal.Decimal{"SPY": dec("500")}},
		{"missing baseline price", "10000", nil},
		{"zero baseline price", "10000", map[string]decimal.Decimal{"SPY": dec("0")}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			l := NewLedger([]string{"SPY"})
			l.Upsert(d("2025-01-02"), dec(tt.value), tt.prices)
			if err := l.Rebase(""); !errors.Is(err, ErrInvalidBase) {
				t.Errorf("Rebase err = %v, want ErrInvalidBase", err)
			}
		})
	}

	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2025-01-02"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500")})
	if err := l.Rebase("2025-06-01"); !errors.Is(err, ErrInvalidBase) {
		t.Errorf("a base date after every row must abort, got %v", err)
	}
}

func TestLedgerEncodeDeterministic(t *testing.T) {
	build := func() *Ledger {
		l := NewLedger([]string{"SPY", "QQQ"})
		l.Upsert(d("2025-01-02"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500"), "QQQ": dec("400")})
		l.Upsert(d("2025-01-03"), dec("10100"), map[string]decimal.Decimal{"SPY": dec("505"), "QQQ": dec("404")})
		if err := l.Rebase(""); err != nil {
			t.Fatal(err)
		}
		return l
	}

	a, err := build().EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}
	b, err := build().EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(a) != string(b) {
		t.Fatalf("encoding is not deterministic:\n%s\nvs\n%s", a, b)
	}

	header := strings.SplitN(string(a), "\n", 2)[0]
	want := "Date,PortfolioValue,Price_SPY,Price_QQQ,PortfolioPct,Pct_SPY,Pct_QQQ,Diff_SPY,Diff_QQQ"
	if header != want {
		t.Errorf("header = %s, want %s", header, want)
	}
}

func TestLedgerRoundTrip(t *testing.T) {
	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2025-01-02"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500")})
	l.Upsert(d("2025-01-03"), dec("10100.25"), map[string]decimal.Decimal{"SPY": dec("505")})
	if err := l.Rebase(""); err != nil {
		t.Fatal(err)
	}
	out, err := l.EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}

	back, err := DecodeLedger(out, []string{"SPY"})
	if err != nil {
		t.Fatal(err)
	}
	if err := back.Rebase(""); err != nil {
		t.Fatal(err)
	}
	out2, err := back.EncodeBytes()
	if err != nil {
		t.Fatal(err)
	}
	if string(out) != string(out2) {
		t.Errorf("round trip is not byte identical:\n%s\nvs\n%s", out, out2)
	}
}

func TestDecodeLedgerLenient(t *testing.T) {
	in := strings.Join([]string{
		"date,portfoliovalue,price_spy", // case-insensitive header
		"2025-01-03,10100,505",
		"2025-01-02,10000,500",
		"2025-01-02,10050,501", // duplicate date: last wins
		"bogus,1,1",            // invalid date dropped
		"2025-01-04,abc,1",     // invalid value dropped
	}, "\n")

	l, err := DecodeLedger([]byte(in), []string{"SPY"})
	if err != nil {
		t.Fatal(err)
	}
	if l.Len() != 2 {
		t.Fatalf("Len = %d, want 2", l.Len())
	}
	rows := l.Rows()
	if rows[0].Day != d("2025-01-02") || rows[1].Day != d("2025-01-03") {
		t.Errorf("rows out of order: %s, %s", rows[0].Day, rows[1].Day)
	}
	if !rows[0].PortfolioValue.Equal(dec("10050")) {
		t.Errorf("duplicate date must keep the last row, got %s", rows[0].PortfolioValue)
	}
}

func TestDecodeLedgerEmpty(t *testing.T) {
	for _, in := range []string{"", "   \n"} {
		l, err := DecodeLedger([]byte(in), []string{"SPY"})
		if err != nil {
			t.Fatalf("DecodeLedger(%q): %v", in, err)
		}
		if l.Len() != 0 {
			t.Errorf("DecodeLedger(%q) Len = %d, want 0", in, l.Len())
		}
	}
}

func TestLedgerAlphaSummary(t *testing.T) {
	l := NewLedger([]string{"SPY"})
	l.Upsert(d("2025-01-02"), dec("10000"), map[string]decimal.Decimal{"SPY": dec("500")})
	l.Upsert(d("2025-01-03"), dec("10500"), map[string]decimal.Decimal{"SPY": dec("510")})
	if err := l.Rebase(""); err != nil {
		t.Fatal(err)
	}

	alpha := l.AlphaSummary()
	// Portfolio +5%, baseline +2%: alpha 3 points.
	if got, ok := alpha["SPY"]; !ok || !got.Equal(dec("0.03")) {
		t.Errorf("alpha[SPY] = %s (ok %v), want 0.03", got, ok)
	}
}
