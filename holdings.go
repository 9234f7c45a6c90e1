package tickbook

import (
	"bytes"
	"encoding/csv"
	"fmt"
	"io"

	"github.com/shopspring/decimal"
)

// Holding is one tracked position: a ticker and its quantity.
type Holding struct {
	Ticker   string
	Quantity decimal.Decimal
}

// ParseHoldings parses the holdings table (ticker, quantity). The first
// row is treated as a header. Rows whose quantity does not parse are
// skipped: the holdings table is maintained by hand and a bad row must
// not take the valuation down with it.
func ParseHoldings(data []byte) ([]Holding, error) {
	r := csv.NewReader(bytes.NewReader(data))
	r.FieldsPerRecord = -1
	r.TrimLeadingSpace = true

	var holdings []Holding
	first := true
	for {
		rec, err := r.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("parsing holdings: %w", err)
		}
		if first {
			first = false
			continue
		}
		if len(rec) < 2 {
			continue
		}
		ticker := normalizeTicker(rec[0])
		qty, err := decimal.NewFromString(trimField(rec[1]))
		if ticker == "" || err != nil {
			continue
		}
		holdings = append(holdings, Holding{Ticker: ticker, Quantity: qty})
	}
	return holdings, nil
}

// HeldTickers returns the set of tickers with a strictly positive quantity.
func HeldTickers(holdings []Holding) map[string]bool {
	held := make(map[string]bool)
	for _, h := range holdings {
		if h.Quantity.IsPositive() {
			held[h.Ticker] = true
		}
	}
	return held
}
