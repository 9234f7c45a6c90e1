package tickbook

import (
	"slices"
	"sort"

	"github.com/oakledger/tickbook/date"
	"github.com/shopspring/decimal"
)

// PricePoint is one (date, price) observation for a ticker.
type PricePoint struct {
	Day   date.Date
	Price decimal.Decimal
}

// priceSeries keeps one ticker's prices chronologically sorted with
// unique days. Appending to an existing day overwrites: latest write wins.
type priceSeries struct {
	days   []date.Date
	prices []decimal.Decimal
}

func (s *priceSeries) append(day date.Date, price decimal.Decimal) {
	i, found := slices.BinarySearchFunc(s.days, day, date.Date.Compare)
	if found {
		s.prices[i] = price
		return
	}
	s.days = slices.Insert(s.days, i, day)
	s.prices = slices.Insert(s.prices, i, price)
}

func (s *priceSeries) get(day date.Date) (decimal.Decimal, bool) {
	i, found := slices.BinarySearchFunc(s.days, day, date.Date.Compare)
	if !found {
		return decimal.Decimal{}, false
	}
	return s.prices[i], true
}

// asOf returns the price on day, or the most recent one before it.
func (s *priceSeries) asOf(day date.Date) (decimal.Decimal, bool) {
	i, found := slices.BinarySearchFunc(s.days, day, date.Date.Compare)
	if found {
		return s.prices[i], true
	}
	if i == 0 {
		return decimal.Decimal{}, false
	}
	return s.prices[i-1], true
}

// HistoricalStore is the in-memory (date, ticker) → price mapping.
// It is loaded from the flat history table, mutated by the backfill and
// the live-quote merge, and re-serialized deterministically.
type HistoricalStore struct {
	series map[string]*priceSeries
}

// NewHistoricalStore returns an empty store.
func NewHistoricalStore() *HistoricalStore {
	return &HistoricalStore{series: make(map[string]*priceSeries)}
}

// Upsert records a price for (ticker, day), replacing any previous value.
// Non-positive prices are ignored: the store only ever holds price > 0.
func (h *HistoricalStore) Upsert(ticker string, day date.Date, price decimal.Decimal) {
	if !price.IsPositive() {
		return
	}
	s, ok := h.series[ticker]
	if !ok {
		s = &priceSeries{}
		h.series[ticker] = s
	}
	s.append(day, price)
}

// Merge upserts every point that falls inside the window and returns
// how many were taken.
func (h *HistoricalStore) Merge(ticker string, points []PricePoint, window date.Range) int {
	n := 0
	for _, p := range points {
		if !window.Contains(p.Day) || !p.Price.IsPositive() {
			continue
		}
		h.Upsert(ticker, p.Day, p.Price)
		n++
	}
	return n
}

// Purge removes every ticker absent from the required set and returns
// the removed tickers, sorted.
func (h *HistoricalStore) Purge(required map[string]bool) []string {
	var removed []string
	for t := range h.series {
		if !required[t] {
			delete(h.series, t)
			removed = append(removed, t)
		}
	}
	sort.Strings(removed)
	return removed
}

// Has reports whether the store holds at least one price for ticker.
func (h *HistoricalStore) Has(ticker string) bool {
	s, ok := h.series[ticker]
	return ok && len(s.days) > 0
}

// Bounds returns the first and last covered day of a ticker.
func (h *HistoricalStore) Bounds(ticker string) (min, max date.Date, ok bool) {
	s, found := h.series[ticker]
	if !found || len(s.days) == 0 {
		return date.Date{}, date.Date{}, false
	}
	return s.days[0], s.days[len(s.days)-1], true
}

// Price returns the price of ticker on exactly day.
func (h *HistoricalStore) Price(ticker string, day date.Date) (decimal.Decimal, bool) {
	s, ok := h.series[ticker]
	if !ok {
		return decimal.Decimal{}, false
	}
	return s.get(day)
}

// PriceAsOf returns the ticker's price on day or the most recent one before it.
func (h *HistoricalStore) PriceAsOf(ticker string, day date.Date) (decimal.Decimal, bool) {
	s, ok := h.series[ticker]
	if !ok {
		return decimal.Decimal{}, false
	}
	return s.asOf(day)
}

// AsOf returns the most recent date present anywhere in the store.
func (h *HistoricalStore) AsOf() (date.Date, bool) {
	var max date.Date
	found := false
	for _, s := range h.series {
		if len(s.days) == 0 {
			continue
		}
		if last := s.days[len(s.days)-1]; !found || last.After(max) {
			max = last
			found = true
		}
	}
	return max, found
}

// Tickers returns the tickers present in the store, sorted.
func (h *HistoricalStore) Tickers() []string {
	out := make([]string, 0, len(h.series))
	for t := range h.series {
		if len(h.series[t].days) > 0 {
			out = append(out, t)
		}
	}
	sort.Strings(out)
	return out
}

// Len returns the total number of price records.
func (h *HistoricalStore) Len() int {
	n := 0
	for _, s := range h.series {
		n += len(s.days)
	}
	return n
}

// Series returns the ticker's (day, price) observations on or after
// from, as float64 values ready for statistics.
func (h *HistoricalStore) Series(ticker string, from date.Date) ([]date.Date, []float64) {
	s, ok := h.series[ticker]
	if !ok {
		return nil, nil
	}
	i, _ := slices.BinarySearchFunc(s.days, from, date.Date.Compare)
	days := make([]date.Date, len(s.days)-i)
	prices := make([]float64, len(s.days)-i)
	copy(days, s.days[i:])
	for j, p := range s.prices[i:] {
		prices[j] = p.InexactFloat64()
	}
	return days, prices
}
