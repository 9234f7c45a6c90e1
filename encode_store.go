package tickbook

import (
	"bytes"
	"encoding/csv"
	"errors"
	"fmt"
	"io"
	"sort"
	"strings"

	"github.com/oakledger/tickbook/date"
	"github.com/shopspring/decimal"
)

// This file persists the historical store as a flat CSV table
// (date, ticker, price), re-emitted in a stable order so successive
// runs produce diff-friendly output.

// ErrEmptyHistory is returned when the history table has no usable
// rows: there is no way to bootstrap the schema from nothing, so the
// whole run aborts.
var ErrEmptyHistory = errors.New("history table is empty or has no valid rows")

// priceColumns are the accepted price header names, in priority order.
var priceColumns = []string{"adjclose", "close", "price"}

func trimField(s string) string { return strings.TrimSpace(s) }

// DecodeHistory parses the flat history table. The header row is
// located by name, case-insensitively; the price column may be any of
// AdjClose, Close or Price. Short rows are padded and long rows
// truncated to the header width before parsing. Rows with an invalid
// date, a blank ticker or a non-positive price are dropped.
func DecodeHistory(r io.Reader) (*HistoricalStore, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return nil, ErrEmptyHistory
	}
	if err != nil {
		return nil, fmt.Errorf("reading history header: %w", err)
	}

	dateCol, tickerCol, priceCol := -1, -1, -1
	for i, name := range header {
		switch n := strings.ToLower(trimField(name)); {
		case n == "date" && dateCol < 0:
			dateCol = i
		case n == "ticker" && tickerCol < 0:
			tickerCol = i
		}
	}
	for _, cand := range priceColumns {
		for i, name := range header {
			if strings.ToLower(trimField(name)) == cand {
				priceCol = i
				break
			}
		}
		if priceCol >= 0 {
			break
		}
	}
	if dateCol < 0 || tickerCol < 0 || priceCol < 0 {
		return nil, fmt.Errorf("history table is missing a date, ticker or price column (header: %s)", strings.Join(header, ","))
	}

	store := NewHistoricalStore()
	width := len(header)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading history row: %w", err)
		}
		// Pad or truncate to the header width.
		for len(rec) < width {
			rec = append(rec, "")
		}
		rec = rec[:width]

		day, err := date.Parse(trimField(rec[dateCol]))
		if err != nil {
			continue
		}
		ticker := normalizeTicker(rec[tickerCol])
		if ticker == "" {
			continue
		}
		price, err := decimal.NewFromString(trimField(rec[priceCol]))
		if err != nil || !price.IsPositive() {
			continue
		}
		store.Upsert(ticker, day, price)
	}

	if store.Len() == 0 {
		return nil, ErrEmptyHistory
	}
	return store, nil
}

// DecodeHistoryBytes is DecodeHistory over a byte slice.
func DecodeHistoryBytes(data []byte) (*HistoricalStore, error) {
	return DecodeHistory(bytes.NewReader(data))
}

// EncodeHistory writes the store as CSV sorted by (date ascending,
// ticker ascending). Identical stores produce byte-identical output.
func (h *HistoricalStore) EncodeHistory(w io.Writer) error {
	type row struct {
		day    date.Date
		ticker string
		price  decimal.Decimal
	}
	rows := make([]row, 0, h.Len())
	for _, ticker := range h.Tickers() {
		s := h.series[ticker]
		for i, day := range s.days {
			rows = append(rows, row{day, ticker, s.prices[i]})
		}
	}
	sort.Slice(rows, func(i, j int) bool {
		if c := rows[i].day.Compare(rows[j].day); c != 0 {
			return c < 0
		}
		return rows[i].ticker < rows[j].ticker
	})

	cw := csv.NewWriter(w)
	if err := cw.Write([]string{"date", "ticker", "price"}); err != nil {
		return err
	}
	for _, r := range rows {
		if err := cw.Write([]string{r.day.String(), r.ticker, r.price.String()}); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeHistoryBytes is EncodeHistory into a byte slice.
func (h *HistoricalStore) EncodeHistoryBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := h.EncodeHistory(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
