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

// The performance ledger is an ordered, date-unique table of portfolio
// value and raw baseline prices, with percentage columns rebased
// against one fixed base row. The whole table is recomputed on every
// update from the raw columns alone, so identical rows always encode
// to identical bytes and appending a day never changes another row.

// pctPlaces fixes the serialized precision of the percentage columns.
const pctPlaces = 6

// ErrInvalidBase is returned when the base row cannot serve as a
// rebase denominator. The ledger update aborts and the persisted
// ledger stays untouched.
var ErrInvalidBase = errors.New("invalid ledger base row")

// LedgerRow is one day of the performance ledger. Pct and Diff cells
// are NullDecimal: rows before the base row are "not applicable",
// never zero or interpolated.
type LedgerRow struct {
	Day            date.Date
	PortfolioValue decimal.Decimal
	Prices         map[string]decimal.NullDecimal
	PortfolioPct   decimal.NullDecimal
	Pct            map[string]decimal.NullDecimal
	Diff           map[string]decimal.NullDecimal
}

// Ledger is the in-memory performance ledger for a fixed baseline set.
type Ledger struct {
	baselines []string
	rows      []*LedgerRow
}

// NewLedger returns an empty ledger for the given baselines.
func NewLedger(baselines []string) *Ledger {
	return &Ledger{baselines: append([]string(nil), baselines...)}
}

// Rows returns the rows in ascending date order.
func (l *Ledger) Rows() []*LedgerRow { return l.rows }

// Len returns the number of rows.
func (l *Ledger) Len() int { return len(l.rows) }

// headerIndex locates a column by name, case-insensitively.
func headerIndex(header []string, name string) int {
	for i, h := range header {
		if strings.EqualFold(trimField(h), name) {
			return i
		}
	}
	return -1
}

// DecodeLedger parses a persisted ledger for the configured baselines.
// Empty input yields an empty ledger (a brand-new log). Rows with an
// invalid date are dropped; duplicate dates keep the last occurrence.
// Pct and Diff columns are not read back: they are derived data and
// are recomputed on Rebase.
func DecodeLedger(data []byte, baselines []string) (*Ledger, error) {
	l := NewLedger(baselines)
	if len(bytes.TrimSpace(data)) == 0 {
		return l, nil
	}

	cr := csv.NewReader(bytes.NewReader(data))
	cr.FieldsPerRecord = -1
	cr.TrimLeadingSpace = true

	header, err := cr.Read()
	if err == io.EOF {
		return l, nil
	}
	if err != nil {
		return nil, fmt.Errorf("reading ledger header: %w", err)
	}

	dateCol := headerIndex(header, "Date")
	valueCol := headerIndex(header, "PortfolioValue")
	if dateCol < 0 || valueCol < 0 {
		return nil, fmt.Errorf("ledger table is missing Date or PortfolioValue column (header: %s)", strings.Join(header, ","))
	}
	priceCols := make(map[string]int, len(baselines))
	for _, b := range baselines {
		priceCols[b] = headerIndex(header, "Price_"+b)
	}

	byDay := make(map[date.Date]*LedgerRow)
	for {
		rec, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, fmt.Errorf("reading ledger row: %w", err)
		}
		get := func(i int) string {
			if i < 0 || i >= len(rec) {
				return ""
			}
			return trimField(rec[i])
		}

		day, err := date.Parse(get(dateCol))
		if err != nil {
			continue
		}
		value, err := decimal.NewFromString(get(valueCol))
		if err != nil {
			continue
		}

		row := &LedgerRow{Day: day, PortfolioValue: value, Prices: make(map[string]decimal.NullDecimal)}
		for _, b := range baselines {
			if p, err := decimal.NewFromString(get(priceCols[b])); err == nil {
				row.Prices[b] = decimal.NullDecimal{Decimal: p, Valid: true}
			}
		}
		byDay[day] = row // duplicate dates: last one wins
	}

	l.rows = make([]*LedgerRow, 0, len(byDay))
	for _, row := range byDay {
		l.rows = append(l.rows, row)
	}
	sort.Slice(l.rows, func(i, j int) bool { return l.rows[i].Day.Before(l.rows[j].Day) })
	return l, nil
}

// Upsert replaces or inserts the row for day, keeping rows ordered.
func (l *Ledger) Upsert(day date.Date, portfolioValue decimal.Decimal, prices map[string]decimal.Decimal) {
	row := &LedgerRow{Day: day, PortfolioValue: portfolioValue, Prices: make(map[string]decimal.NullDecimal)}
	for _, b := range l.baselines {
		if p, ok := prices[b]; ok {
			row.Prices[b] = decimal.NullDecimal{Decimal: p, Valid: true}
		}
	}

	i := sort.Search(len(l.rows), func(i int) bool { return !l.rows[i].Day.Before(day) })
	if i < len(l.rows) && l.rows[i].Day == day {
		l.rows[i] = row
		return
	}
	l.rows = append(l.rows, nil)
	copy(l.rows[i+1:], l.rows[i:])
	l.rows[i] = row
}

// baseIndex selects the base row: the first row on or after the
// configured base date, or the first row when the date is absent or
// not a valid date.
func (l *Ledger) baseIndex(baseDate string) (int, error) {
	if len(l.rows) == 0 {
		return 0, fmt.Errorf("%w: ledger has no rows", ErrInvalidBase)
	}
	base, err := date.Parse(baseDate)
	if err != nil {
		return 0, nil
	}
	for i, row := range l.rows {
		if !row.Day.Before(base) {
			return i, nil
		}
	}
	return 0, fmt.Errorf("%w: no row on or after base date %s", ErrInvalidBase, base)
}

// Rebase recomputes every percentage and diff column relative to the
// base row. It fails, leaving no partial state worth persisting, when
// the base row's portfolio value or any of its baseline prices is
// missing or non-positive: there is no denominator to rebase against.
func (l *Ledger) Rebase(baseDate string) error {
	baseIdx, err := l.baseIndex(baseDate)
	if err != nil {
		return err
	}
	base := l.rows[baseIdx]

	if !base.PortfolioValue.IsPositive() {
		return fmt.Errorf("%w: portfolio value %s on %s", ErrInvalidBase, base.PortfolioValue, base.Day)
	}
	basePrices := make(map[string]decimal.Decimal, len(l.baselines))
	for _, b := range l.baselines {
		p := base.Prices[b]
		if !p.Valid || !p.Decimal.IsPositive() {
			return fmt.Errorf("%w: baseline %s price missing or non-positive on %s", ErrInvalidBase, b, base.Day)
		}
		basePrices[b] = p.Decimal
	}

	one := decimal.NewFromInt(1)
	for i, row := range l.rows {
		row.PortfolioPct = decimal.NullDecimal{}
		row.Pct = make(map[string]decimal.NullDecimal, len(l.baselines))
		row.Diff = make(map[string]decimal.NullDecimal, len(l.baselines))
		if i < baseIdx {
			continue // strictly before the base row: not applicable
		}

		pct := row.PortfolioValue.Div(base.PortfolioValue).Sub(one).Round(pctPlaces)
		row.PortfolioPct = decimal.NullDecimal{Decimal: pct, Valid: true}

		for _, b := range l.baselines {
			p := row.Prices[b]
			if !p.Valid {
				continue // Pct and Diff stay not applicable
			}
			bPct := p.Decimal.Div(basePrices[b]).Sub(one).Round(pctPlaces)
			row.Pct[b] = decimal.NullDecimal{Decimal: bPct, Valid: true}
			row.Diff[b] = decimal.NullDecimal{Decimal: pct.Sub(bPct), Valid: true}
		}
	}
	return nil
}

// AlphaSummary returns, per baseline, the latest portfolio-vs-baseline
// diff (the alpha proxy of the most recent row that has one).
func (l *Ledger) AlphaSummary() map[string]decimal.Decimal {
	out := make(map[string]decimal.Decimal)
	for _, b := range l.baselines {
		for i := len(l.rows) - 1; i >= 0; i-- {
			if d := l.rows[i].Diff[b]; d.Valid {
				out[b] = d.Decimal
				break
			}
		}
	}
	return out
}

const notApplicable = "NA"

func pctCell(v decimal.NullDecimal) string {
	if !v.Valid {
		return notApplicable
	}
	return v.Decimal.StringFixed(pctPlaces)
}

// Encode writes the ledger as CSV in its canonical column order.
// Identical rows always produce byte-identical output.
func (l *Ledger) Encode(w io.Writer) error {
	header := []string{"Date", "PortfolioValue"}
	for _, b := range l.baselines {
		header = append(header, "Price_"+b)
	}
	header = append(header, "PortfolioPct")
	for _, b := range l.baselines {
		header = append(header, "Pct_"+b)
	}
	for _, b := range l.baselines {
		header = append(header, "Diff_"+b)
	}

	cw := csv.NewWriter(w)
	if err := cw.Write(header); err != nil {
		return err
	}
	for _, row := range l.rows {
		rec := []string{row.Day.String(), row.PortfolioValue.String()}
		for _, b := range l.baselines {
			if p := row.Prices[b]; p.Valid {
				rec = append(rec, p.Decimal.String())
			} else {
				rec = append(rec, notApplicable)
			}
		}
		rec = append(rec, pctCell(row.PortfolioPct))
		for _, b := range l.baselines {
			rec = append(rec, pctCell(row.Pct[b]))
		}
		for _, b := range l.baselines {
			rec = append(rec, pctCell(row.Diff[b]))
		}
		if err := cw.Write(rec); err != nil {
			return err
		}
	}
	cw.Flush()
	return cw.Error()
}

// EncodeBytes is Encode into a byte slice.
func (l *Ledger) EncodeBytes() ([]byte, error) {
	var buf bytes.Buffer
	if err := l.Encode(&buf); err != nil {
		return nil, err
	}
	return buf.Bytes(), nil
}
