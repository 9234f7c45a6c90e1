package tickbook

import (
	"context"
	"fmt"
	"time"

	"github.com/oakledger/tickbook/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// PriceOracle is the external quote feed.
type PriceOracle interface {
	// RangeQuote returns daily closes for the inclusive range. The
	// result may be partial or empty on failure.
	RangeQuote(ctx context.Context, ticker string, r date.Range) ([]PricePoint, error)
	// PointQuote returns the current price, or ok=false when the feed
	// has none.
	PointQuote(ctx context.Context, ticker string) (price decimal.Decimal, ok bool, err error)
}

// BackfillReport summarizes one invocation of the backfiller.
type BackfillReport struct {
	// Merged counts the rows merged into the store, per fetched ticker.
	Merged map[string]int
	// Completed lists tickers whose coverage reached the required start
	// this invocation (cursor deleted).
	Completed []string
	// Unfinished lists tickers skipped because the deadline passed
	// before their chunk started. They resume next invocation.
	Unfinished []string
}

// Backfiller walks the required tickers and fetches at most one
// history chunk per ticker per invocation, resuming from the persisted
// cursor. Work never starts after the deadline; work in flight is
// never interrupted.
type Backfiller struct {
	store   *HistoricalStore
	oracle  PriceOracle
	cursors *CursorSet
	chunk   int
	now     func() time.Time
	log     zerolog.Logger
}

// NewBackfiller wires a backfiller over the store, oracle and staged cursors.
func NewBackfiller(store *HistoricalStore, oracle PriceOracle, cursors *CursorSet, cfg Config, log zerolog.Logger) *Backfiller {
	return &Backfiller{
		store:   store,
		oracle:  oracle,
		cursors: cursors,
		chunk:   cfg.ChunkDays,
		now:     time.Now,
		log:     log,
	}
}

// Run processes the tickers in order until all are handled or the
// deadline passes. Fetch failures leave the cursor untouched: the
// request is a pure function of unchanged state, so the exact same
// chunk is retried next invocation.
func (b *Backfiller) Run(ctx context.Context, tickers []string, requiredStart, today date.Date, deadline time.Time, diags *Diagnostics) (*BackfillReport, error) {
	report := &BackfillReport{Merged: make(map[string]int)}
	// Merges are restricted to [requiredStart, today): today's value
	// comes from the live point quote, never from a range fetch.
	window := date.NewRange(requiredStart, today.Add(-1))

	for i, ticker := range tickers {
		// The budget check happens only before a ticker's chunk starts,
		// never mid-chunk.
		if b.now().After(deadline) {
			report.Unfinished = append(report.Unfinished, tickers[i:]...)
			diags.Infof("", "backfill budget exhausted, %d tickers deferred to next run", len(report.Unfinished))
			b.log.Info().Int("deferred", len(report.Unfinished)).Msg("backfill budget exhausted")
			break
		}
		if err := b.step(ctx, ticker, requiredStart, today, window, report, diags); err != nil {
			return nil, err
		}
	}
	return report, nil
}

// step performs the per-ticker cursor state machine transition.
func (b *Backfiller) step(ctx context.Context, ticker string, requiredStart, today date.Date, window date.Range, report *BackfillReport, diags *Diagnostics) error {
	cursor := b.cursors.Get(ticker)
	minDay, _, hasData := b.store.Bounds(ticker)

	// Resolve the end of the next chunk. A valid cursor takes
	// precedence over the store's actual coverage.
	var chunkEnd date.Date
	switch {
	case cursor.InProgress():
		chunkEnd = cursor.Boundary()
	case hasData && minDay.After(requiredStart):
		chunkEnd = minDay.Add(-1)
	case !hasData:
		chunkEnd = today.Add(-1)
	default:
		// Coverage already reaches the required start. Any persisted
		// value left under this ticker did not parse as a boundary;
		// drop it rather than carry the garbage forever.
		b.cursors.Delete(ticker)
		return nil
	}

	if chunkEnd.Before(requiredStart) {
		b.cursors.Delete(ticker)
		report.Completed = append(report.Completed, ticker)
		return nil
	}

	chunkStart := requiredStart
	if alt := chunkEnd.Add(-(b.chunk - 1)); alt.After(requiredStart) {
		chunkStart = alt
	}

	points, err := b.oracle.RangeQuote(ctx, ticker, date.NewRange(chunkStart, chunkEnd))
	if err != nil || len(points) == 0 {
		// Zero rows ingested, cursor unchanged: the identical chunk is
		// retried next invocation.
		if err != nil {
			diags.Warnf(ticker, "range fetch %s..%s failed, will retry: %v", chunkStart, chunkEnd, err)
			b.log.Warn().Err(err).Str("ticker", ticker).Msg("range fetch failed")
		} else {
			diags.Warnf(ticker, "range fetch %s..%s returned no rows, will retry", chunkStart, chunkEnd)
		}
		return nil
	}

	merged := b.store.Merge(ticker, points, window)
	report.Merged[ticker] = merged
	b.log.Debug().Str("ticker", ticker).Int("rows", merged).
		Str("from", chunkStart.String()).Str("to", chunkEnd.String()).Msg("chunk merged")

	next := chunkStart.Add(-1)
	if !next.Before(requiredStart) {
		if err := b.cursors.Set(ticker, next); err != nil {
			// A non-decreasing cursor violates the resumption invariant.
			return fmt.Errorf("backfill invariant violated: %w", err)
		}
		return nil
	}
	b.cursors.Delete(ticker)
	report.Completed = append(report.Completed, ticker)
	return nil
}
