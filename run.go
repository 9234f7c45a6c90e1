package tickbook

import (
	"context"
	"fmt"
	"time"

	"github.com/oakledger/tickbook/blob"
	"github.com/oakledger/tickbook/date"
	"github.com/oakledger/tickbook/kvstore"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
)

// Runner owns one invocation of the pipeline: resolve the universe,
// purge and backfill the price store, take live quotes, snapshot the
// portfolio and update the performance ledger. All mutation happens in
// memory; the backing blobs and cursors are written in one flush at
// the end, so a crash mid-run leaves the persisted state exactly as
// the previous run left it.
type Runner struct {
	cfg    Config
	blobs  blob.Store
	kv     kvstore.Store
	oracle PriceOracle
	log    zerolog.Logger
	now    func() time.Time
}

// RunResult is everything a single invocation produced.
type RunResult struct {
	Snapshot    *Snapshot
	Backfill    *BackfillReport
	LedgerAlpha map[string]decimal.Decimal
	Purged      []string
	Diagnostics []Diagnostic
}

// NewRunner wires a runner over its backing stores and price feed.
func NewRunner(cfg Config, blobs blob.Store, kv kvstore.Store, oracle PriceOracle, log zerolog.Logger) *Runner {
	return &Runner{
		cfg:    cfg,
		blobs:  blobs,
		kv:     kv,
		oracle: oracle,
		log:    log,
		now:    time.Now,
	}
}

// inputs bundles the parsed governance files.
type inputs struct {
	policy   *Policy
	tracker  []string
	holdings []Holding
}

func (r *Runner) loadInputs(ctx context.Context) (*inputs, error) {
	policyData, err := r.blobs.Get(ctx, r.cfg.PolicyObject)
	if err != nil {
		return nil, fmt.Errorf("loading policy %q: %w", r.cfg.PolicyObject, err)
	}
	pol, err := ParsePolicy(policyData)
	if err != nil {
		return nil, fmt.Errorf("parsing policy %q: %w", r.cfg.PolicyObject, err)
	}

	trackerData, err := r.blobs.Get(ctx, r.cfg.TrackerObject)
	if err != nil {
		return nil, fmt.Errorf("loading tracker %q: %w", r.cfg.TrackerObject, err)
	}
	tracker, err := ParseTracker(trackerData)
	if err != nil {
		return nil, fmt.Errorf("parsing tracker %q: %w", r.cfg.TrackerObject, err)
	}

	holdingsData, err := r.blobs.Get(ctx, r.cfg.HoldingsObject)
	if err != nil {
		return nil, fmt.Errorf("loading holdings %q: %w", r.cfg.HoldingsObject, err)
	}
	holdings, err := ParseHoldings(holdingsData)
	if err != nil {
		return nil, fmt.Errorf("parsing holdings %q: %w", r.cfg.HoldingsObject, err)
	}

	return &inputs{policy: pol, tracker: tracker, holdings: holdings}, nil
}

// loadStore reads the persisted price history. Only a missing blob
// yields a fresh store for the backfiller to populate; a blob that
// exists but holds no valid row is corrupt and fatal.
func (r *Runner) loadStore(ctx context.Context) (*HistoricalStore, error) {
	data, err := r.blobs.Get(ctx, r.cfg.HistoryObject)
	if blob.IsNotExist(err) {
		return NewHistoricalStore(), nil
	}
	if err != nil {
		return nil, fmt.Errorf("loading history %q: %w", r.cfg.HistoryObject, err)
	}
	store, err := DecodeHistoryBytes(data)
	if err != nil {
		return nil, fmt.Errorf("decoding history %q: %w", r.cfg.HistoryObject, err)
	}
	return store, nil
}

// Run executes the full pipeline.
func (r *Runner) Run(ctx context.Context) (*RunResult, error) {
	start := r.now()
	today := date.New(start.Year(), start.Month(), start.Day())
	diags := &Diagnostics{}

	in, err := r.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	universe, err := ResolveUniverse(in.tracker, in.policy, in.holdings, diags)
	if err != nil {
		return nil, err
	}
	store, err := r.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	cursors, err := LoadCursors(ctx, r.kv)
	if err != nil {
		return nil, fmt.Errorf("loading backfill cursors: %w", err)
	}

	// Drop tickers no input requires any more, history and cursor both.
	purged := store.Purge(universe.RequiredSet())
	for _, t := range purged {
		cursors.Delete(t)
		diags.Infof(t, "purged: no longer in tracker, policy or holdings")
	}
	if len(purged) > 0 {
		r.log.Info().Strs("tickers", purged).Msg("purged stale tickers")
	}

	requiredStart := today.Add(-r.cfg.WindowDays)
	backfiller := NewBackfiller(store, r.oracle, cursors, r.cfg, r.log)
	backfiller.now = r.now
	report, err := backfiller.Run(ctx, universe.Required, requiredStart, today, start.Add(r.cfg.Budget.Std()), diags)
	if err != nil {
		return nil, err
	}

	r.liveQuotes(ctx, store, universe, in.policy, today, diags)

	snapshotter := NewSnapshotter(store, in.policy, r.cfg)
	snap, err := snapshotter.Snapshot(in.holdings, universe.Held, diags)
	if err != nil {
		return nil, err
	}

	ledgerBytes, alpha, ledgerErr := r.updateLedger(ctx, store, in.policy, snap)

	// Single flush at the end. Order matters little: each Put is
	// all-or-nothing on its own object. History and cursors are written
	// even when the ledger update failed, so backfill progress is never
	// lost to a bad base row.
	historyBytes, err := store.EncodeHistoryBytes()
	if err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	if err := r.blobs.Put(ctx, r.cfg.HistoryObject, historyBytes); err != nil {
		return nil, fmt.Errorf("writing history %q: %w", r.cfg.HistoryObject, err)
	}
	if ledgerBytes != nil {
		if err := r.blobs.Put(ctx, r.cfg.LedgerObject, ledgerBytes); err != nil {
			return nil, fmt.Errorf("writing ledger %q: %w", r.cfg.LedgerObject, err)
		}
	}
	if err := cursors.Flush(ctx, r.kv); err != nil {
		return nil, fmt.Errorf("flushing cursors: %w", err)
	}
	if ledgerErr != nil {
		r.log.Error().Err(ledgerErr).Msg("ledger update failed")
		return nil, ledgerErr
	}

	return &RunResult{
		Snapshot:    snap,
		Backfill:    report,
		LedgerAlpha: alpha,
		Purged:      purged,
		Diagnostics: diags.All(),
	}, nil
}

// Sync runs universe resolution, purge, backfill and the live quote
// merge, then flushes history and cursors. No snapshot, no ledger
// write.
func (r *Runner) Sync(ctx context.Context) (*RunResult, error) {
	start := r.now()
	today := date.New(start.Year(), start.Month(), start.Day())
	diags := &Diagnostics{}

	in, err := r.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	universe, err := ResolveUniverse(in.tracker, in.policy, in.holdings, diags)
	if err != nil {
		return nil, err
	}
	store, err := r.loadStore(ctx)
	if err != nil {
		return nil, err
	}
	cursors, err := LoadCursors(ctx, r.kv)
	if err != nil {
		return nil, fmt.Errorf("loading backfill cursors: %w", err)
	}

	purged := store.Purge(universe.RequiredSet())
	for _, t := range purged {
		cursors.Delete(t)
		diags.Infof(t, "purged: no longer in tracker, policy or holdings")
	}

	requiredStart := today.Add(-r.cfg.WindowDays)
	backfiller := NewBackfiller(store, r.oracle, cursors, r.cfg, r.log)
	backfiller.now = r.now
	report, err := backfiller.Run(ctx, universe.Required, requiredStart, today, start.Add(r.cfg.Budget.Std()), diags)
	if err != nil {
		return nil, err
	}

	r.liveQuotes(ctx, store, universe, in.policy, today, diags)

	historyBytes, err := store.EncodeHistoryBytes()
	if err != nil {
		return nil, fmt.Errorf("encoding history: %w", err)
	}
	if err := r.blobs.Put(ctx, r.cfg.HistoryObject, historyBytes); err != nil {
		return nil, fmt.Errorf("writing history %q: %w", r.cfg.HistoryObject, err)
	}
	if err := cursors.Flush(ctx, r.kv); err != nil {
		return nil, fmt.Errorf("flushing cursors: %w", err)
	}

	return &RunResult{Backfill: report, Purged: purged, Diagnostics: diags.All()}, nil
}

// Ledger upserts a row valued from the persisted history and rebases
// the whole table, without touching the network. The rewritten ledger
// is returned encoded.
func (r *Runner) Ledger(ctx context.Context) ([]byte, map[string]decimal.Decimal, error) {
	diags := &Diagnostics{}

	in, err := r.loadInputs(ctx)
	if err != nil {
		return nil, nil, err
	}
	universe, err := ResolveUniverse(in.tracker, in.policy, in.holdings, diags)
	if err != nil {
		return nil, nil, err
	}
	store, err := r.loadStore(ctx)
	if err != nil {
		return nil, nil, err
	}

	snapshotter := NewSnapshotter(store, in.policy, r.cfg)
	snap, err := snapshotter.Snapshot(in.holdings, universe.Held, diags)
	if err != nil {
		return nil, nil, err
	}

	out, alpha, err := r.updateLedger(ctx, store, in.policy, snap)
	if err != nil {
		return nil, nil, err
	}
	if err := r.blobs.Put(ctx, r.cfg.LedgerObject, out); err != nil {
		return nil, nil, fmt.Errorf("writing ledger %q: %w", r.cfg.LedgerObject, err)
	}
	return out, alpha, nil
}

// Report snapshots from the persisted stores without touching the
// network and without writing anything back.
func (r *Runner) Report(ctx context.Context) (*RunResult, error) {
	diags := &Diagnostics{}

	in, err := r.loadInputs(ctx)
	if err != nil {
		return nil, err
	}
	universe, err := ResolveUniverse(in.tracker, in.policy, in.holdings, diags)
	if err != nil {
		return nil, err
	}
	store, err := r.loadStore(ctx)
	if err != nil {
		return nil, err
	}

	snapshotter := NewSnapshotter(store, in.policy, r.cfg)
	snap, err := snapshotter.Snapshot(in.holdings, universe.Held, diags)
	if err != nil {
		return nil, err
	}

	ledgerData, err := r.blobs.Get(ctx, r.cfg.LedgerObject)
	if err != nil && !blob.IsNotExist(err) {
		return nil, fmt.Errorf("loading ledger %q: %w", r.cfg.LedgerObject, err)
	}
	ledger, err := DecodeLedger(ledgerData, in.policy.Baselines)
	if err != nil {
		return nil, err
	}

	return &RunResult{
		Snapshot:    snap,
		LedgerAlpha: ledger.AlphaSummary(),
		Diagnostics: diags.All(),
	}, nil
}

// liveQuotes fetches today's point quote for every required ticker and
// upserts it into the store. Fixed-price tickers are synthetic and
// never quoted. A missing or invalid quote is skipped; it only rates a
// warning when the policy mandates the ticker.
func (r *Runner) liveQuotes(ctx context.Context, store *HistoricalStore, universe *Universe, pol *Policy, today date.Date, diags *Diagnostics) {
	for _, ticker := range universe.Required {
		if _, fixed := pol.FixedPrices[ticker]; fixed {
			continue
		}
		price, ok, err := r.oracle.PointQuote(ctx, ticker)
		if err != nil || !ok || !price.IsPositive() {
			if universe.PolicyRequired[ticker] {
				diags.Warnf(ticker, "no live quote for policy-required ticker")
				r.log.Warn().Err(err).Str("ticker", ticker).Msg("live quote unavailable")
			}
			continue
		}
		store.Upsert(ticker, today, price)
	}
}

// updateLedger upserts today's row and rebases the whole table. Any
// failure leaves the persisted ledger untouched and returns nil bytes
// alongside the error.
func (r *Runner) updateLedger(ctx context.Context, store *HistoricalStore, pol *Policy, snap *Snapshot) ([]byte, map[string]decimal.Decimal, error) {
	data, err := r.blobs.Get(ctx, r.cfg.LedgerObject)
	if err != nil && !blob.IsNotExist(err) {
		return nil, nil, fmt.Errorf("loading ledger %q: %w", r.cfg.LedgerObject, err)
	}
	ledger, err := DecodeLedger(data, pol.Baselines)
	if err != nil {
		return nil, nil, fmt.Errorf("decoding ledger %q: %w", r.cfg.LedgerObject, err)
	}

	prices := make(map[string]decimal.Decimal, len(pol.Baselines))
	for _, b := range pol.Baselines {
		if p, ok := store.PriceAsOf(b, snap.AsOf); ok {
			prices[b] = p
		}
	}
	ledger.Upsert(snap.AsOf, snap.PortfolioValue.Amount(), prices)

	if err := ledger.Rebase(pol.BaseDate); err != nil {
		return nil, nil, fmt.Errorf("ledger update aborted: %w", err)
	}

	out, err := ledger.EncodeBytes()
	if err != nil {
		return nil, nil, fmt.Errorf("encoding ledger: %w", err)
	}
	return out, ledger.AlphaSummary(), nil
}
