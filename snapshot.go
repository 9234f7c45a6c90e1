package tickbook

import (
	"fmt"
	"sort"

	"github.com/oakledger/tickbook/date"
)

// AnalyticCode classifies a per-ticker analytic failure. Failures are
// captured per ticker and never abort the run.
type AnalyticCode string

const (
	// AnalyticOK means alpha was computed (correlation may still be unavailable).
	AnalyticOK AnalyticCode = ""
	// AnalyticNoData means one of the two series is empty in the window.
	AnalyticNoData AnalyticCode = "NO_DATA"
	// AnalyticGap means the aligned window has fewer than two points.
	AnalyticGap AnalyticCode = "GAP"
	// AnalyticBadDate means the entered_stage_date does not parse.
	AnalyticBadDate AnalyticCode = "BAD_DATE"
)

// ReviewState is where a ticker stands in its lifecycle review cycle.
type ReviewState int

const (
	// ReviewOnboarding: recently staged, too young for a review.
	ReviewOnboarding ReviewState = iota
	// ReviewDue: the review window has elapsed.
	ReviewDue
	// ReviewScheduled: a review is coming up in DueInDays.
	ReviewScheduled
	// ReviewUnknown: the entered date is unusable.
	ReviewUnknown
)

func (s ReviewState) String() string {
	switch s {
	case ReviewOnboarding:
		return "onboarding"
	case ReviewDue:
		return "review due"
	case ReviewScheduled:
		return "review scheduled"
	default:
		return "unknown"
	}
}

// TickerAnalytics is the lifecycle-relative performance of one
// activated ticker against one baseline.
type TickerAnalytics struct {
	Ticker   string
	Baseline string

	Alpha   float64
	AlphaOK bool

	Correlation   float64
	CorrelationOK bool

	DaysActive int
	Review     ReviewState
	// DueInDays is meaningful only for ReviewScheduled.
	DueInDays int

	Code AnalyticCode
}

// ReviewLabel renders the review state the way the report shows it.
func (a TickerAnalytics) ReviewLabel() string {
	if a.Review == ReviewScheduled {
		return fmt.Sprintf("review in %d days", a.DueInDays)
	}
	return a.Review.String()
}

// Snapshot is the analytics output of one invocation.
type Snapshot struct {
	AsOf           date.Date
	PortfolioValue Money
	Analytics      []TickerAnalytics
	Rankings       []Ranking
	Rotation       Rotation
}

// Snapshotter computes valuation and per-ticker analytics from the
// store, the holdings and the lifecycle policy.
type Snapshotter struct {
	store  *HistoricalStore
	policy *Policy
	cfg    Config
}

// NewSnapshotter wires a snapshotter. The config value is explicit:
// there is no global configuration to consult.
func NewSnapshotter(store *HistoricalStore, policy *Policy, cfg Config) *Snapshotter {
	return &Snapshotter{store: store, policy: policy, cfg: cfg}
}

// Snapshot values the holdings and computes analytics for every
// activated ticker against every configured baseline.
func (s *Snapshotter) Snapshot(holdings []Holding, held map[string]bool, diags *Diagnostics) (*Snapshot, error) {
	asOf, ok := s.store.AsOf()
	if !ok {
		return nil, ErrEmptyHistory
	}

	snap := &Snapshot{
		AsOf:           asOf,
		PortfolioValue: s.portfolioValue(holdings, asOf),
	}

	for _, ticker := range s.activatedTickers() {
		for _, baseline := range s.policy.Baselines {
			a := s.analyze(ticker, baseline, asOf)
			if a.Code != AnalyticOK {
				diags.Errorf(ticker, "analytics vs %s: %s", baseline, a.Code)
			}
			snap.Analytics = append(snap.Analytics, a)
		}
	}

	snap.Rankings = s.Rankings(asOf, held)
	snap.Rotation = suggestRotation(snap.Rankings)
	return snap, nil
}

// portfolioValue is the sum of quantity times price over the holdings.
// Price is the configured fixed override if present, else the latest
// store price on the as-of date; a ticker lacking both contributes
// zero silently.
func (s *Snapshotter) portfolioValue(holdings []Holding, asOf date.Date) Money {
	total := M(decimalZero, s.cfg.Currency)
	for _, h := range holdings {
		price, ok := s.policy.FixedPrices[h.Ticker]
		if !ok {
			price, ok = s.store.PriceAsOf(h.Ticker, asOf)
		}
		if !ok {
			continue
		}
		total = total.Add(M(h.Quantity.Mul(price), s.cfg.Currency))
	}
	return total
}

// activatedTickers returns the sorted tickers whose stage is activated.
func (s *Snapshotter) activatedTickers() []string {
	var out []string
	for ticker, lc := range s.policy.Constraints {
		if lc.Stage == StageActivated {
			out = append(out, ticker)
		}
	}
	sort.Strings(out)
	return out
}

// analyze computes alpha, correlation and review state for one
// (ticker, baseline) pair over [entered_stage_date, asOf].
func (s *Snapshotter) analyze(ticker, baseline string, asOf date.Date) TickerAnalytics {
	a := TickerAnalytics{Ticker: ticker, Baseline: baseline}

	entered, err := date.Parse(s.policy.EnteredStageOf(ticker))
	if err != nil {
		a.Code = AnalyticBadDate
		a.Review = ReviewUnknown
		return a
	}

	a.DaysActive = asOf.Sub(entered)
	switch {
	case a.DaysActive < s.cfg.OnboardingDays:
		a.Review = ReviewOnboarding
	case a.DaysActive >= s.cfg.ReviewDays:
		a.Review = ReviewDue
	default:
		a.Review = ReviewScheduled
		a.DueInDays = s.cfg.ReviewDays - a.DaysActive
	}

	tDays, tPrices := s.store.Series(ticker, entered)
	bDays, bPrices := s.store.Series(baseline, entered)
	if len(tDays) == 0 || len(bDays) == 0 {
		a.Code = AnalyticNoData
		return a
	}

	days, t, b := alignSeries(tDays, tPrices, bDays, bPrices)
	if len(days) < 2 {
		a.Code = AnalyticGap
		return a
	}

	tRet, tOK := totalReturn(t)
	bRet, bOK := totalReturn(b)
	if tOK && bOK {
		a.Alpha = tRet - bRet
		a.AlphaOK = true
	}

	// Correlation needs enough day-over-day return pairs; alpha can
	// still be valid when it does not.
	tDaily, bDaily := dailyReturns(t), dailyReturns(b)
	if len(tDaily) >= s.cfg.MinCorrelationPairs {
		if r, ok := pearson(tDaily, bDaily); ok {
			a.Correlation = r
			a.CorrelationOK = true
		}
	}
	return a
}
