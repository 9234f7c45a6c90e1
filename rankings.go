package tickbook

import (
	"fmt"
	"sort"
	"time"

	"github.com/oakledger/tickbook/date"
)

// rankingAlphaStart is the alpha window start for a candidate whose
// lifecycle entry has no parseable date.
var rankingAlphaStart = date.New(2024, time.January, 1)

// Ranking is one row of the momentum ranking table.
type Ranking struct {
	Ticker string
	// Score is the momentum total return over the lookback window.
	Score   float64
	ScoreOK bool
	// Alpha is the total-return difference versus the benchmark proxy
	// since the ticker entered its stage.
	Alpha   float64
	AlphaOK bool
	Proxy   string
	Sleeve  string
	Stage   Stage
	Held    bool
}

// Status renders the stage/held label used by the report.
func (r Ranking) Status() string {
	mode := "WATCH"
	if r.Held {
		mode = "HELD"
	}
	return fmt.Sprintf("%s/%s", r.Stage, mode)
}

// Rotation is the trim/buy suggestion derived from the rankings.
type Rotation struct {
	Trim string // weakest held ticker, "" when nothing is held
	Buy  string // strongest watch candidate above the buy threshold, "" when none
}

// Rankings scores the candidate tickers by momentum over the
// configured lookback. Candidates are the inducted and activated
// tickers plus everything held, restricted to tickers with history.
func (s *Snapshotter) Rankings(asOf date.Date, held map[string]bool) []Ranking {
	candidates := make(map[string]bool)
	for ticker, lc := range s.policy.Constraints {
		if lc.Stage == StageInducted || lc.Stage == StageActivated {
			candidates[ticker] = true
		}
	}
	for ticker := range held {
		candidates[ticker] = true
	}

	windowStart := asOf.Add(-s.cfg.MomentumDays)
	var out []Ranking
	for ticker := range candidates {
		if !s.store.Has(ticker) {
			continue
		}
		r := Ranking{
			Ticker: ticker,
			Proxy:  s.policy.ProxyOf(ticker, s.cfg.DefaultProxy),
			Sleeve: s.policy.SleeveOf(ticker),
			Stage:  s.policy.StageOf(ticker),
			Held:   held[ticker],
		}

		days, prices := s.store.Series(ticker, date.Date{})
		if len(prices) > 0 {
			curr := prices[len(prices)-1]
			// First price inside the window, falling back to the very
			// first known price when the window is empty.
			past := prices[0]
			for i, day := range days {
				if !day.Before(windowStart) {
					past = prices[i]
					break
				}
			}
			if past > 0 {
				r.Score = curr/past - 1
				r.ScoreOK = true
			}
		}

		entered, err := date.Parse(s.policy.EnteredStageOf(ticker))
		if err != nil {
			entered = rankingAlphaStart
		}
		r.Alpha, r.AlphaOK = s.alphaVsProxy(ticker, r.Proxy, entered)
		out = append(out, r)
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].ScoreOK != out[j].ScoreOK {
			return out[i].ScoreOK
		}
		if out[i].Score != out[j].Score {
			return out[i].Score > out[j].Score
		}
		return out[i].Ticker < out[j].Ticker
	})
	return out
}

// alphaVsProxy is the total-return difference between ticker and proxy
// over their aligned window starting at from.
func (s *Snapshotter) alphaVsProxy(ticker, proxy string, from date.Date) (float64, bool) {
	tDays, tPrices := s.store.Series(ticker, from)
	pDays, pPrices := s.store.Series(proxy, from)
	days, t, p := alignSeries(tDays, tPrices, pDays, pPrices)
	if len(days) < 2 {
		return 0, false
	}
	tRet, tOK := totalReturn(t)
	pRet, pOK := totalReturn(p)
	if !tOK || !pOK {
		return 0, false
	}
	return tRet - pRet, true
}

// buyThreshold is the minimum momentum score for a watch candidate to
// displace a held position.
const buyThreshold = 1.0

// suggestRotation pairs the weakest held ticker with the strongest
// watch candidate whose score clears the threshold.
func suggestRotation(rankings []Ranking) Rotation {
	var rot Rotation
	for i := len(rankings) - 1; i >= 0; i-- {
		if rankings[i].Held {
			rot.Trim = rankings[i].Ticker
			break
		}
	}
	for _, r := range rankings {
		if !r.Held && r.ScoreOK && r.Score > buyThreshold {
			rot.Buy = r.Ticker
			break
		}
	}
	if rot.Trim == "" {
		rot.Buy = ""
	}
	return rot
}
