// Package eodhd is the EODHD price feed client. It implements
// tickbook.PriceOracle over the public JSON API, with a request rate
// limiter and a circuit breaker so a misbehaving feed degrades into
// skipped fetches instead of a stalled run.
package eodhd

import (
	"context"
	"fmt"
	"net/http"
	"time"

	"github.com/oakledger/tickbook"
	"github.com/oakledger/tickbook/date"
	"github.com/rs/zerolog"
	"github.com/shopspring/decimal"
	"github.com/sony/gobreaker"
	"golang.org/x/time/rate"
)

const defaultBaseURL = "https://eodhd.com/api"

// Client talks to the EODHD API.
type Client struct {
	apiKey   string
	exchange string
	baseURL  string
	http     *http.Client
	limiter  *rate.Limiter
	breaker  *gobreaker.CircuitBreaker
	log      zerolog.Logger
}

var _ tickbook.PriceOracle = (*Client)(nil)

// New returns a client for the configured feed.
func New(cfg tickbook.OracleConfig, log zerolog.Logger) *Client {
	return &Client{
		apiKey:   cfg.APIKey,
		exchange: cfg.Exchange,
		baseURL:  defaultBaseURL,
		http:     &http.Client{Timeout: 30 * time.Second},
		limiter:  rate.NewLimiter(rate.Limit(cfg.RatePerSec), cfg.Burst),
		breaker: gobreaker.NewCircuitBreaker(gobreaker.Settings{
			Name:    "eodhd",
			Timeout: 30 * time.Second,
			ReadyToTrip: func(c gobreaker.Counts) bool {
				return c.ConsecutiveFailures >= 5
			},
		}),
		log: log,
	}
}

// symbol appends the exchange suffix to a bare ticker: NVDA becomes
// NVDA.US. Tickers that already carry a suffix pass through untouched.
func (c *Client) symbol(ticker string) string {
	for i := 0; i < len(ticker); i++ {
		if ticker[i] == '.' {
			return ticker
		}
	}
	if c.exchange == "" {
		return ticker
	}
	return ticker + "." + c.exchange
}

// RangeQuote returns daily closes for the inclusive range.
func (c *Client) RangeQuote(ctx context.Context, ticker string, r date.Range) ([]tickbook.PricePoint, error) {
	// https://eodhd.com/api/eod/NVDA.US?api_token=demo&fmt=json&from=...&to=...
	// [
	//  {
	//    "date": "2024-02-13",
	//    "open": 675.066,
	//    "close": 668.445,
	//    "adjusted_close": 668.445,
	//    "volume": 0
	//  }, ... ]
	addr := fmt.Sprintf("%s/eod/%s?fmt=json&api_token=%s&from=%s&to=%s",
		c.baseURL, c.symbol(ticker), c.apiKey, r.From, r.To)

	type row struct {
		Date          date.Date       `json:"date"`
		Close         decimal.Decimal `json:"close"`
		AdjustedClose decimal.Decimal `json:"adjusted_close"`
	}
	content := make([]row, 0)
	if err := c.jwget(ctx, addr, &content); err != nil {
		return nil, fmt.Errorf("eod %s %s..%s: %w", ticker, r.From, r.To, err)
	}

	points := make([]tickbook.PricePoint, 0, len(content))
	for _, info := range content {
		price := info.AdjustedClose
		if !price.IsPositive() {
			price = info.Close
		}
		points = append(points, tickbook.PricePoint{Day: info.Date, Price: price})
	}
	c.log.Debug().Str("ticker", ticker).Int("rows", len(points)).Msg("range quote")
	return points, nil
}

// PointQuote returns the current price, ok=false when the feed has no
// quote for the ticker right now.
func (c *Client) PointQuote(ctx context.Context, ticker string) (decimal.Decimal, bool, error) {
	// https://eodhd.com/api/real-time/NVDA.US?api_token=demo&fmt=json
	// {
	//   "code": "NVDA.US",
	//   "timestamp": 1707858000,
	//   "close": 721.28,
	//   ...
	// }
	// close is "NA" (a string) outside trading hours for some feeds,
	// hence the raw message probing below.
	addr := fmt.Sprintf("%s/real-time/%s?fmt=json&api_token=%s", c.baseURL, c.symbol(ticker), c.apiKey)

	var content struct {
		Close any `json:"close"`
	}
	if err := c.jwget(ctx, addr, &content); err != nil {
		return decimal.Zero, false, fmt.Errorf("real-time %s: %w", ticker, err)
	}

	switch v := content.Close.(type) {
	case float64:
		return decimal.NewFromFloat(v), true, nil
	case string:
		price, err := decimal.NewFromString(v)
		if err != nil {
			return decimal.Zero, false, nil
		}
		return price, true, nil
	default:
		return decimal.Zero, false, nil
	}
}
