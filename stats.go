package tickbook

import (
	"math"
	"slices"

	"github.com/oakledger/tickbook/date"
)

// This file holds the small statistics kernel behind the snapshot
// analytics: total returns, simple daily returns and Pearson
// correlation over aligned price series.

// totalReturn is last/first - 1, requiring at least two observations.
func totalReturn(prices []float64) (float64, bool) {
	if len(prices) < 2 || prices[0] == 0 {
		return 0, false
	}
	return prices[len(prices)-1]/prices[0] - 1, true
}

// dailyReturns converts consecutive prices into simple day-over-day
// returns. Pairs with a zero denominator are skipped in both series by
// construction (prices in the store are strictly positive).
func dailyReturns(prices []float64) []float64 {
	if len(prices) < 2 {
		return nil
	}
	out := make([]float64, 0, len(prices)-1)
	for i := 1; i < len(prices); i++ {
		out = append(out, prices[i]/prices[i-1]-1)
	}
	return out
}

// pearson computes the product-moment correlation of two equally long
// vectors. ok is false for n < 2 or when either series has zero
// variance: that case is "undefined", never a division by zero.
func pearson(x, y []float64) (r float64, ok bool) {
	n := len(x)
	if n < 2 || n != len(y) {
		return 0, false
	}
	var meanX, meanY float64
	for i := 0; i < n; i++ {
		meanX += x[i]
		meanY += y[i]
	}
	meanX /= float64(n)
	meanY /= float64(n)

	var cov, varX, varY float64
	for i := 0; i < n; i++ {
		dx, dy := x[i]-meanX, y[i]-meanY
		cov += dx * dy
		varX += dx * dx
		varY += dy * dy
	}
	if varX == 0 || varY == 0 {
		return 0, false
	}
	r = cov / math.Sqrt(varX*varY)
	// Guard against floating point drift just past the bounds.
	if r > 1 {
		r = 1
	} else if r < -1 {
		r = -1
	}
	return r, true
}

// alignSeries intersects two dated price series on their common days,
// keeping chronological order. Inputs are already sorted by day.
func alignSeries(aDays []date.Date, aPrices []float64, bDays []date.Date, bPrices []float64) (days []date.Date, a, b []float64) {
	for i, day := range aDays {
		j, found := slices.BinarySearchFunc(bDays, day, date.Date.Compare)
		if !found {
			continue
		}
		days = append(days, day)
		a = append(a, aPrices[i])
		b = append(b, bPrices[j])
	}
	return days, a, b
}
