package tickbook

import (
	"errors"
	"sort"
	"strings"
)

// Universe is the resolved ticker universe of one invocation.
type Universe struct {
	// Required is the sorted set of tickers the store must cover.
	Required []string
	// PolicyRequired marks tickers mandated by the policy (baselines,
	// anchor, constrained tickers and proxies). A missing live quote is
	// only worth a warning for these.
	PolicyRequired map[string]bool
	// Held marks tickers with a positive holding quantity.
	Held map[string]bool
}

// ErrEmptyUniverse is returned when no input names a single ticker:
// there is nothing to synchronize and the run must not continue.
var ErrEmptyUniverse = errors.New("required ticker universe is empty")

// ResolveUniverse derives the required ticker set from the tracker
// universe, the policy-mandated tickers and the held positions.
// Policy tickers missing from the tracker are reported as drift
// warnings: they should be fixed upstream but are still synchronized.
func ResolveUniverse(tracker []string, pol *Policy, holdings []Holding, diags *Diagnostics) (*Universe, error) {
	u := &Universe{
		PolicyRequired: pol.RequiredTickers(),
		Held:           HeldTickers(holdings),
	}

	required := make(map[string]bool)
	for _, t := range tracker {
		required[t] = true
	}
	for t := range u.PolicyRequired {
		required[t] = true
	}
	for t := range u.Held {
		required[t] = true
	}
	if len(required) == 0 {
		return nil, ErrEmptyUniverse
	}

	tracked := make(map[string]bool, len(tracker))
	for _, t := range tracker {
		tracked[t] = true
	}
	var drift []string
	for t := range u.PolicyRequired {
		if !tracked[t] {
			drift = append(drift, t)
		}
	}
	if len(drift) > 0 {
		sort.Strings(drift)
		diags.Warnf("", "policy tickers missing from tracker (should be fixed): %s", strings.Join(drift, ", "))
	}

	u.Required = make([]string, 0, len(required))
	for t := range required {
		u.Required = append(u.Required, t)
	}
	sort.Strings(u.Required)
	return u, nil
}

// Contains reports whether ticker belongs to the required set.
func (u *Universe) Contains(ticker string) bool {
	for _, t := range u.Required {
		if t == ticker {
			return true
		}
	}
	return false
}

// RequiredSet returns the required tickers as a set.
func (u *Universe) RequiredSet() map[string]bool {
	set := make(map[string]bool, len(u.Required))
	for _, t := range u.Required {
		set[t] = true
	}
	return set
}
