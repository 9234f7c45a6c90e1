package tickbook

import (
	"encoding/json"
	"fmt"
	"sort"
)

// ParseTracker extracts the tracked ticker universe from the tracker
// JSON document. All the historical shapes are accepted: `tickers`,
// `positions` and `inventory` lists holding either plain strings or
// objects with a `ticker` field. The result is deduplicated, uppercased
// and sorted.
func ParseTracker(data []byte) ([]string, error) {
	var doc map[string]json.RawMessage
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing tracker: %w", err)
	}

	seen := make(map[string]bool)
	for _, key := range []string{"tickers", "positions", "inventory"} {
		raw, ok := doc[key]
		if !ok {
			continue
		}
		var items []json.RawMessage
		if err := json.Unmarshal(raw, &items); err != nil {
			continue // not a list, ignore this shape
		}
		for _, item := range items {
			var s string
			if err := json.Unmarshal(item, &s); err == nil {
				if t := normalizeTicker(s); t != "" {
					seen[t] = true
				}
				continue
			}
			var obj struct {
				Ticker string `json:"ticker"`
			}
			if err := json.Unmarshal(item, &obj); err == nil {
				if t := normalizeTicker(obj.Ticker); t != "" {
					seen[t] = true
				}
			}
		}
	}

	universe := make([]string, 0, len(seen))
	for t := range seen {
		universe = append(universe, t)
	}
	sort.Strings(universe)
	return universe, nil
}
