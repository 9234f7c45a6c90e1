package tickbook

import (
	"encoding/json"
	"fmt"
	"sort"
	"strings"

	"github.com/PaesslerAG/jsonpath"
	"github.com/shopspring/decimal"
)

// Stage is the lifecycle classification of a ticker. It controls
// whether the ticker feeds analytics and rankings.
type Stage string

const (
	StageInducted  Stage = "inducted"
	StageActivated Stage = "activated"
	StageOverlay   Stage = "overlay"
	StageReference Stage = "reference"
	StageDisabled  Stage = "disabled"
)

// ParseStage normalizes and validates a lifecycle stage string.
func ParseStage(s string) (Stage, error) {
	stage := Stage(strings.ToLower(strings.TrimSpace(s)))
	switch stage {
	case StageInducted, StageActivated, StageOverlay, StageReference, StageDisabled:
		return stage, nil
	}
	return "", fmt.Errorf("invalid lifecycle stage %q", s)
}

// Lifecycle is the governance entry of one ticker.
type Lifecycle struct {
	Stage Stage
	// EnteredStage is kept as the raw string: an unparseable date is a
	// per-ticker analytic error state, not a load failure.
	EnteredStage   string
	BenchmarkProxy string
}

// Policy is the parsed lifecycle policy document. Schema validation of
// the document is out of scope here: parsing is tolerant of absent
// sections and strict only on values it actually consumes.
type Policy struct {
	// Baselines are the configured reporting baselines, in document order.
	Baselines []string
	// CorrAnchor is an extra policy-mandated ticker used as correlation anchor.
	CorrAnchor string
	// BaseDate is the raw configured ledger base date (may be empty or invalid).
	BaseDate string
	// FixedPrices overrides valuation prices for synthetic assets (CASH etc.).
	FixedPrices map[string]decimal.Decimal
	// Constraints maps a ticker to its lifecycle entry.
	Constraints map[string]Lifecycle
	// Sleeves maps a ticker to a display label of its sleeve mapping.
	Sleeves map[string]string
}

// jsonString extracts a string at path, or "" when absent.
func jsonString(doc any, path string) string {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return ""
	}
	s, _ := v.(string)
	return strings.TrimSpace(s)
}

// jsonStrings extracts a list of strings at path, or nil when absent.
func jsonStrings(doc any, path string) []string {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	list, ok := v.([]any)
	if !ok {
		return nil
	}
	var out []string
	for _, item := range list {
		if s, ok := item.(string); ok && strings.TrimSpace(s) != "" {
			out = append(out, normalizeTicker(s))
		}
	}
	return out
}

// jsonObject extracts an object at path, or nil when absent.
func jsonObject(doc any, path string) map[string]any {
	v, err := jsonpath.Get(path, doc)
	if err != nil {
		return nil
	}
	obj, _ := v.(map[string]any)
	return obj
}

func normalizeTicker(s string) string { return strings.ToUpper(strings.TrimSpace(s)) }

// ParsePolicy parses the lifecycle policy JSON document.
func ParsePolicy(data []byte) (*Policy, error) {
	var doc any
	if err := json.Unmarshal(data, &doc); err != nil {
		return nil, fmt.Errorf("parsing policy: %w", err)
	}

	p := &Policy{
		FixedPrices: make(map[string]decimal.Decimal),
		Constraints: make(map[string]Lifecycle),
		Sleeves:     make(map[string]string),
	}

	p.Baselines = jsonStrings(doc, "$.governance.reporting_baselines.active_benchmarks")
	p.CorrAnchor = normalizeTicker(jsonString(doc, "$.governance.reporting_baselines.corr_anchor_ticker"))
	p.BaseDate = jsonString(doc, "$.governance.reporting_baselines.chart_start_date")

	for ticker, raw := range jsonObject(doc, "$.governance.fixed_asset_prices") {
		price, err := toDecimal(raw)
		if err != nil {
			return nil, fmt.Errorf("policy fixed price for %s: %w", ticker, err)
		}
		p.FixedPrices[normalizeTicker(ticker)] = price
	}

	for ticker, raw := range jsonObject(doc, "$.ticker_constraints") {
		t := normalizeTicker(ticker)
		entry, ok := raw.(map[string]any)
		if !ok {
			continue
		}
		lc, err := parseLifecycle(entry)
		if err != nil {
			return nil, fmt.Errorf("policy constraint for %s: %w", t, err)
		}
		p.Constraints[t] = lc
		if sleeve := formatSleeves(entry); sleeve != "" {
			p.Sleeves[t] = sleeve
		}
	}

	return p, nil
}

func parseLifecycle(entry map[string]any) (Lifecycle, error) {
	lc := Lifecycle{Stage: StageInducted}

	raw, ok := entry["lifecycle"].(map[string]any)
	if !ok {
		return lc, nil
	}
	if s, ok := raw["stage"].(string); ok && strings.TrimSpace(s) != "" {
		stage, err := ParseStage(s)
		if err != nil {
			return lc, err
		}
		lc.Stage = stage
	}
	if s, ok := raw["entered_stage_date"].(string); ok {
		lc.EnteredStage = strings.TrimSpace(s)
	}
	if s, ok := raw["benchmark_proxy"].(string); ok {
		lc.BenchmarkProxy = normalizeTicker(s)
	}
	return lc, nil
}

// formatSleeves renders a constraint's sleeve mapping as a single
// display label: a plain string, or weighted entries sorted by weight
// descending ("GROWTH 0.6 | VALUE 0.4").
func formatSleeves(entry map[string]any) string {
	if s, ok := entry["sleeve"].(string); ok && strings.TrimSpace(s) != "" {
		return strings.TrimSpace(s)
	}
	weights, ok := entry["sleeves"].(map[string]any)
	if !ok || len(weights) == 0 {
		return ""
	}
	type part struct {
		name   string
		weight float64
	}
	parts := make([]part, 0, len(weights))
	for name, raw := range weights {
		name = strings.TrimSpace(name)
		if name == "" {
			continue
		}
		w, _ := raw.(float64)
		parts = append(parts, part{name, w})
	}
	sort.Slice(parts, func(i, j int) bool {
		if parts[i].weight != parts[j].weight {
			return parts[i].weight > parts[j].weight
		}
		return parts[i].name < parts[j].name
	})
	labels := make([]string, 0, len(parts))
	for _, p := range parts {
		if p.weight > 0 {
			labels = append(labels, fmt.Sprintf("%s %s", p.name, strings.TrimRight(strings.TrimRight(fmt.Sprintf("%.2f", p.weight), "0"), ".")))
		} else {
			labels = append(labels, p.name)
		}
	}
	return strings.Join(labels, " | ")
}

func toDecimal(raw any) (decimal.Decimal, error) {
	switch v := raw.(type) {
	case float64:
		return decimal.NewFromFloat(v), nil
	case string:
		return decimal.NewFromString(v)
	default:
		return decimal.Decimal{}, fmt.Errorf("not a number: %v", raw)
	}
}

// StageOf returns the lifecycle stage of a ticker. A ticker absent
// from the constraints defaults to reference.
func (p *Policy) StageOf(ticker string) Stage {
	lc, ok := p.Constraints[normalizeTicker(ticker)]
	if !ok {
		return StageReference
	}
	return lc.Stage
}

// ProxyOf returns the benchmark proxy of a ticker, or def when the
// lifecycle entry does not name one.
func (p *Policy) ProxyOf(ticker, def string) string {
	lc, ok := p.Constraints[normalizeTicker(ticker)]
	if !ok || lc.BenchmarkProxy == "" {
		return normalizeTicker(def)
	}
	return lc.BenchmarkProxy
}

// EnteredStageOf returns the raw entered_stage_date of a ticker, or "".
func (p *Policy) EnteredStageOf(ticker string) string {
	return p.Constraints[normalizeTicker(ticker)].EnteredStage
}

// SleeveOf returns the sleeve display label of a ticker, or "UNMAPPED".
func (p *Policy) SleeveOf(ticker string) string {
	if s, ok := p.Sleeves[normalizeTicker(ticker)]; ok {
		return s
	}
	return "UNMAPPED"
}

// RequiredTickers returns the policy-mandated ticker set: baselines,
// the correlation anchor, every constrained ticker and its proxy.
func (p *Policy) RequiredTickers() map[string]bool {
	req := make(map[string]bool)
	for _, b := range p.Baselines {
		req[b] = true
	}
	if p.CorrAnchor != "" {
		req[p.CorrAnchor] = true
	}
	for t, lc := range p.Constraints {
		req[t] = true
		if lc.BenchmarkProxy != "" {
			req[lc.BenchmarkProxy] = true
		}
	}
	return req
}
