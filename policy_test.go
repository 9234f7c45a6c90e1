package tickbook

import (
	"testing"
)

const samplePolicy = `{
	"governance": {
		"reporting_baselines": {
			"active_benchmarks": ["spy", "QQQ"],
			"corr_anchor_ticker": "iwm",
			"chart_start_date": "2025-01-01"
		},
		"fixed_asset_prices": {
			"cash": 1,
			"BOND_X": "98.75"
		}
	},
	"ticker_constraints": {
		"nvda": {
			"lifecycle": {
				"stage": "Activated",
				"entered_stage_date": "2025-02-10",
				"benchmark_proxy": "smh"
			},
			"sleeve": "AI Infrastructure"
		},
		"pltr": {
			"lifecycle": {"stage": "inducted"},
			"sleeves": {"GROWTH": 0.6, "VALUE": 0.4}
		},
		"vti": {}
	}
}`

func TestParsePolicy(t *testing.T) {
	p, err := ParsePolicy([]byte(samplePolicy))
	if err != nil {
		t.Fatal(err)
	}

	if len(p.Baselines) != 2 || p.Baselines[0] != "SPY" || p.Baselines[1] != "QQQ" {
		t.Errorf("Baselines = %v, want [SPY QQQ]", p.Baselines)
	}
	if p.CorrAnchor != "IWM" {
		t.Errorf("CorrAnchor = %s, want IWM", p.CorrAnchor)
	}
	if p.BaseDate != "2025-01-01" {
		t.Errorf("BaseDate = %s, want 2025-01-01", p.BaseDate)
	}

	if got := p.FixedPrices["CASH"]; !got.Equal(dec("1")) {
		t.Errorf("FixedPrices[CASH] = %s, want 1", got)
	}
	if got := p.FixedPrices["BOND_X"]; !got.Equal(dec("98.75")) {
		t.Errorf("FixedPrices[BOND_X] = %s, want 98.75", got)
	}

	if got := p.StageOf("NVDA"); got != StageActivated {
		t.Errorf("StageOf(NVDA) = %s, want activated", got)
	}
	if got := p.StageOf("nvda"); got != StageActivated {
		t.Errorf("StageOf must normalize case, got %s", got)
	}
	// An empty constraint entry defaults to inducted.
	if got := p.StageOf("VTI"); got != StageInducted {
		t.Errorf("StageOf(VTI) = %s, want inducted", got)
	}
	// An unconstrained ticker defaults to reference.
	if got := p.StageOf("UNKNOWN"); got != StageReference {
		t.Errorf("StageOf(UNKNOWN) = %s, want reference", got)
	}

	if got := p.ProxyOf("NVDA", "VTI"); got != "SMH" {
		t.Errorf("ProxyOf(NVDA) = %s, want SMH", got)
	}
	if got := p.ProxyOf("PLTR", "VTI"); got != "VTI" {
		t.Errorf("ProxyOf(PLTR) = %s, want the default VTI", got)
	}

	if got := p.EnteredStageOf("NVDA"); got != "2025-02-10" {
		t.Errorf("EnteredStageOf(NVDA) = %s, want 2025-02-10", got)
	}

	if got := p.SleeveOf("NVDA"); got != "AI Infrastructure" {
		t.Errorf("SleeveOf(NVDA) = %q", got)
	}
	if got := p.SleeveOf("PLTR"); got != "GROWTH 0.6 | VALUE 0.4" {
		t.Errorf("SleeveOf(PLTR) = %q, want weighted display", got)
	}
	if got := p.SleeveOf("VTI"); got != "UNMAPPED" {
		t.Errorf("SleeveOf(VTI) = %q, want UNMAPPED", got)
	}
}

func TestPolicyRequiredTickers(t *testing.T) {
	p, err := ParsePolicy([]byte(samplePolicy))
	if err != nil {
		t.Fatal(err)
	}
	req := p.RequiredTickers()
	for _, want := range []string{"SPY", "QQQ", "IWM", "NVDA", "SMH", "PLTR", "VTI"} {
		if !req[want] {
			t.Errorf("RequiredTickers is missing %s", want)
		}
	}
	if req["CASH"] {
		t.Error("fixed-price assets are not policy-required on their own")
	}
}

func TestParsePolicyInvalidStage(t *testing.T) {
	in := `{"ticker_constraints": {"nvda": {"lifecycle": {"stage": "vaporized"}}}}`
	if _, err := ParsePolicy([]byte(in)); err == nil {
		t.Fatal("expected an error for an unknown lifecycle stage")
	}
}

func TestParsePolicyTolerant(t *testing.T) {
	// Absent sections parse into an empty policy.
	p, err := ParsePolicy([]byte(`{}`))
	if err != nil {
		t.Fatal(err)
	}
	if len(p.Baselines) != 0 || len(p.Constraints) != 0 || len(p.FixedPrices) != 0 {
		t.Errorf("empty document must yield an empty policy: %+v", p)
	}
}

func TestParsePolicyMalformed(t *testing.T) {
	if _, err := ParsePolicy([]byte(`not json`)); err == nil {
		t.Fatal("expected an error for malformed JSON")
	}
}

func TestParseStage(t *testing.T) {
	for _, s := range []string{"inducted", "ACTIVATED", " overlay ", "reference", "disabled"} {
		if _, err := ParseStage(s); err != nil {
			t.Errorf("ParseStage(%q): %v", s, err)
		}
	}
	if _, err := ParseStage("retired"); err == nil {
		t.Error("ParseStage must reject unknown stages")
	}
}
