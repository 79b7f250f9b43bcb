package factors

import (
	"math"
	"testing"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/models/mev"
)

func TestBuildThresholdsAreStrict(t *testing.T) {
	cases := []struct {
		name    string
		in      Inputs
		wantIDs []string
	}{
		{"all at threshold", Inputs{ImpermanentLoss: 0.3, Protocol: 0.3, MEV: mev.Breakdown{Overall: 0.2}}, nil},
		{"all above", Inputs{ImpermanentLoss: 0.31, Protocol: 0.31, MEV: mev.Breakdown{Overall: 0.21}},
			[]string{domain.FactorImpermanentLoss, domain.FactorProtocolRisk, domain.FactorMEVRisk}},
		{"protocol only", Inputs{ImpermanentLoss: 0.1, Protocol: 0.5, MEV: mev.Breakdown{Overall: 0.1467}},
			[]string{domain.FactorProtocolRisk}},
		{"il and mev keep evaluation order", Inputs{ImpermanentLoss: 0.31, Protocol: 0, MEV: mev.Breakdown{Overall: 0.9}},
			[]string{domain.FactorImpermanentLoss, domain.FactorMEVRisk}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			tc.in.Features = features.Set{}
			got := Build(tc.in)
			if len(got) != len(tc.wantIDs) {
				t.Fatalf("expected %d factors, got %d: %+v", len(tc.wantIDs), len(got), got)
			}
			for i, id := range tc.wantIDs {
				if got[i].FactorID != id {
					t.Fatalf("factor %d: expected %s, got %s", i, id, got[i].FactorID)
				}
			}
		})
	}
}

func TestBuildEvidenceAndContribution(t *testing.T) {
	fs := features.Set{
		features.VolatilityScore: 0.6,
		features.PriceRatio:      1.25,
		features.TVLUSD:          200_000,
		features.Volume24H:       300_000,
	}
	breakdown := mev.Breakdown{Sandwich: 0.3, Frontrun: 0.2, Arbitrage: 0.15, Overall: 0.65 / 3}
	got := Build(Inputs{Features: fs, ImpermanentLoss: 0.46, Protocol: 0.7, MEV: breakdown})
	if len(got) != 3 {
		t.Fatalf("expected 3 factors, got %d", len(got))
	}

	il := got[0]
	if il.FactorName != "Impermanent Loss Risk" {
		t.Fatalf("unexpected name %q", il.FactorName)
	}
	if math.Abs(il.Contribution-0.46*0.4) > 1e-12 {
		t.Fatalf("unexpected il contribution %v", il.Contribution)
	}
	if il.FeatureValues["volatility"] != 0.6 || math.Abs(il.FeatureValues["price_divergence"]-0.25) > 1e-12 {
		t.Fatalf("unexpected il evidence %v", il.FeatureValues)
	}
	if il.ShapValues["volatility"] != 0.6 || il.ShapValues["price_divergence"] != 0.4 {
		t.Fatalf("unexpected il attribution %v", il.ShapValues)
	}

	protocol := got[1]
	if protocol.FactorName != "Protocol Security Risk" || math.Abs(protocol.Contribution-0.21) > 1e-12 {
		t.Fatalf("unexpected protocol factor %+v", protocol)
	}
	if protocol.FeatureValues["tvl"] != 200_000 || protocol.FeatureValues["volume"] != 300_000 {
		t.Fatalf("unexpected protocol evidence %v", protocol.FeatureValues)
	}
	if protocol.ShapValues != nil {
		t.Fatalf("protocol factor has no attribution, got %v", protocol.ShapValues)
	}

	m := got[2]
	for _, key := range []string{mev.SandwichRisk, mev.FrontrunRisk, mev.ArbitrageRisk, mev.OverallRisk} {
		if _, ok := m.FeatureValues[key]; !ok {
			t.Fatalf("mev evidence missing %s: %v", key, m.FeatureValues)
		}
	}
	if math.Abs(m.Contribution-breakdown.Overall*0.3) > 1e-12 {
		t.Fatalf("unexpected mev contribution %v", m.Contribution)
	}
}
