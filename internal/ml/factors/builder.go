package factors

import (
	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/ensemble"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/models/impermanent"
	"defi-risk-ai/internal/ml/models/mev"
)

// Inclusion thresholds. A sub-risk must strictly exceed its threshold to
// surface as a factor; below it no factor is emitted at all.
const (
	ImpermanentLossThreshold = 0.3
	ProtocolThreshold        = 0.3
	MEVThreshold             = 0.2
)

var factorNames = map[string]string{
	domain.FactorImpermanentLoss: "Impermanent Loss Risk",
	domain.FactorProtocolRisk:    "Protocol Security Risk",
	domain.FactorMEVRisk:         "MEV Exploitation Risk",
}

// Name returns the display name for a factor id.
func Name(factorID string) string {
	return factorNames[factorID]
}

type Inputs struct {
	Features        features.Set
	ImpermanentLoss float64
	Protocol        float64
	MEV             mev.Breakdown
}

// Build emits factors in evaluation order: impermanent loss, protocol, MEV.
func Build(in Inputs) []domain.RiskFactor {
	out := make([]domain.RiskFactor, 0, 3)

	if in.ImpermanentLoss > ImpermanentLossThreshold {
		out = append(out, newFactor(domain.FactorImpermanentLoss, in.ImpermanentLoss,
			map[string]float64{
				"volatility":       in.Features.Get(features.VolatilityScore),
				"price_divergence": impermanent.PriceDivergence(in.Features),
			},
			impermanent.Attribution(),
		))
	}

	if in.Protocol > ProtocolThreshold {
		out = append(out, newFactor(domain.FactorProtocolRisk, in.Protocol,
			map[string]float64{
				"tvl":    in.Features.Get(features.TVLUSD),
				"volume": in.Features.Get(features.Volume24H),
			},
			nil,
		))
	}

	if in.MEV.Overall > MEVThreshold {
		out = append(out, newFactor(domain.FactorMEVRisk, in.MEV.Overall, in.MEV.Values(), nil))
	}

	return out
}

func newFactor(id string, importance float64, values, shap map[string]float64) domain.RiskFactor {
	return domain.RiskFactor{
		FactorID:        id,
		FactorName:      Name(id),
		ImportanceScore: importance,
		Contribution:    ensemble.Contribution(id, importance),
		FeatureValues:   values,
		ShapValues:      shap,
	}
}
