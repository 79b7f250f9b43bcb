package explain

import (
	"fmt"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/models/mev"
)

const lowTVLThreshold = 1_000_000.0

func predictionAbove(key string, threshold float64) Predicate {
	return func(in Input) bool { return in.Prediction(key) > threshold }
}

// DefaultRules returns the production rule tables.
func DefaultRules() Rules {
	return Rules{
		Summary: []TextRule{
			{
				Name:    "impermanent_loss_elevated",
				Applies: predictionAbove(domain.PredictionImpermanentLoss, 0.5),
				Text:    "Primary concern is impermanent loss due to price divergence.",
			},
			{
				Name:    "protocol_elevated",
				Applies: predictionAbove(domain.PredictionProtocol, 0.5),
				Text:    "Protocol-level risks detected.",
			},
			{
				Name:    "mev_elevated",
				Applies: predictionAbove(domain.PredictionMEV, 0.5),
				Text:    "MEV exploitation risk is elevated.",
			},
		},
		Insights: []TextRule{
			{
				Name:    "impermanent_loss_high",
				Applies: predictionAbove(domain.PredictionImpermanentLoss, 0.6),
				Text:    "Price volatility patterns suggest high impermanent loss probability in next 24-48 hours",
			},
			{
				Name: "low_tvl_pool",
				Applies: func(in Input) bool {
					tvl := in.Request.PoolState.TVL()
					return tvl != 0 && tvl < lowTVLThreshold
				},
				Text: "Low TVL pool detected - liquidity risk may compound during market stress",
			},
			{
				Name:    "mev_activity",
				Applies: predictionAbove(domain.PredictionMEV, 0.4),
				Text:    "Pool characteristics indicate elevated MEV bot activity - consider timing of transactions",
			},
		},
		Recommendations: []RecommendationRule{
			{
				Name:    "reduce_position",
				Applies: func(in Input) bool { return in.Result.OverallRiskScore > highRiskCut },
				Recommendation: domain.Recommendation{
					Action:         "Consider reducing position size",
					Reasoning:      "AI models predict high risk conditions with 85% confidence",
					Confidence:     0.85,
					Urgency:        domain.UrgencySoon,
					ExpectedImpact: "Reduce potential losses by 40-60%",
				},
			},
			{
				Name:    "mev_protection",
				Applies: predictionAbove(domain.PredictionMEV, 0.5),
				Recommendation: domain.Recommendation{
					Action:         "Use MEV protection tools",
					Reasoning:      "High MEV risk detected - flashbots or similar protection recommended",
					Confidence:     0.78,
					Urgency:        domain.UrgencyImmediate,
					ExpectedImpact: "Prevent sandwich attacks",
				},
			},
		},
		Factors: map[string]FactorTemplate{
			domain.FactorImpermanentLoss: {
				Explain: func(f domain.RiskFactor) string {
					return fmt.Sprintf("Price volatility analysis indicates %s probability of significant impermanent loss", percent(f.ImportanceScore))
				},
				Evidence: func(f domain.RiskFactor, _ Input) []string {
					return []string{
						fmt.Sprintf("Volatility score: %.2f", f.FeatureValues["volatility"]),
						fmt.Sprintf("Price divergence detected: %.2f", f.FeatureValues["price_divergence"]),
					}
				},
			},
			domain.FactorProtocolRisk: {
				Explain: func(f domain.RiskFactor) string {
					return fmt.Sprintf("Protocol anomaly detection flagged unusual patterns with %s risk score", percent(f.ImportanceScore))
				},
				Evidence: func(f domain.RiskFactor, _ Input) []string {
					return []string{
						fmt.Sprintf("Pool TVL: $%.0f", f.FeatureValues["tvl"]),
						fmt.Sprintf("24h volume: $%.0f", f.FeatureValues["volume"]),
					}
				},
			},
			domain.FactorMEVRisk: {
				Explain: func(f domain.RiskFactor) string {
					return fmt.Sprintf("MEV bot activity analysis shows %s exploitation probability", percent(f.ImportanceScore))
				},
				Evidence: func(f domain.RiskFactor, _ Input) []string {
					return []string{
						fmt.Sprintf("Sandwich attack risk: %.2f", f.FeatureValues[mev.SandwichRisk]),
						fmt.Sprintf("Front-running risk: %.2f", f.FeatureValues[mev.FrontrunRisk]),
						fmt.Sprintf("Arbitrage risk: %.2f", f.FeatureValues[mev.ArbitrageRisk]),
					}
				},
			},
		},
		Fallback: genericFactor,
	}
}

var genericFactor = FactorTemplate{
	Explain: func(f domain.RiskFactor) string {
		name := f.FactorName
		if name == "" {
			name = f.FactorID
		}
		return fmt.Sprintf("AI analysis identified %s with %s importance", name, percent(f.ImportanceScore))
	},
	Evidence: func(domain.RiskFactor, Input) []string { return nil },
}
