package domain

import (
	"fmt"
	"math"
)

// InvalidInputError reports a required snapshot field that cannot be scored.
type InvalidInputError struct {
	Field  string
	Reason string
}

func (e *InvalidInputError) Error() string {
	return fmt.Sprintf("invalid input: %s %s", e.Field, e.Reason)
}

// PredictionError wraps a failure inside one of the sub-risk predictors.
// Scoring never returns a partial result alongside it.
type PredictionError struct {
	Predictor string
	Err       error
}

func (e *PredictionError) Error() string {
	return fmt.Sprintf("prediction failed in %s: %v", e.Predictor, e.Err)
}

func (e *PredictionError) Unwrap() error { return e.Err }

// ExplanationError reports a scoring result that cannot be explained,
// typically one missing an expected sub-score key.
type ExplanationError struct {
	Key    string
	Reason string
}

func (e *ExplanationError) Error() string {
	if e.Key == "" {
		return "explanation failed: " + e.Reason
	}
	return fmt.Sprintf("explanation failed: %s %s", e.Key, e.Reason)
}

// Validate checks that every numeric field the scorer reads is finite.
// Optional pool fields are only checked when present.
func (r ScoringRequest) Validate() error {
	required := []struct {
		field string
		value float64
	}{
		{"position.liquidity", r.Position.Liquidity},
		{"position.entry_price0", r.Position.EntryPrice0},
		{"position.entry_price1", r.Position.EntryPrice1},
		{"position.current_value", r.Position.CurrentValue},
		{"position.entry_value", r.Position.EntryValue},
		{"pool_state.token0_price", r.PoolState.Token0Price},
		{"pool_state.token1_price", r.PoolState.Token1Price},
		{"risk_metrics.overall_risk_score", r.RiskMetrics.OverallRiskScore},
		{"risk_metrics.impermanent_loss", r.RiskMetrics.ImpermanentLoss},
		{"risk_metrics.liquidity_score", r.RiskMetrics.LiquidityScore},
		{"risk_metrics.volatility_score", r.RiskMetrics.VolatilityScore},
		{"risk_metrics.concentration_risk", r.RiskMetrics.ConcentrationRisk},
	}
	for _, f := range required {
		if !isFinite(f.value) {
			return &InvalidInputError{Field: f.field, Reason: "must be a finite number"}
		}
	}

	optional := []struct {
		field string
		value *float64
	}{
		{"pool_state.tvl_usd", r.PoolState.TVLUSD},
		{"pool_state.volume_24h", r.PoolState.Volume24H},
		{"pool_state.fees_24h", r.PoolState.Fees24H},
	}
	for _, f := range optional {
		if f.value != nil && !isFinite(*f.value) {
			return &InvalidInputError{Field: f.field, Reason: "must be a finite number when present"}
		}
	}
	return nil
}

// Validate checks that a scoring result carries every sub-score key the
// explanation rules read.
func (r *ScoringResult) Validate() error {
	if r == nil {
		return &ExplanationError{Reason: "scoring result is missing"}
	}
	if r.Predictions == nil {
		return &ExplanationError{Key: "predictions", Reason: "is missing"}
	}
	for _, key := range PredictionKeys {
		v, ok := r.Predictions[key]
		if !ok {
			return &ExplanationError{Key: "predictions." + key, Reason: "is missing"}
		}
		if !isFinite(v) {
			return &ExplanationError{Key: "predictions." + key, Reason: "must be a finite number"}
		}
	}
	if !isFinite(r.OverallRiskScore) {
		return &ExplanationError{Key: "overall_risk_score", Reason: "must be a finite number"}
	}
	return nil
}

func isFinite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
