package common

import (
	"math"

	"defi-risk-ai/internal/ml/features"
)

const (
	ModelKeyImpermanentLoss = "impermanent_loss_predictor"
	ModelKeyProtocol        = "protocol_risk_scorer"
	ModelKeyMEV             = "mev_detector"
)

// Predictor is the contract every sub-risk model satisfies. Implementations
// return a value in [0,1] and must not mutate shared state.
type Predictor interface {
	Predict(fs features.Set) (float64, error)
}

func Clamp01(v float64) float64 {
	if math.IsNaN(v) {
		return 0
	}
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

// Finite reports whether v is neither NaN nor infinite. Predictors check raw
// outputs with it before clamping so a NaN fails instead of reading as zero.
func Finite(v float64) bool {
	return !math.IsNaN(v) && !math.IsInf(v, 0)
}
