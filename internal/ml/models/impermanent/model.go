package impermanent

import (
	"fmt"
	"math"

	"defi-risk-ai/internal/ml/common"
	"defi-risk-ai/internal/ml/features"
)

const (
	volatilityWeight = 0.6
	divergenceWeight = 0.4
)

// Model scores impermanent-loss risk from volatility and the divergence of
// the pool price ratio from parity.
type Model struct{}

func New() *Model { return &Model{} }

// Type names the model in registry info.
func (m *Model) Type() string { return "VolatilityDivergenceHeuristic" }

func (m *Model) Predict(fs features.Set) (float64, error) {
	raw := volatilityWeight*fs.Get(features.VolatilityScore) + divergenceWeight*PriceDivergence(fs)
	if !common.Finite(raw) {
		return 0, fmt.Errorf("non-finite impermanent loss score from volatility=%v price_ratio=%v",
			fs.Get(features.VolatilityScore), fs.Get(features.PriceRatio))
	}
	return common.Clamp01(raw), nil
}

// PriceDivergence is |price_ratio - 1|.
func PriceDivergence(fs features.Set) float64 {
	return math.Abs(fs.Get(features.PriceRatio) - 1.0)
}

// Attribution is the fixed share of the score each input carries.
func Attribution() map[string]float64 {
	return map[string]float64{
		"volatility":       volatilityWeight,
		"price_divergence": divergenceWeight,
	}
}
