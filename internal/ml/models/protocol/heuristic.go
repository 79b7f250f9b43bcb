package protocol

import (
	"fmt"

	"defi-risk-ai/internal/ml/common"
	"defi-risk-ai/internal/ml/features"
)

const (
	referenceTVL        = 1_000_000.0
	volatilityReference = 100.0
)

// Heuristic is the protocol risk fallback used while no detector is fitted.
// Low TVL and high volatility each contribute half of the score.
type Heuristic struct{}

func NewHeuristic() *Heuristic { return &Heuristic{} }

func (h *Heuristic) Type() string { return "RuleBasedScorer" }

func (h *Heuristic) Fitted() bool { return false }

func (h *Heuristic) Predict(fs features.Set) (float64, error) {
	tvl := fs.Get(features.TVLUSD)
	volatility := fs.Get(features.VolatilityScore)
	if !common.Finite(tvl) || !common.Finite(volatility) {
		return 0, fmt.Errorf("non-finite heuristic input tvl=%v volatility=%v", tvl, volatility)
	}
	tvlScore := common.Clamp01((referenceTVL - tvl) / referenceTVL)
	volScore := common.Clamp01(volatility / volatilityReference)
	return 0.5*tvlScore + 0.5*volScore, nil
}
