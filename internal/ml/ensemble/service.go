package ensemble

import (
	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/common"
)

// weights is the share of the overall score each sub-risk carries. It is the
// only place these weights are defined; factor contributions read it too.
var weights = map[string]float64{
	domain.FactorImpermanentLoss: 0.4,
	domain.FactorProtocolRisk:    0.3,
	domain.FactorMEVRisk:         0.3,
}

type Components struct {
	ImpermanentLoss float64
	Protocol        float64
	MEV             float64
}

type Service struct{}

func NewService() *Service { return &Service{} }

// Score combines the three sub-risks into the overall score in [0,1].
func (s *Service) Score(c Components) float64 {
	return common.Clamp01(
		Weight(domain.FactorImpermanentLoss)*c.ImpermanentLoss +
			Weight(domain.FactorProtocolRisk)*c.Protocol +
			Weight(domain.FactorMEVRisk)*c.MEV,
	)
}

// Weight returns the composite weight for a factor id, zero when unknown.
func Weight(factorID string) float64 {
	return weights[factorID]
}

// Contribution is a factor's importance scaled by its composite weight.
func Contribution(factorID string, importance float64) float64 {
	return importance * Weight(factorID)
}

// Weights returns a copy of the composite weights.
func Weights() map[string]float64 {
	out := make(map[string]float64, len(weights))
	for k, v := range weights {
		out[k] = v
	}
	return out
}
