package protocol

import "defi-risk-ai/internal/ml/common"

// Scorer is a protocol risk predictor. The registry holds exactly one, either
// a Heuristic or a fitted Detector; callers never branch on which.
type Scorer interface {
	common.Predictor
	Type() string
	Fitted() bool
}

var (
	_ Scorer = (*Heuristic)(nil)
	_ Scorer = (*Detector)(nil)
)
