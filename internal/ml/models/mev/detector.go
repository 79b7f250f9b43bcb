package mev

import (
	"fmt"
	"math"

	"defi-risk-ai/internal/ml/common"
	"defi-risk-ai/internal/ml/features"
)

const (
	SandwichRisk  = "sandwich_risk"
	FrontrunRisk  = "frontrun_risk"
	ArbitrageRisk = "arbitrage_risk"
	OverallRisk   = "overall_mev_risk"

	sandwichScale       = 0.3
	highVolumeThreshold = 100_000.0
	frontrunHigh        = 0.2
	frontrunBase        = 0.1
	arbitrageBase       = 0.15
)

// Breakdown holds the named MEV sub-risks and their mean.
type Breakdown struct {
	Sandwich  float64
	Frontrun  float64
	Arbitrage float64
	Overall   float64
}

// Values returns the breakdown keyed by sub-risk name, overall included.
func (b Breakdown) Values() map[string]float64 {
	return map[string]float64{
		SandwichRisk:  b.Sandwich,
		FrontrunRisk:  b.Frontrun,
		ArbitrageRisk: b.Arbitrage,
		OverallRisk:   b.Overall,
	}
}

type Detector struct{}

func NewDetector() *Detector { return &Detector{} }

func (d *Detector) Type() string { return "PatternAnalysis" }

// Detect derives sandwich, front-run and arbitrage exposure from pool TVL
// and 24h volume. A TVL below one is floored to one.
func (d *Detector) Detect(fs features.Set) (Breakdown, error) {
	tvl := fs.Get(features.TVLUSD)
	volume := fs.Get(features.Volume24H)
	if !common.Finite(tvl) || !common.Finite(volume) {
		return Breakdown{}, fmt.Errorf("non-finite pool activity tvl=%v volume=%v", tvl, volume)
	}

	b := Breakdown{
		Sandwich:  math.Min(1, volume/math.Max(tvl, 1)) * sandwichScale,
		Frontrun:  frontrunBase,
		Arbitrage: arbitrageBase,
	}
	if volume > highVolumeThreshold {
		b.Frontrun = frontrunHigh
	}
	b.Overall = common.Clamp01((b.Sandwich + b.Frontrun + b.Arbitrage) / 3)
	return b, nil
}

func (d *Detector) Predict(fs features.Set) (float64, error) {
	b, err := d.Detect(fs)
	if err != nil {
		return 0, err
	}
	return b.Overall, nil
}
