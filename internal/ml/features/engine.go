package features

import (
	"math"

	"defi-risk-ai/internal/domain"

	"gonum.org/v1/gonum/stat"
)

const (
	featureSpecVersion = "v1"

	// PriceRatioFloor keeps price_ratio finite when token1 is priced at or
	// near zero. It is a domain default, not an error path.
	PriceRatioFloor = 0.001
)

const (
	TVLUSD          = "tvl_usd"
	Volume24H       = "volume_24h"
	CurrentIL       = "current_il"
	LiquidityScore  = "liquidity_score"
	VolatilityScore = "volatility_score"
	PositionSize    = "position_size"
	PriceRatio      = "price_ratio"

	// Advisory keys, present only when the request carries history.
	HistoryPoints           = "history_points"
	HistoryPriceRatioStdDev = "history_price_ratio_stddev"
)

// Names lists the core feature keys every Set carries.
var Names = []string{TVLUSD, Volume24H, CurrentIL, LiquidityScore, VolatilityScore, PositionSize, PriceRatio}

// ProtocolNames is the column order of the protocol detector's input vector.
var ProtocolNames = []string{TVLUSD, Volume24H, VolatilityScore, LiquidityScore, PositionSize}

// Set maps feature name to value.
type Set map[string]float64

// Get returns the named feature, or zero when absent.
func (s Set) Get(name string) float64 {
	return s[name]
}

// FeatureSpecVersion identifies the layout of Set produced by Extract.
func FeatureSpecVersion() string {
	return featureSpecVersion
}

// Extract flattens a scoring request into the named features read by every
// predictor. Missing optional pool fields are substituted with zero.
func Extract(req domain.ScoringRequest) Set {
	fs := Set{
		TVLUSD:          req.PoolState.TVL(),
		Volume24H:       req.PoolState.Volume(),
		CurrentIL:       req.RiskMetrics.ImpermanentLoss,
		LiquidityScore:  req.RiskMetrics.LiquidityScore,
		VolatilityScore: req.RiskMetrics.VolatilityScore,
		PositionSize:    req.Position.CurrentValue,
		PriceRatio:      priceRatio(req.PoolState),
	}
	if len(req.HistoricalData) > 0 {
		fs[HistoryPoints] = float64(len(req.HistoricalData))
		fs[HistoryPriceRatioStdDev] = historyStdDev(req.HistoricalData)
	}
	return fs
}

// ProtocolVector returns the protocol detector input in ProtocolNames order.
func ProtocolVector(fs Set) []float64 {
	out := make([]float64, len(ProtocolNames))
	for i, name := range ProtocolNames {
		out[i] = fs.Get(name)
	}
	return out
}

// FromProtocolVector is the inverse of ProtocolVector.
func FromProtocolVector(v []float64) Set {
	fs := make(Set, len(ProtocolNames))
	for i, name := range ProtocolNames {
		if i < len(v) {
			fs[name] = v[i]
		}
	}
	return fs
}

func priceRatio(p domain.PoolSnapshot) float64 {
	return p.Token0Price / math.Max(p.Token1Price, PriceRatioFloor)
}

func historyStdDev(history []domain.PoolSnapshot) float64 {
	if len(history) < 2 {
		return 0
	}
	ratios := make([]float64, len(history))
	for i := range history {
		ratios[i] = priceRatio(history[i])
	}
	std := stat.StdDev(ratios, nil)
	if math.IsNaN(std) || math.IsInf(std, 0) {
		return 0
	}
	return std
}
