package domain

import "time"

type PositionSnapshot struct {
	ID            string  `json:"id"`
	PoolAddress   string  `json:"pool_address"`
	ChainID       int64   `json:"chain_id"`
	Token0Address string  `json:"token0_address"`
	Token1Address string  `json:"token1_address"`
	Liquidity     float64 `json:"liquidity"`
	EntryPrice0   float64 `json:"entry_price0"`
	EntryPrice1   float64 `json:"entry_price1"`
	CurrentValue  float64 `json:"current_value"`
	EntryValue    float64 `json:"entry_value"`
}

// PoolSnapshot mirrors the pool state reported by the monitor. TVL, volume
// and fees are optional upstream and read as zero when absent.
type PoolSnapshot struct {
	PoolAddress  string   `json:"pool_address"`
	ChainID      int64    `json:"chain_id"`
	CurrentTick  int64    `json:"current_tick"`
	SqrtPriceX96 string   `json:"sqrt_price_x96"`
	Liquidity    string   `json:"liquidity"`
	Token0Price  float64  `json:"token0_price"`
	Token1Price  float64  `json:"token1_price"`
	TVLUSD       *float64 `json:"tvl_usd"`
	Volume24H    *float64 `json:"volume_24h"`
	Fees24H      *float64 `json:"fees_24h"`
}

func (p PoolSnapshot) TVL() float64 { return valueOrZero(p.TVLUSD) }
func (p PoolSnapshot) Volume() float64 { return valueOrZero(p.Volume24H) }
func (p PoolSnapshot) Fees() float64 { return valueOrZero(p.Fees24H) }
func (p PoolSnapshot) HasTVL() bool { return p.TVLUSD != nil }

func valueOrZero(v *float64) float64 {
	if v == nil {
		return 0
	}
	return *v
}

type RiskMetricsSnapshot struct {
	OverallRiskScore  float64 `json:"overall_risk_score"`
	ImpermanentLoss   float64 `json:"impermanent_loss"`
	LiquidityScore    float64 `json:"liquidity_score"`
	VolatilityScore   float64 `json:"volatility_score"`
	ConcentrationRisk float64 `json:"concentration_risk"`
}

type ScoringRequest struct {
	Position       PositionSnapshot    `json:"position"`
	PoolState      PoolSnapshot        `json:"pool_state"`
	RiskMetrics    RiskMetricsSnapshot `json:"risk_metrics"`
	HistoricalData []PoolSnapshot      `json:"historical_data,omitempty"`
}

const (
	FactorImpermanentLoss = "impermanent_loss"
	FactorProtocolRisk    = "protocol_risk"
	FactorMEVRisk         = "mev_risk"
)

// Keys of ScoringResult.Predictions.
const (
	PredictionImpermanentLoss = "impermanent_loss_risk"
	PredictionProtocol        = "protocol_risk"
	PredictionMEV             = "mev_risk"
	PredictionLiquidation     = "liquidation_risk"
)

// PredictionKeys lists every sub-score a ScoringResult must carry.
var PredictionKeys = []string{
	PredictionImpermanentLoss,
	PredictionProtocol,
	PredictionMEV,
	PredictionLiquidation,
}

type RiskFactor struct {
	FactorID        string             `json:"factor_id"`
	FactorName      string             `json:"factor_name"`
	ImportanceScore float64            `json:"importance_score"`
	Contribution    float64            `json:"contribution"`
	FeatureValues   map[string]float64 `json:"feature_values"`
	ShapValues      map[string]float64 `json:"shap_values,omitempty"`
}

type ScoringResult struct {
	OverallRiskScore    float64            `json:"overall_risk_score"`
	Confidence          float64            `json:"confidence"`
	RiskFactors         []RiskFactor       `json:"risk_factors"`
	Predictions         map[string]float64 `json:"predictions"`
	ModelVersion        string             `json:"model_version"`
	PredictionTimestamp time.Time          `json:"prediction_timestamp"`
}

type Urgency string

const (
	UrgencyImmediate Urgency = "immediate"
	UrgencySoon      Urgency = "soon"
	UrgencyMonitor   Urgency = "monitor"
)

type Recommendation struct {
	Action         string  `json:"action"`
	Reasoning      string  `json:"reasoning"`
	Confidence     float64 `json:"confidence"`
	Urgency        Urgency `json:"urgency"`
	ExpectedImpact string  `json:"expected_impact,omitempty"`
}

type FactorExplanation struct {
	FactorName  string   `json:"factor_name"`
	Explanation string   `json:"explanation"`
	Importance  float64  `json:"importance"`
	Evidence    []string `json:"evidence"`
}

type ExplanationResult struct {
	Summary           string              `json:"summary"`
	KeyInsights       []string            `json:"key_insights"`
	RiskFactors       []FactorExplanation `json:"risk_factors"`
	Recommendations   []Recommendation    `json:"recommendations"`
	Confidence        float64             `json:"confidence"`
	ExplanationMethod string              `json:"explanation_method"`
}

type RiskLevel string

const (
	RiskLow    RiskLevel = "LOW"
	RiskMedium RiskLevel = "MEDIUM"
	RiskHigh   RiskLevel = "HIGH"
)
