package service

import (
	"context"
	"errors"
	"math"
	"reflect"
	"sync"
	"testing"
	"time"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/registry"
	"defi-risk-ai/internal/ml/training"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/trace"
)

var testTracer = trace.NewNoopTracerProvider().Tracer("test")

var fixedNow = time.Date(2025, 6, 1, 12, 0, 0, 0, time.UTC)

type stubCache struct {
	mu      sync.Mutex
	entries map[string]*domain.ScoringResult
	gets    int
	getErr  error
}

func newStubCache() *stubCache {
	return &stubCache{entries: map[string]*domain.ScoringResult{}}
}

func (c *stubCache) key(version string, req domain.ScoringRequest) string {
	return version + "|" + req.Position.ID
}

func (c *stubCache) Get(ctx context.Context, version string, req domain.ScoringRequest) (*domain.ScoringResult, error) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.gets++
	if c.getErr != nil {
		return nil, c.getErr
	}
	return c.entries[c.key(version, req)], nil
}

func (c *stubCache) Put(ctx context.Context, version string, req domain.ScoringRequest, res *domain.ScoringResult) error {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.entries[c.key(version, req)] = res
	return nil
}

type stubTrainer struct {
	status  training.RetrainStatus
	running bool
	last    *training.Outcome
	got     []features.Set
}

func (t *stubTrainer) Retrain(ctx context.Context, samples []features.Set) training.RetrainStatus {
	t.got = samples
	return t.status
}
func (t *stubTrainer) Running() bool { return t.running }
func (t *stubTrainer) LastOutcome() *training.Outcome { return t.last }

type stubScorer struct {
	value float64
	err   error
}

func (s stubScorer) Predict(features.Set) (float64, error) { return s.value, s.err }
func (s stubScorer) Type() string { return "Stub" }
func (s stubScorer) Fitted() bool { return true }

func newTestRiskService(reg *registry.Registry, trainer Trainer, samples training.SampleStore, cache ResultCache) *RiskService {
	if reg == nil {
		reg = registry.New("1.0.0-alpha")
	}
	return NewRiskService(testTracer, reg, trainer, samples, cache,
		RiskConfig{Confidence: 0.85, Now: func() time.Time { return fixedNow }},
		zerolog.Nop(),
	)
}

func ptr(v float64) *float64 { return &v }

func baseRequest() domain.ScoringRequest {
	return domain.ScoringRequest{
		Position: domain.PositionSnapshot{
			ID:           "pos-1",
			PoolAddress:  "0xpool",
			ChainID:      1,
			Liquidity:    1000,
			EntryPrice0:  1,
			EntryPrice1:  1,
			CurrentValue: 10_000,
			EntryValue:   10_000,
		},
		PoolState: domain.PoolSnapshot{
			PoolAddress: "0xpool",
			ChainID:     1,
			Token0Price: 1,
			Token1Price: 1,
			TVLUSD:      ptr(2_000_000),
			Volume24H:   ptr(600_000),
		},
		RiskMetrics: domain.RiskMetricsSnapshot{LiquidityScore: 0.5},
	}
}

func hasFactor(res *domain.ScoringResult, id string) bool {
	for _, f := range res.RiskFactors {
		if f.FactorID == id {
			return true
		}
	}
	return false
}

func TestScoreNoImpermanentLossFactorWhenFlat(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	res, err := svc.Score(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Predictions[domain.PredictionImpermanentLoss] != 0 {
		t.Fatalf("expected zero il risk, got %v", res.Predictions[domain.PredictionImpermanentLoss])
	}
	if hasFactor(res, domain.FactorImpermanentLoss) {
		t.Fatal("impermanent loss factor must not be emitted")
	}
}

func TestScoreEmptyPoolEmitsProtocolFactor(t *testing.T) {
	req := baseRequest()
	req.PoolState.TVLUSD = ptr(0)
	req.PoolState.Volume24H = ptr(0)

	svc := newTestRiskService(nil, nil, nil, nil)
	res, err := svc.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if math.Abs(res.Predictions[domain.PredictionProtocol]-0.5) > 1e-12 {
		t.Fatalf("expected protocol risk 0.5, got %v", res.Predictions[domain.PredictionProtocol])
	}
	if !hasFactor(res, domain.FactorProtocolRisk) {
		t.Fatalf("expected protocol factor, got %+v", res.RiskFactors)
	}
	for _, f := range res.RiskFactors {
		if f.FactorID == domain.FactorProtocolRisk && f.FactorName != "Protocol Security Risk" {
			t.Fatalf("unexpected factor name %q", f.FactorName)
		}
	}
}

func TestScoreMEVBelowThreshold(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	res, err := svc.Score(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	want := (0.09 + 0.2 + 0.15) / 3
	if math.Abs(res.Predictions[domain.PredictionMEV]-want) > 1e-9 {
		t.Fatalf("expected mev %v, got %v", want, res.Predictions[domain.PredictionMEV])
	}
	if hasFactor(res, domain.FactorMEVRisk) {
		t.Fatal("mev factor must not be emitted below threshold")
	}
}

func TestScoreResultShape(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	res, err := svc.Score(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, key := range domain.PredictionKeys {
		v, ok := res.Predictions[key]
		if !ok {
			t.Fatalf("missing prediction %s", key)
		}
		if v < 0 || v > 1 {
			t.Fatalf("prediction %s out of range: %v", key, v)
		}
	}
	if res.Predictions[domain.PredictionLiquidation] != LiquidationRisk {
		t.Fatalf("unexpected liquidation risk %v", res.Predictions[domain.PredictionLiquidation])
	}
	if res.Confidence != 0.85 || res.ModelVersion != "1.0.0-alpha" || !res.PredictionTimestamp.Equal(fixedNow) {
		t.Fatalf("unexpected metadata: %+v", res)
	}
	p := res.Predictions
	want := 0.4*p[domain.PredictionImpermanentLoss] + 0.3*p[domain.PredictionProtocol] + 0.3*p[domain.PredictionMEV]
	if math.Abs(res.OverallRiskScore-want) > 1e-12 {
		t.Fatalf("expected weighted overall %v, got %v", want, res.OverallRiskScore)
	}
}

func TestScoreClampsExtremeInputs(t *testing.T) {
	req := baseRequest()
	req.PoolState.Token0Price = 1e9
	req.PoolState.Token1Price = 0
	req.RiskMetrics.VolatilityScore = 1e6
	req.PoolState.TVLUSD = ptr(0)
	req.PoolState.Volume24H = ptr(1e12)

	svc := newTestRiskService(nil, nil, nil, nil)
	res, err := svc.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.OverallRiskScore < 0 || res.OverallRiskScore > 1 {
		t.Fatalf("overall out of range: %v", res.OverallRiskScore)
	}
	for key, v := range res.Predictions {
		if v < 0 || v > 1 {
			t.Fatalf("prediction %s out of range: %v", key, v)
		}
	}
	if len(res.RiskFactors) != 3 {
		t.Fatalf("expected all three factors, got %d", len(res.RiskFactors))
	}
}

func TestScoreDeterministic(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	req := baseRequest()
	req.RiskMetrics.VolatilityScore = 0.8
	a, err := svc.Score(context.Background(), req)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	b, _ := svc.Score(context.Background(), req)
	if !reflect.DeepEqual(a, b) {
		t.Fatalf("expected identical results:\n%+v\n%+v", a, b)
	}
}

func TestScoreRejectsNonFiniteInput(t *testing.T) {
	req := baseRequest()
	req.RiskMetrics.VolatilityScore = math.NaN()

	svc := newTestRiskService(nil, nil, nil, nil)
	_, err := svc.Score(context.Background(), req)
	var invalid *domain.InvalidInputError
	if !errors.As(err, &invalid) {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if invalid.Field != "risk_metrics.volatility_score" {
		t.Fatalf("unexpected field %s", invalid.Field)
	}
}

func TestScorePredictorFailure(t *testing.T) {
	reg := registry.New("1.0.0-alpha")
	reg.Install(stubScorer{err: errors.New("forest exploded")}, registry.SourceRetrain, 0, fixedNow)

	svc := newTestRiskService(reg, nil, nil, nil)
	res, err := svc.Score(context.Background(), baseRequest())
	if res != nil {
		t.Fatal("no partial result on prediction failure")
	}
	var predErr *domain.PredictionError
	if !errors.As(err, &predErr) || predErr.Predictor != "protocol_risk_scorer" {
		t.Fatalf("expected protocol PredictionError, got %v", err)
	}
}

func TestScoreNonFinitePredictorOutput(t *testing.T) {
	reg := registry.New("1.0.0-alpha")
	reg.Install(stubScorer{value: math.Inf(1)}, registry.SourceRetrain, 0, fixedNow)

	svc := newTestRiskService(reg, nil, nil, nil)
	_, err := svc.Score(context.Background(), baseRequest())
	var predErr *domain.PredictionError
	if !errors.As(err, &predErr) {
		t.Fatalf("expected PredictionError, got %v", err)
	}
}

func TestScoreUsesInstalledScorer(t *testing.T) {
	reg := registry.New("1.0.0-alpha")
	reg.Install(stubScorer{value: 0.9}, registry.SourceRetrain, 10, fixedNow)

	svc := newTestRiskService(reg, nil, nil, nil)
	res, err := svc.Score(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if res.Predictions[domain.PredictionProtocol] != 0.9 || res.ModelVersion != "1.0.0-alpha+r1" {
		t.Fatalf("unexpected result: %+v", res)
	}
}

func TestScoreCachesAndRecordsSamples(t *testing.T) {
	cache := newStubCache()
	samples := training.NewMemoryBuffer(10)
	svc := newTestRiskService(nil, nil, samples, cache)

	first, err := svc.Score(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	second, err := svc.Score(context.Background(), baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if first != second {
		t.Fatal("second call should be served from cache")
	}
	stored, _ := samples.List(context.Background())
	if len(stored) != 1 {
		t.Fatalf("expected one recorded sample, got %d", len(stored))
	}
	if stored[0][0] != 2_000_000 {
		t.Fatalf("expected tvl first in sample, got %v", stored[0])
	}
}

func TestScoreCacheErrorFallsThrough(t *testing.T) {
	cache := newStubCache()
	cache.getErr = errors.New("redis down")
	svc := newTestRiskService(nil, nil, nil, cache)

	if _, err := svc.Score(context.Background(), baseRequest()); err != nil {
		t.Fatalf("cache errors must not fail scoring: %v", err)
	}
}

func TestExplainHighRisk(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	result := &domain.ScoringResult{
		OverallRiskScore: 0.75,
		Confidence:       0.85,
		Predictions: map[string]float64{
			domain.PredictionImpermanentLoss: 0.2,
			domain.PredictionProtocol:        0.2,
			domain.PredictionMEV:             0.2,
			domain.PredictionLiquidation:     0.1,
		},
	}
	out, err := svc.Explain(context.Background(), result, baseRequest())
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.Summary != "Your position has HIGH risk (score: 0.75)." {
		t.Fatalf("unexpected summary %q", out.Summary)
	}
	found := false
	for _, r := range out.Recommendations {
		if r.Urgency == domain.UrgencySoon && r.Action == "Consider reducing position size" {
			found = true
		}
	}
	if !found {
		t.Fatalf("expected reduce position recommendation, got %+v", out.Recommendations)
	}
}

func TestExplainMissingPrediction(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	result := &domain.ScoringResult{Predictions: map[string]float64{domain.PredictionMEV: 0.1}}
	_, err := svc.Explain(context.Background(), result, baseRequest())
	var explainErr *domain.ExplanationError
	if !errors.As(err, &explainErr) {
		t.Fatalf("expected ExplanationError, got %v", err)
	}
}

func TestRetrainDelegates(t *testing.T) {
	trainer := &stubTrainer{status: training.RetrainStarted}
	svc := newTestRiskService(nil, trainer, nil, nil)
	samples := []features.Set{{features.TVLUSD: 1, features.Volume24H: 2}}

	status, err := svc.Retrain(context.Background(), samples)
	if err != nil || status != training.RetrainStarted {
		t.Fatalf("unexpected result %s %v", status, err)
	}
	if len(trainer.got) != 1 {
		t.Fatal("samples not forwarded")
	}
}

func TestRetrainRejectsNonFiniteSamples(t *testing.T) {
	trainer := &stubTrainer{status: training.RetrainStarted}
	svc := newTestRiskService(nil, trainer, nil, nil)

	_, err := svc.Retrain(context.Background(), []features.Set{{features.TVLUSD: math.Inf(-1)}})
	var invalid *domain.InvalidInputError
	if !errors.As(err, &invalid) || invalid.Field != "samples[0].tvl_usd" {
		t.Fatalf("expected InvalidInputError, got %v", err)
	}
	if trainer.got != nil {
		t.Fatal("trainer must not be called")
	}
}

func TestRetrainDisabled(t *testing.T) {
	svc := newTestRiskService(nil, nil, nil, nil)
	if _, err := svc.Retrain(context.Background(), nil); !errors.Is(err, ErrRetrainDisabled) {
		t.Fatalf("expected ErrRetrainDisabled, got %v", err)
	}
}

func TestModelInfo(t *testing.T) {
	trainer := &stubTrainer{running: true, last: &training.Outcome{Error: "not enough training samples"}}
	svc := newTestRiskService(nil, trainer, nil, nil)

	info := svc.ModelInfo()
	if info.Status != registry.StatusUntrained || info.ModelVersion != "1.0.0-alpha" || info.FeatureSpecVersion != "v1" {
		t.Fatalf("unexpected info: %+v", info)
	}
	if info.Protocol.Type != "RuleBasedScorer" || info.MEV.Status != registry.StatusLoaded {
		t.Fatalf("unexpected predictor info: %+v", info)
	}
	if !info.Training || info.LastError == "" || info.TrainedAt != nil {
		t.Fatalf("unexpected trainer info: %+v", info)
	}
}
