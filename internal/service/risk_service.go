package service

import (
	"context"
	"errors"
	"fmt"
	"time"

	"defi-risk-ai/internal/domain"
	"defi-risk-ai/internal/explain"
	"defi-risk-ai/internal/metrics"
	"defi-risk-ai/internal/ml/common"
	"defi-risk-ai/internal/ml/ensemble"
	"defi-risk-ai/internal/ml/factors"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/registry"
	"defi-risk-ai/internal/ml/training"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

// LiquidationRisk is reported as a fixed sub-score; no predictor models it yet.
const LiquidationRisk = 0.1

const defaultConfidence = 0.85

// ErrRetrainDisabled is returned by Retrain when no trainer is wired.
var ErrRetrainDisabled = errors.New("retraining is not enabled")

type ResultCache interface {
	Get(ctx context.Context, version string, req domain.ScoringRequest) (*domain.ScoringResult, error)
	Put(ctx context.Context, version string, req domain.ScoringRequest, res *domain.ScoringResult) error
}

type Trainer interface {
	Retrain(ctx context.Context, samples []features.Set) training.RetrainStatus
	Running() bool
	LastOutcome() *training.Outcome
}

type RiskConfig struct {
	Confidence float64
	Now        func() time.Time
}

// ModelInfo describes the active predictors and the retrain state.
type ModelInfo struct {
	ImpermanentLoss registry.PredictorInfo `json:"impermanent_loss_predictor"`
	Protocol        registry.PredictorInfo `json:"protocol_risk_scorer"`
	MEV             registry.PredictorInfo `json:"mev_detector"`

	Status             string     `json:"status"`
	ModelVersion       string     `json:"model_version"`
	FeatureSpecVersion string     `json:"feature_spec_version"`
	Revision           int        `json:"revision"`
	Source             string     `json:"source"`
	Training           bool       `json:"training"`
	TrainedAt          *time.Time `json:"trained_at,omitempty"`
	SampleCount        int        `json:"sample_count"`
	LastError          string     `json:"last_error,omitempty"`
}

// RiskService scores positions against the active registry state and
// explains the results. Cache, sample store and trainer are optional.
type RiskService struct {
	tracer    trace.Tracer
	registry  *registry.Registry
	ensemble  *ensemble.Service
	explainer *explain.Engine
	trainer   Trainer
	samples   training.SampleStore
	cache     ResultCache
	cfg       RiskConfig
	log       zerolog.Logger
}

func NewRiskService(
	tracer trace.Tracer,
	reg *registry.Registry,
	trainer Trainer,
	samples training.SampleStore,
	cache ResultCache,
	cfg RiskConfig,
	log zerolog.Logger,
) *RiskService {
	if cfg.Confidence <= 0 || cfg.Confidence > 1 {
		cfg.Confidence = defaultConfidence
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &RiskService{
		tracer:    tracer,
		registry:  reg,
		ensemble:  ensemble.NewService(),
		explainer: explain.NewEngine(),
		trainer:   trainer,
		samples:   samples,
		cache:     cache,
		cfg:       cfg,
		log:       log.With().Str("component", "risk_service").Logger(),
	}
}

// Score computes the composite risk score for one position snapshot. The
// registry state is loaded once so a concurrent retrain cannot mix models
// within a single result.
func (s *RiskService) Score(ctx context.Context, req domain.ScoringRequest) (*domain.ScoringResult, error) {
	ctx, span := s.tracer.Start(ctx, "risk-service.score")
	defer span.End()
	span.SetAttributes(attribute.String("position.id", req.Position.ID))

	if err := req.Validate(); err != nil {
		metrics.ScoreRequests.WithLabelValues(metrics.OutcomeInvalidInput).Inc()
		span.RecordError(err)
		return nil, err
	}

	state := s.registry.Current()
	span.SetAttributes(attribute.String("model.version", state.Version))

	if s.cache != nil {
		cached, err := s.cache.Get(ctx, state.Version, req)
		switch {
		case err != nil:
			metrics.ResultCache.WithLabelValues("error").Inc()
			s.log.Warn().Err(err).Msg("result cache read failed")
		case cached != nil:
			metrics.ResultCache.WithLabelValues("hit").Inc()
			metrics.ScoreRequests.WithLabelValues(metrics.OutcomeOK).Inc()
			span.SetAttributes(attribute.Bool("cache.hit", true))
			return cached, nil
		default:
			metrics.ResultCache.WithLabelValues("miss").Inc()
		}
	}

	fs := features.Extract(req)

	il, err := predict(common.ModelKeyImpermanentLoss, state.ImpermanentLoss, fs)
	if err != nil {
		return nil, s.predictionFailed(span, err)
	}
	protocolRisk, err := predict(common.ModelKeyProtocol, state.Protocol, fs)
	if err != nil {
		return nil, s.predictionFailed(span, err)
	}
	breakdown, err := state.MEV.Detect(fs)
	if err != nil {
		return nil, s.predictionFailed(span, &domain.PredictionError{Predictor: common.ModelKeyMEV, Err: err})
	}

	overall := s.ensemble.Score(ensemble.Components{
		ImpermanentLoss: il,
		Protocol:        protocolRisk,
		MEV:             breakdown.Overall,
	})
	riskFactors := factors.Build(factors.Inputs{
		Features:        fs,
		ImpermanentLoss: il,
		Protocol:        protocolRisk,
		MEV:             breakdown,
	})

	result := &domain.ScoringResult{
		OverallRiskScore: overall,
		Confidence:       s.cfg.Confidence,
		RiskFactors:      riskFactors,
		Predictions: map[string]float64{
			domain.PredictionImpermanentLoss: il,
			domain.PredictionProtocol:        protocolRisk,
			domain.PredictionMEV:             breakdown.Overall,
			domain.PredictionLiquidation:     LiquidationRisk,
		},
		ModelVersion:        state.Version,
		PredictionTimestamp: s.cfg.Now().UTC(),
	}

	span.SetAttributes(
		attribute.Float64("risk.overall", overall),
		attribute.Float64("risk.impermanent_loss", il),
		attribute.Float64("risk.protocol", protocolRisk),
		attribute.Float64("risk.mev", breakdown.Overall),
		attribute.Int("risk.factors", len(riskFactors)),
	)
	metrics.ScoreRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	metrics.OverallScore.Observe(overall)
	for _, f := range riskFactors {
		metrics.FactorsEmitted.WithLabelValues(f.FactorID).Inc()
	}

	if s.samples != nil {
		if err := s.samples.Add(ctx, features.ProtocolVector(fs)); err != nil {
			s.log.Warn().Err(err).Msg("failed to record training sample")
		}
	}
	if s.cache != nil {
		if err := s.cache.Put(ctx, state.Version, req, result); err != nil {
			s.log.Warn().Err(err).Msg("result cache write failed")
		}
	}

	s.log.Debug().
		Str("position_id", req.Position.ID).
		Str("model_version", state.Version).
		Float64("overall", overall).
		Int("factors", len(riskFactors)).
		Msg("position scored")
	return result, nil
}

// Explain renders a scoring result as text. It reads the supplied
// sub-scores and never rescores the request.
func (s *RiskService) Explain(ctx context.Context, result *domain.ScoringResult, req domain.ScoringRequest) (*domain.ExplanationResult, error) {
	_, span := s.tracer.Start(ctx, "risk-service.explain")
	defer span.End()

	out, err := s.explainer.Explain(result, req)
	if err != nil {
		metrics.ExplainRequests.WithLabelValues(metrics.OutcomeExplainFail).Inc()
		span.RecordError(err)
		return nil, err
	}
	span.SetAttributes(
		attribute.Int("explain.insights", len(out.KeyInsights)),
		attribute.Int("explain.recommendations", len(out.Recommendations)),
	)
	metrics.ExplainRequests.WithLabelValues(metrics.OutcomeOK).Inc()
	return out, nil
}

// Retrain schedules a background refit and returns immediately. Supplied
// samples must carry finite protocol features.
func (s *RiskService) Retrain(ctx context.Context, samples []features.Set) (training.RetrainStatus, error) {
	ctx, span := s.tracer.Start(ctx, "risk-service.retrain")
	defer span.End()

	if s.trainer == nil {
		return "", ErrRetrainDisabled
	}
	for i, fs := range samples {
		for _, name := range features.ProtocolNames {
			if !common.Finite(fs.Get(name)) {
				return "", &domain.InvalidInputError{
					Field:  fmt.Sprintf("samples[%d].%s", i, name),
					Reason: "must be a finite number",
				}
			}
		}
	}

	status := s.trainer.Retrain(ctx, samples)
	span.SetAttributes(
		attribute.String("retrain.status", string(status)),
		attribute.Int("retrain.samples", len(samples)),
	)
	s.log.Info().Str("status", string(status)).Int("samples", len(samples)).Msg("retrain requested")
	return status, nil
}

func (s *RiskService) ModelInfo() ModelInfo {
	state := s.registry.Current()
	predictors := s.registry.Info()
	info := ModelInfo{
		ImpermanentLoss: predictors[common.ModelKeyImpermanentLoss],
		Protocol:        predictors[common.ModelKeyProtocol],
		MEV:             predictors[common.ModelKeyMEV],
		Status:             state.Status(),
		ModelVersion:       state.Version,
		FeatureSpecVersion: features.FeatureSpecVersion(),
		Revision:           state.Revision,
		Source:             state.Source,
		SampleCount:        state.SampleCount,
	}
	if !state.TrainedAt.IsZero() {
		at := state.TrainedAt
		info.TrainedAt = &at
	}
	if s.trainer != nil {
		info.Training = s.trainer.Running()
		if last := s.trainer.LastOutcome(); last != nil {
			info.LastError = last.Error
		}
	}
	return info
}

func (s *RiskService) predictionFailed(span trace.Span, err error) error {
	metrics.ScoreRequests.WithLabelValues(metrics.OutcomePredictionFail).Inc()
	span.RecordError(err)
	s.log.Error().Err(err).Msg("prediction failed")
	return err
}

func predict(name string, p common.Predictor, fs features.Set) (float64, error) {
	v, err := p.Predict(fs)
	if err != nil {
		return 0, &domain.PredictionError{Predictor: name, Err: err}
	}
	if !common.Finite(v) {
		return 0, &domain.PredictionError{Predictor: name, Err: fmt.Errorf("non-finite output %v", v)}
	}
	return common.Clamp01(v), nil
}
