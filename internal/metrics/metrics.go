package metrics

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

const (
	OutcomeOK             = "ok"
	OutcomeInvalidInput   = "invalid_input"
	OutcomePredictionFail = "prediction_error"
	OutcomeExplainFail    = "explanation_error"
	OutcomeAlreadyRunning = "already_running"
	OutcomeFailed         = "failed"
)

var (
	ScoreRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_score_requests_total",
			Help: "Scoring calls by outcome",
		},
		[]string{"outcome"},
	)

	ExplainRequests = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_explain_requests_total",
			Help: "Explanation calls by outcome",
		},
		[]string{"outcome"},
	)

	OverallScore = promauto.NewHistogram(
		prometheus.HistogramOpts{
			Name:    "risk_overall_score",
			Help:    "Distribution of overall risk scores (0.0-1.0)",
			Buckets: prometheus.LinearBuckets(0, 0.1, 11),
		},
	)

	FactorsEmitted = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_factors_emitted_total",
			Help: "Risk factors that passed their inclusion threshold",
		},
		[]string{"factor_id"},
	)

	ResultCache = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_result_cache_total",
			Help: "Scoring result cache lookups by result (hit, miss, error)",
		},
		[]string{"result"},
	)

	RegistryRevision = promauto.NewGauge(
		prometheus.GaugeOpts{
			Name: "risk_model_registry_revision",
			Help: "Revision of the active model registry state",
		},
	)

	SamplesDropped = promauto.NewCounter(
		prometheus.CounterOpts{
			Name: "risk_training_samples_dropped_total",
			Help: "Stored training samples skipped because they could not be decoded",
		},
	)

	Retrains = promauto.NewCounterVec(
		prometheus.CounterOpts{
			Name: "risk_model_retrains_total",
			Help: "Protocol detector retrains by outcome",
		},
		[]string{"outcome"},
	)
)
