package training

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"sync/atomic"
	"time"

	"defi-risk-ai/internal/metrics"
	"defi-risk-ai/internal/ml/features"
	"defi-risk-ai/internal/ml/models/protocol"
	"defi-risk-ai/internal/ml/registry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

const (
	syntheticSampleCount = 1000
	syntheticSeed        = 42
)

// ErrAlreadyRunning is returned when a retrain is requested while another
// one is still in flight.
var ErrAlreadyRunning = errors.New("retrain already running")

type RetrainStatus string

const (
	RetrainStarted        RetrainStatus = "started"
	RetrainAlreadyRunning RetrainStatus = "already_running"
)

type Config struct {
	MinSamples int
	Now        func() time.Time
}

// Outcome describes the most recent finished retrain.
type Outcome struct {
	StartedAt   time.Time `json:"started_at"`
	FinishedAt  time.Time `json:"finished_at"`
	SampleCount int       `json:"sample_count"`
	Version     string    `json:"version,omitempty"`
	Error       string    `json:"error,omitempty"`
}

type Service struct {
	tracer   trace.Tracer
	registry *registry.Registry
	samples  SampleStore
	cfg      Config
	log      zerolog.Logger

	running atomic.Bool
	wg      sync.WaitGroup

	mu   sync.Mutex
	last *Outcome
}

func NewService(tracer trace.Tracer, reg *registry.Registry, samples SampleStore, cfg Config, log zerolog.Logger) *Service {
	if cfg.MinSamples < protocol.MinFitSamples {
		cfg.MinSamples = protocol.MinFitSamples
	}
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	return &Service{
		tracer:   tracer,
		registry: reg,
		samples:  samples,
		cfg:      cfg,
		log:      log.With().Str("component", "ml_training").Logger(),
	}
}

// Retrain starts a background refit of the protocol detector and returns at
// once. The refit is detached from ctx cancellation. Supplied samples take
// precedence over the collected sample store.
func (s *Service) Retrain(ctx context.Context, samples []features.Set) RetrainStatus {
	if !s.running.CompareAndSwap(false, true) {
		metrics.Retrains.WithLabelValues(metrics.OutcomeAlreadyRunning).Inc()
		return RetrainAlreadyRunning
	}
	vectors := make([][]float64, len(samples))
	for i := range samples {
		vectors[i] = features.ProtocolVector(samples[i])
	}
	bg := context.WithoutCancel(ctx)
	s.wg.Add(1)
	go func() {
		defer s.wg.Done()
		defer s.running.Store(false)
		if _, err := s.train(bg, vectors); err != nil {
			s.log.Error().Err(err).Msg("background retrain failed")
		}
	}()
	return RetrainStarted
}

// RunTraining refits synchronously from the collected sample store.
func (s *Service) RunTraining(ctx context.Context) (*registry.State, error) {
	if !s.running.CompareAndSwap(false, true) {
		metrics.Retrains.WithLabelValues(metrics.OutcomeAlreadyRunning).Inc()
		return nil, ErrAlreadyRunning
	}
	defer s.running.Store(false)
	return s.train(ctx, nil)
}

// FitSynthetic installs a detector fitted on the seeded synthetic dataset.
// It is the boot-time fallback when no history is available.
func (s *Service) FitSynthetic(ctx context.Context) (*registry.State, error) {
	_, span := s.tracer.Start(ctx, "ml-training.fit-synthetic")
	defer span.End()

	detector, err := protocol.Fit(SyntheticSamples(syntheticSampleCount, syntheticSeed))
	if err != nil {
		return nil, fmt.Errorf("fit synthetic detector: %w", err)
	}
	state := s.registry.Install(detector, registry.SourceSynthetic, detector.SampleCount(), s.cfg.Now())
	metrics.RegistryRevision.Set(float64(state.Revision))
	s.log.Info().Str("model_version", state.Version).Int("samples", detector.SampleCount()).Msg("protocol detector fitted on synthetic data")
	return state, nil
}

// Running reports whether a retrain is in flight.
func (s *Service) Running() bool {
	return s.running.Load()
}

// LastOutcome returns the most recent finished retrain, or nil.
func (s *Service) LastOutcome() *Outcome {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.last == nil {
		return nil
	}
	out := *s.last
	return &out
}

// Wait blocks until background retrains have finished.
func (s *Service) Wait() {
	s.wg.Wait()
}

func (s *Service) train(ctx context.Context, vectors [][]float64) (*registry.State, error) {
	ctx, span := s.tracer.Start(ctx, "ml-training.retrain")
	defer span.End()

	outcome := Outcome{StartedAt: s.cfg.Now().UTC()}
	state, err := s.fit(ctx, vectors, &outcome)
	outcome.FinishedAt = s.cfg.Now().UTC()
	if err != nil {
		outcome.Error = err.Error()
		span.RecordError(err)
		metrics.Retrains.WithLabelValues(metrics.OutcomeFailed).Inc()
	} else {
		outcome.Version = state.Version
		metrics.Retrains.WithLabelValues(metrics.OutcomeOK).Inc()
		metrics.RegistryRevision.Set(float64(state.Revision))
		s.log.Info().
			Str("model_version", state.Version).
			Int("samples", outcome.SampleCount).
			Dur("took", outcome.FinishedAt.Sub(outcome.StartedAt)).
			Msg("protocol detector retrained")
	}
	span.SetAttributes(attribute.Int("samples", outcome.SampleCount))

	s.mu.Lock()
	s.last = &outcome
	s.mu.Unlock()
	return state, err
}

func (s *Service) fit(ctx context.Context, vectors [][]float64, outcome *Outcome) (*registry.State, error) {
	if len(vectors) == 0 && s.samples != nil {
		stored, err := s.samples.List(ctx)
		if err != nil {
			return nil, fmt.Errorf("list training samples: %w", err)
		}
		vectors = stored
	}
	outcome.SampleCount = len(vectors)
	if len(vectors) < s.cfg.MinSamples {
		return nil, fmt.Errorf("not enough training samples: got %d need >= %d", len(vectors), s.cfg.MinSamples)
	}

	detector, err := protocol.Fit(vectors)
	if err != nil {
		return nil, fmt.Errorf("fit protocol detector: %w", err)
	}
	return s.registry.Install(detector, registry.SourceRetrain, detector.SampleCount(), s.cfg.Now()), nil
}
