package job

import (
	"context"
	"time"

	"defi-risk-ai/internal/ml/registry"

	"github.com/rs/zerolog"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/trace"
)

type Retrainer interface {
	RunTraining(ctx context.Context) (*registry.State, error)
}

// RetrainJob refits the protocol detector from collected samples once a day
// at a fixed UTC hour.
type RetrainJob struct {
	tracer    trace.Tracer
	service   Retrainer
	trainHour int
	log       zerolog.Logger
	now       func() time.Time
}

// NewRetrainJob returns nil when trainHourUTC is outside 0-23, which
// disables the schedule.
func NewRetrainJob(tracer trace.Tracer, service Retrainer, trainHourUTC int, log zerolog.Logger) *RetrainJob {
	if trainHourUTC < 0 || trainHourUTC > 23 {
		return nil
	}
	return &RetrainJob{
		tracer:    tracer,
		service:   service,
		trainHour: trainHourUTC,
		log:       log.With().Str("component", "retrain_job").Logger(),
		now:       time.Now,
	}
}

func (j *RetrainJob) Start(ctx context.Context) {
	if j == nil || j.service == nil {
		return
	}
	j.log.Info().Int("hour_utc", j.trainHour).Msg("scheduled retrain enabled")
	for {
		next := nextRunUTC(j.now().UTC(), j.trainHour)
		wait := next.Sub(j.now())
		if wait < time.Second {
			wait = time.Second
		}
		timer := time.NewTimer(wait)
		select {
		case <-ctx.Done():
			timer.Stop()
			return
		case <-timer.C:
			j.runOnce(ctx)
		}
	}
}

func (j *RetrainJob) runOnce(ctx context.Context) {
	ctx, span := j.tracer.Start(ctx, "retrain-job.run-once")
	defer span.End()

	state, err := j.service.RunTraining(ctx)
	if err != nil {
		span.RecordError(err)
		j.log.Warn().Err(err).Msg("scheduled retrain skipped")
		return
	}
	span.SetAttributes(attribute.String("model.version", state.Version))
	j.log.Info().Str("model_version", state.Version).Int("samples", state.SampleCount).Msg("scheduled retrain installed")
}

func nextRunUTC(now time.Time, hour int) time.Time {
	run := time.Date(now.Year(), now.Month(), now.Day(), hour, 0, 0, 0, time.UTC)
	if !run.After(now) {
		run = run.Add(24 * time.Hour)
	}
	return run
}
