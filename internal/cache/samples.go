package cache

import (
	"context"
	"encoding/json"
	"fmt"

	"defi-risk-ai/internal/metrics"

	"github.com/redis/go-redis/v9"
	"github.com/rs/zerolog"
)

const sampleKey = "risk:samples:protocol"

// ListClient is the subset of *redis.Client the sample store uses.
type ListClient interface {
	LPush(ctx context.Context, key string, values ...interface{}) *redis.IntCmd
	LTrim(ctx context.Context, key string, start, stop int64) *redis.StatusCmd
	LRange(ctx context.Context, key string, start, stop int64) *redis.StringSliceCmd
}

// SampleStore keeps the newest protocol feature vectors in a capped Redis
// list so retrains see samples from every replica.
type SampleStore struct {
	client   ListClient
	capacity int64
	log      zerolog.Logger
}

func NewSampleStore(client ListClient, capacity int, log zerolog.Logger) *SampleStore {
	if capacity <= 0 {
		capacity = 5000
	}
	return &SampleStore{
		client:   client,
		capacity: int64(capacity),
		log:      log.With().Str("component", "sample_store").Logger(),
	}
}

func (s *SampleStore) Add(ctx context.Context, vector []float64) error {
	data, err := json.Marshal(vector)
	if err != nil {
		return fmt.Errorf("encode sample: %w", err)
	}
	if err := s.client.LPush(ctx, sampleKey, data).Err(); err != nil {
		return fmt.Errorf("redis lpush: %w", err)
	}
	if err := s.client.LTrim(ctx, sampleKey, 0, s.capacity-1).Err(); err != nil {
		return fmt.Errorf("redis ltrim: %w", err)
	}
	return nil
}

// List returns the stored vectors oldest first. Undecodable entries are
// logged, counted and skipped.
func (s *SampleStore) List(ctx context.Context) ([][]float64, error) {
	raw, err := s.client.LRange(ctx, sampleKey, 0, s.capacity-1).Result()
	if err != nil {
		return nil, fmt.Errorf("redis lrange: %w", err)
	}
	out := make([][]float64, 0, len(raw))
	for i := len(raw) - 1; i >= 0; i-- {
		var v []float64
		if err := json.Unmarshal([]byte(raw[i]), &v); err != nil {
			metrics.SamplesDropped.Inc()
			s.log.Warn().Err(err).Int("index", i).Msg("skipping undecodable training sample")
			continue
		}
		out = append(out, v)
	}
	return out, nil
}
