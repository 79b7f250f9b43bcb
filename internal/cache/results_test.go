package cache

import (
	"context"
	"errors"
	"strings"
	"testing"
	"time"

	"defi-risk-ai/internal/domain"

	"github.com/redis/go-redis/v9"
)

type stubKV struct {
	data   map[string]string
	ttl    time.Duration
	getErr error
}

func newStubKV() *stubKV { return &stubKV{data: map[string]string{}} }

func (s *stubKV) Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd {
	switch v := value.(type) {
	case []byte:
		s.data[key] = string(v)
	case string:
		s.data[key] = v
	}
	s.ttl = expiration
	return redis.NewStatusResult("OK", nil)
}

func (s *stubKV) Get(ctx context.Context, key string) *redis.StringCmd {
	if s.getErr != nil {
		return redis.NewStringResult("", s.getErr)
	}
	v, ok := s.data[key]
	if !ok {
		return redis.NewStringResult("", redis.Nil)
	}
	return redis.NewStringResult(v, nil)
}

func sampleRequest(tvl float64) domain.ScoringRequest {
	return domain.ScoringRequest{
		Position:  domain.PositionSnapshot{ID: "pos-1", CurrentValue: 1000},
		PoolState: domain.PoolSnapshot{Token0Price: 1, Token1Price: 1, TVLUSD: &tvl},
	}
}

func TestResultCacheRoundTrip(t *testing.T) {
	kv := newStubKV()
	c := NewResultCache(kv, 30*time.Second)
	ctx := context.Background()
	req := sampleRequest(5_000_000)

	got, err := c.Get(ctx, "v1", req)
	if err != nil || got != nil {
		t.Fatalf("expected clean miss, got %v %v", got, err)
	}

	res := &domain.ScoringResult{
		OverallRiskScore: 0.42,
		Predictions:      map[string]float64{domain.PredictionMEV: 0.1},
		ModelVersion:     "v1",
	}
	if err := c.Put(ctx, "v1", req, res); err != nil {
		t.Fatalf("put: %v", err)
	}
	if kv.ttl != 30*time.Second {
		t.Fatalf("expected ttl 30s, got %v", kv.ttl)
	}

	got, err = c.Get(ctx, "v1", req)
	if err != nil || got == nil {
		t.Fatalf("expected hit, got %v %v", got, err)
	}
	if got.OverallRiskScore != 0.42 || got.Predictions[domain.PredictionMEV] != 0.1 {
		t.Fatalf("unexpected cached result: %+v", got)
	}
}

func TestResultCacheKeyedByVersionAndRequest(t *testing.T) {
	kv := newStubKV()
	c := NewResultCache(kv, time.Minute)
	ctx := context.Background()
	_ = c.Put(ctx, "v1", sampleRequest(1), &domain.ScoringResult{})

	if got, _ := c.Get(ctx, "v2", sampleRequest(1)); got != nil {
		t.Fatal("a new model version must miss")
	}
	if got, _ := c.Get(ctx, "v1", sampleRequest(2)); got != nil {
		t.Fatal("a different request must miss")
	}
}

func TestResultCacheGetError(t *testing.T) {
	kv := newStubKV()
	kv.getErr = errors.New("timeout")
	c := NewResultCache(kv, time.Minute)
	if _, err := c.Get(context.Background(), "v1", sampleRequest(1)); err == nil {
		t.Fatal("expected error")
	}
}

func TestResultKeyFormat(t *testing.T) {
	key, err := ResultKey("1.0.0-alpha", sampleRequest(1))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.HasPrefix(key, "risk:score:1.0.0-alpha:") || len(key) != len("risk:score:1.0.0-alpha:")+64 {
		t.Fatalf("unexpected key %s", key)
	}
	again, _ := ResultKey("1.0.0-alpha", sampleRequest(1))
	if again != key {
		t.Fatal("keys must be stable")
	}
}
