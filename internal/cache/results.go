package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"defi-risk-ai/internal/domain"

	"github.com/redis/go-redis/v9"
)

const resultKeyPrefix = "risk:score:"

// KV is the subset of *redis.Client the result cache uses.
type KV interface {
	Set(ctx context.Context, key string, value interface{}, expiration time.Duration) *redis.StatusCmd
	Get(ctx context.Context, key string) *redis.StringCmd
}

// ResultCache stores scoring results keyed by model version and a digest of
// the request. A fixed registry state scores a request deterministically, so
// a hit is interchangeable with a fresh computation.
type ResultCache struct {
	client KV
	ttl    time.Duration
}

func NewResultCache(client KV, ttl time.Duration) *ResultCache {
	if ttl <= 0 {
		ttl = time.Minute
	}
	return &ResultCache{client: client, ttl: ttl}
}

// Get returns the cached result, or nil on a miss.
func (c *ResultCache) Get(ctx context.Context, version string, req domain.ScoringRequest) (*domain.ScoringResult, error) {
	key, err := ResultKey(version, req)
	if err != nil {
		return nil, err
	}
	raw, err := c.client.Get(ctx, key).Result()
	if errors.Is(err, redis.Nil) {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("redis get %s: %w", key, err)
	}
	var res domain.ScoringResult
	if err := json.Unmarshal([]byte(raw), &res); err != nil {
		return nil, fmt.Errorf("decode cached result: %w", err)
	}
	return &res, nil
}

func (c *ResultCache) Put(ctx context.Context, version string, req domain.ScoringRequest, res *domain.ScoringResult) error {
	key, err := ResultKey(version, req)
	if err != nil {
		return err
	}
	data, err := json.Marshal(res)
	if err != nil {
		return fmt.Errorf("encode result: %w", err)
	}
	if err := c.client.Set(ctx, key, data, c.ttl).Err(); err != nil {
		return fmt.Errorf("redis set %s: %w", key, err)
	}
	return nil
}

// ResultKey is risk:score:<version>:<sha256 of the request JSON>.
func ResultKey(version string, req domain.ScoringRequest) (string, error) {
	data, err := json.Marshal(req)
	if err != nil {
		return "", fmt.Errorf("encode request: %w", err)
	}
	sum := sha256.Sum256(data)
	return resultKeyPrefix + version + ":" + hex.EncodeToString(sum[:]), nil
}
