// Package cache implements the determinism-aware idempotent result
// cache: since a schedule request plus a fixed seed always decodes to
// the same response (spec.md §5), a repeat POST /schedule with the
// same normalized body and seed can be served from Redis instead of
// re-running the GA.
package cache

import (
	"context"
	"crypto/sha256"
	"encoding/hex"
	"encoding/json"
	"time"

	"github.com/redis/go-redis/v9"

	"github.com/taskalign/scheduler-core/internal/domain"
)

type ResultCache struct {
	client *redis.Client
	ttl    time.Duration
}

func New(client *redis.Client, ttl time.Duration) *ResultCache {
	return &ResultCache{client: client, ttl: ttl}
}

// Key hashes the normalized request fields that affect the GA's
// outcome, plus the seed, into a stable cache key. Two requests that
// differ only in JSON field order or only in MachineTemplateID hash
// identically; every other field, including ones the core never reads
// such as mold names, is part of the hash.
func Key(req domain.ScheduleRequest, seed int64) (string, error) {
	normalized := req
	normalized.Seed = &seed
	normalized.MachineTemplateID = nil

	body, err := json.Marshal(normalized)
	if err != nil {
		return "", err
	}

	sum := sha256.Sum256(body)
	return "schedule:" + hex.EncodeToString(sum[:]), nil
}

func (c *ResultCache) Get(ctx context.Context, key string) (*domain.ScheduleResponse, bool, error) {
	raw, err := c.client.Get(ctx, key).Bytes()
	if err != nil {
		if err == redis.Nil {
			return nil, false, nil
		}
		return nil, false, err
	}

	resp := &domain.ScheduleResponse{}
	if err := json.Unmarshal(raw, resp); err != nil {
		return nil, false, err
	}
	return resp, true, nil
}

func (c *ResultCache) Set(ctx context.Context, key string, resp *domain.ScheduleResponse) error {
	body, err := json.Marshal(resp)
	if err != nil {
		return err
	}
	return c.client.Set(ctx, key, body, c.ttl).Err()
}
