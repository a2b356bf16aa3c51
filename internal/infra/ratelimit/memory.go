package ratelimit

import (
	"context"
	"errors"
	"sync"
	"time"

	"palisade/internal/domain"
)

// memoryLimiter is a fixed-window counter keyed by caller-supplied
// strings (login identifier plus client address). Single-process only;
// use the redis limiter when the service runs replicated.
type memoryLimiter struct {
	mu      sync.Mutex
	now     func() time.Time
	buckets map[string]*window
	maxKeys int
}

type window struct {
	count int
	until time.Time
}

type MemoryLimiterConfig struct {
	Now     func() time.Time
	MaxKeys int
}

func NewMemoryLimiter(cfg MemoryLimiterConfig) domain.RateLimiter {
	if cfg.Now == nil {
		cfg.Now = time.Now
	}
	if cfg.MaxKeys <= 0 {
		cfg.MaxKeys = 10000
	}
	return &memoryLimiter{
		now:     cfg.Now,
		buckets: make(map[string]*window),
		maxKeys: cfg.MaxKeys,
	}
}

func (m *memoryLimiter) Allow(_ context.Context, key string, limit int, windowDur time.Duration) (domain.RateLimitDecision, error) {
	if limit <= 0 {
		return domain.RateLimitDecision{Allowed: true, Limit: limit, Remaining: limit}, nil
	}
	now := m.now()

	m.mu.Lock()
	defer m.mu.Unlock()

	bucket, ok := m.buckets[key]
	if ok && now.After(bucket.until) {
		delete(m.buckets, key)
		ok = false
	}
	if !ok {
		if len(m.buckets) >= m.maxKeys {
			m.evictExpired(now)
		}
		if len(m.buckets) >= m.maxKeys {
			return domain.RateLimitDecision{}, errors.New("rate limiter capacity exceeded")
		}
		bucket = &window{until: now.Add(windowDur)}
		m.buckets[key] = bucket
	}

	decision := domain.RateLimitDecision{
		Limit:   limit,
		ResetAt: bucket.until,
	}
	if bucket.count >= limit {
		return decision, nil
	}
	bucket.count++
	decision.Allowed = true
	decision.Remaining = limit - bucket.count
	return decision, nil
}

func (m *memoryLimiter) evictExpired(now time.Time) {
	for key, bucket := range m.buckets {
		if now.After(bucket.until) {
			delete(m.buckets, key)
		}
	}
}
