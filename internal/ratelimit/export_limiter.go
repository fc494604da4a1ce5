package ratelimit

import (
	"context"
	"errors"
	"fmt"
	"strings"

	redis "github.com/redis/go-redis/v9"
	"github.com/smallbiznis/taxdesk/internal/config"
)

const keyExport = "export:actor:%s"

// ExportLimiter throttles declaration exports per actor. Rendering
// a PDF is the most expensive request the service takes, so it runs behind a
// token bucket when Redis is configured. A nil limiter allows everything.
type ExportLimiter struct {
	bucket *TokenBucket

	rate  float64
	burst int
}

func NewExportLimiter(cfg config.Config) (*ExportLimiter, error) {
	limitCfg := cfg.RateLimit
	if !limitCfg.Enabled {
		return nil, nil
	}

	addr := strings.TrimSpace(limitCfg.RedisAddr)
	if addr == "" {
		return nil, errors.New("rate limiting enabled without redis address")
	}
	if limitCfg.ExportRate <= 0 || limitCfg.ExportBurst <= 0 {
		return nil, errors.New("rate limiting enabled with non-positive export rate or burst")
	}

	client := redis.NewClient(&redis.Options{
		Addr:     addr,
		Password: limitCfg.RedisPassword,
		DB:       limitCfg.RedisDB,
	})

	return &ExportLimiter{
		bucket: NewTokenBucket(client),
		rate:   limitCfg.ExportRate,
		burst:  limitCfg.ExportBurst,
	}, nil
}

// Allow reports whether the caller may render another export right now.
func (l *ExportLimiter) Allow(ctx context.Context, actorID string) (*RateLimitResult, error) {
	if l == nil || l.bucket == nil {
		return &RateLimitResult{Allowed: true}, nil
	}
	key := fmt.Sprintf(keyExport, actorID)
	return l.bucket.Allow(ctx, key, l.rate, l.burst)
}
