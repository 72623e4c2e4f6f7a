package middleware

import (
	"context"
	"fmt"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/redis/go-redis/v9"
	"go.uber.org/zap"

	"github.com/yizeng/gab/gin/gorm/loto-api/internal/api/handler/v1/response"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/logger"
	"github.com/yizeng/gab/gin/gorm/loto-api/internal/metrics"
)

type Limiter interface {
	Allow(ctx context.Context, key string) (bool, error)
}

// slidingWindow trims expired entries and records the attempt only when the
// key is under its limit, so rejected attempts do not extend a lockout.
var slidingWindow = redis.NewScript(`
redis.call("ZREMRANGEBYSCORE", KEYS[1], "-inf", ARGV[1])
if redis.call("ZCARD", KEYS[1]) >= tonumber(ARGV[3]) then
	return 0
end
redis.call("ZADD", KEYS[1], ARGV[2], ARGV[4])
redis.call("PEXPIRE", KEYS[1], ARGV[5])
return 1
`)

// RedisLimiter is a sliding-window limiter backed by a sorted set per key.
type RedisLimiter struct {
	rdb    *redis.Client
	prefix string
	limit  int
	window time.Duration
}

func NewRedisLimiter(rdb *redis.Client, prefix string, limit int, window time.Duration) *RedisLimiter {
	return &RedisLimiter{
		rdb:    rdb,
		prefix: prefix,
		limit:  limit,
		window: window,
	}
}

func (l *RedisLimiter) Allow(ctx context.Context, key string) (bool, error) {
	redisKey := fmt.Sprintf("ratelimit:%s:%s", l.prefix, key)
	now := time.Now()

	allowed, err := slidingWindow.Run(ctx, l.rdb, []string{redisKey},
		now.Add(-l.window).UnixMicro(),
		now.UnixMicro(),
		l.limit,
		uuid.NewString(),
		(l.window + 10*time.Second).Milliseconds(),
	).Int()
	if err != nil {
		return true, fmt.Errorf("slidingWindow.Run -> %w", err)
	}

	return allowed == 1, nil
}

// LimitSubmissions throttles ticket submissions per owner. It must run after
// VerifyJWT. Limiter failures let the request through.
func LimitSubmissions(limiter Limiter) gin.HandlerFunc {
	return func(ctx *gin.Context) {
		if limiter == nil {
			ctx.Next()
			return
		}

		identity, ok := IdentityFromContext(ctx)
		if !ok {
			ctx.Next()
			return
		}

		allowed, err := limiter.Allow(ctx.Request.Context(), identity.OwnerID)
		if err != nil {
			logger.FromContext(ctx.Request.Context()).Warn("rate limit check failed", zap.Error(err))
			ctx.Next()
			return
		}
		if !allowed {
			metrics.RecordSubmission(metrics.OutcomeRateLimited, time.Now())
			response.RenderErr(ctx, response.ErrTooManyRequests())
			return
		}

		ctx.Next()
	}
}
