package middleware

import (
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	apperrors "github.com/wfunc/geo-guess/internal/errors"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// RateLimiter 按玩家（未认证时按IP）的令牌桶限流
type RateLimiter struct {
	limiters map[string]*limiterEntry
	mu       sync.Mutex
	rate     rate.Limit
	burst    int
	log      *zap.Logger
	now      func() time.Time
}

type limiterEntry struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// NewRateLimiter 创建限流器
func NewRateLimiter(requestsPerSecond, burst int, log *zap.Logger) *RateLimiter {
	if burst < 1 {
		burst = 1
	}
	return &RateLimiter{
		limiters: make(map[string]*limiterEntry),
		rate:     rate.Limit(requestsPerSecond),
		burst:    burst,
		log:      log,
		now:      time.Now,
	}
}

func (rl *RateLimiter) getLimiter(key string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	entry, exists := rl.limiters[key]
	if !exists {
		entry = &limiterEntry{limiter: rate.NewLimiter(rl.rate, rl.burst)}
		rl.limiters[key] = entry
	}
	entry.lastSeen = rl.now()
	return entry.limiter
}

// Handler 限流中间件，放在RequireAuth之后时按玩家限流
func (rl *RateLimiter) Handler() gin.HandlerFunc {
	return func(c *gin.Context) {
		key := "ip:" + c.ClientIP()
		if userID, ok := GetUserID(c); ok {
			key = "user:" + strconv.FormatUint(uint64(userID), 10)
		}

		if !rl.getLimiter(key).AllowN(rl.now(), 1) {
			rl.log.Warn("rate_limit_exceeded",
				zap.String("key", key),
				zap.String("path", c.FullPath()),
				zap.String("request_id", GetRequestID(c)),
			)
			c.Header("Retry-After", "1")
			AbortWithError(c, apperrors.New(apperrors.ErrRateLimitExceeded))
			return
		}
		c.Next()
	}
}

// Cleanup 移除超过idle未使用的限流器，返回移除数量
func (rl *RateLimiter) Cleanup(idle time.Duration) int {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	cutoff := rl.now().Add(-idle)
	removed := 0
	for key, entry := range rl.limiters {
		if entry.lastSeen.Before(cutoff) {
			delete(rl.limiters, key)
			removed++
		}
	}
	return removed
}
