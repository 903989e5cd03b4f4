package middleware

import (
	"fmt"
	"math"
	"sync"
	"time"

	"recipe-finder/internal/pkg/common"
	"recipe-finder/internal/pkg/metrics"

	"github.com/gin-gonic/gin"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

// 閒置超過此時間的 client 限流器會被回收
const limiterIdleTTL = 10 * time.Minute

type clientLimiter struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter 依 client IP 分別限流，每個窗口最多 requests 次
type RateLimiter struct {
	mu        sync.Mutex
	clients   map[string]*clientLimiter
	limit     rate.Limit
	burst     int
	window    time.Duration
	now       func() time.Time
	lastSweep time.Time
}

// NewRateLimiter 創建新的限流器
func NewRateLimiter(requests int, window time.Duration) *RateLimiter {
	return &RateLimiter{
		clients: make(map[string]*clientLimiter),
		limit:   rate.Limit(float64(requests) / window.Seconds()),
		burst:   requests,
		window:  window,
		now:     time.Now,
	}
}

// Allow 檢查該 client 是否還有可用額度
func (rl *RateLimiter) Allow(key string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := rl.now()
	if now.Sub(rl.lastSweep) > limiterIdleTTL {
		for k, cl := range rl.clients {
			if now.Sub(cl.lastSeen) > limiterIdleTTL {
				delete(rl.clients, k)
			}
		}
		rl.lastSweep = now
	}

	cl, ok := rl.clients[key]
	if !ok {
		cl = &clientLimiter{limiter: rate.NewLimiter(rl.limit, rl.burst)}
		rl.clients[key] = cl
	}
	cl.lastSeen = now
	return cl.limiter.AllowN(now, 1)
}

// RateLimit 限流中間件
func RateLimit(requests int, window time.Duration) gin.HandlerFunc {
	return RateLimitWith(NewRateLimiter(requests, window))
}

// RateLimitWith 使用指定的限流器
func RateLimitWith(limiter *RateLimiter) gin.HandlerFunc {
	retryAfter := fmt.Sprintf("%d", int(math.Ceil(limiter.window.Seconds()/float64(limiter.burst))))

	return func(c *gin.Context) {
		if !limiter.Allow(c.ClientIP()) {
			common.LogInfo("Rate limit exceeded",
				zap.String("ip", c.ClientIP()),
				zap.String("path", c.Request.URL.Path),
			)
			metrics.RateLimited.Inc()

			c.Header("Retry-After", retryAfter)
			abortWithError(c, common.ErrTooManyRequests)
			return
		}

		c.Next()
	}
}
