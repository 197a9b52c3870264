package middleware

import (
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"golang.org/x/time/rate"
	"sitevis/internal/editor"
)

// RateLimiter hands out one token bucket per user. It guards the routes
// that call the paid image-edit model.
type RateLimiter struct {
	mu       sync.Mutex
	limiters map[string]*rate.Limiter
	limit    rate.Limit
	burst    int
}

func NewRateLimiter(perMinute, burst int) *RateLimiter {
	return &RateLimiter{
		limiters: make(map[string]*rate.Limiter),
		limit:    rate.Every(time.Minute / time.Duration(perMinute)),
		burst:    burst,
	}
}

func (l *RateLimiter) Allow(userID string) bool {
	l.mu.Lock()
	limiter, ok := l.limiters[userID]
	if !ok {
		limiter = rate.NewLimiter(l.limit, l.burst)
		l.limiters[userID] = limiter
	}
	l.mu.Unlock()
	return limiter.Allow()
}

// Forget drops the bucket of a user.
func (l *RateLimiter) Forget(userID string) {
	l.mu.Lock()
	delete(l.limiters, userID)
	l.mu.Unlock()
}

// Prune drops every bucket that has refilled completely. A full bucket
// behaves like a new one, so nothing is lost. It returns how many remain.
func (l *RateLimiter) Prune() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	for userID, limiter := range l.limiters {
		if limiter.Tokens() >= float64(l.burst) {
			delete(l.limiters, userID)
		}
	}
	return len(l.limiters)
}

// Len reports how many users currently hold a bucket.
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.limiters)
}

// Middleware must run after RequireAuth.
func (l *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		if !l.Allow(c.GetString(UserIDKey)) {
			c.Header("Retry-After", "60")
			c.AbortWithStatusJSON(http.StatusTooManyRequests, gin.H{
				"error":   string(editor.KindRateLimited),
				"message": editor.MsgRateLimited,
			})
			return
		}
		c.Next()
	}
}
