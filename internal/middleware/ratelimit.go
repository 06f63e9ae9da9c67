package middleware

import (
	"net/http"
	"strconv"
	"sync"
	"time"

	"stockcount/pkg/response"

	"github.com/gin-gonic/gin"
)

type rateWindow struct {
	start time.Time
	count int
}

// RateLimiter is a fixed-window limiter keyed by client. It tracks at most maxClients
// keys; expired windows are swept first, then the oldest window is evicted.
type RateLimiter struct {
	limit      int
	window     time.Duration
	maxClients int
	now        func() time.Time

	mu      sync.Mutex
	clients map[string]*rateWindow
}

func NewRateLimiter(limit int, window time.Duration, maxClients int) *RateLimiter {
	return &RateLimiter{
		limit:      limit,
		window:     window,
		maxClients: maxClients,
		now:        time.Now,
		clients:    make(map[string]*rateWindow),
	}
}

// Allow records an attempt for key and reports whether it is within the limit.
// When it is not, the returned duration is the time until the window resets.
func (l *RateLimiter) Allow(key string) (bool, time.Duration) {
	l.mu.Lock()
	defer l.mu.Unlock()

	now := l.now()
	w, ok := l.clients[key]
	if !ok || now.Sub(w.start) >= l.window {
		if !ok && len(l.clients) >= l.maxClients {
			l.evict(now)
		}
		w = &rateWindow{start: now}
		l.clients[key] = w
	}

	if w.count >= l.limit {
		return false, w.start.Add(l.window).Sub(now)
	}
	w.count++
	return true, 0
}

// Len returns the number of tracked clients
func (l *RateLimiter) Len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.clients)
}

func (l *RateLimiter) evict(now time.Time) {
	var oldestKey string
	var oldest time.Time
	for k, w := range l.clients {
		if now.Sub(w.start) >= l.window {
			delete(l.clients, k)
			continue
		}
		if oldestKey == "" || w.start.Before(oldest) {
			oldestKey, oldest = k, w.start
		}
	}
	if len(l.clients) >= l.maxClients && oldestKey != "" {
		delete(l.clients, oldestKey)
	}
}

// Limit rejects requests from a client IP that exceeded the limit with 429
func (l *RateLimiter) Limit() gin.HandlerFunc {
	return func(c *gin.Context) {
		ok, retryAfter := l.Allow(c.ClientIP())
		if !ok {
			seconds := int(retryAfter.Round(time.Second) / time.Second)
			if seconds < 1 {
				seconds = 1
			}
			c.Header("Retry-After", strconv.Itoa(seconds))
			c.AbortWithStatusJSON(http.StatusTooManyRequests,
				response.ErrorWithCode(http.StatusTooManyRequests, "RATE_LIMITED", "Too many login attempts, try again later"))
			return
		}
		c.Next()
	}
}
