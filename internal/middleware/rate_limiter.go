package middleware

import (
	"net/http"
	"sync"
	"time"

	"rncdesk/internal/apierror"

	"github.com/gin-gonic/gin"
)

type clientBucket struct {
	tokens   float64
	lastSeen time.Time
}

// rateLimiter is a simple token-bucket limiter keyed by client IP.
type rateLimiter struct {
	mu      sync.Mutex
	clients map[string]*clientBucket
	rate    float64
	burst   float64
}

func newRateLimiter(rate, burst float64) *rateLimiter {
	rl := &rateLimiter{
		clients: make(map[string]*clientBucket),
		rate:    rate,
		burst:   burst,
	}
	go rl.purge()
	return rl
}

func (rl *rateLimiter) allow(ip string) bool {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	now := time.Now()
	b, ok := rl.clients[ip]
	if !ok {
		rl.clients[ip] = &clientBucket{tokens: rl.burst - 1, lastSeen: now}
		return true
	}

	elapsed := now.Sub(b.lastSeen).Seconds()
	b.tokens += elapsed * rl.rate
	if b.tokens > rl.burst {
		b.tokens = rl.burst
	}
	b.lastSeen = now

	if b.tokens < 1 {
		return false
	}
	b.tokens--
	return true
}

func (rl *rateLimiter) purge() {
	for range time.Tick(5 * time.Minute) {
		rl.mu.Lock()
		for ip, b := range rl.clients {
			if time.Since(b.lastSeen) > 10*time.Minute {
				delete(rl.clients, ip)
			}
		}
		rl.mu.Unlock()
	}
}

// RateLimiter applies a general per-IP limit across the API.
func RateLimiter() gin.HandlerFunc {
	rl := newRateLimiter(20, 40)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Muitas requisições, tente novamente em instantes"))
			return
		}
		c.Next()
	}
}

// LoginRateLimiter is stricter, to slow down credential stuffing.
func LoginRateLimiter() gin.HandlerFunc {
	rl := newRateLimiter(0.2, 5)
	return func(c *gin.Context) {
		if !rl.allow(c.ClientIP()) {
			c.AbortWithStatusJSON(http.StatusTooManyRequests, apierror.New("Muitas tentativas de login, aguarde antes de tentar novamente"))
			return
		}
		c.Next()
	}
}
