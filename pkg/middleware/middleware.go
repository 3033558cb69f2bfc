package middleware

import (
	"context"
	"strings"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/ksred/klear-indexer/internal/auth"
	"github.com/ksred/klear-indexer/pkg/response"
	"golang.org/x/time/rate"
)

const (
	visitorTTL   = 3 * time.Minute
	defaultBurst = 10
)

type visitor struct {
	limiter  *rate.Limiter
	lastSeen time.Time
}

// RateLimiter keeps one token bucket per client and path prefix
type RateLimiter struct {
	mu       sync.Mutex
	visitors map[string]*visitor
	limits   map[string]rate.Limit // path prefix -> limit
	burst    int
}

// NewRateLimiter returns a limiter with the default per-endpoint limits
func NewRateLimiter() *RateLimiter {
	return NewRateLimiterWithLimits(map[string]rate.Limit{
		"/api/v1/auth":     rate.Limit(10.0 / 60.0),   // 10 requests per minute
		"/api/v1/internal": rate.Limit(6000.0 / 60.0), // 6000 blocks per minute
		"/api/v1/orders":   rate.Limit(1000.0 / 60.0), // 1000 requests per minute
	}, defaultBurst)
}

func NewRateLimiterWithLimits(limits map[string]rate.Limit, burst int) *RateLimiter {
	return &RateLimiter{
		visitors: make(map[string]*visitor),
		limits:   limits,
		burst:    burst,
	}
}

func (rl *RateLimiter) getLimiter(path, clientID string) *rate.Limiter {
	rl.mu.Lock()
	defer rl.mu.Unlock()

	key := clientID + ":" + path
	v, exists := rl.visitors[key]
	if !exists {
		limit := rate.Inf // No limit for other paths
		for prefix, l := range rl.limits {
			if strings.HasPrefix(path, prefix) {
				limit = l
				break
			}
		}
		v = &visitor{limiter: rate.NewLimiter(limit, rl.burst)}
		rl.visitors[key] = v
	}

	v.lastSeen = time.Now()
	return v.limiter
}

// Cleanup drops idle visitors every minute until ctx is cancelled
func (rl *RateLimiter) Cleanup(ctx context.Context) {
	ticker := time.NewTicker(time.Minute)
	defer ticker.Stop()

	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			rl.mu.Lock()
			for key, v := range rl.visitors {
				if time.Since(v.lastSeen) > visitorTTL {
					delete(rl.visitors, key)
				}
			}
			rl.mu.Unlock()
		}
	}
}

// Middleware limits requests per client and route. Installed after
// InternalAuth it keys on the token's client id, otherwise on the client IP.
func (rl *RateLimiter) Middleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		clientID := c.GetString("clientID")
		if clientID == "" {
			clientID = c.ClientIP()
		}

		if !rl.getLimiter(c.FullPath(), clientID).Allow() {
			response.TooManyRequests(c, "Rate limit exceeded. Please try again later.")
			c.Abort()
			return
		}

		c.Next()
	}
}

// InternalAuth requires a bearer token issued by authService that grants
// permission.
func InternalAuth(authService *auth.Service, permission string) gin.HandlerFunc {
	return func(c *gin.Context) {
		bearerToken := strings.Split(c.GetHeader("Authorization"), " ")
		if len(bearerToken) != 2 || strings.ToLower(bearerToken[0]) != "bearer" {
			response.Unauthorized(c, "Invalid authorization header format")
			c.Abort()
			return
		}

		claims, err := authService.ValidateToken(bearerToken[1])
		if err != nil {
			response.Unauthorized(c, "Invalid token")
			c.Abort()
			return
		}

		if !claims.HasPermission(permission) {
			response.Forbidden(c, "Missing required permission: "+permission)
			c.Abort()
			return
		}

		c.Set("claims", claims)
		c.Set("clientID", claims.ClientID)
		c.Next()
	}
}
