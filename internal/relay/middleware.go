package relay

import (
	"fmt"
	"net/http"
	"strconv"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"go.uber.org/zap"
	"golang.org/x/time/rate"
)

const (
	requestIDHeader = "X-Request-ID"
	requestIDKey    = "request_id"
	maxLimiters     = 4096
)

// recoveryMiddleware catches panics, logs them and answers with an error
// envelope so clients always see the documented shape.
func recoveryMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				log.Error("Panic recovered",
					zap.Any("error", err),
					zap.String("path", c.Request.URL.Path),
					zap.String("method", c.Request.Method),
					zap.String("client_ip", c.ClientIP()),
				)
				c.AbortWithStatusJSON(http.StatusInternalServerError, newErrorEnvelope("Internal server error"))
			}
		}()
		c.Next()
	}
}

// requestIDMiddleware reuses an incoming X-Request-ID or mints a uuid.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		id := c.GetHeader(requestIDHeader)
		if id == "" {
			id = uuid.NewString()
		}
		c.Set(requestIDKey, id)
		c.Writer.Header().Set(requestIDHeader, id)
		c.Next()
	}
}

// loggerMiddleware logs one line per request.
func loggerMiddleware(log *zap.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		path := c.Request.URL.Path
		query := c.Request.URL.RawQuery

		c.Next()

		fields := []zap.Field{
			zap.String("method", c.Request.Method),
			zap.String("path", path),
			zap.Int("status", c.Writer.Status()),
			zap.Duration("duration", time.Since(start)),
			zap.String("client_ip", c.ClientIP()),
			zap.String("request_id", c.GetString(requestIDKey)),
		}
		if query != "" {
			fields = append(fields, zap.String("query", query))
		}
		if len(c.Errors) > 0 {
			fields = append(fields, zap.Strings("errors", c.Errors.Errors()))
			log.Error("HTTP request with errors", fields...)
			return
		}
		log.Info("HTTP request", fields...)
	}
}

func prometheusMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()

		path := c.FullPath()
		if path == "" {
			path = "unmatched"
		}
		httpRequestsTotal.WithLabelValues(c.Request.Method, path, strconv.Itoa(c.Writer.Status())).Inc()
		httpRequestDuration.WithLabelValues(c.Request.Method, path).Observe(time.Since(start).Seconds())
	}
}

type ipBucket struct {
	lim      *rate.Limiter
	lastSeen time.Time
}

// ipLimiters hands out one token bucket per client address. At most max
// buckets are kept; the least recently seen one makes room for a new one.
type ipLimiters struct {
	mu      sync.Mutex
	limit   rate.Limit
	burst   int
	max     int
	buckets map[string]*ipBucket
	now     func() time.Time
}

func newIPLimiters(perSecond float64, burst int) *ipLimiters {
	if burst < 1 {
		burst = 1
	}
	return &ipLimiters{
		limit:   rate.Limit(perSecond),
		burst:   burst,
		max:     maxLimiters,
		buckets: make(map[string]*ipBucket),
		now:     time.Now,
	}
}

func (l *ipLimiters) get(ip string) *rate.Limiter {
	l.mu.Lock()
	defer l.mu.Unlock()
	now := l.now()
	if b, ok := l.buckets[ip]; ok {
		b.lastSeen = now
		return b.lim
	}
	if len(l.buckets) >= l.max {
		l.evictOldest()
	}
	b := &ipBucket{lim: rate.NewLimiter(l.limit, l.burst), lastSeen: now}
	l.buckets[ip] = b
	return b.lim
}

func (l *ipLimiters) evictOldest() {
	var oldest string
	var oldestSeen time.Time
	for k, b := range l.buckets {
		if oldest == "" || b.lastSeen.Before(oldestSeen) {
			oldest, oldestSeen = k, b.lastSeen
		}
	}
	delete(l.buckets, oldest)
}

func (l *ipLimiters) len() int {
	l.mu.Lock()
	defer l.mu.Unlock()
	return len(l.buckets)
}

// rateLimitMiddleware rejects clients that exceed perSecond with a 429 error
// envelope. A non-positive rate disables limiting. Clients are keyed by
// gin's ClientIP, so forwarding headers only count from trusted proxies.
func rateLimitMiddleware(limiters *ipLimiters) gin.HandlerFunc {
	if limiters == nil {
		return func(c *gin.Context) { c.Next() }
	}
	perSecond := float64(limiters.limit)
	return func(c *gin.Context) {
		if !limiters.get(c.ClientIP()).Allow() {
			rateLimited.Inc()
			c.Header("Retry-After", fmt.Sprintf("%.0f", 1/perSecond+0.5))
			c.AbortWithStatusJSON(http.StatusTooManyRequests, newErrorEnvelope(msgRateLimited))
			return
		}
		c.Next()
	}
}
