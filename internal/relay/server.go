// Package relay serves the news endpoint the client queries. It validates
// the query, asks an Upstream for the raw article list and wraps the result
// in the status envelope.
package relay

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.uber.org/zap"

	"github.com/pders01/newsmap/internal/debuglog"
	"github.com/pders01/newsmap/internal/news"
)

const cacheControl = "no-cache, no-store, must-revalidate"

// Config holds the relay's HTTP settings.
type Config struct {
	Addr        string
	Debug       bool
	CORSOrigins []string
	// TrustedProxies may set X-Forwarded-For and X-Real-IP. Empty trusts
	// none, and clients are identified by the socket address.
	TrustedProxies  []string
	RequestRate     float64
	RequestBurst    int
	UpstreamTimeout time.Duration
	ShutdownTimeout time.Duration
}

func (c *Config) setDefaults() {
	if c.Addr == "" {
		c.Addr = ":8080"
	}
	if len(c.CORSOrigins) == 0 {
		c.CORSOrigins = []string{"*"}
	}
	if c.ShutdownTimeout <= 0 {
		c.ShutdownTimeout = 10 * time.Second
	}
}

// Server is the relay HTTP server.
type Server struct {
	router   *gin.Engine
	server   *http.Server
	upstream Upstream
	log      *zap.Logger
	config   Config
	limiters *ipLimiters
	now      func() time.Time
}

// NewServer wires the middleware chain and routes around up.
func NewServer(cfg Config, up Upstream) *Server {
	cfg.setDefaults()
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}

	s := &Server{
		upstream: up,
		log:      debuglog.Logger().Named("relay"),
		config:   cfg,
		now:      time.Now,
	}

	router := gin.New()
	if err := router.SetTrustedProxies(cfg.TrustedProxies); err != nil {
		s.log.Warn("Ignoring invalid trusted proxies", zap.Strings("proxies", cfg.TrustedProxies), zap.Error(err))
		_ = router.SetTrustedProxies(nil)
	}
	if cfg.RequestRate > 0 {
		s.limiters = newIPLimiters(cfg.RequestRate, cfg.RequestBurst)
	}
	router.Use(recoveryMiddleware(s.log))
	router.Use(requestIDMiddleware())
	router.Use(loggerMiddleware(s.log))
	router.Use(prometheusMiddleware())
	router.Use(cors.New(corsConfig(cfg.CORSOrigins)))

	router.GET("/health", s.handleHealth)
	router.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := router.Group("/", rateLimitMiddleware(s.limiters))
	api.Any("/api/news", s.handleNews)
	api.Any("/get_news.php", s.handleNews)

	s.router = router
	s.server = &http.Server{
		Addr:              cfg.Addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}
	return s
}

func corsConfig(origins []string) cors.Config {
	cfg := cors.DefaultConfig()
	cfg.AllowMethods = []string{http.MethodGet}
	cfg.AllowHeaders = []string{"Origin", "Content-Type", requestIDHeader}
	cfg.ExposeHeaders = []string{requestIDHeader}
	for _, o := range origins {
		if o == "*" {
			cfg.AllowAllOrigins = true
			return cfg
		}
	}
	cfg.AllowOrigins = origins
	return cfg
}

// Router exposes the engine, mainly for tests.
func (s *Server) Router() *gin.Engine {
	return s.router
}

// Start serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Start(ctx context.Context) error {
	s.log.Info("Starting relay",
		zap.String("address", s.server.Addr),
		zap.String("upstream", s.upstream.Name()),
	)

	errCh := make(chan error, 1)
	go func() {
		if err := s.server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- fmt.Errorf("server error: %w", err)
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.config.ShutdownTimeout)
	defer cancel()
	if err := s.server.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("server shutdown error: %w", err)
	}
	s.log.Info("Relay stopped")
	return nil
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "ok", "upstream": s.upstream.Name()})
}

// parseQuery validates the request parameters. A missing keyword falls
// back to the default; an unknown timespan becomes 24h.
func parseQuery(c *gin.Context) news.Query {
	q := news.Query{
		Keyword:  news.DefaultKeyword,
		Timespan: news.NormalizeTimespan(c.Query("timespan")),
		Country:  strings.TrimSpace(c.Query("country")),
	}
	if kw, ok := c.GetQuery("q"); ok {
		q.Keyword = strings.TrimSpace(kw)
	}
	if q.Keyword == "" {
		q.Keyword = news.DefaultKeyword
	}
	return q
}

func (s *Server) handleNews(c *gin.Context) {
	c.Header("Cache-Control", cacheControl)
	if c.Request.Method != http.MethodGet {
		c.JSON(http.StatusMethodNotAllowed, newErrorEnvelope(msgMethodNotAllowed))
		return
	}

	q := parseQuery(c)
	ctx := c.Request.Context()
	if s.config.UpstreamTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.config.UpstreamTimeout)
		defer cancel()
	}

	out, err := s.upstream.Fetch(ctx, q)
	if err != nil {
		_ = c.Error(err)
		upstreamRequestsTotal.WithLabelValues(s.upstream.Name(), StatusError).Inc()
		c.JSON(http.StatusInternalServerError, upstreamError(err))
		return
	}

	trimmed := strings.TrimSpace(string(out))
	if trimmed == "" {
		upstreamRequestsTotal.WithLabelValues(s.upstream.Name(), StatusEmpty).Inc()
		c.JSON(http.StatusOK, newEmptyEnvelope())
		return
	}

	data := []byte(trimmed)
	total, err := countRecords(data)
	if err != nil {
		upstreamRequestsTotal.WithLabelValues(s.upstream.Name(), StatusError).Inc()
		env := newErrorEnvelope("Invalid JSON response: " + err.Error())
		env.RawOutput = truncateBytes(out, rawOutputLimit)
		c.JSON(http.StatusInternalServerError, env)
		return
	}

	echo := queryEcho{Keyword: q.Keyword, Timespan: string(q.Timespan)}
	if q.Country != "" {
		country := q.Country
		echo.Country = &country
	}
	upstreamRequestsTotal.WithLabelValues(s.upstream.Name(), StatusSuccess).Inc()
	articlesServed.Add(float64(total))
	c.JSON(http.StatusOK, newSuccessEnvelope(echo, total, data, s.now()))
}

func upstreamError(err error) errorEnvelope {
	var scriptErr *ScriptError
	if errors.As(err, &scriptErr) {
		env := newErrorEnvelope(msgScriptFailed)
		env.Details = scriptErr.Stderr
		code := scriptErr.Code
		env.Code = &code
		return env
	}
	if errors.Is(err, context.DeadlineExceeded) {
		env := newErrorEnvelope("Upstream timed out")
		env.Details = err.Error()
		return env
	}
	env := newErrorEnvelope(msgExecFailed)
	env.Details = err.Error()
	return env
}
