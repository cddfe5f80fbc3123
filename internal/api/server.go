package api

import (
	"context"
	"errors"
	"net/http"
	"slices"
	"strconv"
	"strings"
	"time"

	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus/promhttp"
	"go.opentelemetry.io/otel/attribute"

	apperrors "dinediscover/internal/common/errors"
	apphttp "dinediscover/internal/common/http"
	"dinediscover/internal/common/metrics"
	"dinediscover/internal/common/observability"
	"dinediscover/internal/models"
)

type Logger interface {
	Info(msg string, fields map[string]interface{})
	Warn(msg string, fields map[string]interface{})
	Error(msg string, fields map[string]interface{})
	With(fields map[string]interface{}) Logger
}

// Searcher answers one chat message.
type Searcher interface {
	Run(ctx context.Context, message string) (*models.SearchResponse, error)
}

// ReadinessCheck reports whether one dependency is usable.
type ReadinessCheck func(ctx context.Context) error

type Options struct {
	AllowedOrigins []string
	RequestTimeout time.Duration
	Checks         map[string]ReadinessCheck
	Observability  *observability.Observability
}

type Server struct {
	engine   *gin.Engine
	searcher Searcher
	logger   Logger
	opts     Options
}

type executeRequest struct {
	Message *string `json:"message"`
}

type errorResponse struct {
	Detail string `json:"detail"`
}

func NewServer(searcher Searcher, opts Options, log Logger) *Server {
	if gin.Mode() != gin.TestMode && gin.Mode() != gin.DebugMode {
		gin.SetMode(gin.ReleaseMode)
	}
	if len(opts.AllowedOrigins) == 0 {
		opts.AllowedOrigins = []string{"*"}
	}

	s := &Server{
		engine:   gin.New(),
		searcher: searcher,
		logger:   log.With(map[string]interface{}{"component": "api"}),
		opts:     opts,
	}
	s.routes()
	return s
}

func (s *Server) Handler() http.Handler {
	return s.engine
}

func (s *Server) routes() {
	allowAll := slices.Contains(s.opts.AllowedOrigins, "*")
	corsCfg := cors.Config{
		AllowMethods:  []string{"GET", "POST", "OPTIONS"},
		AllowHeaders:  []string{"Origin", "Content-Type", "Accept", "Authorization"},
		ExposeHeaders: []string{"Content-Length"},
		MaxAge:        12 * time.Hour,
	}
	if allowAll {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.opts.AllowedOrigins
		corsCfg.AllowCredentials = true
	}

	s.engine.Use(gin.Recovery(), s.requestLogger(), cors.New(corsCfg))

	s.engine.GET("/health", s.health)
	s.engine.GET("/ready", s.ready)
	s.engine.GET("/metrics", gin.WrapH(promhttp.Handler()))

	api := s.engine.Group("/api")
	api.POST(strings.TrimPrefix(apphttp.ExecutePath, "/api"), s.execute)

	s.engine.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, errorResponse{Detail: "Not Found"})
	})
}

func (s *Server) execute(c *gin.Context) {
	var req executeRequest
	if err := c.ShouldBindJSON(&req); err != nil || req.Message == nil || strings.TrimSpace(*req.Message) == "" {
		details := "message is missing or empty"
		if err != nil {
			details = err.Error()
		}
		s.writeError(c, apperrors.NewInvalidRequestError(details))
		return
	}
	message := strings.TrimSpace(*req.Message)

	ctx := c.Request.Context()
	if s.opts.RequestTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, s.opts.RequestTimeout)
		defer cancel()
	}

	ctx, span := observability.StartSpan(ctx, "api.execute", attribute.Int("message.length", len(message)))
	resp, err := s.searcher.Run(ctx, message)
	observability.EndSpan(span, err)

	if err != nil {
		s.writeError(c, err)
		return
	}

	if resp.Results == nil {
		resp.Results = []models.Place{}
	}
	metrics.APIRequests.WithLabelValues(strconv.Itoa(http.StatusOK)).Inc()
	s.opts.Observability.RecordRequest(ctx, "ok")
	c.JSON(http.StatusOK, resp)
}

// writeError sends {"detail": ...}. Errors without a code are reported as internal.
func (s *Server) writeError(c *gin.Context, err error) {
	stdErr, ok := apperrors.AsStandardError(err)
	if !ok {
		s.logger.Error("unexpected error", map[string]interface{}{"error": err.Error()})
		stdErr = apperrors.NewInternalError(err)
	}
	status := apperrors.HTTPStatus(stdErr.Code)

	fields := map[string]interface{}{
		"code":   string(stdErr.Code),
		"status": status,
	}
	if stdErr.Details != "" {
		fields["details"] = stdErr.Details
	}
	if status >= http.StatusInternalServerError {
		s.logger.Error("search failed", fields)
	} else {
		s.logger.Warn("search rejected", fields)
	}

	metrics.APIRequests.WithLabelValues(strconv.Itoa(status)).Inc()
	s.opts.Observability.RecordRequest(c.Request.Context(), string(stdErr.Code))
	c.JSON(status, errorResponse{Detail: stdErr.Message})
}

func (s *Server) health(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) ready(c *gin.Context) {
	ctx, cancel := context.WithTimeout(c.Request.Context(), 3*time.Second)
	defer cancel()

	checks := gin.H{}
	healthy := true
	for name, check := range s.opts.Checks {
		if err := check(ctx); err != nil {
			healthy = false
			checks[name] = err.Error()
			continue
		}
		checks[name] = "ok"
	}

	status := http.StatusOK
	state := "ready"
	if !healthy {
		status = http.StatusServiceUnavailable
		state = "not ready"
	}
	c.JSON(status, gin.H{"status": state, "checks": checks})
}

func (s *Server) requestLogger() gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()
		c.Next()
		if c.Request.URL.Path == "/metrics" || c.Request.URL.Path == "/health" {
			return
		}
		s.logger.Info("request", map[string]interface{}{
			"method":   c.Request.Method,
			"path":     c.Request.URL.Path,
			"status":   c.Writer.Status(),
			"duration": time.Since(start).String(),
		})
	}
}

// Serve runs an http.Server for the engine until ctx is cancelled.
func (s *Server) Serve(ctx context.Context, addr string, readTimeout, writeTimeout, shutdownTimeout time.Duration) error {
	srv := &http.Server{
		Addr:         addr,
		Handler:      s.engine,
		ReadTimeout:  readTimeout,
		WriteTimeout: writeTimeout,
	}

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("http server listening", map[string]interface{}{"address": addr})
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	return srv.Shutdown(shutdownCtx)
}
