package gateway

import (
	"context"
	"net/http"
	"runtime/debug"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/google/uuid"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/cortexhq/cortex-auth/internal/auth"
	"github.com/cortexhq/cortex-auth/internal/authz"
	"github.com/cortexhq/cortex-auth/internal/config"
	"github.com/cortexhq/cortex-auth/internal/middleware"
	"github.com/cortexhq/cortex-auth/internal/observability"
)

// Server is the gateway HTTP server.
type Server struct {
	cfg    *config.Config
	engine *gin.Engine
	server *http.Server
	logger observability.Logger
	gate   *middleware.Gate
	canary *Canary
	proxy  *Proxy
}

// NewServer assembles the gateway from its parts. The middleware chain
// runs request ID, recovery, access logging, then the canary
// authentication decision; everything not handled by a gateway route is
// proxied downstream.
func NewServer(
	cfg *config.Config,
	gate *middleware.Gate,
	canary *Canary,
	proxy *Proxy,
	metrics *Metrics,
	logger observability.Logger,
) *Server {
	gin.SetMode(gin.ReleaseMode)
	engine := gin.New()

	engine.Use(
		requestIDMiddleware(),
		recoveryMiddleware(logger),
		loggingMiddleware(logger),
		CanaryAuth(gate, canary, metrics, logger),
	)

	s := &Server{
		cfg:    cfg,
		engine: engine,
		logger: logger,
		gate:   gate,
		canary: canary,
		proxy:  proxy,
	}

	engine.GET("/", s.handleRoot)
	engine.GET("/health", s.handleHealth)
	engine.GET("/metrics", gin.WrapH(promhttp.Handler()))
	engine.GET("/api/admin/services", s.handleAdminServices)
	engine.NoRoute(gin.WrapH(proxy))

	s.server = &http.Server{
		Addr:         cfg.Gateway.Listen,
		Handler:      engine,
		ReadTimeout:  cfg.Gateway.ReadTimeout.Duration(),
		WriteTimeout: cfg.Gateway.WriteTimeout.Duration(),
	}

	return s
}

// Handler returns the assembled HTTP handler.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until the context is cancelled, then drains connections
// within the shutdown timeout.
func (s *Server) Run(ctx context.Context) error {
	errCh := make(chan error, 1)

	go func() {
		s.logger.Info("gateway listening",
			observability.String("addr", s.server.Addr),
		)
		if err := s.server.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	select {
	case err := <-errCh:
		return err
	case <-ctx.Done():
	}

	s.logger.Info("gateway shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), s.cfg.Gateway.ShutdownTimeout.Duration())
	defer cancel()

	return s.server.Shutdown(shutdownCtx)
}

func (s *Server) handleRoot(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{
		"service": "cortex-gateway",
		"status":  "running",
	})
}

func (s *Server) handleHealth(c *gin.Context) {
	c.JSON(http.StatusOK, gin.H{"status": "healthy"})
}

// handleAdminServices lists the configured downstream routes. Admin
// only; the canary middleware may have let the request through
// unauthenticated, so the role check re-authenticates here.
func (s *Server) handleAdminServices(c *gin.Context) {
	principal, ok := auth.PrincipalFromContext(c.Request.Context())
	if !ok {
		p, err := s.gate.Authenticate(c.Request)
		if err != nil {
			e := auth.Classify(err)
			c.JSON(e.Status, auth.ErrorBody{
				Detail: auth.ErrorDetail{Code: e.Code, Message: e.Message},
			})
			return
		}
		principal = p
	}

	if err := authz.AdminOnly(principal); err != nil {
		e := auth.Classify(err)
		c.JSON(e.Status, auth.ErrorBody{
			Detail: auth.ErrorDetail{Code: e.Code, Message: e.Message},
		})
		return
	}

	type serviceInfo struct {
		Name         string `json:"name"`
		Prefix       string `json:"prefix"`
		Target       string `json:"target"`
		PreservePath bool   `json:"preserve_path"`
	}

	services := make([]serviceInfo, 0, len(s.proxy.Routes()))
	for _, route := range s.proxy.Routes() {
		services = append(services, serviceInfo{
			Name:         route.Name,
			Prefix:       route.Prefix,
			Target:       route.Target.String(),
			PreservePath: route.PreservePath,
		})
	}

	c.JSON(http.StatusOK, gin.H{"services": services})
}

// requestIDMiddleware propagates or generates X-Request-ID, mirroring
// the net/http middleware used by downstream services.
func requestIDMiddleware() gin.HandlerFunc {
	return func(c *gin.Context) {
		requestID := c.GetHeader(middleware.RequestIDHeader)
		if requestID == "" {
			requestID = uuid.New().String()
			c.Request.Header.Set(middleware.RequestIDHeader, requestID)
		}

		ctx := observability.ContextWithRequestID(c.Request.Context(), requestID)
		c.Request = c.Request.WithContext(ctx)
		c.Writer.Header().Set(middleware.RequestIDHeader, requestID)

		c.Next()
	}
}

// recoveryMiddleware converts handler panics into a 500 response.
func recoveryMiddleware(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		defer func() {
			if err := recover(); err != nil {
				logger.Error("panic recovered",
					observability.String("path", c.Request.URL.Path),
					observability.String("method", c.Request.Method),
					observability.Any("error", err),
					observability.String("stack", string(debug.Stack())),
				)

				c.AbortWithStatusJSON(http.StatusInternalServerError,
					gin.H{"error": "internal server error"})
			}
		}()

		c.Next()
	}
}

// loggingMiddleware logs one line per request.
func loggingMiddleware(logger observability.Logger) gin.HandlerFunc {
	return func(c *gin.Context) {
		start := time.Now()

		c.Next()

		logger.WithContext(c.Request.Context()).Info("request completed",
			observability.String("method", c.Request.Method),
			observability.String("path", c.Request.URL.Path),
			observability.Int("status", c.Writer.Status()),
			observability.Duration("duration", time.Since(start)),
		)
	}
}
