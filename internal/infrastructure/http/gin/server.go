package gin

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	ginlib "github.com/gin-gonic/gin"
	"github.com/google/uuid"

	"github.com/BryServices/auradhom-v2/internal/config"
	"github.com/BryServices/auradhom-v2/pkg/logger"
)

const HeaderRequestID = "X-Request-ID"

type Server struct {
	engine *ginlib.Engine
	http   *http.Server
}

// NewEngine builds the engine with recovery, request id and access log.
// Extra middleware (metrics) runs after them.
func NewEngine(env string, log logger.Logger, extra ...ginlib.HandlerFunc) *ginlib.Engine {
	if env == "production" {
		ginlib.SetMode(ginlib.ReleaseMode)
	}
	r := ginlib.New()
	r.Use(ginlib.Recovery(), RequestID(), AccessLog(log))
	r.Use(extra...)
	return r
}

// RequestID propagates X-Request-ID (generated when absent) into the request context.
func RequestID() ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		id := c.GetHeader(HeaderRequestID)
		if id == "" {
			id = uuid.NewString()
		}
		c.Header(HeaderRequestID, id)
		c.Request = c.Request.WithContext(logger.ContextWithRequestID(c.Request.Context(), id))
		c.Next()
	}
}

func AccessLog(log logger.Logger) ginlib.HandlerFunc {
	return func(c *ginlib.Context) {
		start := time.Now()
		c.Next()

		if c.Request.URL.Path == "/health" || c.Request.URL.Path == "/metrics" {
			return
		}
		log.WithContext(c.Request.Context()).Info("http request",
			logger.String("method", c.Request.Method),
			logger.String("path", c.Request.URL.Path),
			logger.Int("status", c.Writer.Status()),
			logger.Duration("latency", time.Since(start)),
		)
	}
}

func NewServer(cfg config.ServerConfig, engine *ginlib.Engine) *Server {
	return &Server{
		engine: engine,
		http: &http.Server{
			Addr:              cfg.Address(),
			Handler:           engine,
			ReadHeaderTimeout: 10 * time.Second,
		},
	}
}

// Run blocks until the server stops; http.ErrServerClosed is not an error.
func (s *Server) Run() error {
	if s.engine == nil {
		return fmt.Errorf("gin engine is nil")
	}
	if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
		return err
	}
	return nil
}

// RegisterOnShutdown runs f when Shutdown starts, for long-lived handlers
// such as event streams.
func (s *Server) RegisterOnShutdown(f func()) {
	s.http.RegisterOnShutdown(f)
}

func (s *Server) Shutdown(ctx context.Context) error {
	return s.http.Shutdown(ctx)
}
