package server

import (
	"context"
	"errors"
	"fmt"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/rs/zerolog"
	"golang.org/x/net/http2"
	"golang.org/x/net/http2/h2c"

	"github.com/kbukum/minutes/logger"
	"github.com/kbukum/minutes/server/endpoint"
	"github.com/kbukum/minutes/server/middleware"
)

const shutdownGrace = 5 * time.Second

// Server is the control API HTTP server backed by Gin, served over HTTP/1.1
// and h2c on one port.
type Server struct {
	httpServer *http.Server
	engine     *gin.Engine
	config     Config
	log        *logger.Logger

	mu    sync.Mutex
	bound net.Addr
}

// New builds a Server with an empty engine. ApplyDefaults installs the
// middleware and housekeeping routes.
func New(cfg Config, log *logger.Logger) *Server {
	if zerolog.GlobalLevel() <= zerolog.DebugLevel {
		gin.SetMode(gin.DebugMode)
	} else {
		gin.SetMode(gin.ReleaseMode)
	}
	if log == nil {
		log = logger.NewNop()
	}

	engine := gin.New()
	h2s := &http2.Server{
		MaxConcurrentStreams: 250,
		IdleTimeout:          120 * time.Second,
	}

	return &Server{
		httpServer: &http.Server{
			Addr:         fmt.Sprintf("%s:%d", cfg.Host, cfg.Port),
			Handler:      h2c.NewHandler(engine, h2s),
			ReadTimeout:  cfg.ReadTimeout,
			WriteTimeout: cfg.WriteTimeout,
			IdleTimeout:  cfg.IdleTimeout,
		},
		engine: engine,
		config: cfg,
		log:    log.WithComponent("server"),
	}
}

// GinEngine is where handlers register their routes.
func (s *Server) GinEngine() *gin.Engine {
	return s.engine
}

// Handler serves both HTTP/1.1 and h2c.
func (s *Server) Handler() http.Handler {
	return s.httpServer.Handler
}

// Start binds the port and serves in the background. The port is ready
// when Start returns.
func (s *Server) Start(context.Context) error {
	ln, err := net.Listen("tcp", s.httpServer.Addr)
	if err != nil {
		return fmt.Errorf("listen on %s: %w", s.httpServer.Addr, err)
	}
	s.mu.Lock()
	s.bound = ln.Addr()
	s.mu.Unlock()

	go func() {
		if err := s.httpServer.Serve(ln); err != nil && !errors.Is(err, http.ErrServerClosed) {
			s.log.Error("control API stopped serving", logger.MergeWithError(nil, err))
		}
	}()
	s.log.Info("control API listening", logger.Fields("addr", ln.Addr().String()))
	return nil
}

// Stop drains in-flight requests for at most shutdownGrace.
func (s *Server) Stop(ctx context.Context) error {
	ctx, cancel := context.WithTimeout(ctx, shutdownGrace)
	defer cancel()
	if err := s.httpServer.Shutdown(ctx); err != nil {
		return fmt.Errorf("server shutdown: %w", err)
	}
	s.log.Info("control API stopped")
	return nil
}

func (s *Server) listening() bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.bound != nil
}

// Addr is the bound address once started, the configured one before.
func (s *Server) Addr() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.bound != nil {
		return s.bound.String()
	}
	return s.httpServer.Addr
}

// applyMiddleware installs, outermost first: panic recovery, request IDs,
// the body size limit and access logging.
func (s *Server) applyMiddleware() {
	s.engine.Use(middleware.Recovery(s.log))
	s.engine.Use(middleware.RequestID())
	s.engine.Use(middleware.BodyLimit(s.config.MaxBodySize))
	s.engine.Use(middleware.RequestLogger(s.log))
}

func (s *Server) ApplyDefaults(serviceName string, checker endpoint.HealthChecker) {
	s.applyMiddleware()
	s.engine.GET("/health", endpoint.Health(serviceName, checker))
	s.engine.GET("/version", endpoint.Version())
}
