// Package server exposes the tutor over a JSON HTTP API.
package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/abhisek/vidtutor/internal/analysis"
	"github.com/abhisek/vidtutor/internal/config"
	"github.com/abhisek/vidtutor/internal/logger"
	"github.com/abhisek/vidtutor/internal/session"
	"github.com/abhisek/vidtutor/internal/tutor"
	"github.com/gin-contrib/cors"
	"github.com/gin-gonic/gin"
	"golang.org/x/sync/errgroup"
)

// Deps are the services the HTTP handlers call into.
type Deps struct {
	Tutor    *tutor.Service
	Analyzer *analysis.Analyzer
	Recorder *session.Recorder // optional in client session mode
	Log      *logger.Logger
}

// Server serves the tutor API.
type Server struct {
	cfg      config.ServerConfig
	tutor    *tutor.Service
	analyzer *analysis.Analyzer
	recorder *session.Recorder
	log      *logger.Logger
	engine   *gin.Engine
}

// New builds the router. Server session mode needs a recorder backed by a
// session store.
func New(cfg config.ServerConfig, deps Deps) (*Server, error) {
	if deps.Tutor == nil || deps.Analyzer == nil {
		return nil, errors.New("server: tutor and analyzer are required")
	}
	if cfg.SessionMode == config.SessionModeServer && !deps.Recorder.Enabled() {
		return nil, errors.New("server: session mode \"server\" requires a session store")
	}
	if deps.Log == nil {
		deps.Log = logger.Nop()
	}

	s := &Server{
		cfg:      cfg,
		tutor:    deps.Tutor,
		analyzer: deps.Analyzer,
		recorder: deps.Recorder,
		log:      deps.Log,
	}
	s.engine = s.routes()
	return s, nil
}

func (s *Server) routes() *gin.Engine {
	router := gin.New()
	router.Use(recovery(s.log), requestLogger(s.log))

	corsCfg := cors.DefaultConfig()
	corsCfg.AllowMethods = []string{"GET", "POST", "OPTIONS"}
	corsCfg.AllowHeaders = []string{"Content-Type", "X-Requested-With"}
	if len(s.cfg.AllowedOrigins) == 0 || (len(s.cfg.AllowedOrigins) == 1 && s.cfg.AllowedOrigins[0] == "*") {
		corsCfg.AllowAllOrigins = true
	} else {
		corsCfg.AllowOrigins = s.cfg.AllowedOrigins
	}
	router.Use(cors.New(corsCfg))

	router.GET("/healthcheck", healthCheck)

	api := router.Group("/api")
	if s.cfg.RateLimit > 0 {
		api.Use(rateLimit(newClientLimiter(s.cfg.RateLimit, s.cfg.RateBurst)))
	}
	{
		api.POST("/analyze", s.analyze)
		api.POST("/tutor/start", s.start)
		api.POST("/tutor/evaluate", s.evaluate)
		api.POST("/tutor/hint", s.hint)
		api.GET("/sessions/:id", s.getSession)
	}
	return router
}

// Handler returns the HTTP handler, mainly for tests.
func (s *Server) Handler() http.Handler {
	return s.engine
}

// Run serves until ctx is cancelled, then shuts down gracefully.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              s.cfg.Addr,
		Handler:           s.engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		s.log.Info("http server listening", "addr", s.cfg.Addr, "session_mode", s.cfg.SessionMode)
		if err := srv.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			return fmt.Errorf("listen: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		<-gctx.Done()
		timeout := s.cfg.ShutdownTimeout
		if timeout <= 0 {
			timeout = 10 * time.Second
		}
		shutdownCtx, cancel := context.WithTimeout(context.WithoutCancel(ctx), timeout)
		defer cancel()
		s.log.Info("http server shutting down")
		return srv.Shutdown(shutdownCtx)
	})
	return g.Wait()
}

func healthCheck(c *gin.Context) {
	c.String(http.StatusOK, "ok")
}
