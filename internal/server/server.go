package server

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/collectors"
	"gorm.io/gorm"

	"github.com/Wikid82/chimera/backend/internal/api/handlers"
	"github.com/Wikid82/chimera/backend/internal/api/middleware"
	"github.com/Wikid82/chimera/backend/internal/api/routes"
	"github.com/Wikid82/chimera/backend/internal/cerberus"
	"github.com/Wikid82/chimera/backend/internal/classifier"
	"github.com/Wikid82/chimera/backend/internal/config"
	"github.com/Wikid82/chimera/backend/internal/database"
	"github.com/Wikid82/chimera/backend/internal/ledger"
	"github.com/Wikid82/chimera/backend/internal/logger"
	"github.com/Wikid82/chimera/backend/internal/metrics"
	"github.com/Wikid82/chimera/backend/internal/response"
	"github.com/Wikid82/chimera/backend/internal/services"
	"github.com/Wikid82/chimera/backend/internal/simulator"
)

const shutdownTimeout = 5 * time.Second

// Server wraps the HTTP engine and shared dependencies for easier testing.
type Server struct {
	Engine   *gin.Engine
	Cerberus *cerberus.Cerberus
	Hub      *handlers.Hub
	Notifier *services.NotificationService
	DB       *gorm.DB
	Registry *prometheus.Registry

	cfg config.Config
}

// Build assembles the detection pipeline, its sinks and the HTTP router from
// configuration.
func Build(cfg config.Config) (*Server, error) {
	rules, err := classifier.LoadRules(cfg.Detection.RulesFile)
	if err != nil {
		return nil, fmt.Errorf("load rules: %w", err)
	}

	db, err := database.Open(cfg.Audit.DSN)
	if err != nil {
		return nil, fmt.Errorf("open audit database: %w", err)
	}
	audit := services.NewAuditService(db)

	notifier, err := services.NewNotificationService(cfg.NotifyURLs)
	if err != nil {
		return nil, fmt.Errorf("notifications: %w", err)
	}

	auth, err := services.NewAuthService(cfg.Auth)
	if err != nil {
		return nil, fmt.Errorf("auth: %w", err)
	}
	if !auth.Enabled() {
		logger.Log().Warn("CHIMERA_ADMIN_TOKEN_HASH is not set; admin routes are open")
	}

	registry := prometheus.NewRegistry()
	registry.MustRegister(collectors.NewGoCollector(), collectors.NewProcessCollector(collectors.ProcessCollectorOpts{}))
	metrics.Register(registry)

	hub := handlers.NewHub(handlers.DefaultStreamBuffer)
	engine := cerberus.New(
		classifier.New(
			classifier.WithRules(rules),
			classifier.WithWindow(cfg.Detection.RateWindow),
			classifier.WithThreshold(cfg.Detection.RateThreshold),
		),
		response.NewSelector(nil),
		ledger.New(ledger.WithCapacity(cfg.Detection.LedgerCapacity)),
		cerberus.WithSinks(
			cerberus.MetricsSink(),
			cerberus.AuditSink(audit),
			cerberus.NotifySink(notifier),
			hub,
		),
	)

	srv, err := New(cfg, routes.Deps{
		Engine:         engine,
		Audit:          audit,
		Auth:           auth,
		Hub:            hub,
		Simulator:      simulator.New(simulator.EngineSender{Engine: engine}),
		Gatherer:       registry,
		AllowedOrigins: cfg.AllowedOrigins,
		SecureCookies:  !cfg.IsDevelopment(),
	})
	if err != nil {
		return nil, err
	}
	srv.Notifier = notifier
	srv.DB = db
	srv.Registry = registry
	return srv, nil
}

// New wires up the HTTP router and registers versioned routes.
func New(cfg config.Config, deps routes.Deps) (*Server, error) {
	gin.SetMode(gin.ReleaseMode)
	if cfg.Debug {
		gin.SetMode(gin.DebugMode)
	}

	router := gin.New()
	router.Use(
		middleware.RequestID(),
		middleware.RequestLogger("/api/v1/health", "/api/v1/metrics"),
		middleware.Recovery(cfg.Debug),
		middleware.SecurityHeaders(middleware.SecurityHeadersConfig{IsDevelopment: cfg.IsDevelopment()}),
		middleware.CORS(cfg.AllowedOrigins),
	)
	router.NoRoute(func(c *gin.Context) {
		c.JSON(http.StatusNotFound, gin.H{"error": "route not found"})
	})

	if err := routes.Register(router, deps); err != nil {
		return nil, fmt.Errorf("register routes: %w", err)
	}

	return &Server{Engine: router, Cerberus: deps.Engine, Hub: deps.Hub, cfg: cfg}, nil
}

// Run starts the HTTP server with proper shutdown semantics.
func (s *Server) Run(ctx context.Context) error {
	srv := &http.Server{
		Addr:              fmt.Sprintf(":%s", s.cfg.HTTPPort),
		Handler:           s.Engine,
		ReadHeaderTimeout: 10 * time.Second,
	}

	errCh := make(chan error, 1)
	go func() {
		logger.Log().WithField("addr", srv.Addr).Info("HTTP server listening")
		errCh <- srv.ListenAndServe()
	}()

	select {
	case <-ctx.Done():
		shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
		defer cancel()

		s.Hub.Close()
		err := srv.Shutdown(shutdownCtx)
		s.Notifier.Wait()
		if err != nil {
			return fmt.Errorf("graceful shutdown: %w", err)
		}
		return nil
	case err := <-errCh:
		if errors.Is(err, http.ErrServerClosed) {
			return nil
		}
		return err
	}
}
