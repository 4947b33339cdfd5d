package routes

import (
	"errors"

	"github.com/gin-gonic/gin"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/Wikid82/chimera/backend/internal/api/handlers"
	"github.com/Wikid82/chimera/backend/internal/api/middleware"
	"github.com/Wikid82/chimera/backend/internal/cerberus"
	"github.com/Wikid82/chimera/backend/internal/services"
	"github.com/Wikid82/chimera/backend/internal/simulator"
)

// Deps are the components the API serves.
type Deps struct {
	Engine    *cerberus.Cerberus
	Audit     *services.AuditService
	Auth      *services.AuthService
	Hub       *handlers.Hub
	Simulator *simulator.Simulator
	Gatherer  prometheus.Gatherer

	AllowedOrigins []string
	SecureCookies  bool
}

func (d Deps) validate() error {
	switch {
	case d.Engine == nil:
		return errors.New("engine is required")
	case d.Audit == nil:
		return errors.New("audit service is required")
	case d.Auth == nil:
		return errors.New("auth service is required")
	case d.Hub == nil:
		return errors.New("stream hub is required")
	case d.Simulator == nil:
		return errors.New("simulator is required")
	case d.Gatherer == nil:
		return errors.New("metrics gatherer is required")
	}
	return nil
}

// Register wires up API routes.
func Register(router *gin.Engine, deps Deps) error {
	if err := deps.validate(); err != nil {
		return err
	}

	api := router.Group("/api/v1")
	api.GET("/health", handlers.HealthHandler)
	api.GET("/metrics", gin.WrapH(promhttp.HandlerFor(deps.Gatherer, promhttp.HandlerOpts{})))

	eventsHandler := handlers.NewEventsHandler(deps.Engine)
	api.POST("/request", eventsHandler.Submit)
	api.GET("/status", eventsHandler.Status)

	authHandler := handlers.NewAuthHandler(deps.Auth, deps.SecureCookies)
	api.POST("/auth/token", authHandler.Token)
	api.POST("/auth/logout", authHandler.Logout)

	admin := api.Group("/")
	admin.Use(middleware.AdminAuth(deps.Auth))
	{
		logsHandler := handlers.NewLogsHandler(deps.Engine.Ledger())
		admin.GET("/logs", logsHandler.List)
		admin.GET("/logs/recent", logsHandler.Recent)

		streamHandler := handlers.NewStreamHandler(deps.Hub, deps.AllowedOrigins)
		admin.GET("/logs/stream", streamHandler.Stream)

		decisionsHandler := handlers.NewDecisionsHandler(deps.Audit)
		admin.GET("/decisions", decisionsHandler.List)

		simulateHandler := handlers.NewSimulateHandler(deps.Simulator)
		admin.POST("/simulate-attack", simulateHandler.Run)
	}

	return nil
}
