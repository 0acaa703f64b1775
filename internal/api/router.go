package api

import (
	"github.com/labstack/echo-contrib/echoprometheus"
	"github.com/labstack/echo/v4"
	echomiddleware "github.com/labstack/echo/v4/middleware"
	"github.com/prometheus/client_golang/prometheus"
	"github.com/rs/zerolog"
	echoSwagger "github.com/swaggo/echo-swagger"

	_ "github.com/autodealer/dealership-api/docs" // swagger spec registration
	"github.com/autodealer/dealership-api/internal/api/handler"
	"github.com/autodealer/dealership-api/internal/api/middleware"
	"github.com/autodealer/dealership-api/internal/core/domain"
	"github.com/autodealer/dealership-api/internal/core/ports"
	"github.com/autodealer/dealership-api/internal/infrastructure/http/handlers"
)

// Dependencies carries everything the router wires into handlers.
type Dependencies struct {
	Gateway         ports.Gateway
	Auth            ports.AuthService
	Listings        ports.ListingService
	Agents          ports.AgentService
	Media           ports.WatermarkService
	Analytics       ports.AnalyticsService
	PageViewQueue   handler.PageViewQueue
	HealthChecks    map[string]handlers.Pinger
	LoginRatePerMin int
	Log             zerolog.Logger
	// Registry receives the HTTP request metrics. Nil selects the default
	// Prometheus registry.
	Registry *prometheus.Registry
}

// NewRouter builds and returns the Echo instance with all routes registered.
func NewRouter(deps Dependencies) *echo.Echo {
	e := echo.New()
	e.HideBanner = true
	e.HidePort = true
	e.HTTPErrorHandler = NewHTTPErrorHandler(deps.Log)
	e.Validator = handler.NewValidator()

	// --- Global middleware ---
	e.Use(echomiddleware.Recover())
	e.Use(echomiddleware.RequestID())
	e.Use(middleware.RequestLogger(deps.Log))
	var (
		registerer prometheus.Registerer = prometheus.DefaultRegisterer
		gatherer   prometheus.Gatherer   = prometheus.DefaultGatherer
	)
	if deps.Registry != nil {
		registerer, gatherer = deps.Registry, deps.Registry
	}
	e.Use(echoprometheus.NewMiddlewareWithConfig(echoprometheus.MiddlewareConfig{
		Subsystem:  "dealership",
		Registerer: registerer,
		Skipper: func(c echo.Context) bool {
			return c.Path() == "/metrics" || c.Path() == "/health"
		},
	}))
	e.Use(echomiddleware.BodyLimit("1M"))

	// --- Handlers ---
	authHandler := handler.NewAuthHandler(deps.Auth)
	listingHandler := handler.NewListingHandler(deps.Listings)
	agentHandler := handler.NewAgentHandler(deps.Agents)
	mediaHandler := handler.NewMediaHandler(deps.Media, deps.Log)
	analyticsHandler := handler.NewAnalyticsHandler(deps.PageViewQueue, deps.Analytics)

	// --- Health checks, metrics, docs (no auth required) ---
	e.GET("/health", handlers.NewHealthHandler().Liveness)
	e.GET("/health/ready", handlers.NewHealthDependenciesHandler(deps.HealthChecks).Readiness)
	e.GET("/metrics", echoprometheus.NewHandlerWithConfig(echoprometheus.HandlerConfig{Gatherer: gatherer}))
	e.GET("/swagger/*", echoSwagger.WrapHandler)

	api := e.Group("/api")

	// --- Public ---
	api.GET("/cars", listingHandler.ListPublic)
	api.GET("/cars/:slug", listingHandler.GetPublic)
	api.POST("/analytics/pageview", analyticsHandler.Track)

	// --- Login ---
	loginLimit := middleware.LoginRateLimit(deps.LoginRatePerMin)
	api.POST("/admin/login", authHandler.LoginAdmin, loginLimit)
	api.POST("/agent/login", authHandler.LoginAgent, loginLimit)

	// --- Agent ---
	agent := api.Group("/agent", middleware.RequireCapability(deps.Gateway, domain.CapabilityAgent))
	agent.GET("/me", authHandler.Me)
	registerListingRoutes(agent, listingHandler)
	registerMediaRoutes(agent, mediaHandler)

	// --- Admin ---
	admin := api.Group("/admin", middleware.RequireCapability(deps.Gateway, domain.CapabilityAdmin))
	admin.GET("/me", authHandler.Me)
	registerListingRoutes(admin, listingHandler)
	admin.PATCH("/cars/:id/publish", listingHandler.Publish)
	admin.PATCH("/cars/:id/feature", listingHandler.Feature)
	admin.GET("/agents", agentHandler.List)
	admin.POST("/agents", agentHandler.Create)
	admin.PATCH("/agents/:id/status", agentHandler.SetStatus)
	admin.GET("/analytics/pageviews", analyticsHandler.Summary)
	registerMediaRoutes(admin, mediaHandler)

	return e
}

func registerListingRoutes(g *echo.Group, h *handler.ListingHandler) {
	g.GET("/cars", h.List)
	g.POST("/cars", h.Create)
	g.GET("/cars/:id", h.Get)
	g.PUT("/cars/:id", h.Update)
	g.DELETE("/cars/:id", h.Delete)
}

func registerMediaRoutes(g *echo.Group, h *handler.MediaHandler) {
	g.GET("/media/watermark", h.DownloadOne)
	g.POST("/media/archive", h.DownloadAll)
}
