// Command api runs the dealership HTTP API.
//
// @title                       Dealership API
// @version                     1.0
// @description                 Car dealership platform: listings, agents, watermark downloads and page-view analytics.
// @BasePath                    /
// @securityDefinitions.apikey  BearerAuth
// @in                          header
// @name                        Authorization
package main

import (
	"context"
	"errors"
	"net/http"
	"net/url"
	"os"
	"os/signal"
	"syscall"
	"time"

	gonanoid "github.com/matoous/go-nanoid/v2"

	"github.com/autodealer/dealership-api/internal/api"
	"github.com/autodealer/dealership-api/internal/core/service"
	"github.com/autodealer/dealership-api/internal/infrastructure/config"
	"github.com/autodealer/dealership-api/internal/infrastructure/db/mongo"
	"github.com/autodealer/dealership-api/internal/infrastructure/db/redis"
	"github.com/autodealer/dealership-api/internal/infrastructure/http/handlers"
	"github.com/autodealer/dealership-api/internal/infrastructure/media"
	"github.com/autodealer/dealership-api/internal/infrastructure/queue"
	"github.com/autodealer/dealership-api/pkg/logger"
)

const shutdownTimeout = 15 * time.Second

// version is set at build time with -ldflags "-X main.version=...".
var version = "dev"

func main() {
	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	cfg, err := config.Load(ctx)
	if err != nil {
		// The logger is not configured yet; fall back to a default one.
		boot := logger.Init(logger.Options{Service: "dealership-api"})
		boot.Fatal().Err(err).Msg("invalid configuration")
	}

	log := logger.Init(logger.Options{
		Level:   cfg.LogLevel,
		Pretty:  cfg.IsDevelopment(),
		Service: "dealership-api",
		Version: version,
	})

	if err := run(ctx, cfg); err != nil {
		log.Fatal().Err(err).Msg("server stopped with error")
	}
	log.Info().Msg("server stopped")
}

func run(ctx context.Context, cfg *config.Config) error {
	log := logger.Get()

	mongoClient, db, err := mongo.Connect(ctx, mongo.Config{URI: cfg.Mongo.URI, Database: cfg.Mongo.Database})
	if err != nil {
		return err
	}
	defer func() {
		if err := mongo.Disconnect(mongoClient, 5*time.Second); err != nil {
			log.Warn().Err(err).Msg("mongo disconnect")
		}
	}()
	if err := mongo.EnsureIndexes(ctx, db); err != nil {
		return err
	}

	rdb, err := redis.Connect(ctx, redis.Config{Addr: cfg.Redis.Addr, Password: cfg.Redis.Password, DB: cfg.Redis.DB})
	if err != nil {
		return err
	}
	defer rdb.Close()

	// --- Repositories ---
	admins := mongo.NewAdminRepository(db)
	agents := mongo.NewAgentRepository(db)
	listings := mongo.NewListingRepository(db)
	pageViews := mongo.NewPageViewRepository(db)

	// --- Services ---
	tokens := service.NewTokens(service.TokenConfig{Secret: []byte(cfg.Auth.JWTSecret), TTL: cfg.Auth.TokenTTL})
	gateway := service.NewGateway(tokens, admins, agents, logger.Component("gateway"))
	authService := service.NewAuthService(admins, agents, tokens, logger.Component("auth"))
	listingService := service.NewListingService(listings, agents, service.NewSlugAllocator(listings), logger.Component("listings"))
	agentService := service.NewAgentService(agents, logger.Component("agents"))

	if cfg.Media.LogoURL == "" {
		log.Warn().Msg("LOGO_URL is not set, watermark downloads will fail")
	}
	fetchOpts := []media.FetcherOption{}
	if len(cfg.Media.AllowedHosts) > 0 {
		hosts := cfg.Media.AllowedHosts
		// The logo is operator configured and always reachable.
		if u, err := url.Parse(cfg.Media.LogoURL); err == nil && u.Hostname() != "" {
			hosts = append(hosts, u.Hostname())
		}
		fetchOpts = append(fetchOpts, media.WithAllowedHosts(hosts...))
	} else {
		log.Warn().Msg("MEDIA_ALLOWED_HOSTS is not set, images may be fetched from any public host")
	}
	if cfg.Media.AllowPrivateNetworks {
		fetchOpts = append(fetchOpts, media.WithPrivateNetworks())
	}
	watermarkService := service.NewWatermarkService(
		media.NewHTTPFetcher(0, 0, fetchOpts...),
		cfg.Media.LogoURL,
		logger.Component("media"),
		service.WithMaxPixels(cfg.Media.MaxPixels),
	)

	salt := cfg.Analytics.Salt
	if salt == "" {
		salt, err = gonanoid.New(32)
		if err != nil {
			return err
		}
		log.Warn().Msg("ANALYTICS_SALT is not set, using a per-process salt; unique visitor counts reset on restart")
	}
	analyticsService := service.NewAnalyticsService(
		pageViews,
		redis.NewDedupChecker(rdb, cfg.Analytics.DedupWindow),
		salt,
		logger.Component("analytics"),
	)

	if cfg.Bootstrap.AdminEmail != "" {
		if err := authService.BootstrapAdmin(ctx, cfg.Bootstrap.AdminEmail, cfg.Bootstrap.AdminPassword, cfg.Bootstrap.AdminName); err != nil {
			return err
		}
	}

	// --- Page view ingestion ---
	workerCtx, stopWorkers := context.WithCancel(context.Background())
	dispatcher := queue.NewDispatcher(cfg.Analytics.Workers, analyticsService, logger.Component("pageview-queue"))
	dispatcher.Start(workerCtx)

	e := api.NewRouter(api.Dependencies{
		Gateway:       gateway,
		Auth:          authService,
		Listings:      listingService,
		Agents:        agentService,
		Media:         watermarkService,
		Analytics:     analyticsService,
		PageViewQueue: dispatcher,
		HealthChecks: map[string]handlers.Pinger{
			"mongodb": mongo.Pinger{Client: mongoClient},
			"redis":   redis.Pinger{Client: rdb},
		},
		LoginRatePerMin: cfg.Auth.LoginRatePerMin,
		Log:             log,
	})

	errCh := make(chan error, 1)
	go func() {
		log.Info().Str("port", cfg.Port).Str("env", cfg.Env).Msg("starting server")
		if err := e.Start(":" + cfg.Port); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	select {
	case <-ctx.Done():
		log.Info().Msg("shutdown signal received")
	case err := <-errCh:
		stopWorkers()
		dispatcher.Wait()
		return err
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()
	if err := e.Shutdown(shutdownCtx); err != nil {
		log.Error().Err(err).Msg("graceful shutdown failed")
	}

	// In-flight requests are done; flush buffered page views.
	stopWorkers()
	dispatcher.Wait()
	return nil
}
