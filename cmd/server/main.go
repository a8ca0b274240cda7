package main

import (
	"context"
	"errors"
	"fmt"
	"log"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/sirupsen/logrus"

	"github.com/placewise/backend/config"
	httpDelivery "github.com/placewise/backend/internal/delivery/http"
	"github.com/placewise/backend/internal/domain"
	"github.com/placewise/backend/internal/infrastructure/cache"
	"github.com/placewise/backend/internal/infrastructure/experiments"
	"github.com/placewise/backend/internal/infrastructure/geoip"
	"github.com/placewise/backend/internal/infrastructure/prefs"
	"github.com/placewise/backend/internal/infrastructure/remoteconfig"
	"github.com/placewise/backend/internal/infrastructure/suggest"
	"github.com/placewise/backend/internal/scheduler"
	"github.com/placewise/backend/internal/usecase"
	"github.com/placewise/backend/pkg/logger"
)

func main() {
	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		log.Fatalf("Failed to load configuration: %v", err)
	}

	appLogger, err := logger.New(cfg.Logger.Level, cfg.Logger.Format)
	if err != nil {
		log.Fatalf("Failed to initialize logger: %v", err)
	}

	appLogger.WithFields(logrus.Fields{
		"environment": cfg.Server.Environment,
		"port":        cfg.Server.Port,
		"suggest_url": cfg.Suggest.BaseURL,
	}).Info("Starting Placewise Backend v1.0.0")

	// Initialize infrastructure dependencies
	suggestClient := suggest.NewClient(cfg.Suggest.APIKey, cfg.Suggest.BaseURL, appLogger)
	suggestClient.SetTimeout(cfg.Suggest.Timeout)
	suggestClient.SetRateLimit(cfg.Suggest.RateLimit, cfg.Suggest.RateBurst)
	if cfg.Suggest.Debug || cfg.Server.Environment == "development" {
		suggestClient.SetDebug(true)
	}
	if cfg.Suggest.APIKey == "" {
		appLogger.Warn("Suggestion API key not configured, requests are sent unauthenticated")
	}

	geoCache := cache.NewMemoryCache(cache.WithCleanupInterval(0))
	defer geoCache.Close()

	var geoProvider domain.GeoProvider
	if cfg.GeoIP.BaseURL != "" {
		geoProvider = geoip.NewClient(cfg.GeoIP.BaseURL, geoCache, cfg.GeoIP.CacheTTL, cfg.GeoIP.Timeout, appLogger)
	}

	prefStore, err := prefs.NewStore(cfg.Prefs.Path, appLogger)
	if err != nil {
		appLogger.WithError(err).Fatal("Failed to open preference store")
	}

	experimentSource := experiments.NewStatic(cfg.Experiments)
	remoteConfig := remoteconfig.NewClient(cfg.RemoteConfig.URL, cfg.RemoteConfig.Timeout, appLogger)

	// Initialize usecase layer
	minLength := usecase.NewMinKeywordLengthResolver(
		usecase.PreferenceOverride(prefStore, usecase.MinKeywordLengthPrefKey),
		usecase.ExperimentVariable(experimentSource, usecase.MinKeywordLengthExperimentKey),
		usecase.RemoteConfigValue(remoteConfig, usecase.MinKeywordLengthRemoteConfigKey),
		usecase.DefaultLength(cfg.Suggest.MinKeywordLengthDefault),
	)
	disambiguator := usecase.NewDisambiguator(geoProvider, appLogger)

	sessions := usecase.NewSessionRegistry(
		func() usecase.SessionCache {
			return cache.NewMemoryCache(cache.WithCleanupInterval(0))
		},
		func(responses domain.CacheRepository) *usecase.SuggestionService {
			guard := usecase.NewStalenessGuard(suggestClient, responses, usecase.StalenessGuardConfig{
				CacheTTL: cfg.Suggest.CacheTTL,
				Timeout:  cfg.Suggest.Timeout,
			}, appLogger)
			return usecase.NewSuggestionService(guard, disambiguator, minLength, appLogger)
		},
		minLength,
		cfg.Suggest.SessionIdleTTL,
		appLogger,
	)
	defer sessions.Close()

	// Scheduled maintenance
	jobs := []scheduler.Job{
		scheduler.PurgeJob("Geolocation Cache Purge", cfg.Cache.PurgeSpec, geoCache, appLogger),
		scheduler.PurgeJob("Suggestion Cache Purge", cfg.Cache.PurgeSpec, sessions, appLogger),
		scheduler.SweepJob(cfg.Suggest.SessionSweepSpec, sessions, appLogger),
	}
	if remoteConfig.Enabled() {
		jobs = append(jobs, scheduler.RefreshJob(cfg.RemoteConfig.RefreshSpec, remoteConfig))
	}

	cronScheduler := scheduler.NewCronScheduler(jobs, appLogger)
	if err := cronScheduler.Start(); err != nil {
		appLogger.WithError(err).Fatal("Failed to start scheduler")
	}
	defer cronScheduler.Stop()

	if remoteConfig.Enabled() {
		cronScheduler.RunNow("Remote Config Refresh")
	}

	// Create HTTP handler with dependencies
	handler := httpDelivery.NewHandler(sessions, prefStore, appLogger)
	handler.SetScheduler(cronScheduler)
	router := httpDelivery.SetupRouter(cfg, handler, appLogger)

	addr := fmt.Sprintf(":%s", cfg.Server.Port)
	server := &http.Server{
		Addr:              addr,
		Handler:           router,
		ReadHeaderTimeout: 10 * time.Second,
	}

	go func() {
		appLogger.WithField("addr", addr).Info("Server listening")
		if err := server.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			appLogger.WithError(err).Fatal("Failed to start server")
		}
	}()

	// Wait for interrupt signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
	<-quit

	appLogger.Info("Shutting down server...")

	ctx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if err := server.Shutdown(ctx); err != nil {
		appLogger.WithError(err).Error("Server forced to shutdown")
	}

	appLogger.Info("Server exited")
}
