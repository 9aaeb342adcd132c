package main

import (
	"context"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/joho/godotenv"

	"github.com/moodscout/moodscout/internal/api"
	"github.com/moodscout/moodscout/internal/cache"
	"github.com/moodscout/moodscout/internal/cache/placecache"
	"github.com/moodscout/moodscout/internal/cache/redisstore"
	"github.com/moodscout/moodscout/internal/core/config"
	"github.com/moodscout/moodscout/internal/core/httpclient"
	"github.com/moodscout/moodscout/internal/core/observability"
	"github.com/moodscout/moodscout/internal/core/server"
	"github.com/moodscout/moodscout/internal/decision/simple"
	"github.com/moodscout/moodscout/internal/hotness/expdecay"
	"github.com/moodscout/moodscout/internal/hotness/metricswrap"
	"github.com/moodscout/moodscout/internal/invalidation/kafkaconsumer"
	"github.com/moodscout/moodscout/internal/logger"
	"github.com/moodscout/moodscout/internal/mood"
	"github.com/moodscout/moodscout/internal/source"
	"github.com/moodscout/moodscout/internal/source/crowd"
	"github.com/moodscout/moodscout/internal/source/events"
	"github.com/moodscout/moodscout/internal/source/places"
	"github.com/moodscout/moodscout/internal/source/weather"
	"github.com/moodscout/moodscout/internal/storage"
	"github.com/moodscout/moodscout/internal/storage/memory"
	"github.com/moodscout/moodscout/internal/storage/postgres"
	"github.com/moodscout/moodscout/internal/suggest"
)

var Version = "dev"

func main() {
	os.Exit(run())
}

func run() int {
	_ = godotenv.Load()

	cfg := config.FromEnv()

	zl := logger.Build(logger.Config{
		Level:     cfg.LogLevel,
		Console:   strings.ToLower(os.Getenv("LOG_CONSOLE")) == "true",
		Component: "suggestd",
	}, os.Stdout)
	appLog := logger.NewSlog(&zl)

	observability.ExposeBuildInfo(Version)
	appLog.Info("starting suggestd",
		"addr", cfg.Addr,
		"version", Version,
		"places_provider", cfg.PlacesProvider)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	hc := httpclient.NewOutbound(cfg.SourceTimeout)
	backends := []string{"places:" + cfg.PlacesProvider}

	var placesSrc source.PlacesSource
	switch cfg.PlacesProvider {
	case "mapbox":
		placesSrc = places.NewMapbox(appLog, hc, places.MapboxConfig{
			AccessToken:  cfg.MapboxAccessToken,
			MaxResults:   cfg.MaxResults,
			DefaultImage: cfg.DefaultImage,
		})
	default:
		src, err := places.New(appLog, hc, places.Config{
			APIKey:       cfg.PlacesAPIKey,
			MaxResults:   cfg.MaxResults,
			DefaultImage: cfg.DefaultImage,
		})
		if err != nil {
			appLog.Error("places source setup failed", "err", err)
			return 1
		}
		placesSrc = src
	}

	var searchCache cache.Interface
	if cfg.RedisAddr != "" {
		rc, err := redisstore.New(ctx, cfg.RedisAddr)
		if err != nil {
			appLog.Error("redis connect failed", "addr", cfg.RedisAddr, "err", err)
			return 1
		}
		defer func() { _ = rc.Close() }()
		searchCache = rc
		demand := metricswrap.New(expdecay.New(cfg.HotHalfLife), appLog, cfg.HotThreshold)
		policy := &simple.Engine{
			Hot:       demand,
			Threshold: cfg.HotThreshold,
			HotFactor: cfg.HotTTLFactor,
			MaxTTL:    cfg.CacheTTLMax,
		}
		placesSrc = placecache.New(appLog, placesSrc, rc, cfg.H3Res, cfg.CacheTTLDefault, cfg.CacheOpTimeout,
			placecache.WithDemandTracking(demand, policy))
		backends = append(backends, "redis")
		appLog.Info("search cache enabled",
			"addr", cfg.RedisAddr, "res", cfg.H3Res, "hot_ttl_factor", cfg.HotTTLFactor)
	}

	var eventsSrc source.EventsSource
	if cfg.EventsAPIKey != "" {
		eventsSrc = events.New(appLog, hc, cfg.EventsAPIKey, "")
		backends = append(backends, "events")
	}
	var weatherSrc source.WeatherSource
	if cfg.WeatherAPIKey != "" {
		weatherSrc = weather.New(appLog, hc, cfg.WeatherAPIKey, "")
		backends = append(backends, "weather")
	}
	var crowdSrc source.CrowdSource
	if cfg.CrowdAPIURL != "" {
		cs, err := crowd.New(appLog, hc, cfg.CrowdAPIKey, cfg.CrowdAPIURL)
		if err != nil {
			appLog.Error("crowd source setup failed", "err", err)
			return 1
		}
		crowdSrc = cs
		backends = append(backends, "crowd")
	}

	agg, err := suggest.NewAggregator(appLog, mood.NewResolver(nil), placesSrc,
		eventsSrc, weatherSrc, crowdSrc, suggest.Options{
			RadiusM:   cfg.SearchRadiusM,
			Timeout:   cfg.SuggestTimeout,
			DedupByID: true,
		})
	if err != nil {
		appLog.Error("aggregator setup failed", "err", err)
		return 1
	}

	var db storage.Store
	if cfg.DatabaseURL != "" {
		pg, err := postgres.Connect(ctx, cfg.DatabaseURL)
		if err != nil {
			appLog.Error("postgres connect failed", "err", err)
			return 1
		}
		db = pg
		backends = append(backends, "postgres")
	} else {
		db = memory.New()
		backends = append(backends, "memory")
	}
	defer db.Close()

	if cfg.Invalidation.Enabled {
		if searchCache == nil {
			appLog.Warn("invalidation enabled without redis cache, skipping consumer")
		} else {
			cons := kafkaconsumer.New(kafkaconsumer.FromEnv(), appLog, searchCache,
				cfg.H3Res, []int{cfg.SearchRadiusM}, mood.AllActivityTypes())
			go func() {
				if err := cons.Start(ctx); err != nil {
					appLog.Error("invalidation consumer exited", "err", err)
				}
			}()
		}
	}

	handler := api.New(appLog, agg, eventsSrc, db, backends)

	if err := server.Run(ctx, cfg, appLog, handler); err != nil {
		appLog.Error("server exited with error", "err", err)
		return 1
	}
	appLog.Info("server stopped")
	return 0
}
