package main

import (
	"context"
	"errors"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"

	httpadapter "github.com/couchcryptid/quakehub/internal/adapter/http"
	kafkaadapter "github.com/couchcryptid/quakehub/internal/adapter/kafka"
	"github.com/couchcryptid/quakehub/internal/adapter/mapbox"
	"github.com/couchcryptid/quakehub/internal/config"
	"github.com/couchcryptid/quakehub/internal/domain"
	"github.com/couchcryptid/quakehub/internal/feed"
	"github.com/couchcryptid/quakehub/internal/observability"
	"github.com/couchcryptid/quakehub/internal/pipeline"
	"github.com/couchcryptid/quakehub/internal/region"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	logger := observability.NewLogger(cfg.LogLevel, cfg.LogFormat)
	metrics := observability.NewMetrics()

	client := feed.NewHTTPClient()
	adapters := make([]feed.Adapter, 0, len(cfg.Sources))
	for _, src := range cfg.Sources {
		a, err := feed.New(src, cfg.FeedURLs[src], client)
		if err != nil {
			logger.Error("failed to create feed adapter", "source", src, "error", err)
			os.Exit(1)
		}
		adapters = append(adapters, a)
	}

	opts := []pipeline.Option{}

	if cfg.RegionMode == domain.ModeRegion {
		matcher, err := newRegionMatcher(cfg, logger, metrics)
		if err != nil {
			logger.Error("failed to set up region matching", "error", err)
			os.Exit(1)
		}
		opts = append(opts, pipeline.WithRegionMatcher(matcher))
	}

	var writer *kafkaadapter.Writer
	if len(cfg.KafkaBrokers) > 0 {
		writer = kafkaadapter.NewWriter(cfg.KafkaBrokers, cfg.KafkaTopic, logger)
		opts = append(opts, pipeline.WithPublisher(writer))
		logger.Info("kafka publishing enabled", "brokers", cfg.KafkaBrokers, "topic", cfg.KafkaTopic)
	}

	store := pipeline.NewStore()
	refresher := pipeline.New(adapters, store, pipeline.Config{
		Interval:     cfg.UpdateInterval,
		FetchTimeout: cfg.FetchTimeout,
		Filter:       cfg.FilterOptions(),
	}, logger, metrics, opts...)

	srv := httpadapter.NewServer(cfg.HTTPAddr, refresher, store, httpadapter.APIConfig{
		Origin:        cfg.Origin,
		SummaryWindow: cfg.SummaryWindow,
	}, logger)

	ctx, stop := signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
	defer stop()

	go func() {
		if err := srv.Start(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			logger.Error("http server error", "error", err)
		}
	}()

	go func() {
		if err := refresher.Run(ctx); err != nil {
			logger.Error("refresher error", "error", err)
		}
	}()

	<-ctx.Done()
	logger.Info("shutting down")

	shutdownCtx, cancel := context.WithTimeout(context.Background(), cfg.ShutdownTimeout)
	defer cancel()

	if err := srv.Shutdown(shutdownCtx); err != nil {
		logger.Error("http server shutdown error", "error", err)
	}
	if writer != nil {
		if err := writer.Close(); err != nil {
			logger.Error("kafka writer close error", "error", err)
		}
	}

	logger.Info("shutdown complete")
}

// newRegionMatcher wires the optional catalog and reverse geocoder for region mode.
func newRegionMatcher(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*region.Matcher, error) {
	var catalog *region.Catalog
	if cfg.RegionsFile != "" {
		c, err := region.Load(cfg.RegionsFile)
		if err != nil {
			return nil, err
		}
		catalog = c
		if _, err := catalog.Lookup(cfg.RegionName); err != nil {
			logger.Warn("region not in catalog; matching on place text", "region", cfg.RegionName)
		}
	}

	var geocoder domain.Geocoder
	if cfg.MapboxEnabled {
		client := mapbox.NewClient(cfg.MapboxToken, cfg.MapboxTimeout, logger, metrics)
		geocoder = mapbox.NewCachedGeocoder(client, cfg.MapboxCacheSize, metrics)
		logger.Info("mapbox reverse geocoding enabled", "cache_size", cfg.MapboxCacheSize, "timeout", cfg.MapboxTimeout)
	} else {
		logger.Info("mapbox reverse geocoding disabled")
	}

	return region.NewMatcher(cfg.RegionName, catalog, geocoder, logger), nil
}
