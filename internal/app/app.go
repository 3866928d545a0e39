// Package app wires configuration into a running map session: the geocoder
// chain, the dataset store, the load pipeline and the optional snapshot
// publisher.
package app

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/jonboulle/clockwork"

	"github.com/couchcryptid/wireline-recovery-map/internal/adapter/geocache"
	kafkaadapter "github.com/couchcryptid/wireline-recovery-map/internal/adapter/kafka"
	"github.com/couchcryptid/wireline-recovery-map/internal/adapter/mapbox"
	"github.com/couchcryptid/wireline-recovery-map/internal/adapter/nominatim"
	"github.com/couchcryptid/wireline-recovery-map/internal/adapter/throttle"
	"github.com/couchcryptid/wireline-recovery-map/internal/config"
	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/observability"
	"github.com/couchcryptid/wireline-recovery-map/internal/pipeline"
	"github.com/couchcryptid/wireline-recovery-map/internal/session"
)

// App is a wired session and the resources behind it.
type App struct {
	Session  *session.Session
	Pipeline *pipeline.Pipeline

	writer *kafkaadapter.Writer
	logger *slog.Logger
}

// New builds the application from cfg. Nothing is loaded yet.
func New(cfg *config.Config, logger *slog.Logger, metrics *observability.Metrics) (*App, error) {
	opts, err := cfg.Map.RenderOptions()
	if err != nil {
		return nil, err
	}

	geocoder, err := NewGeocoder(cfg, clockwork.NewRealClock(), logger, metrics)
	if err != nil {
		return nil, err
	}

	a := &App{logger: logger}
	var publisher pipeline.Publisher
	if cfg.KafkaEnabled {
		a.writer = kafkaadapter.NewWriter(cfg, logger)
		publisher = a.writer
		logger.Info("snapshot publishing enabled", "topic", cfg.KafkaTopic, "brokers", cfg.KafkaBrokers)
	}

	sources := pipeline.Sources{
		CablePath:     cfg.CablePath,
		RecoveryPath:  cfg.RecoveryPath,
		ProgressPath:  cfg.ProgressPath,
		RepeaterSheet: cfg.RepeaterSheet,
	}
	store := dataset.NewStore(metrics, logger)
	a.Pipeline = pipeline.New(sources, store, geocoder, publisher, logger, metrics)
	a.Session = session.New(a.Pipeline, geocoder, opts, cfg.Map.MapHeight, logger, metrics)
	return a, nil
}

// NewGeocoder builds the configured provider behind the throttle and the
// result cache. It returns nil when geocoding is disabled.
func NewGeocoder(cfg *config.Config, clock clockwork.Clock, logger *slog.Logger, metrics *observability.Metrics) (domain.Geocoder, error) {
	var client domain.Geocoder
	switch cfg.GeocoderProvider {
	case config.ProviderNone:
		logger.Info("geocoding disabled")
		return nil, nil
	case config.ProviderNominatim:
		client = nominatim.NewClient(cfg.NominatimURL, cfg.UserAgent, cfg.GeocodeLanguage, cfg.GeocodeTimeout, metrics, logger)
	case config.ProviderMapbox:
		client = mapbox.NewClient(cfg.MapboxToken, cfg.GeocodeLanguage, cfg.GeocodeCountry, cfg.GeocodeTimeout, metrics, logger)
	default:
		return nil, fmt.Errorf("unknown geocoder provider %q", cfg.GeocoderProvider)
	}

	throttled := throttle.New(client, cfg.GeocodeMinDelay, cfg.GeocodeTimeout, clock, metrics)
	logger.Info("geocoding enabled",
		"provider", cfg.GeocoderProvider,
		"min_delay", cfg.GeocodeMinDelay,
		"timeout", cfg.GeocodeTimeout,
		"cache_size", cfg.GeocodeCacheSize,
	)
	return geocache.NewCachedGeocoder(throttled, cfg.GeocodeCacheSize, metrics), nil
}

// Start performs the initial load. A load failure is logged, not returned;
// the session stays empty and /readyz reports not ready until a refresh
// succeeds.
func (a *App) Start(ctx context.Context) {
	if err := a.Session.Load(ctx); err != nil {
		a.logger.Error("initial load failed", "error", err)
	}
}

// Close releases the snapshot publisher.
func (a *App) Close() error {
	if a.writer == nil {
		return nil
	}
	return a.writer.Close()
}
