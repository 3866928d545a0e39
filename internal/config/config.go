package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"strconv"
	"strings"
	"time"

	"github.com/BurntSushi/toml"
	sharedcfg "github.com/couchcryptid/storm-data-shared/config"

	"github.com/couchcryptid/wireline-recovery-map/internal/dataset"
	"github.com/couchcryptid/wireline-recovery-map/internal/domain"
	"github.com/couchcryptid/wireline-recovery-map/internal/filter"
	"github.com/couchcryptid/wireline-recovery-map/internal/render"
)

// Geocoding providers.
const (
	ProviderNominatim = "nominatim"
	ProviderMapbox    = "mapbox"
	ProviderNone      = "none"
)

// DefaultUserAgent identifies the application to the Nominatim usage policy.
const DefaultUserAgent = "gapyeong_dashboard_app_v3"

// MinGeocodeDelay is the lowest accepted spacing between forward geocodes.
const MinGeocodeDelay = time.Second

// Config holds all service settings, populated from environment variables
// and an optional map-view file.
type Config struct {
	CablePath     string
	RecoveryPath  string
	ProgressPath  string
	RepeaterSheet string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration

	// Geocoding configuration.
	GeocoderProvider string
	NominatimURL     string
	UserAgent        string
	GeocodeLanguage  string
	GeocodeCountry   string
	MapboxToken      string
	GeocodeMinDelay  time.Duration
	GeocodeTimeout   time.Duration
	GeocodeCacheSize int

	// Snapshot publication.
	KafkaEnabled bool
	KafkaBrokers []string
	KafkaTopic   string

	MapConfigPath string
	Map           MapView
}

// MapView is the TOML map-view file.
type MapView struct {
	CenterLat    float64            `toml:"center_lat"`
	CenterLon    float64            `toml:"center_lon"`
	Zoom         int                `toml:"zoom"`
	MapHeight    int                `toml:"map_height"`
	ClustersFile string             `toml:"clusters_file"`
	BaseLayers   []render.BaseLayer `toml:"base_layer"`
}

// DefaultMapView mirrors render.DefaultOptions.
func DefaultMapView() MapView {
	opts := render.DefaultOptions()
	return MapView{
		CenterLat:  opts.Center.Lat,
		CenterLon:  opts.Center.Lon,
		Zoom:       opts.Zoom,
		MapHeight:  filter.DefaultMapHeight,
		BaseLayers: opts.BaseLayers,
	}
}

// Load reads configuration from environment variables, applying defaults where unset.
func Load() (*Config, error) {
	shutdownTimeout, err := sharedcfg.ParseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	minDelay, err := parseDuration("GEOCODE_MIN_DELAY", "1s")
	if err != nil {
		return nil, err
	}
	if minDelay < MinGeocodeDelay {
		return nil, fmt.Errorf("GEOCODE_MIN_DELAY must be at least %s", MinGeocodeDelay)
	}

	timeout, err := parseDuration("GEOCODE_TIMEOUT", "10s")
	if err != nil {
		return nil, err
	}

	cacheSize, err := parseCacheSize()
	if err != nil {
		return nil, err
	}

	dataDir := sharedcfg.EnvOrDefault("DATA_DIR", ".")
	mapboxToken := os.Getenv("MAPBOX_TOKEN")

	cfg := &Config{
		CablePath:     sharedcfg.EnvOrDefault("CABLE_WORKBOOK", filepath.Join(dataDir, dataset.CableFile)),
		RecoveryPath:  sharedcfg.EnvOrDefault("RECOVERY_WORKBOOK", filepath.Join(dataDir, dataset.RecoveryFile)),
		ProgressPath:  sharedcfg.EnvOrDefault("PROGRESS_WORKBOOK", filepath.Join(dataDir, dataset.ProgressFile)),
		RepeaterSheet: sharedcfg.EnvOrDefault("REPEATER_SHEET", dataset.RepeaterSheet),

		HTTPAddr:        sharedcfg.EnvOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        sharedcfg.EnvOrDefault("LOG_LEVEL", "info"),
		LogFormat:       sharedcfg.EnvOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,

		GeocoderProvider: strings.ToLower(sharedcfg.EnvOrDefault("GEOCODER", defaultProvider(mapboxToken))),
		NominatimURL:     os.Getenv("NOMINATIM_URL"),
		UserAgent:        sharedcfg.EnvOrDefault("GEOCODE_USER_AGENT", DefaultUserAgent),
		GeocodeLanguage:  sharedcfg.EnvOrDefault("GEOCODE_LANGUAGE", "ko"),
		GeocodeCountry:   sharedcfg.EnvOrDefault("GEOCODE_COUNTRY", "kr"),
		MapboxToken:      mapboxToken,
		GeocodeMinDelay:  minDelay,
		GeocodeTimeout:   timeout,
		GeocodeCacheSize: cacheSize,

		KafkaEnabled: os.Getenv("KAFKA_ENABLED") == "true",
		KafkaBrokers: sharedcfg.ParseBrokers(sharedcfg.EnvOrDefault("KAFKA_BROKERS", "localhost:9092")),
		KafkaTopic:   sharedcfg.EnvOrDefault("KAFKA_TOPIC", "recovery-snapshots"),

		MapConfigPath: os.Getenv("MAP_CONFIG_PATH"),
		Map:           DefaultMapView(),
	}

	switch cfg.GeocoderProvider {
	case ProviderNominatim, ProviderNone:
	case ProviderMapbox:
		if cfg.MapboxToken == "" {
			return nil, errors.New("GEOCODER is mapbox but MAPBOX_TOKEN is not set")
		}
	default:
		return nil, fmt.Errorf("invalid GEOCODER %q", cfg.GeocoderProvider)
	}
	if cfg.KafkaEnabled {
		if len(cfg.KafkaBrokers) == 0 {
			return nil, errors.New("KAFKA_BROKERS is required")
		}
		if cfg.KafkaTopic == "" {
			return nil, errors.New("KAFKA_TOPIC is required")
		}
	}

	if cfg.MapConfigPath != "" {
		view, err := LoadMapView(cfg.MapConfigPath)
		if err != nil {
			return nil, err
		}
		cfg.Map = view
	}

	return cfg, nil
}

// LoadMapView reads a TOML map-view file. Keys the file omits keep their
// defaults.
func LoadMapView(path string) (MapView, error) {
	view := DefaultMapView()
	md, err := toml.DecodeFile(path, &view)
	if err != nil {
		return MapView{}, fmt.Errorf("MAP_CONFIG_PATH: %w", err)
	}
	if undecoded := md.Undecoded(); len(undecoded) > 0 {
		return MapView{}, fmt.Errorf("MAP_CONFIG_PATH: unknown key %q", undecoded[0].String())
	}

	if view.Zoom < 1 || view.Zoom > 20 {
		return MapView{}, fmt.Errorf("MAP_CONFIG_PATH: zoom %d out of range 1..20", view.Zoom)
	}
	if view.MapHeight < filter.MinMapHeight || view.MapHeight > filter.MaxMapHeight ||
		(view.MapHeight-filter.MinMapHeight)%filter.MapHeightStep != 0 {
		return MapView{}, fmt.Errorf("MAP_CONFIG_PATH: map_height %d must be %d..%d in steps of %d",
			view.MapHeight, filter.MinMapHeight, filter.MaxMapHeight, filter.MapHeightStep)
	}
	if view.ClustersFile != "" && !filepath.IsAbs(view.ClustersFile) {
		view.ClustersFile = filepath.Join(filepath.Dir(path), view.ClustersFile)
	}
	return view, nil
}

// RenderOptions builds the scene options, reading the clusters file when set.
func (m MapView) RenderOptions() (render.Options, error) {
	opts := render.DefaultOptions()
	opts.Center = domain.LatLon{Lat: m.CenterLat, Lon: m.CenterLon}
	opts.Zoom = m.Zoom
	if len(m.BaseLayers) > 0 {
		opts.BaseLayers = m.BaseLayers
	}
	if m.ClustersFile != "" {
		data, err := os.ReadFile(m.ClustersFile)
		if err != nil {
			return render.Options{}, fmt.Errorf("read clusters file: %w", err)
		}
		clusters, err := render.ParseClusters(data)
		if err != nil {
			return render.Options{}, fmt.Errorf("parse clusters file %s: %w", m.ClustersFile, err)
		}
		opts.Clusters = clusters
	}
	return opts, nil
}

func defaultProvider(mapboxToken string) string {
	if mapboxToken != "" {
		return ProviderMapbox
	}
	return ProviderNominatim
}

func parseDuration(key, fallback string) (time.Duration, error) {
	d, err := time.ParseDuration(sharedcfg.EnvOrDefault(key, fallback))
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid %s", key)
	}
	return d, nil
}

// parseCacheSize reads GEOCODE_CACHE_SIZE; 0 means unbounded.
func parseCacheSize() (int, error) {
	s := os.Getenv("GEOCODE_CACHE_SIZE")
	if s == "" {
		return 1000, nil
	}
	n, err := strconv.Atoi(s)
	if err != nil || n < 0 {
		return 0, fmt.Errorf("invalid GEOCODE_CACHE_SIZE %q", s)
	}
	return n, nil
}
