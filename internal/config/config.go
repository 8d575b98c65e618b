package config

import (
	"strings"
	"time"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Source SourceConfig `yaml:"source" mapstructure:"source"`
	Server ServerConfig `yaml:"server" mapstructure:"server"`
	Data   DataConfig   `yaml:"data" mapstructure:"data"`
	Map    MapConfig    `yaml:"map" mapstructure:"map"`
	Log    LogConfig    `yaml:"log" mapstructure:"log"`
}

// SourceConfig configures the upstream street/boundary data API.
type SourceConfig struct {
	BaseURL        string `yaml:"base_url" mapstructure:"base_url"`
	StreetsPath    string `yaml:"streets_path" mapstructure:"streets_path"`
	BoundariesPath string `yaml:"boundaries_path" mapstructure:"boundaries_path"`
	TimeoutSecs    int    `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	MaxRetries     int    `yaml:"max_retries" mapstructure:"max_retries"`
	UserAgent      string `yaml:"user_agent" mapstructure:"user_agent"`
}

// Timeout returns the fetch timeout as a duration.
func (s SourceConfig) Timeout() time.Duration {
	return time.Duration(s.TimeoutSecs) * time.Second
}

// ServerConfig configures the view server.
type ServerConfig struct {
	Port int `yaml:"port" mapstructure:"port"`
}

// DataConfig configures the street/boundary data API.
type DataConfig struct {
	Port           int    `yaml:"port" mapstructure:"port"`
	StreetsFile    string `yaml:"streets_file" mapstructure:"streets_file"`
	BoundariesFile string `yaml:"boundaries_file" mapstructure:"boundaries_file"`
	ProfileFile    string `yaml:"profile_file" mapstructure:"profile_file"`
}

// MapConfig configures the map overlay and the basemap proxy.
type MapConfig struct {
	CenterLat        float64 `yaml:"center_lat" mapstructure:"center_lat"`
	CenterLon        float64 `yaml:"center_lon" mapstructure:"center_lon"`
	Zoom             int     `yaml:"zoom" mapstructure:"zoom"`
	BasemapURL       string  `yaml:"basemap_url" mapstructure:"basemap_url"`
	TileCacheSize    int     `yaml:"tile_cache_size" mapstructure:"tile_cache_size"`
	TileCacheTTLMins int     `yaml:"tile_cache_ttl_mins" mapstructure:"tile_cache_ttl_mins"`
}

// TileCacheTTL returns the basemap tile cache TTL as a duration.
func (m MapConfig) TileCacheTTL() time.Duration {
	return time.Duration(m.TileCacheTTLMins) * time.Minute
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from file and environment.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("STREETVIZ")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("source.base_url", "http://127.0.0.1:5000")
	v.SetDefault("source.streets_path", "/api/streets")
	v.SetDefault("source.boundaries_path", "/api/boundaries")
	v.SetDefault("source.timeout_secs", 30)
	v.SetDefault("source.max_retries", 1)
	v.SetDefault("source.user_agent", "streetviz/1.0")
	v.SetDefault("server.port", 8080)
	v.SetDefault("data.port", 5000)
	v.SetDefault("data.streets_file", "street_lvi.geojson")
	v.SetDefault("data.boundaries_file", "chicago_boundaries.geojson")
	v.SetDefault("map.center_lat", 41.8781)
	v.SetDefault("map.center_lon", -87.6298)
	v.SetDefault("map.zoom", 10)
	v.SetDefault("map.basemap_url", "https://tile.openstreetmap.org")
	v.SetDefault("map.tile_cache_size", 10000)
	v.SetDefault("map.tile_cache_ttl_mins", 60)
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")

	// Read config file (optional)
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, eris.Wrap(err, "config: read file")
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, eris.Wrap(err, "config: unmarshal")
	}

	return &cfg, nil
}

// InitLogger initializes the global zap logger.
func InitLogger(cfg LogConfig) error {
	var zapCfg zap.Config
	if cfg.Format == "console" {
		zapCfg = zap.NewDevelopmentConfig()
	} else {
		zapCfg = zap.NewProductionConfig()
	}

	level, err := zapcore.ParseLevel(cfg.Level)
	if err != nil {
		return eris.Wrap(err, "config: parse log level")
	}
	zapCfg.Level.SetLevel(level)

	logger, err := zapCfg.Build()
	if err != nil {
		return eris.Wrap(err, "config: build logger")
	}
	zap.ReplaceGlobals(logger)

	return nil
}

// Validate checks that the settings required by the given mode are present.
// Modes: "serve", "render", "data".
func (c *Config) Validate(mode string) error {
	var errs []string

	switch mode {
	case "serve":
		if c.Server.Port <= 0 {
			errs = append(errs, "server.port must be > 0")
		}
		errs = append(errs, c.validateSource()...)
		if c.Map.TileCacheSize <= 0 {
			errs = append(errs, "map.tile_cache_size must be > 0")
		}
	case "render":
		errs = append(errs, c.validateSource()...)
	case "data":
		if c.Data.Port <= 0 {
			errs = append(errs, "data.port must be > 0")
		}
		if c.Data.StreetsFile == "" {
			errs = append(errs, "data.streets_file is required")
		}
		if c.Data.BoundariesFile == "" {
			errs = append(errs, "data.boundaries_file is required")
		}
	default:
		return eris.Errorf("config: unknown mode %q", mode)
	}

	if len(errs) > 0 {
		return eris.Errorf("config: %s", strings.Join(errs, "; "))
	}
	return nil
}

func (c *Config) validateSource() []string {
	var errs []string
	if c.Source.BaseURL == "" {
		errs = append(errs, "source.base_url is required")
	}
	if c.Source.TimeoutSecs <= 0 {
		errs = append(errs, "source.timeout_secs must be > 0")
	}
	if c.Source.MaxRetries < 1 {
		errs = append(errs, "source.max_retries must be >= 1")
	}
	return errs
}
