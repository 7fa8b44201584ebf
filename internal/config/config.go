// Package config loads application configuration from file and
// environment and initializes the global logger.
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
	Store       StoreConfig       `yaml:"store" mapstructure:"store"`
	Spotify     SpotifyConfig     `yaml:"spotify" mapstructure:"spotify"`
	MusicBrainz MusicBrainzConfig `yaml:"musicbrainz" mapstructure:"musicbrainz"`
	Resolver    ResolverConfig    `yaml:"resolver" mapstructure:"resolver"`
	Ingest      IngestConfig      `yaml:"ingest" mapstructure:"ingest"`
	Log         LogConfig         `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the catalog database.
type StoreConfig struct {
	Path         string `yaml:"path" mapstructure:"path"`
	StationsFile string `yaml:"stations_file" mapstructure:"stations_file"`
}

// SpotifyConfig holds the Spotify client-credentials pair.
type SpotifyConfig struct {
	Credentials string `yaml:"credentials" mapstructure:"credentials"` // "client_id:client_secret"
}

// MusicBrainzConfig configures the MusicBrainz client.
type MusicBrainzConfig struct {
	UserAgent string `yaml:"user_agent" mapstructure:"user_agent"`
}

// ResolverConfig configures the batch resolution run.
type ResolverConfig struct {
	ProviderQuota int           `yaml:"provider_quota" mapstructure:"provider_quota"`
	ProviderDelay time.Duration `yaml:"provider_delay" mapstructure:"provider_delay"`
}

// IngestConfig configures the station polling loop.
type IngestConfig struct {
	Window   time.Duration `yaml:"window" mapstructure:"window"`
	Interval time.Duration `yaml:"interval" mapstructure:"interval"`
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
	v.SetEnvPrefix("RADIOMON")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.path", "radiomon.sqlite3")
	v.SetDefault("store.stations_file", "stations.yaml")
	v.SetDefault("resolver.provider_quota", 20)
	v.SetDefault("resolver.provider_delay", time.Second)
	v.SetDefault("ingest.window", 2*time.Minute)
	v.SetDefault("ingest.interval", time.Minute)
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
