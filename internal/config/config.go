package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"

	"github.com/sells-group/siteselect-cli/internal/scoring"
	"github.com/sells-group/siteselect-cli/internal/store"
)

// Config holds the full application configuration.
type Config struct {
	Store   StoreConfig     `yaml:"store" mapstructure:"store"`
	Places  PlacesConfig    `yaml:"places" mapstructure:"places"`
	Census  CensusConfig    `yaml:"census" mapstructure:"census"`
	Engine  EngineConfig    `yaml:"engine" mapstructure:"engine"`
	Huff    HuffConfig      `yaml:"huff" mapstructure:"huff"`
	Weights scoring.Weights `yaml:"weights" mapstructure:"weights"`
	Log     LogConfig       `yaml:"log" mapstructure:"log"`
}

// StoreConfig configures the database backend.
type StoreConfig struct {
	DatabaseURL string            `yaml:"database_url" mapstructure:"database_url"`
	CachePath   string            `yaml:"cache_path" mapstructure:"cache_path"`
	Pool        *store.PoolConfig `yaml:"pool" mapstructure:"pool"`
}

// PlacesConfig holds Places API settings.
type PlacesConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	RatePerSecond float64 `yaml:"rate_per_second" mapstructure:"rate_per_second"`
	CacheTTLHours int     `yaml:"cache_ttl_hours" mapstructure:"cache_ttl_hours"`
}

// CensusConfig configures DANE data sources.
type CensusConfig struct {
	RegistryPath  string `yaml:"registry_path" mapstructure:"registry_path"`
	ShapefilePath string `yaml:"shapefile_path" mapstructure:"shapefile_path"`
}

// EngineConfig tunes the analysis run.
type EngineConfig struct {
	GridSize    int     `yaml:"grid_size" mapstructure:"grid_size"`
	Facilities  int     `yaml:"facilities" mapstructure:"facilities"`
	RadiusKM    float64 `yaml:"radius_km" mapstructure:"radius_km"`
	Concurrency int     `yaml:"concurrency" mapstructure:"concurrency"`
}

// HuffConfig holds gravity model exponents.
type HuffConfig struct {
	Alpha float64 `yaml:"alpha" mapstructure:"alpha"`
	Beta  float64 `yaml:"beta" mapstructure:"beta"`
}

// LogConfig configures logging.
type LogConfig struct {
	Level  string `yaml:"level" mapstructure:"level"`
	Format string `yaml:"format" mapstructure:"format"`
}

// Load reads configuration from config.yaml and SITESELECT_* environment
// variables.
func Load() (*Config, error) {
	v := viper.New()

	// Config file
	v.SetConfigName("config")
	v.SetConfigType("yaml")
	v.AddConfigPath(".")

	// Environment
	v.SetEnvPrefix("SITESELECT")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("store.cache_path", "places_cache.db")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.format", "json")
	v.SetDefault("places.rate_per_second", 5)
	v.SetDefault("places.cache_ttl_hours", 24)
	v.SetDefault("engine.grid_size", 10)
	v.SetDefault("engine.facilities", 3)
	v.SetDefault("engine.radius_km", 5)
	v.SetDefault("engine.concurrency", 8)
	v.SetDefault("huff.alpha", 1.0)
	v.SetDefault("huff.beta", 2.0)
	v.SetDefault("weights.poblacion", 0.35)
	v.SetDefault("weights.trafico", 0.30)
	v.SetDefault("weights.competencia_zona_comercial", 0.15)
	v.SetDefault("weights.nivel_socioeconomico", 0.12)
	v.SetDefault("weights.densidad_comercial", 0.08)

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
