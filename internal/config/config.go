// Package config loads application configuration from file and environment
// and bootstraps the global logger.
package config

import (
	"strings"

	"github.com/rotisserie/eris"
	"github.com/spf13/viper"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
)

// Config holds the full application configuration.
type Config struct {
	Ingest    IngestConfig    `yaml:"ingest" mapstructure:"ingest"`
	OMDB      OMDBConfig      `yaml:"omdb" mapstructure:"omdb"`
	Cache     CacheConfig     `yaml:"cache" mapstructure:"cache"`
	Enrich    EnrichConfig    `yaml:"enrich" mapstructure:"enrich"`
	Warehouse WarehouseConfig `yaml:"warehouse" mapstructure:"warehouse"`
	Log       LogConfig       `yaml:"log" mapstructure:"log"`
}

// IngestConfig configures the revenue CSV source.
type IngestConfig struct {
	CSVPath         string `yaml:"csv_path" mapstructure:"csv_path"`
	Encoding        string `yaml:"encoding" mapstructure:"encoding"`
	SkipZeroRevenue bool   `yaml:"skip_zero_revenue" mapstructure:"skip_zero_revenue"`
}

// OMDBConfig holds OMDb API settings.
type OMDBConfig struct {
	Key           string  `yaml:"key" mapstructure:"key"`
	BaseURL       string  `yaml:"base_url" mapstructure:"base_url"`
	DailyLimit    int     `yaml:"daily_limit" mapstructure:"daily_limit"`
	RetryAttempts int     `yaml:"retry_attempts" mapstructure:"retry_attempts"`
	RetryDelaySec float64 `yaml:"retry_delay_secs" mapstructure:"retry_delay_secs"`
	TimeoutSecs   int     `yaml:"timeout_secs" mapstructure:"timeout_secs"`
	RateLimitRPS  float64 `yaml:"rate_limit_rps" mapstructure:"rate_limit_rps"`
}

// CacheConfig configures the metadata lookup cache.
type CacheConfig struct {
	Path string `yaml:"path" mapstructure:"path"`
}

// EnrichConfig configures the enrichment pass.
type EnrichConfig struct {
	TopN          int `yaml:"top_n" mapstructure:"top_n"`
	ProgressEvery int `yaml:"progress_every" mapstructure:"progress_every"`
}

// WarehouseConfig configures the staging-table destination.
type WarehouseConfig struct {
	Driver      string `yaml:"driver" mapstructure:"driver"`
	DatabaseURL string `yaml:"database_url" mapstructure:"database_url"`
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
	v.SetEnvPrefix("BOXOFFICE")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// Defaults. Every key needs one (even if empty): AutomaticEnv only
	// surfaces env vars for keys viper already knows about.
	v.SetDefault("ingest.csv_path", "data/raw/revenues_per_day.csv")
	v.SetDefault("ingest.encoding", "")
	v.SetDefault("ingest.skip_zero_revenue", false)
	v.SetDefault("omdb.key", "")
	v.SetDefault("omdb.base_url", "http://www.omdbapi.com/")
	v.SetDefault("omdb.daily_limit", 1000)
	v.SetDefault("omdb.retry_attempts", 3)
	v.SetDefault("omdb.retry_delay_secs", 1.0)
	v.SetDefault("omdb.timeout_secs", 10)
	v.SetDefault("omdb.rate_limit_rps", 5.0)
	v.SetDefault("cache.path", "data/cache/omdb_cache.json")
	v.SetDefault("enrich.top_n", 800)
	v.SetDefault("enrich.progress_every", 100)
	v.SetDefault("warehouse.driver", "sqlite")
	v.SetDefault("warehouse.database_url", "data/warehouse.db")
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
