package config

import (
	"log"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Server       ServerConfig       `mapstructure:"server"`
	Log          LogConfig          `mapstructure:"log"`
	Database     DatabaseConfig     `mapstructure:"database"`
	Redis        RedisConfig        `mapstructure:"redis"`
	Engine       EngineConfig       `mapstructure:"engine"`
	Distribution DistributionConfig `mapstructure:"distribution"`
	Exposure     ExposureConfig     `mapstructure:"exposure"`
	Metrics      MetricsConfig      `mapstructure:"metrics"`
	RateLimit    RateLimitConfig    `mapstructure:"rate_limit"`
	Janitor      JanitorConfig      `mapstructure:"janitor"`
}

type ServerConfig struct {
	Port string `mapstructure:"port"`
}

type LogConfig struct {
	Level string `mapstructure:"level"`
}

type DatabaseConfig struct {
	DSN                  string `mapstructure:"dsn"`
	HistoryRetentionDays int    `mapstructure:"history_retention_days"`
}

type RedisConfig struct {
	Addr     string `mapstructure:"addr"`
	Password string `mapstructure:"password"`
	DB       int    `mapstructure:"db"`
}

// EngineConfig drives the simulated bet lifecycle timings. All delays are
// milliseconds.
type EngineConfig struct {
	SuccessRate   float64 `mapstructure:"success_rate"`
	AckBaseMs     int     `mapstructure:"ack_base_ms"`
	AckStepMs     int     `mapstructure:"ack_step_ms"`
	AckSettleMs   int     `mapstructure:"ack_settle_ms"`
	ResolveMinMs  int     `mapstructure:"resolve_min_ms"`
	ResolveMaxMs  int     `mapstructure:"resolve_max_ms"`
	AutoDismissMs int     `mapstructure:"auto_dismiss_ms"`
	TickMs        int     `mapstructure:"tick_ms"`
}

type DistributionConfig struct {
	Mode         string    `mapstructure:"mode"` // even or noisy
	NoiseMin     float64   `mapstructure:"noise_min"`
	NoiseMax     float64   `mapstructure:"noise_max"`
	MaxPasses    int       `mapstructure:"max_passes"`
	QuickAmounts []float64 `mapstructure:"quick_amounts"`
}

// ExposureConfig caps per-account daily staked volume. Zero disables the cap.
type ExposureConfig struct {
	DailyCap float64 `mapstructure:"daily_cap"`
}

type MetricsConfig struct {
	Enabled bool   `mapstructure:"enabled"`
	Path    string `mapstructure:"path"`
}

type RateLimitConfig struct {
	QPS   float64 `mapstructure:"qps"`
	Burst int     `mapstructure:"burst"`
}

type JanitorConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	CleanupCron  string `mapstructure:"cleanup_cron"`
	ExposureCron string `mapstructure:"exposure_cron"`
}

func Load() (*Config, error) {
	viper.SetConfigName("config")
	viper.SetConfigType("yaml")
	viper.AddConfigPath(".")
	viper.AddConfigPath("./configs")

	// Environment variables support
	// e.g. STAKEGATE_ENGINE_SUCCESS_RATE
	viper.SetEnvPrefix("stakegate")
	viper.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	viper.AutomaticEnv()

	// Defaults
	viper.SetDefault("server.port", "8080")
	viper.SetDefault("log.level", "info")
	viper.SetDefault("engine.success_rate", 0.8)
	viper.SetDefault("engine.ack_base_ms", 500)
	viper.SetDefault("engine.ack_step_ms", 200)
	viper.SetDefault("engine.ack_settle_ms", 1000)
	viper.SetDefault("engine.resolve_min_ms", 1000)
	viper.SetDefault("engine.resolve_max_ms", 3000)
	viper.SetDefault("engine.auto_dismiss_ms", 3000)
	viper.SetDefault("engine.tick_ms", 100)
	viper.SetDefault("distribution.mode", "even")
	viper.SetDefault("distribution.noise_min", 0.85)
	viper.SetDefault("distribution.noise_max", 1.15)
	viper.SetDefault("distribution.max_passes", 100)
	viper.SetDefault("distribution.quick_amounts", []float64{100, 500, 1000, 5000})
	viper.SetDefault("exposure.daily_cap", 0)
	viper.SetDefault("metrics.enabled", true)
	viper.SetDefault("metrics.path", "/metrics")
	viper.SetDefault("rate_limit.qps", 20)
	viper.SetDefault("rate_limit.burst", 40)
	viper.SetDefault("janitor.enabled", true)
	viper.SetDefault("janitor.cleanup_cron", "0 30 3 * * *")
	viper.SetDefault("janitor.exposure_cron", "0 0 0 * * *")
	viper.SetDefault("database.history_retention_days", 30)

	if err := viper.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); ok {
			log.Println("No config file found, using defaults and env vars")
		} else {
			return nil, err
		}
	}

	var cfg Config
	if err := viper.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
