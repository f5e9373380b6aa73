package config

import (
	"errors"
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/joho/godotenv"
	"github.com/spf13/viper"
)

type Config struct {
	App        AppConfig        `mapstructure:"app"`
	Server     ServerConfig     `mapstructure:"server"`
	Log        LogConfig        `mapstructure:"log"`
	DB         DBConfig         `mapstructure:"db"`
	Redis      RedisConfig      `mapstructure:"redis"`
	MarketData MarketDataConfig `mapstructure:"marketdata"`
	Backtest   BacktestConfig   `mapstructure:"backtest"`
	Dashboard  DashboardConfig  `mapstructure:"dashboard"`
	Cron       CronConfig       `mapstructure:"cron"`
}

type AppConfig struct {
	Env string `mapstructure:"env"`
}

type ServerConfig struct {
	GRPCAddr string `mapstructure:"grpc_addr"`
	APIToken string `mapstructure:"api_token"`
}

type LogConfig struct {
	Level             string `mapstructure:"level"`
	Encoding          string `mapstructure:"encoding"`
	Development       bool   `mapstructure:"development"`
	Sampling          bool   `mapstructure:"sampling"`
	DisableCaller     bool   `mapstructure:"disable_caller"`
	DisableStacktrace bool   `mapstructure:"disable_stacktrace"`
}

type DBConfig struct {
	DSN             string        `mapstructure:"dsn"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	Migrate         bool          `mapstructure:"migrate"`
}

type RedisConfig struct {
	Enabled            bool   `mapstructure:"enabled"`
	Addr               string `mapstructure:"addr"`
	Password           string `mapstructure:"password"`
	DB                 int    `mapstructure:"db"`
	NotificationStream string `mapstructure:"notification_stream"`
}

type MarketDataConfig struct {
	BaseURL string        `mapstructure:"base_url"`
	APIKey  string        `mapstructure:"api_key"`
	Timeout time.Duration `mapstructure:"timeout"`
}

type BacktestConfig struct {
	FetchTimeout   time.Duration `mapstructure:"fetch_timeout"`
	MaxConcurrency int           `mapstructure:"max_concurrency"`
	CacheTTL       time.Duration `mapstructure:"cache_ttl"`
}

type DashboardConfig struct {
	CacheTTL time.Duration `mapstructure:"cache_ttl"`
}

type CronConfig struct {
	Enabled      bool   `mapstructure:"enabled"`
	SnapshotSpec string `mapstructure:"snapshot_spec"`
}

// Load reads configuration from an optional YAML file, a .env file and CW_* environment variables.
// An empty path skips the YAML file.
func Load(path string) (Config, error) {
	// .env is optional in every environment
	_ = godotenv.Load()

	v := viper.New()
	v.SetEnvPrefix("CW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()
	setDefaults(v)

	if path != "" {
		v.SetConfigFile(path)
		v.SetConfigType("yaml")
		if err := v.ReadInConfig(); err != nil {
			if !errors.Is(err, os.ErrNotExist) {
				return Config{}, fmt.Errorf("failed to read config %s: %w", path, err)
			}
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return Config{}, fmt.Errorf("failed to decode config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("app.env", "dev")
	v.SetDefault("server.grpc_addr", ":8080")
	v.SetDefault("server.api_token", "dev-token")
	v.SetDefault("log.level", "info")
	v.SetDefault("log.encoding", "console")
	v.SetDefault("log.development", true)
	v.SetDefault("log.sampling", false)
	v.SetDefault("log.disable_caller", false)
	v.SetDefault("log.disable_stacktrace", false)
	v.SetDefault("db.dsn", "host=localhost port=5432 user=postgres password=postgres dbname=cactus sslmode=disable")
	v.SetDefault("db.max_open_conns", 20)
	v.SetDefault("db.max_idle_conns", 5)
	v.SetDefault("db.conn_max_lifetime", "30m")
	v.SetDefault("db.migrate", true)
	v.SetDefault("redis.enabled", true)
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.password", "")
	v.SetDefault("redis.db", 0)
	v.SetDefault("redis.notification_stream", "notifications")
	v.SetDefault("marketdata.base_url", "https://eodhd.com/api")
	v.SetDefault("marketdata.api_key", "demo")
	v.SetDefault("marketdata.timeout", "15s")
	v.SetDefault("backtest.fetch_timeout", "30s")
	v.SetDefault("backtest.max_concurrency", 8)
	v.SetDefault("backtest.cache_ttl", "24h")
	v.SetDefault("dashboard.cache_ttl", "5m")
	v.SetDefault("cron.enabled", true)
	v.SetDefault("cron.snapshot_spec", "0 0 22 * * *")
}

// Validate checks the settings that have no usable fallback.
func (c Config) Validate() error {
	if strings.TrimSpace(c.DB.DSN) == "" {
		return errors.New("config: db.dsn is required")
	}
	if strings.TrimSpace(c.Server.GRPCAddr) == "" {
		return errors.New("config: server.grpc_addr is required")
	}
	if c.Backtest.FetchTimeout <= 0 {
		return fmt.Errorf("config: backtest.fetch_timeout must be positive, got %s", c.Backtest.FetchTimeout)
	}
	if c.Backtest.MaxConcurrency <= 0 {
		return fmt.Errorf("config: backtest.max_concurrency must be positive, got %d", c.Backtest.MaxConcurrency)
	}
	if c.Cron.Enabled && strings.TrimSpace(c.Cron.SnapshotSpec) == "" {
		return errors.New("config: cron.snapshot_spec is required when cron is enabled")
	}
	return nil
}
