// Package config loads service configuration from an optional config.yaml
// with environment variable overrides (e.g. DATABASE_DSN, SESSION_JWT_SECRET).
package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Session    SessionConfig    `mapstructure:"session"`
	Cloudinary CloudinaryConfig `mapstructure:"cloudinary"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Listing    ListingConfig    `mapstructure:"listing"`
	Display    DisplayConfig    `mapstructure:"display"`
	RateLimit  RateLimitConfig  `mapstructure:"rate_limit"`
	Log        LogConfig        `mapstructure:"log"`
}

type ServerConfig struct {
	Port         string        `mapstructure:"port"`
	Env          string        `mapstructure:"env"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
}

// DatabaseConfig selects the gorm dialector. Driver is one of mysql, postgres, sqlite.
type DatabaseConfig struct {
	Driver          string        `mapstructure:"driver"`
	DSN             string        `mapstructure:"dsn"`
	MaxIdleConns    int           `mapstructure:"max_idle_conns"`
	MaxOpenConns    int           `mapstructure:"max_open_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	AutoMigrate     bool          `mapstructure:"auto_migrate"`
	SeedAdminEmail  string        `mapstructure:"seed_admin_email"`
}

// SessionConfig holds the secret of the external auth provider that signs session tokens.
type SessionConfig struct {
	JWTSecret string `mapstructure:"jwt_secret"`
}

type CloudinaryConfig struct {
	CloudName string `mapstructure:"cloud_name"`
	APIKey    string `mapstructure:"api_key"`
	APISecret string `mapstructure:"api_secret"`
	Folder    string `mapstructure:"folder"`
}

type CacheConfig struct {
	DefaultStaleTime time.Duration            `mapstructure:"default_stale_time"`
	StaleTimes       map[string]time.Duration `mapstructure:"stale_times"`
	ChatPollInterval time.Duration            `mapstructure:"chat_poll_interval"`
	ReadRetries      int                      `mapstructure:"read_retries"`
}

// StaleTimeFor returns the configured stale time for an entity, falling back to the default.
func (c CacheConfig) StaleTimeFor(entity string) time.Duration {
	if d, ok := c.StaleTimes[entity]; ok && d > 0 {
		return d
	}
	return c.DefaultStaleTime
}

type ListingConfig struct {
	PageSize         int `mapstructure:"page_size"`
	RechargePageSize int `mapstructure:"recharge_page_size"`
	MaxPageSize      int `mapstructure:"max_page_size"`
}

type DisplayConfig struct {
	Timezone       string `mapstructure:"timezone"`
	CurrencySymbol string `mapstructure:"currency_symbol"`
}

// Location resolves the display timezone, defaulting to UTC when it cannot be loaded.
func (d DisplayConfig) Location() *time.Location {
	if d.Timezone == "" {
		return time.UTC
	}
	loc, err := time.LoadLocation(d.Timezone)
	if err != nil {
		return time.UTC
	}
	return loc
}

type RateLimitConfig struct {
	Requests int           `mapstructure:"requests"`
	Window   time.Duration `mapstructure:"window"`
}

type LogConfig struct {
	Level  string `mapstructure:"level"`
	Pretty bool   `mapstructure:"pretty"`
}

// Load reads config.yaml from configPath, ".", or "./config" and applies
// environment overrides. A missing file is not an error.
func Load(configPath string) (*Config, error) {
	v := viper.New()
	setDefaults(v)

	v.SetConfigName("config")
	v.SetConfigType("yaml")
	if configPath != "" {
		v.AddConfigPath(configPath)
	}
	v.AddConfigPath(".")
	v.AddConfigPath("./config")

	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			return nil, fmt.Errorf("failed to read config file: %w", err)
		}
	}

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, fmt.Errorf("failed to unmarshal config: %w", err)
	}
	if cfg.Session.JWTSecret == "" {
		return nil, fmt.Errorf("session.jwt_secret is required")
	}
	return &cfg, nil
}

func setDefaults(v *viper.Viper) {
	v.SetDefault("server.port", "8099")
	v.SetDefault("server.env", "development")
	v.SetDefault("server.read_timeout", "10s")
	v.SetDefault("server.write_timeout", "10s")

	v.SetDefault("database.driver", "mysql")
	v.SetDefault("database.dsn", "backoffice:backoffice@tcp(localhost:3306)/backoffice?charset=utf8mb4&parseTime=True&loc=Local")
	v.SetDefault("database.max_idle_conns", 10)
	v.SetDefault("database.max_open_conns", 100)
	v.SetDefault("database.conn_max_lifetime", "1h")
	v.SetDefault("database.auto_migrate", true)

	v.SetDefault("session.jwt_secret", "")

	v.SetDefault("cloudinary.folder", "backoffice")

	v.SetDefault("cache.default_stale_time", "30s")
	v.SetDefault("cache.stale_times", map[string]string{
		"recharge_requests": "10s",
		"redeem_requests":   "10s",
		"chat_rooms":        "10s",
		"chat_messages":     "10s",
	})
	v.SetDefault("cache.chat_poll_interval", "10s")
	v.SetDefault("cache.read_retries", 1)

	v.SetDefault("listing.page_size", 10)
	v.SetDefault("listing.recharge_page_size", 50)
	v.SetDefault("listing.max_page_size", 100)

	v.SetDefault("display.timezone", "UTC")
	v.SetDefault("display.currency_symbol", "$")

	v.SetDefault("rate_limit.requests", 100)
	v.SetDefault("rate_limit.window", "60s")

	v.SetDefault("log.level", "info")
	v.SetDefault("log.pretty", false)
}
