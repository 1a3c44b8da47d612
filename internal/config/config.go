// Package config loads and validates app config from env and an optional .env file using Viper.
package config

import (
	"errors"
	"time"

	"github.com/spf13/viper"
)

// Config holds application configuration loaded from the environment.
type Config struct {
	// HTTPAddr is the address the HTTP server listens on (e.g. :8080).
	HTTPAddr string `mapstructure:"HTTP_ADDR"`
	// DatabaseURL is the Postgres DSN.
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	// AccessTokenSecret signs access tokens (HS256). Must differ from the refresh secret.
	AccessTokenSecret string `mapstructure:"ACCESS_TOKEN_SECRET"`
	// RefreshTokenSecret signs refresh tokens (HS256).
	RefreshTokenSecret string `mapstructure:"REFRESH_TOKEN_SECRET"`
	// TokenIssuer is the iss claim on issued tokens.
	TokenIssuer string `mapstructure:"TOKEN_ISSUER"`
	// AccessTokenTTL is the access token lifetime (e.g. "15m").
	AccessTokenTTL string `mapstructure:"ACCESS_TOKEN_TTL"`
	// RefreshTokenTTL is the refresh token lifetime (e.g. "240h").
	RefreshTokenTTL string `mapstructure:"REFRESH_TOKEN_TTL"`
	// BcryptCost is the bcrypt cost factor (4-31); default 10.
	BcryptCost int `mapstructure:"BCRYPT_COST"`
	// MaxConcurrentHashes bounds in-flight bcrypt operations; default 4.
	MaxConcurrentHashes int `mapstructure:"MAX_CONCURRENT_HASHES"`
	// OTLPEndpoint is the OTLP gRPC collector address (e.g. localhost:4317).
	// Telemetry export is disabled when empty.
	OTLPEndpoint string `mapstructure:"OTLP_ENDPOINT"`
	// Env is the application environment (e.g. "development", "production").
	Env string `mapstructure:"APP_ENV"`
}

// Load reads .env (if present), then builds and validates Config from the environment via Viper.
// Missing .env is ignored (e.g. in CI). Env vars override .env. Returns an error if required fields are invalid.
func Load() (*Config, error) {
	v := viper.New()

	v.SetConfigFile(".env")
	v.SetConfigType("env")
	_ = v.ReadInConfig() // ignore ErrConfigFileNotFound

	v.AutomaticEnv()

	v.SetDefault("HTTP_ADDR", ":8080")
	v.SetDefault("DATABASE_URL", "")
	v.SetDefault("ACCESS_TOKEN_SECRET", "")
	v.SetDefault("REFRESH_TOKEN_SECRET", "")
	v.SetDefault("TOKEN_ISSUER", "vidtube-auth")
	v.SetDefault("ACCESS_TOKEN_TTL", "15m")
	v.SetDefault("REFRESH_TOKEN_TTL", "240h") // 10d
	v.SetDefault("BCRYPT_COST", 10)
	v.SetDefault("MAX_CONCURRENT_HASHES", 4)
	v.SetDefault("OTLP_ENDPOINT", "")
	v.SetDefault("APP_ENV", "")

	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	if cfg.HTTPAddr == "" {
		return nil, errors.New("config: HTTP_ADDR must be set")
	}
	if cfg.AccessTokenSecret == "" || cfg.RefreshTokenSecret == "" {
		return nil, errors.New("config: ACCESS_TOKEN_SECRET and REFRESH_TOKEN_SECRET must be set")
	}
	if cfg.AccessTokenSecret == cfg.RefreshTokenSecret {
		return nil, errors.New("config: access and refresh token secrets must differ")
	}

	if cfg.BcryptCost == 0 {
		cfg.BcryptCost = 10
	}
	if cfg.BcryptCost < 4 || cfg.BcryptCost > 31 {
		return nil, errors.New("config: BCRYPT_COST must be between 4 and 31")
	}

	return &cfg, nil
}

// AccessTTL parses AccessTokenTTL as a time.Duration. Returns 15m if unset or invalid.
func (c *Config) AccessTTL() time.Duration {
	d, err := time.ParseDuration(c.AccessTokenTTL)
	if err != nil || d <= 0 {
		return 15 * time.Minute
	}
	return d
}

// RefreshTTL parses RefreshTokenTTL as a time.Duration. Returns 240h if unset or invalid.
func (c *Config) RefreshTTL() time.Duration {
	d, err := time.ParseDuration(c.RefreshTokenTTL)
	if err != nil || d <= 0 {
		return 240 * time.Hour
	}
	return d
}
