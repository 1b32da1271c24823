package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"

	"github.com/EnzoTheBrown/bribe/pkg/crypto"
	"github.com/EnzoTheBrown/bribe/pkg/jwt"
)

// APIConfig holds runtime configuration for the API service.
type APIConfig struct {
	Environment     string        `env:"APP_ENV" envDefault:"development"`
	Addr            string        `env:"API_ADDR" envDefault:":8080"`
	DatabaseURL     string        `env:"DATABASE_URL"`
	MigrateOnStart  bool          `env:"MIGRATE_ON_START" envDefault:"true"`
	LogLevel        string        `env:"LOG_LEVEL" envDefault:"info"`
	SecretKey       jwt.Secret    `env:"SECRET_KEY"`
	AccessTokenTTL  time.Duration `env:"ACCESS_TOKEN_TTL" envDefault:"168h"`
	TokenLeeway     time.Duration `env:"TOKEN_LEEWAY" envDefault:"60s"`
	ShutdownTimeout time.Duration `env:"SHUTDOWN_TIMEOUT" envDefault:"10s"`

	RateLimitRedisAddr string `env:"RATE_LIMIT_REDIS_ADDR"`
	RateLimitRedisPass string `env:"RATE_LIMIT_REDIS_PASSWORD"`
	RateLimitRedisDB   int    `env:"RATE_LIMIT_REDIS_DB" envDefault:"0"`
	RateLimitLogin     int    `env:"RATE_LIMIT_LOGIN" envDefault:"12"`
	RateLimitSignup    int    `env:"RATE_LIMIT_SIGNUP" envDefault:"5"`
	RateLimitUser      int    `env:"RATE_LIMIT_USER" envDefault:"120"`

	PasswordHashMemoryKiB   uint32 `env:"PASSWORD_HASH_MEMORY_KIB" envDefault:"19456"`
	PasswordHashIterations  uint32 `env:"PASSWORD_HASH_ITERATIONS" envDefault:"2"`
	PasswordHashParallelism uint8  `env:"PASSWORD_HASH_PARALLELISM" envDefault:"1"`
}

// LoadAPIConfig constructs an APIConfig from environment variables.
func LoadAPIConfig() (APIConfig, error) {
	return parse(env.Options{})
}

func parse(opts env.Options) (APIConfig, error) {
	var cfg APIConfig
	if err := env.ParseWithOptions(&cfg, opts); err != nil {
		return APIConfig{}, fmt.Errorf("parse env: %w", err)
	}
	return cfg, nil
}

// Validate reports missing settings the API cannot start without.
func (c APIConfig) Validate() error {
	var errs []error
	if strings.TrimSpace(c.DatabaseURL) == "" {
		errs = append(errs, errors.New("DATABASE_URL is required"))
	}
	if c.SecretKey.IsZero() {
		errs = append(errs, errors.New("SECRET_KEY is required"))
	}
	if c.AccessTokenTTL <= 0 {
		errs = append(errs, errors.New("ACCESS_TOKEN_TTL must be positive"))
	}
	if c.TokenLeeway < 0 {
		errs = append(errs, errors.New("TOKEN_LEEWAY must not be negative"))
	}
	return errors.Join(errs...)
}

// HashParams returns the Argon2id parameters for new password hashes.
func (c APIConfig) HashParams() crypto.Params {
	return crypto.Params{
		Memory:     c.PasswordHashMemoryKiB,
		Iterations: c.PasswordHashIterations,
		Threads:    c.PasswordHashParallelism,
	}
}

// SlogLevel maps LogLevel onto slog, defaulting to info.
func (c APIConfig) SlogLevel() slog.Level {
	var level slog.Level
	if err := level.UnmarshalText([]byte(strings.TrimSpace(c.LogLevel))); err != nil {
		return slog.LevelInfo
	}
	return level
}
