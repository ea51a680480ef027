// Package config loads the process configuration from the environment.
//
// A .env file in the working directory is read first when present; variables
// already set in the environment win over it. Every field has a default, so an
// empty environment yields a server on 127.0.0.1:3000 with in-memory sessions
// and non-secure cookies.
//
//	cfg, err := config.Load()
//	if err != nil {
//		panic(err)
//	}
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/go-playground/validator/v10"
	"github.com/joho/godotenv"
)

// Session store backends.
const (
	StoreMemory = "memory"
	StoreRedis  = "redis"
)

// Config is the full process configuration.
type Config struct {
	Addr        string `env:"FLASH_ADDR" envDefault:"127.0.0.1:3000" validate:"required,hostname_port"`
	LogLevel    string `env:"FLASH_LOG_LEVEL" envDefault:"info" validate:"oneof=debug info warn error"`
	ServiceName string `env:"FLASH_SERVICE_NAME" envDefault:"flash-messages" validate:"required"`

	SessionStore string        `env:"FLASH_SESSION_STORE" envDefault:"memory" validate:"oneof=memory redis"`
	RedisURL     string        `env:"FLASH_REDIS_URL" validate:"required_if=SessionStore redis,omitempty,url"`
	RedisPrefix  string        `env:"FLASH_REDIS_PREFIX" envDefault:"flash:session:"`
	SessionTTL   time.Duration `env:"FLASH_SESSION_TTL" envDefault:"24h" validate:"gt=0"`
	CookieName   string        `env:"FLASH_COOKIE_NAME" envDefault:"flash.sid" validate:"required,printascii,excludesall=;=0x2C"`
	CookieSecure bool          `env:"FLASH_COOKIE_SECURE" envDefault:"false"`

	// CookiePersistent makes the session cookie outlive the browser session.
	CookiePersistent bool `env:"FLASH_COOKIE_PERSISTENT" envDefault:"false"`
}

var validate = validator.New(validator.WithRequiredStructEnabled())

// Load reads .env (if any) and the environment into a validated Config.
func Load() (Config, error) {
	return LoadFiles(".env")
}

// LoadFiles is Load with explicit dotenv files. Missing files are skipped.
func LoadFiles(files ...string) (Config, error) {
	for _, f := range files {
		if err := godotenv.Load(f); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return Config{}, fmt.Errorf("config: load %s: %w", f, err)
		}
	}
	return Parse(env.Options{})
}

// Parse builds a Config from the environment described by opts, without
// touching dotenv files. Tests pass opts.Environment to stay hermetic.
func Parse(opts env.Options) (Config, error) {
	cfg, err := env.ParseAsWithOptions[Config](opts)
	if err != nil {
		return Config{}, fmt.Errorf("config: parse environment: %w", err)
	}
	if err := validate.Struct(cfg); err != nil {
		return Config{}, fmt.Errorf("config: invalid: %w", err)
	}
	return cfg, nil
}

// SlogLevel maps LogLevel to a slog.Level.
func (c Config) SlogLevel() slog.Level {
	var l slog.Level
	if err := l.UnmarshalText([]byte(c.LogLevel)); err != nil {
		return slog.LevelInfo
	}
	return l
}
