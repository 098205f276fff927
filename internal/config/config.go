// Package config parses service configuration from the environment, an
// optional .env file and command-line flags.
package config

import (
	"errors"
	"flag"
	"fmt"
	"io/fs"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the service configuration.
type Config struct {
	HTTPAddr        string        `env:"ESCAPE_HTTP_ADDR"        envDefault:":8000"`
	BotToken        string        `env:"ESCAPE_BOT_TOKEN"`
	RedisURL        string        `env:"ESCAPE_REDIS_URL"`
	SessionTTL      time.Duration `env:"ESCAPE_SESSION_TTL"      envDefault:"24h"`
	AuthMaxAge      time.Duration `env:"ESCAPE_AUTH_MAX_AGE"     envDefault:"24h"`
	Keepalive       time.Duration `env:"ESCAPE_KEEPALIVE"        envDefault:"20s"`
	LeaderboardPath string        `env:"ESCAPE_LEADERBOARD_PATH" envDefault:"data/leaderboard.db"`
	RoomPath        string        `env:"ESCAPE_ROOM_PATH"`
	PublicURL       string        `env:"ESCAPE_PUBLIC_URL"`
	ChatSecret      string        `env:"ESCAPE_CHAT_SECRET"`
	Debug           bool          `env:"DEBUG"`
}

// LoadDotEnv loads variables from the given files into the environment
// without overriding values already set. Missing files are ignored.
func LoadDotEnv(files ...string) error {
	if len(files) == 0 {
		files = []string{".env"}
	}
	for _, file := range files {
		if err := godotenv.Load(file); err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				continue
			}
			return fmt.Errorf("load %s: %w", file, err)
		}
	}
	return nil
}

// ParseConfig parses environment and flags into a Config.
func ParseConfig(fset *flag.FlagSet, args []string) (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parse env: %w", err)
	}

	fset.StringVar(&cfg.HTTPAddr, "http-addr", cfg.HTTPAddr, "HTTP listen address")
	fset.StringVar(&cfg.RedisURL, "redis-url", cfg.RedisURL, "redis URL for session storage (empty keeps sessions in memory)")
	fset.DurationVar(&cfg.SessionTTL, "session-ttl", cfg.SessionTTL, "sliding expiry of stored sessions")
	fset.DurationVar(&cfg.Keepalive, "keepalive", cfg.Keepalive, "idle interval before an SSE keepalive frame")
	fset.StringVar(&cfg.LeaderboardPath, "leaderboard-path", cfg.LeaderboardPath, "SQLite leaderboard file (empty disables)")
	fset.StringVar(&cfg.RoomPath, "room-path", cfg.RoomPath, "room definition JSON (empty uses the demo room)")
	fset.StringVar(&cfg.PublicURL, "public-url", cfg.PublicURL, "base URL used in join links")
	fset.BoolVar(&cfg.Debug, "debug", cfg.Debug, "verbose realtime logging")
	if err := fset.Parse(args); err != nil {
		return Config{}, err
	}
	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks value ranges.
func (c Config) Validate() error {
	if c.SessionTTL <= 0 {
		return fmt.Errorf("session ttl must be positive, got %s", c.SessionTTL)
	}
	if c.AuthMaxAge <= 0 {
		return fmt.Errorf("auth max age must be positive, got %s", c.AuthMaxAge)
	}
	if c.Keepalive <= 0 {
		return fmt.Errorf("keepalive must be positive, got %s", c.Keepalive)
	}
	return nil
}
