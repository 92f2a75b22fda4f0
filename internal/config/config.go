// Package config loads server configuration from the environment.
//
// A .env file in the working directory is read first when present, so local
// development needs no exported variables. Real environment variables always
// win over the file.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log/slog"
	"strings"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds every tunable of the server.
type Config struct {
	Port     int    `env:"PORT" envDefault:"8080"`
	DBPath   string `env:"DB_PATH" envDefault:"data/runners.db"`
	BaseURL  string `env:"BASE_URL" envDefault:"http://localhost:8080"`
	LogLevel string `env:"LOG_LEVEL" envDefault:"info"`

	// Sessions and sign-in.
	JWTSecret          string        `env:"JWT_SECRET"`
	SessionTTL         time.Duration `env:"SESSION_TTL" envDefault:"12h"`
	GitHubClientID     string        `env:"GITHUB_CLIENT_ID"`
	GitHubClientSecret string        `env:"GITHUB_CLIENT_SECRET"`
	GoogleClientID     string        `env:"GOOGLE_CLIENT_ID"`
	GoogleClientSecret string        `env:"GOOGLE_CLIENT_SECRET"`
	AdminEmails        []string      `env:"ADMIN_EMAILS" envSeparator:","`

	// Strava.
	StravaClientID     string        `env:"STRAVA_CLIENT_ID"`
	StravaClientSecret string        `env:"STRAVA_CLIENT_SECRET"`
	StravaTokenURL     string        `env:"STRAVA_TOKEN_URL" envDefault:"https://www.strava.com/oauth/token"`
	StravaAPIURL       string        `env:"STRAVA_API_URL" envDefault:"https://www.strava.com/api/v3"`
	StravaSyncInterval time.Duration `env:"STRAVA_SYNC_INTERVAL" envDefault:"30m"`
	TokenEncryptionKey string        `env:"TOKEN_ENCRYPTION_KEY"`

	LeaderboardReconcileInterval time.Duration `env:"LEADERBOARD_RECONCILE_INTERVAL" envDefault:"1h"`

	// Avatar uploads (any S3-compatible bucket).
	AvatarBucket          string `env:"AVATAR_BUCKET"`
	AvatarRegion          string `env:"AVATAR_REGION" envDefault:"auto"`
	AvatarEndpoint        string `env:"AVATAR_ENDPOINT"`
	AvatarAccessKeyID     string `env:"AVATAR_ACCESS_KEY_ID"`
	AvatarSecretAccessKey string `env:"AVATAR_SECRET_ACCESS_KEY"`
	AvatarPublicURL       string `env:"AVATAR_PUBLIC_URL"`

	OTELEndpoint string `env:"OTEL_ENDPOINT"`
}

// Load reads .env (if any) and parses the environment into a Config.
func Load() (Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return Config{}, fmt.Errorf("config: loading .env: %w", err)
	}
	return Parse()
}

// Parse reads the process environment only.
func Parse() (Config, error) {
	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("config: parse env: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

func (c Config) validate() error {
	if c.Port <= 0 || c.Port > 65535 {
		return fmt.Errorf("config: PORT %d out of range", c.Port)
	}
	if c.JWTSecret != "" && len(c.JWTSecret) < 16 {
		return errors.New("config: JWT_SECRET must be at least 16 characters")
	}
	if c.SessionTTL <= 0 {
		return errors.New("config: SESSION_TTL must be positive")
	}
	if c.StravaSyncInterval <= 0 || c.LeaderboardReconcileInterval <= 0 {
		return errors.New("config: job intervals must be positive")
	}
	return nil
}

// Addr is the listen address.
func (c Config) Addr() string {
	return fmt.Sprintf(":%d", c.Port)
}

// SlogLevel maps LOG_LEVEL to a slog level. Unknown values mean info.
func (c Config) SlogLevel() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}

// AuthEnabled reports whether sessions can be issued.
func (c Config) AuthEnabled() bool {
	return c.JWTSecret != ""
}

// StravaEnabled reports whether the Strava credentials are configured.
func (c Config) StravaEnabled() bool {
	return c.StravaClientID != "" && c.StravaClientSecret != ""
}

// AvatarsEnabled reports whether avatar uploads have somewhere to go.
func (c Config) AvatarsEnabled() bool {
	return c.AvatarBucket != "" && c.AvatarAccessKeyID != "" && c.AvatarSecretAccessKey != ""
}

// IsAdminEmail reports whether email is listed in ADMIN_EMAILS (case-insensitive).
func (c Config) IsAdminEmail(email string) bool {
	email = strings.TrimSpace(email)
	if email == "" {
		return false
	}
	for _, admin := range c.AdminEmails {
		if strings.EqualFold(strings.TrimSpace(admin), email) {
			return true
		}
	}
	return false
}

// CallbackURL builds an absolute URL under BaseURL.
func (c Config) CallbackURL(path string) string {
	return strings.TrimRight(c.BaseURL, "/") + path
}
