// Package config loads runtime configuration from the environment.
//
// A .env file in the working directory is read first if present; real
// environment variables always win over it. Every setting has a default
// suitable for local development except the credentials, which are simply
// empty (and the features that need them stay off).
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"strings"
	"time"

	"github.com/joho/godotenv"
)

type Config struct {
	Port     int
	DBPath   string
	LogLevel slog.Level

	Auth    AuthConfig
	GitHub  GitHubConfig
	Catalog CatalogConfig
	Redis   RedisConfig

	CORSOrigins []string
	// FrontendURL is where the GitHub callback redirects after login.
	FrontendURL string
}

type AuthConfig struct {
	JWTSecret string
	TokenTTL  time.Duration
}

type GitHubConfig struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// CatalogConfig covers both metadata providers. RAWG materializes games,
// IGDB (through Twitch app credentials) enriches them.
type CatalogConfig struct {
	RAWGAPIKey         string
	RAWGBaseURL        string
	TwitchClientID     string
	TwitchClientSecret string
	Timeout            time.Duration
	CacheTTL           time.Duration
}

// RedisConfig is optional; an empty Addr disables the catalog cache.
type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}

// Load reads the configuration. Malformed numbers or durations are errors,
// not silent defaults.
func Load() (*Config, error) {
	// Load .env file if it exists (ignore error if not found)
	_ = godotenv.Load()

	var p parser
	cfg := &Config{
		Port:     p.int("PORT", 8080),
		DBPath:   getEnv("DB_PATH", "data/playtrack.db"),
		LogLevel: p.level("LOG_LEVEL", slog.LevelInfo),
		Auth: AuthConfig{
			JWTSecret: getEnv("JWT_SECRET", ""),
			TokenTTL:  p.duration("TOKEN_TTL", 7*24*time.Hour),
		},
		GitHub: GitHubConfig{
			ClientID:     getEnv("GITHUB_CLIENT_ID", ""),
			ClientSecret: getEnv("GITHUB_CLIENT_SECRET", ""),
		},
		Catalog: CatalogConfig{
			RAWGAPIKey:         getEnv("RAWG_API_KEY", ""),
			RAWGBaseURL:        getEnv("RAWG_BASE_URL", "https://api.rawg.io/api"),
			TwitchClientID:     getEnv("TWITCH_CLIENT_ID", ""),
			TwitchClientSecret: getEnv("TWITCH_CLIENT_SECRET", ""),
			Timeout:            p.duration("CATALOG_TIMEOUT", 10*time.Second),
			CacheTTL:           p.duration("CATALOG_CACHE_TTL", 24*time.Hour),
		},
		Redis: RedisConfig{
			Addr:     getEnv("REDIS_ADDR", ""),
			Password: getEnv("REDIS_PASSWORD", ""),
			DB:       p.int("REDIS_DB", 0),
		},
		CORSOrigins: splitList(getEnv("CORS_ORIGINS", "http://localhost:5173")),
		FrontendURL: getEnv("FRONTEND_URL", "http://localhost:5173"),
	}
	cfg.GitHub.CallbackURL = getEnv("GITHUB_CALLBACK_URL",
		fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port))

	if p.err != nil {
		return nil, p.err
	}
	if cfg.Catalog.Timeout <= 0 {
		return nil, fmt.Errorf("config: CATALOG_TIMEOUT must be positive")
	}
	return cfg, nil
}

// IGDBEnabled reports whether enrichment credentials are present.
func (c CatalogConfig) IGDBEnabled() bool {
	return c.TwitchClientID != "" && c.TwitchClientSecret != ""
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

// parser keeps the first conversion error so Load can report it once.
type parser struct {
	err error
}

func (p *parser) fail(key, value string, err error) {
	if p.err == nil {
		p.err = fmt.Errorf("config: invalid %s %q: %w", key, value, err)
	}
}

func (p *parser) int(key string, fallback int) int {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	n, err := strconv.Atoi(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return n
}

func (p *parser) duration(key string, fallback time.Duration) time.Duration {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	d, err := time.ParseDuration(v)
	if err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return d
}

func (p *parser) level(key string, fallback slog.Level) slog.Level {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	var l slog.Level
	if err := l.UnmarshalText([]byte(v)); err != nil {
		p.fail(key, v, err)
		return fallback
	}
	return l
}

func splitList(s string) []string {
	var out []string
	for _, part := range strings.Split(s, ",") {
		if part = strings.TrimSpace(part); part != "" {
			out = append(out, part)
		}
	}
	return out
}
