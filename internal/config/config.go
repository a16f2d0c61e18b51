package config

import (
	"log"
	"os"
	"strconv"
	"time"

	engine "github.com/Conceptual-Machines/composer-api/internal/agents/core/config"
	"github.com/Conceptual-Machines/composer-api/internal/music"
)

const (
	AuthModeNone    = "none"
	AuthModeGateway = "gateway"
	AuthModeJWT     = "jwt"

	EnvironmentProduction = "production"
)

// Config holds the application configuration
type Config struct {
	// Environment
	Environment string
	Port        string

	// Storage; an empty URL or a sqlite path selects SQLite, anything else Postgres
	DatabaseURL  string
	PatternsPath string

	// Composition engine
	MarkovOrder int
	DefaultSeed uint64
	HomeKey     string
	MaxMeasures int

	// Training corpus
	CorpusBaseURL string
	CorpusTimeout time.Duration

	// Observability
	SentryDSN string

	// Auth mode
	// - "none": No auth (self-hosted, local dev)
	// - "gateway": Trust X-User-* headers from an upstream gateway
	// - "jwt": HMAC bearer tokens signed with JWTSecret
	AuthMode  string
	JWTSecret string
}

func Load() *Config {
	return &Config{
		Environment:   getEnv("ENVIRONMENT", "development"),
		Port:          getEnv("PORT", "8080"),
		DatabaseURL:   getEnv("DATABASE_URL", "composer.db"),
		PatternsPath:  getEnv("PATTERNS_PATH", "data/patterns.json"),
		MarkovOrder:   getEnvInt("MARKOV_ORDER", engine.DefaultMarkovOrder),
		DefaultSeed:   uint64(getEnvInt("DEFAULT_SEED", 0)),
		HomeKey:       getEnv("HOME_KEY", "C major"),
		MaxMeasures:   getEnvInt("MAX_MEASURES", 256),
		CorpusBaseURL: getEnv("CORPUS_BASE_URL", ""),
		CorpusTimeout: getEnvDuration("CORPUS_TIMEOUT", 10*time.Second),
		SentryDSN:     getEnv("SENTRY_DSN", ""),
		AuthMode:      getEnv("AUTH_MODE", AuthModeNone), // Default to no auth for self-hosted
		JWTSecret:     getEnv("JWT_SECRET", ""),
	}
}

// Engine derives the composition engine settings. An unparsable home key
// falls back to C major.
func (c *Config) Engine() *engine.Config {
	cfg := engine.Default()
	cfg.MarkovOrder = c.MarkovOrder
	cfg.Seed = c.DefaultSeed
	if key, err := music.ParseKey(c.HomeKey); err == nil {
		cfg.Key = key
	} else {
		log.Printf("⚠️  Invalid HOME_KEY %q, using %s", c.HomeKey, cfg.Key)
	}
	return cfg.Normalize()
}

func getEnv(key, defaultValue string) string {
	value := os.Getenv(key)
	if value != "" {
		return value
	}
	return defaultValue
}

func getEnvInt(key string, defaultValue int) int {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	n, err := strconv.Atoi(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %d", key, value, defaultValue)
		return defaultValue
	}
	return n
}

func getEnvDuration(key string, defaultValue time.Duration) time.Duration {
	value := os.Getenv(key)
	if value == "" {
		return defaultValue
	}
	d, err := time.ParseDuration(value)
	if err != nil {
		log.Printf("⚠️  Invalid %s=%q, using %v", key, value, defaultValue)
		return defaultValue
	}
	return d
}

// IsGatewayMode returns true if running behind an authenticating gateway
func (c *Config) IsGatewayMode() bool {
	return c.AuthMode == AuthModeGateway
}

// IsProduction gates production-only integrations such as CloudWatch
func (c *Config) IsProduction() bool {
	return c.Environment == EnvironmentProduction
}
