package config

import (
	"context"
	"fmt"
	"time"

	"github.com/caarlos0/env/v10"
)

// App holds core runtime configuration.
type App struct {
	Name                    string        `env:"APP_NAME" envDefault:"tracnghiem"`
	Env                     string        `env:"APP_ENV" envDefault:"development"`
	HTTPAddr                string        `env:"HTTP_ADDR" envDefault:"0.0.0.0:8080"`
	GracefulShutdownTimeout time.Duration `env:"GRACEFUL_SHUTDOWN_SECONDS" envDefault:"20s"`

	Redis     Redis
	Security  Security
	Extractor Extractor
	Session   Session
	CORS      CORS
}

// Redis holds session store configuration.
type Redis struct {
	Addr     string `env:"REDIS_ADDR,notEmpty"`
	DB       int    `env:"REDIS_DB" envDefault:"0"`
	PoolSize int    `env:"REDIS_POOL_SIZE" envDefault:"20"`
}

// Security stores secrets for signing guest tokens.
type Security struct {
	JWTSecret   string        `env:"JWT_SECRET,notEmpty"`
	GuestTTL    time.Duration `env:"GUEST_TOKEN_TTL" envDefault:"720h"`
	TokenIssuer string        `env:"TOKEN_ISSUER" envDefault:"tracnghiem"`
}

// Extractor configures the question extraction service.
type Extractor struct {
	URL         string        `env:"EXTRACTOR_URL"`
	APIKey      string        `env:"EXTRACTOR_API_KEY"`
	HTTPTimeout time.Duration `env:"EXTRACTOR_HTTP_TIMEOUT" envDefault:"60s"`
}

// Session groups quiz session behavior knobs.
type Session struct {
	SnapshotTTL   time.Duration `env:"SESSION_SNAPSHOT_TTL" envDefault:"168h"`
	IdleTimeout   time.Duration `env:"SESSION_IDLE_TIMEOUT" envDefault:"2h"`
	ReapInterval  time.Duration `env:"SESSION_REAP_INTERVAL" envDefault:"10m"`
	MaxUploadSize int64         `env:"SESSION_MAX_UPLOAD_BYTES" envDefault:"10485760"`
}

// CORS holds Cross-Origin Resource Sharing configuration.
type CORS struct {
	AllowedOrigins   []string `env:"CORS_ALLOWED_ORIGINS" envSeparator:"," envDefault:"http://localhost:3000,http://127.0.0.1:3000"`
	AllowedMethods   []string `env:"CORS_ALLOWED_METHODS" envSeparator:"," envDefault:"GET,POST,PUT,DELETE,OPTIONS"`
	AllowedHeaders   []string `env:"CORS_ALLOWED_HEADERS" envSeparator:"," envDefault:"Content-Type,Authorization"`
	AllowCredentials bool     `env:"CORS_ALLOW_CREDENTIALS" envDefault:"true"`
	MaxAge           int      `env:"CORS_MAX_AGE" envDefault:"3600"`
}

// Load parses environment variables into App config.
func Load(ctx context.Context) (*App, error) {
	cfg := &App{}
	if err := env.ParseWithOptions(cfg, env.Options{RequiredIfNoDef: true}); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	return cfg, nil
}
