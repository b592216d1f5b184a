package config

import (
	"fmt"
	"os"
	"strings"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

type Config struct {
	Env        string `yaml:"env" env:"APP_ENV" env-default:"local"`
	HTTPServer `yaml:"http_server"`
	Store      `yaml:"store"`
	Events     `yaml:"events"`
	Telemetry  `yaml:"telemetry"`
}

type HTTPServer struct {
	Address         string        `yaml:"address" env:"API_ADDR" env-default:":8080"`
	ReadTimeout     time.Duration `yaml:"read_timeout" env:"API_READ_TIMEOUT" env-default:"10s"`
	WriteTimeout    time.Duration `yaml:"write_timeout" env:"API_WRITE_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"API_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"API_SHUTDOWN_TIMEOUT" env-default:"10s"`
	AllowedOrigins  []string      `yaml:"allowed_origins" env:"CORS_ALLOWED_ORIGINS" env-default:"*"`
}

// Store points at the listings table. URL and Key are resolved from two
// alternate variable names each; see resolveStore.
type Store struct {
	URL     string        `yaml:"url"`
	Key     string        `yaml:"key"`
	Timeout time.Duration `yaml:"timeout" env:"STORE_TIMEOUT" env-default:"10s"`
}

type Events struct {
	NATSEndpoint   string        `yaml:"nats_endpoint" env:"NATS_ENDPOINT"`
	Stream         string        `yaml:"stream" env:"EVENT_STREAM" env-default:"LISTINGS"`
	PublishTimeout time.Duration `yaml:"publish_timeout" env:"EVENT_PUBLISH_TIMEOUT" env-default:"5s"`
	ListingCreated string        `yaml:"listing_created" env:"EVENT_LISTING_CREATED" env-default:"listings.created"`
	ListingUpdated string        `yaml:"listing_updated" env:"EVENT_LISTING_UPDATED" env-default:"listings.updated"`
	ListingDeleted string        `yaml:"listing_deleted" env:"EVENT_LISTING_DELETED" env-default:"listings.deleted"`
}

type Telemetry struct {
	OTLPEndpoint string `yaml:"otlp_endpoint" env:"OTEL_EXPORTER_OTLP_ENDPOINT"`
	ServiceName  string `yaml:"service_name" env:"OTEL_SERVICE_NAME" env-default:"fbmp-listings"`
}

// Alternate variable names for the store; the first non-empty one wins.
var (
	StoreURLVars = []string{"SUPABASE_URL", "VITE_SUPABASE_URL"}
	StoreKeyVars = []string{"SUPABASE_ANON_KEY", "VITE_SUPABASE_ANON_KEY"}
)

// Error is returned by Load when required configuration is missing or unreadable.
type Error struct {
	Missing []string
	Cause   error
}

func (e *Error) Error() string {
	if e.Cause != nil {
		return fmt.Sprintf("config: %v", e.Cause)
	}
	return "config: missing required environment: " + strings.Join(e.Missing, "; ")
}

func (e *Error) Unwrap() error {
	return e.Cause
}

// Load reads the environment (and the YAML file named by CONFIG_PATH, if set)
// and validates that a store URL and key are present.
func Load() (*Config, error) {
	var cfg Config

	if path := os.Getenv("CONFIG_PATH"); path != "" {
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, &Error{Cause: fmt.Errorf("read %s: %w", path, err)}
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, &Error{Cause: err}
	}

	if err := cfg.resolveStore(); err != nil {
		return nil, err
	}

	return &cfg, nil
}

func (c *Config) resolveStore() error {
	if v := firstNonEmpty(StoreURLVars); v != "" {
		c.Store.URL = v
	}
	if v := firstNonEmpty(StoreKeyVars); v != "" {
		c.Store.Key = v
	}

	var missing []string
	if c.Store.URL == "" {
		missing = append(missing, strings.Join(StoreURLVars, " or "))
	}
	if c.Store.Key == "" {
		missing = append(missing, strings.Join(StoreKeyVars, " or "))
	}
	if len(missing) > 0 {
		return &Error{Missing: missing}
	}
	return nil
}

func firstNonEmpty(keys []string) string {
	for _, k := range keys {
		if v := strings.TrimSpace(os.Getenv(k)); v != "" {
			return v
		}
	}
	return ""
}
