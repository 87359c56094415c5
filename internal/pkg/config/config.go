package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

// Session storage backends.
const (
	BackendFile   = "file"
	BackendMemory = "memory"
	BackendRedis  = "redis"
	BackendMongo  = "mongo"
)

type Config struct {
	LogLevel  string `env:"LOG_LEVEL,  default=info"`
	LogPretty bool   `env:"LOG_PRETTY, default=false"`

	API     APIConfig
	Console ConsoleConfig
	Session SessionConfig
	Redis   RedisConfig
	Mongo   MongoConfig
	DevAPI  DevAPIConfig
}

// APIConfig points the HTTP client at the remote REST API.
type APIConfig struct {
	BaseURL string        `env:"API_BASE_URL, default=http://localhost:8080/api"`
	Timeout time.Duration `env:"HTTP_TIMEOUT, default=15s"`
}

type ConsoleConfig struct {
	Addr string `env:"CONSOLE_ADDR, default=:3000"`
	// LandingPath is where a login without a redirect target lands.
	LandingPath string `env:"CONSOLE_LANDING, default=/flats"`
}

type SessionConfig struct {
	Backend   string `env:"SESSION_BACKEND,    default=file"`
	File      string `env:"SESSION_FILE,       default=.propadmin/session.json"`
	KeyPrefix string `env:"SESSION_KEY_PREFIX, default=propadmin"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR, default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,   default=0"`
}

type MongoConfig struct {
	URI        string `env:"MONGO_URI,        default=mongodb://localhost:27017"`
	Database   string `env:"MONGO_DB,         default=propadmin"`
	Collection string `env:"MONGO_COLLECTION, default=client_sessions"`
}

// DevAPIConfig configures the in-memory development API.
type DevAPIConfig struct {
	Addr          string        `env:"DEVAPI_ADDR,    default=:8080"`
	JWTSecret     string        `env:"JWT_SECRET,     default=dev-secret"`
	TokenTTL      time.Duration `env:"TOKEN_TTL,      default=24h"`
	AdminEmail    string        `env:"ADMIN_EMAIL,    default=admin@propadmin.local"`
	AdminPassword string        `env:"ADMIN_PASSWORD, default=admin123"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, l envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: l}); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := cfg.validate(); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	return &cfg, nil
}

func (c *Config) validate() error {
	switch c.Session.Backend {
	case BackendFile, BackendMemory, BackendRedis, BackendMongo:
	default:
		return fmt.Errorf("unknown SESSION_BACKEND %q", c.Session.Backend)
	}
	if c.API.BaseURL == "" {
		return fmt.Errorf("API_BASE_URL is empty")
	}
	return nil
}
