package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Auth      AuthConfig
	Mongo     MongoConfig
	Redis     RedisConfig
	Media     MediaConfig
	Analytics AnalyticsConfig
	Bootstrap BootstrapConfig
}

type AuthConfig struct {
	JWTSecret       string        `env:"JWT_SECRET, required"`
	TokenTTL        time.Duration `env:"TOKEN_TTL, default=24h"`
	LoginRatePerMin int           `env:"LOGIN_RATE_PER_MIN, default=10"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=dealership"`
}

type RedisConfig struct {
	Addr     string `env:"REDIS_ADDR,     default=localhost:6379"`
	Password string `env:"REDIS_PASSWORD"`
	DB       int    `env:"REDIS_DB,       default=0"`
}

// MediaConfig controls remote image downloads. AllowedHosts is a comma
// separated list; entries starting with "." match subdomains.
type MediaConfig struct {
	LogoURL              string   `env:"LOGO_URL"`
	AllowedHosts         []string `env:"MEDIA_ALLOWED_HOSTS"`
	AllowPrivateNetworks bool     `env:"MEDIA_ALLOW_PRIVATE_NETWORKS, default=false"`
	MaxPixels            int      `env:"MEDIA_MAX_PIXELS, default=50000000"`
}

type AnalyticsConfig struct {
	Salt        string        `env:"ANALYTICS_SALT"`
	DedupWindow time.Duration `env:"PAGEVIEW_DEDUP_WINDOW, default=30m"`
	Workers     int           `env:"PAGEVIEW_WORKERS, default=4"`
}

// BootstrapConfig seeds the first admin account when ADMIN_EMAIL is set.
type BootstrapConfig struct {
	AdminEmail    string `env:"ADMIN_EMAIL"`
	AdminPassword string `env:"ADMIN_PASSWORD"`
	AdminName     string `env:"ADMIN_NAME, default=Administrator"`
}

// IsDevelopment reports whether the service runs with developer defaults.
func (c *Config) IsDevelopment() bool {
	return c.Env == "development"
}

// Load reads configuration from environment variables using go-envconfig.
func Load(ctx context.Context) (*Config, error) {
	return load(ctx, envconfig.OsLookuper())
}

func load(ctx context.Context, lookuper envconfig.Lookuper) (*Config, error) {
	var cfg Config
	if err := envconfig.ProcessWith(ctx, &envconfig.Config{Target: &cfg, Lookuper: lookuper}); err != nil {
		return nil, fmt.Errorf("load config: %w", err)
	}
	if len(cfg.Auth.JWTSecret) < 16 {
		return nil, fmt.Errorf("load config: JWT_SECRET must be at least 16 bytes")
	}
	if cfg.Auth.TokenTTL <= 0 {
		return nil, fmt.Errorf("load config: TOKEN_TTL must be positive")
	}
	if cfg.Bootstrap.AdminEmail != "" && cfg.Bootstrap.AdminPassword == "" {
		return nil, fmt.Errorf("load config: ADMIN_PASSWORD is required when ADMIN_EMAIL is set")
	}
	return &cfg, nil
}
