package config

import (
	"context"
	"fmt"
	"time"

	"github.com/go-playground/validator/v10"
	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port     string `env:"PORT,      default=8080"`
	Env      string `env:"ENV,       default=development"`
	LogLevel string `env:"LOG_LEVEL, default=info"`

	Upstream UpstreamConfig
	Mongo    MongoConfig
	Redis    RedisConfig
	Admin    AdminConfig
}

// UpstreamConfig points the proxy at the API it fronts. BaseURL carries the
// common path prefix; the remaining paths are relative to it.
type UpstreamConfig struct {
	BaseURL string        `env:"UPSTREAM_URL" validate:"required,url"`
	Timeout time.Duration `env:"UPSTREAM_TIMEOUT, default=15s"`

	CurrentUserPath string `env:"UPSTREAM_ME_PATH,          default=/users/me"`
	LogoutPath      string `env:"UPSTREAM_LOGOUT_PATH,      default=/logout"`
	UserDeletePath  string `env:"UPSTREAM_USER_DELETE_PATH, default=/admin/users"`
	// AdminToken authenticates the best-effort upstream account delete.
	// When empty the caller's own credentials are reused.
	AdminToken string `env:"UPSTREAM_ADMIN_TOKEN"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI" validate:"required"`
	Database string `env:"MONGO_DB, default=account_gate"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// AdminConfig guards the operator surface. Leaving JWTSecret or
// PasswordHash empty disables the admin routes entirely.
type AdminConfig struct {
	JWTSecret    string        `env:"ADMIN_JWT_SECRET"`
	PasswordHash string        `env:"ADMIN_PASSWORD_HASH"`
	TokenTTL     time.Duration `env:"ADMIN_TOKEN_TTL, default=12h"`
}

// Enabled reports whether the admin surface can be served.
func (a AdminConfig) Enabled() bool {
	return a.JWTSecret != "" && a.PasswordHash != ""
}

// Load reads configuration from environment variables using go-envconfig
// and validates it before anything connects anywhere.
func Load(ctx context.Context) (*Config, error) {
	var cfg Config
	if err := envconfig.Process(ctx, &cfg); err != nil {
		return nil, fmt.Errorf("config: %w", err)
	}
	if err := validator.New().Struct(&cfg); err != nil {
		return nil, fmt.Errorf("config validation: %w", err)
	}
	return &cfg, nil
}
