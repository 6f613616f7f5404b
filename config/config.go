package config

import (
	"time"

	"github.com/joho/godotenv"
	"github.com/kelseyhightower/envconfig"
)

// Config is loaded once at process start and injected into each component;
// nothing reads the environment after that.
type Config struct {
	DatabaseURL  string `envconfig:"DATABASE_URL" required:"true"`
	ServerSecret string `envconfig:"SERVER_SECRET" required:"true"`

	SessionTTL            time.Duration `envconfig:"SESSION_TTL" default:"24h"`
	MaxConcurrentSessions int           `envconfig:"MAX_CONCURRENT_SESSIONS" default:"1"`

	HTTPAddr   string `envconfig:"HTTP_ADDR" default:":8080"`
	BcryptCost int    `envconfig:"BCRYPT_COST" default:"10"`
}

// Load reads LIC_-prefixed environment variables, with .env as a local
// development convenience.
func Load() (Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := envconfig.Process("lic", &cfg); err != nil {
		return Config{}, err
	}
	return cfg, nil
}
