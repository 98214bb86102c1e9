package config

import (
	"context"
	"fmt"
	"time"

	"github.com/sethvargo/go-envconfig"
)

type Config struct {
	Port      string `env:"PORT,      default=8080"`
	Env       string `env:"ENV,       default=development"`
	JWTSecret string `env:"JWT_SECRET"`
	LogLevel  string `env:"LOG_LEVEL, default=info"`

	Session SessionConfig
	Trigger TriggerConfig
	Mongo   MongoConfig
	Redis   RedisConfig
}

type SessionConfig struct {
	TTL      time.Duration `env:"SESSION_TTL,       default=24h"`
	StateKey string        `env:"SESSION_STATE_KEY, default=auth:state:agent"`
	// TriggerGrace is how long sign-up waits for the backend trigger
	// before reconciling the profile row itself.
	TriggerGrace time.Duration `env:"SIGNUP_TRIGGER_GRACE, default=300ms"`
}

type TriggerConfig struct {
	// Enabled simulates the backend's post-signup profile trigger.
	Enabled bool          `env:"PROFILE_TRIGGER_ENABLED, default=true"`
	Delay   time.Duration `env:"PROFILE_TRIGGER_DELAY,   default=150ms"`
}

type MongoConfig struct {
	URI      string `env:"MONGO_URI, default=mongodb://localhost:27017"`
	Database string `env:"MONGO_DB,  default=shopnow_auth"`
}

type RedisConfig struct {
	Addr string `env:"REDIS_ADDR, default=localhost:6379"`
	DB   int    `env:"REDIS_DB,   default=0"`
}

// Load reads configuration from environment variables using go-envconfig.
func Load() *Config {
	var cfg Config
	if err := envconfig.Process(context.Background(), &cfg); err != nil {
		panic(fmt.Sprintf("config: failed to load configuration: %v", err))
	}
	return &cfg
}
