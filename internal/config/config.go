package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Config is the process configuration read from the environment.
type Config struct {
	Env           string        `env:"APP_ENV" envDefault:"local"`
	Port          string        `env:"PORT" envDefault:"8080"`
	BaseURL       string        `env:"BASE_URL"`
	DatabasePath  string        `env:"DATABASE_PATH" envDefault:"spinwheel.db"`
	WheelFile     string        `env:"WHEEL_FILE"`
	FrameInterval time.Duration `env:"FRAME_INTERVAL" envDefault:"33ms"`
	CORSOrigins   []string      `env:"CORS_ORIGINS" envSeparator:"," envDefault:"*"`
	DefaultLang   string        `env:"DEFAULT_LANG" envDefault:"en"`
}

// Address is the listen address derived from Port.
func (c *Config) Address() string {
	return ":" + c.Port
}

// Load reads envFile into the environment when it exists, then parses the
// environment. Variables already set take precedence over the file.
func Load(envFile string) (*Config, error) {
	if envFile != "" {
		if err := godotenv.Load(envFile); err != nil && !errors.Is(err, fs.ErrNotExist) {
			return nil, fmt.Errorf("load %s: %w", envFile, err)
		}
	}
	var cfg Config
	if err := ParseEnv(&cfg); err != nil {
		return nil, err
	}
	if cfg.FrameInterval <= 0 {
		return nil, fmt.Errorf("FRAME_INTERVAL must be positive, got %s", cfg.FrameInterval)
	}
	return &cfg, nil
}

// MustLoad is Load(".env") that exits the process on error.
func MustLoad() *Config {
	cfg, err := Load(".env")
	if err != nil {
		log.Fatalf("config: %v", err)
	}
	return cfg
}

// ParseEnv loads configuration from environment variables.
func ParseEnv(target any) error {
	if err := env.Parse(target); err != nil {
		return fmt.Errorf("parse env: %w", err)
	}
	return nil
}
