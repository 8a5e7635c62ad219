// Package config loads process settings for the server and the CLI.
//
// Settings come from an optional YAML file overlaid by environment
// variables. A .env file in the working directory is loaded into the
// environment first when present.
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"os"
	"time"

	"github.com/ilyakaznacheev/cleanenv"
	"github.com/joho/godotenv"
)

// Config is the process configuration.
type Config struct {
	Env        string `yaml:"env" env:"ARREARS_ENV" env-default:"local"`
	DBPath     string `yaml:"db_path" env:"ARREARS_DB_PATH" env-default:"./arrears.db"`
	HTTPServer `yaml:"http_server"`
	Sources    `yaml:"sources"`
}

// HTTPServer configures the API listener.
type HTTPServer struct {
	Address         string        `yaml:"address" env:"ARREARS_HTTP_ADDRESS" env-default:":8080"`
	Timeout         time.Duration `yaml:"timeout" env:"ARREARS_HTTP_TIMEOUT" env-default:"30s"`
	IdleTimeout     time.Duration `yaml:"idle_timeout" env:"ARREARS_HTTP_IDLE_TIMEOUT" env-default:"60s"`
	ShutdownTimeout time.Duration `yaml:"shutdown_timeout" env:"ARREARS_HTTP_SHUTDOWN_TIMEOUT" env-default:"10s"`
	CORSOrigins     []string      `yaml:"cors_origins" env:"ARREARS_CORS_ORIGINS" env-separator:"," env-default:"*"`
}

// Sources configures the reference-data services.
type Sources struct {
	CalendarURL  string        `yaml:"calendar_url" env:"ARREARS_CALENDAR_URL" env-default:"https://xmlcalendar.ru/data/ru/%d/calendar.json"`
	KeyRateURL   string        `yaml:"key_rate_url" env:"ARREARS_KEY_RATE_URL" env-default:"https://www.cbr.ru/DailyInfoWebServ/DailyInfo.asmx"`
	FetchTimeout time.Duration `yaml:"fetch_timeout" env:"ARREARS_FETCH_TIMEOUT" env-default:"30s"`
}

// Environments accepted in Env.
const (
	EnvLocal = "local"
	EnvDev   = "dev"
	EnvProd  = "prod"
)

// Load reads path (when it is not empty) and the environment. A missing
// .env file is not an error.
func Load(path string) (*Config, error) {
	if err := godotenv.Load(); err != nil && !errors.Is(err, fs.ErrNotExist) {
		return nil, fmt.Errorf("load .env: %w", err)
	}

	var cfg Config
	if path != "" {
		if _, err := os.Stat(path); err != nil {
			return nil, fmt.Errorf("config file %s: %w", path, err)
		}
		if err := cleanenv.ReadConfig(path, &cfg); err != nil {
			return nil, fmt.Errorf("read config: %w", err)
		}
	} else if err := cleanenv.ReadEnv(&cfg); err != nil {
		return nil, fmt.Errorf("read env: %w", err)
	}

	switch cfg.Env {
	case EnvLocal, EnvDev, EnvProd:
	default:
		return nil, fmt.Errorf("unknown env %q", cfg.Env)
	}
	return &cfg, nil
}

// MustLoad is Load for mains: it exits on error.
func MustLoad(path string) *Config {
	cfg, err := Load(path)
	if err != nil {
		fmt.Fprintln(os.Stderr, "config:", err)
		os.Exit(1)
	}
	return cfg
}
