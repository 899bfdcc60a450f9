// Package appconf holds the runtime configuration for railbook and the loader
// that merges defaults with an optional YAML file.
package appconf

import (
	"fmt"
	"os"
	"strings"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type Environment string

const (
	Development Environment = "development"
	Test        Environment = "test"
	Production  Environment = "production"
)

// Storage backends.
const (
	BackendFile   = "file"
	BackendSQLite = "sqlite"
)

// StorageConfig selects where the train and station documents are persisted.
type StorageConfig struct {
	Backend      string `yaml:"backend" validate:"oneof=file sqlite"`
	TrainsFile   string `yaml:"trains_file" validate:"required_if=Backend file"`
	StationsFile string `yaml:"stations_file" validate:"required_if=Backend file"`
	SQLitePath   string `yaml:"sqlite_path" validate:"required_if=Backend sqlite"`
	// StrictLoad aborts startup when a persisted document exists but cannot be read or parsed.
	StrictLoad bool `yaml:"strict_load"`
}

type Config struct {
	Host               string        `yaml:"host" validate:"required"`
	Port               int           `yaml:"port" validate:"gte=0,lte=65535"`
	Env                Environment   `yaml:"env" validate:"oneof=development test production"`
	LogLevel           string        `yaml:"log_level" validate:"oneof=debug info warn error"`
	Verbose            bool          `yaml:"verbose"`
	RateLimit          int           `yaml:"rate_limit"`
	RateLimitExemptIPs []string      `yaml:"rate_limit_exempt_ips"`
	AllowedOrigins     []string      `yaml:"allowed_origins"`
	Storage            StorageConfig `yaml:"storage"`
}

// Default returns the configuration the service runs with when nothing is set.
func Default() Config {
	return Config{
		Host:      "0.0.0.0",
		Port:      8000,
		Env:       Development,
		LogLevel:  "info",
		RateLimit: 100,
		Storage: StorageConfig{
			Backend:      BackendFile,
			TrainsFile:   "trains.json",
			StationsFile: "stations.json",
			SQLitePath:   "railbook.db",
		},
	}
}

// Addr is the listen address for the HTTP server.
func (c Config) Addr() string {
	return fmt.Sprintf("%s:%d", c.Host, c.Port)
}

// Load returns Default() overlaid with the YAML file at path. An empty path skips
// the file. The result is validated.
func Load(path string) (Config, error) {
	cfg := Default()

	if path != "" {
		data, err := os.ReadFile(path)
		if err != nil {
			return Config{}, fmt.Errorf("reading config file: %w", err)
		}
		if err := yaml.Unmarshal(data, &cfg); err != nil {
			return Config{}, fmt.Errorf("parsing config file %s: %w", path, err)
		}
	}

	if err := cfg.Validate(); err != nil {
		return Config{}, err
	}
	return cfg, nil
}

// Validate checks field constraints after all overrides have been applied.
func (c Config) Validate() error {
	if err := validator.New().Struct(c); err != nil {
		return fmt.Errorf("invalid configuration: %w", err)
	}
	return nil
}

// ParseList splits a comma separated value, trimming whitespace and dropping
// empty entries.
func ParseList(input string) []string {
	if input == "" {
		return []string{}
	}

	parts := strings.Split(input, ",")
	out := make([]string, 0, len(parts))
	for _, part := range parts {
		if trimmed := strings.TrimSpace(part); trimmed != "" {
			out = append(out, trimmed)
		}
	}
	return out
}
