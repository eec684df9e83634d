// config/config.go
package config

import (
	"errors"
	"fmt"
	"io/fs"
	"log"
	"os"
	"strings"
	"time"

	"github.com/go-playground/validator/v10"
	"gopkg.in/yaml.v3"
)

type ServerConfig struct {
	Port            string        `yaml:"port" validate:"required,numeric"`
	CORSOrigin      string        `yaml:"cors_origin" validate:"required"`
	MaxUploadMB     int64         `yaml:"max_upload_mb" validate:"gt=0"`
	ReadTimeoutStr  string        `yaml:"read_timeout"`
	WriteTimeoutStr string        `yaml:"write_timeout"`
	ReadTimeout     time.Duration `yaml:"-"` // Parsed duration
	WriteTimeout    time.Duration `yaml:"-"` // Parsed duration
}

// ReferenceConfig locates the reference file and names its columns.
type ReferenceConfig struct {
	Path      string `yaml:"path" validate:"required"`
	IDColumn  string `yaml:"id_column" validate:"required"`
	LatColumn string `yaml:"lat_column" validate:"required"`
	LonColumn string `yaml:"lon_column" validate:"required"`
}

type RoutingConfig struct {
	BaseURL    string        `yaml:"base_url" validate:"required,url"`
	Profile    string        `yaml:"profile" validate:"required"`
	TimeoutStr string        `yaml:"timeout"`
	Timeout    time.Duration `yaml:"-"` // Parsed duration
}

// DatabaseConfig enables the import history when Driver is set.
// mysql uses Host/Port/User/Password/DBName, sqlite uses Path.
type DatabaseConfig struct {
	Driver   string `yaml:"driver" validate:"omitempty,oneof=mysql sqlite"`
	Host     string `yaml:"host" validate:"required_if=Driver mysql"`
	Port     string `yaml:"port"`
	User     string `yaml:"user"`
	Password string `yaml:"password"`
	DBName   string `yaml:"dbname" validate:"required_if=Driver mysql"`
	Path     string `yaml:"path" validate:"required_if=Driver sqlite"`
}

// Enabled reports whether import history is configured.
func (d DatabaseConfig) Enabled() bool {
	return d.Driver != ""
}

type Config struct {
	Server    ServerConfig    `yaml:"server"`
	Reference ReferenceConfig `yaml:"reference"`
	Routing   RoutingConfig   `yaml:"routing"`
	Database  DatabaseConfig  `yaml:"database"`
}

// Default returns the settings the service runs with when no file and no
// environment override is present.
func Default() Config {
	return Config{
		Server: ServerConfig{
			Port:            "4000",
			CORSOrigin:      "http://localhost:5173",
			MaxUploadMB:     20,
			ReadTimeoutStr:  "30s",
			WriteTimeoutStr: "5m",
		},
		Reference: ReferenceConfig{
			Path:      "/data/empExportBdd.csv",
			IDColumn:  "Numéro emplacement ETC",
			LatColumn: "Latitude",
			LonColumn: "Longitude",
		},
		Routing: RoutingConfig{
			BaseURL:    "http://osrm:5000",
			Profile:    "driving",
			TimeoutStr: "30s",
		},
		Database: DatabaseConfig{
			Port: "3306",
		},
	}
}

// LoadConfig builds the configuration from defaults, then the YAML file at
// configPath (skipped when it does not exist), then environment variables.
// The result is validated before it is returned.
func LoadConfig(configPath string) (*Config, error) {
	cfg := Default()

	if configPath != "" {
		file, err := os.ReadFile(configPath)
		switch {
		case errors.Is(err, fs.ErrNotExist):
			log.Printf("Config: %s not found, using defaults and environment", configPath)
		case err != nil:
			return nil, fmt.Errorf("failed to read config file: %w", err)
		default:
			if err := yaml.Unmarshal(file, &cfg); err != nil {
				return nil, fmt.Errorf("failed to unmarshal config: %w", err)
			}
			log.Printf("Config: loaded %s", configPath)
		}
	}

	applyEnv(&cfg)

	if err := cfg.parseDurations(); err != nil {
		return nil, err
	}

	if err := validator.New().Struct(cfg); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return &cfg, nil
}

// applyEnv overrides file values with the variables the service has always
// been deployed with.
func applyEnv(cfg *Config) {
	overrides := []struct {
		key string
		dst *string
	}{
		{"API_PORT", &cfg.Server.Port},
		{"CORS_ORIGIN", &cfg.Server.CORSOrigin},
		{"EMP_REF_PATH", &cfg.Reference.Path},
		{"OSRM_BASE_URL", &cfg.Routing.BaseURL},
		{"DB_DRIVER", &cfg.Database.Driver},
		{"DB_HOST", &cfg.Database.Host},
		{"DB_PORT", &cfg.Database.Port},
		{"DB_USER", &cfg.Database.User},
		{"DB_PASSWORD", &cfg.Database.Password},
		{"DB_NAME", &cfg.Database.DBName},
		{"DB_PATH", &cfg.Database.Path},
	}
	for _, o := range overrides {
		if v, ok := os.LookupEnv(o.key); ok && strings.TrimSpace(v) != "" {
			*o.dst = strings.TrimSpace(v)
		}
	}
	cfg.Routing.BaseURL = strings.TrimRight(cfg.Routing.BaseURL, "/")
}

func (c *Config) parseDurations() error {
	var err error
	if c.Server.ReadTimeout, err = parseDuration(c.Server.ReadTimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("failed to parse server.read_timeout: %w", err)
	}
	if c.Server.WriteTimeout, err = parseDuration(c.Server.WriteTimeoutStr, 5*time.Minute); err != nil {
		return fmt.Errorf("failed to parse server.write_timeout: %w", err)
	}
	if c.Routing.Timeout, err = parseDuration(c.Routing.TimeoutStr, 30*time.Second); err != nil {
		return fmt.Errorf("failed to parse routing.timeout: %w", err)
	}
	return nil
}

func parseDuration(s string, def time.Duration) (time.Duration, error) {
	if s == "" {
		return def, nil
	}
	return time.ParseDuration(s)
}

// MaxUploadBytes is the multipart body limit derived from MaxUploadMB.
func (s ServerConfig) MaxUploadBytes() int64 {
	return s.MaxUploadMB << 20
}
