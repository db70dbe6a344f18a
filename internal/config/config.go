package config

import (
	"fmt"
	"time"

	"github.com/kelseyhightower/envconfig"
)

// Config holds the application's configuration values. Tags like
// `envconfig:"HTTP_SERVER_PORT"` name the environment variable;
// `default` applies when it is unset and `required` makes it mandatory.
type Config struct {
	AppEnv     string `envconfig:"APP_ENV" default:"development"`
	LogLevel   string `envconfig:"LOG_LEVEL" default:"info"`
	HttpServer ServerConfig
	Postgres   PostgresConfig
	Catalog    CatalogConfig
}

// ServerConfig holds HTTP server-specific configuration.
type ServerConfig struct {
	Port         string        `envconfig:"HTTP_SERVER_PORT" default:"8080"`
	TimeoutRead  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_READ" default:"15s"`
	TimeoutWrite time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_WRITE" default:"15s"`
	TimeoutIdle  time.Duration `envconfig:"HTTP_SERVER_TIMEOUT_IDLE" default:"60s"`
}

// PostgresConfig holds PostgreSQL connection details.
type PostgresConfig struct {
	Host     string `envconfig:"POSTGRES_HOST" required:"true"`
	Port     string `envconfig:"POSTGRES_PORT" default:"5432"`
	User     string `envconfig:"POSTGRES_USER" required:"true"`
	Password string `envconfig:"POSTGRES_PASSWORD" required:"true"`
	DBName   string `envconfig:"POSTGRES_DBNAME" required:"true"`
}

// CatalogConfig holds the catalog resolver's settings: the root of the
// on-disk PDF tree and the configured business segments.
type CatalogConfig struct {
	DocumentsDir string   `envconfig:"CATALOG_DOCUMENTS_DIR" default:"documents/catalogs"`
	Segments     []string `envconfig:"CATALOG_SEGMENTS" default:"fnb,gaso"`
}

// Category folder layouts per segment. The folder token carries the
// ordinal prefix used on disk; the value is the canonical category name.
// The two retail programs assign different ordinals to the same semantic
// category, so each segment gets its own table.
var (
	fnbCategories = map[string]string{
		"1-phones":        "phones",
		"2-laptops":       "laptops",
		"3-televisions":   "televisions",
		"4-refrigerators": "refrigerators",
		"5-washers":       "washers",
	}
	gasoCategories = map[string]string{
		"1-phones":        "phones",
		"2-televisions":   "televisions",
		"3-refrigerators": "refrigerators",
		"4-washers":       "washers",
		"5-bundles":       "bundles",
	}
)

// SegmentCategoryMaps returns the folder-token to category-name table
// for each configured segment. Segments without a dedicated layout use
// the fnb layout.
func (cc *CatalogConfig) SegmentCategoryMaps() map[string]map[string]string {
	maps := make(map[string]map[string]string, len(cc.Segments))
	for _, segment := range cc.Segments {
		switch segment {
		case "gaso":
			maps[segment] = gasoCategories
		default:
			maps[segment] = fnbCategories
		}
	}
	return maps
}

// DSN constructs the Data Source Name for connecting to PostgreSQL.
func (pc *PostgresConfig) DSN() string {
	return fmt.Sprintf("host=%s port=%s user=%s password=%s dbname=%s sslmode=disable",
		pc.Host, pc.Port, pc.User, pc.Password, pc.DBName)
}

// Load initializes the configuration from environment variables. Called
// once during application startup.
func Load() (*Config, error) {
	var cfg Config
	if err := envconfig.Process("", &cfg); err != nil {
		return nil, fmt.Errorf("failed to process configuration: %w", err)
	}
	return &cfg, nil
}
