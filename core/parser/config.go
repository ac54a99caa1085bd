package parser

import (
	"bytes"
	"errors"
	"fmt"
	"io"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

const (
	BackendStatic   = "static"
	BackendPostgres = "postgres"
	BackendMySQL    = "mysql"
	BackendMongoDB  = "mongodb"

	DefaultPort       = "9000"
	DefaultLogLevel   = 3
	DefaultTable      = "field_types"
	DefaultCollection = "index_field_types"
	DefaultCacheTTL   = 30 * time.Second
	DefaultRateLimit  = 120
	DefaultRateWindow = time.Minute
)

// Config is the querycheck.yaml document
type Config struct {
	Server     ServerConfig     `yaml:"server"`
	Catalog    CatalogConfig    `yaml:"catalog"`
	RateLimit  RateLimitConfig  `yaml:"rate_limit"`
	CORS       CORSConfig       `yaml:"cors"`
	Validation ValidationConfig `yaml:"validation"`
}

type ServerConfig struct {
	Port     string `yaml:"port" validate:"omitempty,numeric"`
	LogLevel int    `yaml:"log_level" validate:"min=1,max=4"`
}

// CatalogConfig selects where field types come from
type CatalogConfig struct {
	Backend          string        `yaml:"backend" validate:"required,oneof=static postgres mysql mongodb"`
	StaticFile       string        `yaml:"static_file" validate:"required_if=Backend static"`
	ConnectionString string        `yaml:"connection_string" validate:"required_unless=Backend static"`
	Table            string        `yaml:"table" validate:"omitempty,max=63"`
	Database         string        `yaml:"database" validate:"required_if=Backend mongodb"`
	Collection       string        `yaml:"collection"`
	CacheTTL         time.Duration `yaml:"cache_ttl"`
	FallbackStatic   bool          `yaml:"fallback_static"`
}

type RateLimitConfig struct {
	RedisURL string        `yaml:"redis_url" validate:"omitempty,url"`
	Limit    int           `yaml:"limit" validate:"min=0"`
	Window   time.Duration `yaml:"window"`
}

// Enabled reports whether requests should be rate limited
func (c RateLimitConfig) Enabled() bool {
	return c.RedisURL != ""
}

type CORSConfig struct {
	AllowedOrigins []string `yaml:"allowed_origins" validate:"dive,required"`
}

type ValidationConfig struct {
	AllowLeadingWildcard *bool `yaml:"allow_leading_wildcard"`
}

// LeadingWildcardsAllowed defaults to true when the setting is absent
func (c ValidationConfig) LeadingWildcardsAllowed() bool {
	return c.AllowLeadingWildcard == nil || *c.AllowLeadingWildcard
}

// DefaultConfig is used when no configuration file is given
func DefaultConfig() *Config {
	cfg := &Config{Catalog: CatalogConfig{Backend: BackendStatic}}
	applyDefaults(cfg)
	return cfg
}

// LoadConfig reads, substitutes and validates a configuration file
func LoadConfig(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("failed to read config file: %w", err)
	}
	return ParseConfig(data)
}

// ParseConfig parses YAML content into a validated Config
func ParseConfig(data []byte) (*Config, error) {
	cfg := &Config{}
	decoder := yaml.NewDecoder(bytes.NewReader(data))
	decoder.KnownFields(true)
	if err := decoder.Decode(cfg); err != nil && !errors.Is(err, io.EOF) {
		return nil, fmt.Errorf("failed to unmarshal YAML: %w", err)
	}

	if err := SubstituteEnvVarsInConfig(cfg); err != nil {
		return nil, err
	}
	applyDefaults(cfg)

	if port := os.Getenv("PORT"); port != "" {
		cfg.Server.Port = port
	}

	if err := Validate(cfg); err != nil {
		return nil, err
	}
	return cfg, nil
}

func applyDefaults(cfg *Config) {
	if cfg.Server.Port == "" {
		cfg.Server.Port = DefaultPort
	}
	if cfg.Server.LogLevel == 0 {
		cfg.Server.LogLevel = DefaultLogLevel
	}
	if cfg.Catalog.Table == "" {
		cfg.Catalog.Table = DefaultTable
	}
	if cfg.Catalog.Collection == "" {
		cfg.Catalog.Collection = DefaultCollection
	}
	if cfg.Catalog.CacheTTL == 0 {
		cfg.Catalog.CacheTTL = DefaultCacheTTL
	}
	if cfg.RateLimit.Limit == 0 {
		cfg.RateLimit.Limit = DefaultRateLimit
	}
	if cfg.RateLimit.Window == 0 {
		cfg.RateLimit.Window = DefaultRateWindow
	}
	if len(cfg.CORS.AllowedOrigins) == 0 {
		cfg.CORS.AllowedOrigins = []string{"*"}
	}
}
