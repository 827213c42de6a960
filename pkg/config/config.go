package config

import (
	"fmt"
	"math"

	"github.com/ilyakaznacheev/cleanenv"
)

// Config holds all configuration for property-eye-backend.
// Configuration can come from YAML file (config.yaml) or environment variables.
// Environment variables always override YAML values for fields that support both.
// Secrets (passwords, API keys) must only come from environment variables.
type Config struct {
	// Server configuration
	BindAddr string `yaml:"bind_addr" env:"BIND_ADDR" env-default:"127.0.0.1"`
	Port     string `yaml:"port" env:"PORT" env-default:"8080"`
	Env      string `yaml:"env" env:"ENVIRONMENT" env-default:"local"`
	Version  string `yaml:"-"` // Set at load time, not from config

	// MigrationsPath is the directory containing SQL migration files.
	MigrationsPath string `yaml:"migrations_path" env:"MIGRATIONS_PATH" env-default:"migrations"`

	// Database configuration (PostgreSQL)
	Database DatabaseConfig `yaml:"database"`

	// Land Registry ownership-verification API configuration
	LandRegistry LandRegistryConfig `yaml:"land_registry"`

	// Scoring thresholds and weights for the matching pipeline
	Scoring ScoringConfig `yaml:"scoring"`
}

// DatabaseConfig holds PostgreSQL database configuration.
type DatabaseConfig struct {
	Host           string `yaml:"host" env:"PGHOST" env-default:"localhost"`
	Port           int    `yaml:"port" env:"PGPORT" env-default:"5432"`
	User           string `yaml:"user" env:"PGUSER" env-default:"propertyeye"`
	Password       string `yaml:"-" env:"PGPASSWORD"` // Secret - not in YAML
	Database       string `yaml:"database" env:"PGDATABASE" env-default:"property_eye"`
	SSLMode        string `yaml:"ssl_mode" env:"PGSSLMODE" env-default:"disable"`
	MaxConnections int32  `yaml:"max_connections" env:"PGMAX_CONNECTIONS" env-default:"25"`

	// Pool connection lifetimes. Connections older than the lifetime are
	// recycled; idle connections are reaped after the idle window.
	ConnLifetimeMinutes int `yaml:"conn_lifetime_minutes" env:"PGCONN_LIFETIME_MINUTES" env-default:"60"`
	ConnIdleMinutes     int `yaml:"conn_idle_minutes" env:"PGCONN_IDLE_MINUTES" env-default:"30"`
}

// URL returns the connection string for pgx.
func (c *DatabaseConfig) URL() string {
	return fmt.Sprintf("postgres://%s:%s@%s:%d/%s?sslmode=%s",
		c.User, c.Password, c.Host, c.Port, c.Database, c.SSLMode)
}

// LandRegistryConfig holds configuration for the external
// ownership-verification API client.
type LandRegistryConfig struct {
	BaseURL string `yaml:"base_url" env:"LAND_REGISTRY_BASE_URL" env-default:"https://api.landregistry.gov.uk"`
	APIKey  string `yaml:"-" env:"LAND_REGISTRY_API_KEY"` // Secret - not in YAML

	// TimeoutSeconds is the per-request timeout for ownership lookups.
	TimeoutSeconds int `yaml:"timeout_seconds" env:"LAND_REGISTRY_TIMEOUT_SECONDS" env-default:"30"`

	// MaxConcurrentLookups bounds Stage-2 verification fan-out.
	MaxConcurrentLookups int `yaml:"max_concurrent_lookups" env:"LAND_REGISTRY_MAX_CONCURRENT" env-default:"4"`

	// RequestsPerSecond is the client-side rate limit for API calls.
	RequestsPerSecond float64 `yaml:"requests_per_second" env:"LAND_REGISTRY_RPS" env-default:"5"`
}

// ScoringConfig holds thresholds and weights for the two-stage matching
// pipeline. All thresholds and scores are on a 0-100 scale; the three
// component weights must sum to 1.0.
type ScoringConfig struct {
	// ScanWindowMonths is how far forward of a withdrawal date PPD records
	// are considered candidates.
	ScanWindowMonths int `yaml:"scan_window_months" env:"SCAN_WINDOW_MONTHS" env-default:"12"`

	// MinConfidenceThreshold is the combined score below which no match is
	// recorded.
	MinConfidenceThreshold float64 `yaml:"min_confidence_threshold" env:"MIN_CONFIDENCE_THRESHOLD" env-default:"70"`

	// HighConfidenceThreshold marks matches worth sending to paid
	// verification.
	HighConfidenceThreshold float64 `yaml:"high_confidence_threshold" env:"HIGH_CONFIDENCE_THRESHOLD" env-default:"85"`

	// MinAddressSimilarity is a hard gate: pairs below it are rejected
	// outright regardless of the other components.
	MinAddressSimilarity float64 `yaml:"min_address_similarity" env:"MIN_ADDRESS_SIMILARITY" env-default:"80"`

	// Component weights for the combined confidence score.
	AddressWeight  float64 `yaml:"address_weight" env:"ADDRESS_WEIGHT" env-default:"0.70"`
	DateWeight     float64 `yaml:"date_weight" env:"DATE_WEIGHT" env-default:"0.20"`
	PostcodeWeight float64 `yaml:"postcode_weight" env:"POSTCODE_WEIGHT" env-default:"0.10"`

	// OutwardCodeCredit is the partial postcode score awarded when only the
	// outward code matches (e.g. "SW1A" agrees but the inward code differs).
	OutwardCodeCredit float64 `yaml:"outward_code_credit" env:"OUTWARD_CODE_CREDIT" env-default:"50"`

	// OwnerNameSimilarityThreshold is the Stage-2 name-match threshold.
	OwnerNameSimilarityThreshold float64 `yaml:"owner_name_similarity_threshold" env:"OWNER_NAME_SIMILARITY_THRESHOLD" env-default:"85"`
}

// weightTolerance allows for float rounding when checking the weight sum.
const weightTolerance = 1e-9

// Validate checks scoring invariants. Violations are configuration errors
// and must abort startup; values are never silently clamped.
func (c *ScoringConfig) Validate() error {
	if c.ScanWindowMonths < 1 {
		return fmt.Errorf("scan_window_months must be >= 1, got %d", c.ScanWindowMonths)
	}

	sum := c.AddressWeight + c.DateWeight + c.PostcodeWeight
	if math.Abs(sum-1.0) > weightTolerance {
		return fmt.Errorf("scoring weights must sum to 1.0, got %.6f (address=%.2f date=%.2f postcode=%.2f)",
			sum, c.AddressWeight, c.DateWeight, c.PostcodeWeight)
	}
	for name, w := range map[string]float64{
		"address_weight":  c.AddressWeight,
		"date_weight":     c.DateWeight,
		"postcode_weight": c.PostcodeWeight,
	} {
		if w < 0 {
			return fmt.Errorf("%s must not be negative, got %f", name, w)
		}
	}

	for name, v := range map[string]float64{
		"min_confidence_threshold":        c.MinConfidenceThreshold,
		"high_confidence_threshold":       c.HighConfidenceThreshold,
		"min_address_similarity":          c.MinAddressSimilarity,
		"outward_code_credit":             c.OutwardCodeCredit,
		"owner_name_similarity_threshold": c.OwnerNameSimilarityThreshold,
	} {
		if v < 0 || v > 100 {
			return fmt.Errorf("%s must be within [0,100], got %f", name, v)
		}
	}

	return nil
}

// Load reads configuration from config.yaml with environment variable
// overrides. The version parameter is injected at build time and set on the
// returned Config. Secrets (PGPASSWORD, LAND_REGISTRY_API_KEY) must come
// from environment variables (yaml:"-" fields).
func Load(version string) (*Config, error) {
	cfg := &Config{
		Version: version,
	}

	if err := cleanenv.ReadConfig("config.yaml", cfg); err != nil {
		return nil, fmt.Errorf("failed to read config.yaml: %w", err)
	}

	if err := cfg.Scoring.Validate(); err != nil {
		return nil, fmt.Errorf("invalid scoring configuration: %w", err)
	}

	return cfg, nil
}
