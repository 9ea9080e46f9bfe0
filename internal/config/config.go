package config

import (
	"fmt"
	"strings"
	"time"

	"github.com/spf13/viper"
)

type Config struct {
	Port     string `mapstructure:"PORT"`
	Env      string `mapstructure:"ENV"`
	LogLevel string `mapstructure:"LOG_LEVEL"`

	CatalogPath string `mapstructure:"CATALOG_PATH"`
	DatabaseURL string `mapstructure:"DATABASE_URL"`
	DBMaxConns  int32  `mapstructure:"DB_MAX_CONNS"`
	DBMinConns  int32  `mapstructure:"DB_MIN_CONNS"`
	RedisURL    string `mapstructure:"REDIS_URL"`

	ICD11SearchURL     string        `mapstructure:"ICD11_SEARCH_URL"`
	ICD11DisplayFields string        `mapstructure:"ICD11_DISPLAY_FIELDS"`
	ICD11Timeout       time.Duration `mapstructure:"ICD11_TIMEOUT"`
	ICD11ClientID      string        `mapstructure:"ICD11_CLIENT_ID"`
	ICD11ClientSecret  string        `mapstructure:"ICD11_CLIENT_SECRET"`
	ICD11TokenURL      string        `mapstructure:"ICD11_TOKEN_URL"`
	ICD11Scope         string        `mapstructure:"ICD11_SCOPE"`
	CacheTTL           time.Duration `mapstructure:"CACHE_TTL"`

	MappingMaxResults          int           `mapstructure:"MAPPING_MAX_RESULTS"`
	MappingConfidenceThreshold float64       `mapstructure:"MAPPING_CONFIDENCE_THRESHOLD"`
	BatchPacing                time.Duration `mapstructure:"BATCH_PACING"`
	BatchMaxItems              int           `mapstructure:"BATCH_MAX_ITEMS"`

	CORSOrigins    []string `mapstructure:"CORS_ORIGINS"`
	RateLimitRPS   float64  `mapstructure:"RATE_LIMIT_RPS"`
	RateLimitBurst int      `mapstructure:"RATE_LIMIT_BURST"`
}

var keys = []string{
	"PORT", "ENV", "LOG_LEVEL",
	"CATALOG_PATH", "DATABASE_URL", "DB_MAX_CONNS", "DB_MIN_CONNS", "REDIS_URL",
	"ICD11_SEARCH_URL", "ICD11_DISPLAY_FIELDS", "ICD11_TIMEOUT",
	"ICD11_CLIENT_ID", "ICD11_CLIENT_SECRET", "ICD11_TOKEN_URL", "ICD11_SCOPE",
	"CACHE_TTL",
	"MAPPING_MAX_RESULTS", "MAPPING_CONFIDENCE_THRESHOLD", "BATCH_PACING", "BATCH_MAX_ITEMS",
	"CORS_ORIGINS", "RATE_LIMIT_RPS", "RATE_LIMIT_BURST",
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("LOG_LEVEL", "info")
	v.SetDefault("DB_MAX_CONNS", 10)
	v.SetDefault("DB_MIN_CONNS", 2)
	v.SetDefault("ICD11_SEARCH_URL", "https://clinicaltables.nlm.nih.gov/api/icd11_codes/v3/search")
	v.SetDefault("ICD11_DISPLAY_FIELDS", "code,title,type")
	v.SetDefault("ICD11_TIMEOUT", "10s")
	v.SetDefault("CACHE_TTL", "3600s")
	v.SetDefault("MAPPING_MAX_RESULTS", 5)
	v.SetDefault("MAPPING_CONFIDENCE_THRESHOLD", 0.3)
	v.SetDefault("BATCH_PACING", "100ms")
	v.SetDefault("BATCH_MAX_ITEMS", 100)
	v.SetDefault("CORS_ORIGINS", "*")
	v.SetDefault("RATE_LIMIT_RPS", 50)
	v.SetDefault("RATE_LIMIT_BURST", 100)

	// Bind env vars explicitly so Unmarshal picks them up
	for _, k := range keys {
		_ = v.BindEnv(k)
	}

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	cfg.CORSOrigins = nil
	for _, o := range strings.Split(v.GetString("CORS_ORIGINS"), ",") {
		if o = strings.TrimSpace(o); o != "" {
			cfg.CORSOrigins = append(cfg.CORSOrigins, o)
		}
	}

	return cfg, nil
}

func (c *Config) IsDev() bool {
	return c.Env == "development"
}

// IsProduction returns true when the server is configured for production mode.
func (c *Config) IsProduction() bool {
	return c.Env == "production"
}

// ICD11Scopes splits ICD11_SCOPE on spaces and commas.
func (c *Config) ICD11Scopes() []string {
	return strings.FieldsFunc(c.ICD11Scope, func(r rune) bool { return r == ' ' || r == ',' })
}

// Validate checks that the configuration is safe to run. OAuth2 credentials
// for the lookup service are all-or-nothing.
func (c *Config) Validate() error {
	switch c.Env {
	case "development", "test", "staging", "production":
	default:
		return fmt.Errorf("ENV must be one of development, test, staging, production, got %q", c.Env)
	}

	if c.MappingConfidenceThreshold < 0 || c.MappingConfidenceThreshold > 1 {
		return fmt.Errorf("MAPPING_CONFIDENCE_THRESHOLD must be between 0 and 1, got %v", c.MappingConfidenceThreshold)
	}
	if c.MappingMaxResults <= 0 {
		return fmt.Errorf("MAPPING_MAX_RESULTS must be positive, got %d", c.MappingMaxResults)
	}
	if c.CacheTTL <= 0 {
		return fmt.Errorf("CACHE_TTL must be positive, got %s", c.CacheTTL)
	}
	if c.ICD11Timeout <= 0 {
		return fmt.Errorf("ICD11_TIMEOUT must be positive, got %s", c.ICD11Timeout)
	}
	if c.BatchPacing < 0 {
		return fmt.Errorf("BATCH_PACING must not be negative, got %s", c.BatchPacing)
	}
	if c.BatchMaxItems <= 0 {
		return fmt.Errorf("BATCH_MAX_ITEMS must be positive, got %d", c.BatchMaxItems)
	}
	if c.ICD11SearchURL == "" {
		return fmt.Errorf("ICD11_SEARCH_URL is required")
	}

	set := 0
	for _, v := range []string{c.ICD11ClientID, c.ICD11ClientSecret, c.ICD11TokenURL} {
		if v != "" {
			set++
		}
	}
	if set != 0 && set != 3 {
		return fmt.Errorf("ICD11_CLIENT_ID, ICD11_CLIENT_SECRET and ICD11_TOKEN_URL must be set together")
	}

	if c.DBMinConns > c.DBMaxConns {
		return fmt.Errorf("DB_MIN_CONNS (%d) exceeds DB_MAX_CONNS (%d)", c.DBMinConns, c.DBMaxConns)
	}
	return nil
}
