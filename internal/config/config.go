package config

import (
	"fmt"
	"strings"

	"github.com/spf13/viper"
)

type Config struct {
	Port              string   `mapstructure:"PORT"`
	Env               string   `mapstructure:"ENV"`
	MemoryMode        bool     `mapstructure:"MEMORY_MODE"`
	DatabaseURL       string   `mapstructure:"DATABASE_URL"`
	DBMaxConns        int32    `mapstructure:"DB_MAX_CONNS"`
	DBMinConns        int32    `mapstructure:"DB_MIN_CONNS"`
	SessionSigningKey string   `mapstructure:"SESSION_SIGNING_KEY"`
	CORSOrigins       []string `mapstructure:"CORS_ORIGINS"`
	AuditToDatabase   bool     `mapstructure:"AUDIT_TO_DATABASE"`
}

func Load() (*Config, error) {
	v := viper.New()
	v.SetConfigFile(".env")
	v.AutomaticEnv()

	// Defaults
	v.SetDefault("PORT", "8000")
	v.SetDefault("ENV", "development")
	v.SetDefault("MEMORY_MODE", true)
	v.SetDefault("DB_MAX_CONNS", 20)
	v.SetDefault("DB_MIN_CONNS", 5)
	v.SetDefault("CORS_ORIGINS", "http://localhost:3000")
	v.SetDefault("AUDIT_TO_DATABASE", false)

	// Bind env vars explicitly so Unmarshal picks them up
	v.BindEnv("PORT")
	v.BindEnv("ENV")
	v.BindEnv("MEMORY_MODE")
	v.BindEnv("DATABASE_URL")
	v.BindEnv("DB_MAX_CONNS")
	v.BindEnv("DB_MIN_CONNS")
	v.BindEnv("SESSION_SIGNING_KEY")
	v.BindEnv("CORS_ORIGINS")
	v.BindEnv("AUDIT_TO_DATABASE")

	// Try reading .env file, but don't fail if missing
	_ = v.ReadInConfig()

	cfg := &Config{}
	if err := v.Unmarshal(cfg); err != nil {
		return nil, fmt.Errorf("unmarshal config: %w", err)
	}

	if cfg.CORSOrigins == nil {
		origins := v.GetString("CORS_ORIGINS")
		if origins != "" {
			cfg.CORSOrigins = strings.Split(origins, ",")
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

// Validate checks that the configuration is safe to run. Outside development
// the session signing key is mandatory, and in production the in-memory
// repositories are refused: orders and the audit trail must survive the
// process.
func (c *Config) Validate() error {
	if !c.IsDev() && c.SessionSigningKey == "" {
		return fmt.Errorf("SESSION_SIGNING_KEY is required when ENV=%q; refusing to start "+
			"with unverifiable session tokens", c.Env)
	}
	if len(c.SessionSigningKey) > 0 && len(c.SessionSigningKey) < 32 {
		return fmt.Errorf("SESSION_SIGNING_KEY must be at least 32 bytes, got %d", len(c.SessionSigningKey))
	}
	if c.IsProduction() && c.MemoryMode {
		return fmt.Errorf("MEMORY_MODE is not allowed in production")
	}
	if !c.MemoryMode && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when MEMORY_MODE is false")
	}
	if c.AuditToDatabase && c.DatabaseURL == "" {
		return fmt.Errorf("DATABASE_URL is required when AUDIT_TO_DATABASE is true")
	}
	return nil
}

// SigningKey returns the session signing key bytes, falling back to a fixed
// development key in dev mode so the portal runs with zero configuration.
func (c *Config) SigningKey() []byte {
	if c.SessionSigningKey == "" && c.IsDev() {
		return []byte("dev-only-session-signing-key-not-for-production")
	}
	return []byte(c.SessionSigningKey)
}
