package domain

import (
	"time"
)

// Config represents the main application configuration
type Config struct {
	Server     ServerConfig     `mapstructure:"server"`
	Storage    StorageConfig    `mapstructure:"storage"`
	Database   DatabaseConfig   `mapstructure:"database"`
	Classifier ClassifierConfig `mapstructure:"classifier"`
	Advisory   AdvisoryConfig   `mapstructure:"advisory"`
	Cache      CacheConfig      `mapstructure:"cache"`
	Auth       AuthConfig       `mapstructure:"auth"`
	Logging    LoggingConfig    `mapstructure:"logging"`
}

// ServerConfig represents HTTP server configuration
type ServerConfig struct {
	Host         string        `mapstructure:"host"`
	Port         int           `mapstructure:"port"`
	ReadTimeout  time.Duration `mapstructure:"read_timeout"`
	WriteTimeout time.Duration `mapstructure:"write_timeout"`
	IdleTimeout  time.Duration `mapstructure:"idle_timeout"`
}

// StorageConfig selects and configures the record/user store backend.
// Driver is "sqlite" (default) or "postgres".
type StorageConfig struct {
	Driver     string `mapstructure:"driver"`
	SQLitePath string `mapstructure:"sqlite_path"`
}

// DatabaseConfig represents the Postgres connection configuration,
// used when storage.driver is "postgres".
type DatabaseConfig struct {
	Host            string        `mapstructure:"host"`
	Port            int           `mapstructure:"port"`
	Database        string        `mapstructure:"database"`
	Username        string        `mapstructure:"username"`
	Password        string        `mapstructure:"password"`
	SSLMode         string        `mapstructure:"ssl_mode"`
	MaxConns        int32         `mapstructure:"max_conns"`
	MinConns        int32         `mapstructure:"min_conns"`
	ConnMaxLifetime time.Duration `mapstructure:"conn_max_lifetime"`
	ConnMaxIdleTime time.Duration `mapstructure:"conn_max_idle_time"`
	MigrationsPath  string        `mapstructure:"migrations_path"`
}

// RuleCondition is one threshold check inside a fallback rule.
type RuleCondition struct {
	Field string  `mapstructure:"field" json:"field"`
	Above float64 `mapstructure:"above" json:"above"`
}

// RuleConfig is one point-scoring rule of the fallback classifier.
// The rule applies when any of its conditions exceeds its threshold.
type RuleConfig struct {
	Name   string          `mapstructure:"name" json:"name"`
	Points int             `mapstructure:"points" json:"points"`
	Any    []RuleCondition `mapstructure:"any" json:"any"`
}

// ClassifierConfig represents classifier configuration. ScalerPath and
// ModelPath point at the pre-fitted artifacts; when either fails to
// load the rule-based fallback with the configured rule set is used.
type ClassifierConfig struct {
	ScalerPath    string       `mapstructure:"scaler_path"`
	ModelPath     string       `mapstructure:"model_path"`
	RiskThreshold int          `mapstructure:"risk_threshold"`
	Rules         []RuleConfig `mapstructure:"rules"`
}

// AdvisoryConfig represents the generative-language backend
// configuration. An empty APIKey means no backend is configured and
// the gateway always answers with the fixed offline response.
type AdvisoryConfig struct {
	BaseURL           string        `mapstructure:"base_url"`
	APIKey            string        `mapstructure:"api_key"`
	Model             string        `mapstructure:"model"`
	Timeout           time.Duration `mapstructure:"timeout"`
	CacheTTL          time.Duration `mapstructure:"cache_ttl"`
	RequestsPerMinute int           `mapstructure:"requests_per_minute"`
	Burst             int           `mapstructure:"burst"`
}

// CacheConfig represents the advisory reply cache configuration. An
// empty RedisURL selects the in-process LRU cache.
type CacheConfig struct {
	RedisURL    string        `mapstructure:"redis_url"`
	PoolSize    int           `mapstructure:"pool_size"`
	PoolTimeout time.Duration `mapstructure:"pool_timeout"`
	MaxRetries  int           `mapstructure:"max_retries"`
	LRUSize     int           `mapstructure:"lru_size"`
}

// AuthConfig represents token issuing configuration
type AuthConfig struct {
	JWTSecret string        `mapstructure:"jwt_secret"`
	TokenTTL  time.Duration `mapstructure:"token_ttl"`
	Issuer    string        `mapstructure:"issuer"`
}

// LoggingConfig represents logging configuration
type LoggingConfig struct {
	Level  string `mapstructure:"level"`
	Format string `mapstructure:"format"`
}
