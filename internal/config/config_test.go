package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/heartguard-api/internal/domain"
)

func validConfig() *domain.Config {
	return &domain.Config{
		Server: domain.ServerConfig{Host: "0.0.0.0", Port: 8080},
		Storage: domain.StorageConfig{
			Driver:     "sqlite",
			SQLitePath: "data/heartguard.db",
		},
		Classifier: domain.ClassifierConfig{RiskThreshold: 3},
		Advisory: domain.AdvisoryConfig{
			BaseURL:           "https://generativelanguage.googleapis.com",
			RequestsPerMinute: 10,
			Burst:             3,
		},
		Auth: domain.AuthConfig{
			JWTSecret: "secret",
			TokenTTL:  24 * time.Hour,
		},
		Logging: domain.LoggingConfig{Level: "info", Format: "json"},
	}
}

func TestValidateAcceptsDefaults(t *testing.T) {
	m := &Manager{config: validConfig()}
	assert.NoError(t, m.Validate())
}

func TestValidateRejectsBadPort(t *testing.T) {
	cfg := validConfig()
	cfg.Server.Port = 0
	m := &Manager{config: cfg}
	assert.Error(t, m.Validate())
}

func TestValidateRejectsUnknownDriver(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "oracle"
	m := &Manager{config: cfg}
	assert.Error(t, m.Validate())
}

func TestValidatePostgresRequiresConnection(t *testing.T) {
	cfg := validConfig()
	cfg.Storage.Driver = "postgres"
	m := &Manager{config: cfg}
	assert.Error(t, m.Validate())

	cfg.Database = domain.DatabaseConfig{
		Host:     "localhost",
		Port:     5432,
		Database: "heartguard",
		Username: "postgres",
	}
	assert.NoError(t, m.Validate())
}

func TestValidateRejectsHalfConfiguredArtifacts(t *testing.T) {
	cfg := validConfig()
	cfg.Classifier.ScalerPath = "models/scaler.gob"
	m := &Manager{config: cfg}
	assert.Error(t, m.Validate())

	cfg.Classifier.ModelPath = "models/model.gob"
	assert.NoError(t, m.Validate())
}

func TestValidateRejectsMissingJWTSecret(t *testing.T) {
	cfg := validConfig()
	cfg.Auth.JWTSecret = ""
	m := &Manager{config: cfg}
	assert.Error(t, m.Validate())
}

func TestValidateRejectsBadLogLevel(t *testing.T) {
	cfg := validConfig()
	cfg.Logging.Level = "verbose"
	m := &Manager{config: cfg}
	assert.Error(t, m.Validate())
}

func TestNewManagerUsesDefaults(t *testing.T) {
	m, err := NewManager()
	require.NoError(t, err)

	cfg := m.GetConfig()
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, 3, cfg.Classifier.RiskThreshold)
	assert.Equal(t, "gemini-1.5-flash", cfg.Advisory.Model)
	assert.Equal(t, 24*time.Hour, cfg.Auth.TokenTTL)
}
