package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.Storage.Driver)
	assert.Equal(t, "jwt", cfg.Auth.Provider)
	assert.Equal(t, "logs/audit.log", cfg.Audit.Path)
	assert.Equal(t, 10, cfg.Audit.MaxSizeMB)
	assert.Equal(t, 10, cfg.Audit.MaxFiles)
	assert.Equal(t, 15*time.Minute, cfg.RateLimit.Window)
	assert.False(t, cfg.UsesFirebase())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("AUDIT_LOG_MAX_FILES", "3")
	t.Setenv("RATE_LIMIT_MAX", "5")
	t.Setenv("RATE_LIMIT_WINDOW", "1m")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "9090", cfg.ServerPort)
	assert.Equal(t, 3, cfg.Audit.MaxFiles)
	assert.Equal(t, 5, cfg.RateLimit.Max)
	assert.Equal(t, time.Minute, cfg.RateLimit.Window)
}

func TestValidate(t *testing.T) {
	t.Run("unknown storage driver", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "cassandra")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("firestore needs a project", func(t *testing.T) {
		t.Setenv("STORAGE_DRIVER", "firestore")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("default secret refused in production", func(t *testing.T) {
		t.Setenv("ENVIRONMENT", "production")
		_, err := Load()
		assert.Error(t, err)
	})

	t.Run("gcs needs a bucket", func(t *testing.T) {
		t.Setenv("FILE_STORAGE", "gcs")
		t.Setenv("FIREBASE_PROJECT_ID", "demo")
		_, err := Load()
		assert.Error(t, err)
	})
}
