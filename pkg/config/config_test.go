package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
)

func TestLoad_Defaults(t *testing.T) {
	for _, k := range []string{"SERVER_PORT", "DB_DRIVER", "DATABASE_URL", "DOCUMENT_PATH", "UPLOAD_DIR", "SESSION_TTL", "GUARD_CATALOG_WRITES", "KAFKA_BROKERS"} {
		t.Setenv(k, "")
	}

	cfg := Load()

	assert.Equal(t, 5000, cfg.ServerPort)
	assert.Equal(t, "sqlite", cfg.DatabaseDriver)
	assert.Equal(t, "shop.db", cfg.DatabaseURL)
	assert.Equal(t, "data.json", cfg.DocumentPath)
	assert.Equal(t, "static/uploads", cfg.UploadDir)
	assert.Equal(t, 24*time.Hour, cfg.SessionTTL)
	assert.False(t, cfg.GuardCatalogWrites)
	assert.Nil(t, cfg.KafkaBrokers)
}

func TestLoad_FromEnv(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("SESSION_SECRET", "s3cret")
	t.Setenv("SESSION_TTL", "30m")
	t.Setenv("GUARD_CATALOG_WRITES", "true")
	t.Setenv("KAFKA_BROKERS", "k1:9092, k2:9092,,")

	cfg := Load()

	assert.Equal(t, 9090, cfg.ServerPort)
	assert.Equal(t, []byte("s3cret"), cfg.SessionSecret)
	assert.Equal(t, 30*time.Minute, cfg.SessionTTL)
	assert.True(t, cfg.GuardCatalogWrites)
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.KafkaBrokers)
}

func TestEnvHelpers_InvalidFallsBack(t *testing.T) {
	t.Setenv("X_INT", "nope")
	t.Setenv("X_BOOL", "maybe")
	t.Setenv("X_DUR", "soon")

	assert.Equal(t, 7, EnvIntDefault("X_INT", 7))
	assert.True(t, EnvBoolDefault("X_BOOL", true))
	assert.Equal(t, time.Second, EnvDurationDefault("X_DUR", time.Second))
}

func TestValidateServe(t *testing.T) {
	cfg := Config{DatabaseURL: "shop.db", DocumentPath: "data.json"}

	err := cfg.ValidateServe()
	assert.ErrorIs(t, err, ErrMissing)
	assert.Contains(t, err.Error(), "SESSION_SECRET")

	cfg.SessionSecret = []byte("k")
	assert.NoError(t, cfg.ValidateServe())
}
