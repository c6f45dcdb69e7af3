package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "0.0.0.0", cfg.Server.Host)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, "provider_discovery", cfg.Database.Database)
	assert.Equal(t, "text-embedding-3-small", cfg.OpenAI.EmbeddingModel)

	assert.True(t, cfg.Engine.SemanticEnabled)
	assert.False(t, cfg.Engine.TextFilterEnabled)
	assert.Equal(t, 400, cfg.Engine.CandidateCap)
	assert.Equal(t, 200, cfg.Engine.TopK)
	assert.Equal(t, 16, cfg.Engine.MaxServiceScan)
	assert.Equal(t, 6, cfg.Engine.HardResultCap)
	assert.Equal(t, 8*time.Second, cfg.Engine.RetrievalTimeout)
}

func TestLoad_EnvironmentOverrides(t *testing.T) {
	t.Setenv("SERVER_PORT", "9090")
	t.Setenv("ENGINE_SEMANTIC_ENABLED", "false")
	t.Setenv("ENGINE_HARD_RESULT_CAP", "10")
	t.Setenv("ENGINE_RETRIEVAL_TIMEOUT", "3s")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Server.Port)
	assert.False(t, cfg.Engine.SemanticEnabled)
	assert.Equal(t, 10, cfg.Engine.HardResultCap)
	assert.Equal(t, 3*time.Second, cfg.Engine.RetrievalTimeout)
}

func TestLoad_InvalidValuesFallBack(t *testing.T) {
	t.Setenv("SERVER_PORT", "not-a-number")
	t.Setenv("ENGINE_RETRIEVAL_TIMEOUT", "soon")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Server.Port)
	assert.Equal(t, 8*time.Second, cfg.Engine.RetrievalTimeout)
}

func TestDatabaseDSN(t *testing.T) {
	cfg := DatabaseConfig{
		Host: "db", Port: 5433, User: "app", Password: "secret",
		Database: "providers", SSLMode: "require",
	}

	assert.Equal(t,
		"host=db port=5433 user=app password=secret dbname=providers sslmode=require",
		cfg.DatabaseDSN(),
	)
}

func TestRedisAddr(t *testing.T) {
	cfg := RedisConfig{Host: "cache", Port: 6380}
	assert.Equal(t, "cache:6380", cfg.RedisAddr())
}
