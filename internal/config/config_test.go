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

	assert.Equal(t, "search-service", cfg.ServiceName)
	assert.Equal(t, 8084, cfg.HTTPPort)
	assert.Equal(t, "elasticsearch", cfg.Engine)
	assert.Equal(t, "marketplace_products", cfg.IndexName)
	assert.Equal(t, 15*time.Second, cfg.HealthGateTTL)
	assert.Equal(t, []string{"localhost:9092"}, cfg.KafkaBrokers)
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "memory")
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("KAFKA_BROKERS", "kafka-1:9092,kafka-2:9092")
	t.Setenv("SEARCH_HEALTH_GATE_TTL", "30s")

	cfg, err := Load()
	require.NoError(t, err)
	assert.Equal(t, "memory", cfg.Engine)
	assert.Equal(t, 9090, cfg.HTTPPort)
	assert.Equal(t, []string{"kafka-1:9092", "kafka-2:9092"}, cfg.KafkaBrokers)
	assert.Equal(t, 30*time.Second, cfg.HealthGateTTL)
}

func TestLoadRejectsInvalidValues(t *testing.T) {
	t.Setenv("SEARCH_ENGINE", "solr")

	_, err := Load()
	assert.Error(t, err)
}

func TestPostgresConfigAssembly(t *testing.T) {
	t.Setenv("POSTGRES_HOST", "db.internal")
	t.Setenv("POSTGRES_DB", "catalog")

	cfg, err := Load()
	require.NoError(t, err)

	pg := cfg.Postgres()
	assert.Equal(t, "db.internal", pg.Host)
	assert.Equal(t, "catalog", pg.DBName)
	assert.Contains(t, pg.DSN(), "db.internal")
}
