package config

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadConfigDefaults(t *testing.T) {
	cfg, err := LoadConfig(t.TempDir())
	require.NoError(t, err)

	assert.Equal(t, "development", cfg.Environment)
	assert.Equal(t, 8080, cfg.Server.Port)
	assert.True(t, cfg.Database.PostgresAutoMigrate)
	assert.Equal(t, "receptionist_jobs", cfg.NATS.JobStream)
	assert.False(t, cfg.NATS.DispatchJobs)

	assert.Equal(t, 0.015, cfg.Pricing.SMSOutbound)
	assert.Equal(t, 0.0075, cfg.Pricing.SMSInbound)
	assert.Equal(t, 0.10, cfg.Pricing.VoicePerMinute)
	assert.Equal(t, 2.00, cfg.Pricing.PhoneNumber)

	assert.Equal(t, 4, cfg.WorkerPools.Ingestion.PoolSize)
	assert.Equal(t, 1000, cfg.WorkerPools.Ingestion.QueueSize)
}
