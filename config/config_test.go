package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/warp/hrchain/reconcile"
)

func TestLoad_Defaults(t *testing.T) {
	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 8080, cfg.Port)
	assert.Equal(t, "hrchain.db", cfg.DatabasePath)
	assert.Equal(t, "http://localhost:8545", cfg.Ledger.BridgeURL)
	assert.Equal(t, reconcile.ModeRequired, cfg.Ledger.Mode)
	assert.Equal(t, 5*time.Second, cfg.Ledger.CallTimeout)
	assert.Nil(t, cfg.Kafka.Brokers)
	assert.False(t, cfg.Transitions.Enforce)
}

func TestLoad_Overrides(t *testing.T) {
	t.Setenv("PORT", "9090")
	t.Setenv("LEDGER_MODE", "best-effort")
	t.Setenv("LEDGER_CALL_TIMEOUT", "250ms")
	t.Setenv("KAFKA_BROKERS", "broker-1:9092, broker-2:9092")
	t.Setenv("TRANSITIONS_ENFORCE", "true")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 9090, cfg.Port)
	assert.Equal(t, reconcile.ModeBestEffort, cfg.Ledger.Mode)
	assert.Equal(t, 250*time.Millisecond, cfg.Ledger.CallTimeout)
	assert.Equal(t, []string{"broker-1:9092", "broker-2:9092"}, cfg.Kafka.Brokers)
	assert.True(t, cfg.Transitions.Enforce)
}

func TestLoad_InvalidMode(t *testing.T) {
	t.Setenv("LEDGER_MODE", "test")

	_, err := Load()
	assert.Error(t, err, "the old test-mode bypass must not parse")
}

func TestLoad_InvalidTimeout(t *testing.T) {
	t.Setenv("LEDGER_CALL_TIMEOUT", "soon")

	_, err := Load()
	assert.Error(t, err)
}
