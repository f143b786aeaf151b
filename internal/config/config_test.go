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

	assert.Equal(t, "localhost", cfg.Database.Host)
	assert.Equal(t, 5432, cfg.Database.Port)
	assert.Equal(t, "owlrd", cfg.Database.Database)
	assert.Equal(t, "localhost:6379", cfg.Redis.Addr)
	assert.Equal(t, "tcp://localhost:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(1), cfg.MQTT.QoS)
	assert.Equal(t, "wearable/+/+", cfg.Wearable.Topics.Data)
	assert.Equal(t, 250, cfg.Wearable.Sampling.BioRateHz)
	assert.Equal(t, 50, cfg.Wearable.Sampling.PulseRateHz)
	assert.Equal(t, 50, cfg.Wearable.Sampling.InertialRateHz)
	assert.Equal(t, 5, cfg.Wearable.Buffers.BioSeconds)
	assert.Equal(t, 10, cfg.Wearable.Buffers.PulseSeconds)
	assert.InDelta(t, 80, cfg.Wearable.Quality.BioGate, 1e-9)
	assert.InDelta(t, 25, cfg.Wearable.Quality.BioMaskThreshold, 1e-9)
	assert.Equal(t, time.Second, cfg.Wearable.Spectral.RecomputeInterval)
	assert.InDelta(t, 50, cfg.Wearable.MainsFrequencyHz, 1e-9)
	assert.True(t, cfg.Wearable.InertialEnabled)
	assert.Equal(t, "info", cfg.Log.Level)
}

func TestLoad_SharedEnvOverrides(t *testing.T) {
	t.Setenv("DB_HOST", "db.internal")
	t.Setenv("DB_PORT", "5433")
	t.Setenv("DB_DATABASE", "wearables")
	t.Setenv("REDIS_ADDR", "redis.internal:6379")
	t.Setenv("REDIS_DB", "3")
	t.Setenv("MQTT_BROKER", "tcp://broker.internal:1883")
	t.Setenv("MQTT_QOS", "2")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "db.internal", cfg.Database.Host)
	assert.Equal(t, 5433, cfg.Database.Port)
	assert.Equal(t, "wearables", cfg.Database.Database)
	assert.Equal(t, "redis.internal:6379", cfg.Redis.Addr)
	assert.Equal(t, 3, cfg.Redis.DB)
	assert.Equal(t, "tcp://broker.internal:1883", cfg.MQTT.Broker)
	assert.Equal(t, byte(2), cfg.MQTT.QoS)
}

func TestLoad_EnvOverrides(t *testing.T) {
	t.Setenv("WEARABLE_TOPIC_DATA", "band/+/+")
	t.Setenv("WEARABLE_BIO_RATE", "500")
	t.Setenv("WEARABLE_BIO_GATE", "70.5")
	t.Setenv("WEARABLE_MAINS_HZ", "60")
	t.Setenv("WEARABLE_INERTIAL_ENABLED", "false")
	t.Setenv("WEARABLE_SPECTRAL_INTERVAL_MS", "2500")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "band/+/+", cfg.Wearable.Topics.Data)
	assert.Equal(t, 500, cfg.Wearable.Sampling.BioRateHz)
	assert.InDelta(t, 70.5, cfg.Wearable.Quality.BioGate, 1e-9)
	assert.InDelta(t, 60, cfg.Wearable.MainsFrequencyHz, 1e-9)
	assert.False(t, cfg.Wearable.InertialEnabled)
	assert.Equal(t, 2500*time.Millisecond, cfg.Wearable.Spectral.RecomputeInterval)
}

func TestLoad_InvalidNumericFallsBackToDefault(t *testing.T) {
	t.Setenv("WEARABLE_BIO_RATE", "not-a-number")
	t.Setenv("WEARABLE_BIO_GATE", "8O")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, 250, cfg.Wearable.Sampling.BioRateHz)
	assert.InDelta(t, 80, cfg.Wearable.Quality.BioGate, 1e-9)
}
