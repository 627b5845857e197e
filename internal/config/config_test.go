package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func setRequired(t *testing.T) {
	t.Setenv("API_URL", "https://api.example.com/")
	t.Setenv("JWT_SECRET", "0123456789abcdef")
}

func TestLoad_Defaults(t *testing.T) {
	setRequired(t)

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "3338", cfg.HTTP.Port)
	assert.Equal(t, "build", cfg.HTTP.StaticDir)
	assert.Equal(t, 9090, cfg.HTTP.GRPCHealthPort)
	assert.Equal(t, "https://api.example.com", cfg.Upstream.APIURL)
	assert.Equal(t, 15*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, 12*time.Hour, cfg.Session.TTL)
	assert.Equal(t, "dashboard_audit", cfg.Kafka.Topic)
	assert.False(t, cfg.DB.Enabled())
	assert.Empty(t, cfg.Kafka.BrokerList())
}

func TestLoad_FromEnv(t *testing.T) {
	setRequired(t)
	t.Setenv("PORT", "8080")
	t.Setenv("UPSTREAM_TIMEOUT", "3s")
	t.Setenv("DISPATCH_KEY", "k")
	t.Setenv("KAFKA_BROKERS", "a:9092, b:9092")
	t.Setenv("DB_HOST", "localhost")
	t.Setenv("DB_USER", "u")
	t.Setenv("DB_NAME", "dash")

	cfg, err := Load()
	require.NoError(t, err)

	assert.Equal(t, "8080", cfg.HTTP.Port)
	assert.Equal(t, 3*time.Second, cfg.Upstream.Timeout)
	assert.Equal(t, "k", cfg.Upstream.DispatchKey)
	assert.Equal(t, []string{"a:9092", "b:9092"}, cfg.Kafka.BrokerList())
	assert.True(t, cfg.DB.Enabled())
	assert.Contains(t, cfg.DB.DSN(), "dbname=dash")
}

func TestLoad_Invalid(t *testing.T) {
	tests := []struct {
		name string
		env  map[string]string
	}{
		{name: "missing api url", env: map[string]string{"JWT_SECRET": "0123456789abcdef"}},
		{name: "short secret", env: map[string]string{"API_URL": "https://a.b", "JWT_SECRET": "short"}},
		{name: "db without name", env: map[string]string{
			"API_URL": "https://a.b", "JWT_SECRET": "0123456789abcdef", "DB_HOST": "h", "DB_USER": "u",
		}},
		{name: "bad log level", env: map[string]string{
			"API_URL": "https://a.b", "JWT_SECRET": "0123456789abcdef", "LOG_LEVEL": "loud",
		}},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Setenv("API_URL", "")
			t.Setenv("JWT_SECRET", "")
			for k, v := range tt.env {
				t.Setenv(k, v)
			}
			_, err := Load()
			assert.Error(t, err)
		})
	}
}

func TestLoadConsumer(t *testing.T) {
	t.Setenv("API_URL", "")
	t.Setenv("JWT_SECRET", "")
	t.Setenv("KAFKA_BROKERS", "")

	_, _, err := LoadConsumer()
	assert.Error(t, err)

	t.Setenv("KAFKA_BROKERS", "kafka:9092")
	logCfg, kafkaCfg, err := LoadConsumer()
	require.NoError(t, err)
	assert.Equal(t, "debug", logCfg.Level)
	assert.Equal(t, []string{"kafka:9092"}, kafkaCfg.BrokerList())
	assert.Equal(t, "dashboard_audit", kafkaCfg.Topic)
}
