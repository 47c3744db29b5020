package config

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

type testConfig struct {
	Common
	DBPath string `env:"DB_PATH" envDefault:"./catalog.db"`
}

func TestParse_Defaults(t *testing.T) {
	var cfg testConfig
	require.NoError(t, Parse(&cfg))

	assert.Equal(t, "dev", cfg.AppEnv)
	assert.Equal(t, "8080", cfg.HTTPPort)
	assert.Equal(t, 30*time.Second, cfg.RequestTimeout)
	assert.Equal(t, "./catalog.db", cfg.DBPath)
}

func TestParse_FromEnv(t *testing.T) {
	t.Setenv("HTTP_PORT", "9090")
	t.Setenv("REQUEST_TIMEOUT", "5s")
	t.Setenv("DB_PATH", ":memory:")

	var cfg testConfig
	require.NoError(t, Parse(&cfg))

	assert.Equal(t, "9090", cfg.HTTPPort)
	assert.Equal(t, 5*time.Second, cfg.RequestTimeout)
	assert.Equal(t, ":memory:", cfg.DBPath)
}

func TestParse_BadDuration(t *testing.T) {
	t.Setenv("SHUTDOWN_TIMEOUT", "soon")

	var cfg testConfig
	err := Parse(&cfg)
	assert.ErrorContains(t, err, "parse env")
}

func TestPostgresDSN(t *testing.T) {
	t.Setenv("DB_PORT", "6543")
	t.Setenv("KAFKA_BROKERS", "k1:9092,k2:9092")

	var cfg struct {
		Postgres
		Kafka
	}
	require.NoError(t, Parse(&cfg))

	assert.Equal(t, "host=localhost port=6543 user=postgres password=postgres dbname=food_delivery sslmode=disable", cfg.DSN())
	assert.Equal(t, []string{"k1:9092", "k2:9092"}, cfg.Brokers)
}
