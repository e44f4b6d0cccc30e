package config

import (
	"os"
	"testing"

	"github.com/stretchr/testify/require"
)

func TestLoadAppliesBindAddrDefault(t *testing.T) {
	t.Setenv("CLICKHOUSE_URL", "clickhouse://localhost:9000")
	t.Setenv("REDIS_URL", "redis://localhost:6379")
	t.Setenv("BIND_ADDR", "")
	os.Unsetenv("BIND_ADDR")

	cfg, err := Load()
	require.NoError(t, err)
	require.Equal(t, "0.0.0.0:3001", cfg.BindAddr)
}

func TestLoadFailsWithoutRequiredVars(t *testing.T) {
	t.Setenv("CLICKHOUSE_URL", "")
	t.Setenv("REDIS_URL", "")
	os.Unsetenv("CLICKHOUSE_URL")
	os.Unsetenv("REDIS_URL")

	_, err := Load()
	require.Error(t, err)
}
