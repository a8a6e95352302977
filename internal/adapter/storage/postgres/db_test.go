package postgres

import (
	"testing"
	"time"

	"custodial-wallet/config"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func testDatabaseConfig() config.DatabaseConfig {
	return config.DatabaseConfig{
		Host:     "db.internal",
		Port:     5433,
		User:     "wallet",
		Password: "secret",
		DBName:   "custodial_wallet",
		SSLMode:  "disable",
	}
}

func TestPoolConfig_AppliesLimits(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.MaxConns = 12
	cfg.MinConns = 3
	cfg.ConnMaxLifetime = 30 * time.Minute
	cfg.StatementTimeout = 15 * time.Second

	poolCfg, err := poolConfig(cfg)
	require.NoError(t, err)

	assert.Equal(t, int32(12), poolCfg.MaxConns)
	assert.Equal(t, int32(3), poolCfg.MinConns)
	assert.Equal(t, 30*time.Minute, poolCfg.MaxConnLifetime)
	assert.Equal(t, "db.internal", poolCfg.ConnConfig.Host)
	assert.Equal(t, uint16(5433), poolCfg.ConnConfig.Port)
	assert.Equal(t, "custodial_wallet", poolCfg.ConnConfig.Database)
	assert.Equal(t, applicationName, poolCfg.ConnConfig.RuntimeParams["application_name"])
	assert.Equal(t, "15000", poolCfg.ConnConfig.RuntimeParams["statement_timeout"])
}

func TestPoolConfig_ZeroValuesKeepPgxDefaults(t *testing.T) {
	poolCfg, err := poolConfig(testDatabaseConfig())
	require.NoError(t, err)

	assert.Positive(t, poolCfg.MaxConns)
	assert.NotContains(t, poolCfg.ConnConfig.RuntimeParams, "statement_timeout")
}

func TestPoolConfig_RejectsBadDSN(t *testing.T) {
	cfg := testDatabaseConfig()
	cfg.SSLMode = "sometimes"

	_, err := poolConfig(cfg)
	assert.ErrorContains(t, err, "parsing database config")
}
