package config

import (
	"os"
	"path/filepath"
	"testing"
	"time"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestLoadDefaults(t *testing.T) {
	conf, err := Load(viper.New())
	require.NoError(t, err)

	assert.Equal(t, DriverSQLite, conf.DatabaseDriver)
	assert.Equal(t, "8080", conf.Port)
	assert.True(t, conf.UseStatefulOrderHandlerSQLFunction)
	assert.Equal(t, 5*time.Second, conf.MarketRefreshInterval)
	assert.Equal(t, 8, conf.DispatchWorkers)
	assert.False(t, conf.IsProduction())
}

func TestLoadFromEnvironment(t *testing.T) {
	t.Setenv("USE_STATEFUL_ORDER_HANDLER_SQL_FUNCTION", "false")
	t.Setenv("MARKET_REFRESH_INTERVAL", "250ms")
	t.Setenv("DISPATCH_WORKERS", "3")
	t.Setenv("ENV", "production")

	conf, err := Load(viper.New())
	require.NoError(t, err)

	assert.False(t, conf.UseStatefulOrderHandlerSQLFunction)
	assert.Equal(t, 250*time.Millisecond, conf.MarketRefreshInterval)
	assert.Equal(t, 3, conf.DispatchWorkers)
	assert.True(t, conf.IsProduction())
}

func TestLoadRejectsInvalidConfig(t *testing.T) {
	testCases := map[string]map[string]string{
		"unknown driver": {"DATABASE_DRIVER": "mysql"},
		"no workers":     {"DISPATCH_WORKERS": "0"},
		"no refresh":     {"MARKET_REFRESH_INTERVAL": "0s"},
	}
	for name, env := range testCases {
		t.Run(name, func(t *testing.T) {
			for k, v := range env {
				t.Setenv(k, v)
			}
			_, err := Load(viper.New())
			assert.Error(t, err)
		})
	}
}

func TestExplicitValuesOverrideDefaults(t *testing.T) {
	v := viper.New()
	v.Set("database_driver", DriverPostgres)
	v.Set("database_dsn", "postgres://localhost/indexer")

	conf, err := Load(v)
	require.NoError(t, err)
	assert.Equal(t, DriverPostgres, conf.DatabaseDriver)
	assert.Equal(t, "postgres://localhost/indexer", conf.DatabaseDSN)
}

func TestLoadEnvFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), ".env")
	require.NoError(t, os.WriteFile(path, []byte("DISPATCH_WORKERS=3\nPORT=9090\nCORS_ALLOWED_ORIGINS=http://localhost:3000\n"), 0o600))
	t.Setenv("PORT", "7070")

	v := viper.New()
	v.Set("env_file", path)
	conf, err := Load(v)
	require.NoError(t, err)

	assert.Equal(t, 3, conf.DispatchWorkers)
	assert.Equal(t, "7070", conf.Port)
	assert.Equal(t, []string{"http://localhost:3000"}, conf.CORSAllowedOrigins)
}

func TestLoadMissingEnvFile(t *testing.T) {
	v := viper.New()
	v.Set("env_file", filepath.Join(t.TempDir(), "missing.env"))

	_, err := Load(v)
	assert.Error(t, err)
}
