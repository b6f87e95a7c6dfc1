package config

import (
	"testing"

	"github.com/spf13/viper"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
)

func resetViper(t *testing.T) {
	t.Helper()
	viper.Reset()
	t.Cleanup(viper.Reset)
}

func TestGetStringPrefersViper(t *testing.T) {
	resetViper(t)
	t.Setenv(KeyGitHubToken, "from-env")
	assert.Equal(t, "from-env", GetString(KeyGitHubToken))

	viper.Set(KeyGitHubToken, "from-viper")
	assert.Equal(t, "from-viper", GetString(KeyGitHubToken))
}

func TestResolveStoreSeaTable(t *testing.T) {
	resetViper(t)
	t.Setenv(KeyStoreDriver, "")
	t.Setenv(KeySeaTableTokenProd, "prod")
	t.Setenv(KeySeaTableTokenDev, "dev")

	s, err := ResolveStore(false)
	require.NoError(t, err)
	assert.Equal(t, DriverSeaTable, s.Driver)
	assert.Equal(t, "prod", s.Token)
	assert.Equal(t, constants.SeaTableServerURL, s.ServerURL)

	s, err = ResolveStore(true)
	require.NoError(t, err)
	assert.Equal(t, "dev", s.Token)
}

func TestResolveStoreMissingToken(t *testing.T) {
	resetViper(t)
	t.Setenv(KeyStoreDriver, "seatable")
	t.Setenv(KeySeaTableTokenDev, "")
	_, err := ResolveStore(true)
	var cfgErr *errors.ConfigError
	require.ErrorAs(t, err, &cfgErr)
	assert.Contains(t, err.Error(), KeySeaTableTokenDev)
}

func TestResolveStoreDrivers(t *testing.T) {
	resetViper(t)
	t.Setenv(KeyStoreDSN, "")

	t.Setenv(KeyStoreDriver, "SQLite")
	s, err := ResolveStore(false)
	require.NoError(t, err)
	assert.Equal(t, "pluginsync.db", s.DSN)

	t.Setenv(KeyStoreDriver, "postgres")
	_, err = ResolveStore(false)
	assert.Error(t, err)

	t.Setenv(KeyStoreDriver, "mongo")
	_, err = ResolveStore(false)
	assert.Error(t, err)
}
