// Package config resolves configuration values from the OS environment and
// viper, and selects the store the CLI writes to.
package config

import (
	"os"
	"strings"

	"github.com/spf13/viper"

	"github.com/pluginsync/pluginsync/pkg/constants"
	"github.com/pluginsync/pluginsync/pkg/errors"
)

// Environment keys.
const (
	KeySeaTableTokenProd = "SEATABLE_API_TOKEN_PROD"
	KeySeaTableTokenDev  = "SEATABLE_API_TOKEN_DEV"
	KeySeaTableServerURL = "SEATABLE_SERVER_URL"
	KeyGitHubToken       = "GITHUB_TOKEN"
	KeyStoreDriver       = "STORE_DRIVER"
	KeyStoreDSN          = "STORE_DSN"
	KeyCachePath         = "CACHE_PATH"
)

// Keys lists every key bound to the environment.
var Keys = []string{
	KeySeaTableTokenProd,
	KeySeaTableTokenDev,
	KeySeaTableServerURL,
	KeyGitHubToken,
	KeyStoreDriver,
	KeyStoreDSN,
	KeyCachePath,
}

// Store drivers.
const (
	DriverSeaTable = "seatable"
	DriverSQLite   = "sqlite"
	DriverPostgres = "postgres"
	DriverMemory   = "memory"
)

// GetString is a helper to get string values from Viper.
// It checks both OS environment variables and Viper configuration.
func GetString(key string) string {
	osValue := os.Getenv(key)
	viperValue := viper.GetString(key)

	if viperValue == "" && osValue != "" {
		return osValue
	}
	return viperValue
}

// GetStringDefault returns GetString(key), or def when unset.
func GetStringDefault(key, def string) string {
	if v := GetString(key); v != "" {
		return v
	}
	return def
}

// Store describes the store selected by configuration.
type Store struct {
	Driver    string
	DSN       string
	Token     string
	ServerURL string
}

// ResolveStore reads the store settings. Dev runs use the dev SeaTable token.
func ResolveStore(dev bool) (*Store, error) {
	s := &Store{
		Driver:    strings.ToLower(GetStringDefault(KeyStoreDriver, DriverSeaTable)),
		DSN:       GetString(KeyStoreDSN),
		ServerURL: GetStringDefault(KeySeaTableServerURL, constants.SeaTableServerURL),
	}

	switch s.Driver {
	case DriverSeaTable:
		key := KeySeaTableTokenProd
		if dev {
			key = KeySeaTableTokenDev
		}
		s.Token = GetString(key)
		if s.Token == "" {
			return nil, errors.NewConfigError("store", key+" is not set", nil)
		}
	case DriverSQLite:
		if s.DSN == "" {
			s.DSN = "pluginsync.db"
		}
	case DriverPostgres:
		if s.DSN == "" {
			return nil, errors.NewConfigError("store", KeyStoreDSN+" is required for postgres", nil)
		}
	case DriverMemory:
	default:
		return nil, errors.NewConfigError("store", "unknown driver "+s.Driver, nil)
	}
	return s, nil
}
