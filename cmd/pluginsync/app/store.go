package app

import (
	"context"
	"io"

	"github.com/pluginsync/pluginsync/internal/config"
	"github.com/pluginsync/pluginsync/internal/store/memory"
	"github.com/pluginsync/pluginsync/internal/store/postgres"
	"github.com/pluginsync/pluginsync/internal/store/schema"
	"github.com/pluginsync/pluginsync/internal/store/seatable"
	"github.com/pluginsync/pluginsync/internal/store/sqlite"
	"github.com/pluginsync/pluginsync/pkg/errors"
	"github.com/pluginsync/pluginsync/pkg/reconciler"
)

// KeywordImporter is implemented by stores that own their keyword table.
type KeywordImporter interface {
	ImportKeywords(ctx context.Context, kf *schema.KeywordFile) error
}

// OpenStore opens the store selected by STORE_DRIVER.
func OpenStore(ctx context.Context, _ *Config, dev bool) (reconciler.Store, io.Closer, error) {
	sc, err := config.ResolveStore(dev)
	if err != nil {
		return nil, nil, err
	}

	switch sc.Driver {
	case config.DriverSeaTable:
		s, err := seatable.Open(sc.Token, seatable.WithServerURL(sc.ServerURL))
		if err != nil {
			return nil, nil, err
		}
		return s, nil, nil
	case config.DriverSQLite:
		s, err := sqlite.Open(sc.DSN)
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverPostgres:
		s, err := postgres.Open(ctx, postgres.Config{DSN: sc.DSN})
		if err != nil {
			return nil, nil, err
		}
		return s, s, nil
	case config.DriverMemory:
		return memory.New(), nil, nil
	default:
		return nil, nil, errors.NewConfigError("store", "unknown driver "+sc.Driver, nil)
	}
}
