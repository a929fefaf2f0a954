package main

import (
	"context"

	"github.com/rotisserie/eris"

	"github.com/sells-group/marathon-cli/internal/snapshot"
)

// openStore builds the snapshot store for the configured driver and runs
// its migration.
func openStore(ctx context.Context) (*snapshot.Store, error) {
	switch cfg.Store.Driver {
	case "", "json":
		return snapshot.New(snapshot.NewJSONFile(cfg.Store.Path)), nil
	case "sqlite":
		db, err := snapshot.NewSQLite(cfg.Store.Path)
		if err != nil {
			return nil, err
		}
		if err := db.Migrate(ctx); err != nil {
			_ = db.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		return snapshot.New(db), nil
	case "postgres":
		pg, err := snapshot.NewPostgres(ctx, cfg.Store.DatabaseURL, &snapshot.PoolConfig{
			MaxConns: cfg.Store.MaxConns,
			MinConns: cfg.Store.MinConns,
		})
		if err != nil {
			return nil, err
		}
		if err := pg.Migrate(ctx); err != nil {
			_ = pg.Close()
			return nil, eris.Wrap(err, "migrate store")
		}
		return snapshot.New(pg), nil
	default:
		return nil, eris.Errorf("unsupported store driver: %s", cfg.Store.Driver)
	}
}
