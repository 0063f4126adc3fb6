// Package bootstrap opens the infrastructure shared by the gateway binaries.
package bootstrap

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	memoryadapter "github.com/ericfisherdev/creditgate/internal/adapter/driven/memory"
	mongoadapter "github.com/ericfisherdev/creditgate/internal/adapter/driven/mongo"
	sqliteadapter "github.com/ericfisherdev/creditgate/internal/adapter/driven/sqlite"
	"github.com/ericfisherdev/creditgate/internal/config"
	"github.com/ericfisherdev/creditgate/internal/domain/port/driven"
)

// OpenStore opens the configured credential store and returns a func that
// releases it.
func OpenStore(ctx context.Context, cfg *config.Config) (driven.APIKeyStore, func(), error) {
	switch cfg.StoreDriver {
	case config.DriverSQLite:
		db, err := sqliteadapter.NewDB(ctx, cfg.DBPath)
		if err != nil {
			return nil, nil, err
		}
		closeDB := func() {
			if err := db.Close(); err != nil {
				slog.Error("error closing database", "error", err)
			}
		}
		slog.Info("database opened", "path", cfg.DBPath)

		version, err := sqliteadapter.RunMigrations(db.Writer)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		slog.Info("migrations complete", "version", version)

		repo, err := sqliteadapter.NewAPIKeyRepo(db, cfg.SecretKey)
		if err != nil {
			closeDB()
			return nil, nil, err
		}
		return repo, closeDB, nil

	case config.DriverMongo:
		connectCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
		defer cancel()

		store, err := mongoadapter.Connect(connectCtx, cfg.MongoURI, cfg.MongoDatabase)
		if err != nil {
			return nil, nil, err
		}
		closeMongo := func() {
			disconnectCtx, cancel := context.WithTimeout(context.Background(), 5*time.Second)
			defer cancel()
			if err := store.Close(disconnectCtx); err != nil {
				slog.Error("error disconnecting mongo", "error", err)
			}
		}
		if err := store.Migrate(connectCtx); err != nil {
			closeMongo()
			return nil, nil, err
		}
		slog.Info("mongo connected", "database", cfg.MongoDatabase)
		return store, closeMongo, nil

	case config.DriverMemory:
		slog.Warn("using in-memory credential store, records are lost on exit")
		return memoryadapter.New(), func() {}, nil

	default:
		return nil, nil, fmt.Errorf("unknown store driver %q", cfg.StoreDriver)
	}
}
