package main

import (
	"context"

	"github.com/privacylab/flfp-kernel/internal/config"
	"github.com/privacylab/flfp-kernel/internal/storage"
)

// maybeConnectPostgres opens the archive store when a DSN is configured,
// and otherwise returns a nil store. Every caller treats a nil store as
// "archive disabled" and skips persistence rather than erroring, since
// the file-backed artifacts SPEC_FULL.md mandates are already the
// durable record of a run; Postgres is an optional queryable index on
// top of them.
func maybeConnectPostgres(cfg *config.Config) (*storage.PostgresStore, error) {
	if cfg.PostgresDSN == "" {
		return nil, nil
	}
	store, err := storage.ConnectPostgres(cfg.PostgresDSN)
	if err != nil {
		return nil, err
	}
	if err := store.InitSchema(context.Background()); err != nil {
		store.Close()
		return nil, err
	}
	return store, nil
}
