package main

import (
	"database/sql"
	"fmt"
	"log/slog"

	"github.com/CTAG07/Mockingbird/pkg/chainstore"
)

// openStore opens the SQLite database at path, making sure the schema
// exists. The returned close function releases both store and database.
func openStore(path string, logger *slog.Logger) (*chainstore.Store, func(), error) {
	db, err := sql.Open(sqliteDriver, sqliteDSN(path))
	if err != nil {
		return nil, nil, fmt.Errorf("failed to initialize database: %w", err)
	}
	if err = chainstore.SetupSchema(db); err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to setup markov schema: %w", err)
	}
	store, err := chainstore.NewStore(db)
	if err != nil {
		_ = db.Close()
		return nil, nil, fmt.Errorf("failed to prepare chain store: %w", err)
	}
	store.SetLogger(logger.With("component", "chainstore"))

	closeFn := func() {
		store.Close()
		if err := db.Close(); err != nil {
			logger.Error("Failed to close database", "error", err)
		}
	}
	return store, closeFn, nil
}
