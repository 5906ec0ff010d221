package chainstore

import (
	"database/sql"
	"fmt"

	"github.com/CTAG07/Mockingbird/pkg/markov"
)

// SetupSchema initializes the necessary tables and reserved vocabulary entries
// in the provided database. It is idempotent and safe to call on an
// already-initialized database.
func SetupSchema(db *sql.DB) error {

	const (
		schemaVocab = `
CREATE TABLE IF NOT EXISTS markov_vocabulary (
    token_id INTEGER PRIMARY KEY,
    token_text TEXT NOT NULL UNIQUE
);
`
		schemaPrefixes = `
CREATE TABLE IF NOT EXISTS markov_prefixes (
	prefix_id INTEGER PRIMARY KEY,
	prefix_text TEXT NOT NULL UNIQUE
);
`
		schemaModels = `
CREATE TABLE IF NOT EXISTS markov_models (
    model_id INTEGER PRIMARY KEY,
    model_name TEXT NOT NULL UNIQUE,
    model_order INTEGER NOT NULL
);
`
		schemaChains = `
CREATE TABLE IF NOT EXISTS markov_chains (
    model_id INTEGER NOT NULL,
    prefix_id INTEGER NOT NULL,
    next_token_id INTEGER NOT NULL,
    frequency  INTEGER NOT NULL DEFAULT 1,
    PRIMARY KEY (model_id, prefix_id, next_token_id)
);
`
		insertReserved = `INSERT OR IGNORE INTO markov_vocabulary (token_id, token_text) VALUES (?, ?);`
	)

	tx, err := db.Begin()
	if err != nil {
		return fmt.Errorf("could not begin transaction: %w", err)
	}
	defer func(tx *sql.Tx) {
		_ = tx.Rollback()
	}(tx)

	for _, stmt := range []string{schemaVocab, schemaPrefixes, schemaModels, schemaChains} {
		if _, err = tx.Exec(stmt); err != nil {
			return fmt.Errorf("could not create schema: %w", err)
		}
	}

	// The reserved texts are stored for readability only. Model-local words
	// spelled "<SOC>" or "<EOC>" are kept apart by the ID mapping in Save.
	if _, err = tx.Exec(insertReserved, markov.SOCTokenID, reservedText(markov.SOCTokenID)); err != nil {
		return fmt.Errorf("could not insert special tokens: %w", err)
	}
	if _, err = tx.Exec(insertReserved, markov.EOCTokenID, reservedText(markov.EOCTokenID)); err != nil {
		return fmt.Errorf("could not insert special tokens: %w", err)
	}

	if err = tx.Commit(); err != nil {
		return fmt.Errorf("could not commit transaction: %w", err)
	}
	return nil
}

// reservedText is the vocabulary text stored for a reserved ID. The NUL
// prefix keeps token_text free for ordinary words spelled "<SOC>" or "<EOC>".
func reservedText(id int) string {
	if id == markov.SOCTokenID {
		return "\x00" + markov.SOCTokenText
	}
	return "\x00" + markov.EOCTokenText
}
