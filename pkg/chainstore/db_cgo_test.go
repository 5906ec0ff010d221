//go:build cgo_sqlite

package chainstore

import (
	"database/sql"

	_ "github.com/mattn/go-sqlite3"
)

func openTestDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite3", path+"?_journal_mode=WAL&_busy_timeout=5000")
}
