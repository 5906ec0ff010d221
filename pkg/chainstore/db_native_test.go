//go:build !cgo_sqlite

package chainstore

import (
	"database/sql"

	_ "modernc.org/sqlite"
)

func openTestDB(path string) (*sql.DB, error) {
	return sql.Open("sqlite", path+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
}
