package db

import (
	"database/sql"
	"errors"
	"net/url"
	"strings"

	"modernc.org/sqlite"
	sqlite3 "modernc.org/sqlite/lib"
)

var sqlitePragmas = []string{
	"busy_timeout(5000)",
	"journal_mode(WAL)",
	"foreign_keys(1)",
}

// openSQLite opens a pure-Go SQLite database.
// DSN is a file path or a "file:" URI. The pragmas above and a sortable time
// format are appended unless the DSN already sets its own.
func openSQLite(dsn string) (*sql.DB, error) {
	return sql.Open("sqlite", sqliteDSN(dsn))
}

func sqliteDSN(dsn string) string {
	values := url.Values{}
	if !strings.Contains(dsn, "_pragma=") {
		for _, pragma := range sqlitePragmas {
			values.Add("_pragma", pragma)
		}
	}
	if !strings.Contains(dsn, "_time_format=") {
		values.Set("_time_format", "sqlite")
	}
	if len(values) == 0 {
		return dsn
	}
	sep := "?"
	if strings.Contains(dsn, "?") {
		sep = "&"
	}
	return dsn + sep + values.Encode()
}

func sqliteConstraintViolation(err error) bool {
	var liteErr *sqlite.Error
	if !errors.As(err, &liteErr) {
		return false
	}
	return liteErr.Code()&0xff == sqlite3.SQLITE_CONSTRAINT
}
