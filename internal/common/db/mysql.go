package db

import (
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/go-sql-driver/mysql"
)

// MySQL error numbers inspected by the helpers below.
const (
	mysqlErrBadNullError    = 1048
	mysqlErrDuplicateEntry  = 1062
	mysqlErrDataTruncated   = 1265
	mysqlErrTruncatedValue  = 1366
	mysqlErrCheckConstraint = 3819
)

// openMySQL opens a MySQL pool. Timestamps must round-trip as time.Time in UTC,
// so parseTime and loc are forced regardless of the configured DSN.
// DSN format: "user:password@tcp(host:port)/dbname"
func openMySQL(dsn string) (*sql.DB, error) {
	cfg, err := mysql.ParseDSN(dsn)
	if err != nil {
		return nil, fmt.Errorf("parse mysql dsn: %w", err)
	}
	cfg.ParseTime = true
	cfg.Loc = time.UTC
	return sql.Open("mysql", cfg.FormatDSN())
}

// mysqlConstraintViolation reports whether err is a MySQL integrity or strict-mode rejection.
func mysqlConstraintViolation(err error) bool {
	var myErr *mysql.MySQLError
	if !errors.As(err, &myErr) {
		return false
	}
	switch myErr.Number {
	case mysqlErrDuplicateEntry, mysqlErrDataTruncated, mysqlErrTruncatedValue,
		mysqlErrCheckConstraint, mysqlErrBadNullError:
		return true
	}
	return false
}
