package db

import (
	"database/sql"
	"errors"
)

// GetQuerier returns transaction if provided, otherwise uses the database.
func GetQuerier(database Database, tx Transaction) Querier {
	if tx != nil {
		return tx
	}
	return database
}

// IsNoRows checks if the error is sql.ErrNoRows.
func IsNoRows(err error) bool {
	return errors.Is(err, sql.ErrNoRows)
}

// IsConstraintViolation reports whether the store rejected a write because it
// broke a column constraint (enum, check, not-null, unique).
func IsConstraintViolation(err error) bool {
	if err == nil {
		return false
	}
	return mysqlConstraintViolation(err) ||
		postgresConstraintViolation(err) ||
		sqliteConstraintViolation(err)
}
