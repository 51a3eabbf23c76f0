package db

import "context"

// Querier abstracts database operations for both database and transaction.
type Querier interface {
	Query(ctx context.Context, query string, args ...interface{}) (Rows, error)
	QueryRow(ctx context.Context, query string, args ...interface{}) Row
	Exec(ctx context.Context, query string, args ...interface{}) (Result, error)
}

// Database is a pooled connection to one relational store.
// Queries are written with '?' placeholders and rebound for the store's dialect.
type Database interface {
	Querier

	// Transaction runs fn inside a transaction, committing when fn returns nil
	// and rolling back otherwise.
	Transaction(ctx context.Context, fn func(tx Transaction) error) error

	// Dialect describes the SQL flavour of the underlying store.
	Dialect() Dialect

	Ping(ctx context.Context) error
	Close() error
}

// Transaction is an open transaction.
type Transaction interface {
	Querier
	Commit() error
	Rollback() error
}

// Scanner is implemented by Row and Rows.
type Scanner interface {
	Scan(dest ...interface{}) error
}

// Rows is an iterator over a query result.
type Rows interface {
	Scanner
	Next() bool
	Close() error
	Err() error
}

// Row is the result of QueryRow.
type Row interface {
	Scanner
}

// Result summarizes an executed statement.
type Result interface {
	LastInsertId() (int64, error)
	RowsAffected() (int64, error)
}
