package db

import (
	"testing"

	"github.com/stretchr/testify/assert"
)

func TestDialectFor(t *testing.T) {
	cases := []struct {
		driver string
		want   string
		ok     bool
	}{
		{driver: "mysql", want: DriverMySQL, ok: true},
		{driver: "postgres", want: DriverPostgres, ok: true},
		{driver: "PostgreSQL", want: DriverPostgres, ok: true},
		{driver: "pgx", want: DriverPostgres, ok: true},
		{driver: " sqlite3 ", want: DriverSQLite, ok: true},
		{driver: "oracle", ok: false},
		{driver: "", ok: false},
	}
	for _, tc := range cases {
		t.Run(tc.driver, func(t *testing.T) {
			dialect, ok := DialectFor(tc.driver)
			assert.Equal(t, tc.ok, ok)
			assert.Equal(t, tc.want, dialect.Name)
		})
	}
}

func TestRebind(t *testing.T) {
	query := "SELECT id FROM math_problems WHERE type = ? LIMIT ? OFFSET ?"

	assert.Equal(t, query, MySQLDialect.Rebind(query))
	assert.Equal(t, query, SQLiteDialect.Rebind(query))
	assert.Equal(t,
		"SELECT id FROM math_problems WHERE type = $1 LIMIT $2 OFFSET $3",
		PostgresDialect.Rebind(query))
	assert.Equal(t, "SELECT 1", PostgresDialect.Rebind("SELECT 1"))
}
