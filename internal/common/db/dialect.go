package db

import (
	"strconv"
	"strings"
)

// Driver names accepted in Config.Driver.
const (
	DriverMySQL    = "mysql"
	DriverPostgres = "postgres"
	DriverSQLite   = "sqlite"
)

// Dialect captures the SQL differences the repositories care about.
type Dialect struct {
	// Name is one of the Driver* constants.
	Name string
	// DollarPlaceholders rewrites '?' to '$1', '$2', ... before execution.
	DollarPlaceholders bool
	// RandomFunc orders rows uniformly at random.
	RandomFunc string
	// Returning reports that INSERT/UPDATE ... RETURNING yields typed columns.
	// SQLite supports the clause but reports no declared column types for it,
	// so timestamps would come back as text.
	Returning bool
}

var (
	MySQLDialect    = Dialect{Name: DriverMySQL, RandomFunc: "RAND()"}
	PostgresDialect = Dialect{Name: DriverPostgres, DollarPlaceholders: true, RandomFunc: "RANDOM()", Returning: true}
	SQLiteDialect   = Dialect{Name: DriverSQLite, RandomFunc: "RANDOM()"}
)

// DialectFor resolves a configured driver name, accepting common aliases.
func DialectFor(driver string) (Dialect, bool) {
	switch strings.ToLower(strings.TrimSpace(driver)) {
	case "mysql":
		return MySQLDialect, true
	case "postgres", "postgresql", "pgx":
		return PostgresDialect, true
	case "sqlite", "sqlite3":
		return SQLiteDialect, true
	default:
		return Dialect{}, false
	}
}

// Rebind converts '?' placeholders into the dialect's bind syntax.
// Queries must not contain literal question marks.
func (d Dialect) Rebind(query string) string {
	if !d.DollarPlaceholders || !strings.Contains(query, "?") {
		return query
	}
	var b strings.Builder
	b.Grow(len(query) + 8)
	n := 0
	for i := 0; i < len(query); i++ {
		if query[i] != '?' {
			b.WriteByte(query[i])
			continue
		}
		n++
		b.WriteByte('$')
		b.WriteString(strconv.Itoa(n))
	}
	return b.String()
}
