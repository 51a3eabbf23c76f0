package repository

import (
	"context"
	"fmt"
	"strings"

	"mathtutor/internal/common/db"
	"mathtutor/internal/mathproblem/model"
)

// EnsureSchema creates the math_problems table when it does not exist yet.
// The problem type enumeration is enforced by the store as well as at the
// validation boundary.
func EnsureSchema(ctx context.Context, database db.Database) error {
	statements, err := schemaStatements(database.Dialect())
	if err != nil {
		return err
	}
	for _, stmt := range statements {
		if _, err := database.Exec(ctx, stmt); err != nil {
			return fmt.Errorf("ensure schema failed: %w", err)
		}
	}
	return nil
}

func schemaStatements(dialect db.Dialect) ([]string, error) {
	types := quotedProblemTypes()
	switch dialect.Name {
	case db.DriverPostgres:
		return []string{
			`DO $$ BEGIN
				CREATE TYPE math_problem_type AS ENUM (` + types + `);
			EXCEPTION
				WHEN duplicate_object THEN NULL;
			END $$`,
			`CREATE TABLE IF NOT EXISTS math_problems (
				id SERIAL PRIMARY KEY,
				title TEXT NOT NULL,
				question TEXT NOT NULL,
				type math_problem_type NOT NULL,
				explanation TEXT NOT NULL,
				svg_content TEXT NOT NULL,
				created_at TIMESTAMPTZ NOT NULL DEFAULT NOW(),
				updated_at TIMESTAMPTZ NOT NULL DEFAULT NOW()
			)`,
			`CREATE INDEX IF NOT EXISTS idx_math_problems_type_created ON math_problems (type, created_at)`,
		}, nil
	case db.DriverMySQL:
		return []string{
			`CREATE TABLE IF NOT EXISTS math_problems (
				id BIGINT NOT NULL AUTO_INCREMENT PRIMARY KEY,
				title TEXT NOT NULL,
				question TEXT NOT NULL,
				type ENUM(` + types + `) NOT NULL,
				explanation TEXT NOT NULL,
				svg_content MEDIUMTEXT NOT NULL,
				created_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				updated_at DATETIME(6) NOT NULL DEFAULT CURRENT_TIMESTAMP(6),
				INDEX idx_math_problems_type_created (type, created_at)
			) ENGINE=InnoDB DEFAULT CHARSET=utf8mb4`,
		}, nil
	case db.DriverSQLite:
		return []string{
			`CREATE TABLE IF NOT EXISTS math_problems (
				id INTEGER PRIMARY KEY AUTOINCREMENT,
				title TEXT NOT NULL,
				question TEXT NOT NULL,
				type TEXT NOT NULL CHECK (type IN (` + types + `)),
				explanation TEXT NOT NULL,
				svg_content TEXT NOT NULL,
				created_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP,
				updated_at DATETIME NOT NULL DEFAULT CURRENT_TIMESTAMP
			)`,
			`CREATE INDEX IF NOT EXISTS idx_math_problems_type_created ON math_problems (type, created_at)`,
		}, nil
	default:
		return nil, fmt.Errorf("unsupported dialect %q", dialect.Name)
	}
}

func quotedProblemTypes() string {
	types := model.ProblemTypes()
	quoted := make([]string, len(types))
	for i, t := range types {
		quoted[i] = "'" + string(t) + "'"
	}
	return strings.Join(quoted, ", ")
}
