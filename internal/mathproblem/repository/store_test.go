package repository

import (
	"context"
	"os"
	"path/filepath"
	"testing"
	"time"

	"mathtutor/internal/common/db"
	"mathtutor/internal/mathproblem/model"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

// Server-backed stores run only when their DSN is exported. The table is emptied before use,
// so point these at a throwaway database.
const (
	postgresDSNEnv = "MATHTUTOR_TEST_POSTGRES_DSN"
	mysqlDSNEnv    = "MATHTUTOR_TEST_MYSQL_DSN"
)

func openStore(t *testing.T, driver, dsn string) *SQLMathProblemRepository {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, db.Config{Driver: driver, DSN: dsn})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })

	require.NoError(t, EnsureSchema(ctx, database))
	_, err = database.Exec(ctx, "DELETE FROM math_problems")
	require.NoError(t, err)

	clock := &stepClock{cur: time.Date(2024, 3, 1, 12, 0, 0, 123456000, time.UTC)}
	return NewMathProblemRepository(database, WithClock(clock.Now))
}

func TestStoreDialects(t *testing.T) {
	stores := []struct {
		driver string
		dsn    func(t *testing.T) string
	}{
		{driver: db.DriverSQLite, dsn: func(t *testing.T) string {
			return filepath.Join(t.TempDir(), "dialects.db")
		}},
		{driver: db.DriverPostgres, dsn: func(t *testing.T) string { return dsnFromEnv(t, postgresDSNEnv) }},
		{driver: db.DriverMySQL, dsn: func(t *testing.T) string { return dsnFromEnv(t, mysqlDSNEnv) }},
	}

	for _, store := range stores {
		t.Run(store.driver, func(t *testing.T) {
			repo := openStore(t, store.driver, store.dsn(t))
			exerciseStore(t, repo)
		})
	}
}

func dsnFromEnv(t *testing.T, name string) string {
	t.Helper()
	dsn := os.Getenv(name)
	if dsn == "" {
		t.Skipf("%s not set", name)
	}
	return dsn
}

// exerciseStore drives every operation through the dialect's insert and update paths.
func exerciseStore(t *testing.T, repo *SQLMathProblemRepository) {
	ctx := context.Background()

	first, err := repo.Create(ctx, nil, createInput("Arc length", model.Arc))
	require.NoError(t, err)
	assert.Positive(t, first.ID)
	assert.Equal(t, model.Arc, first.Type)
	assert.Equal(t, time.UTC, first.CreatedAt.Location())
	assert.True(t, first.CreatedAt.Equal(first.UpdatedAt))

	second, err := repo.Create(ctx, nil, createInput("Square area", model.Square))
	require.NoError(t, err)
	assert.Greater(t, second.ID, first.ID)

	fetched, err := repo.GetByID(ctx, nil, first.ID)
	require.NoError(t, err)
	assert.Equal(t, first.Title, fetched.Title)
	assert.Equal(t, first.SVGContent, fetched.SVGContent)
	assert.True(t, first.CreatedAt.Equal(fetched.CreatedAt), "timestamps round-trip at microsecond precision")

	listed, err := repo.List(ctx, nil, ListFilter{Limit: 10})
	require.NoError(t, err)
	require.Len(t, listed, 2)
	assert.Equal(t, second.ID, listed[0].ID)
	assert.Equal(t, first.ID, listed[1].ID)

	squares, err := repo.List(ctx, nil, ListFilter{Type: ptr(model.Square), Limit: 10})
	require.NoError(t, err)
	require.Len(t, squares, 1)
	assert.Equal(t, second.ID, squares[0].ID)

	picked, err := repo.GetRandom(ctx, nil, ptr(model.Arc))
	require.NoError(t, err)
	assert.Equal(t, first.ID, picked.ID)
	_, err = repo.GetRandom(ctx, nil, ptr(model.Circle))
	assert.ErrorIs(t, err, ErrProblemNotFound)

	updated, err := repo.Update(ctx, nil, first.ID, UpdateFields{Title: ptr("Arc length, revised"), Type: ptr(model.Circle)})
	require.NoError(t, err)
	assert.Equal(t, "Arc length, revised", updated.Title)
	assert.Equal(t, model.Circle, updated.Type)
	assert.Equal(t, first.Question, updated.Question)
	assert.True(t, first.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(first.UpdatedAt))

	_, err = repo.Update(ctx, nil, second.ID+1000, UpdateFields{Title: ptr("missing")})
	assert.ErrorIs(t, err, ErrProblemNotFound)

	_, err = repo.Update(ctx, nil, second.ID, UpdateFields{Type: ptr(model.ProblemType("hexagon"))})
	assert.ErrorIs(t, err, ErrConstraintViolation)
	_, err = repo.Create(ctx, nil, createInput("bad", model.ProblemType("hexagon")))
	assert.ErrorIs(t, err, ErrConstraintViolation)

	deleted, err := repo.Delete(ctx, nil, second.ID)
	require.NoError(t, err)
	assert.True(t, deleted)
	deleted, err = repo.Delete(ctx, nil, second.ID)
	require.NoError(t, err)
	assert.False(t, deleted)
}
