package service

import (
	"context"
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"testing"
	"time"

	"mathtutor/internal/common/db"
	"mathtutor/internal/mathproblem/model"
	"mathtutor/internal/mathproblem/repository"
	pkgerrors "mathtutor/pkg/errors"
	"mathtutor/pkg/utils/logger"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap"
	"go.uber.org/zap/zapcore"
	"go.uber.org/zap/zaptest/observer"
)

type tickingClock struct {
	mu  sync.Mutex
	cur time.Time
}

func (c *tickingClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.cur = c.cur.Add(time.Millisecond)
	return c.cur
}

func newSQLiteService(t *testing.T) *MathProblemService {
	t.Helper()
	ctx := context.Background()
	database, err := db.Open(ctx, db.Config{
		Driver: db.DriverSQLite,
		DSN:    filepath.Join(t.TempDir(), "service.db"),
	})
	require.NoError(t, err)
	t.Cleanup(func() { _ = database.Close() })
	require.NoError(t, repository.EnsureSchema(ctx, database))

	clock := &tickingClock{cur: time.Date(2025, 1, 15, 8, 30, 0, 0, time.UTC)}
	return NewMathProblemService(repository.NewMathProblemRepository(database, repository.WithClock(clock.Now)))
}

func observeLogs(t *testing.T) *observer.ObservedLogs {
	t.Helper()
	core, logs := observer.New(zapcore.DebugLevel)
	prev := logger.SetGlobal(logger.NewWithZap(zap.New(core)))
	t.Cleanup(func() { logger.SetGlobal(prev) })
	return logs
}

func ptr[T any](v T) *T { return &v }

func sampleInput(title string, problemType model.ProblemType) model.CreateInput {
	return model.CreateInput{
		Title:       title,
		Question:    "A right triangle has legs 6 and 8. What is its area?",
		Type:        problemType,
		Explanation: "Area = 1/2 * base * height\n= 1/2 * 6 * 8\n= 24",
		SVGContent:  `<svg width="200" height="150"><polygon points="10,140 130,140 130,40"/></svg>`,
	}
}

func TestCreateMathProblem(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	for _, pt := range model.ProblemTypes() {
		input := sampleInput("problem "+string(pt), pt)
		created, err := svc.CreateMathProblem(ctx, input)
		require.NoError(t, err)
		require.NotNil(t, created)

		assert.Positive(t, created.ID)
		assert.Equal(t, input.Title, created.Title)
		assert.Equal(t, input.Question, created.Question)
		assert.Equal(t, pt, created.Type)
		assert.Equal(t, input.Explanation, created.Explanation)
		assert.Equal(t, input.SVGContent, created.SVGContent)
		assert.True(t, created.CreatedAt.Equal(created.UpdatedAt))
	}
}

func TestCreateMathProblemValidation(t *testing.T) {
	repo := &fakeRepository{}
	svc := NewMathProblemService(repo)

	input := sampleInput("", model.Square)
	_, err := svc.CreateMathProblem(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ValidationFailed, pkgerrors.GetCode(err))

	input = sampleInput("ok", model.ProblemType("hexagon"))
	_, err = svc.CreateMathProblem(context.Background(), input)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.InvalidProblemType, pkgerrors.GetCode(err))

	assert.Zero(t, repo.calls, "repository must not be reached on invalid input")
}

func TestGetMathProblems(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	empty, err := svc.GetMathProblems(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, empty)
	assert.Empty(t, empty)

	var circleIDs []int64
	for i, pt := range []model.ProblemType{model.Circle, model.Square, model.Circle, model.Arc, model.Circle} {
		p, err := svc.CreateMathProblem(ctx, sampleInput(fmt.Sprintf("p%d", i), pt))
		require.NoError(t, err)
		if pt == model.Circle {
			circleIDs = append(circleIDs, p.ID)
		}
	}

	all, err := svc.GetMathProblems(ctx, nil)
	require.NoError(t, err)
	require.Len(t, all, 5)
	assert.Equal(t, "p4", all[0].Title)
	assert.Equal(t, "p0", all[4].Title)

	circles, err := svc.GetMathProblems(ctx, &model.ListInput{Type: ptr(model.Circle)})
	require.NoError(t, err)
	require.Len(t, circles, 3)
	for _, p := range circles {
		assert.Equal(t, model.Circle, p.Type)
	}

	page, err := svc.GetMathProblems(ctx, &model.ListInput{Type: ptr(model.Circle), Limit: ptr(2), Offset: ptr(1)})
	require.NoError(t, err)
	require.Len(t, page, 2)
	assert.Equal(t, circleIDs[1], page[0].ID)
	assert.Equal(t, circleIDs[0], page[1].ID)

	_, err = svc.GetMathProblems(ctx, &model.ListInput{Limit: ptr(101)})
	require.Error(t, err)
	assert.Equal(t, "limit must be at most 100", err.Error())
}

func TestGetMathProblemByID(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.CreateMathProblem(ctx, sampleInput("find me", model.Rectangle))
	require.NoError(t, err)

	found, err := svc.GetMathProblemByID(ctx, model.ByIDInput{ID: created.ID})
	require.NoError(t, err)
	require.NotNil(t, found)
	assert.Equal(t, "find me", found.Title)

	missing, err := svc.GetMathProblemByID(ctx, model.ByIDInput{ID: 999999})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.GetMathProblemByID(ctx, model.ByIDInput{ID: 0})
	require.Error(t, err)
	assert.Equal(t, 400, pkgerrors.GetCode(err).HTTPStatus())
}

func TestUpdateMathProblem(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	created, err := svc.CreateMathProblem(ctx, sampleInput("original", model.TriangleEquilateral))
	require.NoError(t, err)

	updated, err := svc.UpdateMathProblem(ctx, model.UpdateInput{ID: created.ID, Title: ptr("X")})
	require.NoError(t, err)
	require.NotNil(t, updated)
	assert.Equal(t, "X", updated.Title)
	assert.Equal(t, created.Question, updated.Question)
	assert.Equal(t, created.Type, updated.Type)
	assert.Equal(t, created.Explanation, updated.Explanation)
	assert.Equal(t, created.SVGContent, updated.SVGContent)
	assert.True(t, created.CreatedAt.Equal(updated.CreatedAt))
	assert.True(t, updated.UpdatedAt.After(created.UpdatedAt))

	touched, err := svc.UpdateMathProblem(ctx, model.UpdateInput{ID: created.ID})
	require.NoError(t, err)
	require.NotNil(t, touched)
	assert.Equal(t, "X", touched.Title)
	assert.Equal(t, updated.Question, touched.Question)
	assert.True(t, touched.UpdatedAt.After(updated.UpdatedAt))
	assert.False(t, touched.CreatedAt.After(touched.UpdatedAt))

	missing, err := svc.UpdateMathProblem(ctx, model.UpdateInput{ID: 999999, Title: ptr("ghost")})
	require.NoError(t, err)
	assert.Nil(t, missing)

	_, err = svc.UpdateMathProblem(ctx, model.UpdateInput{ID: created.ID, Explanation: ptr("")})
	require.Error(t, err)
	assert.Equal(t, "explanation must not be empty", err.Error())

	unchanged, err := svc.GetMathProblemByID(ctx, model.ByIDInput{ID: created.ID})
	require.NoError(t, err)
	assert.Equal(t, created.Explanation, unchanged.Explanation)
}

func TestDeleteMathProblem(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	keep, err := svc.CreateMathProblem(ctx, sampleInput("keep", model.Square))
	require.NoError(t, err)
	drop, err := svc.CreateMathProblem(ctx, sampleInput("drop", model.Square))
	require.NoError(t, err)

	deleted, err := svc.DeleteMathProblem(ctx, model.ByIDInput{ID: drop.ID})
	require.NoError(t, err)
	assert.True(t, deleted)

	gone, err := svc.GetMathProblemByID(ctx, model.ByIDInput{ID: drop.ID})
	require.NoError(t, err)
	assert.Nil(t, gone)

	deleted, err = svc.DeleteMathProblem(ctx, model.ByIDInput{ID: 999999})
	require.NoError(t, err)
	assert.False(t, deleted)

	remaining, err := svc.GetMathProblems(ctx, nil)
	require.NoError(t, err)
	require.Len(t, remaining, 1)
	assert.Equal(t, keep.ID, remaining[0].ID)
}

func TestGetRandomProblem(t *testing.T) {
	svc := newSQLiteService(t)
	ctx := context.Background()

	none, err := svc.GetRandomProblem(ctx, nil)
	require.NoError(t, err)
	assert.Nil(t, none)

	for i := 0; i < 4; i++ {
		_, err := svc.CreateMathProblem(ctx, sampleInput(fmt.Sprintf("square %d", i), model.Square))
		require.NoError(t, err)
	}
	_, err = svc.CreateMathProblem(ctx, sampleInput("circle", model.Circle))
	require.NoError(t, err)

	seen := make(map[int64]bool)
	for i := 0; i < 40; i++ {
		p, err := svc.GetRandomProblem(ctx, ptr(model.Square))
		require.NoError(t, err)
		require.NotNil(t, p)
		assert.Equal(t, model.Square, p.Type)
		seen[p.ID] = true
	}
	assert.Greater(t, len(seen), 1)

	picked, err := svc.GetRandomProblem(ctx, nil)
	require.NoError(t, err)
	assert.NotNil(t, picked)

	absent, err := svc.GetRandomProblem(ctx, ptr(model.Arc))
	require.NoError(t, err)
	assert.Nil(t, absent)

	_, err = svc.GetRandomProblem(ctx, ptr(model.ProblemType("octagon")))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.InvalidProblemType, pkgerrors.GetCode(err))
}

func TestStoreFailuresAreLoggedAndOpaque(t *testing.T) {
	logs := observeLogs(t)
	storeErr := errors.New("dial tcp 10.0.0.5:5432: connection refused")
	svc := NewMathProblemService(&fakeRepository{err: storeErr})
	ctx := context.Background()

	cases := []struct {
		name string
		call func() error
		code pkgerrors.ErrorCode
	}{
		{name: "create", code: pkgerrors.MathProblemCreateFailed, call: func() error {
			_, err := svc.CreateMathProblem(ctx, sampleInput("t", model.Arc))
			return err
		}},
		{name: "list", code: pkgerrors.MathProblemQueryFailed, call: func() error {
			_, err := svc.GetMathProblems(ctx, nil)
			return err
		}},
		{name: "get", code: pkgerrors.MathProblemQueryFailed, call: func() error {
			_, err := svc.GetMathProblemByID(ctx, model.ByIDInput{ID: 1})
			return err
		}},
		{name: "update", code: pkgerrors.MathProblemUpdateFailed, call: func() error {
			_, err := svc.UpdateMathProblem(ctx, model.UpdateInput{ID: 1})
			return err
		}},
		{name: "delete", code: pkgerrors.MathProblemDeleteFailed, call: func() error {
			_, err := svc.DeleteMathProblem(ctx, model.ByIDInput{ID: 1})
			return err
		}},
		{name: "random", code: pkgerrors.MathProblemQueryFailed, call: func() error {
			_, err := svc.GetRandomProblem(ctx, nil)
			return err
		}},
		{name: "download", code: pkgerrors.MathProblemQueryFailed, call: func() error {
			_, err := svc.DownloadSVG(ctx, model.ByIDInput{ID: 1})
			return err
		}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			err := tc.call()
			require.Error(t, err)
			assert.Equal(t, tc.code, pkgerrors.GetCode(err))
			assert.NotContains(t, err.Error(), "connection refused")
			assert.ErrorIs(t, err, storeErr)
		})
	}

	entries := logs.FilterLevelExact(zapcore.ErrorLevel).All()
	assert.Len(t, entries, len(cases))
}

func TestConstraintViolationCode(t *testing.T) {
	observeLogs(t)
	svc := NewMathProblemService(&fakeRepository{
		err: fmt.Errorf("%w: CHECK constraint failed", repository.ErrConstraintViolation),
	})

	_, err := svc.CreateMathProblem(context.Background(), sampleInput("t", model.Arc))
	require.Error(t, err)
	assert.Equal(t, pkgerrors.ConstraintViolation, pkgerrors.GetCode(err))
}

func TestStoreDeadlineCode(t *testing.T) {
	observeLogs(t)
	svc := NewMathProblemService(&fakeRepository{
		err: fmt.Errorf("query failed: %w", context.DeadlineExceeded),
	})

	_, err := svc.GetMathProblems(context.Background(), nil)
	require.Error(t, err)
	assert.Equal(t, pkgerrors.Timeout, pkgerrors.GetCode(err))
	assert.Equal(t, "Request timeout", err.Error())
}

// fakeRepository fails every call with err, or reports absence when err is nil.
type fakeRepository struct {
	err   error
	calls int
}

func (f *fakeRepository) result() (model.MathProblem, error) {
	f.calls++
	if f.err != nil {
		return model.MathProblem{}, f.err
	}
	return model.MathProblem{}, repository.ErrProblemNotFound
}

func (f *fakeRepository) Create(context.Context, db.Transaction, model.CreateInput) (model.MathProblem, error) {
	return f.result()
}

func (f *fakeRepository) GetByID(context.Context, db.Transaction, int64) (model.MathProblem, error) {
	return f.result()
}

func (f *fakeRepository) List(context.Context, db.Transaction, repository.ListFilter) ([]model.MathProblem, error) {
	f.calls++
	return nil, f.err
}

func (f *fakeRepository) GetRandom(context.Context, db.Transaction, *model.ProblemType) (model.MathProblem, error) {
	return f.result()
}

func (f *fakeRepository) Update(context.Context, db.Transaction, int64, repository.UpdateFields) (model.MathProblem, error) {
	return f.result()
}

func (f *fakeRepository) Delete(context.Context, db.Transaction, int64) (bool, error) {
	f.calls++
	return false, f.err
}
