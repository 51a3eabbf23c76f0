package repository

import (
	"context"
	"errors"
	"fmt"
	"strings"
	"time"

	"mathtutor/internal/common/db"
	"mathtutor/internal/mathproblem/model"
)

const defaultListLimit = model.DefaultListLimit

var (
	ErrProblemNotFound     = errors.New("math problem not found")
	ErrConstraintViolation = errors.New("math problem constraint violated")
)

const mathProblemColumns = "id, title, question, type, explanation, svg_content, created_at, updated_at"

// ListFilter selects a page of problems, newest first.
type ListFilter struct {
	Type   *model.ProblemType
	Limit  int
	Offset int
}

// UpdateFields holds the columns of a sparse update; nil means unchanged.
type UpdateFields struct {
	Title       *string
	Question    *string
	Type        *model.ProblemType
	Explanation *string
	SVGContent  *string
}

type MathProblemRepository interface {
	Create(ctx context.Context, tx db.Transaction, input model.CreateInput) (model.MathProblem, error)
	GetByID(ctx context.Context, tx db.Transaction, id int64) (model.MathProblem, error)
	List(ctx context.Context, tx db.Transaction, filter ListFilter) ([]model.MathProblem, error)
	GetRandom(ctx context.Context, tx db.Transaction, problemType *model.ProblemType) (model.MathProblem, error)
	Update(ctx context.Context, tx db.Transaction, id int64, fields UpdateFields) (model.MathProblem, error)
	Delete(ctx context.Context, tx db.Transaction, id int64) (bool, error)
}

// Option configures a SQLMathProblemRepository.
type Option func(*SQLMathProblemRepository)

// WithClock overrides the source of created_at/updated_at.
func WithClock(now func() time.Time) Option {
	return func(r *SQLMathProblemRepository) {
		if now != nil {
			r.now = now
		}
	}
}

// SQLMathProblemRepository stores math problems in a single relational table.
type SQLMathProblemRepository struct {
	db  db.Database
	now func() time.Time
}

func NewMathProblemRepository(database db.Database, opts ...Option) *SQLMathProblemRepository {
	r := &SQLMathProblemRepository{db: database, now: time.Now}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// timestamp returns the current time at the precision every supported store keeps.
func (r *SQLMathProblemRepository) timestamp() time.Time {
	return r.now().UTC().Truncate(time.Microsecond)
}

func (r *SQLMathProblemRepository) Create(ctx context.Context, tx db.Transaction, input model.CreateInput) (model.MathProblem, error) {
	now := r.timestamp()
	args := []interface{}{input.Title, input.Question, string(input.Type), input.Explanation, input.SVGContent, now, now}
	query := `
		INSERT INTO math_problems (title, question, type, explanation, svg_content, created_at, updated_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)`

	querier := db.GetQuerier(r.db, tx)
	if r.db.Dialect().Returning {
		row := querier.QueryRow(ctx, query+" RETURNING "+mathProblemColumns, args...)
		problem, err := scanMathProblem(row)
		if err != nil {
			return model.MathProblem{}, classify(err)
		}
		return problem, nil
	}

	result, err := querier.Exec(ctx, query, args...)
	if err != nil {
		return model.MathProblem{}, classify(err)
	}
	id, err := result.LastInsertId()
	if err != nil {
		return model.MathProblem{}, err
	}
	return model.MathProblem{
		ID:          id,
		Title:       input.Title,
		Question:    input.Question,
		Type:        input.Type,
		Explanation: input.Explanation,
		SVGContent:  input.SVGContent,
		CreatedAt:   now,
		UpdatedAt:   now,
	}, nil
}

func (r *SQLMathProblemRepository) GetByID(ctx context.Context, tx db.Transaction, id int64) (model.MathProblem, error) {
	return r.getByID(ctx, db.GetQuerier(r.db, tx), id)
}

func (r *SQLMathProblemRepository) getByID(ctx context.Context, querier db.Querier, id int64) (model.MathProblem, error) {
	query := "SELECT " + mathProblemColumns + " FROM math_problems WHERE id = ?"
	problem, err := scanMathProblem(querier.QueryRow(ctx, query, id))
	if err != nil {
		if db.IsNoRows(err) {
			return model.MathProblem{}, ErrProblemNotFound
		}
		return model.MathProblem{}, err
	}
	return problem, nil
}

func (r *SQLMathProblemRepository) List(ctx context.Context, tx db.Transaction, filter ListFilter) ([]model.MathProblem, error) {
	if filter.Limit <= 0 {
		filter.Limit = defaultListLimit
	}
	if filter.Offset < 0 {
		filter.Offset = 0
	}

	var (
		query strings.Builder
		args  []interface{}
	)
	query.WriteString("SELECT " + mathProblemColumns + " FROM math_problems")
	if filter.Type != nil {
		query.WriteString(" WHERE type = ?")
		args = append(args, string(*filter.Type))
	}
	query.WriteString(" ORDER BY created_at DESC, id DESC LIMIT ? OFFSET ?")
	args = append(args, filter.Limit, filter.Offset)

	rows, err := db.GetQuerier(r.db, tx).Query(ctx, query.String(), args...)
	if err != nil {
		return nil, err
	}
	defer rows.Close()

	problems := make([]model.MathProblem, 0)
	for rows.Next() {
		problem, err := scanMathProblem(rows)
		if err != nil {
			return nil, err
		}
		problems = append(problems, problem)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}
	return problems, nil
}

func (r *SQLMathProblemRepository) GetRandom(ctx context.Context, tx db.Transaction, problemType *model.ProblemType) (model.MathProblem, error) {
	query := "SELECT " + mathProblemColumns + " FROM math_problems"
	var args []interface{}
	if problemType != nil {
		query += " WHERE type = ?"
		args = append(args, string(*problemType))
	}
	query += " ORDER BY " + r.db.Dialect().RandomFunc + " LIMIT 1"

	problem, err := scanMathProblem(db.GetQuerier(r.db, tx).QueryRow(ctx, query, args...))
	if err != nil {
		if db.IsNoRows(err) {
			return model.MathProblem{}, ErrProblemNotFound
		}
		return model.MathProblem{}, err
	}
	return problem, nil
}

// Update applies the supplied columns and always refreshes updated_at.
func (r *SQLMathProblemRepository) Update(ctx context.Context, tx db.Transaction, id int64, fields UpdateFields) (model.MathProblem, error) {
	sets, args := fields.assignments()
	sets = append(sets, "updated_at = ?")
	args = append(args, r.timestamp(), id)
	query := "UPDATE math_problems SET " + strings.Join(sets, ", ") + " WHERE id = ?"

	if r.db.Dialect().Returning {
		row := db.GetQuerier(r.db, tx).QueryRow(ctx, query+" RETURNING "+mathProblemColumns, args...)
		problem, err := scanMathProblem(row)
		if err != nil {
			if db.IsNoRows(err) {
				return model.MathProblem{}, ErrProblemNotFound
			}
			return model.MathProblem{}, classify(err)
		}
		return problem, nil
	}

	// Without RETURNING the write and the read share one transaction so the
	// caller sees exactly the row it wrote.
	var problem model.MathProblem
	apply := func(querier db.Querier) error {
		if _, err := querier.Exec(ctx, query, args...); err != nil {
			return classify(err)
		}
		var err error
		problem, err = r.getByID(ctx, querier, id)
		return err
	}
	if tx != nil {
		if err := apply(tx); err != nil {
			return model.MathProblem{}, err
		}
		return problem, nil
	}
	err := r.db.Transaction(ctx, func(tx db.Transaction) error {
		return apply(tx)
	})
	if err != nil {
		return model.MathProblem{}, err
	}
	return problem, nil
}

func (r *SQLMathProblemRepository) Delete(ctx context.Context, tx db.Transaction, id int64) (bool, error) {
	result, err := db.GetQuerier(r.db, tx).Exec(ctx, "DELETE FROM math_problems WHERE id = ?", id)
	if err != nil {
		return false, err
	}
	affected, err := result.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func (f UpdateFields) assignments() ([]string, []interface{}) {
	var (
		sets []string
		args []interface{}
	)
	if f.Title != nil {
		sets = append(sets, "title = ?")
		args = append(args, *f.Title)
	}
	if f.Question != nil {
		sets = append(sets, "question = ?")
		args = append(args, *f.Question)
	}
	if f.Type != nil {
		sets = append(sets, "type = ?")
		args = append(args, string(*f.Type))
	}
	if f.Explanation != nil {
		sets = append(sets, "explanation = ?")
		args = append(args, *f.Explanation)
	}
	if f.SVGContent != nil {
		sets = append(sets, "svg_content = ?")
		args = append(args, *f.SVGContent)
	}
	return sets, args
}

func scanMathProblem(scanner db.Scanner) (model.MathProblem, error) {
	var (
		problem     model.MathProblem
		problemType string
	)
	err := scanner.Scan(
		&problem.ID,
		&problem.Title,
		&problem.Question,
		&problemType,
		&problem.Explanation,
		&problem.SVGContent,
		&problem.CreatedAt,
		&problem.UpdatedAt,
	)
	if err != nil {
		return model.MathProblem{}, err
	}
	problem.Type = model.ProblemType(problemType)
	problem.CreatedAt = problem.CreatedAt.UTC()
	problem.UpdatedAt = problem.UpdatedAt.UTC()
	return problem, nil
}

func classify(err error) error {
	if db.IsConstraintViolation(err) {
		return fmt.Errorf("%w: %v", ErrConstraintViolation, err)
	}
	return err
}
