package service

import (
	"context"
	"errors"
	"fmt"

	"mathtutor/internal/mathproblem/model"
	"mathtutor/internal/mathproblem/repository"
	pkgerrors "mathtutor/pkg/errors"
	"mathtutor/pkg/utils/logger"

	"go.uber.org/zap"
)

// MathProblemService validates requests and delegates each one to the repository once.
type MathProblemService struct {
	repo repository.MathProblemRepository
}

// NewMathProblemService creates a new MathProblemService.
func NewMathProblemService(repo repository.MathProblemRepository) *MathProblemService {
	return &MathProblemService{repo: repo}
}

// CreateMathProblem persists a new problem and returns the stored record.
func (s *MathProblemService) CreateMathProblem(ctx context.Context, input model.CreateInput) (*model.MathProblem, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	problem, err := s.repo.Create(ctx, nil, input)
	if err != nil {
		return nil, s.storeFailure(ctx, "create math problem failed", err, pkgerrors.MathProblemCreateFailed,
			zap.String("type", string(input.Type)))
	}
	return &problem, nil
}

// GetMathProblems lists problems newest first. A nil input lists without a filter.
func (s *MathProblemService) GetMathProblems(ctx context.Context, input *model.ListInput) ([]model.MathProblem, error) {
	if input == nil {
		input = &model.ListInput{}
	}
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	limit, offset := input.Normalize()
	problems, err := s.repo.List(ctx, nil, repository.ListFilter{
		Type:   input.Type,
		Limit:  limit,
		Offset: offset,
	})
	if err != nil {
		return nil, s.storeFailure(ctx, "list math problems failed", err, pkgerrors.MathProblemQueryFailed,
			zap.Int("limit", limit), zap.Int("offset", offset))
	}
	if problems == nil {
		problems = []model.MathProblem{}
	}
	return problems, nil
}

// GetMathProblemByID returns the problem, or nil when it does not exist.
func (s *MathProblemService) GetMathProblemByID(ctx context.Context, input model.ByIDInput) (*model.MathProblem, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	problem, err := s.repo.GetByID(ctx, nil, input.ID)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, nil
		}
		return nil, s.storeFailure(ctx, "get math problem failed", err, pkgerrors.MathProblemQueryFailed,
			zap.Int64("problem_id", input.ID))
	}
	return &problem, nil
}

// UpdateMathProblem applies only the supplied fields and refreshes updated_at.
// It returns nil when the problem does not exist.
func (s *MathProblemService) UpdateMathProblem(ctx context.Context, input model.UpdateInput) (*model.MathProblem, error) {
	if err := model.Validate(input); err != nil {
		return nil, err
	}

	problem, err := s.repo.Update(ctx, nil, input.ID, repository.UpdateFields{
		Title:       input.Title,
		Question:    input.Question,
		Type:        input.Type,
		Explanation: input.Explanation,
		SVGContent:  input.SVGContent,
	})
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, nil
		}
		return nil, s.storeFailure(ctx, "update math problem failed", err, pkgerrors.MathProblemUpdateFailed,
			zap.Int64("problem_id", input.ID), zap.Bool("has_changes", input.HasChanges()))
	}
	return &problem, nil
}

// DeleteMathProblem reports whether a row was actually removed.
func (s *MathProblemService) DeleteMathProblem(ctx context.Context, input model.ByIDInput) (bool, error) {
	if err := model.Validate(input); err != nil {
		return false, err
	}

	deleted, err := s.repo.Delete(ctx, nil, input.ID)
	if err != nil {
		return false, s.storeFailure(ctx, "delete math problem failed", err, pkgerrors.MathProblemDeleteFailed,
			zap.Int64("problem_id", input.ID))
	}
	if !deleted {
		logger.Debug(ctx, "delete skipped, math problem not found", zap.Int64("problem_id", input.ID))
	}
	return deleted, nil
}

// GetRandomProblem picks one problem uniformly at random, optionally of one type.
// It returns nil when nothing matches.
func (s *MathProblemService) GetRandomProblem(ctx context.Context, problemType *model.ProblemType) (*model.MathProblem, error) {
	if err := model.Validate(model.RandomInput{Type: problemType}); err != nil {
		return nil, err
	}

	problem, err := s.repo.GetRandom(ctx, nil, problemType)
	if err != nil {
		if errors.Is(err, repository.ErrProblemNotFound) {
			return nil, nil
		}
		return nil, s.storeFailure(ctx, "get random math problem failed", err, pkgerrors.MathProblemQueryFailed)
	}
	return &problem, nil
}

// storeFailure logs a failed store call and hides its cause behind the operation's code.
func (s *MathProblemService) storeFailure(ctx context.Context, msg string, err error, code pkgerrors.ErrorCode, fields ...zap.Field) error {
	switch {
	case errors.Is(err, repository.ErrConstraintViolation):
		code = pkgerrors.ConstraintViolation
	case errors.Is(err, context.DeadlineExceeded):
		code = pkgerrors.Timeout
	}
	logger.Error(ctx, msg, append(fields, zap.Error(err))...)
	return pkgerrors.Wrap(fmt.Errorf("%s: %w", msg, err), code)
}
