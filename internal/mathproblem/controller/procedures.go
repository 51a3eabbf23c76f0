package controller

import (
	"bytes"
	"context"
	"encoding/json"
	"time"

	"mathtutor/internal/mathproblem/model"
	"mathtutor/internal/mathproblem/service"
)

// ProcedureKind separates read procedures (GET) from writes (POST).
type ProcedureKind int

const (
	Query ProcedureKind = iota
	Mutation
)

func (k ProcedureKind) String() string {
	if k == Mutation {
		return "mutation"
	}
	return "query"
}

// Procedure binds a remote procedure name to a handler.
type Procedure struct {
	Name   string
	Kind   ProcedureKind
	Handle func(ctx context.Context, input json.RawMessage) (interface{}, error)
}

// isoMillis is RFC 3339 with fixed millisecond precision.
const isoMillis = "2006-01-02T15:04:05.000Z07:00"

// HealthStatus is the healthcheck payload.
type HealthStatus struct {
	Status    string `json:"status"`
	Timestamp string `json:"timestamp"`
}

func buildProcedures(svc *service.MathProblemService, now func() time.Time) map[string]Procedure {
	procedures := []Procedure{
		{Name: "healthcheck", Kind: Query, Handle: func(context.Context, json.RawMessage) (interface{}, error) {
			return HealthStatus{Status: "ok", Timestamp: now().UTC().Format(isoMillis)}, nil
		}},
		{Name: "createMathProblem", Kind: Mutation, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var input model.CreateInput
			if err := decodeInput(raw, &input); err != nil {
				return nil, err
			}
			return svc.CreateMathProblem(ctx, input)
		}},
		{Name: "getMathProblems", Kind: Query, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var input *model.ListInput
			if err := decodeInput(raw, &input); err != nil {
				return nil, err
			}
			return svc.GetMathProblems(ctx, input)
		}},
		{Name: "getMathProblemById", Kind: Query, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var input model.ByIDInput
			if err := decodeInput(raw, &input); err != nil {
				return nil, err
			}
			return svc.GetMathProblemByID(ctx, input)
		}},
		{Name: "updateMathProblem", Kind: Mutation, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var input model.UpdateInput
			if err := decodeInput(raw, &input); err != nil {
				return nil, err
			}
			return svc.UpdateMathProblem(ctx, input)
		}},
		{Name: "deleteMathProblem", Kind: Mutation, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var input model.ByIDInput
			if err := decodeInput(raw, &input); err != nil {
				return nil, err
			}
			return svc.DeleteMathProblem(ctx, input)
		}},
		{Name: "downloadSvg", Kind: Query, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var input model.ByIDInput
			if err := decodeInput(raw, &input); err != nil {
				return nil, err
			}
			return svc.DownloadSVG(ctx, input)
		}},
		{Name: "getRandomProblem", Kind: Query, Handle: func(ctx context.Context, raw json.RawMessage) (interface{}, error) {
			var problemType *model.ProblemType
			if err := decodeInput(raw, &problemType); err != nil {
				return nil, err
			}
			return svc.GetRandomProblem(ctx, problemType)
		}},
	}

	byName := make(map[string]Procedure, len(procedures))
	for _, p := range procedures {
		byName[p.Name] = p
	}
	return byName
}

// decodeInput leaves dst untouched for an empty input.
func decodeInput(raw []byte, dst interface{}) error {
	if len(bytes.TrimSpace(raw)) == 0 {
		return nil
	}
	if err := json.Unmarshal(raw, dst); err != nil {
		return model.DecodeError(err)
	}
	return nil
}
