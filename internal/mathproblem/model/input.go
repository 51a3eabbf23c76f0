package model

import (
	"bytes"
	"encoding/json"
	"strings"

	pkgerrors "mathtutor/pkg/errors"
)

const (
	DefaultListLimit = 50
	MaxListLimit     = 100
)

// CreateInput carries the fields of a new math problem.
type CreateInput struct {
	Title       string      `json:"title" validate:"required"`
	Question    string      `json:"question" validate:"required"`
	Type        ProblemType `json:"type" validate:"required,problemtype"`
	Explanation string      `json:"explanation" validate:"required"`
	SVGContent  string      `json:"svg_content" validate:"required"`
}

// UpdateInput is a sparse update: nil fields are left untouched.
type UpdateInput struct {
	ID          int64        `json:"id" validate:"required,gt=0"`
	Title       *string      `json:"title,omitempty" validate:"omitnil,min=1"`
	Question    *string      `json:"question,omitempty" validate:"omitnil,min=1"`
	Type        *ProblemType `json:"type,omitempty" validate:"omitnil,problemtype"`
	Explanation *string      `json:"explanation,omitempty" validate:"omitnil,min=1"`
	SVGContent  *string      `json:"svg_content,omitempty" validate:"omitnil,min=1"`
}

var nullableUpdateFields = []string{"title", "question", "type", "explanation", "svg_content"}

// UnmarshalJSON rejects an explicit null for an optional field. Omit the field to keep its value.
func (in *UpdateInput) UnmarshalJSON(data []byte) error {
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(data, &fields); err == nil {
		for key, raw := range fields {
			if !bytes.Equal(bytes.TrimSpace(raw), []byte("null")) {
				continue
			}
			for _, name := range nullableUpdateFields {
				if strings.EqualFold(key, name) {
					return pkgerrors.ValidationError(name, "must not be null")
				}
			}
		}
	}
	type plain UpdateInput
	return json.Unmarshal(data, (*plain)(in))
}

// HasChanges reports whether any field beyond the id was supplied.
func (in UpdateInput) HasChanges() bool {
	return in.Title != nil || in.Question != nil || in.Type != nil ||
		in.Explanation != nil || in.SVGContent != nil
}

// ByIDInput addresses a single math problem.
type ByIDInput struct {
	ID int64 `json:"id" validate:"required,gt=0"`
}

// RandomInput optionally restricts the random pick to one type.
type RandomInput struct {
	Type *ProblemType `json:"type,omitempty" validate:"omitnil,problemtype"`
}

// ListInput filters and paginates the problem list.
type ListInput struct {
	Type   *ProblemType `json:"type,omitempty" validate:"omitnil,problemtype"`
	Limit  *int         `json:"limit,omitempty" validate:"omitnil,min=1,max=100"`
	Offset *int         `json:"offset,omitempty" validate:"omitnil,min=0"`
}

// Normalize returns the effective limit and offset.
func (in ListInput) Normalize() (limit, offset int) {
	limit, offset = DefaultListLimit, 0
	if in.Limit != nil {
		limit = *in.Limit
	}
	if in.Offset != nil {
		offset = *in.Offset
	}
	return limit, offset
}
