package model

import (
	"fmt"
	"time"
)

// ProblemType is the geometric category of a math problem.
type ProblemType string

const (
	TriangleRectangle   ProblemType = "triangle_rectangle"
	TriangleEquilateral ProblemType = "triangle_equilateral"
	Square              ProblemType = "square"
	Rectangle           ProblemType = "rectangle"
	Circle              ProblemType = "circle"
	Arc                 ProblemType = "arc"
)

var problemTypes = []ProblemType{
	TriangleRectangle,
	TriangleEquilateral,
	Square,
	Rectangle,
	Circle,
	Arc,
}

// ProblemTypes returns every accepted problem type in declaration order.
func ProblemTypes() []ProblemType {
	out := make([]ProblemType, len(problemTypes))
	copy(out, problemTypes)
	return out
}

// Valid reports whether t belongs to the closed set of problem types.
func (t ProblemType) Valid() bool {
	switch t {
	case TriangleRectangle, TriangleEquilateral, Square, Rectangle, Circle, Arc:
		return true
	}
	return false
}

func (t ProblemType) String() string {
	return string(t)
}

// ParseProblemType converts a wire value into a ProblemType.
func ParseProblemType(value string) (ProblemType, error) {
	t := ProblemType(value)
	if !t.Valid() {
		return "", fmt.Errorf("unknown problem type %q", value)
	}
	return t, nil
}

// MathProblem is a persisted math problem with its SVG illustration.
type MathProblem struct {
	ID          int64       `json:"id"`
	Title       string      `json:"title"`
	Question    string      `json:"question"`
	Type        ProblemType `json:"type"`
	Explanation string      `json:"explanation"`
	SVGContent  string      `json:"svg_content"`
	CreatedAt   time.Time   `json:"created_at"`
	UpdatedAt   time.Time   `json:"updated_at"`
}

// SVGDownload packages an SVG illustration as a downloadable file.
type SVGDownload struct {
	Filename string `json:"filename"`
	Content  string `json:"content"`
	MimeType string `json:"mimeType"`
}
