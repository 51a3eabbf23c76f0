package service

import (
	"context"
	"regexp"
	"strconv"
	"strings"

	"mathtutor/internal/mathproblem/model"
)

const SVGMimeType = "image/svg+xml"

var nonAlphanumeric = regexp.MustCompile(`[^a-z0-9]+`)

// DownloadSVG packages a problem's illustration as a file. It returns nil when
// the problem does not exist.
func (s *MathProblemService) DownloadSVG(ctx context.Context, input model.ByIDInput) (*model.SVGDownload, error) {
	problem, err := s.GetMathProblemByID(ctx, input)
	if err != nil || problem == nil {
		return nil, err
	}
	return &model.SVGDownload{
		Filename: SVGFilename(input.ID, problem.Title),
		Content:  problem.SVGContent,
		MimeType: SVGMimeType,
	}, nil
}

// SanitizeTitle lower-cases title, collapses every run of characters outside
// [a-z0-9] into one underscore and trims underscores at both ends.
func SanitizeTitle(title string) string {
	sanitized := nonAlphanumeric.ReplaceAllString(strings.ToLower(title), "_")
	return strings.Trim(sanitized, "_")
}

// SVGFilename names the download. An empty sanitized title still keeps the
// separator, e.g. "math_problem_7_.svg".
func SVGFilename(id int64, title string) string {
	return "math_problem_" + strconv.FormatInt(id, 10) + "_" + SanitizeTitle(title) + ".svg"
}
