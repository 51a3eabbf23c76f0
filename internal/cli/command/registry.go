package command

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/url"
	"os"
	"path/filepath"

	"mathtutor/internal/mathproblem/model"
	pkgerrors "mathtutor/pkg/errors"
)

var problemFields = []Field{
	{Name: "title", Prompt: "title", Type: FieldString, Required: true},
	{Name: "question", Prompt: "question", Type: FieldString, Required: true},
	{Name: "type", Prompt: "type", Type: FieldString, Required: true},
	{Name: "explanation", Prompt: "explanation", Type: FieldString, Required: true},
	{Name: "svg_content", Aliases: []string{"svg"}, Prompt: "svg_content", Type: FieldString, Required: true},
	{Name: "svg_file", Type: FieldFile, Target: "svg_content"},
}

// Registry returns all CLI commands keyed by "service action".
func Registry() map[string]Command {
	commands := []Command{
		{
			Service:   "problem",
			Action:    "health",
			Procedure: "healthcheck",
		},
		{
			Service:   "problem",
			Action:    "create",
			Procedure: "createMathProblem",
			Mutation:  true,
			Fields:    problemFields,
		},
		{
			Service:   "problem",
			Action:    "list",
			Procedure: "getMathProblems",
			Fields: []Field{
				{Name: "type", Prompt: "type", Type: FieldString},
				{Name: "limit", Prompt: "limit", Type: FieldInt},
				{Name: "offset", Prompt: "offset", Type: FieldInt},
			},
		},
		{
			Service:   "problem",
			Action:    "get",
			Procedure: "getMathProblemById",
			Fields: []Field{
				{Name: "id", Prompt: "problem_id", Type: FieldInt, Required: true},
			},
		},
		{
			Service:   "problem",
			Action:    "update",
			Procedure: "updateMathProblem",
			Mutation:  true,
			Fields: append([]Field{
				{Name: "id", Prompt: "problem_id", Type: FieldInt, Required: true},
			}, optional(problemFields)...),
		},
		{
			Service:   "problem",
			Action:    "delete",
			Procedure: "deleteMathProblem",
			Mutation:  true,
			Fields: []Field{
				{Name: "id", Prompt: "problem_id", Type: FieldInt, Required: true},
			},
		},
		{
			Service:   "problem",
			Action:    "random",
			Procedure: "getRandomProblem",
			Scalar:    "type",
			Fields: []Field{
				{Name: "type", Prompt: "type", Type: FieldString},
			},
		},
		{
			Service:   "svg",
			Action:    "show",
			Procedure: "downloadSvg",
			Fields: []Field{
				{Name: "id", Prompt: "problem_id", Type: FieldInt, Required: true},
			},
		},
		{
			Service:   "svg",
			Action:    "save",
			Procedure: "downloadSvg",
			SaveSVG:   true,
			Fields: []Field{
				{Name: "id", Prompt: "problem_id", Type: FieldInt, Required: true},
				{Name: "dir", Aliases: []string{"out"}, Prompt: "output_dir", Type: FieldString, Local: true},
			},
		},
	}

	result := make(map[string]Command, len(commands))
	for _, cmd := range commands {
		result[cmd.Key()] = cmd
	}
	return result
}

func optional(fields []Field) []Field {
	out := make([]Field, len(fields))
	for i, f := range fields {
		f.Required = false
		out[i] = f
	}
	return out
}

// BuildRequest creates the procedure call for a command.
// Queries carry their input in the "input" query parameter, mutations in the body.
func BuildRequest(cmd Command, params Params) (RequestSpec, error) {
	params.Canonicalize(cmd.Fields)
	for _, field := range cmd.Fields {
		if field.Required && !cmd.Satisfied(field, params) {
			return RequestSpec{}, fmt.Errorf("missing required field: %s", field.Name)
		}
	}

	input, err := buildInput(cmd, params)
	if err != nil {
		return RequestSpec{}, err
	}
	var raw []byte
	if input != nil {
		raw, err = encodeInput(input)
		if err != nil {
			return RequestSpec{}, fmt.Errorf("marshal request input failed: %w", err)
		}
	}

	spec := RequestSpec{
		Method:  cmd.Method(),
		Path:    "/rpc/" + cmd.Procedure,
		Headers: map[string]string{},
	}
	if cmd.Mutation {
		spec.Body = raw
	} else if raw != nil {
		spec.Path += "?" + url.Values{"input": []string{string(raw)}}.Encode()
	}
	return spec, nil
}

// encodeInput keeps SVG markup readable on the wire.
func encodeInput(input interface{}) ([]byte, error) {
	var buf bytes.Buffer
	enc := json.NewEncoder(&buf)
	enc.SetEscapeHTML(false)
	if err := enc.Encode(input); err != nil {
		return nil, err
	}
	return bytes.TrimRight(buf.Bytes(), "\n"), nil
}

func buildInput(cmd Command, params Params) (interface{}, error) {
	if cmd.Scalar != "" {
		if value := params.Get(cmd.Scalar); value != "" {
			return value, nil
		}
		return nil, nil
	}

	payload := map[string]interface{}{}
	for _, field := range cmd.Fields {
		value := params.Get(field.Name)
		if field.Local || value == "" {
			continue
		}
		switch field.Type {
		case FieldInt:
			n, err := ParseInt64(value)
			if err != nil {
				return nil, fmt.Errorf("invalid %s: %w", field.Name, err)
			}
			payload[field.Name] = n
		case FieldFile:
			content, err := ReadFile(value)
			if err != nil {
				return nil, err
			}
			payload[field.Target] = content
		default:
			payload[field.Name] = value
		}
	}
	if len(payload) == 0 {
		return nil, nil
	}
	return payload, nil
}

// WriteSVG stores the SVG carried by a downloadSvg response under dir and returns its path.
func WriteSVG(dir string, body []byte) (string, error) {
	var resp struct {
		Code    pkgerrors.ErrorCode `json:"code"`
		Message string              `json:"message"`
		Data    *model.SVGDownload  `json:"data"`
	}
	if err := json.Unmarshal(body, &resp); err != nil {
		return "", fmt.Errorf("parse response failed: %w", err)
	}
	if resp.Code != pkgerrors.Success {
		return "", fmt.Errorf("server error %d: %s", resp.Code, resp.Message)
	}
	if resp.Data == nil {
		return "", fmt.Errorf("problem not found")
	}

	if dir == "" {
		dir = "."
	}
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return "", fmt.Errorf("create output dir failed: %w", err)
	}
	path := filepath.Join(dir, filepath.Base(resp.Data.Filename))
	if err := os.WriteFile(path, []byte(resp.Data.Content), 0o644); err != nil {
		return "", fmt.Errorf("write svg failed: %w", err)
	}
	return path, nil
}
