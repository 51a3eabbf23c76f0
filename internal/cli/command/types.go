package command

import (
	"fmt"
	"net/http"
	"os"
	"strconv"
	"strings"
)

// FieldType describes input type.
type FieldType int

const (
	FieldString FieldType = iota
	FieldInt
	// FieldFile reads a local file into the input key named by Field.Target.
	FieldFile
)

// Field defines a CLI input field.
type Field struct {
	Name     string
	Aliases  []string
	Prompt   string
	Type     FieldType
	Required bool
	Target   string
	// Local fields steer the CLI and are never sent.
	Local bool
}

// Command defines a CLI command binding to a remote procedure.
type Command struct {
	Service   string
	Action    string
	Procedure string
	Mutation  bool
	// Scalar sends the named field's value as the whole input instead of an object.
	Scalar string
	// SaveSVG writes the returned SVG download into the "dir" param.
	SaveSVG bool
	Fields  []Field
}

// Method returns the HTTP method for the procedure kind.
func (c Command) Method() string {
	if c.Mutation {
		return http.MethodPost
	}
	return http.MethodGet
}

// Key returns the registry key, "service action".
func (c Command) Key() string {
	return fmt.Sprintf("%s %s", c.Service, c.Action)
}

// RequestSpec is the built HTTP request.
type RequestSpec struct {
	Method  string
	Path    string
	Headers map[string]string
	Body    []byte
}

// Params holds parsed input params.
type Params map[string]string

func (p Params) Get(key string) string {
	return p[strings.ToLower(key)]
}

func (p Params) Set(key, value string) {
	p[strings.ToLower(key)] = value
}

func (p Params) Has(key string) bool {
	_, ok := p[strings.ToLower(key)]
	return ok
}

func (p Params) Canonicalize(fields []Field) {
	for _, field := range fields {
		for _, alias := range field.Aliases {
			aliasKey := strings.ToLower(alias)
			if value, ok := p[aliasKey]; ok {
				p[strings.ToLower(field.Name)] = value
				delete(p, aliasKey)
			}
		}
	}
}

// Satisfied reports whether field has a value, directly or through a file field targeting it.
func (c Command) Satisfied(field Field, params Params) bool {
	if params.Get(field.Name) != "" {
		return true
	}
	for _, other := range c.Fields {
		if other.Type == FieldFile && other.Target == field.Name && params.Get(other.Name) != "" {
			return true
		}
	}
	return false
}

func ParseInt64(value string) (int64, error) {
	return strconv.ParseInt(strings.TrimSpace(value), 10, 64)
}

func ReadFile(path string) (string, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return "", fmt.Errorf("read file failed: %w", err)
	}
	return string(data), nil
}
