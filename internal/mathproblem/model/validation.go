package model

import (
	"encoding/json"
	stderrors "errors"
	"reflect"
	"strings"
	"sync"

	pkgerrors "mathtutor/pkg/errors"

	"github.com/go-playground/validator/v10"
)

var (
	validateOnce sync.Once
	validate     *validator.Validate
)

func validatorInstance() *validator.Validate {
	validateOnce.Do(func() {
		v := validator.New(validator.WithRequiredStructEnabled())
		v.RegisterTagNameFunc(func(field reflect.StructField) string {
			name := strings.SplitN(field.Tag.Get("json"), ",", 2)[0]
			if name == "-" {
				return ""
			}
			return name
		})
		_ = v.RegisterValidation("problemtype", func(fl validator.FieldLevel) bool {
			return ProblemType(fl.Field().String()).Valid()
		})
		validate = v
	})
	return validate
}

// Validate checks an input struct and reports the first offending field.
func Validate(input interface{}) error {
	err := validatorInstance().Struct(input)
	if err == nil {
		return nil
	}
	var fieldErrs validator.ValidationErrors
	if !stderrors.As(err, &fieldErrs) || len(fieldErrs) == 0 {
		return pkgerrors.Wrap(err, pkgerrors.ValidationFailed)
	}
	return fieldError(fieldErrs[0])
}

func fieldError(fe validator.FieldError) error {
	field := fe.Field()
	switch fe.Tag() {
	case "problemtype":
		return pkgerrors.Newf(pkgerrors.InvalidProblemType, "%s must be one of %s", field, problemTypeList()).
			WithDetail("field", field).
			WithDetail("reason", "must be one of "+problemTypeList())
	case "required":
		if fe.Kind() == reflect.String {
			return pkgerrors.ValidationError(field, "is required")
		}
		return pkgerrors.ValidationError(field, "must be a positive integer")
	case "min":
		if fe.Kind() == reflect.String {
			return pkgerrors.ValidationError(field, "must not be empty")
		}
		return pkgerrors.ValidationError(field, "must be at least "+fe.Param())
	case "max":
		return pkgerrors.ValidationError(field, "must be at most "+fe.Param())
	case "gt":
		return pkgerrors.ValidationError(field, "must be a positive integer")
	default:
		return pkgerrors.ValidationError(field, "is invalid")
	}
}

// DecodeError converts a JSON decoding failure into a validation error.
func DecodeError(err error) error {
	var coded *pkgerrors.Error
	if stderrors.As(err, &coded) {
		return coded
	}
	var typeErr *json.UnmarshalTypeError
	if stderrors.As(err, &typeErr) {
		field := typeErr.Field
		if field == "" {
			field = "input"
		}
		return pkgerrors.ValidationError(field, "must be "+jsonKind(typeErr.Type))
	}
	return pkgerrors.Wrapf(err, pkgerrors.InvalidFormat, "malformed JSON input")
}

func jsonKind(t reflect.Type) string {
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return "a valid value"
	}
	switch t.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return "an integer"
	case reflect.String:
		return "a string"
	case reflect.Bool:
		return "a boolean"
	case reflect.Struct:
		return "an object"
	default:
		return "a valid value"
	}
}

func problemTypeList() string {
	names := make([]string, len(problemTypes))
	for i, t := range problemTypes {
		names[i] = string(t)
	}
	return strings.Join(names, ", ")
}
