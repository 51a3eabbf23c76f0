package errors

import "net/http"

// ErrorCode represents a unique error identifier
type ErrorCode int

// Error code ranges allocation:
// 10000-10999: System & Common errors
// 12000-12999: Math problem module errors

const (
	// ========== System & Common Errors (10000-10999) ==========

	// Success
	Success ErrorCode = 10000

	// Generic errors (10000-10099)
	InternalServerError ErrorCode = 10001
	InvalidParams       ErrorCode = 10002
	NotFound            ErrorCode = 10003
	MethodNotAllowed    ErrorCode = 10004
	Timeout             ErrorCode = 10008

	// Database errors (10100-10199)
	ConstraintViolation ErrorCode = 10104

	// Validation errors (10300-10399)
	ValidationFailed ErrorCode = 10300
	InvalidFormat    ErrorCode = 10301

	// ========== Math Problem Module Errors (12000-12999) ==========

	// Math problem basic (12000-12099)
	MathProblemNotFound     ErrorCode = 12000
	MathProblemCreateFailed ErrorCode = 12002
	MathProblemUpdateFailed ErrorCode = 12003
	MathProblemDeleteFailed ErrorCode = 12004
	MathProblemQueryFailed  ErrorCode = 12005

	// Problem types (12100-12199)
	InvalidProblemType ErrorCode = 12100
)

// errorMessages maps error codes to their default English messages
var errorMessages = map[ErrorCode]string{
	// System & Common
	Success:             "Success",
	InternalServerError: "Internal server error",
	InvalidParams:       "Invalid parameters",
	NotFound:            "Resource not found",
	MethodNotAllowed:    "Method not allowed",
	Timeout:             "Request timeout",

	// Database
	ConstraintViolation: "Database constraint violated",

	// Validation
	ValidationFailed: "Validation failed",
	InvalidFormat:    "Invalid format",

	// Math problem
	MathProblemNotFound:     "Math problem not found",
	MathProblemCreateFailed: "Failed to create math problem",
	MathProblemUpdateFailed: "Failed to update math problem",
	MathProblemDeleteFailed: "Failed to delete math problem",
	MathProblemQueryFailed:  "Failed to query math problems",
	InvalidProblemType:      "Invalid math problem type",
}

// Message returns the default message for the error code
func (c ErrorCode) Message() string {
	if msg, ok := errorMessages[c]; ok {
		return msg
	}
	return "Unknown error"
}

// HTTPStatus returns the recommended HTTP status code for the error code
func (c ErrorCode) HTTPStatus() int {
	switch {
	case c == Success:
		return http.StatusOK
	case c == NotFound, c == MathProblemNotFound:
		return http.StatusNotFound
	case c == MethodNotAllowed:
		return http.StatusMethodNotAllowed
	case c == Timeout:
		return http.StatusGatewayTimeout
	case c >= 10300 && c < 10400: // Validation errors
		return http.StatusBadRequest
	case c == InvalidParams, c == InvalidProblemType, c == ConstraintViolation:
		return http.StatusBadRequest
	default:
		return http.StatusInternalServerError
	}
}
