package apperrors

import (
	"errors"
	"fmt"
	"net/http"
)

// ValidationError is a caller-side input problem: empty text, a file without a
// text column, an unsupported upload. The action is aborted and nothing is analyzed.
type ValidationError struct {
	Msg string
}

func (e *ValidationError) Error() string {
	return e.Msg
}

func Validation(format string, args ...any) error {
	return &ValidationError{Msg: fmt.Sprintf(format, args...)}
}

// InferenceError wraps a classifier failure. Stage names the model that failed
// and Row is the 1-based data row for batch runs (zero otherwise).
type InferenceError struct {
	Stage string
	Row   int
	Err   error
}

func (e *InferenceError) Error() string {
	if e.Row > 0 {
		return fmt.Sprintf("%s inference failed on row %d: %v", e.Stage, e.Row, e.Err)
	}
	return fmt.Sprintf("%s inference failed: %v", e.Stage, e.Err)
}

func (e *InferenceError) Unwrap() error {
	return e.Err
}

func Inference(stage string, err error) error {
	return &InferenceError{Stage: stage, Err: err}
}

// ParseError reports date coercion or trend aggregation failures. It is never
// fatal to the rest of a batch result.
type ParseError struct {
	Msg string
	Err error
}

func (e *ParseError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Msg, e.Err)
	}
	return e.Msg
}

func (e *ParseError) Unwrap() error {
	return e.Err
}

func Parse(msg string, err error) error {
	return &ParseError{Msg: msg, Err: err}
}

func IsValidation(err error) bool {
	var target *ValidationError
	return errors.As(err, &target)
}

func IsInference(err error) bool {
	var target *InferenceError
	return errors.As(err, &target)
}

func IsParse(err error) bool {
	var target *ParseError
	return errors.As(err, &target)
}

// HTTPStatus maps an error kind to the status code the API answers with
func HTTPStatus(err error) int {
	switch {
	case err == nil:
		return http.StatusOK
	case IsValidation(err):
		return http.StatusBadRequest
	case IsParse(err):
		return http.StatusUnprocessableEntity
	case IsInference(err):
		return http.StatusBadGateway
	default:
		return http.StatusInternalServerError
	}
}
