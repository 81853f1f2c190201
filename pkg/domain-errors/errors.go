// Package domainerrors defines the coded error type shared by domain aggregates,
// services and the HTTP layer.
//
// Aggregates return coded errors for rule violations. Services wrap infrastructure
// failures with CodeInternal. Handlers translate codes to HTTP statuses without
// inspecting messages.
package domainerrors

import (
	"errors"
	"fmt"
)

// Code classifies a domain error.
type Code string

const (
	// Scheduling and enrollment rule violations.
	CodeInvalidRange        Code = "invalid_range"
	CodeSchedulingConflict  Code = "scheduling_conflict"
	CodeInvalidState        Code = "invalid_state"
	CodeEmptySchedule       Code = "empty_schedule"
	CodeEmptyRegistration   Code = "empty_registration"
	CodeDuplicateCourse     Code = "duplicate_course"
	CodeCreditLimitExceeded Code = "credit_limit_exceeded"

	// Generic request/infrastructure codes.
	CodeInvariantViolation Code = "invariant_violation"
	CodeValidation         Code = "validation_error"
	CodeInvalidInput       Code = "invalid_input"
	CodeBadRequest         Code = "bad_request"
	CodeNotFound           Code = "not_found"
	CodeConflict           Code = "conflict"
	CodeUnauthorized       Code = "unauthorized"
	CodeForbidden          Code = "forbidden"
	CodeTimeout            Code = "timeout"
	CodeInternal           Code = "internal_error"
)

// Error is a domain error with a stable code.
type Error struct {
	Code    Code
	Message string
	Err     error
}

func (e *Error) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %v", e.Message, e.Err)
	}
	return e.Message
}

func (e *Error) Unwrap() error {
	return e.Err
}

// New creates a coded error.
func New(code Code, msg string) error {
	return &Error{Code: code, Message: msg}
}

// Newf creates a coded error with a formatted message.
func Newf(code Code, format string, args ...any) error {
	return &Error{Code: code, Message: fmt.Sprintf(format, args...)}
}

// Wrap attaches a code and message to an underlying error.
func Wrap(err error, code Code, msg string) error {
	if err == nil {
		return nil
	}
	return &Error{Code: code, Message: msg, Err: err}
}

// CodeOf returns the code of the outermost coded error in the chain.
// Uncoded errors report CodeInternal.
func CodeOf(err error) Code {
	var de *Error
	if errors.As(err, &de) {
		return de.Code
	}
	return CodeInternal
}

// HasCode reports whether any coded error in the chain carries code.
func HasCode(err error, code Code) bool {
	for err != nil {
		var de *Error
		if !errors.As(err, &de) {
			return false
		}
		if de.Code == code {
			return true
		}
		err = de.Err
	}
	return false
}

// Is is shorthand for HasCode.
func Is(err error, code Code) bool {
	return HasCode(err, code)
}
