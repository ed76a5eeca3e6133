// Package errors classifies failures so callers can tell a degraded
// source apart from a broken engine.
package errors

import (
	stderrors "errors"
	"fmt"

	goerrors "github.com/go-errors/errors"
)

type ErrorType string

const (
	ErrTypeNotFound     ErrorType = "NOT_FOUND"
	ErrTypeInvalidInput ErrorType = "INVALID_INPUT"
	ErrTypeUnauthorized ErrorType = "UNAUTHORIZED"
	ErrTypeInternal     ErrorType = "INTERNAL"
	ErrTypeUnavailable  ErrorType = "UNAVAILABLE"
	ErrTypeRateLimit    ErrorType = "RATE_LIMIT"
	ErrTypeMalformed    ErrorType = "MALFORMED"
	ErrTypeConflict     ErrorType = "CONFLICT"
)

type DomainError struct {
	Type    ErrorType
	Message string
	Err     error
	Stack   []byte
}

func (e *DomainError) Error() string {
	if e.Err != nil {
		return fmt.Sprintf("%s: %s: %v", e.Type, e.Message, e.Err)
	}
	return fmt.Sprintf("%s: %s", e.Type, e.Message)
}

func (e *DomainError) Unwrap() error {
	return e.Err
}

func (e *DomainError) StackTrace() []byte {
	return e.Stack
}

func New(errType ErrorType, message string, err error) *DomainError {
	var stack []byte
	if err != nil {
		if stackErr, ok := err.(*goerrors.Error); ok {
			stack = stackErr.Stack()
		} else {
			stack = goerrors.Wrap(err, 2).Stack()
		}
	} else {
		stack = goerrors.New(message).Stack()
	}

	return &DomainError{
		Type:    errType,
		Message: message,
		Err:     err,
		Stack:   stack,
	}
}

func NotFound(message string, err error) *DomainError {
	return New(ErrTypeNotFound, message, err)
}

func InvalidInput(message string, err error) *DomainError {
	return New(ErrTypeInvalidInput, message, err)
}

func Unauthorized(message string, err error) *DomainError {
	return New(ErrTypeUnauthorized, message, err)
}

func Internal(message string, err error) *DomainError {
	return New(ErrTypeInternal, message, err)
}

func Unavailable(message string, err error) *DomainError {
	return New(ErrTypeUnavailable, message, err)
}

func RateLimit(message string, err error) *DomainError {
	return New(ErrTypeRateLimit, message, err)
}

// Malformed marks a payload that arrived but could not be decoded.
func Malformed(message string, err error) *DomainError {
	return New(ErrTypeMalformed, message, err)
}

func Conflict(message string, err error) *DomainError {
	return New(ErrTypeConflict, message, err)
}

// TypeOf returns the type of the outermost DomainError in err's chain,
// or ErrTypeInternal for anything unclassified.
func TypeOf(err error) ErrorType {
	var de *DomainError
	if stderrors.As(err, &de) {
		return de.Type
	}
	return ErrTypeInternal
}

func IsType(err error, t ErrorType) bool {
	return err != nil && TypeOf(err) == t
}

// Expected reports whether err is an anticipated upstream fault that
// should degrade to an empty result instead of propagating.
func Expected(err error) bool {
	if err == nil {
		return false
	}
	switch TypeOf(err) {
	case ErrTypeInternal, ErrTypeConflict:
		return false
	default:
		return true
	}
}
