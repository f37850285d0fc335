package db

import (
	"errors"
	"fmt"
)

var (
	// ErrDriverNotInstalled is returned for a driver id nothing registered
	ErrDriverNotInstalled = errors.New("database driver not installed")

	// ErrConnectionFailed wraps the native error of a failed connect
	ErrConnectionFailed = errors.New("database connection failed")

	// ErrParameterCountMismatch matches *ParameterCountError
	ErrParameterCountMismatch = errors.New("parameter count mismatch")

	// ErrQueryFailed matches *QueryError
	ErrQueryFailed = errors.New("query failed")
)

// ParameterCountError reports a statement whose placeholders do not match its parameters
type ParameterCountError struct {
	Expected int
	Actual   int
	SQL      string
	Params   []any
}

func (e *ParameterCountError) Error() string {
	return fmt.Sprintf("%s: expected %d, got %d for %q (params %v)",
		ErrParameterCountMismatch, e.Expected, e.Actual, e.SQL, e.Params)
}

func (e *ParameterCountError) Is(target error) bool {
	return target == ErrParameterCountMismatch
}

// QueryError is a statement rejected by the database
type QueryError struct {
	SQL  string
	Code string // native error code when the driver exposes one
	Err  error
}

func (e *QueryError) Error() string {
	if e.Code != "" {
		return fmt.Sprintf("%s [%s]: %v", ErrQueryFailed, e.Code, e.Err)
	}
	return fmt.Sprintf("%s: %v", ErrQueryFailed, e.Err)
}

func (e *QueryError) Unwrap() error {
	return e.Err
}

func (e *QueryError) Is(target error) bool {
	return target == ErrQueryFailed
}

// errorCoders extract native error codes; drivers append theirs in init
var errorCoders []func(error) (string, bool)

func nativeCode(err error) string {
	for _, code := range errorCoders {
		if c, ok := code(err); ok {
			return c
		}
	}
	return ""
}
