package query

import (
	"fmt"

	"github.com/goliatone/go-errors"
)

// UnsupportedQueryExecutionError reports that an executor cannot run a query shape.
// It is the only error that makes a chain try its next executor.
type UnsupportedQueryExecutionError struct {
	Query    string
	Executor string
	Cause    error
}

func (e *UnsupportedQueryExecutionError) Error() string {
	msg := fmt.Sprintf("unable to execute query [%s] with executor [%s]", e.Query, e.Executor)
	if e.Cause != nil {
		msg += ": " + e.Cause.Error()
	}
	return msg
}

func (e *UnsupportedQueryExecutionError) Unwrap() error {
	return e.Cause
}

// Named lets an executor report a readable name in errors and logs.
type Named interface {
	ExecutorName() string
}

// NewUnsupportedQueryExecutionError builds the default error for executor and query.
func NewUnsupportedQueryExecutionError(executor any, query string) *UnsupportedQueryExecutionError {
	return &UnsupportedQueryExecutionError{Query: query, Executor: executorName(executor)}
}

// IsUnsupportedQueryExecution reports whether err, or an error it wraps, is an
// *UnsupportedQueryExecutionError.
func IsUnsupportedQueryExecution(err error) bool {
	var target *UnsupportedQueryExecutionError
	return errors.As(err, &target)
}

func executorName(executor any) string {
	if n, ok := executor.(Named); ok {
		return n.ExecutorName()
	}
	return fmt.Sprintf("%T", executor)
}
