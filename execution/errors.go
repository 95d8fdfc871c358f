package execution

import (
	"fmt"
	"time"

	"github.com/goliatone/go-errors"
)

const (
	// CategoryExecution groups errors raised while building or running an execution.
	CategoryExecution = errors.Category("execution")
	// CategoryExecutionTimeout marks an execution that did not complete within its timeout.
	CategoryExecutionTimeout = errors.Category("execution_timeout")
)

// ErrExecutionConsumed is returned when a FunctionExecution is used after it ran.
var ErrExecutionConsumed = errors.New("function execution has already been executed", CategoryExecution).
	WithTextCode("EXECUTION_CONSUMED")

func newTimeoutError(function string, timeout time.Duration) *errors.RetryableError {
	return errors.NewRetryable(
		fmt.Sprintf("function [%s] did not complete within %s", function, timeout),
		CategoryExecutionTimeout,
	).
		WithTextCode("EXECUTION_TIMEOUT").
		WithMetadata(map[string]any{
			"function": function,
			"timeout":  timeout.String(),
		})
}

func newConfigError(message string, metadata map[string]any) *errors.Error {
	return errors.New(message, errors.CategoryValidation).
		WithTextCode("INVALID_EXECUTION").
		WithMetadata(metadata)
}

// IsTimeout reports whether err is an execution timeout.
func IsTimeout(err error) bool {
	return errors.IsCategory(err, CategoryExecutionTimeout)
}

// IsConfigurationError reports whether err was caused by an invalid execution setup.
func IsConfigurationError(err error) bool {
	return errors.IsCategory(err, errors.CategoryValidation)
}
