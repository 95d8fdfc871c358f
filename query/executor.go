package query

import (
	"context"

	"github.com/goliatone/go-datagrid/internal/logging"
)

// Executor runs a query for a repository method.
type Executor interface {
	Execute(ctx context.Context, method *Method, query string, args ...any) ([]any, error)
}

// ExecutorFunc adapts a function to Executor.
type ExecutorFunc func(ctx context.Context, method *Method, query string, args ...any) ([]any, error)

// Execute implements Executor.
func (f ExecutorFunc) Execute(ctx context.Context, method *Method, query string, args ...any) ([]any, error) {
	return f(ctx, method, query, args...)
}

// ThenExecuteWith returns an executor that tries primary first and falls back to next only when
// primary reports an unsupported query. A nil next returns primary itself.
func ThenExecuteWith(primary, next Executor) Executor {
	if next == nil {
		return primary
	}
	if primary == nil {
		return next
	}
	return &composedExecutor{primary: primary, next: next}
}

// Chain composes executors left to right. Nil executors are skipped.
func Chain(executors ...Executor) Executor {
	var out Executor
	for _, e := range executors {
		out = ThenExecuteWith(out, e)
	}
	return out
}

type outcome int

const (
	outcomeOK outcome = iota
	outcomeUnsupported
	outcomeFailed
)

type attempt struct {
	results []any
	err     error
	outcome outcome
}

func run(ctx context.Context, e Executor, method *Method, query string, args []any) attempt {
	results, err := e.Execute(ctx, method, query, args...)
	switch {
	case err == nil:
		return attempt{results: results, outcome: outcomeOK}
	case IsUnsupportedQueryExecution(err):
		return attempt{err: err, outcome: outcomeUnsupported}
	default:
		return attempt{err: err, outcome: outcomeFailed}
	}
}

// composedExecutor logs through the operational logger current at call time.
type composedExecutor struct {
	primary Executor
	next    Executor
}

func (c *composedExecutor) Execute(ctx context.Context, method *Method, query string, args ...any) ([]any, error) {
	a := run(ctx, c.primary, method, query, args)

	switch a.outcome {
	case outcomeOK:
		return a.results, nil
	case outcomeUnsupported:
		logging.Op().Debug("query executor fell back",
			"method", method.Namespace(),
			"from", executorName(c.primary),
			"to", executorName(c.next),
			"reason", a.err,
		)
		return c.next.Execute(ctx, method, query, args...)
	default:
		return nil, a.err
	}
}

func (c *composedExecutor) ExecutorName() string {
	return executorName(c.primary) + " -> " + executorName(c.next)
}
