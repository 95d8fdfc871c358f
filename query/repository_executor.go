package query

import (
	"context"

	repository "github.com/goliatone/go-repository-bun"
	"github.com/uptrace/bun"
)

// RawRepository is the part of a repository.Repository used to run native queries.
type RawRepository[T any] interface {
	Raw(ctx context.Context, sql string, args ...any) ([]T, error)
	RawTx(ctx context.Context, tx bun.IDB, sql string, args ...any) ([]T, error)
}

var _ RawRepository[any] = repository.Repository[any](nil)

type txKey struct{}

// WithTx makes repository executors run inside tx.
func WithTx(ctx context.Context, tx bun.IDB) context.Context {
	return context.WithValue(ctx, txKey{}, tx)
}

// TxFromContext returns the transaction attached with WithTx.
func TxFromContext(ctx context.Context) (bun.IDB, bool) {
	if ctx == nil {
		return nil, false
	}
	tx, ok := ctx.Value(txKey{}).(bun.IDB)
	return tx, ok && tx != nil
}

// RepositoryExecutor runs native queries through a repository.
type RepositoryExecutor[T any] struct {
	repo RawRepository[T]
}

// NewRepositoryExecutor creates an executor backed by repo.
func NewRepositoryExecutor[T any](repo RawRepository[T]) *RepositoryExecutor[T] {
	return &RepositoryExecutor[T]{repo: repo}
}

// Execute runs native methods only; any other method is reported as unsupported.
func (e *RepositoryExecutor[T]) Execute(ctx context.Context, method *Method, query string, args ...any) ([]any, error) {
	text := method.queryText(query)
	if method == nil || !method.Native || text == "" || e.repo == nil {
		return nil, NewUnsupportedQueryExecutionError(e, text)
	}

	var (
		records []T
		err     error
	)
	if tx, ok := TxFromContext(ctx); ok {
		records, err = e.repo.RawTx(ctx, tx, text, args...)
	} else {
		records, err = e.repo.Raw(ctx, text, args...)
	}
	if err != nil {
		return nil, err
	}

	out := make([]any, len(records))
	for i, r := range records {
		out[i] = r
	}
	return out, nil
}

func (e *RepositoryExecutor[T]) ExecutorName() string { return "RepositoryExecutor" }
