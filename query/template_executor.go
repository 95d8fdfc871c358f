package query

import (
	"context"

	"github.com/goliatone/go-datagrid/grid"
)

// TemplateExecutor runs OQL through the grid's query service.
type TemplateExecutor struct {
	service grid.QueryService
}

// NewTemplateExecutor creates an executor backed by service.
func NewTemplateExecutor(service grid.QueryService) *TemplateExecutor {
	return &TemplateExecutor{service: service}
}

// Execute runs query, or the method's declared query when query is empty. Native methods, empty
// queries and shapes the service rejects are reported as unsupported.
func (e *TemplateExecutor) Execute(ctx context.Context, method *Method, query string, args ...any) ([]any, error) {
	text := method.queryText(query)
	if (method != nil && method.Native) || text == "" || e.service == nil {
		return nil, NewUnsupportedQueryExecutionError(e, text)
	}

	results, err := e.service.Execute(ctx, text, args...)
	if grid.IsUnsupportedQuery(err) {
		unsupported := NewUnsupportedQueryExecutionError(e, text)
		unsupported.Cause = err
		return nil, unsupported
	}
	return results, err
}

func (e *TemplateExecutor) ExecutorName() string { return "TemplateExecutor" }
