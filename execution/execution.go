package execution

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/goliatone/go-errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/internal/logging"
)

const tracerName = "github.com/goliatone/go-datagrid/execution"

type state int

const (
	stateBuilt state = iota
	stateConfigured
	stateExecuted
	stateFailed
)

func (s state) String() string {
	switch s {
	case stateBuilt:
		return "built"
	case stateConfigured:
		return "configured"
	case stateExecuted:
		return "executed"
	case stateFailed:
		return "failed"
	}
	return "unknown"
}

// errTimeout is the cancellation cause of the execution's own timeout.
var errTimeout = errors.New("execution timeout elapsed", CategoryExecutionTimeout)

// FunctionExecution is a single-use dispatch of one function against one target.
// Setters return the same execution so calls can be chained; the first setter error is kept and
// reported by Execute.
type FunctionExecution struct {
	mu    sync.Mutex
	state state
	err   error

	target     Target
	functionID string
	function   grid.Function
	args       []any
	filter     grid.KeySet
	collector  grid.ResultCollector
	timeout    time.Duration

	metrics *Metrics
	tracer  trace.Tracer
	logger  *slog.Logger
}

// ExecutionOption configures a FunctionExecution.
type ExecutionOption func(*FunctionExecution)

// WithExecutionMetrics records the dispatch in m.
func WithExecutionMetrics(m *Metrics) ExecutionOption {
	return func(e *FunctionExecution) { e.metrics = m }
}

// WithExecutionTracer sets the tracer used for the dispatch span.
func WithExecutionTracer(t trace.Tracer) ExecutionOption {
	return func(e *FunctionExecution) {
		if t != nil {
			e.tracer = t
		}
	}
}

// WithExecutionLogger sets the logger.
func WithExecutionLogger(l *slog.Logger) ExecutionOption {
	return func(e *FunctionExecution) { e.logger = logging.Or(l) }
}

// NewFunctionExecution creates an execution bound to target.
func NewFunctionExecution(target Target, opts ...ExecutionOption) *FunctionExecution {
	e := &FunctionExecution{
		target: target,
		tracer: otel.Tracer(tracerName),
		logger: logging.Op(),
	}
	for _, opt := range opts {
		opt(e)
	}
	return e
}

func (e *FunctionExecution) configure(apply func()) *FunctionExecution {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.state >= stateExecuted {
		if e.err == nil {
			e.err = ErrExecutionConsumed
		}
		return e
	}
	apply()
	e.state = stateConfigured
	return e
}

// SetArguments sets the positional arguments.
func (e *FunctionExecution) SetArguments(args ...any) *FunctionExecution {
	return e.configure(func() { e.args = append([]any(nil), args...) })
}

// SetFunction sets the function object to run.
func (e *FunctionExecution) SetFunction(fn grid.Function) *FunctionExecution {
	return e.configure(func() { e.function = fn })
}

// SetFunctionID sets the id of a function registered on the grid.
func (e *FunctionExecution) SetFunctionID(id string) *FunctionExecution {
	return e.configure(func() { e.functionID = id })
}

// SetResultCollector replaces the default collector.
func (e *FunctionExecution) SetResultCollector(c grid.ResultCollector) *FunctionExecution {
	return e.configure(func() { e.collector = c })
}

// SetTimeout limits how long Execute waits for results. Zero disables the limit.
func (e *FunctionExecution) SetTimeout(d time.Duration) *FunctionExecution {
	return e.configure(func() {
		if d < 0 && e.err == nil {
			e.err = newConfigError("timeout cannot be negative", map[string]any{"timeout": d.String()})
			return
		}
		e.timeout = d
	})
}

// SetFilter restricts a region execution to the owners of keys.
func (e *FunctionExecution) SetFilter(keys grid.KeySet) *FunctionExecution {
	return e.configure(func() { e.filter = keys })
}

// Execute dispatches and waits for all results.
func (e *FunctionExecution) Execute(ctx context.Context) ([]any, error) {
	return e.Run(ctx, true)
}

// ExecuteAndExtract dispatches and returns the first result.
// An empty result gives (nil, nil). A first result that is an error is returned as the error.
func (e *FunctionExecution) ExecuteAndExtract(ctx context.Context) (any, error) {
	results, err := e.Execute(ctx)
	if err != nil {
		return nil, err
	}
	if len(results) == 0 {
		return nil, nil
	}
	if resultErr, ok := results[0].(error); ok {
		return nil, resultErr
	}
	return results[0], nil
}

// Run dispatches the function. When returnResult is false, or the function declares no result,
// Run returns as soon as the request is handed off.
func (e *FunctionExecution) Run(ctx context.Context, returnResult bool) (results []any, err error) {
	req, err := e.begin()
	if err != nil {
		return nil, err
	}
	defer func() { e.finish(err) }()

	if ctx == nil {
		ctx = context.Background()
	}

	name := req.Name()
	kind := e.target.Kind()
	wait := returnResult && (req.Function == nil || req.Function.HasResult())

	ctx, span := e.tracer.Start(ctx, "datagrid.function.execute", trace.WithAttributes(
		attribute.String("datagrid.function.id", name),
		attribute.String("datagrid.target", e.target.String()),
		attribute.Int("datagrid.function.args", len(req.Args)),
		attribute.Bool("datagrid.function.wait", wait),
	))
	defer span.End()

	var cancel context.CancelFunc
	if e.timeout > 0 && wait {
		ctx, cancel = context.WithTimeoutCause(ctx, e.timeout, errTimeout)
		defer cancel()
	}

	started := time.Now()
	results, err = e.dispatch(ctx, req, wait)
	err = e.classify(ctx, name, err)

	outcome := outcomeSuccess
	switch {
	case IsTimeout(err):
		outcome = outcomeTimeout
		e.logger.Warn("function execution timed out", "function", name, "target", e.target.String(), "timeout", e.timeout)
	case err != nil:
		outcome = outcomeError
		e.logger.Warn("function execution failed", "function", name, "target", e.target.String(), "error", err)
	default:
		e.logger.Debug("function executed", "function", name, "target", e.target.String(), "results", len(results))
	}
	e.metrics.observe(kind, outcome, time.Since(started))

	if err != nil {
		span.RecordError(err)
		span.SetStatus(codes.Error, err.Error())
		return nil, err
	}
	span.SetAttributes(attribute.Int("datagrid.function.results", len(results)))
	return results, nil
}

func (e *FunctionExecution) dispatch(ctx context.Context, req grid.Request, wait bool) ([]any, error) {
	exec, err := e.target.Resolve(ctx)
	if err != nil {
		return nil, err
	}

	if !wait {
		// Members run after the caller has returned and possibly cancelled ctx.
		return nil, exec.Dispatch(context.WithoutCancel(ctx), req)
	}
	if err := exec.Dispatch(ctx, req); err != nil {
		return nil, err
	}
	return req.Collector.Results(ctx)
}

func (e *FunctionExecution) classify(ctx context.Context, name string, err error) error {
	if err == nil {
		return nil
	}
	if e.timeout > 0 && context.Cause(ctx) == errTimeout {
		return newTimeoutError(name, e.timeout)
	}
	return err
}

func (e *FunctionExecution) begin() (grid.Request, error) {
	e.mu.Lock()
	defer e.mu.Unlock()

	if e.state >= stateExecuted {
		return grid.Request{}, ErrExecutionConsumed
	}
	e.state = stateExecuted

	if e.err != nil {
		e.state = stateFailed
		return grid.Request{}, e.err
	}
	if e.target == nil {
		e.state = stateFailed
		return grid.Request{}, newConfigError("execution target is required", nil)
	}
	if (e.functionID == "") == (e.function == nil) {
		e.state = stateFailed
		return grid.Request{}, newConfigError("exactly one of function id or function must be set",
			map[string]any{"function_id": e.functionID, "has_function": e.function != nil})
	}

	collector := e.collector
	if collector == nil {
		collector = grid.NewDefaultResultCollector()
	}

	return grid.Request{
		FunctionID: e.functionID,
		Function:   e.function,
		Args:       e.args,
		Filter:     e.filter,
		Collector:  collector,
	}, nil
}

func (e *FunctionExecution) finish(err error) {
	if err == nil {
		return
	}
	e.mu.Lock()
	e.state = stateFailed
	e.mu.Unlock()
}

// State returns the current lifecycle state, for diagnostics.
func (e *FunctionExecution) State() string {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.state.String()
}
