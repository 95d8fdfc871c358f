package execution

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	validation "github.com/go-ozzo/ozzo-validation/v4"
	"github.com/goliatone/go-errors"
	"go.opentelemetry.io/otel"
	"go.opentelemetry.io/otel/attribute"
	"go.opentelemetry.io/otel/codes"
	"go.opentelemetry.io/otel/trace"

	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/internal/logging"
)

// TemplateConfig holds the defaults applied to every execution of a template.
type TemplateConfig struct {
	// DefaultTimeout bounds how long a call waits for results. Zero waits until the context is done.
	DefaultTimeout time.Duration `yaml:"default_timeout"`
}

// Validate checks the configuration values.
func (c TemplateConfig) Validate() error {
	err := validation.ValidateStruct(&c,
		validation.Field(&c.DefaultTimeout, validation.Min(time.Duration(0))),
	)
	if err != nil {
		return errors.FromOzzoValidation(err, "invalid template configuration")
	}
	return nil
}

// Callback receives the resolved dispatch handle of a template.
type Callback func(ctx context.Context, exec grid.Execution) (any, error)

// Template runs functions against a fixed target. It holds no per-call state, so a single
// Template can be shared by concurrent callers; each call builds its own FunctionExecution.
type Template struct {
	target     Target
	config     TemplateConfig
	collectors func() grid.ResultCollector
	metrics    *Metrics
	tracer     trace.Tracer
	logger     *slog.Logger
}

// TemplateOption configures a Template.
type TemplateOption func(*Template)

// WithTimeout sets the default timeout of every call.
func WithTimeout(d time.Duration) TemplateOption {
	return func(t *Template) { t.config.DefaultTimeout = d }
}

// WithConfig replaces the template configuration.
func WithConfig(cfg TemplateConfig) TemplateOption {
	return func(t *Template) { t.config = cfg }
}

// WithResultCollector sets the factory that builds one collector per call.
func WithResultCollector(factory func() grid.ResultCollector) TemplateOption {
	return func(t *Template) {
		if factory != nil {
			t.collectors = factory
		}
	}
}

// WithMetrics records every dispatch in m.
func WithMetrics(m *Metrics) TemplateOption {
	return func(t *Template) { t.metrics = m }
}

// WithTracer sets the tracer used for dispatch spans.
func WithTracer(tracer trace.Tracer) TemplateOption {
	return func(t *Template) {
		if tracer != nil {
			t.tracer = tracer
		}
	}
}

// WithLogger sets the logger.
func WithLogger(logger *slog.Logger) TemplateOption {
	return func(t *Template) { t.logger = logging.Or(logger) }
}

// NewTemplate creates a template bound to target.
func NewTemplate(target Target, opts ...TemplateOption) (*Template, error) {
	if target == nil {
		return nil, newConfigError("execution target is required", nil)
	}
	if err := validateTarget(target); err != nil {
		return nil, err
	}

	t := &Template{
		target:     target,
		collectors: grid.NewDefaultResultCollectorFactory(),
		tracer:     otel.Tracer(tracerName),
		logger:     logging.Op(),
	}
	for _, opt := range opts {
		opt(t)
	}

	if err := t.config.Validate(); err != nil {
		return nil, err
	}
	return t, nil
}

// Target returns the template's target.
func (t *Template) Target() Target { return t.target }

// NewExecution builds an execution configured with the template defaults.
func (t *Template) NewExecution() *FunctionExecution {
	return NewFunctionExecution(t.target,
		WithExecutionMetrics(t.metrics),
		WithExecutionTracer(t.tracer),
		WithExecutionLogger(t.logger),
	).
		SetResultCollector(t.collectors()).
		SetTimeout(t.config.DefaultTimeout)
}

// Execute runs fn with args and returns every result.
func (t *Template) Execute(ctx context.Context, fn grid.Function, args ...any) ([]any, error) {
	return t.NewExecution().SetFunction(fn).SetArguments(args...).Execute(ctx)
}

// ExecuteByID runs the registered function id with args and returns every result.
func (t *Template) ExecuteByID(ctx context.Context, id string, args ...any) ([]any, error) {
	return t.NewExecution().SetFunctionID(id).SetArguments(args...).Execute(ctx)
}

// ExecuteAndExtract runs fn and returns its first result, or nil when there is none.
func (t *Template) ExecuteAndExtract(ctx context.Context, fn grid.Function, args ...any) (any, error) {
	return t.NewExecution().SetFunction(fn).SetArguments(args...).ExecuteAndExtract(ctx)
}

// ExecuteAndExtractByID runs the registered function id and returns its first result.
func (t *Template) ExecuteAndExtractByID(ctx context.Context, id string, args ...any) (any, error) {
	return t.NewExecution().SetFunctionID(id).SetArguments(args...).ExecuteAndExtract(ctx)
}

// ExecuteWithNoResult dispatches id without waiting for results.
func (t *Template) ExecuteWithNoResult(ctx context.Context, id string, args ...any) error {
	_, err := t.NewExecution().SetFunctionID(id).SetArguments(args...).Run(ctx, false)
	return err
}

// ExecuteCallback resolves the target and hands the dispatch handle to cb.
func (t *Template) ExecuteCallback(ctx context.Context, cb Callback) (any, error) {
	if cb == nil {
		return nil, newConfigError("callback is required", nil)
	}
	if ctx == nil {
		ctx = context.Background()
	}

	ctx, span := t.tracer.Start(ctx, "datagrid.function.callback", trace.WithAttributes(
		attribute.String("datagrid.target", t.target.String()),
	))
	defer span.End()

	started := time.Now()
	exec, err := t.target.Resolve(ctx)
	if err == nil {
		var result any
		result, err = cb(ctx, exec)
		if err == nil {
			t.metrics.observe(t.target.Kind(), outcomeSuccess, time.Since(started))
			return result, nil
		}
	}

	t.metrics.observe(t.target.Kind(), outcomeError, time.Since(started))
	span.RecordError(err)
	span.SetStatus(codes.Error, err.Error())
	return nil, err
}

// Extract converts the result of an ExecuteAndExtract call to T.
// A nil value gives the zero T and no error.
func Extract[T any](value any, err error) (T, error) {
	var zero T
	if err != nil || value == nil {
		return zero, err
	}
	typed, ok := value.(T)
	if !ok {
		return zero, errors.New(fmt.Sprintf("result of type %T is not a %T", value, zero), errors.CategoryBadInput).
			WithTextCode("RESULT_TYPE_MISMATCH")
	}
	return typed, nil
}

// RegionTemplate is a Template bound to a region, with filtered executions.
type RegionTemplate struct {
	*Template
	region grid.Region
}

// NewRegionTemplate creates a template that targets the members hosting region.
func NewRegionTemplate(svc grid.FunctionService, region grid.Region, opts ...TemplateOption) (*RegionTemplate, error) {
	if region == nil {
		return nil, newConfigError("region is required", nil)
	}
	t, err := NewTemplate(OnRegion(svc, region), opts...)
	if err != nil {
		return nil, err
	}
	return &RegionTemplate{Template: t, region: region}, nil
}

// Region returns the bound region.
func (t *RegionTemplate) Region() grid.Region { return t.region }

// ExecuteWithFilter runs id only on the owners of the filter keys.
func (t *RegionTemplate) ExecuteWithFilter(ctx context.Context, id string, filter grid.KeySet, args ...any) ([]any, error) {
	return t.NewExecution().SetFunctionID(id).SetFilter(filter).SetArguments(args...).Execute(ctx)
}

// ExecuteAndExtractWithFilter runs id on the owners of the filter keys and returns the first result.
func (t *RegionTemplate) ExecuteAndExtractWithFilter(ctx context.Context, id string, filter grid.KeySet, args ...any) (any, error) {
	return t.NewExecution().SetFunctionID(id).SetFilter(filter).SetArguments(args...).ExecuteAndExtract(ctx)
}
