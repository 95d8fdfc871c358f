package function

import (
	"fmt"
	"log/slog"
	"reflect"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/internal/logging"
)

// Adapter exposes a Go func as a grid.Function.
type Adapter struct {
	id       string
	fn       reflect.Value
	params   Parameters
	resolver ArgumentResolver
	logger   *slog.Logger

	hasResult        bool
	batchSize        int
	highAvailability bool
	optimizeForWrite bool

	returnsValue bool
	returnsError bool
}

// AdapterOption configures an Adapter.
type AdapterOption func(*adapterOptions)

type adapterOptions struct {
	hasResult        *bool
	batchSize        int
	highAvailability bool
	optimizeForWrite bool
	support          grid.PortableSupport
	params           *Parameters
	logger           *slog.Logger
}

// WithHasResult overrides whether the function produces results.
func WithHasResult(hasResult bool) AdapterOption {
	return func(o *adapterOptions) { o.hasResult = &hasResult }
}

// WithBatchSize splits slice results into chunks of size.
func WithBatchSize(size int) AdapterOption {
	return func(o *adapterOptions) { o.batchSize = size }
}

// WithHighAvailability marks the function as safe to retry on another member.
func WithHighAvailability(ha bool) AdapterOption {
	return func(o *adapterOptions) { o.highAvailability = ha }
}

// WithOptimizeForWrite routes region executions to primary copies only.
func WithOptimizeForWrite(optimize bool) AdapterOption {
	return func(o *adapterOptions) { o.optimizeForWrite = optimize }
}

// WithPortableSupport enables portable argument substitution.
func WithPortableSupport(support grid.PortableSupport) AdapterOption {
	return func(o *adapterOptions) { o.support = support }
}

// WithParameters replaces the inferred injection positions with an explicit descriptor.
func WithParameters(params Parameters) AdapterOption {
	return func(o *adapterOptions) { o.params = &params }
}

// WithLogger sets the logger used by the adapter.
func WithLogger(logger *slog.Logger) AdapterOption {
	return func(o *adapterOptions) { o.logger = logger }
}

// NewAdapter wraps fn, which must return nothing, a value, an error, or a value and an error.
func NewAdapter(id string, fn any, opts ...AdapterOption) (*Adapter, error) {
	if id == "" {
		return nil, configError(id, codeInvalidFunction, "function id cannot be empty")
	}
	if fn == nil {
		return nil, configError(id, codeInvalidFunction, "function [%s] cannot be nil", id)
	}

	o := adapterOptions{}
	for _, opt := range opts {
		opt(&o)
	}

	fnValue := reflect.ValueOf(fn)
	fnType := fnValue.Type()

	var params Parameters
	if o.params != nil {
		params = *o.params
		if params.Method == "" {
			params.Method = id
		}
		if fnType.Kind() != reflect.Func || fnType.NumIn() != len(params.Types) {
			return nil, configError(id, codeInvalidFunction,
				"function [%s] does not match its parameter descriptor", id)
		}
	} else {
		var err error
		if params, err = InspectParameters(id, fnType); err != nil {
			return nil, err
		}
	}

	a := &Adapter{
		id:               id,
		fn:               fnValue,
		params:           params,
		logger:           logging.Or(o.logger),
		batchSize:        o.batchSize,
		highAvailability: o.highAvailability,
		optimizeForWrite: o.optimizeForWrite,
	}

	switch fnType.NumOut() {
	case 0:
	case 1:
		if fnType.Out(0).Implements(errorType) {
			a.returnsError = true
		} else {
			a.returnsValue = true
		}
	case 2:
		if !fnType.Out(1).Implements(errorType) {
			return nil, configError(id, codeInvalidFunction, "second return value of function [%s] must be error", id)
		}
		a.returnsValue, a.returnsError = true, true
	default:
		return nil, configError(id, codeInvalidFunction, "function [%s] returns too many values", id)
	}

	a.hasResult = a.returnsValue || params.ResultSender != NoPosition
	if o.hasResult != nil {
		a.hasResult = *o.hasResult
	}

	resolver, err := NewResolverChain(params, o.support, a.logger)
	if err != nil {
		return nil, err
	}
	a.resolver = resolver

	return a, nil
}

// ID implements grid.Function.
func (a *Adapter) ID() string { return a.id }

// HasResult implements grid.Function.
func (a *Adapter) HasResult() bool { return a.hasResult }

func (a *Adapter) HighAvailability() bool { return a.highAvailability }

func (a *Adapter) OptimizeForWrite() bool { return a.optimizeForWrite }

// Parameters returns the injection descriptor.
func (a *Adapter) Parameters() Parameters { return a.params }

// Execute implements grid.Function.
func (a *Adapter) Execute(fc grid.FunctionContext) (err error) {
	sender := fc.ResultSender()

	args, err := a.resolver.ResolveArguments(fc)
	if err != nil {
		a.fail(fc, sender, err)
		return err
	}

	in := make([]reflect.Value, len(args))
	for i, arg := range args {
		v, err := a.argumentValue(i, arg)
		if err != nil {
			a.fail(fc, sender, err)
			return err
		}
		in[i] = v
	}

	defer func() {
		if r := recover(); r != nil {
			err = errors.New(fmt.Sprintf("function [%s] panicked: %v", a.id, r), errors.CategoryInternal).
				WithTextCode("FUNCTION_PANIC")
			a.fail(fc, sender, err)
		}
	}()

	out := a.fn.Call(in)

	var result any
	if a.returnsValue && out[0].IsValid() && out[0].CanInterface() {
		result = out[0].Interface()
	}
	if a.returnsError {
		if ev := out[len(out)-1]; !ev.IsNil() {
			err = ev.Interface().(error)
			a.fail(fc, sender, err)
			return err
		}
	}

	if a.params.ResultSender != NoPosition || !a.hasResult {
		return nil
	}
	return a.send(sender, result)
}

func (a *Adapter) fail(fc grid.FunctionContext, sender grid.ResultSender, err error) {
	a.logger.Warn("function failed", "function", a.id, "member", fc.MemberID(), "error", err)
	if sender != nil {
		_ = sender.SendError(err)
	}
}

func (a *Adapter) send(sender grid.ResultSender, result any) error {
	if sender == nil {
		return nil
	}

	rv := reflect.ValueOf(result)
	if a.batchSize <= 0 || !rv.IsValid() || rv.Kind() != reflect.Slice || rv.Type().Elem().Kind() == reflect.Uint8 || rv.Len() <= a.batchSize {
		return sender.LastResult(result)
	}

	for start := 0; start < rv.Len(); start += a.batchSize {
		end := min(start+a.batchSize, rv.Len())
		chunk := rv.Slice(start, end).Interface()
		if end == rv.Len() {
			return sender.LastResult(chunk)
		}
		if err := sender.SendResult(chunk); err != nil {
			return err
		}
	}
	return nil
}

func (a *Adapter) argumentValue(i int, arg any) (reflect.Value, error) {
	target := a.params.Types[i]
	if arg == nil {
		return reflect.Zero(target), nil
	}

	v := reflect.ValueOf(arg)
	switch {
	case v.Type().AssignableTo(target):
		return v, nil
	case v.Kind() == reflect.Pointer && !v.IsNil() && v.Elem().Type().AssignableTo(target):
		return v.Elem(), nil
	case target.Kind() == reflect.Pointer && v.Type().AssignableTo(target.Elem()):
		ptr := reflect.New(target.Elem())
		ptr.Elem().Set(v)
		return ptr, nil
	case isNumeric(v.Kind()) && isNumeric(target.Kind()):
		return v.Convert(target), nil
	case v.Kind() == reflect.String && target.Kind() == reflect.String:
		return v.Convert(target), nil
	}

	return reflect.Value{}, configError(a.id, codeArgumentType,
		"argument [%d] of function [%s]: cannot use %s as %s", i, a.id, v.Type(), target).
		WithMetadata(map[string]any{"position": i})
}

func isNumeric(k reflect.Kind) bool {
	switch k {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64,
		reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64,
		reflect.Float32, reflect.Float64:
		return true
	}
	return false
}

var _ grid.Function = (*Adapter)(nil)
