package function

import (
	"log/slog"
	"reflect"

	"github.com/goliatone/go-errors"

	"github.com/goliatone/go-datagrid/grid"
	"github.com/goliatone/go-datagrid/internal/logging"
)

// ArgumentResolver extracts the ordered argument list of an invocation.
type ArgumentResolver interface {
	ResolveArguments(fc grid.FunctionContext) ([]any, error)
}

// DefaultArgumentResolver returns the caller's payload as a fresh slice.
type DefaultArgumentResolver struct{}

// ResolveArguments copies a []any payload element by element, wraps any other non-nil payload in
// a one-element slice, and returns an empty slice otherwise.
func (DefaultArgumentResolver) ResolveArguments(fc grid.FunctionContext) ([]any, error) {
	switch payload := fc.Arguments().(type) {
	case nil:
		return []any{}, nil
	case []any:
		args := make([]any, len(payload))
		copy(args, payload)
		return args, nil
	default:
		return []any{payload}, nil
	}
}

// PortableArgumentResolver replaces portable values with live objects.
type PortableArgumentResolver struct {
	base    ArgumentResolver
	types   []reflect.Type
	support grid.PortableSupport
	logger  *slog.Logger
}

// NewPortableArgumentResolver decorates base. types are the declared types of the caller-supplied
// arguments, as returned by Parameters.ArgumentTypes.
func NewPortableArgumentResolver(base ArgumentResolver, types []reflect.Type, support grid.PortableSupport) *PortableArgumentResolver {
	if base == nil {
		base = DefaultArgumentResolver{}
	}
	return &PortableArgumentResolver{
		base:    base,
		types:   types,
		support: support,
		logger:  logging.Op(),
	}
}

// ResolveArguments substitutes each portable argument whose declared parameter type has the same
// name as the value's type, provided a deserializer is configured and can resolve that name.
func (r *PortableArgumentResolver) ResolveArguments(fc grid.FunctionContext) ([]any, error) {
	args, err := r.base.ResolveArguments(fc)
	if err != nil {
		return nil, err
	}
	if r.support == nil {
		return args, nil
	}

	deserializer, ok := r.support.PortableDeserializer()
	if !ok || deserializer == nil {
		return args, nil
	}

	for i, arg := range args {
		value, ok := arg.(grid.PortableValue)
		if !ok || i >= len(r.types) {
			continue
		}

		typeName := value.TypeName()
		if grid.TypeName(r.types[i]) != typeName {
			continue
		}

		target, ok := deserializer.Resolve(typeName)
		if !ok {
			r.logger.Debug("portable type not resolvable locally", "function", fc.FunctionID(), "type", typeName, "position", i)
			continue
		}

		live, err := deserializer.Deserialize(value, target)
		if err != nil {
			return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to deserialize portable argument").
				WithMetadata(map[string]any{"function": fc.FunctionID(), "position": i, "type": typeName})
		}
		args[i] = live
	}

	return args, nil
}

// ContextInjectingArgumentResolver places grid-provided values at their declared positions.
type ContextInjectingArgumentResolver struct {
	base   ArgumentResolver
	params Parameters
	logger *slog.Logger
}

// NewContextInjectingArgumentResolver validates params and decorates base.
func NewContextInjectingArgumentResolver(params Parameters, base ArgumentResolver) (*ContextInjectingArgumentResolver, error) {
	if err := params.Validate(); err != nil {
		return nil, err
	}
	if base == nil {
		base = DefaultArgumentResolver{}
	}
	return &ContextInjectingArgumentResolver{
		base:   base,
		params: params,
		logger: logging.Op(),
	}, nil
}

// ResolveArguments returns a slice exactly as long as the declared parameter list.
// Region and filter values are only injected for region executions.
func (r *ContextInjectingArgumentResolver) ResolveArguments(fc grid.FunctionContext) ([]any, error) {
	args, err := r.base.ResolveArguments(fc)
	if err != nil {
		return nil, err
	}

	p := r.params
	injected := make(map[int]any, 4)
	if p.Context != NoPosition {
		injected[p.Context] = fc
	}
	if p.ResultSender != NoPosition {
		injected[p.ResultSender] = fc.ResultSender()
	}
	if rc, ok := fc.(grid.RegionFunctionContext); ok {
		if p.Region != NoPosition {
			injected[p.Region] = r.regionView(rc)
		}
		if p.Filter != NoPosition {
			injected[p.Filter] = rc.Filter()
		}
	}

	if got := len(args) + len(injected); got != p.Count() {
		return nil, configError(p.Method, codeArgumentCount,
			"wrong number of arguments for method [%s]; expected [%d], but was [%d]",
			p.Method, p.Count(), got).
			WithMetadata(map[string]any{"expected": p.Count(), "actual": got})
	}

	out := make([]any, p.Count())
	next := 0
	for i := range out {
		if v, ok := injected[i]; ok {
			out[i] = v
			continue
		}
		out[i] = args[next]
		next++
	}
	return out, nil
}

func (r *ContextInjectingArgumentResolver) regionView(rc grid.RegionFunctionContext) any {
	region := grid.LocalDataForContext(rc)
	if grid.IsPartitioned(rc.DataSet()) {
		r.logger.Debug("injecting partition-local data",
			"function", rc.FunctionID(), "member", rc.MemberID(), "region", rc.DataSet().Name(), "entries", region.Size())
	}
	if r.params.regionAsData() {
		return grid.RegionData(region.Entries())
	}
	return region
}

// NewResolverChain builds the default, portable and context-injecting resolvers for params.
// Both decorators log to logger, or to the operational logger when it is nil.
func NewResolverChain(params Parameters, support grid.PortableSupport, logger *slog.Logger) (ArgumentResolver, error) {
	portable := NewPortableArgumentResolver(DefaultArgumentResolver{}, params.ArgumentTypes(), support)
	portable.logger = logging.Or(logger)

	injecting, err := NewContextInjectingArgumentResolver(params, portable)
	if err != nil {
		return nil, err
	}
	injecting.logger = logging.Or(logger)
	return injecting, nil
}
