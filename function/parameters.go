package function

import (
	"reflect"

	"github.com/goliatone/go-datagrid/grid"
)

// NoPosition marks a category that the function does not declare.
const NoPosition = -1

var (
	functionContextType = reflect.TypeOf((*grid.FunctionContext)(nil)).Elem()
	resultSenderType    = reflect.TypeOf((*grid.ResultSender)(nil)).Elem()
	regionType          = reflect.TypeOf((*grid.Region)(nil)).Elem()
	regionDataType      = reflect.TypeOf(grid.RegionData(nil))
	keySetType          = reflect.TypeOf(grid.KeySet(nil))
	errorType           = reflect.TypeOf((*error)(nil)).Elem()
)

// Parameters describes where the grid injects values into a function's parameter list.
// Build it with InspectParameters, or fill it by hand and call Validate.
type Parameters struct {
	Method string
	Types  []reflect.Type

	Context      int
	ResultSender int
	Region       int
	Filter       int
}

// NewParameters returns a descriptor for types with no injected positions.
func NewParameters(method string, types ...reflect.Type) Parameters {
	return Parameters{
		Method:       method,
		Types:        types,
		Context:      NoPosition,
		ResultSender: NoPosition,
		Region:       NoPosition,
		Filter:       NoPosition,
	}
}

// InspectParameters computes the injection positions of fnType from its parameter types.
// Declaring any category twice is an error.
func InspectParameters(method string, fnType reflect.Type) (Parameters, error) {
	if fnType == nil || fnType.Kind() != reflect.Func {
		return Parameters{}, configError(method, codeInvalidFunction, "function [%s] must be a func", method)
	}
	if fnType.IsVariadic() {
		return Parameters{}, configError(method, codeInvalidFunction, "function [%s] cannot be variadic", method)
	}

	types := make([]reflect.Type, fnType.NumIn())
	for i := range types {
		types[i] = fnType.In(i)
	}
	p := NewParameters(method, types...)

	regionDataPosition := NoPosition
	for i, t := range types {
		var err error
		switch {
		case t.Implements(functionContextType):
			err = p.claim(&p.Context, i, "FunctionContext")
		case t.Implements(resultSenderType):
			err = p.claim(&p.ResultSender, i, "ResultSender")
		case t == regionDataType:
			err = p.claim(&regionDataPosition, i, "RegionData")
		case t.Implements(regionType):
			err = p.claim(&p.Region, i, "Region")
		case t == keySetType:
			err = p.claim(&p.Filter, i, "KeySet filter")
		}
		if err != nil {
			return Parameters{}, err
		}
	}

	if regionDataPosition != NoPosition {
		if p.Region != NoPosition && p.Region != regionDataPosition {
			return Parameters{}, configError(method, codeRegionConflict,
				"function [%s] declares region data at position [%d] and a region at position [%d]; they must be the same parameter",
				method, regionDataPosition, p.Region)
		}
		p.Region = regionDataPosition
	}

	return p, p.Validate()
}

func (p Parameters) claim(slot *int, position int, category string) error {
	if *slot != NoPosition {
		return configError(p.Method, codeDuplicateParameter,
			"function [%s] declares more than one %s parameter: positions [%d] and [%d]",
			p.Method, category, *slot, position).
			WithMetadata(map[string]any{"category": category, "position": position})
	}
	*slot = position
	return nil
}

// Validate checks that every injected position is inside the parameter list and that no two
// categories share a position.
func (p Parameters) Validate() error {
	seen := map[int]string{}
	for _, c := range []struct {
		name     string
		position int
	}{
		{"FunctionContext", p.Context},
		{"ResultSender", p.ResultSender},
		{"Region", p.Region},
		{"KeySet filter", p.Filter},
	} {
		if c.position == NoPosition {
			continue
		}
		if c.position < 0 || c.position >= len(p.Types) {
			return configError(p.Method, codeInvalidPosition,
				"function [%s] declares %s at position [%d] outside of its [%d] parameters",
				p.Method, c.name, c.position, len(p.Types))
		}
		if other, ok := seen[c.position]; ok {
			return configError(p.Method, codeInvalidPosition,
				"function [%s] declares %s and %s at the same position [%d]",
				p.Method, other, c.name, c.position)
		}
		seen[c.position] = c.name
	}
	return nil
}

// Count is the declared parameter count.
func (p Parameters) Count() int {
	return len(p.Types)
}

// Injected reports whether the grid fills position i.
func (p Parameters) Injected(i int) bool {
	return i != NoPosition && (i == p.Context || i == p.ResultSender || i == p.Region || i == p.Filter)
}

// InjectedCount is the number of grid-provided parameters.
func (p Parameters) InjectedCount() int {
	n := 0
	for _, pos := range []int{p.Context, p.ResultSender, p.Region, p.Filter} {
		if pos != NoPosition {
			n++
		}
	}
	return n
}

// ArgumentTypes returns the declared types of the caller-supplied parameters, in order.
func (p Parameters) ArgumentTypes() []reflect.Type {
	out := make([]reflect.Type, 0, len(p.Types))
	for i, t := range p.Types {
		if p.Injected(i) {
			continue
		}
		out = append(out, t)
	}
	return out
}

func (p Parameters) regionAsData() bool {
	return p.Region != NoPosition && p.Types[p.Region] == regionDataType
}
