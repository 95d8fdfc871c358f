package localgrid

import (
	"reflect"
	"sync/atomic"

	"github.com/goliatone/go-errors"
	"github.com/puzpuzpuz/xsync/v3"
	"github.com/vmihailenco/msgpack/v5"

	"github.com/goliatone/go-datagrid/grid"
)

// PortableInstance is the serialized form of a registered domain object.
type PortableInstance struct {
	Type string `msgpack:"type"`
	Data []byte `msgpack:"data"`
}

// TypeName implements grid.PortableValue.
func (p *PortableInstance) TypeName() string { return p.Type }

// Fields decodes the payload into a generic field map.
func (p *PortableInstance) Fields() (map[string]any, error) {
	var fields map[string]any
	if err := msgpack.Unmarshal(p.Data, &fields); err != nil {
		return nil, err
	}
	return fields, nil
}

// PortableRegistry maps portable type names to Go types.
type PortableRegistry struct {
	types          *xsync.MapOf[string, reflect.Type]
	readSerialized atomic.Bool
}

var _ grid.PortableDeserializer = (*PortableRegistry)(nil)

// NewPortableRegistry creates an empty registry.
func NewPortableRegistry() *PortableRegistry {
	return &PortableRegistry{types: xsync.NewMapOf[string, reflect.Type]()}
}

// Register records the dynamic types of samples. Pointer samples register their element type.
func (r *PortableRegistry) Register(samples ...any) {
	for _, s := range samples {
		t := reflect.TypeOf(s)
		if t == nil {
			continue
		}
		for t.Kind() == reflect.Pointer {
			t = t.Elem()
		}
		r.types.Store(grid.TypeName(t), t)
	}
}

// SetReadSerialized toggles portable delivery of registered argument types.
func (r *PortableRegistry) SetReadSerialized(enabled bool) {
	r.readSerialized.Store(enabled)
}

// ReadSerialized reports whether registered types travel as portable values.
func (r *PortableRegistry) ReadSerialized() bool {
	return r.readSerialized.Load()
}

// Resolve implements grid.PortableDeserializer.
func (r *PortableRegistry) Resolve(typeName string) (reflect.Type, bool) {
	return r.types.Load(typeName)
}

// Deserialize implements grid.PortableDeserializer. A pointer target receives a pointer.
func (r *PortableRegistry) Deserialize(value grid.PortableValue, target reflect.Type) (any, error) {
	inst, ok := value.(*PortableInstance)
	if !ok {
		return nil, errors.New("unsupported portable value", errors.CategoryBadInput).
			WithTextCode("UNSUPPORTED_PORTABLE_VALUE").
			WithMetadata(map[string]any{"type": value.TypeName()})
	}

	elem := target
	if elem.Kind() == reflect.Pointer {
		elem = elem.Elem()
	}
	out := reflect.New(elem)
	if err := msgpack.Unmarshal(inst.Data, out.Interface()); err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to decode portable value").
			WithMetadata(map[string]any{"type": inst.Type})
	}
	if target.Kind() == reflect.Pointer {
		return out.Interface(), nil
	}
	return out.Elem().Interface(), nil
}

// Serialize converts v to a PortableInstance when its type is registered.
func (r *PortableRegistry) Serialize(v any) (any, error) {
	if v == nil {
		return v, nil
	}
	name := grid.TypeNameOf(v)
	if _, ok := r.types.Load(name); !ok {
		return v, nil
	}
	data, err := msgpack.Marshal(v)
	if err != nil {
		return nil, errors.Wrap(err, errors.CategoryBadInput, "failed to encode portable value").
			WithMetadata(map[string]any{"type": name})
	}
	return &PortableInstance{Type: name, Data: data}, nil
}

// encodeArgs applies Serialize to every argument when read-serialized delivery is on.
func (r *PortableRegistry) encodeArgs(args []any) ([]any, error) {
	if !r.ReadSerialized() || len(args) == 0 {
		return args, nil
	}
	out := make([]any, len(args))
	for i, a := range args {
		v, err := r.Serialize(a)
		if err != nil {
			return nil, err
		}
		out[i] = v
	}
	return out, nil
}
