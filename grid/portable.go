package grid

import (
	"reflect"
)

// PortableValue is a serialized stand-in for a domain object.
type PortableValue interface {
	// TypeName is the declared type of the serialized object, as produced by TypeName.
	TypeName() string
}

// PortableDeserializer turns portable values back into Go values.
type PortableDeserializer interface {
	// Resolve reports whether typeName maps to a type known to this process.
	Resolve(typeName string) (reflect.Type, bool)
	// Deserialize decodes value into a value of type target.
	Deserialize(value PortableValue, target reflect.Type) (any, error)
}

// PortableSupport exposes the deserializer currently configured on a cache, if any.
type PortableSupport interface {
	PortableDeserializer() (PortableDeserializer, bool)
}

// PortableSupportFunc adapts a function to PortableSupport.
type PortableSupportFunc func() (PortableDeserializer, bool)

// PortableDeserializer implements PortableSupport.
func (f PortableSupportFunc) PortableDeserializer() (PortableDeserializer, bool) {
	return f()
}

// TypeName returns the portable type name for t: the package path and type name joined by a dot.
// Pointer types resolve to their element type. Unnamed types use their string form.
func TypeName(t reflect.Type) string {
	if t == nil {
		return ""
	}
	for t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t.Name() == "" {
		return t.String()
	}
	if t.PkgPath() == "" {
		return t.Name()
	}
	return t.PkgPath() + "." + t.Name()
}

// TypeNameOf returns TypeName for the dynamic type of v.
func TypeNameOf(v any) string {
	if v == nil {
		return ""
	}
	return TypeName(reflect.TypeOf(v))
}
