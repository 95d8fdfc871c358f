package cache

import (
	"encoding"
	"encoding/json"
	"fmt"
	"reflect"
	"sort"
	"strconv"
	"strings"

	"github.com/goliatone/go-datagrid/grid"
)

// KeySeparator delimits cache key segments.
const KeySeparator = "::"

// KeySerializerOption configures the default serializer.
type KeySerializerOption func(*defaultKeySerializer)

// WithKeyPrefix prepends prefix as the first key segment.
func WithKeyPrefix(prefix string) KeySerializerOption {
	return func(s *defaultKeySerializer) {
		s.prefix = prefix
	}
}

// defaultKeySerializer encodes arguments by walking them with reflection.
// Maps and key sets are written in sorted order so that iteration order never changes a key.
type defaultKeySerializer struct {
	prefix string
}

// NewDefaultKeySerializer returns the reflection-based KeySerializer.
func NewDefaultKeySerializer(opts ...KeySerializerOption) KeySerializer {
	s := &defaultKeySerializer{}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// SerializeKey joins the prefix, namespace and encoded args with KeySeparator.
func (s *defaultKeySerializer) SerializeKey(namespace string, args ...any) string {
	var b strings.Builder
	if s.prefix != "" {
		b.WriteString(s.prefix)
		b.WriteString(KeySeparator)
	}
	b.WriteString(namespace)

	for _, arg := range args {
		b.WriteString(KeySeparator)
		b.WriteString(s.encode(arg))
	}
	return b.String()
}

func (s *defaultKeySerializer) encode(v any) string {
	if v == nil {
		return "nil"
	}

	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Pointer:
		if rv.IsNil() {
			return "nil"
		}
		return s.encode(rv.Elem().Interface())
	case reflect.Func:
		// stable only for the lifetime of the process
		return fmt.Sprintf("func:%p", v)
	case reflect.Chan:
		return fmt.Sprintf("chan:%p", v)
	}

	switch typed := v.(type) {
	case grid.KeySet:
		return s.encodeKeySet(typed)
	case grid.PortableValue:
		return "portable:" + typed.TypeName() + ":" + s.encodeReflect(rv)
	case encoding.TextMarshaler:
		if text, err := typed.MarshalText(); err == nil {
			return "text:" + string(text)
		}
	}

	return s.encodeReflect(rv)
}

func (s *defaultKeySerializer) encodeReflect(rv reflect.Value) string {
	switch rv.Kind() {
	case reflect.Bool:
		return strconv.FormatBool(rv.Bool())
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return strconv.FormatInt(rv.Int(), 10)
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64, reflect.Uintptr:
		return strconv.FormatUint(rv.Uint(), 10)
	case reflect.Float32, reflect.Float64, reflect.Complex64, reflect.Complex128, reflect.String:
		return fmt.Sprintf("%v", rv.Interface())
	case reflect.Slice:
		if rv.IsNil() {
			return "slice:nil"
		}
		return "slice" + s.encodeElements(rv)
	case reflect.Array:
		return "array" + s.encodeElements(rv)
	case reflect.Map:
		if rv.IsNil() {
			return "map:nil"
		}
		return s.encodeMap(rv)
	case reflect.Struct:
		return s.encodeStruct(rv)
	}
	return s.jsonFallback(rv)
}

func (s *defaultKeySerializer) encodeElements(rv reflect.Value) string {
	parts := make([]string, rv.Len())
	for i := range parts {
		parts[i] = s.encodeIndexed(rv.Index(i))
	}
	return fmt.Sprintf("[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

func (s *defaultKeySerializer) encodeMap(rv reflect.Value) string {
	pairs := make([]string, 0, rv.Len())
	iter := rv.MapRange()
	for iter.Next() {
		pairs = append(pairs, s.encodeIndexed(iter.Key())+"="+s.encodeIndexed(iter.Value()))
	}
	sort.Strings(pairs)
	return fmt.Sprintf("map[%d]:{%s}", len(pairs), strings.Join(pairs, ","))
}

func (s *defaultKeySerializer) encodeKeySet(set grid.KeySet) string {
	keys := set.Keys()
	parts := make([]string, len(keys))
	for i, k := range keys {
		parts[i] = s.encode(k)
	}
	sort.Strings(parts)
	return fmt.Sprintf("keys[%d]:{%s}", len(parts), strings.Join(parts, ","))
}

// encodeStruct writes exported fields only.
func (s *defaultKeySerializer) encodeStruct(rv reflect.Value) string {
	rt := rv.Type()
	parts := make([]string, 0, rv.NumField())
	for i := 0; i < rv.NumField(); i++ {
		field := rt.Field(i)
		if !field.IsExported() {
			continue
		}
		parts = append(parts, field.Name+":"+s.encodeIndexed(rv.Field(i)))
	}
	return "struct:{" + strings.Join(parts, ",") + "}"
}

func (s *defaultKeySerializer) encodeIndexed(v reflect.Value) string {
	if !v.CanInterface() {
		return s.jsonFallback(v)
	}
	return s.encode(v.Interface())
}

func (s *defaultKeySerializer) jsonFallback(rv reflect.Value) string {
	if rv.CanInterface() {
		if data, err := json.Marshal(rv.Interface()); err == nil {
			return "json:" + string(data)
		}
	}
	return "fallback:" + rv.Type().String()
}
