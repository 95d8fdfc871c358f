package cacheinfra

import (
	"context"
	"reflect"
)

var (
	contextType = reflect.TypeOf((*context.Context)(nil)).Elem()
	errorType   = reflect.TypeOf((*error)(nil)).Elem()
)

// validateFetchFn checks that fetchFn has the shape func(context.Context) (T, error).
func validateFetchFn(fetchFn any) (reflect.Type, error) {
	if fetchFn == nil {
		return nil, &ConfigError{Field: "fetchFn", Message: "cannot be nil"}
	}

	fnType := reflect.TypeOf(fetchFn)
	if fnType.Kind() != reflect.Func {
		return nil, &ConfigError{Field: "fetchFn", Message: "must be a function"}
	}
	if fnType.NumIn() != 1 || fnType.NumOut() != 2 {
		return nil, &ConfigError{Field: "fetchFn", Message: "must have signature func(context.Context) (T, error)"}
	}
	if !fnType.In(0).Implements(contextType) {
		return nil, &ConfigError{Field: "fetchFn", Message: "first parameter must be context.Context"}
	}
	if !fnType.Out(1).Implements(errorType) {
		return nil, &ConfigError{Field: "fetchFn", Message: "second return value must be error"}
	}
	return fnType, nil
}

// callFetch invokes a validated fetchFn and returns its value as any.
func callFetch(ctx context.Context, fetchFn any) (any, error) {
	if fn, ok := fetchFn.(func(context.Context) (any, error)); ok {
		return fn(ctx)
	}

	out := reflect.ValueOf(fetchFn).Call([]reflect.Value{reflect.ValueOf(&ctx).Elem()})

	var result any
	if out[0].IsValid() && out[0].CanInterface() {
		result = out[0].Interface()
	}
	if errValue := out[1]; !errValue.IsNil() {
		return result, errValue.Interface().(error)
	}
	return result, nil
}
