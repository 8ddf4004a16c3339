// Package filters provides the named filter registry consumed by the
// template renderer, a default set of built-in filters, and support for
// user-defined filters written in Starlark.
package filters

import (
	"fmt"
	"reflect"
	"strconv"
)

// Func transforms a resolved template value. Args are the literal strings
// written after the filter name in the template.
type Func func(value any, args []string) (any, error)

// UnknownFilterError is returned by Apply for a name absent from the
// registry. It is fatal to the render call: silently dropping a
// transformation could emit unsafe output.
type UnknownFilterError struct{ Name string }

func (e *UnknownFilterError) Error() string { return "unknown filter: " + e.Name }

// Registry maps filter names to their implementations. Register all
// filters before rendering begins; lookups during concurrent renders do
// not lock.
type Registry struct {
	funcs map[string]Func
}

func NewRegistry() *Registry {
	return &Registry{funcs: map[string]Func{}}
}

func (r *Registry) Register(name string, fn Func) {
	if r.funcs == nil {
		r.funcs = map[string]Func{}
	}
	r.funcs[name] = fn
}

func (r *Registry) Has(name string) bool {
	_, ok := r.funcs[name]
	return ok
}

// Names returns the registered filter names in no particular order.
func (r *Registry) Names() []string {
	out := make([]string, 0, len(r.funcs))
	for name := range r.funcs {
		out = append(out, name)
	}
	return out
}

func (r *Registry) Apply(name string, value any, args []string) (any, error) {
	fn, ok := r.funcs[name]
	if !ok {
		return nil, &UnknownFilterError{Name: name}
	}
	return fn(value, args)
}

func toString(v any) string {
	switch t := v.(type) {
	case nil:
		return ""
	case string:
		return t
	case bool:
		return strconv.FormatBool(t)
	case int:
		return strconv.Itoa(t)
	case int64:
		return strconv.FormatInt(t, 10)
	case float64:
		return strconv.FormatFloat(t, 'f', -1, 64)
	default:
		return fmt.Sprintf("%v", v)
	}
}

func toFloat(v any) (float64, error) {
	switch t := v.(type) {
	case int:
		return float64(t), nil
	case int64:
		return float64(t), nil
	case float64:
		return t, nil
	case string:
		return strconv.ParseFloat(t, 64)
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return float64(rv.Int()), nil
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return float64(rv.Uint()), nil
	case reflect.Float32, reflect.Float64:
		return rv.Float(), nil
	}
	return 0, fmt.Errorf("not a number: %T", v)
}

func isEmpty(v any) bool {
	if v == nil {
		return true
	}
	switch t := v.(type) {
	case string:
		return t == ""
	case bool:
		return !t
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map:
		return rv.Len() == 0
	}
	return false
}
