package filters

// Starlark-scripted filters. Every top-level function in the script file
// becomes a filter under its own name: the first parameter receives the
// template value, the rest receive the filter's string arguments.
//
//	def shout(value):
//	    return value.upper() + "!"
//
// registers a "shout" filter.

import (
	"fmt"

	"go.starlark.net/starlark"
)

// LoadScript executes a Starlark file and registers its functions as
// filters, overriding same-named builtins.
func (r *Registry) LoadScript(path string) error {
	thread := &starlark.Thread{Name: "vellum-filters"}
	globals, err := starlark.ExecFile(thread, path, nil, starlark.StringDict{})
	if err != nil {
		return fmt.Errorf("loading filter script %q: %w", path, err)
	}
	return r.registerGlobals(globals)
}

// LoadScriptSource is LoadScript for in-memory source, used by tests and
// embedders.
func (r *Registry) LoadScriptSource(name, src string) error {
	thread := &starlark.Thread{Name: "vellum-filters"}
	globals, err := starlark.ExecFile(thread, name, src, starlark.StringDict{})
	if err != nil {
		return fmt.Errorf("loading filter script %q: %w", name, err)
	}
	return r.registerGlobals(globals)
}

func (r *Registry) registerGlobals(globals starlark.StringDict) error {
	for name, v := range globals {
		fn, ok := v.(*starlark.Function)
		if !ok {
			continue
		}
		r.Register(name, scriptedFilter(fn))
	}
	return nil
}

// scriptedFilter wraps a Starlark function as a Func. A fresh thread per
// call keeps scripted filters usable from concurrent renders.
func scriptedFilter(fn *starlark.Function) Func {
	return func(value any, args []string) (any, error) {
		thread := &starlark.Thread{Name: "vellum-filter:" + fn.Name()}
		callArgs := starlark.Tuple{toStarlark(value)}
		for _, a := range args {
			callArgs = append(callArgs, starlark.String(a))
		}
		out, err := starlark.Call(thread, fn, callArgs, nil)
		if err != nil {
			return nil, fmt.Errorf("scripted filter %s: %w", fn.Name(), err)
		}
		return fromStarlark(out), nil
	}
}

func toStarlark(v any) starlark.Value {
	switch t := v.(type) {
	case nil:
		return starlark.None
	case bool:
		return starlark.Bool(t)
	case int:
		return starlark.MakeInt(t)
	case int64:
		return starlark.MakeInt64(t)
	case float64:
		return starlark.Float(t)
	case string:
		return starlark.String(t)
	case []any:
		elems := make([]starlark.Value, 0, len(t))
		for _, e := range t {
			elems = append(elems, toStarlark(e))
		}
		return starlark.NewList(elems)
	case map[string]any:
		d := starlark.NewDict(len(t))
		for k, e := range t {
			_ = d.SetKey(starlark.String(k), toStarlark(e))
		}
		return d
	default:
		return starlark.String(toString(v))
	}
}

func fromStarlark(v starlark.Value) any {
	switch t := v.(type) {
	case starlark.NoneType:
		return nil
	case starlark.Bool:
		return bool(t)
	case starlark.Int:
		if i, ok := t.Int64(); ok {
			return i
		}
		return t.String()
	case starlark.Float:
		return float64(t)
	case starlark.String:
		return string(t)
	case *starlark.List:
		out := make([]any, 0, t.Len())
		for i := 0; i < t.Len(); i++ {
			out = append(out, fromStarlark(t.Index(i)))
		}
		return out
	case *starlark.Dict:
		out := make(map[string]any, t.Len())
		for _, item := range t.Items() {
			key, ok := item[0].(starlark.String)
			if !ok {
				continue
			}
			out[string(key)] = fromStarlark(item[1])
		}
		return out
	default:
		return v.String()
	}
}
