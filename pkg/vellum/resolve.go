package vellum

import (
	"reflect"
	"sort"
	"strings"
)

// frame is one loop-context binding set, pushed per loop iteration.
type frame map[string]any

// resolver resolves dotted paths against a loop-frame stack layered over
// the top-level data context. One resolver exists per render call; it is
// never shared or pooled across concurrent renders.
type resolver struct {
	data   map[string]any
	frames []frame
}

func (r *resolver) push(f frame) {
	r.frames = append(r.frames, f)
}

func (r *resolver) pop() {
	r.frames = r.frames[:len(r.frames)-1]
}

func (r *resolver) depth() int { return len(r.frames) }

// resolve splits path on "." and resolves it. The root segment is searched
// in the frame stack innermost-first; the first frame binding it wins even
// when the bound value is falsy. Remaining segments traverse into the
// bound value. Without a frame binding, the top-level context is used.
// Any miss yields nil, never an error.
func (r *resolver) resolve(path string) any {
	segs := strings.Split(path, ".")
	root := segs[0]
	for i := len(r.frames) - 1; i >= 0; i-- {
		if v, ok := r.frames[i][root]; ok {
			return traversePath(v, segs[1:])
		}
	}
	v, ok := traverse(r.data, root)
	if !ok {
		return nil
	}
	return traversePath(v, segs[1:])
}

func (r *resolver) resolveVar(v *VariableNode) any {
	if len(v.Path) == 0 {
		return r.resolve(v.Name)
	}
	return r.resolve(v.Name + "." + strings.Join(v.Path, "."))
}

// evaluateCondition applies the natural boolean coercion to a resolved
// value: nil, empty string, numeric zero, false, and empty collections
// are all false.
func (r *resolver) evaluateCondition(c Condition) bool {
	switch t := c.(type) {
	case *Comparison:
		return stringify(r.resolveVar(t.Left)) == t.Right
	case *Truthiness:
		return truthy(r.resolveVar(t.Expr))
	}
	return false
}

func traversePath(v any, segs []string) any {
	for _, s := range segs {
		next, ok := traverse(v, s)
		if !ok {
			return nil
		}
		v = next
	}
	return v
}

// traverse performs one nested lookup step: map key first, then struct
// field, then zero-argument accessor method, each case-insensitively for
// exported Go names.
func traverse(v any, key string) (any, bool) {
	if v == nil {
		return nil, false
	}
	if m, ok := v.(map[string]any); ok {
		val, ok := m[key]
		return val, ok
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Map:
		if rv.Type().Key().Kind() != reflect.String {
			return nil, false
		}
		mv := rv.MapIndex(reflect.ValueOf(key))
		if mv.IsValid() {
			return mv.Interface(), true
		}
		return nil, false
	case reflect.Struct:
		if f := rv.FieldByNameFunc(func(n string) bool { return strings.EqualFold(n, key) }); f.IsValid() && f.CanInterface() {
			return f.Interface(), true
		}
		return methodLookup(rv, key)
	case reflect.Pointer, reflect.Interface:
		if rv.IsNil() {
			return nil, false
		}
		if out, ok := methodLookup(rv, key); ok {
			return out, ok
		}
		return traverse(rv.Elem().Interface(), key)
	default:
		return methodLookup(rv, key)
	}
}

// methodLookup finds a zero-argument, single-result accessor method whose
// name matches key case-insensitively and calls it.
func methodLookup(rv reflect.Value, key string) (any, bool) {
	rt := rv.Type()
	for i := 0; i < rt.NumMethod(); i++ {
		m := rt.Method(i)
		if !strings.EqualFold(m.Name, key) {
			continue
		}
		if m.Type.NumIn() != 1 || m.Type.NumOut() != 1 {
			return nil, false
		}
		out := rv.Method(i).Call(nil)
		return out[0].Interface(), true
	}
	return nil, false
}

func truthy(v any) bool {
	if v == nil {
		return false
	}
	switch t := v.(type) {
	case bool:
		return t
	case string:
		return t != ""
	case int:
		return t != 0
	case int64:
		return t != 0
	case float64:
		return t != 0
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len() > 0
	case reflect.Int, reflect.Int8, reflect.Int16, reflect.Int32, reflect.Int64:
		return rv.Int() != 0
	case reflect.Uint, reflect.Uint8, reflect.Uint16, reflect.Uint32, reflect.Uint64:
		return rv.Uint() != 0
	case reflect.Float32, reflect.Float64:
		return rv.Float() != 0
	case reflect.Pointer, reflect.Interface:
		return !rv.IsNil()
	}
	return true
}

// iterate converts a resolved value into an ordered element list. Maps
// iterate over their keys; anything non-iterable reports false.
func iterate(v any) ([]any, bool) {
	if v == nil {
		return nil, false
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array:
		out := make([]any, 0, rv.Len())
		for i := 0; i < rv.Len(); i++ {
			out = append(out, rv.Index(i).Interface())
		}
		return out, true
	case reflect.Map:
		keys := rv.MapKeys()
		out := make([]any, 0, len(keys))
		for _, k := range keys {
			out = append(out, k.Interface())
		}
		sortAnyStrings(out)
		return out, true
	}
	return nil, false
}

// sortAnyStrings orders map keys when they are all strings so map
// iteration is deterministic across renders.
func sortAnyStrings(vals []any) {
	for _, v := range vals {
		if _, ok := v.(string); !ok {
			return
		}
	}
	sort.Slice(vals, func(i, j int) bool { return vals[i].(string) < vals[j].(string) })
}
