package filters

import (
	"fmt"
	"net/url"
	"reflect"
	"strconv"
	"strings"
)

// Default returns a fresh registry with the built-in filter set. The
// "raw" marker filter is included as an identity so registries stay
// introspectable, though the renderer treats it specially as the
// escape-disable marker.
func Default() *Registry {
	r := NewRegistry()
	r.Register("raw", func(v any, _ []string) (any, error) { return v, nil })
	r.Register("upper", func(v any, _ []string) (any, error) { return strings.ToUpper(toString(v)), nil })
	r.Register("lower", func(v any, _ []string) (any, error) { return strings.ToLower(toString(v)), nil })
	r.Register("trim", func(v any, _ []string) (any, error) { return strings.TrimSpace(toString(v)), nil })
	r.Register("capitalize", capitalize)
	r.Register("default", defaultFilter)
	r.Register("join", join)
	r.Register("length", length)
	r.Register("truncate", truncate)
	r.Register("replace", replace)
	r.Register("urlencode", func(v any, _ []string) (any, error) { return url.QueryEscape(toString(v)), nil })
	r.Register("markdown", markdown)
	r.Register("number", numberFilter)
	r.Register("currency", currencyFilter)
	r.Register("percent", percent)
	r.Register("date", date)
	return r
}

func capitalize(v any, _ []string) (any, error) {
	s := toString(v)
	if s == "" {
		return s, nil
	}
	return strings.ToUpper(s[:1]) + s[1:], nil
}

// defaultFilter substitutes its argument when the incoming value is
// missing or empty.
func defaultFilter(v any, args []string) (any, error) {
	if len(args) == 0 {
		return v, nil
	}
	if isEmpty(v) {
		return args[0], nil
	}
	return v, nil
}

func join(v any, args []string) (any, error) {
	sep := ", "
	if len(args) > 0 {
		sep = args[0]
	}
	rv := reflect.ValueOf(v)
	if v == nil || (rv.Kind() != reflect.Slice && rv.Kind() != reflect.Array) {
		return toString(v), nil
	}
	parts := make([]string, 0, rv.Len())
	for i := 0; i < rv.Len(); i++ {
		parts = append(parts, toString(rv.Index(i).Interface()))
	}
	return strings.Join(parts, sep), nil
}

func length(v any, _ []string) (any, error) {
	if v == nil {
		return 0, nil
	}
	rv := reflect.ValueOf(v)
	switch rv.Kind() {
	case reflect.Slice, reflect.Array, reflect.Map, reflect.String:
		return rv.Len(), nil
	}
	return 0, fmt.Errorf("length of %T", v)
}

func truncate(v any, args []string) (any, error) {
	n := 80
	if len(args) > 0 {
		parsed, err := strconv.Atoi(args[0])
		if err != nil {
			return nil, fmt.Errorf("truncate length %q: %w", args[0], err)
		}
		n = parsed
	}
	s := toString(v)
	runes := []rune(s)
	if len(runes) <= n {
		return s, nil
	}
	return string(runes[:n]) + "…", nil
}

func replace(v any, args []string) (any, error) {
	if len(args) < 2 {
		return nil, fmt.Errorf("replace needs old and new arguments")
	}
	return strings.ReplaceAll(toString(v), args[0], args[1]), nil
}
