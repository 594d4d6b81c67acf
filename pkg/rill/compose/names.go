package compose

import (
	"fmt"
	"reflect"
	"runtime"
	"strings"

	"github.com/rill-ml/rill/pkg/rill"
)

// inferName derives a registry name for an unnamed stage: function adapters
// use the wrapped function's own name, other stages their type name, with a
// textual fallback.
func inferName(s rill.Stage) string {
	if ft, ok := s.(*FuncTransformer); ok {
		if ft.name != "" {
			return ft.name
		}
	}
	if name := typeName(s); name != "" {
		return name
	}
	return fmt.Sprintf("%v", s)
}

// typeName returns the bare type name of v, without package or pointer
// decoration.
func typeName(v any) string {
	t := reflect.TypeOf(v)
	for t != nil && t.Kind() == reflect.Pointer {
		t = t.Elem()
	}
	if t == nil {
		return ""
	}
	return t.Name()
}

// funcName resolves the short name of a function value, stripping the
// package path and method-value suffix.
func funcName(fn any) string {
	v := reflect.ValueOf(fn)
	if v.Kind() != reflect.Func {
		return ""
	}
	f := runtime.FuncForPC(v.Pointer())
	if f == nil {
		return ""
	}
	name := strings.TrimSuffix(f.Name(), "-fm")
	if i := strings.LastIndex(name, "/"); i >= 0 {
		name = name[i+1:]
	}
	if i := strings.LastIndex(name, "."); i >= 0 {
		name = name[i+1:]
	}
	return name
}
