package compose

import "github.com/rill-ml/rill/pkg/rill"

// FuncTransformer adapts a plain function into a Transformer: the function
// is invoked with the record and its return value becomes the new record.
// It carries no learned state.
type FuncTransformer struct {
	fn   func(rill.Record) (rill.Record, error)
	name string
}

// NewFuncTransformer wraps fn. The stage label is the function's own name.
func NewFuncTransformer(fn func(rill.Record) rill.Record) *FuncTransformer {
	name := funcName(fn)
	return newFuncTransformerE(func(x rill.Record) (rill.Record, error) {
		return fn(x), nil
	}, name)
}

func newFuncTransformerE(fn func(rill.Record) (rill.Record, error), name string) *FuncTransformer {
	if name == "" {
		name = "FuncTransformer"
	}
	return &FuncTransformer{fn: fn, name: name}
}

func (t *FuncTransformer) Label() string {
	return t.name
}

func (t *FuncTransformer) TransformOne(x rill.Record) (rill.Record, error) {
	return t.fn(x)
}
