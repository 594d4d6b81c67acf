package compose

import (
	"fmt"
	"slices"
	"strconv"

	"github.com/rill-ml/rill/pkg/rill"
)

// Registry is an ordered mapping from unique name to stage. Insertion order
// defines execution order; the last entry is the final stage.
type Registry struct {
	order  []string
	stages map[string]rill.Stage
}

func newRegistry() *Registry {
	return &Registry{stages: make(map[string]rill.Stage)}
}

// Len returns the number of registered stages.
func (r *Registry) Len() int {
	return len(r.order)
}

// Names returns the stage names in execution order.
func (r *Registry) Names() []string {
	return slices.Clone(r.order)
}

// Get returns the stage registered under name.
func (r *Registry) Get(name string) (rill.Stage, bool) {
	s, ok := r.stages[name]
	return s, ok
}

// Steps returns name/stage pairs in execution order.
func (r *Registry) Steps() []rill.NamedStage {
	steps := make([]rill.NamedStage, len(r.order))
	for i, name := range r.order {
		steps[i] = rill.NamedStage{Name: name, Stage: r.stages[name]}
	}
	return steps
}

// Final returns the last stage. An empty registry is a caller error,
// signaled as a lookup failure.
func (r *Registry) Final() (rill.NamedStage, error) {
	if len(r.order) == 0 {
		return rill.NamedStage{}, rill.ErrEmptyPipeline
	}
	name := r.order[len(r.order)-1]
	return rill.NamedStage{Name: name, Stage: r.stages[name]}, nil
}

// addStep sanitizes a step and registers it at the tail, or at the head
// when atStart is set. It accepts a bare stage, a Named pair, a plain
// function, or a stage factory.
func (r *Registry) addStep(step any, atStart bool) error {
	name := ""
	if ns, ok := step.(NamedStep); ok {
		name = ns.Name
		step = ns.Step
	}

	stage, err := coerceStage(step)
	if err != nil {
		return err
	}
	if name == "" {
		name = inferName(stage)
	}
	name = r.uniqueName(name)

	r.order = append(r.order, name)
	r.stages[name] = stage

	if atStart {
		r.moveToFront(name)
	}
	return nil
}

// uniqueName suffixes base with the smallest unused positive integer when
// it collides with a registered name.
func (r *Registry) uniqueName(base string) string {
	if _, taken := r.stages[base]; !taken {
		return base
	}
	for i := 1; ; i++ {
		name := base + strconv.Itoa(i)
		if _, taken := r.stages[name]; !taken {
			return name
		}
	}
}

func (r *Registry) moveToFront(name string) {
	i := slices.Index(r.order, name)
	if i <= 0 {
		return
	}
	r.order = slices.Delete(r.order, i, i+1)
	r.order = slices.Insert(r.order, 0, name)
}

// NamedStep pairs an explicit name with a step. Use Named to build one.
type NamedStep struct {
	Name string
	Step any
}

// Named attaches an explicit registry name to a step.
func Named(name string, step any) NamedStep {
	return NamedStep{Name: name, Step: step}
}

// coerceStage turns any accepted step form into a stage: stages pass
// through, plain functions are wrapped into a FuncTransformer, and
// factories are instantiated.
func coerceStage(step any) (rill.Stage, error) {
	switch v := step.(type) {
	case nil:
		return nil, fmt.Errorf("rill: nil pipeline step")
	case rill.Stage:
		return v, nil
	case func(rill.Record) rill.Record:
		return NewFuncTransformer(v), nil
	case func(rill.Record) (rill.Record, error):
		return newFuncTransformerE(v, funcName(v)), nil
	case func() rill.Stage:
		return v(), nil
	default:
		return nil, fmt.Errorf("rill: cannot use %T as a pipeline step", step)
	}
}
