package rill

import "maps"

// Record is a single observation: a set of named feature values.
type Record map[string]any

// Label is the target value associated with a Record during supervised fits.
type Label = any

// Clone returns a shallow copy of the record. Stages that run concurrently
// receive clones so that no branch can mutate a sibling's input.
func (x Record) Clone() Record {
	return maps.Clone(x)
}

// NamedStage pairs a stage with its unique registry name.
type NamedStage struct {
	Name  string
	Stage Stage
}
