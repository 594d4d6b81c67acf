package rill

import (
	"errors"
	"fmt"
	"reflect"
)

// ErrEmptyPipeline is returned when an operation needs at least one stage.
var ErrEmptyPipeline = errors.New("rill: empty pipeline")

// ErrEmptyUnion is returned when a union has no branches to run.
var ErrEmptyUnion = errors.New("rill: empty union")

// CapabilityError reports a stage invoked through a capability it does not
// implement.
type CapabilityError struct {
	Stage      string
	Capability string
}

func (e *CapabilityError) Error() string {
	return fmt.Sprintf("rill: stage %q lacks capability %s", e.Stage, e.Capability)
}

// StageError annotates a failure raised inside a stage call with the stage
// name and the call that produced it. The underlying error is never
// swallowed.
type StageError struct {
	Stage string
	Op    string
	Err   error
}

func (e *StageError) Error() string {
	return fmt.Sprintf("rill: stage %q: %s: %v", e.Stage, e.Op, e.Err)
}

func (e *StageError) Unwrap() error {
	return e.Err
}

// IsNil reports whether i is nil or a typed nil pointer.
func IsNil(i any) bool {
	if i == nil {
		return true
	}
	v := reflect.ValueOf(i)
	return v.Kind() == reflect.Pointer && v.IsNil()
}
