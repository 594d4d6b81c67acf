package compose

import (
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/rill-ml/rill/pkg/rill"
)

// CollisionPolicy decides what happens when two union branches emit the
// same output key.
type CollisionPolicy int

const (
	// CollideLastWins lets the later branch overwrite the earlier one.
	CollideLastWins CollisionPolicy = iota
	// CollideReject fails the transform on the first colliding key.
	CollideReject
	// CollidePrefix disambiguates colliding keys with the branch name.
	CollidePrefix
)

// TransformerUnion is an unordered sibling group of transformers whose
// individual outputs are merged into one record. Branch output key sets
// should not collide; when they do, the collision policy applies.
type TransformerUnion struct {
	reg       *Registry
	policy    CollisionPolicy
	workers   int
	id        uuid.UUID
	createdAt time.Time
}

// NewTransformerUnion builds a union from steps, accepting the same step
// forms as NewPipeline. Adding an existing union merges its branches in.
func NewTransformerUnion(steps ...any) (*TransformerUnion, error) {
	u := &TransformerUnion{
		reg:       newRegistry(),
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
	}
	for _, step := range steps {
		if err := u.Add(step); err != nil {
			return nil, err
		}
	}
	return u, nil
}

// Parallel combines two steps into a union. When either operand already is
// a union, the other step is merged into it; otherwise a new union holding
// both is built.
func Parallel(a, b any) (*TransformerUnion, error) {
	if u, ok := a.(*TransformerUnion); ok {
		if err := u.Add(b); err != nil {
			return nil, err
		}
		return u, nil
	}
	if u, ok := b.(*TransformerUnion); ok {
		if err := u.Add(a); err != nil {
			return nil, err
		}
		return u, nil
	}
	return NewTransformerUnion(a, b)
}

// WithCollisionPolicy sets how colliding branch output keys are merged.
func (u *TransformerUnion) WithCollisionPolicy(policy CollisionPolicy) *TransformerUnion {
	u.policy = policy
	return u
}

// WithParallel transforms branches concurrently with at most workers
// goroutines. Every branch receives its own clone of the input, and the
// outputs merge in branch order, so the result matches the sequential path.
func (u *TransformerUnion) WithParallel(workers int) *TransformerUnion {
	u.workers = workers
	return u
}

// Add registers one more branch. Another union is merged branch-wise.
func (u *TransformerUnion) Add(step any) error {
	if other, ok := step.(*TransformerUnion); ok {
		for _, br := range other.reg.Steps() {
			if err := u.reg.addStep(Named(br.Name, br.Stage), false); err != nil {
				return err
			}
		}
		return nil
	}
	return u.reg.addStep(step, false)
}

// ID returns the union's instance identity.
func (u *TransformerUnion) ID() uuid.UUID {
	return u.id
}

// CreatedAt returns the construction time (UTC).
func (u *TransformerUnion) CreatedAt() time.Time {
	return u.createdAt
}

// Branches returns the name/stage pairs of the sibling group.
func (u *TransformerUnion) Branches() []rill.NamedStage {
	return u.reg.Steps()
}

// Params returns the name/stage pairs of the sibling group.
func (u *TransformerUnion) Params() []rill.NamedStage {
	return u.reg.Steps()
}

// Label implements Stage; a union is labelled by its joined branches.
func (u *TransformerUnion) Label() string {
	return u.String()
}

// String joins the branch labels, e.g. "TFIDF + BagOfWords".
func (u *TransformerUnion) String() string {
	branches := u.reg.Steps()
	labels := make([]string, len(branches))
	for i, br := range branches {
		labels[i] = br.Stage.Label()
	}
	return strings.Join(labels, " + ")
}

// FitOne updates every fit-capable branch: supervised branches receive the
// label, unsupervised ones the record alone. A union used as the final
// pipeline stage is therefore fitted branch-wise.
func (u *TransformerUnion) FitOne(x rill.Record, y rill.Label) error {
	for _, br := range u.reg.Steps() {
		switch s := br.Stage.(type) {
		case rill.SupervisedTransformer:
			if err := s.FitOne(x, y); err != nil {
				return &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
			}
		case rill.UnsupervisedFitter:
			if err := s.FitOne(x); err != nil {
				return &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
			}
		}
	}
	return nil
}

// TransformOne runs every branch on the same input and merges the outputs.
func (u *TransformerUnion) TransformOne(x rill.Record) (rill.Record, error) {
	branches := u.reg.Steps()
	if len(branches) == 0 {
		return nil, rill.ErrEmptyUnion
	}

	parts, err := u.transformBranches(x, branches)
	if err != nil {
		return nil, err
	}

	out := make(rill.Record, len(x))
	for i, br := range branches {
		if err := mergeRecord(out, parts[i], br.Name, u.policy); err != nil {
			return nil, err
		}
	}
	return out, nil
}

func (u *TransformerUnion) transformBranches(x rill.Record, branches []rill.NamedStage) ([]rill.Record, error) {
	parts := make([]rill.Record, len(branches))

	if u.workers > 1 {
		// Branches must never mutate the shared input, so each one gets an
		// immutable view in the form of its own clone.
		errs := make([]error, len(branches))
		sem := make(chan struct{}, u.workers)
		var wg sync.WaitGroup
		for i, br := range branches {
			wg.Add(1)
			go func(i int, br rill.NamedStage) {
				defer wg.Done()
				sem <- struct{}{}
				defer func() { <-sem }()
				parts[i], errs[i] = u.transformBranch(x.Clone(), br)
			}(i, br)
		}
		wg.Wait()
		for _, err := range errs {
			if err != nil {
				return nil, err
			}
		}
		return parts, nil
	}

	for i, br := range branches {
		part, err := u.transformBranch(x, br)
		if err != nil {
			return nil, err
		}
		parts[i] = part
	}
	return parts, nil
}

func (u *TransformerUnion) transformBranch(x rill.Record, br rill.NamedStage) (rill.Record, error) {
	t, ok := br.Stage.(rill.Transformer)
	if !ok {
		return nil, &rill.CapabilityError{Stage: br.Name, Capability: "Transformer"}
	}
	out, err := t.TransformOne(x)
	if err != nil {
		return nil, &rill.StageError{Stage: br.Name, Op: "transform", Err: err}
	}
	return out, nil
}

// mergeRecord folds one branch output into the merged record, applying the
// collision policy. Keys are visited in sorted order so that the outcome,
// including which collision is reported, is deterministic.
func mergeRecord(dst, part rill.Record, branch string, policy CollisionPolicy) error {
	keys := make([]string, 0, len(part))
	for k := range part {
		keys = append(keys, k)
	}
	sort.Strings(keys)

	for _, k := range keys {
		_, taken := dst[k]
		switch {
		case !taken, policy == CollideLastWins:
			dst[k] = part[k]
		case policy == CollidePrefix:
			pk := branch + "_" + k
			if _, taken := dst[pk]; taken {
				return fmt.Errorf("rill: union: colliding output key %q from branch %q", pk, branch)
			}
			dst[pk] = part[k]
		default:
			return fmt.Errorf("rill: union: colliding output key %q from branch %q", k, branch)
		}
	}
	return nil
}
