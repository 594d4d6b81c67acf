package compose

import (
	"fmt"
	"slices"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rill-ml/rill/pkg/rill"
)

// The batch path is structurally identical to the record path, operating on
// a whole dataframe instead of one record. Batch fit/transform calls are
// atomic: there is no partial application within one batch.

// FitMany updates every stage with one batch of observations. Ordering and
// leakage avoidance follow FitOne at whole-batch granularity: supervised
// transformers see the pre-transform batch, and the final stage receives
// the targets only if it is label-conditioned.
func (p *Pipeline) FitMany(xs dataframe.DataFrame, ys series.Series, opts ...rill.FitOption) error {
	steps := p.reg.Steps()
	if len(steps) == 0 {
		return rill.ErrEmptyPipeline
	}

	for _, st := range steps[:len(steps)-1] {
		t, ok := st.Stage.(rill.BatchTransformer)
		if !ok {
			return &rill.CapabilityError{Stage: st.Name, Capability: "BatchTransformer"}
		}

		pre := xs
		out, err := t.TransformMany(xs)
		if err != nil {
			return &rill.StageError{Stage: st.Name, Op: "transform", Err: err}
		}
		xs = out

		if u, ok := st.Stage.(rill.Union); ok {
			for _, br := range u.Branches() {
				if sup, ok := br.Stage.(rill.SupervisedBatchTransformer); ok {
					if err := sup.FitMany(pre, ys); err != nil {
						return &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
					}
				}
			}
		} else if sup, ok := st.Stage.(rill.SupervisedBatchTransformer); ok {
			if err := sup.FitMany(pre, ys); err != nil {
				return &rill.StageError{Stage: st.Name, Op: "fit", Err: err}
			}
		}
	}

	final := steps[len(steps)-1]
	p.log.Debug("fit batch", "pipeline", p.id.String(), "rows", xs.Nrow(), "final", final.Name)

	switch f := final.Stage.(type) {
	case rill.BatchPredictor:
		if err := f.FitMany(xs, ys, opts...); err != nil {
			return &rill.StageError{Stage: final.Name, Op: "fit", Err: err}
		}
	case rill.SupervisedBatchTransformer:
		if err := f.FitMany(xs, ys); err != nil {
			return &rill.StageError{Stage: final.Name, Op: "fit", Err: err}
		}
	case rill.UnsupervisedBatchFitter:
		if err := f.FitMany(xs); err != nil {
			return &rill.StageError{Stage: final.Name, Op: "fit", Err: err}
		}
	default:
		// A purely transforming final stage holds no fit state.
	}
	return nil
}

// driveMany mirrors driveOne for batches: unsupervised units observe the
// batch before each stage's own transform runs.
func (p *Pipeline) driveMany(xs dataframe.DataFrame) (dataframe.DataFrame, rill.NamedStage, error) {
	steps := p.reg.Steps()
	if len(steps) == 0 {
		return dataframe.DataFrame{}, rill.NamedStage{}, rill.ErrEmptyPipeline
	}

	for _, st := range steps[:len(steps)-1] {
		if u, ok := st.Stage.(rill.Union); ok {
			for _, br := range u.Branches() {
				if _, supervised := br.Stage.(rill.SupervisedBatchTransformer); supervised {
					continue
				}
				if uf, ok := br.Stage.(rill.UnsupervisedBatchFitter); ok {
					if err := uf.FitMany(xs); err != nil {
						return dataframe.DataFrame{}, rill.NamedStage{}, &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
					}
				}
			}
		} else if _, supervised := st.Stage.(rill.SupervisedBatchTransformer); !supervised {
			if uf, ok := st.Stage.(rill.UnsupervisedBatchFitter); ok {
				if err := uf.FitMany(xs); err != nil {
					return dataframe.DataFrame{}, rill.NamedStage{}, &rill.StageError{Stage: st.Name, Op: "fit", Err: err}
				}
			}
		}

		t, ok := st.Stage.(rill.BatchTransformer)
		if !ok {
			return dataframe.DataFrame{}, rill.NamedStage{}, &rill.CapabilityError{Stage: st.Name, Capability: "BatchTransformer"}
		}
		out, err := t.TransformMany(xs)
		if err != nil {
			return dataframe.DataFrame{}, rill.NamedStage{}, &rill.StageError{Stage: st.Name, Op: "transform", Err: err}
		}
		xs = out
	}
	return xs, steps[len(steps)-1], nil
}

// TransformMany applies each transformer to the batch. The final stage is
// applied only if it is itself a batch transformer.
func (p *Pipeline) TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	xs, final, err := p.driveMany(xs)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	if t, ok := final.Stage.(rill.BatchTransformer); ok {
		out, err := t.TransformMany(xs)
		if err != nil {
			return dataframe.DataFrame{}, &rill.StageError{Stage: final.Name, Op: "transform", Err: err}
		}
		return out, nil
	}
	return xs, nil
}

// PredictMany forwards the batch and delegates to the final stage's
// BatchPredictor capability.
func (p *Pipeline) PredictMany(xs dataframe.DataFrame) (series.Series, error) {
	xs, final, err := p.driveMany(xs)
	if err != nil {
		return series.Series{}, err
	}
	pr, ok := final.Stage.(rill.BatchPredictor)
	if !ok {
		return series.Series{}, &rill.CapabilityError{Stage: final.Name, Capability: "BatchPredictor"}
	}
	ys, err := pr.PredictMany(xs)
	if err != nil {
		return series.Series{}, &rill.StageError{Stage: final.Name, Op: "predict", Err: err}
	}
	return ys, nil
}

// PredictProbaMany forwards the batch and delegates to the final stage's
// BatchClassifier capability.
func (p *Pipeline) PredictProbaMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	xs, final, err := p.driveMany(xs)
	if err != nil {
		return dataframe.DataFrame{}, err
	}
	c, ok := final.Stage.(rill.BatchClassifier)
	if !ok {
		return dataframe.DataFrame{}, &rill.CapabilityError{Stage: final.Name, Capability: "BatchClassifier"}
	}
	probs, err := c.PredictProbaMany(xs)
	if err != nil {
		return dataframe.DataFrame{}, &rill.StageError{Stage: final.Name, Op: "predict-probability", Err: err}
	}
	return probs, nil
}

// FitMany is the batch counterpart of the union's FitOne, updating every
// fit-capable branch with the whole batch.
func (u *TransformerUnion) FitMany(xs dataframe.DataFrame, ys series.Series) error {
	for _, br := range u.reg.Steps() {
		switch s := br.Stage.(type) {
		case rill.SupervisedBatchTransformer:
			if err := s.FitMany(xs, ys); err != nil {
				return &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
			}
		case rill.UnsupervisedBatchFitter:
			if err := s.FitMany(xs); err != nil {
				return &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
			}
		}
	}
	return nil
}

// TransformMany runs every branch on the same batch and binds the output
// columns together, applying the collision policy.
func (u *TransformerUnion) TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	branches := u.reg.Steps()
	if len(branches) == 0 {
		return dataframe.DataFrame{}, rill.ErrEmptyUnion
	}

	var out dataframe.DataFrame
	for i, br := range branches {
		t, ok := br.Stage.(rill.BatchTransformer)
		if !ok {
			return dataframe.DataFrame{}, &rill.CapabilityError{Stage: br.Name, Capability: "BatchTransformer"}
		}
		part, err := t.TransformMany(xs)
		if err != nil {
			return dataframe.DataFrame{}, &rill.StageError{Stage: br.Name, Op: "transform", Err: err}
		}
		if part.Err != nil {
			return dataframe.DataFrame{}, &rill.StageError{Stage: br.Name, Op: "transform", Err: part.Err}
		}
		if i == 0 {
			out = part
			continue
		}
		out, err = mergeFrames(out, part, br.Name, u.policy)
		if err != nil {
			return dataframe.DataFrame{}, err
		}
	}
	return out, nil
}

// mergeFrames binds one branch's output columns onto the merged frame,
// applying the collision policy to duplicate column names.
func mergeFrames(dst, part dataframe.DataFrame, branch string, policy CollisionPolicy) (dataframe.DataFrame, error) {
	dstNames := dst.Names()
	var colliding []string
	for _, name := range part.Names() {
		if slices.Contains(dstNames, name) {
			colliding = append(colliding, name)
		}
	}

	switch {
	case len(colliding) == 0:
	case policy == CollideReject:
		return dataframe.DataFrame{}, fmt.Errorf("rill: union: colliding output column %q from branch %q", colliding[0], branch)
	case policy == CollidePrefix:
		for _, name := range colliding {
			renamed := branch + "_" + name
			if slices.Contains(dstNames, renamed) {
				return dataframe.DataFrame{}, fmt.Errorf("rill: union: colliding output column %q from branch %q", renamed, branch)
			}
			part = part.Rename(renamed, name)
		}
	default: // CollideLastWins
		keep := make([]string, 0, len(dstNames))
		for _, name := range dstNames {
			if !slices.Contains(colliding, name) {
				keep = append(keep, name)
			}
		}
		if len(keep) == 0 {
			return part, nil
		}
		dst = dst.Select(keep)
	}

	out := dst.CBind(part)
	if out.Err != nil {
		return dataframe.DataFrame{}, fmt.Errorf("rill: union: merging branch %q: %w", branch, out.Err)
	}
	return out, nil
}
