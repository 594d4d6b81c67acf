package compose

import (
	"fmt"
	"io"
	"log/slog"
	"strings"
	"time"

	"github.com/google/uuid"
	"github.com/rill-ml/rill/pkg/rill"
)

// Pipeline is an ordered, uniquely named chain of stages: zero or more
// transformers followed by one final stage. It is itself a stage, so a
// pipeline can be a union branch or a step of another pipeline.
//
// A pipeline exclusively owns its stages; sharing a stage across two
// pipelines is possible but discouraged. All methods are synchronous and
// run to completion or return an error.
type Pipeline struct {
	reg       *Registry
	id        uuid.UUID
	createdAt time.Time
	log       *slog.Logger
}

// NewPipeline builds a pipeline from steps. Each step may be a stage, a
// Named pair, a plain func(Record) Record, or a func() Stage factory.
func NewPipeline(steps ...any) (*Pipeline, error) {
	p := &Pipeline{
		reg:       newRegistry(),
		id:        uuid.New(),
		createdAt: time.Now().UTC(),
		log:       slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
	for _, step := range steps {
		if err := p.Append(step); err != nil {
			return nil, err
		}
	}
	return p, nil
}

// WithLogger routes the pipeline's debug events to l.
func (p *Pipeline) WithLogger(l *slog.Logger) *Pipeline {
	if l != nil {
		p.log = l
	}
	return p
}

// ID returns the pipeline's instance identity.
func (p *Pipeline) ID() uuid.UUID {
	return p.id
}

// CreatedAt returns the construction time (UTC).
func (p *Pipeline) CreatedAt() time.Time {
	return p.createdAt
}

// Len returns the number of steps.
func (p *Pipeline) Len() int {
	return p.reg.Len()
}

// Get returns the stage registered under name.
func (p *Pipeline) Get(name string) (rill.Stage, bool) {
	return p.reg.Get(name)
}

// Names returns the step names in execution order.
func (p *Pipeline) Names() []string {
	return p.reg.Names()
}

// Steps returns name/stage pairs in execution order.
func (p *Pipeline) Steps() []rill.NamedStage {
	return p.reg.Steps()
}

// Label implements Stage; a nested pipeline is labelled by its joined steps.
func (p *Pipeline) Label() string {
	return p.String()
}

// String joins the step labels, e.g. "StandardScaler | LinearRegression".
func (p *Pipeline) String() string {
	steps := p.reg.Steps()
	labels := make([]string, len(steps))
	for i, st := range steps {
		labels[i] = st.Stage.Label()
	}
	return strings.Join(labels, " | ")
}

// Append inserts a step at the end of the pipeline.
func (p *Pipeline) Append(step any) error {
	return p.reg.addStep(step, false)
}

// Prepend inserts a step at the start of the pipeline.
func (p *Pipeline) Prepend(step any) error {
	return p.reg.addStep(step, true)
}

// Pipe combines two steps sequentially: b runs after a. When a is already a
// pipeline, b is appended to it.
func Pipe(a, b any) (*Pipeline, error) {
	if p, ok := a.(*Pipeline); ok {
		if err := p.Append(b); err != nil {
			return nil, err
		}
		return p, nil
	}
	return NewPipeline(a, b)
}

// Params returns the name/stage pairs in order.
func (p *Pipeline) Params() []rill.NamedStage {
	return p.reg.Steps()
}

// SetParams rebuilds a new pipeline preserving step order. For each name,
// a full replacement stage in updates is used verbatim; a nested
// map[string]any is applied recursively through the stage's ParamSetter
// capability; untouched stages keep their identity.
func (p *Pipeline) SetParams(updates map[string]any) (rill.Stage, error) {
	steps := make([]any, 0, p.reg.Len())
	for _, st := range p.reg.Steps() {
		stage := st.Stage
		switch u := updates[st.Name].(type) {
		case nil:
		case rill.Stage:
			stage = u
		case map[string]any:
			ps, ok := stage.(rill.ParamSetter)
			if !ok {
				return nil, fmt.Errorf("rill: stage %q does not accept nested parameter updates", st.Name)
			}
			rebuilt, err := ps.SetParams(u)
			if err != nil {
				return nil, err
			}
			stage = rebuilt
		default:
			return nil, fmt.Errorf("rill: invalid update for stage %q: %T", st.Name, updates[st.Name])
		}
		steps = append(steps, Named(st.Name, stage))
	}
	return NewPipeline(steps...)
}

// FitOne updates every stage with one observation.
//
// Each non-final transformer first computes the forwarded value, then — if
// it is supervised, or a union with supervised branches — is updated with
// the pre-transform input. The forwarded value therefore reflects the
// stage's state prior to this update and never leaks the label. The final
// stage is fitted with the label only if it is label-conditioned.
func (p *Pipeline) FitOne(x rill.Record, y rill.Label, opts ...rill.FitOption) error {
	steps := p.reg.Steps()
	if len(steps) == 0 {
		return rill.ErrEmptyPipeline
	}

	for _, st := range steps[:len(steps)-1] {
		t, ok := st.Stage.(rill.Transformer)
		if !ok {
			return &rill.CapabilityError{Stage: st.Name, Capability: "Transformer"}
		}

		pre := x
		out, err := t.TransformOne(x)
		if err != nil {
			return &rill.StageError{Stage: st.Name, Op: "transform", Err: err}
		}
		x = out

		// Supervised updates consume the pre-transform input, after the
		// forwarded value has been computed.
		if u, ok := st.Stage.(rill.Union); ok {
			for _, br := range u.Branches() {
				if sup, ok := br.Stage.(rill.SupervisedTransformer); ok {
					if err := sup.FitOne(pre, y); err != nil {
						return &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
					}
				}
			}
		} else if sup, ok := st.Stage.(rill.SupervisedTransformer); ok {
			if err := sup.FitOne(pre, y); err != nil {
				return &rill.StageError{Stage: st.Name, Op: "fit", Err: err}
			}
		}
	}

	final := steps[len(steps)-1]
	p.log.Debug("fit", "pipeline", p.id.String(), "final", final.Name)

	switch f := final.Stage.(type) {
	case rill.Predictor:
		if err := f.FitOne(x, y, opts...); err != nil {
			return &rill.StageError{Stage: final.Name, Op: "fit", Err: err}
		}
	case rill.SupervisedTransformer:
		if err := f.FitOne(x, y); err != nil {
			return &rill.StageError{Stage: final.Name, Op: "fit", Err: err}
		}
	case rill.UnsupervisedFitter:
		if err := f.FitOne(x); err != nil {
			return &rill.StageError{Stage: final.Name, Op: "fit", Err: err}
		}
	default:
		// A purely transforming final stage holds no fit state.
	}
	return nil
}

// driveOne is the shared traversal behind transform/predict/score: every
// non-final stage is transformed in order, with unsupervised units updated
// opportunistically before their own transform. Transform is commonly
// invoked before any explicit fit in a streaming setting, and unsupervised
// stages carry no label requirement, so they observe the record as soon as
// it is seen. Returns the forwarded record and the final stage.
func (p *Pipeline) driveOne(x rill.Record) (rill.Record, rill.NamedStage, error) {
	steps := p.reg.Steps()
	if len(steps) == 0 {
		return nil, rill.NamedStage{}, rill.ErrEmptyPipeline
	}

	for _, st := range steps[:len(steps)-1] {
		if u, ok := st.Stage.(rill.Union); ok {
			for _, br := range u.Branches() {
				if _, supervised := br.Stage.(rill.SupervisedTransformer); supervised {
					continue
				}
				if uf, ok := br.Stage.(rill.UnsupervisedFitter); ok {
					if err := uf.FitOne(x); err != nil {
						return nil, rill.NamedStage{}, &rill.StageError{Stage: br.Name, Op: "fit", Err: err}
					}
				}
			}
		} else if _, supervised := st.Stage.(rill.SupervisedTransformer); !supervised {
			if uf, ok := st.Stage.(rill.UnsupervisedFitter); ok {
				if err := uf.FitOne(x); err != nil {
					return nil, rill.NamedStage{}, &rill.StageError{Stage: st.Name, Op: "fit", Err: err}
				}
			}
		}

		t, ok := st.Stage.(rill.Transformer)
		if !ok {
			return nil, rill.NamedStage{}, &rill.CapabilityError{Stage: st.Name, Capability: "Transformer"}
		}
		out, err := t.TransformOne(x)
		if err != nil {
			return nil, rill.NamedStage{}, &rill.StageError{Stage: st.Name, Op: "transform", Err: err}
		}
		x = out
	}
	return x, steps[len(steps)-1], nil
}

// applyTransformsOne runs every non-final transform without any fitting.
func (p *Pipeline) applyTransformsOne(x rill.Record) (rill.Record, error) {
	steps := p.reg.Steps()
	if len(steps) == 0 {
		return nil, rill.ErrEmptyPipeline
	}
	for _, st := range steps[:len(steps)-1] {
		t, ok := st.Stage.(rill.Transformer)
		if !ok {
			return nil, &rill.CapabilityError{Stage: st.Name, Capability: "Transformer"}
		}
		out, err := t.TransformOne(x)
		if err != nil {
			return nil, &rill.StageError{Stage: st.Name, Op: "transform", Err: err}
		}
		x = out
	}
	return x, nil
}

// TransformOne applies each transformer to the record. The final stage is
// applied only if it is itself a transformer; a predictive final stage is
// not exercised.
func (p *Pipeline) TransformOne(x rill.Record) (rill.Record, error) {
	x, final, err := p.driveOne(x)
	if err != nil {
		return nil, err
	}
	if t, ok := final.Stage.(rill.Transformer); ok {
		out, err := t.TransformOne(x)
		if err != nil {
			return nil, &rill.StageError{Stage: final.Name, Op: "transform", Err: err}
		}
		return out, nil
	}
	return x, nil
}

// PredictOne forwards the record and delegates to the final stage's
// Predictor capability.
func (p *Pipeline) PredictOne(x rill.Record) (any, error) {
	x, final, err := p.driveOne(x)
	if err != nil {
		return nil, err
	}
	pr, ok := final.Stage.(rill.Predictor)
	if !ok {
		return nil, &rill.CapabilityError{Stage: final.Name, Capability: "Predictor"}
	}
	y, err := pr.PredictOne(x)
	if err != nil {
		return nil, &rill.StageError{Stage: final.Name, Op: "predict", Err: err}
	}
	return y, nil
}

// PredictProbaOne forwards the record and delegates to the final stage's
// Classifier capability.
func (p *Pipeline) PredictProbaOne(x rill.Record) (map[rill.Label]float64, error) {
	x, final, err := p.driveOne(x)
	if err != nil {
		return nil, err
	}
	c, ok := final.Stage.(rill.Classifier)
	if !ok {
		return nil, &rill.CapabilityError{Stage: final.Name, Capability: "Classifier"}
	}
	probs, err := c.PredictProbaOne(x)
	if err != nil {
		return nil, &rill.StageError{Stage: final.Name, Op: "predict-probability", Err: err}
	}
	return probs, nil
}

// ScoreOne forwards the record and delegates to the final stage's Scorer
// capability.
func (p *Pipeline) ScoreOne(x rill.Record) (float64, error) {
	x, final, err := p.driveOne(x)
	if err != nil {
		return 0, err
	}
	s, ok := final.Stage.(rill.Scorer)
	if !ok {
		return 0, &rill.CapabilityError{Stage: final.Name, Capability: "Scorer"}
	}
	score, err := s.ScoreOne(x)
	if err != nil {
		return 0, &rill.StageError{Stage: final.Name, Op: "score", Err: err}
	}
	return score, nil
}

// Forecast delegates to the final stage's Forecaster capability. When xs is
// given, each record is transformed independently, without updating any
// stage; a nil xs is forwarded as absent.
func (p *Pipeline) Forecast(horizon int, xs []rill.Record) ([]any, error) {
	final, err := p.reg.Final()
	if err != nil {
		return nil, err
	}
	f, ok := final.Stage.(rill.Forecaster)
	if !ok {
		return nil, &rill.CapabilityError{Stage: final.Name, Capability: "Forecaster"}
	}

	var txs []rill.Record
	if xs != nil {
		txs = make([]rill.Record, len(xs))
		for i, x := range xs {
			txs[i], err = p.applyTransformsOne(x)
			if err != nil {
				return nil, err
			}
		}
	}

	preds, err := f.Forecast(horizon, txs)
	if err != nil {
		return nil, &rill.StageError{Stage: final.Name, Op: "forecast", Err: err}
	}
	return preds, nil
}
