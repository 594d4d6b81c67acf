package rill

// Stage is the minimal contract every pipeline step satisfies.
type Stage interface {
	// Label returns a stable short textual label, used for naming,
	// tracing and drawing.
	Label() string
}

// Transformer maps one record to another.
type Transformer interface {
	Stage
	TransformOne(x Record) (Record, error)
}

// SupervisedTransformer is a Transformer whose update requires the target.
// The engine always feeds it the pre-transform input so that the value
// forwarded downstream never reflects the label used for the update.
type SupervisedTransformer interface {
	Transformer
	FitOne(x Record, y Label) error
}

// UnsupervisedFitter is updated from the record alone. The engine calls it
// opportunistically during transform/predict traversals, before the owning
// stage's transform runs.
type UnsupervisedFitter interface {
	FitOne(x Record) error
}

// Predictor is a final stage fitted with a label and queried for a value.
type Predictor interface {
	Stage
	FitOne(x Record, y Label, opts ...FitOption) error
	PredictOne(x Record) (any, error)
}

// Classifier extends Predictor with per-label probabilities.
type Classifier interface {
	Predictor
	PredictProbaOne(x Record) (map[Label]float64, error)
}

// Scorer exposes an anomaly-style score for one record.
type Scorer interface {
	Stage
	ScoreOne(x Record) (float64, error)
}

// Forecaster produces predictions over a horizon. A nil xs means no
// per-step features were supplied.
type Forecaster interface {
	Stage
	Forecast(horizon int, xs []Record) ([]any, error)
}

// Debugger is an optional capability: a textual report of the stage's view
// of one record, embedded verbatim in pipeline debug traces.
type Debugger interface {
	DebugOne(x Record) (string, error)
}

// Wrapper owns exactly one inner stage plus a label-placement hint for
// rendering ("t" or "b").
type Wrapper interface {
	Stage
	Inner() Stage
	LabelLoc() string
}

// Union is a parallel sibling group of stages whose transform outputs merge
// into one record.
type Union interface {
	Transformer
	Branches() []NamedStage
}

// Sequence is an ordered composite of named stages, such as a nested
// pipeline used as a union branch.
type Sequence interface {
	Stage
	Steps() []NamedStage
}

// ParamSetter is an optional capability used by SetParams to rebuild a
// stage from nested parameter updates.
type ParamSetter interface {
	SetParams(params map[string]any) (Stage, error)
}
