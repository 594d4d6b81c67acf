package compose

import (
	"errors"
	"fmt"

	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
	"github.com/rill-ml/rill/pkg/rill"
)

// addN adds n to every float feature.
type addN struct {
	n float64
}

func (a *addN) Label() string { return "addN" }

func (a *addN) TransformOne(x rill.Record) (rill.Record, error) {
	out := make(rill.Record, len(x))
	for k, v := range x {
		if f, ok := v.(float64); ok {
			out[k] = f + a.n
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func (a *addN) SetParams(params map[string]any) (rill.Stage, error) {
	n, ok := params["n"].(float64)
	if !ok {
		return nil, fmt.Errorf("addN: missing parameter n")
	}
	return &addN{n: n}, nil
}

// double multiplies every float feature by two.
type double struct{}

func (d *double) Label() string { return "double" }

func (d *double) TransformOne(x rill.Record) (rill.Record, error) {
	out := make(rill.Record, len(x))
	for k, v := range x {
		if f, ok := v.(float64); ok {
			out[k] = f * 2
		} else {
			out[k] = v
		}
	}
	return out, nil
}

// observer is an unsupervised identity transformer counting its fits.
type observer struct {
	fits int
}

func (o *observer) Label() string { return "observer" }

func (o *observer) FitOne(x rill.Record) error {
	o.fits++
	return nil
}

func (o *observer) TransformOne(x rill.Record) (rill.Record, error) {
	return x, nil
}

// supShift is a supervised transformer: it shifts every float by the last
// label it was fitted with.
type supShift struct {
	shift float64
	fitX  []rill.Record
	fitY  []rill.Label
}

func (s *supShift) Label() string { return "supShift" }

func (s *supShift) TransformOne(x rill.Record) (rill.Record, error) {
	out := make(rill.Record, len(x))
	for k, v := range x {
		if f, ok := v.(float64); ok {
			out[k] = f + s.shift
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func (s *supShift) FitOne(x rill.Record, y rill.Label) error {
	s.fitX = append(s.fitX, x.Clone())
	s.fitY = append(s.fitY, y)
	if f, ok := y.(float64); ok {
		s.shift = f
	}
	return nil
}

// capturePred is a predictor that records every fit and predicts the mean
// of the labels seen so far.
type capturePred struct {
	fitX    []rill.Record
	fitY    []rill.Label
	weights []float64
	sum     float64
	n       int
}

func (c *capturePred) Label() string { return "capturePred" }

func (c *capturePred) FitOne(x rill.Record, y rill.Label, opts ...rill.FitOption) error {
	params := rill.NewFitParams(opts...)
	c.fitX = append(c.fitX, x.Clone())
	c.fitY = append(c.fitY, y)
	c.weights = append(c.weights, params.SampleWeight)
	if f, ok := y.(float64); ok {
		c.sum += f
		c.n++
	}
	return nil
}

func (c *capturePred) PredictOne(x rill.Record) (any, error) {
	if c.n == 0 {
		return 0.0, nil
	}
	return c.sum / float64(c.n), nil
}

// stubClassifier answers a fixed two-label distribution.
type stubClassifier struct{}

func (s *stubClassifier) Label() string { return "stubClassifier" }

func (s *stubClassifier) FitOne(x rill.Record, y rill.Label, opts ...rill.FitOption) error {
	return nil
}

func (s *stubClassifier) PredictOne(x rill.Record) (any, error) {
	return true, nil
}

func (s *stubClassifier) PredictProbaOne(x rill.Record) (map[rill.Label]float64, error) {
	return map[rill.Label]float64{true: 0.8, false: 0.2}, nil
}

// debugPred is a predictor exposing its own debug text.
type debugPred struct{}

func (d *debugPred) Label() string { return "debugPred" }

func (d *debugPred) FitOne(x rill.Record, y rill.Label, opts ...rill.FitOption) error {
	return nil
}

func (d *debugPred) PredictOne(x rill.Record) (any, error) {
	return 1.5, nil
}

func (d *debugPred) DebugOne(x rill.Record) (string, error) {
	return "weights: none", nil
}

// stubScorer answers a fixed score.
type stubScorer struct{}

func (s *stubScorer) Label() string { return "stubScorer" }

func (s *stubScorer) ScoreOne(x rill.Record) (float64, error) {
	return 42, nil
}

// stubForecaster records the forecast call it receives.
type stubForecaster struct {
	called  bool
	horizon int
	gotXs   []rill.Record
}

func (f *stubForecaster) Label() string { return "stubForecaster" }

func (f *stubForecaster) Forecast(horizon int, xs []rill.Record) ([]any, error) {
	f.called = true
	f.horizon = horizon
	f.gotXs = xs
	return []any{1.0, 2.0}, nil
}

// failer always fails its transform.
type failer struct{}

func (f *failer) Label() string { return "failer" }

func (f *failer) TransformOne(x rill.Record) (rill.Record, error) {
	return nil, errors.New("boom")
}

// wrapStage owns exactly one inner stage.
type wrapStage struct {
	inner rill.Stage
}

func (w *wrapStage) Label() string { return "wrap(" + w.inner.Label() + ")" }

func (w *wrapStage) Inner() rill.Stage { return w.inner }

func (w *wrapStage) LabelLoc() string { return "t" }

// bothAdd implements the record and batch transform paths identically.
type bothAdd struct {
	n float64
}

func (b *bothAdd) Label() string { return "bothAdd" }

func (b *bothAdd) TransformOne(x rill.Record) (rill.Record, error) {
	out := make(rill.Record, len(x))
	for k, v := range x {
		if f, ok := v.(float64); ok {
			out[k] = f + b.n
		} else {
			out[k] = v
		}
	}
	return out, nil
}

func (b *bothAdd) TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	out := xs.Capply(func(s series.Series) series.Series {
		vals := s.Float()
		for i := range vals {
			vals[i] += b.n
		}
		return series.New(vals, series.Float, s.Name)
	})
	if out.Err != nil {
		return dataframe.DataFrame{}, out.Err
	}
	return out, nil
}

// clashBatch emits the input column a twice, once under a prefixed alias.
type clashBatch struct{}

func (c *clashBatch) Label() string { return "clashBatch" }

func (c *clashBatch) TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	a := xs.Col("a").Float()
	return dataframe.New(
		series.New(a, series.Float, "a"),
		series.New(a, series.Float, "clash_a"),
	), nil
}

// batchObserver is an unsupervised batch identity transformer counting fits.
type batchObserver struct {
	fits int
}

func (o *batchObserver) Label() string { return "batchObserver" }

func (o *batchObserver) FitMany(xs dataframe.DataFrame) error {
	o.fits++
	return nil
}

func (o *batchObserver) TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	return xs, nil
}

// supBatch is a supervised batch transformer doubling values; it records
// the first value of column a seen at fit time.
type supBatch struct {
	fitCalls int
	preA     float64
	gotY     series.Series
}

func (s *supBatch) Label() string { return "supBatch" }

func (s *supBatch) TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error) {
	out := xs.Capply(func(col series.Series) series.Series {
		vals := col.Float()
		for i := range vals {
			vals[i] *= 2
		}
		return series.New(vals, series.Float, col.Name)
	})
	if out.Err != nil {
		return dataframe.DataFrame{}, out.Err
	}
	return out, nil
}

func (s *supBatch) FitMany(xs dataframe.DataFrame, ys series.Series) error {
	s.fitCalls++
	s.preA = xs.Col("a").Float()[0]
	s.gotY = ys
	return nil
}

// batchPred records batch fits and predicts zeros.
type batchPred struct {
	fitRows   int
	gotLabels bool
}

func (b *batchPred) Label() string { return "batchPred" }

func (b *batchPred) FitMany(xs dataframe.DataFrame, ys series.Series, opts ...rill.FitOption) error {
	b.fitRows += xs.Nrow()
	b.gotLabels = true
	return nil
}

func (b *batchPred) PredictMany(xs dataframe.DataFrame) (series.Series, error) {
	return series.New(make([]float64, xs.Nrow()), series.Float, "pred"), nil
}
