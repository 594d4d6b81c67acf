package rill

import (
	"github.com/go-gota/gota/dataframe"
	"github.com/go-gota/gota/series"
)

// Batch capabilities mirror the record-path ones over a homogeneous batch
// container. Columns may be added or removed between successive calls; the
// engine imposes no constraint beyond what individual stages require.

// BatchTransformer maps one dataframe to another.
type BatchTransformer interface {
	Stage
	TransformMany(xs dataframe.DataFrame) (dataframe.DataFrame, error)
}

// SupervisedBatchTransformer is a BatchTransformer updated with the targets
// of the whole batch.
type SupervisedBatchTransformer interface {
	BatchTransformer
	FitMany(xs dataframe.DataFrame, ys series.Series) error
}

// UnsupervisedBatchFitter is updated from the batch alone.
type UnsupervisedBatchFitter interface {
	FitMany(xs dataframe.DataFrame) error
}

// BatchPredictor is a final stage fitted with targets and queried for a
// series of values.
type BatchPredictor interface {
	Stage
	FitMany(xs dataframe.DataFrame, ys series.Series, opts ...FitOption) error
	PredictMany(xs dataframe.DataFrame) (series.Series, error)
}

// BatchClassifier extends BatchPredictor with one probability column per
// label.
type BatchClassifier interface {
	BatchPredictor
	PredictProbaMany(xs dataframe.DataFrame) (dataframe.DataFrame, error)
}
