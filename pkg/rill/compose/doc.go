// Package compose chains feature transformers followed by one predictive
// model into a single callable unit, for both per-record and per-batch
// execution.
//
// Key operations:
// - NewPipeline/Append/Prepend: build an ordered, uniquely named stage list
// - Pipe/Parallel: combine two steps sequentially or into a TransformerUnion
// - FitOne/FitMany: update every stage without leaking the label into the
//   value forwarded within the same call
// - TransformOne/PredictOne/PredictProbaOne/ScoreOne/Forecast and their
//   batch counterparts: run the shared drive-through traversal
// - DebugOne: a deterministic textual trace of one record
// - Graph/Draw: translate the stage structure into a generic render graph
package compose
