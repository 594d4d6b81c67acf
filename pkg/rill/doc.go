// Package rill defines the contracts shared by every pipeline stage:
// the Record and Label types that flow through a pipeline, the capability
// interfaces a stage may satisfy (Transformer, SupervisedTransformer,
// Predictor, Classifier, and friends), their batch counterparts over
// dataframes, and the error types raised by the composition engine.
//
// The package holds contracts only. Concrete transformers and models live
// outside this module; the compose package consumes these interfaces to
// drive them in the right order.
package rill
