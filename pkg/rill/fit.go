package rill

// FitParams carries the optional extra parameters of a final-stage fit.
type FitParams struct {
	SampleWeight float64
}

// FitOption mutates FitParams.
type FitOption func(*FitParams)

// WithSampleWeight sets the weight of the observation being fitted.
func WithSampleWeight(w float64) FitOption {
	return func(p *FitParams) {
		p.SampleWeight = w
	}
}

// NewFitParams resolves options against the defaults (unit weight).
func NewFitParams(opts ...FitOption) FitParams {
	p := FitParams{SampleWeight: 1}
	for _, opt := range opts {
		opt(&p)
	}
	return p
}
