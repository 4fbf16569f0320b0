// Package ml runs the stacked ensemble that scores one sample's aligned
// feature vector. It includes the fitted classifier kinds an ensemble artifact
// may contain, the artifact loader, the two-level predictor, and the
// threshold classifier that turns a probability into a risk label.
//
// An Ensemble is immutable once loaded; prediction never mutates it, so a
// single instance can be shared by reference for the life of the process.
package ml

// Model is a fitted binary classifier over a positional input vector.
type Model interface {
	// PositiveProbability returns the probability of the positive class for x.
	// x must have exactly NumInputs values.
	PositiveProbability(x []float64) (float64, error)

	// NumInputs is the input width the model was fitted on.
	NumInputs() int
}
