package ml

import "fmt"

// Label is the categorical outcome for a sample.
type Label int

const (
	Negative Label = iota
	Positive
)

func (l Label) String() string {
	switch l {
	case Positive:
		return "Positive"
	case Negative:
		return "Negative"
	default:
		return fmt.Sprintf("Label(%d)", int(l))
	}
}

// Default classifier settings.
const (
	DefaultThreshold     = 0.5
	DefaultFlagThreshold = 0.8
	DefaultPositiveName  = "SCZ"
	DefaultNegativeName  = "Normal"
)

// Classifier turns a probability into a label and an advisory flag.
// A probability equal to Threshold is Positive; one equal to FlagThreshold
// is not flagged.
type Classifier struct {
	Threshold     float64
	FlagThreshold float64
	PositiveName  string
	NegativeName  string
}

// DefaultClassifier returns the classifier used when nothing is configured.
func DefaultClassifier() Classifier {
	return Classifier{
		Threshold:     DefaultThreshold,
		FlagThreshold: DefaultFlagThreshold,
		PositiveName:  DefaultPositiveName,
		NegativeName:  DefaultNegativeName,
	}
}

// Classify applies the thresholds. Flagging never changes the label.
func (c Classifier) Classify(probability float64) (Label, bool, error) {
	if err := CheckProbability(probability); err != nil {
		return Negative, false, err
	}
	label := Negative
	if probability >= c.Threshold {
		label = Positive
	}
	return label, probability > c.FlagThreshold, nil
}

// DisplayName returns the configured report name for a label.
func (c Classifier) DisplayName(l Label) string {
	if l == Positive {
		if c.PositiveName != "" {
			return c.PositiveName
		}
		return DefaultPositiveName
	}
	if c.NegativeName != "" {
		return c.NegativeName
	}
	return DefaultNegativeName
}

// PredictionResult is the outcome for one sample. It is built once by
// Engine.RunInference and only read afterwards.
type PredictionResult struct {
	SampleID    string
	Probability float64
	Label       Label
	Flagged     bool
}
