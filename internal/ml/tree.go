package ml

import (
	"fmt"
	"math"
)

// leafMarker marks a node without children, as in scikit-learn's tree arrays.
const leafMarker = -1

// Aggregation says how a TreeEnsemble combines its trees' leaf values.
type Aggregation string

const (
	// AggregateMean averages leaf values that already are positive-class
	// probabilities (random forest, extra trees).
	AggregateMean Aggregation = "mean"

	// AggregateLogitSum adds scaled leaf values to an initial log-odds and
	// applies the logistic function (gradient boosting).
	AggregateLogitSum Aggregation = "logit_sum"
)

// Tree is one fitted decision tree in flat array form. Node i is a leaf when
// Left[i] == -1; otherwise x[Feature[i]] <= Threshold[i] goes Left.
type Tree struct {
	Left      []int
	Right     []int
	Feature   []int
	Threshold []float64
	Value     []float64
}

func (t *Tree) validate(nInputs int) error {
	n := len(t.Left)
	if n == 0 {
		return fmt.Errorf("tree has no nodes")
	}
	if len(t.Right) != n || len(t.Feature) != n || len(t.Threshold) != n || len(t.Value) != n {
		return fmt.Errorf("tree arrays differ in length")
	}
	for i := 0; i < n; i++ {
		if t.Left[i] == leafMarker {
			if t.Right[i] != leafMarker {
				return fmt.Errorf("node %d has only a right child", i)
			}
			if math.IsNaN(t.Value[i]) {
				return fmt.Errorf("leaf %d value is NaN", i)
			}
			continue
		}
		// Children always follow their parent, which rules out cycles.
		for _, c := range []int{t.Left[i], t.Right[i]} {
			if c <= i || c >= n {
				return fmt.Errorf("node %d has child %d out of range", i, c)
			}
		}
		if t.Feature[i] < 0 || t.Feature[i] >= nInputs {
			return fmt.Errorf("node %d splits on feature %d, model has %d inputs", i, t.Feature[i], nInputs)
		}
	}
	return nil
}

func (t *Tree) leaf(x []float64) float64 {
	node := 0
	for t.Left[node] != leafMarker {
		if x[t.Feature[node]] <= t.Threshold[node] {
			node = t.Left[node]
		} else {
			node = t.Right[node]
		}
	}
	return t.Value[node]
}

// TreeEnsemble is a forest or boosted ensemble of decision trees.
type TreeEnsemble struct {
	trees        []Tree
	aggregation  Aggregation
	learningRate float64
	init         float64
	nInputs      int
}

// NewTreeEnsemble validates the trees against nInputs. learningRate and init
// only apply to AggregateLogitSum.
func NewTreeEnsemble(trees []Tree, agg Aggregation, learningRate, init float64, nInputs int) (*TreeEnsemble, error) {
	if nInputs <= 0 {
		return nil, fmt.Errorf("tree ensemble needs a positive input width, got %d", nInputs)
	}
	if len(trees) == 0 {
		return nil, fmt.Errorf("tree ensemble has no trees")
	}
	switch agg {
	case AggregateMean, AggregateLogitSum:
	default:
		return nil, fmt.Errorf("unknown tree aggregation %q", agg)
	}
	for i := range trees {
		if err := trees[i].validate(nInputs); err != nil {
			return nil, fmt.Errorf("tree %d: %w", i, err)
		}
	}
	return &TreeEnsemble{
		trees:        trees,
		aggregation:  agg,
		learningRate: learningRate,
		init:         init,
		nInputs:      nInputs,
	}, nil
}

func (m *TreeEnsemble) NumInputs() int { return m.nInputs }

func (m *TreeEnsemble) PositiveProbability(x []float64) (float64, error) {
	if len(x) != m.nInputs {
		return 0, fmt.Errorf("%w: tree ensemble expects %d inputs, got %d", ErrInputShape, m.nInputs, len(x))
	}

	var sum float64
	for i := range m.trees {
		sum += m.trees[i].leaf(x)
	}

	if m.aggregation == AggregateMean {
		return sum / float64(len(m.trees)), nil
	}
	return sigmoid(m.init + m.learningRate*sum), nil
}
