package ml

import "sync"

// MockMetrics implements MetricsInterface for testing
type MockMetrics struct {
	mu               sync.Mutex
	predictions      int
	failures         int
	latencySum       float64
	latencyCalls     int
	predictionScores []float64
}

func (m *MockMetrics) MLPredictionsInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictions++
}

func (m *MockMetrics) MLFailuresInc() {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.failures++
}

func (m *MockMetrics) MLLatencyObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.latencySum += v
	m.latencyCalls++
}

func (m *MockMetrics) MLPredictionScoresObserve(v float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.predictionScores = append(m.predictionScores, v)
}

// constModel returns a fixed probability for any input of the right width.
type constModel struct {
	p float64
	n int
}

func (c constModel) NumInputs() int { return c.n }

func (c constModel) PositiveProbability(x []float64) (float64, error) {
	if len(x) != c.n {
		return 0, ErrInputShape
	}
	return c.p, nil
}

// echoModel returns its i-th input, which lets tests see meta column order.
type echoModel struct {
	i, n int
}

func (e echoModel) NumInputs() int { return e.n }

func (e echoModel) PositiveProbability(x []float64) (float64, error) {
	if len(x) != e.n {
		return 0, ErrInputShape
	}
	return x[e.i], nil
}
