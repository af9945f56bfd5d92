package consumers

import (
	"sync"

	"gonum.org/v1/gonum/floats"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// MeanValue computes the running mean of vector-valued samples using Welford's
// update
//
//	mean_k = mean_{k-1} + (x_k - mean_{k-1}) / k
//
// which is stable for long streams where summing first and dividing later
// would lose precision. The result is independent of delivery order up to
// floating-point rounding.
//
// All state is guarded by a mutex, so the node declares AnyMode and can be fed
// from any number of publishers.
type MeanValue struct {
	sampleflow.Node

	mu   sync.Mutex
	mean []float64
	n    uint64
}

// NewMeanValue returns a mean consumer for vector samples.
func NewMeanValue() *MeanValue {
	return &MeanValue{Node: sampleflow.NewNode(sampleflow.AnyMode)}
}

// Consume folds one sample into the running mean.
func (m *MeanValue) Consume(sample []float64, _ sampleflow.AuxiliaryData) {
	m.mu.Lock()
	defer m.mu.Unlock()

	if m.n == 0 {
		m.mean = append([]float64(nil), sample...)
		m.n = 1
		return
	}

	m.n++
	delta := make([]float64, len(m.mean))
	floats.SubTo(delta, sample, m.mean)
	floats.AddScaled(m.mean, 1/float64(m.n), delta)
}

// Get returns the mean of all samples seen so far, or nil if none have been
// processed yet.
func (m *MeanValue) Get() []float64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.mean...)
}

// Count returns the number of samples folded in so far.
func (m *MeanValue) Count() uint64 {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.n
}
