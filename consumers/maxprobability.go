package consumers

import (
	"math"
	"sync"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// MaximumProbabilitySample remembers the sample with the largest relative log
// likelihood seen so far, i.e. the maximum a posteriori point of the stream.
// It reads the sampleflow.KeyLogLikelihood auxiliary entry and ignores samples
// that do not carry one.
type MaximumProbabilitySample struct {
	sampleflow.Node

	mu   sync.Mutex
	best []float64
	lp   float64
}

// NewMaximumProbabilitySample returns a MAP-tracking consumer.
func NewMaximumProbabilitySample() *MaximumProbabilitySample {
	return &MaximumProbabilitySample{
		Node: sampleflow.NewNode(sampleflow.AnyMode),
		lp:   math.Inf(-1),
	}
}

// Consume keeps the sample if it beats the current best.
func (m *MaximumProbabilitySample) Consume(sample []float64, aux sampleflow.AuxiliaryData) {
	lp, ok := aux[sampleflow.KeyLogLikelihood].(float64)
	if !ok {
		return
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if lp > m.lp || m.best == nil {
		m.best = append([]float64(nil), sample...)
		m.lp = lp
	}
}

// Get returns the best sample so far and its relative log likelihood. The
// sample is nil if nothing carrying a likelihood has been seen.
func (m *MaximumProbabilitySample) Get() ([]float64, float64) {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([]float64(nil), m.best...), m.lp
}
