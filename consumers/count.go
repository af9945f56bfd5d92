package consumers

import (
	"sync/atomic"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// Counter counts samples of any type. It is purely atomic and therefore
// declares Asynchronous: no locking happens on the delivery path.
type Counter[T any] struct {
	sampleflow.Node

	n atomic.Uint64
}

// CountSamples returns a counting consumer.
func CountSamples[T any]() *Counter[T] {
	return &Counter[T]{Node: sampleflow.NewNode(sampleflow.Asynchronous)}
}

// Consume counts one sample.
func (c *Counter[T]) Consume(T, sampleflow.AuxiliaryData) {
	c.n.Add(1)
}

// Get returns the number of samples seen so far.
func (c *Counter[T]) Get() uint64 {
	return c.n.Load()
}
