package consumers

import (
	"fmt"
	"io"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// Action invokes a user callback for every sample, for side effects such as
// periodic reporting. The caller declares the mode the callback is safe under:
// a callback touching unguarded state must pass Synchronous and the delivery
// machinery will serialize it.
type Action[T any] struct {
	sampleflow.Node

	fn func(T, sampleflow.AuxiliaryData)
}

// NewAction wraps fn as a consumer with the given ParallelMode.
func NewAction[T any](mode sampleflow.ParallelMode, fn func(T, sampleflow.AuxiliaryData)) *Action[T] {
	return &Action[T]{Node: sampleflow.NewNode(mode), fn: fn}
}

// Consume runs the callback.
func (a *Action[T]) Consume(sample T, aux sampleflow.AuxiliaryData) {
	a.fn(sample, aux)
}

// StreamOutput writes every sample to w, one per line. io.Writer makes no
// concurrency promises, so the node declares Synchronous and leaves the
// serialization to the delivery machinery.
func StreamOutput[T any](w io.Writer) *Action[T] {
	return NewAction(sampleflow.Synchronous, func(sample T, _ sampleflow.AuxiliaryData) {
		fmt.Fprintln(w, sample)
	})
}
