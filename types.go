package sampleflow

import (
	"errors"
)

var (
	// ErrAlreadyConnected is returned by Connect when the consumer already has an
	// edge from the same emitter. Connecting the same pair twice is a wiring bug,
	// not something to silently tolerate.
	ErrAlreadyConnected = errors.New("consumer is already connected to this emitter")
)

// Well-known AuxiliaryData keys shared between producers and consumers. A
// producer that has the information attaches it under these names; consumers
// that need it look it up and ignore samples without it.
const (
	// KeySampleIndex is the running index of the sample across the whole run.
	KeySampleIndex = "sample index"
	// KeyChainIndex identifies which chain of a multi-chain sampler produced
	// the sample.
	KeyChainIndex = "chain index"
	// KeyAccepted records whether the proposal behind this sample was accepted
	// (true) or the previous state was repeated (false).
	KeyAccepted = "sample is accepted"
	// KeyLogLikelihood carries the relative log likelihood of the sample.
	KeyLogLikelihood = "relative log likelihood"
)

// AuxiliaryData carries named per-sample metadata alongside a sample as it
// travels through the graph. Keys are free-form; nodes add what they know and
// pass on what they don't.
type AuxiliaryData map[string]any

// Clone returns an independent shallow copy, so that every subscriber can add
// entries without racing with its siblings. Values themselves are treated as
// immutable once published.
func (a AuxiliaryData) Clone() AuxiliaryData {
	if a == nil {
		return nil
	}
	out := make(AuxiliaryData, len(a))
	for k, v := range a {
		out[k] = v
	}
	return out
}

// ParallelMode declares under which invocation regimes a node's receive handler
// is safe. It is a contract the connection machinery enforces, not merely
// documentation.
type ParallelMode uint8

const (
	// Synchronous means the handler requires mutual exclusion across
	// invocations. Deliveries to a node declaring only this mode are
	// serialized by the delivery path.
	Synchronous ParallelMode = 1 << iota
	// Asynchronous means the handler is safe under concurrent invocation
	// without additional locking.
	Asynchronous
)

// AnyMode is the declaration of nodes that are safe either way, letting the
// graph builder choose freely.
const AnyMode = Synchronous | Asynchronous

// Has reports whether m includes the given mode bit.
func (m ParallelMode) Has(flag ParallelMode) bool {
	return m&flag != 0
}

func (m ParallelMode) String() string {
	switch m {
	case Synchronous:
		return "synchronous"
	case Asynchronous:
		return "asynchronous"
	case AnyMode:
		return "synchronous|asynchronous"
	default:
		return "unknown"
	}
}
