package consumers

import (
	"sync/atomic"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// AcceptanceRatio computes the fraction of samples whose proposal was accepted,
// the standard health indicator of a Metropolis-Hastings run (well-tuned
// samplers sit around 0.24). It reads the sampleflow.KeyAccepted auxiliary
// entry; samples without one count toward the total but not the accepts.
// Purely atomic, hence Asynchronous.
type AcceptanceRatio struct {
	sampleflow.Node

	total    atomic.Uint64
	accepted atomic.Uint64
}

// NewAcceptanceRatio returns an acceptance-ratio consumer.
func NewAcceptanceRatio() *AcceptanceRatio {
	return &AcceptanceRatio{Node: sampleflow.NewNode(sampleflow.Asynchronous)}
}

// Consume records one accept/reject outcome.
func (a *AcceptanceRatio) Consume(_ []float64, aux sampleflow.AuxiliaryData) {
	a.total.Add(1)
	if accepted, ok := aux[sampleflow.KeyAccepted].(bool); ok && accepted {
		a.accepted.Add(1)
	}
}

// Get returns accepted/total, or zero before the first sample.
func (a *AcceptanceRatio) Get() float64 {
	total := a.total.Load()
	if total == 0 {
		return 0
	}
	return float64(a.accepted.Load()) / float64(total)
}
