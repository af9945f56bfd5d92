package filters

import (
	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// PassThrough forwards every sample unchanged. It is useful as a fan-out hub:
// wire many producers into it once and connect all downstream nodes to the
// hub instead of to each producer individually.
func PassThrough[T any]() *sampleflow.Filter[T, T] {
	return sampleflow.NewFilter(sampleflow.AnyMode,
		func(sample T, aux sampleflow.AuxiliaryData) (T, sampleflow.AuxiliaryData, bool) {
			return sample, aux, true
		})
}
