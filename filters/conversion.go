package filters

import (
	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// Conversion applies a pure function to every sample, changing its type or
// shape. The function must be safe under concurrent invocation; the node
// declares AnyMode on its behalf.
func Conversion[In, Out any](convert func(In) Out) *sampleflow.Filter[In, Out] {
	return sampleflow.NewFilter(sampleflow.AnyMode,
		func(sample In, aux sampleflow.AuxiliaryData) (Out, sampleflow.AuxiliaryData, bool) {
			return convert(sample), aux, true
		})
}
