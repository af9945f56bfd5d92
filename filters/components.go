package filters

import (
	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// ComponentSplitter extracts one component of a vector-valued sample and
// passes it on as a scalar sample in its own right, e.g. to feed a per-
// component histogram. Samples shorter than the selected index are dropped.
func ComponentSplitter(component int) *sampleflow.Filter[[]float64, float64] {
	return sampleflow.NewFilter(sampleflow.AnyMode,
		func(sample []float64, aux sampleflow.AuxiliaryData) (float64, sampleflow.AuxiliaryData, bool) {
			if component >= len(sample) {
				return 0, nil, false
			}
			return sample[component], aux, true
		})
}

// ComponentPairSplitter extracts two components of a vector-valued sample as a
// pair, the input expected by pair histograms.
func ComponentPairSplitter(first, second int) *sampleflow.Filter[[]float64, [2]float64] {
	return sampleflow.NewFilter(sampleflow.AnyMode,
		func(sample []float64, aux sampleflow.AuxiliaryData) ([2]float64, sampleflow.AuxiliaryData, bool) {
			if first >= len(sample) || second >= len(sample) {
				return [2]float64{}, nil, false
			}
			return [2]float64{sample[first], sample[second]}, aux, true
		})
}
