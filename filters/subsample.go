package filters

import (
	"sync"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// TakeEveryNth passes on every nth sample and drops the rest. Markov chain
// samples are highly correlated, so discarding most of them loses little
// information while cutting the cost of expensive downstream consumers.
//
// The internal counter is locked, so the node declares AnyMode.
//
// n must be positive; n of zero would select nothing.
func TakeEveryNth[T any](n uint64) *sampleflow.Filter[T, T] {
	if n == 0 {
		panic("filters: TakeEveryNth needs a positive stride")
	}
	var (
		mu      sync.Mutex
		counter uint64
	)
	return sampleflow.NewFilter(sampleflow.AnyMode,
		func(sample T, aux sampleflow.AuxiliaryData) (T, sampleflow.AuxiliaryData, bool) {
			mu.Lock()
			counter++
			take := counter%n == 0
			mu.Unlock()
			return sample, aux, take
		})
}

// TakeNEveryM passes on the first n out of every m samples. With n equal to
// the number of chains and m a multiple of it, this selects whole generations
// of a multi-chain sampler at regular intervals.
//
// everyMth must be positive and at least n.
func TakeNEveryM[T any](everyMth, n uint64) *sampleflow.Filter[T, T] {
	if everyMth == 0 || everyMth < n {
		panic("filters: TakeNEveryM needs a positive period of at least n")
	}
	var (
		mu      sync.Mutex
		counter uint64
	)
	return sampleflow.NewFilter(sampleflow.AnyMode,
		func(sample T, aux sampleflow.AuxiliaryData) (T, sampleflow.AuxiliaryData, bool) {
			mu.Lock()
			mine := counter
			counter++
			mu.Unlock()
			return sample, aux, mine%everyMth < n
		})
}
