package forward

// A Model maps physical coefficients to the measurements an experiment would
// record for them.
type Model interface {
	// Evaluate returns the predicted measurement vector for the given
	// coefficients. Implementations must not retain or modify the slice.
	Evaluate(coefficients []float64) []float64
}

// DirectObservation is the cheapest possible forward model: the measurements
// are the coefficients themselves. It stands in for an expensive solver when
// exercising the sampling machinery.
type DirectObservation struct{}

func (DirectObservation) Evaluate(coefficients []float64) []float64 {
	return append([]float64(nil), coefficients...)
}

// ExactCoefficients returns the 64-entry ground truth of the benchmark's
// inverse problem: a uniform background of 1.0 with one low-value and one
// high-value square inclusion on the 8x8 coefficient grid.
func ExactCoefficients() []float64 {
	coefficients := make([]float64, 64)
	for i := range coefficients {
		coefficients[i] = 1.0
	}
	for _, i := range []int{9, 10, 17, 18} {
		coefficients[i] = 0.1
	}
	for _, i := range []int{45, 46, 53, 54} {
		coefficients[i] = 10.0
	}
	return coefficients
}
