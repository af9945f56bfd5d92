package producers

import (
	"math"

	"golang.org/x/exp/rand"
)

// LogGaussianProposal returns a multiplicative random walk: every component of
// the current sample is scaled by exp(sigma * z) with z standard normal. The
// walk is not symmetric in the sample itself, so the returned proposal ratio
// carries the product of the inverse scale factors.
func LogGaussianProposal(sigma float64) Proposal {
	return func(current []float64, rng *rand.Rand) ([]float64, float64) {
		candidate := make([]float64, len(current))
		ratio := 1.0
		for i, x := range current {
			scale := math.Exp(sigma * rng.NormFloat64())
			candidate[i] = x * scale
			ratio /= scale
		}
		return candidate, ratio
	}
}
