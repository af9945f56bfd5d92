package forward

import (
	"math"

	"gonum.org/v1/gonum/stat/distuv"

	"github.com/bangerth/spec-cpuv8-sampleflow-official/producers"
)

// GaussianLikelihood builds a log likelihood that compares a model's
// prediction against observed measurements under independent Gaussian noise
// with the given standard deviation.
func GaussianLikelihood(model Model, observations []float64, sigma float64) producers.LogPosterior {
	noise := distuv.Normal{Mu: 0, Sigma: sigma}
	return func(coefficients []float64) float64 {
		predicted := model.Evaluate(coefficients)
		lp := 0.0
		for i, p := range predicted {
			lp += noise.LogProb(p - observations[i])
		}
		return lp
	}
}

// LogGaussianPrior builds a log prior density under which the logarithm of
// every coefficient is independently normal with the given parameters.
func LogGaussianPrior(mu, sigma float64) producers.LogPosterior {
	prior := distuv.LogNormal{Mu: mu, Sigma: sigma}
	return func(coefficients []float64) float64 {
		lp := 0.0
		for _, c := range coefficients {
			lp += prior.LogProb(c)
		}
		return lp
	}
}

// Posterior combines a log likelihood and a log prior into the unnormalized
// log posterior density the sampler explores. Coefficient vectors with any
// non-positive component are outside the support and evaluate to -Inf without
// running the forward model.
func Posterior(logLikelihood, logPrior producers.LogPosterior) producers.LogPosterior {
	return func(coefficients []float64) float64 {
		for _, c := range coefficients {
			if c <= 0 {
				return math.Inf(-1)
			}
		}
		return logLikelihood(coefficients) + logPrior(coefficients)
	}
}
