// Command mcmc-bench samples the posterior of a model-inversion problem with
// the differential evolution Metropolis-Hastings sampler and reports the
// resulting statistics.
//
// The run is configured through SAMPLEFLOW_* environment variables, see
// package config. Two runs with the same configuration produce the same
// sample stream regardless of the thread budget.
package main

import (
	"fmt"
	"math"
	"os"

	"github.com/samber/lo"
	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/config"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/consumers"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/filters"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/forward"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/pool"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/producers"
)

const (
	noiseSigma    = 0.05
	priorSigma    = 2.0
	proposalSigma = 0.09

	histogramMin  = -3.0
	histogramMax  = 3.0
	histogramBins = 1000

	pairHistogramBins = 100

	autocovarianceStride = 100
	autocovarianceLags   = 20
)

func main() {
	if err := run(); err != nil {
		fmt.Fprintln(os.Stderr, "mcmc-bench:", err)
		os.Exit(1)
	}
}

func run() error {
	cfg, err := config.Load()
	if err != nil {
		return err
	}
	logger, err := cfg.Logger()
	if err != nil {
		return err
	}
	defer func() { _ = logger.Sync() }()

	p, err := pool.New(cfg.Chains,
		pool.WithLogger(logger),
		pool.WithConcurrency(cfg.NumThreads))
	if err != nil {
		return err
	}
	defer func() { _ = p.Close() }()

	// The inverse problem: recover the coefficient field behind a set of
	// noisy measurements. The reference collaborator observes the
	// coefficients directly, so the measurements are the known field itself.
	model := forward.DirectObservation{}
	exact := forward.ExactCoefficients()
	observations := model.Evaluate(exact)
	posterior := forward.Posterior(
		forward.GaussianLikelihood(model, observations, noiseSigma),
		forward.LogGaussianPrior(0, priorSigma))

	sampler := producers.NewDifferentialEvolutionMH(p, cfg.Seed,
		producers.WithLogger(logger))

	hub := filters.PassThrough[[]float64]()
	count := consumers.CountSamples[[]float64]()
	mean := consumers.NewMeanValue()
	covariance := consumers.NewCovarianceMatrix()
	maximum := consumers.NewMaximumProbabilitySample()
	acceptance := consumers.NewAcceptanceRatio()

	var connErr error
	connect := func(_ *sampleflow.Connection, err error) {
		if connErr == nil {
			connErr = err
		}
	}
	connect(sampler.Connect(hub))
	connect(hub.Connect(count))
	connect(hub.Connect(mean))
	connect(hub.Connect(covariance))
	connect(hub.Connect(maximum))
	connect(hub.Connect(acceptance))

	// One marginal histogram per coefficient, on a log10 scale.
	dim := len(exact)
	histograms := make([]*consumers.Histogram, dim)
	for i := 0; i < dim; i++ {
		histograms[i] = consumers.NewHistogram(histogramMin, histogramMax, histogramBins,
			func(x float64) float64 { return math.Pow(10, x) })
		split := filters.ComponentSplitter(i)
		connect(hub.Connect(split))
		connect(split.Connect(histograms[i]))
	}

	// Joint marginals of neighboring coefficients inside the two inclusions.
	pairs := [][2]int{{9, 10}, {53, 54}}
	pairHistograms := make([]*consumers.PairHistogram, len(pairs))
	for i, pair := range pairs {
		pairHistograms[i] = consumers.NewPairHistogram(histogramMin, histogramMax,
			pairHistogramBins, func(x float64) float64 { return math.Pow(10, x) })
		split := filters.ComponentPairSplitter(pair[0], pair[1])
		connect(hub.Connect(split))
		connect(split.Connect(pairHistograms[i]))
	}

	// Mixing diagnostic over a thinned stream, so the lags probe points far
	// apart in the raw chain.
	thinned := filters.TakeEveryNth[[]float64](autocovarianceStride)
	mixing := consumers.NewAutoCovarianceTrace(autocovarianceLags)
	connect(hub.Connect(thinned))
	connect(thinned.Connect(mixing))

	// Progress line every LogEvery samples.
	progress := filters.TakeEveryNth[[]float64](cfg.LogEvery)
	report := consumers.NewAction(sampleflow.Synchronous,
		func(_ []float64, aux sampleflow.AuxiliaryData) {
			logger.Info("sampling", zap.Any("sample", aux[sampleflow.KeySampleIndex]))
		})
	connect(hub.Connect(progress))
	connect(progress.Connect(report))

	if connErr != nil {
		return connErr
	}

	starting := startingPoints(cfg.Chains, dim, cfg.Seed)
	total := uint64(cfg.Chains) * cfg.SamplesPerChain
	logger.Info("starting run",
		zap.Int("chains", cfg.Chains),
		zap.Uint64("samples", total),
		zap.Uint64("seed", cfg.Seed))

	if err := sampler.Sample(starting, posterior,
		producers.LogGaussianProposal(proposalSigma),
		cfg.SamplesPerChain, total); err != nil {
		return err
	}
	if err := hub.Close(); err != nil {
		return err
	}

	printReport(count.Get(), acceptance.Get(), mean.Get(), maximum, exact)
	outside := lo.SumBy(histograms, func(h *consumers.Histogram) uint64 { return h.Outside() }) +
		lo.SumBy(pairHistograms, func(h *consumers.PairHistogram) uint64 { return h.Outside() })
	fmt.Printf("outside bins:     %d\n", outside)
	if traces := mixing.Get(); len(traces) > 1 {
		fmt.Printf("autocovariance:   lag0 %.6f, lag1 %.6f\n", traces[0], traces[1])
	}
	return nil
}

// startingPoints perturbs the all-ones field per chain so the chains start
// spread out; the draws come from a generator independent of the sampler's.
func startingPoints(chains, dim int, seed uint64) [][]float64 {
	rng := rand.New(rand.NewSource(seed * 97))
	return lo.Times(chains, func(int) []float64 {
		point := make([]float64, dim)
		for i := range point {
			point[i] = math.Exp(0.5 * rng.NormFloat64())
		}
		return point
	})
}

func printReport(count uint64, acceptance float64, mean []float64,
	maximum *consumers.MaximumProbabilitySample, exact []float64) {
	fmt.Printf("samples:          %d\n", count)
	fmt.Printf("acceptance ratio: %.4f\n", acceptance)

	if mean != nil {
		diff := make([]float64, len(mean))
		floats.SubTo(diff, mean, exact)
		fmt.Printf("mean error:       %.6f\n", floats.Norm(diff, 2))
	}
	if best, lp := maximum.Get(); best != nil {
		diff := make([]float64, len(best))
		floats.SubTo(diff, best, exact)
		fmt.Printf("MAP error:        %.6f (log posterior %.3f)\n", floats.Norm(diff, 2), lp)
	}
}
