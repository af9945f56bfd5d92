package producers

import (
	"errors"
	"math"

	"go.uber.org/zap"
	"golang.org/x/exp/rand"
	"gonum.org/v1/gonum/floats"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/pool"
)

var (
	// ErrTooFewChains rejects runs with fewer than three chains; the
	// differential-evolution crossover needs two partners besides the chain
	// being updated.
	ErrTooFewChains = errors.New("differential evolution needs at least three chains")
	// ErrSampleCount rejects totals that do not divide evenly into
	// generations.
	ErrSampleCount = errors.New("total sample count must be a positive multiple of the chain count")
	// ErrDimensionMismatch rejects starting points of differing dimension.
	ErrDimensionMismatch = errors.New("starting samples must share one dimension")
)

// LogPosterior evaluates the unnormalized log posterior density of a candidate
// coefficient vector, typically log likelihood of the forward-model prediction
// plus log prior. It must be a pure function of its argument: evaluations run
// concurrently on pool workers.
type LogPosterior func(candidate []float64) float64

// Proposal perturbs the current sample into a new candidate and returns it
// together with the proposal-density ratio needed for the Metropolis
// correction (1 for symmetric proposals). It is called on the sampler's own
// goroutine and may freely use the passed generator.
type Proposal func(current []float64, rng *rand.Rand) (candidate []float64, ratio float64)

// Crossover combines the current sample with the states of two other chains
// into a candidate, returning it with its proposal ratio.
type Crossover func(current, a, b []float64) (candidate []float64, ratio float64)

// DefaultCrossover computes current + gamma*(a-b) with the standard
// differential-evolution scaling gamma = 2.38/sqrt(2*dim), which targets an
// acceptance rate around 0.24 for Gaussian posteriors. The move is symmetric,
// so the ratio is 1.
func DefaultCrossover(current, a, b []float64) ([]float64, float64) {
	gamma := 2.38 / math.Sqrt(2*float64(len(current)))
	candidate := make([]float64, len(current))
	floats.SubTo(candidate, a, b)
	floats.Scale(gamma, candidate)
	floats.Add(candidate, current)
	return candidate, 1
}

// DifferentialEvolutionMH runs N coupled Metropolis-Hastings chains whose
// proposals may be built from the difference of two other chains' states. Per
// generation it forks one posterior evaluation per chain onto the worker pool,
// joins them at a barrier, then decides acceptance chain by chain and publishes
// every resulting state to the connected graph.
//
// All randomness is drawn from a single seeded generator on the calling
// goroutine, before and after the fork but never inside it. Together with the
// barrier, and with crossover partners always taken from the previous
// generation's frozen states, this makes the produced trajectories a pure
// function of the seed and the posterior: the number of workers, and the order
// in which they finish, cannot change the result.
type DifferentialEvolutionMH struct {
	sampleflow.Emitter[[]float64]

	logger    *zap.Logger
	pool      *pool.Pool
	rng       *rand.Rand
	crossover Crossover

	// synchronousEval forces evaluations inline on the sampler goroutine even
	// when the pool has workers.
	synchronousEval bool
}

// Option customizes sampler construction.
type Option func(*DifferentialEvolutionMH)

// WithLogger attaches a logger; the default is a no-op logger.
func WithLogger(l *zap.Logger) Option {
	return func(s *DifferentialEvolutionMH) { s.logger = l }
}

// WithCrossover replaces DefaultCrossover.
func WithCrossover(c Crossover) Option {
	return func(s *DifferentialEvolutionMH) { s.crossover = c }
}

// WithSynchronousEvaluation disables parallel posterior evaluation; every
// candidate is evaluated inline between fork and decide.
func WithSynchronousEvaluation() Option {
	return func(s *DifferentialEvolutionMH) { s.synchronousEval = true }
}

// NewDifferentialEvolutionMH builds a sampler drawing from the given pool and
// a deterministic bitstream seeded with seed.
func NewDifferentialEvolutionMH(p *pool.Pool, seed uint64, opts ...Option) *DifferentialEvolutionMH {
	s := &DifferentialEvolutionMH{
		logger:    zap.NewNop(),
		pool:      p,
		rng:       rand.New(rand.NewSource(seed)),
		crossover: DefaultCrossover,
	}
	for _, opt := range opts {
		opt(s)
	}
	return s
}

// chainState is owned exclusively by the sampler goroutine and mutated only at
// generation boundaries, so its log posterior is always consistent with its
// sample vector when anything else reads it.
type chainState struct {
	sample       []float64
	logPosterior float64
}

type candidate struct {
	sample       []float64
	ratio        float64
	logPosterior float64
}

// Sample runs the chains until totalSamples states have been published, then
// drains the pool and returns. starting supplies one point per chain; the
// first crossoverGap generations use the proposal generator exclusively, after
// which proposals come from the crossover of two other chains.
func (s *DifferentialEvolutionMH) Sample(
	starting [][]float64,
	logPosterior LogPosterior,
	propose Proposal,
	crossoverGap uint64,
	totalSamples uint64,
) error {
	n := len(starting)
	if n < 3 {
		return ErrTooFewChains
	}
	if totalSamples == 0 || totalSamples%uint64(n) != 0 {
		return ErrSampleCount
	}
	dim := len(starting[0])
	for _, x := range starting {
		if len(x) != dim || dim == 0 {
			return ErrDimensionMismatch
		}
	}

	generations := totalSamples / uint64(n)
	s.logger.Info("starting differential evolution sampler",
		zap.Int("chains", n),
		zap.Int("dimension", dim),
		zap.Uint64("generations", generations))

	// Evaluate the starting points through the same fork-join path as every
	// later generation.
	chains := make([]chainState, n)
	for i := range chains {
		i := i
		chains[i].sample = append([]float64(nil), starting[i]...)
		s.evaluate(func() {
			chains[i].logPosterior = logPosterior(chains[i].sample)
		})
	}
	s.pool.JoinAll()

	candidates := make([]candidate, n)
	for g := uint64(0); g < generations; g++ {
		// Fork: build all candidates and draw all proposal randomness here,
		// on this goroutine, from the previous generation's frozen states.
		for i := 0; i < n; i++ {
			if g >= crossoverGap {
				a, b := s.pickPartners(i, n)
				candidates[i].sample, candidates[i].ratio =
					s.crossover(chains[i].sample, chains[a].sample, chains[b].sample)
			} else {
				candidates[i].sample, candidates[i].ratio = propose(chains[i].sample, s.rng)
			}

			// Domain-validity short circuit: a candidate with a non-positive
			// component has zero posterior probability; don't pay for the
			// forward model to learn that.
			if !allPositive(candidates[i].sample) {
				candidates[i].logPosterior = math.Inf(-1)
				continue
			}
			i := i
			s.evaluate(func() {
				candidates[i].logPosterior = logPosterior(candidates[i].sample)
			})
		}

		// Join: no chain decides before every evaluation of this generation
		// has completed.
		s.pool.JoinAll()

		// Decide and publish, in ascending chain order so the acceptance
		// draws consume the shared bitstream in a fixed order.
		for i := 0; i < n; i++ {
			r := math.Exp(candidates[i].logPosterior-chains[i].logPosterior) * candidates[i].ratio
			accepted := s.rng.Float64() < math.Min(1, r)
			if accepted {
				chains[i] = chainState{
					sample:       candidates[i].sample,
					logPosterior: candidates[i].logPosterior,
				}
			}

			s.Emit(append([]float64(nil), chains[i].sample...), sampleflow.AuxiliaryData{
				sampleflow.KeySampleIndex:   g*uint64(n) + uint64(i),
				sampleflow.KeyChainIndex:    i,
				sampleflow.KeyAccepted:      accepted,
				sampleflow.KeyLogLikelihood: chains[i].logPosterior,
			})
		}
	}

	s.pool.JoinAll()
	s.logger.Info("sampling finished", zap.Uint64("samples", totalSamples))
	return nil
}

// evaluate runs task through the pool, or inline when synchronous evaluation
// was requested.
func (s *DifferentialEvolutionMH) evaluate(task func()) {
	if s.synchronousEval {
		task()
		return
	}
	s.pool.Enqueue(task)
}

// pickPartners draws two distinct chain indices, both different from i,
// uniformly over the remaining chains.
func (s *DifferentialEvolutionMH) pickPartners(i, n int) (int, int) {
	a := s.rng.Intn(n - 1)
	if a >= i {
		a++
	}
	b := s.rng.Intn(n - 2)
	low, high := min(i, a), max(i, a)
	if b >= low {
		b++
	}
	if b >= high {
		b++
	}
	return a, b
}

func allPositive(sample []float64) bool {
	for _, v := range sample {
		if v <= 0 {
			return false
		}
	}
	return true
}
