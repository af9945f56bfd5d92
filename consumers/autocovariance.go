package consumers

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// AutoCovarianceMatrix estimates the lagged covariance matrices
//
//	C(k) = E[(x(t) - mean)(x(t-k) - mean)^T],  k = 0..maxLag,
//
// of a stream of sample vectors. Fast decay of C(k) with k indicates good
// mixing of the chain, so this consumer is usually fed through a subsampling
// filter to probe lags far apart in the raw stream.
//
// The estimator centers with the global running mean: per lag it accumulates
// the raw cross products and the marginal sums of both pair members, and Get
// assembles the centered matrices from those.
type AutoCovarianceMatrix struct {
	sampleflow.Node

	maxLag int

	mu     sync.Mutex
	n      uint64
	sum    []float64
	window [][]float64

	pairs    []uint64
	crossSum []*mat.Dense
	headSum  [][]float64
	tailSum  [][]float64
}

// NewAutoCovarianceMatrix builds an estimator for lags 0 through maxLag.
func NewAutoCovarianceMatrix(maxLag int) *AutoCovarianceMatrix {
	return &AutoCovarianceMatrix{
		Node:     sampleflow.NewNode(sampleflow.AnyMode),
		maxLag:   maxLag,
		pairs:    make([]uint64, maxLag+1),
		crossSum: make([]*mat.Dense, maxLag+1),
		headSum:  make([][]float64, maxLag+1),
		tailSum:  make([][]float64, maxLag+1),
	}
}

// Consume folds one sample into every lag it completes a pair for.
func (a *AutoCovarianceMatrix) Consume(sample []float64, _ sampleflow.AuxiliaryData) {
	a.mu.Lock()
	defer a.mu.Unlock()

	dim := len(sample)
	if a.sum == nil {
		a.sum = make([]float64, dim)
		for k := range a.crossSum {
			a.crossSum[k] = mat.NewDense(dim, dim, nil)
			a.headSum[k] = make([]float64, dim)
			a.tailSum[k] = make([]float64, dim)
		}
	}
	if dim != len(a.sum) {
		return
	}

	a.n++
	floats.Add(a.sum, sample)

	head := mat.NewVecDense(dim, sample)
	for k := 0; k <= a.maxLag; k++ {
		var partner []float64
		switch {
		case k == 0:
			partner = sample
		case k <= len(a.window):
			partner = a.window[len(a.window)-k]
		default:
			continue
		}
		a.pairs[k]++
		a.crossSum[k].RankOne(a.crossSum[k], 1, head, mat.NewVecDense(dim, partner))
		floats.Add(a.headSum[k], sample)
		floats.Add(a.tailSum[k], partner)
	}

	a.window = append(a.window, append([]float64(nil), sample...))
	if len(a.window) > a.maxLag {
		a.window = a.window[1:]
	}
}

// Get returns the estimated covariance matrix per lag, indexed by lag. Lags
// with fewer than two pairs so far are nil.
func (a *AutoCovarianceMatrix) Get() []*mat.Dense {
	a.mu.Lock()
	defer a.mu.Unlock()

	out := make([]*mat.Dense, a.maxLag+1)
	if a.sum == nil {
		return out
	}
	dim := len(a.sum)
	mean := make([]float64, dim)
	floats.ScaleTo(mean, 1/float64(a.n), a.sum)
	mu := mat.NewVecDense(dim, mean)

	for k := 0; k <= a.maxLag; k++ {
		m := a.pairs[k]
		if m < 2 {
			continue
		}
		// sum (x - mu)(y - mu)^T
		//   = sum x y^T - sum(x) mu^T - mu sum(y)^T + m mu mu^T
		c := mat.DenseCopyOf(a.crossSum[k])
		c.RankOne(c, -1, mat.NewVecDense(dim, a.headSum[k]), mu)
		c.RankOne(c, -1, mu, mat.NewVecDense(dim, a.tailSum[k]))
		c.RankOne(c, float64(m), mu, mu)
		c.Scale(1/float64(m-1), c)
		out[k] = c
	}
	return out
}

// AutoCovarianceTrace reduces [AutoCovarianceMatrix] to the trace per lag,
// which is usually all a convergence check needs.
type AutoCovarianceTrace struct {
	*AutoCovarianceMatrix
}

// NewAutoCovarianceTrace builds a trace estimator for lags 0 through maxLag.
func NewAutoCovarianceTrace(maxLag int) *AutoCovarianceTrace {
	return &AutoCovarianceTrace{AutoCovarianceMatrix: NewAutoCovarianceMatrix(maxLag)}
}

// Get returns the trace of the estimated covariance per lag. Lags with fewer
// than two pairs so far report zero.
func (a *AutoCovarianceTrace) Get() []float64 {
	matrices := a.AutoCovarianceMatrix.Get()
	traces := make([]float64, len(matrices))
	for k, c := range matrices {
		if c != nil {
			traces[k] = mat.Trace(c)
		}
	}
	return traces
}
