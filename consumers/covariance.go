package consumers

import (
	"sync"

	"gonum.org/v1/gonum/floats"
	"gonum.org/v1/gonum/mat"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// CovarianceMatrix computes the running sample covariance of vector-valued
// samples. It keeps the Welford mean together with the scatter matrix
//
//	M_k = M_{k-1} + (k-1)/k * delta * delta^T,  delta = x_k - mean_{k-1}
//
// and divides by k-1 on Get. The rank-one update keeps the matrix symmetric by
// construction.
type CovarianceMatrix struct {
	sampleflow.Node

	mu      sync.Mutex
	n       uint64
	mean    []float64
	scatter *mat.SymDense
}

// NewCovarianceMatrix returns a covariance consumer for vector samples.
func NewCovarianceMatrix() *CovarianceMatrix {
	return &CovarianceMatrix{Node: sampleflow.NewNode(sampleflow.AnyMode)}
}

// Consume folds one sample into the running covariance.
func (c *CovarianceMatrix) Consume(sample []float64, _ sampleflow.AuxiliaryData) {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.n == 0 {
		c.mean = append([]float64(nil), sample...)
		c.scatter = mat.NewSymDense(len(sample), nil)
		c.n = 1
		return
	}

	c.n++
	delta := make([]float64, len(c.mean))
	floats.SubTo(delta, sample, c.mean)
	c.scatter.SymRankOne(c.scatter, float64(c.n-1)/float64(c.n), mat.NewVecDense(len(delta), delta))
	floats.AddScaled(c.mean, 1/float64(c.n), delta)
}

// Get returns the sample covariance matrix of all samples seen so far, or nil
// if fewer than two have been processed.
func (c *CovarianceMatrix) Get() *mat.SymDense {
	c.mu.Lock()
	defer c.mu.Unlock()

	if c.n < 2 {
		return nil
	}
	out := mat.NewSymDense(len(c.mean), nil)
	out.ScaleSym(1/float64(c.n-1), c.scatter)
	return out
}
