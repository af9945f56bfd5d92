package consumers

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// PairHistogram bins pairs of scalars on an nBins x nBins grid over
// [min, max) x [min, max), with the same edge transform as [Histogram]. It is
// the natural sink for a component pair splitter and exposes the joint
// marginal of two coordinates of the sampled vectors.
type PairHistogram struct {
	sampleflow.Node

	edges []float64

	mu      sync.Mutex
	bins    [][]uint64
	outside uint64
}

// NewPairHistogram builds a two-dimensional histogram, see [NewHistogram] for
// the edge semantics. Both axes share the range and transform.
func NewPairHistogram(min, max float64, nBins int, transform func(float64) float64) *PairHistogram {
	if transform == nil {
		transform = func(x float64) float64 { return x }
	}
	width := (max - min) / float64(nBins)
	return &PairHistogram{
		Node: sampleflow.NewNode(sampleflow.AnyMode),
		edges: lo.Map(lo.Range(nBins+1), func(i, _ int) float64 {
			return transform(min + float64(i)*width)
		}),
		bins: lo.Map(lo.Range(nBins), func(int, int) []uint64 {
			return make([]uint64, nBins)
		}),
	}
}

// Consume bins one pair. Pairs with either coordinate outside the range go to
// the outside tally.
func (h *PairHistogram) Consume(sample [2]float64, _ sampleflow.AuxiliaryData) {
	row := h.locate(sample[0])
	col := h.locate(sample[1])
	h.mu.Lock()
	defer h.mu.Unlock()
	if row < 0 || col < 0 {
		h.outside++
		return
	}
	h.bins[row][col]++
}

func (h *PairHistogram) locate(x float64) int {
	// Bin j covers [edges[j], edges[j+1]).
	bin := sort.Search(len(h.edges), func(j int) bool { return h.edges[j] > x }) - 1
	if bin < 0 || bin >= len(h.bins) {
		return -1
	}
	return bin
}

// Get returns a copy of the grid of counts, first coordinate selecting the
// row.
func (h *PairHistogram) Get() [][]uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return lo.Map(h.bins, func(row []uint64, _ int) []uint64 {
		return append([]uint64(nil), row...)
	})
}

// Outside returns how many pairs had a coordinate outside the range.
func (h *PairHistogram) Outside() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outside
}

// Edges returns the shared axis boundaries in sample space, nBins+1 values.
func (h *PairHistogram) Edges() []float64 {
	return append([]float64(nil), h.edges...)
}
