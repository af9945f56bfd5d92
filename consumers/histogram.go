package consumers

import (
	"sort"
	"sync"

	"github.com/samber/lo"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
)

// Histogram bins scalar samples into nBins subdivisions of [min, max). An
// optional monotone transform maps the subdivision points into sample space
// before binning; passing exp10 with a [-3, 3] range, for example, yields
// logarithmically spaced bins covering 1e-3 to 1e3. Samples outside the range
// are counted in the outside tally rather than dropped silently.
type Histogram struct {
	sampleflow.Node

	edges []float64

	mu      sync.Mutex
	bins    []uint64
	outside uint64
}

// NewHistogram builds a histogram over nBins subdivisions of [min, max),
// with bin edges mapped through transform (nil means identity).
func NewHistogram(min, max float64, nBins int, transform func(float64) float64) *Histogram {
	if transform == nil {
		transform = func(x float64) float64 { return x }
	}
	width := (max - min) / float64(nBins)
	return &Histogram{
		Node: sampleflow.NewNode(sampleflow.AnyMode),
		edges: lo.Map(lo.Range(nBins+1), func(i, _ int) float64 {
			return transform(min + float64(i)*width)
		}),
		bins: make([]uint64, nBins),
	}
}

// Consume bins one sample.
func (h *Histogram) Consume(sample float64, _ sampleflow.AuxiliaryData) {
	// edges is immutable after construction; only the counts need the lock.
	// Bin j covers [edges[j], edges[j+1]).
	bin := sort.Search(len(h.edges), func(j int) bool { return h.edges[j] > sample }) - 1
	h.mu.Lock()
	defer h.mu.Unlock()
	if bin < 0 || bin >= len(h.bins) {
		h.outside++
		return
	}
	h.bins[bin]++
}

// Get returns a copy of the per-bin counts.
func (h *Histogram) Get() []uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return append([]uint64(nil), h.bins...)
}

// Outside returns how many samples fell outside [min, max).
func (h *Histogram) Outside() uint64 {
	h.mu.Lock()
	defer h.mu.Unlock()
	return h.outside
}

// Edges returns the bin boundaries in sample space, nBins+1 values.
func (h *Histogram) Edges() []float64 {
	return append([]float64(nil), h.edges...)
}
