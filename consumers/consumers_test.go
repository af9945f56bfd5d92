package consumers_test

import (
	"bytes"
	"math"
	"sync"
	"testing"

	"github.com/maxatome/go-testdeep/td"
	"github.com/samber/lo"

	sampleflow "github.com/bangerth/spec-cpuv8-sampleflow-official"
	"github.com/bangerth/spec-cpuv8-sampleflow-official/consumers"
)

const tolerance = 1e-9

func connect[T any](t testing.TB, from *sampleflow.Emitter[T], to sampleflow.Consumer[T]) {
	t.Helper()
	_, err := from.Connect(to)
	td.Require(t).CmpNoError(err)
}

func TestMeanValue(t *testing.T) {
	t.Run("equals_the_arithmetic_mean", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		mean := consumers.NewMeanValue()
		connect(t, &src, mean)

		// Act
		src.Emit([]float64{1, 10}, nil)
		src.Emit([]float64{2, 20}, nil)
		src.Emit([]float64{3, 30}, nil)
		src.Emit([]float64{4, 40}, nil)

		// Assert
		got := mean.Get()
		td.Require(t).Len(got, 2)
		td.Cmp(t, got[0], td.N(2.5, tolerance))
		td.Cmp(t, got[1], td.N(25.0, tolerance))
		td.Cmp(t, mean.Count(), uint64(4))
	})

	t.Run("no_samples_gives_nil", func(t *testing.T) {
		td.Cmp(t, consumers.NewMeanValue().Get(), ([]float64)(nil))
	})

	t.Run("order_independent_under_concurrent_delivery", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		mean := consumers.NewMeanValue()
		connect(t, &src, mean)

		// Act: 8 publishers deliver the values 1..800 in racing order.
		const goroutines, perGoroutine = 8, 100
		var wg sync.WaitGroup
		for g := 0; g < goroutines; g++ {
			g := g
			wg.Add(1)
			go func() {
				defer wg.Done()
				for i := 0; i < perGoroutine; i++ {
					src.Emit([]float64{float64(g*perGoroutine + i + 1)}, nil)
				}
			}()
		}
		wg.Wait()

		// Assert: mean of 1..800 regardless of interleaving.
		const n = goroutines * perGoroutine
		got := mean.Get()
		td.Require(t).Len(got, 1)
		td.Cmp(t, got[0], td.N((n+1)/2.0, 1e-6))
		td.Cmp(t, mean.Count(), uint64(n))
	})
}

func TestCountSamples(t *testing.T) {
	t.Run("counts_every_delivery", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[float64]
		count := consumers.CountSamples[float64]()
		connect(t, &src, count)

		// Act
		for range lo.Range(17) {
			src.Emit(0, nil)
		}

		// Assert
		td.Cmp(t, count.Get(), uint64(17))
	})
}

func TestCovarianceMatrix(t *testing.T) {
	t.Run("matches_the_two_pass_covariance", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		cov := consumers.NewCovarianceMatrix()
		connect(t, &src, cov)

		// Act: deltas from the mean are [-2,-2], [0,0], [2,2].
		src.Emit([]float64{1, 2}, nil)
		src.Emit([]float64{3, 4}, nil)
		src.Emit([]float64{5, 6}, nil)

		// Assert: every entry is (4+0+4)/2 = 4.
		got := cov.Get()
		td.Require(t).NotNil(got)
		for i := 0; i < 2; i++ {
			for j := 0; j < 2; j++ {
				td.Cmp(t, got.At(i, j), td.N(4.0, tolerance))
			}
		}
	})

	t.Run("needs_two_samples", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		cov := consumers.NewCovarianceMatrix()
		connect(t, &src, cov)

		// Act
		src.Emit([]float64{1, 2}, nil)

		// Assert
		td.Cmp(t, cov.Get(), td.Nil())
	})
}

func TestHistogram(t *testing.T) {
	t.Run("bins_uniform_subdivisions", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[float64]
		hist := consumers.NewHistogram(0, 10, 5, nil)
		connect(t, &src, hist)

		// Act
		for _, v := range []float64{0, 1.9, 2, 5, 9.99, 10, -0.1} {
			src.Emit(v, nil)
		}

		// Assert: [0,2) gets two, [2,4) one, [4,6) one, [8,10) one; 10 and
		// -0.1 fall outside the half-open range.
		td.Cmp(t, hist.Get(), []uint64{2, 1, 1, 0, 1})
		td.Cmp(t, hist.Outside(), uint64(2))
	})

	t.Run("transform_maps_bin_edges", func(t *testing.T) {
		// Arrange: exp10 over [-1, 1] with two bins splits at 10^0 = 1.
		exp10 := func(x float64) float64 { return math.Pow(10, x) }
		var src sampleflow.Emitter[float64]
		hist := consumers.NewHistogram(-1, 1, 2, exp10)
		connect(t, &src, hist)

		// Act
		src.Emit(0.5, nil)
		src.Emit(2, nil)
		src.Emit(0.05, nil) // below 10^-1

		// Assert
		td.Cmp(t, hist.Get(), []uint64{1, 1})
		td.Cmp(t, hist.Outside(), uint64(1))
	})
}

func TestMaximumProbabilitySample(t *testing.T) {
	t.Run("tracks_the_most_likely_sample", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		mapPoint := consumers.NewMaximumProbabilitySample()
		connect(t, &src, mapPoint)

		// Act
		src.Emit([]float64{1}, sampleflow.AuxiliaryData{sampleflow.KeyLogLikelihood: -10.0})
		src.Emit([]float64{2}, sampleflow.AuxiliaryData{sampleflow.KeyLogLikelihood: -1.0})
		src.Emit([]float64{3}, sampleflow.AuxiliaryData{sampleflow.KeyLogLikelihood: -5.0})
		src.Emit([]float64{4}, nil) // no likelihood attached, ignored

		// Assert
		best, lp := mapPoint.Get()
		td.Cmp(t, best, []float64{2})
		td.Cmp(t, lp, -1.0)
	})
}

func TestAcceptanceRatio(t *testing.T) {
	t.Run("fraction_of_accepted_samples", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		ratio := consumers.NewAcceptanceRatio()
		connect(t, &src, ratio)

		// Act
		for _, accepted := range []bool{true, false, true, false} {
			src.Emit([]float64{0}, sampleflow.AuxiliaryData{sampleflow.KeyAccepted: accepted})
		}

		// Assert
		td.Cmp(t, ratio.Get(), 0.5)
	})

	t.Run("zero_before_any_sample", func(t *testing.T) {
		td.Cmp(t, consumers.NewAcceptanceRatio().Get(), 0.0)
	})
}

func TestStreamOutput(t *testing.T) {
	t.Run("writes_one_line_per_sample", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[float64]
		var buf bytes.Buffer
		out := consumers.StreamOutput[float64](&buf)
		connect(t, &src, out)

		// Act
		src.Emit(1.5, nil)
		src.Emit(2.5, nil)

		// Assert
		td.Cmp(t, buf.String(), "1.5\n2.5\n")
	})
}

func TestPairHistogram(t *testing.T) {
	t.Run("bins_on_a_grid", func(t *testing.T) {
		// Arrange: 2x2 grid over [0, 2) x [0, 2).
		var src sampleflow.Emitter[[2]float64]
		hist := consumers.NewPairHistogram(0, 2, 2, nil)
		connect(t, &src, hist)

		// Act
		src.Emit([2]float64{0.5, 1.5}, nil)
		src.Emit([2]float64{0.5, 1.5}, nil)
		src.Emit([2]float64{1.5, 0.5}, nil)
		src.Emit([2]float64{0.5, 0.5}, nil)
		src.Emit([2]float64{2.5, 0.5}, nil)

		// Assert: first coordinate selects the row.
		td.Cmp(t, hist.Get(), [][]uint64{{1, 2}, {1, 0}})
		td.Cmp(t, hist.Outside(), uint64(1))
	})

	t.Run("shares_the_transform_with_the_scalar_histogram", func(t *testing.T) {
		// Arrange: log-spaced axes over [1e-1, 1e1).
		var src sampleflow.Emitter[[2]float64]
		hist := consumers.NewPairHistogram(-1, 1, 2, func(x float64) float64 {
			return math.Pow(10, x)
		})
		connect(t, &src, hist)

		// Act
		src.Emit([2]float64{0.5, 5}, nil)

		// Assert
		td.Cmp(t, hist.Get(), [][]uint64{{0, 1}, {0, 0}})
		td.Cmp(t, hist.Edges(), td.Bag(
			td.N(0.1, tolerance), td.N(1.0, tolerance), td.N(10.0, tolerance)))
	})
}

func TestAutoCovariance(t *testing.T) {
	// The stream 1, 2, 3, 4 has mean 2.5, sample variance 5/3 and, centered
	// with the global mean, first-lag covariance 1.25/2.
	emit14 := func(t testing.TB, to sampleflow.Consumer[[]float64]) {
		t.Helper()
		var src sampleflow.Emitter[[]float64]
		connect(t, &src, to)
		for _, x := range []float64{1, 2, 3, 4} {
			src.Emit([]float64{x}, nil)
		}
	}

	t.Run("lag_zero_matches_the_sample_variance", func(t *testing.T) {
		// Arrange / Act
		auto := consumers.NewAutoCovarianceMatrix(1)
		emit14(t, auto)

		// Assert
		got := auto.Get()
		td.Require(t).Len(got, 2)
		td.Cmp(t, got[0].At(0, 0), td.N(5.0/3.0, tolerance))
	})

	t.Run("first_lag_uses_global_centering", func(t *testing.T) {
		// Arrange / Act
		auto := consumers.NewAutoCovarianceMatrix(1)
		emit14(t, auto)

		// Assert: three pairs, sum of centered products 1.25.
		td.Cmp(t, auto.Get()[1].At(0, 0), td.N(0.625, tolerance))
	})

	t.Run("lags_without_two_pairs_are_nil", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		auto := consumers.NewAutoCovarianceMatrix(3)
		connect(t, &src, auto)

		// Act: two samples complete two lag-0 pairs and one lag-1 pair.
		src.Emit([]float64{1}, nil)
		src.Emit([]float64{2}, nil)

		// Assert
		got := auto.Get()
		td.CmpNotNil(t, got[0])
		td.Cmp(t, got[1], td.Nil())
		td.Cmp(t, got[2], td.Nil())
		td.Cmp(t, got[3], td.Nil())
	})

	t.Run("trace_sums_the_diagonal", func(t *testing.T) {
		// Arrange
		var src sampleflow.Emitter[[]float64]
		auto := consumers.NewAutoCovarianceTrace(1)
		connect(t, &src, auto)

		// Act: both components carry the 1..4 stream.
		for _, x := range []float64{1, 2, 3, 4} {
			src.Emit([]float64{x, x}, nil)
		}

		// Assert
		got := auto.Get()
		td.Require(t).Len(got, 2)
		td.Cmp(t, got[0], td.N(2*5.0/3.0, tolerance))
		td.Cmp(t, got[1], td.N(2*0.625, tolerance))
	})
}
