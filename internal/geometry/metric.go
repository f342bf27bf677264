// Package geometry implements the differential-geometric kernel: metric
// construction and inversion, Christoffel symbols, Ricci and scalar
// curvature, finite differences over field components, and the geodesic
// length integrator. Every routine truncates to the active dimension and
// operates on plain []float64 flat storage, matching the reference
// controller's convention of dense fixed-shape arrays with hand-rolled
// flat indexers rather than a matrix type.
package geometry

import (
	"context"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region config

// Config holds the numerical guards and active dimension the kernel
// operates under.
type Config struct {
	ActiveDim    int
	MetricBase   float64 // base added to the diagonal when building a metric from neighbors
	DetFloor     float64 // det_floor
	TikhonovAdd  float64 // tikhonov_add
	FiniteDiffH  float64 // finite_diff_h
}

// DefaultConfig returns the spec defaults.
func DefaultConfig() Config {
	return Config{
		ActiveDim:   model.ActiveDim,
		MetricBase:  1.0,
		DetFloor:    1e-10,
		TikhonovAdd: 1e-6,
		FiniteDiffH: 1e-6,
	}
}

// #endregion config

// #region build-metric

// BuildMetricFromNeighbors estimates the metric tensor at a point from a
// heuristic finite-difference gradient against two neighboring field
// vectors: at each active-dimension component k, the partial derivative is
// estimated as a centered difference of the two neighbors, and
// g_ij = <grad_i, grad_j> + base*delta_ij. The result is symmetric by
// construction; only the upper triangle is computed, the lower triangle is
// mirrored. base > 0 guarantees positive-definiteness.
func BuildMetricFromNeighbors(field, neighborLo, neighborHi []float64, cfg Config) ([]float64, error) {
	n := cfg.ActiveDim
	if len(field) < n || len(neighborLo) < n || len(neighborHi) < n {
		return nil, kernelerr.New(kernelerr.DimensionMismatch, "geometry.BuildMetricFromNeighbors",
			"field vectors shorter than active dimension", nil)
	}

	grad := make([]float64, n)
	for k := 0; k < n; k++ {
		grad[k] = (neighborHi[k] - neighborLo[k]) / 2
	}

	g := make([]float64, n*n)
	for i := 0; i < n; i++ {
		for j := i; j < n; j++ {
			v := grad[i] * grad[j]
			if i == j {
				v += cfg.MetricBase
			}
			g[vecmath.Idx2(i, j, n)] = v
			g[vecmath.Idx2(j, i, n)] = v
		}
	}
	return g, nil
}

// #endregion build-metric

// #region metric-inverse

// MetricInverse reads gFlat as the full n x n row-major matrix (no
// triangular expansion), computes its determinant, and — if the raw determinant magnitude falls below
// DetFloor — adds a Tikhonov regularization term to the diagonal before
// inverting. Returns the inverse, the determinant actually used (post
// regularization if applied), and whether regularization was applied.
func MetricInverse(gFlat []float64, cfg Config) (inv []float64, det float64, regularized bool, err error) {
	n := cfg.ActiveDim
	if len(gFlat) < n*n {
		return nil, 0, false, kernelerr.New(kernelerr.DimensionMismatch, "geometry.MetricInverse",
			"metric tensor shorter than n*n", nil)
	}

	det = vecmath.Det(gFlat, n)
	working := gFlat
	if absf(det) < cfg.DetFloor {
		working = make([]float64, n*n)
		copy(working, gFlat[:n*n])
		for i := 0; i < n; i++ {
			working[vecmath.Idx2(i, i, n)] += cfg.TikhonovAdd
		}
		regularized = true
		det = vecmath.Det(working, n)
	}

	inv, invErr := vecmath.Inv(working, n)
	if invErr != nil {
		return nil, det, regularized, kernelerr.New(kernelerr.SingularMatrix, "geometry.MetricInverse",
			"inversion failed after regularization check", invErr)
	}
	return inv, det, regularized, nil
}

// #endregion metric-inverse

// #region context-check

// checkDeadline reports whether ctx has been cancelled, for use at the
// outermost loop index of an O(n^3)/O(n^4) kernel routine.
func checkDeadline(ctx context.Context) error {
	select {
	case <-ctx.Done():
		return kernelerr.New(kernelerr.DeadlineExceeded, "geometry", "deadline exceeded", ctx.Err())
	default:
		return nil
	}
}

func absf(v float64) float64 {
	if v < 0 {
		return -v
	}
	return v
}

// #endregion context-check
