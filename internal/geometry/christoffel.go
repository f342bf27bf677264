package geometry

import (
	"context"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region christoffel

// Christoffel computes Gamma^k_ij = 1/2 * g^kl * (d_i g_jl + d_j g_il - d_l g_ij)
// and stores it flat, indexed (k,i,j) via vecmath.Idx3. partialMetric is the
// optional n^3 tensor d_i g_jl, indexed the same way (i,j,l); when nil, every
// derivative term is treated as zero, so Gamma is identically zero — the
// same "absent input degrades to zero" convention Ricci uses for d(Gamma).
// O(n^4): the deadline is checked once per outer k index.
func Christoffel(ctx context.Context, gInv []float64, partialMetric []float64, n int) ([]float64, error) {
	if len(gInv) < n*n {
		return nil, kernelerr.New(kernelerr.DimensionMismatch, "geometry.Christoffel", "gInv shorter than n*n", nil)
	}
	if partialMetric != nil && len(partialMetric) < n*n*n {
		return nil, kernelerr.New(kernelerr.DimensionMismatch, "geometry.Christoffel", "partialMetric shorter than n^3", nil)
	}

	gamma := make([]float64, n*n*n)
	if partialMetric == nil {
		return gamma, nil
	}

	dg := func(i, j, l int) float64 {
		return partialMetric[vecmath.Idx3(i, j, l, n)]
	}

	for k := 0; k < n; k++ {
		if err := checkDeadline(ctx); err != nil {
			return gamma, err
		}
		for i := 0; i < n; i++ {
			for j := 0; j < n; j++ {
				var sum float64
				for l := 0; l < n; l++ {
					gkl := gInv[vecmath.Idx2(k, l, n)]
					if gkl == 0 {
						continue
					}
					sum += gkl * (dg(i, j, l) + dg(j, i, l) - dg(l, i, j))
				}
				gamma[vecmath.Idx3(k, i, j, n)] = 0.5 * sum
			}
		}
	}
	return gamma, nil
}

// #endregion christoffel
