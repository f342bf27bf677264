package geometry

import (
	"context"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region ricci

// Ricci computes
//
//	R_ij = d_k Gamma^k_ij - d_j Gamma^k_ik + Gamma^l_ij Gamma^k_kl - Gamma^l_ik Gamma^k_jl
//
// contracted over k (and l for the algebraic terms). partialChristoffel is
// the optional n^4 tensor d_m Gamma^k_ij, indexed (m,k,i,j); when absent,
// the two derivative terms are skipped (treated as zero) and only the
// algebraic Gamma*Gamma contraction survives — in particular a
// zero Christoffel tensor (e.g. from an absent partialMetric) always
// produces a zero Ricci tensor. O(n^4): the deadline is checked once per
// outer i index.
func Ricci(ctx context.Context, gamma []float64, partialChristoffel []float64, n int) ([]float64, error) {
	if len(gamma) < n*n*n {
		return nil, kernelerr.New(kernelerr.DimensionMismatch, "geometry.Ricci", "gamma shorter than n^3", nil)
	}
	if partialChristoffel != nil && len(partialChristoffel) < n*n*n*n {
		return nil, kernelerr.New(kernelerr.DimensionMismatch, "geometry.Ricci", "partialChristoffel shorter than n^4", nil)
	}

	g := func(k, i, j int) float64 {
		return gamma[vecmath.Idx3(k, i, j, n)]
	}
	idx4 := func(m, k, i, j int) int {
		return ((m*n+k)*n+i)*n + j
	}
	dGamma := func(m, k, i, j int) float64 {
		if partialChristoffel == nil {
			return 0
		}
		return partialChristoffel[idx4(m, k, i, j)]
	}

	ricci := make([]float64, n*n)
	for i := 0; i < n; i++ {
		if err := checkDeadline(ctx); err != nil {
			return ricci, err
		}
		for j := 0; j < n; j++ {
			var derivTerm, altDerivTerm, algTerm, mixedTerm float64
			for k := 0; k < n; k++ {
				derivTerm += dGamma(k, k, i, j)
				altDerivTerm += dGamma(j, k, i, k)
				for l := 0; l < n; l++ {
					algTerm += g(l, i, j) * g(k, k, l)
					mixedTerm += g(l, i, k) * g(k, j, l)
				}
			}
			ricci[vecmath.Idx2(i, j, n)] = derivTerm - altDerivTerm + algTerm - mixedTerm
		}
	}
	return ricci, nil
}

// #endregion ricci

// #region scalar-curvature

// ScalarCurvature contracts the Ricci tensor with the inverse metric:
// R = sum_ij g^ij R_ij.
func ScalarCurvature(ricci, gInv []float64, n int) (float64, error) {
	if len(ricci) < n*n || len(gInv) < n*n {
		return 0, kernelerr.New(kernelerr.DimensionMismatch, "geometry.ScalarCurvature", "ricci or gInv shorter than n*n", nil)
	}
	var sum float64
	for i := 0; i < n; i++ {
		for j := 0; j < n; j++ {
			sum += gInv[vecmath.Idx2(i, j, n)] * ricci[vecmath.Idx2(i, j, n)]
		}
	}
	return sum, nil
}

// #endregion scalar-curvature
