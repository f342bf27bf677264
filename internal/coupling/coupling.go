// Package coupling computes the recursive coupling tensor between pairs of
// observations (§4.4): a heuristic mixed-product tensor, its Frobenius-norm
// reduction to a scalar magnitude, and the self/hetero decomposition that
// feeds the observer-coupling detectors and coordination clustering. The
// tensor itself is treated as scratch, the same way the reference
// controller's evidence graph treats edge weights as derived, recomputable
// state rather than a durable source of truth.
package coupling

import (
	"math"

	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region tensor

// Tensor computes R_{ijk}(p,q) = (s_p[i]*s_q[j]*c_p[k]) / (1 + |s_p[i]| + |s_q[j]|)
// over the first n components of each input, returning an n^3 flat array.
// Index-clamp: components beyond the length of each input (sp, sq, cp
// separately) are treated as zero rather than causing an error.
func Tensor(sp, sq, cp []float64, n int) []float64 {
	r := make([]float64, n*n*n)
	for i := 0; i < n; i++ {
		si := compAt(sp, i)
		for j := 0; j < n; j++ {
			sj := compAt(sq, j)
			denom := 1 + math.Abs(si) + math.Abs(sj)
			for k := 0; k < n; k++ {
				ck := compAt(cp, k)
				r[vecmath.Idx3(i, j, k, n)] = (si * sj * ck) / denom
			}
		}
	}
	return r
}

func compAt(v []float64, idx int) float64 {
	if idx < 0 || idx >= len(v) {
		return 0
	}
	return v[idx]
}

// #endregion tensor

// #region magnitude

// Magnitude reduces a materialized coupling tensor to a scalar via its
// Frobenius norm. A caller-supplied magnitude (e.g. cached in the store)
// should be preferred over recomputing this when available.
func Magnitude(tensor []float64) float64 {
	var sumSq float64
	for _, v := range tensor {
		sumSq += v * v
	}
	return math.Sqrt(sumSq)
}

// #endregion magnitude

// #region decomposition

// SelfHetero splits a set of couplings touching a point into self-coupling
// (p == q entries) and hetero-coupling (cross-point entries) totals.
func SelfHetero(couplings []model.RecursiveCoupling) (self, hetero float64) {
	for _, c := range couplings {
		if c.IsSelf() {
			self += c.CouplingMagnitude
		} else {
			hetero += c.CouplingMagnitude
		}
	}
	return self, hetero
}

// Build assembles a RecursiveCoupling record between p and q, computing the
// tensor, its magnitude, and populating the self/hetero split as a
// single-pair decomposition (the aggregate split across many couplings is
// computed by SelfHetero once the caller has a full list).
func Build(p, q *model.ManifoldPoint, n int) model.RecursiveCoupling {
	tensor := Tensor(p.SemanticField, q.SemanticField, p.CoherenceField, n)
	mag := Magnitude(tensor)

	c := model.RecursiveCoupling{
		PointP:         p.ID,
		PointQ:         q.ID,
		CouplingTensor: tensor,
		CouplingMagnitude: mag,
	}
	if c.IsSelf() {
		c.SelfCoupling = mag
	} else {
		c.HeteroCoupling = mag
	}
	return c
}

// #endregion decomposition
