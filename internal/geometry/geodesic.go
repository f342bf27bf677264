package geometry

import (
	"math"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region geodesic

// GeodesicDistance integrates a linearized path between two points: the
// starting position is a's truncated semantic field, the initial
// velocity is (b-a)/steps (updated by each half step), and at each step the acceleration
// a^i = -Gamma^i_jk v^j v^k uses a Christoffel tensor linearly interpolated
// between the two endpoints (an endpoint with no Christoffel tensor
// contributes zero, the same "absent input degrades to zero" convention as
// the rest of the kernel). Position is advanced with a velocity-Verlet-style
// half step; the accumulated length at each step is
// sqrt(|avg(g_a,g_b) . dx . dx|), falling back to the Euclidean norm of dx
// when either metric is absent. The absolute value under the root
// guarantees a non-negative result regardless of the (possibly indefinite)
// interpolated metric.
func GeodesicDistance(a, b *model.ManifoldPoint, steps int, cfg Config) (float64, error) {
	n := cfg.ActiveDim
	if !a.HasField() || !b.HasField() {
		return 0, kernelerr.New(kernelerr.MissingInput, "geometry.GeodesicDistance", "endpoint missing semantic field", nil)
	}
	if steps <= 0 {
		steps = 100
	}

	pos := make([]float64, n)
	vel := make([]float64, n)
	copy(pos, a.SemanticField[:n])
	for i := 0; i < n; i++ {
		vel[i] = (b.SemanticField[i] - a.SemanticField[i]) / float64(steps)
	}

	gammaA := a.ChristoffelSymbols
	gammaB := b.ChristoffelSymbols

	haveMetrics := len(a.MetricTensor) >= n*n && len(b.MetricTensor) >= n*n

	dt := 1.0
	var total float64
	for step := 0; step < steps; step++ {
		t := float64(step) / float64(steps)

		accel := make([]float64, n)
		for i := 0; i < n; i++ {
			var sum float64
			for j := 0; j < n; j++ {
				vj := vel[j]
				if vj == 0 {
					continue
				}
				for k := 0; k < n; k++ {
					vk := vel[k]
					if vk == 0 {
						continue
					}
					sum += interpolatedGamma(gammaA, gammaB, i, j, k, n, t) * vj * vk
				}
			}
			accel[i] = -sum
		}

		newPos := make([]float64, n)
		dx := make([]float64, n)
		for i := 0; i < n; i++ {
			velHalf := vel[i] + 0.5*accel[i]*dt
			newPos[i] = pos[i] + velHalf*dt
			dx[i] = newPos[i] - pos[i]
			vel[i] = velHalf
		}

		var stepLenSq float64
		if haveMetrics {
			for i := 0; i < n; i++ {
				for j := 0; j < n; j++ {
					gAvg := (a.MetricTensor[vecmath.Idx2(i, j, n)] + b.MetricTensor[vecmath.Idx2(i, j, n)]) / 2
					stepLenSq += gAvg * dx[i] * dx[j]
				}
			}
		} else {
			for i := 0; i < n; i++ {
				stepLenSq += dx[i] * dx[i]
			}
		}
		total += math.Sqrt(math.Abs(stepLenSq))
		pos = newPos
	}

	return total, nil
}

func interpolatedGamma(gammaA, gammaB []float64, i, j, k, n int, t float64) float64 {
	var va, vb float64
	if len(gammaA) >= n*n*n {
		va = gammaA[vecmath.Idx3(i, j, k, n)]
	}
	if len(gammaB) >= n*n*n {
		vb = gammaB[vecmath.Idx3(i, j, k, n)]
	}
	return (1-t)*va + t*vb
}

// #endregion geodesic
