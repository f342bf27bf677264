// Package evolution implements the field evolution integrator (§4.7): a
// single explicit-Euler step combining a d'Alembertian-like connection
// term, an attractor gradient pulling toward the 0.7 coherence threshold,
// an autopoietic growth gradient above it, and a humility damping term.
// The per-component loop structure — decay/delta passes over a fixed-size
// vector, a telemetry struct capturing per-term norms, elapsed time in
// milliseconds — follows the reference controller's disposition-update
// function, generalized from four named segments to the full field.
package evolution

import (
	"math"
	"time"

	"github.com/manifold-eng/manifold-core/internal/geometry"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/scalarops"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region step

// Step computes one evolution step for p's coherence field. If p is nil or
// either field vector is absent or not StorageDim long, it returns a zero
// vector of length StorageDim
// (null-safe per §4.7) rather than an error.
func Step(p *model.ManifoldPoint, cfg Config) Result {
	start := time.Now()

	if !p.HasField() {
		return Result{NewCoherenceField: make([]float64, cfg.StorageDim)}
	}

	n := cfg.ActiveDim
	c := p.CoherenceField
	cMag := coherenceMagnitude(p, n)

	l := dAlembertianTerm(p, cfg, cMag)

	newField := make([]float64, cfg.StorageDim)
	var lNorm, aNorm, pNorm, uNorm float64

	for i := 0; i < cfg.StorageDim; i++ {
		ci := c[i]

		var li float64
		if i < n {
			li = l[i]
		}

		attractor := -(cMag - cfg.CThreshold) * ci / (cMag + 1e-10)

		var autopoietic float64
		if cMag >= cfg.CThreshold {
			autopoietic = 2 * (cMag - cfg.CThreshold) * ci / (cMag + 1e-10)
		}

		humility := -cfg.Humility0 * cMag * ci

		newField[i] = ci + cfg.Dt*(li+attractor+autopoietic+humility)

		lNorm += li * li
		aNorm += attractor * attractor
		pNorm += autopoietic * autopoietic
		uNorm += humility * humility
	}

	return Result{
		NewCoherenceField: newField,
		Norms: TermNorms{
			DAlembertian: math.Sqrt(lNorm),
			Attractor:    math.Sqrt(aNorm),
			Autopoietic:  math.Sqrt(pNorm),
			Humility:     math.Sqrt(uNorm),
		},
		StepTimeMs: time.Since(start).Milliseconds(),
	}
}

// coherenceMagnitude prefers the cached value on the point; otherwise it is
// the Euclidean norm of the first n coherence components.
func coherenceMagnitude(p *model.ManifoldPoint, n int) float64 {
	if p.CoherenceMagnitude != nil {
		return *p.CoherenceMagnitude
	}
	return vecmath.Norm(p.CoherenceField, n)
}

// dAlembertianTerm computes L[i] = K - M*C[i] for i in [0,n), where
// K = sum_jk g^jk * (-sum_l Gamma^l_jk * Delta_l) does not depend on i and
// is hoisted out of the loop. g^jk is the metric inverse, not the covariant
// tensor stored on the point — same distinction the Christoffel computation
// draws between g_ij and gInv. Delta is a one-sided (forward, backward at
// the last index) finite difference of the current coherence field.
func dAlembertianTerm(p *model.ManifoldPoint, cfg Config, cMag float64) []float64 {
	n := cfg.ActiveDim
	l := make([]float64, n)

	scratchOnly := func() []float64 {
		m := semanticMassOf(p, cfg)
		for i := 0; i < n; i++ {
			l[i] = -m * p.CoherenceField[i]
		}
		return l
	}

	haveGeometry := len(p.MetricTensor) >= n*n && len(p.ChristoffelSymbols) >= n*n*n
	if !haveGeometry {
		return scratchOnly()
	}

	gInv, _, _, err := geometry.MetricInverse(p.MetricTensor, geometry.Config{
		ActiveDim:   n,
		DetFloor:    cfg.DetFloor,
		TikhonovAdd: cfg.TikhonovAdd,
	})
	if err != nil {
		return scratchOnly()
	}

	delta := oneSidedDiff(p.CoherenceField, n, cfg.FiniteDiffH)

	var k float64
	for j := 0; j < n; j++ {
		for kk := 0; kk < n; kk++ {
			var innerSum float64
			for lidx := 0; lidx < n; lidx++ {
				innerSum += p.ChristoffelSymbols[vecmath.Idx3(lidx, j, kk, n)] * delta[lidx]
			}
			k += gInv[vecmath.Idx2(j, kk, n)] * (-innerSum)
		}
	}

	m := semanticMassOf(p, cfg)
	for i := 0; i < n; i++ {
		l[i] = k - m*p.CoherenceField[i]
	}
	return l
}

// semanticMassOf prefers the cached value on the point; otherwise it falls
// back to scalarops.SemanticMass from the point's raw fields. det is the
// point's MetricDeterminant when present, otherwise cfg.DetFloor — the same
// floor dAlembertianTerm passes into MetricInverse. (internal/signatures's
// semanticMass and internal/analytics's massOf use det = 1 instead when the
// determinant is absent.)
func semanticMassOf(p *model.ManifoldPoint, cfg Config) float64 {
	if p.SemanticMass != nil {
		return *p.SemanticMass
	}
	det := cfg.DetFloor
	if p.MetricDeterminant != nil {
		det = *p.MetricDeterminant
	}
	return scalarops.SemanticMass(p.RecursiveDepth, det, p.AttractorStability)
}

func oneSidedDiff(field []float64, n int, h float64) []float64 {
	if h == 0 {
		h = 1e-6
	}
	d := make([]float64, n)
	for i := 0; i < n; i++ {
		if i < n-1 {
			d[i] = (field[i+1] - field[i]) / h
		} else {
			d[i] = (field[i] - field[i-1]) / h
		}
	}
	return d
}

// #endregion step
