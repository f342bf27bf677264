// Package invariants runs lightweight, non-blocking checks against the
// at-rest invariants the data model requires (§3): field vector lengths,
// metric symmetry and determinant agreement, coupling non-negativity, and
// severity bounds. The shape — a named list of pass/fail checks folded into
// one overall result — mirrors the reference controller's eval package,
// which validates post-commit state the same way.
package invariants

import (
	"fmt"
	"math"

	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region config

// DetAgreementEps is epsilon_det from §3: the cached metric determinant
// must agree with the recomputed determinant within this tolerance.
const DetAgreementEps = 1e-10

// #endregion config

// #region check

// Check captures a single named invariant check.
type Check struct {
	Name  string
	Pass  bool
	Value float64
}

// Result is the aggregate outcome of running all checks against one entity.
type Result struct {
	Passed bool
	Checks []Check
	Reason string
}

// #endregion check

// #region point-invariants

// CheckPoint validates the at-rest invariants for a ManifoldPoint: both
// field vectors have exactly StorageDim components, and, if a metric
// tensor is present, it is symmetric and its cached determinant agrees
// with the recomputed determinant within DetAgreementEps.
func CheckPoint(p *model.ManifoldPoint, activeDim int) Result {
	var checks []Check
	passed := true
	var reasons []string

	semLen := len(p.SemanticField) == model.StorageDim
	checks = append(checks, Check{Name: "semantic_field_length", Pass: semLen, Value: float64(len(p.SemanticField))})
	if !semLen {
		passed = false
		reasons = append(reasons, fmt.Sprintf("semantic_field length %d != %d", len(p.SemanticField), model.StorageDim))
	}

	cohLen := len(p.CoherenceField) == model.StorageDim
	checks = append(checks, Check{Name: "coherence_field_length", Pass: cohLen, Value: float64(len(p.CoherenceField))})
	if !cohLen {
		passed = false
		reasons = append(reasons, fmt.Sprintf("coherence_field length %d != %d", len(p.CoherenceField), model.StorageDim))
	}

	if len(p.MetricTensor) >= activeDim*activeDim {
		symOK := true
		for i := 0; i < activeDim && symOK; i++ {
			for j := i + 1; j < activeDim; j++ {
				a := p.MetricTensor[vecmath.Idx2(i, j, activeDim)]
				b := p.MetricTensor[vecmath.Idx2(j, i, activeDim)]
				if math.Abs(a-b) > 1e-9 {
					symOK = false
					break
				}
			}
		}
		checks = append(checks, Check{Name: "metric_symmetric", Pass: symOK})
		if !symOK {
			passed = false
			reasons = append(reasons, "metric_tensor is not symmetric")
		}

		if p.MetricDeterminant != nil {
			recomputed := vecmath.Det(p.MetricTensor, activeDim)
			detOK := math.Abs(recomputed-*p.MetricDeterminant) <= DetAgreementEps
			checks = append(checks, Check{Name: "metric_determinant_agreement", Pass: detOK, Value: recomputed})
			if !detOK {
				passed = false
				reasons = append(reasons, fmt.Sprintf("cached det %.12g disagrees with recomputed %.12g", *p.MetricDeterminant, recomputed))
			}
		}
	}

	reason := "all invariants hold"
	if !passed {
		reason = reasons[0]
		if len(reasons) > 1 {
			reason = fmt.Sprintf("%d invariant violations: %s", len(reasons), reasons[0])
		}
	}
	return Result{Passed: passed, Checks: checks, Reason: reason}
}

// #endregion point-invariants

// #region coupling-invariants

// CheckCoupling validates that coupling magnitude is non-negative and that
// the self/hetero decomposition partitions total coupling strength within
// rounding.
func CheckCoupling(c model.RecursiveCoupling) Result {
	var checks []Check
	passed := true
	var reasons []string

	nonNeg := c.CouplingMagnitude >= 0
	checks = append(checks, Check{Name: "coupling_magnitude_non_negative", Pass: nonNeg, Value: c.CouplingMagnitude})
	if !nonNeg {
		passed = false
		reasons = append(reasons, "coupling_magnitude is negative")
	}

	sum := c.SelfCoupling + c.HeteroCoupling
	partitionOK := math.Abs(sum-c.CouplingMagnitude) <= 1e-6*math.Max(1, c.CouplingMagnitude)
	checks = append(checks, Check{Name: "self_hetero_partition", Pass: partitionOK, Value: sum})
	if !partitionOK {
		passed = false
		reasons = append(reasons, fmt.Sprintf("self+hetero %.6f != magnitude %.6f", sum, c.CouplingMagnitude))
	}

	reason := "all invariants hold"
	if !passed {
		reason = reasons[0]
	}
	return Result{Passed: passed, Checks: checks, Reason: reason}
}

// #endregion coupling-invariants

// #region severity-invariants

// CheckSeverity validates that a detector's severity output is finite and
// in [0,1], per §3 and §8's severity-bounds property.
func CheckSeverity(severity float64) Result {
	finite := !math.IsNaN(severity) && !math.IsInf(severity, 0)
	bounded := severity >= 0 && severity <= 1
	pass := finite && bounded
	reason := "severity within bounds"
	if !pass {
		reason = fmt.Sprintf("severity %v out of [0,1] or non-finite", severity)
	}
	return Result{
		Passed: pass,
		Checks: []Check{
			{Name: "severity_finite", Pass: finite, Value: severity},
			{Name: "severity_bounded", Pass: bounded, Value: severity},
		},
		Reason: reason,
	}
}

// #endregion severity-invariants
