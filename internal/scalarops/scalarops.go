// Package scalarops implements the three scalar operators shared across the
// geometry kernel and the signature detectors: semantic mass, the
// autopoietic potential, and the humility damping term. Each is a small
// pure function of a handful of floats, in the same spirit as the
// threshold-driven scoring helpers in the reference gate package.
package scalarops

import "math"

// #region config

// AutopoieticConfig holds the piecewise-potential parameters.
type AutopoieticConfig struct {
	Threshold float64 // C_thr, default 0.7
	Alpha     float64 // default 1.0
	Beta      float64 // default 2.0
}

// DefaultAutopoieticConfig returns the spec defaults.
func DefaultAutopoieticConfig() AutopoieticConfig {
	return AutopoieticConfig{Threshold: 0.7, Alpha: 1.0, Beta: 2.0}
}

// HumilityConfig holds the damping-operator parameters.
type HumilityConfig struct {
	ROpt float64 // default 0.5
	K    float64 // default 2.0
}

// DefaultHumilityConfig returns the spec defaults.
func DefaultHumilityConfig() HumilityConfig {
	return HumilityConfig{ROpt: 0.5, K: 2.0}
}

// DetFloor is the minimum determinant magnitude used as a division floor.
const DetFloor = 1e-10

// ExpClamp bounds the exponent passed to math.Exp in Humility to avoid
// overflow while remaining a monotone transform.
const ExpClamp = 50

// #endregion config

// #region semantic-mass

// SemanticMass computes M = D * (1 / max(detG, DetFloor)) * A. Negative D
// propagates its sign into M.
func SemanticMass(recursiveDepth, metricDeterminant, attractorStability float64) float64 {
	denom := math.Max(metricDeterminant, DetFloor)
	return recursiveDepth * (1 / denom) * attractorStability
}

// #endregion semantic-mass

// #region autopoietic-potential

// AutopoieticPotential computes Phi(C) = alpha * max(0, C - C_thr)^beta.
// Strictly zero at and below the threshold; strictly increasing above it
// when alpha, beta > 0.
func AutopoieticPotential(coherence float64, cfg AutopoieticConfig) float64 {
	excess := coherence - cfg.Threshold
	if excess <= 0 {
		return 0
	}
	return cfg.Alpha * math.Pow(excess, cfg.Beta)
}

// #endregion autopoietic-potential

// #region humility

// Humility computes H(m) = m * exp(clamp(-k*(m - R_opt), -50, 50)). The
// exponent clamp prevents overflow for extreme m while preserving monotone
// decrease above R_opt for k > 0.
func Humility(magnitude float64, cfg HumilityConfig) float64 {
	exponent := -cfg.K * (magnitude - cfg.ROpt)
	if exponent > ExpClamp {
		exponent = ExpClamp
	} else if exponent < -ExpClamp {
		exponent = -ExpClamp
	}
	return magnitude * math.Exp(exponent)
}

// #endregion humility
