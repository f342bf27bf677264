// Package signatures implements the twelve structural-breakdown detectors
// (§4.5): rigidity, fragmentation, inflation, and observer-coupling, three
// each. Every detector is a pure function of its windowed inputs — the
// impure edges (store lookups, time windowing) live in Detector's methods,
// which fetch a snapshot and hand it to the pure core so the numeric
// conditions themselves can be tested without a store. This mirrors the
// reference controller's gate package: a thresholded veto-then-score
// function fed by data the caller already assembled.
package signatures

import (
	"github.com/manifold-eng/manifold-core/internal/model"
)

// #region config

// Config carries every named threshold in §4.5, all overridable per call
// per §9's "avoid process-wide state" note.
type Config struct {
	// Attractor Dogmatism
	DogmatismCThr  float64
	DogmatismACrit float64
	DogmatismTau   float64

	// Belief Calcification
	CalcificationWindowSeconds float64
	CalcificationDeltaThr      float64
	CalcificationMassThr       float64

	// Metric Crystallization
	CrystallizationRateThr     float64
	CrystallizationPressureThr float64

	// Attractor Splintering
	SplinteringWindowSeconds float64
	SplinteringDistanceThr   float64
	SplinteringRatioThr      float64
	SplinteringMinSamples    int

	// Coherence Dissolution
	DissolutionNormThr      float64
	DissolutionGradientMult float64

	// Reference Decay
	ReferenceDecayLookback int
	ReferenceDecayRateThr  float64
	ReferenceDecayWisdomThr float64

	// Delusional Expansion
	DelusionalHumilityThr float64
	DelusionalWisdomThr   float64
	DelusionalCThr        float64

	// Semantic Hypercoherence
	HypercoherenceTriggerThr float64
	HypercoherenceWindowSeconds float64
	HypercoherenceFluxThr    float64

	// Recurgent Parasitism
	ParasitismWindowSeconds float64
	ParasitismLocalThr      float64
	ParasitismEcologicalThr float64
	ParasitismMinSamples    int

	// Paranoid Interpretation
	ParanoidLookback       int
	ParanoidWindowSeconds  float64
	ParanoidBiasThr        float64
	ParanoidThreatConcThr  float64
	ParanoidMinSamples     int
	ParanoidMassThr        float64
	ParanoidCouplingThr    float64

	// Observer Solipsism
	SolipsismLookback   int
	SolipsismMinSamples int
	SolipsismNormThr    float64
	SolipsismRatioThr   float64

	// Semantic Narcissism
	NarcissismWindowSeconds float64
	NarcissismMinSamples    int
	NarcissismSelfFracThr   float64
	NarcissismExtFracThr    float64

	// Shared window constant.
	SmallWindow int
	ActiveDim   int
	GenericEps  float64
}

// DefaultConfig returns the §4.5 defaults exactly as specified.
func DefaultConfig() Config {
	return Config{
		DogmatismCThr:  0.7,
		DogmatismACrit: 0.8,
		DogmatismTau:   3.0,

		CalcificationWindowSeconds: 6 * 3600,
		CalcificationDeltaThr:      0.01,
		CalcificationMassThr:       0.3,

		CrystallizationRateThr:     0.01,
		CrystallizationPressureThr: 0.1,

		SplinteringWindowSeconds: 2 * 3600,
		SplinteringDistanceThr:   0.3,
		SplinteringRatioThr:      2.0,
		SplinteringMinSamples:    2,

		DissolutionNormThr:      0.1,
		DissolutionGradientMult: 3.0,

		ReferenceDecayLookback:  10,
		ReferenceDecayRateThr:   -0.1,
		ReferenceDecayWisdomThr: 0.3,

		DelusionalHumilityThr: 0.1,
		DelusionalWisdomThr:   0.2,
		DelusionalCThr:        0.7,

		HypercoherenceTriggerThr:    0.95,
		HypercoherenceWindowSeconds: 4 * 3600,
		HypercoherenceFluxThr:       0.1,

		ParasitismWindowSeconds: 6 * 3600,
		ParasitismLocalThr:      0.5,
		ParasitismEcologicalThr: -0.2,
		ParasitismMinSamples:    2,

		ParanoidLookback:      20,
		ParanoidWindowSeconds: 12 * 3600,
		ParanoidBiasThr:       0.3,
		ParanoidThreatConcThr: 0.8,
		ParanoidMinSamples:    3,
		ParanoidMassThr:       0.6,
		ParanoidCouplingThr:   0.3,

		SolipsismLookback:   10,
		SolipsismMinSamples: 2,
		SolipsismNormThr:    0.1,
		SolipsismRatioThr:   0.5,

		NarcissismWindowSeconds: 12 * 3600,
		NarcissismMinSamples:    3,
		NarcissismSelfFracThr:   0.8,
		NarcissismExtFracThr:    0.2,

		SmallWindow: model.SmallWindow,
		ActiveDim:   model.ActiveDim,
		GenericEps:  1e-10,
	}
}

// #endregion config

// #region helpers

func clip01(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 1 {
		return 1
	}
	return v
}

func evidence(record *model.SignatureRecord, mathematicalEvidence string, geom ...float64) *model.SignatureRecord {
	record.MathematicalEvidence = mathematicalEvidence
	record.GeometricSignature = geom
	return record
}

// #endregion helpers
