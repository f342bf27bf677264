// Package model defines the entities the manifold engine reads and writes:
// observations (ManifoldPoint), pairwise couplings, per-point regulation
// records, and the outputs detectors and analytics produce.
package model

import "time"

// #region dimensions

// StorageDim is the fixed length N of every stored field vector.
const StorageDim = 2000

// ActiveDim is the leading dimension n every geometric operator truncates to.
const ActiveDim = 100

// SmallWindow is the small-window constant w used by certain reductions.
const SmallWindow = 50

// #endregion dimensions

// #region manifold-point

// ManifoldPoint is the fundamental observation on the manifold.
type ManifoldPoint struct {
	ID                 string // opaque 128-bit id, string-encoded (uuid)
	SourceFingerprint  string
	ConversationID     string // optional grouping key, "" if absent
	CreatedAt          time.Time

	SemanticField     []float64 // length StorageDim
	CoherenceField    []float64 // length StorageDim
	CoherenceMagnitude *float64 // cached, nil if not computed

	// Geometry, filled eagerly on ingest or lazily on first detector call.
	MetricTensor       []float64 // ActiveDim x ActiveDim, symmetric, flattened row-major, nil if absent
	MetricDeterminant  *float64  // cached
	ChristoffelSymbols []float64 // ActiveDim^3 flat, nil if absent
	RicciCurvature     []float64 // ActiveDim^2 flat, nil if absent
	ScalarCurvature    *float64

	// Semantics.
	RecursiveDepth      float64 // D
	ConstraintDensity   float64 // rho
	AttractorStability  float64 // A
	SemanticMass        *float64
}

// HasField reports whether both field vectors are present and correctly sized.
func (p *ManifoldPoint) HasField() bool {
	return p != nil && len(p.SemanticField) == StorageDim && len(p.CoherenceField) == StorageDim
}

// #endregion manifold-point

// #region recursive-coupling

// RecursiveCoupling is a pairwise relationship (P, Q) between two points.
type RecursiveCoupling struct {
	ID             string
	PointP         string
	PointQ         string
	CouplingTensor []float64 // ActiveDim^3 flat, may be nil (sparse/absent)
	CouplingMagnitude float64
	SelfCoupling   float64
	HeteroCoupling float64
	EvolutionRate  float64
	LatentChannels int
	ComputedAt     time.Time
}

// IsSelf reports whether this coupling is a self-referential entry (P == Q).
func (c RecursiveCoupling) IsSelf() bool {
	return c.PointP == c.PointQ
}

// #endregion recursive-coupling

// #region wisdom-field

// WisdomField is a per-point regulation record. At most one active record
// per point; updates supersede rather than accumulate.
type WisdomField struct {
	PointID            string
	WisdomValue        float64 // W, >= 0
	ForecastSensitivity float64
	GradientResponse   float64
	HumilityFactor     float64 // H, in [0,1]
	RecursionRegulation float64
	ComputedAt         time.Time
}

// #endregion wisdom-field

// #region signature-record

// SignatureType names one of the twelve detector kinds.
type SignatureType string

const (
	SignatureAttractorDogmatism    SignatureType = "ATTRACTOR_DOGMATISM"
	SignatureBeliefCalcification   SignatureType = "BELIEF_CALCIFICATION"
	SignatureMetricCrystallization SignatureType = "METRIC_CRYSTALLIZATION"
	SignatureAttractorSplintering  SignatureType = "ATTRACTOR_SPLINTERING"
	SignatureCoherenceDissolution  SignatureType = "COHERENCE_DISSOLUTION"
	SignatureReferenceDecay        SignatureType = "REFERENCE_DECAY"
	SignatureDelusionalExpansion   SignatureType = "DELUSIONAL_EXPANSION"
	SignatureSemanticHypercoherence SignatureType = "SEMANTIC_HYPERCOHERENCE"
	SignatureRecurgentParasitism   SignatureType = "RECURGENT_PARASITISM"
	SignatureParanoidInterpretation SignatureType = "PARANOID_INTERPRETATION"
	SignatureObserverSolipsism     SignatureType = "OBSERVER_SOLIPSISM"
	SignatureSemanticNarcissism    SignatureType = "SEMANTIC_NARCISSISM"
)

// SignatureRecord is a detector's output: zero or one per call.
type SignatureRecord struct {
	PointID             string
	SignatureType       SignatureType
	Severity            float64 // in [0,1], finite
	GeometricSignature  []float64 // short, kind-specific diagnostic magnitudes
	MathematicalEvidence string
	RunID               string
	ComputedAt          time.Time
}

// #endregion signature-record

// #region cluster-record

// ClusterRecord is one hourly bucket of cross-source high-coupling pairs.
type ClusterRecord struct {
	ClusterID        string
	BucketEpochHour  int64 // floor(timestamp_epoch/3600)
	ClusterSize      int
	AvgCoupling      float64
	AvgGeomCoherence float64
	AvgMass          float64
	Confidence       float64
	PointIDs         []string
}

// #endregion cluster-record

// #region escalation-record

// EscalationRecord is one step's dynamics along an ordered trajectory.
type EscalationRecord struct {
	PointID      string
	PrevPointID  string
	Velocity     float64
	Acceleration float64
	Trajectory   float64
	Urgency      float64
}

// #endregion escalation-record
