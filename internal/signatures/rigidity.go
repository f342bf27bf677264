package signatures

import (
	"context"
	"fmt"
	"math"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/scalarops"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region attractor-dogmatism

func dogmatismCore(a, cMag float64, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	if !(a > cfg.DogmatismACrit && cMag > cfg.DogmatismCThr) {
		return false, 0, nil, ""
	}
	constrainingForce := math.Abs(cMag-cfg.DogmatismCThr) * cMag
	phi := scalarops.AutopoieticPotential(cMag, scalarops.AutopoieticConfig{Threshold: cfg.DogmatismCThr, Alpha: 2, Beta: 2})
	forceRatio := constrainingForce / math.Max(phi, cfg.GenericEps)
	if forceRatio <= cfg.DogmatismTau {
		return false, 0, nil, ""
	}
	severity = clip01(forceRatio / 10)
	return true, severity, []float64{a, cMag, constrainingForce, phi},
		fmt.Sprintf("A=%.4f > %.2f and C_mag=%.4f > %.2f, force_ratio=%.4f > tau=%.2f",
			a, cfg.DogmatismACrit, cMag, cfg.DogmatismCThr, forceRatio, cfg.DogmatismTau)
}

// AttractorDogmatism fires when attractor stability and coherence magnitude
// are both high enough that the constraining force overwhelms autopoietic
// growth by more than tau (§4.5).
func (d *Detector) AttractorDogmatism(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	cMag := coherenceNorm(p, d.Cfg.ActiveDim)
	fired, severity, geom, ev := dogmatismCore(p.AttractorStability, cMag, d.Cfg)
	if !fired {
		d.log(ctx, model.SignatureAttractorDogmatism, pointID, nil)
		return nil, nil
	}
	rec := evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureAttractorDogmatism,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...)
	d.log(ctx, model.SignatureAttractorDogmatism, pointID, rec)
	return rec, nil
}

// #endregion attractor-dogmatism

// #region belief-calcification

func calcificationCore(currentCoherence []float64, trajectory []*model.ManifoldPoint, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	if len(trajectory) == 0 {
		return false, 0, nil, ""
	}
	n := cfg.ActiveDim
	var sumDist, sumMass float64
	for _, pt := range trajectory {
		sumDist += vecmath.Distance(currentCoherence, pt.CoherenceField, n)
		sumMass += semanticMass(pt, n)
	}
	delta := sumDist / float64(len(trajectory))
	pi := sumMass / float64(len(trajectory))

	if !(delta < cfg.CalcificationDeltaThr && pi > cfg.CalcificationMassThr) {
		return false, 0, nil, ""
	}
	severity = clip01((pi / (delta + cfg.GenericEps)) / 50)
	return true, severity, []float64{delta, pi},
		fmt.Sprintf("delta=%.6f < %.2f and mean_mass=%.4f > %.2f", delta, cfg.CalcificationDeltaThr, pi, cfg.CalcificationMassThr)
}

// BeliefCalcification fires when a same-conversation trajectory shows
// near-zero coherence movement while carrying substantial semantic mass.
func (d *Detector) BeliefCalcification(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() || p.ConversationID == "" {
		return nil, nil
	}
	convPoints, err := d.Store.ListConversationPoints(p.ConversationID, 0)
	if err != nil {
		return nil, err
	}
	window := pointsWithinWindow(convPoints, p.CreatedAt, d.Cfg.CalcificationWindowSeconds)
	var trajectory []*model.ManifoldPoint
	for _, pt := range window {
		if pt.ID != pointID {
			trajectory = append(trajectory, pt)
		}
	}
	fired, severity, geom, ev := calcificationCore(p.CoherenceField, trajectory, d.Cfg)
	if !fired {
		return nil, nil
	}
	rec := evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureBeliefCalcification,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...)
	return rec, nil
}

// #endregion belief-calcification

// #region metric-crystallization

func crystallizationCore(m float64, ricci []float64, n int, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	evolutionRate := 0.1 * math.Abs(m)
	var sumAbs float64
	count := 0
	for i := 0; i < n && i*n+i < len(ricci); i++ {
		sumAbs += math.Abs(ricci[i*n+i])
		count++
	}
	if count == 0 {
		return false, 0, nil, ""
	}
	curvaturePressure := sumAbs / float64(count)

	if !(evolutionRate < cfg.CrystallizationRateThr && curvaturePressure > cfg.CrystallizationPressureThr) {
		return false, 0, nil, ""
	}
	severity = clip01((curvaturePressure / (evolutionRate + cfg.GenericEps)) / 100)
	return true, severity, []float64{evolutionRate, curvaturePressure},
		fmt.Sprintf("evolution_rate=%.6f < %.2f and curvature_pressure=%.4f > %.2f",
			evolutionRate, cfg.CrystallizationRateThr, curvaturePressure, cfg.CrystallizationPressureThr)
}

// MetricCrystallization fires when a point's semantic mass implies a
// near-frozen evolution rate while its Ricci curvature carries real
// pressure — the metric has locked in place under load.
func (d *Detector) MetricCrystallization(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() || len(p.RicciCurvature) < d.Cfg.ActiveDim*d.Cfg.ActiveDim {
		return nil, nil
	}
	m := semanticMass(p, d.Cfg.ActiveDim)
	fired, severity, geom, ev := crystallizationCore(m, p.RicciCurvature, d.Cfg.ActiveDim, d.Cfg)
	if !fired {
		return nil, nil
	}
	rec := evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureMetricCrystallization,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...)
	return rec, nil
}

// #endregion metric-crystallization
