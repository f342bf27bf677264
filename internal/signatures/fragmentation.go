package signatures

import (
	"context"
	"fmt"
	"time"

	"github.com/manifold-eng/manifold-core/internal/geometry"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/scalarops"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region attractor-splintering

func splinteringCore(cMag float64, trajectory []*model.ManifoldPoint, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	n := cfg.ActiveDim
	sampleCount := len(trajectory)
	if sampleCount <= cfg.SplinteringMinSamples {
		return false, 0, nil, ""
	}

	dists := make([]float64, 0, sampleCount-1)
	for i := 1; i < sampleCount; i++ {
		dists = append(dists, vecmath.Distance(trajectory[i].CoherenceField, trajectory[i-1].CoherenceField, n))
	}

	uniqueDirections := 0
	var sum float64
	for _, dist := range dists {
		if dist > cfg.SplinteringDistanceThr {
			uniqueDirections++
		}
		sum += dist
	}
	if len(dists) == 0 {
		return false, 0, nil, ""
	}
	mean := sum / float64(len(dists))
	var varSum float64
	for _, dist := range dists {
		varSum += (dist - mean) * (dist - mean)
	}
	directionVariance := varSum / float64(len(dists))

	attractorRate := float64(uniqueDirections) * 3600 / cfg.SplinteringWindowSeconds
	phi := scalarops.AutopoieticPotential(cMag, scalarops.DefaultAutopoieticConfig())
	autopoieticRate := phi * directionVariance / float64(sampleCount)
	if autopoieticRate < 0 {
		autopoieticRate = 0
	}

	ratio := attractorRate / (autopoieticRate + cfg.GenericEps)
	if !(ratio > cfg.SplinteringRatioThr) {
		return false, 0, nil, ""
	}
	severity = clip01(ratio / 10)
	return true, severity, []float64{float64(uniqueDirections), attractorRate, autopoieticRate, ratio},
		fmt.Sprintf("unique_directions=%d, ratio=%.4f > %.2f over %d samples", uniqueDirections, ratio, cfg.SplinteringRatioThr, sampleCount)
}

// AttractorSplintering fires when a same-conversation trajectory generates
// new attractor directions faster than autopoietic growth can integrate
// them (§4.5).
func (d *Detector) AttractorSplintering(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
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
	window := pointsWithinWindow(convPoints, p.CreatedAt, d.Cfg.SplinteringWindowSeconds)
	cMag := coherenceNorm(p, d.Cfg.ActiveDim)
	fired, severity, geom, ev := splinteringCore(cMag, window, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureAttractorSplintering,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion attractor-splintering

// #region coherence-dissolution

func dissolutionCore(p *model.ManifoldPoint, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	n := cfg.ActiveDim
	cNorm := coherenceNorm(p, n)
	if cNorm <= cfg.DissolutionNormThr {
		return false, 0, nil, ""
	}
	first, second := geometry.FiniteDiffs(p.CoherenceField, n, 0)
	gradNorm := vecmath.Norm(first, n)
	var sumSecond float64
	for _, v := range second {
		sumSecond += v
	}
	if !(gradNorm > cfg.DissolutionGradientMult*cNorm && sumSecond > 0) {
		return false, 0, nil, ""
	}
	severity = clip01((gradNorm / cNorm) / 10)
	return true, severity, []float64{cNorm, gradNorm, sumSecond},
		fmt.Sprintf("||C||=%.4f, ||grad C||=%.4f > %.1fx, sum_second=%.6f", cNorm, gradNorm, cfg.DissolutionGradientMult, sumSecond)
}

// CoherenceDissolution fires when a point's coherence field carries
// substantial magnitude but is changing far faster than that magnitude
// would suggest, with positive net curvature in the field.
func (d *Detector) CoherenceDissolution(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	fired, severity, geom, ev := dissolutionCore(p, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureCoherenceDissolution,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion coherence-dissolution

// #region reference-decay

func referenceDecayCore(couplings []model.RecursiveCoupling, w model.WisdomField, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	if len(couplings) < 2 {
		return false, 0, nil, ""
	}
	// couplings is most-recent-first; reverse to chronological order.
	chrono := make([]model.RecursiveCoupling, len(couplings))
	for i, c := range couplings {
		chrono[len(couplings)-1-i] = c
	}
	var sumDelta float64
	for i := 1; i < len(chrono); i++ {
		sumDelta += chrono[i].CouplingMagnitude - chrono[i-1].CouplingMagnitude
	}
	decayRate := sumDelta / float64(len(chrono)-1)
	compensatoryWisdom := w.WisdomValue * w.HumilityFactor

	if !(decayRate < cfg.ReferenceDecayRateThr && compensatoryWisdom < cfg.ReferenceDecayWisdomThr) {
		return false, 0, nil, ""
	}
	absRate := decayRate
	if absRate < 0 {
		absRate = -absRate
	}
	severity = clip01(absRate * (1 - compensatoryWisdom) * 10)
	return true, severity, []float64{decayRate, compensatoryWisdom},
		fmt.Sprintf("decay_rate=%.4f < %.2f, compensatory_wisdom=%.4f < %.2f", decayRate, cfg.ReferenceDecayRateThr, compensatoryWisdom, cfg.ReferenceDecayWisdomThr)
}

// ReferenceDecay fires when a point's coupling strength has been declining
// across its most recent observations without enough wisdom-driven
// compensation to offset it.
func (d *Detector) ReferenceDecay(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	couplings, err := d.Store.ListCouplings(pointID, d.Cfg.ReferenceDecayLookback)
	if err != nil {
		return nil, err
	}
	var w model.WisdomField
	if wf, err := d.Store.LatestWisdom(pointID); err == nil && wf != nil {
		w = *wf
	}
	fired, severity, geom, ev := referenceDecayCore(couplings, w, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureReferenceDecay,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion reference-decay
