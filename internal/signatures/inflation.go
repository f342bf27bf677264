package signatures

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/scalarops"
)

// #region delusional-expansion

func expansionCore(cMag, h, w float64, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	constrainingForce := math.Abs(cMag-cfg.DelusionalCThr) * 0.5
	if constrainingForce <= 0 {
		return false, 0, nil, ""
	}
	phi := scalarops.AutopoieticPotential(cMag, scalarops.DefaultAutopoieticConfig())
	if !(phi > 5*constrainingForce && h < cfg.DelusionalHumilityThr && w < cfg.DelusionalWisdomThr) {
		return false, 0, nil, ""
	}
	severity = clip01(phi / (constrainingForce + cfg.GenericEps) * (1 - h) * (1 - w) / 20)
	return true, severity, []float64{phi, constrainingForce, h, w},
		fmt.Sprintf("phi=%.4f > 5*force=%.4f, H=%.4f < %.2f, W=%.4f < %.2f", phi, constrainingForce, h, cfg.DelusionalHumilityThr, w, cfg.DelusionalWisdomThr)
}

// DelusionalExpansion fires when autopoietic growth vastly outpaces the
// constraining force pulling coherence back toward threshold, and the
// point's regulation record shows almost no humility or wisdom damping it.
func (d *Detector) DelusionalExpansion(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	cMag := coherenceNorm(p, d.Cfg.ActiveDim)
	var h, w float64
	if wf, err := d.Store.LatestWisdom(pointID); err == nil && wf != nil {
		h, w = wf.HumilityFactor, wf.WisdomValue
	}
	fired, severity, geom, ev := expansionCore(cMag, h, w, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureDelusionalExpansion,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion delusional-expansion

// #region semantic-hypercoherence

func hypercoherenceCore(cMag float64, windowCouplings []model.RecursiveCoupling, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	if cMag <= cfg.HypercoherenceTriggerThr {
		return false, 0, nil, ""
	}
	if len(windowCouplings) == 0 {
		return false, 0, nil, ""
	}
	var sum float64
	for _, c := range windowCouplings {
		sum += c.CouplingMagnitude
	}
	flux := sum / float64(len(windowCouplings))
	if flux >= cfg.HypercoherenceFluxThr {
		return false, 0, nil, ""
	}
	severity = clip01(cMag * (1 - flux))
	return true, severity, []float64{cMag, flux},
		fmt.Sprintf("C_mag=%.4f > %.2f, external_flux=%.4f < %.2f", cMag, cfg.HypercoherenceTriggerThr, flux, cfg.HypercoherenceFluxThr)
}

// SemanticHypercoherence fires when a near-total coherence magnitude
// coincides with almost no external influence flux — the point has sealed
// itself off from correction.
func (d *Detector) SemanticHypercoherence(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	cMag := coherenceNorm(p, d.Cfg.ActiveDim)
	if cMag <= d.Cfg.HypercoherenceTriggerThr {
		return nil, nil
	}
	couplings, err := d.Store.ListCouplings(pointID, 0)
	if err != nil {
		return nil, err
	}
	window := couplingsWithinWindow(couplings, p.CreatedAt, d.Cfg.HypercoherenceWindowSeconds)
	fired, severity, geom, ev := hypercoherenceCore(cMag, window, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureSemanticHypercoherence,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion semantic-hypercoherence

// #region recurgent-parasitism

// hourBucketAverages buckets points by floor(epoch/3600) and averages
// semantic mass within each bucket, returning buckets in chronological order.
func hourBucketAverages(points []*model.ManifoldPoint, n int) []float64 {
	buckets := map[int64][]float64{}
	for _, p := range points {
		key := p.CreatedAt.Unix() / 3600
		buckets[key] = append(buckets[key], semanticMass(p, n))
	}
	keys := make([]int64, 0, len(buckets))
	for k := range buckets {
		keys = append(keys, k)
	}
	sort.Slice(keys, func(i, j int) bool { return keys[i] < keys[j] })

	out := make([]float64, 0, len(keys))
	for _, k := range keys {
		vals := buckets[k]
		var sum float64
		for _, v := range vals {
			sum += v
		}
		out = append(out, sum/float64(len(vals)))
	}
	return out
}

func meanSuccessiveDelta(series []float64) (float64, int) {
	if len(series) < 2 {
		return 0, len(series)
	}
	var sum float64
	for i := 1; i < len(series); i++ {
		sum += series[i] - series[i-1]
	}
	return sum / float64(len(series)-1), len(series)
}

func parasitismCore(sameSource, otherSource []*model.ManifoldPoint, n int, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	sameSort := append([]*model.ManifoldPoint(nil), sameSource...)
	sort.Slice(sameSort, func(i, j int) bool { return sameSort[i].CreatedAt.Before(sameSort[j].CreatedAt) })
	sameSeries := make([]float64, len(sameSort))
	for i, p := range sameSort {
		sameSeries[i] = semanticMass(p, n)
	}
	local, localCount := meanSuccessiveDelta(sameSeries)

	otherSeries := hourBucketAverages(otherSource, n)
	ecological, ecoCount := meanSuccessiveDelta(otherSeries)

	if !(localCount > cfg.ParasitismMinSamples && ecoCount > cfg.ParasitismMinSamples) {
		return false, 0, nil, ""
	}
	if !(local > cfg.ParasitismLocalThr && ecological < cfg.ParasitismEcologicalThr) {
		return false, 0, nil, ""
	}
	severity = clip01(local * math.Abs(ecological) * 5)
	return true, severity, []float64{local, ecological},
		fmt.Sprintf("local_growth=%.4f > %.2f, ecological_drain=%.4f < %.2f", local, cfg.ParasitismLocalThr, ecological, cfg.ParasitismEcologicalThr)
}

// RecurgentParasitism fires when a source's own semantic mass is growing
// fast while other sources' mass is draining, over independent 6h windows
// (§9 notes the two series' sample cadence is not aligned by design).
func (d *Detector) RecurgentParasitism(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	sameSourceAll, err := d.Store.ListUserPoints(p.SourceFingerprint, 0)
	if err != nil {
		return nil, err
	}
	sameSource := pointsWithinWindow(sameSourceAll, p.CreatedAt, d.Cfg.ParasitismWindowSeconds)

	otherSourcePoint, err := d.Store.LatestCrossSourcePoint(p.SourceFingerprint, p.ConversationID)
	if err != nil {
		return nil, err
	}
	var otherSource []*model.ManifoldPoint
	if otherSourcePoint != nil {
		otherAll, err := d.Store.ListUserPoints(otherSourcePoint.SourceFingerprint, 0)
		if err != nil {
			return nil, err
		}
		otherSource = pointsWithinWindow(otherAll, p.CreatedAt, d.Cfg.ParasitismWindowSeconds)
	}

	fired, severity, geom, ev := parasitismCore(sameSource, otherSource, d.Cfg.ActiveDim, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureRecurgentParasitism,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion recurgent-parasitism
