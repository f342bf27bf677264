package signatures

import (
	"context"
	"fmt"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region paranoid-interpretation

func paranoidCore(trajectory []*model.ManifoldPoint, associatedCoupling map[string]float64, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	samples := len(trajectory)
	if samples <= cfg.ParanoidMinSamples {
		return false, 0, nil, ""
	}
	w := cfg.SmallWindow

	var biasSum float64
	threatCount := 0
	for _, p := range trajectory {
		norm := vecmath.Norm(p.CoherenceField, w)
		bias := 0.5 - norm
		if bias < 0 {
			bias = 0
		}
		biasSum += bias

		mass := semanticMass(p, cfg.ActiveDim)
		coupling := associatedCoupling[p.ID]
		if mass > cfg.ParanoidMassThr && coupling < cfg.ParanoidCouplingThr {
			threatCount++
		}
	}
	bias := biasSum / float64(samples)
	threatConc := float64(threatCount) / float64(samples)

	if !(bias > cfg.ParanoidBiasThr && threatConc > cfg.ParanoidThreatConcThr) {
		return false, 0, nil, ""
	}
	severity = clip01(bias * threatConc * 2)
	return true, severity, []float64{bias, threatConc},
		fmt.Sprintf("bias=%.4f > %.2f, threat_concentration=%.4f > %.2f over %d samples", bias, cfg.ParanoidBiasThr, threatConc, cfg.ParanoidThreatConcThr, samples)
}

// ParanoidInterpretation fires when a source's recent trajectory shows both
// systematically low small-window coherence and a high concentration of
// high-mass, weakly-coupled points read as threats.
func (d *Detector) ParanoidInterpretation(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	all, err := d.Store.ListUserPoints(p.SourceFingerprint, d.Cfg.ParanoidLookback)
	if err != nil {
		return nil, err
	}
	window := pointsWithinWindow(all, p.CreatedAt, d.Cfg.ParanoidWindowSeconds)

	associated := map[string]float64{}
	for _, pt := range window {
		couplings, err := d.Store.ListCouplings(pt.ID, 0)
		if err != nil {
			continue
		}
		if len(couplings) == 0 {
			associated[pt.ID] = 0
			continue
		}
		var sum float64
		for _, c := range couplings {
			sum += c.CouplingMagnitude
		}
		associated[pt.ID] = sum / float64(len(couplings))
	}

	fired, severity, geom, ev := paranoidCore(window, associated, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureParanoidInterpretation,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion paranoid-interpretation

// #region observer-solipsism

func solipsismCore(current *model.ManifoldPoint, trajectory []*model.ManifoldPoint, baseline *model.ManifoldPoint, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	samples := len(trajectory)
	if samples <= cfg.SolipsismMinSamples {
		return false, 0, nil, ""
	}
	n := cfg.ActiveDim
	cNorm := coherenceNorm(current, n)
	if cNorm <= cfg.SolipsismNormThr {
		return false, 0, nil, ""
	}

	var sumSelf, sumCons float64
	haveBaseline := baseline != nil && baseline.HasField()
	for _, p := range trajectory {
		sumSelf += vecmath.Distance(p.CoherenceField, current.CoherenceField, n)
		if haveBaseline {
			sumCons += vecmath.Distance(p.CoherenceField, baseline.CoherenceField, n)
		}
	}
	deltaSelf := sumSelf / float64(samples)
	deltaCons := 0.0
	if haveBaseline {
		deltaCons = sumCons / float64(samples)
	}

	ratio := deltaSelf / cNorm
	if ratio <= cfg.SolipsismRatioThr {
		return false, 0, nil, ""
	}
	severity = clip01(ratio * deltaCons)
	return true, severity, []float64{ratio, deltaCons},
		fmt.Sprintf("ratio=%.4f > %.2f, delta_consensus=%.4f", ratio, cfg.SolipsismRatioThr, deltaCons)
}

// ObserverSolipsism fires when a source's trajectory diverges from its own
// current field far more than the field's own magnitude would predict,
// relative to a cross-source consensus baseline.
func (d *Detector) ObserverSolipsism(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	all, err := d.Store.ListUserPoints(p.SourceFingerprint, d.Cfg.SolipsismLookback)
	if err != nil {
		return nil, err
	}
	var trajectory []*model.ManifoldPoint
	for _, pt := range all {
		if pt.ID != pointID && pt.HasField() {
			trajectory = append(trajectory, pt)
		}
	}
	baseline, err := d.Store.LatestCrossSourcePoint(p.SourceFingerprint, p.ConversationID)
	if err != nil {
		return nil, err
	}

	fired, severity, geom, ev := solipsismCore(p, trajectory, baseline, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureObserverSolipsism,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion observer-solipsism

// #region semantic-narcissism

func narcissismCore(couplings []model.RecursiveCoupling, cfg Config) (fired bool, severity float64, geom []float64, evidenceText string) {
	var total, self float64
	var nSelf, nExt int
	for _, c := range couplings {
		total += c.CouplingMagnitude
		if c.IsSelf() {
			self += c.CouplingMagnitude
			nSelf++
		} else {
			nExt++
		}
	}
	if total <= 0 || nSelf+nExt <= cfg.NarcissismMinSamples {
		return false, 0, nil, ""
	}
	external := total - self
	selfFrac := self / total
	extFrac := external / total

	if !(selfFrac > cfg.NarcissismSelfFracThr && extFrac < cfg.NarcissismExtFracThr) {
		return false, 0, nil, ""
	}
	severity = clip01(selfFrac * (1 - extFrac))
	return true, severity, []float64{selfFrac, extFrac, float64(nSelf), float64(nExt)},
		fmt.Sprintf("self_fraction=%.4f > %.2f, external_fraction=%.4f < %.2f over %d couplings", selfFrac, cfg.NarcissismSelfFracThr, extFrac, cfg.NarcissismExtFracThr, nSelf+nExt)
}

// SemanticNarcissism fires when a point's coupling activity is dominated by
// self-referential entries with almost no external cross-point coupling.
func (d *Detector) SemanticNarcissism(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error) {
	p, err := getPoint(d.Store, pointID)
	if err != nil {
		return nil, err
	}
	if !p.HasField() {
		return nil, nil
	}
	couplings, err := d.Store.ListCouplings(pointID, 0)
	if err != nil {
		return nil, err
	}
	window := couplingsWithinWindow(couplings, time.Now(), d.Cfg.NarcissismWindowSeconds)

	fired, severity, geom, ev := narcissismCore(window, d.Cfg)
	if !fired {
		return nil, nil
	}
	return evidence(&model.SignatureRecord{
		PointID:       pointID,
		SignatureType: model.SignatureSemanticNarcissism,
		Severity:      severity,
		RunID:         runID,
		ComputedAt:    time.Now().UTC(),
	}, ev, geom...), nil
}

// #endregion semantic-narcissism
