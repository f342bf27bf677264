package signatures

import (
	"context"

	"github.com/manifold-eng/manifold-core/internal/model"
)

// #region grouped-detectors

type detectorFunc func(ctx context.Context, pointID, runID string) (*model.SignatureRecord, error)

func runAll(ctx context.Context, pointID, runID string, fns []detectorFunc) ([]model.SignatureRecord, error) {
	var out []model.SignatureRecord
	for _, fn := range fns {
		rec, err := fn(ctx, pointID, runID)
		if err != nil {
			return out, err
		}
		if rec != nil {
			out = append(out, *rec)
		}
	}
	return out, nil
}

// Rigidity runs the three rigidity detectors in order.
func (d *Detector) Rigidity(ctx context.Context, pointID, runID string) ([]model.SignatureRecord, error) {
	return runAll(ctx, pointID, runID, []detectorFunc{
		d.AttractorDogmatism,
		d.BeliefCalcification,
		d.MetricCrystallization,
	})
}

// Fragmentation runs the three fragmentation detectors in order.
func (d *Detector) Fragmentation(ctx context.Context, pointID, runID string) ([]model.SignatureRecord, error) {
	return runAll(ctx, pointID, runID, []detectorFunc{
		d.AttractorSplintering,
		d.CoherenceDissolution,
		d.ReferenceDecay,
	})
}

// Inflation runs the three inflation detectors in order.
func (d *Detector) Inflation(ctx context.Context, pointID, runID string) ([]model.SignatureRecord, error) {
	return runAll(ctx, pointID, runID, []detectorFunc{
		d.DelusionalExpansion,
		d.SemanticHypercoherence,
		d.RecurgentParasitism,
	})
}

// ObserverCoupling runs the three observer-coupling detectors in order.
func (d *Detector) ObserverCoupling(ctx context.Context, pointID, runID string) ([]model.SignatureRecord, error) {
	return runAll(ctx, pointID, runID, []detectorFunc{
		d.ParanoidInterpretation,
		d.ObserverSolipsism,
		d.SemanticNarcissism,
	})
}

// All runs all twelve detectors in rigidity, fragmentation, inflation,
// observer-coupling order and concatenates their records.
func (d *Detector) All(ctx context.Context, pointID, runID string) ([]model.SignatureRecord, error) {
	var out []model.SignatureRecord
	for _, group := range []func(context.Context, string, string) ([]model.SignatureRecord, error){
		d.Rigidity, d.Fragmentation, d.Inflation, d.ObserverCoupling,
	} {
		recs, err := group(ctx, pointID, runID)
		if err != nil {
			return out, err
		}
		out = append(out, recs...)
	}
	return out, nil
}

// #endregion grouped-detectors
