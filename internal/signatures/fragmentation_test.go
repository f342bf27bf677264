package signatures

import (
	"testing"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
)

func TestDissolutionCoreFiresOnHighGradientLowerNorm(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ActiveDim = 5
	field := make([]float64, model.StorageDim)
	// Oscillating pattern gives a large gradient relative to a small norm.
	for i := 0; i < cfg.ActiveDim; i++ {
		if i%2 == 0 {
			field[i] = 0.2
		} else {
			field[i] = -0.2
		}
	}
	mag := 0.15
	p := &model.ManifoldPoint{CoherenceField: field, CoherenceMagnitude: &mag}
	fired, severity, _, _ := dissolutionCore(p, cfg)
	if !fired {
		t.Fatal("expected dissolution to fire on an oscillating field")
	}
	if severity < 0 || severity > 1 {
		t.Fatalf("severity out of bounds: %v", severity)
	}
}

func TestDissolutionCoreNoFireBelowNormThreshold(t *testing.T) {
	cfg := DefaultConfig()
	mag := 0.01
	p := &model.ManifoldPoint{CoherenceField: make([]float64, model.StorageDim), CoherenceMagnitude: &mag}
	fired, _, _, _ := dissolutionCore(p, cfg)
	if fired {
		t.Fatal("expected no fire below coherence norm threshold")
	}
}

func TestReferenceDecayCoreFiresOnDecliningCouplingsWithLowWisdom(t *testing.T) {
	cfg := DefaultConfig()
	now := time.Now()
	// couplings is most-recent-first; magnitude was high in the past and has
	// been declining toward the present.
	var couplings []model.RecursiveCoupling
	mag := 0.1
	for i := 0; i < 10; i++ {
		couplings = append(couplings, model.RecursiveCoupling{
			CouplingMagnitude: mag,
			ComputedAt:        now.Add(-time.Duration(i) * time.Minute),
		})
		mag += 0.15
	}
	w := model.WisdomField{WisdomValue: 0.5, HumilityFactor: 0.2}
	fired, severity, _, _ := referenceDecayCore(couplings, w, cfg)
	if !fired {
		t.Fatal("expected reference decay to fire on steadily declining couplings")
	}
	if severity < 0 || severity > 1 {
		t.Fatalf("severity out of bounds: %v", severity)
	}
}

func TestReferenceDecayCoreNoFireWithFewObservations(t *testing.T) {
	cfg := DefaultConfig()
	fired, _, _, _ := referenceDecayCore([]model.RecursiveCoupling{{CouplingMagnitude: 0.5}}, model.WisdomField{}, cfg)
	if fired {
		t.Fatal("expected no fire with a single observation")
	}
}

func TestSplinteringCoreRequiresMinSamples(t *testing.T) {
	cfg := DefaultConfig()
	fired, _, _, _ := splinteringCore(0.5, nil, cfg)
	if fired {
		t.Fatal("expected no fire with zero trajectory samples")
	}
}
