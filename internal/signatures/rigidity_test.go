package signatures

import (
	"context"
	"math"
	"testing"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
)

func TestDogmatismCoreFiresAboveThresholds(t *testing.T) {
	cfg := DefaultConfig()
	fired, severity, geom, ev := dogmatismCore(0.9, 0.8, cfg)
	if !fired {
		t.Fatal("expected dogmatism to fire for A=0.9, C_mag=0.8")
	}
	if severity < 0 || severity > 1 {
		t.Fatalf("severity out of bounds: %v", severity)
	}
	if len(geom) != 4 {
		t.Fatalf("geometric_signature length = %d, want 4", len(geom))
	}
	if ev == "" {
		t.Fatal("expected non-empty evidence text")
	}
}

func TestDogmatismCoreDoesNotFireBelowAttractorCrit(t *testing.T) {
	cfg := DefaultConfig()
	fired, _, _, _ := dogmatismCore(0.5, 0.9, cfg)
	if fired {
		t.Fatal("expected no fire when A below A_crit")
	}
}

func TestDogmatismSeverityMonotoneInAttractorStability(t *testing.T) {
	cfg := DefaultConfig()
	_, sevLow, _, _ := dogmatismCore(0.81, 0.9, cfg)
	_, sevHigh, _, _ := dogmatismCore(0.99, 0.9, cfg)
	if sevHigh < sevLow {
		t.Fatalf("severity decreased as A increased: %v -> %v", sevLow, sevHigh)
	}
}

func TestDogmatismEndToEndScenario(t *testing.T) {
	fs := newFakeStore()
	mag := 0.8
	p := &model.ManifoldPoint{
		ID:                 "p1",
		SourceFingerprint:  "fp",
		SemanticField:      make([]float64, model.StorageDim),
		CoherenceField:     make([]float64, model.StorageDim),
		CoherenceMagnitude: &mag,
		AttractorStability: 0.9,
		CreatedAt:          time.Now(),
	}
	fs.PutPoint(p)

	det := New(fs, DefaultConfig(), nil)
	rec, err := det.AttractorDogmatism(context.Background(), "p1", "run-1")
	if err != nil {
		t.Fatalf("AttractorDogmatism: %v", err)
	}
	if rec == nil {
		t.Fatal("expected a dogmatism record")
	}
	if rec.Severity < 0 || rec.Severity > 1 {
		t.Fatalf("severity out of bounds: %v", rec.Severity)
	}
	if rec.MathematicalEvidence == "" {
		t.Fatal("expected non-empty evidence")
	}
	if len(rec.GeometricSignature) != 4 {
		t.Fatalf("geometric signature length = %d, want 4", len(rec.GeometricSignature))
	}
}

func TestDogmatismNoInputInvariance(t *testing.T) {
	fs := newFakeStore()
	det := New(fs, DefaultConfig(), nil)
	rec, err := det.AttractorDogmatism(context.Background(), "missing", "run-1")
	if err != nil {
		t.Fatalf("expected no error for missing point, got %v", err)
	}
	if rec != nil {
		t.Fatalf("expected no record for missing point, got %+v", rec)
	}
}

func TestCrystallizationCoreFires(t *testing.T) {
	cfg := DefaultConfig()
	n := 3
	ricci := make([]float64, n*n)
	ricci[0] = 0.5
	ricci[4] = 0.4
	ricci[8] = 0.3
	fired, severity, _, _ := crystallizationCore(0.05, ricci, n, cfg)
	if !fired {
		t.Fatal("expected crystallization to fire")
	}
	if severity < 0 || severity > 1 {
		t.Fatalf("severity out of bounds: %v", severity)
	}
}

func TestCrystallizationCoreNoFireWhenPressureLow(t *testing.T) {
	cfg := DefaultConfig()
	n := 3
	ricci := make([]float64, n*n)
	fired, _, _, _ := crystallizationCore(0.01, ricci, n, cfg)
	if fired {
		t.Fatal("expected no fire when curvature pressure is zero")
	}
}

func TestCalcificationCoreFiresOnStagnantHighMassTrajectory(t *testing.T) {
	cfg := DefaultConfig()
	current := make([]float64, model.StorageDim)
	var trajectory []*model.ManifoldPoint
	mass := 0.5
	for i := 0; i < 3; i++ {
		trajectory = append(trajectory, &model.ManifoldPoint{
			CoherenceField: make([]float64, model.StorageDim),
			SemanticMass:   &mass,
		})
	}
	fired, severity, _, _ := calcificationCore(current, trajectory, cfg)
	if !fired {
		t.Fatal("expected calcification to fire on stagnant high-mass trajectory")
	}
	if severity < 0 || severity > 1 {
		t.Fatalf("severity out of bounds: %v", severity)
	}
}

func TestCalcificationCoreEmptyTrajectoryDoesNotFire(t *testing.T) {
	cfg := DefaultConfig()
	fired, _, _, _ := calcificationCore(make([]float64, model.StorageDim), nil, cfg)
	if fired {
		t.Fatal("expected no fire on empty trajectory")
	}
}

func TestClip01Bounds(t *testing.T) {
	if clip01(-1) != 0 {
		t.Fatal("clip01(-1) should be 0")
	}
	if clip01(2) != 1 {
		t.Fatal("clip01(2) should be 1")
	}
	if math.Abs(clip01(0.5)-0.5) > 1e-12 {
		t.Fatal("clip01(0.5) should be 0.5")
	}
}
