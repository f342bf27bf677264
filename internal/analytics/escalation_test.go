package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
)

func TestEscalationStepHighAccelerationHighMassScalesTrajectory(t *testing.T) {
	cfg := DefaultConfig()
	prev := &model.ManifoldPoint{ID: "p1", CreatedAt: time.Now().Add(-10 * time.Second), CoherenceField: fieldAt(3, 0.0)}
	curr := &model.ManifoldPoint{ID: "p2", CreatedAt: time.Now(), CoherenceField: fieldAt(3, 0.0)}
	curr.CoherenceField[0] = 5.0
	curv := 1.0
	curr.ScalarCurvature = &curv
	mass := 0.9
	curr.SemanticMass = &mass

	rec := escalationStep(prev, curr, nil, cfg)
	if rec.Acceleration <= cfg.EscalationAccelerationThr {
		t.Fatalf("expected acceleration above threshold, got %v", rec.Acceleration)
	}
	wantTrajectory := rec.Acceleration * mass * 2
	if rec.Trajectory != wantTrajectory {
		t.Fatalf("trajectory = %v, want %v", rec.Trajectory, wantTrajectory)
	}
	if rec.Urgency != cfg.EscalationDefaultUrgency {
		t.Fatalf("urgency = %v, want default %v (no wisdom record supplied)", rec.Urgency, cfg.EscalationDefaultUrgency)
	}
}

func TestEscalationStepUrgencyFiresOnLowHumility(t *testing.T) {
	cfg := DefaultConfig()
	prev := &model.ManifoldPoint{ID: "p1", CreatedAt: time.Now().Add(-10 * time.Second), CoherenceField: fieldAt(3, 0.0)}
	curr := &model.ManifoldPoint{ID: "p2", CreatedAt: time.Now(), CoherenceField: fieldAt(3, 0.0)}
	curr.CoherenceField[0] = 5.0
	curv := 1.0
	curr.ScalarCurvature = &curv
	mass := 0.9
	curr.SemanticMass = &mass
	h := 0.1

	rec := escalationStep(prev, curr, &h, cfg)
	if rec.Urgency == cfg.EscalationDefaultUrgency {
		t.Fatal("expected urgency to deviate from the default when acceleration is high and humility is low")
	}
	if rec.Urgency < 0 || rec.Urgency > 1 {
		t.Fatalf("urgency out of bounds: %v", rec.Urgency)
	}
}

func TestEscalationStepLowAccelerationUsesHalfScale(t *testing.T) {
	cfg := DefaultConfig()
	prev := &model.ManifoldPoint{ID: "p1", CreatedAt: time.Now().Add(-100 * time.Second), CoherenceField: fieldAt(3, 0.0)}
	curr := &model.ManifoldPoint{ID: "p2", CreatedAt: time.Now(), CoherenceField: fieldAt(3, 0.0)}
	curr.CoherenceField[0] = 0.01
	curv := 0.1
	curr.ScalarCurvature = &curv

	rec := escalationStep(prev, curr, nil, cfg)
	wantTrajectory := rec.Acceleration * 0.5
	if rec.Trajectory != wantTrajectory {
		t.Fatalf("trajectory = %v, want %v", rec.Trajectory, wantTrajectory)
	}
}

func TestEscalationTrajectoryEmitsOneRecordPerNonInitialPoint(t *testing.T) {
	fs := newFakeStore()
	base := time.Now().Add(-time.Hour)
	curv := 0.5
	for i, id := range []string{"a", "b", "c"} {
		f := fieldAt(3, float64(i))
		fs.PutPoint(&model.ManifoldPoint{
			ID:                id,
			SourceFingerprint: "src",
			CreatedAt:         base.Add(time.Duration(i) * time.Minute),
			CoherenceField:    f,
			ScalarCurvature:   &curv,
		})
	}
	a := New(fs, DefaultConfig(), nil)
	recs, err := a.EscalationTrajectory(context.Background(), []string{"c", "a", "b"})
	if err != nil {
		t.Fatalf("EscalationTrajectory: %v", err)
	}
	if len(recs) != 2 {
		t.Fatalf("expected 2 records for 3 points, got %d", len(recs))
	}
	if recs[0].PrevPointID != "a" || recs[0].PointID != "b" {
		t.Fatalf("expected chronological ordering a->b first, got %+v", recs[0])
	}
	if recs[1].PrevPointID != "b" || recs[1].PointID != "c" {
		t.Fatalf("expected chronological ordering b->c second, got %+v", recs[1])
	}
}

func TestEscalationTrajectoryErrorsWhenNoPointsResolve(t *testing.T) {
	fs := newFakeStore()
	a := New(fs, DefaultConfig(), nil)
	_, err := a.EscalationTrajectory(context.Background(), []string{"missing-1", "missing-2"})
	if err == nil {
		t.Fatal("expected an error when none of the requested point ids resolve")
	}
}
