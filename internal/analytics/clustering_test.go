package analytics

import (
	"context"
	"testing"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
)

func fieldAt(n int, v float64) []float64 {
	f := make([]float64, model.StorageDim)
	for i := 0; i < n; i++ {
		f[i] = v
	}
	return f
}

func TestGeometricCoherenceUsesDeterminantsWhenPositive(t *testing.T) {
	detP, detQ := 1.0, 1.0
	cp := fieldAt(3, 0.0)
	cq := fieldAt(3, 0.0)
	cq[0] = 0.6
	got := geometricCoherence(cp, cq, &detP, &detQ, 3)
	want := 1 - 0.6
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func TestGeometricCoherenceFallsBackWithoutDeterminants(t *testing.T) {
	cp := fieldAt(3, 0.0)
	cq := fieldAt(3, 0.0)
	cq[0] = 0.4
	got := geometricCoherence(cp, cq, nil, nil, 3)
	want := 1 - 0.4
	if got < want-1e-9 || got > want+1e-9 {
		t.Fatalf("got %v, want %v", got, want)
	}
}

func setupClusterFakeStore(mass float64, sameHour bool) (*fakeStore, []model.RecursiveCoupling) {
	fs := newFakeStore()
	base := time.Now().Add(-time.Hour)

	makePoint := func(id, src string) *model.ManifoldPoint {
		m := mass
		p := &model.ManifoldPoint{
			ID:                id,
			SourceFingerprint: src,
			CreatedAt:         base,
			SemanticField:     make([]float64, model.StorageDim),
			CoherenceField:    fieldAt(3, 0.1),
			SemanticMass:      &m,
		}
		fs.PutPoint(p)
		return p
	}

	var couplings []model.RecursiveCoupling
	for i := 0; i < 4; i++ {
		pID := "p-" + string(rune('a'+i))
		qID := "q-" + string(rune('a'+i))
		makePoint(pID, "src-a")
		makePoint(qID, "src-b")
		ts := base
		if !sameHour {
			ts = base.Add(time.Duration(i) * time.Hour)
		}
		c := model.RecursiveCoupling{PointP: pID, PointQ: qID, CouplingMagnitude: 0.9, ComputedAt: ts}
		fs.PutCoupling(c)
		couplings = append(couplings, c)
	}
	return fs, couplings
}

func TestCoordinationClustersEmitsBucketAboveMinSize(t *testing.T) {
	fs, _ := setupClusterFakeStore(150, true)
	a := New(fs, DefaultConfig(), nil)
	clusters, err := a.CoordinationClusters(context.Background(), 24*time.Hour, 0.8, 3)
	if err != nil {
		t.Fatalf("CoordinationClusters: %v", err)
	}
	if len(clusters) != 1 {
		t.Fatalf("expected 1 cluster, got %d", len(clusters))
	}
	if clusters[0].ClusterSize != 4 {
		t.Fatalf("cluster size = %d, want 4", clusters[0].ClusterSize)
	}
	if clusters[0].Confidence <= 0.5 {
		t.Fatalf("confidence = %v, want > 0.5", clusters[0].Confidence)
	}
}

func TestCoordinationClustersSkipsSmallBuckets(t *testing.T) {
	fs, _ := setupClusterFakeStore(60, false)
	a := New(fs, DefaultConfig(), nil)
	clusters, err := a.CoordinationClusters(context.Background(), 24*time.Hour, 0.8, 3)
	if err != nil {
		t.Fatalf("CoordinationClusters: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected no clusters when each bucket has 1 pair, got %d", len(clusters))
	}
}

func TestCoordinationClustersSkipsSameSourcePairs(t *testing.T) {
	fs := newFakeStore()
	base := time.Now()
	m := 60.0
	fs.PutPoint(&model.ManifoldPoint{ID: "p1", SourceFingerprint: "same", CreatedAt: base, CoherenceField: fieldAt(3, 0.1), SemanticMass: &m})
	fs.PutPoint(&model.ManifoldPoint{ID: "p2", SourceFingerprint: "same", CreatedAt: base, CoherenceField: fieldAt(3, 0.1), SemanticMass: &m})
	fs.PutCoupling(model.RecursiveCoupling{PointP: "p1", PointQ: "p2", CouplingMagnitude: 0.95, ComputedAt: base})

	a := New(fs, DefaultConfig(), nil)
	clusters, err := a.CoordinationClusters(context.Background(), 24*time.Hour, 0.8, 1)
	if err != nil {
		t.Fatalf("CoordinationClusters: %v", err)
	}
	if len(clusters) != 0 {
		t.Fatalf("expected same-source pairs to be excluded, got %d clusters", len(clusters))
	}
}

func TestBuildClustersPermutationInvariant(t *testing.T) {
	cfg := DefaultConfig()
	cfg.ClusterMinSize = 2
	cfg.ClusterConfidenceThr = 0
	pairs := []pairObservation{
		{BucketHour: 10, PointP: "a", PointQ: "b", Coupling: 0.9, GeomCoherence: 0.8, Mass: 50},
		{BucketHour: 10, PointP: "c", PointQ: "d", Coupling: 0.85, GeomCoherence: 0.7, Mass: 40},
	}
	reversed := []pairObservation{pairs[1], pairs[0]}

	out1 := buildClusters(pairs, cfg)
	out2 := buildClusters(reversed, cfg)
	if len(out1) != 1 || len(out2) != 1 {
		t.Fatalf("expected exactly one cluster from each ordering, got %d and %d", len(out1), len(out2))
	}
	if out1[0].ClusterID != out2[0].ClusterID || out1[0].Confidence != out2[0].Confidence {
		t.Fatalf("cluster output differs under permutation: %+v vs %+v", out1[0], out2[0])
	}
}
