package engine

import (
	"context"
	"testing"
	"time"

	"github.com/manifold-eng/manifold-core/internal/config"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/store"
)

// memStore is a minimal in-memory store.DataStore for engine tests.
type memStore struct {
	points    map[string]*model.ManifoldPoint
	couplings []model.RecursiveCoupling
	wisdom    map[string]model.WisdomField
	sigs      []model.SignatureRecord
	snapshots int
}

var _ store.DataStore = (*memStore)(nil)

func newMemStore() *memStore {
	return &memStore{points: map[string]*model.ManifoldPoint{}, wisdom: map[string]model.WisdomField{}}
}

func (m *memStore) GetPoint(id string) (*model.ManifoldPoint, error) {
	p, ok := m.points[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}
func (m *memStore) PutPoint(p *model.ManifoldPoint) error { m.points[p.ID] = p; return nil }
func (m *memStore) ListConversationPoints(conversationID string, limit int) ([]*model.ManifoldPoint, error) {
	return nil, nil
}
func (m *memStore) ListUserPoints(sourceFingerprint string, limit int) ([]*model.ManifoldPoint, error) {
	return nil, nil
}
func (m *memStore) ListCouplings(pointID string, limit int) ([]model.RecursiveCoupling, error) {
	return nil, nil
}
func (m *memStore) PutCoupling(c model.RecursiveCoupling) error {
	m.couplings = append(m.couplings, c)
	return nil
}
func (m *memStore) ListCouplingsSince(since time.Time) ([]model.RecursiveCoupling, error) {
	return m.couplings, nil
}
func (m *memStore) LatestWisdom(pointID string) (*model.WisdomField, error) {
	w, ok := m.wisdom[pointID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}
func (m *memStore) PutWisdom(w model.WisdomField) error { m.wisdom[w.PointID] = w; return nil }
func (m *memStore) LatestCrossSourcePoint(sourceFingerprint string, excludeConversationID string) (*model.ManifoldPoint, error) {
	return nil, nil
}
func (m *memStore) AppendSignature(rec model.SignatureRecord) error {
	m.sigs = append(m.sigs, rec)
	return nil
}
func (m *memStore) ListSignatures(pointID string, limit int) ([]model.SignatureRecord, error) {
	return m.sigs, nil
}
func (m *memStore) AppendEvolutionSnapshot(pointID string, field []float64, computedAt int64) error {
	m.snapshots++
	return nil
}
func (m *memStore) Close() error { return nil }

func TestDetectGroupRejectsUnknownGroup(t *testing.T) {
	s := newMemStore()
	e := New(s, config.Default(), nil, nil)
	_, err := e.DetectGroup(context.Background(), "not-a-group", "p1", "run-1")
	if err == nil {
		t.Fatal("expected an error for an unknown detector group")
	}
}

func TestDetectAllOnMissingPointReturnsNoRecords(t *testing.T) {
	s := newMemStore()
	e := New(s, config.Default(), nil, nil)
	recs, err := e.DetectAll(context.Background(), "missing", "run-1")
	if err != nil {
		t.Fatalf("DetectAll: %v", err)
	}
	if len(recs) != 0 {
		t.Fatalf("expected no records for a missing point, got %d", len(recs))
	}
}

func TestEvolveCoherenceFieldPersistsSnapshot(t *testing.T) {
	s := newMemStore()
	mag := 0.3
	s.PutPoint(&model.ManifoldPoint{
		ID:                 "p1",
		SemanticField:      make([]float64, model.StorageDim),
		CoherenceField:     make([]float64, model.StorageDim),
		CoherenceMagnitude: &mag,
	})
	e := New(s, config.Default(), nil, nil)
	result, err := e.EvolveCoherenceField(context.Background(), "p1")
	if err != nil {
		t.Fatalf("EvolveCoherenceField: %v", err)
	}
	if len(result.NewCoherenceField) != model.StorageDim {
		t.Fatalf("new coherence field length = %d, want %d", len(result.NewCoherenceField), model.StorageDim)
	}
	if s.snapshots != 1 {
		t.Fatalf("snapshots recorded = %d, want 1", s.snapshots)
	}
}

func TestDetectManyPointsFansOutAndPersists(t *testing.T) {
	s := newMemStore()
	for _, id := range []string{"p1", "p2"} {
		mag := 0.8
		stability := 0.9
		s.PutPoint(&model.ManifoldPoint{
			ID:                 id,
			SemanticField:      make([]float64, model.StorageDim),
			CoherenceField:     make([]float64, model.StorageDim),
			CoherenceMagnitude: &mag,
			AttractorStability: stability,
		})
	}
	e := New(s, config.Default(), nil, nil)
	if err := e.DetectManyPoints(context.Background(), []string{"p1", "p2"}, "run-1", 2); err != nil {
		t.Fatalf("DetectManyPoints: %v", err)
	}
	if len(s.sigs) == 0 {
		t.Fatal("expected at least one signature record to be persisted")
	}
}
