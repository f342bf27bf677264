package analytics

import (
	"sort"
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/store"
)

// fakeStore is a minimal in-memory store.DataStore for analytics tests.
type fakeStore struct {
	points    map[string]*model.ManifoldPoint
	couplings []model.RecursiveCoupling
	wisdom    map[string]model.WisdomField
}

var _ store.DataStore = (*fakeStore)(nil)

func newFakeStore() *fakeStore {
	return &fakeStore{points: map[string]*model.ManifoldPoint{}, wisdom: map[string]model.WisdomField{}}
}

func (f *fakeStore) GetPoint(id string) (*model.ManifoldPoint, error) {
	p, ok := f.points[id]
	if !ok {
		return nil, nil
	}
	return p, nil
}

func (f *fakeStore) PutPoint(p *model.ManifoldPoint) error {
	f.points[p.ID] = p
	return nil
}

func (f *fakeStore) ListConversationPoints(conversationID string, limit int) ([]*model.ManifoldPoint, error) {
	return nil, nil
}

func (f *fakeStore) ListUserPoints(sourceFingerprint string, limit int) ([]*model.ManifoldPoint, error) {
	return nil, nil
}

func (f *fakeStore) ListCouplings(pointID string, limit int) ([]model.RecursiveCoupling, error) {
	return nil, nil
}

func (f *fakeStore) PutCoupling(c model.RecursiveCoupling) error {
	f.couplings = append(f.couplings, c)
	return nil
}

func (f *fakeStore) ListCouplingsSince(since time.Time) ([]model.RecursiveCoupling, error) {
	var out []model.RecursiveCoupling
	for _, c := range f.couplings {
		if !c.ComputedAt.Before(since) {
			out = append(out, c)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ComputedAt.Before(out[j].ComputedAt) })
	return out, nil
}

func (f *fakeStore) LatestWisdom(pointID string) (*model.WisdomField, error) {
	w, ok := f.wisdom[pointID]
	if !ok {
		return nil, nil
	}
	return &w, nil
}

func (f *fakeStore) PutWisdom(w model.WisdomField) error {
	f.wisdom[w.PointID] = w
	return nil
}

func (f *fakeStore) LatestCrossSourcePoint(sourceFingerprint string, excludeConversationID string) (*model.ManifoldPoint, error) {
	return nil, nil
}

func (f *fakeStore) AppendSignature(rec model.SignatureRecord) error { return nil }

func (f *fakeStore) ListSignatures(pointID string, limit int) ([]model.SignatureRecord, error) {
	return nil, nil
}

func (f *fakeStore) AppendEvolutionSnapshot(pointID string, field []float64, computedAt int64) error {
	return nil
}

func (f *fakeStore) Close() error { return nil }
