package analytics

import (
	"context"
	"fmt"
	"math"
	"sort"
	"time"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/scalarops"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region pair-observation

// pairObservation is one cross-source pair whose coupling cleared the
// threshold, resolved down to the scalars bucketing needs.
type pairObservation struct {
	BucketHour    int64
	PointP        string
	PointQ        string
	Coupling      float64
	GeomCoherence float64
	Mass          float64
}

// geometricCoherence computes 1 - distance(C_p, C_q)/sqrt(det g_p * det g_q)
// when both determinants are positive, else plain 1 - distance (§4.6).
func geometricCoherence(cp, cq []float64, detP, detQ *float64, n int) float64 {
	dist := vecmath.Distance(cp, cq, n)
	if detP != nil && detQ != nil && *detP > 0 && *detQ > 0 {
		denom := math.Sqrt(*detP * *detQ)
		return 1 - dist/denom
	}
	return 1 - dist
}

func pairMass(p, q *model.ManifoldPoint) float64 {
	return (massOf(p) + massOf(q)) / 2
}

func detOr1(d *float64) float64 {
	if d == nil {
		return 1
	}
	return *d
}

func massOf(p *model.ManifoldPoint) float64 {
	if p.SemanticMass != nil {
		return *p.SemanticMass
	}
	return scalarops.SemanticMass(p.RecursiveDepth, detOr1(p.MetricDeterminant), p.AttractorStability)
}

// #endregion pair-observation

// #region bucket-reduction

// buildClusters groups pair observations by shared hour bucket and emits one
// ClusterRecord per bucket whose size and confidence clear the configured
// floors, ordered by confidence then mass descending. It is invariant under
// permutation of pairs within the same bucket (§8).
func buildClusters(pairs []pairObservation, cfg Config) []model.ClusterRecord {
	buckets := map[int64][]pairObservation{}
	for _, p := range pairs {
		buckets[p.BucketHour] = append(buckets[p.BucketHour], p)
	}

	var out []model.ClusterRecord
	for hour, group := range buckets {
		size := len(group)
		if size < cfg.ClusterMinSize {
			continue
		}
		var sumCoupling, sumCoherence, sumMass float64
		idSet := map[string]struct{}{}
		for _, p := range group {
			sumCoupling += p.Coupling
			sumCoherence += p.GeomCoherence
			sumMass += p.Mass
			idSet[p.PointP] = struct{}{}
			idSet[p.PointQ] = struct{}{}
		}
		avgCoupling := sumCoupling / float64(size)
		avgCoherence := sumCoherence / float64(size)
		avgMass := sumMass / float64(size)
		confidence := vecmath.Clamp01(avgCoupling * avgCoherence * (float64(size) / 10) * (avgMass / 100))
		if confidence <= cfg.ClusterConfidenceThr {
			continue
		}

		ids := make([]string, 0, len(idSet))
		for id := range idSet {
			ids = append(ids, id)
		}
		sort.Strings(ids)

		out = append(out, model.ClusterRecord{
			ClusterID:        fmt.Sprintf("cluster-%d", hour),
			BucketEpochHour:  hour,
			ClusterSize:      size,
			AvgCoupling:      avgCoupling,
			AvgGeomCoherence: avgCoherence,
			AvgMass:          avgMass,
			Confidence:       confidence,
			PointIDs:         ids,
		})
	}

	sort.Slice(out, func(i, j int) bool {
		if out[i].Confidence != out[j].Confidence {
			return out[i].Confidence > out[j].Confidence
		}
		return out[i].AvgMass > out[j].AvgMass
	})
	return out
}

// #endregion bucket-reduction

// #region coordination-clusters

// CoordinationClusters implements coordination_clusters (§4.6): it scans the
// coupling graph for cross-source pairs whose magnitude clears threshold
// within the trailing window, buckets them by hour, and emits clusters that
// clear the minimum size and confidence floors.
func (a *Analytics) CoordinationClusters(ctx context.Context, window time.Duration, threshold float64, minSize int) ([]model.ClusterRecord, error) {
	if window <= 0 {
		window = a.Cfg.ClusterWindow
	}
	if threshold <= 0 {
		threshold = a.Cfg.ClusterThreshold
	}
	if minSize <= 0 {
		minSize = a.Cfg.ClusterMinSize
	}

	since := time.Now().Add(-window)
	couplings, err := a.Store.ListCouplingsSince(since)
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "analytics.CoordinationClusters", "list couplings", err)
	}

	pointCache := map[string]*model.ManifoldPoint{}
	fetch := func(id string) (*model.ManifoldPoint, error) {
		if p, ok := pointCache[id]; ok {
			return p, nil
		}
		p, err := a.Store.GetPoint(id)
		if err != nil {
			return nil, nil
		}
		pointCache[id] = p
		return p, nil
	}

	var pairs []pairObservation
	for _, c := range couplings {
		if c.IsSelf() || c.CouplingMagnitude < threshold {
			continue
		}
		p, _ := fetch(c.PointP)
		q, _ := fetch(c.PointQ)
		if p == nil || q == nil || p.SourceFingerprint == q.SourceFingerprint {
			continue
		}
		if c.ComputedAt.Before(since) {
			continue
		}
		pairs = append(pairs, pairObservation{
			BucketHour:    c.ComputedAt.Unix() / 3600,
			PointP:        c.PointP,
			PointQ:        c.PointQ,
			Coupling:      c.CouplingMagnitude,
			GeomCoherence: geometricCoherence(p.CoherenceField, q.CoherenceField, p.MetricDeterminant, q.MetricDeterminant, a.Cfg.ActiveDim),
			Mass:          pairMass(p, q),
		})
	}

	cfg := a.Cfg
	cfg.ClusterMinSize = minSize
	return buildClusters(pairs, cfg), nil
}

// #endregion coordination-clusters
