package signatures

import (
	"context"
	"log/slog"
	"time"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/logging"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/scalarops"
	"github.com/manifold-eng/manifold-core/internal/store"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region detector

// Detector wraps a DataStore and Config, fetching the windowed snapshot
// each detector's pure core needs. Every call is self-contained: no
// long-lived mutable state beyond the store (§2).
type Detector struct {
	Store store.DataStore
	Cfg   Config
	Log   *slog.Logger
}

// New constructs a Detector with defaults if cfg is the zero value.
func New(s store.DataStore, cfg Config, log *slog.Logger) *Detector {
	if cfg == (Config{}) {
		cfg = DefaultConfig()
	}
	return &Detector{Store: s, Cfg: cfg, Log: log}
}

func (d *Detector) log(ctx context.Context, sigType model.SignatureType, pointID string, rec *model.SignatureRecord) {
	fired := rec != nil
	sev := 0.0
	if fired {
		sev = rec.Severity
	}
	logging.DetectorCall(ctx, d.Log, string(sigType), pointID, fired, sev)
}

// getPoint fetches a point, absorbing MissingInput into (nil, nil) per §7 —
// a not-found point yields no record. Every other kernelerr.Kind, including
// StoreError, propagates unchanged: only "not found" is a detector's to
// swallow, a corrupt row or a failed query is not.
func getPoint(s store.DataStore, pointID string) (*model.ManifoldPoint, error) {
	p, err := s.GetPoint(pointID)
	if err != nil {
		if e, ok := err.(*kernelerr.Error); ok && e.Kind == kernelerr.MissingInput {
			return nil, nil
		}
		return nil, err
	}
	return p, nil
}

// #endregion detector

// #region windowing

// pointsWithinWindow filters points to those with CreatedAt in
// [now-windowSeconds, now], ascending by CreatedAt.
func pointsWithinWindow(points []*model.ManifoldPoint, now time.Time, windowSeconds float64) []*model.ManifoldPoint {
	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)
	var out []*model.ManifoldPoint
	for _, p := range points {
		if p.HasField() && !p.CreatedAt.Before(cutoff) && !p.CreatedAt.After(now) {
			out = append(out, p)
		}
	}
	for i := 0; i < len(out); i++ {
		for j := i + 1; j < len(out); j++ {
			if out[j].CreatedAt.Before(out[i].CreatedAt) {
				out[i], out[j] = out[j], out[i]
			}
		}
	}
	return out
}

func couplingsWithinWindow(couplings []model.RecursiveCoupling, now time.Time, windowSeconds float64) []model.RecursiveCoupling {
	cutoff := now.Add(-time.Duration(windowSeconds) * time.Second)
	var out []model.RecursiveCoupling
	for _, c := range couplings {
		if !c.ComputedAt.Before(cutoff) && !c.ComputedAt.After(now) {
			out = append(out, c)
		}
	}
	return out
}

func coherenceNorm(p *model.ManifoldPoint, n int) float64 {
	if p.CoherenceMagnitude != nil {
		return *p.CoherenceMagnitude
	}
	return vecmath.Norm(p.CoherenceField, n)
}

func semanticMass(p *model.ManifoldPoint, n int) float64 {
	if p.SemanticMass != nil {
		return *p.SemanticMass
	}
	det := 1.0
	if p.MetricDeterminant != nil {
		det = *p.MetricDeterminant
	}
	return scalarops.SemanticMass(p.RecursiveDepth, det, p.AttractorStability)
}

// #endregion windowing
