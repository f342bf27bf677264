// Package engine wires storage, configuration, metrics, and logging into
// the public core API the operator CLI and any embedding caller drive:
// running the twelve detectors (individually or grouped), coordination
// clustering, escalation trajectories, and the field evolution step.
package engine

import (
	"context"
	"log/slog"
	"time"

	"github.com/manifold-eng/manifold-core/internal/analytics"
	"github.com/manifold-eng/manifold-core/internal/config"
	"github.com/manifold-eng/manifold-core/internal/evolution"
	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/logging"
	"github.com/manifold-eng/manifold-core/internal/metrics"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/signatures"
	"github.com/manifold-eng/manifold-core/internal/store"
	"github.com/manifold-eng/manifold-core/internal/workerpool"
)

// Engine is the top-level entry point wiring every layer together.
type Engine struct {
	Store     store.DataStore
	Detectors *signatures.Detector
	Analytics *analytics.Analytics
	Metrics   *metrics.Registry
	Log       *slog.Logger

	cfg config.Config
}

// New wires an Engine from a config and an already-open store. m may be nil
// (metrics become no-ops); log may be nil (falls back to the package default).
func New(s store.DataStore, cfg config.Config, m *metrics.Registry, log *slog.Logger) *Engine {
	log = logging.OrDefault(log)
	return &Engine{
		Store:     s,
		Detectors: signatures.New(s, cfg.Detectors, log),
		Analytics: analytics.New(s, cfg.Analytics, log),
		Metrics:   m,
		Log:       log,
		cfg:       cfg,
	}
}

// #region detector-surface

// detectorName identifies one signature or grouped-detector call for
// metrics labeling.
type detectorName = string

func (e *Engine) instrument(name detectorName, fn func() ([]model.SignatureRecord, error)) ([]model.SignatureRecord, error) {
	stop := e.Metrics.Timer(name)
	defer stop()
	recs, err := fn()
	switch {
	case err != nil:
		e.Metrics.RecordDetection(name, metrics.OutcomeError)
	case len(recs) == 0:
		e.Metrics.RecordDetection(name, metrics.OutcomeSkippedMissingInput)
	default:
		for range recs {
			e.Metrics.RecordDetection(name, metrics.OutcomeFired)
		}
	}
	return recs, err
}

// DetectAll runs all twelve detectors against a point and records outcomes.
func (e *Engine) DetectAll(ctx context.Context, pointID, runID string) ([]model.SignatureRecord, error) {
	return e.instrument("all", func() ([]model.SignatureRecord, error) {
		return e.Detectors.All(ctx, pointID, runID)
	})
}

// DetectGroup runs one of the four detector groups (rigidity, fragmentation,
// inflation, observer) named by group.
func (e *Engine) DetectGroup(ctx context.Context, group, pointID, runID string) ([]model.SignatureRecord, error) {
	var fn func(context.Context, string, string) ([]model.SignatureRecord, error)
	switch group {
	case "rigidity":
		fn = e.Detectors.Rigidity
	case "fragmentation":
		fn = e.Detectors.Fragmentation
	case "inflation":
		fn = e.Detectors.Inflation
	case "observer":
		fn = e.Detectors.ObserverCoupling
	default:
		return nil, kernelerr.New(kernelerr.MissingInput, "engine.DetectGroup", "unknown detector group "+group, nil)
	}
	return e.instrument(group, func() ([]model.SignatureRecord, error) { return fn(ctx, pointID, runID) })
}

// DetectManyPoints fans a full detector pass out across point ids using the
// bounded worker pool, appending every fired record to the store as it
// completes.
func (e *Engine) DetectManyPoints(ctx context.Context, pointIDs []string, runID string, concurrency int) error {
	pool := workerpool.New(concurrency, e.Metrics)
	return workerpool.Run(ctx, pool, pointIDs, func(ctx context.Context, pointID string) error {
		recs, err := e.DetectAll(ctx, pointID, runID)
		if err != nil {
			return err
		}
		for _, rec := range recs {
			if err := e.Store.AppendSignature(rec); err != nil {
				return err
			}
		}
		return nil
	})
}

// #endregion detector-surface

// #region analytics-surface

// CoordinationClusters runs coordination clustering with defaults from
// config filled in for zero-valued arguments.
func (e *Engine) CoordinationClusters(ctx context.Context, window time.Duration, threshold float64, minSize int) ([]model.ClusterRecord, error) {
	stop := e.Metrics.Timer("coordination_clusters")
	defer stop()
	clusters, err := e.Analytics.CoordinationClusters(ctx, window, threshold, minSize)
	if err != nil {
		e.Metrics.RecordDetection("coordination_clusters", metrics.OutcomeError)
		return nil, err
	}
	e.Metrics.RecordDetection("coordination_clusters", metrics.OutcomeFired)
	return clusters, nil
}

// EscalationTrajectory scores an ordered trajectory of point ids.
func (e *Engine) EscalationTrajectory(ctx context.Context, pointIDs []string) ([]model.EscalationRecord, error) {
	stop := e.Metrics.Timer("escalation_trajectory")
	defer stop()
	recs, err := e.Analytics.EscalationTrajectory(ctx, pointIDs)
	if err != nil {
		e.Metrics.RecordDetection("escalation_trajectory", metrics.OutcomeError)
		return nil, err
	}
	e.Metrics.RecordDetection("escalation_trajectory", metrics.OutcomeFired)
	return recs, nil
}

// #endregion analytics-surface

// #region evolution-surface

// EvolveCoherenceField runs one explicit-Euler step of the field evolution
// integrator against a stored point and persists the resulting field as an
// evolution snapshot.
func (e *Engine) EvolveCoherenceField(ctx context.Context, pointID string) (evolution.Result, error) {
	stop := e.Metrics.Timer("evolve_coherence_field")
	defer stop()

	p, err := e.Store.GetPoint(pointID)
	if err != nil {
		e.Metrics.RecordDetection("evolve_coherence_field", metrics.OutcomeError)
		return evolution.Result{}, err
	}
	result := evolution.Step(p, e.cfg.Evolution)
	if err := e.Store.AppendEvolutionSnapshot(pointID, result.NewCoherenceField, time.Now().Unix()); err != nil {
		e.Metrics.RecordDetection("evolve_coherence_field", metrics.OutcomeError)
		return result, err
	}
	e.Metrics.RecordDetection("evolve_coherence_field", metrics.OutcomeFired)
	return result, nil
}

// #endregion evolution-surface
