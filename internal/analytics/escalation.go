package analytics

import (
	"context"
	"sort"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/model"
	"github.com/manifold-eng/manifold-core/internal/vecmath"
)

// #region escalation-step

// escalationStep computes one step's dynamics along a trajectory (§4.6):
// velocity from the coherence-field distance over the elapsed time,
// acceleration from scalar curvature, and trajectory/urgency scores gated
// by the acceleration and mass/humility thresholds.
func escalationStep(prev, curr *model.ManifoldPoint, wisdomH *float64, cfg Config) model.EscalationRecord {
	n := cfg.ActiveDim
	deltaT := curr.CreatedAt.Sub(prev.CreatedAt).Seconds()
	if deltaT < 1 {
		deltaT = 1
	}
	velocity := vecmath.Distance(curr.CoherenceField, prev.CoherenceField, n) / deltaT

	var scalarCurv float64
	if curr.ScalarCurvature != nil {
		scalarCurv = *curr.ScalarCurvature
	}
	acceleration := scalarCurv * velocity

	mass := massOf(curr)
	var trajectory float64
	if acceleration > cfg.EscalationAccelerationThr && mass > cfg.EscalationMassThr {
		trajectory = acceleration * mass * 2
	} else {
		trajectory = acceleration * 0.5
	}

	urgency := cfg.EscalationDefaultUrgency
	if acceleration > cfg.EscalationUrgencyAccelThr && wisdomH != nil && *wisdomH < cfg.EscalationHumilityThr {
		urgency = vecmath.Clamp01(acceleration * mass * 1.5)
	}

	return model.EscalationRecord{
		PointID:      curr.ID,
		PrevPointID:  prev.ID,
		Velocity:     velocity,
		Acceleration: acceleration,
		Trajectory:   trajectory,
		Urgency:      urgency,
	}
}

// #endregion escalation-step

// #region escalation-trajectory

// EscalationTrajectory implements escalation_trajectory (§4.6): it fetches
// each point id, orders them by creation time, and emits one record per
// non-initial point describing the step from its predecessor.
func (a *Analytics) EscalationTrajectory(ctx context.Context, pointIDs []string) ([]model.EscalationRecord, error) {
	points := make([]*model.ManifoldPoint, 0, len(pointIDs))
	for _, id := range pointIDs {
		p, err := a.Store.GetPoint(id)
		if err != nil || p == nil {
			continue
		}
		points = append(points, p)
	}
	sort.Slice(points, func(i, j int) bool { return points[i].CreatedAt.Before(points[j].CreatedAt) })

	var out []model.EscalationRecord
	for i := 1; i < len(points); i++ {
		var h *float64
		if w, err := a.Store.LatestWisdom(points[i].ID); err == nil && w != nil {
			hv := w.HumilityFactor
			h = &hv
		}
		out = append(out, escalationStep(points[i-1], points[i], h, a.Cfg))
	}
	if len(points) == 0 && len(pointIDs) > 0 {
		return nil, kernelerr.New(kernelerr.MissingInput, "analytics.EscalationTrajectory", "no points resolved from ids", nil)
	}
	return out, nil
}

// #endregion escalation-trajectory
