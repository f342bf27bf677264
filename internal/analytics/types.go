// Package analytics implements the cross-point aggregate views built on top
// of the coupling graph and detector output: coordination clustering and
// escalation-trajectory scoring (§4.6). Both operations are pure reductions
// over already-fetched observations, wrapped by thin methods that pull the
// data from a store.DataStore.
package analytics

import (
	"log/slog"
	"time"

	"github.com/manifold-eng/manifold-core/internal/logging"
	"github.com/manifold-eng/manifold-core/internal/store"
)

// Config holds the tunables for coordination clustering and escalation
// scoring, mirroring the named defaults called out for §4.6.
type Config struct {
	ActiveDim int

	ClusterWindow        time.Duration
	ClusterThreshold     float64
	ClusterMinSize       int
	ClusterConfidenceThr float64

	EscalationAccelerationThr float64
	EscalationMassThr         float64
	EscalationUrgencyAccelThr float64
	EscalationHumilityThr     float64
	EscalationDefaultUrgency  float64
}

// DefaultConfig returns the named §4.6 defaults.
func DefaultConfig() Config {
	return Config{
		ActiveDim: 100,

		ClusterWindow:        24 * time.Hour,
		ClusterThreshold:     0.8,
		ClusterMinSize:       3,
		ClusterConfidenceThr: 0.5,

		EscalationAccelerationThr: 0.2,
		EscalationMassThr:         0.5,
		EscalationUrgencyAccelThr: 0.3,
		EscalationHumilityThr:     0.3,
		EscalationDefaultUrgency:  0.3,
	}
}

// Analytics wires the pure clustering/escalation reductions to a store.
type Analytics struct {
	Store store.DataStore
	Cfg   Config
	Log   *slog.Logger
}

// New constructs an Analytics instance. A nil logger falls back to the
// package default, matching the detector constructor's nil-safe pattern.
func New(s store.DataStore, cfg Config, log *slog.Logger) *Analytics {
	return &Analytics{Store: s, Cfg: cfg, Log: logging.OrDefault(log)}
}
