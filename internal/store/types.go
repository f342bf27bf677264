// Package store implements the data-store contract (§6): persistence and
// retrieval for observations, pairwise couplings, regulation records, and
// detector/analytics output. The schema shape and transaction discipline
// follow the reference controller's state package: WAL journal mode,
// foreign keys enforced, upserts via ON CONFLICT, append-only tables for
// history that must never be overwritten in place.
package store

import (
	"time"

	"github.com/manifold-eng/manifold-core/internal/model"
)

// #region data-store-contract

// DataStore is the contract every persistence backend implements. It is
// the seam engine code depends on so an in-memory fake can stand in for
// tests without touching SQLite.
type DataStore interface {
	GetPoint(id string) (*model.ManifoldPoint, error)
	PutPoint(p *model.ManifoldPoint) error
	ListConversationPoints(conversationID string, limit int) ([]*model.ManifoldPoint, error)
	ListUserPoints(sourceFingerprint string, limit int) ([]*model.ManifoldPoint, error)

	ListCouplings(pointID string, limit int) ([]model.RecursiveCoupling, error)
	PutCoupling(c model.RecursiveCoupling) error
	ListCouplingsSince(since time.Time) ([]model.RecursiveCoupling, error)

	LatestWisdom(pointID string) (*model.WisdomField, error)
	PutWisdom(w model.WisdomField) error

	LatestCrossSourcePoint(sourceFingerprint string, excludeConversationID string) (*model.ManifoldPoint, error)

	AppendSignature(rec model.SignatureRecord) error
	ListSignatures(pointID string, limit int) ([]model.SignatureRecord, error)

	AppendEvolutionSnapshot(pointID string, field []float64, computedAt int64) error

	Close() error
}

// #endregion data-store-contract
