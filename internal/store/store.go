package store

import (
	"database/sql"
	"encoding/binary"
	"errors"
	"fmt"
	"math"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite"

	"github.com/manifold-eng/manifold-core/internal/kernelerr"
	"github.com/manifold-eng/manifold-core/internal/model"
)

// #region schema

const schema = `
CREATE TABLE IF NOT EXISTS manifold_points (
	id                  TEXT PRIMARY KEY,
	source_fingerprint  TEXT NOT NULL,
	conversation_id     TEXT,
	created_at          TEXT NOT NULL,
	semantic_field      BLOB NOT NULL,
	coherence_field     BLOB NOT NULL,
	coherence_magnitude REAL,
	metric_tensor       BLOB,
	metric_determinant  REAL,
	christoffel_symbols BLOB,
	ricci_curvature     BLOB,
	scalar_curvature    REAL,
	recursive_depth     REAL NOT NULL DEFAULT 0,
	constraint_density  REAL NOT NULL DEFAULT 0,
	attractor_stability REAL NOT NULL DEFAULT 0,
	semantic_mass       REAL
);

CREATE INDEX IF NOT EXISTS idx_points_conversation ON manifold_points(conversation_id, created_at);
CREATE INDEX IF NOT EXISTS idx_points_source ON manifold_points(source_fingerprint, created_at);

CREATE TABLE IF NOT EXISTS recursive_couplings (
	id                TEXT PRIMARY KEY,
	point_p           TEXT NOT NULL,
	point_q           TEXT NOT NULL,
	coupling_tensor   BLOB,
	coupling_magnitude REAL NOT NULL,
	self_coupling     REAL NOT NULL,
	hetero_coupling   REAL NOT NULL,
	evolution_rate    REAL NOT NULL DEFAULT 0,
	latent_channels   INTEGER NOT NULL DEFAULT 0,
	computed_at       TEXT NOT NULL,
	FOREIGN KEY (point_p) REFERENCES manifold_points(id),
	FOREIGN KEY (point_q) REFERENCES manifold_points(id)
);

CREATE INDEX IF NOT EXISTS idx_couplings_point_p ON recursive_couplings(point_p, computed_at);

CREATE TABLE IF NOT EXISTS wisdom_fields (
	point_id             TEXT PRIMARY KEY,
	wisdom_value         REAL NOT NULL,
	forecast_sensitivity REAL NOT NULL DEFAULT 0,
	gradient_response    REAL NOT NULL DEFAULT 0,
	humility_factor      REAL NOT NULL DEFAULT 0,
	recursion_regulation REAL NOT NULL DEFAULT 0,
	computed_at          TEXT NOT NULL,
	FOREIGN KEY (point_id) REFERENCES manifold_points(id)
);

CREATE TABLE IF NOT EXISTS signature_records (
	id                    INTEGER PRIMARY KEY AUTOINCREMENT,
	point_id              TEXT NOT NULL,
	signature_type        TEXT NOT NULL,
	severity              REAL NOT NULL,
	geometric_signature   BLOB,
	mathematical_evidence TEXT,
	run_id                TEXT NOT NULL,
	computed_at           TEXT NOT NULL,
	UNIQUE (point_id, signature_type, run_id),
	FOREIGN KEY (point_id) REFERENCES manifold_points(id)
);

CREATE INDEX IF NOT EXISTS idx_signatures_point ON signature_records(point_id, signature_type);

CREATE TABLE IF NOT EXISTS evolution_snapshots (
	id           INTEGER PRIMARY KEY AUTOINCREMENT,
	point_id     TEXT NOT NULL,
	field        BLOB NOT NULL,
	computed_at  INTEGER NOT NULL,
	FOREIGN KEY (point_id) REFERENCES manifold_points(id)
);
`

// #endregion schema

// #region sqlite-store

// SQLiteStore is the SQLite-backed DataStore implementation.
type SQLiteStore struct {
	db *sql.DB
}

var _ DataStore = (*SQLiteStore)(nil)

// Open opens (creating if necessary) a SQLite database at dbPath and runs
// migrations, mirroring the reference controller's store constructor:
// WAL journal mode, foreign keys enforced, schema applied idempotently.
func Open(dbPath string) (*SQLiteStore, error) {
	db, err := sql.Open("sqlite", dbPath)
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.Open", "open db", err)
	}
	if _, err := db.Exec("PRAGMA journal_mode=WAL"); err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.Open", "set journal mode", err)
	}
	if _, err := db.Exec("PRAGMA foreign_keys=ON"); err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.Open", "enable foreign keys", err)
	}
	if _, err := db.Exec(schema); err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.Open", "migrate schema", err)
	}
	return &SQLiteStore{db: db}, nil
}

// Close closes the underlying database connection.
func (s *SQLiteStore) Close() error {
	return s.db.Close()
}

// #endregion sqlite-store

// #region points

// PutPoint upserts a ManifoldPoint by id.
func (s *SQLiteStore) PutPoint(p *model.ManifoldPoint) error {
	if p.ID == "" {
		p.ID = uuid.New().String()
	}
	_, err := s.db.Exec(`
		INSERT INTO manifold_points (
			id, source_fingerprint, conversation_id, created_at,
			semantic_field, coherence_field, coherence_magnitude,
			metric_tensor, metric_determinant, christoffel_symbols, ricci_curvature, scalar_curvature,
			recursive_depth, constraint_density, attractor_stability, semantic_mass
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			source_fingerprint = excluded.source_fingerprint,
			conversation_id = excluded.conversation_id,
			semantic_field = excluded.semantic_field,
			coherence_field = excluded.coherence_field,
			coherence_magnitude = excluded.coherence_magnitude,
			metric_tensor = excluded.metric_tensor,
			metric_determinant = excluded.metric_determinant,
			christoffel_symbols = excluded.christoffel_symbols,
			ricci_curvature = excluded.ricci_curvature,
			scalar_curvature = excluded.scalar_curvature,
			recursive_depth = excluded.recursive_depth,
			constraint_density = excluded.constraint_density,
			attractor_stability = excluded.attractor_stability,
			semantic_mass = excluded.semantic_mass`,
		p.ID, p.SourceFingerprint, nullIfEmpty(p.ConversationID), formatTime(p.CreatedAt),
		encodeVector(p.SemanticField), encodeVector(p.CoherenceField), nullableFloat(p.CoherenceMagnitude),
		nullableVector(p.MetricTensor), nullableFloat(p.MetricDeterminant), nullableVector(p.ChristoffelSymbols),
		nullableVector(p.RicciCurvature), nullableFloat(p.ScalarCurvature),
		p.RecursiveDepth, p.ConstraintDensity, p.AttractorStability, nullableFloat(p.SemanticMass),
	)
	if err != nil {
		return kernelerr.New(kernelerr.StoreError, "store.PutPoint", "upsert point", err)
	}
	return nil
}

// GetPoint retrieves a point by id.
func (s *SQLiteStore) GetPoint(id string) (*model.ManifoldPoint, error) {
	row := s.db.QueryRow(`
		SELECT id, source_fingerprint, conversation_id, created_at,
			semantic_field, coherence_field, coherence_magnitude,
			metric_tensor, metric_determinant, christoffel_symbols, ricci_curvature, scalar_curvature,
			recursive_depth, constraint_density, attractor_stability, semantic_mass
		FROM manifold_points WHERE id = ?`, id)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, kernelerr.New(kernelerr.MissingInput, "store.GetPoint", fmt.Sprintf("point %s not found", id), err)
	}
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.GetPoint", "scan point", err)
	}
	return p, nil
}

// limitClause renders " LIMIT ?" with its bind argument, or an empty clause
// and no argument when limit<=0 — SQLite's LIMIT 0 means zero rows, not
// unlimited, so "no limit" has to omit the clause entirely rather than pass
// 0 through.
func limitClause(limit int) (string, []interface{}) {
	if limit <= 0 {
		return "", nil
	}
	return " LIMIT ?", []interface{}{limit}
}

// ListConversationPoints returns the most recent points sharing a conversation id.
func (s *SQLiteStore) ListConversationPoints(conversationID string, limit int) ([]*model.ManifoldPoint, error) {
	clause, limitArgs := limitClause(limit)
	args := append([]interface{}{conversationID}, limitArgs...)
	rows, err := s.db.Query(`
		SELECT id, source_fingerprint, conversation_id, created_at,
			semantic_field, coherence_field, coherence_magnitude,
			metric_tensor, metric_determinant, christoffel_symbols, ricci_curvature, scalar_curvature,
			recursive_depth, constraint_density, attractor_stability, semantic_mass
		FROM manifold_points WHERE conversation_id = ? ORDER BY created_at DESC`+clause, args...)
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.ListConversationPoints", "query", err)
	}
	defer rows.Close()
	return scanPoints(rows)
}

// ListUserPoints returns the most recent points from a source fingerprint.
func (s *SQLiteStore) ListUserPoints(sourceFingerprint string, limit int) ([]*model.ManifoldPoint, error) {
	clause, limitArgs := limitClause(limit)
	args := append([]interface{}{sourceFingerprint}, limitArgs...)
	rows, err := s.db.Query(`
		SELECT id, source_fingerprint, conversation_id, created_at,
			semantic_field, coherence_field, coherence_magnitude,
			metric_tensor, metric_determinant, christoffel_symbols, ricci_curvature, scalar_curvature,
			recursive_depth, constraint_density, attractor_stability, semantic_mass
		FROM manifold_points WHERE source_fingerprint = ? ORDER BY created_at DESC`+clause, args...)
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.ListUserPoints", "query", err)
	}
	defer rows.Close()
	return scanPoints(rows)
}

// LatestCrossSourcePoint returns the most recent point from sourceFingerprint
// excluding a given conversation, used to seed hetero-coupling comparisons.
func (s *SQLiteStore) LatestCrossSourcePoint(sourceFingerprint string, excludeConversationID string) (*model.ManifoldPoint, error) {
	row := s.db.QueryRow(`
		SELECT id, source_fingerprint, conversation_id, created_at,
			semantic_field, coherence_field, coherence_magnitude,
			metric_tensor, metric_determinant, christoffel_symbols, ricci_curvature, scalar_curvature,
			recursive_depth, constraint_density, attractor_stability, semantic_mass
		FROM manifold_points
		WHERE source_fingerprint = ? AND (conversation_id IS NULL OR conversation_id != ?)
		ORDER BY created_at DESC LIMIT 1`, sourceFingerprint, excludeConversationID)
	p, err := scanPoint(row)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.LatestCrossSourcePoint", "scan point", err)
	}
	return p, nil
}

type scannable interface {
	Scan(dest ...interface{}) error
}

func scanPoint(row scannable) (*model.ManifoldPoint, error) {
	var p model.ManifoldPoint
	var conversationID sql.NullString
	var createdStr string
	var semBlob, cohBlob []byte
	var coherenceMag sql.NullFloat64
	var metricBlob, christoffelBlob, ricciBlob []byte
	var metricDet, scalarCurv sql.NullFloat64
	var semanticMass sql.NullFloat64

	if err := row.Scan(
		&p.ID, &p.SourceFingerprint, &conversationID, &createdStr,
		&semBlob, &cohBlob, &coherenceMag,
		&metricBlob, &metricDet, &christoffelBlob, &ricciBlob, &scalarCurv,
		&p.RecursiveDepth, &p.ConstraintDensity, &p.AttractorStability, &semanticMass,
	); err != nil {
		return nil, err
	}

	if conversationID.Valid {
		p.ConversationID = conversationID.String
	}
	p.CreatedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	p.SemanticField = decodeVector(semBlob)
	p.CoherenceField = decodeVector(cohBlob)
	if coherenceMag.Valid {
		v := coherenceMag.Float64
		p.CoherenceMagnitude = &v
	}
	if metricBlob != nil {
		p.MetricTensor = decodeVector(metricBlob)
	}
	if metricDet.Valid {
		v := metricDet.Float64
		p.MetricDeterminant = &v
	}
	if christoffelBlob != nil {
		p.ChristoffelSymbols = decodeVector(christoffelBlob)
	}
	if ricciBlob != nil {
		p.RicciCurvature = decodeVector(ricciBlob)
	}
	if scalarCurv.Valid {
		v := scalarCurv.Float64
		p.ScalarCurvature = &v
	}
	if semanticMass.Valid {
		v := semanticMass.Float64
		p.SemanticMass = &v
	}
	return &p, nil
}

func scanPoints(rows *sql.Rows) ([]*model.ManifoldPoint, error) {
	var out []*model.ManifoldPoint
	for rows.Next() {
		p, err := scanPoint(rows)
		if err != nil {
			return nil, kernelerr.New(kernelerr.StoreError, "store.scanPoints", "scan row", err)
		}
		out = append(out, p)
	}
	return out, rows.Err()
}

// #endregion points

// #region couplings

// PutCoupling inserts or updates a coupling row keyed by its id.
func (s *SQLiteStore) PutCoupling(c model.RecursiveCoupling) error {
	if c.ID == "" {
		c.ID = uuid.New().String()
	}
	if c.ComputedAt.IsZero() {
		c.ComputedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO recursive_couplings (
			id, point_p, point_q, coupling_tensor, coupling_magnitude,
			self_coupling, hetero_coupling, evolution_rate, latent_channels, computed_at
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(id) DO UPDATE SET
			coupling_tensor = excluded.coupling_tensor,
			coupling_magnitude = excluded.coupling_magnitude,
			self_coupling = excluded.self_coupling,
			hetero_coupling = excluded.hetero_coupling,
			evolution_rate = excluded.evolution_rate,
			latent_channels = excluded.latent_channels`,
		c.ID, c.PointP, c.PointQ, nullableVector(c.CouplingTensor), c.CouplingMagnitude,
		c.SelfCoupling, c.HeteroCoupling, c.EvolutionRate, c.LatentChannels, formatTime(c.ComputedAt),
	)
	if err != nil {
		return kernelerr.New(kernelerr.StoreError, "store.PutCoupling", "upsert coupling", err)
	}
	return nil
}

// ListCouplings returns the most recent couplings touching pointID as either endpoint.
func (s *SQLiteStore) ListCouplings(pointID string, limit int) ([]model.RecursiveCoupling, error) {
	clause, limitArgs := limitClause(limit)
	args := append([]interface{}{pointID, pointID}, limitArgs...)
	rows, err := s.db.Query(`
		SELECT id, point_p, point_q, coupling_tensor, coupling_magnitude,
			self_coupling, hetero_coupling, evolution_rate, latent_channels, computed_at
		FROM recursive_couplings WHERE point_p = ? OR point_q = ?
		ORDER BY computed_at DESC`+clause, args...)
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.ListCouplings", "query", err)
	}
	defer rows.Close()

	var out []model.RecursiveCoupling
	for rows.Next() {
		var c model.RecursiveCoupling
		var tensorBlob []byte
		var createdStr string
		if err := rows.Scan(&c.ID, &c.PointP, &c.PointQ, &tensorBlob, &c.CouplingMagnitude,
			&c.SelfCoupling, &c.HeteroCoupling, &c.EvolutionRate, &c.LatentChannels, &createdStr); err != nil {
			return nil, kernelerr.New(kernelerr.StoreError, "store.ListCouplings", "scan row", err)
		}
		if tensorBlob != nil {
			c.CouplingTensor = decodeVector(tensorBlob)
		}
		c.ComputedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, c)
	}
	return out, rows.Err()
}

// ListCouplingsSince returns every coupling computed at or after a given
// time, across all point pairs. Used by cross-source analytics that scan
// the whole coupling set rather than a single point's neighborhood.
func (s *SQLiteStore) ListCouplingsSince(since time.Time) ([]model.RecursiveCoupling, error) {
	rows, err := s.db.Query(`
		SELECT id, point_p, point_q, coupling_tensor, coupling_magnitude,
			self_coupling, hetero_coupling, evolution_rate, latent_channels, computed_at
		FROM recursive_couplings WHERE computed_at >= ?
		ORDER BY computed_at ASC`, formatTime(since))
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.ListCouplingsSince", "query", err)
	}
	defer rows.Close()

	var out []model.RecursiveCoupling
	for rows.Next() {
		var c model.RecursiveCoupling
		var tensorBlob []byte
		var createdStr string
		if err := rows.Scan(&c.ID, &c.PointP, &c.PointQ, &tensorBlob, &c.CouplingMagnitude,
			&c.SelfCoupling, &c.HeteroCoupling, &c.EvolutionRate, &c.LatentChannels, &createdStr); err != nil {
			return nil, kernelerr.New(kernelerr.StoreError, "store.ListCouplingsSince", "scan row", err)
		}
		if tensorBlob != nil {
			c.CouplingTensor = decodeVector(tensorBlob)
		}
		c.ComputedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, c)
	}
	return out, rows.Err()
}

// #endregion couplings

// #region wisdom

// PutWisdom upserts the single active wisdom record for a point, per the
// "at most one active record per point" contract in §6.
func (s *SQLiteStore) PutWisdom(w model.WisdomField) error {
	if w.ComputedAt.IsZero() {
		w.ComputedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO wisdom_fields (point_id, wisdom_value, forecast_sensitivity, gradient_response, humility_factor, recursion_regulation, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(point_id) DO UPDATE SET
			wisdom_value = excluded.wisdom_value,
			forecast_sensitivity = excluded.forecast_sensitivity,
			gradient_response = excluded.gradient_response,
			humility_factor = excluded.humility_factor,
			recursion_regulation = excluded.recursion_regulation,
			computed_at = excluded.computed_at`,
		w.PointID, w.WisdomValue, w.ForecastSensitivity, w.GradientResponse, w.HumilityFactor, w.RecursionRegulation, formatTime(w.ComputedAt),
	)
	if err != nil {
		return kernelerr.New(kernelerr.StoreError, "store.PutWisdom", "upsert wisdom", err)
	}
	return nil
}

// LatestWisdom returns the active wisdom record for a point, or nil if none exists.
func (s *SQLiteStore) LatestWisdom(pointID string) (*model.WisdomField, error) {
	var w model.WisdomField
	var createdStr string
	err := s.db.QueryRow(`
		SELECT point_id, wisdom_value, forecast_sensitivity, gradient_response, humility_factor, recursion_regulation, computed_at
		FROM wisdom_fields WHERE point_id = ?`, pointID,
	).Scan(&w.PointID, &w.WisdomValue, &w.ForecastSensitivity, &w.GradientResponse, &w.HumilityFactor, &w.RecursionRegulation, &createdStr)
	if errors.Is(err, sql.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.LatestWisdom", "query", err)
	}
	w.ComputedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
	return &w, nil
}

// #endregion wisdom

// #region signatures

// AppendSignature inserts a detector output. Idempotent: a repeat call with
// the same (point_id, signature_type, run_id) is silently ignored, matching
// the append-only-idempotent write contract in §5.
func (s *SQLiteStore) AppendSignature(rec model.SignatureRecord) error {
	if rec.ComputedAt.IsZero() {
		rec.ComputedAt = time.Now().UTC()
	}
	_, err := s.db.Exec(`
		INSERT INTO signature_records (point_id, signature_type, severity, geometric_signature, mathematical_evidence, run_id, computed_at)
		VALUES (?, ?, ?, ?, ?, ?, ?)
		ON CONFLICT(point_id, signature_type, run_id) DO NOTHING`,
		rec.PointID, string(rec.SignatureType), rec.Severity, nullableVector(rec.GeometricSignature),
		nullIfEmpty(rec.MathematicalEvidence), rec.RunID, formatTime(rec.ComputedAt),
	)
	if err != nil {
		return kernelerr.New(kernelerr.StoreError, "store.AppendSignature", "insert signature", err)
	}
	return nil
}

// ListSignatures returns the most recent signature records for a point.
func (s *SQLiteStore) ListSignatures(pointID string, limit int) ([]model.SignatureRecord, error) {
	rows, err := s.db.Query(`
		SELECT point_id, signature_type, severity, geometric_signature, mathematical_evidence, run_id, computed_at
		FROM signature_records WHERE point_id = ? ORDER BY computed_at DESC LIMIT ?`, pointID, limit)
	if err != nil {
		return nil, kernelerr.New(kernelerr.StoreError, "store.ListSignatures", "query", err)
	}
	defer rows.Close()

	var out []model.SignatureRecord
	for rows.Next() {
		var rec model.SignatureRecord
		var sigType string
		var geomBlob []byte
		var evidence sql.NullString
		var createdStr string
		if err := rows.Scan(&rec.PointID, &sigType, &rec.Severity, &geomBlob, &evidence, &rec.RunID, &createdStr); err != nil {
			return nil, kernelerr.New(kernelerr.StoreError, "store.ListSignatures", "scan row", err)
		}
		rec.SignatureType = model.SignatureType(sigType)
		if geomBlob != nil {
			rec.GeometricSignature = decodeVector(geomBlob)
		}
		if evidence.Valid {
			rec.MathematicalEvidence = evidence.String
		}
		rec.ComputedAt, _ = time.Parse(time.RFC3339Nano, createdStr)
		out = append(out, rec)
	}
	return out, rows.Err()
}

// #endregion signatures

// #region evolution-snapshots

// AppendEvolutionSnapshot records one step of the field evolution integrator.
// Snapshots are scratch history: append-only, never updated.
func (s *SQLiteStore) AppendEvolutionSnapshot(pointID string, field []float64, computedAt int64) error {
	_, err := s.db.Exec(`
		INSERT INTO evolution_snapshots (point_id, field, computed_at) VALUES (?, ?, ?)`,
		pointID, encodeVector(field), computedAt,
	)
	if err != nil {
		return kernelerr.New(kernelerr.StoreError, "store.AppendEvolutionSnapshot", "insert snapshot", err)
	}
	return nil
}

// #endregion evolution-snapshots

// #region encoding

func encodeVector(v []float64) []byte {
	buf := make([]byte, len(v)*8)
	for i, f := range v {
		binary.LittleEndian.PutUint64(buf[i*8:], math.Float64bits(f))
	}
	return buf
}

func decodeVector(b []byte) []float64 {
	n := len(b) / 8
	v := make([]float64, n)
	for i := 0; i < n; i++ {
		v[i] = math.Float64frombits(binary.LittleEndian.Uint64(b[i*8:]))
	}
	return v
}

func nullableVector(v []float64) interface{} {
	if v == nil {
		return nil
	}
	return encodeVector(v)
}

func nullableFloat(f *float64) interface{} {
	if f == nil {
		return nil
	}
	return *f
}

func nullIfEmpty(s string) interface{} {
	if s == "" {
		return nil
	}
	return s
}

func formatTime(t time.Time) string {
	if t.IsZero() {
		t = time.Now().UTC()
	}
	return t.Format(time.RFC3339Nano)
}

// #endregion encoding
