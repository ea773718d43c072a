// Package postgres implements the Dataset store on PostgreSQL using pgx.
//
// Datasets and their records are written in a single transaction, with the
// summary stored denormalized as JSONB for fast retrieval. The eviction
// path takes an advisory transaction lock so concurrent uploads cannot both
// observe "count < K" and overshoot the retention window.
package postgres

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/equipsight/equipsight/internal/core"
	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// uploadLockKey scopes the advisory lock serializing the evict+insert path.
const uploadLockKey = 0x45515549 // "EQUI"

var recordColumns = []string{
	"dataset_id", "position", "equipment_name", "equipment_type",
	"flowrate", "pressure", "temperature",
}

// Store persists datasets, records, and audit entries in PostgreSQL.
type Store struct {
	pool *pgxpool.Pool

	mu   sync.Mutex
	now  func() time.Time
	last time.Time
}

// New creates a store backed by the given connection pool.
func New(pool *pgxpool.Pool) *Store {
	return NewWithClock(pool, time.Now)
}

// NewWithClock creates a store with an injected clock. Creation timestamps
// come from this clock, adjusted to stay strictly increasing per process.
func NewWithClock(pool *pgxpool.Pool, now func() time.Time) *Store {
	return &Store{pool: pool, now: now}
}

// Migrate creates the schema if it does not exist.
func (s *Store) Migrate(ctx context.Context) error {
	const ddl = `
CREATE TABLE IF NOT EXISTS datasets (
	id         uuid PRIMARY KEY,
	name       text NOT NULL,
	file_path  text NOT NULL DEFAULT '',
	created_at timestamptz NOT NULL,
	summary    jsonb NOT NULL
);
CREATE INDEX IF NOT EXISTS datasets_created_at_idx ON datasets (created_at);

CREATE TABLE IF NOT EXISTS equipment_records (
	id             bigserial PRIMARY KEY,
	dataset_id     uuid NOT NULL REFERENCES datasets (id),
	position       integer NOT NULL,
	equipment_name text NOT NULL DEFAULT '',
	equipment_type text NOT NULL DEFAULT '',
	flowrate       double precision NOT NULL DEFAULT 0,
	pressure       double precision NOT NULL DEFAULT 0,
	temperature    double precision NOT NULL DEFAULT 0
);
CREATE INDEX IF NOT EXISTS equipment_records_dataset_idx ON equipment_records (dataset_id, position);

CREATE TABLE IF NOT EXISTS audit_log (
	id            uuid PRIMARY KEY,
	action        text NOT NULL,
	dataset_id    uuid,
	dataset_name  text NOT NULL DEFAULT '',
	rows_affected integer NOT NULL DEFAULT 0,
	ip_address    text NOT NULL DEFAULT '',
	user_agent    text NOT NULL DEFAULT '',
	created_at    timestamptz NOT NULL
);
CREATE INDEX IF NOT EXISTS audit_log_created_at_idx ON audit_log (created_at);
`
	if _, err := s.pool.Exec(ctx, ddl); err != nil {
		return &core.StorageError{Op: "migrate", Err: err}
	}
	return nil
}

// Create persists a new dataset and all its records in one transaction.
func (s *Store) Create(ctx context.Context, name, filePath string, records []core.EquipmentRecord, summary core.Summary) (*core.Dataset, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, &core.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	ds, err := s.insertDataset(ctx, tx, name, filePath, records, summary)
	if err != nil {
		return nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, &core.StorageError{Op: "commit create", Err: err}
	}
	return ds, nil
}

// CreateEvicting runs the read-decide-evict-insert sequence inside a single
// transaction guarded by an advisory lock, so the post-condition "at most
// keep datasets" holds even under concurrent uploads.
func (s *Store) CreateEvicting(ctx context.Context, name, filePath string, records []core.EquipmentRecord, summary core.Summary, keep int) (*core.Dataset, []core.DatasetMeta, error) {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return nil, nil, &core.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx, "SELECT pg_advisory_xact_lock($1)", uploadLockKey); err != nil {
		return nil, nil, &core.StorageError{Op: "acquire upload lock", Err: err}
	}

	metas, err := listMetas(ctx, tx)
	if err != nil {
		return nil, nil, err
	}

	evicted := core.EvictionPlan(metas, keep)
	for _, m := range evicted {
		if err := deleteDataset(ctx, tx, m.ID); err != nil {
			return nil, nil, err
		}
	}

	ds, err := s.insertDataset(ctx, tx, name, filePath, records, summary)
	if err != nil {
		return nil, nil, err
	}

	if err := tx.Commit(ctx); err != nil {
		return nil, nil, &core.StorageError{Op: "commit upload", Err: err}
	}
	return ds, evicted, nil
}

// Delete removes a dataset and its records in one transaction.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return &core.StorageError{Op: "begin", Err: err}
	}
	defer tx.Rollback(ctx)

	if err := deleteDataset(ctx, tx, id); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return &core.StorageError{Op: "commit delete", Err: err}
	}
	return nil
}

// Get returns a dataset with its records in input row order.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*core.Dataset, error) {
	ds, err := s.scanDataset(ctx, id)
	if err != nil {
		return nil, err
	}

	ds.Records, err = s.scanRecords(ctx, id)
	if err != nil {
		return nil, err
	}
	return ds, nil
}

// ListRecent returns datasets newest first, records included.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]core.Dataset, error) {
	if limit <= 0 {
		return nil, nil
	}

	rows, err := s.pool.Query(ctx,
		`SELECT id, name, file_path, created_at, summary
		 FROM datasets ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, &core.StorageError{Op: "list datasets", Err: err}
	}
	defer rows.Close()

	var out []core.Dataset
	for rows.Next() {
		ds, err := scanDatasetRow(rows)
		if err != nil {
			return nil, err
		}
		out = append(out, *ds)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list datasets", Err: err}
	}

	for i := range out {
		out[i].Records, err = s.scanRecords(ctx, out[i].ID)
		if err != nil {
			return nil, err
		}
	}
	return out, nil
}

// Append records an audit entry.
func (s *Store) Append(ctx context.Context, entry core.AuditEntry) error {
	var datasetID any
	if entry.DatasetID != uuid.Nil {
		datasetID = entry.DatasetID
	}

	_, err := s.pool.Exec(ctx,
		`INSERT INTO audit_log (id, action, dataset_id, dataset_name, rows_affected, ip_address, user_agent, created_at)
		 VALUES ($1, $2, $3, $4, $5, $6, $7, $8)`,
		entry.ID, string(entry.Action), datasetID, entry.DatasetName,
		entry.Rows, entry.IPAddress, entry.UserAgent, entry.CreatedAt)
	if err != nil {
		return &core.StorageError{Op: "append audit", Err: err}
	}
	return nil
}

// Recent returns the latest audit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, action, dataset_id, dataset_name, rows_affected, ip_address, user_agent, created_at
		 FROM audit_log ORDER BY created_at DESC LIMIT $1`, limit)
	if err != nil {
		return nil, &core.StorageError{Op: "list audit", Err: err}
	}
	defer rows.Close()

	var out []core.AuditEntry
	for rows.Next() {
		var e core.AuditEntry
		var action string
		var datasetID *uuid.UUID
		if err := rows.Scan(&e.ID, &action, &datasetID, &e.DatasetName, &e.Rows, &e.IPAddress, &e.UserAgent, &e.CreatedAt); err != nil {
			return nil, &core.StorageError{Op: "scan audit", Err: err}
		}
		e.Action = core.AuditAction(action)
		if datasetID != nil {
			e.DatasetID = *datasetID
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list audit", Err: err}
	}
	return out, nil
}

func (s *Store) insertDataset(ctx context.Context, tx pgx.Tx, name, filePath string, records []core.EquipmentRecord, summary core.Summary) (*core.Dataset, error) {
	summaryJSON, err := json.Marshal(summary)
	if err != nil {
		return nil, &core.StorageError{Op: "encode summary", Err: err}
	}

	ds := &core.Dataset{
		ID:        uuid.New(),
		Name:      name,
		FilePath:  filePath,
		CreatedAt: s.nextTimestamp(),
		Summary:   summary,
		Records:   records,
	}

	_, err = tx.Exec(ctx,
		`INSERT INTO datasets (id, name, file_path, created_at, summary)
		 VALUES ($1, $2, $3, $4, $5)`,
		ds.ID, ds.Name, ds.FilePath, ds.CreatedAt, summaryJSON)
	if err != nil {
		return nil, &core.StorageError{Op: "insert dataset", Err: err}
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"equipment_records"},
		recordColumns,
		pgx.CopyFromSlice(len(records), func(i int) ([]any, error) {
			r := records[i]
			return []any{ds.ID, i, r.EquipmentName, r.EquipmentType, r.Flowrate, r.Pressure, r.Temperature}, nil
		}))
	if err != nil {
		return nil, &core.StorageError{Op: "copy records", Err: err}
	}

	return ds, nil
}

// deleteDataset enumerates and removes the records within the same atomic
// unit as the dataset row, so orphan records cannot survive a crash.
func deleteDataset(ctx context.Context, tx pgx.Tx, id uuid.UUID) error {
	if _, err := tx.Exec(ctx, `DELETE FROM equipment_records WHERE dataset_id = $1`, id); err != nil {
		return &core.StorageError{Op: "delete records", Err: err}
	}

	tag, err := tx.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return &core.StorageError{Op: "delete dataset", Err: err}
	}
	if tag.RowsAffected() == 0 {
		return core.ErrNotFound
	}
	return nil
}

func listMetas(ctx context.Context, tx pgx.Tx) ([]core.DatasetMeta, error) {
	rows, err := tx.Query(ctx,
		`SELECT id, name, file_path, created_at FROM datasets ORDER BY created_at ASC`)
	if err != nil {
		return nil, &core.StorageError{Op: "list metas", Err: err}
	}
	defer rows.Close()

	var metas []core.DatasetMeta
	for rows.Next() {
		var m core.DatasetMeta
		if err := rows.Scan(&m.ID, &m.Name, &m.FilePath, &m.CreatedAt); err != nil {
			return nil, &core.StorageError{Op: "scan meta", Err: err}
		}
		metas = append(metas, m)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list metas", Err: err}
	}
	return metas, nil
}

func (s *Store) scanDataset(ctx context.Context, id uuid.UUID) (*core.Dataset, error) {
	row := s.pool.QueryRow(ctx,
		`SELECT id, name, file_path, created_at, summary FROM datasets WHERE id = $1`, id)
	return scanDatasetRow(row)
}

func scanDatasetRow(row pgx.Row) (*core.Dataset, error) {
	var ds core.Dataset
	var summaryJSON []byte

	err := row.Scan(&ds.ID, &ds.Name, &ds.FilePath, &ds.CreatedAt, &summaryJSON)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, core.ErrNotFound
	}
	if err != nil {
		return nil, &core.StorageError{Op: "scan dataset", Err: err}
	}

	if err := json.Unmarshal(summaryJSON, &ds.Summary); err != nil {
		return nil, &core.StorageError{Op: "decode summary", Err: fmt.Errorf("dataset %s: %w", ds.ID, err)}
	}
	return &ds, nil
}

func (s *Store) scanRecords(ctx context.Context, id uuid.UUID) ([]core.EquipmentRecord, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT equipment_name, equipment_type, flowrate, pressure, temperature
		 FROM equipment_records WHERE dataset_id = $1 ORDER BY position ASC`, id)
	if err != nil {
		return nil, &core.StorageError{Op: "list records", Err: err}
	}
	defer rows.Close()

	var records []core.EquipmentRecord
	for rows.Next() {
		var r core.EquipmentRecord
		if err := rows.Scan(&r.EquipmentName, &r.EquipmentType, &r.Flowrate, &r.Pressure, &r.Temperature); err != nil {
			return nil, &core.StorageError{Op: "scan record", Err: err}
		}
		records = append(records, r)
	}
	if err := rows.Err(); err != nil {
		return nil, &core.StorageError{Op: "list records", Err: err}
	}
	return records, nil
}

// nextTimestamp returns a creation timestamp strictly greater than any
// previously issued one. Creation time is the sole ordering and eviction
// key, so it must never repeat or run backwards within a process.
func (s *Store) nextTimestamp() time.Time {
	s.mu.Lock()
	defer s.mu.Unlock()

	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Microsecond)
	}
	s.last = t
	return t
}
