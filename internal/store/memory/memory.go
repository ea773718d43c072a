// Package memory provides an in-memory Dataset store.
//
// It backs the test suite and the database-less development mode. All
// operations are guarded by a single mutex, which trivially serializes the
// read-decide-evict-insert sequence that the postgres store serializes with
// an advisory lock.
package memory

import (
	"context"
	"sync"
	"time"

	"github.com/equipsight/equipsight/internal/core"
	"github.com/google/uuid"
)

// Store keeps datasets, records, and audit entries in process memory.
type Store struct {
	mu   sync.RWMutex
	now  func() time.Time
	last time.Time

	datasets map[uuid.UUID]*core.Dataset
	order    []uuid.UUID // ascending by creation time
	audit    []core.AuditEntry
}

// New creates an empty store using the wall clock.
func New() *Store {
	return NewWithClock(time.Now)
}

// NewWithClock creates an empty store with an injected clock, letting tests
// control creation timestamps deterministically.
func NewWithClock(now func() time.Time) *Store {
	return &Store{
		now:      now,
		datasets: make(map[uuid.UUID]*core.Dataset),
	}
}

// Create persists a new dataset atomically.
func (s *Store) Create(ctx context.Context, name, filePath string, records []core.EquipmentRecord, summary core.Summary) (*core.Dataset, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.createLocked(name, filePath, records, summary), nil
}

// CreateEvicting applies the retention policy and the insert under one lock
// acquisition, so an observer never sees more than keep datasets once the
// call returns.
func (s *Store) CreateEvicting(ctx context.Context, name, filePath string, records []core.EquipmentRecord, summary core.Summary, keep int) (*core.Dataset, []core.DatasetMeta, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	evicted := core.EvictionPlan(s.metasLocked(), keep)
	for _, m := range evicted {
		s.deleteLocked(m.ID)
	}

	ds := s.createLocked(name, filePath, records, summary)
	return ds, evicted, nil
}

// Delete removes a dataset and its records. Unknown ids report ErrNotFound.
func (s *Store) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	if _, ok := s.datasets[id]; !ok {
		return core.ErrNotFound
	}
	s.deleteLocked(id)
	return nil
}

// Get returns a copy of the dataset with its ordered records.
func (s *Store) Get(ctx context.Context, id uuid.UUID) (*core.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	ds, ok := s.datasets[id]
	if !ok {
		return nil, core.ErrNotFound
	}

	out := cloneDataset(ds)
	return &out, nil
}

// ListRecent returns datasets newest first, truncated to limit.
func (s *Store) ListRecent(ctx context.Context, limit int) ([]core.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 {
		return nil, nil
	}

	out := make([]core.Dataset, 0, limit)
	for i := len(s.order) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, cloneDataset(s.datasets[s.order[i]]))
	}
	return out, nil
}

// Append records an audit entry.
func (s *Store) Append(ctx context.Context, entry core.AuditEntry) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	s.audit = append(s.audit, entry)
	return nil
}

// Recent returns the latest audit entries, newest first.
func (s *Store) Recent(ctx context.Context, limit int) ([]core.AuditEntry, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	if limit <= 0 || limit > len(s.audit) {
		limit = len(s.audit)
	}

	out := make([]core.AuditEntry, 0, limit)
	for i := len(s.audit) - 1; i >= 0 && len(out) < limit; i-- {
		out = append(out, s.audit[i])
	}
	return out, nil
}

// Count returns the number of datasets currently stored.
func (s *Store) Count() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.order)
}

func (s *Store) createLocked(name, filePath string, records []core.EquipmentRecord, summary core.Summary) *core.Dataset {
	ds := &core.Dataset{
		ID:        uuid.New(),
		Name:      name,
		FilePath:  filePath,
		CreatedAt: s.nextTimestampLocked(),
		Summary:   summary,
		Records:   append([]core.EquipmentRecord(nil), records...),
	}

	s.datasets[ds.ID] = ds
	s.order = append(s.order, ds.ID)

	out := cloneDataset(ds)
	return &out
}

func (s *Store) deleteLocked(id uuid.UUID) {
	delete(s.datasets, id)
	for i, oid := range s.order {
		if oid == id {
			s.order = append(s.order[:i], s.order[i+1:]...)
			break
		}
	}
}

func (s *Store) metasLocked() []core.DatasetMeta {
	metas := make([]core.DatasetMeta, 0, len(s.order))
	for _, id := range s.order {
		ds := s.datasets[id]
		metas = append(metas, core.DatasetMeta{
			ID:        ds.ID,
			Name:      ds.Name,
			FilePath:  ds.FilePath,
			CreatedAt: ds.CreatedAt,
		})
	}
	return metas
}

// nextTimestampLocked returns a creation timestamp that is strictly greater
// than any previously issued one, even when the clock stalls or runs
// backwards. Creation time is the sole ordering key, so it must be
// monotonic.
func (s *Store) nextTimestampLocked() time.Time {
	t := s.now()
	if !t.After(s.last) {
		t = s.last.Add(time.Nanosecond)
	}
	s.last = t
	return t
}

func cloneDataset(ds *core.Dataset) core.Dataset {
	out := *ds
	out.Records = append([]core.EquipmentRecord(nil), ds.Records...)
	if ds.Summary.EquipmentTypes != nil {
		out.Summary.EquipmentTypes = make(map[string]int, len(ds.Summary.EquipmentTypes))
		for k, v := range ds.Summary.EquipmentTypes {
			out.Summary.EquipmentTypes[k] = v
		}
	}
	return out
}
