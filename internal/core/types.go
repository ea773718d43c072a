package core

import (
	"context"
	"time"

	"github.com/google/uuid"
)

// EquipmentRecord is a single equipment reading within a dataset.
// Records are immutable once created and only exist as part of a Dataset.
type EquipmentRecord struct {
	EquipmentName string  `json:"equipment_name"`
	EquipmentType string  `json:"equipment_type"`
	Flowrate      float64 `json:"flowrate"`
	Pressure      float64 `json:"pressure"`
	Temperature   float64 `json:"temperature"`
}

// Dataset is one uploaded batch of equipment readings plus its derived summary.
// Records preserve input row order. The summary is stored denormalized so
// consumers (report renderer, clients) never recompute it.
type Dataset struct {
	ID        uuid.UUID         `json:"id"`
	Name      string            `json:"name"`
	FilePath  string            `json:"-"`
	CreatedAt time.Time         `json:"upload_date"`
	Summary   Summary           `json:"summary_data"`
	Records   []EquipmentRecord `json:"records"`
}

// DatasetMeta is the identifying slice of a Dataset used for retention
// decisions and blob cleanup. It carries no records.
type DatasetMeta struct {
	ID        uuid.UUID
	Name      string
	FilePath  string
	CreatedAt time.Time
}

// FieldAverages holds the arithmetic mean of each numeric field.
type FieldAverages struct {
	Flowrate    float64 `json:"flowrate"`
	Pressure    float64 `json:"pressure"`
	Temperature float64 `json:"temperature"`
}

// Range is a min/max pair for one numeric field.
type Range struct {
	Min float64 `json:"min"`
	Max float64 `json:"max"`
}

// FieldRanges holds the observed range of each numeric field.
type FieldRanges struct {
	Flowrate    Range `json:"flowrate"`
	Pressure    Range `json:"pressure"`
	Temperature Range `json:"temperature"`
}

// Summary contains the aggregate statistics for one dataset.
// Its JSON form is the wire representation served to clients and is stored
// as-is alongside the dataset, so it must round-trip losslessly.
type Summary struct {
	TotalCount     int            `json:"total_count"`
	EquipmentTypes map[string]int `json:"equipment_types"`
	Averages       FieldAverages  `json:"averages"`
	Ranges         FieldRanges    `json:"ranges"`
}

// Store persists datasets and their records.
//
// Implementations must guarantee that Create and CreateEvicting are atomic:
// either the dataset and all its records become visible together, or nothing
// does. CreateEvicting additionally serializes the read-decide-evict-insert
// sequence so concurrent uploads can never leave more than `keep` datasets
// behind.
type Store interface {
	// Create persists a new dataset with a fresh identifier and a
	// monotonically increasing creation timestamp.
	Create(ctx context.Context, name, filePath string, records []EquipmentRecord, summary Summary) (*Dataset, error)

	// CreateEvicting applies the retention policy and persists the new
	// dataset in one atomic unit. It returns the evicted dataset metas so
	// the caller can release associated resources (e.g. stored blobs).
	CreateEvicting(ctx context.Context, name, filePath string, records []EquipmentRecord, summary Summary, keep int) (*Dataset, []DatasetMeta, error)

	// Delete removes a dataset and cascades to its records.
	// Returns ErrNotFound for an unknown id.
	Delete(ctx context.Context, id uuid.UUID) error

	// Get returns a dataset with its ordered records, or ErrNotFound.
	Get(ctx context.Context, id uuid.UUID) (*Dataset, error)

	// ListRecent returns datasets ordered by creation time descending,
	// truncated to limit. Records are included.
	ListRecent(ctx context.Context, limit int) ([]Dataset, error)
}

// AuditLog records data-modifying actions for later review.
type AuditLog interface {
	Append(ctx context.Context, entry AuditEntry) error
	Recent(ctx context.Context, limit int) ([]AuditEntry, error)
}

// BlobStore keeps the raw uploaded files keyed by path.
type BlobStore interface {
	// Save writes the file content and returns the storage path.
	Save(name string, data []byte) (string, error)

	// Remove deletes a previously saved file. Removing a missing path is
	// not an error.
	Remove(path string) error
}
