package core

import (
	"context"
	"path/filepath"
	"strings"
	"time"

	"github.com/google/uuid"
)

// ServiceConfig holds the tunables for the ingestion service.
type ServiceConfig struct {
	// RetentionLimit is the maximum number of datasets kept (K).
	RetentionLimit int

	// MaxConcurrentUploads caps parallel upload processing.
	MaxConcurrentUploads int

	// MaxUploadWait is how long an upload waits for a processing slot.
	MaxUploadWait time.Duration
}

// Service orchestrates the ingestion pipeline: parse, aggregate, evict,
// commit. Storage, audit, and blob capabilities are injected; there is no
// ambient singleton, and the service itself never logs.
type Service struct {
	store   Store
	audit   AuditLog
	blobs   BlobStore
	limiter *UploadLimiter
	keep    int
}

// NewService creates a Service. audit and blobs may be nil, in which case
// audit recording and raw-file retention are disabled.
func NewService(store Store, audit AuditLog, blobs BlobStore, cfg ServiceConfig) *Service {
	keep := cfg.RetentionLimit
	if keep <= 0 {
		keep = DefaultRetentionLimit
	}

	return &Service{
		store:   store,
		audit:   audit,
		blobs:   blobs,
		limiter: NewUploadLimiter(cfg.MaxConcurrentUploads, cfg.MaxUploadWait),
		keep:    keep,
	}
}

// RetentionLimit returns the configured history window size.
func (s *Service) RetentionLimit() int {
	return s.keep
}

// Upload ingests one uploaded file: parse and aggregate first (no store
// mutation), then evict and create as one atomic step. A rejected upload
// (empty file, unparsable cell) leaves the store and its history untouched.
func (s *Service) Upload(ctx context.Context, fileName string, content []byte) (*Dataset, []DatasetMeta, error) {
	if err := s.limiter.Acquire(ctx); err != nil {
		return nil, nil, err
	}
	defer s.limiter.Release()

	records, err := ParseRecords(content)
	if err != nil {
		return nil, nil, err
	}
	summary := Summarize(records)

	var filePath string
	if s.blobs != nil {
		filePath, err = s.blobs.Save(fileName, content)
		if err != nil {
			return nil, nil, &StorageError{Op: "save upload", Err: err}
		}
	}

	ds, evicted, err := s.store.CreateEvicting(ctx, displayName(fileName), filePath, records, summary, s.keep)
	if err != nil {
		if s.blobs != nil && filePath != "" {
			_ = s.blobs.Remove(filePath)
		}
		return nil, nil, err
	}

	for _, m := range evicted {
		if s.blobs != nil && m.FilePath != "" {
			_ = s.blobs.Remove(m.FilePath)
		}
		s.record(ctx, AuditEntry{
			Action:      ActionEvict,
			DatasetID:   m.ID,
			DatasetName: m.Name,
		})
	}

	s.record(ctx, AuditEntry{
		Action:      ActionUpload,
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		Rows:        len(ds.Records),
	})

	return ds, evicted, nil
}

// ListRecent returns the most recent datasets, newest first. The requested
// limit is capped at the retention limit.
func (s *Service) ListRecent(ctx context.Context, limit int) ([]Dataset, error) {
	if limit <= 0 || limit > s.keep {
		limit = s.keep
	}
	return s.store.ListRecent(ctx, limit)
}

// Get returns a dataset with its ordered records, or ErrNotFound.
func (s *Service) Get(ctx context.Context, id uuid.UUID) (*Dataset, error) {
	return s.store.Get(ctx, id)
}

// Summary returns the stored summary for a dataset, or ErrNotFound.
func (s *Service) Summary(ctx context.Context, id uuid.UUID) (*Summary, error) {
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	return &ds.Summary, nil
}

// Delete removes a dataset and its records, releasing the stored raw file.
func (s *Service) Delete(ctx context.Context, id uuid.UUID) error {
	ds, err := s.store.Get(ctx, id)
	if err != nil {
		return err
	}

	if err := s.store.Delete(ctx, id); err != nil {
		return err
	}

	if s.blobs != nil && ds.FilePath != "" {
		_ = s.blobs.Remove(ds.FilePath)
	}

	s.record(ctx, AuditEntry{
		Action:      ActionDelete,
		DatasetID:   ds.ID,
		DatasetName: ds.Name,
		Rows:        len(ds.Records),
	})

	return nil
}

// AuditTrail returns the most recent audit entries, newest first.
func (s *Service) AuditTrail(ctx context.Context, limit int) ([]AuditEntry, error) {
	if s.audit == nil {
		return nil, nil
	}
	if limit <= 0 {
		limit = 50
	}
	return s.audit.Recent(ctx, limit)
}

// LimiterStatus reports upload concurrency for monitoring and shutdown.
func (s *Service) LimiterStatus() LimiterStatus {
	return s.limiter.Status()
}

// WaitForUploads blocks until in-flight uploads finish or ctx is cancelled.
func (s *Service) WaitForUploads(ctx context.Context) error {
	return s.limiter.WaitForDrain(ctx)
}

// record appends an audit entry, filling in identity, client metadata, and
// timestamp. Audit failure never fails the primary operation.
func (s *Service) record(ctx context.Context, entry AuditEntry) {
	if s.audit == nil {
		return
	}

	entry.ID = uuid.New()
	entry.CreatedAt = time.Now().UTC()
	entry.IPAddress = IPAddressFromContext(ctx)
	entry.UserAgent = UserAgentFromContext(ctx)

	_ = s.audit.Append(ctx, entry)
}

// displayName derives the dataset display name from the uploaded filename,
// stripping any path components a client might smuggle in.
func displayName(fileName string) string {
	name := filepath.Base(strings.ReplaceAll(fileName, "\\", "/"))
	if name == "." || name == string(filepath.Separator) || name == "" {
		return "upload.csv"
	}
	return name
}
