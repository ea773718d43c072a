package web

import (
	"fmt"
	"io"
	"net/http"
	"strconv"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/equipsight/equipsight/internal/core"
	"github.com/equipsight/equipsight/internal/logging"
	"github.com/equipsight/equipsight/internal/report"
)

// handleHealth reports liveness.
func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]any{
		"status":  "ok",
		"uploads": s.service.LimiterStatus(),
	})
}

// handleUpload accepts a multipart CSV upload and creates a dataset.
//
// The whole file is parsed before anything is stored, so a rejected upload
// never evicts an existing dataset.
func (s *Server) handleUpload(w http.ResponseWriter, r *http.Request) {
	maxSize := s.cfg.Upload.MaxFileSize
	r.Body = http.MaxBytesReader(w, r.Body, maxSize)

	if err := r.ParseMultipartForm(maxSize); err != nil {
		s.respondError(w, r, &core.EmptyInputError{Reason: "file too large or invalid form"})
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		s.respondError(w, r, &core.EmptyInputError{Reason: "no file provided"})
		return
	}
	defer file.Close()

	content, err := io.ReadAll(file)
	if err != nil {
		s.respondError(w, r, &core.StorageError{Op: "read upload", Err: err})
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	ctx := WithRequestMetadata(r.Context(), r)
	dataset, evicted, err := s.service.Upload(ctx, name, content)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusCreated, map[string]any{
		"dataset": dataset,
		"evicted": evictedIDs(evicted),
	})
}

func evictedIDs(evicted []core.DatasetMeta) []string {
	ids := make([]string, 0, len(evicted))
	for _, m := range evicted {
		ids = append(ids, m.ID.String())
	}
	return ids
}

// handleListDatasets returns the retained datasets, newest first.
func (s *Server) handleListDatasets(w http.ResponseWriter, r *http.Request) {
	limit := core.DefaultRetentionLimit
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondBadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}

	datasets, err := s.service.ListRecent(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":    len(datasets),
		"datasets": datasets,
	})
}

// datasetID parses the {datasetID} URL parameter.
func datasetID(r *http.Request) (uuid.UUID, error) {
	raw := chi.URLParam(r, "datasetID")
	id, err := uuid.Parse(raw)
	if err != nil {
		return uuid.Nil, fmt.Errorf("invalid dataset id %q: %w", raw, core.ErrNotFound)
	}
	return id, nil
}

// handleGetDataset returns one dataset with its records.
func (s *Server) handleGetDataset(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	dataset, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, dataset)
}

// handleGetSummary returns only the stored summary for a dataset.
func (s *Server) handleGetSummary(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	summary, err := s.service.Summary(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, summary)
}

// handleGetReport streams a PDF summary report for a dataset.
func (s *Server) handleGetReport(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	dataset, err := s.service.Get(r.Context(), id)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	w.Header().Set("Content-Type", "application/pdf")
	w.Header().Set("Content-Disposition",
		fmt.Sprintf("attachment; filename=%q", "report_"+id.String()+".pdf"))

	if err := report.Render(w, dataset.Name, dataset.CreatedAt, dataset.Summary); err != nil {
		// Headers are already sent; a status rewrite or JSON body would only
		// corrupt the partial PDF. Log and abort the response.
		logging.FromContext(r.Context()).Error("report render failed",
			"dataset_id", id,
			"error", err,
		)
	}
}

// handleDeleteDataset removes a dataset and its records.
func (s *Server) handleDeleteDataset(w http.ResponseWriter, r *http.Request) {
	id, err := datasetID(r)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	ctx := WithRequestMetadata(r.Context(), r)
	if err := s.service.Delete(ctx, id); err != nil {
		s.respondError(w, r, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// handleAuditTrail returns recent audit entries, newest first.
func (s *Server) handleAuditTrail(w http.ResponseWriter, r *http.Request) {
	limit := 50
	if raw := r.URL.Query().Get("limit"); raw != "" {
		n, err := strconv.Atoi(raw)
		if err != nil || n < 1 {
			s.respondBadRequest(w, r, "limit must be a positive integer")
			return
		}
		limit = n
	}

	entries, err := s.service.AuditTrail(r.Context(), limit)
	if err != nil {
		s.respondError(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, map[string]any{
		"count":        len(entries),
		"entries":      entries,
		"generated_at": time.Now().UTC(),
	})
}
