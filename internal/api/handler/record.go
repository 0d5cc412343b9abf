package handler

import (
	"bytes"
	"fmt"
	"io"
	"net/http"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/hujsonfile"
	"github.com/bcnelson/pkg-groups/internal/model"
	"github.com/bcnelson/pkg-groups/internal/service"
	"github.com/bcnelson/pkg-groups/internal/validation"
)

// RecordHandler reads and replaces the whole store.
type RecordHandler struct {
	svc *service.GroupService
}

// NewRecordHandler creates a new RecordHandler.
func NewRecordHandler(svc *service.GroupService) *RecordHandler {
	return &RecordHandler{svc: svc}
}

// Get returns the serialized store. The ETag names the store version.
func (h *RecordHandler) Get(w http.ResponseWriter, r *http.Request) {
	rec, version := h.svc.VersionedRecord()
	w.Header().Set("ETag", recordETag(version))
	respondJSON(w, http.StatusOK, rec)
}

// Put replaces the store with the record in the body. Comments and trailing
// commas are accepted. With If-Match the replacement only happens when the
// store is still at that version.
func (h *RecordHandler) Put(w http.ResponseWriter, r *http.Request) {
	version, conditional, valid := ifMatchVersion(r)
	if !valid {
		respondValidationError(w, "If-Match", r.Header.Get("If-Match"), "not a record ETag")
		return
	}

	body, err := io.ReadAll(http.MaxBytesReader(w, r.Body, maxBodyBytes))
	if err != nil {
		handleError(w, fmt.Errorf("%w: reading body: %w", domain.ErrInvalidArgument, err))
		return
	}
	rec, err := parseRecord(body)
	if err != nil {
		handleError(w, err)
		return
	}
	if errs := validation.ValidateRecord(rec); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	if conditional {
		err = h.svc.ReplaceRecordIfVersion(rec, version)
	} else {
		err = h.svc.ReplaceRecord(rec)
	}
	if err != nil {
		handleError(w, err)
		return
	}

	rec, version = h.svc.VersionedRecord()
	w.Header().Set("ETag", recordETag(version))
	respondJSON(w, http.StatusOK, rec)
}

// parseRecord decodes a HuJSON record with the same rules as the store's
// JSON constructor.
func parseRecord(body []byte) (domain.Record, error) {
	if len(bytes.TrimSpace(body)) > 0 {
		std, err := hujsonfile.Standardize(body)
		if err != nil {
			return domain.Record{}, fmt.Errorf("%w: %w", domain.ErrFormat, err)
		}
		body = std
	}
	store, err := model.FromJSON(body)
	if err != nil {
		return domain.Record{}, err
	}
	return store.Serialize(), nil
}
