package handler

import (
	"errors"
	"io"
	"net/http"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/service"
)

// ApplyHandler handles registry apply endpoints.
type ApplyHandler struct {
	svc *service.GroupService
}

// NewApplyHandler creates a new ApplyHandler.
func NewApplyHandler(svc *service.GroupService) *ApplyHandler {
	return &ApplyHandler{svc: svc}
}

// Apply pushes the resolved package states to the registry. The body is
// optional.
func (h *ApplyHandler) Apply(w http.ResponseWriter, r *http.Request) {
	var req domain.ApplyRequest
	if err := decodeJSON(w, r, &req); err != nil && !errors.Is(err, io.EOF) {
		handleError(w, err)
		return
	}

	includeBundled := h.svc.IncludeBundled()
	if req.IncludeBundled != nil {
		includeBundled = *req.IncludeBundled
	}

	result, err := h.svc.Apply(r.Context(), includeBundled)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, result)
}

// Last returns the most recent apply result.
func (h *ApplyHandler) Last(w http.ResponseWriter, r *http.Request) {
	result := h.svc.LastApply()
	if result == nil {
		respondStandardError(w, http.StatusNotFound, domain.ErrCodeResourceNotFound, "nothing has been applied yet", "", nil)
		return
	}

	respondJSON(w, http.StatusOK, result)
}
