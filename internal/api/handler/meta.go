package handler

import (
	"net/http"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/service"
	"github.com/bcnelson/pkg-groups/internal/validation"
)

// MetaHandler handles meta-group endpoints.
type MetaHandler struct {
	svc *service.GroupService
}

// NewMetaHandler creates a new MetaHandler.
func NewMetaHandler(svc *service.GroupService) *MetaHandler {
	return &MetaHandler{svc: svc}
}

// Create creates a new meta-group.
func (h *MetaHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateMetaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}

	if req.Name == "" {
		respondError(w, http.StatusBadRequest, "name is required")
		return
	}

	var errs validation.ValidationErrors
	if err := validation.ValidateGroupName(req.Name); err != nil {
		errs.Add("name", req.Name, err.Error())
	}
	errs = append(errs, validation.ValidateStates("states", req.States)...)
	if errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	meta, err := h.svc.CreateMeta(req.Name, req.States)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, meta)
}

// List lists all meta-groups.
func (h *MetaHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListMetas())
}

// Get gets a meta-group by name.
func (h *MetaHandler) Get(w http.ResponseWriter, r *http.Request) {
	meta, err := h.svc.GetMeta(pathParam(r, "name"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meta)
}

// Update replaces the assignments of a meta-group.
func (h *MetaHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateMetaRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if errs := validation.ValidateStates("states", req.States); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	meta, err := h.svc.UpdateMeta(pathParam(r, "name"), req.States)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, meta)
}

// Delete deletes a meta-group.
func (h *MetaHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteMeta(pathParam(r, "name")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// Groups lists every group a meta-group reaches, directly or through nested
// meta-groups.
func (h *MetaHandler) Groups(w http.ResponseWriter, r *http.Request) {
	groups, err := h.svc.GroupsForMeta(pathParam(r, "name"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, groups)
}
