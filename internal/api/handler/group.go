package handler

import (
	"net/http"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/service"
	"github.com/bcnelson/pkg-groups/internal/validation"
)

// GroupHandler handles group endpoints.
type GroupHandler struct {
	svc *service.GroupService
}

// NewGroupHandler creates a new GroupHandler.
func NewGroupHandler(svc *service.GroupService) *GroupHandler {
	return &GroupHandler{svc: svc}
}

// Create creates a new group.
func (h *GroupHandler) Create(w http.ResponseWriter, r *http.Request) {
	var req domain.CreateGroupRequest
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
	errs = append(errs, validation.ValidatePackages("packages", req.Packages)...)
	if errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	group, err := h.svc.CreateGroup(req.Name, req.Packages)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusCreated, group)
}

// List lists all groups.
func (h *GroupHandler) List(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, h.svc.ListGroups())
}

// Get gets a group by name.
func (h *GroupHandler) Get(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.GetGroup(pathParam(r, "name"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// Update replaces the packages of a group.
func (h *GroupHandler) Update(w http.ResponseWriter, r *http.Request) {
	var req domain.UpdateGroupRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if errs := validation.ValidatePackages("packages", req.Packages); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	group, err := h.svc.UpdateGroup(pathParam(r, "name"), req.Packages)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// Delete deletes a group.
func (h *GroupHandler) Delete(w http.ResponseWriter, r *http.Request) {
	if err := h.svc.DeleteGroup(pathParam(r, "name")); err != nil {
		handleError(w, err)
		return
	}

	w.WriteHeader(http.StatusNoContent)
}

// AddPackages adds packages to a group.
func (h *GroupHandler) AddPackages(w http.ResponseWriter, r *http.Request) {
	var req domain.PackagesRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	if len(req.Packages) == 0 {
		respondError(w, http.StatusBadRequest, "packages is required")
		return
	}
	if errs := validation.ValidatePackages("packages", req.Packages); errs.HasErrors() {
		respondValidationErrors(w, errs)
		return
	}

	group, err := h.svc.AddPackages(pathParam(r, "name"), req.Packages...)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}

// RemovePackage removes one package from a group.
func (h *GroupHandler) RemovePackage(w http.ResponseWriter, r *http.Request) {
	group, err := h.svc.RemovePackages(pathParam(r, "name"), pathParam(r, "pkg"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, group)
}
