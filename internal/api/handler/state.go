package handler

import (
	"net/http"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/service"
)

// StateHandler handles state and resolution endpoints.
type StateHandler struct {
	svc *service.GroupService
}

// NewStateHandler creates a new StateHandler.
func NewStateHandler(svc *service.GroupService) *StateHandler {
	return &StateHandler{svc: svc}
}

// Get returns the top-level and effective state of a name.
func (h *StateHandler) Get(w http.ResponseWriter, r *http.Request) {
	st, err := h.svc.State(pathParam(r, "name"))
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, st)
}

// Set sets the top-level state of a name. "unset" clears it.
func (h *StateHandler) Set(w http.ResponseWriter, r *http.Request) {
	var req domain.SetStateRequest
	if err := decodeJSON(w, r, &req); err != nil {
		handleError(w, err)
		return
	}
	state, err := domain.ParseTopState(string(req.State))
	if err != nil {
		respondValidationError(w, "state", string(req.State), "state must be enabled, disabled or unset")
		return
	}

	st, err := h.svc.SetState(pathParam(r, "name"), state)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, st)
}

// PackageStates returns the resolved state of every referenced package.
func (h *StateHandler) PackageStates(w http.ResponseWriter, r *http.Request) {
	states, err := h.svc.PackageStates()
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, states)
}

// Differences compares the resolved states with the extension registry.
func (h *StateHandler) Differences(w http.ResponseWriter, r *http.Request) {
	includeBundled, err := boolQuery(r, "include_bundled", h.svc.IncludeBundled())
	if err != nil {
		handleError(w, err)
		return
	}

	diff, err := h.svc.Differences(includeBundled)
	if err != nil {
		handleError(w, err)
		return
	}

	respondJSON(w, http.StatusOK, diff.Response())
}
