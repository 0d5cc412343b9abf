package domain

import "time"

// Apply status values.
const (
	ApplyStatusSuccess = "success"
	ApplyStatusPartial = "partial"
	ApplyStatusFailed  = "failed"
)

// ApplyRequest is used to trigger a manual apply.
type ApplyRequest struct {
	// IncludeBundled overrides the server default when set.
	IncludeBundled *bool `json:"include_bundled,omitempty"`
}

// ApplyFailure records a registry call that did not succeed.
type ApplyFailure struct {
	Package string `json:"package"`
	Action  string `json:"action"` // "enable" or "disable"
	Error   string `json:"error"`
}

// ApplyResult is returned after pushing the resolved package states to the
// extension registry.
type ApplyResult struct {
	ID         string         `json:"id"`
	Number     int            `json:"number"`
	Status     string         `json:"status"`
	Enabled    []string       `json:"enabled"`
	Disabled   []string       `json:"disabled"`
	Missing    []string       `json:"missing"`
	Failures   []ApplyFailure `json:"failures,omitempty"`
	StartedAt  time.Time      `json:"started_at"`
	FinishedAt time.Time      `json:"finished_at"`
}
