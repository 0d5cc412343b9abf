package domain

// CreateGroupRequest is the request body for creating a group.
type CreateGroupRequest struct {
	Name     string   `json:"name"`
	Packages []string `json:"packages"`
}

// UpdateGroupRequest is the request body for replacing a group's packages.
type UpdateGroupRequest struct {
	Packages []string `json:"packages"`
}

// PackagesRequest is the request body for adding packages to a group.
type PackagesRequest struct {
	Packages []string `json:"packages"`
}

// CreateMetaRequest is the request body for creating a meta-group.
type CreateMetaRequest struct {
	Name   string   `json:"name"`
	States StateMap `json:"states"`
}

// UpdateMetaRequest is the request body for replacing a meta-group's states.
type UpdateMetaRequest struct {
	States StateMap `json:"states"`
}

// SetStateRequest is the request body for the top-level state toggle.
type SetStateRequest struct {
	State TopState `json:"state"`
}

// StateResponse describes the state of a group or meta-group name.
type StateResponse struct {
	Name string   `json:"name"`
	Kind Kind     `json:"kind"`
	Top  TopState `json:"top"`
	// Effective is the resolved state, empty when nothing assigns one.
	Effective State `json:"effective,omitempty"`
}

// DifferencesResponse lists the packages whose registry state does not match
// the resolved state.
type DifferencesResponse struct {
	Enabled  []string `json:"enabled"`
	Disabled []string `json:"disabled"`
	Missing  []string `json:"missing"`
}

// Response returns d with every set sorted.
func (d Differences) Response() DifferencesResponse {
	return DifferencesResponse{
		Enabled:  d.Enabled.Sorted(),
		Disabled: d.Disabled.Sorted(),
		Missing:  d.Missing.Sorted(),
	}
}
