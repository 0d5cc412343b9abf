package model

import (
	"fmt"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// Registry reports which extensions the host has, which belong to the
// bundled base set, and which are currently disabled.
type Registry interface {
	ListAvailable() []string
	IsBundled(id string) bool
	IsDisabled(id string) bool
}

// ActualStates reads the state the registry reports for every available
// package, skipping bundled packages unless includeBundled is set.
func ActualStates(reg Registry, includeBundled bool) map[string]domain.State {
	actual := make(map[string]domain.State)
	for _, id := range reg.ListAvailable() {
		if !includeBundled && reg.IsBundled(id) {
			continue
		}
		if reg.IsDisabled(id) {
			actual[id] = domain.StateDisabled
		} else {
			actual[id] = domain.StateEnabled
		}
	}
	return actual
}

// Differences compares PackageStates with the registry. reg must be usable
// as a value: a nil interface is rejected, but a typed nil pointer is only
// safe when its methods accept a nil receiver.
func (s *Store) Differences(reg Registry, includeBundled bool) (domain.Differences, error) {
	if reg == nil {
		return domain.Differences{}, fmt.Errorf("%w: Differences needs a registry", domain.ErrInvalidArgument)
	}
	expected, err := s.PackageStates()
	if err != nil {
		return domain.Differences{}, err
	}
	actual := ActualStates(reg, includeBundled)

	diff := domain.Differences{
		Enabled:  domain.NewSet(),
		Disabled: domain.NewSet(),
		Missing:  domain.NewSet(),
	}
	for id, want := range expected {
		have, ok := actual[id]
		switch {
		case !ok:
			diff.Missing.Add(id)
		case want == domain.StateEnabled && have == domain.StateDisabled:
			diff.Disabled.Add(id)
		case want == domain.StateDisabled && have == domain.StateEnabled:
			diff.Enabled.Add(id)
		}
	}
	return diff, nil
}
