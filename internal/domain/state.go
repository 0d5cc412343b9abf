package domain

import (
	"fmt"
)

// State is the enable/disable verdict for a package, group or meta-group.
type State string

const (
	StateEnabled  State = "enabled"
	StateDisabled State = "disabled"
)

// Valid reports whether s is one of the two concrete states.
func (s State) Valid() bool {
	return s == StateEnabled || s == StateDisabled
}

// ParseState converts a string to a State.
func ParseState(s string) (State, error) {
	st := State(s)
	if !st.Valid() {
		return "", fmt.Errorf("%w: state must be %q or %q, got %q", ErrInvalidArgument, StateEnabled, StateDisabled, s)
	}
	return st, nil
}

// TopState is the tri-state value of a top-level toggle. The zero value is
// TopUnset.
type TopState string

const (
	TopUnset    TopState = ""
	TopEnabled  TopState = TopState(StateEnabled)
	TopDisabled TopState = TopState(StateDisabled)
)

// ParseTopState accepts "enabled", "disabled", "unset" or "".
func ParseTopState(s string) (TopState, error) {
	switch s {
	case "", "unset":
		return TopUnset, nil
	case string(StateEnabled):
		return TopEnabled, nil
	case string(StateDisabled):
		return TopDisabled, nil
	}
	return TopUnset, fmt.Errorf("%w: state must be enabled, disabled or unset, got %q", ErrInvalidArgument, s)
}

// Kind distinguishes groups from meta-groups.
type Kind string

const (
	KindGroup Kind = "group"
	KindMeta  Kind = "meta"
)
