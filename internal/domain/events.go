package domain

// EventType identifies what happened to a group or meta-group.
type EventType string

const (
	EventAdd    EventType = "add"
	EventDelete EventType = "delete"
	EventChange EventType = "change"
	// EventState reports a top-level state toggle. An empty State means unset.
	EventState EventType = "state"
	// EventReset reports that the whole store was replaced. Name and Kind
	// are empty.
	EventReset EventType = "reset"
)

// Event is emitted by the store after a mutation.
type Event struct {
	Type EventType `json:"type"`
	Name string    `json:"name,omitempty"`
	Kind Kind      `json:"kind,omitempty"`
	// Members is set on change events for groups (package ids) and metas
	// (referenced names).
	Members []string `json:"members,omitempty"`
	// State is the new top-level state on EventState.
	State TopState `json:"state,omitempty"`
}
