// Package registry provides implementations of the host extension registry
// that the group model diffs against.
package registry

import (
	"context"
	"slices"
	"sync"

	"github.com/bcnelson/pkg-groups/internal/model"
)

// Registry is the read side of a host extension manager.
type Registry = model.Registry

// Applier switches packages on and off in the host.
type Applier interface {
	Enable(ctx context.Context, id string) error
	Disable(ctx context.Context, id string) error
}

// Snapshot is the file and wire form of a registry.
type Snapshot struct {
	Available []string `json:"available"`
	Bundled   []string `json:"bundled,omitempty"`
	Disabled  []string `json:"disabled,omitempty"`
}

// Static is an in-memory registry. It is safe for concurrent use.
type Static struct {
	mu        sync.RWMutex
	available []string
	bundled   map[string]bool
	disabled  map[string]bool
}

// Ensure Static implements Registry and Applier.
var (
	_ Registry = (*Static)(nil)
	_ Applier  = (*Static)(nil)
)

// NewStatic creates a registry reporting available packages, marking those in
// bundled as part of the base set and those in disabled as switched off.
func NewStatic(available, bundled, disabled []string) *Static {
	s := &Static{}
	s.load(Snapshot{Available: available, Bundled: bundled, Disabled: disabled})
	return s
}

func (s *Static) load(snap Snapshot) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.available = slices.Clone(snap.Available)
	s.bundled = toFlags(snap.Bundled)
	s.disabled = toFlags(snap.Disabled)
}

func toFlags(ids []string) map[string]bool {
	out := make(map[string]bool, len(ids))
	for _, id := range ids {
		out[id] = true
	}
	return out
}

// ListAvailable returns the available packages. A nil *Static is an empty
// registry.
func (s *Static) ListAvailable() []string {
	if s == nil {
		return nil
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return slices.Clone(s.available)
}

func (s *Static) IsBundled(id string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.bundled[id]
}

func (s *Static) IsDisabled(id string) bool {
	if s == nil {
		return false
	}
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.disabled[id]
}

// Enable clears the disabled flag of id.
func (s *Static) Enable(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.disabled, id)
	return nil
}

// Disable sets the disabled flag of id.
func (s *Static) Disable(_ context.Context, id string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.disabled[id] = true
	return nil
}

// Snapshot returns the current contents. Lists are sorted except Available,
// which keeps its order.
func (s *Static) Snapshot() Snapshot {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return Snapshot{
		Available: slices.Clone(s.available),
		Bundled:   sortedKeys(s.bundled),
		Disabled:  sortedKeys(s.disabled),
	}
}

func sortedKeys(m map[string]bool) []string {
	out := make([]string, 0, len(m))
	for k, v := range m {
		if v {
			out = append(out, k)
		}
	}
	slices.Sort(out)
	return out
}
