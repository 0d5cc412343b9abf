package model

import (
	"fmt"
	"strings"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// expansion tracks the meta-groups on the current walk so a chain that
// refers back to itself is reported instead of recursing forever.
type expansion struct {
	path  []string
	onWay map[string]struct{}
}

func (e *expansion) enter(name string) error {
	if e.onWay == nil {
		e.onWay = make(map[string]struct{})
	}
	if _, ok := e.onWay[name]; ok {
		return fmt.Errorf("%w: %s -> %s", domain.ErrCyclicReference, strings.Join(e.path, " -> "), name)
	}
	e.onWay[name] = struct{}{}
	e.path = append(e.path, name)
	return nil
}

func (e *expansion) leave(name string) {
	delete(e.onWay, name)
	e.path = e.path[:len(e.path)-1]
}

// GroupsForMeta returns the names of all groups meta references, expanding
// nested meta-groups. Names that resolve to nothing are ignored.
func (s *Store) GroupsForMeta(meta *domain.MetaGroup) (domain.Set, error) {
	if meta == nil {
		return nil, fmt.Errorf("%w: GroupsForMeta expects a meta-group", domain.ErrInvalidArgument)
	}
	out := domain.NewSet()
	if err := s.collectGroups(meta, out, &expansion{}); err != nil {
		return nil, err
	}
	return out, nil
}

func (s *Store) collectGroups(meta *domain.MetaGroup, out domain.Set, walk *expansion) error {
	if err := walk.enter(meta.Name()); err != nil {
		return err
	}
	defer walk.leave(meta.Name())

	for ref := range meta.ReferencedNames() {
		if s.IsGroup(ref) {
			out.Add(ref)
			continue
		}
		if nested, ok := s.metas[ref]; ok {
			if err := s.collectGroups(nested, out, walk); err != nil {
				return err
			}
		}
	}
	return nil
}

// StateOf returns the state meta assigns to name, searching nested
// meta-groups depth first in reference order when meta has no direct entry.
func (s *Store) StateOf(name string, meta *domain.MetaGroup) (domain.State, bool, error) {
	if meta == nil {
		return "", false, fmt.Errorf("%w: StateOf expects a meta-group", domain.ErrInvalidArgument)
	}
	return s.stateOf(name, meta, &expansion{})
}

func (s *Store) stateOf(name string, meta *domain.MetaGroup, walk *expansion) (domain.State, bool, error) {
	if st, ok := meta.StateOf(name); ok {
		return st, true, nil
	}
	if err := walk.enter(meta.Name()); err != nil {
		return "", false, err
	}
	defer walk.leave(meta.Name())

	for ref := range meta.ReferencedNames() {
		nested, ok := s.metas[ref]
		if !ok {
			continue
		}
		st, found, err := s.stateOf(name, nested, walk)
		if err != nil {
			return "", false, err
		}
		if found {
			return st, true, nil
		}
	}
	return "", false, nil
}

// GroupState returns the effective top-level state of a group or meta-group
// name. An explicit top-level entry beats anything reachable through
// meta-groups, and disabled beats enabled.
func (s *Store) GroupState(name string) (domain.State, bool, error) {
	switch s.TopState(name) {
	case domain.TopDisabled:
		return domain.StateDisabled, true, nil
	case domain.TopEnabled:
		return domain.StateEnabled, true, nil
	}
	for _, metaName := range s.metaOrder {
		st, found, err := s.StateOf(name, s.metas[metaName])
		if err != nil {
			return "", false, err
		}
		if found {
			return st, true, nil
		}
	}
	return "", false, nil
}

// PackageStates resolves the state of every package reachable from a
// top-level entry. Packages that nothing references are absent from the
// result. Disabled entries are applied first so that disabled always wins.
func (s *Store) PackageStates() (map[string]domain.State, error) {
	states := make(map[string]domain.State)
	disable := func(pkg string) { states[pkg] = domain.StateDisabled }
	enable := func(pkg string) {
		if states[pkg] != domain.StateDisabled {
			states[pkg] = domain.StateEnabled
		}
	}

	for _, name := range s.disabled.items {
		if g, ok := s.groups[name]; ok {
			g.ForEach(disable)
		}
	}
	for _, name := range s.enabled.items {
		if g, ok := s.groups[name]; ok {
			g.ForEach(enable)
		}
	}
	if err := s.applyMetas(s.disabled.items, disable); err != nil {
		return nil, err
	}
	if err := s.applyMetas(s.enabled.items, enable); err != nil {
		return nil, err
	}
	return states, nil
}

func (s *Store) applyMetas(names []string, apply func(pkg string)) error {
	for _, name := range names {
		m, ok := s.metas[name]
		if !ok {
			continue
		}
		groups, err := s.GroupsForMeta(m)
		if err != nil {
			return err
		}
		for groupName := range groups {
			s.groups[groupName].ForEach(apply)
		}
	}
	return nil
}
