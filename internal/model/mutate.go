package model

import (
	"fmt"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// AddGroup inserts a new group.
func (s *Store) AddGroup(name string, packages []string) (*domain.Group, error) {
	if s.IsGroup(name) {
		return nil, fmt.Errorf("%w: group %q", domain.ErrAlreadyExists, name)
	}
	g, err := domain.NewGroup(name, packages)
	if err != nil {
		return nil, err
	}
	s.putGroup(g)
	s.observers.notify(domain.Event{Type: domain.EventAdd, Name: name, Kind: domain.KindGroup})
	return g, nil
}

// AddMeta inserts a new meta-group.
func (s *Store) AddMeta(name string, states domain.StateMap) (*domain.MetaGroup, error) {
	if s.IsMeta(name) {
		return nil, fmt.Errorf("%w: meta-group %q", domain.ErrAlreadyExists, name)
	}
	m, err := domain.NewMetaGroup(name, states)
	if err != nil {
		return nil, err
	}
	s.putMeta(m)
	s.observers.notify(domain.Event{Type: domain.EventAdd, Name: name, Kind: domain.KindMeta})
	return m, nil
}

// UpdateGroup replaces the packages of an existing group.
func (s *Store) UpdateGroup(name string, packages []string) (*domain.Group, error) {
	if !s.IsGroup(name) {
		return nil, fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
	}
	g, err := domain.NewGroup(name, packages)
	if err != nil {
		return nil, err
	}
	s.replaceGroup(g)
	return g, nil
}

// AddPackages adds packages to an existing group.
func (s *Store) AddPackages(name string, packages ...string) (*domain.Group, error) {
	g, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
	}
	g = g.WithPackages(packages...)
	s.replaceGroup(g)
	return g, nil
}

// RemovePackages removes packages from an existing group.
func (s *Store) RemovePackages(name string, packages ...string) (*domain.Group, error) {
	g, ok := s.groups[name]
	if !ok {
		return nil, fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
	}
	g = g.WithoutPackages(packages...)
	s.replaceGroup(g)
	return g, nil
}

func (s *Store) replaceGroup(g *domain.Group) {
	s.putGroup(g)
	s.observers.notify(domain.Event{
		Type:    domain.EventChange,
		Name:    g.Name(),
		Kind:    domain.KindGroup,
		Members: g.Packages(),
	})
}

// UpdateMeta replaces the assignments of an existing meta-group.
func (s *Store) UpdateMeta(name string, states domain.StateMap) (*domain.MetaGroup, error) {
	if !s.IsMeta(name) {
		return nil, fmt.Errorf("%w: meta-group %q", domain.ErrNotFound, name)
	}
	m, err := domain.NewMetaGroup(name, states)
	if err != nil {
		return nil, err
	}
	s.putMeta(m)
	members := make([]string, 0, m.Size())
	for ref := range m.ReferencedNames() {
		members = append(members, ref)
	}
	s.observers.notify(domain.Event{
		Type:    domain.EventChange,
		Name:    name,
		Kind:    domain.KindMeta,
		Members: members,
	})
	return m, nil
}

// DeleteGroup removes a group. References to it from meta-groups are left
// dangling.
func (s *Store) DeleteGroup(name string) error {
	if !s.IsGroup(name) {
		return fmt.Errorf("%w: group %q", domain.ErrNotFound, name)
	}
	delete(s.groups, name)
	s.groupOrder = removeName(s.groupOrder, name)
	s.dropTopIfUnused(name)
	s.observers.notify(domain.Event{Type: domain.EventDelete, Name: name, Kind: domain.KindGroup})
	return nil
}

// DeleteMeta removes a meta-group.
func (s *Store) DeleteMeta(name string) error {
	if !s.IsMeta(name) {
		return fmt.Errorf("%w: meta-group %q", domain.ErrNotFound, name)
	}
	delete(s.metas, name)
	s.metaOrder = removeName(s.metaOrder, name)
	s.dropTopIfUnused(name)
	s.observers.notify(domain.Event{Type: domain.EventDelete, Name: name, Kind: domain.KindMeta})
	return nil
}

func (s *Store) dropTopIfUnused(name string) {
	if s.Lookup(name) != nil {
		return
	}
	s.enabled.remove(name)
	s.disabled.remove(name)
}

// SetState sets the top-level state of a group or meta-group name.
func (s *Store) SetState(name string, state domain.TopState) error {
	entry := s.Lookup(name)
	if entry == nil {
		return fmt.Errorf("%w: no group or meta-group named %q", domain.ErrNotFound, name)
	}
	switch state {
	case domain.TopEnabled:
		s.disabled.remove(name)
		s.enabled.add(name)
	case domain.TopDisabled:
		s.enabled.remove(name)
		s.disabled.add(name)
	case domain.TopUnset:
		s.enabled.remove(name)
		s.disabled.remove(name)
	default:
		return fmt.Errorf("%w: unknown state %q", domain.ErrInvalidArgument, state)
	}
	s.observers.notify(domain.Event{
		Type:  domain.EventState,
		Name:  name,
		Kind:  entry.Kind(),
		State: state,
	})
	return nil
}

func removeName(names []string, name string) []string {
	out := names[:0]
	for _, n := range names {
		if n != name {
			out = append(out, n)
		}
	}
	return out
}
