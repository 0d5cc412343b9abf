// Package model holds the in-memory registry of package groups and
// meta-groups together with the top-level enable/disable state, and resolves
// the effective state of every referenced package.
//
// A Store is owned by a single controller and is not safe for concurrent
// use; callers that share one across goroutines must serialize access.
package model

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"slices"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

// Entry is either a *domain.Group or a *domain.MetaGroup.
type Entry interface {
	Name() string
	Kind() domain.Kind
}

// Store is the group registry.
type Store struct {
	groups     map[string]*domain.Group
	groupOrder []string
	metas      map[string]*domain.MetaGroup
	metaOrder  []string

	enabled  orderedSet
	disabled orderedSet

	observers observers
}

// New creates an empty store.
func New() *Store {
	return &Store{
		groups: make(map[string]*domain.Group),
		metas:  make(map[string]*domain.MetaGroup),
	}
}

// FromRecord builds a store from a serialized record.
func FromRecord(rec domain.Record) (*Store, error) {
	s := New()
	for i, gr := range rec.Groups {
		g, err := domain.GroupFromRecord(gr)
		if err != nil {
			return nil, fmt.Errorf("groups[%d]: %w", i, err)
		}
		if s.IsGroup(g.Name()) {
			return nil, fmt.Errorf("%w: groups[%d]: duplicate group %q", domain.ErrFormat, i, g.Name())
		}
		s.putGroup(g)
	}
	for i, mr := range rec.Metas {
		m, err := domain.MetaFromRecord(mr)
		if err != nil {
			return nil, fmt.Errorf("metas[%d]: %w", i, err)
		}
		if s.IsMeta(m.Name()) {
			return nil, fmt.Errorf("%w: metas[%d]: duplicate meta-group %q", domain.ErrFormat, i, m.Name())
		}
		s.putMeta(m)
	}
	for _, name := range rec.Enabled {
		s.enabled.add(name)
	}
	for _, name := range rec.Disabled {
		s.disabled.add(name)
	}
	return s, nil
}

// FromJSON builds a store from a JSON-encoded record. Empty input and JSON
// null produce an empty store; any other non-object value is a type error.
func FromJSON(data []byte) (*Store, error) {
	trimmed := bytes.TrimSpace(data)
	if len(trimmed) == 0 || bytes.Equal(trimmed, []byte("null")) {
		return New(), nil
	}
	if trimmed[0] != '{' {
		if !json.Valid(trimmed) {
			return nil, fmt.Errorf("%w: malformed JSON record", domain.ErrFormat)
		}
		return nil, fmt.Errorf("%w: cannot initialize from a JSON %s", domain.ErrType, jsonKind(trimmed[0]))
	}
	var rec domain.Record
	if err := json.Unmarshal(trimmed, &rec); err != nil {
		return nil, fmt.Errorf("%w: decoding record: %v", domain.ErrFormat, err)
	}
	return FromRecord(rec)
}

func jsonKind(first byte) string {
	switch first {
	case '[':
		return "array"
	case '"':
		return "string"
	case 't', 'f':
		return "boolean"
	default:
		return "number"
	}
}

// Serialize returns the record form of the store. Names keep insertion order.
func (s *Store) Serialize() domain.Record {
	rec := domain.EmptyRecord()
	for _, name := range s.groupOrder {
		rec.Groups = append(rec.Groups, s.groups[name].Serialize())
	}
	for _, name := range s.metaOrder {
		rec.Metas = append(rec.Metas, s.metas[name].Serialize())
	}
	rec.Enabled = append(rec.Enabled, s.enabled.items...)
	rec.Disabled = append(rec.Disabled, s.disabled.items...)
	return rec
}

// MarshalJSON encodes the serialized record.
func (s *Store) MarshalJSON() ([]byte, error) {
	return json.Marshal(s.Serialize())
}

func (s *Store) IsGroup(name string) bool {
	_, ok := s.groups[name]
	return ok
}

func (s *Store) IsMeta(name string) bool {
	_, ok := s.metas[name]
	return ok
}

// GroupNames yields group names in insertion order.
func (s *Store) GroupNames() iter.Seq[string] {
	return slices.Values(slices.Clone(s.groupOrder))
}

// MetaNames yields meta-group names in insertion order.
func (s *Store) MetaNames() iter.Seq[string] {
	return slices.Values(slices.Clone(s.metaOrder))
}

// Group returns the named group.
func (s *Store) Group(name string) (*domain.Group, bool) {
	g, ok := s.groups[name]
	return g, ok
}

// Meta returns the named meta-group.
func (s *Store) Meta(name string) (*domain.MetaGroup, bool) {
	m, ok := s.metas[name]
	return m, ok
}

// Lookup returns the group with that name, else the meta-group, else nil.
func (s *Store) Lookup(name string) Entry {
	if g, ok := s.groups[name]; ok {
		return g
	}
	if m, ok := s.metas[name]; ok {
		return m
	}
	return nil
}

// Enabled returns the top-level enabled names in insertion order.
func (s *Store) Enabled() []string { return slices.Clone(s.enabled.items) }

// Disabled returns the top-level disabled names in insertion order.
func (s *Store) Disabled() []string { return slices.Clone(s.disabled.items) }

// TopState returns the state recorded directly on the store for name.
// Disabled wins when a name is in both sets.
func (s *Store) TopState(name string) domain.TopState {
	switch {
	case s.disabled.has(name):
		return domain.TopDisabled
	case s.enabled.has(name):
		return domain.TopEnabled
	}
	return domain.TopUnset
}

func (s *Store) putGroup(g *domain.Group) {
	if _, ok := s.groups[g.Name()]; !ok {
		s.groupOrder = append(s.groupOrder, g.Name())
	}
	s.groups[g.Name()] = g
}

func (s *Store) putMeta(m *domain.MetaGroup) {
	if _, ok := s.metas[m.Name()]; !ok {
		s.metaOrder = append(s.metaOrder, m.Name())
	}
	s.metas[m.Name()] = m
}

// orderedSet is a set of names that remembers insertion order.
type orderedSet struct {
	items []string
	index map[string]struct{}
}

func (o *orderedSet) has(name string) bool {
	_, ok := o.index[name]
	return ok
}

func (o *orderedSet) add(name string) bool {
	if o.index == nil {
		o.index = make(map[string]struct{})
	}
	if _, ok := o.index[name]; ok {
		return false
	}
	o.index[name] = struct{}{}
	o.items = append(o.items, name)
	return true
}

func (o *orderedSet) remove(name string) bool {
	if _, ok := o.index[name]; !ok {
		return false
	}
	delete(o.index, name)
	o.items = slices.DeleteFunc(o.items, func(item string) bool { return item == name })
	return true
}
