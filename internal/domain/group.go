package domain

import (
	"encoding/json"
	"fmt"
)

// Group is a named, flat set of package identifiers.
// A Group is immutable; the With/Without methods return new values.
type Group struct {
	name     string
	packages []string
	index    map[string]struct{}
}

// GroupRecord is the serialized form of a Group.
type GroupRecord struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	Packages     []string `json:"packages"`
	Deserializer string   `json:"deserializer,omitempty"`
}

// NewGroup creates a group. Duplicate package names are dropped, keeping the
// first occurrence.
func NewGroup(name string, packages []string) (*Group, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: a group must have a name", ErrInvalidArgument)
	}
	g := &Group{
		name:     name,
		packages: make([]string, 0, len(packages)),
		index:    make(map[string]struct{}, len(packages)),
	}
	for _, pkg := range packages {
		g.add(pkg)
	}
	return g, nil
}

func (g *Group) add(pkg string) {
	if _, ok := g.index[pkg]; ok {
		return
	}
	g.index[pkg] = struct{}{}
	g.packages = append(g.packages, pkg)
}

// GroupFromRecord rebuilds a Group from its serialized form.
func GroupFromRecord(rec GroupRecord) (*Group, error) {
	if rec.Type != string(KindGroup) {
		return nil, fmt.Errorf("%w: group cannot be created from record type %q", ErrFormat, rec.Type)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("%w: group record has no name", ErrFormat)
	}
	return NewGroup(rec.Name, rec.Packages)
}

// GroupFromJSON decodes a JSON group record.
func GroupFromJSON(data []byte) (*Group, error) {
	var rec GroupRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decoding group: %v", ErrFormat, err)
	}
	return GroupFromRecord(rec)
}

func (g *Group) Name() string { return g.name }

func (g *Group) Kind() Kind { return KindGroup }

// Has reports whether pkg is a member of the group.
func (g *Group) Has(pkg string) bool {
	_, ok := g.index[pkg]
	return ok
}

// Size is the number of packages in the group.
func (g *Group) Size() int { return len(g.packages) }

// ForEach calls fn once per package.
func (g *Group) ForEach(fn func(pkg string)) {
	for _, pkg := range g.packages {
		fn(pkg)
	}
}

// Packages returns a copy of the members in insertion order.
func (g *Group) Packages() []string {
	out := make([]string, len(g.packages))
	copy(out, g.packages)
	return out
}

// WithPackages returns a copy of g with pkgs added.
func (g *Group) WithPackages(pkgs ...string) *Group {
	out, _ := NewGroup(g.name, append(g.Packages(), pkgs...))
	return out
}

// WithoutPackages returns a copy of g with pkgs removed.
func (g *Group) WithoutPackages(pkgs ...string) *Group {
	drop := NewSet(pkgs...)
	keep := make([]string, 0, len(g.packages))
	for _, pkg := range g.packages {
		if !drop.Has(pkg) {
			keep = append(keep, pkg)
		}
	}
	out, _ := NewGroup(g.name, keep)
	return out
}

// Equal compares name and package set.
func (g *Group) Equal(other *Group) bool {
	if g == nil || other == nil {
		return g == other
	}
	if g.name != other.name || len(g.packages) != len(other.packages) {
		return false
	}
	for _, pkg := range g.packages {
		if !other.Has(pkg) {
			return false
		}
	}
	return true
}

// Serialize returns the JSON-ready record for the group.
func (g *Group) Serialize() GroupRecord {
	return GroupRecord{
		Type:     string(KindGroup),
		Name:     g.name,
		Packages: g.Packages(),
	}
}
