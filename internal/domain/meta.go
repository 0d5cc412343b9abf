package domain

import (
	"bytes"
	"encoding/json"
	"fmt"
	"iter"
	"sort"
)

// StateEntry assigns a state to a referenced group or meta-group name.
type StateEntry struct {
	Name  string
	State State
}

// StateMap is an ordered name -> state mapping. It encodes as a JSON object
// and keeps the key order of the document it was decoded from.
type StateMap []StateEntry

// StatesOf converts a Go map to a StateMap ordered by name.
func StatesOf(m map[string]State) StateMap {
	out := make(StateMap, 0, len(m))
	for name, st := range m {
		out = append(out, StateEntry{Name: name, State: st})
	}
	sort.Slice(out, func(i, j int) bool { return out[i].Name < out[j].Name })
	return out
}

func (sm StateMap) MarshalJSON() ([]byte, error) {
	var buf bytes.Buffer
	buf.WriteByte('{')
	for i, e := range sm {
		if i > 0 {
			buf.WriteByte(',')
		}
		key, err := json.Marshal(e.Name)
		if err != nil {
			return nil, err
		}
		val, err := json.Marshal(string(e.State))
		if err != nil {
			return nil, err
		}
		buf.Write(key)
		buf.WriteByte(':')
		buf.Write(val)
	}
	buf.WriteByte('}')
	return buf.Bytes(), nil
}

func (sm *StateMap) UnmarshalJSON(data []byte) error {
	dec := json.NewDecoder(bytes.NewReader(data))
	tok, err := dec.Token()
	if err != nil {
		return err
	}
	if tok == nil {
		*sm = nil
		return nil
	}
	if d, ok := tok.(json.Delim); !ok || d != '{' {
		return fmt.Errorf("states must be a JSON object")
	}
	var out StateMap
	for dec.More() {
		tok, err := dec.Token()
		if err != nil {
			return err
		}
		name, _ := tok.(string)
		var st string
		if err := dec.Decode(&st); err != nil {
			return fmt.Errorf("state of %q: %w", name, err)
		}
		out = append(out, StateEntry{Name: name, State: State(st)})
	}
	if _, err := dec.Token(); err != nil {
		return err
	}
	*sm = out
	return nil
}

// MetaGroup is a named collection of enable/disable assignments over groups
// and other meta-groups. References are plain names resolved against the
// owning store, so they may point at names that do not exist yet.
type MetaGroup struct {
	name   string
	order  []string
	states map[string]State
}

// MetaRecord is the serialized form of a MetaGroup.
type MetaRecord struct {
	Type         string   `json:"type"`
	Name         string   `json:"name"`
	States       StateMap `json:"states"`
	Deserializer string   `json:"deserializer,omitempty"`
}

// NewMetaGroup creates a meta-group. A repeated name keeps its first
// position and its last state.
func NewMetaGroup(name string, states StateMap) (*MetaGroup, error) {
	if name == "" {
		return nil, fmt.Errorf("%w: a meta-group must have a name", ErrInvalidArgument)
	}
	m := &MetaGroup{
		name:   name,
		order:  make([]string, 0, len(states)),
		states: make(map[string]State, len(states)),
	}
	for _, e := range states {
		if e.Name == "" {
			return nil, fmt.Errorf("%w: meta-group %q references an empty name", ErrInvalidArgument, name)
		}
		if !e.State.Valid() {
			return nil, fmt.Errorf("%w: meta-group %q has state %q for %q", ErrInvalidArgument, name, e.State, e.Name)
		}
		if _, ok := m.states[e.Name]; !ok {
			m.order = append(m.order, e.Name)
		}
		m.states[e.Name] = e.State
	}
	return m, nil
}

// MetaFromRecord rebuilds a MetaGroup from its serialized form.
func MetaFromRecord(rec MetaRecord) (*MetaGroup, error) {
	if rec.Type != string(KindMeta) {
		return nil, fmt.Errorf("%w: meta-group cannot be created from record type %q", ErrFormat, rec.Type)
	}
	if rec.Name == "" {
		return nil, fmt.Errorf("%w: meta-group record has no name", ErrFormat)
	}
	m, err := NewMetaGroup(rec.Name, rec.States)
	if err != nil {
		return nil, fmt.Errorf("%w: %v", ErrFormat, err)
	}
	return m, nil
}

// MetaFromJSON decodes a JSON meta-group record.
func MetaFromJSON(data []byte) (*MetaGroup, error) {
	var rec MetaRecord
	if err := json.Unmarshal(data, &rec); err != nil {
		return nil, fmt.Errorf("%w: decoding meta-group: %v", ErrFormat, err)
	}
	return MetaFromRecord(rec)
}

func (m *MetaGroup) Name() string { return m.name }

func (m *MetaGroup) Kind() Kind { return KindMeta }

// Has reports whether ref is a direct member. It does not search nested
// meta-groups.
func (m *MetaGroup) Has(ref string) bool {
	_, ok := m.states[ref]
	return ok
}

// StateOf returns the state assigned directly to ref.
func (m *MetaGroup) StateOf(ref string) (State, bool) {
	st, ok := m.states[ref]
	return st, ok
}

// Size is the number of direct references.
func (m *MetaGroup) Size() int { return len(m.order) }

// ReferencedNames yields the direct member names in first-referenced order.
func (m *MetaGroup) ReferencedNames() iter.Seq[string] {
	return func(yield func(string) bool) {
		for _, name := range m.order {
			if !yield(name) {
				return
			}
		}
	}
}

// States returns a copy of the assignments in first-referenced order.
func (m *MetaGroup) States() StateMap {
	out := make(StateMap, 0, len(m.order))
	for _, name := range m.order {
		out = append(out, StateEntry{Name: name, State: m.states[name]})
	}
	return out
}

// Equal compares name and assignments.
func (m *MetaGroup) Equal(other *MetaGroup) bool {
	if m == nil || other == nil {
		return m == other
	}
	if m.name != other.name || len(m.states) != len(other.states) {
		return false
	}
	for name, st := range m.states {
		if ost, ok := other.states[name]; !ok || ost != st {
			return false
		}
	}
	return true
}

// Serialize returns the JSON-ready record for the meta-group.
func (m *MetaGroup) Serialize() MetaRecord {
	return MetaRecord{
		Type:   string(KindMeta),
		Name:   m.name,
		States: m.States(),
	}
}
