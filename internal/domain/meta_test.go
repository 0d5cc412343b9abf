package domain

import (
	"encoding/json"
	"slices"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestNewMetaGroup(t *testing.T) {
	fred, err := NewMetaGroup("fred", StatesOf(map[string]State{
		"pkg1": StateEnabled,
		"pkg2": StateEnabled,
	}))
	require.NoError(t, err)

	assert.Equal(t, "fred", fred.Name())
	assert.Equal(t, KindMeta, fred.Kind())
	assert.Equal(t, 2, fred.Size())
	assert.True(t, fred.Has("pkg1"))
	assert.False(t, fred.Has("pkg3"))
}

func TestNewMetaGroup_Errors(t *testing.T) {
	_, err := NewMetaGroup("", nil)
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewMetaGroup("m", StateMap{{Name: "g", State: "maybe"}})
	assert.ErrorIs(t, err, ErrInvalidArgument)

	_, err = NewMetaGroup("m", StateMap{{Name: "", State: StateEnabled}})
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestMetaFromJSON(t *testing.T) {
	fred, err := MetaFromJSON([]byte(`{"type":"meta",
		"name":"fred",
		"states":{"pkg1": "enabled", "pkg2": "disabled"},
		"deserializer":"PkgGroupsMeta"}`))
	require.NoError(t, err)

	assert.Equal(t, "fred", fred.Name())
	st, ok := fred.StateOf("pkg1")
	assert.True(t, ok)
	assert.Equal(t, StateEnabled, st)
	st, ok = fred.StateOf("pkg2")
	assert.True(t, ok)
	assert.Equal(t, StateDisabled, st)
	_, ok = fred.StateOf("pkg3")
	assert.False(t, ok)
}

func TestMetaFromRecord_Errors(t *testing.T) {
	tests := []struct {
		name string
		json string
	}{
		{"wrong type", `{"type":"group","name":"m","states":{}}`},
		{"missing name", `{"type":"meta","states":{}}`},
		{"bad state", `{"type":"meta","name":"m","states":{"g":"on"}}`},
		{"states not an object", `{"type":"meta","name":"m","states":["g"]}`},
		{"malformed", `{"type":"meta"`},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			_, err := MetaFromJSON([]byte(tt.json))
			assert.ErrorIs(t, err, ErrFormat)
		})
	}
}

func TestMetaGroup_ReferencedNamesKeepDocumentOrder(t *testing.T) {
	m, err := MetaFromJSON([]byte(`{"type":"meta","name":"m","states":{"zeta":"enabled","alpha":"disabled","mid":"enabled"}}`))
	require.NoError(t, err)

	want := []string{"zeta", "alpha", "mid"}
	assert.Equal(t, want, slices.Collect(m.ReferencedNames()))
	// restartable
	assert.Equal(t, want, slices.Collect(m.ReferencedNames()))
}

func TestMetaGroup_SerializeRoundTrip(t *testing.T) {
	m, err := NewMetaGroup("fred", StateMap{
		{Name: "b", State: StateEnabled},
		{Name: "a", State: StateDisabled},
	})
	require.NoError(t, err)

	data, err := json.Marshal(m.Serialize())
	require.NoError(t, err)
	assert.JSONEq(t, `{"type":"meta","name":"fred","states":{"b":"enabled","a":"disabled"}}`, string(data))

	back, err := MetaFromJSON(data)
	require.NoError(t, err)
	assert.True(t, m.Equal(back))
	assert.Equal(t, m.States(), back.States())
}

func TestNewMetaGroup_RepeatedName(t *testing.T) {
	m, err := NewMetaGroup("m", StateMap{
		{Name: "g1", State: StateEnabled},
		{Name: "g2", State: StateEnabled},
		{Name: "g1", State: StateDisabled},
	})
	require.NoError(t, err)
	assert.Equal(t, []string{"g1", "g2"}, slices.Collect(m.ReferencedNames()))
	st, _ := m.StateOf("g1")
	assert.Equal(t, StateDisabled, st)
}
