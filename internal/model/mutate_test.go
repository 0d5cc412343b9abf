package model

import (
	"slices"
	"testing"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestAddGroup(t *testing.T) {
	s := New()
	var events []domain.Event
	s.Subscribe(func(ev domain.Event) { events = append(events, ev) })

	g, err := s.AddGroup("G1", []string{"a", "b"})
	require.NoError(t, err)
	assert.Equal(t, 2, g.Size())

	_, err = s.AddGroup("G1", []string{"c"})
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	_, err = s.AddGroup("", nil)
	assert.ErrorIs(t, err, domain.ErrInvalidArgument)

	require.Len(t, events, 1)
	assert.Equal(t, domain.Event{Type: domain.EventAdd, Name: "G1", Kind: domain.KindGroup}, events[0])
}

func TestAddMeta(t *testing.T) {
	s := New()
	var events []domain.Event
	s.Subscribe(func(ev domain.Event) { events = append(events, ev) })

	_, err := s.AddMeta("M1", domain.StateMap{{Name: "G1", State: domain.StateEnabled}})
	require.NoError(t, err)
	_, err = s.AddMeta("M1", nil)
	assert.ErrorIs(t, err, domain.ErrAlreadyExists)

	require.Len(t, events, 1)
	assert.Equal(t, domain.KindMeta, events[0].Kind)
	assert.Equal(t, domain.EventAdd, events[0].Type)
}

func TestUpdateAndMovePackages(t *testing.T) {
	s := New()
	_, err := s.AddGroup("G1", []string{"a"})
	require.NoError(t, err)

	var events []domain.Event
	s.Subscribe(func(ev domain.Event) { events = append(events, ev) })

	g, err := s.AddPackages("G1", "b", "c")
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "c"}, g.Packages())

	g, err = s.RemovePackages("G1", "a")
	require.NoError(t, err)
	assert.Equal(t, []string{"b", "c"}, g.Packages())

	g, err = s.UpdateGroup("G1", []string{"z"})
	require.NoError(t, err)
	assert.Equal(t, []string{"z"}, g.Packages())

	_, err = s.AddPackages("nope", "x")
	assert.ErrorIs(t, err, domain.ErrNotFound)
	_, err = s.UpdateGroup("nope", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)

	require.Len(t, events, 3)
	for _, ev := range events {
		assert.Equal(t, domain.EventChange, ev.Type)
	}
	assert.Equal(t, []string{"z"}, events[2].Members)

	// Stored value was replaced, insertion order kept.
	assert.Equal(t, []string{"G1"}, slices.Collect(s.GroupNames()))
	stored, _ := s.Group("G1")
	assert.True(t, stored.Has("z"))
}

func TestUpdateMeta(t *testing.T) {
	s := New()
	_, err := s.AddMeta("M", domain.StateMap{{Name: "a", State: domain.StateEnabled}})
	require.NoError(t, err)

	var got domain.Event
	s.Subscribe(func(ev domain.Event) { got = ev })

	m, err := s.UpdateMeta("M", domain.StateMap{{Name: "b", State: domain.StateDisabled}, {Name: "c", State: domain.StateEnabled}})
	require.NoError(t, err)
	assert.False(t, m.Has("a"))
	assert.Equal(t, []string{"b", "c"}, got.Members)

	_, err = s.UpdateMeta("missing", nil)
	assert.ErrorIs(t, err, domain.ErrNotFound)
}

func TestDelete(t *testing.T) {
	s := scenarioStore(t)
	var events []domain.Event
	s.Subscribe(func(ev domain.Event) { events = append(events, ev) })

	require.NoError(t, s.DeleteGroup("group2"))
	assert.False(t, s.IsGroup("group2"))
	assert.Empty(t, s.Disabled(), "deleted name leaves the top-level sets")

	require.NoError(t, s.DeleteMeta("meta1"))
	assert.Empty(t, s.Enabled())

	assert.ErrorIs(t, s.DeleteGroup("group2"), domain.ErrNotFound)
	assert.ErrorIs(t, s.DeleteMeta("meta1"), domain.ErrNotFound)

	require.Len(t, events, 2)
	assert.Equal(t, domain.EventDelete, events[0].Type)
	assert.Equal(t, domain.KindMeta, events[1].Kind)
}

func TestDelete_KeepsTopStateWhenNameStillUsed(t *testing.T) {
	s := New()
	_, _ = s.AddGroup("x", nil)
	_, _ = s.AddMeta("x", nil)
	require.NoError(t, s.SetState("x", domain.TopEnabled))

	require.NoError(t, s.DeleteGroup("x"))
	assert.Equal(t, []string{"x"}, s.Enabled())
}

func TestSetState(t *testing.T) {
	s := scenarioStore(t)
	var events []domain.Event
	s.Subscribe(func(ev domain.Event) { events = append(events, ev) })

	require.NoError(t, s.SetState("group2", domain.TopEnabled))
	assert.Equal(t, domain.TopEnabled, s.TopState("group2"))
	assert.NotContains(t, s.Disabled(), "group2")

	require.NoError(t, s.SetState("meta1", domain.TopDisabled))
	assert.Equal(t, domain.TopDisabled, s.TopState("meta1"))
	assert.NotContains(t, s.Enabled(), "meta1")

	require.NoError(t, s.SetState("meta1", domain.TopUnset))
	assert.Equal(t, domain.TopUnset, s.TopState("meta1"))

	assert.ErrorIs(t, s.SetState("ghost", domain.TopEnabled), domain.ErrNotFound)
	assert.ErrorIs(t, s.SetState("group1", domain.TopState("sideways")), domain.ErrInvalidArgument)

	require.Len(t, events, 3)
	assert.Equal(t, domain.EventState, events[0].Type)
	assert.Equal(t, domain.TopEnabled, events[0].State)
	assert.Equal(t, domain.KindMeta, events[1].Kind)
	assert.Equal(t, domain.TopUnset, events[2].State)
}

func TestSubscribe_OrderAndCancel(t *testing.T) {
	s := New()
	var order []string
	s.Subscribe(func(domain.Event) { order = append(order, "first") })
	cancel := s.Subscribe(func(domain.Event) { order = append(order, "second") })
	s.Subscribe(func(domain.Event) { order = append(order, "third") })

	_, err := s.AddGroup("a", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "second", "third"}, order)

	cancel()
	cancel()
	order = nil
	_, err = s.AddGroup("b", nil)
	require.NoError(t, err)
	assert.Equal(t, []string{"first", "third"}, order)
}

func TestSubscribe_CancelDuringNotify(t *testing.T) {
	s := New()
	calls := 0
	var cancel func()
	cancel = s.Subscribe(func(domain.Event) {
		calls++
		cancel()
	})
	s.Subscribe(func(domain.Event) { calls++ })

	_, _ = s.AddGroup("a", nil)
	_, _ = s.AddGroup("b", nil)
	assert.Equal(t, 3, calls)
}
