package domain

import (
	"encoding/json"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestParseState(t *testing.T) {
	st, err := ParseState("enabled")
	require.NoError(t, err)
	assert.Equal(t, StateEnabled, st)

	_, err = ParseState("on")
	assert.ErrorIs(t, err, ErrInvalidArgument)
}

func TestParseTopState(t *testing.T) {
	tests := []struct {
		in      string
		want    TopState
		wantErr bool
	}{
		{"enabled", TopEnabled, false},
		{"disabled", TopDisabled, false},
		{"unset", TopUnset, false},
		{"", TopUnset, false},
		{"off", TopUnset, true},
	}
	for _, tt := range tests {
		t.Run(tt.in, func(t *testing.T) {
			got, err := ParseTopState(tt.in)
			if tt.wantErr {
				assert.ErrorIs(t, err, ErrInvalidArgument)
				return
			}
			require.NoError(t, err)
			assert.Equal(t, tt.want, got)
		})
	}
}

func TestSet_JSONIsSorted(t *testing.T) {
	data, err := json.Marshal(NewSet("c", "a", "b"))
	require.NoError(t, err)
	assert.Equal(t, `["a","b","c"]`, string(data))

	var s Set
	require.NoError(t, json.Unmarshal(data, &s))
	assert.True(t, s.Has("b"))
}

func TestEmptyRecord_JSON(t *testing.T) {
	data, err := json.Marshal(EmptyRecord())
	require.NoError(t, err)
	assert.JSONEq(t, `{"groups":[],"metas":[],"enabled":[],"disabled":[]}`, string(data))
}
