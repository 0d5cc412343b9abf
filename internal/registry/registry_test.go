package registry

import (
	"context"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/bcnelson/pkg-groups/internal/domain"
	"github.com/bcnelson/pkg-groups/internal/model"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/zap/zaptest"
)

func TestStatic(t *testing.T) {
	reg := NewStatic(
		[]string{"tree-view", "minimap", "linter"},
		[]string{"tree-view"},
		[]string{"linter"},
	)

	assert.Equal(t, []string{"tree-view", "minimap", "linter"}, reg.ListAvailable())
	assert.True(t, reg.IsBundled("tree-view"))
	assert.False(t, reg.IsBundled("minimap"))
	assert.True(t, reg.IsDisabled("linter"))
	assert.False(t, reg.IsDisabled("minimap"))

	ctx := context.Background()
	require.NoError(t, reg.Disable(ctx, "minimap"))
	require.NoError(t, reg.Enable(ctx, "linter"))
	assert.True(t, reg.IsDisabled("minimap"))
	assert.False(t, reg.IsDisabled("linter"))
	assert.Equal(t, []string{"minimap"}, reg.Snapshot().Disabled)
}

func TestStatic_DrivesDifferences(t *testing.T) {
	s := model.New()
	_, err := s.AddGroup("G1", []string{"a", "b", "c"})
	require.NoError(t, err)
	require.NoError(t, s.SetState("G1", domain.TopEnabled))

	diff, err := s.Differences(NewStatic([]string{"a", "b"}, nil, []string{"b"}), false)
	require.NoError(t, err)
	assert.Empty(t, diff.Enabled)
	assert.Equal(t, domain.NewSet("b"), diff.Disabled)
	assert.Equal(t, domain.NewSet("c"), diff.Missing)
}

func TestFileShim_LoadHuJSON(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{
		// what the editor reports
		"available": ["a", "b", "core",],
		"bundled": ["core"],
		"disabled": ["b"],
	}`), 0o644))

	shim, err := NewFileShim(context.Background(), path, zaptest.NewLogger(t))
	require.NoError(t, err)
	assert.Equal(t, []string{"a", "b", "core"}, shim.ListAvailable())
	assert.True(t, shim.IsBundled("core"))
	assert.True(t, shim.IsDisabled("b"))
}

func TestFileShim_MissingFileIsEmpty(t *testing.T) {
	shim, err := NewFileShim(context.Background(), filepath.Join(t.TempDir(), "none.json"), nil)
	require.NoError(t, err)
	assert.Empty(t, shim.ListAvailable())
}

func TestFileShim_InvalidFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"available": 12}`), 0o644))

	_, err := NewFileShim(context.Background(), path, nil)
	assert.Error(t, err)
}

func TestFileShim_ApplyWritesFile(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"available":["a","b"],"disabled":["a"]}`), 0o644))

	ctx := context.Background()
	shim, err := NewFileShim(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)

	require.NoError(t, shim.Enable(ctx, "a"))
	require.NoError(t, shim.Disable(ctx, "b"))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	var snap Snapshot
	require.NoError(t, json.Unmarshal(data, &snap))
	assert.Equal(t, []string{"a", "b"}, snap.Available)
	assert.Equal(t, []string{"b"}, snap.Disabled)

	// A fresh shim sees the written state.
	again, err := NewFileShim(ctx, path, nil)
	require.NoError(t, err)
	assert.False(t, again.IsDisabled("a"))
	assert.True(t, again.IsDisabled("b"))
}

func TestFileShim_FailedWriteKeepsState(t *testing.T) {
	path := filepath.Join(t.TempDir(), "registry.json")
	require.NoError(t, os.WriteFile(path, []byte(`{"available":["a","b"],"disabled":["a"]}`), 0o644))

	ctx := context.Background()
	shim, err := NewFileShim(ctx, path, zaptest.NewLogger(t))
	require.NoError(t, err)

	// Replace the file with a directory so every write fails.
	require.NoError(t, os.Remove(path))
	require.NoError(t, os.Mkdir(path, 0o755))

	err = shim.Enable(ctx, "a")
	require.Error(t, err)
	assert.True(t, shim.IsDisabled("a"), "failed enable must not change memory")

	err = shim.Disable(ctx, "b")
	require.Error(t, err)
	assert.False(t, shim.IsDisabled("b"), "failed disable must not change memory")

	s := model.New()
	_, err = s.AddGroup("G", []string{"a"})
	require.NoError(t, err)
	require.NoError(t, s.SetState("G", domain.TopEnabled))
	diff, err := s.Differences(shim, false)
	require.NoError(t, err)
	assert.Equal(t, domain.NewSet("a"), diff.Disabled, "the failed enable is still pending")
}

func TestStatic_NilIsEmpty(t *testing.T) {
	var reg *Static
	assert.Empty(t, reg.ListAvailable())
	assert.False(t, reg.IsBundled("a"))
	assert.False(t, reg.IsDisabled("a"))

	s := model.New()
	_, err := s.AddGroup("G", []string{"a"})
	require.NoError(t, err)
	require.NoError(t, s.SetState("G", domain.TopEnabled))

	diff, err := s.Differences(reg, false)
	require.NoError(t, err)
	assert.Equal(t, domain.NewSet("a"), diff.Missing)
}

func TestFileShim_CanceledContext(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	_, err := NewFileShim(ctx, filepath.Join(t.TempDir(), "r.json"), nil)
	assert.ErrorIs(t, err, context.Canceled)
}
