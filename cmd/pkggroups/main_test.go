package main

import (
	"bytes"
	"encoding/json"
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/bcnelson/pkg-groups/internal/domain"
)

const recordFile = `{
	// editor setup
	"groups": [
		{"type": "group", "name": "python", "packages": ["ide-python", "linter-flake8"]},
		{"type": "group", "name": "web", "packages": ["emmet", "linter-flake8"]},
	],
	"metas": [
		{"type": "meta", "name": "work", "states": {"python": "enabled", "web": "disabled"}},
	],
	"enabled": ["work"],
	"disabled": [],
}`

func writeFile(t *testing.T, name, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), name)
	require.NoError(t, os.WriteFile(path, []byte(content), 0o600))
	return path
}

func run(t *testing.T, args ...string) (string, string, error) {
	t.Helper()
	var out, errOut bytes.Buffer
	cmd := newRootCmd()
	cmd.SetOut(&out)
	cmd.SetErr(&errOut)
	cmd.SetArgs(args)
	err := cmd.Execute()
	return out.String(), errOut.String(), err
}

func TestValidate(t *testing.T) {
	t.Run("valid record", func(t *testing.T) {
		path := writeFile(t, "groups.hujson", recordFile)
		out, _, err := run(t, "validate", "--record", path)
		require.NoError(t, err)
		assert.Equal(t, "ok: 2 groups, 1 meta-groups\n", out)
	})

	t.Run("missing flag", func(t *testing.T) {
		_, _, err := run(t, "validate")
		assert.ErrorContains(t, err, "--record is required")
	})

	t.Run("cycle", func(t *testing.T) {
		path := writeFile(t, "cycle.json", `{
			"metas": [
				{"type": "meta", "name": "a", "states": {"b": "enabled"}},
				{"type": "meta", "name": "b", "states": {"a": "enabled"}}
			],
			"enabled": ["a"]
		}`)
		_, _, err := run(t, "validate", "--record", path)
		assert.ErrorIs(t, err, domain.ErrCyclicReference)
	})

	t.Run("bad package name", func(t *testing.T) {
		path := writeFile(t, "bad.json", `{"groups": [{"type": "group", "name": "g", "packages": ["has space"]}]}`)
		_, errOut, err := run(t, "validate", "--record", path)
		require.Error(t, err)
		assert.Contains(t, errOut, "has space")
	})

	t.Run("malformed", func(t *testing.T) {
		path := writeFile(t, "broken.json", `{"groups": [`)
		_, _, err := run(t, "validate", "--record", path)
		assert.Error(t, err)
	})
}

func TestStates(t *testing.T) {
	path := writeFile(t, "groups.hujson", recordFile)

	out, _, err := run(t, "states", "--record", path, "--json")
	require.NoError(t, err)

	var states map[string]domain.State
	require.NoError(t, json.Unmarshal([]byte(out), &states))
	assert.Equal(t, map[string]domain.State{
		"ide-python":    domain.StateEnabled,
		"linter-flake8": domain.StateDisabled,
		"emmet":         domain.StateDisabled,
	}, states)

	out, _, err = run(t, "states", "--record", path)
	require.NoError(t, err)
	assert.Contains(t, out, "emmet")
	assert.Contains(t, out, "ide-python")
}

func TestGroups(t *testing.T) {
	path := writeFile(t, "groups.hujson", recordFile)

	out, _, err := run(t, "groups", "--record", path, "--json")
	require.NoError(t, err)

	var lines []groupLine
	require.NoError(t, json.Unmarshal([]byte(out), &lines))
	require.Len(t, lines, 3)
	assert.Equal(t, "python", lines[0].Name)
	assert.Equal(t, domain.StateEnabled, lines[0].State)
	assert.Equal(t, "web", lines[1].Name)
	assert.Equal(t, domain.StateDisabled, lines[1].State)
	assert.Equal(t, "work", lines[2].Name)
	assert.Equal(t, domain.KindMeta, lines[2].Kind)
	assert.Equal(t, domain.TopEnabled, lines[2].Top)
	assert.Equal(t, []string{"python", "web"}, lines[2].Members)

	out, _, err = run(t, "groups", "--record", path)
	require.NoError(t, err)
	assert.Contains(t, out, "NAME")
	assert.Contains(t, out, "work")
}

func TestDiff(t *testing.T) {
	path := writeFile(t, "groups.hujson", recordFile)
	reg := writeFile(t, "registry.json", `{
		"available": ["ide-python", "linter-flake8", "tree-view"],
		"bundled": ["tree-view"],
		"disabled": ["ide-python"]
	}`)

	t.Run("json", func(t *testing.T) {
		out, _, err := run(t, "diff", "--record", path, "--registry", reg, "--json")
		require.NoError(t, err)

		var resp domain.DifferencesResponse
		require.NoError(t, json.Unmarshal([]byte(out), &resp))
		assert.Equal(t, []string{"ide-python"}, resp.Disabled)
		assert.Equal(t, []string{"linter-flake8"}, resp.Enabled)
		assert.Equal(t, []string{"emmet"}, resp.Missing)
	})

	t.Run("text", func(t *testing.T) {
		out, _, err := run(t, "diff", "--record", path, "--registry", reg)
		require.NoError(t, err)
		assert.Contains(t, out, "+ ide-python")
		assert.Contains(t, out, "- linter-flake8")
		assert.Contains(t, out, "? emmet")
	})

	t.Run("no differences", func(t *testing.T) {
		clean := writeFile(t, "clean.json", `{
			"available": ["ide-python", "linter-flake8", "emmet"],
			"disabled": ["linter-flake8", "emmet"]
		}`)
		out, _, err := run(t, "diff", "--record", path, "--registry", clean)
		require.NoError(t, err)
		assert.Equal(t, "no differences\n", out)
	})

	t.Run("registry required", func(t *testing.T) {
		_, _, err := run(t, "diff", "--record", path)
		assert.ErrorContains(t, err, "--registry is required")
	})
}

func TestKeygen(t *testing.T) {
	first, _, err := run(t, "keygen")
	require.NoError(t, err)
	second, _, err := run(t, "keygen")
	require.NoError(t, err)
	assert.NotEmpty(t, first)
	assert.NotEqual(t, first, second)
}
