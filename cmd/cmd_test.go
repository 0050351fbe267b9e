package cmd

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/tara-vision/codeforge/internal/storage"
)

func TestReadRequest(t *testing.T) {
	got, err := readRequest([]string{"add", "a", " README "})
	require.NoError(t, err)
	assert.Equal(t, "add a  README", got)

	_, err = readRequest([]string{"  "})
	assert.Error(t, err)
}

func TestReadFileOrStdin(t *testing.T) {
	path := filepath.Join(t.TempDir(), "solution.md")
	require.NoError(t, os.WriteFile(path, []byte("do the thing"), 0644))

	got, err := readFileOrStdin(path)
	require.NoError(t, err)
	assert.Equal(t, "do the thing", got)

	_, err = readFileOrStdin(filepath.Join(t.TempDir(), "missing"))
	assert.ErrorIs(t, err, os.ErrNotExist)
}

func TestAbsDir(t *testing.T) {
	dir := t.TempDir()
	got, err := absDir(dir)
	require.NoError(t, err)
	assert.Equal(t, dir, got)

	file := filepath.Join(dir, "f.txt")
	require.NoError(t, os.WriteFile(file, nil, 0644))
	_, err = absDir(file)
	assert.Error(t, err)
}

func TestScopeID(t *testing.T) {
	assert.Empty(t, scopeID(nil))
	assert.Empty(t, scopeID(&storage.Target{}))
	assert.Equal(t, "s1", scopeID(&storage.Target{Scope: &storage.Scope{ID: "s1"}}))
}

func TestOrFlag(t *testing.T) {
	assert.Equal(t, "flag", orFlag("flag", "cfg"))
	assert.Equal(t, "cfg", orFlag("", "cfg"))
}

func TestCommandsRegistered(t *testing.T) {
	for _, name := range []string{"prompt", "direct", "solution", "script", "context", "project", "scope", "models", "notify", "config"} {
		c, _, err := rootCmd.Find([]string{name})
		require.NoError(t, err, name)
		assert.Equal(t, name, c.Name())
	}
}
