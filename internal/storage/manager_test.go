package storage

import (
	"os"
	"path/filepath"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"go.uber.org/multierr"
)

func TestProjectLifecycle(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	p, err := m.CreateProject("webapp", "/srv/webapp", nil)
	require.NoError(t, err)
	assert.NotEmpty(t, p.ID)
	assert.Equal(t, []string{"/srv/webapp"}, p.Folders)

	// Reload from disk
	m2, err := NewManager(dir)
	require.NoError(t, err)
	projects := m2.ListProjects()
	require.Len(t, projects, 1)
	assert.Equal(t, p.ID, projects[0].ID)

	p.Folders = []string{"/srv/webapp/src", "/srv/webapp/docs"}
	updated, err := m2.UpdateProject(*p)
	require.NoError(t, err)
	assert.Equal(t, p.CreatedAt.Unix(), updated.CreatedAt.Unix())

	got, err := m2.GetProject("webapp")
	require.NoError(t, err)
	assert.Len(t, got.Folders, 2)

	got.Folders = nil
	reset, err := m2.UpdateProject(*got)
	require.NoError(t, err)
	assert.Equal(t, []string{"/srv/webapp"}, reset.Folders)

	require.NoError(t, m2.DeleteProject(p.ID))
	assert.Empty(t, m2.ListProjects())
	assert.ErrorIs(t, m2.DeleteProject(p.ID), ErrTargetNotFound)
}

func TestProjectJSONShape(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	_, err = m.CreateProject("api", "/srv/api", []string{"/srv/api/cmd"})
	require.NoError(t, err)

	data, err := os.ReadFile(filepath.Join(dir, "projects.json"))
	require.NoError(t, err)
	assert.Contains(t, string(data), `"rootFolder": "/srv/api"`)
	assert.Contains(t, string(data), `"folders": [`)
}

func TestResolveTarget(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	web, err := m.CreateProject("web", "/srv/web", nil)
	require.NoError(t, err)
	api, err := m.CreateProject("api", "/srv/api", nil)
	require.NoError(t, err)

	ui, err := m.CreateScope(web.ID, "ui", []string{"/srv/web/src/ui"})
	require.NoError(t, err)
	_, err = m.CreateScope("api", "handlers", []string{"/srv/api/handlers"})
	require.NoError(t, err)

	target, err := m.ResolveTarget(web.ID, "")
	require.NoError(t, err)
	assert.Nil(t, target.Scope)
	assert.Equal(t, "", target.ScopeName())
	assert.Equal(t, []string{"/srv/web"}, target.Folders())

	target, err = m.ResolveTarget("web", ui.ID)
	require.NoError(t, err)
	assert.Equal(t, "ui", target.ScopeName())
	assert.Equal(t, []string{"/srv/web/src/ui"}, target.Folders())

	target, err = m.ResolveTarget("web", "ui")
	require.NoError(t, err)
	assert.Equal(t, ui.ID, target.Scope.ID)

	// Scope of another project does not resolve
	_, err = m.ResolveTarget(api.ID, ui.ID)
	assert.ErrorIs(t, err, ErrTargetNotFound)

	_, err = m.ResolveTarget("missing", "")
	assert.ErrorIs(t, err, ErrTargetNotFound)
}

func TestScopeLifecycle(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	p, err := m.CreateProject("web", "/srv/web", nil)
	require.NoError(t, err)

	_, err = m.CreateScope("nope", "x", []string{"/a"})
	assert.ErrorIs(t, err, ErrTargetNotFound)
	_, err = m.CreateScope(p.ID, "empty", nil)
	assert.Error(t, err)

	s, err := m.CreateScope(p.ID, "styles", []string{"/srv/web/css"})
	require.NoError(t, err)

	s.Name = "css"
	s.ProjectID = "tampered"
	updated, err := m.UpdateScope(*s)
	require.NoError(t, err)
	assert.Equal(t, p.ID, updated.ProjectID)

	noFolders := *updated
	noFolders.Folders = nil
	_, err = m.UpdateScope(noFolders)
	assert.Error(t, err)

	scopes, err := m.ListScopes(p.ID)
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, "css", scopes[0].Name)

	require.NoError(t, m.DeleteScope(s.ID))
	assert.ErrorIs(t, m.DeleteScope(s.ID), ErrTargetNotFound)
}

func TestDeleteProjectRemovesScopes(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	p, _ := m.CreateProject("web", "/srv/web", nil)
	other, _ := m.CreateProject("api", "/srv/api", nil)
	_, err = m.CreateScope(p.ID, "ui", []string{"/srv/web/ui"})
	require.NoError(t, err)
	_, err = m.CreateScope(other.ID, "handlers", []string{"/srv/api/h"})
	require.NoError(t, err)

	require.NoError(t, m.DeleteProject("web"))

	all, err := m.ListScopes("")
	require.NoError(t, err)
	require.Len(t, all, 1)
	assert.Equal(t, other.ID, all[0].ProjectID)
}

func TestModelCache(t *testing.T) {
	m, err := NewManager(t.TempDir())
	require.NoError(t, err)

	_, ok, err := m.LoadModels()
	require.NoError(t, err)
	assert.False(t, ok)

	models, err := m.SaveDefaultModels("")
	require.NoError(t, err)
	assert.Equal(t, []Model{{ID: DefaultModel, Name: DefaultModel}}, models)

	_, err = m.SaveDefaultModels("o3-mini")
	require.NoError(t, err)
	cached, ok, err := m.LoadModels()
	require.NoError(t, err)
	assert.True(t, ok)
	assert.Equal(t, []Model{{ID: "o3-mini", Name: "o3-mini"}}, cached)

	require.NoError(t, m.SaveModels([]string{"a", "b"}))
	cached, _, _ = m.LoadModels()
	assert.Len(t, cached, 2)

	require.NoError(t, m.ClearModels())
	require.NoError(t, m.ClearModels())
	_, ok, _ = m.LoadModels()
	assert.False(t, ok)
}

func TestNewManagerReportsEveryCorruptFile(t *testing.T) {
	dir := t.TempDir()
	require.NoError(t, os.WriteFile(filepath.Join(dir, "projects.json"), []byte("{not json"), 0644))
	require.NoError(t, os.WriteFile(filepath.Join(dir, "scopes.json"), []byte("[1,"), 0644))

	_, err := NewManager(dir)
	require.Error(t, err)

	errs := multierr.Errors(err)
	require.Len(t, errs, 2)
	assert.Contains(t, errs[0].Error(), "projects.json")
	assert.Contains(t, errs[1].Error(), "scopes.json")
}

// blockFile replaces name in dir with a directory so the next write to it fails
func blockFile(t *testing.T, dir, name string) {
	t.Helper()
	path := filepath.Join(dir, name)
	require.NoError(t, os.RemoveAll(path))
	require.NoError(t, os.Mkdir(path, 0755))
}

func TestFailedWritesLeaveStateUnchanged(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	p, err := m.CreateProject("web", "/srv/web", nil)
	require.NoError(t, err)
	s, err := m.CreateScope(p.ID, "ui", []string{"/srv/web/ui"})
	require.NoError(t, err)

	blockFile(t, dir, "projects.json")
	blockFile(t, dir, "scopes.json")

	renamed := *p
	renamed.Name = "renamed"
	_, err = m.UpdateProject(renamed)
	require.Error(t, err)
	_, err = m.CreateProject("api", "/srv/api", nil)
	require.Error(t, err)
	require.Error(t, m.DeleteProject(p.ID))

	edited := *s
	edited.Name = "css"
	_, err = m.UpdateScope(edited)
	require.Error(t, err)
	require.Error(t, m.DeleteScope(s.ID))

	projects := m.ListProjects()
	require.Len(t, projects, 1)
	assert.Equal(t, "web", projects[0].Name)

	scopes, err := m.ListScopes("")
	require.NoError(t, err)
	require.Len(t, scopes, 1)
	assert.Equal(t, "ui", scopes[0].Name)
}

func TestDeleteProjectPartialWrite(t *testing.T) {
	dir := t.TempDir()
	m, err := NewManager(dir)
	require.NoError(t, err)

	p, _ := m.CreateProject("web", "/srv/web", nil)
	_, err = m.CreateScope(p.ID, "ui", []string{"/srv/web/ui"})
	require.NoError(t, err)

	blockFile(t, dir, "projects.json")
	err = m.DeleteProject(p.ID)
	require.Error(t, err)
	assert.Len(t, multierr.Errors(err), 1)

	// memory follows what reached disk: the project stays, its scopes are gone
	assert.Len(t, m.ListProjects(), 1)
	scopes, err := m.ListScopes("")
	require.NoError(t, err)
	assert.Empty(t, scopes)

	onDisk, err := os.ReadFile(filepath.Join(dir, "scopes.json"))
	require.NoError(t, err)
	assert.JSONEq(t, "[]", string(onDisk))
}
