package storage

import (
	"encoding/json"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"
)

const (
	projectsFile = "projects.json"
	scopesFile   = "scopes.json"
	modelsFile   = "models.json"
)

// Manager handles persistence of projects, scopes and the model cache under a data directory
type Manager struct {
	rootDir  string
	mu       sync.RWMutex
	projects []Project
	scopes   []Scope
}

// NewManager creates a storage manager rooted at dataDir, creating it if needed
func NewManager(dataDir string) (*Manager, error) {
	m := &Manager{rootDir: dataDir}

	if err := os.MkdirAll(dataDir, 0755); err != nil {
		return nil, fmt.Errorf("failed to create directory %s: %w", dataDir, err)
	}

	if err := m.loadAll(); err != nil {
		return nil, err
	}

	return m, nil
}

// GetRootDir returns the data directory path
func (m *Manager) GetRootDir() string {
	return m.rootDir
}

// loadAll reads both stores and reports every file that failed to parse
func (m *Manager) loadAll() error {
	m.projects = []Project{}
	m.scopes = []Scope{}
	return multierr.Combine(
		m.readJSON(projectsFile, &m.projects),
		m.readJSON(scopesFile, &m.scopes),
	)
}

// ============= Project Management =============

// CreateProject creates a new project. Folders default to the root folder.
func (m *Manager) CreateProject(name, rootFolder string, folders []string) (*Project, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("project name is required")
	}
	if rootFolder == "" {
		return nil, fmt.Errorf("project root folder is required")
	}
	if len(folders) == 0 {
		folders = []string{rootFolder}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	now := time.Now()
	project := Project{
		ID:         uuid.New().String(),
		Name:       name,
		RootFolder: rootFolder,
		Folders:    folders,
		CreatedAt:  now,
		UpdatedAt:  now,
	}

	if err := m.commitProjects(append(slices.Clone(m.projects), project)); err != nil {
		return nil, err
	}

	return &project, nil
}

// ListProjects returns all projects
func (m *Manager) ListProjects() []Project {
	m.mu.RLock()
	defer m.mu.RUnlock()

	result := make([]Project, len(m.projects))
	copy(result, m.projects)
	return result
}

// GetProject finds a project by ID or exact name
func (m *Manager) GetProject(ref string) (*Project, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	idx := m.findProject(ref)
	if idx < 0 {
		return nil, fmt.Errorf("%w: project %q", ErrTargetNotFound, ref)
	}
	p := m.projects[idx]
	return &p, nil
}

// UpdateProject replaces the stored project with the same ID
func (m *Manager) UpdateProject(project Project) (*Project, error) {
	if project.RootFolder == "" {
		return nil, fmt.Errorf("project root folder is required")
	}
	if len(project.Folders) == 0 {
		project.Folders = []string{project.RootFolder}
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findProject(project.ID)
	if idx < 0 {
		return nil, fmt.Errorf("%w: project %q", ErrTargetNotFound, project.ID)
	}

	project.CreatedAt = m.projects[idx].CreatedAt
	project.UpdatedAt = time.Now()

	next := slices.Clone(m.projects)
	next[idx] = project
	if err := m.commitProjects(next); err != nil {
		return nil, err
	}
	return &project, nil
}

// DeleteProject removes a project and the scopes that belong to it
func (m *Manager) DeleteProject(ref string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	idx := m.findProject(ref)
	if idx < 0 {
		return fmt.Errorf("%w: project %q", ErrTargetNotFound, ref)
	}
	id := m.projects[idx].ID

	projects := slices.Delete(slices.Clone(m.projects), idx, idx+1)
	scopes := slices.DeleteFunc(slices.Clone(m.scopes), func(s Scope) bool {
		return s.ProjectID == id
	})

	// both files are written even if the first fails; each store only changes once its file is saved
	return multierr.Append(m.commitProjects(projects), m.commitScopes(scopes))
}

// findProject matches ID first, then name
func (m *Manager) findProject(ref string) int {
	for i := range m.projects {
		if m.projects[i].ID == ref {
			return i
		}
	}
	for i := range m.projects {
		if m.projects[i].Name == ref {
			return i
		}
	}
	return -1
}

// commitProjects saves next and only then makes it the in-memory state
func (m *Manager) commitProjects(next []Project) error {
	if err := m.writeJSON(projectsFile, next); err != nil {
		return err
	}
	m.projects = next
	return nil
}

// ============= Scope Management =============

// CreateScope creates a scope within an existing project
func (m *Manager) CreateScope(projectRef, name string, folders []string) (*Scope, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, fmt.Errorf("scope name is required")
	}
	if len(folders) == 0 {
		return nil, fmt.Errorf("scope needs at least one folder")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	pidx := m.findProject(projectRef)
	if pidx < 0 {
		return nil, fmt.Errorf("%w: project %q", ErrTargetNotFound, projectRef)
	}

	now := time.Now()
	scope := Scope{
		ID:        uuid.New().String(),
		Name:      name,
		ProjectID: m.projects[pidx].ID,
		Folders:   folders,
		CreatedAt: now,
		UpdatedAt: now,
	}

	if err := m.commitScopes(append(slices.Clone(m.scopes), scope)); err != nil {
		return nil, err
	}

	return &scope, nil
}

// ListScopes returns the scopes of one project, or all scopes when projectRef is empty
func (m *Manager) ListScopes(projectRef string) ([]Scope, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if projectRef == "" {
		result := make([]Scope, len(m.scopes))
		copy(result, m.scopes)
		return result, nil
	}

	pidx := m.findProject(projectRef)
	if pidx < 0 {
		return nil, fmt.Errorf("%w: project %q", ErrTargetNotFound, projectRef)
	}

	var result []Scope
	for _, s := range m.scopes {
		if s.ProjectID == m.projects[pidx].ID {
			result = append(result, s)
		}
	}
	return result, nil
}

// UpdateScope replaces the stored scope with the same ID
func (m *Manager) UpdateScope(scope Scope) (*Scope, error) {
	if len(scope.Folders) == 0 {
		return nil, fmt.Errorf("scope needs at least one folder")
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	idx := -1
	for i := range m.scopes {
		if m.scopes[i].ID == scope.ID {
			idx = i
			break
		}
	}
	if idx < 0 {
		return nil, fmt.Errorf("%w: scope %q", ErrTargetNotFound, scope.ID)
	}

	scope.ProjectID = m.scopes[idx].ProjectID
	scope.CreatedAt = m.scopes[idx].CreatedAt
	scope.UpdatedAt = time.Now()

	next := slices.Clone(m.scopes)
	next[idx] = scope
	if err := m.commitScopes(next); err != nil {
		return nil, err
	}
	return &scope, nil
}

// DeleteScope removes a scope by ID
func (m *Manager) DeleteScope(id string) error {
	m.mu.Lock()
	defer m.mu.Unlock()

	for i := range m.scopes {
		if m.scopes[i].ID == id {
			return m.commitScopes(slices.Delete(slices.Clone(m.scopes), i, i+1))
		}
	}
	return fmt.Errorf("%w: scope %q", ErrTargetNotFound, id)
}

// findScope matches ID first, then name, within one project
func (m *Manager) findScope(projectID, ref string) int {
	for i := range m.scopes {
		if m.scopes[i].ProjectID == projectID && m.scopes[i].ID == ref {
			return i
		}
	}
	for i := range m.scopes {
		if m.scopes[i].ProjectID == projectID && m.scopes[i].Name == ref {
			return i
		}
	}
	return -1
}

func (m *Manager) commitScopes(next []Scope) error {
	if err := m.writeJSON(scopesFile, next); err != nil {
		return err
	}
	m.scopes = next
	return nil
}

// ============= Target Resolution =============

// ResolveTarget looks up a project and, when scopeRef is non-empty, one of its scopes.
// A scope that belongs to another project does not resolve.
func (m *Manager) ResolveTarget(projectRef, scopeRef string) (*Target, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	pidx := m.findProject(projectRef)
	if pidx < 0 {
		return nil, fmt.Errorf("%w: project %q", ErrTargetNotFound, projectRef)
	}
	target := &Target{Project: m.projects[pidx]}

	if scopeRef == "" {
		return target, nil
	}

	sidx := m.findScope(target.Project.ID, scopeRef)
	if sidx < 0 {
		return nil, fmt.Errorf("%w: scope %q in project %q", ErrTargetNotFound, scopeRef, target.Project.Name)
	}
	scope := m.scopes[sidx]
	target.Scope = &scope
	return target, nil
}

// ============= Model Cache =============

// SaveModels replaces the cached model list
func (m *Manager) SaveModels(ids []string) error {
	models := make([]Model, 0, len(ids))
	for _, id := range ids {
		models = append(models, Model{ID: id, Name: id})
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	return m.writeJSON(modelsFile, models)
}

// SaveDefaultModels caches a single fallback model: the reasoning model if set, else DefaultModel
func (m *Manager) SaveDefaultModels(reasoningModel string) ([]Model, error) {
	id := reasoningModel
	if id == "" {
		id = DefaultModel
	}
	if err := m.SaveModels([]string{id}); err != nil {
		return nil, err
	}
	return []Model{{ID: id, Name: id}}, nil
}

// LoadModels returns the cached model list; ok is false when no cache exists
func (m *Manager) LoadModels() (models []Model, ok bool, err error) {
	m.mu.RLock()
	defer m.mu.RUnlock()

	if _, statErr := os.Stat(filepath.Join(m.rootDir, modelsFile)); errors.Is(statErr, os.ErrNotExist) {
		return nil, false, nil
	}
	if err := m.readJSON(modelsFile, &models); err != nil {
		return nil, false, err
	}
	return models, true, nil
}

// ClearModels removes the model cache, used when the endpoint is unset
func (m *Manager) ClearModels() error {
	m.mu.Lock()
	defer m.mu.Unlock()

	err := os.Remove(filepath.Join(m.rootDir, modelsFile))
	if err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("failed to remove model cache: %w", err)
	}
	return nil
}

// readJSON decodes name into v; a missing file leaves v untouched
func (m *Manager) readJSON(name string, v any) error {
	data, err := os.ReadFile(filepath.Join(m.rootDir, name))
	if errors.Is(err, os.ErrNotExist) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to read %s: %w", name, err)
	}
	if err := json.Unmarshal(data, v); err != nil {
		return fmt.Errorf("failed to parse %s: %w", name, err)
	}
	return nil
}

func (m *Manager) writeJSON(name string, v any) error {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return fmt.Errorf("failed to marshal %s: %w", name, err)
	}
	return os.WriteFile(filepath.Join(m.rootDir, name), data, 0644)
}
