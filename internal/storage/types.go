package storage

import (
	"errors"
	"time"
)

// ErrTargetNotFound is returned when a project or scope reference does not resolve
var ErrTargetNotFound = errors.New("target not found")

// DefaultModel is cached when the endpoint cannot list its models and no reasoning model is set
const DefaultModel = "gpt-3.5-turbo"

// Project is a named root folder plus the folders serialized into its context
type Project struct {
	ID         string    `json:"id"`
	Name       string    `json:"name"`
	RootFolder string    `json:"rootFolder"`
	Folders    []string  `json:"folders"`
	CreatedAt  time.Time `json:"createdAt"`
	UpdatedAt  time.Time `json:"updatedAt"`
}

// Scope is a named subset of folders within a project
type Scope struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	ProjectID string    `json:"projectId"`
	Folders   []string  `json:"folders"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Model is one entry of the cached model list
type Model struct {
	ID   string `json:"id"`
	Name string `json:"name"`
}

// Target is a resolved project with an optional scope
type Target struct {
	Project Project
	Scope   *Scope
}

// ScopeName returns the scope name, or "" when the target has no scope
func (t *Target) ScopeName() string {
	if t.Scope == nil {
		return ""
	}
	return t.Scope.Name
}

// Folders returns the folders the context is built from: the scope's if set, else the project's
func (t *Target) Folders() []string {
	if t.Scope != nil && len(t.Scope.Folders) > 0 {
		return t.Scope.Folders
	}
	if len(t.Project.Folders) > 0 {
		return t.Project.Folders
	}
	return []string{t.Project.RootFolder}
}
