package cmd

import (
	"errors"
	"fmt"
	"path/filepath"
	"slices"
	"strings"

	"github.com/manifoldco/promptui"

	forgectx "github.com/tara-vision/codeforge/internal/context"
	"github.com/tara-vision/codeforge/internal/storage"
)

const (
	doneItem    = "✔ Done"
	noScopeItem = "(whole project)"
)

// errNothingPicked is returned when a picker closes with nothing selected
var errNothingPicked = errors.New("nothing selected")

func containsFold(item, input string) bool {
	return strings.Contains(strings.ToLower(item), strings.ToLower(input))
}

// pickFolders shows the directories under root and toggles them until Done.
// Selected folders are returned as absolute paths; root itself is offered as ".".
func pickFolders(root string, policy *forgectx.Policy, preselected []string) ([]string, error) {
	absRoot, err := filepath.Abs(root)
	if err != nil {
		return nil, err
	}

	opts := forgectx.DefaultExplorerOptions()
	opts.Policy = policy
	dirs, err := forgectx.ListDirs(absRoot, opts)
	if err != nil {
		return nil, fmt.Errorf("failed to list folders: %w", err)
	}
	dirs = append([]string{"."}, dirs...)

	selected := make(map[string]bool)
	for _, p := range preselected {
		if rel, err := filepath.Rel(absRoot, p); err == nil && !strings.HasPrefix(rel, "..") {
			selected[rel] = true
		}
	}

	cursor := 0
	for {
		items := make([]string, 0, len(dirs)+1)
		items = append(items, fmt.Sprintf("%s (%d selected)", doneItem, len(selected)))
		for _, d := range dirs {
			mark := "[ ]"
			if selected[d] {
				mark = "[x]"
			}
			items = append(items, mark+" "+d)
		}

		prompt := promptui.Select{
			Label:     "Toggle folders for the context",
			Items:     items,
			Size:      20,
			CursorPos: cursor,
			Searcher: func(input string, index int) bool {
				return containsFold(items[index], input)
			},
			HideSelected: true,
		}

		idx, _, err := prompt.Run()
		if err != nil {
			return nil, err
		}
		if idx == 0 {
			break
		}
		d := dirs[idx-1]
		selected[d] = !selected[d]
		if !selected[d] {
			delete(selected, d)
		}
		cursor = idx
	}

	if len(selected) == 0 {
		return nil, errNothingPicked
	}
	var folders []string
	for _, d := range dirs {
		if selected[d] {
			folders = append(folders, filepath.Join(absRoot, d))
		}
	}
	return folders, nil
}

// selectProject lets the user pick one project
func selectProject(projects []storage.Project) (*storage.Project, error) {
	if len(projects) == 0 {
		return nil, fmt.Errorf("no projects yet, create one with 'codeforge project add <name> <root>'")
	}

	labels := make([]string, len(projects))
	for i, p := range projects {
		labels[i] = fmt.Sprintf("%s  %s", p.Name, p.RootFolder)
	}

	prompt := promptui.Select{
		Label: "Select a project",
		Items: labels,
		Size:  15,
		Searcher: func(input string, index int) bool {
			return containsFold(labels[index], input)
		},
		HideSelected: true,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	return &projects[idx], nil
}

// selectScope lets the user pick a scope or the whole project; nil means no scope
func selectScope(scopes []storage.Scope) (*storage.Scope, error) {
	labels := []string{noScopeItem}
	for _, s := range scopes {
		labels = append(labels, fmt.Sprintf("%s  (%d folders)", s.Name, len(s.Folders)))
	}

	prompt := promptui.Select{
		Label:        "Select a scope",
		Items:        labels,
		Size:         15,
		HideSelected: true,
	}
	idx, _, err := prompt.Run()
	if err != nil {
		return nil, err
	}
	if idx == 0 {
		return nil, nil
	}
	return &scopes[idx-1], nil
}

// selectModel picks a model id, starting on current when it is in the list
func selectModel(label string, models []storage.Model, current string) (string, error) {
	if len(models) == 0 {
		return "", fmt.Errorf("no models cached, run '/models refresh'")
	}

	ids := make([]string, len(models))
	for i, m := range models {
		ids[i] = m.ID
	}

	prompt := promptui.Select{
		Label:     label,
		Items:     ids,
		Size:      15,
		CursorPos: max(slices.Index(ids, current), 0),
		Searcher: func(input string, index int) bool {
			return containsFold(ids[index], input)
		},
		StartInSearchMode: len(ids) > 15,
		HideSelected:      true,
	}
	_, id, err := prompt.Run()
	return id, err
}
