package context

import (
	"os"
	"path/filepath"
	"strings"
)

// ExplorerOptions configures directory discovery for folder pickers
type ExplorerOptions struct {
	MaxDepth      int // 0 = unlimited
	Policy        *Policy
	IncludeHidden bool
}

// DefaultExplorerOptions returns sensible defaults for exploration
func DefaultExplorerOptions() ExplorerOptions {
	return ExplorerOptions{
		MaxDepth:      3,
		Policy:        DefaultPolicy(),
		IncludeHidden: false,
	}
}

// ListDirs returns the directories under rootPath as paths relative to it.
// Excluded and (by default) hidden directories are pruned together with their subtrees.
func ListDirs(rootPath string, opts ExplorerOptions) ([]string, error) {
	absRoot, err := filepath.Abs(rootPath)
	if err != nil {
		return nil, err
	}
	if _, err := os.Stat(absRoot); err != nil {
		return nil, err
	}

	var dirs []string
	exploreRecursive(absRoot, absRoot, 1, opts, &dirs)
	return dirs, nil
}

func exploreRecursive(rootPath, currentPath string, depth int, opts ExplorerOptions, dirs *[]string) {
	if opts.MaxDepth > 0 && depth > opts.MaxDepth {
		return
	}

	entries, err := os.ReadDir(currentPath)
	if err != nil {
		return // Keep partial result on error
	}

	for _, entry := range entries {
		if !entry.IsDir() {
			continue
		}

		name := entry.Name()
		if !opts.IncludeHidden && strings.HasPrefix(name, ".") {
			continue
		}
		if opts.Policy.SkipName(name) {
			continue
		}

		childPath := filepath.Join(currentPath, name)
		relPath, _ := filepath.Rel(rootPath, childPath)
		*dirs = append(*dirs, relPath)

		exploreRecursive(rootPath, childPath, depth+1, opts, dirs)
	}
}
