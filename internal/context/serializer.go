package context

import (
	"fmt"
	"io/fs"
	"os"
	"path"
	"path/filepath"
	"strings"

	"golang.org/x/sync/errgroup"
)

// maxConcurrentRoots bounds how many roots are walked at the same time
const maxConcurrentRoots = 4

// Serialize renders every root into one markdown document.
// It never fails: unreadable roots, entries and files become inline error text.
func Serialize(roots []string, policy *Policy) string {
	out, _ := SerializeWithStats(roots, policy)
	return out
}

// SerializeWithStats is Serialize plus aggregate counters for the rendered tree.
// Roots are walked concurrently and joined in the order given.
func SerializeWithStats(roots []string, policy *Policy) (string, Stats) {
	parts := make([]string, len(roots))
	partStats := make([]Stats, len(roots))

	var g errgroup.Group
	g.SetLimit(maxConcurrentRoots)
	for i, root := range roots {
		g.Go(func() error {
			parts[i], partStats[i] = renderRoot(root, policy)
			return nil
		})
	}
	_ = g.Wait()

	var total Stats
	for _, s := range partStats {
		total.Add(s)
	}
	return strings.Join(parts, ""), total
}

// RenderFS renders the directory tree of fsys under a "# Folder: label" heading
func RenderFS(fsys fs.FS, label string, policy *Policy) string {
	r := newRenderer(fsys, policy)
	fmt.Fprintf(&r.sb, "# Folder: %s\n\n", label)
	r.renderDir(".", 1)
	return r.sb.String()
}

func renderRoot(root string, policy *Policy) (string, Stats) {
	info, err := os.Stat(root)
	if err != nil {
		return errorSection(1, root, err), Stats{Errors: 1}
	}

	if info.IsDir() {
		r := newRenderer(os.DirFS(root), policy)
		fmt.Fprintf(&r.sb, "# Folder: %s\n\n", root)
		r.stats.Dirs++
		r.renderDir(".", 1)
		return r.sb.String(), r.stats
	}

	if !info.Mode().IsRegular() {
		return errorSection(1, root, fmt.Errorf("not a regular file or directory")), Stats{Errors: 1}
	}

	r := newRenderer(os.DirFS(filepath.Dir(root)), policy)
	fmt.Fprintf(&r.sb, "# File: %s\n\n", root)
	r.writeFileBody(filepath.Base(root))
	return r.sb.String(), r.stats
}

// renderer accumulates the markdown for a single root
type renderer struct {
	fsys   fs.FS
	policy *Policy
	sb     strings.Builder
	stats  Stats
}

func newRenderer(fsys fs.FS, policy *Policy) *renderer {
	return &renderer{fsys: fsys, policy: policy}
}

func (r *renderer) renderDir(dir string, depth int) {
	heading := strings.Repeat("#", depth+1)

	// fs.ReadDir may return a partial listing together with an error
	entries, err := fs.ReadDir(r.fsys, dir)

	for _, entry := range entries {
		name := entry.Name()
		if r.policy.SkipName(name) {
			r.stats.Skipped++
			continue
		}

		entryPath := path.Join(dir, name)

		// Stat follows symlinks, entry.IsDir does not
		info, statErr := fs.Stat(r.fsys, entryPath)
		if statErr != nil {
			r.sb.WriteString(errorSection(depth+1, name, statErr))
			r.stats.Errors++
			continue
		}

		switch {
		case info.IsDir():
			fmt.Fprintf(&r.sb, "%s %s\n\n", heading, name)
			r.stats.Dirs++
			r.renderDir(entryPath, depth+1)
		case info.Mode().IsRegular():
			if r.policy.SkipFile(name) {
				r.stats.Skipped++
				continue
			}
			fmt.Fprintf(&r.sb, "%s %s\n\n", heading, name)
			r.writeFileBody(entryPath)
		}
	}

	if err != nil {
		r.sb.WriteString(errorSection(depth+1, dirLabel(dir), err))
		r.stats.Errors++
	}
}

func (r *renderer) writeFileBody(name string) {
	r.sb.WriteString("```\n")
	data, err := fs.ReadFile(r.fsys, name)
	if err != nil {
		fmt.Fprintf(&r.sb, "error reading file: %v", err)
		r.stats.Errors++
	} else {
		r.sb.Write(data)
		r.stats.Files++
		r.stats.Bytes += int64(len(data))
	}
	r.sb.WriteString("\n```\n\n")
}

func errorSection(depth int, title string, err error) string {
	return fmt.Sprintf("%s Error: %s\n\n%v\n\n", strings.Repeat("#", depth), title, err)
}

func dirLabel(dir string) string {
	if dir == "." {
		return "directory listing"
	}
	return dir
}
