package context

import (
	"path/filepath"
	"sort"
	"strings"
)

// DefaultExcludeNames are file and directory names skipped at every depth
var DefaultExcludeNames = []string{
	".DS_Store",
	".next",
	".nx",
	".git",
	".gen",
	".env",
	".idea",
	".vscode",
	".yarn",
	"dist",
	"update.sh",
	"node_modules",
	"package-lock.json",
	"yarn-lock.json",
	"pnpm-lock.yaml",
}

// DefaultExcludeExtensions are file extensions whose content is never inlined
var DefaultExcludeExtensions = []string{
	".jpg", ".jpeg", ".png", ".ico", ".svg", ".woff2", ".zip",
}

// Policy decides which entries the serializer skips. It is immutable once built;
// Merge returns a new policy.
type Policy struct {
	names map[string]bool
	exts  map[string]bool
}

// NewPolicy builds a policy from exact names and extensions.
// Extensions are matched case-insensitively and may be given with or without the dot.
func NewPolicy(names, exts []string) *Policy {
	p := &Policy{
		names: make(map[string]bool, len(names)),
		exts:  make(map[string]bool, len(exts)),
	}
	for _, n := range names {
		if n = strings.TrimSpace(n); n != "" {
			p.names[n] = true
		}
	}
	for _, e := range exts {
		if e = normalizeExt(e); e != "" {
			p.exts[e] = true
		}
	}
	return p
}

// DefaultPolicy returns the built-in exclusion lists
func DefaultPolicy() *Policy {
	return NewPolicy(DefaultExcludeNames, DefaultExcludeExtensions)
}

// Merge returns a copy of p extended with extra names and extensions
func (p *Policy) Merge(names, exts []string) *Policy {
	return NewPolicy(append(p.Names(), names...), append(p.Extensions(), exts...))
}

// SkipName reports whether an entry with this exact name is excluded
func (p *Policy) SkipName(name string) bool {
	return p != nil && p.names[name]
}

// SkipFile reports whether a file is excluded by name or by extension
func (p *Policy) SkipFile(name string) bool {
	if p == nil {
		return false
	}
	return p.names[name] || p.exts[strings.ToLower(filepath.Ext(name))]
}

// Names returns the excluded names, sorted
func (p *Policy) Names() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.names)
}

// Extensions returns the excluded extensions, sorted
func (p *Policy) Extensions() []string {
	if p == nil {
		return nil
	}
	return sortedKeys(p.exts)
}

func normalizeExt(ext string) string {
	ext = strings.ToLower(strings.TrimSpace(ext))
	if ext == "" {
		return ""
	}
	if !strings.HasPrefix(ext, ".") {
		ext = "." + ext
	}
	return ext
}

func sortedKeys(m map[string]bool) []string {
	keys := make([]string, 0, len(m))
	for k := range m {
		keys = append(keys, k)
	}
	sort.Strings(keys)
	return keys
}
