package context

import (
	"os"
	"path/filepath"
	"testing"
)

func TestPolicySkip(t *testing.T) {
	p := NewPolicy([]string{"node_modules", " "}, []string{"PNG", ".Zip", ""})

	tests := []struct {
		name     string
		skipName bool
		skipFile bool
	}{
		{"node_modules", true, true},
		{"logo.png", false, true},
		{"LOGO.PNG", false, true},
		{"bundle.zip", false, true},
		{"main.go", false, false},
		{"png", false, false},
	}

	for _, tt := range tests {
		if got := p.SkipName(tt.name); got != tt.skipName {
			t.Errorf("SkipName(%q) = %v, want %v", tt.name, got, tt.skipName)
		}
		if got := p.SkipFile(tt.name); got != tt.skipFile {
			t.Errorf("SkipFile(%q) = %v, want %v", tt.name, got, tt.skipFile)
		}
	}

	if len(p.Names()) != 1 {
		t.Errorf("expected blank names to be dropped, got %v", p.Names())
	}
	if exts := p.Extensions(); len(exts) != 2 || exts[0] != ".png" || exts[1] != ".zip" {
		t.Errorf("unexpected extensions: %v", exts)
	}
}

func TestPolicyMergeDoesNotMutate(t *testing.T) {
	base := DefaultPolicy()
	merged := base.Merge([]string{"vendor"}, []string{".pdf"})

	if base.SkipName("vendor") || base.SkipFile("doc.pdf") {
		t.Error("Merge mutated the base policy")
	}
	if !merged.SkipName("vendor") || !merged.SkipFile("doc.pdf") || !merged.SkipName(".git") {
		t.Error("merged policy is missing entries")
	}
}

func TestNilPolicySkipsNothing(t *testing.T) {
	var p *Policy
	if p.SkipName(".git") || p.SkipFile("a.png") {
		t.Error("nil policy should not skip")
	}
}

func TestListDirs(t *testing.T) {
	dir := t.TempDir()
	for _, d := range []string{"src/app", "node_modules/x", ".hidden/y", "docs"} {
		if err := os.MkdirAll(filepath.Join(dir, d), 0755); err != nil {
			t.Fatalf("mkdir: %v", err)
		}
	}

	dirs, err := ListDirs(dir, DefaultExplorerOptions())
	if err != nil {
		t.Fatalf("ListDirs failed: %v", err)
	}

	got := make(map[string]bool)
	for _, d := range dirs {
		got[filepath.ToSlash(d)] = true
	}
	for _, want := range []string{"src", "src/app", "docs"} {
		if !got[want] {
			t.Errorf("expected %s in %v", want, dirs)
		}
	}
	for _, unwanted := range []string{"node_modules", "node_modules/x", ".hidden", ".hidden/y"} {
		if got[unwanted] {
			t.Errorf("did not expect %s in %v", unwanted, dirs)
		}
	}

	if _, err := ListDirs(filepath.Join(dir, "missing"), DefaultExplorerOptions()); err == nil {
		t.Error("expected error for missing root")
	}
}
