package pathutil

import (
	"os"
	"path/filepath"
	"testing"
)

func TestExpandHome(t *testing.T) {
	home, err := os.UserHomeDir()
	if err != nil {
		t.Skip("no home directory")
	}

	tests := []struct {
		in, want string
	}{
		{"~", home},
		{"~/genome.txt", home + "/genome.txt"},
		{"/abs/genome.txt", "/abs/genome.txt"},
		{"rel/genome.txt", "rel/genome.txt"},
		{"~user/genome.txt", "~user/genome.txt"},
	}
	for _, tt := range tests {
		got, err := ExpandHome(tt.in)
		if err != nil {
			t.Fatalf("ExpandHome(%q): %v", tt.in, err)
		}
		if got != tt.want {
			t.Errorf("ExpandHome(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestResolveAbsolutePath(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "genome.txt")
	if err := os.WriteFile(target, []byte("rs1 AA"), 0600); err != nil {
		t.Fatal(err)
	}
	link := filepath.Join(dir, "link.txt")
	if err := os.Symlink(target, link); err != nil {
		t.Skipf("symlinks unavailable: %v", err)
	}

	got, err := ResolveAbsolutePath(link)
	if err != nil {
		t.Fatal(err)
	}
	want, _ := filepath.EvalSymlinks(target)
	if got != want {
		t.Errorf("ResolveAbsolutePath(link) = %q, want %q", got, want)
	}

	missing := filepath.Join(dir, "missing", "file.txt")
	got, err = ResolveAbsolutePath(missing)
	if err != nil {
		t.Fatal(err)
	}
	if !filepath.IsAbs(got) || filepath.Base(got) != "file.txt" {
		t.Errorf("ResolveAbsolutePath(missing) = %q", got)
	}
}
