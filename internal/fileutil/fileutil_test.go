package fileutil

import (
	"os"
	"path/filepath"
	"runtime"
	"testing"
)

func TestWriteFileAtomicCreatesParents(t *testing.T) {
	dir := t.TempDir()
	target := filepath.Join(dir, "nested", "out.json")

	if err := WriteFileAtomic(target, []byte("first"), 0o644); err != nil {
		t.Fatal(err)
	}
	if err := WriteFileAtomic(target, []byte("second"), 0o644); err != nil {
		t.Fatal(err)
	}

	got, err := os.ReadFile(target)
	if err != nil {
		t.Fatal(err)
	}
	if string(got) != "second" {
		t.Fatalf("content mismatch: got %q", got)
	}

	entries, err := os.ReadDir(filepath.Dir(target))
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Fatalf("expected temp files to be cleaned up, found %d entries", len(entries))
	}
}

func TestWriteFileAtomicMode(t *testing.T) {
	if runtime.GOOS == "windows" {
		t.Skip("file modes are not enforced on windows")
	}
	target := filepath.Join(t.TempDir(), "out.bin")
	if err := WriteFileAtomic(target, []byte("data"), 0o600); err != nil {
		t.Fatal(err)
	}
	info, err := os.Stat(target)
	if err != nil {
		t.Fatal(err)
	}
	if info.Mode().Perm() != 0o600 {
		t.Fatalf("mode mismatch: got %o, want %o", info.Mode().Perm(), 0o600)
	}
}

func TestHasExtension(t *testing.T) {
	tests := []struct {
		name string
		exts []string
		want bool
	}{
		{"jei.jar", []string{"jar"}, true},
		{"JEI.JAR", []string{"jar"}, true},
		{"pack.zip", []string{"jar", "zip"}, true},
		{"notes.txt", []string{"jar"}, false},
		{"jar", []string{"jar"}, false},
		{"trailing.", []string{"jar"}, false},
		{"archive.jar.disabled", []string{"jar"}, false},
	}
	for _, tc := range tests {
		if got := HasExtension(tc.name, tc.exts); got != tc.want {
			t.Errorf("HasExtension(%q, %v) = %v, want %v", tc.name, tc.exts, got, tc.want)
		}
	}
}
