package tools

import (
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/ashwinyue/next-ai/internal/apperr"
)

func TestResolvePathRejectsEscape(t *testing.T) {
	dir := t.TempDir()

	cases := []string{
		"../secret.txt",
		"../../etc/passwd",
		"a/../../b.txt",
	}
	for _, c := range cases {
		if _, err := resolvePath(dir, c); err == nil {
			t.Fatalf("resolvePath(%q) = nil error, want path-escape error", c)
		} else if apperr.KindOf(err) != apperr.PathEscape {
			t.Fatalf("resolvePath(%q) kind = %v, want PATH_ESCAPE", c, apperr.KindOf(err))
		}
	}
}

func TestResolvePathAcceptsDescendant(t *testing.T) {
	dir := t.TempDir()
	if err := os.MkdirAll(filepath.Join(dir, "sub"), 0o755); err != nil {
		t.Fatalf("mkdir: %v", err)
	}

	resolved, err := resolvePath(dir, "sub/file.txt")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	absDir, _ := filepath.Abs(dir)
	if !strings.HasPrefix(resolved, absDir) {
		t.Fatalf("resolved path %q is not under %q", resolved, absDir)
	}
}

func TestReadFileTruncatesAndRejectsEscape(t *testing.T) {
	dir := t.TempDir()
	content := strings.Repeat("x", 100)
	if err := os.WriteFile(filepath.Join(dir, "big.txt"), []byte(content), 0o644); err != nil {
		t.Fatalf("write file: %v", err)
	}

	out, err := ReadFile(dir, "big.txt", 10)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !strings.Contains(out, "仅显示前10字符") {
		t.Fatalf("expected truncation marker, got %q", out)
	}

	if _, err := ReadFile(dir, "../outside.txt", 10); err == nil {
		t.Fatalf("expected path-escape error")
	}
}
