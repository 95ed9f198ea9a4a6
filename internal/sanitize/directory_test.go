package sanitize_test

// Notes:
// - The unreadable-file case is skipped when running as root or on Windows,
//   where permission bits do not prevent reads.

import (
	"context"
	"errors"
	"io/fs"
	"os"
	"path/filepath"
	"runtime"
	"testing"

	"github.com/alnah/go-md2lms/internal/sanitize"
)

func writeFile(t *testing.T, path string, data []byte) {
	t.Helper()
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		t.Fatalf("MkdirAll: %v", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		t.Fatalf("WriteFile: %v", err)
	}
}

func readFile(t *testing.T, path string) string {
	t.Helper()
	data, err := os.ReadFile(path)
	if err != nil {
		t.Fatalf("ReadFile: %v", err)
	}
	return string(data)
}

// ---------------------------------------------------------------------------
// TestNormalizeDirectory - Final pass over an output tree
// ---------------------------------------------------------------------------

func TestNormalizeDirectory(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	png := []byte{0x89, 'P', 'N', 'G', 0x93}

	writeFile(t, filepath.Join(dir, "a.html"), []byte("<p class=\"*\">\x93hi\x94 *x*</p>"))
	writeFile(t, filepath.Join(dir, "notes.txt"), []byte("“a”"))
	writeFile(t, filepath.Join(dir, "sub", "b.HTM"), []byte("<h2>…</h2>"))
	writeFile(t, filepath.Join(dir, "clean.html"), []byte("<p>clean</p>"))
	writeFile(t, filepath.Join(dir, "image.png"), png)

	n, err := sanitize.NewSanitizer(nil, nil).NormalizeDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("NormalizeDirectory() error = %v", err)
	}
	if n != 4 {
		t.Errorf("NormalizeDirectory() count = %d, want 4", n)
	}

	tests := []struct {
		file string
		want string
	}{
		{"a.html", `<p class="*">"hi" x</p>`},
		{"notes.txt", `"a"`},
		{filepath.Join("sub", "b.HTM"), "<h2>...</h2>"},
		{"clean.html", "<p>clean</p>"},
		{"image.png", string(png)},
	}
	for _, tt := range tests {
		if got := readFile(t, filepath.Join(dir, tt.file)); got != tt.want {
			t.Errorf("%s = %q, want %q", tt.file, got, tt.want)
		}
	}
}

func TestNormalizeDirectory_Idempotent(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	path := filepath.Join(dir, "doc.html")
	writeFile(t, path, []byte("<p>“*a*” &lt; b</p><p>c <*d</p>"))

	s := sanitize.NewSanitizer(nil, nil)
	if _, err := s.NormalizeDirectory(context.Background(), dir); err != nil {
		t.Fatalf("first pass: %v", err)
	}
	first := readFile(t, path)

	if _, err := s.NormalizeDirectory(context.Background(), dir); err != nil {
		t.Fatalf("second pass: %v", err)
	}
	if second := readFile(t, path); second != first {
		t.Errorf("second pass changed file:\n  first  %q\n  second %q", first, second)
	}
}

func TestNormalizeDirectory_Options(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	writeFile(t, filepath.Join(dir, "keep.txt"), []byte("*x*"))
	writeFile(t, filepath.Join(dir, "page.xhtml"), []byte("<p title=\"*\">*y*</p>"))

	s := sanitize.NewSanitizer(nil, nil,
		sanitize.WithBinaryExtensions("txt"),
		sanitize.WithHTMLExtensions(".xhtml"),
		sanitize.WithLogger(nil),
	)
	n, err := s.NormalizeDirectory(context.Background(), dir)
	if err != nil {
		t.Fatalf("NormalizeDirectory() error = %v", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if got := readFile(t, filepath.Join(dir, "keep.txt")); got != "*x*" {
		t.Errorf("skipped file changed: %q", got)
	}
	if got := readFile(t, filepath.Join(dir, "page.xhtml")); got != `<p title="*">y</p>` {
		t.Errorf("page.xhtml = %q", got)
	}
}

// ---------------------------------------------------------------------------
// TestNormalizeDirectory_Errors - Failure handling
// ---------------------------------------------------------------------------

func TestNormalizeDirectory_Errors(t *testing.T) {
	t.Parallel()

	dir := t.TempDir()
	file := filepath.Join(dir, "file.html")
	writeFile(t, file, []byte("x"))

	s := sanitize.NewSanitizer(nil, nil)

	if _, err := s.NormalizeDirectory(context.Background(), filepath.Join(dir, "missing")); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("missing dir error = %v, want fs.ErrNotExist", err)
	}
	if _, err := s.NormalizeDirectory(context.Background(), file); !errors.Is(err, sanitize.ErrNotDirectory) {
		t.Errorf("file error = %v, want ErrNotDirectory", err)
	}

	ctx, cancel := context.WithCancel(context.Background())
	cancel()
	n, err := s.NormalizeDirectory(ctx, dir)
	if !errors.Is(err, context.Canceled) {
		t.Errorf("cancelled error = %v, want context.Canceled", err)
	}
	if n != 0 {
		t.Errorf("cancelled count = %d, want 0", n)
	}
}

func TestNormalizeDirectory_UnreadableFileDoesNotStopWalk(t *testing.T) {
	t.Parallel()

	if runtime.GOOS == "windows" || os.Geteuid() == 0 {
		t.Skip("permission bits do not block reads here")
	}

	dir := t.TempDir()
	locked := filepath.Join(dir, "a-locked.html")
	writeFile(t, locked, []byte("x"))
	writeFile(t, filepath.Join(dir, "b-open.html"), []byte("…"))
	if err := os.Chmod(locked, 0o000); err != nil {
		t.Fatalf("Chmod: %v", err)
	}
	t.Cleanup(func() { _ = os.Chmod(locked, 0o644) })

	n, err := sanitize.NewSanitizer(nil, nil).NormalizeDirectory(context.Background(), dir)
	if err == nil {
		t.Fatal("expected joined per-file error, got nil")
	}
	if !errors.Is(err, fs.ErrPermission) {
		t.Errorf("error = %v, want fs.ErrPermission", err)
	}
	if n != 1 {
		t.Errorf("count = %d, want 1", n)
	}
	if got := readFile(t, filepath.Join(dir, "b-open.html")); got != "..." {
		t.Errorf("b-open.html = %q", got)
	}
}
