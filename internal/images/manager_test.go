package images

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"
)

// newTestManager returns a Manager rooted in a temp dir that records every
// call to the delete primitive.
func newTestManager(t *testing.T) (*Manager, *[]string) {
	t.Helper()
	m, err := New(filepath.Join(t.TempDir(), "images"))
	if err != nil {
		t.Fatalf("New: %v", err)
	}
	var removed []string
	m.remove = func(path string) error {
		removed = append(removed, path)
		return os.Remove(path)
	}
	return m, &removed
}

func writeTemp(t *testing.T, content string) string {
	t.Helper()
	path := filepath.Join(t.TempDir(), "capture.jpg")
	if err := os.WriteFile(path, []byte(content), 0o644); err != nil {
		t.Fatal(err)
	}
	return path
}

func TestDirEndsWithSeparator(t *testing.T) {
	m, _ := newTestManager(t)
	if !strings.HasSuffix(m.Dir(), string(filepath.Separator)) {
		t.Errorf("expected trailing separator, got %q", m.Dir())
	}
}

func TestEnsureDirectoryIdempotent(t *testing.T) {
	m, _ := newTestManager(t)

	for i := 0; i < 2; i++ {
		if err := m.EnsureDirectory(); err != nil {
			t.Fatalf("EnsureDirectory (run %d): %v", i+1, err)
		}
	}
	info, err := os.Stat(m.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if !info.IsDir() {
		t.Error("expected a directory")
	}
}

func TestSaveImage(t *testing.T) {
	m, _ := newTestManager(t)
	src := writeTemp(t, "photo bytes")

	got, err := m.SaveImage(src, "x.jpg")
	if err != nil {
		t.Fatalf("SaveImage: %v", err)
	}
	if got != m.Dir()+"x.jpg" {
		t.Errorf("expected %q, got %q", m.Dir()+"x.jpg", got)
	}
	data, err := os.ReadFile(got)
	if err != nil {
		t.Fatal(err)
	}
	if string(data) != "photo bytes" {
		t.Errorf("unexpected content %q", data)
	}
	// Source is copied, not moved.
	if _, err := os.Stat(src); err != nil {
		t.Errorf("expected source to remain: %v", err)
	}
}

func TestSaveImageOverwrites(t *testing.T) {
	m, removed := newTestManager(t)

	first, err := m.SaveImage(writeTemp(t, "first, and longer"), "x.jpg")
	if err != nil {
		t.Fatal(err)
	}
	second, err := m.SaveImage(writeTemp(t, "second"), "x.jpg")
	if err != nil {
		t.Fatal(err)
	}
	if first != second {
		t.Fatalf("expected same path, got %q and %q", first, second)
	}

	entries, err := os.ReadDir(m.Dir())
	if err != nil {
		t.Fatal(err)
	}
	if len(entries) != 1 {
		t.Errorf("expected exactly one file, got %d", len(entries))
	}
	data, _ := os.ReadFile(second)
	if string(data) != "second" {
		t.Errorf("expected second call's content, got %q", data)
	}
	if len(*removed) != 1 || (*removed)[0] != first {
		t.Errorf("expected the old file to be deleted first, got %v", *removed)
	}
}

func TestSaveImageMissingSource(t *testing.T) {
	m, _ := newTestManager(t)

	_, err := m.SaveImage(filepath.Join(t.TempDir(), "nope.jpg"), "x.jpg")
	if err == nil {
		t.Fatal("expected error for missing source")
	}
	if _, statErr := os.Stat(m.Dir() + "x.jpg"); !os.IsNotExist(statErr) {
		t.Error("expected no file to be created")
	}
}

func TestSaveImageRejectsUnsafeFilenames(t *testing.T) {
	m, _ := newTestManager(t)
	src := writeTemp(t, "x")

	for _, name := range []string{"", ".", "..", "../x.jpg", "sub/x.jpg", `sub\x.jpg`} {
		if _, err := m.SaveImage(src, name); !errors.Is(err, ErrInvalidFilename) {
			t.Errorf("SaveImage(%q): expected ErrInvalidFilename, got %v", name, err)
		}
	}
}

func TestDeleteImage(t *testing.T) {
	m, removed := newTestManager(t)
	path, err := m.SaveImage(writeTemp(t, "x"), "x.jpg")
	if err != nil {
		t.Fatal(err)
	}

	if err := m.DeleteImage(path); err != nil {
		t.Fatalf("DeleteImage: %v", err)
	}
	if _, err := os.Stat(path); !os.IsNotExist(err) {
		t.Error("expected file to be deleted")
	}

	// Already gone: still not an error.
	if err := m.DeleteImage(path); err != nil {
		t.Errorf("DeleteImage on missing file: %v", err)
	}
	if len(*removed) != 2 {
		t.Errorf("expected 2 delete calls, got %d", len(*removed))
	}
}

func TestDeleteImageIgnoresForeignPaths(t *testing.T) {
	m, removed := newTestManager(t)

	outside := writeTemp(t, "keep me")
	paths := []string{
		"",
		"preset:Keys",
		outside,
		strings.TrimSuffix(m.Dir(), string(filepath.Separator)),
		m.Dir() + ".." + string(filepath.Separator) + "escape.jpg",
	}
	for _, p := range paths {
		if err := m.DeleteImage(p); err != nil {
			t.Errorf("DeleteImage(%q): %v", p, err)
		}
	}

	if len(*removed) != 0 {
		t.Errorf("expected delete primitive never to be called, got %v", *removed)
	}
	if _, err := os.Stat(outside); err != nil {
		t.Errorf("expected foreign file to survive: %v", err)
	}
}

func TestFilenames(t *testing.T) {
	loc := LocationFilename()
	if !strings.HasPrefix(loc, "loc_") || !strings.HasSuffix(loc, ".jpg") {
		t.Errorf("unexpected location filename %q", loc)
	}
	if LocationFilename() == loc {
		t.Error("expected unique location filenames")
	}

	now := time.UnixMilli(1700000000000)
	if got := UpdateFilename("abc", now); got != "location_abc_1700000000000.jpg" {
		t.Errorf("unexpected update filename %q", got)
	}

	icon := IconFilename()
	if !strings.HasPrefix(icon, "icon_") || validateFilename(icon) != nil {
		t.Errorf("unexpected icon filename %q", icon)
	}
}
