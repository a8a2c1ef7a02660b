package blob

import (
	"os"
	"path/filepath"
	"strings"
	"testing"
)

func newTestStore(t *testing.T) *Store {
	t.Helper()
	s, err := NewStore(t.TempDir())
	if err != nil {
		t.Fatalf("NewStore: %v", err)
	}
	return s
}

func TestPutAndPath(t *testing.T) {
	s := newTestStore(t)

	info, err := s.Put("quote.pdf", strings.NewReader("hello"))
	if err != nil {
		t.Fatalf("Put: %v", err)
	}
	if info.Size != 5 {
		t.Errorf("size = %d, want 5", info.Size)
	}
	if !strings.HasSuffix(info.ID, ".pdf") {
		t.Errorf("id %q should keep the extension", info.ID)
	}
	if !s.Exists(info.ID) {
		t.Fatalf("blob %s should exist", info.ID)
	}

	abs, err := s.Path(info.ID)
	if err != nil {
		t.Fatalf("Path: %v", err)
	}
	data, err := os.ReadFile(abs)
	if err != nil {
		t.Fatalf("read blob: %v", err)
	}
	if string(data) != "hello" {
		t.Errorf("content = %q", data)
	}
}

func TestPutIsContentAddressed(t *testing.T) {
	s := newTestStore(t)

	a, err := s.Put("one.png", strings.NewReader("same bytes"))
	if err != nil {
		t.Fatal(err)
	}
	b, err := s.Put("two.png", strings.NewReader("same bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if a.ID != b.ID {
		t.Errorf("same content should yield same id: %q vs %q", a.ID, b.ID)
	}

	c, err := s.Put("one.png", strings.NewReader("different"))
	if err != nil {
		t.Fatal(err)
	}
	if c.ID == a.ID {
		t.Error("different content should yield a different id")
	}
}

func TestPutLeavesNoTempOnDisk(t *testing.T) {
	s := newTestStore(t)

	if _, err := s.Put("a.txt", strings.NewReader("x")); err != nil {
		t.Fatal(err)
	}
	entries, err := os.ReadDir(s.Root())
	if err != nil {
		t.Fatal(err)
	}
	for _, e := range entries {
		if strings.HasPrefix(e.Name(), ".") {
			t.Errorf("leftover temp file: %s", e.Name())
		}
	}
	if len(entries) != 1 {
		t.Errorf("entries = %d, want 1", len(entries))
	}
}

func TestPathRejectsTraversal(t *testing.T) {
	s := newTestStore(t)

	for _, id := range []string{"", "../etc/passwd", "a/b.txt", "..", ".."+string(filepath.Separator)+"x"} {
		if _, err := s.Path(id); err == nil {
			t.Errorf("Path(%q) should fail", id)
		}
	}
}

func TestDelete(t *testing.T) {
	s := newTestStore(t)

	info, err := s.Put("gone.txt", strings.NewReader("bye"))
	if err != nil {
		t.Fatal(err)
	}
	if err := s.Delete(info.ID); err != nil {
		t.Fatalf("Delete: %v", err)
	}
	if s.Exists(info.ID) {
		t.Error("blob should be gone")
	}
	// Deleting again is fine.
	if err := s.Delete(info.ID); err != nil {
		t.Errorf("second Delete: %v", err)
	}
}

func TestSanitizeExt(t *testing.T) {
	if got := sanitizeExt("Photo.JPG"); got != ".jpg" {
		t.Errorf("ext = %q", got)
	}
	if got := sanitizeExt("noext"); got != "" {
		t.Errorf("ext = %q", got)
	}
	if got := sanitizeExt("weird.verylongextension"); got != "" {
		t.Errorf("ext = %q", got)
	}
}
