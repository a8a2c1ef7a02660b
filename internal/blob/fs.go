// Package blob implements the content-addressable file store backing stage
// attachments. Files are named by their SHA-256 digest (plus the original
// extension), so the returned id is opaque, stable, and deduplicating.
package blob

import (
	"crypto/sha256"
	"encoding/hex"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"
)

// FileInfo describes a stored blob.
type FileInfo struct {
	ID   string
	Size int64
}

// Store is a filesystem-backed blob store rooted at a single directory.
type Store struct {
	root string // absolute path to the uploads directory
}

// NewStore creates a store rooted at the given directory. The directory must
// already exist.
func NewStore(root string) (*Store, error) {
	abs, err := filepath.Abs(root)
	if err != nil {
		return nil, fmt.Errorf("blob: resolve root: %w", err)
	}
	info, err := os.Stat(abs)
	if err != nil {
		return nil, fmt.Errorf("blob: stat root: %w", err)
	}
	if !info.IsDir() {
		return nil, fmt.Errorf("blob: root is not a directory: %s", abs)
	}
	return &Store{root: abs}, nil
}

// Root returns the absolute uploads directory.
func (s *Store) Root() string { return s.root }

// Put streams r into the store and returns the content-derived id. Writes go
// through a temp file and a rename, so a failed upload never leaves a
// partially-written blob under a valid id.
func (s *Store) Put(name string, r io.Reader) (*FileInfo, error) {
	tmp, err := os.CreateTemp(s.root, ".raido-upload-*")
	if err != nil {
		return nil, fmt.Errorf("blob: create temp: %w", err)
	}
	tmpName := tmp.Name()

	success := false
	defer func() {
		if !success {
			_ = tmp.Close()
			_ = os.Remove(tmpName)
		}
	}()

	h := sha256.New()
	size, err := io.Copy(io.MultiWriter(tmp, h), r)
	if err != nil {
		return nil, fmt.Errorf("blob: write temp: %w", err)
	}
	if err := tmp.Sync(); err != nil {
		return nil, fmt.Errorf("blob: fsync: %w", err)
	}
	if err := tmp.Close(); err != nil {
		return nil, fmt.Errorf("blob: close temp: %w", err)
	}

	id := hex.EncodeToString(h.Sum(nil)) + sanitizeExt(name)
	abs, err := s.safePath(id)
	if err != nil {
		return nil, err
	}
	if err := os.Rename(tmpName, abs); err != nil {
		return nil, fmt.Errorf("blob: rename: %w", err)
	}
	success = true
	return &FileInfo{ID: id, Size: size}, nil
}

// Path resolves a blob id to its absolute path, validating the id first.
func (s *Store) Path(id string) (string, error) {
	return s.safePath(id)
}

// Exists reports whether a blob with the given id is present.
func (s *Store) Exists(id string) bool {
	abs, err := s.safePath(id)
	if err != nil {
		return false
	}
	_, err = os.Stat(abs)
	return err == nil
}

// Delete removes a blob. Missing blobs are not an error: deletion is used as
// best-effort cleanup when a project is destroyed.
func (s *Store) Delete(id string) error {
	abs, err := s.safePath(id)
	if err != nil {
		return err
	}
	if err := os.Remove(abs); err != nil && !os.IsNotExist(err) {
		return fmt.Errorf("blob: delete %s: %w", id, err)
	}
	return nil
}

// safePath rejects ids with path separators or traversal and returns the
// absolute path under the uploads root.
func (s *Store) safePath(id string) (string, error) {
	if id == "" {
		return "", fmt.Errorf("blob: id is required")
	}
	cleaned := filepath.Clean(id)
	if cleaned != filepath.Base(cleaned) || strings.Contains(cleaned, "..") {
		return "", fmt.Errorf("blob: invalid id: %s", id)
	}
	abs := filepath.Join(s.root, cleaned)
	if !strings.HasPrefix(abs, s.root+string(os.PathSeparator)) {
		return "", fmt.Errorf("blob: id escapes uploads directory")
	}
	return abs, nil
}

// sanitizeExt extracts a safe lowercase extension from the original filename.
func sanitizeExt(name string) string {
	ext := strings.ToLower(filepath.Ext(filepath.Base(name)))
	if len(ext) > 10 || strings.ContainsAny(ext, `/\`) {
		return ""
	}
	return ext
}
