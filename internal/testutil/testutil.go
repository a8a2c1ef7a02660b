// Package testutil provides shared test helpers for setting up stores and
// upload directories.
package testutil

import (
	"os"
	"testing"

	"github.com/ferrand/raido/internal/blob"
	"github.com/ferrand/raido/internal/store"
)

// TestDB creates a temporary SQLite database that is automatically cleaned up.
func TestDB(t *testing.T) *store.DB {
	t.Helper()
	dbFile, err := os.CreateTemp("", "raido-test-*.db")
	if err != nil {
		t.Fatal(err)
	}
	dbFile.Close()
	t.Cleanup(func() { os.Remove(dbFile.Name()) })

	db, err := store.Open(dbFile.Name())
	if err != nil {
		t.Fatal(err)
	}
	t.Cleanup(func() { db.Close() })
	return db
}

// TestBlobStore creates a temporary uploads directory with a blob store.
func TestBlobStore(t *testing.T) (string, *blob.Store) {
	t.Helper()
	dir := t.TempDir()
	bs, err := blob.NewStore(dir)
	if err != nil {
		t.Fatal(err)
	}
	return dir, bs
}
