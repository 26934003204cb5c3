package store

import (
	"context"
	"path/filepath"
	"testing"

	"github.com/roach88/replica/internal/testutil"
)

// createTestStore opens a store in a temp dir with the shared test catalog
// applied.
func createTestStore(t *testing.T, opts ...Option) *Store {
	t.Helper()
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path, opts...)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	t.Cleanup(func() { s.Close() })

	if err := s.ApplyCatalog(context.Background(), testutil.Catalog(t)); err != nil {
		t.Fatalf("ApplyCatalog() failed: %v", err)
	}
	return s
}
