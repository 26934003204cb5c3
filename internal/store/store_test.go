package store

import (
	"context"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/roach88/replica/internal/schema"
)

func TestOpen_CreatesNewDatabase(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	defer s.Close()

	if _, err := os.Stat(path); os.IsNotExist(err) {
		t.Error("database file was not created")
	}
}

func TestOpen_Idempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")

	for i := 0; i < 3; i++ {
		s, err := Open(path)
		if err != nil {
			t.Fatalf("Open() iteration %d failed: %v", i, err)
		}
		s.Close()
	}

	s, err := Open(path)
	if err != nil {
		t.Fatalf("final Open() failed: %v", err)
	}
	defer s.Close()

	tables := []string{"items", "sync_coverage", "sync_coverage_meta"}
	for _, table := range tables {
		var name string
		err := s.db.QueryRow(
			"SELECT name FROM sqlite_master WHERE type='table' AND name=?",
			table,
		).Scan(&name)
		if err != nil {
			t.Errorf("table %q not found after idempotent opens: %v", table, err)
		}
	}
}

func TestOpen_Pragmas(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		name     string
		expected string
	}{
		{"journal_mode", "wal"},
		{"synchronous", "1"}, // NORMAL
		{"busy_timeout", "5000"},
		{"foreign_keys", "1"},
		{"user_version", "1"},
	}
	for _, tt := range tests {
		if err := s.verifyPragma(tt.name, tt.expected); err != nil {
			t.Error(err)
		}
	}
}

func TestOpen_RefusesNewerSchema(t *testing.T) {
	path := filepath.Join(t.TempDir(), "test.db")
	s, err := Open(path)
	if err != nil {
		t.Fatalf("Open() failed: %v", err)
	}
	if _, err := s.db.Exec("PRAGMA user_version = 99"); err != nil {
		t.Fatalf("set user_version: %v", err)
	}
	s.Close()

	if _, err := Open(path); err == nil {
		t.Fatal("Open() accepted a database from a newer version")
	}
}

func TestApplyCatalog_CreatesValueTables(t *testing.T) {
	s := createTestStore(t)

	for _, a := range s.Catalog().Attributes() {
		var sql string
		err := s.db.QueryRow(
			"SELECT sql FROM sqlite_master WHERE type='table' AND name=?",
			a.Table,
		).Scan(&sql)
		if err != nil {
			t.Errorf("table %q for attribute %q not found: %v", a.Table, a.ID, err)
		}
	}
}

func TestApplyCatalog_ColumnTypes(t *testing.T) {
	s := createTestStore(t)

	tests := []struct {
		table string
		want  string
	}{
		{"attr_summary", "TEXT"},
		{"attr_labels", "TEXT"},
		{"attr_priority", "INTEGER"},
		{"attr_status", "INTEGER"},
		{"attr_created", "INTEGER"},
	}
	for _, tt := range tests {
		var typ string
		err := s.db.QueryRow(
			"SELECT type FROM pragma_table_info(?) WHERE name = 'value'",
			tt.table,
		).Scan(&typ)
		if err != nil {
			t.Fatalf("table_info(%s): %v", tt.table, err)
		}
		if typ != tt.want {
			t.Errorf("%s.value type = %q, want %q", tt.table, typ, tt.want)
		}
	}
}

func TestApplyCatalog_ResetsCompilerCache(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if _, err := s.Compiler().Compile(notNull("summary")); err != nil {
		t.Fatalf("Compile() failed: %v", err)
	}
	if s.Compiler().CacheLen() != 1 {
		t.Fatalf("CacheLen() = %d, want 1", s.Compiler().CacheLen())
	}

	c, err := schema.NewCatalog(schema.Attribute{ID: "summary", Type: schema.TypeString})
	if err != nil {
		t.Fatal(err)
	}
	if err := s.ApplyCatalog(ctx, c); err != nil {
		t.Fatalf("ApplyCatalog() failed: %v", err)
	}
	if s.Compiler().CacheLen() != 0 {
		t.Errorf("CacheLen() = %d after ApplyCatalog, want 0", s.Compiler().CacheLen())
	}
	if s.Catalog() != c {
		t.Error("Catalog() did not switch to the applied catalog")
	}
}

func TestTextMatchFunc(t *testing.T) {
	tests := []struct {
		value   any
		pattern string
		mode    int64
		want    bool
	}{
		{"Crash on start", "CRASH", 0, true},
		{"Straße closed", "strasse", 0, true},
		{"UI glitch", "^ui", 1, true},
		{"UI glitch", "^glitch", 1, false},
		{nil, "", 0, false},
		{[]byte(nil), "", 0, false},
		{int64(12), "1", 0, false},
	}
	for _, tt := range tests {
		got, err := textMatchFunc(tt.value, tt.pattern, tt.mode)
		if err != nil {
			t.Errorf("textMatchFunc(%v, %q) error: %v", tt.value, tt.pattern, err)
			continue
		}
		if got != tt.want {
			t.Errorf("textMatchFunc(%v, %q, %d) = %v, want %v", tt.value, tt.pattern, tt.mode, got, tt.want)
		}
	}
}

func TestApplyCatalog_RefusesChangedAttributes(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	if err := s.ApplyCatalog(ctx, s.Catalog()); err != nil {
		t.Fatalf("reapplying the same catalog failed: %v", err)
	}

	tests := []struct {
		name string
		attr schema.Attribute
		want string
	}{
		{"type", schema.Attribute{ID: "summary", Type: schema.TypeInt}, "stores TEXT values, catalog declares INTEGER"},
		{"composition", schema.Attribute{ID: "labels", Type: schema.TypeString}, "was created as collection, catalog declares scalar"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			c, err := schema.NewCatalog(tt.attr)
			if err != nil {
				t.Fatal(err)
			}
			err = s.ApplyCatalog(ctx, c)
			if err == nil || !strings.Contains(err.Error(), tt.want) {
				t.Fatalf("ApplyCatalog() error = %v, want it to contain %q", err, tt.want)
			}
			if s.Catalog() == c {
				t.Error("refused catalog was applied")
			}
		})
	}
}
