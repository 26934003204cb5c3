package store

import (
	"context"
	"database/sql"
	_ "embed"
	"errors"
	"fmt"
	"strings"
	"sync"

	"github.com/mattn/go-sqlite3"

	"github.com/roach88/replica/internal/querysql"
	"github.com/roach88/replica/internal/schema"
	"github.com/roach88/replica/internal/syncreg"
	"github.com/roach88/replica/internal/textmatch"
)

//go:embed schema.sql
var schemaSQL string

// Schema version tracking:
// 1 - items, sync_coverage, sync_coverage_meta
const currentSchemaVersion = 1

// driverName is the sqlite3 driver variant carrying the replica's SQL
// functions.
const driverName = "sqlite3_replica"

var registerOnce sync.Once

func registerDriver() {
	registerOnce.Do(func() {
		sql.Register(driverName, &sqlite3.SQLiteDriver{
			ConnectHook: func(conn *sqlite3.SQLiteConn) error {
				return conn.RegisterFunc("text_match", textMatchFunc, true)
			},
		})
	})
}

// textMatchFunc backs the text_match SQL function. NULL and non-text values
// never match.
func textMatchFunc(value any, pattern string, mode int64) (bool, error) {
	s, ok := value.(string)
	if !ok {
		return false, nil
	}
	return textmatch.Match(s, pattern, textmatch.Mode(mode))
}

// Store is the item replica.
// Uses SQLite with WAL mode for concurrent read access.
type Store struct {
	db  *sql.DB
	gen syncreg.TokenGenerator

	mu       sync.RWMutex
	catalog  *schema.Catalog
	compiler *querysql.Compiler
}

// Option configures a Store.
type Option func(*Store)

// WithTokenGenerator sets the generator for coverage generation tokens.
func WithTokenGenerator(gen syncreg.TokenGenerator) Option {
	return func(s *Store) { s.gen = gen }
}

// Open creates or opens a SQLite database at the given path.
// Applies required pragmas and the fixed schema automatically.
//
// The store starts with an empty catalog; call ApplyCatalog before reading
// or writing attribute values.
//
// This function is idempotent - safe to call multiple times.
func Open(path string, opts ...Option) (*Store, error) {
	registerDriver()

	db, err := sql.Open(driverName, path)
	if err != nil {
		return nil, fmt.Errorf("failed to open database: %w", err)
	}
	if err := db.Ping(); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// SQLite only supports one writer at a time, so limit connections
	db.SetMaxOpenConns(1)
	db.SetMaxIdleConns(1)

	if err := applyPragmas(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply pragmas: %w", err)
	}
	if err := applySchema(db); err != nil {
		db.Close()
		return nil, fmt.Errorf("failed to apply schema: %w", err)
	}

	empty, _ := schema.NewCatalog()
	s := &Store{
		db:       db,
		gen:      syncreg.UUIDv7Generator{},
		catalog:  empty,
		compiler: querysql.NewCompiler(empty),
	}
	for _, opt := range opts {
		opt(s)
	}
	return s, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	if s.db == nil {
		return nil
	}
	return s.db.Close()
}

// Catalog returns the catalog last applied.
func (s *Store) Catalog() *schema.Catalog {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.catalog
}

// Compiler returns the SQL compiler bound to the current catalog.
func (s *Store) Compiler() *querysql.Compiler {
	return s.compiler
}

// ApplyCatalog creates the value tables of every attribute in catalog and
// makes it the store's catalog. Tables of attributes no longer in the
// catalog are left in place. Cached query plans are dropped.
//
// An existing table must match its attribute: changing an attribute's
// storage kind or composition is refused, since the table would keep the
// old column type and uniqueness.
func (s *Store) ApplyCatalog(ctx context.Context, catalog *schema.Catalog) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	defer tx.Rollback()

	for _, a := range catalog.Attributes() {
		if err := checkExistingTable(ctx, tx, a); err != nil {
			return err
		}
		for _, stmt := range attributeDDL(a) {
			if _, err := tx.ExecContext(ctx, stmt); err != nil {
				return fmt.Errorf("create table for attribute %q: %w", a.ID, err)
			}
		}
	}
	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit catalog: %w", err)
	}

	s.mu.Lock()
	s.catalog = catalog
	s.mu.Unlock()
	s.compiler.Reset(catalog)
	return nil
}

// checkExistingTable fails when the value table of a already exists with a
// different column type or composition.
func checkExistingTable(ctx context.Context, tx *sql.Tx, a schema.Attribute) error {
	var ddl string
	err := tx.QueryRowContext(ctx,
		"SELECT sql FROM sqlite_master WHERE type = 'table' AND name = ?", a.Table,
	).Scan(&ddl)
	if errors.Is(err, sql.ErrNoRows) {
		return nil
	}
	if err != nil {
		return fmt.Errorf("inspect table %s: %w", a.Table, err)
	}

	var column string
	if err := tx.QueryRowContext(ctx,
		"SELECT type FROM pragma_table_info(?) WHERE name = 'value'", a.Table,
	).Scan(&column); err != nil {
		return fmt.Errorf("inspect table %s: %w", a.Table, err)
	}
	if want := columnType(a); !strings.EqualFold(column, want) {
		return fmt.Errorf("attribute %q: table %s stores %s values, catalog declares %s", a.ID, a.Table, column, want)
	}
	if collection := strings.Contains(ddl, "UNIQUE (item, value)"); collection != a.IsCollection() {
		return fmt.Errorf("attribute %q: table %s was created as %s, catalog declares %s",
			a.ID, a.Table, compositionOf(collection), a.Composition)
	}
	return nil
}

func columnType(a schema.Attribute) string {
	if a.StorageKind() == "string" {
		return "TEXT"
	}
	return "INTEGER"
}

func compositionOf(collection bool) string {
	if collection {
		return schema.Collection.String()
	}
	return schema.Scalar.String()
}

// attributeDDL returns the statements creating an attribute's value table.
// Table names are validated identifiers, so interpolation is safe.
func attributeDDL(a schema.Attribute) []string {
	column := columnType(a)
	unique := "UNIQUE (item)"
	if a.IsCollection() {
		unique = "UNIQUE (item, value)"
	}
	return []string{
		fmt.Sprintf(`CREATE TABLE IF NOT EXISTS %s (
			item  INTEGER NOT NULL REFERENCES items(item) ON DELETE CASCADE,
			value %s NOT NULL,
			%s
		)`, a.Table, column, unique),
		fmt.Sprintf("CREATE INDEX IF NOT EXISTS %s_value ON %s(value)", a.Table, a.Table),
	}
}

// applyPragmas sets required SQLite configuration.
func applyPragmas(db *sql.DB) error {
	pragmas := []string{
		"PRAGMA journal_mode = WAL",
		"PRAGMA synchronous = NORMAL",
		"PRAGMA busy_timeout = 5000",
		"PRAGMA foreign_keys = ON",
	}

	for _, pragma := range pragmas {
		if _, err := db.Exec(pragma); err != nil {
			return fmt.Errorf("failed to execute %q: %w", pragma, err)
		}
	}

	return nil
}

// applySchema creates the fixed tables if they don't exist and records the
// schema version. Databases written by a newer version are refused.
func applySchema(db *sql.DB) error {
	var version int
	if err := db.QueryRow("PRAGMA user_version").Scan(&version); err != nil {
		return fmt.Errorf("get user_version: %w", err)
	}
	if version > currentSchemaVersion {
		return fmt.Errorf("database schema version %d is newer than supported version %d", version, currentSchemaVersion)
	}

	if _, err := db.Exec(schemaSQL); err != nil {
		return fmt.Errorf("failed to execute schema: %w", err)
	}
	if _, err := db.Exec(fmt.Sprintf("PRAGMA user_version = %d", currentSchemaVersion)); err != nil {
		return fmt.Errorf("set user_version: %w", err)
	}
	return nil
}

// verifyPragma checks that a pragma is set to the expected value.
// Used for testing.
func (s *Store) verifyPragma(name, expected string) error {
	var value string
	query := fmt.Sprintf("PRAGMA %s", name)
	if err := s.db.QueryRow(query).Scan(&value); err != nil {
		return fmt.Errorf("failed to query %s: %w", name, err)
	}
	if value != expected {
		return fmt.Errorf("%s = %q, expected %q", name, value, expected)
	}
	return nil
}
