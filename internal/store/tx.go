package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/schema"
)

// ErrReadOnly is returned by writes attempted inside View.
var ErrReadOnly = errors.New("store: write in read-only transaction")

// Tx is a store transaction. It is only valid inside the View or Update
// callback that received it.
type Tx struct {
	ctx      context.Context
	tx       *sql.Tx
	store    *Store
	catalog  *schema.Catalog
	writable bool
}

// View runs fn in a read transaction.
func (s *Store) View(ctx context.Context, fn func(*Tx) error) error {
	return s.run(ctx, false, fn)
}

// Update runs fn in a write transaction, committing when fn returns nil.
func (s *Store) Update(ctx context.Context, fn func(*Tx) error) error {
	return s.run(ctx, true, fn)
}

func (s *Store) run(ctx context.Context, writable bool, fn func(*Tx) error) error {
	sqlTx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin transaction: %w", err)
	}
	// Rollback after Commit is a no-op.
	defer sqlTx.Rollback()

	tx := &Tx{ctx: ctx, tx: sqlTx, store: s, catalog: s.Catalog(), writable: writable}
	if err := fn(tx); err != nil {
		return err
	}
	if !writable {
		return nil
	}
	if err := sqlTx.Commit(); err != nil {
		return fmt.Errorf("commit: %w", err)
	}
	return nil
}

// Catalog returns the catalog the transaction resolves attributes with.
func (tx *Tx) Catalog() *schema.Catalog {
	return tx.catalog
}

func (tx *Tx) attribute(id string) (schema.Attribute, error) {
	a, ok := tx.catalog.Lookup(id)
	if !ok {
		return schema.Attribute{}, fmt.Errorf("unknown attribute %q", id)
	}
	return a, nil
}

// CreateItem returns the item with the given identity, creating it when
// missing.
func (tx *Tx) CreateItem(ctx context.Context, identity string) (int64, error) {
	if !tx.writable {
		return 0, ErrReadOnly
	}
	if _, err := tx.tx.ExecContext(ctx, `
		INSERT INTO items (identity) VALUES (?)
		ON CONFLICT(identity) DO NOTHING
	`, identity); err != nil {
		return 0, fmt.Errorf("create item %q: %w", identity, err)
	}

	item, found, err := tx.itemByIdentity(ctx, identity)
	if err != nil {
		return 0, err
	}
	if !found {
		return 0, fmt.Errorf("create item %q: row missing after insert", identity)
	}
	return item, nil
}

// DeleteItem removes an item and, by cascade, all of its values.
func (tx *Tx) DeleteItem(ctx context.Context, item int64) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if _, err := tx.tx.ExecContext(ctx, "DELETE FROM items WHERE item = ?", item); err != nil {
		return fmt.Errorf("delete item %d: %w", item, err)
	}
	return nil
}

// SetValues replaces the values an item holds for an attribute. No values
// clears the attribute. A scalar attribute accepts at most one value.
func (tx *Tx) SetValues(ctx context.Context, item int64, attr string, values ...ir.IRValue) error {
	if !tx.writable {
		return ErrReadOnly
	}
	a, err := tx.attribute(attr)
	if err != nil {
		return err
	}
	values = ir.CompactValues(values)
	if !a.IsCollection() && len(values) > 1 {
		return fmt.Errorf("set %s on item %d: scalar attribute given %d values", attr, item, len(values))
	}

	params := make([]any, len(values))
	for i, v := range values {
		if ir.Kind(v) != a.StorageKind() {
			return fmt.Errorf("set %s on item %d: %s value for %s attribute", attr, item, ir.Kind(v), a.Type)
		}
		if params[i], err = ir.ToParam(v); err != nil {
			return fmt.Errorf("set %s on item %d: %w", attr, item, err)
		}
	}

	if _, err := tx.tx.ExecContext(ctx, fmt.Sprintf("DELETE FROM %s WHERE item = ?", a.Table), item); err != nil {
		return fmt.Errorf("clear %s on item %d: %w", attr, item, err)
	}
	insert := fmt.Sprintf("INSERT INTO %s (item, value) VALUES (?, ?)", a.Table)
	for _, p := range params {
		if _, err := tx.tx.ExecContext(ctx, insert, item, p); err != nil {
			return fmt.Errorf("set %s on item %d: %w", attr, item, err)
		}
	}
	return nil
}

// Items returns every item id in ascending order.
func (tx *Tx) Items(ctx context.Context) ([]int64, error) {
	return tx.queryItems(ctx, "SELECT item FROM items ORDER BY item ASC")
}

// Values returns the values an item holds for an attribute, sorted.
func (tx *Tx) Values(item int64, attr string) ([]ir.IRValue, error) {
	a, err := tx.attribute(attr)
	if err != nil {
		return nil, err
	}
	rows, err := tx.tx.QueryContext(tx.ctx,
		fmt.Sprintf("SELECT value FROM %s WHERE item = ? ORDER BY value ASC", a.Table), item)
	if err != nil {
		return nil, fmt.Errorf("query %s of item %d: %w", attr, item, err)
	}
	defer rows.Close()

	var values []ir.IRValue
	for rows.Next() {
		var raw any
		if err := rows.Scan(&raw); err != nil {
			return nil, fmt.Errorf("scan %s: %w", attr, err)
		}
		v, err := ir.FromColumn(raw)
		if err != nil {
			return nil, fmt.Errorf("scan %s: %w", attr, err)
		}
		values = append(values, v)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate %s: %w", attr, err)
	}
	return values, nil
}

// ItemByIdentity resolves an external identity to an item id.
func (tx *Tx) ItemByIdentity(identity string) (int64, bool, error) {
	return tx.itemByIdentity(tx.ctx, identity)
}

func (tx *Tx) itemByIdentity(ctx context.Context, identity string) (int64, bool, error) {
	var item int64
	err := tx.tx.QueryRowContext(ctx, "SELECT item FROM items WHERE identity = ?", identity).Scan(&item)
	if errors.Is(err, sql.ErrNoRows) {
		return 0, false, nil
	}
	if err != nil {
		return 0, false, fmt.Errorf("resolve identity %q: %w", identity, err)
	}
	return item, true, nil
}

// Identity returns the external identity of an item.
func (tx *Tx) Identity(ctx context.Context, item int64) (string, error) {
	var identity string
	if err := tx.tx.QueryRowContext(ctx, "SELECT identity FROM items WHERE item = ?", item).Scan(&identity); err != nil {
		return "", fmt.Errorf("identity of item %d: %w", item, err)
	}
	return identity, nil
}

// Referrers returns the items whose attribute attr refers to item.
func (tx *Tx) Referrers(attr string, item int64) ([]int64, error) {
	a, err := tx.attribute(attr)
	if err != nil {
		return nil, err
	}
	if a.Type != schema.TypeRef {
		return nil, fmt.Errorf("attribute %q is not a reference", attr)
	}
	return tx.queryItems(tx.ctx,
		fmt.Sprintf("SELECT DISTINCT item FROM %s WHERE value = ? ORDER BY item ASC", a.Table), item)
}

func (tx *Tx) queryItems(ctx context.Context, query string, args ...any) ([]int64, error) {
	rows, err := tx.tx.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("query items: %w", err)
	}
	defer rows.Close()

	var items []int64
	for rows.Next() {
		var item int64
		if err := rows.Scan(&item); err != nil {
			return nil, fmt.Errorf("scan item: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate items: %w", err)
	}
	return items, nil
}
