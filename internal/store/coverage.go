package store

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/roach88/replica/internal/syncreg"
)

// ReadCoverage returns the persisted coverage tuples ordered by cube and
// axis, with the generation of the last save ("" when never saved).
func (tx *Tx) ReadCoverage(ctx context.Context) ([]syncreg.Row, string, error) {
	rows, err := tx.tx.QueryContext(ctx, `
		SELECT cube_index, axis, included, excluded
		FROM sync_coverage
		ORDER BY cube_index ASC, axis ASC
	`)
	if err != nil {
		return nil, "", fmt.Errorf("query coverage: %w", err)
	}
	defer rows.Close()

	var out []syncreg.Row
	for rows.Next() {
		var r syncreg.Row
		if err := rows.Scan(&r.CubeIndex, &r.Axis, &r.Included, &r.Excluded); err != nil {
			return nil, "", fmt.Errorf("scan coverage: %w", err)
		}
		out = append(out, r)
	}
	if err := rows.Err(); err != nil {
		return nil, "", fmt.Errorf("iterate coverage: %w", err)
	}

	var generation string
	err = tx.tx.QueryRowContext(ctx, "SELECT generation FROM sync_coverage_meta WHERE id = 1").Scan(&generation)
	if err != nil && !errors.Is(err, sql.ErrNoRows) {
		return nil, "", fmt.Errorf("query coverage generation: %w", err)
	}
	return out, generation, nil
}

// WriteCoverage replaces the persisted coverage tuples and generation.
func (tx *Tx) WriteCoverage(ctx context.Context, rows []syncreg.Row, generation string) error {
	if !tx.writable {
		return ErrReadOnly
	}
	if _, err := tx.tx.ExecContext(ctx, "DELETE FROM sync_coverage"); err != nil {
		return fmt.Errorf("clear coverage: %w", err)
	}
	for _, r := range rows {
		if _, err := tx.tx.ExecContext(ctx, `
			INSERT INTO sync_coverage (cube_index, axis, included, excluded)
			VALUES (?, ?, ?, ?)
		`, r.CubeIndex, r.Axis, r.Included, r.Excluded); err != nil {
			return fmt.Errorf("write coverage cube %d axis %q: %w", r.CubeIndex, r.Axis, err)
		}
	}
	if _, err := tx.tx.ExecContext(ctx, `
		INSERT INTO sync_coverage_meta (id, generation) VALUES (1, ?)
		ON CONFLICT(id) DO UPDATE SET generation = excluded.generation
	`, generation); err != nil {
		return fmt.Errorf("write coverage generation: %w", err)
	}
	return nil
}

// ViewCoverage loads the coverage registry in a read transaction.
// Corrupt persisted state is logged and fn sees an empty registry.
func (s *Store) ViewCoverage(ctx context.Context, fn func(*syncreg.Registry) error) error {
	return s.View(ctx, func(tx *Tx) error {
		return syncreg.View(ctx, tx, tx.catalog, fn)
	})
}

// UpdateCoverage loads the coverage registry in a write transaction and
// saves it when fn changed it.
func (s *Store) UpdateCoverage(ctx context.Context, fn func(*syncreg.Registry) error) error {
	return s.Update(ctx, func(tx *Tx) error {
		return tx.UpdateCoverage(ctx, fn)
	})
}

// UpdateCoverage is the in-transaction form of Store.UpdateCoverage, for
// writes that must commit together with item changes.
func (tx *Tx) UpdateCoverage(ctx context.Context, fn func(*syncreg.Registry) error) error {
	if !tx.writable {
		return ErrReadOnly
	}
	return syncreg.Update(ctx, tx, tx.catalog, tx.store.gen, fn)
}
