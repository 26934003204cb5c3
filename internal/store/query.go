package store

import (
	"context"
	"fmt"
	"log/slog"

	"github.com/RoaringBitmap/roaring/roaring64"

	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/querysql"
)

// Query returns the items matching e. Expressions the compiler cannot lower
// are answered by a full scan.
func (tx *Tx) Query(ctx context.Context, e dp.Expr) (*roaring64.Bitmap, error) {
	plan, err := tx.store.compiler.Compile(e)
	if err != nil {
		if querysql.IsUnsupported(err) {
			slog.Warn("expression not compilable, scanning all items", "error", err)
			return tx.Scan(ctx, e)
		}
		return nil, fmt.Errorf("compile: %w", err)
	}
	return tx.Execute(ctx, plan)
}

// Count returns the number of items matching e.
func (tx *Tx) Count(ctx context.Context, e dp.Expr) (uint64, error) {
	bm, err := tx.Query(ctx, e)
	if err != nil {
		return 0, err
	}
	return bm.GetCardinality(), nil
}

// Execute runs every statement of a plan and unions the results.
func (tx *Tx) Execute(ctx context.Context, plan *querysql.Plan) (*roaring64.Bitmap, error) {
	out := roaring64.New()
	for _, stmt := range plan.Statements() {
		items, err := tx.queryItems(ctx, stmt.SQL, stmt.Params...)
		if err != nil {
			return nil, fmt.Errorf("execute plan %s: %w", plan.Key, err)
		}
		for _, item := range items {
			out.Add(uint64(item))
		}
	}
	return out, nil
}

// Scan evaluates e against every item in memory.
func (tx *Tx) Scan(ctx context.Context, e dp.Expr) (*roaring64.Bitmap, error) {
	items, err := tx.Items(ctx)
	if err != nil {
		return nil, err
	}
	out := roaring64.New()
	for _, item := range items {
		ok, err := dp.Accept(e, item, tx)
		if err != nil {
			return nil, fmt.Errorf("evaluate item %d: %w", item, err)
		}
		if ok {
			out.Add(uint64(item))
		}
	}
	return out, nil
}
