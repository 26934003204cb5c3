package store

import (
	"context"
	"testing"

	"github.com/RoaringBitmap/roaring/roaring64"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replica/internal/boolexpr"
	"github.com/roach88/replica/internal/dp"
	"github.com/roach88/replica/internal/ir"
	"github.com/roach88/replica/internal/querysql"
	"github.com/roach88/replica/internal/testutil"
	"github.com/roach88/replica/internal/textmatch"
)

func must[T any](v T, err error) T {
	if err != nil {
		panic(err)
	}
	return v
}

func notNull(attr string) dp.Expr {
	return dp.Term(dp.NotNull{Attr: attr})
}

func equals(attr string, vs ...ir.IRValue) dp.Expr {
	return dp.Term(must(dp.NewEquals(attr, vs...)))
}

// seedIssues writes a small tracker:
//
//	EPIC-1                      priority 1
//	BUG-1   parent EPIC-1       priority 3, labels ui,db, summary "Crash on start"
//	BUG-2   parent EPIC-1       labels Perf, summary "UI glitch"
//	TASK-1                      priority 5
func seedIssues(t *testing.T, s *Store) map[string]int64 {
	t.Helper()
	ctx := context.Background()
	ids := make(map[string]int64)
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		for _, identity := range []string{"EPIC-1", "BUG-1", "BUG-2", "TASK-1"} {
			id, err := tx.CreateItem(ctx, identity)
			require.NoError(t, err)
			ids[identity] = id
		}
		epic := ir.IRInt(ids["EPIC-1"])
		require.NoError(t, tx.SetValues(ctx, ids["EPIC-1"], "priority", ir.IRInt(1)))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-1"], "parent", epic))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-1"], "priority", ir.IRInt(3)))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-1"], "labels", ir.IRString("ui"), ir.IRString("db")))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-1"], "summary", ir.IRString("Crash on start")))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-2"], "parent", epic))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-2"], "labels", ir.IRString("Perf")))
		require.NoError(t, tx.SetValues(ctx, ids["BUG-2"], "summary", ir.IRString("UI glitch")))
		require.NoError(t, tx.SetValues(ctx, ids["TASK-1"], "priority", ir.IRInt(5)))
		return nil
	}))
	return ids
}

func bitmapOf(ids map[string]int64, identities ...string) *roaring64.Bitmap {
	bm := roaring64.New()
	for _, identity := range identities {
		bm.Add(uint64(ids[identity]))
	}
	return bm
}

func TestQuery(t *testing.T) {
	s := createTestStore(t)
	ids := seedIssues(t, s)
	ctx := context.Background()

	tests := []struct {
		name string
		expr dp.Expr
		want []string
	}{
		{
			name: "scalar equals",
			expr: equals("priority", ir.IRInt(3), ir.IRInt(5)),
			want: []string{"BUG-1", "TASK-1"},
		},
		{
			name: "compare accepting missing",
			expr: dp.Term(must(dp.NewCompare("priority", dp.Less, ir.IRInt(3), true))),
			want: []string{"EPIC-1", "BUG-2"},
		},
		{
			name: "negated equals includes missing",
			expr: boolexpr.Not(equals("priority", ir.IRInt(1))),
			want: []string{"BUG-1", "BUG-2", "TASK-1"},
		},
		{
			name: "collection intersects",
			expr: dp.Term(must(dp.NewIntersects("labels", ir.IRString("db"), ir.IRString("Perf")))),
			want: []string{"BUG-1", "BUG-2"},
		},
		{
			name: "case-insensitive text match",
			expr: dp.Term(must(dp.NewTextMatch("summary", "ui", textmatch.Literal))),
			want: []string{"BUG-2"},
		},
		{
			name: "regex text match on collection",
			expr: dp.Term(must(dp.NewTextMatch("labels", "^perf$", textmatch.Regex))),
			want: []string{"BUG-2"},
		},
		{
			name: "reference to",
			expr: dp.Term(dp.ReferenceTo{Attr: "parent", Identity: "EPIC-1"}),
			want: []string{"BUG-1", "BUG-2"},
		},
		{
			name: "reference to unknown identity",
			expr: dp.Term(dp.ReferenceTo{Attr: "parent", Identity: "EPIC-404"}),
			want: nil,
		},
		{
			name: "referred by",
			expr: dp.Term(dp.ReferredBy{Attr: "parent", Sub: equals("priority", ir.IRInt(3))}),
			want: []string{"EPIC-1"},
		},
		{
			name: "not referred by",
			expr: boolexpr.Not(dp.Term(dp.ReferredBy{Attr: "parent", Sub: boolexpr.True[dp.DP]()})),
			want: []string{"BUG-1", "BUG-2", "TASK-1"},
		},
		{
			name: "or across attributes",
			expr: boolexpr.Or(notNull("summary"), equals("priority", ir.IRInt(5))),
			want: []string{"BUG-1", "BUG-2", "TASK-1"},
		},
		{
			name: "false",
			expr: boolexpr.False[dp.DP](),
			want: nil,
		},
	}

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		for _, tt := range tests {
			t.Run(tt.name, func(t *testing.T) {
				want := bitmapOf(ids, tt.want...)

				got, err := tx.Query(ctx, tt.expr)
				require.NoError(t, err)
				assert.Equal(t, want.ToArray(), got.ToArray(), "query")

				scanned, err := tx.Scan(ctx, tt.expr)
				require.NoError(t, err)
				assert.Equal(t, want.ToArray(), scanned.ToArray(), "scan")

				n, err := tx.Count(ctx, tt.expr)
				require.NoError(t, err)
				assert.Equal(t, uint64(len(tt.want)), n)
			})
		}
		return nil
	}))
}

func TestQueryFallsBackToScan(t *testing.T) {
	s := createTestStore(t)
	ids := seedIssues(t, s)
	ctx := context.Background()

	// An int operand against a string attribute does not compile.
	e := boolexpr.Or(
		equals("summary", ir.IRInt(1)),
		equals("priority", ir.IRInt(1)),
	)
	_, err := s.Compiler().Compile(e)
	require.True(t, querysql.IsUnsupported(err))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		got, err := tx.Query(ctx, e)
		require.NoError(t, err)
		assert.Equal(t, bitmapOf(ids, "EPIC-1").ToArray(), got.ToArray())
		return nil
	}))
}

func TestQueryUnknownAttributeFails(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		_, err := tx.Query(ctx, notNull("nope"))
		assert.Error(t, err)
		return nil
	}))
}

// TestCompiledQueriesMatchScan checks compiled SQL against in-memory
// evaluation over random expressions and data.
func TestCompiledQueriesMatchScan(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	d := testutil.GenerateDataset(1, 40)
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		return d.Load(ctx, tx)
	}))

	gen := testutil.NewExprGen(2, d)
	compiled := 0
	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		for i := range 300 {
			e := gen.Expr(3)

			want, err := tx.Scan(ctx, e)
			require.NoError(t, err)

			plan, err := s.Compiler().Compile(e)
			if err != nil {
				require.True(t, querysql.IsUnsupported(err), "expr %d %s: %v", i, e.Key(), err)
				continue
			}
			compiled++
			got, err := tx.Execute(ctx, plan)
			require.NoError(t, err, "expr %d %s", i, e.Key())
			require.Equal(t, want.ToArray(), got.ToArray(), "expr %d %s\n%v", i, e.Key(), plan.Statements())
		}
		return nil
	}))
	assert.Greater(t, compiled, 150)
}
