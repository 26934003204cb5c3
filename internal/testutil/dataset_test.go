package testutil

import (
	"context"
	"fmt"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replica/internal/ir"
)

// memWriter records writes instead of persisting them.
type memWriter struct {
	next   int64
	values map[string][]ir.IRValue
}

func (w *memWriter) CreateItem(_ context.Context, identity string) (int64, error) {
	w.next++
	return w.next * 10, nil
}

func (w *memWriter) SetValues(_ context.Context, item int64, attr string, values ...ir.IRValue) error {
	if w.values == nil {
		w.values = make(map[string][]ir.IRValue)
	}
	w.values[fmt.Sprintf("%d/%s", item, attr)] = values
	return nil
}

func TestGenerateDatasetIsDeterministic(t *testing.T) {
	a := GenerateDataset(7, 30)
	b := GenerateDataset(7, 30)
	assert.Equal(t, a, b)
	assert.NotEqual(t, a, GenerateDataset(8, 30))

	require.Len(t, a.Items, 30)
	assert.Equal(t, "ITEM-1", a.Items[0].Identity)
	assert.Equal(t, "ITEM-30", a.Items[29].Identity)
}

func TestGenerateDatasetRespectsScalars(t *testing.T) {
	d := GenerateDataset(3, 50)
	for i, it := range d.Items {
		for _, attr := range []string{"priority", "created"} {
			assert.LessOrEqual(t, len(it.Ints[attr]), 1)
		}
		assert.LessOrEqual(t, len(it.Strings["summary"]), 1)
		assert.LessOrEqual(t, len(it.Refs["status"]), 1)
		if p := it.Refs["parent"]; len(p) > 0 {
			assert.NotEqual(t, i, p[0], "item must not be its own parent")
		}
	}
}

func TestDatasetLoadMapsReferences(t *testing.T) {
	d := GenerateDataset(11, 20)
	w := &memWriter{}
	require.NoError(t, d.Load(context.Background(), w))

	require.Len(t, d.IDs, 20)
	assert.Equal(t, int64(10), d.IDs[0])

	for i, it := range d.Items {
		for _, ref := range it.Refs["components"] {
			got := w.values[fmt.Sprintf("%d/components", d.IDs[i])]
			assert.Contains(t, got, ir.IRInt(d.IDs[ref]))
		}
	}
}

func TestExprGenIsDeterministic(t *testing.T) {
	d := GenerateDataset(5, 10)
	require.NoError(t, d.Load(context.Background(), &memWriter{}))

	g1 := NewExprGen(42, d)
	g2 := NewExprGen(42, d)
	for range 50 {
		assert.Equal(t, g1.Expr(3).Key(), g2.Expr(3).Key())
	}
}
