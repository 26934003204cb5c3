package store

import (
	"context"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/roach88/replica/internal/ir"
)

func TestCreateItemIsIdempotent(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		a, err := tx.CreateItem(ctx, "ITEM-1")
		require.NoError(t, err)
		b, err := tx.CreateItem(ctx, "ITEM-1")
		require.NoError(t, err)
		assert.Equal(t, a, b)

		c, err := tx.CreateItem(ctx, "ITEM-2")
		require.NoError(t, err)
		assert.NotEqual(t, a, c)
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		items, err := tx.Items(ctx)
		require.NoError(t, err)
		assert.Len(t, items, 2)

		item, found, err := tx.ItemByIdentity("ITEM-2")
		require.NoError(t, err)
		assert.True(t, found)
		identity, err := tx.Identity(ctx, item)
		require.NoError(t, err)
		assert.Equal(t, "ITEM-2", identity)

		_, found, err = tx.ItemByIdentity("ITEM-404")
		require.NoError(t, err)
		assert.False(t, found)
		return nil
	}))
}

func TestSetValues(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var item int64
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		var err error
		item, err = tx.CreateItem(ctx, "ITEM-1")
		require.NoError(t, err)
		require.NoError(t, tx.SetValues(ctx, item, "labels", ir.IRString("ui"), ir.IRString("db"), ir.IRString("ui")))
		require.NoError(t, tx.SetValues(ctx, item, "priority", ir.IRInt(3)))
		require.NoError(t, tx.SetValues(ctx, item, "priority", ir.IRInt(4)))
		return nil
	}))

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		labels, err := tx.Values(item, "labels")
		require.NoError(t, err)
		assert.Equal(t, []ir.IRValue{ir.IRString("db"), ir.IRString("ui")}, labels)

		priority, err := tx.Values(item, "priority")
		require.NoError(t, err)
		assert.Equal(t, []ir.IRValue{ir.IRInt(4)}, priority)

		summary, err := tx.Values(item, "summary")
		require.NoError(t, err)
		assert.Empty(t, summary)

		_, err = tx.Values(item, "nope")
		assert.Error(t, err)
		return nil
	}))
}

func TestSetValuesRejectsInvalidInput(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		item, err := tx.CreateItem(ctx, "ITEM-1")
		require.NoError(t, err)

		assert.Error(t, tx.SetValues(ctx, item, "priority", ir.IRInt(1), ir.IRInt(2)), "scalar with two values")
		assert.Error(t, tx.SetValues(ctx, item, "priority", ir.IRString("high")), "string for int attribute")
		assert.Error(t, tx.SetValues(ctx, item, "summary", ir.IRInt(1)), "int for string attribute")
		assert.Error(t, tx.SetValues(ctx, item, "nope", ir.IRInt(1)), "unknown attribute")
		assert.Error(t, tx.SetValues(ctx, item+100, "priority", ir.IRInt(1)), "missing item")
		return nil
	}))
}

func TestViewIsReadOnly(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		_, err := tx.CreateItem(ctx, "ITEM-1")
		assert.ErrorIs(t, err, ErrReadOnly)
		assert.ErrorIs(t, tx.SetValues(ctx, 1, "priority"), ErrReadOnly)
		assert.ErrorIs(t, tx.DeleteItem(ctx, 1), ErrReadOnly)
		assert.ErrorIs(t, tx.WriteCoverage(ctx, nil, "g"), ErrReadOnly)
		return nil
	}))
}

func TestUpdateRollsBackOnError(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	err := s.Update(ctx, func(tx *Tx) error {
		_, err := tx.CreateItem(ctx, "ITEM-1")
		require.NoError(t, err)
		return assert.AnError
	})
	require.ErrorIs(t, err, assert.AnError)

	require.NoError(t, s.View(ctx, func(tx *Tx) error {
		items, err := tx.Items(ctx)
		require.NoError(t, err)
		assert.Empty(t, items)
		return nil
	}))
}

func TestReferrersAndDeleteCascade(t *testing.T) {
	s := createTestStore(t)
	ctx := context.Background()

	var epic, a, b int64
	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		var err error
		epic, err = tx.CreateItem(ctx, "EPIC-1")
		require.NoError(t, err)
		a, err = tx.CreateItem(ctx, "ITEM-1")
		require.NoError(t, err)
		b, err = tx.CreateItem(ctx, "ITEM-2")
		require.NoError(t, err)
		require.NoError(t, tx.SetValues(ctx, a, "parent", ir.IRInt(epic)))
		require.NoError(t, tx.SetValues(ctx, b, "parent", ir.IRInt(epic)))
		return nil
	}))

	require.NoError(t, s.Update(ctx, func(tx *Tx) error {
		refs, err := tx.Referrers("parent", epic)
		require.NoError(t, err)
		assert.Equal(t, []int64{a, b}, refs)

		_, err = tx.Referrers("summary", epic)
		assert.Error(t, err, "summary is not a reference")

		require.NoError(t, tx.DeleteItem(ctx, a))
		refs, err = tx.Referrers("parent", epic)
		require.NoError(t, err)
		assert.Equal(t, []int64{b}, refs)
		return nil
	}))
}
