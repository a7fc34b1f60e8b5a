package persistence

import (
	"context"
	"testing"
	"time"

	"github.com/shopspring/decimal"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func TestGormInventoryRepository_UpsertItem(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryRepository(db)
	ctx := context.Background()

	item := &models.InventoryItem{
		InventoryItemID: 501,
		VariantID:       ptr(int64(71)),
		SKU:             ptr("SKU-A"),
		Cost:            decimal.RequireFromString("12.50"),
		Tracked:         true,
		SyncedAt:        time.Now(),
	}
	require.NoError(t, repo.UpsertItem(ctx, item))

	// second write with the same remote id updates in place
	require.NoError(t, repo.UpsertItem(ctx, &models.InventoryItem{
		InventoryItemID: 501,
		VariantID:       ptr(int64(71)),
		SKU:             ptr("SKU-A"),
		Cost:            decimal.RequireFromString("13.00"),
		Tracked:         true,
		SyncedAt:        time.Now(),
	}))

	var count int64
	require.NoError(t, db.Model(&models.InventoryItem{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	var stored models.InventoryItem
	require.NoError(t, db.Where("inventory_item_id = ?", 501).First(&stored).Error)
	assert.True(t, stored.Cost.Equal(decimal.RequireFromString("13.00")))
}

func TestGormInventoryRepository_UpsertLevel_LastWriteWins(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertLevel(ctx, &models.InventoryLevel{
		InventoryItemID: 501,
		LocationID:      ptr(int64(1)),
		Available:       10,
		SyncedAt:        time.Now(),
	}))
	require.NoError(t, repo.UpsertLevel(ctx, &models.InventoryLevel{
		InventoryItemID: 501,
		LocationID:      ptr(int64(2)),
		Available:       4,
		SyncedAt:        time.Now(),
	}))

	var count int64
	require.NoError(t, db.Model(&models.InventoryLevel{}).Count(&count).Error)
	assert.Equal(t, int64(1), count)

	available, err := repo.AvailableFor(ctx, 501)
	require.NoError(t, err)
	assert.Equal(t, 4, available)
}

func TestGormInventoryRepository_AvailableFor_NoLevel(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryRepository(db)

	available, err := repo.AvailableFor(context.Background(), 999)
	require.NoError(t, err)
	assert.Equal(t, 0, available)
}

func TestGormInventoryRepository_ChunkForExport(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryRepository(db)
	ctx := context.Background()

	seed := []models.InventoryItem{
		{InventoryItemID: 1, SKU: ptr("B-SKU"), Cost: decimal.RequireFromString("2.00"), Tracked: true},
		{InventoryItemID: 2, SKU: ptr("A-SKU"), Cost: decimal.RequireFromString("1.00")},
		{InventoryItemID: 3, SKU: nil},
		{InventoryItemID: 4, SKU: ptr("C-SKU"), Cost: decimal.RequireFromString("3.00")},
	}
	for i := range seed {
		require.NoError(t, repo.UpsertItem(ctx, &seed[i]))
	}
	require.NoError(t, repo.UpsertLevel(ctx, &models.InventoryLevel{InventoryItemID: 2, Available: 7}))

	var all []InventoryExportRow
	var batches int
	err := repo.ChunkForExport(ctx, 2, func(rows []InventoryExportRow) error {
		batches++
		all = append(all, rows...)
		return nil
	})
	require.NoError(t, err)

	// null-SKU item excluded, SKU order, missing level coalesced to zero
	require.Len(t, all, 3)
	assert.Equal(t, 2, batches)
	assert.Equal(t, "A-SKU", all[0].SKU)
	assert.Equal(t, 7, all[0].Available)
	assert.Equal(t, "B-SKU", all[1].SKU)
	assert.Equal(t, 0, all[1].Available)
	assert.Equal(t, "C-SKU", all[2].SKU)
}

func TestGormInventoryRepository_FindForOrderItem(t *testing.T) {
	db := newTestDB(t)
	repo := NewGormInventoryRepository(db)
	ctx := context.Background()

	require.NoError(t, repo.UpsertItem(ctx, &models.InventoryItem{
		InventoryItemID: 601,
		VariantID:       ptr(int64(81)),
		SKU:             ptr("SHARED"),
	}))
	require.NoError(t, repo.UpsertItem(ctx, &models.InventoryItem{
		InventoryItemID: 602,
		SKU:             ptr("ONLY-SKU"),
	}))

	t.Run("variant id wins", func(t *testing.T) {
		item, err := repo.FindForOrderItem(ctx, ptr(int64(81)), ptr("ONLY-SKU"))
		require.NoError(t, err)
		assert.Equal(t, int64(601), item.InventoryItemID)
	})

	t.Run("falls back to sku", func(t *testing.T) {
		item, err := repo.FindForOrderItem(ctx, ptr(int64(9999)), ptr("ONLY-SKU"))
		require.NoError(t, err)
		assert.Equal(t, int64(602), item.InventoryItemID)
	})

	t.Run("no match", func(t *testing.T) {
		_, err := repo.FindForOrderItem(ctx, nil, ptr("MISSING"))
		assert.ErrorIs(t, err, ErrNotFound)
	})
}
