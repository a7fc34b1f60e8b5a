package persistence

import (
	"context"
	"errors"

	"github.com/shopspring/decimal"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
	"gorm.io/gorm/clause"
)

// InventoryExportRow is one flattened item/level pair for the products export.
type InventoryExportRow struct {
	SKU              string
	Cost             decimal.Decimal
	Tracked          bool
	RequiresShipping bool
	Available        int
}

// GormInventoryRepository implements inventory storage using GORM
type GormInventoryRepository struct {
	db *gorm.DB
}

// NewGormInventoryRepository creates a new GormInventoryRepository
func NewGormInventoryRepository(db *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *GormInventoryRepository) WithTx(tx *gorm.DB) *GormInventoryRepository {
	return &GormInventoryRepository{db: tx}
}

// UpsertItem writes an inventory item keyed by its remote inventory_item_id
func (r *GormInventoryRepository) UpsertItem(ctx context.Context, item *models.InventoryItem) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "inventory_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"variant_id", "sku", "cost", "tracked", "requires_shipping", "synced_at",
		}),
	}).Create(item).Error
}

// UpsertLevel writes an inventory level keyed by inventory_item_id.
// Levels carry no location dimension here: whichever location reported
// last wins, and LocationID records where that report came from.
func (r *GormInventoryRepository) UpsertLevel(ctx context.Context, level *models.InventoryLevel) error {
	return r.db.WithContext(ctx).Clauses(clause.OnConflict{
		Columns: []clause.Column{{Name: "inventory_item_id"}},
		DoUpdates: clause.AssignmentColumns([]string{
			"location_id", "available", "remote_updated_at", "synced_at",
		}),
	}).Create(level).Error
}

// ChunkForExport walks item/level pairs in SKU order in batches of the given
// size. Items without a SKU are skipped; items without a level row report
// zero availability.
func (r *GormInventoryRepository) ChunkForExport(ctx context.Context, size int, fn func(rows []InventoryExportRow) error) error {
	offset := 0
	for {
		var rows []InventoryExportRow
		err := r.db.WithContext(ctx).
			Table("shopify_inventory_items AS i").
			Select("i.sku AS sku, i.cost AS cost, i.tracked AS tracked, i.requires_shipping AS requires_shipping, COALESCE(l.available, 0) AS available").
			Joins("LEFT JOIN shopify_inventory_levels l ON l.inventory_item_id = i.inventory_item_id").
			Where("i.sku IS NOT NULL AND i.sku <> ''").
			Order("i.sku ASC").
			Offset(offset).
			Limit(size).
			Scan(&rows).Error
		if err != nil {
			return err
		}
		if len(rows) == 0 {
			return nil
		}
		if err := fn(rows); err != nil {
			return err
		}
		if len(rows) < size {
			return nil
		}
		offset += size
	}
}

// FindForOrderItem resolves the inventory item backing an order line item.
// The variant id is the canonical join; the SKU is only consulted when no
// variant match exists.
func (r *GormInventoryRepository) FindForOrderItem(ctx context.Context, variantID *int64, sku *string) (*models.InventoryItem, error) {
	var item models.InventoryItem

	if variantID != nil {
		err := r.db.WithContext(ctx).Where("variant_id = ?", *variantID).First(&item).Error
		if err == nil {
			return &item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	if sku != nil && *sku != "" {
		err := r.db.WithContext(ctx).Where("sku = ?", *sku).First(&item).Error
		if err == nil {
			return &item, nil
		}
		if !errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, err
		}
	}

	return nil, ErrNotFound
}

// AvailableFor returns the stored availability for an inventory item,
// zero when no level row exists yet.
func (r *GormInventoryRepository) AvailableFor(ctx context.Context, inventoryItemID int64) (int, error) {
	var level models.InventoryLevel
	err := r.db.WithContext(ctx).Where("inventory_item_id = ?", inventoryItemID).First(&level).Error
	if errors.Is(err, gorm.ErrRecordNotFound) {
		return 0, nil
	}
	if err != nil {
		return 0, err
	}
	return level.Available, nil
}

// CountItems returns the number of stored inventory items
func (r *GormInventoryRepository) CountItems(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.InventoryItem{}).Count(&count).Error
	return count, err
}
