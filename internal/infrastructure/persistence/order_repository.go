package persistence

import (
	"context"
	"errors"

	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"gorm.io/gorm"
)

// GormOrderRepository implements order storage using GORM
type GormOrderRepository struct {
	db *gorm.DB
}

// NewGormOrderRepository creates a new GormOrderRepository
func NewGormOrderRepository(db *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: db}
}

// WithTx returns a copy of the repository bound to the given transaction
func (r *GormOrderRepository) WithTx(tx *gorm.DB) *GormOrderRepository {
	return &GormOrderRepository{db: tx}
}

// FindByShopifyID finds an order by its remote id, items included
func (r *GormOrderRepository) FindByShopifyID(ctx context.Context, shopifyID int64) (*models.Order, error) {
	var order models.Order
	if err := r.db.WithContext(ctx).
		Preload("Items").
		Where("shopify_id = ?", shopifyID).
		First(&order).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return nil, ErrNotFound
		}
		return nil, err
	}
	return &order, nil
}

// UpsertWithItems writes an order keyed by its remote id. An existing row
// keeps its local primary key and has its line items deleted and reinserted,
// so the item set always matches the latest remote payload exactly.
func (r *GormOrderRepository) UpsertWithItems(ctx context.Context, order *models.Order) error {
	db := r.db.WithContext(ctx)

	var existing models.Order
	err := db.Select("id").Where("shopify_id = ?", order.ShopifyID).First(&existing).Error
	switch {
	case err == nil:
		order.ID = existing.ID
		if err := db.Where("order_id = ?", existing.ID).Delete(&models.OrderItem{}).Error; err != nil {
			return err
		}
	case errors.Is(err, gorm.ErrRecordNotFound):
		order.ID = 0
	default:
		return err
	}

	items := order.Items
	order.Items = nil
	if err := db.Save(order).Error; err != nil {
		return err
	}

	for i := range items {
		items[i].ID = 0
		items[i].OrderID = order.ID
	}
	if len(items) > 0 {
		if err := db.Create(&items).Error; err != nil {
			return err
		}
	}
	order.Items = items
	return nil
}

// ChunkWithItems walks all orders in primary-key batches of the given size,
// items preloaded, calling fn once per batch.
func (r *GormOrderRepository) ChunkWithItems(ctx context.Context, size int, fn func(orders []models.Order) error) error {
	var batch []models.Order
	result := r.db.WithContext(ctx).
		Preload("Items").
		FindInBatches(&batch, size, func(_ *gorm.DB, _ int) error {
			return fn(batch)
		})
	return result.Error
}

// List returns a page of orders, newest first, with the total count
func (r *GormOrderRepository) List(ctx context.Context, page, pageSize int) ([]models.Order, int64, error) {
	var total int64
	if err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&total).Error; err != nil {
		return nil, 0, err
	}

	query := r.db.WithContext(ctx).Preload("Items").Order("created_at DESC")
	if page > 0 && pageSize > 0 {
		query = query.Offset((page - 1) * pageSize).Limit(pageSize)
	}

	var orders []models.Order
	if err := query.Find(&orders).Error; err != nil {
		return nil, 0, err
	}
	return orders, total, nil
}

// Count returns the number of stored orders
func (r *GormOrderRepository) Count(ctx context.Context) (int64, error) {
	var count int64
	err := r.db.WithContext(ctx).Model(&models.Order{}).Count(&count).Error
	return count, err
}
