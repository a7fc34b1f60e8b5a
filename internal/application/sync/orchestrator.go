package sync

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	shopifydomain "github.com/shopsync/backend/internal/domain/shopify"
	syncdomain "github.com/shopsync/backend/internal/domain/sync"
	"github.com/shopsync/backend/internal/infrastructure/shopify"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// commitThreshold bounds transaction size during the full order walk:
// the open transaction commits once this many orders have been applied.
const commitThreshold = 1000

// Orchestrator drives the remote walks and hands each page to the persister
// inside transactions it manages. It does no retrying; an upstream failure
// aborts the operation and is reported in the Result.
type Orchestrator struct {
	client    *shopify.Client
	db        *gorm.DB
	persister *Persister
	logger    *zap.Logger
	now       func() time.Time
}

// NewOrchestrator creates a new sync Orchestrator
func NewOrchestrator(client *shopify.Client, db *gorm.DB, persister *Persister, logger *zap.Logger) *Orchestrator {
	return &Orchestrator{
		client:    client,
		db:        db,
		persister: persister,
		logger:    logger.Named("sync"),
		now:       time.Now,
	}
}

// SyncAllOrders walks every order page (status any, 250 per page) and
// persists them, committing every 1000 orders so one giant walk never holds
// one giant transaction.
func (o *Orchestrator) SyncAllOrders(ctx context.Context) syncdomain.Result {
	total := 0
	pending := 0

	tx := o.db.WithContext(ctx).Begin()
	if tx.Error != nil {
		return syncdomain.Fail("begin transaction: %v", tx.Error)
	}

	err := o.client.Pages(ctx, o.client.OrdersURL(shopify.DefaultPageSize), "orders", func(records []json.RawMessage) error {
		n, err := o.persister.SaveOrdersPage(ctx, tx, records)
		total += n
		pending += n
		if err != nil {
			return err
		}
		if pending >= commitThreshold {
			if err := tx.Commit().Error; err != nil {
				return err
			}
			o.logger.Info("order batch committed", zap.Int("orders", total))
			pending = 0
			tx = o.db.WithContext(ctx).Begin()
			return tx.Error
		}
		return nil
	})
	if err != nil {
		tx.Rollback()
		return o.failResult("order sync", err)
	}
	if err := tx.Commit().Error; err != nil {
		return syncdomain.Fail("commit: %v", err)
	}

	o.logger.Info("order sync finished", zap.Int("orders", total))
	return syncdomain.Ok(total, "Synced %d orders", total)
}

// SyncAllInventory walks all product variants to learn which inventory
// items exist, fetches item details in batches, then writes items and
// variant-embedded levels in one transaction per phase.
func (o *Orchestrator) SyncAllInventory(ctx context.Context) syncdomain.Result {
	var variants []shopifydomain.Variant
	err := o.client.Pages(ctx, o.client.ProductsURL(shopify.DefaultPageSize), "products", func(records []json.RawMessage) error {
		for _, raw := range records {
			var product shopifydomain.Product
			if err := json.Unmarshal(raw, &product); err != nil {
				return fmt.Errorf("sync: decode product: %w", err)
			}
			variants = append(variants, product.Variants...)
		}
		return nil
	})
	if err != nil {
		return o.failResult("product walk", err)
	}

	variantByItem := make(map[int64]int64, len(variants))
	ids := make([]int64, 0, len(variants))
	for _, variant := range variants {
		if variant.InventoryItemID == 0 {
			continue
		}
		if _, seen := variantByItem[variant.InventoryItemID]; !seen {
			ids = append(ids, variant.InventoryItemID)
		}
		variantByItem[variant.InventoryItemID] = variant.ID
	}

	itemRecords, err := o.client.FetchInventoryItems(ctx, ids)
	if err != nil {
		return o.failResult("inventory item fetch", err)
	}

	items := 0
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := o.persister.SaveInventoryItems(ctx, tx, itemRecords, variantByItem)
		items = n
		return err
	})
	if err != nil {
		return o.failResult("inventory item persist", err)
	}

	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		_, err := o.persister.SaveVariantLevels(ctx, tx, variants)
		return err
	})
	if err != nil {
		return o.failResult("inventory level persist", err)
	}

	o.logger.Info("inventory sync finished",
		zap.Int("items", items),
		zap.Int("variants", len(variants)),
	)
	return syncdomain.Ok(items, "Synced %d inventory items", items)
}

// SyncRecentOrders fetches orders created in the trailing window with a
// single request and applies them in one transaction. A window that spans
// more than one page would need the full walk instead; recent windows are
// assumed to fit in one page.
func (o *Orchestrator) SyncRecentOrders(ctx context.Context, days int) syncdomain.Result {
	if days <= 0 {
		days = 1
	}
	since := o.now().AddDate(0, 0, -days)

	records, _, err := o.client.FetchPage(ctx, o.client.RecentOrdersURL(since, shopify.DefaultPageSize), "orders")
	if err != nil {
		return o.failResult("recent order fetch", err)
	}

	total := 0
	err = o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		n, err := o.persister.SaveOrdersPage(ctx, tx, records)
		total = n
		return err
	})
	if err != nil {
		return o.failResult("recent order persist", err)
	}

	o.logger.Info("recent order sync finished", zap.Int("orders", total), zap.Int("days", days))
	return syncdomain.Ok(total, "Synced %d recent orders", total)
}

// SyncLocationLevels walks every active location's level pages and upserts
// them, skipping ignored locations. Level uniqueness stays per inventory
// item, so overlapping locations resolve to the last one walked.
func (o *Orchestrator) SyncLocationLevels(ctx context.Context) syncdomain.Result {
	locationRecords, _, err := o.client.FetchPage(ctx, o.client.LocationsURL(), "locations")
	if err != nil {
		return o.failResult("location fetch", err)
	}

	total := 0
	for _, raw := range locationRecords {
		var location shopifydomain.Location
		if err := json.Unmarshal(raw, &location); err != nil {
			return syncdomain.Fail("decode location: %v", err)
		}
		if !location.Active || o.client.Config().IsIgnoredLocation(location.ID) {
			o.logger.Debug("skipping location", zap.Int64("location_id", location.ID))
			continue
		}

		startURL := o.client.InventoryLevelsURL(location.ID, shopify.DefaultPageSize)
		err := o.client.Pages(ctx, startURL, "inventory_levels", func(records []json.RawMessage) error {
			return o.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
				n, err := o.persister.SaveLocationLevels(ctx, tx, records)
				total += n
				return err
			})
		})
		if err != nil {
			return o.failResult("level walk", err)
		}
	}

	o.logger.Info("location level sync finished", zap.Int("levels", total))
	return syncdomain.Ok(total, "Synced %d inventory levels", total)
}

// SyncAll runs the order sync and then the inventory sync, reporting the
// combined outcome.
func (o *Orchestrator) SyncAll(ctx context.Context) syncdomain.Result {
	orders := o.SyncAllOrders(ctx)
	o.logger.Info("sync step finished", zap.String("step", "orders"), zap.Bool("success", orders.Success), zap.String("message", orders.Message))
	if !orders.Success {
		return orders
	}

	inventory := o.SyncAllInventory(ctx)
	o.logger.Info("sync step finished", zap.String("step", "inventory"), zap.Bool("success", inventory.Success), zap.String("message", inventory.Message))
	if !inventory.Success {
		return inventory
	}

	return syncdomain.Ok(orders.Count+inventory.Count, "%s; %s", orders.Message, inventory.Message)
}

// failResult logs an operation failure and maps it to a Result. Upstream
// status failures surface as "API Error: <code>" so callers need no
// knowledge of transport details.
func (o *Orchestrator) failResult(operation string, err error) syncdomain.Result {
	o.logger.Error(operation+" failed", zap.Error(err))

	var statusErr *shopify.StatusError
	if errors.As(err, &statusErr) {
		return syncdomain.Fail("API Error: %d", statusErr.StatusCode)
	}
	return syncdomain.Fail("%s: %v", operation, err)
}
