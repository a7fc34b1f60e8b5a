package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// InventoryItem is the cost and shipping metadata of one remote inventory
// item, keyed by the remote inventory_item_id. VariantID and SKU link it
// back to order line items; either can be absent on the remote side.
type InventoryItem struct {
	ID               uint            `gorm:"primaryKey"`
	InventoryItemID  int64           `gorm:"uniqueIndex;not null"`
	VariantID        *int64          `gorm:"index"`
	SKU              *string         `gorm:"size:128;index"`
	Cost             decimal.Decimal `gorm:"type:decimal(12,2)"`
	Tracked          bool
	RequiresShipping bool
	RawData          string `gorm:"type:jsonb"`
	SyncedAt         time.Time
}

// TableName returns the table name for InventoryItem
func (InventoryItem) TableName() string {
	return "shopify_inventory_items"
}

// InventoryLevel is the available quantity for one inventory item.
// Levels are kept location-agnostic: one row per inventory item, last
// write wins, with the originating location recorded for reference only.
type InventoryLevel struct {
	ID              uint   `gorm:"primaryKey"`
	InventoryItemID int64  `gorm:"uniqueIndex;not null"`
	LocationID      *int64 `gorm:"index"`
	Available       int    `gorm:"not null"`
	RemoteUpdatedAt *time.Time
	SyncedAt        time.Time
}

// TableName returns the table name for InventoryLevel
func (InventoryLevel) TableName() string {
	return "shopify_inventory_levels"
}
