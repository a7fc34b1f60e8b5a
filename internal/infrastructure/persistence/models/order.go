package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// Order mirrors one remote sales order. CreatedAt and UpdatedAt carry the
// remote timestamps verbatim, so GORM's automatic time tracking is disabled
// for them; SyncedAt records when this row was last written locally. The
// Province..Address1 columns duplicate the shipping_address blob so exports
// and reports never have to parse JSON per row.
type Order struct {
	ID                uint            `gorm:"primaryKey"`
	ShopifyID         int64           `gorm:"uniqueIndex;not null"`
	OrderNumber       int64           `gorm:"index"`
	Email             *string         `gorm:"size:255"`
	CreatedAt         time.Time       `gorm:"autoCreateTime:false"`
	UpdatedAt         time.Time       `gorm:"autoUpdateTime:false;index"`
	FinancialStatus   *string         `gorm:"size:32"`
	FulfillmentStatus *string         `gorm:"size:32"`
	TotalPrice        decimal.Decimal `gorm:"type:decimal(12,2)"`
	TotalTax          decimal.Decimal `gorm:"type:decimal(12,2)"`
	Currency          string          `gorm:"size:8"`
	Tags              *string
	Province          *string `gorm:"size:128"`
	ProvinceCode      *string `gorm:"size:16"`
	City              *string `gorm:"size:128"`
	Zip               *string `gorm:"size:32"`
	Address1          *string `gorm:"size:512"`
	CustomerData      *string `gorm:"type:jsonb"`
	ShippingAddress   *string `gorm:"type:jsonb"`
	BillingAddress    *string `gorm:"type:jsonb"`
	RawData           string  `gorm:"type:jsonb"`
	SyncedAt          time.Time
	Items             []OrderItem `gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
}

// TableName returns the table name for Order
func (Order) TableName() string {
	return "shopify_orders"
}

// OrderItem is one line item of an order. Rows are replaced wholesale
// whenever the parent order is re-synced.
type OrderItem struct {
	ID                uint            `gorm:"primaryKey"`
	OrderID           uint            `gorm:"uniqueIndex:idx_order_line,priority:1;not null"`
	ShopifyLineItemID int64           `gorm:"uniqueIndex:idx_order_line,priority:2;not null"`
	ProductID         *int64          `gorm:"index"`
	VariantID         *int64          `gorm:"index"`
	Title             string          `gorm:"size:512"`
	Quantity          int             `gorm:"not null"`
	Price             decimal.Decimal `gorm:"type:decimal(12,2)"`
	SKU               *string         `gorm:"size:128;index"`
	Vendor            *string         `gorm:"size:255"`
	RawData           string          `gorm:"type:jsonb"`
}

// TableName returns the table name for OrderItem
func (OrderItem) TableName() string {
	return "shopify_order_items"
}
