// Package shopify holds the raw payload types returned by the Shopify Admin
// REST API. Records travel through the sync pipeline as json.RawMessage so the
// original payload can be retained for audit and AI context; these types are
// the parsed views the persister works with.
package shopify

import (
	"encoding/json"
	"time"

	"github.com/shopspring/decimal"
)

// Order is the parsed view of one order record from the orders listing.
// Monetary fields arrive as JSON strings ("42.50"); decimal.Decimal accepts
// both string and number encodings.
type Order struct {
	ID                int64           `json:"id"`
	OrderNumber       int64           `json:"order_number"`
	Email             string          `json:"email"`
	CreatedAt         time.Time       `json:"created_at"`
	UpdatedAt         time.Time       `json:"updated_at"`
	FinancialStatus   string          `json:"financial_status"`
	FulfillmentStatus string          `json:"fulfillment_status"`
	TotalPrice        decimal.Decimal `json:"total_price"`
	TotalTax          decimal.Decimal `json:"total_tax"`
	Currency          string          `json:"currency"`
	Tags              string          `json:"tags"`
	Customer          json.RawMessage `json:"customer"`
	ShippingAddress   json.RawMessage `json:"shipping_address"`
	BillingAddress    json.RawMessage `json:"billing_address"`
	LineItems         []LineItem      `json:"line_items"`
}

// LineItem is one order line item.
type LineItem struct {
	ID        int64           `json:"id"`
	ProductID *int64          `json:"product_id"`
	VariantID *int64          `json:"variant_id"`
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SKU       string          `json:"sku"`
	Vendor    string          `json:"vendor"`
}

// Address is the subset of a shipping address denormalized onto the order row.
type Address struct {
	Province     string `json:"province"`
	ProvinceCode string `json:"province_code"`
	City         string `json:"city"`
	Zip          string `json:"zip"`
	Address1     string `json:"address1"`
}

// Product is the parsed view of one product record; only variants matter to
// the inventory sync.
type Product struct {
	ID       int64     `json:"id"`
	Variants []Variant `json:"variants"`
}

// Variant carries the inventory linkage embedded in a product variant.
type Variant struct {
	ID                int64  `json:"id"`
	InventoryItemID   int64  `json:"inventory_item_id"`
	InventoryQuantity int    `json:"inventory_quantity"`
	SKU               string `json:"sku"`
}

// InventoryItem is the parsed view of one inventory item record.
type InventoryItem struct {
	ID               int64           `json:"id"`
	SKU              string          `json:"sku"`
	Cost             decimal.Decimal `json:"cost"`
	Tracked          bool            `json:"tracked"`
	RequiresShipping bool            `json:"requires_shipping"`
	VariantID        *int64          `json:"variant_id"`
}

// InventoryLevel is one per-location availability record.
type InventoryLevel struct {
	InventoryItemID int64     `json:"inventory_item_id"`
	LocationID      int64     `json:"location_id"`
	Available       int       `json:"available"`
	UpdatedAt       time.Time `json:"updated_at"`
}

// Location is one fulfillment location.
type Location struct {
	ID     int64  `json:"id"`
	Name   string `json:"name"`
	Active bool   `json:"active"`
}

// ParseAddress extracts the denormalized address fields from a raw
// shipping_address blob. A nil or empty blob yields a zero Address.
func ParseAddress(raw json.RawMessage) Address {
	var addr Address
	if len(raw) > 0 {
		_ = json.Unmarshal(raw, &addr)
	}
	return addr
}
