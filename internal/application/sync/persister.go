package sync

import (
	"context"
	"encoding/json"
	"fmt"
	"time"

	shopifydomain "github.com/shopsync/backend/internal/domain/shopify"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
	"gorm.io/gorm"
)

// defaultCurrency is assumed when a payload omits the currency
const defaultCurrency = "USD"

// Persister applies pages of raw remote records to the database.
// Transaction scope is owned by the caller: every method works against the
// *gorm.DB it is given, which may be a transaction or the root handle.
type Persister struct {
	logger *zap.Logger
	now    func() time.Time
}

// NewPersister creates a new Persister
func NewPersister(logger *zap.Logger) *Persister {
	return &Persister{
		logger: logger.Named("persister"),
		now:    time.Now,
	}
}

// SaveOrdersPage applies one page of raw order records. Each order is
// upserted by its remote id with line items replaced wholesale. Returns the
// number of orders written.
func (p *Persister) SaveOrdersPage(ctx context.Context, db *gorm.DB, records []json.RawMessage) (int, error) {
	repo := persistence.NewGormOrderRepository(db)

	saved := 0
	for _, raw := range records {
		var order shopifydomain.Order
		if err := json.Unmarshal(raw, &order); err != nil {
			return saved, fmt.Errorf("sync: decode order: %w", err)
		}
		if err := repo.UpsertWithItems(ctx, p.orderRow(&order, raw)); err != nil {
			return saved, fmt.Errorf("sync: persist order %d: %w", order.ID, err)
		}
		saved++
	}
	return saved, nil
}

// orderRow maps a parsed order onto its persistence row, applying the
// column fallbacks: absent email/statuses/tags become NULL, absent totals
// stay zero, absent currency becomes USD. The shipping address is both kept
// as a blob and denormalized onto dedicated columns, and the raw payload is
// retained per order and per line item.
func (p *Persister) orderRow(order *shopifydomain.Order, raw json.RawMessage) *models.Order {
	currency := order.Currency
	if currency == "" {
		currency = defaultCurrency
	}
	addr := shopifydomain.ParseAddress(order.ShippingAddress)

	row := &models.Order{
		ShopifyID:         order.ID,
		OrderNumber:       order.OrderNumber,
		Email:             nullableString(order.Email),
		CreatedAt:         order.CreatedAt,
		UpdatedAt:         order.UpdatedAt,
		FinancialStatus:   nullableString(order.FinancialStatus),
		FulfillmentStatus: nullableString(order.FulfillmentStatus),
		TotalPrice:        order.TotalPrice,
		TotalTax:          order.TotalTax,
		Currency:          currency,
		Tags:              nullableString(order.Tags),
		Province:          nullableString(addr.Province),
		ProvinceCode:      nullableString(addr.ProvinceCode),
		City:              nullableString(addr.City),
		Zip:               nullableString(addr.Zip),
		Address1:          nullableString(addr.Address1),
		CustomerData:      nullableJSON(order.Customer),
		ShippingAddress:   nullableJSON(order.ShippingAddress),
		BillingAddress:    nullableJSON(order.BillingAddress),
		RawData:           string(raw),
		SyncedAt:          p.now(),
	}

	rawItems := rawLineItems(raw)
	for i, item := range order.LineItems {
		itemRaw := ""
		if i < len(rawItems) {
			itemRaw = string(rawItems[i])
		}
		row.Items = append(row.Items, models.OrderItem{
			ShopifyLineItemID: item.ID,
			ProductID:         item.ProductID,
			VariantID:         item.VariantID,
			Title:             item.Title,
			Quantity:          item.Quantity,
			Price:             item.Price,
			SKU:               nullableString(item.SKU),
			Vendor:            nullableString(item.Vendor),
			RawData:           itemRaw,
		})
	}
	return row
}

// rawLineItems re-reads the order payload to recover each line item's
// original bytes; index order matches the parsed LineItems slice.
func rawLineItems(raw json.RawMessage) []json.RawMessage {
	var envelope struct {
		LineItems []json.RawMessage `json:"line_items"`
	}
	_ = json.Unmarshal(raw, &envelope)
	return envelope.LineItems
}

// SaveInventoryItems upserts raw inventory item records. variantByItem maps
// remote inventory_item_id to the variant that referenced it during the
// product walk; item payloads do not carry that linkage themselves.
func (p *Persister) SaveInventoryItems(ctx context.Context, db *gorm.DB, records []json.RawMessage, variantByItem map[int64]int64) (int, error) {
	repo := persistence.NewGormInventoryRepository(db)

	saved := 0
	for _, raw := range records {
		var item shopifydomain.InventoryItem
		if err := json.Unmarshal(raw, &item); err != nil {
			return saved, fmt.Errorf("sync: decode inventory item: %w", err)
		}

		row := &models.InventoryItem{
			InventoryItemID:  item.ID,
			SKU:              nullableString(item.SKU),
			Cost:             item.Cost,
			Tracked:          item.Tracked,
			RequiresShipping: item.RequiresShipping,
			RawData:          string(raw),
			SyncedAt:         p.now(),
		}
		if variantID, ok := variantByItem[item.ID]; ok {
			row.VariantID = &variantID
		}

		if err := repo.UpsertItem(ctx, row); err != nil {
			return saved, fmt.Errorf("sync: persist inventory item %d: %w", item.ID, err)
		}
		saved++
	}
	return saved, nil
}

// SaveVariantLevels upserts one location-agnostic level per variant from the
// inventory_quantity embedded in the product walk.
func (p *Persister) SaveVariantLevels(ctx context.Context, db *gorm.DB, variants []shopifydomain.Variant) (int, error) {
	repo := persistence.NewGormInventoryRepository(db)

	saved := 0
	for _, variant := range variants {
		if variant.InventoryItemID == 0 {
			continue
		}
		level := &models.InventoryLevel{
			InventoryItemID: variant.InventoryItemID,
			Available:       variant.InventoryQuantity,
			SyncedAt:        p.now(),
		}
		if err := repo.UpsertLevel(ctx, level); err != nil {
			return saved, fmt.Errorf("sync: persist level for item %d: %w", variant.InventoryItemID, err)
		}
		saved++
	}
	return saved, nil
}

// SaveLocationLevels upserts raw per-location level records. Uniqueness
// stays per inventory item; the reporting location is recorded on the row.
func (p *Persister) SaveLocationLevels(ctx context.Context, db *gorm.DB, records []json.RawMessage) (int, error) {
	repo := persistence.NewGormInventoryRepository(db)

	saved := 0
	for _, raw := range records {
		var level shopifydomain.InventoryLevel
		if err := json.Unmarshal(raw, &level); err != nil {
			return saved, fmt.Errorf("sync: decode inventory level: %w", err)
		}
		if level.InventoryItemID == 0 {
			continue
		}

		row := &models.InventoryLevel{
			InventoryItemID: level.InventoryItemID,
			Available:       level.Available,
			SyncedAt:        p.now(),
		}
		if level.LocationID != 0 {
			locationID := level.LocationID
			row.LocationID = &locationID
		}
		if !level.UpdatedAt.IsZero() {
			updatedAt := level.UpdatedAt
			row.RemoteUpdatedAt = &updatedAt
		}

		if err := repo.UpsertLevel(ctx, row); err != nil {
			return saved, fmt.Errorf("sync: persist level for item %d: %w", level.InventoryItemID, err)
		}
		saved++
	}
	return saved, nil
}

func nullableString(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}

func nullableJSON(raw json.RawMessage) *string {
	if len(raw) == 0 || string(raw) == "null" {
		return nil
	}
	s := string(raw)
	return &s
}
