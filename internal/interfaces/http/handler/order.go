package handler

import (
	"context"
	"errors"
	"time"

	"github.com/gin-gonic/gin"
	"github.com/shopspring/decimal"
	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

const (
	defaultPage     = 1
	defaultPageSize = 20
	maxPageSize     = 100
)

// OrderStore lists synced orders
type OrderStore interface {
	List(ctx context.Context, page, pageSize int) ([]models.Order, int64, error)
}

// InventoryStore resolves order items to current stock levels
type InventoryStore interface {
	FindForOrderItem(ctx context.Context, variantID *int64, sku *string) (*models.InventoryItem, error)
	AvailableFor(ctx context.Context, inventoryItemID int64) (int, error)
}

// OrderHandler handles order API endpoints
type OrderHandler struct {
	BaseHandler
	orders    OrderStore
	inventory InventoryStore
	logger    *zap.Logger
}

// NewOrderHandler creates a new OrderHandler
func NewOrderHandler(orders OrderStore, inventory InventoryStore, logger *zap.Logger) *OrderHandler {
	return &OrderHandler{orders: orders, inventory: inventory, logger: logger}
}

// RegisterRoutes registers order routes
func (h *OrderHandler) RegisterRoutes(rg *gin.RouterGroup) {
	rg.GET("/orders", h.List)
}

// OrderItemResponse is the wire form of an order line item. Available is the
// current stock level for the item's variant, nil when the variant is not in
// the synced inventory.
type OrderItemResponse struct {
	Title     string          `json:"title"`
	Quantity  int             `json:"quantity"`
	Price     decimal.Decimal `json:"price"`
	SKU       *string         `json:"sku,omitempty"`
	Vendor    *string         `json:"vendor,omitempty"`
	Available *int            `json:"available,omitempty"`
}

// OrderResponse is the wire form of a synced order
type OrderResponse struct {
	ShopifyID         int64               `json:"shopify_id"`
	OrderNumber       int64               `json:"order_number"`
	Email             *string             `json:"email,omitempty"`
	CreatedAt         time.Time           `json:"created_at"`
	FinancialStatus   *string             `json:"financial_status,omitempty"`
	FulfillmentStatus *string             `json:"fulfillment_status,omitempty"`
	TotalPrice        decimal.Decimal     `json:"total_price"`
	Currency          string              `json:"currency"`
	Tags              *string             `json:"tags,omitempty"`
	Items             []OrderItemResponse `json:"items"`
}

// ListRequest holds pagination query parameters
type ListRequest struct {
	Page     int `form:"page" binding:"omitempty,min=1"`
	PageSize int `form:"page_size" binding:"omitempty,min=1,max=100"`
}

// List returns synced orders newest first, each line item enriched with the
// currently available stock for its variant.
func (h *OrderHandler) List(c *gin.Context) {
	req := ListRequest{Page: defaultPage, PageSize: defaultPageSize}
	if err := c.ShouldBindQuery(&req); err != nil {
		h.BadRequest(c, err.Error())
		return
	}
	if req.Page == 0 {
		req.Page = defaultPage
	}
	if req.PageSize == 0 {
		req.PageSize = defaultPageSize
	}
	if req.PageSize > maxPageSize {
		req.PageSize = maxPageSize
	}

	orders, total, err := h.orders.List(c.Request.Context(), req.Page, req.PageSize)
	if err != nil {
		h.logger.Error("order list failed", zap.Error(err))
		h.InternalError(c, "could not list orders")
		return
	}

	out := make([]OrderResponse, 0, len(orders))
	for i := range orders {
		out = append(out, h.toOrderResponse(c.Request.Context(), &orders[i]))
	}
	h.SuccessWithMeta(c, out, total, req.Page, req.PageSize)
}

func (h *OrderHandler) toOrderResponse(ctx context.Context, order *models.Order) OrderResponse {
	items := make([]OrderItemResponse, 0, len(order.Items))
	for i := range order.Items {
		item := &order.Items[i]
		items = append(items, OrderItemResponse{
			Title:     item.Title,
			Quantity:  item.Quantity,
			Price:     item.Price,
			SKU:       item.SKU,
			Vendor:    item.Vendor,
			Available: h.availableFor(ctx, item),
		})
	}
	return OrderResponse{
		ShopifyID:         order.ShopifyID,
		OrderNumber:       order.OrderNumber,
		Email:             order.Email,
		CreatedAt:         order.CreatedAt,
		FinancialStatus:   order.FinancialStatus,
		FulfillmentStatus: order.FulfillmentStatus,
		TotalPrice:        order.TotalPrice,
		Currency:          order.Currency,
		Tags:              order.Tags,
		Items:             items,
	}
}

// availableFor looks up the current stock for a line item. Lookup failures
// degrade to "unknown" rather than failing the whole listing.
func (h *OrderHandler) availableFor(ctx context.Context, item *models.OrderItem) *int {
	invItem, err := h.inventory.FindForOrderItem(ctx, item.VariantID, item.SKU)
	if err != nil {
		if !errors.Is(err, persistence.ErrNotFound) {
			h.logger.Warn("inventory lookup failed",
				zap.Int64p("variant_id", item.VariantID),
				zap.Error(err),
			)
		}
		return nil
	}

	available, err := h.inventory.AvailableFor(ctx, invItem.InventoryItemID)
	if err != nil {
		h.logger.Warn("stock level lookup failed",
			zap.Int64("inventory_item_id", invItem.InventoryItemID),
			zap.Error(err),
		)
		return nil
	}
	return &available
}
