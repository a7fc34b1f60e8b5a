// Package export flattens the synced catalog into the CSV files consumed by
// spreadsheet users and by the analyst assistant's knowledge refresh.
package export

import (
	"context"
	"encoding/csv"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/shopsync/backend/internal/infrastructure/persistence"
	"github.com/shopsync/backend/internal/infrastructure/persistence/models"
	"go.uber.org/zap"
)

const (
	// orderChunkSize bounds how many orders are held in memory per batch
	orderChunkSize = 100
	// productChunkSize bounds how many item/level rows are held per batch
	productChunkSize = 500

	// OrdersFilename is the stable name of the orders export
	OrdersFilename = "orders_export.csv"
	// ProductsFilename is the stable name of the products export
	ProductsFilename = "products_export.csv"

	timestampLayout = "2006-01-02 15:04:05"
)

// ordersHeader is the fixed column set of the orders export. Line-item
// columns repeat the order-level values on every row so each row stands
// alone in a spreadsheet.
var ordersHeader = []string{
	"order_number", "email", "created_at", "updated_at",
	"financial_status", "fulfillment_status", "total_price", "total_tax",
	"tags", "province", "province_code", "city", "zip", "address1",
	"Lineitem name", "Lineitem price", "Lineitem sku", "Lineitem quantity",
	"vendor",
}

var productsHeader = []string{"sku", "cost", "tracked", "requires_shipping", "available"}

// OrderSource streams stored orders in batches
type OrderSource interface {
	ChunkWithItems(ctx context.Context, size int, fn func(orders []models.Order) error) error
}

// InventorySource streams flattened item/level rows in batches
type InventorySource interface {
	ChunkForExport(ctx context.Context, size int, fn func(rows []persistence.InventoryExportRow) error) error
}

// ArchiveStorage receives finished export files, typically object storage
type ArchiveStorage interface {
	Upload(ctx context.Context, storageKey string, data []byte, contentType string) error
}

// Writer produces the CSV exports on local disk and optionally archives
// them to object storage.
type Writer struct {
	orders    OrderSource
	inventory InventorySource
	archive   ArchiveStorage
	dir       string
	logger    *zap.Logger
	now       func() time.Time
}

// NewWriter creates a new export Writer. archive may be nil to skip archiving.
func NewWriter(orders OrderSource, inventory InventorySource, archive ArchiveStorage, dir string, logger *zap.Logger) *Writer {
	return &Writer{
		orders:    orders,
		inventory: inventory,
		archive:   archive,
		dir:       dir,
		logger:    logger.Named("export"),
		now:       time.Now,
	}
}

// ExportOrders writes the orders CSV and returns its path. An order with N
// line items produces N rows repeating the order-level columns; an order
// with no items produces a single row with blank line-item columns.
func (w *Writer) ExportOrders(ctx context.Context) (string, error) {
	path := filepath.Join(w.dir, OrdersFilename)
	rows := 0

	err := w.writeCSV(path, ordersHeader, func(out *csv.Writer) error {
		return w.orders.ChunkWithItems(ctx, orderChunkSize, func(orders []models.Order) error {
			for i := range orders {
				for _, record := range orderRows(&orders[i]) {
					if err := out.Write(record); err != nil {
						return err
					}
					rows++
				}
			}
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("export orders: %w", err)
	}

	w.logger.Info("orders export written", zap.String("path", path), zap.Int("rows", rows))
	return path, nil
}

// ExportProducts writes the products CSV and returns its path
func (w *Writer) ExportProducts(ctx context.Context) (string, error) {
	path := filepath.Join(w.dir, ProductsFilename)
	rows := 0

	err := w.writeCSV(path, productsHeader, func(out *csv.Writer) error {
		return w.inventory.ChunkForExport(ctx, productChunkSize, func(batch []persistence.InventoryExportRow) error {
			for _, row := range batch {
				record := []string{
					row.SKU,
					row.Cost.StringFixed(2),
					yesNo(row.Tracked),
					yesNo(row.RequiresShipping),
					fmt.Sprintf("%d", row.Available),
				}
				if err := out.Write(record); err != nil {
					return err
				}
				rows++
			}
			return nil
		})
	})
	if err != nil {
		return "", fmt.Errorf("export products: %w", err)
	}

	w.logger.Info("products export written", zap.String("path", path), zap.Int("rows", rows))
	return path, nil
}

// ExportAll writes both exports and archives them when archival is
// configured, returning the produced paths.
func (w *Writer) ExportAll(ctx context.Context) ([]string, error) {
	ordersPath, err := w.ExportOrders(ctx)
	if err != nil {
		return nil, err
	}
	productsPath, err := w.ExportProducts(ctx)
	if err != nil {
		return nil, err
	}

	paths := []string{ordersPath, productsPath}
	if w.archive != nil {
		for _, path := range paths {
			if err := w.archiveFile(ctx, path); err != nil {
				return nil, err
			}
		}
	}
	return paths, nil
}

func (w *Writer) writeCSV(path string, header []string, body func(out *csv.Writer) error) error {
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return err
	}
	f, err := os.Create(path)
	if err != nil {
		return err
	}
	defer f.Close()

	out := csv.NewWriter(f)
	if err := out.Write(header); err != nil {
		return err
	}
	if err := body(out); err != nil {
		return err
	}
	out.Flush()
	if err := out.Error(); err != nil {
		return err
	}
	return f.Close()
}

func (w *Writer) archiveFile(ctx context.Context, path string) error {
	data, err := os.ReadFile(path)
	if err != nil {
		return fmt.Errorf("archive read %s: %w", path, err)
	}
	key := fmt.Sprintf("exports/%s/%s", w.now().UTC().Format("2006-01-02"), filepath.Base(path))
	if err := w.archive.Upload(ctx, key, data, "text/csv"); err != nil {
		return fmt.Errorf("archive upload %s: %w", key, err)
	}
	w.logger.Info("export archived", zap.String("key", key))
	return nil
}

// orderRows flattens one order into its CSV rows
func orderRows(order *models.Order) [][]string {
	base := []string{
		fmt.Sprintf("%d", order.OrderNumber),
		deref(order.Email),
		order.CreatedAt.UTC().Format(timestampLayout),
		order.UpdatedAt.UTC().Format(timestampLayout),
		deref(order.FinancialStatus),
		deref(order.FulfillmentStatus),
		order.TotalPrice.StringFixed(2),
		order.TotalTax.StringFixed(2),
		deref(order.Tags),
		deref(order.Province),
		deref(order.ProvinceCode),
		deref(order.City),
		deref(order.Zip),
		deref(order.Address1),
	}

	if len(order.Items) == 0 {
		return [][]string{append(base, "", "", "", "", "")}
	}

	rows := make([][]string, 0, len(order.Items))
	for _, item := range order.Items {
		row := make([]string, 0, len(ordersHeader))
		row = append(row, base...)
		row = append(row,
			item.Title,
			item.Price.StringFixed(2),
			deref(item.SKU),
			fmt.Sprintf("%d", item.Quantity),
			deref(item.Vendor),
		)
		rows = append(rows, row)
	}
	return rows
}

func yesNo(b bool) string {
	if b {
		return "yes"
	}
	return "no"
}

func deref(s *string) string {
	if s == nil {
		return ""
	}
	return *s
}
