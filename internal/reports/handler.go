package reports

import (
	"time"

	"stockroom-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

// GET /api/reports/dashboard
func DashboardHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var totalItems, lowStock, pendingOrders, pendingTransactions int64

		if err := db.Model(&models.StockItem{}).Where("active = ?", true).Count(&totalItems).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build dashboard")
		}
		db.Model(&models.StockItem{}).
			Where("active = ? AND quantity <= min_quantity", true).
			Count(&lowStock)
		db.Model(&models.PurchaseOrder{}).
			Where("status = ?", models.OrderPending).
			Count(&pendingOrders)
		db.Model(&models.StockTransaction{}).
			Where("status = ?", models.TransactionPending).
			Count(&pendingTransactions)

		var recent []models.ActivityLog
		db.Order("created_at DESC, id DESC").Limit(10).Find(&recent)

		recentResp := make([]fiber.Map, 0, len(recent))
		for _, l := range recent {
			recentResp = append(recentResp, fiber.Map{
				"id":          l.ID,
				"created_at":  l.CreatedAt.Format("2006-01-02 15:04:05"),
				"username":    l.Username,
				"action":      l.Action,
				"entity_type": l.EntityType,
				"detail":      l.Detail,
			})
		}

		return c.JSON(fiber.Map{
			"success":              true,
			"total_items":          totalItems,
			"low_stock_items":      lowStock,
			"pending_orders":       pendingOrders,
			"pending_transactions": pendingTransactions,
			"recent_activity":      recentResp,
		})
	}
}

type categoryRollup struct {
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	ItemCount    int64  `json:"item_count"`
	TotalUnits   int64  `json:"total_units"`
	LowStock     int64  `json:"low_stock"`
}

// GET /api/reports/stock-levels
func StockLevelHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var rollups []categoryRollup
		if err := db.Raw(`
			SELECT c.id AS category_id, c.name AS category_name,
			       COUNT(i.id) AS item_count,
			       COALESCE(SUM(i.quantity), 0) AS total_units,
			       COALESCE(SUM(CASE WHEN i.quantity <= i.min_quantity THEN 1 ELSE 0 END), 0) AS low_stock
			FROM stock_categories c
			LEFT JOIN stock_items i ON i.category_id = c.id AND i.active = 1
			GROUP BY c.id, c.name
			ORDER BY c.name
		`).Scan(&rollups).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build stock level report")
		}

		var items []models.StockItem
		if err := db.Preload("Category").
			Where("active = ?", true).
			Order("name ASC").
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build stock level report")
		}

		itemRows := make([]fiber.Map, 0, len(items))
		for i := range items {
			itemRows = append(itemRows, fiber.Map{
				"id":           items[i].ID,
				"sku":          items[i].SKU,
				"name":         items[i].Name,
				"category":     items[i].Category.Name,
				"unit":         items[i].Unit,
				"quantity":     items[i].Quantity,
				"min_quantity": items[i].MinQuantity,
				"low_stock":    items[i].LowStock(),
			})
		}

		return c.JSON(fiber.Map{
			"success":    true,
			"categories": rollups,
			"items":      itemRows,
		})
	}
}

// GET /api/reports/stock-movements?item_id=&from=&to=
// Reads the movement ledger; every quantity change has a row here.
func StockMovementHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.StockMovement{}).Preload("StockItem")

		if itemID := c.QueryInt("item_id", 0); itemID > 0 {
			dbq = dbq.Where("stock_item_id = ?", itemID)
		}
		if from := c.Query("from"); from != "" {
			if d, err := time.Parse("2006-01-02", from); err == nil {
				dbq = dbq.Where("created_at >= ?", d)
			}
		}
		if to := c.Query("to"); to != "" {
			if d, err := time.Parse("2006-01-02", to); err == nil {
				dbq = dbq.Where("created_at < ?", d.AddDate(0, 0, 1))
			}
		}

		var movements []models.StockMovement
		if err := dbq.Order("created_at DESC, id DESC").Limit(500).Find(&movements).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build movement report")
		}

		rows := make([]fiber.Map, 0, len(movements))
		for _, m := range movements {
			rows = append(rows, fiber.Map{
				"id":              m.ID,
				"created_at":      m.CreatedAt.Format("2006-01-02 15:04:05"),
				"sku":             m.StockItem.SKU,
				"item_name":       m.StockItem.Name,
				"delta":           m.Delta,
				"quantity_before": m.QuantityBefore,
				"quantity_after":  m.QuantityAfter,
				"reason":          m.Reason,
				"ref_type":        m.RefType,
				"ref_id":          m.RefID,
			})
		}

		return c.JSON(fiber.Map{"success": true, "movements": rows})
	}
}

type statusGroup struct {
	Status string  `json:"status"`
	Count  int64   `json:"count"`
	Total  float64 `json:"total"`
}

type supplierGroup struct {
	SupplierID   uint    `json:"supplier_id"`
	SupplierName string  `json:"supplier_name"`
	Count        int64   `json:"count"`
	Total        float64 `json:"total"`
}

// GET /api/reports/orders
func PurchaseOrderReportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var byStatus []statusGroup
		if err := db.Model(&models.PurchaseOrder{}).
			Select("status, COUNT(*) AS count, COALESCE(SUM(total_amount), 0) AS total").
			Group("status").
			Scan(&byStatus).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build order report")
		}

		var bySupplier []supplierGroup
		if err := db.Raw(`
			SELECT s.id AS supplier_id, s.name AS supplier_name,
			       COUNT(o.id) AS count, COALESCE(SUM(o.total_amount), 0) AS total
			FROM suppliers s
			LEFT JOIN purchase_orders o ON o.supplier_id = s.id
			GROUP BY s.id, s.name
			ORDER BY total DESC
		`).Scan(&bySupplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build order report")
		}

		return c.JSON(fiber.Map{
			"success":     true,
			"by_status":   byStatus,
			"by_supplier": bySupplier,
		})
	}
}

type typeStatusGroup struct {
	Type   string `json:"type"`
	Status string `json:"status"`
	Count  int64  `json:"count"`
}

// GET /api/reports/transactions
func TransactionReportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var groups []typeStatusGroup
		if err := db.Model(&models.StockTransaction{}).
			Select("type, status, COUNT(*) AS count").
			Group("type, status").
			Order("type, status").
			Scan(&groups).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build transaction report")
		}

		return c.JSON(fiber.Map{"success": true, "groups": groups})
	}
}

type userActivity struct {
	UserID   uint   `json:"user_id"`
	Username string `json:"username"`
	Count    int64  `json:"count"`
}

// GET /api/reports/activity?from=&to=
func ActivityReportHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.ActivityLog{})

		if from := c.Query("from"); from != "" {
			if d, err := time.Parse("2006-01-02", from); err == nil {
				dbq = dbq.Where("created_at >= ?", d)
			}
		}
		if to := c.Query("to"); to != "" {
			if d, err := time.Parse("2006-01-02", to); err == nil {
				dbq = dbq.Where("created_at < ?", d.AddDate(0, 0, 1))
			}
		}

		var byUser []userActivity
		if err := dbq.Session(&gorm.Session{}).
			Select("user_id, username, COUNT(*) AS count").
			Group("user_id, username").
			Order("count DESC").
			Scan(&byUser).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not build activity report")
		}

		var total int64
		dbq.Session(&gorm.Session{}).Count(&total)

		return c.JSON(fiber.Map{
			"success": true,
			"total":   total,
			"by_user": byUser,
		})
	}
}
