package stock

import (
	"fmt"
	"strings"

	"stockroom-backend/internal/activity"
	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type ItemRequest struct {
	CategoryID  uint   `json:"category_id"`
	SKU         string `json:"sku"`
	Name        string `json:"name"`
	Description string `json:"description"`
	Unit        string `json:"unit"`
	Quantity    int    `json:"quantity"`
	MinQuantity int    `json:"min_quantity"`
}

type SetQuantityRequest struct {
	Quantity int    `json:"quantity"`
	Reason   string `json:"reason"`
}

type ItemResponse struct {
	ID           uint   `json:"id"`
	CategoryID   uint   `json:"category_id"`
	CategoryName string `json:"category_name"`
	SKU          string `json:"sku"`
	Name         string `json:"name"`
	Description  string `json:"description"`
	Unit         string `json:"unit"`
	Quantity     int    `json:"quantity"`
	MinQuantity  int    `json:"min_quantity"`
	LowStock     bool   `json:"low_stock"`
	Active       bool   `json:"active"`
	CreatedAt    string `json:"created_at"`
}

func itemResponse(item *models.StockItem) ItemResponse {
	return ItemResponse{
		ID:           item.ID,
		CategoryID:   item.CategoryID,
		CategoryName: item.Category.Name,
		SKU:          item.SKU,
		Name:         item.Name,
		Description:  item.Description,
		Unit:         item.Unit,
		Quantity:     item.Quantity,
		MinQuantity:  item.MinQuantity,
		LowStock:     item.LowStock(),
		Active:       item.Active,
		CreatedAt:    item.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/stock/items
func CreateItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body ItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.SKU = strings.TrimSpace(body.SKU)
		body.Name = strings.TrimSpace(body.Name)
		if body.SKU == "" || body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "SKU, name and unit are required")
		}
		if body.Quantity < 0 || body.MinQuantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantities cannot be negative")
		}

		var category models.StockCategory
		if err := db.First(&category, body.CategoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Category not found")
		}

		var count int64
		db.Model(&models.StockItem{}).Where("sku = ?", body.SKU).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "SKU already exists")
		}

		item := models.StockItem{
			CategoryID:  body.CategoryID,
			SKU:         body.SKU,
			Name:        body.Name,
			Description: strings.TrimSpace(body.Description),
			Unit:        body.Unit,
			Quantity:    body.Quantity,
			MinQuantity: body.MinQuantity,
			Active:      true,
		}
		if err := db.Create(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create item")
		}
		item.Category = category

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "stock_item",
			EntityID:   item.ID,
			Action:     models.LogActionCreate,
			Detail:     fmt.Sprintf("Item created: %s (%s), quantity %d", item.Name, item.SKU, item.Quantity),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "item": itemResponse(&item)})
	}
}

// GET /api/stock/items?category_id=&q=&low_stock=&include_inactive=
func SearchItemsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.StockItem{}).Preload("Category")

		if cid := c.QueryInt("category_id", 0); cid > 0 {
			dbq = dbq.Where("category_id = ?", cid)
		}
		if q := strings.TrimSpace(c.Query("q")); q != "" {
			like := "%" + q + "%"
			dbq = dbq.Where("name LIKE ? OR sku LIKE ?", like, like)
		}
		if c.QueryBool("low_stock", false) {
			dbq = dbq.Where("quantity <= min_quantity")
		}
		if !c.QueryBool("include_inactive", false) {
			dbq = dbq.Where("active = ?", true)
		}

		var items []models.StockItem
		if err := dbq.Order("name ASC").Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list items")
		}

		resp := make([]ItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, itemResponse(&items[i]))
		}

		return c.JSON(fiber.Map{"success": true, "items": resp})
	}
}

// GET /api/stock/items/low
func LowStockHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var items []models.StockItem
		if err := db.Preload("Category").
			Where("active = ? AND quantity <= min_quantity", true).
			Order("quantity ASC").
			Find(&items).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list low stock items")
		}

		resp := make([]ItemResponse, 0, len(items))
		for i := range items {
			resp = append(resp, itemResponse(&items[i]))
		}

		return c.JSON(fiber.Map{"success": true, "items": resp})
	}
}

// GET /api/stock/items/:id
func GetItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var item models.StockItem
		if err := db.Preload("Category").First(&item, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}

		return c.JSON(fiber.Map{"success": true, "item": itemResponse(&item)})
	}
}

// PUT /api/stock/items/:id
// Does not touch quantity; quantity moves only through the set-quantity
// operation, approved transactions and received orders.
func UpdateItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var item models.StockItem
		if err := db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}

		var body ItemRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.SKU = strings.TrimSpace(body.SKU)
		body.Name = strings.TrimSpace(body.Name)
		if body.SKU == "" || body.Name == "" || body.Unit == "" {
			return fiber.NewError(fiber.StatusBadRequest, "SKU, name and unit are required")
		}
		if body.MinQuantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Minimum quantity cannot be negative")
		}

		var category models.StockCategory
		if err := db.First(&category, body.CategoryID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Category not found")
		}

		var count int64
		db.Model(&models.StockItem{}).Where("sku = ? AND id != ?", body.SKU, item.ID).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "SKU already exists")
		}

		item.CategoryID = body.CategoryID
		item.SKU = body.SKU
		item.Name = body.Name
		item.Description = strings.TrimSpace(body.Description)
		item.Unit = body.Unit
		item.MinQuantity = body.MinQuantity
		if err := db.Save(&item).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update item")
		}
		item.Category = category

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "stock_item",
			EntityID:   item.ID,
			Action:     models.LogActionUpdate,
			Detail:     fmt.Sprintf("Item updated: %s (%s)", item.Name, item.SKU),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "item": itemResponse(&item)})
	}
}

// DELETE /api/stock/items/:id
// Items are deactivated, never removed: transactions and orders keep
// referencing them.
func DeactivateItemHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var item models.StockItem
		if err := db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}

		if err := db.Model(&item).Update("active", false).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not deactivate item")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "stock_item",
			EntityID:   item.ID,
			Action:     models.LogActionDelete,
			Detail:     fmt.Sprintf("Item deactivated: %s (%s)", item.Name, item.SKU),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "message": "Item deactivated"})
	}
}

// POST /api/stock/items/:id/quantity
// Direct quantity correction. Writes the stock column, the movement
// ledger row and the activity log entry in one transaction.
func SetQuantityHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body SetQuantityRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Quantity < 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Quantity cannot be negative")
		}
		if strings.TrimSpace(body.Reason) == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Reason is required")
		}

		var item models.StockItem
		if err := db.First(&item, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Item not found")
		}

		before := item.Quantity
		delta := body.Quantity - before

		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Model(&item).Update("quantity", body.Quantity).Error; err != nil {
				return err
			}

			movement := models.StockMovement{
				StockItemID:    item.ID,
				Delta:          delta,
				QuantityBefore: before,
				QuantityAfter:  body.Quantity,
				Reason:         strings.TrimSpace(body.Reason),
				RefType:        models.MovementRefManual,
				UserID:         userID,
			}
			if err := tx.Create(&movement).Error; err != nil {
				return err
			}

			return activity.WriteLog(tx, activity.Entry{
				UserID:     userID,
				Username:   username,
				EntityType: "stock_item",
				EntityID:   item.ID,
				Action:     models.LogActionAdjust,
				Detail:     fmt.Sprintf("Quantity of %s set to %d (%+d): %s", item.SKU, body.Quantity, delta, body.Reason),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update quantity")
		}

		return c.JSON(fiber.Map{
			"success":  true,
			"quantity": body.Quantity,
			"delta":    delta,
		})
	}
}
