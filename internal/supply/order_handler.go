package supply

import (
	"fmt"

	"stockroom-backend/internal/activity"
	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/models"
	"stockroom-backend/internal/numbers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateOrderRequest struct {
	SupplierID uint               `json:"supplier_id"`
	Note       string             `json:"note"`
	Items      []OrderItemRequest `json:"items"`
}

type OrderItemRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type UpdateOrderStatusRequest struct {
	Status      models.OrderStatus `json:"status"`
	UpdateStock bool               `json:"update_stock"`
}

type OrderResponse struct {
	ID           uint                `json:"id"`
	OrderNumber  string              `json:"order_number"`
	SupplierID   uint                `json:"supplier_id"`
	SupplierName string              `json:"supplier_name"`
	Status       models.OrderStatus  `json:"status"`
	CreatedByID  uint                `json:"created_by_id"`
	ApprovedByID *uint               `json:"approved_by_id"`
	TotalAmount  float64             `json:"total_amount"`
	Note         string              `json:"note"`
	Items        []OrderItemResponse `json:"items"`
	CreatedAt    string              `json:"created_at"`
}

type OrderItemResponse struct {
	ID          uint    `json:"id"`
	StockItemID uint    `json:"stock_item_id"`
	ItemName    string  `json:"item_name"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

func orderResponse(o *models.PurchaseOrder) OrderResponse {
	items := make([]OrderItemResponse, 0, len(o.Items))
	for _, it := range o.Items {
		items = append(items, OrderItemResponse{
			ID:          it.ID,
			StockItemID: it.StockItemID,
			ItemName:    it.StockItem.Name,
			SKU:         it.StockItem.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return OrderResponse{
		ID:           o.ID,
		OrderNumber:  o.OrderNumber,
		SupplierID:   o.SupplierID,
		SupplierName: o.Supplier.Name,
		Status:       o.Status,
		CreatedByID:  o.CreatedByID,
		ApprovedByID: o.ApprovedByID,
		TotalAmount:  o.TotalAmount,
		Note:         o.Note,
		Items:        items,
		CreatedAt:    o.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/supply/orders
// Order and line items are inserted as one atomic unit; the order always
// starts pending.
func CreateOrderHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateOrderRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "At least one line item is required")
		}

		var supplier models.Supplier
		if err := db.First(&supplier, body.SupplierID).Error; err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier not found")
		}

		var totalAmount float64
		orderItems := make([]models.PurchaseOrderItem, 0, len(body.Items))
		for _, itemReq := range body.Items {
			if itemReq.Quantity <= 0 || itemReq.UnitPrice <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Quantity and unit price must be greater than 0 for every line item")
			}

			var stockItem models.StockItem
			if err := db.First(&stockItem, itemReq.StockItemID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Stock item not found: %d", itemReq.StockItemID))
			}

			totalPrice := float64(itemReq.Quantity) * itemReq.UnitPrice
			totalAmount += totalPrice

			orderItems = append(orderItems, models.PurchaseOrderItem{
				StockItemID: itemReq.StockItemID,
				Quantity:    itemReq.Quantity,
				UnitPrice:   itemReq.UnitPrice,
				TotalPrice:  totalPrice,
			})
		}

		order := models.PurchaseOrder{
			OrderNumber: numbers.Next(db, "purchase_orders", "order_number", "PO"),
			SupplierID:  body.SupplierID,
			Status:      models.OrderPending,
			CreatedByID: userID,
			TotalAmount: totalAmount,
			Note:        body.Note,
			Items:       orderItems,
		}

		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&order).Error; err != nil {
				return err
			}
			return activity.WriteLog(tx, activity.Entry{
				UserID:     userID,
				Username:   username,
				EntityType: "purchase_order",
				EntityID:   order.ID,
				Action:     models.LogActionCreate,
				Detail:     fmt.Sprintf("Purchase order %s created: %d items, total %.2f", order.OrderNumber, len(order.Items), order.TotalAmount),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create purchase order")
		}

		if err := db.Preload("Supplier").Preload("Items.StockItem").First(&order, order.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load purchase order")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "order": orderResponse(&order)})
	}
}

// GET /api/supply/orders?status=&supplier_id=
func ListOrdersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Preload("Supplier").Preload("Items.StockItem")

		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}
		if sid := c.QueryInt("supplier_id", 0); sid > 0 {
			dbq = dbq.Where("supplier_id = ?", sid)
		}

		var orders []models.PurchaseOrder
		if err := dbq.Order("created_at DESC").Find(&orders).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list purchase orders")
		}

		resp := make([]OrderResponse, 0, len(orders))
		for i := range orders {
			resp = append(resp, orderResponse(&orders[i]))
		}

		return c.JSON(fiber.Map{"success": true, "orders": resp})
	}
}

// GET /api/supply/orders/:id
func GetOrderHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var order models.PurchaseOrder
		if err := db.Preload("Supplier").Preload("Items.StockItem").
			First(&order, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase order not found")
		}

		return c.JSON(fiber.Map{"success": true, "order": orderResponse(&order)})
	}
}

// POST /api/supply/orders/:id/status
// Forward-only transitions: pending -> approved -> received, and
// cancellation from pending or approved. Receiving with update_stock
// applies every line item as a positive delta to stock; the status write,
// stock updates, ledger rows and log rows commit or roll back together.
func UpdateOrderStatusHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateOrderStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var order models.PurchaseOrder
		if err := db.Preload("Items.StockItem").First(&order, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Purchase order not found")
		}

		if order.Terminal() {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Order %s is already %s", order.OrderNumber, order.Status))
		}

		switch body.Status {
		case models.OrderApproved:
			if order.Status != models.OrderPending {
				return fiber.NewError(fiber.StatusConflict, "Only pending orders can be approved")
			}
		case models.OrderReceived:
			if order.Status != models.OrderApproved {
				return fiber.NewError(fiber.StatusConflict, "Order must be approved before it can be received")
			}
		case models.OrderCancelled:
			// allowed from pending and approved
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Invalid target status")
		}

		action := models.LogActionCancel
		switch body.Status {
		case models.OrderApproved:
			action = models.LogActionApprove
		case models.OrderReceived:
			action = models.LogActionReceive
		}

		txErr := db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{"status": body.Status}
			if body.Status == models.OrderApproved {
				updates["approved_by_id"] = userID
			}
			if err := tx.Model(&order).Updates(updates).Error; err != nil {
				return err
			}

			// Goods arriving: positive deltas, no sufficiency check needed.
			if body.Status == models.OrderReceived && body.UpdateStock {
				for _, line := range order.Items {
					before := line.StockItem.Quantity
					after := before + line.Quantity

					if err := tx.Model(&models.StockItem{}).
						Where("id = ?", line.StockItemID).
						Update("quantity", after).Error; err != nil {
						return err
					}

					movement := models.StockMovement{
						StockItemID:    line.StockItemID,
						Delta:          line.Quantity,
						QuantityBefore: before,
						QuantityAfter:  after,
						Reason:         fmt.Sprintf("Received on order %s", order.OrderNumber),
						RefType:        models.MovementRefOrder,
						RefID:          order.ID,
						UserID:         userID,
					}
					if err := tx.Create(&movement).Error; err != nil {
						return err
					}

					if err := activity.WriteLog(tx, activity.Entry{
						UserID:     userID,
						Username:   username,
						EntityType: "stock_item",
						EntityID:   line.StockItemID,
						Action:     models.LogActionAdjust,
						Detail:     fmt.Sprintf("Quantity of %s changed by %+d on order %s", line.StockItem.SKU, line.Quantity, order.OrderNumber),
					}); err != nil {
						return err
					}
				}
			}

			return activity.WriteLog(tx, activity.Entry{
				UserID:     userID,
				Username:   username,
				EntityType: "purchase_order",
				EntityID:   order.ID,
				Action:     action,
				Detail:     fmt.Sprintf("Purchase order %s marked %s", order.OrderNumber, body.Status),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update order status")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": fmt.Sprintf("Order %s marked %s", order.OrderNumber, body.Status),
			"status":  body.Status,
		})
	}
}
