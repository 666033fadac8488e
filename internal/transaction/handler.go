package transaction

import (
	"fmt"

	"stockroom-backend/internal/activity"
	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/models"
	"stockroom-backend/internal/numbers"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type CreateTransactionRequest struct {
	Type  models.TransactionType   `json:"type"`
	Note  string                   `json:"note"`
	Items []TransactionItemRequest `json:"items"`
}

type TransactionItemRequest struct {
	StockItemID uint    `json:"stock_item_id"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
}

type UpdateStatusRequest struct {
	Status      models.TransactionStatus `json:"status"`
	UpdateStock bool                     `json:"update_stock"`
}

type TransactionResponse struct {
	ID              uint                      `json:"id"`
	ReferenceNumber string                    `json:"reference_number"`
	Type            models.TransactionType    `json:"type"`
	Status          models.TransactionStatus  `json:"status"`
	CreatedByID     uint                      `json:"created_by_id"`
	ApprovedByID    *uint                     `json:"approved_by_id"`
	Note            string                    `json:"note"`
	Items           []TransactionItemResponse `json:"items"`
	CreatedAt       string                    `json:"created_at"`
}

type TransactionItemResponse struct {
	ID          uint    `json:"id"`
	StockItemID uint    `json:"stock_item_id"`
	ItemName    string  `json:"item_name"`
	SKU         string  `json:"sku"`
	Quantity    int     `json:"quantity"`
	UnitPrice   float64 `json:"unit_price"`
	TotalPrice  float64 `json:"total_price"`
}

func transactionResponse(t *models.StockTransaction) TransactionResponse {
	items := make([]TransactionItemResponse, 0, len(t.Items))
	for _, it := range t.Items {
		items = append(items, TransactionItemResponse{
			ID:          it.ID,
			StockItemID: it.StockItemID,
			ItemName:    it.StockItem.Name,
			SKU:         it.StockItem.SKU,
			Quantity:    it.Quantity,
			UnitPrice:   it.UnitPrice,
			TotalPrice:  it.TotalPrice,
		})
	}
	return TransactionResponse{
		ID:              t.ID,
		ReferenceNumber: t.ReferenceNumber,
		Type:            t.Type,
		Status:          t.Status,
		CreatedByID:     t.CreatedByID,
		ApprovedByID:    t.ApprovedByID,
		Note:            t.Note,
		Items:           items,
		CreatedAt:       t.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

func referencePrefix(tt models.TransactionType) string {
	switch tt {
	case models.TransactionIssuance:
		return "ISS"
	case models.TransactionReturn:
		return "RET"
	case models.TransactionAdjustment:
		return "ADJ"
	default:
		return "TRX"
	}
}

// POST /api/transactions
func CreateTransactionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CreateTransactionRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		switch body.Type {
		case models.TransactionIssuance, models.TransactionReturn, models.TransactionAdjustment:
		default:
			return fiber.NewError(fiber.StatusBadRequest, "Type must be issuance, return or adjustment")
		}
		if len(body.Items) == 0 {
			return fiber.NewError(fiber.StatusBadRequest, "At least one line item is required")
		}

		txItems := make([]models.TransactionItem, 0, len(body.Items))
		for _, itemReq := range body.Items {
			if itemReq.Quantity <= 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Quantity must be greater than 0 for every line item")
			}
			if itemReq.UnitPrice < 0 {
				return fiber.NewError(fiber.StatusBadRequest, "Unit price cannot be negative")
			}

			var stockItem models.StockItem
			if err := db.First(&stockItem, itemReq.StockItemID).Error; err != nil {
				return fiber.NewError(fiber.StatusBadRequest, fmt.Sprintf("Stock item not found: %d", itemReq.StockItemID))
			}

			txItems = append(txItems, models.TransactionItem{
				StockItemID: itemReq.StockItemID,
				Quantity:    itemReq.Quantity,
				UnitPrice:   itemReq.UnitPrice,
				TotalPrice:  float64(itemReq.Quantity) * itemReq.UnitPrice,
			})
		}

		trx := models.StockTransaction{
			ReferenceNumber: numbers.Next(db, "stock_transactions", "reference_number", referencePrefix(body.Type)),
			Type:            body.Type,
			Status:          models.TransactionPending,
			CreatedByID:     userID,
			Note:            body.Note,
			Items:           txItems,
		}

		txErr := db.Transaction(func(tx *gorm.DB) error {
			if err := tx.Create(&trx).Error; err != nil {
				return err
			}
			return activity.WriteLog(tx, activity.Entry{
				UserID:     userID,
				Username:   username,
				EntityType: "transaction",
				EntityID:   trx.ID,
				Action:     models.LogActionCreate,
				Detail:     fmt.Sprintf("Transaction %s (%s) created with %d items", trx.ReferenceNumber, trx.Type, len(trx.Items)),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create transaction")
		}

		if err := db.Preload("Items.StockItem").First(&trx, trx.ID).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not load transaction")
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "transaction": transactionResponse(&trx)})
	}
}

// GET /api/transactions?type=&status=
func ListTransactionsHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Preload("Items.StockItem")

		if tt := c.Query("type"); tt != "" {
			dbq = dbq.Where("type = ?", tt)
		}
		if status := c.Query("status"); status != "" {
			dbq = dbq.Where("status = ?", status)
		}

		var trxs []models.StockTransaction
		if err := dbq.Order("created_at DESC").Find(&trxs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list transactions")
		}

		resp := make([]TransactionResponse, 0, len(trxs))
		for i := range trxs {
			resp = append(resp, transactionResponse(&trxs[i]))
		}

		return c.JSON(fiber.Map{"success": true, "transactions": resp})
	}
}

// GET /api/transactions/:id
func GetTransactionHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var trx models.StockTransaction
		if err := db.Preload("Items.StockItem").First(&trx, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Transaction not found")
		}

		return c.JSON(fiber.Map{"success": true, "transaction": transactionResponse(&trx)})
	}
}

// POST /api/transactions/:id/status
// Approval with update_stock moves stock: negative deltas for issuance,
// positive for return and adjustment. An issuance line requesting more
// than is available aborts the whole transaction; nothing is applied
// partially.
func UpdateStatusHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body UpdateStatusRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if body.Status != models.TransactionApproved && body.Status != models.TransactionCancelled {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid target status")
		}

		var trx models.StockTransaction
		if err := db.Preload("Items.StockItem").First(&trx, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Transaction not found")
		}

		if trx.Terminal() {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Transaction %s is already %s", trx.ReferenceNumber, trx.Status))
		}

		// Check availability before touching anything.
		if body.Status == models.TransactionApproved && body.UpdateStock && trx.Type == models.TransactionIssuance {
			for _, line := range trx.Items {
				if line.StockItem.Quantity < line.Quantity {
					return fiber.NewError(fiber.StatusConflict,
						fmt.Sprintf("Insufficient stock for %s: have %d, requested %d",
							line.StockItem.SKU, line.StockItem.Quantity, line.Quantity))
				}
			}
		}

		action := models.LogActionCancel
		if body.Status == models.TransactionApproved {
			action = models.LogActionApprove
		}

		txErr := db.Transaction(func(tx *gorm.DB) error {
			updates := map[string]interface{}{"status": body.Status}
			if body.Status == models.TransactionApproved {
				updates["approved_by_id"] = userID
			}
			if err := tx.Model(&trx).Updates(updates).Error; err != nil {
				return err
			}

			if body.Status == models.TransactionApproved && body.UpdateStock {
				for _, line := range trx.Items {
					delta := line.Quantity
					if trx.Type == models.TransactionIssuance {
						delta = -delta
					}

					before := line.StockItem.Quantity
					after := before + delta
					if after < 0 {
						// Raced past the pre-check; abort the whole unit.
						return fmt.Errorf("insufficient stock for %s", line.StockItem.SKU)
					}

					if err := tx.Model(&models.StockItem{}).
						Where("id = ?", line.StockItemID).
						Update("quantity", after).Error; err != nil {
						return err
					}

					movement := models.StockMovement{
						StockItemID:    line.StockItemID,
						Delta:          delta,
						QuantityBefore: before,
						QuantityAfter:  after,
						Reason:         fmt.Sprintf("Transaction %s (%s)", trx.ReferenceNumber, trx.Type),
						RefType:        models.MovementRefTransaction,
						RefID:          trx.ID,
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
						Detail:     fmt.Sprintf("Quantity of %s changed by %+d on transaction %s", line.StockItem.SKU, delta, trx.ReferenceNumber),
					}); err != nil {
						return err
					}
				}
			}

			return activity.WriteLog(tx, activity.Entry{
				UserID:     userID,
				Username:   username,
				EntityType: "transaction",
				EntityID:   trx.ID,
				Action:     action,
				Detail:     fmt.Sprintf("Transaction %s marked %s", trx.ReferenceNumber, body.Status),
			})
		})
		if txErr != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update transaction status")
		}

		return c.JSON(fiber.Map{
			"success": true,
			"message": fmt.Sprintf("Transaction %s marked %s", trx.ReferenceNumber, body.Status),
			"status":  body.Status,
		})
	}
}
