package transaction_test

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"path/filepath"
	"testing"
	"time"

	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/config"
	"stockroom-backend/internal/database"
	"stockroom-backend/internal/models"
	"stockroom-backend/internal/server"

	"github.com/gofiber/fiber/v2"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

const testSecret = "0123456789abcdef0123456789abcdef"

func setup(t *testing.T) (*fiber.App, *gorm.DB, string) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := models.User{Username: "admin", PasswordHash: string(hash), Role: models.RoleAdmin, Active: true}
	require.NoError(t, db.Create(&admin).Error)

	cfg := &config.Config{JWTSecret: testSecret, ExportPath: t.TempDir()}
	app := server.New(db, cfg)

	token, err := auth.GenerateToken(testSecret, &admin)
	require.NoError(t, err)

	return app, db, token
}

func doJSON(t *testing.T, app *fiber.App, method, path, token string, body any) (int, map[string]any) {
	t.Helper()

	var buf bytes.Buffer
	if body != nil {
		require.NoError(t, json.NewEncoder(&buf).Encode(body))
	}
	req := httptest.NewRequest(method, path, &buf)
	req.Header.Set("Content-Type", "application/json")
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}

	resp, err := app.Test(req, -1)
	require.NoError(t, err)
	defer resp.Body.Close()

	var m map[string]any
	require.NoError(t, json.NewDecoder(resp.Body).Decode(&m))
	return resp.StatusCode, m
}

func seedItem(t *testing.T, db *gorm.DB, sku string, qty, min int) uint {
	t.Helper()

	category := models.StockCategory{Name: "Category for " + sku}
	require.NoError(t, db.Create(&category).Error)

	item := models.StockItem{
		CategoryID:  category.ID,
		SKU:         sku,
		Name:        "Item " + sku,
		Unit:        "pcs",
		Quantity:    qty,
		MinQuantity: min,
		Active:      true,
	}
	require.NoError(t, db.Create(&item).Error)
	return item.ID
}

func createTransaction(t *testing.T, app *fiber.App, token string, tt models.TransactionType, itemID uint, qty int) uint {
	t.Helper()
	status, m := doJSON(t, app, http.MethodPost, "/api/transactions", token, fiber.Map{
		"type": tt,
		"items": []fiber.Map{
			{"stock_item_id": itemID, "quantity": qty},
		},
	})
	require.Equal(t, http.StatusCreated, status)
	trx := m["transaction"].(map[string]any)
	return uint(trx["id"].(float64))
}

func TestIssuanceApprovalFailsAtomicallyOnInsufficientStock(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "A1", 10, 5)

	trxID := createTransaction(t, app, token, models.TransactionIssuance, itemID, 12)

	var logsBefore int64
	db.Model(&models.ActivityLog{}).Count(&logsBefore)

	status, m := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transactions/%d/status", trxID), token,
		fiber.Map{"status": "approved", "update_stock": true})
	assert.Equal(t, http.StatusConflict, status)
	assert.Equal(t, false, m["success"])
	assert.Contains(t, m["message"], "Insufficient stock")

	// Nothing moved: quantity, ledger and log are untouched.
	var item models.StockItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, 10, item.Quantity)

	var movements int64
	db.Model(&models.StockMovement{}).Count(&movements)
	assert.Equal(t, int64(0), movements)

	var logsAfter int64
	db.Model(&models.ActivityLog{}).Count(&logsAfter)
	assert.Equal(t, logsBefore, logsAfter)

	var trx models.StockTransaction
	require.NoError(t, db.First(&trx, trxID).Error)
	assert.Equal(t, models.TransactionPending, trx.Status)
}

func TestIssuanceApprovalDecrementsStock(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "A1", 10, 5)

	trxID := createTransaction(t, app, token, models.TransactionIssuance, itemID, 4)

	status, _ := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transactions/%d/status", trxID), token,
		fiber.Map{"status": "approved", "update_stock": true})
	require.Equal(t, http.StatusOK, status)

	var item models.StockItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, 6, item.Quantity)

	var movement models.StockMovement
	require.NoError(t, db.Where("stock_item_id = ?", itemID).First(&movement).Error)
	assert.Equal(t, -4, movement.Delta)
	assert.Equal(t, 10, movement.QuantityBefore)
	assert.Equal(t, 6, movement.QuantityAfter)
	assert.Equal(t, models.MovementRefTransaction, movement.RefType)

	var log models.ActivityLog
	require.NoError(t, db.Where("entity_type = ? AND action = ?", "stock_item", models.LogActionAdjust).
		First(&log).Error)
	assert.Contains(t, log.Detail, "-4")

	var trx models.StockTransaction
	require.NoError(t, db.First(&trx, trxID).Error)
	assert.Equal(t, models.TransactionApproved, trx.Status)
	require.NotNil(t, trx.ApprovedByID)
	assert.Equal(t, uint(1), *trx.ApprovedByID)
}

func TestReturnApprovalIncrementsStock(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "R1", 3, 1)

	trxID := createTransaction(t, app, token, models.TransactionReturn, itemID, 5)

	status, _ := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transactions/%d/status", trxID), token,
		fiber.Map{"status": "approved", "update_stock": true})
	require.Equal(t, http.StatusOK, status)

	var item models.StockItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, 8, item.Quantity)
}

func TestTerminalTransactionRejectsFurtherTransitions(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "T1", 10, 2)

	trxID := createTransaction(t, app, token, models.TransactionIssuance, itemID, 1)

	status, _ := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transactions/%d/status", trxID), token,
		fiber.Map{"status": "cancelled"})
	require.Equal(t, http.StatusOK, status)

	status, m := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transactions/%d/status", trxID), token,
		fiber.Map{"status": "approved", "update_stock": true})
	assert.Equal(t, http.StatusConflict, status)
	assert.Contains(t, m["message"], "already cancelled")

	var item models.StockItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, 10, item.Quantity)
}

func TestApprovalWithoutStockUpdateLeavesQuantityAlone(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "N1", 10, 2)

	trxID := createTransaction(t, app, token, models.TransactionIssuance, itemID, 4)

	status, _ := doJSON(t, app, http.MethodPost,
		fmt.Sprintf("/api/transactions/%d/status", trxID), token,
		fiber.Map{"status": "approved"})
	require.Equal(t, http.StatusOK, status)

	var item models.StockItem
	require.NoError(t, db.First(&item, itemID).Error)
	assert.Equal(t, 10, item.Quantity)

	var movements int64
	db.Model(&models.StockMovement{}).Count(&movements)
	assert.Equal(t, int64(0), movements)
}

func TestReferenceNumbersAreSequentialPerTypeAndMonth(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "S1", 100, 2)

	head := fmt.Sprintf("ISS-%s-", time.Now().Format("200601"))
	for i := 1; i <= 3; i++ {
		id := createTransaction(t, app, token, models.TransactionIssuance, itemID, 1)
		var trx models.StockTransaction
		require.NoError(t, db.First(&trx, id).Error)
		assert.Equal(t, fmt.Sprintf("%s%04d", head, i), trx.ReferenceNumber)
	}

	// A different type opens its own sequence.
	id := createTransaction(t, app, token, models.TransactionReturn, itemID, 1)
	var trx models.StockTransaction
	require.NoError(t, db.First(&trx, id).Error)
	assert.Equal(t, fmt.Sprintf("RET-%s-0001", time.Now().Format("200601")), trx.ReferenceNumber)
}

func TestCreateTransactionValidation(t *testing.T) {
	app, db, token := setup(t)
	itemID := seedItem(t, db, "V1", 10, 2)

	status, _ := doJSON(t, app, http.MethodPost, "/api/transactions", token, fiber.Map{
		"type":  "issuance",
		"items": []fiber.Map{},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/transactions", token, fiber.Map{
		"type": "borrow",
		"items": []fiber.Map{
			{"stock_item_id": itemID, "quantity": 1},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/transactions", token, fiber.Map{
		"type": "issuance",
		"items": []fiber.Map{
			{"stock_item_id": itemID, "quantity": 0},
		},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}
