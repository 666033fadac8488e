package reports_test

import (
	"bytes"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"os"
	"path/filepath"
	"strings"
	"testing"

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

func setup(t *testing.T) (*fiber.App, *gorm.DB, string, string) {
	t.Helper()

	db, err := database.Open(filepath.Join(t.TempDir(), "test.db"))
	require.NoError(t, err)
	require.NoError(t, database.Migrate(db))

	hash, err := bcrypt.GenerateFromPassword([]byte("password"), bcrypt.MinCost)
	require.NoError(t, err)
	admin := models.User{Username: "admin", PasswordHash: string(hash), Role: models.RoleAdmin, Active: true}
	require.NoError(t, db.Create(&admin).Error)

	exportDir := t.TempDir()
	cfg := &config.Config{JWTSecret: testSecret, ExportPath: exportDir}
	app := server.New(db, cfg)

	token, err := auth.GenerateToken(testSecret, &admin)
	require.NoError(t, err)

	return app, db, token, exportDir
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

func seedInventory(t *testing.T, db *gorm.DB) {
	t.Helper()

	office := models.StockCategory{Name: "Office"}
	require.NoError(t, db.Create(&office).Error)
	cleaning := models.StockCategory{Name: "Cleaning"}
	require.NoError(t, db.Create(&cleaning).Error)

	items := []models.StockItem{
		{CategoryID: office.ID, SKU: "PEN-1", Name: "Pen", Unit: "pcs", Quantity: 50, MinQuantity: 10, Active: true},
		{CategoryID: office.ID, SKU: "PAP-1", Name: "Paper", Unit: "box", Quantity: 2, MinQuantity: 5, Active: true},
		{CategoryID: cleaning.ID, SKU: "MOP-1", Name: "Mop", Unit: "pcs", Quantity: 4, MinQuantity: 4, Active: true},
	}
	for i := range items {
		require.NoError(t, db.Create(&items[i]).Error)
	}

	supplier := models.Supplier{Name: "Acme"}
	require.NoError(t, db.Create(&supplier).Error)
	order := models.PurchaseOrder{
		OrderNumber: "PO-TEST-0001",
		SupplierID:  supplier.ID,
		Status:      models.OrderPending,
		CreatedByID: 1,
		TotalAmount: 99,
	}
	require.NoError(t, db.Create(&order).Error)

	trx := models.StockTransaction{
		ReferenceNumber: "ISS-TEST-0001",
		Type:            models.TransactionIssuance,
		Status:          models.TransactionPending,
		CreatedByID:     1,
	}
	require.NoError(t, db.Create(&trx).Error)
}

func TestDashboard(t *testing.T) {
	app, db, token, _ := setup(t)
	seedInventory(t, db)

	for i := 0; i < 12; i++ {
		require.NoError(t, db.Create(&models.ActivityLog{
			UserID: 1, Username: "admin", EntityType: "stock_item",
			Action: models.LogActionUpdate, Detail: "touch",
		}).Error)
	}

	status, m := doJSON(t, app, http.MethodGet, "/api/reports/dashboard", token, nil)
	require.Equal(t, http.StatusOK, status)

	assert.Equal(t, float64(3), m["total_items"])
	assert.Equal(t, float64(2), m["low_stock_items"])
	assert.Equal(t, float64(1), m["pending_orders"])
	assert.Equal(t, float64(1), m["pending_transactions"])
	assert.Len(t, m["recent_activity"].([]any), 10)
}

func TestStockLevelReportRollsUpPerCategory(t *testing.T) {
	app, db, token, _ := setup(t)
	seedInventory(t, db)

	status, m := doJSON(t, app, http.MethodGet, "/api/reports/stock-levels", token, nil)
	require.Equal(t, http.StatusOK, status)

	categories := m["categories"].([]any)
	require.Len(t, categories, 2)

	byName := map[string]map[string]any{}
	for _, c := range categories {
		row := c.(map[string]any)
		byName[row["category_name"].(string)] = row
	}

	office := byName["Office"]
	require.NotNil(t, office)
	assert.Equal(t, float64(2), office["item_count"])
	assert.Equal(t, float64(52), office["total_units"])
	assert.Equal(t, float64(1), office["low_stock"])

	assert.Len(t, m["items"].([]any), 3)
}

func TestStockMovementReportReadsLedger(t *testing.T) {
	app, db, token, _ := setup(t)
	seedInventory(t, db)

	require.NoError(t, db.Create(&models.StockMovement{
		StockItemID: 1, Delta: -4, QuantityBefore: 50, QuantityAfter: 46,
		Reason: "issued", RefType: models.MovementRefTransaction, RefID: 1, UserID: 1,
	}).Error)
	require.NoError(t, db.Create(&models.StockMovement{
		StockItemID: 2, Delta: 10, QuantityBefore: 2, QuantityAfter: 12,
		Reason: "received", RefType: models.MovementRefOrder, RefID: 1, UserID: 1,
	}).Error)

	status, m := doJSON(t, app, http.MethodGet, "/api/reports/stock-movements", token, nil)
	require.Equal(t, http.StatusOK, status)
	assert.Len(t, m["movements"].([]any), 2)

	status, m = doJSON(t, app, http.MethodGet, "/api/reports/stock-movements?item_id=1", token, nil)
	require.Equal(t, http.StatusOK, status)
	movements := m["movements"].([]any)
	require.Len(t, movements, 1)
	assert.Equal(t, float64(-4), movements[0].(map[string]any)["delta"])
}

func TestTransactionReportGroups(t *testing.T) {
	app, db, token, _ := setup(t)
	seedInventory(t, db)

	status, m := doJSON(t, app, http.MethodGet, "/api/reports/transactions", token, nil)
	require.Equal(t, http.StatusOK, status)

	groups := m["groups"].([]any)
	require.Len(t, groups, 1)
	row := groups[0].(map[string]any)
	assert.Equal(t, "issuance", row["type"])
	assert.Equal(t, "pending", row["status"])
	assert.Equal(t, float64(1), row["count"])
}

func TestExportCSV(t *testing.T) {
	app, _, token, exportDir := setup(t)

	status, m := doJSON(t, app, http.MethodPost, "/api/reports/export", token, fiber.Map{
		"filename": "stock levels",
		"format":   "csv",
		"columns":  []string{"name", "note", "qty"},
		"rows": []fiber.Map{
			{"name": "a,b", "note": `say "hi"`, "qty": 3},
			{"name": "plain", "note": nil, "qty": 1.5},
		},
	})
	require.Equal(t, http.StatusOK, status)
	path := m["path"].(string)
	assert.Equal(t, exportDir, filepath.Dir(path))

	data, err := os.ReadFile(path)
	require.NoError(t, err)
	content := string(data)

	lines := strings.Split(strings.TrimSpace(content), "\n")
	require.Len(t, lines, 3)
	assert.Equal(t, "name,note,qty", lines[0])
	assert.Equal(t, `"a,b","say ""hi""",3`, lines[1])
	assert.Equal(t, "plain,,1.5", lines[2])
}

func TestExportXLSX(t *testing.T) {
	app, _, token, _ := setup(t)

	status, m := doJSON(t, app, http.MethodPost, "/api/reports/export", token, fiber.Map{
		"filename": "orders",
		"format":   "xlsx",
		"columns":  []string{"order", "total"},
		"rows": []fiber.Map{
			{"order": "PO-1", "total": 12.5},
		},
	})
	require.Equal(t, http.StatusOK, status)

	path := m["path"].(string)
	assert.True(t, strings.HasSuffix(path, ".xlsx"))
	info, err := os.Stat(path)
	require.NoError(t, err)
	assert.Greater(t, info.Size(), int64(0))
}

func TestExportValidation(t *testing.T) {
	app, _, token, _ := setup(t)

	status, _ := doJSON(t, app, http.MethodPost, "/api/reports/export", token, fiber.Map{
		"format": "csv",
		"rows":   []fiber.Map{},
	})
	assert.Equal(t, http.StatusBadRequest, status)

	status, _ = doJSON(t, app, http.MethodPost, "/api/reports/export", token, fiber.Map{
		"format": "pdf",
		"rows":   []fiber.Map{{"a": 1}},
	})
	assert.Equal(t, http.StatusBadRequest, status)
}
