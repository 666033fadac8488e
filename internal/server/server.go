package server

import (
	"log"
	"strings"

	"stockroom-backend/internal/activity"
	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/config"
	"stockroom-backend/internal/models"
	"stockroom-backend/internal/reports"
	"stockroom-backend/internal/stock"
	"stockroom-backend/internal/supply"
	"stockroom-backend/internal/transaction"
	"stockroom-backend/internal/users"

	"github.com/gofiber/fiber/v2"
	"github.com/gofiber/fiber/v2/middleware/cors"
	"gorm.io/gorm"
)

// New builds the request/response bridge the UI process talks to. Every
// failure crosses the boundary as {"success": false, "message": ...};
// unexpected errors are logged and reported generically.
func New(db *gorm.DB, cfg *config.Config) *fiber.App {
	app := fiber.New(fiber.Config{
		ErrorHandler: func(c *fiber.Ctx, err error) error {
			if e, ok := err.(*fiber.Error); ok {
				return c.Status(e.Code).JSON(fiber.Map{
					"success": false,
					"message": e.Message,
				})
			}
			log.Println("Unexpected error:", err)
			return c.Status(fiber.StatusInternalServerError).JSON(fiber.Map{
				"success": false,
				"message": "Unexpected server error",
			})
		},
	})

	corsOrigins := strings.Split(cfg.CORSOrigins, ",")
	for i := range corsOrigins {
		corsOrigins[i] = strings.TrimSpace(corsOrigins[i])
	}
	app.Use(cors.New(cors.Config{
		AllowOrigins: strings.Join(corsOrigins, ","),
		AllowHeaders: "Origin, Content-Type, Accept, Authorization",
		AllowMethods: "GET,POST,PUT,DELETE,OPTIONS",
	}))

	api := app.Group("/api")

	// Public
	api.Post("/auth/login", auth.LoginHandler(db, cfg))

	// Everything else requires a session token
	protected := api.Group("", auth.JWTMiddleware(cfg))

	protected.Get("/auth/me", auth.MeHandler(db))
	protected.Post("/auth/change-password", auth.ChangePasswordHandler(db))

	// User management (admin only)
	adminRoutes := protected.Group("/users", auth.RequireRole(models.RoleAdmin))
	adminRoutes.Get("/", users.ListUsersHandler(db))
	adminRoutes.Post("/", users.CreateUserHandler(db))
	adminRoutes.Put("/:id/active", users.SetActiveHandler(db))
	adminRoutes.Put("/:id/password", users.ResetPasswordHandler(db))

	// Stock
	protected.Post("/stock/categories", stock.CreateCategoryHandler(db))
	protected.Get("/stock/categories", stock.ListCategoriesHandler(db))
	protected.Put("/stock/categories/:id", stock.UpdateCategoryHandler(db))
	protected.Delete("/stock/categories/:id", stock.DeleteCategoryHandler(db))
	protected.Post("/stock/items", stock.CreateItemHandler(db))
	protected.Get("/stock/items", stock.SearchItemsHandler(db))
	protected.Get("/stock/items/low", stock.LowStockHandler(db))
	protected.Get("/stock/items/:id", stock.GetItemHandler(db))
	protected.Put("/stock/items/:id", stock.UpdateItemHandler(db))
	protected.Delete("/stock/items/:id", stock.DeactivateItemHandler(db))
	protected.Post("/stock/items/:id/quantity", stock.SetQuantityHandler(db))

	// Suppliers and purchase orders
	protected.Post("/supply/suppliers", supply.CreateSupplierHandler(db))
	protected.Get("/supply/suppliers", supply.ListSuppliersHandler(db))
	protected.Get("/supply/suppliers/:id", supply.GetSupplierHandler(db))
	protected.Put("/supply/suppliers/:id", supply.UpdateSupplierHandler(db))
	protected.Post("/supply/orders", supply.CreateOrderHandler(db))
	protected.Get("/supply/orders", supply.ListOrdersHandler(db))
	protected.Get("/supply/orders/:id", supply.GetOrderHandler(db))
	protected.Post("/supply/orders/:id/status", supply.UpdateOrderStatusHandler(db))

	// Stock transactions
	protected.Post("/transactions", transaction.CreateTransactionHandler(db))
	protected.Get("/transactions", transaction.ListTransactionsHandler(db))
	protected.Get("/transactions/:id", transaction.GetTransactionHandler(db))
	protected.Post("/transactions/:id/status", transaction.UpdateStatusHandler(db))

	// Reports
	protected.Get("/reports/dashboard", reports.DashboardHandler(db))
	protected.Get("/reports/stock-levels", reports.StockLevelHandler(db))
	protected.Get("/reports/stock-movements", reports.StockMovementHandler(db))
	protected.Get("/reports/orders", reports.PurchaseOrderReportHandler(db))
	protected.Get("/reports/transactions", reports.TransactionReportHandler(db))
	protected.Get("/reports/activity", reports.ActivityReportHandler(db))
	protected.Post("/reports/export", reports.ExportHandler(cfg))

	// Activity logs
	protected.Get("/activity-logs", activity.ListHandler(db))

	return app
}
