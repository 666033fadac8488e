package supply

import (
	"fmt"
	"strings"

	"stockroom-backend/internal/activity"
	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type SupplierRequest struct {
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
}

type SupplierResponse struct {
	ID            uint   `json:"id"`
	Name          string `json:"name"`
	ContactPerson string `json:"contact_person"`
	Phone         string `json:"phone"`
	Email         string `json:"email"`
	Address       string `json:"address"`
	CreatedAt     string `json:"created_at"`
}

func supplierResponse(s *models.Supplier) SupplierResponse {
	return SupplierResponse{
		ID:            s.ID,
		Name:          s.Name,
		ContactPerson: s.ContactPerson,
		Phone:         s.Phone,
		Email:         s.Email,
		Address:       s.Address,
		CreatedAt:     s.CreatedAt.Format("2006-01-02 15:04:05"),
	}
}

// POST /api/supply/suppliers
func CreateSupplierHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier name is required")
		}

		supplier := models.Supplier{
			Name:          body.Name,
			ContactPerson: strings.TrimSpace(body.ContactPerson),
			Phone:         strings.TrimSpace(body.Phone),
			Email:         strings.TrimSpace(body.Email),
			Address:       strings.TrimSpace(body.Address),
		}
		if err := db.Create(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create supplier")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "supplier",
			EntityID:   supplier.ID,
			Action:     models.LogActionCreate,
			Detail:     fmt.Sprintf("Supplier created: %s", supplier.Name),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{"success": true, "supplier": supplierResponse(&supplier)})
	}
}

// GET /api/supply/suppliers
func ListSuppliersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var suppliers []models.Supplier
		if err := db.Order("name ASC").Find(&suppliers).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list suppliers")
		}

		resp := make([]SupplierResponse, 0, len(suppliers))
		for i := range suppliers {
			resp = append(resp, supplierResponse(&suppliers[i]))
		}

		return c.JSON(fiber.Map{"success": true, "suppliers": resp})
	}
}

// GET /api/supply/suppliers/:id
func GetSupplierHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var supplier models.Supplier
		if err := db.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		return c.JSON(fiber.Map{"success": true, "supplier": supplierResponse(&supplier)})
	}
}

// PUT /api/supply/suppliers/:id
// There is intentionally no delete: orders keep referencing suppliers.
func UpdateSupplierHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var supplier models.Supplier
		if err := db.First(&supplier, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Supplier not found")
		}

		var body SupplierRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Supplier name is required")
		}

		supplier.Name = body.Name
		supplier.ContactPerson = strings.TrimSpace(body.ContactPerson)
		supplier.Phone = strings.TrimSpace(body.Phone)
		supplier.Email = strings.TrimSpace(body.Email)
		supplier.Address = strings.TrimSpace(body.Address)
		if err := db.Save(&supplier).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update supplier")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "supplier",
			EntityID:   supplier.ID,
			Action:     models.LogActionUpdate,
			Detail:     fmt.Sprintf("Supplier updated: %s", supplier.Name),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "supplier": supplierResponse(&supplier)})
	}
}
