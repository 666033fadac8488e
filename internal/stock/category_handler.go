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

type CategoryRequest struct {
	Name        string `json:"name"`
	Description string `json:"description"`
}

type CategoryResponse struct {
	ID          uint   `json:"id"`
	Name        string `json:"name"`
	Description string `json:"description"`
	ItemCount   int64  `json:"item_count"`
	CreatedAt   string `json:"created_at"`
}

// POST /api/stock/categories
func CreateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Category name is required")
		}

		var count int64
		db.Model(&models.StockCategory{}).Where("name = ?", body.Name).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Category name already exists")
		}

		category := models.StockCategory{
			Name:        body.Name,
			Description: strings.TrimSpace(body.Description),
		}
		if err := db.Create(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create category")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "stock_category",
			EntityID:   category.ID,
			Action:     models.LogActionCreate,
			Detail:     fmt.Sprintf("Category created: %s", category.Name),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"category": CategoryResponse{
				ID:          category.ID,
				Name:        category.Name,
				Description: category.Description,
				CreatedAt:   category.CreatedAt.Format("2006-01-02 15:04:05"),
			},
		})
	}
}

// GET /api/stock/categories
func ListCategoriesHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		var categories []models.StockCategory
		if err := db.Order("name ASC").Find(&categories).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list categories")
		}

		resp := make([]CategoryResponse, 0, len(categories))
		for _, cat := range categories {
			var itemCount int64
			db.Model(&models.StockItem{}).Where("category_id = ?", cat.ID).Count(&itemCount)

			resp = append(resp, CategoryResponse{
				ID:          cat.ID,
				Name:        cat.Name,
				Description: cat.Description,
				ItemCount:   itemCount,
				CreatedAt:   cat.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(fiber.Map{"success": true, "categories": resp})
	}
}

// PUT /api/stock/categories/:id
func UpdateCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var category models.StockCategory
		if err := db.First(&category, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}

		var body CategoryRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Name = strings.TrimSpace(body.Name)
		if body.Name == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Category name is required")
		}

		var count int64
		db.Model(&models.StockCategory{}).
			Where("name = ? AND id != ?", body.Name, category.ID).
			Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Category name already exists")
		}

		category.Name = body.Name
		category.Description = strings.TrimSpace(body.Description)
		if err := db.Save(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update category")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "stock_category",
			EntityID:   category.ID,
			Action:     models.LogActionUpdate,
			Detail:     fmt.Sprintf("Category updated: %s", category.Name),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "message": "Category updated"})
	}
}

// DELETE /api/stock/categories/:id
// Refused while any stock item still references the category.
func DeleteCategoryHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		userID, username, _, err := auth.CurrentUser(c)
		if err != nil {
			return err
		}

		var category models.StockCategory
		if err := db.First(&category, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "Category not found")
		}

		var itemCount int64
		db.Model(&models.StockItem{}).Where("category_id = ?", category.ID).Count(&itemCount)
		if itemCount > 0 {
			return fiber.NewError(fiber.StatusConflict,
				fmt.Sprintf("Category has %d items and cannot be deleted", itemCount))
		}

		if err := db.Delete(&category).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not delete category")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     userID,
			Username:   username,
			EntityType: "stock_category",
			EntityID:   category.ID,
			Action:     models.LogActionDelete,
			Detail:     fmt.Sprintf("Category deleted: %s", category.Name),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "message": "Category deleted"})
	}
}
