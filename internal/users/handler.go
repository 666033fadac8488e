package users

import (
	"fmt"
	"strings"

	"stockroom-backend/internal/activity"
	"stockroom-backend/internal/auth"
	"stockroom-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"golang.org/x/crypto/bcrypt"
	"gorm.io/gorm"
)

type CreateUserRequest struct {
	Username string `json:"username"`
	FullName string `json:"full_name"`
	Password string `json:"password"`
}

type SetActiveRequest struct {
	Active bool `json:"active"`
}

type ResetPasswordRequest struct {
	NewPassword string `json:"new_password"`
}

type UserResponse struct {
	ID        uint            `json:"id"`
	Username  string          `json:"username"`
	FullName  string          `json:"full_name"`
	Role      models.UserRole `json:"role"`
	Active    bool            `json:"active"`
	CreatedAt string          `json:"created_at"`
}

// requireActiveAdmin re-checks the caller against the database. A token
// issued before an account was deactivated must not keep working.
func requireActiveAdmin(db *gorm.DB, c *fiber.Ctx) (*models.User, error) {
	userID, _, _, err := auth.CurrentUser(c)
	if err != nil {
		return nil, err
	}

	var caller models.User
	if err := db.First(&caller, userID).Error; err != nil {
		return nil, fiber.NewError(fiber.StatusForbidden, "Caller account not found")
	}
	if !caller.Active || caller.Role != models.RoleAdmin {
		return nil, fiber.NewError(fiber.StatusForbidden, "You are not authorized for this operation")
	}
	return &caller, nil
}

// GET /api/users
func ListUsersHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		if _, err := requireActiveAdmin(db, c); err != nil {
			return err
		}

		var users []models.User
		if err := db.Order("username ASC").Find(&users).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list users")
		}

		resp := make([]UserResponse, 0, len(users))
		for _, u := range users {
			resp = append(resp, UserResponse{
				ID:        u.ID,
				Username:  u.Username,
				FullName:  u.FullName,
				Role:      u.Role,
				Active:    u.Active,
				CreatedAt: u.CreatedAt.Format("2006-01-02 15:04:05"),
			})
		}

		return c.JSON(fiber.Map{"success": true, "users": resp})
	}
}

// POST /api/users
// Creates a secretary account. Admin accounts exist only through seeding.
func CreateUserHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := requireActiveAdmin(db, c)
		if err != nil {
			return err
		}

		var body CreateUserRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		body.Username = strings.TrimSpace(body.Username)
		if body.Username == "" || body.Password == "" {
			return fiber.NewError(fiber.StatusBadRequest, "Username and password are required")
		}
		if len(body.Password) < 6 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 6 characters")
		}

		var count int64
		db.Model(&models.User{}).Where("username = ?", body.Username).Count(&count)
		if count > 0 {
			return fiber.NewError(fiber.StatusBadRequest, "Username already exists")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.Password), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		user := models.User{
			Username:     body.Username,
			FullName:     strings.TrimSpace(body.FullName),
			PasswordHash: string(hash),
			Role:         models.RoleSecretary,
			Active:       true,
		}
		if err := db.Create(&user).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not create user")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     caller.ID,
			Username:   caller.Username,
			EntityType: "user",
			EntityID:   user.ID,
			Action:     models.LogActionCreate,
			Detail:     fmt.Sprintf("Secretary account created: %s", user.Username),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.Status(fiber.StatusCreated).JSON(fiber.Map{
			"success": true,
			"user": UserResponse{
				ID:        user.ID,
				Username:  user.Username,
				FullName:  user.FullName,
				Role:      user.Role,
				Active:    user.Active,
				CreatedAt: user.CreatedAt.Format("2006-01-02 15:04:05"),
			},
		})
	}
}

// PUT /api/users/:id/active
func SetActiveHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := requireActiveAdmin(db, c)
		if err != nil {
			return err
		}

		var body SetActiveRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}

		var target models.User
		if err := db.First(&target, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		// An admin cannot lock themselves out.
		if target.ID == caller.ID && !body.Active {
			return fiber.NewError(fiber.StatusBadRequest, "You cannot deactivate your own account")
		}

		if err := db.Model(&target).Update("active", body.Active).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update user")
		}

		verb := "deactivated"
		if body.Active {
			verb = "reactivated"
		}
		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     caller.ID,
			Username:   caller.Username,
			EntityType: "user",
			EntityID:   target.ID,
			Action:     models.LogActionUpdate,
			Detail:     fmt.Sprintf("Account %s %s", target.Username, verb),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "message": fmt.Sprintf("Account %s", verb)})
	}
}

// PUT /api/users/:id/password
func ResetPasswordHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		caller, err := requireActiveAdmin(db, c)
		if err != nil {
			return err
		}

		var body ResetPasswordRequest
		if err := c.BodyParser(&body); err != nil {
			return fiber.NewError(fiber.StatusBadRequest, "Invalid request body")
		}
		if len(body.NewPassword) < 6 {
			return fiber.NewError(fiber.StatusBadRequest, "Password must be at least 6 characters")
		}

		var target models.User
		if err := db.First(&target, "id = ?", c.Params("id")).Error; err != nil {
			return fiber.NewError(fiber.StatusNotFound, "User not found")
		}

		hash, err := bcrypt.GenerateFromPassword([]byte(body.NewPassword), bcrypt.DefaultCost)
		if err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not hash password")
		}

		if err := db.Model(&target).Update("password_hash", string(hash)).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not update password")
		}

		if logErr := activity.WriteLog(db, activity.Entry{
			UserID:     caller.ID,
			Username:   caller.Username,
			EntityType: "user",
			EntityID:   target.ID,
			Action:     models.LogActionUpdate,
			Detail:     fmt.Sprintf("Password reset for %s", target.Username),
		}); logErr != nil {
			fmt.Printf("Could not write activity log: %v\n", logErr)
		}

		return c.JSON(fiber.Map{"success": true, "message": "Password reset"})
	}
}
