package activity

import (
	"fmt"
	"time"

	"stockroom-backend/internal/models"

	"github.com/gofiber/fiber/v2"
	"gorm.io/gorm"
)

type LogResponse struct {
	ID         uint             `json:"id"`
	CreatedAt  string           `json:"created_at"`
	UserID     uint             `json:"user_id"`
	Username   string           `json:"username"`
	EntityType string           `json:"entity_type"`
	EntityID   uint             `json:"entity_id"`
	Action     models.LogAction `json:"action"`
	Detail     string           `json:"detail"`
}

// GET /api/activity-logs?user_id=&entity_type=&action=&from=&to=&limit=
func ListHandler(db *gorm.DB) fiber.Handler {
	return func(c *fiber.Ctx) error {
		dbq := db.Model(&models.ActivityLog{})

		if uidStr := c.Query("user_id"); uidStr != "" {
			var uid uint
			if _, err := fmt.Sscan(uidStr, &uid); err == nil && uid > 0 {
				dbq = dbq.Where("user_id = ?", uid)
			}
		}
		if et := c.Query("entity_type"); et != "" {
			dbq = dbq.Where("entity_type = ?", et)
		}
		if action := c.Query("action"); action != "" {
			dbq = dbq.Where("action = ?", action)
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

		limit := c.QueryInt("limit", 100)
		if limit <= 0 || limit > 1000 {
			limit = 100
		}

		var logs []models.ActivityLog
		if err := dbq.Order("created_at DESC, id DESC").Limit(limit).Find(&logs).Error; err != nil {
			return fiber.NewError(fiber.StatusInternalServerError, "Could not list activity logs")
		}

		resp := make([]LogResponse, 0, len(logs))
		for _, l := range logs {
			resp = append(resp, LogResponse{
				ID:         l.ID,
				CreatedAt:  l.CreatedAt.Format("2006-01-02 15:04:05"),
				UserID:     l.UserID,
				Username:   l.Username,
				EntityType: l.EntityType,
				EntityID:   l.EntityID,
				Action:     l.Action,
				Detail:     l.Detail,
			})
		}

		return c.JSON(fiber.Map{"success": true, "logs": resp})
	}
}
