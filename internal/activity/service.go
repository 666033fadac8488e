package activity

import (
	"fmt"

	"stockroom-backend/internal/models"

	"gorm.io/gorm"
)

type Entry struct {
	UserID     uint
	Username   string
	EntityType string
	EntityID   uint
	Action     models.LogAction
	Detail     string
}

// WriteLog appends a row to the activity log. Pass a transaction handle
// when the log row must commit or roll back together with the mutation it
// records.
func WriteLog(db *gorm.DB, e Entry) error {
	row := models.ActivityLog{
		UserID:     e.UserID,
		Username:   e.Username,
		EntityType: e.EntityType,
		EntityID:   e.EntityID,
		Action:     e.Action,
		Detail:     e.Detail,
	}

	if err := db.Create(&row).Error; err != nil {
		return fmt.Errorf("write activity log: %w", err)
	}
	return nil
}
