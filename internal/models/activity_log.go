package models

import "time"

type LogAction string

const (
	LogActionCreate  LogAction = "create"
	LogActionUpdate  LogAction = "update"
	LogActionDelete  LogAction = "delete"
	LogActionLogin   LogAction = "login"
	LogActionApprove LogAction = "approve"
	LogActionReceive LogAction = "receive"
	LogActionCancel  LogAction = "cancel"
	LogActionAdjust  LogAction = "adjust"
)

// ActivityLog is the append-only audit trail. Rows are never updated or
// deleted.
type ActivityLog struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	UserID   uint   `gorm:"index;not null"`
	Username string `gorm:"size:100"` // denormalized for display

	EntityType string    `gorm:"size:50;index"`
	EntityID   uint      `gorm:"index"`
	Action     LogAction `gorm:"size:20"`
	Detail     string    `gorm:"size:500"`
}
