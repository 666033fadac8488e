package models

import "time"

type OrderStatus string

const (
	OrderPending   OrderStatus = "pending"
	OrderApproved  OrderStatus = "approved"
	OrderReceived  OrderStatus = "received"
	OrderCancelled OrderStatus = "cancelled"
)

type PurchaseOrder struct {
	ID           uint   `gorm:"primaryKey"`
	OrderNumber  string `gorm:"size:30;uniqueIndex;not null"`
	SupplierID   uint   `gorm:"index;not null"`
	Supplier     Supplier
	Status       OrderStatus `gorm:"size:20;not null;default:'pending'"`
	CreatedByID  uint        `gorm:"not null"`
	CreatedBy    User        `gorm:"foreignKey:CreatedByID"`
	ApprovedByID *uint
	TotalAmount  float64 `gorm:"not null;default:0"`
	Note         string  `gorm:"size:500"`
	CreatedAt    time.Time
	UpdatedAt    time.Time

	Items []PurchaseOrderItem `gorm:"foreignKey:PurchaseOrderID;constraint:OnDelete:CASCADE"`
}

// Terminal reports whether no further status transition is permitted.
func (o *PurchaseOrder) Terminal() bool {
	return o.Status == OrderReceived || o.Status == OrderCancelled
}

type PurchaseOrderItem struct {
	ID              uint `gorm:"primaryKey"`
	PurchaseOrderID uint `gorm:"index;not null"`
	StockItemID     uint `gorm:"index;not null"`
	StockItem       StockItem
	Quantity        int     `gorm:"not null"`
	UnitPrice       float64 `gorm:"not null"`
	TotalPrice      float64 `gorm:"not null"` // Quantity * UnitPrice
	CreatedAt       time.Time
	UpdatedAt       time.Time
}
