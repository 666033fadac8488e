package models

import "time"

type TransactionType string

const (
	TransactionIssuance   TransactionType = "issuance"
	TransactionReturn     TransactionType = "return"
	TransactionAdjustment TransactionType = "adjustment"
)

type TransactionStatus string

const (
	TransactionPending   TransactionStatus = "pending"
	TransactionApproved  TransactionStatus = "approved"
	TransactionCancelled TransactionStatus = "cancelled"
)

// StockTransaction records stock leaving (issuance), coming back (return)
// or being corrected (adjustment). Stock quantities only move when a
// pending transaction is approved.
type StockTransaction struct {
	ID              uint              `gorm:"primaryKey"`
	ReferenceNumber string            `gorm:"size:30;uniqueIndex;not null"`
	Type            TransactionType   `gorm:"size:20;not null"`
	Status          TransactionStatus `gorm:"size:20;not null;default:'pending'"`
	CreatedByID     uint              `gorm:"not null"`
	CreatedBy       User              `gorm:"foreignKey:CreatedByID"`
	ApprovedByID    *uint
	Note            string `gorm:"size:500"`
	CreatedAt       time.Time
	UpdatedAt       time.Time

	Items []TransactionItem `gorm:"foreignKey:StockTransactionID;constraint:OnDelete:CASCADE"`
}

func (t *StockTransaction) Terminal() bool {
	return t.Status == TransactionApproved || t.Status == TransactionCancelled
}

type TransactionItem struct {
	ID                 uint `gorm:"primaryKey"`
	StockTransactionID uint `gorm:"index;not null"`
	StockItemID        uint `gorm:"index;not null"`
	StockItem          StockItem
	Quantity           int     `gorm:"not null"`
	UnitPrice          float64 `gorm:"not null;default:0"`
	TotalPrice         float64 `gorm:"not null;default:0"`
	CreatedAt          time.Time
	UpdatedAt          time.Time
}
