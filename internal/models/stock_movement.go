package models

import "time"

type MovementRef string

const (
	MovementRefOrder       MovementRef = "purchase_order"
	MovementRefTransaction MovementRef = "transaction"
	MovementRefManual      MovementRef = "manual"
)

// StockMovement is the structured ledger of every quantity change. A row
// is written in the same database transaction as the quantity update, so
// the ledger and the stock column can never disagree.
type StockMovement struct {
	ID        uint      `gorm:"primaryKey"`
	CreatedAt time.Time `gorm:"index"`

	StockItemID    uint `gorm:"index;not null"`
	StockItem      StockItem
	Delta          int    `gorm:"not null"` // signed, negative for issuance
	QuantityBefore int    `gorm:"not null"`
	QuantityAfter  int    `gorm:"not null"`
	Reason         string `gorm:"size:255"`

	RefType MovementRef `gorm:"size:30;index"`
	RefID   uint        `gorm:"index"` // order/transaction id, 0 for manual

	UserID uint `gorm:"not null"`
}
