package models

import "time"

type StockCategory struct {
	ID          uint   `gorm:"primaryKey"`
	Name        string `gorm:"size:100;uniqueIndex;not null"`
	Description string `gorm:"size:500"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

type StockItem struct {
	ID          uint `gorm:"primaryKey"`
	CategoryID  uint `gorm:"index;not null"`
	Category    StockCategory
	SKU         string `gorm:"size:50;uniqueIndex;not null"`
	Name        string `gorm:"size:200;not null"`
	Description string `gorm:"size:500"`
	Unit        string `gorm:"size:20;not null"` // pcs, box, kg, ...
	Quantity    int    `gorm:"not null;default:0"`
	MinQuantity int    `gorm:"not null;default:0"` // reorder threshold
	Active      bool   `gorm:"not null;default:true"`
	CreatedAt   time.Time
	UpdatedAt   time.Time
}

// LowStock reports whether the item is at or below its reorder threshold.
func (s *StockItem) LowStock() bool {
	return s.Quantity <= s.MinQuantity
}
