package model

import (
	"time"

	"gorm.io/gorm"
)

// Product represents a stocked item
type Product struct {
	ID            uint      `json:"id" gorm:"primarykey"`
	Name          string    `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	SKU           string    `json:"sku" gorm:"type:varchar(100);uniqueIndex;not null" validate:"required,max=100"`
	Description   string    `json:"description" gorm:"type:text"`
	Price         Money     `json:"price" gorm:"type:numeric(12,2);not null"`
	VatRateID     uint      `json:"vatRateId" gorm:"index;not null" validate:"required"`
	VatRate       *VatRate  `json:"-" gorm:"foreignKey:VatRateID;constraint:OnDelete:RESTRICT"`
	StockLevel    int       `json:"stockLevel" gorm:"not null;default:0" validate:"gte=0"`
	MinStockLevel int       `json:"minStockLevel" gorm:"not null;default:0" validate:"gte=0"`
	Unit          string    `json:"unit" gorm:"type:varchar(32);not null;default:'pcs'" validate:"max=32"`
	LowStock      bool      `json:"lowStock" gorm:"-"`
	CreatedAt     time.Time `json:"createdAt"`
	UpdatedAt     time.Time `json:"updatedAt"`
}

// IsLowStock reports whether stock has fallen to or below the minimum.
func (p *Product) IsLowStock() bool {
	return p.StockLevel <= p.MinStockLevel
}

func (p *Product) AfterFind(tx *gorm.DB) error {
	p.LowStock = p.IsLowStock()
	return nil
}

func (p *Product) AfterSave(tx *gorm.DB) error {
	p.LowStock = p.IsLowStock()
	return nil
}
