package model

import (
	"time"

	"gorm.io/datatypes"
)

// OrderItem is one line of an order, stored inside the order row.
type OrderItem struct {
	ProductID uint  `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     Money `json:"price"`
	VatRate   Money `json:"vatRate"`
	VatAmount Money `json:"vatAmount"`
}

// Net is the line amount before VAT.
func (i OrderItem) Net() Money {
	return i.Price.Mul(int64(i.Quantity))
}

// Order is a sale to a contact.
type Order struct {
	ID            uint                          `json:"id" gorm:"primarykey"`
	ContactID     uint                          `json:"contactId" gorm:"index;not null" validate:"required"`
	Contact       *Contact                      `json:"-" gorm:"foreignKey:ContactID;constraint:OnDelete:RESTRICT"`
	OrderDate     time.Time                     `json:"orderDate" gorm:"not null;index"`
	Status        OrderStatus                   `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	NetTotal      Money                         `json:"netTotal" gorm:"type:numeric(12,2);not null"`
	VatTotal      Money                         `json:"vatTotal" gorm:"type:numeric(12,2);not null"`
	GrossTotal    Money                         `json:"grossTotal" gorm:"type:numeric(12,2);not null"`
	Items         datatypes.JSONSlice[OrderItem] `json:"items"`
	InvoiceNumber *string                       `json:"invoiceNumber" gorm:"type:varchar(64);uniqueIndex"`
	Notes         string                        `json:"notes" gorm:"type:text"`
	CreatedAt     time.Time                     `json:"createdAt"`
	UpdatedAt     time.Time                     `json:"updatedAt"`
}

// DeliveryItem is one line of an inbound delivery.
type DeliveryItem struct {
	ProductID uint  `json:"productId"`
	Quantity  int   `json:"quantity"`
	Price     Money `json:"price"`
}

// Delivery is an expected or received shipment from a supplier.
type Delivery struct {
	ID           uint                             `json:"id" gorm:"primarykey"`
	SupplierID   uint                             `json:"supplierId" gorm:"index;not null" validate:"required"`
	Supplier     *Contact                         `json:"-" gorm:"foreignKey:SupplierID;constraint:OnDelete:RESTRICT"`
	ExpectedDate time.Time                        `json:"expectedDate" gorm:"not null"`
	Status       DeliveryStatus                   `json:"status" gorm:"type:varchar(20);not null;default:'pending'"`
	Items        datatypes.JSONSlice[DeliveryItem] `json:"items"`
	Notes        string                           `json:"notes" gorm:"type:text"`
	CreatedAt    time.Time                        `json:"createdAt"`
	UpdatedAt    time.Time                        `json:"updatedAt"`
}
