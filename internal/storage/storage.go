// Package storage is the persistence seam: one capability interface per
// entity, and a GORM implementation of all of them.
package storage

import (
	"context"
	"time"

	"bizdesk-service/internal/model"
)

// UserStore persists accounts.
type UserStore interface {
	CreateUser(ctx context.Context, u *model.User) error
	GetUser(ctx context.Context, id uint) (*model.User, error)
	GetUserByUsername(ctx context.Context, username string) (*model.User, error)
	UpdateUserPassword(ctx context.Context, id uint, hash string) error
}

// VatRateStore persists VAT rates.
type VatRateStore interface {
	ListVatRates(ctx context.Context) ([]model.VatRate, error)
	GetVatRate(ctx context.Context, id uint) (*model.VatRate, error)
	CreateVatRate(ctx context.Context, r *model.VatRate) error
	UpdateVatRate(ctx context.Context, id uint, patch model.Patch) (*model.VatRate, error)
	DeleteVatRate(ctx context.Context, id uint) error
	// ActiveVatRate returns the rate whose window contains date, preferring
	// the latest validFrom when windows overlap.
	ActiveVatRate(ctx context.Context, date time.Time) (*model.VatRate, error)
}

// ProductStore persists products. The batch methods apply to every id or
// to none.
type ProductStore interface {
	ListProducts(ctx context.Context) ([]model.Product, error)
	GetProduct(ctx context.Context, id uint) (*model.Product, error)
	CreateProduct(ctx context.Context, p *model.Product) error
	UpdateProduct(ctx context.Context, id uint, patch model.Patch) (*model.Product, error)
	DeleteProduct(ctx context.Context, id uint) error

	CreateProducts(ctx context.Context, products []model.Product) ([]model.Product, error)
	UpdateProducts(ctx context.Context, ids []uint, patch model.Patch) ([]model.Product, error)
	DeleteProducts(ctx context.Context, ids []uint) error

	ListLowStockProducts(ctx context.Context) ([]model.Product, error)
}

// ContactStore persists customers and suppliers.
type ContactStore interface {
	ListContacts(ctx context.Context) ([]model.Contact, error)
	GetContact(ctx context.Context, id uint) (*model.Contact, error)
	CreateContact(ctx context.Context, c *model.Contact) error
	UpdateContact(ctx context.Context, id uint, patch model.Patch) (*model.Contact, error)
	DeleteContact(ctx context.Context, id uint) error
}

// OrderStore persists orders. Every write also refreshes the aggregates of
// the contacts it touches.
type OrderStore interface {
	ListOrders(ctx context.Context) ([]model.Order, error)
	GetOrder(ctx context.Context, id uint) (*model.Order, error)
	CreateOrder(ctx context.Context, o *model.Order) error
	UpdateOrder(ctx context.Context, id uint, patch model.Patch) (*model.Order, error)
	DeleteOrder(ctx context.Context, id uint) error
}

// DeliveryStore persists inbound deliveries. Moving a delivery into
// received books its items into product stock.
type DeliveryStore interface {
	ListDeliveries(ctx context.Context) ([]model.Delivery, error)
	GetDelivery(ctx context.Context, id uint) (*model.Delivery, error)
	CreateDelivery(ctx context.Context, d *model.Delivery) error
	UpdateDelivery(ctx context.Context, id uint, patch model.Patch) (*model.Delivery, error)
	DeleteDelivery(ctx context.Context, id uint) error
}

// VatTransactionFilter narrows ListVatTransactions. Zero values match all.
type VatTransactionFilter struct {
	Period   string
	Reported *bool
}

// VatTransactionStore persists VAT transactions and reports on them.
type VatTransactionStore interface {
	ListVatTransactions(ctx context.Context, filter VatTransactionFilter) ([]model.VatTransaction, error)
	GetVatTransaction(ctx context.Context, id uint) (*model.VatTransaction, error)
	CreateVatTransaction(ctx context.Context, tx *model.VatTransaction) error
	UpdateVatTransaction(ctx context.Context, id uint, patch model.Patch) (*model.VatTransaction, error)
	DeleteVatTransaction(ctx context.Context, id uint) error

	// MarkVatTransactionsReported flags every unreported transaction of
	// period and returns how many changed.
	MarkVatTransactionsReported(ctx context.Context, period string) (int64, error)
	VatReport(ctx context.Context, period string) (*model.VatReport, error)
}

// Store is everything the handlers need.
type Store interface {
	UserStore
	VatRateStore
	ProductStore
	ContactStore
	OrderStore
	DeliveryStore
	VatTransactionStore

	Ping(ctx context.Context) error
}
