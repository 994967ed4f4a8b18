package model

import "time"

// Contact is a customer or supplier. TotalOrders, TotalSpent and
// LastOrderDate are maintained by the order writes, never by clients.
type Contact struct {
	ID            uint        `json:"id" gorm:"primarykey"`
	Name          string      `json:"name" gorm:"type:varchar(255);not null" validate:"required,max=255"`
	Type          ContactType `json:"type" gorm:"type:varchar(20);not null;index" validate:"required,oneof=customer supplier"`
	Email         string      `json:"email" gorm:"type:varchar(255)" validate:"omitempty,email,max=255"`
	Phone         string      `json:"phone" gorm:"type:varchar(50)" validate:"max=50"`
	Address       string      `json:"address" gorm:"type:text"`
	TaxNumber     string      `json:"taxNumber" gorm:"type:varchar(50)" validate:"max=50"`
	Notes         string      `json:"notes" gorm:"type:text"`
	Rating        int         `json:"rating" gorm:"not null;default:0" validate:"gte=0,lte=5"`
	TotalOrders   int         `json:"totalOrders" gorm:"not null;default:0"`
	TotalSpent    Money       `json:"totalSpent" gorm:"type:numeric(14,2);not null;default:0"`
	LastOrderDate *time.Time  `json:"lastOrderDate"`
	CreatedAt     time.Time   `json:"createdAt"`
	UpdatedAt     time.Time   `json:"updatedAt"`
}

// User is an account able to open sessions.
type User struct {
	ID        uint      `json:"id" gorm:"primaryKey"`
	Username  string    `json:"username" gorm:"type:varchar(64);uniqueIndex;not null" validate:"required,min=3,max=64"`
	Password  string    `json:"-" gorm:"type:varchar(255);not null"`
	CreatedAt time.Time `json:"createdAt"`
	UpdatedAt time.Time `json:"updatedAt"`
}

// Session is the server-held record behind a session cookie.
type Session struct {
	Token     string    `json:"-" gorm:"primaryKey;type:varchar(64)"`
	UserID    uint      `json:"userId" gorm:"index;not null"`
	ExpiresAt time.Time `json:"expiresAt" gorm:"index;not null"`
	CreatedAt time.Time `json:"createdAt"`
}

// Expired reports whether the session is no longer valid at now.
func (s *Session) Expired(now time.Time) bool {
	return !now.Before(s.ExpiresAt)
}

// All lists every persisted model in dependency order, for migrations.
func All() []any {
	return []any{
		&User{}, &Session{}, &VatRate{}, &Product{}, &Contact{},
		&Order{}, &VatTransaction{}, &Delivery{},
	}
}
