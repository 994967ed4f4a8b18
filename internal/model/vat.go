package model

import "time"

// VatRate is a VAT percentage with a validity window. A nil ValidTo means
// the rate is open ended.
type VatRate struct {
	ID          uint       `json:"id" gorm:"primarykey"`
	Name        string     `json:"name" gorm:"type:varchar(100);not null" validate:"required,max=100"`
	Rate        Money      `json:"rate" gorm:"type:numeric(5,2);not null"`
	Description string     `json:"description" gorm:"type:text"`
	ValidFrom   time.Time  `json:"validFrom" gorm:"not null;index"`
	ValidTo     *time.Time `json:"validTo" gorm:"index"`
	CreatedAt   time.Time  `json:"createdAt"`
	UpdatedAt   time.Time  `json:"updatedAt"`
}

// ActiveOn reports whether the rate applies on the given date.
func (r *VatRate) ActiveOn(t time.Time) bool {
	if t.Before(r.ValidFrom) {
		return false
	}
	return r.ValidTo == nil || !t.After(*r.ValidTo)
}

// VatTransaction is one VAT-reportable event for an order.
type VatTransaction struct {
	ID              uint      `json:"id" gorm:"primarykey"`
	OrderID         uint      `json:"orderId" gorm:"index;not null" validate:"required"`
	Order           *Order    `json:"-" gorm:"foreignKey:OrderID;constraint:OnDelete:CASCADE"`
	TransactionDate time.Time `json:"transactionDate" gorm:"not null"`
	VatRateID       uint      `json:"vatRateId" gorm:"index;not null" validate:"required"`
	VatRate         *VatRate  `json:"-" gorm:"foreignKey:VatRateID;constraint:OnDelete:RESTRICT"`
	NetAmount       Money     `json:"netAmount" gorm:"type:numeric(12,2);not null"`
	VatAmount       Money     `json:"vatAmount" gorm:"type:numeric(12,2);not null"`
	ReportingPeriod string    `json:"reportingPeriod" gorm:"type:varchar(16);not null;index"`
	Reported        bool      `json:"reported" gorm:"not null;default:false"`
	CreatedAt       time.Time `json:"createdAt"`
	UpdatedAt       time.Time `json:"updatedAt"`
}

// VatReportLine sums the transactions of one period for one rate.
type VatReportLine struct {
	VatRateID    uint   `json:"vatRateId"`
	Transactions int    `json:"transactions"`
	NetAmount    Money  `json:"netAmount"`
	VatAmount    Money  `json:"vatAmount"`
	Reported     int    `json:"reported"`
	RateName     string `json:"rateName"`
}

// VatReport is the VAT summary of one reporting period.
type VatReport struct {
	Period     string          `json:"period"`
	Lines      []VatReportLine `json:"lines"`
	NetTotal   Money           `json:"netTotal"`
	VatTotal   Money           `json:"vatTotal"`
	Unreported int             `json:"unreported"`
}

// PeriodOf returns the monthly reporting period (YYYY-MM) of t.
func PeriodOf(t time.Time) string {
	return t.Format("2006-01")
}
