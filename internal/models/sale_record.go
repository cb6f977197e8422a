package models

import (
	"time"

	"github.com/shopspring/decimal"
)

// SaleRecord is one activation. Raw columns are what the store entered;
// the computed columns are written only by the settlement calculator.
type SaleRecord struct {
	ID             uint   `gorm:"primaryKey"`
	StoreID        uint   `gorm:"index;not null"`
	Store          Store
	SaleDate       string `gorm:"size:10;index;not null"` // YYYY-MM-DD
	CarrierRaw     string `gorm:"size:50"`
	ActivationType string `gorm:"size:20"`

	FaceValue        decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Verbal1          decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Verbal2          decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	GradeAddon       decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	AdditionalAmount decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	PaperCash        decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	SimFee           decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	DiscountNewOrMnp decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	CashReceived     decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	Payback          decimal.Decimal `gorm:"type:numeric(18,4);not null;default:0"`
	TaxRate          decimal.NullDecimal `gorm:"type:numeric(6,4)"` // null -> default rate

	CarrierNormalized string              `gorm:"size:50;index"`
	RebateTotal       decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	SettlementAmount  decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	VAT               decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	PostTaxMargin     decimal.NullDecimal `gorm:"type:numeric(18,4)"`
	ComputedAt        *time.Time

	CreatedBy uint
	CreatedAt time.Time
	UpdatedAt time.Time
}

// HasComputed reports whether every derived column is populated.
func (r *SaleRecord) HasComputed() bool {
	return r.ComputedAt != nil &&
		r.RebateTotal.Valid &&
		r.SettlementAmount.Valid &&
		r.VAT.Valid &&
		r.PostTaxMargin.Valid &&
		r.CarrierNormalized != ""
}
