package sales

import (
	"time"

	"telecom-erp-backend/internal/models"

	"github.com/shopspring/decimal"
)

type SaleResponse struct {
	ID                uint   `json:"id"`
	StoreID           uint   `json:"store_id"`
	SaleDate          string `json:"sale_date"`
	CarrierRaw        string `json:"carrier_raw"`
	CarrierNormalized string `json:"carrier"`
	ActivationType    string `json:"activation_type"`

	FaceValue        decimal.Decimal  `json:"face_value"`
	Verbal1          decimal.Decimal  `json:"verbal1"`
	Verbal2          decimal.Decimal  `json:"verbal2"`
	GradeAddon       decimal.Decimal  `json:"grade_addon"`
	AdditionalAmount decimal.Decimal  `json:"additional_amount"`
	PaperCash        decimal.Decimal  `json:"paper_cash"`
	SimFee           decimal.Decimal  `json:"sim_fee"`
	DiscountNewOrMnp decimal.Decimal  `json:"discount_new_or_mnp"`
	CashReceived     decimal.Decimal  `json:"cash_received"`
	Payback          decimal.Decimal  `json:"payback"`
	TaxRate          *decimal.Decimal `json:"tax_rate"`

	RebateTotal      *decimal.Decimal `json:"rebate_total"`
	SettlementAmount *decimal.Decimal `json:"settlement_amount"`
	VAT              *decimal.Decimal `json:"vat"`
	PostTaxMargin    *decimal.Decimal `json:"post_tax_margin"`
	ComputedAt       *time.Time       `json:"computed_at"`
	CreatedBy        uint             `json:"created_by"`
}

func nullable(d decimal.NullDecimal) *decimal.Decimal {
	if !d.Valid {
		return nil
	}
	v := d.Decimal
	return &v
}

func saleResponse(m *models.SaleRecord) SaleResponse {
	return SaleResponse{
		ID:                m.ID,
		StoreID:           m.StoreID,
		SaleDate:          m.SaleDate,
		CarrierRaw:        m.CarrierRaw,
		CarrierNormalized: m.CarrierNormalized,
		ActivationType:    m.ActivationType,
		FaceValue:         m.FaceValue,
		Verbal1:           m.Verbal1,
		Verbal2:           m.Verbal2,
		GradeAddon:        m.GradeAddon,
		AdditionalAmount:  m.AdditionalAmount,
		PaperCash:         m.PaperCash,
		SimFee:            m.SimFee,
		DiscountNewOrMnp:  m.DiscountNewOrMnp,
		CashReceived:      m.CashReceived,
		Payback:           m.Payback,
		TaxRate:           nullable(m.TaxRate),
		RebateTotal:       nullable(m.RebateTotal),
		SettlementAmount:  nullable(m.SettlementAmount),
		VAT:               nullable(m.VAT),
		PostTaxMargin:     nullable(m.PostTaxMargin),
		ComputedAt:        m.ComputedAt,
		CreatedBy:         m.CreatedBy,
	}
}
