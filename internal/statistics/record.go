package statistics

import (
	"time"

	"telecom-erp-backend/internal/models"
	"telecom-erp-backend/internal/settlement"

	"github.com/shopspring/decimal"
)

// Record is one sale as the aggregator sees it. Computed is nil when the
// derived values have never been stored; the aggregator then derives them
// from Raw.
type Record struct {
	ID       uint
	StoreID  uint
	Raw      settlement.Raw
	Computed *settlement.Computed
}

// RawFromModel rebuilds the raw entry of a stored sale.
func RawFromModel(m *models.SaleRecord) settlement.Raw {
	raw := settlement.Raw{
		SaleDate:         m.SaleDate,
		Carrier:          m.CarrierRaw,
		ActivationType:   m.ActivationType,
		FaceValue:        settlement.FieldOf(m.FaceValue),
		Verbal1:          settlement.FieldOf(m.Verbal1),
		Verbal2:          settlement.FieldOf(m.Verbal2),
		GradeAddon:       settlement.FieldOf(m.GradeAddon),
		AdditionalAmount: settlement.FieldOf(m.AdditionalAmount),
		PaperCash:        settlement.FieldOf(m.PaperCash),
		SimFee:           settlement.FieldOf(m.SimFee),
		DiscountNewOrMnp: settlement.FieldOf(m.DiscountNewOrMnp),
		CashReceived:     settlement.FieldOf(m.CashReceived),
		Payback:          settlement.FieldOf(m.Payback),
	}
	if m.TaxRate.Valid {
		raw.TaxRate = settlement.FieldOf(m.TaxRate.Decimal)
	}
	return raw
}

// FromModel converts a stored sale. Stored derived values are used only
// when all of them are present and the stored date and activation type
// still parse; otherwise the record is derived again from its raw columns.
func FromModel(m *models.SaleRecord) Record {
	rec := Record{ID: m.ID, StoreID: m.StoreID, Raw: RawFromModel(m)}
	if !m.HasComputed() {
		return rec
	}
	date, err := settlement.ParseSaleDate(m.SaleDate)
	if err != nil {
		return rec
	}
	activation, err := settlement.ParseActivationType(m.ActivationType)
	if err != nil {
		return rec
	}

	taxRate := settlement.DefaultTaxRate
	if m.TaxRate.Valid {
		taxRate = m.TaxRate.Decimal
	}
	rec.Computed = &settlement.Computed{
		SaleDate:          date,
		CarrierRaw:        m.CarrierRaw,
		CarrierNormalized: m.CarrierNormalized,
		ActivationType:    activation,
		Inputs: settlement.Inputs{
			FaceValue:        m.FaceValue,
			Verbal1:          m.Verbal1,
			Verbal2:          m.Verbal2,
			GradeAddon:       m.GradeAddon,
			AdditionalAmount: m.AdditionalAmount,
			PaperCash:        m.PaperCash,
			SimFee:           m.SimFee,
			DiscountNewOrMnp: m.DiscountNewOrMnp,
			CashReceived:     m.CashReceived,
			Payback:          m.Payback,
			TaxRate:          taxRate,
		},
		RebateTotal:      m.RebateTotal.Decimal,
		SettlementAmount: m.SettlementAmount.Decimal,
		VAT:              m.VAT.Decimal,
		PostTaxMargin:    m.PostTaxMargin.Decimal,
	}
	return rec
}

// FromModels converts a slice of stored sales.
func FromModels(ms []models.SaleRecord) []Record {
	out := make([]Record, 0, len(ms))
	for i := range ms {
		out = append(out, FromModel(&ms[i]))
	}
	return out
}

// ApplyComputed writes a breakdown into the derived columns of m and
// stamps it with at.
func ApplyComputed(m *models.SaleRecord, c settlement.Computed, at time.Time) {
	m.CarrierNormalized = c.CarrierNormalized
	m.ActivationType = string(c.ActivationType)
	m.RebateTotal = decimal.NewNullDecimal(c.RebateTotal)
	m.SettlementAmount = decimal.NewNullDecimal(c.SettlementAmount)
	m.VAT = decimal.NewNullDecimal(c.VAT)
	m.PostTaxMargin = decimal.NewNullDecimal(c.PostTaxMargin)
	m.ComputedAt = &at
}
