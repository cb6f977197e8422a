// Package settlement turns a raw activation entry into its settlement
// breakdown. All arithmetic is decimal; the same raw input always yields
// the same derived values.
package settlement

import (
	"strings"
	"time"

	"github.com/shopspring/decimal"
)

const DateLayout = "2006-01-02"

// DefaultTaxRate is 13.3% expressed as a fraction.
var DefaultTaxRate = decimal.RequireFromString("0.133")

// Raw is a sale entry as supplied by the store.
type Raw struct {
	SaleDate         string `json:"sale_date"`
	Carrier          string `json:"carrier"`
	ActivationType   string `json:"activation_type"`
	FaceValue        Field  `json:"face_value"`
	Verbal1          Field  `json:"verbal1"`
	Verbal2          Field  `json:"verbal2"`
	GradeAddon       Field  `json:"grade_addon"`
	AdditionalAmount Field  `json:"additional_amount"`
	PaperCash        Field  `json:"paper_cash"`
	SimFee           Field  `json:"sim_fee"`
	DiscountNewOrMnp Field  `json:"discount_new_or_mnp"`
	CashReceived     Field  `json:"cash_received"`
	Payback          Field  `json:"payback"`
	TaxRate          Field  `json:"tax_rate"`
}

// Inputs holds the validated numeric inputs.
type Inputs struct {
	FaceValue        decimal.Decimal
	Verbal1          decimal.Decimal
	Verbal2          decimal.Decimal
	GradeAddon       decimal.Decimal
	AdditionalAmount decimal.Decimal
	PaperCash        decimal.Decimal
	SimFee           decimal.Decimal
	DiscountNewOrMnp decimal.Decimal
	CashReceived     decimal.Decimal
	Payback          decimal.Decimal
	TaxRate          decimal.Decimal
}

// Computed is the full breakdown of one sale.
type Computed struct {
	SaleDate          time.Time
	CarrierRaw        string
	CarrierNormalized string
	ActivationType    ActivationType
	Inputs            Inputs

	RebateTotal      decimal.Decimal
	SettlementAmount decimal.Decimal
	VAT              decimal.Decimal
	PostTaxMargin    decimal.Decimal
}

// Raw rebuilds the raw entry the breakdown was computed from. Computing it
// again yields an identical Computed.
func (c Computed) Raw() Raw {
	return Raw{
		SaleDate:         c.SaleDate.Format(DateLayout),
		Carrier:          c.CarrierRaw,
		ActivationType:   string(c.ActivationType),
		FaceValue:        FieldOf(c.Inputs.FaceValue),
		Verbal1:          FieldOf(c.Inputs.Verbal1),
		Verbal2:          FieldOf(c.Inputs.Verbal2),
		GradeAddon:       FieldOf(c.Inputs.GradeAddon),
		AdditionalAmount: FieldOf(c.Inputs.AdditionalAmount),
		PaperCash:        FieldOf(c.Inputs.PaperCash),
		SimFee:           FieldOf(c.Inputs.SimFee),
		DiscountNewOrMnp: FieldOf(c.Inputs.DiscountNewOrMnp),
		CashReceived:     FieldOf(c.Inputs.CashReceived),
		Payback:          FieldOf(c.Inputs.Payback),
		TaxRate:          FieldOf(c.Inputs.TaxRate),
	}
}

// Equal compares every derived value exactly.
func (c Computed) Equal(o Computed) bool {
	return c.SaleDate.Equal(o.SaleDate) &&
		c.CarrierNormalized == o.CarrierNormalized &&
		c.ActivationType == o.ActivationType &&
		c.RebateTotal.Equal(o.RebateTotal) &&
		c.SettlementAmount.Equal(o.SettlementAmount) &&
		c.VAT.Equal(o.VAT) &&
		c.PostTaxMargin.Equal(o.PostTaxMargin)
}

// VATIncluded is settlement plus VAT.
func (c Computed) VATIncluded() decimal.Decimal {
	return c.SettlementAmount.Add(c.VAT)
}

type Calculator struct {
	defaultTaxRate decimal.Decimal
	vatPlaces      int32
}

type Option func(*Calculator)

// WithDefaultTaxRate sets the rate used when an entry carries none.
func WithDefaultTaxRate(rate decimal.Decimal) Option {
	return func(c *Calculator) {
		c.defaultTaxRate = rate
	}
}

// WithVATPlaces sets how many decimal places VAT is rounded to
// (half away from zero). Won has no minor unit, so the default is 0.
func WithVATPlaces(places int32) Option {
	return func(c *Calculator) {
		c.vatPlaces = places
	}
}

func New(opts ...Option) *Calculator {
	c := &Calculator{
		defaultTaxRate: DefaultTaxRate,
	}
	for _, opt := range opts {
		opt(c)
	}
	return c
}

var defaultCalculator = New()

// Compute runs the breakdown with the default calculator.
func Compute(raw Raw) (Computed, error) {
	return defaultCalculator.Compute(raw)
}

// Compute validates raw and derives the breakdown. Nothing is returned
// for a record that fails validation.
func (c *Calculator) Compute(raw Raw) (Computed, error) {
	date, err := ParseSaleDate(raw.SaleDate)
	if err != nil {
		return Computed{}, err
	}

	if strings.TrimSpace(raw.Carrier) == "" {
		return Computed{}, &InvalidFieldError{Field: "carrier", Reason: "required"}
	}
	activation, err := ParseActivationType(raw.ActivationType)
	if err != nil {
		return Computed{}, err
	}

	in, err := c.parseInputs(raw)
	if err != nil {
		return Computed{}, err
	}

	rebate := in.FaceValue.
		Add(in.Verbal1).
		Add(in.Verbal2).
		Add(in.GradeAddon).
		Add(in.AdditionalAmount)
	settlementAmount := rebate.
		Sub(in.PaperCash).
		Add(in.SimFee).
		Add(in.DiscountNewOrMnp)
	vat := settlementAmount.Mul(in.TaxRate).Round(c.vatPlaces)
	margin := settlementAmount.
		Sub(vat).
		Add(in.CashReceived).
		Add(in.Payback)

	return Computed{
		SaleDate:          date,
		CarrierRaw:        raw.Carrier,
		CarrierNormalized: NormalizeCarrier(raw.Carrier),
		ActivationType:    activation,
		Inputs:            in,
		RebateTotal:       rebate,
		SettlementAmount:  settlementAmount,
		VAT:               vat,
		PostTaxMargin:     margin,
	}, nil
}

func (c *Calculator) parseInputs(raw Raw) (Inputs, error) {
	var in Inputs
	fields := []struct {
		name        string
		value       Field
		nonNegative bool
		dst         *decimal.Decimal
	}{
		{"face_value", raw.FaceValue, true, &in.FaceValue},
		{"verbal1", raw.Verbal1, false, &in.Verbal1},
		{"verbal2", raw.Verbal2, false, &in.Verbal2},
		{"grade_addon", raw.GradeAddon, false, &in.GradeAddon},
		{"additional_amount", raw.AdditionalAmount, false, &in.AdditionalAmount},
		{"paper_cash", raw.PaperCash, true, &in.PaperCash},
		{"sim_fee", raw.SimFee, true, &in.SimFee},
		{"discount_new_or_mnp", raw.DiscountNewOrMnp, false, &in.DiscountNewOrMnp},
		{"cash_received", raw.CashReceived, true, &in.CashReceived},
		{"payback", raw.Payback, false, &in.Payback},
	}
	for _, f := range fields {
		d, err := f.value.parse(f.name, f.nonNegative)
		if err != nil {
			return Inputs{}, err
		}
		*f.dst = d
	}

	rate, err := c.taxRate(raw.TaxRate)
	if err != nil {
		return Inputs{}, err
	}
	in.TaxRate = rate
	return in, nil
}

func (c *Calculator) taxRate(f Field) (decimal.Decimal, error) {
	if f.IsMissing() {
		return c.defaultTaxRate, nil
	}
	rate, err := decimal.NewFromString(strings.TrimSpace(string(f)))
	if err != nil {
		return decimal.Zero, &InvalidTaxRateError{Value: string(f)}
	}
	if err := ValidateTaxRate(rate); err != nil {
		return decimal.Zero, &InvalidTaxRateError{Value: string(f)}
	}
	return rate, nil
}

// ValidateTaxRate checks rate lies in [0, 1].
func ValidateTaxRate(rate decimal.Decimal) error {
	if rate.IsNegative() || rate.GreaterThan(decimal.NewFromInt(1)) {
		return &InvalidTaxRateError{Value: rate.String()}
	}
	return nil
}

// ParseSaleDate accepts only YYYY-MM-DD.
func ParseSaleDate(s string) (time.Time, error) {
	t, err := time.Parse(DateLayout, s)
	if err != nil {
		return time.Time{}, &InvalidDateError{Value: s}
	}
	return t, nil
}
