package settlement

import (
	"encoding/json"
	"errors"
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func literalRaw() Raw {
	return Raw{
		SaleDate:         "2024-03-15",
		Carrier:          "sk",
		ActivationType:   "new",
		FaceValue:        "100000",
		Verbal1:          "30000",
		Verbal2:          "20000",
		GradeAddon:       "0",
		AdditionalAmount: "0",
		PaperCash:        "10000",
		SimFee:           "5000",
		DiscountNewOrMnp: "0",
		CashReceived:     "0",
		Payback:          "0",
		TaxRate:          "0.133",
	}
}

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func TestCompute_FormulaChain(t *testing.T) {
	got, err := Compute(literalRaw())
	require.NoError(t, err)

	assert.True(t, got.RebateTotal.Equal(dec("150000")), "rebate %s", got.RebateTotal)
	assert.True(t, got.SettlementAmount.Equal(dec("145000")), "settlement %s", got.SettlementAmount)
	assert.True(t, got.VAT.Equal(dec("19285")), "vat %s", got.VAT)
	assert.True(t, got.PostTaxMargin.Equal(dec("125715")), "margin %s", got.PostTaxMargin)
	assert.Equal(t, "SKT", got.CarrierNormalized)
	assert.Equal(t, ActivationNew, got.ActivationType)
	assert.Equal(t, "2024-03-15", got.SaleDate.Format(DateLayout))
}

func TestCompute_AllComponents(t *testing.T) {
	raw := Raw{
		SaleDate:         "2024-01-31",
		Carrier:          "KT",
		ActivationType:   "MNP",
		FaceValue:        "200000",
		Verbal1:          "10000",
		Verbal2:          "-5000",
		GradeAddon:       "15000",
		AdditionalAmount: "7000",
		PaperCash:        "20000",
		SimFee:           "7700",
		DiscountNewOrMnp: "30000",
		CashReceived:     "50000",
		Payback:          "12000",
	}

	got, err := Compute(raw)
	require.NoError(t, err)

	// 200000 + 10000 - 5000 + 15000 + 7000
	assert.Equal(t, "227000", got.RebateTotal.String())
	// 227000 - 20000 + 7700 + 30000
	assert.Equal(t, "244700", got.SettlementAmount.String())
	// 244700 * 0.133 = 32545.1 -> 32545
	assert.Equal(t, "32545", got.VAT.String())
	// 244700 - 32545 + 50000 + 12000
	assert.Equal(t, "274155", got.PostTaxMargin.String())
	assert.Equal(t, ActivationMNP, got.ActivationType)
	assert.True(t, got.Inputs.TaxRate.Equal(DefaultTaxRate))
}

func TestCompute_MissingOptionalFieldsDefaultToZero(t *testing.T) {
	raw := Raw{
		SaleDate:       "2024-02-29",
		Carrier:        "lgu+",
		ActivationType: "change",
		FaceValue:      "50000",
	}

	got, err := Compute(raw)
	require.NoError(t, err)
	assert.Equal(t, "50000", got.RebateTotal.String())
	assert.Equal(t, "50000", got.SettlementAmount.String())
	assert.Equal(t, "6650", got.VAT.String())
	assert.Equal(t, "43350", got.PostTaxMargin.String())
	assert.Equal(t, "LGU+", got.CarrierNormalized)
}

func TestCompute_Idempotent(t *testing.T) {
	first, err := Compute(literalRaw())
	require.NoError(t, err)

	second, err := Compute(first.Raw())
	require.NoError(t, err)

	assert.True(t, first.Equal(second))
	assert.Equal(t, first.RebateTotal.String(), second.RebateTotal.String())
	assert.Equal(t, first.SettlementAmount.String(), second.SettlementAmount.String())
	assert.Equal(t, first.VAT.String(), second.VAT.String())
	assert.Equal(t, first.PostTaxMargin.String(), second.PostTaxMargin.String())
	assert.Equal(t, first.CarrierNormalized, second.CarrierNormalized)

	t.Run("repeated runs on fractional inputs stay exact", func(t *testing.T) {
		raw := literalRaw()
		raw.FaceValue = "100000.10"
		raw.Verbal1 = "0.20"
		raw.TaxRate = "0.1"
		c := New(WithVATPlaces(2))

		base, err := c.Compute(raw)
		require.NoError(t, err)
		for i := 0; i < 50; i++ {
			again, err := c.Compute(base.Raw())
			require.NoError(t, err)
			require.True(t, base.Equal(again))
		}
		assert.Equal(t, "120000.3", base.RebateTotal.String())
	})
}

func TestCompute_InvalidDate(t *testing.T) {
	for _, value := range []string{"", "2024/03/15", "15-03-2024", "2024-3-5", "2024-02-30", "yesterday"} {
		t.Run(value, func(t *testing.T) {
			raw := literalRaw()
			raw.SaleDate = value

			_, err := Compute(raw)
			require.Error(t, err)
			assert.True(t, errors.Is(err, ErrInvalidDate))
			var dateErr *InvalidDateError
			require.ErrorAs(t, err, &dateErr)
			assert.Equal(t, value, dateErr.Value)
		})
	}
}

func TestCompute_InvalidField(t *testing.T) {
	tests := []struct {
		name  string
		edit  func(*Raw)
		field string
	}{
		{"non numeric face value", func(r *Raw) { r.FaceValue = "abc" }, "face_value"},
		{"formatted money string", func(r *Raw) { r.Verbal1 = "₩1,234" }, "verbal1"},
		{"thousands separator", func(r *Raw) { r.Verbal2 = "1,000" }, "verbal2"},
		{"negative face value", func(r *Raw) { r.FaceValue = "-1" }, "face_value"},
		{"negative paper cash", func(r *Raw) { r.PaperCash = "-10000" }, "paper_cash"},
		{"negative sim fee", func(r *Raw) { r.SimFee = "-1" }, "sim_fee"},
		{"negative cash received", func(r *Raw) { r.CashReceived = "-5" }, "cash_received"},
		{"missing carrier", func(r *Raw) { r.Carrier = "  " }, "carrier"},
		{"missing activation type", func(r *Raw) { r.ActivationType = "" }, "activation_type"},
		{"unknown activation type", func(r *Raw) { r.ActivationType = "upgrade" }, "activation_type"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			raw := literalRaw()
			tt.edit(&raw)

			got, err := Compute(raw)
			require.Error(t, err)
			assert.Equal(t, Computed{}, got)
			assert.True(t, errors.Is(err, ErrInvalidField))
			var fieldErr *InvalidFieldError
			require.ErrorAs(t, err, &fieldErr)
			assert.Equal(t, tt.field, fieldErr.Field)
		})
	}

	t.Run("signed adjustments may be negative", func(t *testing.T) {
		raw := literalRaw()
		raw.Verbal2 = "-20000"
		raw.DiscountNewOrMnp = "-1000"

		got, err := Compute(raw)
		require.NoError(t, err)
		assert.Equal(t, "110000", got.RebateTotal.String())
	})
}

func TestCompute_TaxRate(t *testing.T) {
	t.Run("rejects rates outside 0..1", func(t *testing.T) {
		for _, rate := range []Field{"13.3", "-0.1", "1.0001", "thirteen"} {
			raw := literalRaw()
			raw.TaxRate = rate

			_, err := Compute(raw)
			require.Error(t, err, "rate %s", rate)
			assert.True(t, errors.Is(err, ErrInvalidTaxRate))
		}
	})

	t.Run("accepts the bounds", func(t *testing.T) {
		raw := literalRaw()
		raw.TaxRate = "0"
		got, err := Compute(raw)
		require.NoError(t, err)
		assert.True(t, got.VAT.IsZero())
		assert.Equal(t, "145000", got.PostTaxMargin.String())

		raw.TaxRate = "1"
		got, err = Compute(raw)
		require.NoError(t, err)
		assert.Equal(t, "145000", got.VAT.String())
		assert.True(t, got.PostTaxMargin.IsZero())
	})

	t.Run("calculator default rate applies to missing rate", func(t *testing.T) {
		raw := literalRaw()
		raw.TaxRate = ""
		c := New(WithDefaultTaxRate(dec("0.1")))

		got, err := c.Compute(raw)
		require.NoError(t, err)
		assert.Equal(t, "14500", got.VAT.String())
	})
}

func TestCompute_VATRounding(t *testing.T) {
	raw := literalRaw()
	raw.FaceValue = "12345"
	raw.Verbal1 = ""
	raw.Verbal2 = ""
	raw.PaperCash = ""
	raw.SimFee = ""

	got, err := Compute(raw)
	require.NoError(t, err)
	// 12345 * 0.133 = 1641.885
	assert.Equal(t, "1642", got.VAT.String())

	got, err = New(WithVATPlaces(2)).Compute(raw)
	require.NoError(t, err)
	assert.Equal(t, "1641.89", got.VAT.String())
}

func TestField_UnmarshalJSON(t *testing.T) {
	var raw Raw
	body := `{"sale_date":"2024-03-15","carrier":"sk","activation_type":"new",
		"face_value":100000,"verbal1":"30000","verbal2":null,"tax_rate":0.133}`
	require.NoError(t, json.Unmarshal([]byte(body), &raw))

	assert.Equal(t, Field("100000"), raw.FaceValue)
	assert.Equal(t, Field("30000"), raw.Verbal1)
	assert.True(t, raw.Verbal2.IsMissing())
	assert.True(t, raw.GradeAddon.IsMissing())
	assert.Equal(t, Field("0.133"), raw.TaxRate)

	out, err := json.Marshal(raw.Verbal2)
	require.NoError(t, err)
	assert.Equal(t, "null", string(out))
}
