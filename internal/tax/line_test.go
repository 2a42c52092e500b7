package tax_test

import (
	"testing"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/contabilhub/tributo/internal/tax"
	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func dec(s string) decimal.Decimal {
	return decimal.RequireFromString(s)
}

func decPtr(s string) *decimal.Decimal {
	d := decimal.RequireFromString(s)
	return &d
}

func testProduct() domain.CatalogProduct {
	return domain.CatalogProduct{
		ID:        42,
		Code:      "CAFE-001",
		Name:      "Café torrado 500g",
		NCM:       "09012100",
		CFOP:      "",
		BasePrice: dec("100.00"),
		Type:      domain.ProductGood,
	}
}

func realProfitRates() domain.ResolvedRates {
	return domain.ResolvedRates{
		ICMS:   dec("12"),
		IPI:    dec("5"),
		PIS:    dec("1.65"),
		COFINS: dec("7.6"),
	}
}

// Test_CalculateLine_TaxValues walks the full arithmetic for a ten-unit
// line under the real profit interstate rates.
func Test_CalculateLine_TaxValues(t *testing.T) {
	line := domain.RequestLine{
		ProductID: 42,
		Quantity:  dec("10"),
	}

	out := tax.CalculateLine(line, testProduct(), nil, realProfitRates())

	assert.Equal(t, "1000.00", out.GrossValue.StringFixed(2))
	assert.Equal(t, "1000.00", out.BaseValue.StringFixed(2))
	assert.Equal(t, "120.00", out.ICMSValue.StringFixed(2))
	assert.Equal(t, "50.00", out.IPIValue.StringFixed(2))
	assert.Equal(t, "16.50", out.PISValue.StringFixed(2))
	assert.Equal(t, "76.00", out.COFINSValue.StringFixed(2))
	assert.Equal(t, "0.00", out.ISSValue.StringFixed(2))
	assert.Equal(t, "0.00", out.ICMSSTValue.StringFixed(2))
	assert.Equal(t, "262.50", out.TaxSum().StringFixed(2))
	assert.Equal(t, "1262.50", out.NetValue.StringFixed(2))
}

// Test_CalculateLine_UnitValueResolution validates the price resolution
// order: explicit override, then negotiated client price, then the
// catalog base price.
func Test_CalculateLine_UnitValueResolution(t *testing.T) {
	tests := []struct {
		name        string
		override    *decimal.Decimal
		customPrice *decimal.Decimal
		expected    string
		explanation string
	}{
		{
			name:        "base price when nothing else is given",
			expected:    "100.00",
			explanation: "falls back to the catalog price",
		},
		{
			name:        "custom price beats base price",
			customPrice: decPtr("87.50"),
			expected:    "87.50",
			explanation: "client's negotiated price applies",
		},
		{
			name:        "explicit override beats everything",
			override:    decPtr("75.00"),
			customPrice: decPtr("87.50"),
			expected:    "75.00",
			explanation: "line-level override wins over the negotiated price",
		},
		{
			name:        "zero override is honored",
			override:    decPtr("0"),
			customPrice: decPtr("87.50"),
			expected:    "0.00",
			explanation: "an explicit zero is a bonus line, not a missing value",
		},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			line := domain.RequestLine{
				ProductID: 42,
				Quantity:  dec("1"),
				UnitValue: tt.override,
			}

			out := tax.CalculateLine(line, testProduct(), tt.customPrice, realProfitRates())

			assert.Equal(t, tt.expected, out.UnitValue.StringFixed(2), tt.explanation)
		})
	}
}

// Test_CalculateLine_Discount validates discount handling, including a
// discount larger than the gross value flowing through as a negative
// base.
func Test_CalculateLine_Discount(t *testing.T) {
	t.Run("discount reduces the base before taxes", func(t *testing.T) {
		line := domain.RequestLine{
			ProductID: 42,
			Quantity:  dec("10"),
			Discount:  dec("100.00"),
		}

		out := tax.CalculateLine(line, testProduct(), nil, realProfitRates())

		assert.Equal(t, "1000.00", out.GrossValue.StringFixed(2))
		assert.Equal(t, "900.00", out.BaseValue.StringFixed(2))
		assert.Equal(t, "108.00", out.ICMSValue.StringFixed(2), "12% of the discounted base")
	})

	t.Run("discount above gross yields negative base and taxes", func(t *testing.T) {
		line := domain.RequestLine{
			ProductID: 42,
			Quantity:  dec("1"),
			Discount:  dec("150.00"),
		}

		out := tax.CalculateLine(line, testProduct(), nil, realProfitRates())

		assert.Equal(t, "-50.00", out.BaseValue.StringFixed(2))
		assert.Equal(t, "-6.00", out.ICMSValue.StringFixed(2))
		assert.True(t, out.NetValue.IsNegative())
	})
}

// Test_CalculateLine_Rounding validates that per-line values are rounded
// half-up to cents at the point they are produced.
func Test_CalculateLine_Rounding(t *testing.T) {
	line := domain.RequestLine{
		ProductID: 42,
		Quantity:  dec("3"),
		UnitValue: decPtr("33.333"),
	}

	out := tax.CalculateLine(line, testProduct(), nil, realProfitRates())

	// 3 × 33.333 = 99.999, rounds to 100.00 before any tax is computed.
	assert.Equal(t, "100.00", out.GrossValue.StringFixed(2))
	assert.Equal(t, "12.00", out.ICMSValue.StringFixed(2))
	assert.Equal(t, "1.65", out.PISValue.StringFixed(2))
}

// Test_CalculateLine_Overrides validates that line-level description, NCM
// and CFOP replace the catalog values, and catalog values fill the gaps.
func Test_CalculateLine_Overrides(t *testing.T) {
	product := testProduct()
	product.CFOP = "5405"

	line := domain.RequestLine{
		ProductID:   42,
		Quantity:    dec("1"),
		Description: "Café torrado especial",
		NCM:         "09012200",
	}

	out := tax.CalculateLine(line, product, nil, realProfitRates())

	assert.Equal(t, "Café torrado especial", out.Description, "line description wins")
	assert.Equal(t, "09012200", out.NCM, "line NCM wins")
	assert.Equal(t, "5405", out.CFOP, "catalog CFOP fills in when the line has none")
	assert.Equal(t, "CAFE-001", out.ProductCode)
}

// Test_CalculateLine_ProfitMargin validates margin computation against
// the catalog cost price, and its absence when cost is unknown or net is
// not positive.
func Test_CalculateLine_ProfitMargin(t *testing.T) {
	t.Run("margin from cost price", func(t *testing.T) {
		product := testProduct()
		product.CostPrice = decPtr("60.00")

		line := domain.RequestLine{ProductID: 42, Quantity: dec("10")}

		out := tax.CalculateLine(line, product, nil, realProfitRates())

		require.NotNil(t, out.ProfitMargin)
		require.NotNil(t, out.CostPrice)
		// (1262.50 - 600.00) / 1262.50 × 100 = 52.475..., rounds to 52.48.
		assert.Equal(t, "52.48", out.ProfitMargin.StringFixed(2))
		assert.Equal(t, "60.00", out.CostPrice.StringFixed(2))
	})

	t.Run("no margin without a cost price", func(t *testing.T) {
		line := domain.RequestLine{ProductID: 42, Quantity: dec("10")}

		out := tax.CalculateLine(line, testProduct(), nil, realProfitRates())

		assert.Nil(t, out.ProfitMargin)
		assert.Nil(t, out.CostPrice)
	})

	t.Run("no margin on a non-positive net value", func(t *testing.T) {
		product := testProduct()
		product.CostPrice = decPtr("60.00")

		line := domain.RequestLine{
			ProductID: 42,
			Quantity:  dec("1"),
			Discount:  dec("200.00"),
		}

		out := tax.CalculateLine(line, product, nil, realProfitRates())

		assert.Nil(t, out.ProfitMargin, "margin against a negative net is meaningless")
	})
}
