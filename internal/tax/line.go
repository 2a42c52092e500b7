package tax

import (
	"github.com/contabilhub/tributo/internal/domain"
	"github.com/shopspring/decimal"
)

var hundred = decimal.NewFromInt(100)

// CalculateLine computes the monetary values for one request line given
// its catalog product, optional negotiated price, and resolved rates.
//
// All monetary outputs are rounded half-up to two decimal places at the
// point they are produced, so persisted values survive a NUMERIC(14,2)
// round-trip unchanged and totals reconcile exactly against line sums.
//
// The net-of-discount base is deliberately not clamped at zero: a
// discount exceeding the gross value flows through as a negative base,
// producing negative tax values and possibly a negative net value.
func CalculateLine(line domain.RequestLine, product domain.CatalogProduct, customPrice *decimal.Decimal, rates domain.ResolvedRates) domain.CalculatedLine {
	unitValue := resolveUnitValue(line, product, customPrice)

	gross := unitValue.Mul(line.Quantity).Round(2)
	base := gross.Sub(line.Discount.Round(2))

	out := domain.CalculatedLine{
		ProductID:     product.ID,
		ProductCode:   product.Code,
		Description:   coalesce(line.Description, product.Name),
		NCM:           coalesce(line.NCM, product.NCM),
		CFOP:          coalesce(line.CFOP, product.CFOP),
		Quantity:      line.Quantity,
		UnitValue:     unitValue,
		Rates:         rates,
		GrossValue:    gross,
		DiscountValue: line.Discount.Round(2),
		BaseValue:     base,
		ICMSValue:     taxValue(base, rates.ICMS),
		ICMSSTValue:   taxValue(base, rates.ICMSST),
		IPIValue:      taxValue(base, rates.IPI),
		PISValue:      taxValue(base, rates.PIS),
		COFINSValue:   taxValue(base, rates.COFINS),
		ISSValue:      taxValue(base, rates.ISS),
	}

	out.NetValue = base.Add(out.TaxSum())

	if product.CostPrice != nil {
		cost := *product.CostPrice
		out.CostPrice = &cost

		// Margin is only meaningful against a positive net value.
		if out.NetValue.IsPositive() {
			margin := out.NetValue.
				Sub(cost.Mul(line.Quantity)).
				Div(out.NetValue).
				Mul(hundred).
				Round(2)
			out.ProfitMargin = &margin
		}
	}

	return out
}

// resolveUnitValue applies the price resolution order: explicit override
// on the line, then the client's negotiated price, then the catalog base
// price.
func resolveUnitValue(line domain.RequestLine, product domain.CatalogProduct, customPrice *decimal.Decimal) decimal.Decimal {
	if line.UnitValue != nil {
		return *line.UnitValue
	}
	if customPrice != nil {
		return *customPrice
	}
	return product.BasePrice
}

// taxValue computes base × rate ÷ 100 rounded half-up to cents.
func taxValue(base, rate decimal.Decimal) decimal.Decimal {
	return base.Mul(rate).Div(hundred).Round(2)
}

func coalesce(override, fallback string) string {
	if override != "" {
		return override
	}
	return fallback
}
