package tax

import (
	"github.com/contabilhub/tributo/internal/domain"
	"github.com/shopspring/decimal"
)

// Aggregate sums calculated lines into order-level totals.
//
// TotalValue is the sum of line bases plus freight, insurance and other
// costs; taxes are reported separately in TotalTaxes and never folded
// into TotalValue. Downstream fiscal-document consumers depend on that
// split. Added costs are never taxed.
func Aggregate(lines []domain.CalculatedLine, freight, insurance, otherCosts decimal.Decimal) (*domain.CalculationResult, error) {
	if len(lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}

	result := &domain.CalculationResult{
		Lines:      lines,
		Freight:    freight.Round(2),
		Insurance:  insurance.Round(2),
		OtherCosts: otherCosts.Round(2),
	}

	var baseSum decimal.Decimal
	for _, line := range lines {
		baseSum = baseSum.Add(line.BaseValue)

		result.TotalICMS = result.TotalICMS.Add(line.ICMSValue)
		result.TotalICMSST = result.TotalICMSST.Add(line.ICMSSTValue)
		result.TotalIPI = result.TotalIPI.Add(line.IPIValue)
		result.TotalPIS = result.TotalPIS.Add(line.PISValue)
		result.TotalCOFINS = result.TotalCOFINS.Add(line.COFINSValue)
		result.TotalISS = result.TotalISS.Add(line.ISSValue)
		result.TotalTaxes = result.TotalTaxes.Add(line.TaxSum())
	}

	result.TotalValue = baseSum.
		Add(result.Freight).
		Add(result.Insurance).
		Add(result.OtherCosts)

	return result, nil
}
