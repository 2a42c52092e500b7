package tax

import (
	"strings"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/shopspring/decimal"
)

// Rate constants, in percentage points. IPI is a flat placeholder for a
// full TIPI table lookup; ICMS-ST is fixed at zero because substitution
// tables are out of scope for this engine.
var (
	icmsIntraRate = decimal.NewFromInt(18)
	icmsSouthRate = decimal.NewFromInt(12)
	icmsOtherRate = decimal.NewFromInt(7)

	ipiFlatRate = decimal.NewFromInt(5)

	pisPresumedRate    = decimal.RequireFromString("0.65")
	cofinsPresumedRate = decimal.RequireFromString("3.0")
	pisRealRate        = decimal.RequireFromString("1.65")
	cofinsRealRate     = decimal.RequireFromString("7.6")

	issStandardRate = decimal.NewFromInt(5)
)

// southSoutheast holds the states whose pairwise interstate operations
// use the 12% ICMS rate.
var southSoutheast = map[string]bool{
	"SP": true, "RJ": true, "MG": true, "ES": true,
	"PR": true, "SC": true, "RS": true,
}

// RateParams is the fiscal context of a single line.
type RateParams struct {
	Regime           domain.TaxRegime
	Operation        domain.OperationType
	OriginState      string
	DestinationState string
	ProductType      domain.ProductType
	NCM              string

	// ClientUnifiedRate is the client's negotiated Simples Nacional rate,
	// when known. Only consulted under the simplified regime.
	ClientUnifiedRate *decimal.Decimal
}

// Resolver maps a line's fiscal context to the applicable percentage rate
// per tax type. Resolution is pure and deterministic: identical params
// always produce identical rates.
type Resolver struct {
	defaultUnifiedRate decimal.Decimal
}

// NewResolver creates a rate resolver. defaultUnifiedRate is the Simples
// Nacional unified percentage used for clients without a negotiated rate.
func NewResolver(defaultUnifiedRate decimal.Decimal) *Resolver {
	return &Resolver{defaultUnifiedRate: defaultUnifiedRate}
}

// rateStrategy computes the full rate set for one regime.
type rateStrategy func(r *Resolver, p RateParams) domain.ResolvedRates

// regimeStrategies keeps the regime branching data-driven: adding a
// regime means adding an entry, not another switch arm.
var regimeStrategies = map[domain.TaxRegime]rateStrategy{
	domain.RegimeSimplified:     resolveSimplified,
	domain.RegimePresumedProfit: resolveStandard(pisPresumedRate, cofinsPresumedRate),
	domain.RegimeRealProfit:     resolveStandard(pisRealRate, cofinsRealRate),
}

// Resolve returns the rates applicable to the line. Unknown regimes
// resolve to all-zero rates; the engine validates regimes before calling.
func (r *Resolver) Resolve(p RateParams) domain.ResolvedRates {
	strategy, ok := regimeStrategies[p.Regime]
	if !ok {
		return domain.ResolvedRates{}
	}
	return strategy(r, p)
}

// resolveStandard builds the strategy shared by the presumed-profit and
// real-profit regimes; only the PIS/COFINS pair differs between them.
func resolveStandard(pis, cofins decimal.Decimal) rateStrategy {
	return func(r *Resolver, p RateParams) domain.ResolvedRates {
		rates := domain.ResolvedRates{
			PIS:    pis,
			COFINS: cofins,
		}

		if isService(p.ProductType) {
			rates.ISS = issStandardRate
			return rates
		}

		rates.ICMS = icmsRate(p.OriginState, p.DestinationState)
		rates.IPI = ipiFlatRate
		return rates
	}
}

// resolveSimplified collapses ICMS, IPI, PIS and COFINS into the regime's
// unified collection: only service lines carry a rate, the client's
// unified ISS percentage.
func resolveSimplified(r *Resolver, p RateParams) domain.ResolvedRates {
	rates := domain.ResolvedRates{}

	if isService(p.ProductType) {
		rates.ISS = r.defaultUnifiedRate
		if p.ClientUnifiedRate != nil {
			rates.ISS = *p.ClientUnifiedRate
		}
	}

	return rates
}

// icmsRate applies the interstate rate matrix: intra-state operations use
// the flat internal rate, pairs within the South/Southeast set use 12%,
// all other pairs 7%.
func icmsRate(origin, destination string) decimal.Decimal {
	origin = strings.ToUpper(origin)
	destination = strings.ToUpper(destination)

	if origin == destination {
		return icmsIntraRate
	}
	if southSoutheast[origin] && southSoutheast[destination] {
		return icmsSouthRate
	}
	return icmsOtherRate
}

func isService(t domain.ProductType) bool {
	return t == domain.ProductService
}

// DefaultCFOP selects the operation's fiscal code when neither the line
// nor the product carries one: inbound 1102/2102, outbound 5102/6102,
// first digit keyed by whether the operation crosses state lines.
func DefaultCFOP(op domain.OperationType, origin, destination string) string {
	intrastate := strings.EqualFold(origin, destination)

	if op == domain.OperationInbound {
		if intrastate {
			return "1102"
		}
		return "2102"
	}
	if intrastate {
		return "5102"
	}
	return "6102"
}
