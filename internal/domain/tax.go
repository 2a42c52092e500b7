package domain

import (
	"context"

	"github.com/shopspring/decimal"
)

// OperationType distinguishes purchase from sale operations.
type OperationType string

const (
	OperationInbound  OperationType = "inbound"
	OperationOutbound OperationType = "outbound"
)

// TaxRegime is the client's federal tax regime. The regime drives which
// taxes apply and at which rates.
type TaxRegime string

const (
	// RegimeSimplified is Simples Nacional: federal taxes are collected
	// through a single unified rate, so the per-tax rates collapse to zero.
	RegimeSimplified TaxRegime = "simplified"

	// RegimePresumedProfit is Lucro Presumido.
	RegimePresumedProfit TaxRegime = "presumed_profit"

	// RegimeRealProfit is Lucro Real.
	RegimeRealProfit TaxRegime = "real_profit"
)

// Tax-engine domain errors.
var (
	ErrEmptyOrder = &Error{Code: EINVALID, Message: "Calculation requires at least one line item"}

	ErrProductNotFound = &Error{Code: ENOTFOUND, Message: "Referenced product not found"}

	ErrSimulationNotFound = &Error{Code: ENOTFOUND, Message: "Simulation not found"}

	// ErrSimulationOwnership deliberately carries no information about the
	// actual owner of the simulation.
	ErrSimulationOwnership = &Error{Code: EFORBIDDEN, Message: "Simulation belongs to a different client"}
)

// CalculationRequest is the input to a tax calculation. It is never
// persisted as-is; a saved simulation copies its scalar fields.
type CalculationRequest struct {
	Operation        OperationType   `json:"operation" validate:"required,oneof=inbound outbound"`
	OriginState      string          `json:"originState" validate:"required,len=2,alpha"`
	DestinationState string          `json:"destinationState" validate:"required,len=2,alpha"`
	Regime           TaxRegime       `json:"regime" validate:"required,oneof=simplified presumed_profit real_profit"`
	ClientID         *int64          `json:"clientId,omitempty"`
	Lines            []RequestLine   `json:"lines" validate:"required,min=1,dive"`
	Freight          decimal.Decimal `json:"freight"`
	Insurance        decimal.Decimal `json:"insurance"`
	OtherCosts       decimal.Decimal `json:"otherCosts"`
	Notes            string          `json:"notes"`
}

// RequestLine references a catalog product plus per-line overrides.
type RequestLine struct {
	ProductID int64 `json:"productId" validate:"required,gt=0"`

	// Quantity must be positive. Checked by the engine, not the struct
	// validator, since decimals are opaque to validation tags.
	Quantity decimal.Decimal `json:"quantity"`

	// UnitValue overrides the resolved catalog/custom price when set.
	UnitValue *decimal.Decimal `json:"unitValue,omitempty"`

	Description string `json:"description,omitempty"`
	NCM         string `json:"ncm,omitempty"`
	CFOP        string `json:"cfop,omitempty"`

	Discount decimal.Decimal `json:"discount"`
}

// ResolvedRates holds the percentage rate for each tax type applicable to
// one line. All rates are in [0, 100].
type ResolvedRates struct {
	ICMS   decimal.Decimal `json:"icms"`
	ICMSST decimal.Decimal `json:"icmsSt"`
	IPI    decimal.Decimal `json:"ipi"`
	PIS    decimal.Decimal `json:"pis"`
	COFINS decimal.Decimal `json:"cofins"`
	ISS    decimal.Decimal `json:"iss"`
}

// CalculatedLine is a request line with resolved rates and computed
// monetary values. BaseValue is the net-of-discount base the taxes were
// computed on; it is intentionally not clamped at zero so that a discount
// exceeding the gross value flows through as a negative base.
type CalculatedLine struct {
	ProductID   int64  `json:"productId"`
	ProductCode string `json:"productCode"`
	Description string `json:"description"`
	NCM         string `json:"ncm"`
	CFOP        string `json:"cfop"`

	Quantity  decimal.Decimal `json:"quantity"`
	UnitValue decimal.Decimal `json:"unitValue"`

	Rates ResolvedRates `json:"rates"`

	GrossValue    decimal.Decimal `json:"grossValue"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	BaseValue     decimal.Decimal `json:"baseValue"`

	ICMSValue   decimal.Decimal `json:"icmsValue"`
	ICMSSTValue decimal.Decimal `json:"icmsStValue"`
	IPIValue    decimal.Decimal `json:"ipiValue"`
	PISValue    decimal.Decimal `json:"pisValue"`
	COFINSValue decimal.Decimal `json:"cofinsValue"`
	ISSValue    decimal.Decimal `json:"issValue"`

	NetValue decimal.Decimal `json:"netValue"`

	// CostPrice and ProfitMargin are present only when the catalog knows
	// the product's cost and the net value is positive.
	CostPrice    *decimal.Decimal `json:"costPrice,omitempty"`
	ProfitMargin *decimal.Decimal `json:"profitMargin,omitempty"`
}

// TaxSum returns the sum of all six tax values for reconciliation.
func (c CalculatedLine) TaxSum() decimal.Decimal {
	return c.ICMSValue.
		Add(c.ICMSSTValue).
		Add(c.IPIValue).
		Add(c.PISValue).
		Add(c.COFINSValue).
		Add(c.ISSValue)
}

// CalculationResult aggregates calculated lines into order-level totals.
// TotalValue covers the line bases plus added costs; taxes are reported
// separately in TotalTaxes and never folded into TotalValue.
type CalculationResult struct {
	Lines []CalculatedLine `json:"lines"`

	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalTaxes  decimal.Decimal `json:"totalTaxes"`
	TotalICMS   decimal.Decimal `json:"totalIcms"`
	TotalICMSST decimal.Decimal `json:"totalIcmsSt"`
	TotalIPI    decimal.Decimal `json:"totalIpi"`
	TotalPIS    decimal.Decimal `json:"totalPis"`
	TotalCOFINS decimal.Decimal `json:"totalCofins"`
	TotalISS    decimal.Decimal `json:"totalIss"`

	Freight    decimal.Decimal `json:"freight"`
	Insurance  decimal.Decimal `json:"insurance"`
	OtherCosts decimal.Decimal `json:"otherCosts"`
}

// TaxCalculator runs a full calculation: catalog resolution, rate
// resolution, line calculation, and aggregation.
// Implementations: tax.Engine.
type TaxCalculator interface {
	// Calculate computes taxes for the request. Lines in the result
	// preserve request order. A missing product aborts the whole
	// calculation; no partial results are returned.
	Calculate(ctx context.Context, req CalculationRequest) (*CalculationResult, error)
}
