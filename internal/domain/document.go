package domain

import (
	"time"

	"github.com/shopspring/decimal"
)

// DraftDocument is a fiscal document header created from a simulation.
// Number stays blank until the emission subsystem assigns one.
type DraftDocument struct {
	ID           int64  `json:"id"`
	ClientID     int64  `json:"clientId"`
	SimulationID *int64 `json:"simulationId,omitempty"`
	Number       string `json:"number"`
	Status       string `json:"status"`

	Operation        OperationType `json:"operation"`
	OriginState      string        `json:"originState"`
	DestinationState string        `json:"destinationState"`
	Regime           TaxRegime     `json:"regime"`
	Notes            string        `json:"notes,omitempty"`

	Freight    decimal.Decimal `json:"freight"`
	Insurance  decimal.Decimal `json:"insurance"`
	OtherCosts decimal.Decimal `json:"otherCosts"`
	TotalValue decimal.Decimal `json:"totalValue"`
	TotalTaxes decimal.Decimal `json:"totalTaxes"`

	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`

	Items []DraftDocumentItem `json:"items"`
}

// DraftDocumentItem carries the tax values copied verbatim from the
// source simulation item.
type DraftDocumentItem struct {
	ID         int64 `json:"id"`
	DocumentID int64 `json:"documentId"`
	Position   int32 `json:"position"`

	ProductID   int64  `json:"productId"`
	Description string `json:"description"`
	NCM         string `json:"ncm"`
	CFOP        string `json:"cfop"`

	Quantity      decimal.Decimal `json:"quantity"`
	UnitValue     decimal.Decimal `json:"unitValue"`
	DiscountValue decimal.Decimal `json:"discountValue"`
	BaseValue     decimal.Decimal `json:"baseValue"`

	ICMSValue   decimal.Decimal `json:"icmsValue"`
	ICMSSTValue decimal.Decimal `json:"icmsStValue"`
	IPIValue    decimal.Decimal `json:"ipiValue"`
	PISValue    decimal.Decimal `json:"pisValue"`
	COFINSValue decimal.Decimal `json:"cofinsValue"`
	ISSValue    decimal.Decimal `json:"issValue"`
	NetValue    decimal.Decimal `json:"netValue"`
}
