package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// SimulationStatus is the lifecycle state of a saved simulation.
type SimulationStatus string

const (
	// SimulationDraft is reserved for a future incremental-save workflow.
	// No current operation produces it.
	SimulationDraft SimulationStatus = "draft"

	// SimulationCompleted is set at creation time and is terminal.
	// Simulations are immutable once created.
	SimulationCompleted SimulationStatus = "completed"
)

// Simulation is a persisted calculation: the request's scalar fields, the
// headline rates, the computed totals, and one item per calculated line.
type Simulation struct {
	ID       int64            `json:"id"`
	Name     string           `json:"name"`
	ClientID int64            `json:"clientId"`
	Status   SimulationStatus `json:"status"`

	Operation        OperationType `json:"operation"`
	OriginState      string        `json:"originState"`
	DestinationState string        `json:"destinationState"`
	Regime           TaxRegime     `json:"regime"`
	Notes            string        `json:"notes,omitempty"`

	// Headline rates: the rates resolved for the order's first line.
	Rates ResolvedRates `json:"rates"`

	Freight    decimal.Decimal `json:"freight"`
	Insurance  decimal.Decimal `json:"insurance"`
	OtherCosts decimal.Decimal `json:"otherCosts"`

	TotalValue  decimal.Decimal `json:"totalValue"`
	TotalTaxes  decimal.Decimal `json:"totalTaxes"`
	TotalICMS   decimal.Decimal `json:"totalIcms"`
	TotalICMSST decimal.Decimal `json:"totalIcmsSt"`
	TotalIPI    decimal.Decimal `json:"totalIpi"`
	TotalPIS    decimal.Decimal `json:"totalPis"`
	TotalCOFINS decimal.Decimal `json:"totalCofins"`
	TotalISS    decimal.Decimal `json:"totalIss"`

	CreatedBy int64     `json:"createdBy"`
	CreatedAt time.Time `json:"createdAt"`

	Items []SimulationItem `json:"items"`
}

// SimulationItem persists one calculated line verbatim. Position makes
// line ordering explicit rather than relying on storage order.
type SimulationItem struct {
	ID           int64 `json:"id"`
	SimulationID int64 `json:"simulationId"`
	Position     int32 `json:"position"`

	Line CalculatedLine `json:"line"`
}

// SaveSimulationParams bundles the inputs to SimulationService.Save.
type SaveSimulationParams struct {
	Name     string
	ClientID int64
	ActorID  int64
	Request  CalculationRequest
	Result   CalculationResult
}

// SimulationService persists calculations and materializes them into
// draft fiscal documents. Simulations are write-once: there is no update
// operation, which eliminates write-write races by design. Repeated saves
// create distinct simulations; idempotency is the caller's concern.
// Implementations: postgres.SimulationService.
type SimulationService interface {
	// Save inserts the simulation header and all items atomically and
	// returns the new simulation ID. On failure nothing is persisted.
	Save(ctx context.Context, params SaveSimulationParams) (int64, error)

	// Get returns the simulation with items ordered by position, or
	// ErrSimulationNotFound.
	Get(ctx context.Context, id int64) (*Simulation, error)

	// ListByClient returns the client's simulations ordered by creation
	// time, items included.
	ListByClient(ctx context.Context, clientID int64) ([]Simulation, error)

	// Materialize creates a draft fiscal document from the simulation,
	// copying stored values verbatim without recalculation. Fails with
	// ErrSimulationOwnership when clientID does not match the
	// simulation's owner. The simulation itself is never mutated.
	Materialize(ctx context.Context, simulationID, clientID, actorID int64) (*DraftDocument, error)
}
