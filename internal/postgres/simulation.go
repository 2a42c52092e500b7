package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
)

// SimulationService implements domain.SimulationService using PostgreSQL.
// Simulations are write-once; there is no update path.
type SimulationService struct {
	pool *pgxpool.Pool
}

// Compile-time check that SimulationService implements domain.SimulationService.
var _ domain.SimulationService = (*SimulationService)(nil)

// NewSimulationService creates a new PostgreSQL-backed simulation service.
func NewSimulationService(pool *pgxpool.Pool) *SimulationService {
	return &SimulationService{pool: pool}
}

const simulationColumns = `
	id, name, client_id, status, operation, origin_state, destination_state,
	regime, notes,
	icms_rate, icms_st_rate, ipi_rate, pis_rate, cofins_rate, iss_rate,
	freight, insurance, other_costs,
	total_value, total_taxes, total_icms, total_icms_st, total_ipi,
	total_pis, total_cofins, total_iss,
	created_by, created_at`

const simulationItemColumns = `
	id, simulation_id, position, product_id, description, ncm, cfop,
	quantity, unit_value, discount_value, gross_value, base_value,
	icms_rate, icms_st_rate, ipi_rate, pis_rate, cofins_rate, iss_rate,
	icms_value, icms_st_value, ipi_value, pis_value, cofins_value, iss_value,
	net_value, cost_price, profit_margin`

// Save inserts the simulation header and all items in one transaction and
// returns the new simulation ID. The headline rates are taken from the
// result's first line.
func (s *SimulationService) Save(ctx context.Context, params domain.SaveSimulationParams) (int64, error) {
	if len(params.Result.Lines) == 0 {
		return 0, domain.ErrEmptyOrder
	}
	headline := params.Result.Lines[0].Rates

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return 0, domain.Internal(err, "simulation.save", "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insertHeader = `
		INSERT INTO simulations (
			name, client_id, status, operation, origin_state, destination_state,
			regime, notes,
			icms_rate, icms_st_rate, ipi_rate, pis_rate, cofins_rate, iss_rate,
			freight, insurance, other_costs,
			total_value, total_taxes, total_icms, total_icms_st, total_ipi,
			total_pis, total_cofins, total_iss,
			created_by
		) VALUES (
			$1, $2, $3, $4, $5, $6, $7, $8,
			$9, $10, $11, $12, $13, $14,
			$15, $16, $17,
			$18, $19, $20, $21, $22, $23, $24, $25,
			$26
		)
		RETURNING id`

	var simulationID int64
	err = tx.QueryRow(ctx, insertHeader,
		params.Name, params.ClientID, domain.SimulationCompleted,
		params.Request.Operation, params.Request.OriginState, params.Request.DestinationState,
		params.Request.Regime, params.Request.Notes,
		headline.ICMS, headline.ICMSST, headline.IPI, headline.PIS, headline.COFINS, headline.ISS,
		params.Result.Freight, params.Result.Insurance, params.Result.OtherCosts,
		params.Result.TotalValue, params.Result.TotalTaxes,
		params.Result.TotalICMS, params.Result.TotalICMSST, params.Result.TotalIPI,
		params.Result.TotalPIS, params.Result.TotalCOFINS, params.Result.TotalISS,
		params.ActorID,
	).Scan(&simulationID)
	if err != nil {
		return 0, domain.Internal(err, "simulation.save", "failed to insert simulation")
	}

	const insertItem = `
		INSERT INTO simulation_items (
			simulation_id, position, product_id, description, ncm, cfop,
			quantity, unit_value, discount_value, gross_value, base_value,
			icms_rate, icms_st_rate, ipi_rate, pis_rate, cofins_rate, iss_rate,
			icms_value, icms_st_value, ipi_value, pis_value, cofins_value, iss_value,
			net_value, cost_price, profit_margin
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10, $11,
			$12, $13, $14, $15, $16, $17,
			$18, $19, $20, $21, $22, $23,
			$24, $25, $26
		)`

	for i, line := range params.Result.Lines {
		_, err = tx.Exec(ctx, insertItem,
			simulationID, int32(i), line.ProductID, line.Description, line.NCM, line.CFOP,
			line.Quantity, line.UnitValue, line.DiscountValue, line.GrossValue, line.BaseValue,
			line.Rates.ICMS, line.Rates.ICMSST, line.Rates.IPI, line.Rates.PIS, line.Rates.COFINS, line.Rates.ISS,
			line.ICMSValue, line.ICMSSTValue, line.IPIValue, line.PISValue, line.COFINSValue, line.ISSValue,
			line.NetValue, line.CostPrice, line.ProfitMargin,
		)
		if err != nil {
			return 0, domain.Internal(err, "simulation.save", fmt.Sprintf("failed to insert item %d", i))
		}
	}

	if err = tx.Commit(ctx); err != nil {
		return 0, domain.Internal(err, "simulation.save", "failed to commit transaction")
	}

	return simulationID, nil
}

// Get returns the simulation with items ordered by position.
func (s *SimulationService) Get(ctx context.Context, id int64) (*domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + ` FROM simulations WHERE id = $1`

	sim, err := scanSimulation(s.pool.QueryRow(ctx, query, id))
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, domain.ErrSimulationNotFound
	}
	if err != nil {
		return nil, domain.Internal(err, "simulation.get", "failed to query simulation")
	}

	items, err := s.loadItems(ctx, []int64{id})
	if err != nil {
		return nil, err
	}
	sim.Items = items[id]

	return sim, nil
}

// ListByClient returns the client's simulations ordered by creation time,
// items included.
func (s *SimulationService) ListByClient(ctx context.Context, clientID int64) ([]domain.Simulation, error) {
	query := `SELECT ` + simulationColumns + `
		FROM simulations
		WHERE client_id = $1
		ORDER BY created_at, id`

	rows, err := s.pool.Query(ctx, query, clientID)
	if err != nil {
		return nil, domain.Internal(err, "simulation.list", "failed to query simulations")
	}
	defer rows.Close()

	var (
		sims []domain.Simulation
		ids  []int64
	)
	for rows.Next() {
		sim, err := scanSimulation(rows)
		if err != nil {
			return nil, domain.Internal(err, "simulation.list", "failed to scan simulation")
		}
		sims = append(sims, *sim)
		ids = append(ids, sim.ID)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "simulation.list", "failed to read simulations")
	}

	if len(ids) == 0 {
		return []domain.Simulation{}, nil
	}

	itemsByID, err := s.loadItems(ctx, ids)
	if err != nil {
		return nil, err
	}
	for i := range sims {
		sims[i].Items = itemsByID[sims[i].ID]
	}

	return sims, nil
}

// Materialize creates a draft fiscal document from the simulation,
// copying stored values verbatim. The simulation itself is never mutated.
func (s *SimulationService) Materialize(ctx context.Context, simulationID, clientID, actorID int64) (*domain.DraftDocument, error) {
	sim, err := s.Get(ctx, simulationID)
	if err != nil {
		return nil, err
	}
	if sim.ClientID != clientID {
		return nil, domain.ErrSimulationOwnership
	}

	tx, err := s.pool.BeginTx(ctx, pgx.TxOptions{})
	if err != nil {
		return nil, domain.Internal(err, "simulation.materialize", "failed to begin transaction")
	}
	defer func() {
		if err != nil {
			_ = tx.Rollback(ctx)
		}
	}()

	const insertDocument = `
		INSERT INTO draft_documents (
			client_id, simulation_id, operation, origin_state, destination_state,
			regime, notes, freight, insurance, other_costs,
			total_value, total_taxes, created_by
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13)
		RETURNING id, number, status, created_at`

	doc := &domain.DraftDocument{
		ClientID:         sim.ClientID,
		SimulationID:     &sim.ID,
		Operation:        sim.Operation,
		OriginState:      sim.OriginState,
		DestinationState: sim.DestinationState,
		Regime:           sim.Regime,
		Notes:            sim.Notes,
		Freight:          sim.Freight,
		Insurance:        sim.Insurance,
		OtherCosts:       sim.OtherCosts,
		TotalValue:       sim.TotalValue,
		TotalTaxes:       sim.TotalTaxes,
		CreatedBy:        actorID,
	}

	err = tx.QueryRow(ctx, insertDocument,
		sim.ClientID, sim.ID, sim.Operation, sim.OriginState, sim.DestinationState,
		sim.Regime, sim.Notes, sim.Freight, sim.Insurance, sim.OtherCosts,
		sim.TotalValue, sim.TotalTaxes, actorID,
	).Scan(&doc.ID, &doc.Number, &doc.Status, &doc.CreatedAt)
	if err != nil {
		return nil, domain.Internal(err, "simulation.materialize", "failed to insert draft document")
	}

	const insertItem = `
		INSERT INTO draft_document_items (
			document_id, position, product_id, description, ncm, cfop,
			quantity, unit_value, discount_value, base_value,
			icms_value, icms_st_value, ipi_value, pis_value, cofins_value, iss_value,
			net_value
		) VALUES (
			$1, $2, $3, $4, $5, $6,
			$7, $8, $9, $10,
			$11, $12, $13, $14, $15, $16,
			$17
		)
		RETURNING id`

	doc.Items = make([]domain.DraftDocumentItem, 0, len(sim.Items))
	for _, item := range sim.Items {
		docItem := domain.DraftDocumentItem{
			DocumentID:    doc.ID,
			Position:      item.Position,
			ProductID:     item.Line.ProductID,
			Description:   item.Line.Description,
			NCM:           item.Line.NCM,
			CFOP:          item.Line.CFOP,
			Quantity:      item.Line.Quantity,
			UnitValue:     item.Line.UnitValue,
			DiscountValue: item.Line.DiscountValue,
			BaseValue:     item.Line.BaseValue,
			ICMSValue:     item.Line.ICMSValue,
			ICMSSTValue:   item.Line.ICMSSTValue,
			IPIValue:      item.Line.IPIValue,
			PISValue:      item.Line.PISValue,
			COFINSValue:   item.Line.COFINSValue,
			ISSValue:      item.Line.ISSValue,
			NetValue:      item.Line.NetValue,
		}

		err = tx.QueryRow(ctx, insertItem,
			doc.ID, docItem.Position, docItem.ProductID, docItem.Description, docItem.NCM, docItem.CFOP,
			docItem.Quantity, docItem.UnitValue, docItem.DiscountValue, docItem.BaseValue,
			docItem.ICMSValue, docItem.ICMSSTValue, docItem.IPIValue, docItem.PISValue,
			docItem.COFINSValue, docItem.ISSValue, docItem.NetValue,
		).Scan(&docItem.ID)
		if err != nil {
			return nil, domain.Internal(err, "simulation.materialize", "failed to insert document item")
		}

		doc.Items = append(doc.Items, docItem)
	}

	if err = tx.Commit(ctx); err != nil {
		return nil, domain.Internal(err, "simulation.materialize", "failed to commit transaction")
	}

	return doc, nil
}

// loadItems fetches the items for the given simulations in one query,
// grouped by simulation and ordered by position.
func (s *SimulationService) loadItems(ctx context.Context, simulationIDs []int64) (map[int64][]domain.SimulationItem, error) {
	query := `SELECT ` + simulationItemColumns + `
		FROM simulation_items
		WHERE simulation_id = ANY($1)
		ORDER BY simulation_id, position`

	rows, err := s.pool.Query(ctx, query, simulationIDs)
	if err != nil {
		return nil, domain.Internal(err, "simulation.load_items", "failed to query items")
	}
	defer rows.Close()

	items := make(map[int64][]domain.SimulationItem)
	for rows.Next() {
		var item domain.SimulationItem
		if err := rows.Scan(
			&item.ID, &item.SimulationID, &item.Position,
			&item.Line.ProductID, &item.Line.Description, &item.Line.NCM, &item.Line.CFOP,
			&item.Line.Quantity, &item.Line.UnitValue, &item.Line.DiscountValue,
			&item.Line.GrossValue, &item.Line.BaseValue,
			&item.Line.Rates.ICMS, &item.Line.Rates.ICMSST, &item.Line.Rates.IPI,
			&item.Line.Rates.PIS, &item.Line.Rates.COFINS, &item.Line.Rates.ISS,
			&item.Line.ICMSValue, &item.Line.ICMSSTValue, &item.Line.IPIValue,
			&item.Line.PISValue, &item.Line.COFINSValue, &item.Line.ISSValue,
			&item.Line.NetValue, &item.Line.CostPrice, &item.Line.ProfitMargin,
		); err != nil {
			return nil, domain.Internal(err, "simulation.load_items", "failed to scan item")
		}
		items[item.SimulationID] = append(items[item.SimulationID], item)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "simulation.load_items", "failed to read items")
	}

	return items, nil
}

// scanSimulation reads one header row in simulationColumns order.
func scanSimulation(row pgx.Row) (*domain.Simulation, error) {
	var sim domain.Simulation
	err := row.Scan(
		&sim.ID, &sim.Name, &sim.ClientID, &sim.Status,
		&sim.Operation, &sim.OriginState, &sim.DestinationState,
		&sim.Regime, &sim.Notes,
		&sim.Rates.ICMS, &sim.Rates.ICMSST, &sim.Rates.IPI,
		&sim.Rates.PIS, &sim.Rates.COFINS, &sim.Rates.ISS,
		&sim.Freight, &sim.Insurance, &sim.OtherCosts,
		&sim.TotalValue, &sim.TotalTaxes, &sim.TotalICMS, &sim.TotalICMSST,
		&sim.TotalIPI, &sim.TotalPIS, &sim.TotalCOFINS, &sim.TotalISS,
		&sim.CreatedBy, &sim.CreatedAt,
	)
	if err != nil {
		return nil, err
	}
	return &sim, nil
}
