package postgres

import (
	"context"
	"errors"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"
	"github.com/shopspring/decimal"
)

// CatalogService implements domain.CatalogService using PostgreSQL.
type CatalogService struct {
	pool *pgxpool.Pool
}

// Compile-time check that CatalogService implements domain.CatalogService.
var _ domain.CatalogService = (*CatalogService)(nil)

// NewCatalogService creates a new PostgreSQL-backed catalog service.
func NewCatalogService(pool *pgxpool.Pool) *CatalogService {
	return &CatalogService{pool: pool}
}

// GetProductsByIDs loads the given products in a single query. Products
// that do not exist are simply absent from the result.
func (s *CatalogService) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error) {
	const query = `
		SELECT id, code, name, ncm, cfop, unit, base_price, cost_price, product_type
		FROM products
		WHERE id = ANY($1)`

	rows, err := s.pool.Query(ctx, query, ids)
	if err != nil {
		return nil, domain.Internal(err, "catalog.get_products", "failed to query products")
	}
	defer rows.Close()

	products := make([]domain.CatalogProduct, 0, len(ids))
	for rows.Next() {
		var p domain.CatalogProduct
		if err := rows.Scan(
			&p.ID, &p.Code, &p.Name, &p.NCM, &p.CFOP, &p.Unit,
			&p.BasePrice, &p.CostPrice, &p.Type,
		); err != nil {
			return nil, domain.Internal(err, "catalog.get_products", "failed to scan product")
		}
		products = append(products, p)
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.get_products", "failed to read products")
	}

	return products, nil
}

// GetCustomPrices returns the currently valid negotiated price per
// product for the client. When several windows overlap, the most recent
// valid_from wins.
func (s *CatalogService) GetCustomPrices(ctx context.Context, clientID int64, productIDs []int64) (map[int64]decimal.Decimal, error) {
	const query = `
		SELECT DISTINCT ON (product_id) product_id, price
		FROM client_custom_prices
		WHERE client_id = $1
		  AND product_id = ANY($2)
		  AND valid_from <= now()
		  AND (valid_until IS NULL OR valid_until > now())
		ORDER BY product_id, valid_from DESC`

	rows, err := s.pool.Query(ctx, query, clientID, productIDs)
	if err != nil {
		return nil, domain.Internal(err, "catalog.get_custom_prices", "failed to query custom prices")
	}
	defer rows.Close()

	prices := make(map[int64]decimal.Decimal)
	for rows.Next() {
		var (
			productID int64
			price     decimal.Decimal
		)
		if err := rows.Scan(&productID, &price); err != nil {
			return nil, domain.Internal(err, "catalog.get_custom_prices", "failed to scan custom price")
		}
		prices[productID] = price
	}
	if err := rows.Err(); err != nil {
		return nil, domain.Internal(err, "catalog.get_custom_prices", "failed to read custom prices")
	}

	return prices, nil
}

// GetClientUnifiedRate returns the client's negotiated Simples Nacional
// unified rate. An unknown client behaves like a client with no
// negotiated rate.
func (s *CatalogService) GetClientUnifiedRate(ctx context.Context, clientID int64) (*decimal.Decimal, error) {
	const query = `SELECT simples_rate FROM clients WHERE id = $1`

	var rate *decimal.Decimal
	err := s.pool.QueryRow(ctx, query, clientID).Scan(&rate)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, nil
	}
	if err != nil {
		return nil, domain.Internal(err, "catalog.get_unified_rate", "failed to query client rate")
	}

	return rate, nil
}
