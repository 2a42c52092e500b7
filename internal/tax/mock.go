package tax

import (
	"context"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/shopspring/decimal"
)

// MockCatalog is a test implementation of domain.CatalogService backed by
// in-memory fixtures. Zero value is usable: unknown products are simply
// absent, no custom prices, no unified rate.
type MockCatalog struct {
	Products     map[int64]domain.CatalogProduct
	CustomPrices map[int64]decimal.Decimal
	UnifiedRate  *decimal.Decimal

	// Overrides for error-path testing. When set, they take precedence
	// over the fixture maps.
	GetProductsByIDsFunc     func(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error)
	GetCustomPricesFunc      func(ctx context.Context, clientID int64, productIDs []int64) (map[int64]decimal.Decimal, error)
	GetClientUnifiedRateFunc func(ctx context.Context, clientID int64) (*decimal.Decimal, error)
}

// Compile-time check that MockCatalog implements domain.CatalogService.
var _ domain.CatalogService = (*MockCatalog)(nil)

func (m *MockCatalog) GetProductsByIDs(ctx context.Context, ids []int64) ([]domain.CatalogProduct, error) {
	if m.GetProductsByIDsFunc != nil {
		return m.GetProductsByIDsFunc(ctx, ids)
	}

	products := make([]domain.CatalogProduct, 0, len(ids))
	for _, id := range ids {
		if p, ok := m.Products[id]; ok {
			products = append(products, p)
		}
	}
	return products, nil
}

func (m *MockCatalog) GetCustomPrices(ctx context.Context, clientID int64, productIDs []int64) (map[int64]decimal.Decimal, error) {
	if m.GetCustomPricesFunc != nil {
		return m.GetCustomPricesFunc(ctx, clientID, productIDs)
	}

	prices := make(map[int64]decimal.Decimal)
	for _, id := range productIDs {
		if p, ok := m.CustomPrices[id]; ok {
			prices[id] = p
		}
	}
	return prices, nil
}

func (m *MockCatalog) GetClientUnifiedRate(ctx context.Context, clientID int64) (*decimal.Decimal, error) {
	if m.GetClientUnifiedRateFunc != nil {
		return m.GetClientUnifiedRateFunc(ctx, clientID)
	}
	return m.UnifiedRate, nil
}
