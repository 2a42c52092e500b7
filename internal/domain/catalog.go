package domain

import (
	"context"
	"time"

	"github.com/shopspring/decimal"
)

// ProductType distinguishes goods from services for rate resolution:
// ISS applies to services only, while ICMS and IPI apply to goods.
type ProductType string

const (
	ProductGood    ProductType = "good"
	ProductService ProductType = "service"
)

// CatalogProduct is the catalog's view of a product. Read-only to the
// tax engine.
type CatalogProduct struct {
	ID        int64            `json:"id"`
	Code      string           `json:"code"`
	Name      string           `json:"name"`
	NCM       string           `json:"ncm"`
	CFOP      string           `json:"cfop"`
	Unit      string           `json:"unit"`
	BasePrice decimal.Decimal  `json:"basePrice"`
	CostPrice *decimal.Decimal `json:"costPrice,omitempty"`
	Type      ProductType      `json:"type"`
}

// ClientCustomPrice is a negotiated price for a (client, product) pair,
// valid within a time window. ValidUntil nil means open-ended.
type ClientCustomPrice struct {
	ClientID   int64           `json:"clientId"`
	ProductID  int64           `json:"productId"`
	Price      decimal.Decimal `json:"price"`
	ValidFrom  time.Time       `json:"validFrom"`
	ValidUntil *time.Time      `json:"validUntil,omitempty"`
}

// CatalogService resolves catalog products and client-specific prices.
// The engine batch-loads everything it needs once per request; per-line
// lookups are not part of this contract.
// Implementations: postgres.CatalogService.
type CatalogService interface {
	// GetProductsByIDs loads the given products in a single query.
	// Products that do not exist are simply absent from the result; the
	// caller decides whether that is an error.
	GetProductsByIDs(ctx context.Context, ids []int64) ([]CatalogProduct, error)

	// GetCustomPrices returns the currently valid negotiated price per
	// product for the client, keyed by product ID. Products without a
	// custom price are absent from the map.
	GetCustomPrices(ctx context.Context, clientID int64, productIDs []int64) (map[int64]decimal.Decimal, error)

	// GetClientUnifiedRate returns the client's negotiated Simples
	// Nacional unified rate, or nil when none is on record.
	GetClientUnifiedRate(ctx context.Context, clientID int64) (*decimal.Decimal, error)
}
