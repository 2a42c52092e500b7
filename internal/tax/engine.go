package tax

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"reflect"
	"strings"
	"sync"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/go-playground/validator/v10"
	"github.com/shopspring/decimal"
)

// Engine runs a full tax calculation: catalog resolution, rate
// resolution, line calculation, and aggregation. It is stateless and safe
// for concurrent use; all collaborators are injected at construction.
type Engine struct {
	catalog  domain.CatalogService
	resolver *Resolver
	validate *validator.Validate
	logger   *slog.Logger
}

// Compile-time check that Engine implements domain.TaxCalculator.
var _ domain.TaxCalculator = (*Engine)(nil)

// NewEngine creates a calculation engine backed by the given catalog.
func NewEngine(catalog domain.CatalogService, resolver *Resolver, logger *slog.Logger) *Engine {
	v := validator.New(validator.WithRequiredStructEnabled())

	// Report field errors under their JSON names so payload and error
	// vocabulary match.
	v.RegisterTagNameFunc(func(fld reflect.StructField) string {
		name := strings.SplitN(fld.Tag.Get("json"), ",", 2)[0]
		if name == "-" {
			return ""
		}
		return name
	})

	return &Engine{
		catalog:  catalog,
		resolver: resolver,
		validate: v,
		logger:   logger,
	}
}

// Calculate computes taxes for the request. Result lines preserve request
// order. A missing product aborts the whole calculation.
func (e *Engine) Calculate(ctx context.Context, req domain.CalculationRequest) (*domain.CalculationResult, error) {
	if len(req.Lines) == 0 {
		return nil, domain.ErrEmptyOrder
	}
	if err := e.validateRequest(req); err != nil {
		return nil, err
	}

	products, prices, unifiedRate, err := e.loadCatalogData(ctx, req)
	if err != nil {
		return nil, err
	}

	lines := make([]domain.CalculatedLine, 0, len(req.Lines))
	for _, reqLine := range req.Lines {
		product, ok := products[reqLine.ProductID]
		if !ok {
			e.logger.Warn("calculation aborted: unknown product",
				slog.Int64("product_id", reqLine.ProductID))
			return nil, domain.ErrProductNotFound
		}

		rates := e.resolver.Resolve(RateParams{
			Regime:            req.Regime,
			Operation:         req.Operation,
			OriginState:       req.OriginState,
			DestinationState:  req.DestinationState,
			ProductType:       product.Type,
			NCM:               coalesce(reqLine.NCM, product.NCM),
			ClientUnifiedRate: unifiedRate,
		})

		// Backfill the CFOP before calculating so the calculated line
		// carries the code the draft document will need.
		if reqLine.CFOP == "" && product.CFOP == "" {
			reqLine.CFOP = DefaultCFOP(req.Operation, req.OriginState, req.DestinationState)
		}

		var customPrice *decimal.Decimal
		if p, ok := prices[reqLine.ProductID]; ok {
			customPrice = &p
		}

		lines = append(lines, CalculateLine(reqLine, product, customPrice, rates))
	}

	return Aggregate(lines, req.Freight, req.Insurance, req.OtherCosts)
}

// loadCatalogData batch-loads everything the calculation needs from the
// catalog: products in one query, and (when a client is referenced) its
// custom prices and unified rate concurrently with the product load. The
// two loads are independent, so waiting on them in parallel keeps the
// request at two round-trip latencies regardless of line count.
func (e *Engine) loadCatalogData(ctx context.Context, req domain.CalculationRequest) (map[int64]domain.CatalogProduct, map[int64]decimal.Decimal, *decimal.Decimal, error) {
	ids := uniqueProductIDs(req.Lines)

	var (
		wg sync.WaitGroup

		products   []domain.CatalogProduct
		productErr error

		prices      map[int64]decimal.Decimal
		unifiedRate *decimal.Decimal
		clientErr   error
	)

	wg.Add(1)
	go func() {
		defer wg.Done()
		products, productErr = e.catalog.GetProductsByIDs(ctx, ids)
	}()

	if req.ClientID != nil {
		wg.Add(1)
		go func() {
			defer wg.Done()
			prices, clientErr = e.catalog.GetCustomPrices(ctx, *req.ClientID, ids)
			if clientErr != nil {
				return
			}
			unifiedRate, clientErr = e.catalog.GetClientUnifiedRate(ctx, *req.ClientID)
		}()
	}

	wg.Wait()

	if productErr != nil {
		return nil, nil, nil, domain.Internal(productErr, "tax.calculate", "failed to load products")
	}
	if clientErr != nil {
		return nil, nil, nil, domain.Internal(clientErr, "tax.calculate", "failed to load client prices")
	}

	byID := make(map[int64]domain.CatalogProduct, len(products))
	for _, p := range products {
		byID[p.ID] = p
	}

	return byID, prices, unifiedRate, nil
}

// validateRequest combines struct-tag validation with the decimal checks
// tags cannot express. All failures are reported together, field by
// field.
func (e *Engine) validateRequest(req domain.CalculationRequest) error {
	var fieldErr error

	if err := e.validate.Struct(req); err != nil {
		var verrs validator.ValidationErrors
		if !errors.As(err, &verrs) {
			return domain.Internal(err, "tax.validate", "request validation failed")
		}
		for _, fe := range verrs {
			fieldErr = domain.AddFieldError(fieldErr, trimNamespace(fe.Namespace()), validationMessage(fe))
		}
	}

	for i, line := range req.Lines {
		if !line.Quantity.IsPositive() {
			fieldErr = domain.AddFieldError(fieldErr, fmt.Sprintf("lines[%d].quantity", i), "must be greater than zero")
		}
		if line.UnitValue != nil && line.UnitValue.IsNegative() {
			fieldErr = domain.AddFieldError(fieldErr, fmt.Sprintf("lines[%d].unitValue", i), "must not be negative")
		}
		if line.Discount.IsNegative() {
			fieldErr = domain.AddFieldError(fieldErr, fmt.Sprintf("lines[%d].discount", i), "must not be negative")
		}
	}

	if req.Freight.IsNegative() {
		fieldErr = domain.AddFieldError(fieldErr, "freight", "must not be negative")
	}
	if req.Insurance.IsNegative() {
		fieldErr = domain.AddFieldError(fieldErr, "insurance", "must not be negative")
	}
	if req.OtherCosts.IsNegative() {
		fieldErr = domain.AddFieldError(fieldErr, "otherCosts", "must not be negative")
	}

	return fieldErr
}

func uniqueProductIDs(lines []domain.RequestLine) []int64 {
	seen := make(map[int64]bool, len(lines))
	ids := make([]int64, 0, len(lines))
	for _, line := range lines {
		if !seen[line.ProductID] {
			seen[line.ProductID] = true
			ids = append(ids, line.ProductID)
		}
	}
	return ids
}

// trimNamespace strips the root struct name from a validator namespace:
// "CalculationRequest.lines[0].productId" becomes "lines[0].productId".
func trimNamespace(ns string) string {
	if i := strings.Index(ns, "."); i >= 0 {
		return ns[i+1:]
	}
	return ns
}

func validationMessage(fe validator.FieldError) string {
	switch fe.Tag() {
	case "required":
		return "is required"
	case "oneof":
		return fmt.Sprintf("must be one of: %s", fe.Param())
	case "len":
		return fmt.Sprintf("must be exactly %s characters", fe.Param())
	case "alpha":
		return "must contain only letters"
	case "min":
		return fmt.Sprintf("must have at least %s entries", fe.Param())
	case "gt":
		return fmt.Sprintf("must be greater than %s", fe.Param())
	default:
		return fmt.Sprintf("failed %s validation", fe.Tag())
	}
}
