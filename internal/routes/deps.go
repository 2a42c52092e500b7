package routes

import (
	"net/http"

	"github.com/contabilhub/tributo/internal/handler"
	"github.com/contabilhub/tributo/internal/router"
)

// TaxDeps contains dependencies for the tax calculation routes.
type TaxDeps struct {
	Handler *handler.TaxHandler

	// RateLimit guards the calculation endpoints; nil disables limiting.
	RateLimit router.Middleware
}

// OpsDeps contains dependencies for the operational routes.
type OpsDeps struct {
	// MetricsHandler serves the Prometheus scrape endpoint.
	MetricsHandler http.Handler

	// HealthHandler reports process and database health.
	HealthHandler http.HandlerFunc
}
