package routes

import (
	"github.com/contabilhub/tributo/internal/router"
)

// RegisterTaxRoutes registers the tax calculation and simulation routes.
func RegisterTaxRoutes(r *router.Router, deps TaxDeps) {
	var calcMiddleware []router.Middleware
	if deps.RateLimit != nil {
		calcMiddleware = append(calcMiddleware, deps.RateLimit)
	}

	r.Post("/tax/calculate", deps.Handler.Calculate, calcMiddleware...)

	r.Post("/tax/simulations", deps.Handler.SaveSimulation, calcMiddleware...)
	r.Get("/tax/simulations/{id}", deps.Handler.GetSimulation)
	r.Get("/tax/simulations/client/{clientId}", deps.Handler.ListSimulationsByClient)
	r.Post("/tax/simulations/{id}/materialize", deps.Handler.Materialize)
}

// RegisterOpsRoutes registers health and metrics endpoints.
func RegisterOpsRoutes(r *router.Router, deps OpsDeps) {
	r.Get("/health", deps.HealthHandler)
	r.Handle("GET", "/metrics", deps.MetricsHandler)
}
