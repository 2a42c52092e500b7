package telemetry

import (
	"github.com/prometheus/client_golang/prometheus"
	"github.com/prometheus/client_golang/prometheus/promauto"
)

// TaxMetrics holds Prometheus metrics for business-level observability of
// the calculation engine, beyond the generic HTTP metrics.
type TaxMetrics struct {
	// Calculations
	CalculationsTotal  *prometheus.CounterVec
	CalculationsFailed *prometheus.CounterVec
	CalculationLines   prometheus.Histogram
	CalculationTaxes   prometheus.Histogram

	// Simulations
	SimulationsSaved         prometheus.Counter
	SimulationsMaterialized  prometheus.Counter
	MaterializationsRejected prometheus.Counter
}

// NewTaxMetrics creates and registers the tax business metrics.
func NewTaxMetrics(namespace string) *TaxMetrics {
	if namespace == "" {
		namespace = "tributo"
	}

	subsystem := "tax"

	return &TaxMetrics{
		CalculationsTotal: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculations_total",
				Help:      "Completed tax calculations by regime and operation",
			},
			[]string{"regime", "operation"},
		),
		CalculationsFailed: promauto.NewCounterVec(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculations_failed_total",
				Help:      "Failed tax calculations by error code",
			},
			[]string{"code"},
		),
		CalculationLines: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_lines",
				Help:      "Line count per calculation request",
				Buckets:   []float64{1, 2, 5, 10, 25, 50, 100},
			},
		),
		CalculationTaxes: promauto.NewHistogram(
			prometheus.HistogramOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "calculation_taxes_brl",
				Help:      "Total taxes per calculation in BRL",
				Buckets:   []float64{1, 10, 100, 1000, 10000, 100000},
			},
		),
		SimulationsSaved: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "simulations_saved_total",
				Help:      "Simulations persisted",
			},
		),
		SimulationsMaterialized: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "simulations_materialized_total",
				Help:      "Draft documents created from simulations",
			},
		),
		MaterializationsRejected: promauto.NewCounter(
			prometheus.CounterOpts{
				Namespace: namespace,
				Subsystem: subsystem,
				Name:      "materializations_rejected_total",
				Help:      "Materializations rejected for ownership mismatch",
			},
		),
	}
}
