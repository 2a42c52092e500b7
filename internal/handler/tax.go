package handler

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"strconv"

	"github.com/contabilhub/tributo/internal/domain"
	"github.com/contabilhub/tributo/internal/telemetry"
)

// TaxHandler serves the tax calculation and simulation endpoints.
type TaxHandler struct {
	calculator  domain.TaxCalculator
	simulations domain.SimulationService
	metrics     *telemetry.TaxMetrics
	logger      *slog.Logger
}

// NewTaxHandler creates a new tax handler. Metrics may be nil to disable
// business instrumentation.
func NewTaxHandler(
	calculator domain.TaxCalculator,
	simulations domain.SimulationService,
	metrics *telemetry.TaxMetrics,
	logger *slog.Logger,
) *TaxHandler {
	if logger == nil {
		logger = slog.Default()
	}
	return &TaxHandler{
		calculator:  calculator,
		simulations: simulations,
		metrics:     metrics,
		logger:      logger,
	}
}

// Calculate handles POST /tax/calculate.
func (h *TaxHandler) Calculate(w http.ResponseWriter, r *http.Request) {
	var req domain.CalculationRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	result, err := h.calculator.Calculate(r.Context(), req)
	if err != nil {
		h.logError(r, "tax.calculate", err)
		h.countFailure(err)
		ErrorResponse(w, r, err)
		return
	}

	h.countCalculation(req, result)
	respondJSON(w, http.StatusOK, result)
}

// saveSimulationRequest is the POST /tax/simulations payload. A
// client-supplied result is never trusted; the engine recomputes before
// saving.
type saveSimulationRequest struct {
	Name     string                    `json:"name"`
	ClientID int64                     `json:"clientId"`
	ActorID  int64                     `json:"actorId"`
	Request  domain.CalculationRequest `json:"request"`

	// Accepted for wire compatibility, ignored.
	Result json.RawMessage `json:"result,omitempty"`
}

// SaveSimulation handles POST /tax/simulations. The calculation is rerun
// server-side and the recomputed result is what gets persisted.
func (h *TaxHandler) SaveSimulation(w http.ResponseWriter, r *http.Request) {
	var req saveSimulationRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var fieldErr error
	if req.Name == "" {
		fieldErr = domain.AddFieldError(fieldErr, "name", "is required")
	}
	if req.ClientID <= 0 {
		fieldErr = domain.AddFieldError(fieldErr, "clientId", "is required")
	}
	if fieldErr != nil {
		ErrorResponse(w, r, fieldErr)
		return
	}

	// The saved simulation belongs to the named client regardless of any
	// clientId inside the calculation request.
	req.Request.ClientID = &req.ClientID

	result, err := h.calculator.Calculate(r.Context(), req.Request)
	if err != nil {
		h.logError(r, "simulation.save", err)
		h.countFailure(err)
		ErrorResponse(w, r, err)
		return
	}

	id, err := h.simulations.Save(r.Context(), domain.SaveSimulationParams{
		Name:     req.Name,
		ClientID: req.ClientID,
		ActorID:  req.ActorID,
		Request:  req.Request,
		Result:   *result,
	})
	if err != nil {
		h.logError(r, "simulation.save", err)
		ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SimulationsSaved.Inc()
	}
	respondJSON(w, http.StatusCreated, map[string]int64{"simulationId": id})
}

// GetSimulation handles GET /tax/simulations/{id}.
func (h *TaxHandler) GetSimulation(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	sim, err := h.simulations.Get(r.Context(), id)
	if err != nil {
		h.logError(r, "simulation.get", err)
		ErrorResponse(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, sim)
}

// ListSimulationsByClient handles GET /tax/simulations/client/{clientId}.
func (h *TaxHandler) ListSimulationsByClient(w http.ResponseWriter, r *http.Request) {
	clientID, err := pathID(r, "clientId")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	sims, err := h.simulations.ListByClient(r.Context(), clientID)
	if err != nil {
		h.logError(r, "simulation.list", err)
		ErrorResponse(w, r, err)
		return
	}

	respondJSON(w, http.StatusOK, sims)
}

// materializeRequest is the POST /tax/simulations/{id}/materialize
// payload. ClientID must match the simulation's owner.
type materializeRequest struct {
	ClientID int64 `json:"clientId"`
	ActorID  int64 `json:"actorId"`
}

// Materialize handles POST /tax/simulations/{id}/materialize.
func (h *TaxHandler) Materialize(w http.ResponseWriter, r *http.Request) {
	id, err := pathID(r, "id")
	if err != nil {
		ErrorResponse(w, r, err)
		return
	}

	var req materializeRequest
	if err := decodeJSON(r, &req); err != nil {
		ErrorResponse(w, r, err)
		return
	}
	if req.ClientID <= 0 {
		ErrorResponse(w, r, domain.NewValidationError("simulation.materialize", "clientId", "is required"))
		return
	}

	doc, err := h.simulations.Materialize(r.Context(), id, req.ClientID, req.ActorID)
	if err != nil {
		h.logError(r, "simulation.materialize", err)
		if h.metrics != nil && domain.ErrorCode(err) == domain.EFORBIDDEN {
			h.metrics.MaterializationsRejected.Inc()
		}
		ErrorResponse(w, r, err)
		return
	}

	if h.metrics != nil {
		h.metrics.SimulationsMaterialized.Inc()
	}
	respondJSON(w, http.StatusCreated, doc)
}

func (h *TaxHandler) countCalculation(req domain.CalculationRequest, result *domain.CalculationResult) {
	if h.metrics == nil {
		return
	}
	h.metrics.CalculationsTotal.WithLabelValues(string(req.Regime), string(req.Operation)).Inc()
	h.metrics.CalculationLines.Observe(float64(len(result.Lines)))
	h.metrics.CalculationTaxes.Observe(result.TotalTaxes.InexactFloat64())
}

func (h *TaxHandler) countFailure(err error) {
	if h.metrics == nil {
		return
	}
	h.metrics.CalculationsFailed.WithLabelValues(domain.ErrorCode(err)).Inc()
}

func (h *TaxHandler) logError(r *http.Request, op string, err error) {
	// Client errors are expected traffic; only internal failures are
	// worth an error-level entry.
	if domain.ErrorCode(err) == domain.EINTERNAL {
		h.logger.Error("request failed",
			slog.String("op", op),
			slog.String("path", r.URL.Path),
			slog.String("error", err.Error()))
		return
	}
	h.logger.Debug("request rejected",
		slog.String("op", op),
		slog.String("path", r.URL.Path),
		slog.String("error", err.Error()))
}

func decodeJSON(r *http.Request, dst any) error {
	dec := json.NewDecoder(r.Body)
	if err := dec.Decode(dst); err != nil {
		return domain.Invalid("http.decode", "request body is not valid JSON")
	}
	return nil
}

func pathID(r *http.Request, name string) (int64, error) {
	raw := r.PathValue(name)
	id, err := strconv.ParseInt(raw, 10, 64)
	if err != nil || id <= 0 {
		return 0, domain.Invalid("http.path", name+" must be a positive integer")
	}
	return id, nil
}

func respondJSON(w http.ResponseWriter, status int, body any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(body)
}
