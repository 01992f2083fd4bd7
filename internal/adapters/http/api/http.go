// Package api declares HTTP contracts and route registration helpers.
package api

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"

	"github.com/prometheus/client_golang/prometheus/promhttp"

	"github.com/okian/comparador/internal/adapters/repository"
	service "github.com/okian/comparador/internal/app"
	"github.com/okian/comparador/internal/domain/pricing"
	"github.com/okian/comparador/pkg/logger"
	"github.com/okian/comparador/pkg/metrics"
)

// Dependencies required by HTTP handlers. Using an interface keeps the
// handler layer loosely coupled to the service implementation.
type Dependencies interface {
	Analyze(ctx context.Context, q service.Query) (service.Report, error)
	AnalyzeVehicle(ctx context.Context, id string, q service.Query) (pricing.Analysis, error)
}

// Server wires HTTP routes for the business API.
type Server struct {
	healthHandler  *HealthHandler
	pricingHandler *PricingHandler
}

// NewServer creates a new API server with all handlers.
func NewServer(deps Dependencies, log logger.Logger) *Server {
	if log == nil {
		log = logger.Nop()
	}
	return &Server{
		healthHandler:  NewHealthHandler(),
		pricingHandler: NewPricingHandler(deps, log.Named("api")),
	}
}

// Register attaches all HTTP routes to mux.
func (s *Server) Register(_ context.Context, mux *http.ServeMux) {
	if mux == nil {
		panic("mux is nil")
	}
	mux.HandleFunc("GET /healthz", Middleware(s.healthHandler.HandleHealth, "healthz"))
	mux.HandleFunc("GET /pricing-analysis", Middleware(s.pricingHandler.HandleList, "pricing_analysis"))
	mux.HandleFunc("GET /pricing-analysis/{id}", Middleware(s.pricingHandler.HandleVehicle, "pricing_analysis_vehicle"))
	mux.Handle("GET /metrics", promhttp.HandlerFor(metrics.GetRegistry(), promhttp.HandlerOpts{}))
}

type errorResponse struct {
	Error   string `json:"error"`
	Details string `json:"details"`
}

func writeJSON(w http.ResponseWriter, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	_ = json.NewEncoder(w).Encode(v)
}

func writeError(w http.ResponseWriter, status int, summary string, err error) {
	details := http.StatusText(status)
	if err != nil {
		details = err.Error()
	}
	writeJSON(w, status, errorResponse{Error: summary, Details: details})
}

// statusFor maps service and repository errors to a status code and summary.
func statusFor(err error) (int, string) {
	switch {
	case errors.Is(err, ErrBadRequest), errors.Is(err, service.ErrInvalidTolerance):
		return http.StatusBadRequest, "Parámetros de consulta no válidos"
	case errors.Is(err, service.ErrVehicleNotFound), errors.Is(err, repository.ErrNotFound):
		return http.StatusNotFound, "Vehículo no encontrado"
	default:
		return http.StatusInternalServerError, "Error al analizar precios"
	}
}
