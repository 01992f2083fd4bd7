package api

import (
	"fmt"
	"math"
	"net/http"
	"net/url"
	"strconv"
	"strings"

	service "github.com/okian/comparador/internal/app"
	"github.com/okian/comparador/internal/domain/types"
	"github.com/okian/comparador/pkg/logger"
)

// Query parameter names.
const (
	paramSource        = "source"
	paramModel         = "modelo"
	paramPosition      = "estado"
	paramCVTolerance   = "toleranciaCv"
	paramYearTolerance = "toleranciaAño"
	allValues          = "all"
)

// PricingHandler serves the pricing analysis routes.
type PricingHandler struct {
	deps Dependencies
	log  logger.Logger
}

// NewPricingHandler creates a new pricing handler.
func NewPricingHandler(deps Dependencies, log logger.Logger) *PricingHandler {
	return &PricingHandler{deps: deps, log: log}
}

// HandleList handles GET /pricing-analysis requests.
func (h *PricingHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	report, err := h.deps.Analyze(r.Context(), q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, toListResponse(report))
}

// HandleVehicle handles GET /pricing-analysis/{id} requests.
func (h *PricingHandler) HandleVehicle(w http.ResponseWriter, r *http.Request) {
	id := strings.TrimSpace(r.PathValue("id"))
	if id == "" {
		h.fail(w, r, fmt.Errorf("%w: missing vehicle id", ErrBadRequest))
		return
	}
	q, err := parseQuery(r.URL.Query())
	if err != nil {
		h.fail(w, r, err)
		return
	}
	a, err := h.deps.AnalyzeVehicle(r.Context(), id, q)
	if err != nil {
		h.fail(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, detailResponse{Success: true, Data: toPriceAnalysis(a)})
}

func (h *PricingHandler) fail(w http.ResponseWriter, r *http.Request, err error) {
	status, summary := statusFor(err)
	if status >= http.StatusInternalServerError {
		h.log.Error(r.Context(), "pricing analysis failed",
			logger.String("path", r.URL.Path),
			logger.String("request_id", RequestID(r.Context())),
			logger.Error(err),
		)
	}
	writeError(w, status, summary, err)
}

// parseQuery reads the filter and tolerance parameters. "all" and empty
// values mean no filter.
func parseQuery(v url.Values) (service.Query, error) {
	var q service.Query
	if s := strings.TrimSpace(v.Get(paramSource)); s != "" && !strings.EqualFold(s, allValues) {
		q.Source = s
	}
	if m := strings.TrimSpace(v.Get(paramModel)); m != "" && !strings.EqualFold(m, allValues) {
		q.Model = m
	}
	if p := strings.TrimSpace(v.Get(paramPosition)); p != "" && !strings.EqualFold(p, allValues) {
		pos, err := types.ParsePosition(p)
		if err != nil {
			return q, fmt.Errorf("%w: %s: %v", ErrBadRequest, paramPosition, err)
		}
		q.Position = pos
	}
	if s := strings.TrimSpace(v.Get(paramCVTolerance)); s != "" {
		n, err := strconv.Atoi(s)
		if err != nil || n < 0 {
			return q, fmt.Errorf("%w: %s must be a non-negative integer, got %q", ErrBadRequest, paramCVTolerance, s)
		}
		q.CVTolerance = &n
	}
	if s := strings.TrimSpace(v.Get(paramYearTolerance)); s != "" {
		f, err := strconv.ParseFloat(s, 64)
		if err != nil || f < 0 || math.IsNaN(f) || math.IsInf(f, 0) {
			return q, fmt.Errorf("%w: %s must be a non-negative number, got %q", ErrBadRequest, paramYearTolerance, s)
		}
		q.YearTolerance = &f
	}
	return q, nil
}
