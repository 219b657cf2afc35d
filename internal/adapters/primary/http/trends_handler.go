package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/ca-vahid/agent-analytics/internal/adapters/primary/validation"
	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// TrendsHandler serves forecast queries. The forecast runs over the session's
// current filter state, so two tabs with different filters see different
// projections for the same dataset.
type TrendsHandler struct {
	trendService ports.TrendService
	errorHandler *ErrorHandler
	logger       *slog.Logger
}

// NewTrendsHandler creates a new trends handler
func NewTrendsHandler(
	trendService ports.TrendService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *TrendsHandler {
	return &TrendsHandler{
		trendService: trendService,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "trends"),
	}
}

// RegisterRoutes sets up the routing for trend endpoints.
func (h *TrendsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/forecast", h.HandleForecast)
}

// --- Response DTOs ---

// ForecastStatsResponse carries the fitted model statistics for one entity.
type ForecastStatsResponse struct {
	Slope        float64               `json:"slope"`
	Intercept    float64               `json:"intercept"`
	R2           float64               `json:"r2"`
	Direction    domain.TrendDirection `json:"direction"`
	PeriodGrowth float64               `json:"periodGrowth"`
	TrendGrowth  float64               `json:"trendGrowth"`
}

// EntityForecastResponse is the chart-ready forecast for one agent or team.
type EntityForecastResponse struct {
	Name            string                `json:"name"`
	Actuals         []SeriesPointResponse `json:"actuals"`
	ForecastPeriods []string              `json:"forecastPeriods"`
	ForecastValues  []int                 `json:"forecastValues"`
	Stats           ForecastStatsResponse `json:"stats"`
}

func toEntityForecastResponse(f domain.EntityForecast) EntityForecastResponse {
	periods := f.ForecastPeriods
	if periods == nil {
		periods = []string{}
	}
	values := f.ForecastValues
	if values == nil {
		values = []int{}
	}
	return EntityForecastResponse{
		Name:            f.Name,
		Actuals:         toSeriesResponses(f.Actuals),
		ForecastPeriods: periods,
		ForecastValues:  values,
		Stats: ForecastStatsResponse{
			Slope:        f.Result.Slope,
			Intercept:    f.Result.Intercept,
			R2:           f.Result.R2,
			Direction:    f.Result.Direction,
			PeriodGrowth: f.Result.PeriodGrowth,
			TrendGrowth:  f.Result.TrendGrowth,
		},
	}
}

// HandleForecast serves the per-entity projections.
//
// Query parameters:
//
//	scope       agent|team (default agent)
//	names       comma-separated entity names (required)
//	granularity monthly|weekly (default monthly)
//	periods     forecast horizon, 0 means the configured default
//	method      linear|exponential (default linear)
func (h *TrendsHandler) HandleForecast(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := sessionDatasetOrFail(w, r, h.errorHandler)
	if !ok {
		return
	}

	scope := domain.TrendScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = domain.ScopeAgent
	}

	method := domain.ForecastMethod(r.URL.Query().Get("method"))
	if method == "" {
		method = domain.MethodLinear
	}

	params := ports.TrendParams{
		DatasetID:   datasetID,
		Scope:       scope,
		Names:       validation.ParseCSVQueryParam(r, "names"),
		Granularity: granularityParam(r),
		Horizon:     validation.ParseIntQueryParam(r, "periods", 0),
		Method:      method,
	}

	forecasts, err := h.trendService.Forecast(r.Context(), params)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	responses := make([]EntityForecastResponse, 0, len(forecasts))
	for _, f := range forecasts {
		responses = append(responses, toEntityForecastResponse(f))
	}
	WriteList(w, responses)
}
