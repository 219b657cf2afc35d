package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// AnalyticsHandler handles the read-side dashboard queries. Every route runs
// behind the session middleware; the dataset comes from the token, never from
// the request.
type AnalyticsHandler struct {
	analyticsService ports.AnalyticsService
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewAnalyticsHandler creates a new analytics handler
func NewAnalyticsHandler(
	analyticsService ports.AnalyticsService,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *AnalyticsHandler {
	return &AnalyticsHandler{
		analyticsService: analyticsService,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "analytics"),
	}
}

// RegisterRoutes sets up the routing for all analytics endpoints.
func (h *AnalyticsHandler) RegisterRoutes(r chi.Router) {
	r.Get("/summary", h.HandleSummary)
	r.Get("/distribution/{dimension}", h.HandleDistribution)
	r.Get("/volume", h.HandleVolume)
	r.Get("/breakdown", h.HandleBreakdown)
	r.Get("/options", h.HandleOptions)
}

// --- Response DTOs ---

// BucketResponse is one row of a single-dimension grouping.
type BucketResponse struct {
	Label      string `json:"label"`
	Count      int    `json:"count"`
	Percentage int    `json:"percentage"`
}

// SeriesPointResponse is one period of a time series.
type SeriesPointResponse struct {
	Period string `json:"period"`
	Value  int    `json:"value"`
}

// SummaryResponse is the headline card for the current filter state.
type SummaryResponse struct {
	TotalTickets  int                   `json:"totalTickets"`
	FirstDate     string                `json:"firstDate,omitempty"`
	LastDate      string                `json:"lastDate,omitempty"`
	TopTeam       string                `json:"topTeam,omitempty"`
	TopAgent      string                `json:"topAgent,omitempty"`
	TopCategory   string                `json:"topCategory,omitempty"`
	MonthlyVolume []SeriesPointResponse `json:"monthlyVolume"`
}

// OptionsResponse lists the selectable values per filter dimension.
type OptionsResponse struct {
	Teams      []string `json:"teams"`
	Categories []string `json:"categories"`
	Agents     []string `json:"agents"`
	Sources    []string `json:"sources"`
	Priorities []string `json:"priorities"`
}

func toBucketResponses(buckets []domain.AggregateBucket) []BucketResponse {
	out := make([]BucketResponse, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, BucketResponse{Label: b.Label, Count: b.Count, Percentage: b.Percentage})
	}
	return out
}

func toSeriesResponses(points []domain.SeriesPoint) []SeriesPointResponse {
	out := make([]SeriesPointResponse, 0, len(points))
	for _, p := range points {
		out = append(out, SeriesPointResponse{Period: p.Period, Value: p.Value})
	}
	return out
}

// sessionDataset pulls the dataset ID the middleware stored on the context.
func (h *AnalyticsHandler) sessionDataset(w http.ResponseWriter, r *http.Request) (uuid.UUID, bool) {
	return sessionDatasetOrFail(w, r, h.errorHandler)
}

// granularityParam reads the granularity query parameter, defaulting to
// monthly.
func granularityParam(r *http.Request) domain.Granularity {
	g := domain.Granularity(r.URL.Query().Get("granularity"))
	if g == "" {
		return domain.GranularityMonthly
	}
	return g
}

// HandleSummary serves the headline statistics card.
func (h *AnalyticsHandler) HandleSummary(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := h.sessionDataset(w, r)
	if !ok {
		return
	}

	summary, err := h.analyticsService.Summary(r.Context(), datasetID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, SummaryResponse{
		TotalTickets:  summary.TotalTickets,
		FirstDate:     summary.FirstDate,
		LastDate:      summary.LastDate,
		TopTeam:       summary.TopTeam,
		TopAgent:      summary.TopAgent,
		TopCategory:   summary.TopCategory,
		MonthlyVolume: toSeriesResponses(summary.MonthlyVolume),
	})
}

// HandleDistribution serves a single-dimension grouping.
func (h *AnalyticsHandler) HandleDistribution(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := h.sessionDataset(w, r)
	if !ok {
		return
	}

	dimension := domain.Dimension(chi.URLParam(r, "dimension"))
	if !domain.ValidDimension(dimension) {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidDimension)
		return
	}

	buckets, err := h.analyticsService.Distribution(r.Context(), datasetID, dimension)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toBucketResponses(buckets))
}

// HandleVolume serves the gap-filled per-period ticket counts.
func (h *AnalyticsHandler) HandleVolume(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := h.sessionDataset(w, r)
	if !ok {
		return
	}

	granularity := granularityParam(r)
	if !domain.ValidGranularity(granularity) {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidGranularity)
		return
	}

	points, err := h.analyticsService.Volume(r.Context(), datasetID, granularity)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteList(w, toSeriesResponses(points))
}

// HandleBreakdown serves per-period per-entity counts for the agent or team
// scope.
func (h *AnalyticsHandler) HandleBreakdown(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := h.sessionDataset(w, r)
	if !ok {
		return
	}

	granularity := granularityParam(r)
	if !domain.ValidGranularity(granularity) {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidGranularity)
		return
	}

	scope := domain.TrendScope(r.URL.Query().Get("scope"))
	if scope == "" {
		scope = domain.ScopeAgent
	}
	if !domain.ValidTrendScope(scope) {
		h.errorHandler.Handle(w, r, apperrors.ErrInvalidScope)
		return
	}

	breakdown, err := h.analyticsService.Breakdown(r.Context(), datasetID, granularity, scope)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, breakdown)
}

// HandleOptions serves the distinct values for the filter dropdowns.
func (h *AnalyticsHandler) HandleOptions(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := h.sessionDataset(w, r)
	if !ok {
		return
	}

	options, err := h.analyticsService.Options(r.Context(), datasetID)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	WriteSuccess(w, OptionsResponse{
		Teams:      options.Teams,
		Categories: options.Categories,
		Agents:     options.Agents,
		Sources:    options.Sources,
		Priorities: options.Priorities,
	})
}
