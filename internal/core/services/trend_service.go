package services

import (
	"context"
	"math"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
	"github.com/ca-vahid/agent-analytics/internal/core/stats"
)

// FilterSource exposes the session filter state the trend queries share with
// the analytics endpoints. AnalyticsService satisfies it.
type FilterSource interface {
	Filter(datasetID uuid.UUID) domain.Filter
}

// TrendService produces per-entity forecasts over a dataset session. It reads
// the same filter state the analytics endpoints use, so a forecast always
// covers exactly the tickets the dashboard currently shows.
type TrendService struct {
	datasets ports.DatasetRepository
	filters  FilterSource

	defaultHorizon int
	maxHorizon     int
}

var _ ports.TrendService = (*TrendService)(nil)

// NewTrendService creates a new trend service. defaultHorizon applies when a
// request omits the horizon; maxHorizon caps what a request may ask for.
func NewTrendService(datasets ports.DatasetRepository, filters FilterSource, defaultHorizon, maxHorizon int) *TrendService {
	return &TrendService{
		datasets:       datasets,
		filters:        filters,
		defaultHorizon: defaultHorizon,
		maxHorizon:     maxHorizon,
	}
}

// Forecast fits the requested model to each named entity's per-period series
// and projects it forward. Every returned forecast shares the dataset's period
// axis; entities with no tickets in a period contribute an explicit zero, so
// the model sees the gap instead of a shortened series.
func (s *TrendService) Forecast(ctx context.Context, params ports.TrendParams) ([]domain.EntityForecast, error) {
	if !domain.ValidTrendScope(params.Scope) {
		return nil, apperrors.ErrInvalidScope
	}
	if !domain.ValidGranularity(params.Granularity) {
		return nil, apperrors.ErrInvalidGranularity
	}
	if !domain.ValidForecastMethod(params.Method) {
		return nil, apperrors.ErrInvalidMethod
	}
	if len(params.Names) == 0 {
		return nil, apperrors.ErrNoNames
	}

	horizon := params.Horizon
	if horizon == 0 {
		horizon = s.defaultHorizon
	}
	if horizon < 1 || (s.maxHorizon > 0 && horizon > s.maxHorizon) {
		return nil, apperrors.ErrInvalidHorizon
	}

	dataset, err := s.datasets.Get(ctx, params.DatasetID)
	if err != nil {
		return nil, err
	}
	tickets := s.filters.Filter(params.DatasetID).Apply(dataset.Tickets)

	var breakdown domain.PeriodBreakdown
	if params.Scope == domain.ScopeTeam {
		breakdown = stats.GroupByPeriodAndTeam(tickets, params.Granularity)
	} else {
		breakdown = stats.GroupByPeriodAndAgent(tickets, params.Granularity)
	}

	forecasts := make([]domain.EntityForecast, 0, len(params.Names))
	for _, name := range params.Names {
		actuals := stats.FillGaps(stats.SeriesFor(breakdown, name))

		series := make([]float64, 0, len(actuals))
		for _, p := range actuals {
			series = append(series, float64(p.Value))
		}

		result := stats.Forecast(series, horizon, params.Method)

		periods := forecastPeriods(actuals, horizon)
		values := make([]int, 0, len(result.Values))
		for _, v := range result.Values {
			values = append(values, chartValue(v))
		}

		forecasts = append(forecasts, domain.EntityForecast{
			Name:            name,
			Actuals:         actuals,
			ForecastPeriods: periods,
			ForecastValues:  values,
			Result:          result,
		})
	}
	return forecasts, nil
}

// forecastPeriods labels the projection by walking forward from the last
// observed period. With no actuals there is nothing to anchor on and the
// labels are empty strings.
func forecastPeriods(actuals []domain.SeriesPoint, horizon int) []string {
	periods := make([]string, horizon)
	if len(actuals) == 0 {
		return periods
	}
	cur := actuals[len(actuals)-1].Period
	for i := range periods {
		cur = domain.NextPeriod(cur)
		periods[i] = cur
	}
	return periods
}

// chartValue converts a raw model output into a chart-ready count: rounded,
// never below zero.
func chartValue(v float64) int {
	if v < 0 {
		return 0
	}
	return int(math.Round(v))
}
