package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

// IngestService defines the port for turning raw CSV rows into a stored,
// queryable dataset.
type IngestService interface {
	Ingest(ctx context.Context, params IngestParams) (*domain.Dataset, error)
}

// IngestParams carries one upload's worth of raw rows.
type IngestParams struct {
	Name string
	Rows []domain.RawRecord
}

// AnalyticsService defines the read-side port: filtered aggregations over a
// stored dataset plus the per-session filter state.
type AnalyticsService interface {
	Summary(ctx context.Context, datasetID uuid.UUID) (*domain.SummaryStats, error)
	Distribution(ctx context.Context, datasetID uuid.UUID, dim domain.Dimension) ([]domain.AggregateBucket, error)
	Volume(ctx context.Context, datasetID uuid.UUID, g domain.Granularity) ([]domain.SeriesPoint, error)
	Breakdown(ctx context.Context, datasetID uuid.UUID, g domain.Granularity, scope domain.TrendScope) (domain.PeriodBreakdown, error)
	Options(ctx context.Context, datasetID uuid.UUID) (*domain.FilterOptions, error)

	Filter(datasetID uuid.UUID) domain.Filter
	UpdateFilter(datasetID uuid.UUID, patch domain.FilterPatch) domain.Filter
	ResetFilter(datasetID uuid.UUID) domain.Filter
}

// TrendParams is one forecast request over a dataset session.
type TrendParams struct {
	DatasetID   uuid.UUID
	Scope       domain.TrendScope
	Names       []string
	Granularity domain.Granularity
	Horizon     int
	Method      domain.ForecastMethod
}

// TrendService defines the forecasting port.
type TrendService interface {
	Forecast(ctx context.Context, params TrendParams) ([]domain.EntityForecast, error)
}

// EventBroadcaster pushes dataset-scoped events to connected dashboard
// clients.
type EventBroadcaster interface {
	Broadcast(event domain.Event) error
}
