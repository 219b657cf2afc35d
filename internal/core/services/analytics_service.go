package services

import (
	"context"
	"sync"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
	"github.com/ca-vahid/agent-analytics/internal/core/stats"
)

// AnalyticsService answers the dashboard's aggregation queries over a stored
// dataset, applying the session's filter state first. The analytics core it
// delegates to is pure; this service owns the only mutable piece, the
// per-dataset filter state, which the dashboard updates incrementally.
type AnalyticsService struct {
	datasets ports.DatasetRepository

	mu      sync.RWMutex
	filters map[uuid.UUID]domain.Filter
}

var _ ports.AnalyticsService = (*AnalyticsService)(nil)

// NewAnalyticsService creates a new analytics service.
func NewAnalyticsService(datasets ports.DatasetRepository) *AnalyticsService {
	return &AnalyticsService{
		datasets: datasets,
		filters:  make(map[uuid.UUID]domain.Filter),
	}
}

// Filter returns the current filter state for a dataset session.
func (s *AnalyticsService) Filter(datasetID uuid.UUID) domain.Filter {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.filters[datasetID]
}

// UpdateFilter merges a partial update over the session's filter state and
// returns the result. Fields absent from the patch retain prior values.
func (s *AnalyticsService) UpdateFilter(datasetID uuid.UUID, patch domain.FilterPatch) domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	merged := s.filters[datasetID].Merge(patch)
	s.filters[datasetID] = merged
	return merged
}

// ResetFilter clears the session's filter state back to defaults.
func (s *AnalyticsService) ResetFilter(datasetID uuid.UUID) domain.Filter {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.filters, datasetID)
	return domain.Filter{}
}

// filteredTickets loads a dataset and applies the session filter.
func (s *AnalyticsService) filteredTickets(ctx context.Context, datasetID uuid.UUID) ([]domain.Ticket, error) {
	dataset, err := s.datasets.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return s.Filter(datasetID).Apply(dataset.Tickets), nil
}

// Summary computes the headline card: totals, observed date span, top
// team/agent/category, and the gap-filled monthly volume.
func (s *AnalyticsService) Summary(ctx context.Context, datasetID uuid.UUID) (*domain.SummaryStats, error) {
	tickets, err := s.filteredTickets(ctx, datasetID)
	if err != nil {
		return nil, err
	}

	monthly := stats.FillGaps(stats.GroupByPeriod(tickets, domain.GranularityMonthly))

	summary := &domain.SummaryStats{
		TotalTickets:  len(tickets),
		MonthlyVolume: monthly,
	}
	if len(monthly) > 0 {
		summary.FirstDate = monthly[0].Period
		summary.LastDate = monthly[len(monthly)-1].Period
	}
	if buckets := stats.GroupBy(tickets, domain.DimensionTeam); len(buckets) > 0 {
		summary.TopTeam = buckets[0].Label
	}
	if buckets := stats.GroupBy(tickets, domain.DimensionAgent); len(buckets) > 0 {
		summary.TopAgent = buckets[0].Label
	}
	if buckets := stats.GroupBy(tickets, domain.DimensionCategory); len(buckets) > 0 {
		summary.TopCategory = buckets[0].Label
	}
	return summary, nil
}

// Distribution groups the filtered tickets by one dimension.
func (s *AnalyticsService) Distribution(ctx context.Context, datasetID uuid.UUID, dim domain.Dimension) ([]domain.AggregateBucket, error) {
	tickets, err := s.filteredTickets(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return stats.GroupBy(tickets, dim), nil
}

// Volume returns the gap-filled per-period ticket counts. The trailing
// "Unknown" bucket from unparseable dates is excluded by the gap filler;
// those tickets still count in every non-period aggregation.
func (s *AnalyticsService) Volume(ctx context.Context, datasetID uuid.UUID, g domain.Granularity) ([]domain.SeriesPoint, error) {
	tickets, err := s.filteredTickets(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	return stats.FillGaps(stats.GroupByPeriod(tickets, g)), nil
}

// Breakdown returns period-by-entity counts for the agent or team scope.
func (s *AnalyticsService) Breakdown(ctx context.Context, datasetID uuid.UUID, g domain.Granularity, scope domain.TrendScope) (domain.PeriodBreakdown, error) {
	tickets, err := s.filteredTickets(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	if scope == domain.ScopeTeam {
		return stats.GroupByPeriodAndTeam(tickets, g), nil
	}
	return stats.GroupByPeriodAndAgent(tickets, g), nil
}

// Options lists distinct values per dimension for the filter dropdowns. It
// runs over the unfiltered dataset so narrowing one dimension never hides the
// other options.
func (s *AnalyticsService) Options(ctx context.Context, datasetID uuid.UUID) (*domain.FilterOptions, error) {
	dataset, err := s.datasets.Get(ctx, datasetID)
	if err != nil {
		return nil, err
	}
	tickets := dataset.Tickets
	return &domain.FilterOptions{
		Teams:      stats.UniqueValues(tickets, domain.DimensionTeam),
		Categories: stats.UniqueValues(tickets, domain.DimensionCategory),
		Agents:     stats.UniqueValues(tickets, domain.DimensionAgent),
		Sources:    stats.UniqueValues(tickets, domain.DimensionSource),
		Priorities: stats.UniqueValues(tickets, domain.DimensionPriority),
	}, nil
}
