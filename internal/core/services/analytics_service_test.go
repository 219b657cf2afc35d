package services_test

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/mocks"
	"github.com/ca-vahid/agent-analytics/internal/core/services"
)

func fixtureDataset() *domain.Dataset {
	tickets := []domain.Ticket{
		{ID: "1", CreatedDate: "2024-01-10T09:00:00Z", YearMonth: "2024-01", Team: "Helpdesk", AgentName: "Avery", Category: "Hardware", Source: "Email", Priority: "High"},
		{ID: "2", CreatedDate: "2024-01-12T09:00:00Z", YearMonth: "2024-01", Team: "Helpdesk", AgentName: "Jordan", Category: "Software", Source: "Portal", Priority: "Low"},
		{ID: "3", CreatedDate: "2024-03-01T09:00:00Z", YearMonth: "2024-03", Team: "Infrastructure", AgentName: "Avery", Category: "Hardware", Source: "Email", Priority: "High"},
		{ID: "4", CreatedDate: "2024-03-02T09:00:00Z", YearMonth: "2024-03", Team: domain.CoreshackTeam, AgentName: "Sam", Category: "Access", Source: "Phone", Priority: "Medium"},
	}
	return &domain.Dataset{ID: uuid.New(), Name: "fixture.csv", RowCount: len(tickets), Tickets: tickets}
}

func TestAnalyticsService_Summary(t *testing.T) {
	ctx := context.Background()
	dataset := fixtureDataset()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, dataset.ID).Return(dataset, nil)

	svc := services.NewAnalyticsService(mockRepo)

	summary, err := svc.Summary(ctx, dataset.ID)

	require.NoError(t, err)
	assert.Equal(t, 4, summary.TotalTickets)
	assert.Equal(t, "Helpdesk", summary.TopTeam)
	assert.Equal(t, "Avery", summary.TopAgent)
	assert.Equal(t, "Hardware", summary.TopCategory)
	assert.Equal(t, "2024-01", summary.FirstDate)
	assert.Equal(t, "2024-03", summary.LastDate)

	// Gap filling inserts the empty February.
	require.Len(t, summary.MonthlyVolume, 3)
	assert.Equal(t, domain.SeriesPoint{Period: "2024-02", Value: 0}, summary.MonthlyVolume[1])
}

func TestAnalyticsService_Distribution(t *testing.T) {
	ctx := context.Background()
	dataset := fixtureDataset()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, dataset.ID).Return(dataset, nil)

	svc := services.NewAnalyticsService(mockRepo)

	buckets, err := svc.Distribution(ctx, dataset.ID, domain.DimensionPriority)

	require.NoError(t, err)
	require.Len(t, buckets, 3)
	assert.Equal(t, "High", buckets[0].Label)
	assert.Equal(t, 2, buckets[0].Count)
	assert.Equal(t, 50, buckets[0].Percentage)
}

func TestAnalyticsService_Volume(t *testing.T) {
	ctx := context.Background()
	dataset := fixtureDataset()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, dataset.ID).Return(dataset, nil)

	svc := services.NewAnalyticsService(mockRepo)

	points, err := svc.Volume(ctx, dataset.ID, domain.GranularityMonthly)

	require.NoError(t, err)
	assert.Equal(t, []domain.SeriesPoint{
		{Period: "2024-01", Value: 2},
		{Period: "2024-02", Value: 0},
		{Period: "2024-03", Value: 2},
	}, points)
}

func TestAnalyticsService_Breakdown(t *testing.T) {
	ctx := context.Background()
	dataset := fixtureDataset()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, dataset.ID).Return(dataset, nil)

	svc := services.NewAnalyticsService(mockRepo)

	t.Run("team scope carries the rollup", func(t *testing.T) {
		breakdown, err := svc.Breakdown(ctx, dataset.ID, domain.GranularityMonthly, domain.ScopeTeam)

		require.NoError(t, err)
		assert.Equal(t, 2, breakdown["2024-01"][domain.ITTeamRollup])
		assert.Equal(t, 1, breakdown["2024-03"][domain.ITTeamRollup])
		assert.Equal(t, 1, breakdown["2024-03"][domain.CoreshackTeam])
	})

	t.Run("agent scope counts individuals", func(t *testing.T) {
		breakdown, err := svc.Breakdown(ctx, dataset.ID, domain.GranularityMonthly, domain.ScopeAgent)

		require.NoError(t, err)
		assert.Equal(t, 1, breakdown["2024-01"]["Avery"])
		assert.Equal(t, 1, breakdown["2024-03"]["Avery"])
	})
}

func TestAnalyticsService_Options(t *testing.T) {
	ctx := context.Background()
	dataset := fixtureDataset()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, dataset.ID).Return(dataset, nil)

	svc := services.NewAnalyticsService(mockRepo)

	// Narrow the session filter first; options must still cover the whole set.
	teams := []string{"Helpdesk"}
	svc.UpdateFilter(dataset.ID, domain.FilterPatch{Teams: &teams})

	options, err := svc.Options(ctx, dataset.ID)

	require.NoError(t, err)
	assert.Equal(t, []string{domain.CoreshackTeam, "Helpdesk", "Infrastructure"}, options.Teams)
	assert.Equal(t, []string{"Avery", "Jordan", "Sam"}, options.Agents)
	assert.Equal(t, []string{"Access", "Hardware", "Software"}, options.Categories)
	assert.Equal(t, []string{"Email", "Phone", "Portal"}, options.Sources)
	assert.Equal(t, []string{"High", "Low", "Medium"}, options.Priorities)
}

func TestAnalyticsService_FilterState(t *testing.T) {
	ctx := context.Background()
	dataset := fixtureDataset()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, dataset.ID).Return(dataset, nil)

	svc := services.NewAnalyticsService(mockRepo)

	t.Run("updates apply to subsequent queries", func(t *testing.T) {
		teams := []string{"Helpdesk"}
		svc.UpdateFilter(dataset.ID, domain.FilterPatch{Teams: &teams})

		summary, err := svc.Summary(ctx, dataset.ID)
		require.NoError(t, err)
		assert.Equal(t, 2, summary.TotalTickets)
	})

	t.Run("patches merge over previous state", func(t *testing.T) {
		agents := []string{"Avery"}
		merged := svc.UpdateFilter(dataset.ID, domain.FilterPatch{Agents: &agents})

		assert.Equal(t, []string{"Helpdesk"}, merged.Teams)
		assert.Equal(t, []string{"Avery"}, merged.Agents)

		summary, err := svc.Summary(ctx, dataset.ID)
		require.NoError(t, err)
		assert.Equal(t, 1, summary.TotalTickets)
	})

	t.Run("reset clears everything", func(t *testing.T) {
		cleared := svc.ResetFilter(dataset.ID)
		assert.Equal(t, domain.Filter{}, cleared)

		summary, err := svc.Summary(ctx, dataset.ID)
		require.NoError(t, err)
		assert.Equal(t, 4, summary.TotalTickets)
	})

	t.Run("sessions are independent per dataset", func(t *testing.T) {
		other := uuid.New()
		teams := []string{"Infrastructure"}
		svc.UpdateFilter(other, domain.FilterPatch{Teams: &teams})

		assert.Empty(t, svc.Filter(dataset.ID).Teams)
	})
}

func TestAnalyticsService_MissingDataset(t *testing.T) {
	ctx := context.Background()
	id := uuid.New()

	mockRepo := mocks.NewMockDatasetRepository()
	mockRepo.On("Get", ctx, id).Return(nil, apperrors.ErrDatasetNotFound)

	svc := services.NewAnalyticsService(mockRepo)

	_, err := svc.Summary(ctx, id)
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)
}
