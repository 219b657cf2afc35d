package postgres

import (
	"context"
	"testing"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
)

func sampleDataset(name string) *domain.Dataset {
	return domain.NewDataset(name, []domain.Ticket{
		{ID: "T-1", CreatedDate: "2024-01-10T09:00:00Z", Team: "Helpdesk", AgentName: "Avery",
			Category: "Hardware", Subject: "Broken dock", Source: "Email", Priority: "High",
			Status: "Open", YearMonth: "2024-01"},
		{ID: "T-2", CreatedDate: "not a date", Team: "Infrastructure", AgentName: "Jordan",
			YearMonth: domain.UnknownPeriod},
	})
}

func TestDatasetRepository_SaveAndGet(t *testing.T) {
	ctx := context.Background()
	repo := NewDatasetRepository(testPool)

	dataset := sampleDataset("roundtrip.csv")
	require.NoError(t, repo.Save(ctx, dataset))

	got, err := repo.Get(ctx, dataset.ID)
	require.NoError(t, err)

	assert.Equal(t, dataset.ID, got.ID)
	assert.Equal(t, "roundtrip.csv", got.Name)
	assert.Equal(t, 2, got.RowCount)

	require.Len(t, got.Tickets, 2)
	assert.Equal(t, dataset.Tickets[0], got.Tickets[0])
	assert.Equal(t, dataset.Tickets[1], got.Tickets[1])
}

func TestDatasetRepository_GetMissing(t *testing.T) {
	ctx := context.Background()
	repo := NewDatasetRepository(testPool)

	_, err := repo.Get(ctx, uuid.New())
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)
}

func TestDatasetRepository_Delete(t *testing.T) {
	ctx := context.Background()
	repo := NewDatasetRepository(testPool)

	dataset := sampleDataset("delete-me.csv")
	require.NoError(t, repo.Save(ctx, dataset))

	require.NoError(t, repo.Delete(ctx, dataset.ID))

	_, err := repo.Get(ctx, dataset.ID)
	assert.ErrorIs(t, err, apperrors.ErrDatasetNotFound)

	// Tickets cascade with the dataset row.
	var count int
	err = testPool.QueryRow(ctx, `SELECT COUNT(*) FROM tickets WHERE dataset_id = $1`, dataset.ID).Scan(&count)
	require.NoError(t, err)
	assert.Zero(t, count)

	assert.ErrorIs(t, repo.Delete(ctx, dataset.ID), apperrors.ErrDatasetNotFound)
}

func TestDatasetRepository_List(t *testing.T) {
	ctx := context.Background()
	repo := NewDatasetRepository(testPool)

	first := sampleDataset("list-a.csv")
	second := sampleDataset("list-b.csv")
	second.UploadedAt = first.UploadedAt.Add(1)

	require.NoError(t, repo.Save(ctx, first))
	require.NoError(t, repo.Save(ctx, second))

	datasets, err := repo.List(ctx)
	require.NoError(t, err)

	names := make([]string, 0, len(datasets))
	for _, d := range datasets {
		names = append(names, d.Name)
		assert.Empty(t, d.Tickets)
	}
	assert.Contains(t, names, "list-a.csv")
	assert.Contains(t, names, "list-b.csv")
}
