package services

import (
	"context"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// IngestService turns raw upload rows into a stored dataset. Normalization
// never rejects individual rows; malformed dates degrade to "Unknown" period
// keys downstream so the dashboard can always render something.
type IngestService struct {
	datasets    ports.DatasetRepository
	broadcaster ports.EventBroadcaster
	maxRows     int
}

var _ ports.IngestService = (*IngestService)(nil)

// NewIngestService creates a new ingest service. maxRows <= 0 disables the
// row cap.
func NewIngestService(datasets ports.DatasetRepository, broadcaster ports.EventBroadcaster, maxRows int) *IngestService {
	return &IngestService{
		datasets:    datasets,
		broadcaster: broadcaster,
		maxRows:     maxRows,
	}
}

// Ingest normalizes the rows, persists the dataset, and notifies connected
// dashboard clients.
func (s *IngestService) Ingest(ctx context.Context, params ports.IngestParams) (*domain.Dataset, error) {
	if len(params.Rows) == 0 {
		return nil, apperrors.ErrEmptyUpload
	}
	if s.maxRows > 0 && len(params.Rows) > s.maxRows {
		return nil, apperrors.ErrTooManyRows
	}

	tickets := domain.NormalizeTickets(params.Rows)
	dataset := domain.NewDataset(params.Name, tickets)

	if err := s.datasets.Save(ctx, dataset); err != nil {
		return nil, err
	}

	_ = s.broadcaster.Broadcast(domain.Event{
		Type:      domain.EventDatasetIngested,
		DatasetID: dataset.ID,
		Payload:   map[string]interface{}{"name": dataset.Name, "rows": dataset.RowCount},
	})

	return dataset, nil
}
