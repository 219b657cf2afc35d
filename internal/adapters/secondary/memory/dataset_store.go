// Package memory provides the in-memory dataset store used when no
// DATABASE_URL is configured. Datasets live for the process lifetime only,
// which matches the upload-and-explore session model of the dashboard.
package memory

import (
	"context"
	"sort"
	"sync"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// DatasetStore is a mutex-guarded map of datasets by ID.
type DatasetStore struct {
	mu       sync.RWMutex
	datasets map[uuid.UUID]*domain.Dataset
}

var _ ports.DatasetRepository = (*DatasetStore)(nil)

// NewDatasetStore creates an empty store.
func NewDatasetStore() *DatasetStore {
	return &DatasetStore{datasets: make(map[uuid.UUID]*domain.Dataset)}
}

func (s *DatasetStore) Save(ctx context.Context, dataset *domain.Dataset) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.datasets[dataset.ID] = dataset
	return nil
}

func (s *DatasetStore) Get(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	dataset, ok := s.datasets[id]
	if !ok {
		return nil, apperrors.ErrDatasetNotFound
	}
	return dataset, nil
}

func (s *DatasetStore) Delete(ctx context.Context, id uuid.UUID) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if _, ok := s.datasets[id]; !ok {
		return apperrors.ErrDatasetNotFound
	}
	delete(s.datasets, id)
	return nil
}

func (s *DatasetStore) List(ctx context.Context) ([]*domain.Dataset, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := make([]*domain.Dataset, 0, len(s.datasets))
	for _, d := range s.datasets {
		out = append(out, d)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].UploadedAt.After(out[j].UploadedAt)
	})
	return out, nil
}
