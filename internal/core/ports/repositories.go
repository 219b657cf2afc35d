package ports

import (
	"context"

	"github.com/google/uuid"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
)

// DatasetRepository is the persistence port for uploaded datasets. The core
// never touches storage directly; the wiring layer injects either the
// postgres adapter or the in-memory store.
type DatasetRepository interface {
	Save(ctx context.Context, dataset *domain.Dataset) error
	Get(ctx context.Context, id uuid.UUID) (*domain.Dataset, error)
	Delete(ctx context.Context, id uuid.UUID) error
	List(ctx context.Context) ([]*domain.Dataset, error)
}
