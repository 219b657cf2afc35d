package postgres

import (
	"context"
	"errors"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// DatasetRepository is the secondary adapter for dataset persistence.
type DatasetRepository struct {
	pool *pgxpool.Pool
}

var _ ports.DatasetRepository = (*DatasetRepository)(nil)

// NewDatasetRepository creates a new dataset repository.
func NewDatasetRepository(pool *pgxpool.Pool) *DatasetRepository {
	return &DatasetRepository{pool: pool}
}

// Save persists a dataset and its tickets in one transaction. Tickets are
// bulk-loaded with COPY; uploads routinely carry tens of thousands of rows.
func (r *DatasetRepository) Save(ctx context.Context, dataset *domain.Dataset) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin dataset save: %w", err)
	}
	defer tx.Rollback(ctx)

	_, err = tx.Exec(ctx,
		`INSERT INTO datasets (id, name, row_count, uploaded_at) VALUES ($1, $2, $3, $4)`,
		dataset.ID, dataset.Name, dataset.RowCount, dataset.UploadedAt,
	)
	if err != nil {
		return fmt.Errorf("insert dataset: %w", err)
	}

	rows := make([][]interface{}, 0, len(dataset.Tickets))
	for _, t := range dataset.Tickets {
		rows = append(rows, []interface{}{
			dataset.ID, t.ID, t.CreatedDate, t.Team, t.AgentName,
			t.Category, t.Subject, t.Source, t.Priority, t.Status, t.YearMonth,
		})
	}

	_, err = tx.CopyFrom(ctx,
		pgx.Identifier{"tickets"},
		[]string{"dataset_id", "external_id", "created_date", "team", "agent_name",
			"category", "subject", "source", "priority", "status", "year_month"},
		pgx.CopyFromRows(rows),
	)
	if err != nil {
		return fmt.Errorf("copy tickets: %w", err)
	}

	return tx.Commit(ctx)
}

// Get loads a dataset with its tickets in upload order.
func (r *DatasetRepository) Get(ctx context.Context, id uuid.UUID) (*domain.Dataset, error) {
	dataset := &domain.Dataset{}
	err := r.pool.QueryRow(ctx,
		`SELECT id, name, row_count, uploaded_at FROM datasets WHERE id = $1`, id,
	).Scan(&dataset.ID, &dataset.Name, &dataset.RowCount, &dataset.UploadedAt)
	if err != nil {
		if errors.Is(err, pgx.ErrNoRows) {
			return nil, apperrors.ErrDatasetNotFound
		}
		return nil, fmt.Errorf("select dataset: %w", err)
	}

	rows, err := r.pool.Query(ctx,
		`SELECT external_id, created_date, team, agent_name, category, subject,
		        source, priority, status, year_month
		 FROM tickets WHERE dataset_id = $1 ORDER BY seq`, id)
	if err != nil {
		return nil, fmt.Errorf("select tickets: %w", err)
	}
	defer rows.Close()

	tickets := make([]domain.Ticket, 0, dataset.RowCount)
	for rows.Next() {
		var t domain.Ticket
		if err := rows.Scan(&t.ID, &t.CreatedDate, &t.Team, &t.AgentName,
			&t.Category, &t.Subject, &t.Source, &t.Priority, &t.Status, &t.YearMonth); err != nil {
			return nil, fmt.Errorf("scan ticket: %w", err)
		}
		tickets = append(tickets, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate tickets: %w", err)
	}

	dataset.Tickets = tickets
	return dataset, nil
}

// Delete removes a dataset. Tickets go with it via ON DELETE CASCADE.
func (r *DatasetRepository) Delete(ctx context.Context, id uuid.UUID) error {
	tag, err := r.pool.Exec(ctx, `DELETE FROM datasets WHERE id = $1`, id)
	if err != nil {
		return fmt.Errorf("delete dataset: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return apperrors.ErrDatasetNotFound
	}
	return nil
}

// List returns dataset metadata, newest first, without loading tickets.
func (r *DatasetRepository) List(ctx context.Context) ([]*domain.Dataset, error) {
	rows, err := r.pool.Query(ctx,
		`SELECT id, name, row_count, uploaded_at FROM datasets ORDER BY uploaded_at DESC`)
	if err != nil {
		return nil, fmt.Errorf("list datasets: %w", err)
	}
	defer rows.Close()

	var datasets []*domain.Dataset
	for rows.Next() {
		d := &domain.Dataset{}
		if err := rows.Scan(&d.ID, &d.Name, &d.RowCount, &d.UploadedAt); err != nil {
			return nil, fmt.Errorf("scan dataset: %w", err)
		}
		datasets = append(datasets, d)
	}
	return datasets, rows.Err()
}
