package domain

import (
	"time"

	"github.com/google/uuid"
)

// Dataset is one uploaded CSV export: a name, the normalized tickets, and
// upload metadata. The ticket slice is owned by the dataset and treated as
// immutable once ingested.
type Dataset struct {
	ID         uuid.UUID
	Name       string
	RowCount   int
	UploadedAt time.Time
	Tickets    []Ticket
}

// NewDataset builds a dataset from normalized tickets.
func NewDataset(name string, tickets []Ticket) *Dataset {
	return &Dataset{
		ID:         uuid.New(),
		Name:       name,
		RowCount:   len(tickets),
		UploadedAt: time.Now().UTC(),
		Tickets:    tickets,
	}
}

// Event types broadcast to connected dashboard clients.
const (
	EventDatasetIngested = "dataset.ingested"
	EventFiltersUpdated  = "filters.updated"
	EventFiltersReset    = "filters.reset"
)

// Event is a dataset-scoped notification pushed over the websocket hub so
// that every open dashboard tab can recompute its views.
type Event struct {
	Type      string      `json:"type"`
	DatasetID uuid.UUID   `json:"datasetId"`
	Payload   interface{} `json:"payload,omitempty"`
}
