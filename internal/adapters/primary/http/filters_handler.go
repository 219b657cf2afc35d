package http

import (
	"encoding/json"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"

	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// FiltersHandler manages the per-session filter state. Updates are partial:
// a key absent from the PATCH body keeps its previous value, an explicit null
// or empty list clears it.
type FiltersHandler struct {
	analyticsService ports.AnalyticsService
	broadcaster      ports.EventBroadcaster
	errorHandler     *ErrorHandler
	logger           *slog.Logger
}

// NewFiltersHandler creates a new filters handler
func NewFiltersHandler(
	analyticsService ports.AnalyticsService,
	broadcaster ports.EventBroadcaster,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
) *FiltersHandler {
	return &FiltersHandler{
		analyticsService: analyticsService,
		broadcaster:      broadcaster,
		errorHandler:     errorHandler,
		logger:           logger.With("handler", "filters"),
	}
}

// RegisterRoutes sets up the routing for the filter endpoints.
func (h *FiltersHandler) RegisterRoutes(r chi.Router) {
	r.Get("/", h.HandleGet)
	r.Patch("/", h.HandleUpdate)
	r.Delete("/", h.HandleReset)
}

// --- Request/Response DTOs ---

// FilterResponse is the wire form of the active filter state.
type FilterResponse struct {
	DateFrom   *string  `json:"dateFrom"`
	DateTo     *string  `json:"dateTo"`
	Teams      []string `json:"teams"`
	Categories []string `json:"categories"`
	Agents     []string `json:"agents"`
	Sources    []string `json:"sources"`
	Priorities []string `json:"priorities"`
}

func toFilterResponse(f domain.Filter) FilterResponse {
	resp := FilterResponse{
		Teams:      emptyIfNil(f.Teams),
		Categories: emptyIfNil(f.Categories),
		Agents:     emptyIfNil(f.Agents),
		Sources:    emptyIfNil(f.Sources),
		Priorities: emptyIfNil(f.Priorities),
	}
	if f.DateFrom != nil {
		s := f.DateFrom.Format(time.RFC3339)
		resp.DateFrom = &s
	}
	if f.DateTo != nil {
		s := f.DateTo.Format(time.RFC3339)
		resp.DateTo = &s
	}
	return resp
}

func emptyIfNil(values []string) []string {
	if values == nil {
		return []string{}
	}
	return values
}

// HandleGet returns the session's current filter state.
func (h *FiltersHandler) HandleGet(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := sessionDatasetOrFail(w, r, h.errorHandler)
	if !ok {
		return
	}

	WriteSuccess(w, toFilterResponse(h.analyticsService.Filter(datasetID)))
}

// HandleUpdate merges a partial filter update over the session state and
// notifies connected dashboard clients.
func (h *FiltersHandler) HandleUpdate(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := sessionDatasetOrFail(w, r, h.errorHandler)
	if !ok {
		return
	}

	// Decode to raw messages first: "absent" and "null" mean different
	// things for the date bounds.
	var body map[string]json.RawMessage
	if err := json.NewDecoder(r.Body).Decode(&body); err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid request body"))
		return
	}

	patch, err := buildFilterPatch(body)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	merged := h.analyticsService.UpdateFilter(datasetID, patch)
	response := toFilterResponse(merged)

	_ = h.broadcaster.Broadcast(domain.Event{
		Type:      domain.EventFiltersUpdated,
		DatasetID: datasetID,
		Payload:   response,
	})

	WriteSuccess(w, response)
}

// HandleReset clears the session's filter state.
func (h *FiltersHandler) HandleReset(w http.ResponseWriter, r *http.Request) {
	datasetID, ok := sessionDatasetOrFail(w, r, h.errorHandler)
	if !ok {
		return
	}

	cleared := h.analyticsService.ResetFilter(datasetID)
	response := toFilterResponse(cleared)

	_ = h.broadcaster.Broadcast(domain.Event{
		Type:      domain.EventFiltersReset,
		DatasetID: datasetID,
		Payload:   response,
	})

	WriteSuccess(w, response)
}

// buildFilterPatch converts the raw PATCH body into a domain patch.
func buildFilterPatch(body map[string]json.RawMessage) (domain.FilterPatch, error) {
	var patch domain.FilterPatch

	dateFrom, err := datePatchField(body, "dateFrom")
	if err != nil {
		return patch, err
	}
	patch.DateFrom = dateFrom

	dateTo, err := datePatchField(body, "dateTo")
	if err != nil {
		return patch, err
	}
	patch.DateTo = dateTo

	if patch.Teams, err = listPatchField(body, "teams"); err != nil {
		return patch, err
	}
	if patch.Categories, err = listPatchField(body, "categories"); err != nil {
		return patch, err
	}
	if patch.Agents, err = listPatchField(body, "agents"); err != nil {
		return patch, err
	}
	if patch.Sources, err = listPatchField(body, "sources"); err != nil {
		return patch, err
	}
	if patch.Priorities, err = listPatchField(body, "priorities"); err != nil {
		return patch, err
	}

	return patch, nil
}

// datePatchField reads an optional RFC3339 date bound. Absent keys return
// nil; null clears the bound.
func datePatchField(body map[string]json.RawMessage, key string) (**time.Time, error) {
	raw, present := body[key]
	if !present {
		return nil, nil
	}

	var value *string
	if err := json.Unmarshal(raw, &value); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid "+key)
	}
	if value == nil {
		var cleared *time.Time
		return &cleared, nil
	}

	t, err := time.Parse(time.RFC3339, *value)
	if err != nil {
		return nil, apperrors.NewBadRequestError(err, key+" must be an RFC3339 timestamp")
	}
	bound := &t
	return &bound, nil
}

// listPatchField reads an optional string list. Absent keys return nil; null
// clears the dimension.
func listPatchField(body map[string]json.RawMessage, key string) (*[]string, error) {
	raw, present := body[key]
	if !present {
		return nil, nil
	}

	var values []string
	if err := json.Unmarshal(raw, &values); err != nil {
		return nil, apperrors.NewBadRequestError(err, "Invalid "+key)
	}
	if values == nil {
		values = []string{}
	}
	return &values, nil
}
