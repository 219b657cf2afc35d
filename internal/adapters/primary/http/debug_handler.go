package http

import (
	"log/slog"
	"net/http"

	"github.com/go-chi/chi/v5"
	"golang.org/x/crypto/bcrypt"

	"github.com/ca-vahid/agent-analytics/internal/adapters/secondary/csvfile"
	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
)

// debugPreviewRows caps how many normalized tickets a parse preview returns.
const debugPreviewRows = 20

// DebugHandler exposes a CSV parse preview for troubleshooting uploads that
// normalize unexpectedly. The routes are only mounted when debug mode is
// enabled and every request must present the admin key.
type DebugHandler struct {
	adminKeyHash string
	errorHandler *ErrorHandler
	logger       *slog.Logger
	maxFileBytes int64
}

// NewDebugHandler creates a new debug handler
func NewDebugHandler(
	adminKeyHash string,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
	maxFileBytes int64,
) *DebugHandler {
	return &DebugHandler{
		adminKeyHash: adminKeyHash,
		errorHandler: errorHandler,
		logger:       logger.With("handler", "debug"),
		maxFileBytes: maxFileBytes,
	}
}

// RegisterRoutes sets up the routing for debug endpoints.
func (h *DebugHandler) RegisterRoutes(r chi.Router) {
	r.Post("/csv-parse", h.HandleCSVParse)
}

// --- Response DTOs ---

// TicketPreviewResponse is the normalized form of one parsed row.
type TicketPreviewResponse struct {
	ID          string `json:"id"`
	CreatedDate string `json:"createdDate"`
	Team        string `json:"team"`
	AgentName   string `json:"agentName"`
	Category    string `json:"category"`
	YearMonth   string `json:"yearMonth"`
}

// CSVParseResponse reports how an upload would normalize without storing it.
type CSVParseResponse struct {
	RowCount       int                     `json:"rowCount"`
	PreviewRaw     []domain.RawRecord      `json:"previewRaw"`
	PreviewTickets []TicketPreviewResponse `json:"previewTickets"`
}

// checkAdminKey compares the X-Admin-Key header against the configured hash.
func (h *DebugHandler) checkAdminKey(r *http.Request) bool {
	key := r.Header.Get("X-Admin-Key")
	if key == "" || h.adminKeyHash == "" {
		return false
	}
	return bcrypt.CompareHashAndPassword([]byte(h.adminKeyHash), []byte(key)) == nil
}

// HandleCSVParse parses a raw CSV body and returns the normalization preview.
func (h *DebugHandler) HandleCSVParse(w http.ResponseWriter, r *http.Request) {
	if !h.checkAdminKey(r) {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return
	}

	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes)

	rows, err := csvfile.Parse(r.Body)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	preview := rows
	if len(preview) > debugPreviewRows {
		preview = preview[:debugPreviewRows]
	}

	tickets := make([]TicketPreviewResponse, 0, len(preview))
	for _, t := range domain.NormalizeTickets(preview) {
		tickets = append(tickets, TicketPreviewResponse{
			ID:          t.ID,
			CreatedDate: t.CreatedDate,
			Team:        t.Team,
			AgentName:   t.AgentName,
			Category:    t.Category,
			YearMonth:   t.YearMonth,
		})
	}

	h.logger.Info("csv parse preview", "rows", len(rows))

	WriteSuccess(w, CSVParseResponse{
		RowCount:       len(rows),
		PreviewRaw:     preview,
		PreviewTickets: tickets,
	})
}
