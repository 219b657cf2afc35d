package http

import (
	"errors"
	"log/slog"
	"net/http"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"

	mw "github.com/ca-vahid/agent-analytics/internal/adapters/primary/http/middleware"
	"github.com/ca-vahid/agent-analytics/internal/adapters/secondary/csvfile"
	"github.com/ca-vahid/agent-analytics/internal/auth"
	"github.com/ca-vahid/agent-analytics/internal/core/domain"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
	"github.com/ca-vahid/agent-analytics/internal/core/ports"
)

// DatasetHandler handles CSV uploads and dataset lifecycle requests.
type DatasetHandler struct {
	ingestService ports.IngestService
	datasets      ports.DatasetRepository
	tokenManager  *auth.TokenManager
	errorHandler  *ErrorHandler
	logger        *slog.Logger
	maxFileBytes  int64
}

// NewDatasetHandler creates a new dataset handler
func NewDatasetHandler(
	ingestService ports.IngestService,
	datasets ports.DatasetRepository,
	tokenManager *auth.TokenManager,
	errorHandler *ErrorHandler,
	logger *slog.Logger,
	maxFileBytes int64,
) *DatasetHandler {
	return &DatasetHandler{
		ingestService: ingestService,
		datasets:      datasets,
		tokenManager:  tokenManager,
		errorHandler:  errorHandler,
		logger:        logger.With("handler", "dataset"),
		maxFileBytes:  maxFileBytes,
	}
}

// Upload and list are public and registered individually so the upload route
// can sit behind its own rate limiter; deletion requires the dataset's own
// session token.

// RegisterProtectedRoutes sets up the session-guarded dataset endpoints. The
// full pattern is registered here because the public upload and list routes
// already own the /datasets prefix.
func (h *DatasetHandler) RegisterProtectedRoutes(r chi.Router) {
	r.Delete("/datasets/{datasetID}", h.HandleDelete)
}

// --- Request/Response DTOs ---

// DatasetResponse is the wire form of a stored dataset's metadata.
type DatasetResponse struct {
	ID         uuid.UUID `json:"id"`
	Name       string    `json:"name"`
	RowCount   int       `json:"rowCount"`
	UploadedAt time.Time `json:"uploadedAt"`
}

// UploadResponse pairs the new dataset with its session token. The token is
// the caller's only handle on the dataset; it is never re-issued.
type UploadResponse struct {
	Dataset DatasetResponse `json:"dataset"`
	Token   string          `json:"token"`
}

func toDatasetResponse(d *domain.Dataset) DatasetResponse {
	return DatasetResponse{
		ID:         d.ID,
		Name:       d.Name,
		RowCount:   d.RowCount,
		UploadedAt: d.UploadedAt,
	}
}

// HandleUpload ingests a multipart CSV upload and mints the session token.
func (h *DatasetHandler) HandleUpload(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, h.maxFileBytes)

	if err := r.ParseMultipartForm(h.maxFileBytes); err != nil {
		var maxBytesErr *http.MaxBytesError
		if errors.As(err, &maxBytesErr) {
			h.errorHandler.Handle(w, r, apperrors.ErrFileTooLarge)
			return
		}
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid multipart form"))
		return
	}

	file, header, err := r.FormFile("file")
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.ErrMissingFile)
		return
	}
	defer file.Close()

	rows, err := csvfile.Parse(file)
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	name := r.FormValue("name")
	if name == "" {
		name = header.Filename
	}

	dataset, err := h.ingestService.Ingest(r.Context(), ports.IngestParams{
		Name: name,
		Rows: rows,
	})
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	token, err := h.tokenManager.GenerateToken(dataset.ID)
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewInternalError(err))
		return
	}

	h.logger.Info("dataset ingested",
		"dataset_id", dataset.ID,
		"name", dataset.Name,
		"rows", dataset.RowCount,
	)

	WriteCreated(w, UploadResponse{
		Dataset: toDatasetResponse(dataset),
		Token:   token,
	})
}

// HandleList returns metadata for every stored dataset.
func (h *DatasetHandler) HandleList(w http.ResponseWriter, r *http.Request) {
	datasets, err := h.datasets.List(r.Context())
	if err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	responses := make([]DatasetResponse, 0, len(datasets))
	for _, d := range datasets {
		responses = append(responses, toDatasetResponse(d))
	}
	WriteList(w, responses)
}

// HandleDelete removes a dataset. The session token must belong to the
// dataset being deleted.
func (h *DatasetHandler) HandleDelete(w http.ResponseWriter, r *http.Request) {
	datasetID, err := uuid.Parse(chi.URLParam(r, "datasetID"))
	if err != nil {
		h.errorHandler.Handle(w, r, apperrors.NewBadRequestError(err, "Invalid dataset ID"))
		return
	}

	sessionID, ok := mw.SessionDatasetID(r.Context())
	if !ok {
		h.errorHandler.Handle(w, r, apperrors.ErrUnauthorized)
		return
	}
	if sessionID != datasetID {
		h.errorHandler.Handle(w, r, apperrors.ErrForbidden)
		return
	}

	if err := h.datasets.Delete(r.Context(), datasetID); err != nil {
		h.errorHandler.Handle(w, r, err)
		return
	}

	h.logger.Info("dataset deleted", "dataset_id", datasetID)
	WriteNoContent(w)
}
