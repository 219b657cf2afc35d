package http

import (
	"net/http"

	"github.com/google/uuid"

	mw "github.com/ca-vahid/agent-analytics/internal/adapters/primary/http/middleware"
	apperrors "github.com/ca-vahid/agent-analytics/internal/core/errors"
)

// sessionDatasetOrFail pulls the dataset ID the session middleware stored on
// the context, writing a 401 when the request carries no valid session.
func sessionDatasetOrFail(w http.ResponseWriter, r *http.Request, eh *ErrorHandler) (uuid.UUID, bool) {
	datasetID, ok := mw.SessionDatasetID(r.Context())
	if !ok {
		eh.Handle(w, r, apperrors.ErrUnauthorized)
		return uuid.Nil, false
	}
	return datasetID, true
}
