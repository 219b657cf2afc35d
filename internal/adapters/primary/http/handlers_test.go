package http

import (
	"bytes"
	"encoding/json"
	"io"
	"log/slog"
	"mime/multipart"
	stdhttp "net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"

	mw "github.com/ca-vahid/agent-analytics/internal/adapters/primary/http/middleware"
	"github.com/ca-vahid/agent-analytics/internal/adapters/secondary/memory"
	"github.com/ca-vahid/agent-analytics/internal/auth"
	"github.com/ca-vahid/agent-analytics/internal/core/mocks"
	"github.com/ca-vahid/agent-analytics/internal/core/services"
)

const sampleCSV = `ID,Created Date,Groups,Agent Name,Category,Subject,Source,Priority,Status
1,2024-01-05 09:30:00 AM,Helpdesk,Avery,Hardware,Broken laptop,Email,High,Closed
2,2024-01-12 02:15:00 PM,Helpdesk,Avery,Software,License request,Portal,Low,Closed
3,2024-02-03 11:00:00 AM,Infrastructure,Blake,Network,VPN down,Phone,Urgent,Resolved
4,2024-02-20 04:45:00 PM,Coreshack,Casey,Software,Build failure,Email,Medium,Open
`

func newTestRouter(t *testing.T) (*chi.Mux, *auth.TokenManager) {
	t.Helper()

	logger := slog.New(slog.NewTextHandler(io.Discard, nil))
	errorHandler := NewErrorHandler(logger)
	tokenManager := auth.NewTokenManager("test-secret", time.Hour)

	broadcaster := mocks.NewMockEventBroadcaster()
	broadcaster.On("Broadcast", mock.Anything).Return(nil)

	store := memory.NewDatasetStore()
	ingestService := services.NewIngestService(store, broadcaster, 1000)
	analyticsService := services.NewAnalyticsService(store)
	trendService := services.NewTrendService(store, analyticsService, 3, 12)

	datasetHandler := NewDatasetHandler(ingestService, store, tokenManager, errorHandler, logger, 1<<20)
	analyticsHandler := NewAnalyticsHandler(analyticsService, errorHandler, logger)
	filtersHandler := NewFiltersHandler(analyticsService, broadcaster, errorHandler, logger)
	trendsHandler := NewTrendsHandler(trendService, errorHandler, logger)

	router := chi.NewRouter()
	router.Post("/datasets", datasetHandler.HandleUpload)
	router.Get("/datasets", datasetHandler.HandleList)
	router.Group(func(r chi.Router) {
		r.Use(mw.SessionMiddleware(tokenManager))
		datasetHandler.RegisterProtectedRoutes(r)
		r.Route("/analytics", analyticsHandler.RegisterRoutes)
		r.Route("/filters", filtersHandler.RegisterRoutes)
		r.Route("/trends", trendsHandler.RegisterRoutes)
	})

	return router, tokenManager
}

func multipartCSV(t *testing.T, csv string) (*bytes.Buffer, string) {
	t.Helper()

	body := &bytes.Buffer{}
	writer := multipart.NewWriter(body)
	part, err := writer.CreateFormFile("file", "tickets.csv")
	require.NoError(t, err)
	_, err = part.Write([]byte(csv))
	require.NoError(t, err)
	require.NoError(t, writer.Close())

	return body, writer.FormDataContentType()
}

func uploadSample(t *testing.T, router *chi.Mux) (uuid.UUID, string) {
	t.Helper()

	body, contentType := multipartCSV(t, sampleCSV)
	req := httptest.NewRequest(stdhttp.MethodPost, "/datasets", body)
	req.Header.Set("Content-Type", contentType)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)
	require.Equal(t, stdhttp.StatusCreated, recorder.Code)

	var response UploadResponse
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	require.NotEmpty(t, response.Token)

	return response.Dataset.ID, response.Token
}

func authedRequest(method, target, token string, body io.Reader) *stdhttp.Request {
	req := httptest.NewRequest(method, target, body)
	req.Header.Set("Authorization", "Bearer "+token)
	return req
}

func TestUpload(t *testing.T) {
	t.Run("returns dataset metadata and session token", func(t *testing.T) {
		router, _ := newTestRouter(t)

		body, contentType := multipartCSV(t, sampleCSV)
		req := httptest.NewRequest(stdhttp.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusCreated, recorder.Code)

		var response UploadResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "tickets.csv", response.Dataset.Name)
		assert.Equal(t, 4, response.Dataset.RowCount)
		assert.NotEmpty(t, response.Token)
	})

	t.Run("missing file field", func(t *testing.T) {
		router, _ := newTestRouter(t)

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		require.NoError(t, writer.WriteField("name", "no file"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(stdhttp.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "MISSING_FILE")
	})

	t.Run("header only upload is rejected", func(t *testing.T) {
		router, _ := newTestRouter(t)

		body, contentType := multipartCSV(t, "ID,Created Date,Groups\n")
		req := httptest.NewRequest(stdhttp.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", contentType)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "EMPTY_UPLOAD")
	})

	t.Run("custom name overrides filename", func(t *testing.T) {
		router, _ := newTestRouter(t)

		body := &bytes.Buffer{}
		writer := multipart.NewWriter(body)
		part, err := writer.CreateFormFile("file", "export.csv")
		require.NoError(t, err)
		_, err = part.Write([]byte(sampleCSV))
		require.NoError(t, err)
		require.NoError(t, writer.WriteField("name", "January export"))
		require.NoError(t, writer.Close())

		req := httptest.NewRequest(stdhttp.MethodPost, "/datasets", body)
		req.Header.Set("Content-Type", writer.FormDataContentType())
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusCreated, recorder.Code)

		var response UploadResponse
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, "January export", response.Dataset.Name)
	})
}

func TestDatasetList(t *testing.T) {
	router, _ := newTestRouter(t)
	uploadSample(t, router)
	uploadSample(t, router)

	req := httptest.NewRequest(stdhttp.MethodGet, "/datasets", nil)
	recorder := httptest.NewRecorder()

	router.ServeHTTP(recorder, req)

	require.Equal(t, stdhttp.StatusOK, recorder.Code)

	var response ListResponse[DatasetResponse]
	require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
	assert.Equal(t, 2, response.Count)
}

func TestSessionGuard(t *testing.T) {
	t.Run("missing token", func(t *testing.T) {
		router, _ := newTestRouter(t)

		req := httptest.NewRequest(stdhttp.MethodGet, "/analytics/summary", nil)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
	})

	t.Run("garbage token", func(t *testing.T) {
		router, _ := newTestRouter(t)

		req := authedRequest(stdhttp.MethodGet, "/analytics/summary", "not-a-token", nil)
		recorder := httptest.NewRecorder()

		router.ServeHTTP(recorder, req)

		require.Equal(t, stdhttp.StatusUnauthorized, recorder.Code)
	})
}

func TestAnalyticsEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	_, token := uploadSample(t, router)

	t.Run("summary", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/analytics/summary", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response struct {
			Data SummaryResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, 4, response.Data.TotalTickets)
		assert.Equal(t, "2024-01", response.Data.FirstDate)
		assert.Equal(t, "2024-02", response.Data.LastDate)
		assert.Len(t, response.Data.MonthlyVolume, 2)
	})

	t.Run("distribution by team groups raw team values", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/analytics/distribution/team", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response ListResponse[BucketResponse]
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))

		labels := make(map[string]int)
		for _, b := range response.Data {
			labels[b.Label] = b.Count
		}
		// The synthetic "IT Team" rollup exists only in period breakdowns;
		// single-dimension grouping reports the raw values.
		assert.NotContains(t, labels, "IT Team")
		assert.Equal(t, 2, labels["Helpdesk"])
		assert.Equal(t, 1, labels["Infrastructure"])
		assert.Equal(t, 1, labels["Coreshack"])
	})

	t.Run("distribution rejects unknown dimension", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/analytics/distribution/flavor", token, nil))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
		assert.Contains(t, recorder.Body.String(), "VALIDATION_ERROR")
	})

	t.Run("volume fills the gap months", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/analytics/volume?granularity=monthly", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response ListResponse[SeriesPointResponse]
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		require.Equal(t, 2, response.Count)
		assert.Equal(t, "2024-01", response.Data[0].Period)
		assert.Equal(t, 2, response.Data[0].Value)
	})

	t.Run("volume rejects unknown granularity", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/analytics/volume?granularity=daily", token, nil))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})

	t.Run("options", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/analytics/options", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response struct {
			Data OptionsResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, []string{"Avery", "Blake", "Casey"}, response.Data.Agents)
		assert.Contains(t, response.Data.Teams, "Coreshack")
	})
}

func TestFilterEndpoints(t *testing.T) {
	router, _ := newTestRouter(t)
	_, token := uploadSample(t, router)

	t.Run("patch narrows subsequent queries", func(t *testing.T) {
		body := strings.NewReader(`{"teams":["Helpdesk"]}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodPatch, "/filters", token, body))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response struct {
			Data FilterResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, []string{"Helpdesk"}, response.Data.Teams)

		summaryRec := httptest.NewRecorder()
		router.ServeHTTP(summaryRec, authedRequest(stdhttp.MethodGet, "/analytics/summary", token, nil))

		var summary struct {
			Data SummaryResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(summaryRec.Body).Decode(&summary))
		assert.Equal(t, 2, summary.Data.TotalTickets)
	})

	t.Run("patch merges over earlier state", func(t *testing.T) {
		body := strings.NewReader(`{"priorities":["High"]}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodPatch, "/filters", token, body))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response struct {
			Data FilterResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, []string{"Helpdesk"}, response.Data.Teams)
		assert.Equal(t, []string{"High"}, response.Data.Priorities)
	})

	t.Run("get reflects the stored state", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/filters", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response struct {
			Data FilterResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		assert.Equal(t, []string{"Helpdesk"}, response.Data.Teams)
	})

	t.Run("invalid date bound is rejected", func(t *testing.T) {
		body := strings.NewReader(`{"dateFrom":"yesterday"}`)
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodPatch, "/filters", token, body))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})

	t.Run("reset clears everything", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodDelete, "/filters", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		summaryRec := httptest.NewRecorder()
		router.ServeHTTP(summaryRec, authedRequest(stdhttp.MethodGet, "/analytics/summary", token, nil))

		var summary struct {
			Data SummaryResponse `json:"data"`
		}
		require.NoError(t, json.NewDecoder(summaryRec.Body).Decode(&summary))
		assert.Equal(t, 4, summary.Data.TotalTickets)
	})
}

func TestTrendsEndpoint(t *testing.T) {
	router, _ := newTestRouter(t)
	_, token := uploadSample(t, router)

	t.Run("forecast for one agent", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet,
			"/trends/forecast?scope=agent&names=Avery&periods=2", token, nil))

		require.Equal(t, stdhttp.StatusOK, recorder.Code)

		var response ListResponse[EntityForecastResponse]
		require.NoError(t, json.NewDecoder(recorder.Body).Decode(&response))
		require.Equal(t, 1, response.Count)

		forecast := response.Data[0]
		assert.Equal(t, "Avery", forecast.Name)
		assert.Len(t, forecast.ForecastPeriods, 2)
		assert.Len(t, forecast.ForecastValues, 2)
		assert.Len(t, forecast.Actuals, 2)
	})

	t.Run("names are required", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet, "/trends/forecast?scope=agent", token, nil))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})

	t.Run("unknown method is rejected", func(t *testing.T) {
		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodGet,
			"/trends/forecast?names=Avery&method=quadratic", token, nil))

		require.Equal(t, stdhttp.StatusBadRequest, recorder.Code)
	})
}

func TestDatasetDelete(t *testing.T) {
	t.Run("session must match the dataset", func(t *testing.T) {
		router, tokenManager := newTestRouter(t)
		datasetID, _ := uploadSample(t, router)

		otherToken, err := tokenManager.GenerateToken(uuid.New())
		require.NoError(t, err)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodDelete, "/datasets/"+datasetID.String(), otherToken, nil))

		require.Equal(t, stdhttp.StatusForbidden, recorder.Code)
	})

	t.Run("own dataset deletes cleanly", func(t *testing.T) {
		router, _ := newTestRouter(t)
		datasetID, token := uploadSample(t, router)

		recorder := httptest.NewRecorder()
		router.ServeHTTP(recorder, authedRequest(stdhttp.MethodDelete, "/datasets/"+datasetID.String(), token, nil))

		require.Equal(t, stdhttp.StatusNoContent, recorder.Code)

		summaryRec := httptest.NewRecorder()
		router.ServeHTTP(summaryRec, authedRequest(stdhttp.MethodGet, "/analytics/summary", token, nil))
		require.Equal(t, stdhttp.StatusNotFound, summaryRec.Code)
	})
}
