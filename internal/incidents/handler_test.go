package incidents

import (
	"context"
	"encoding/json"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"github.com/go-chi/chi/v5"
	"github.com/opsdeck/opsdeck/internal/domain"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
)

func newTestRouter(repo *mockRepository) chi.Router {
	service, _ := newTestService(repo, &mockAnalyzer{}, newMockExecutor())
	r := chi.NewRouter()
	NewHandler(service).RegisterRoutes(r)
	return r
}

func TestHandlerClose_ChunkedBodyKeepsResolution(t *testing.T) {
	repo := newMockRepository()
	incident := openIncident(t, repo)
	router := newTestRouter(repo)

	// A wrapped reader leaves ContentLength at -1, as a chunked
	// request would; the resolution must still be decoded.
	body := io.NopCloser(strings.NewReader(`{"resolution":"Fixed by restart"}`))
	req := httptest.NewRequest(http.MethodPost, "/incidents/"+incident.ID+"/close", body)
	require.Equal(t, int64(-1), req.ContentLength)

	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	var envelope struct {
		Data domain.Incident `json:"data"`
	}
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &envelope))
	assert.Equal(t, "Fixed by restart", envelope.Data.Resolution)
}

func TestHandlerClose_EmptyBodyUsesDefault(t *testing.T) {
	repo := newMockRepository()
	incident := openIncident(t, repo)
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/incidents/"+incident.ID+"/close", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)
	require.Equal(t, http.StatusOK, rec.Code)

	stored, err := repo.GetByID(context.Background(), incident.ID)
	require.NoError(t, err)
	assert.Equal(t, "Resolved by operator", stored.Resolution)
}

func TestHandlerAnalyze_ResolvedIncidentConflicts(t *testing.T) {
	repo := newMockRepository()
	incident := openIncident(t, repo)
	incident.Status = domain.IncidentStatusResolved
	require.NoError(t, repo.Update(context.Background(), incident))
	router := newTestRouter(repo)

	req := httptest.NewRequest(http.MethodPost, "/incidents/"+incident.ID+"/analyze", nil)
	rec := httptest.NewRecorder()
	router.ServeHTTP(rec, req)

	assert.Equal(t, http.StatusConflict, rec.Code)
}
