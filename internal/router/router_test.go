package router

import (
	"bytes"
	"compress/gzip"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/cx-tal-miterani/airline-reservation-system/internal/auth"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/handlers"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/models"
	"github.com/cx-tal-miterani/airline-reservation-system/internal/service/mocks"
	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/mock"
	"github.com/stretchr/testify/require"
)

type testAPI struct {
	svc      *mocks.MockReservationService
	verifier *auth.Verifier
	handler  http.Handler
}

func newTestAPI(t *testing.T, limiter *RateLimiter) *testAPI {
	t.Helper()
	svc := new(mocks.MockReservationService)
	verifier := auth.NewVerifier([]byte("router-test-secret"))
	return &testAPI{
		svc:      svc,
		verifier: verifier,
		handler: SetupRouter(Config{
			Handler:      handlers.NewHandler(svc, nil, nil),
			Verifier:     verifier,
			OrderLimiter: limiter,
		}),
	}
}

func (a *testAPI) token(t *testing.T, id auth.Identity) string {
	t.Helper()
	token, err := a.verifier.Issue(id, time.Hour)
	require.NoError(t, err)
	return token
}

func (a *testAPI) do(req *http.Request) *httptest.ResponseRecorder {
	rec := httptest.NewRecorder()
	a.handler.ServeHTTP(rec, req)
	return rec
}

func jsonBody(t *testing.T, v interface{}) io.Reader {
	t.Helper()
	var buf bytes.Buffer
	require.NoError(t, json.NewEncoder(&buf).Encode(v))
	return &buf
}

func TestHealthCheck(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(httptest.NewRequest(http.MethodGet, "/health", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `{"status":"healthy"}`, rec.Body.String())
}

func TestAPIRequiresToken(t *testing.T) {
	api := newTestAPI(t, nil)

	tests := []struct {
		name   string
		header string
	}{
		{"missing", ""},
		{"wrong scheme", "Basic Zm9vOmJhcg=="},
		{"garbage", "Bearer not-a-token"},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/api/airports", nil)
			if tt.header != "" {
				req.Header.Set("Authorization", tt.header)
			}
			rec := api.do(req)
			assert.Equal(t, http.StatusUnauthorized, rec.Code)
			assert.NotEmpty(t, rec.Header().Get("WWW-Authenticate"))
		})
	}
	api.svc.AssertNotCalled(t, "ListAirports", mock.Anything, mock.Anything)
}

func TestCatalogWritesRequireAdmin(t *testing.T) {
	api := newTestAPI(t, nil)
	body := models.AirportCreate{Name: "Heathrow", ClosestBigCity: "London"}

	req := httptest.NewRequest(http.MethodPost, "/api/airports", jsonBody(t, body))
	req.Header.Set("Authorization", "Bearer "+api.token(t, auth.Identity{UserID: "alice"}))
	rec := api.do(req)
	assert.Equal(t, http.StatusForbidden, rec.Code)
	api.svc.AssertNotCalled(t, "CreateAirport", mock.Anything, mock.Anything)

	created := &models.Airport{ID: uuid.New(), Name: body.Name, ClosestBigCity: body.ClosestBigCity}
	api.svc.On("CreateAirport", mock.Anything, body).Return(created, nil)

	req = httptest.NewRequest(http.MethodPost, "/api/airports", jsonBody(t, body))
	req.Header.Set("Authorization", "Bearer "+api.token(t, auth.Identity{UserID: "root", Admin: true}))
	rec = api.do(req)
	assert.Equal(t, http.StatusCreated, rec.Code)
	api.svc.AssertExpectations(t)
}

func TestReadsOpenToUsers(t *testing.T) {
	api := newTestAPI(t, nil)
	api.svc.On("ListAirports", mock.Anything, mock.Anything).Return([]models.Airport{}, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/airports", nil)
	req.Header.Set("Authorization", "Bearer "+api.token(t, auth.Identity{UserID: "alice"}))
	rec := api.do(req)

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.JSONEq(t, `[]`, rec.Body.String())
}

func TestPreflightSkipsAuth(t *testing.T) {
	api := newTestAPI(t, nil)

	rec := api.do(httptest.NewRequest(http.MethodOptions, "/api/orders", nil))

	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "*", rec.Header().Get("Access-Control-Allow-Origin"))
	assert.Contains(t, rec.Header().Get("Access-Control-Allow-Headers"), "Authorization")
}

func TestOrderRateLimit(t *testing.T) {
	api := newTestAPI(t, NewRateLimiter(60, 1))
	order := &models.OrderDetail{ID: uuid.New(), UserID: "alice"}
	api.svc.On("CreateOrder", mock.Anything, auth.Identity{UserID: "alice"}, mock.Anything).Return(order, nil).Once()

	token := api.token(t, auth.Identity{UserID: "alice"})
	body := func() io.Reader {
		return jsonBody(t, map[string]interface{}{
			"tickets": []map[string]interface{}{{"flight": uuid.New(), "row": 1, "seat": 1}},
		})
	}

	req := httptest.NewRequest(http.MethodPost, "/api/orders", body())
	req.Header.Set("Authorization", "Bearer "+token)
	rec := api.do(req)
	require.Equal(t, http.StatusCreated, rec.Code)

	req = httptest.NewRequest(http.MethodPost, "/api/orders", body())
	req.Header.Set("Authorization", "Bearer "+token)
	rec = api.do(req)
	assert.Equal(t, http.StatusTooManyRequests, rec.Code)
	assert.Equal(t, "1", rec.Header().Get("Retry-After"))

	api.svc.AssertExpectations(t)
}

func TestRateLimiterBucketsPerKey(t *testing.T) {
	limiter := NewRateLimiter(60, 2)
	now := time.Date(2025, 1, 1, 12, 0, 0, 0, time.UTC)
	limiter.now = func() time.Time { return now }

	assert.True(t, limiter.Allow("alice"))
	assert.True(t, limiter.Allow("alice"))
	assert.False(t, limiter.Allow("alice"))
	assert.True(t, limiter.Allow("bob"))

	now = now.Add(time.Second)
	assert.True(t, limiter.Allow("alice"))

	now = now.Add(time.Hour)
	assert.True(t, limiter.Allow("carol"))
	limiter.mu.Lock()
	assert.Len(t, limiter.limiters, 1)
	limiter.mu.Unlock()
}

func TestResponsesAreCompressed(t *testing.T) {
	api := newTestAPI(t, nil)
	airports := make([]models.Airport, 50)
	for i := range airports {
		airports[i] = models.Airport{ID: uuid.New(), Name: fmt.Sprintf("Airport %d", i), ClosestBigCity: "London"}
	}
	api.svc.On("ListAirports", mock.Anything, mock.Anything).Return(airports, nil)

	req := httptest.NewRequest(http.MethodGet, "/api/airports", nil)
	req.Header.Set("Authorization", "Bearer "+api.token(t, auth.Identity{UserID: "alice"}))
	req.Header.Set("Accept-Encoding", "gzip")
	rec := api.do(req)

	require.Equal(t, http.StatusOK, rec.Code)
	require.Equal(t, "gzip", rec.Header().Get("Content-Encoding"))

	zr, err := gzip.NewReader(rec.Body)
	require.NoError(t, err)
	var got []models.Airport
	require.NoError(t, json.NewDecoder(zr).Decode(&got))
	assert.Len(t, got, 50)
}
