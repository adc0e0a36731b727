package mapbox

import (
	"context"
	"encoding/json"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
)

const (
	testToken         = "test-token"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

func testMetrics() *observability.Metrics {
	return observability.NewMetricsForTesting()
}

func testClient(baseURL string) *Client {
	return &Client{
		token:      testToken,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		baseURL:    baseURL,
		metrics:    testMetrics(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func TestClient_Locate_Country(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Contains(t, r.URL.Path, "Japan")
		assert.Equal(t, "1", r.URL.Query().Get("limit"))
		assert.Equal(t, "country", r.URL.Query().Get("types"))
		assert.Empty(t, r.URL.Query().Get("country"))
		assert.Equal(t, testToken, r.URL.Query().Get("access_token"))

		resp := response{
			Features: []feature{
				{
					Center:    []float64{138.25, 36.2},
					PlaceName: "Japan",
					Relevance: 1,
				},
			},
		}
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(resp))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.Locate(context.Background(), "Japan", domain.LocateCountry)
	require.NoError(t, err)

	assert.Equal(t, 138.25, result.Center.Lon)
	assert.Equal(t, 36.2, result.Center.Lat)
	assert.Equal(t, "Japan", result.PlaceName)
	assert.Equal(t, 1.0, result.Confidence)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.LocatorRequests.WithLabelValues("success")), 0)
}

func TestClient_Locate_RegionIsUSOnly(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, "region", r.URL.Query().Get("types"))
		assert.Equal(t, "us", r.URL.Query().Get("country"))
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{
			{Center: []float64{-99.3, 31.4}, PlaceName: "Texas, United States", Relevance: 0.98},
		}}))
	}))
	defer srv.Close()

	result, err := testClient(srv.URL).Locate(context.Background(), "Texas", domain.LocateRegion)
	require.NoError(t, err)
	assert.Equal(t, "Texas, United States", result.PlaceName)
}

func TestClient_Locate_NoResults(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.Header().Set(headerContentType, contentTypeJSON)
		require.NoError(t, json.NewEncoder(w).Encode(response{Features: []feature{}}))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	result, err := c.Locate(context.Background(), "Atlantis", domain.LocateCountry)
	require.NoError(t, err)
	assert.False(t, result.Found())
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.LocatorRequests.WithLabelValues("empty")), 0)
}

func TestClient_Locate_APIError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
		_, _ = w.Write([]byte(`{"message":"Not Authorized"}`))
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.token = "bad-token"

	_, err := c.Locate(context.Background(), "Japan", domain.LocateCountry)
	require.Error(t, err)
	assert.Contains(t, err.Error(), "401")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.LocatorRequests.WithLabelValues("error")), 0)
}

func TestClient_Locate_Timeout(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		time.Sleep(200 * time.Millisecond)
		w.WriteHeader(http.StatusOK)
	}))
	defer srv.Close()

	c := testClient(srv.URL)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.Locate(context.Background(), "Japan", domain.LocateCountry)
	require.Error(t, err)
}
