package backend

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/prometheus/client_golang/prometheus/testutil"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
)

const (
	testToken         = "header.payload.sig"
	contentTypeJSON   = "application/json"
	headerContentType = "Content-Type"
)

type staticToken string

func (s staticToken) Token() string { return string(s) }

func testClient(baseURL string, tokens TokenSource) *Client {
	return &Client{
		baseURL:    baseURL,
		httpClient: &http.Client{Timeout: 5 * time.Second},
		tokens:     tokens,
		metrics:    observability.NewMetricsForTesting(),
		logger:     slog.New(slog.NewTextHandler(io.Discard, nil)),
	}
}

func writeJSON(t *testing.T, w http.ResponseWriter, status int, body string) {
	t.Helper()
	w.Header().Set(headerContentType, contentTypeJSON)
	w.WriteHeader(status)
	_, err := io.WriteString(w, body)
	require.NoError(t, err)
}

func TestClient_CompareAggregated_Success(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodPost, r.Method)
		assert.Equal(t, pathCompare, r.URL.Path)
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		assert.NotEmpty(t, r.Header.Get("X-Request-ID"))

		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, []any{"Japan"}, body["countries"])
		assert.InDelta(t, 2000, body["startYear"], 0)

		writeJSON(t, w, http.StatusOK, `[{"CountryName":"Japan","TotalDisasters":12,"AvgGDP":0.123456789}]`)
	}))
	defer srv.Close()

	c := testClient(srv.URL, staticToken(testToken))
	rows, err := c.CompareAggregated(context.Background(), query.CompareRequest{
		Countries:     []string{"Japan"},
		Indicators:    []string{"AVG(ne.GDPAnnualPercentGrowth) AS AvgGDP"},
		StartYear:     2000,
		EndYear:       2010,
		DisasterTypes: []string{"Earthquake"},
	})
	require.NoError(t, err)
	require.Len(t, rows, 1)

	assert.Equal(t, "Japan", rows[0].Text(domain.ColCountryName))
	assert.Equal(t, json.Number("0.123456789"), rows[0]["AvgGDP"], "numbers keep full precision")
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.BackendRequests.WithLabelValues(pathCompare, "success")), 0)
}

func TestClient_NoTokenNoAuthorization(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Empty(t, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, `[]`)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL, staticToken("")).GlobalStats(context.Background(), query.GlobalStatsRequest{})
	require.NoError(t, err)
	assert.Empty(t, rows)
}

func TestClient_NullIsEmpty(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `null`)
	}))
	defer srv.Close()

	rows, err := testClient(srv.URL, nil).GlobalStats(context.Background(), query.GlobalStatsRequest{})
	require.NoError(t, err)
	assert.NotNil(t, rows)
	assert.Empty(t, rows)
}

func TestClient_BackendErrorMessageVerbatim(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusBadRequest, `{"error":"Missing required parameters"}`)
	}))
	defer srv.Close()

	c := testClient(srv.URL, nil)
	_, err := c.CompareAggregated(context.Background(), query.CompareRequest{})

	var berr *domain.BackendError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, http.StatusBadRequest, berr.Status)
	assert.Equal(t, "Missing required parameters", berr.Message)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.BackendRequests.WithLabelValues(pathCompare, "backend_error")), 0)
}

func TestClient_MessageFieldAndPlainBody(t *testing.T) {
	assert.Equal(t, "Graph not found", errorMessage([]byte(`{"message":"Graph not found"}`)))
	assert.Equal(t, "Bad Gateway", errorMessage([]byte("Bad Gateway\n")))
}

func TestClient_ErrorInsideOKReply(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"error":"Lost connection to MySQL server"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, nil).CountryData(context.Background(), query.CountryRequest{Country: "Japan"})

	var berr *domain.BackendError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, "Lost connection to MySQL server", berr.Message)
}

func TestClient_NetworkError(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {}))
	url := srv.URL
	srv.Close()

	c := testClient(url, nil)
	_, err := c.GlobalStats(context.Background(), query.GlobalStatsRequest{})

	var nerr *domain.NetworkError
	require.True(t, errors.As(err, &nerr))
	assert.Equal(t, pathGlobalStats, nerr.Endpoint)
	assert.InDelta(t, 1, testutil.ToFloat64(c.metrics.BackendRequests.WithLabelValues(pathGlobalStats, "network_error")), 0)
}

func TestClient_TimeoutIsNetworkError(t *testing.T) {
	release := make(chan struct{})
	srv := httptest.NewServer(http.HandlerFunc(func(http.ResponseWriter, *http.Request) {
		<-release
	}))
	defer srv.Close()
	defer close(release)

	c := testClient(srv.URL, nil)
	c.httpClient.Timeout = 50 * time.Millisecond

	_, err := c.GlobalStats(context.Background(), query.GlobalStatsRequest{})

	var nerr *domain.NetworkError
	require.True(t, errors.As(err, &nerr))
}

func TestClient_MalformedBody(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{"rows": [`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, nil).GlobalStats(context.Background(), query.GlobalStatsRequest{})
	require.Error(t, err)
	assert.Contains(t, err.Error(), "decode")
}

func TestClient_CountryData_DefaultsAbsentSections(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "Chile", body["country"])

		writeJSON(t, w, http.StatusOK, `{
			"overview": null,
			"sectoral": "oops",
			"national": [{"Year": 2001, "GDPAnnualPercentGrowth": 3.2}],
			"timeline": [{"Year": 2010, "Earthquake": 4}, {"Earthquake": 1}]
		}`)
	}))
	defer srv.Close()

	p, err := testClient(srv.URL, nil).CountryData(context.Background(), query.CountryRequest{Country: "Chile"})
	require.NoError(t, err)

	assert.Nil(t, p.Overview)
	assert.Empty(t, p.Sectoral)
	assert.Len(t, p.National, 1)
	assert.Empty(t, p.Disasters)
	require.Len(t, p.Timeline, 1)
	assert.Equal(t, 2010, p.Timeline[0].Year)
	assert.Equal(t, 4, p.Timeline[0].Counts[domain.Earthquake])
	assert.Equal(t, 0, p.Timeline[0].Counts[domain.Volcano])
	assert.False(t, p.Empty())
}

func TestClient_StateData(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusOK, `{
			"overview": {"StateName": "Texas", "StateCode": "TX", "Region": "South"},
			"economicGrowth": [{"Year": 2019, "AgriculturePercentGrowth": 1.5}],
			"disasters": [{"Year": 2019, "DisasterType": "Flood"}]
		}`)
	}))
	defer srv.Close()

	p, err := testClient(srv.URL, nil).StateData(context.Background(), query.StateRequest{State: "Texas"})
	require.NoError(t, err)

	assert.Equal(t, "TX", p.Overview.Text(domain.ColStateCode))
	assert.Len(t, p.EconomicGrowth, 1)
	assert.Empty(t, p.EconomicTotals)
	assert.Len(t, p.Disasters, 1)
}

func TestClient_Login(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathLogin, r.URL.Path)
		var body map[string]string
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))
		assert.Equal(t, "ada@example.com", body["email"])
		assert.Equal(t, "hunter2", body["password"])
		writeJSON(t, w, http.StatusOK, `{"token":"tok","username":"ada"}`)
	}))
	defer srv.Close()

	res, err := testClient(srv.URL, nil).Login(context.Background(), "ada@example.com", "hunter2")
	require.NoError(t, err)
	assert.Equal(t, domain.AuthResult{Token: "tok", Username: "ada"}, res)
}

func TestClient_SignupRejected(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, pathSignup, r.URL.Path)
		writeJSON(t, w, http.StatusConflict, `{"error":"Username already exists"}`)
	}))
	defer srv.Close()

	_, err := testClient(srv.URL, nil).Signup(context.Background(), "ada@example.com", "ada", "pw")

	var berr *domain.BackendError
	require.True(t, errors.As(err, &berr))
	assert.Equal(t, "Username already exists", berr.Message)
}

func TestClient_SavedGraphs_Defensive(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		assert.Equal(t, http.MethodGet, r.Method)
		assert.Equal(t, "ada", r.Header.Get("Username"))
		assert.Equal(t, "Bearer "+testToken, r.Header.Get("Authorization"))
		writeJSON(t, w, http.StatusOK, `[
			{"GraphID": 7, "GraphTitle": "Japan quakes", "Page": "DisasterMap", "Filters": "{\"countries\":[\"Japan\"]}", "Username": "ada"},
			{"GraphId": "8", "GraphTitle": "Legacy", "Page": "Compare", "Filters": "not json"},
			{"GraphTitle": "no id"},
			42
		]`)
	}))
	defer srv.Close()

	views, err := testClient(srv.URL, staticToken(testToken)).SavedGraphs(context.Background(), "ada")
	require.NoError(t, err)
	require.Len(t, views, 2)

	assert.Equal(t, int64(7), views[0].ID)
	assert.Equal(t, "Japan quakes", views[0].Title)
	assert.Equal(t, domain.PageMap, views[0].Page)
	assert.Equal(t, "ada", views[0].OwnerUsername)
	assert.JSONEq(t, `"{\"countries\":[\"Japan\"]}"`, string(views[0].Filters))

	assert.Equal(t, int64(8), views[1].ID)
	assert.Equal(t, domain.PageCompare, views[1].Page)
}

func TestClient_SaveRenameDelete(t *testing.T) {
	var (
		mu    sync.Mutex
		paths []string
	)
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		mu.Lock()
		paths = append(paths, r.URL.Path)
		mu.Unlock()
		var body map[string]any
		require.NoError(t, json.NewDecoder(r.Body).Decode(&body))

		switch r.URL.Path {
		case pathSaveGraph:
			assert.Equal(t, "ada", body["username"])
			assert.Equal(t, "Quakes", body["graph_title"])
			assert.Equal(t, "Compare", body["page"])
			assert.Equal(t, map[string]any{"countries": []any{"Japan"}}, body["filters"])
			writeJSON(t, w, http.StatusCreated, `{"message":"saved","GraphID":11}`)
		case pathUpdateTitle:
			assert.InDelta(t, 11, body["graphId"], 0)
			assert.Equal(t, "Renamed", body["newGraphTitle"])
			writeJSON(t, w, http.StatusOK, `{"message":"updated"}`)
		case pathDeleteGraph:
			assert.InDelta(t, 11, body["graphId"], 0)
			assert.Equal(t, "ada", body["username"])
			writeJSON(t, w, http.StatusOK, `{"message":"deleted"}`)
		}
	}))
	defer srv.Close()

	c := testClient(srv.URL, staticToken(testToken))
	ctx := context.Background()

	id, err := c.SaveGraph(ctx, "ada", "Quakes", json.RawMessage(`{"countries":["Japan"]}`), domain.PageCompare)
	require.NoError(t, err)
	assert.Equal(t, int64(11), id)

	require.NoError(t, c.UpdateGraphTitle(ctx, id, "ada", "Renamed"))
	require.NoError(t, c.DeleteGraph(ctx, id, "ada"))

	mu.Lock()
	defer mu.Unlock()
	assert.Equal(t, []string{pathSaveGraph, pathUpdateTitle, pathDeleteGraph}, paths)
}

func TestClient_DeleteMissingIsNotFound(t *testing.T) {
	srv := httptest.NewServer(http.HandlerFunc(func(w http.ResponseWriter, _ *http.Request) {
		writeJSON(t, w, http.StatusNotFound, `{"error":"Graph not found"}`)
	}))
	defer srv.Close()

	err := testClient(srv.URL, nil).DeleteGraph(context.Background(), 99, "ada")

	var berr *domain.BackendError
	require.True(t, errors.As(err, &berr))
	assert.True(t, berr.NotFound())
}
