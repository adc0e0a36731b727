// Package backend is the REST client for the disaster data service.
package backend

import (
	"bytes"
	"context"
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"net/http"
	"strconv"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/couchcryptid/disaster-dashboard/internal/domain"
	"github.com/couchcryptid/disaster-dashboard/internal/observability"
	"github.com/couchcryptid/disaster-dashboard/internal/query"
)

// Endpoint paths.
const (
	pathLogin        = "/login"
	pathSignup       = "/signup"
	pathCountryData  = "/country_data"
	pathStateData    = "/state_data"
	pathCompare      = "/compare_data_aggregated"
	pathGlobalStats  = "/global_stats"
	pathSaveGraph    = "/save_graph"
	pathSavedGraphs  = "/saved_graphs"
	pathUpdateTitle  = "/update_graph_title"
	pathDeleteGraph  = "/delete_graph"
	maxErrorBodySize = 1 << 20
)

// TokenSource supplies the bearer token for authenticated calls. An empty
// token sends no Authorization header.
type TokenSource interface {
	Token() string
}

// DataSource is the read side of the backend that screens fetch from.
type DataSource interface {
	CompareAggregated(ctx context.Context, req query.CompareRequest) ([]domain.Row, error)
	GlobalStats(ctx context.Context, req query.GlobalStatsRequest) ([]domain.Row, error)
	CountryData(ctx context.Context, req query.CountryRequest) (domain.CountryProfile, error)
	StateData(ctx context.Context, req query.StateRequest) (domain.StateProfile, error)
}

// Client talks to the backend over HTTP.
type Client struct {
	baseURL    string
	httpClient *http.Client
	tokens     TokenSource
	metrics    *observability.Metrics
	logger     *slog.Logger
}

// NewClient creates a backend client. Every request is bounded by timeout.
func NewClient(baseURL string, timeout time.Duration, tokens TokenSource, metrics *observability.Metrics, logger *slog.Logger) *Client {
	return &Client{
		baseURL: strings.TrimRight(baseURL, "/"),
		httpClient: &http.Client{
			Timeout: timeout,
		},
		tokens:  tokens,
		metrics: metrics,
		logger:  logger,
	}
}

// Login exchanges credentials for a session token.
func (c *Client) Login(ctx context.Context, email, password string) (domain.AuthResult, error) {
	body := map[string]string{"email": email, "password": password}
	return c.auth(ctx, pathLogin, body)
}

// Signup creates an account. The backend may or may not log the user in.
func (c *Client) Signup(ctx context.Context, email, username, password string) (domain.AuthResult, error) {
	body := map[string]string{"email": email, "username": username, "password": password}
	return c.auth(ctx, pathSignup, body)
}

func (c *Client) auth(ctx context.Context, path string, body any) (domain.AuthResult, error) {
	var resp struct {
		Token    string `json:"token"`
		Username string `json:"username"`
	}
	if err := c.do(ctx, http.MethodPost, path, body, nil, &resp); err != nil {
		return domain.AuthResult{}, err
	}
	return domain.AuthResult{Token: resp.Token, Username: resp.Username}, nil
}

// CompareAggregated returns one aggregate row per country.
func (c *Client) CompareAggregated(ctx context.Context, req query.CompareRequest) ([]domain.Row, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathCompare, req, nil, &raw); err != nil {
		return nil, err
	}
	return decodeRows(pathCompare, raw)
}

// GlobalStats returns the global statistics rows.
func (c *Client) GlobalStats(ctx context.Context, req query.GlobalStatsRequest) ([]domain.Row, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathGlobalStats, req, nil, &raw); err != nil {
		return nil, err
	}
	return decodeRows(pathGlobalStats, raw)
}

// CountryData returns the country profile. Absent sections are empty.
func (c *Client) CountryData(ctx context.Context, req query.CountryRequest) (domain.CountryProfile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathCountryData, req, nil, &raw); err != nil {
		return domain.CountryProfile{}, err
	}
	return decodeCountryProfile(raw)
}

// StateData returns the US state profile. Absent sections are empty.
func (c *Client) StateData(ctx context.Context, req query.StateRequest) (domain.StateProfile, error) {
	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathStateData, req, nil, &raw); err != nil {
		return domain.StateProfile{}, err
	}
	return decodeStateProfile(raw)
}

// SaveGraph stores a saved view and returns its id when the backend
// reports one, or 0.
func (c *Client) SaveGraph(ctx context.Context, username, title string, filters json.RawMessage, page domain.Page) (int64, error) {
	body := struct {
		Username   string          `json:"username"`
		GraphTitle string          `json:"graph_title"`
		Filters    json.RawMessage `json:"filters"`
		Page       domain.Page     `json:"page"`
	}{username, title, filters, page}

	var raw json.RawMessage
	if err := c.do(ctx, http.MethodPost, pathSaveGraph, body, nil, &raw); err != nil {
		return 0, err
	}
	var fields map[string]json.RawMessage
	if json.Unmarshal(raw, &fields) != nil {
		return 0, nil
	}
	id, _ := graphID(fields)
	return id, nil
}

// SavedGraphs lists the user's saved views. Entries without a usable id are
// dropped; filters blobs are passed through undecoded.
func (c *Client) SavedGraphs(ctx context.Context, username string) ([]domain.SavedView, error) {
	var raw json.RawMessage
	headers := http.Header{"Username": {username}}
	if err := c.do(ctx, http.MethodGet, pathSavedGraphs, nil, headers, &raw); err != nil {
		return nil, err
	}
	return decodeSavedViews(raw, c.logger)
}

// UpdateGraphTitle renames a saved view.
func (c *Client) UpdateGraphTitle(ctx context.Context, id int64, username, title string) error {
	body := map[string]any{"graphId": id, "username": username, "newGraphTitle": title}
	return c.do(ctx, http.MethodPost, pathUpdateTitle, body, nil, nil)
}

// DeleteGraph removes a saved view.
func (c *Client) DeleteGraph(ctx context.Context, id int64, username string) error {
	body := map[string]any{"graphId": id, "username": username}
	return c.do(ctx, http.MethodPost, pathDeleteGraph, body, nil, nil)
}

// do sends one request and decodes a JSON reply into out. Transport
// failures become *domain.NetworkError and non-2xx replies become
// *domain.BackendError.
func (c *Client) do(ctx context.Context, method, path string, body any, headers http.Header, out any) error {
	var payload io.Reader
	if body != nil {
		b, err := json.Marshal(body)
		if err != nil {
			return fmt.Errorf("encode %s request: %w", path, err)
		}
		payload = bytes.NewReader(b)
	}

	req, err := http.NewRequestWithContext(ctx, method, c.baseURL+path, payload)
	if err != nil {
		return fmt.Errorf("create request: %w", err)
	}
	requestID := uuid.NewString()
	req.Header.Set("Accept", "application/json")
	req.Header.Set("X-Request-ID", requestID)
	if body != nil {
		req.Header.Set("Content-Type", "application/json")
	}
	if c.tokens != nil {
		if tok := c.tokens.Token(); tok != "" {
			req.Header.Set("Authorization", "Bearer "+tok)
		}
	}
	for k, vs := range headers {
		for _, v := range vs {
			req.Header.Add(k, v)
		}
	}

	start := time.Now()
	resp, err := c.httpClient.Do(req)
	c.metrics.BackendDuration.WithLabelValues(path).Observe(time.Since(start).Seconds())
	if err != nil {
		c.metrics.BackendRequests.WithLabelValues(path, "network_error").Inc()
		c.logger.Warn("backend request failed", "endpoint", path, "request_id", requestID, "error", err)
		return &domain.NetworkError{Endpoint: path, Err: err}
	}
	defer resp.Body.Close()

	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		c.metrics.BackendRequests.WithLabelValues(path, "backend_error").Inc()
		raw, _ := io.ReadAll(io.LimitReader(resp.Body, maxErrorBodySize))
		berr := &domain.BackendError{Endpoint: path, Status: resp.StatusCode, Message: errorMessage(raw)}
		c.logger.Warn("backend returned error", "endpoint", path, "request_id", requestID, "status", resp.StatusCode, "message", berr.Message)
		return berr
	}

	if out != nil {
		dec := json.NewDecoder(resp.Body)
		dec.UseNumber()
		if err := dec.Decode(out); err != nil && !errors.Is(err, io.EOF) {
			c.metrics.BackendRequests.WithLabelValues(path, "decode_error").Inc()
			return fmt.Errorf("decode %s response: %w", path, err)
		}
	}

	c.metrics.BackendRequests.WithLabelValues(path, "success").Inc()
	c.logger.Debug("backend request done", "endpoint", path, "request_id", requestID, "status", resp.StatusCode)
	return nil
}

// errorMessage pulls the human text out of an error body: {"error": ...}
// first, then {"message": ...}, then the raw body.
func errorMessage(raw []byte) string {
	var body struct {
		Error   string `json:"error"`
		Message string `json:"message"`
	}
	if json.Unmarshal(raw, &body) == nil {
		if body.Error != "" {
			return body.Error
		}
		if body.Message != "" {
			return body.Message
		}
	}
	return strings.TrimSpace(string(raw))
}

func parseID(raw json.RawMessage) (int64, bool) {
	var n json.Number
	if json.Unmarshal(raw, &n) == nil && n != "" {
		if id, err := n.Int64(); err == nil {
			return id, true
		}
	}
	var s string
	if json.Unmarshal(raw, &s) == nil {
		if id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64); err == nil {
			return id, true
		}
	}
	return 0, false
}
