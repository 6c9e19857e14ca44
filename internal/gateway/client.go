package gateway

import (
	"bytes"
	"context"
	"encoding/json"
	"io"
	"net/http"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/syncoria/assistant-go/internal/chat"
	"github.com/syncoria/assistant-go/internal/logger"
)

// Client wraps the backend query service. Every call is a single attempt;
// there is no retry or backoff anywhere, recovery is user-initiated.
type Client struct {
	baseURL      string
	includeDebug bool

	// http serves the request/response RPCs; stream has no overall timeout
	// because an event stream lives as long as the analysis runs. Both
	// honor context cancellation.
	http   *http.Client
	stream *http.Client
}

// New creates a gateway client for the given base URL.
func New(baseURL string, includeDebug bool) *Client {
	return &Client{
		baseURL:      strings.TrimRight(baseURL, "/"),
		includeDebug: includeDebug,
		http:         &http.Client{Timeout: 60 * time.Second},
		stream:       &http.Client{},
	}
}

// CreateSession asks the backend for a fresh session (GET /session).
func (c *Client) CreateSession(ctx context.Context) (SessionInfo, error) {
	var info SessionInfo
	reqID := uuid.NewString()
	logger.L.Debug("gateway call", "rpc", "session", "request_id", reqID)

	req, err := http.NewRequestWithContext(ctx, http.MethodGet, c.baseURL+"/session", nil)
	if err != nil {
		return info, networkErr("session", err)
	}
	resp, err := c.http.Do(req)
	if err != nil {
		return info, networkErr("session", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		logger.L.Error("gateway call failed", "rpc", "session", "request_id", reqID, "status", resp.StatusCode)
		return info, httpErr("session", resp.StatusCode)
	}
	if err := json.NewDecoder(resp.Body).Decode(&info); err != nil {
		return info, parseErr("session", err)
	}
	return info, nil
}

// History fetches up to limit messages of a session (POST /history).
// Ordering is not guaranteed; callers sort by sequence number.
func (c *Client) History(ctx context.Context, sessionID string, limit int) ([]chat.HistoryItem, error) {
	reqID := uuid.NewString()
	logger.L.Debug("gateway call", "rpc", "history", "request_id", reqID, "session_id", sessionID, "limit", limit)

	resp, err := c.post(ctx, "/history", historyRequest{SessionID: sessionID, Limit: limit}, c.http)
	if err != nil {
		return nil, err
	}
	defer resp.Body.Close()
	var out historyResponse
	if err := json.NewDecoder(resp.Body).Decode(&out); err != nil {
		return nil, parseErr("history", err)
	}
	return out.Messages, nil
}

// Query submits a query on the blocking variant (POST /query) and returns
// the complete result synchronously.
func (c *Client) Query(ctx context.Context, query, sessionID string) (AssistantResult, error) {
	var res AssistantResult
	reqID := uuid.NewString()
	logger.L.Debug("gateway call", "rpc", "query", "request_id", reqID, "session_id", sessionID)

	resp, err := c.post(ctx, "/query", queryRequest{Query: query, SessionID: sessionID, IncludeDebug: c.includeDebug}, c.http)
	if err != nil {
		return res, err
	}
	defer resp.Body.Close()
	if err := json.NewDecoder(resp.Body).Decode(&res); err != nil {
		return res, parseErr("query", err)
	}
	return res, nil
}

// QueryStream submits a query on the streaming variant (POST /query/stream).
// The returned body carries "event:"/"data:" frames; the caller owns closing
// it and must read to end-of-input rather than stop at a terminator frame.
func (c *Client) QueryStream(ctx context.Context, query, sessionID string) (io.ReadCloser, error) {
	reqID := uuid.NewString()
	logger.L.Debug("gateway call", "rpc", "query/stream", "request_id", reqID, "session_id", sessionID)

	resp, err := c.post(ctx, "/query/stream", queryRequest{Query: query, SessionID: sessionID, IncludeDebug: c.includeDebug}, c.stream)
	if err != nil {
		return nil, err
	}
	return resp.Body, nil
}

// post sends a JSON body and returns the response when the status is 2xx.
func (c *Client) post(ctx context.Context, path string, body any, hc *http.Client) (*http.Response, error) {
	op := strings.TrimLeft(path, "/")
	payload, err := json.Marshal(body)
	if err != nil {
		return nil, networkErr(op, err)
	}
	req, err := http.NewRequestWithContext(ctx, http.MethodPost, c.baseURL+path, bytes.NewReader(payload))
	if err != nil {
		return nil, networkErr(op, err)
	}
	req.Header.Set("Content-Type", "application/json")

	resp, err := hc.Do(req)
	if err != nil {
		return nil, networkErr(op, err)
	}
	if resp.StatusCode < 200 || resp.StatusCode > 299 {
		io.Copy(io.Discard, resp.Body)
		resp.Body.Close()
		logger.L.Error("gateway call failed", "rpc", op, "status", resp.StatusCode)
		return nil, httpErr(op, resp.StatusCode)
	}
	return resp, nil
}
