package gateway

import "github.com/syncoria/assistant-go/internal/chat"

// SessionInfo is the response of GET /session.
type SessionInfo struct {
	SessionID string `json:"session_id"`
	CreatedAt string `json:"created_at"`
}

// historyRequest is the body of POST /history.
type historyRequest struct {
	SessionID string `json:"session_id"`
	Limit     int    `json:"limit"`
}

// historyResponse wraps the message list of POST /history.
type historyResponse struct {
	Messages []chat.HistoryItem `json:"messages"`
}

// queryRequest is the body of POST /query and POST /query/stream.
type queryRequest struct {
	Query        string `json:"query"`
	SessionID    string `json:"session_id"`
	IncludeDebug bool   `json:"include_debug"`
}

// AssistantResult is the complete analysis payload: the blocking /query
// response, and also the payload of a streaming "complete" event.
type AssistantResult struct {
	Analysis            string `json:"analysis"`
	ChartGenerated      bool   `json:"chart_generated"`
	ChartS3URL          string `json:"chart_s3_url"`
	CSVURL              string `json:"csv_url"`
	XLSXURL             string `json:"xlsx_url"`
	ChartDecisionReason string `json:"chart_decision_reason"`
	Timestamp           string `json:"timestamp"`
}
