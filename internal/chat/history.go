package chat

import (
	"sort"
	"strings"
)

// HistoryItem is the wire shape of one /history entry. User text arrives
// under either "query" or "content", assistant text under either "analysis"
// or "content"; "query" and "analysis" are the canonical fields and win when
// both are present.
type HistoryItem struct {
	Role                string `json:"role"`
	Content             string `json:"content"`
	Query               string `json:"query"`
	Analysis            string `json:"analysis"`
	Timestamp           string `json:"timestamp"`
	SequenceNumber      *int   `json:"sequence_number,omitempty"`
	ChartGenerated      bool   `json:"chart_generated"`
	ChartS3URL          string `json:"chart_s3_url"`
	CSVURL              string `json:"csv_url"`
	XLSXURL             string `json:"xlsx_url"`
	ChartDecisionReason string `json:"chart_decision_reason"`
}

// SortBySequence orders history items ascending by sequence_number when the
// server supplies one; delivery order is not guaranteed monotonic. Items
// without a sequence number are left in place relative to each other.
func SortBySequence(items []HistoryItem) {
	carried := false
	for _, it := range items {
		if it.SequenceNumber != nil {
			carried = true
			break
		}
	}
	if !carried {
		return
	}
	sort.SliceStable(items, func(i, j int) bool {
		return seq(items[i]) < seq(items[j])
	})
}

func seq(it HistoryItem) int {
	if it.SequenceNumber == nil {
		return 0
	}
	return *it.SequenceNumber
}

// normalize converts a wire item into its Message variant. Items with an
// unrecognized role are dropped.
func (it HistoryItem) normalize() (Message, bool) {
	switch Role(strings.ToLower(it.Role)) {
	case RoleUser:
		content := it.Query
		if content == "" {
			content = it.Content
		}
		return UserMessage{Content: content, Timestamp: ParseTimestamp(it.Timestamp)}, true
	case RoleAssistant:
		analysis := it.Analysis
		if analysis == "" {
			analysis = it.Content
		}
		return AssistantMessage{
			Analysis:            analysis,
			ChartGenerated:      it.ChartGenerated,
			ChartURL:            it.ChartS3URL,
			CSVURL:              it.CSVURL,
			XLSXURL:             it.XLSXURL,
			ChartDecisionReason: it.ChartDecisionReason,
			Timestamp:           ParseTimestamp(it.Timestamp),
		}, true
	default:
		return nil, false
	}
}
