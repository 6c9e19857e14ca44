package chat

import (
	"time"

	"github.com/syncoria/assistant-go/internal/table"
)

// Role discriminates the two message variants.
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
)

// Message is one transcript entry: a UserMessage or an AssistantMessage.
type Message interface {
	Role() Role
	When() time.Time
}

// UserMessage is a query typed by the user.
type UserMessage struct {
	Content   string
	Timestamp time.Time
}

func (m UserMessage) Role() Role      { return RoleUser }
func (m UserMessage) When() time.Time { return m.Timestamp }

// AssistantMessage is one analysis reply. While a query is in flight the
// transcript holds a placeholder with Pending set and no other fields.
type AssistantMessage struct {
	Analysis            string
	Dataframe           *table.Table
	ChartGenerated      bool
	ChartURL            string
	CSVURL              string
	XLSXURL             string
	ChartDecisionReason string
	Timestamp           time.Time
	Pending             bool
}

func (m AssistantMessage) Role() Role      { return RoleAssistant }
func (m AssistantMessage) When() time.Time { return m.Timestamp }

// ParseTimestamp parses a backend timestamp string. The backend emits ISO
// 8601 with either an offset or a trailing Z. Returns the zero time when the
// value cannot be parsed.
func ParseTimestamp(s string) time.Time {
	if s == "" {
		return time.Time{}
	}
	for _, layout := range []string{time.RFC3339Nano, time.RFC3339, "2006-01-02T15:04:05.999999999", "2006-01-02T15:04:05"} {
		if ts, err := time.Parse(layout, s); err == nil {
			return ts
		}
	}
	return time.Time{}
}
