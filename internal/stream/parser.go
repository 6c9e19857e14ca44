package stream

import (
	"encoding/json"
	"strings"
)

// Frame is one (event type, JSON payload) unit from the streaming query
// endpoint. Frames are ephemeral: only the last-seen frame and the payload
// of the terminal "complete" frame matter.
type Frame struct {
	Type string
	Data json.RawMessage
}

// Parser pairs "event:" and "data:" lines into frames. The event type set
// by an "event:" line persists until the next one, mirroring the server's
// framing; any other line is ignored.
type Parser struct {
	eventType string
}

// Line consumes one line of the stream and returns a completed frame when
// the line carries a data payload.
func (p *Parser) Line(line string) (Frame, bool) {
	line = strings.TrimRight(line, "\r")
	field, value, found := strings.Cut(line, ":")
	if !found {
		return Frame{}, false
	}
	value = strings.TrimSpace(value)
	switch field {
	case "event":
		p.eventType = value
		return Frame{}, false
	case "data":
		return Frame{Type: p.eventType, Data: json.RawMessage(value)}, true
	default:
		return Frame{}, false
	}
}
