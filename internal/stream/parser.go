package stream

import (
	"bytes"
	"encoding/json"
	"strings"

	"github.com/iksnae/branch-chat/internal"
)

// EventKind classifies a parsed stream line
type EventKind int

const (
	// EventSkip is a line that carries nothing for the caller
	EventSkip EventKind = iota
	// EventChunk is answer text
	EventChunk
	// EventDone completes the stream
	EventDone
	// EventError is a server-reported failure
	EventError
)

// Event is the result of parsing one line
type Event struct {
	Kind    EventKind
	Content string
	IDs     internal.CompletionIDs
}

// IsTerminal reports whether the event ends the stream
func (e Event) IsTerminal() bool {
	return e.Kind == EventDone || e.Kind == EventError
}

// message is the JSON form of a data payload
type message struct {
	Type    string                  `json:"type"`
	Content string                  `json:"content"`
	Data    *internal.CompletionIDs `json:"data"`
}

// ParseLine parses one complete line of the stream.
//
// "event:" lines and anything without a "data:" prefix are skipped. A data
// payload that is a JSON object with a "type" is a control message; any
// other payload is answer text.
func ParseLine(line string) Event {
	line = strings.TrimSuffix(line, "\r")
	if !strings.HasPrefix(line, "data:") {
		return Event{Kind: EventSkip}
	}

	payload := strings.TrimSpace(line[len("data:"):])
	if payload == "" {
		return Event{Kind: EventSkip}
	}

	if !strings.HasPrefix(payload, "{") {
		return Event{Kind: EventChunk, Content: payload}
	}

	var msg message
	if err := json.Unmarshal([]byte(payload), &msg); err != nil || msg.Type == "" {
		return Event{Kind: EventChunk, Content: payload}
	}

	switch msg.Type {
	case "done":
		if msg.Data == nil || msg.Data.IsSentinel() {
			return Event{Kind: EventDone, IDs: internal.SentinelIDs()}
		}
		return Event{Kind: EventDone, IDs: *msg.Data}
	case "message":
		if msg.Content == "" {
			return Event{Kind: EventSkip}
		}
		return Event{Kind: EventChunk, Content: msg.Content}
	case "error":
		return Event{Kind: EventError, Content: msg.Content}
	default:
		internal.LogDebug("Ignoring stream message of type %q", msg.Type)
		return Event{Kind: EventSkip}
	}
}

// lineBuffer accumulates raw bytes and hands back complete lines.
// Splitting on '\n' never cuts a multi-byte UTF-8 sequence.
type lineBuffer struct {
	pending []byte
}

// Feed appends data and returns the lines it completed
func (b *lineBuffer) Feed(data []byte) []string {
	b.pending = append(b.pending, data...)

	var lines []string
	for {
		i := bytes.IndexByte(b.pending, '\n')
		if i < 0 {
			break
		}
		lines = append(lines, string(b.pending[:i]))
		b.pending = b.pending[i+1:]
	}

	if len(b.pending) == 0 {
		b.pending = nil
	}
	return lines
}

// Flush returns the incomplete trailing fragment and empties the buffer
func (b *lineBuffer) Flush() (string, bool) {
	if len(b.pending) == 0 {
		return "", false
	}
	rest := string(b.pending)
	b.pending = nil
	return rest, true
}
