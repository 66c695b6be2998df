package internal

import (
	"encoding/json"
	"fmt"
	"strconv"
	"strings"
	"time"
)

// Session represents a conversation session as returned by the server
type Session struct {
	ID         int64     `json:"id" yaml:"id"`
	Title      string    `json:"title" yaml:"title"`
	Summary    string    `json:"summary" yaml:"summary,omitempty"`
	CategoryID int64     `json:"categoryID" yaml:"category_id"`
	CreatedAt  Timestamp `json:"createdAt" yaml:"created_at"`
	UpdatedAt  Timestamp `json:"updatedAt" yaml:"updated_at"`
}

// Category groups sessions
type Category struct {
	ID        int64     `json:"id" yaml:"id"`
	Name      string    `json:"name" yaml:"name"`
	CreatedAt Timestamp `json:"createdAt" yaml:"created_at"`
	UpdatedAt Timestamp `json:"updatedAt" yaml:"updated_at"`
}

// Conversation is one prompt/answer pair, the durable unit of content
type Conversation struct {
	ID        int64     `json:"id" yaml:"id"`
	DialogID  int64     `json:"dialogID" yaml:"dialog_id"`
	SessionID int64     `json:"sessionID,omitempty" yaml:"session_id,omitempty"`
	Prompt    string    `json:"prompt" yaml:"prompt"`
	Answer    string    `json:"answer" yaml:"answer"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Summary   string    `json:"summary,omitempty" yaml:"summary,omitempty"`
	IsStarred bool      `json:"isStarred" yaml:"is_starred"`
	Comment   string    `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedAt Timestamp `json:"createdAt" yaml:"created_at"`
}

// Dialog is a branch-segment: a linear run of conversations plus the
// dialogs forked from its last conversation
type Dialog struct {
	ID            int64          `json:"dialogId" yaml:"dialog_id"`
	ParentID      *int64         `json:"parentId" yaml:"parent_id"`
	Conversations []Conversation `json:"conversations" yaml:"conversations"`
	Children      []*Dialog      `json:"children" yaml:"children,omitempty"`
}

// IsRoot reports whether the dialog has no parent
func (d *Dialog) IsRoot() bool {
	return d.ParentID == nil
}

// DialogTreeData is the payload of the session tree endpoint
type DialogTreeData struct {
	SessionID   int64     `json:"sessionId" yaml:"session_id"`
	SessionInfo Session   `json:"sessionInfo" yaml:"session_info"`
	DialogTree  []*Dialog `json:"dialogTree" yaml:"dialog_tree"`
}

// Role discriminates turn-tree nodes
type Role string

const (
	RoleUser      Role = "user"
	RoleAssistant Role = "assistant"
	// RoleTurn is a whole prompt/answer pair in a single node
	RoleTurn Role = "turn"
)

// NodeID identifies a turn-tree node. A conversation maps to at most one
// node per role, so the pair is unique within a synthesized tree.
type NodeID struct {
	ConversationID int64
	Role           Role
}

func (id NodeID) String() string {
	return fmt.Sprintf("%d:%s", id.ConversationID, id.Role)
}

// MarshalText encodes the id as "<conversationId>:<role>"
func (id NodeID) MarshalText() ([]byte, error) {
	return []byte(id.String()), nil
}

// UnmarshalText parses "<conversationId>:<role>"
func (id *NodeID) UnmarshalText(text []byte) error {
	parts := strings.SplitN(string(text), ":", 2)
	if len(parts) != 2 {
		return fmt.Errorf("invalid node id: %q", text)
	}
	convID, err := strconv.ParseInt(parts[0], 10, 64)
	if err != nil {
		return fmt.Errorf("invalid node id %q: %w", text, err)
	}
	role := Role(parts[1])
	switch role {
	case RoleUser, RoleAssistant, RoleTurn:
	default:
		return fmt.Errorf("invalid node id %q: unknown role", text)
	}
	id.ConversationID = convID
	id.Role = role
	return nil
}

// TurnNode is a node of the client-local turn tree
type TurnNode struct {
	ID             NodeID      `json:"id" yaml:"id"`
	Role           Role        `json:"role" yaml:"role"`
	Content        string      `json:"content" yaml:"content"`
	Prompt         string      `json:"prompt" yaml:"prompt"`
	ConversationID int64       `json:"conversationId" yaml:"conversation_id"`
	DialogID       int64       `json:"dialogId" yaml:"dialog_id"`
	Title          string      `json:"title,omitempty" yaml:"title,omitempty"`
	Summary        string      `json:"summary,omitempty" yaml:"summary,omitempty"`
	IsStarred      bool        `json:"isStarred" yaml:"is_starred"`
	Comment        string      `json:"comment,omitempty" yaml:"comment,omitempty"`
	CreatedAt      Timestamp   `json:"createdAt" yaml:"created_at"`
	Children       []*TurnNode `json:"children,omitempty" yaml:"children,omitempty"`
}

// Leading reports whether the node is the first node of its conversation
func (n *TurnNode) Leading() bool {
	return n.Role == RoleUser || n.Role == RoleTurn
}

// UnknownID marks an identifier the server did not resolve
const UnknownID int64 = -1

// CompletionIDs carries the identifiers reported when a stream completes
type CompletionIDs struct {
	DialogID       int64 `json:"dialogId"`
	ConversationID int64 `json:"conversationId"`
}

// SentinelIDs returns the identifiers used when completion carried none
func SentinelIDs() CompletionIDs {
	return CompletionIDs{DialogID: UnknownID, ConversationID: UnknownID}
}

// IsSentinel reports whether the caller must resolve the ids by other means.
// Server ids are positive; anything else carries no usable conversation.
func (c CompletionIDs) IsSentinel() bool {
	return c.ConversationID <= 0
}

// CreateDialogRequest is the payload sent to the chat endpoints
type CreateDialogRequest struct {
	Content              string `json:"content"`
	SessionID            int64  `json:"sessionId"`
	ParentConversationID *int64 `json:"parentConversationId,omitempty"`
}

// SyncDialogResult is returned by the non-streaming chat endpoint
type SyncDialogResult struct {
	DialogID       int64  `json:"dialogId"`
	ConversationID int64  `json:"conversationId"`
	Title          string `json:"title"`
	Summary        string `json:"summary"`
}

// Timestamp accepts the timestamp layouts the server is known to emit
type Timestamp struct {
	time.Time
}

var timestampLayouts = []string{
	time.RFC3339Nano,
	"2006-01-02T15:04:05",
	"2006-01-02 15:04:05",
	"2006-01-02 15:04:05.999999999-07:00",
	"2006-01-02",
}

// NewTimestamp wraps t
func NewTimestamp(t time.Time) Timestamp {
	return Timestamp{Time: t}
}

// ParseTimestamp parses s using the known layouts; an empty string is the zero time
func ParseTimestamp(s string) (Timestamp, error) {
	s = strings.TrimSpace(s)
	if s == "" {
		return Timestamp{}, nil
	}
	for _, layout := range timestampLayouts {
		if t, err := time.Parse(layout, s); err == nil {
			return Timestamp{Time: t}, nil
		}
	}
	// Epoch milliseconds
	if ms, err := strconv.ParseInt(s, 10, 64); err == nil {
		return Timestamp{Time: time.UnixMilli(ms).UTC()}, nil
	}
	return Timestamp{}, fmt.Errorf("unrecognized timestamp: %q", s)
}

// UnmarshalJSON accepts a string in any known layout or epoch milliseconds
func (ts *Timestamp) UnmarshalJSON(data []byte) error {
	if string(data) == "null" {
		*ts = Timestamp{}
		return nil
	}
	var s string
	if err := json.Unmarshal(data, &s); err != nil {
		var ms int64
		if numErr := json.Unmarshal(data, &ms); numErr != nil {
			return fmt.Errorf("invalid timestamp: %s", data)
		}
		*ts = Timestamp{Time: time.UnixMilli(ms).UTC()}
		return nil
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

// MarshalJSON encodes the time as RFC3339; the zero time encodes as ""
func (ts Timestamp) MarshalJSON() ([]byte, error) {
	return json.Marshal(ts.String())
}

// MarshalYAML encodes the time as an RFC3339 string
func (ts Timestamp) MarshalYAML() (interface{}, error) {
	return ts.String(), nil
}

// UnmarshalYAML reads the string form written by MarshalYAML
func (ts *Timestamp) UnmarshalYAML(unmarshal func(interface{}) error) error {
	var s string
	if err := unmarshal(&s); err != nil {
		return err
	}
	parsed, err := ParseTimestamp(s)
	if err != nil {
		return err
	}
	*ts = parsed
	return nil
}

func (ts Timestamp) String() string {
	if ts.IsZero() {
		return ""
	}
	return ts.Format(time.RFC3339Nano)
}
