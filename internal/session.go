package internal

// Transcript is the linear chat history leading to one conversation
type Transcript struct {
	ID        string    `json:"id" yaml:"id"`
	SessionID int64     `json:"session_id" yaml:"session_id"`
	Title     string    `json:"title,omitempty" yaml:"title,omitempty"`
	Messages  []Message `json:"messages" yaml:"messages"`
	Metadata  Metadata  `json:"metadata,omitempty" yaml:"metadata,omitempty"`
}

// Message is one half of a conversation in a transcript
type Message struct {
	ConversationID int64  `json:"conversation_id" yaml:"conversation_id"`
	Timestamp      string `json:"timestamp,omitempty" yaml:"timestamp,omitempty"`
	Actor          string `json:"actor" yaml:"actor"` // "user", "assistant"
	Content        string `json:"content" yaml:"content"`
	Starred        bool   `json:"starred,omitempty" yaml:"starred,omitempty"`
	Comment        string `json:"comment,omitempty" yaml:"comment,omitempty"`
}

// Metadata contains additional transcript information
type Metadata struct {
	TargetConversationID int64  `json:"target_conversation_id" yaml:"target_conversation_id"`
	MessageCount         int    `json:"message_count" yaml:"message_count"`
	ConversationCount    int    `json:"conversation_count" yaml:"conversation_count"`
	SessionSummary       string `json:"session_summary,omitempty" yaml:"session_summary,omitempty"`
	ExportedAt           string `json:"exported_at,omitempty" yaml:"exported_at,omitempty"`
}
