package export

import (
	"encoding/json"
	"fmt"
	"io"

	"github.com/iksnae/branch-chat/internal"
)

// JSONLExporter exports in JSONL format (one message or node per line)
type JSONLExporter struct{}

// Export exports a transcript to JSONL format
func (e *JSONLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	enc := json.NewEncoder(w)

	for _, msg := range transcript.Messages {
		obj := map[string]interface{}{
			"conversation_id": msg.ConversationID,
			"actor":           msg.Actor,
			"content":         msg.Content,
		}

		if msg.Timestamp != "" {
			obj["timestamp"] = msg.Timestamp
		}
		if msg.Starred {
			obj["starred"] = true
		}
		if msg.Comment != "" {
			obj["comment"] = msg.Comment
		}

		if err := enc.Encode(obj); err != nil {
			return fmt.Errorf("failed to encode message: %w", err)
		}
	}

	return nil
}

// ExportTree writes one line per node in pre-order, each naming its parent
func (e *JSONLExporter) ExportTree(doc *TreeDocument, w io.Writer) error {
	enc := json.NewEncoder(w)
	index := internal.NewTreeIndex(doc.Root)

	var encodeErr error
	internal.Walk(doc.Root, func(node *internal.TurnNode) bool {
		obj := map[string]interface{}{
			"id":              node.ID,
			"role":            node.Role,
			"conversation_id": node.ConversationID,
			"dialog_id":       node.DialogID,
			"content":         node.Content,
			"depth":           index.Depth(node.ID),
		}
		if parent, ok := index.Parent(node.ID); ok {
			obj["parent"] = parent.ID
		}
		if ts := node.CreatedAt.String(); ts != "" {
			obj["created_at"] = ts
		}
		if node.IsStarred {
			obj["starred"] = true
		}
		if node.Comment != "" {
			obj["comment"] = node.Comment
		}

		if err := enc.Encode(obj); err != nil {
			encodeErr = fmt.Errorf("failed to encode node %s: %w", node.ID, err)
			return false
		}
		return true
	})

	return encodeErr
}

// Extension returns the file extension for this format
func (e *JSONLExporter) Extension() string {
	return "jsonl"
}
