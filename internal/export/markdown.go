package export

import (
	"fmt"
	"io"
	"strings"

	"github.com/iksnae/branch-chat/internal"
)

// MarkdownExporter exports in Markdown format
type MarkdownExporter struct{}

// Export exports a transcript to Markdown format
func (e *MarkdownExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	// Header
	title := transcript.Title
	if title == "" {
		title = fmt.Sprintf("Session %d", transcript.SessionID)
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)

	if transcript.Metadata.SessionSummary != "" {
		_, _ = fmt.Fprintf(w, "%s\n\n", transcript.Metadata.SessionSummary)
	}
	_, _ = fmt.Fprintf(w, "**Conversation:** %d  \n", transcript.Metadata.TargetConversationID)
	_, _ = fmt.Fprintf(w, "**Messages:** %d\n\n", len(transcript.Messages))

	_, _ = fmt.Fprintf(w, "---\n\n")
	_, _ = fmt.Fprintf(w, "## Messages\n\n")

	// Messages
	for i, msg := range transcript.Messages {
		timestamp := ""
		if msg.Timestamp != "" {
			timestamp = fmt.Sprintf(" (%s)", msg.Timestamp)
		}
		star := ""
		if msg.Starred && msg.Actor == string(internal.RoleUser) {
			star = " ★"
		}

		content := escapeMarkdown(msg.Content)

		_, _ = fmt.Fprintf(w, "**%s:**%s%s\n\n%s\n\n", msg.Actor, star, timestamp, content)

		if msg.Comment != "" && msg.Actor == string(internal.RoleAssistant) {
			_, _ = fmt.Fprintf(w, "> %s\n\n", strings.ReplaceAll(msg.Comment, "\n", "\n> "))
		}

		if i < len(transcript.Messages)-1 {
			_, _ = fmt.Fprintf(w, "---\n\n")
		}
	}

	return nil
}

// ExportTree writes the tree as a nested list, one item per node
func (e *MarkdownExporter) ExportTree(doc *TreeDocument, w io.Writer) error {
	title := doc.Session.Title
	if title == "" {
		title = fmt.Sprintf("Session %d", doc.Session.ID)
	}
	_, _ = fmt.Fprintf(w, "# %s\n\n", title)
	_, _ = fmt.Fprintf(w, "**Nodes:** %d  \n", doc.NodeCount)
	_, _ = fmt.Fprintf(w, "**Starred:** %d\n\n", len(doc.Starred))

	if doc.Root == nil {
		_, _ = fmt.Fprintf(w, "_No conversations._\n")
		return nil
	}

	index := internal.NewTreeIndex(doc.Root)
	internal.Walk(doc.Root, func(node *internal.TurnNode) bool {
		indent := strings.Repeat("  ", index.Depth(node.ID))
		marker := ""
		if node.IsStarred && node.Leading() {
			marker = " ★"
		}
		_, _ = fmt.Fprintf(w, "%s- **%s** #%d%s: %s\n", indent, node.Role, node.ConversationID, marker, oneLine(node.Content, 80))
		return true
	})

	return nil
}

// oneLine flattens text and truncates it to max runes
func oneLine(text string, max int) string {
	text = strings.Join(strings.Fields(text), " ")
	runes := []rune(text)
	if len(runes) <= max {
		return escapeMarkdown(text)
	}
	return escapeMarkdown(string(runes[:max-1])) + "…"
}

// escapeMarkdown escapes markdown special characters
func escapeMarkdown(text string) string {
	// Basic escaping - preserve code blocks
	lines := strings.Split(text, "\n")
	var result []string
	inCodeBlock := false

	for _, line := range lines {
		if strings.HasPrefix(line, "```") {
			inCodeBlock = !inCodeBlock
			result = append(result, line)
		} else if inCodeBlock {
			result = append(result, line)
		} else {
			// Escape markdown syntax outside code blocks
			line = strings.ReplaceAll(line, "**", "\\*\\*")
			line = strings.ReplaceAll(line, "__", "\\_\\_")
			result = append(result, line)
		}
	}

	return strings.Join(result, "\n")
}

// Extension returns the file extension for this format
func (e *MarkdownExporter) Extension() string {
	return "md"
}
