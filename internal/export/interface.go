package export

import (
	"fmt"
	"io"
	"time"

	"github.com/iksnae/branch-chat/internal"
)

// Exporter defines the interface for all export formats
type Exporter interface {
	// Export writes the linear history leading to one conversation
	Export(transcript *internal.Transcript, w io.Writer) error
	// ExportTree writes a whole session tree
	ExportTree(doc *TreeDocument, w io.Writer) error
	Extension() string
}

// TreeDocument is a session tree prepared for export
type TreeDocument struct {
	Session    internal.Session   `json:"session" yaml:"session"`
	ExportedAt string             `json:"exported_at" yaml:"exported_at"`
	NodeCount  int                `json:"node_count" yaml:"node_count"`
	Starred    []int64            `json:"starred" yaml:"starred"`
	Root       *internal.TurnNode `json:"root" yaml:"root"`
}

// NewTreeDocument builds the export form of a turn tree
func NewTreeDocument(session internal.Session, root *internal.TurnNode) *TreeDocument {
	return &TreeDocument{
		Session:    session,
		ExportedAt: time.Now().UTC().Format(time.RFC3339),
		NodeCount:  internal.CountNodes(root),
		Starred:    internal.StarredNodeIDs(root),
		Root:       root,
	}
}

// NewExporter creates a new exporter based on format
func NewExporter(format string) (Exporter, error) {
	switch format {
	case "jsonl":
		return &JSONLExporter{}, nil
	case "md", "markdown":
		return &MarkdownExporter{}, nil
	case "yaml", "yml":
		return &YAMLExporter{}, nil
	case "json":
		return &JSONExporter{}, nil
	default:
		return nil, fmt.Errorf("unsupported format: %s (supported: jsonl, md, yaml, json)", format)
	}
}
