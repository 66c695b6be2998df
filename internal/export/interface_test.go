package export

import (
	"fmt"
	"testing"

	"github.com/iksnae/branch-chat/internal"
)

func TestNewExporter(t *testing.T) {
	tests := []struct {
		format  string
		want    Exporter
		wantExt string
	}{
		{format: "jsonl", want: &JSONLExporter{}, wantExt: "jsonl"},
		{format: "md", want: &MarkdownExporter{}, wantExt: "md"},
		{format: "markdown", want: &MarkdownExporter{}, wantExt: "md"},
		{format: "yaml", want: &YAMLExporter{}, wantExt: "yaml"},
		{format: "yml", want: &YAMLExporter{}, wantExt: "yaml"},
		{format: "json", want: &JSONExporter{}, wantExt: "json"},
		{format: "xml"},
		{format: ""},
	}

	for _, tt := range tests {
		t.Run("format "+tt.format, func(t *testing.T) {
			exporter, err := NewExporter(tt.format)
			if tt.want == nil {
				if err == nil || exporter != nil {
					t.Errorf("NewExporter(%q) = %T, %v, want an error", tt.format, exporter, err)
				}
				return
			}
			if err != nil {
				t.Fatalf("NewExporter(%q) error = %v", tt.format, err)
			}
			if fmt.Sprintf("%T", exporter) != fmt.Sprintf("%T", tt.want) {
				t.Errorf("NewExporter(%q) = %T, want %T", tt.format, exporter, tt.want)
			}
			if got := exporter.Extension(); got != tt.wantExt {
				t.Errorf("Extension() = %q, want %q", got, tt.wantExt)
			}
		})
	}
}

func TestNewTreeDocument(t *testing.T) {
	forest := internal.CreateTestForest()
	forest[0].Conversations[1].IsStarred = true
	root := internal.Synthesize(forest)

	doc := NewTreeDocument(internal.Session{ID: 3, Title: "t"}, root)
	if doc.NodeCount != 10 {
		t.Errorf("NodeCount = %d, want 10", doc.NodeCount)
	}
	if len(doc.Starred) != 1 || doc.Starred[0] != 2 {
		t.Errorf("Starred = %v, want [2]", doc.Starred)
	}
	if doc.ExportedAt == "" {
		t.Error("ExportedAt should be set")
	}
}

func TestNewTreeDocument_EmptyTree(t *testing.T) {
	doc := NewTreeDocument(internal.Session{ID: 3}, nil)
	if doc.NodeCount != 0 || len(doc.Starred) != 0 || doc.Root != nil {
		t.Errorf("unexpected document for empty tree: %+v", doc)
	}
}
