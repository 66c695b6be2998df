package export

import (
	"encoding/json"
	"io"

	"github.com/iksnae/branch-chat/internal"
)

// JSONExporter exports in JSON format (pretty-printed)
type JSONExporter struct{}

// Export exports a transcript to JSON format
func (e *JSONExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	return e.encode(transcript, w)
}

// ExportTree exports a session tree to JSON format
func (e *JSONExporter) ExportTree(doc *TreeDocument, w io.Writer) error {
	return e.encode(doc, w)
}

func (e *JSONExporter) encode(v interface{}, w io.Writer) error {
	enc := json.NewEncoder(w)
	enc.SetIndent("", "  ")

	return enc.Encode(v)
}

// Extension returns the file extension for this format
func (e *JSONExporter) Extension() string {
	return "json"
}
