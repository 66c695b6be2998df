package export

import (
	"io"

	"github.com/iksnae/branch-chat/internal"
	"gopkg.in/yaml.v3"
)

// YAMLExporter exports in YAML format
type YAMLExporter struct{}

// Export exports a transcript to YAML format
func (e *YAMLExporter) Export(transcript *internal.Transcript, w io.Writer) error {
	return e.encode(transcript, w)
}

// ExportTree exports a session tree to YAML format
func (e *YAMLExporter) ExportTree(doc *TreeDocument, w io.Writer) error {
	return e.encode(doc, w)
}

func (e *YAMLExporter) encode(v interface{}, w io.Writer) error {
	enc := yaml.NewEncoder(w)
	enc.SetIndent(2)
	defer func() { _ = enc.Close() }()

	return enc.Encode(v)
}

// Extension returns the file extension for this format
func (e *YAMLExporter) Extension() string {
	return "yaml"
}
