package cmd

import (
	"fmt"
	"os"
	"path/filepath"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/internal/export"
	"github.com/spf13/cobra"
)

var (
	format             string
	outputDir          string
	exportConversation int64
	exportTree         bool
)

// exportCmd represents the export command
var exportCmd = &cobra.Command{
	Use:   "export <session-id>",
	Short: "Export a session to file",
	Long: `Export a session to one of the supported formats (jsonl, md, yaml, json).

By default the history leading to the selected conversation is exported.
Use --conversation to pick another one, or --tree to export every branch.
Use 'branch-chat sessions' to see available session IDs.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := parseID("session", args[0])
		if err != nil {
			return err
		}

		// Create exporter
		exporter, err := export.NewExporter(format)
		if err != nil {
			return err
		}

		view, cleanup, err := loadView(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		if view.Tree() == nil {
			return fmt.Errorf("session %d has no conversations to export", sessionID)
		}
		if cmd.Flags().Changed("conversation") {
			if err := view.Select(exportConversation); err != nil {
				return err
			}
		}

		if err := os.MkdirAll(outputDir, 0755); err != nil {
			return fmt.Errorf("failed to create output directory: %w", err)
		}

		var (
			filename string
			write    func(*os.File) error
		)
		if exportTree {
			doc := export.NewTreeDocument(view.Session(), view.Tree())
			filename = fmt.Sprintf("session_%d_tree.%s", sessionID, exporter.Extension())
			write = func(f *os.File) error { return exporter.ExportTree(doc, f) }
		} else {
			tr, err := view.Transcript()
			if err != nil {
				return err
			}
			filename = fmt.Sprintf("session_%d_conv_%d.%s", sessionID, tr.Metadata.TargetConversationID, exporter.Extension())
			write = func(f *os.File) error { return exporter.Export(tr, f) }
		}
		path := filepath.Join(outputDir, filename)

		err = internal.ShowProgress(cmd.Context(), fmt.Sprintf("Exporting session %d to %s", sessionID, path), func() error {
			file, err := os.Create(path)
			if err != nil {
				return &internal.ExportError{Format: format, Path: path, Err: err}
			}
			if err := write(file); err != nil {
				_ = file.Close()
				return &internal.ExportError{Format: format, Path: path, Err: err}
			}
			if err := file.Close(); err != nil {
				return &internal.ExportError{Format: format, Path: path, Err: err}
			}
			return nil
		})
		if err != nil {
			return err
		}

		fmt.Fprintln(cmd.OutOrStdout(), path)
		internal.LogInfo("Export complete: session %d written to %s", sessionID, path)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(exportCmd)
	exportCmd.Flags().StringVarP(&format, "format", "f", "jsonl", "Export format (jsonl, md, yaml, json)")
	exportCmd.Flags().StringVarP(&outputDir, "out", "o", "./exports", "Output directory")
	exportCmd.Flags().Int64Var(&exportConversation, "conversation", 0, "Export the history leading to this conversation")
	exportCmd.Flags().BoolVar(&exportTree, "tree", false, "Export the whole turn tree")
}
