package cmd

import (
	"fmt"
	"os"
	"strings"
	"sync"

	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
)

var (
	askParent   int64
	askNoParent bool
	askSync     bool
)

// askCmd represents the ask command
var askCmd = &cobra.Command{
	Use:   "ask <session-id> <prompt...>",
	Short: "Ask a question in a session",
	Long: `Ask a question and stream the answer to stdout.

The question continues the selected conversation unless --parent names
another one to fork from. Afterwards the new conversation is selected.`,
	Args: cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("ask: %w", errOfflineCommand)
		}
		sessionID, err := parseID("session", args[0])
		if err != nil {
			return err
		}
		prompt := strings.Join(args[1:], " ")

		view, cleanup, err := loadView(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		var parent *int64
		switch {
		case askNoParent:
		case cmd.Flags().Changed("parent"):
			if err := view.Select(askParent); err != nil {
				return err
			}
			parent = &askParent
		default:
			if selected, ok := view.Selected(); ok {
				parent = &selected
			}
		}
		if parent != nil {
			internal.LogDebug("Asking in session %d after conversation %d", sessionID, *parent)
		}

		out := cmd.OutOrStdout()
		if askSync {
			var res *internal.SyncDialogResult
			err := internal.ShowProgress(cmd.Context(), "Waiting for the answer", func() error {
				var err error
				res, err = view.AskSync(cmd.Context(), prompt, parent)
				return err
			})
			if err != nil {
				return err
			}
			if tr, err := view.Transcript(); err == nil && len(tr.Messages) > 0 {
				fmt.Fprintln(out, tr.Messages[len(tr.Messages)-1].Content)
			}
			fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("Selected conversation %d", res.ConversationID)))
			return nil
		}

		spinner := internal.StartSpinner(os.Stderr, "Waiting for the answer")
		var stopOnce sync.Once
		stopSpinner := func() { stopOnce.Do(spinner.Stop) }
		defer stopSpinner()

		res, err := view.Ask(cmd.Context(), prompt, parent, func(chunk string) {
			stopSpinner()
			fmt.Fprint(out, chunk)
		})
		stopSpinner()
		if res != nil && res.Answer != "" {
			fmt.Fprintln(out)
		}
		if err != nil {
			if internal.IsTimeout(err) {
				return fmt.Errorf("no answer within %s: %w", cfg.IdleTimeout, err)
			}
			return err
		}

		if !res.Resolved {
			internal.PrintWarning("Selection could not be restored")
			return nil
		}
		fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("Selected conversation %d", res.IDs.ConversationID)))
		return nil
	},
}

func init() {
	rootCmd.AddCommand(askCmd)
	askCmd.Flags().Int64Var(&askParent, "parent", 0, "Fork from this conversation")
	askCmd.Flags().BoolVar(&askNoParent, "no-parent", false, "Send without a parent conversation")
	askCmd.Flags().BoolVar(&askSync, "sync", false, "Use the non-streaming endpoint")
}
