package cmd

import (
	"fmt"
	"io"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
)

var (
	historyConversation int64
	historyRemote       bool
)

var (
	messageMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243")).
				Italic(true)

	messageBodyStyle = lipgloss.NewStyle().
				PaddingLeft(2)
)

// historyCmd represents the history command
var historyCmd = &cobra.Command{
	Use:   "history <session-id>",
	Short: "Print the chat history leading to a conversation",
	Long: `Print the linear history from the root of the session to the selected
conversation, or to the one named by --conversation.

With --remote the history is taken from the server's ancestor chain instead of
the local tree.`,
	Args: cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, err := parseID("session", args[0])
		if err != nil {
			return err
		}

		view, cleanup, err := loadView(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		if cmd.Flags().Changed("conversation") {
			if err := view.Select(historyConversation); err != nil {
				return err
			}
		}

		var tr *internal.Transcript
		if historyRemote {
			tr, err = view.RemoteTranscript(cmd.Context())
		} else {
			tr, err = view.Transcript()
		}
		if err != nil {
			return err
		}

		printTranscript(cmd.OutOrStdout(), tr)
		return nil
	},
}

func printTranscript(out io.Writer, tr *internal.Transcript) {
	title := tr.Title
	if title == "" {
		title = fmt.Sprintf("Session %d", tr.SessionID)
	}
	fmt.Fprintln(out, sessionHeaderStyle.Render(title))
	fmt.Fprintln(out, sessionMetaStyle.Render(fmt.Sprintf("%d message(s) in %d conversation(s)", tr.Metadata.MessageCount, tr.Metadata.ConversationCount)))

	for _, msg := range tr.Messages {
		fmt.Fprintln(out)
		label := userTurnStyle.Render("You")
		if msg.Actor == string(internal.RoleAssistant) {
			label = assistantTurnStyle.Render("Assistant")
		}
		meta := fmt.Sprintf("#%d", msg.ConversationID)
		if msg.Timestamp != "" {
			meta += " " + msg.Timestamp
		}
		if msg.Starred {
			meta += " " + starStyle.Render("★")
		}
		fmt.Fprintf(out, "%s %s\n", label, messageMetaStyle.Render(meta))
		fmt.Fprintln(out, messageBodyStyle.Render(msg.Content))
		if msg.Comment != "" && msg.Actor == string(internal.RoleUser) {
			fmt.Fprintln(out, messageMetaStyle.Render("  💬 "+msg.Comment))
		}
	}
}

func init() {
	rootCmd.AddCommand(historyCmd)
	historyCmd.Flags().Int64Var(&historyConversation, "conversation", 0, "Print the history leading to this conversation")
	historyCmd.Flags().BoolVar(&historyRemote, "remote", false, "Use the server's ancestor chain")
}
