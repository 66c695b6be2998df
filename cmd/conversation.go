package cmd

import (
	"fmt"
	"strings"

	"github.com/spf13/cobra"
)

var commentDelete bool

// starCmd represents the star command
var starCmd = &cobra.Command{
	Use:   "star <session-id> <conversation-id>",
	Short: "Toggle the star of a conversation",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("star: %w", errOfflineCommand)
		}
		sessionID, convID, err := parseSessionAndConversation(args)
		if err != nil {
			return err
		}

		view, cleanup, err := loadView(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		starred, err := view.ToggleStar(cmd.Context(), convID)
		if err != nil {
			return fmt.Errorf("failed to toggle star of %d: %w", convID, err)
		}
		state := "Unstarred"
		if starred {
			state = "Starred"
		}
		fmt.Fprintf(cmd.OutOrStdout(), "%s conversation %d (%d starred in session)\n", state, convID, len(view.StarredIDs()))
		return nil
	},
}

// commentCmd represents the comment command
var commentCmd = &cobra.Command{
	Use:   "comment <session-id> <conversation-id> [text...]",
	Short: "Set or delete the comment of a conversation",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("comment: %w", errOfflineCommand)
		}
		sessionID, convID, err := parseSessionAndConversation(args)
		if err != nil {
			return err
		}
		text := strings.TrimSpace(strings.Join(args[2:], " "))
		if !commentDelete && text == "" {
			return fmt.Errorf("comment text is required (use --delete to remove it)")
		}

		view, cleanup, err := loadView(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		if commentDelete {
			if err := view.DeleteComment(cmd.Context(), convID); err != nil {
				return fmt.Errorf("failed to delete comment of %d: %w", convID, err)
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted comment of conversation %d\n", convID)
			return nil
		}

		if err := view.UpdateComment(cmd.Context(), convID, text); err != nil {
			return fmt.Errorf("failed to comment on %d: %w", convID, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Updated comment of conversation %d\n", convID)
		return nil
	},
}

// selectCmd represents the select command
var selectCmd = &cobra.Command{
	Use:   "select <session-id> <conversation-id>",
	Short: "Select the conversation later commands continue from",
	Args:  cobra.ExactArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		sessionID, convID, err := parseSessionAndConversation(args)
		if err != nil {
			return err
		}

		view, cleanup, err := loadView(cmd.Context(), sessionID)
		if err != nil {
			return err
		}
		defer cleanup()

		if err := view.Select(convID); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Selected conversation %d (path %s)\n", convID, joinIDs(view.AncestorIDs()))
		return nil
	},
}

func parseSessionAndConversation(args []string) (int64, int64, error) {
	sessionID, err := parseID("session", args[0])
	if err != nil {
		return 0, 0, err
	}
	convID, err := parseID("conversation", args[1])
	if err != nil {
		return 0, 0, err
	}
	return sessionID, convID, nil
}

func joinIDs(ids []int64) string {
	parts := make([]string, len(ids))
	for i, id := range ids {
		parts[i] = fmt.Sprint(id)
	}
	return strings.Join(parts, " → ")
}

func init() {
	rootCmd.AddCommand(starCmd, commentCmd, selectCmd)
	commentCmd.Flags().BoolVar(&commentDelete, "delete", false, "Delete the comment")
}
