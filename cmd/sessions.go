package cmd

import (
	"context"
	"fmt"
	"io"
	"sort"
	"strings"
	"text/tabwriter"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/internal/api"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	sessionsClearCache bool
	sessionsCategory   int64
	sessionTitle       string
	sessionCategoryID  int64
)

var (
	// Styles
	headerStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("62")).
			Padding(0, 1)

	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(lipgloss.Color("212"))

	idStyle = lipgloss.NewStyle().
		Foreground(lipgloss.Color("240")).
		Italic(true)

	countStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	dateStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))

	categoryStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("135")).
			Italic(true)
)

// sessionsCmd represents the sessions command
var sessionsCmd = &cobra.Command{
	Use:   "sessions",
	Short: "List sessions grouped by category",
	Long:  `List all sessions, grouped by category. Results are stored in the snapshot cache for --offline use.`,
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		cm, err := openCache()
		if err != nil {
			return err
		}
		defer closeCache(cm)

		if sessionsClearCache && cm != nil {
			if err := cm.ClearCache(); err != nil {
				internal.LogWarn("Failed to clear cache: %v", err)
			} else {
				internal.LogInfo("Cache cleared")
			}
		}

		var sessions []internal.Session
		var categories []internal.Category
		if offline {
			if sessions, err = cm.LoadSessions(); err != nil {
				return err
			}
			if categories, err = cm.LoadCategories(); err != nil {
				return err
			}
		} else {
			sessions, categories, err = fetchSessionList(cmd.Context(), newAPIClient())
			if err != nil {
				return err
			}
			if cm != nil {
				if err := cm.SaveSessions(sessions); err != nil {
					internal.LogWarn("Failed to cache sessions: %v", err)
				}
				if err := cm.SaveCategories(categories); err != nil {
					internal.LogWarn("Failed to cache categories: %v", err)
				}
			}
		}

		if cmd.Flags().Changed("category") {
			filtered := sessions[:0]
			for _, s := range sessions {
				if s.CategoryID == sessionsCategory {
					filtered = append(filtered, s)
				}
			}
			sessions = filtered
		}

		displaySessions(cmd.OutOrStdout(), sessions, categories)
		return nil
	},
}

// fetchSessionList loads sessions and categories concurrently
func fetchSessionList(ctx context.Context, client *api.Client) ([]internal.Session, []internal.Category, error) {
	var sessions []internal.Session
	var categories []internal.Category

	g, ctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		sessions, err = client.ListSessions(ctx)
		if err != nil {
			return fmt.Errorf("failed to list sessions: %w", err)
		}
		return nil
	})
	g.Go(func() error {
		var err error
		categories, err = client.ListCategories(ctx)
		if err != nil {
			return fmt.Errorf("failed to list categories: %w", err)
		}
		return nil
	})
	if err := g.Wait(); err != nil {
		return nil, nil, err
	}
	return sessions, categories, nil
}

func displaySessions(out io.Writer, sessions []internal.Session, categories []internal.Category) {
	if len(sessions) == 0 {
		fmt.Fprintln(out, headerStyle.Render("📋 No sessions found"))
		return
	}

	names := make(map[int64]string, len(categories))
	for _, c := range categories {
		names[c.ID] = c.Name
	}

	groups := make(map[int64][]internal.Session)
	var order []int64
	for _, s := range sessions {
		if _, ok := groups[s.CategoryID]; !ok {
			order = append(order, s.CategoryID)
		}
		groups[s.CategoryID] = append(groups[s.CategoryID], s)
	}
	sort.SliceStable(order, func(i, j int) bool {
		return categoryName(names, order[i]) < categoryName(names, order[j])
	})

	fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📋 Found %d session(s)", len(sessions))))
	fmt.Fprintln(out)

	// Use tabwriter for aligned columns
	w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
	for _, categoryID := range order {
		_, _ = fmt.Fprintln(w, categoryStyle.Render(categoryName(names, categoryID))+" "+countStyle.Render(fmt.Sprintf("(%d)", len(groups[categoryID])))+"\t")
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Title")+"\t"+titleStyle.Render("Updated")+"\t")
		_, _ = fmt.Fprintln(w, strings.Repeat("─", 72))

		for _, s := range groups[categoryID] {
			title := s.Title
			if title == "" {
				title = "Untitled"
			}
			if len([]rune(title)) > 50 {
				title = string([]rune(title)[:47]) + "..."
			}
			_, _ = fmt.Fprintf(w, "%s\t%s\t%s\t\n", idStyle.Render(fmt.Sprint(s.ID)), title, formatWhen(s.UpdatedAt))
		}
		_, _ = fmt.Fprintln(w, "\t")
	}
	_ = w.Flush()

	fmt.Fprintln(out, idStyle.Render("💡 Tip: Use an ID with `branch-chat tree <id>`"))
}

func categoryName(names map[int64]string, id int64) string {
	if name, ok := names[id]; ok && name != "" {
		return name
	}
	if id == 0 {
		return "Uncategorized"
	}
	return fmt.Sprintf("Category %d", id)
}

// formatWhen renders a timestamp relative to now
func formatWhen(ts internal.Timestamp) string {
	if ts.IsZero() {
		return dateStyle.Render("—")
	}
	t := ts.Local()
	diff := time.Since(t)
	switch {
	case diff < 24*time.Hour:
		return dateStyle.Render(t.Format("Today 15:04"))
	case diff < 7*24*time.Hour:
		return dateStyle.Render(t.Format("Mon 15:04"))
	case diff < 365*24*time.Hour:
		return dateStyle.Render(t.Format("Jan 02 15:04"))
	default:
		return dateStyle.Render(t.Format("2006-01-02"))
	}
}

var sessionCreateCmd = &cobra.Command{
	Use:   "create",
	Short: "Create a session",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("create session: %w", errOfflineCommand)
		}
		if strings.TrimSpace(sessionTitle) == "" {
			return fmt.Errorf("--title is required")
		}
		created, err := newAPIClient().CreateSession(cmd.Context(), api.CreateSessionRequest{Title: sessionTitle, CategoryID: sessionCategoryID})
		if err != nil {
			return fmt.Errorf("failed to create session: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created session %d: %s\n", created.SessionID, created.Title)
		return nil
	},
}

var sessionDeleteCmd = &cobra.Command{
	Use:   "delete <session-id>",
	Short: "Delete a session",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("delete session: %w", errOfflineCommand)
		}
		id, err := parseID("session", args[0])
		if err != nil {
			return err
		}
		if err := newAPIClient().DeleteSession(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete session %d: %w", id, err)
		}

		cm, err := openCache()
		if err == nil && cm != nil {
			if err := cm.DeleteSession(id); err != nil {
				internal.LogWarn("Failed to drop session %d from cache: %v", id, err)
			}
			closeCache(cm)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted session %d\n", id)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(sessionsCmd)
	sessionsCmd.AddCommand(sessionCreateCmd, sessionDeleteCmd)
	sessionsCmd.Flags().BoolVar(&sessionsClearCache, "clear-cache", false, "Clear the cache before running")
	sessionsCmd.Flags().Int64Var(&sessionsCategory, "category", 0, "Only list sessions of this category")
	sessionCreateCmd.Flags().StringVar(&sessionTitle, "title", "", "Session title")
	sessionCreateCmd.Flags().Int64Var(&sessionCategoryID, "category", 0, "Category id")
}
