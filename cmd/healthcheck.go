package cmd

import (
	"fmt"
	"io"
	"time"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
)

var (
	healthcheckDetails bool
)

var (
	successStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("42")).
			Bold(true)

	warningStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214")).
			Bold(true)

	errorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("196")).
			Bold(true)

	infoStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39"))

	sectionStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("62")).
			Bold(true).
			Underline(true)
)

// healthcheckCmd represents the healthcheck command
var healthcheckCmd = &cobra.Command{
	Use:   "healthcheck",
	Short: "Check if branch-chat can reach the service and its cache",
	Long: `Check the health of branch-chat by verifying:
  • Configuration
  • API reachability
  • Snapshot cache accessibility

This command is useful for debugging connection issues, especially in CI/CD environments.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		fmt.Fprintln(out, sectionStyle.Render("🔍 Branch Chat Health Check"))
		fmt.Fprintln(out)

		// Step 1: Configuration
		fmt.Fprintln(out, infoStyle.Render("Step 1: Checking configuration..."))
		fmt.Fprintln(out, successStyle.Render("✅ Configuration valid"))
		if healthcheckDetails {
			fmt.Fprintf(out, "   API: %s\n", cfg.BaseURL)
			fmt.Fprintf(out, "   Request timeout: %s\n", cfg.RequestTimeout)
			fmt.Fprintf(out, "   Stream idle timeout: %s\n", newEngine(newAPIClient()).IdleTimeout())
			fmt.Fprintf(out, "   Turn layout: %s\n", cfg.Layout())
		}
		fmt.Fprintln(out)

		// Step 2: API
		apiOK := true
		if offline {
			fmt.Fprintln(out, infoStyle.Render("Step 2: Skipping API check (offline)"))
		} else {
			fmt.Fprintln(out, infoStyle.Render("Step 2: Contacting the API..."))
			apiOK = checkAPI(cmd, out)
		}
		fmt.Fprintln(out)

		// Step 3: Cache
		fmt.Fprintln(out, infoStyle.Render("Step 3: Opening the snapshot cache..."))
		cacheOK := checkCache(out)
		fmt.Fprintln(out)

		// Summary
		fmt.Fprintln(out, sectionStyle.Render("📊 Summary"))
		fmt.Fprintln(out)

		switch {
		case apiOK && cacheOK:
			fmt.Fprintln(out, successStyle.Render("✅ Health check passed!"))
			return nil
		case apiOK:
			fmt.Fprintln(out, warningStyle.Render("⚠️  API reachable but the snapshot cache is unavailable"))
			fmt.Fprintln(out, "   • --offline will not work")
			return nil
		default:
			fmt.Fprintln(out, errorStyle.Render("❌ Health check failed"))
			fmt.Fprintln(out, "   • The API cannot be reached")
			if cacheOK {
				fmt.Fprintln(out, "   • Cached sessions are still available with --offline")
			}
			return fmt.Errorf("health check failed: API unreachable at %s", cfg.BaseURL)
		}
	},
}

func checkAPI(cmd *cobra.Command, out io.Writer) bool {
	client := newAPIClient()
	start := time.Now()
	sessions, err := client.ListSessions(cmd.Context())
	if err != nil {
		fmt.Fprintln(out, errorStyle.Render("❌ Failed to list sessions:"), err)
		return false
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ API reachable, %d session(s) found", len(sessions))))
	if healthcheckDetails {
		fmt.Fprintf(out, "   Round trip: %s\n", time.Since(start).Round(time.Millisecond))
		for i, s := range sessions {
			if i == 5 {
				fmt.Fprintf(out, "   ... and %d more\n", len(sessions)-5)
				break
			}
			fmt.Fprintf(out, "   [%d] %s (ID: %d)\n", i+1, s.Title, s.ID)
		}
	}
	return true
}

func checkCache(out io.Writer) bool {
	cm, err := internal.NewCacheManager(cfg.CachePath)
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Snapshot cache unavailable:"), err)
		return false
	}
	defer closeCache(cm)

	counts, err := internal.TableCounts(cm.DB())
	if err != nil {
		fmt.Fprintln(out, warningStyle.Render("⚠️  Snapshot cache unreadable:"), err)
		return false
	}
	fmt.Fprintln(out, successStyle.Render(fmt.Sprintf("✅ Snapshot cache ready (%d session(s), %d tree(s))", counts["sessions"], counts["dialog_trees"])))
	if healthcheckDetails {
		fmt.Fprintf(out, "   Database: %s\n", cm.Path())
		fmt.Fprintf(out, "   Categories: %d, selections: %d\n", counts["categories"], counts["selections"])
	}
	return true
}

func init() {
	rootCmd.AddCommand(healthcheckCmd)
	healthcheckCmd.Flags().BoolVar(&healthcheckDetails, "details", false, "Show detailed diagnostic information")
}
