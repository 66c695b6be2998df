package cmd

import (
	"fmt"
	"os"

	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
)

var (
	verbose    bool
	configPath string
	baseURL    string
	cachePath  string
	turns      string
	offline    bool
	version    string = "dev"
	commit     string = "unknown"
	date       string = "unknown"

	// cfg is resolved before every command runs
	cfg internal.Config
)

// rootCmd represents the base command when called without any subcommands
var rootCmd = &cobra.Command{
	Use:   "branch-chat",
	Short: "Terminal client for branching AI conversations",
	Long: `A terminal client for a branching conversation service.

Every question you ask becomes a turn in a tree: continue the latest branch
or fork from any earlier answer. Answers are streamed as they are generated.

Features:
  • Browse sessions grouped by category
  • Render a session as a turn tree with stars and the selected path
  • Ask questions, streamed or synchronous, forking from any turn
  • Star and comment on turns
  • Read or export the history leading to a turn (JSONL, Markdown, YAML, JSON)
  • Offline browsing from a local snapshot cache

Quick Start:
  branch-chat sessions                    # List sessions
  branch-chat tree <session-id>           # Show the turn tree
  branch-chat ask <session-id> "Why?"     # Ask, continuing the selected turn
  branch-chat history <session-id>        # Show the selected path as a chat`,
	Version:       fmt.Sprintf("%s (commit: %s, built: %s)", version, commit, date),
	SilenceUsage:  true,
	SilenceErrors: true,
	PersistentPreRunE: func(cmd *cobra.Command, args []string) error {
		loaded, err := internal.LoadConfig(configPath)
		if err != nil {
			return err
		}
		if err := applyFlags(cmd, &loaded); err != nil {
			return err
		}
		cfg = loaded
		internal.SetVerbose(cfg.Verbose)
		internal.LogDebug("Using API %s, cache %s, %s turns", cfg.BaseURL, cfg.CachePath, cfg.Turns)
		return nil
	},
}

// applyFlags overrides config values with flags given on the command line
func applyFlags(cmd *cobra.Command, c *internal.Config) error {
	flags := cmd.Flags()
	if flags.Changed("base-url") {
		c.BaseURL = baseURL
	}
	if flags.Changed("cache") {
		c.CachePath = cachePath
	}
	if flags.Changed("turns") {
		c.Turns = turns
	}
	if flags.Changed("verbose") {
		c.Verbose = verbose
	}
	if err := c.Validate(); err != nil {
		return &internal.ConfigError{Source: "flags", Field: "validate", Err: err}
	}
	return nil
}

// Execute adds all child commands to the root command and sets flags appropriately.
func Execute() {
	if err := rootCmd.Execute(); err != nil {
		fmt.Fprintf(os.Stderr, "Error: %v\n", err)
		os.Exit(1)
	}
}

func init() {
	rootCmd.PersistentFlags().BoolVarP(&verbose, "verbose", "v", false, "Enable verbose logging")
	rootCmd.PersistentFlags().StringVar(&configPath, "config", "", "Config file (default ~/.config/branch-chat/config.yaml)")
	rootCmd.PersistentFlags().StringVar(&baseURL, "base-url", "", "API base URL (default "+internal.DefaultBaseURL+")")
	rootCmd.PersistentFlags().StringVar(&cachePath, "cache", "", "Snapshot cache database (default ~/.branch-chat-cache/snapshots.db)")
	rootCmd.PersistentFlags().StringVar(&turns, "turns", "", "Turn layout: decomposed or merged")
	rootCmd.PersistentFlags().BoolVar(&offline, "offline", false, "Read from the snapshot cache instead of the server")

	// Registered up front so they parse wherever they appear on the line
	rootCmd.InitDefaultHelpFlag()
	rootCmd.InitDefaultVersionFlag()
	rootCmd.SetVersionTemplate(`{{printf "%s\n" .Version}}`)
}
