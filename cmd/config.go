package cmd

import (
	"fmt"
	"os"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
	"gopkg.in/yaml.v3"
)

var configForce bool

var (
	filePathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("243"))
)

// configCmd represents the config command
var configCmd = &cobra.Command{
	Use:   "config",
	Short: "Show or create the configuration file",
}

// configShowCmd represents the config show command
var configShowCmd = &cobra.Command{
	Use:   "show",
	Short: "Print the effective configuration",
	Long: `Print the configuration after applying, in order of precedence:
  • Command line flags
  • BRANCH_CHAT_* environment variables
  • The config file
  • Built-in defaults`,
	Args: cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		data, err := yaml.Marshal(cfg)
		if err != nil {
			return err
		}
		_, err = cmd.OutOrStdout().Write(data)
		return err
	},
}

// configPathCmd represents the config path command
var configPathCmd = &cobra.Command{
	Use:   "path",
	Short: "Show where configuration and cache files are looked up",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		out := cmd.OutOrStdout()
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}

		fmt.Fprintln(out, infoStyle.Render("Config file:"))
		fmt.Fprintf(out, "  %s\n", filePathStyle.Render(path))
		fmt.Fprintf(out, "  %s\n", describePath(path))

		fmt.Fprintln(out, infoStyle.Render("Snapshot cache:"))
		fmt.Fprintf(out, "  %s\n", filePathStyle.Render(cfg.CachePath))
		fmt.Fprintf(out, "  %s\n", describePath(cfg.CachePath))
		return nil
	},
}

// configInitCmd represents the config init command
var configInitCmd = &cobra.Command{
	Use:   "init",
	Short: "Write the effective configuration to the config file",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		path, err := resolvedConfigPath()
		if err != nil {
			return err
		}
		if _, err := os.Stat(path); err == nil && !configForce {
			return fmt.Errorf("%s already exists (use --force to overwrite)", path)
		}
		if err := cfg.Save(path); err != nil {
			return err
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Wrote %s\n", path)
		return nil
	},
}

func resolvedConfigPath() (string, error) {
	if configPath != "" {
		return configPath, nil
	}
	return internal.DefaultConfigPath()
}

func describePath(path string) string {
	info, err := os.Stat(path)
	switch {
	case err == nil && info.IsDir():
		return warningStyle.Render("⚠️  Is a directory")
	case err == nil:
		return successStyle.Render(fmt.Sprintf("✅ Exists (%d bytes)", info.Size()))
	case os.IsNotExist(err):
		return warningStyle.Render("⚠️  Does not exist")
	default:
		return errorStyle.Render(fmt.Sprintf("❌ Cannot access: %v", err))
	}
}

func init() {
	rootCmd.AddCommand(configCmd)
	configCmd.AddCommand(configShowCmd, configPathCmd, configInitCmd)
	configInitCmd.Flags().BoolVar(&configForce, "force", false, "Overwrite an existing file")
}
