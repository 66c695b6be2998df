package cmd

import (
	"errors"
	"fmt"
	"strings"
	"text/tabwriter"

	"github.com/iksnae/branch-chat/internal"
	"github.com/iksnae/branch-chat/internal/api"
	"github.com/spf13/cobra"
)

var errOfflineCommand = errors.New("not available with --offline")

// categoriesCmd represents the categories command
var categoriesCmd = &cobra.Command{
	Use:   "categories",
	Short: "List session categories",
	Args:  cobra.NoArgs,
	RunE: func(cmd *cobra.Command, args []string) error {
		var categories []internal.Category
		if offline {
			cm, err := openCache()
			if err != nil {
				return err
			}
			defer closeCache(cm)
			if categories, err = cm.LoadCategories(); err != nil {
				return err
			}
		} else {
			var err error
			categories, err = newAPIClient().ListCategories(cmd.Context())
			if err != nil {
				return fmt.Errorf("failed to list categories: %w", err)
			}
		}

		out := cmd.OutOrStdout()
		if len(categories) == 0 {
			fmt.Fprintln(out, headerStyle.Render("📂 No categories found"))
			return nil
		}
		fmt.Fprintln(out, headerStyle.Render(fmt.Sprintf("📂 Found %d categor(ies)", len(categories))))
		w := tabwriter.NewWriter(out, 0, 0, 3, ' ', 0)
		_, _ = fmt.Fprintln(w, titleStyle.Render("ID")+"\t"+titleStyle.Render("Name")+"\t")
		for _, c := range categories {
			_, _ = fmt.Fprintf(w, "%s\t%s\t\n", idStyle.Render(fmt.Sprint(c.ID)), c.Name)
		}
		return w.Flush()
	},
}

var categoryCreateCmd = &cobra.Command{
	Use:   "create <name>",
	Short: "Create a category",
	Args:  cobra.MinimumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("create category: %w", errOfflineCommand)
		}
		name := strings.Join(args, " ")
		if err := newAPIClient().CreateCategory(cmd.Context(), name); err != nil {
			return fmt.Errorf("failed to create category: %w", err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Created category %q\n", name)
		return nil
	},
}

var categoryRenameCmd = &cobra.Command{
	Use:   "rename <category-id> <name>",
	Short: "Rename a category",
	Args:  cobra.MinimumNArgs(2),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("rename category: %w", errOfflineCommand)
		}
		id, err := parseID("category", args[0])
		if err != nil {
			return err
		}
		name := strings.Join(args[1:], " ")
		if err := newAPIClient().UpdateCategory(cmd.Context(), api.UpdateCategoryRequest{ID: id, Name: name}); err != nil {
			return fmt.Errorf("failed to rename category %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Renamed category %d to %q\n", id, name)
		return nil
	},
}

var categoryDeleteCmd = &cobra.Command{
	Use:   "delete <category-id>",
	Short: "Delete a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("delete category: %w", errOfflineCommand)
		}
		id, err := parseID("category", args[0])
		if err != nil {
			return err
		}
		if err := newAPIClient().DeleteCategory(cmd.Context(), id); err != nil {
			return fmt.Errorf("failed to delete category %d: %w", id, err)
		}
		fmt.Fprintf(cmd.OutOrStdout(), "Deleted category %d\n", id)
		return nil
	},
}

var categorySessionsCmd = &cobra.Command{
	Use:   "sessions <category-id>",
	Short: "List the sessions of a category",
	Args:  cobra.ExactArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("category sessions: %w", errOfflineCommand)
		}
		id, err := parseID("category", args[0])
		if err != nil {
			return err
		}
		res, err := newAPIClient().SessionsByCategory(cmd.Context(), id)
		if err != nil {
			return fmt.Errorf("failed to list sessions of category %d: %w", id, err)
		}
		displaySessions(cmd.OutOrStdout(), res.Sessions, []internal.Category{{ID: res.CategoryID, Name: res.CategoryName}})
		return nil
	},
}

func init() {
	rootCmd.AddCommand(categoriesCmd)
	categoriesCmd.AddCommand(categoryCreateCmd, categoryRenameCmd, categoryDeleteCmd, categorySessionsCmd)
}
