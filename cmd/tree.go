package cmd

import (
	"fmt"
	"io"
	"strings"

	"github.com/charmbracelet/lipgloss"
	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
)

var (
	treeSelect int64
	treeWidth  int
)

var (
	// Styles for tree command
	sessionHeaderStyle = lipgloss.NewStyle().
				Bold(true).
				Foreground(lipgloss.Color("212")).
				Padding(0, 1)

	sessionMetaStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("243"))

	userTurnStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("39")).
			Bold(true)

	assistantTurnStyle = lipgloss.NewStyle().
				Foreground(lipgloss.Color("135")).
				Bold(true)

	pathStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("214"))

	starStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("220")).
			Bold(true)

	connectorStyle = lipgloss.NewStyle().
			Foreground(lipgloss.Color("240"))
)

// treeCmd represents the tree command
var treeCmd = &cobra.Command{
	Use:   "tree <session-id>",
	Short: "Show the turn tree of a session",
	Long: `Render a session as a tree of turns.

▶ marks the selected conversation, ● the turns on its path, ★ starred turns.`,
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

		if cmd.Flags().Changed("select") {
			if err := view.Select(treeSelect); err != nil {
				return err
			}
		}

		session := view.Session()
		out := cmd.OutOrStdout()
		title := session.Title
		if title == "" {
			title = "Untitled"
		}
		fmt.Fprintln(out, sessionHeaderStyle.Render(fmt.Sprintf("🌳 %s (session %d)", title, sessionID)))

		root := view.Tree()
		selected, hasSel := view.Selected()
		meta := fmt.Sprintf("%d node(s), %d branch(es), %d starred", internal.CountNodes(root), len(internal.Leaves(root)), len(view.StarredIDs()))
		if hasSel {
			meta += fmt.Sprintf(", selected %d", selected)
		}
		if view.FromCache() {
			meta += ", cached"
		}
		fmt.Fprintln(out, sessionMetaStyle.Render(meta))
		fmt.Fprintln(out)

		if root == nil {
			fmt.Fprintln(out, sessionMetaStyle.Render("No conversations yet. Start one with `branch-chat ask`."))
			return nil
		}

		onPath := make(map[int64]bool)
		for _, id := range view.AncestorIDs() {
			onPath[id] = true
		}
		renderTree(out, root, treeMarks{
			selected: selected,
			hasSel:   hasSel,
			onPath:   onPath,
			width:    treeWidth,
		})
		return nil
	},
}

type treeMarks struct {
	selected int64
	hasSel   bool
	onPath   map[int64]bool
	width    int
}

// treeFrame is one pending line of the rendered tree
type treeFrame struct {
	node   *internal.TurnNode
	prefix string
	last   bool
	root   bool
}

// renderTree draws the tree with box-drawing connectors, iteratively so that
// deep trees do not grow the call stack
func renderTree(out io.Writer, root *internal.TurnNode, marks treeMarks) {
	stack := []treeFrame{{node: root, root: true, last: true}}
	for len(stack) > 0 {
		f := stack[len(stack)-1]
		stack = stack[:len(stack)-1]

		connector, childPrefix := "", ""
		if !f.root {
			connector = "├─ "
			childPrefix = f.prefix + "│  "
			if f.last {
				connector = "└─ "
				childPrefix = f.prefix + "   "
			}
		}
		fmt.Fprintf(out, "%s%s\n", connectorStyle.Render(f.prefix+connector), turnLabel(f.node, marks))

		children := f.node.Children
		for i := len(children) - 1; i >= 0; i-- {
			if children[i] == nil {
				continue
			}
			stack = append(stack, treeFrame{node: children[i], prefix: childPrefix, last: i == len(children)-1})
		}
	}
}

func turnLabel(node *internal.TurnNode, marks treeMarks) string {
	mark := " "
	switch {
	case marks.hasSel && node.ConversationID == marks.selected && node.Leading():
		mark = "▶"
	case marks.onPath[node.ConversationID]:
		mark = "●"
	}

	var role string
	switch node.Role {
	case internal.RoleUser:
		role = userTurnStyle.Render("Q")
	case internal.RoleAssistant:
		role = assistantTurnStyle.Render("A")
	default:
		role = userTurnStyle.Render("Q") + "/" + assistantTurnStyle.Render("A")
	}

	text := node.Content
	if node.Role == internal.RoleTurn {
		text = node.Prompt + " → " + node.Content
	}
	text = truncate(strings.Join(strings.Fields(text), " "), marks.width)
	if marks.onPath[node.ConversationID] {
		text = pathStyle.Render(text)
	}

	label := fmt.Sprintf("%s %s #%d %s", mark, role, node.ConversationID, text)
	if node.IsStarred && node.Leading() {
		label += " " + starStyle.Render("★")
	}
	if node.Comment != "" && node.Leading() {
		label += " " + sessionMetaStyle.Render("💬")
	}
	return label
}

func truncate(s string, width int) string {
	if width <= 0 {
		return s
	}
	runes := []rune(s)
	if len(runes) <= width {
		return s
	}
	if width <= 3 {
		return string(runes[:width])
	}
	return string(runes[:width-3]) + "..."
}

func init() {
	rootCmd.AddCommand(treeCmd)
	treeCmd.Flags().Int64Var(&treeSelect, "select", 0, "Select a conversation before rendering")
	treeCmd.Flags().IntVar(&treeWidth, "width", 60, "Truncate turn text to this many characters (0 for no limit)")
}
