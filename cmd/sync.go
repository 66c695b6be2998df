package cmd

import (
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"sync"

	"github.com/iksnae/branch-chat/internal"
	"github.com/spf13/cobra"
	"golang.org/x/sync/errgroup"
)

var (
	syncOutput      string
	syncConcurrency int
)

// syncCmd represents the sync command
var syncCmd = &cobra.Command{
	Use:   "sync [session-id...]",
	Short: "Download session trees into the snapshot cache",
	Long: `Fetch the dialog trees of the given sessions (all sessions when none are
given) and store them in the snapshot cache for --offline use.

With --out the raw trees are also written as JSON files for debugging.`,
	RunE: func(cmd *cobra.Command, args []string) error {
		if offline {
			return fmt.Errorf("sync: %w", errOfflineCommand)
		}
		if syncConcurrency < 1 {
			return fmt.Errorf("--concurrency must be at least 1, got %d", syncConcurrency)
		}
		cm, err := internal.NewCacheManager(cfg.CachePath)
		if err != nil {
			return err
		}
		defer closeCache(cm)

		client := newAPIClient()
		ctx := cmd.Context()

		var ids []int64
		if len(args) > 0 {
			for _, arg := range args {
				id, err := parseID("session", arg)
				if err != nil {
					return err
				}
				ids = append(ids, id)
			}
		} else {
			sessions, categories, err := fetchSessionList(ctx, client)
			if err != nil {
				return err
			}
			if err := cm.SaveSessions(sessions); err != nil {
				return err
			}
			if err := cm.SaveCategories(categories); err != nil {
				return err
			}
			for _, s := range sessions {
				ids = append(ids, s.ID)
			}
		}

		var (
			mu    sync.Mutex
			trees = make([]*internal.DialogTreeData, 0, len(ids))
		)
		err = internal.ShowProgress(ctx, fmt.Sprintf("Fetching %d session tree(s)", len(ids)), func() error {
			g, gctx := errgroup.WithContext(ctx)
			g.SetLimit(syncConcurrency)
			for _, id := range ids {
				id := id
				g.Go(func() error {
					data, err := client.SessionTree(gctx, id)
					if err != nil {
						return fmt.Errorf("failed to fetch session %d: %w", id, err)
					}
					mu.Lock()
					trees = append(trees, data)
					mu.Unlock()
					return nil
				})
			}
			return g.Wait()
		})
		if err != nil {
			return err
		}

		if syncOutput != "" {
			if err := os.MkdirAll(syncOutput, 0755); err != nil {
				return fmt.Errorf("failed to create output directory: %w", err)
			}
		}

		nodes := 0
		for _, data := range trees {
			if err := cm.SaveTree(data); err != nil {
				return err
			}
			nodes += internal.CountNodes(internal.Synthesize(data.DialogTree, internal.WithLayout(cfg.Layout())))
			if syncOutput != "" {
				if err := writeTreeJSON(syncOutput, data); err != nil {
					internal.LogError("Failed to write session %d: %v", data.SessionID, err)
				}
			}
			internal.LogDebug("Cached session %d", data.SessionID)
		}

		fmt.Fprintf(cmd.OutOrStdout(), "Synced %d session(s), %d turn(s)\n", len(trees), nodes)
		return nil
	},
}

func writeTreeJSON(dir string, data *internal.DialogTreeData) error {
	b, err := json.MarshalIndent(data, "", "  ")
	if err != nil {
		return err
	}
	return os.WriteFile(filepath.Join(dir, fmt.Sprintf("session_%d.json", data.SessionID)), b, 0644)
}

func init() {
	rootCmd.AddCommand(syncCmd)
	syncCmd.Flags().StringVarP(&syncOutput, "out", "o", "", "Also write raw trees to this directory")
	syncCmd.Flags().IntVar(&syncConcurrency, "concurrency", 4, "Trees fetched in parallel")
}
