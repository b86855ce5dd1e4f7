package cmd

import (
	"context"
	"fmt"
	"time"

	"github.com/charmbracelet/huh"
	"github.com/spf13/cobra"

	"github.com/pmattila/loom/internal/config"
	"github.com/pmattila/loom/internal/logging"
	"github.com/pmattila/loom/internal/search"
	"github.com/pmattila/loom/internal/session"
	"github.com/pmattila/loom/pkg/models"
)

// pickCmd opens an interactive picker over the locally cached entity
// set. Selection prints the identity and its file, suitable for
// editor integration.
var pickCmd = &cobra.Command{
	Use:   "pick [PATTERN]",
	Short: "Interactively pick an issue from the local cache",
	Long: `Open an incremental picker over every identity-bearing section in
the working directory. The index refreshes on a timer and on file
changes while the picker is open. An optional starting pattern
pre-narrows the candidate list.

With --refresh, a background sync of the default query runs while the
picker is open, so the index picks up remotely updated issues; without
it the picker works entirely offline.`,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		pattern := ""
		if len(args) == 1 {
			pattern = args[0]
		}

		refresh, err := cmd.Flags().GetBool("refresh")
		if err != nil {
			return err
		}

		cfg, err := config.LoadConfig()
		if err != nil {
			return fmt.Errorf("failed to load configuration: %w", err)
		}

		var index *search.Index
		if refresh {
			sess, err := session.Open(cfg)
			if err != nil {
				return err
			}
			defer sess.Close()

			index = sess.Index()
			if err := index.Rebuild(); err != nil {
				return fmt.Errorf("failed to build search index: %w", err)
			}

			// The render pass rebuilds the index on completion, so
			// freshly synced issues become pickable mid-session.
			sess.StartIndexWatch(30 * time.Second)
			sess.SyncIssueListAsync(defaultSyncQuery, 0, func(res models.SyncResult, err error) {
				if err != nil {
					logging.Warn("background refresh failed", "error", err)
					return
				}
				logging.Debug("background refresh complete",
					"created", res.Created,
					"updated", res.Updated)
			})
		} else {
			index = search.New(cfg.Workdir)
			if err := index.Rebuild(); err != nil {
				return fmt.Errorf("failed to build search index: %w", err)
			}

			// Keep the index fresh for the lifetime of the picker; the
			// watcher is cancelled on every exit path.
			ctx, cancel := context.WithCancel(context.Background())
			defer cancel()
			go func() {
				if err := index.Watch(ctx, 30*time.Second); err != nil && err != context.Canceled {
					logging.Warn("index watcher stopped", "error", err)
				}
			}()
		}

		candidates := index.Match(pattern)
		if len(candidates) == 0 {
			return fmt.Errorf("no cached entities match %q (run 'loom sync' first)", pattern)
		}

		options := make([]huh.Option[string], 0, len(candidates))
		for _, e := range candidates {
			options = append(options,
				huh.NewOption(fmt.Sprintf("%-12s %s", e.Identity, e.Summary), e.Identity))
		}

		var selected string
		form := huh.NewForm(huh.NewGroup(
			huh.NewSelect[string]().
				Title("Pick an issue").
				Options(options...).
				Height(15).
				Value(&selected),
		))
		if err := form.Run(); err != nil {
			return err
		}

		entry, ok := index.Resolve(selected)
		if !ok {
			return fmt.Errorf("selection %s vanished from the index", selected)
		}

		fmt.Printf("%s\t%s\n", entry.Identity, entry.File)
		return nil
	},
}

func init() {
	rootCmd.AddCommand(pickCmd)
	pickCmd.Flags().Bool("refresh", false, "Sync the default query in the background while picking")
}
